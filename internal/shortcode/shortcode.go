// Package shortcode generates random, URL-safe short codes.
//
// Every generator draws from an alphabet that is a subset of the custom short code
// charset [a-zA-Z0-9_-], so generated and user supplied codes are indistinguishable.
// Uniqueness is not guaranteed here: the store's unique constraint is the arbiter.
package shortcode

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/sqids/sqids-go"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	KindNanoID = "nanoid"
	KindSqids  = "sqids"
)

// ErrInvalidLength is returned when a generator is configured with a non-positive length.
var ErrInvalidLength = errors.New("short code length must be positive")

// Generator produces a fresh candidate short code on every call.
type Generator interface {
	Generate() (string, error)
}

// New returns the generator registered under kind.
func New(kind string, length int) (Generator, error) {
	const op = "shortcode.New"

	switch kind {
	case "", KindNanoID:
		return NewNanoID(length)
	case KindSqids:
		return NewSqids(length)
	default:
		return nil, fmt.Errorf("%s: unknown generator %q", op, kind)
	}
}

// NanoID generates codes with the default nanoid alphabet (A-Za-z0-9_-).
type NanoID struct {
	length int
}

func NewNanoID(length int) (*NanoID, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	return &NanoID{length: length}, nil
}

func (g *NanoID) Generate() (string, error) {
	const op = "shortcode.NanoID.Generate"

	code, err := gonanoid.New(g.length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
	}

	return code, nil
}

// Sqids encodes a random number with sqids, which keeps the alphabet alphanumeric
// and skips codes containing blocklisted words.
type Sqids struct {
	sq    *sqids.Sqids
	bound uint64
}

func NewSqids(length int) (*Sqids, error) {
	const op = "shortcode.NewSqids"

	if length <= 0 || length > math.MaxUint8 {
		return nil, ErrInvalidLength
	}

	sq, err := sqids.New(sqids.Options{MinLength: uint8(length)})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to init sqids: %w", op, err)
	}

	// Keep the encoded number within length base62 digits so codes stay short.
	bound := uint64(math.MaxUint64)
	if p := math.Pow(62, float64(length)); p < float64(math.MaxUint64) {
		bound = uint64(p)
	}

	return &Sqids{sq: sq, bound: bound}, nil
}

func (g *Sqids) Generate() (string, error) {
	const op = "shortcode.Sqids.Generate"

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("%s: failed to read random bytes: %w", op, err)
	}

	n := binary.BigEndian.Uint64(buf[:]) % g.bound

	code, err := g.sq.Encode([]uint64{n})
	if err != nil {
		return "", fmt.Errorf("%s: failed to encode short code: %w", op, err)
	}

	return code, nil
}
