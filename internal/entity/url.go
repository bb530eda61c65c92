// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL, along with its
// associated metadata, and the error kinds shared by every layer.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrMissingURL is returned when no original URL is supplied.
	ErrMissingURL = errors.New("original url is required")
	// ErrInvalidURL is returned when the original URL is not a valid absolute URI.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidShortCode is returned when a custom short code contains characters outside [a-zA-Z0-9_-].
	ErrInvalidShortCode = errors.New("invalid short code format")
	// ErrShortCodeTaken is returned when a custom short code is already used by another URL.
	ErrShortCodeTaken = errors.New("short code is already taken")
	// ErrShortCodeExists is returned by repositories when an insert violates short code uniqueness.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrMaxRetriesExceeded is returned when no free short code was generated within the retry budget.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
	// ErrStoreUnavailable is returned when the underlying storage fails or times out.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrClickNotCounted is returned alongside a resolved URL when its access count could not be incremented.
	ErrClickNotCounted = errors.New("click not counted")
)

// URL represents a shortened URL.
type URL struct {
	ID          int64     // ID is the surrogate key of the URL, increasing in insertion order.
	ShortCode   string    // ShortCode is the code used to shorten the original URL.
	OriginalURL string    // OriginalURL is the full URL that the short code resolves to.
	URLStats              // URLStats contains statistics about the URL.
	CreatedAt   time.Time // CreatedAt is the timestamp when the URL was created.
	ShortURL    string    // ShortURL is the externally visible link. It is derived, never stored.
}

// URLStats contains statistics related to a shortened URL.
type URLStats struct {
	AccessCount int64 // AccessCount is the number of times the shortened URL has been resolved.
}

// URLPage is a single page of URLs ordered from newest to oldest.
type URLPage struct {
	Items   []*URL
	Page    int
	Limit   int
	Total   int64
	HasMore bool
}
