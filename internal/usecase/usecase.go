// Package usecase implements shortening, resolution and listing of URLs on top of a repository.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/vadimbarashkov/linkshrink/internal/entity"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMaxRetries = 5
	defaultPage       = 1
	defaultLimit      = 10
	maxLimit          = 100
)

var tracer = otel.Tracer("github.com/vadimbarashkov/linkshrink/internal/usecase")

type urlRepository interface {
	Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	IncrementAccessCount(ctx context.Context, shortCode string) (*entity.URL, error)
	List(ctx context.Context, offset, limit int) ([]*entity.URL, int64, error)
}

type shortCodeGenerator interface {
	Generate() (string, error)
}

type urlValidator interface {
	IsValidURL(candidate string) bool
	IsValidShortCode(candidate string) bool
}

// urlCache is a best-effort read-through cache of short code -> original URL.
// Mappings never change, so entries need no invalidation.
type urlCache interface {
	Get(ctx context.Context, shortCode string) (string, bool)
	Set(ctx context.Context, shortCode, originalURL string)
}

type collisionObserver interface {
	ObserveCollision()
}

// Option configures optional URLUseCase collaborators.
type Option func(*URLUseCase)

// WithMaxRetries sets how many generated short codes are tried before giving up.
func WithMaxRetries(n int) Option {
	return func(uc *URLUseCase) {
		if n > 0 {
			uc.maxRetries = n
		}
	}
}

// WithCache enables the read-through cache on the resolution path.
func WithCache(c urlCache) Option {
	return func(uc *URLUseCase) {
		uc.cache = c
	}
}

// WithCollisionObserver reports every generated short code that was already taken.
func WithCollisionObserver(o collisionObserver) Option {
	return func(uc *URLUseCase) {
		uc.collisions = o
	}
}

type URLUseCase struct {
	urlRepo    urlRepository
	generator  shortCodeGenerator
	validator  urlValidator
	baseURL    string
	maxRetries int
	cache      urlCache
	collisions collisionObserver
}

// New creates a URLUseCase. baseURL is the externally visible prefix of short URLs;
// a trailing slash is ignored.
func New(
	urlRepo urlRepository,
	generator shortCodeGenerator,
	validator urlValidator,
	baseURL string,
	opts ...Option,
) *URLUseCase {
	uc := &URLUseCase{
		urlRepo:    urlRepo,
		generator:  generator,
		validator:  validator,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxRetries: defaultMaxRetries,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (uc *URLUseCase) shortURL(shortCode string) string {
	return uc.baseURL + "/" + shortCode
}

func (uc *URLUseCase) withShortURL(url *entity.URL) *entity.URL {
	url.ShortURL = uc.shortURL(url.ShortCode)
	return url
}

// ShortenURL stores originalURL under customCode, or under a generated code when customCode is empty.
//
// A taken custom code yields entity.ErrShortCodeTaken. The insert itself decides uniqueness,
// so concurrent requests for the same custom code produce exactly one winner.
func (uc *URLUseCase) ShortenURL(ctx context.Context, originalURL, customCode string) (_ *entity.URL, err error) {
	const op = "usecase.URLUseCase.ShortenURL"

	ctx, span := tracer.Start(ctx, "URLUseCase.ShortenURL",
		trace.WithAttributes(attribute.Bool("custom_code", customCode != "")))
	defer func() { endSpan(span, err) }()

	originalURL = strings.TrimSpace(originalURL)
	if originalURL == "" {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrMissingURL)
	}
	if !uc.validator.IsValidURL(originalURL) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidURL)
	}

	if customCode != "" {
		if !uc.validator.IsValidShortCode(customCode) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidShortCode)
		}

		url, err := uc.urlRepo.Save(ctx, customCode, originalURL)
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeTaken)
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return uc.saved(ctx, url), nil
	}

	for i := 0; i < uc.maxRetries; i++ {
		shortCode, err := uc.generator.Generate()
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		url, err := uc.urlRepo.Save(ctx, shortCode, originalURL)
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				if uc.collisions != nil {
					uc.collisions.ObserveCollision()
				}
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return uc.saved(ctx, url), nil
	}

	return nil, fmt.Errorf("%s: %w", op, entity.ErrMaxRetriesExceeded)
}

func (uc *URLUseCase) saved(ctx context.Context, url *entity.URL) *entity.URL {
	if uc.cache != nil {
		uc.cache.Set(ctx, url.ShortCode, url.OriginalURL)
	}
	return uc.withShortURL(url)
}

// ResolveShortCode returns the URL stored under shortCode and counts the access.
//
// When the lookup succeeds but the increment fails, the looked-up URL is returned together
// with an error wrapping entity.ErrClickNotCounted, so callers can still redirect. A code the
// store does not hold is reported as entity.ErrURLNotFound even if a cache still knows it.
func (uc *URLUseCase) ResolveShortCode(ctx context.Context, shortCode string) (_ *entity.URL, err error) {
	const op = "usecase.URLUseCase.ResolveShortCode"

	ctx, span := tracer.Start(ctx, "URLUseCase.ResolveShortCode",
		trace.WithAttributes(attribute.String("short_code", shortCode)))
	defer func() { endSpan(span, err) }()

	url, err := uc.lookup(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	updated, err := uc.urlRepo.IncrementAccessCount(ctx, shortCode)
	if errors.Is(err, entity.ErrURLNotFound) {
		// Mappings are never deleted, so only a stale cache entry can get here.
		return nil, fmt.Errorf("%s: failed to count access: %w", op, err)
	}
	if err != nil {
		return uc.withShortURL(url), fmt.Errorf("%s: %w: %v", op, entity.ErrClickNotCounted, err)
	}

	return uc.withShortURL(updated), nil
}

func (uc *URLUseCase) lookup(ctx context.Context, shortCode string) (*entity.URL, error) {
	if uc.cache != nil {
		if originalURL, ok := uc.cache.Get(ctx, shortCode); ok {
			return &entity.URL{ShortCode: shortCode, OriginalURL: originalURL}, nil
		}
	}

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		uc.cache.Set(ctx, shortCode, url.OriginalURL)
	}

	return url, nil
}

// ListURLs returns a page of URLs, newest first. Non-positive page and limit fall back
// to 1 and 10; limit is capped at 100.
func (uc *URLUseCase) ListURLs(ctx context.Context, page, limit int) (_ *entity.URLPage, err error) {
	const op = "usecase.URLUseCase.ListURLs"

	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	// Pages beyond this point are empty anyway; clamping keeps the offset from overflowing.
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}

	ctx, span := tracer.Start(ctx, "URLUseCase.ListURLs",
		trace.WithAttributes(attribute.Int("page", page), attribute.Int("limit", limit)))
	defer func() { endSpan(span, err) }()

	offset := (page - 1) * limit

	urls, total, err := uc.urlRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	for _, url := range urls {
		uc.withShortURL(url)
	}

	return &entity.URLPage{
		Items:   urls,
		Page:    page,
		Limit:   limit,
		Total:   total,
		HasMore: int64(offset+len(urls)) < total,
	}, nil
}

// GetURLStats returns the URL stored under shortCode without counting an access.
func (uc *URLUseCase) GetURLStats(ctx context.Context, shortCode string) (_ *entity.URL, err error) {
	const op = "usecase.URLUseCase.GetURLStats"

	ctx, span := tracer.Start(ctx, "URLUseCase.GetURLStats",
		trace.WithAttributes(attribute.String("short_code", shortCode)))
	defer func() { endSpan(span, err) }()

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return uc.withShortURL(url), nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
