// Package memory provides a process-local URL repository for development and tests.
// Data does not survive a restart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vadimbarashkov/linkshrink/internal/entity"
)

type URLRepository struct {
	mu     sync.RWMutex
	nextID int64
	byCode map[string]*entity.URL
	// ordered holds URLs in insertion order, oldest first.
	ordered []*entity.URL
	now     func() time.Time
}

func NewURLRepository() *URLRepository {
	return &URLRepository{
		byCode: make(map[string]*entity.URL),
		now:    time.Now,
	}
}

func (r *URLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.Save"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byCode[shortCode]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
	}

	r.nextID++
	url := &entity.URL{
		ID:          r.nextID,
		ShortCode:   shortCode,
		OriginalURL: originalURL,
		CreatedAt:   r.now(),
	}
	r.byCode[shortCode] = url
	r.ordered = append(r.ordered, url)

	return clone(url), nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.RetrieveByShortCode"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	url, ok := r.byCode[shortCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return clone(url), nil
}

func (r *URLRepository) IncrementAccessCount(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.memory.URLRepository.IncrementAccessCount"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	url, ok := r.byCode[shortCode]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}
	url.AccessCount++

	return clone(url), nil
}

// List returns URLs ordered by creation time, newest first; ties keep reverse insertion order.
func (r *URLRepository) List(ctx context.Context, offset, limit int) ([]*entity.URL, int64, error) {
	const op = "adapter.repository.memory.URLRepository.List"

	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.ordered)
	if offset < 0 || offset >= total || limit < 1 {
		return []*entity.URL{}, int64(total), nil
	}

	urls := make([]*entity.URL, 0, min(limit, total-offset))

	for i := total - 1 - offset; i >= 0 && len(urls) < limit; i-- {
		urls = append(urls, clone(r.ordered[i]))
	}

	return urls, int64(total), nil
}

func clone(url *entity.URL) *entity.URL {
	c := *url
	return &c
}
