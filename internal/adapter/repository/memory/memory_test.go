package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadimbarashkov/linkshrink/internal/entity"
)

func TestURLRepository_Save(t *testing.T) {
	t.Run("short code exists", func(t *testing.T) {
		repo := NewURLRepository()

		_, err := repo.Save(context.Background(), "abc123", "https://example.com")
		require.NoError(t, err)

		url, err := repo.Save(context.Background(), "abc123", "https://other.com")

		assert.ErrorIs(t, err, entity.ErrShortCodeExists)
		assert.Nil(t, url)
	})

	t.Run("canceled context", func(t *testing.T) {
		repo := NewURLRepository()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		url, err := repo.Save(ctx, "abc123", "https://example.com")

		assert.ErrorIs(t, err, entity.ErrStoreUnavailable)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, url)
	})

	t.Run("success", func(t *testing.T) {
		repo := NewURLRepository()

		url, err := repo.Save(context.Background(), "abc123", "https://example.com")

		require.NoError(t, err)
		assert.Equal(t, int64(1), url.ID)
		assert.Equal(t, "abc123", url.ShortCode)
		assert.Equal(t, "https://example.com", url.OriginalURL)
		assert.Zero(t, url.AccessCount)
		assert.False(t, url.CreatedAt.IsZero())
	})

	t.Run("concurrent inserts of the same code", func(t *testing.T) {
		repo := NewURLRepository()

		const n = 50
		var wg sync.WaitGroup
		var succeeded, exists atomic.Int64

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				_, err := repo.Save(context.Background(), "same", fmt.Sprintf("https://example.com/%d", i))
				switch {
				case err == nil:
					succeeded.Add(1)
				case assert.ErrorIs(t, err, entity.ErrShortCodeExists):
					exists.Add(1)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int64(1), succeeded.Load())
		assert.Equal(t, int64(n-1), exists.Load())
	})
}

func TestURLRepository_RetrieveByShortCode(t *testing.T) {
	repo := NewURLRepository()

	t.Run("url not found", func(t *testing.T) {
		url, err := repo.RetrieveByShortCode(context.Background(), "abc123")

		assert.ErrorIs(t, err, entity.ErrURLNotFound)
		assert.Nil(t, url)
	})

	t.Run("success", func(t *testing.T) {
		_, err := repo.Save(context.Background(), "abc123", "https://example.com")
		require.NoError(t, err)

		url, err := repo.RetrieveByShortCode(context.Background(), "abc123")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com", url.OriginalURL)
	})

	t.Run("returned copy does not alias storage", func(t *testing.T) {
		url, err := repo.RetrieveByShortCode(context.Background(), "abc123")
		require.NoError(t, err)

		url.OriginalURL = "https://mutated.com"

		again, err := repo.RetrieveByShortCode(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", again.OriginalURL)
	})
}

func TestURLRepository_IncrementAccessCount(t *testing.T) {
	t.Run("url not found", func(t *testing.T) {
		repo := NewURLRepository()

		url, err := repo.IncrementAccessCount(context.Background(), "abc123")

		assert.ErrorIs(t, err, entity.ErrURLNotFound)
		assert.Nil(t, url)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		repo := NewURLRepository()
		_, err := repo.Save(context.Background(), "abc123", "https://example.com")
		require.NoError(t, err)

		const n = 100
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.IncrementAccessCount(context.Background(), "abc123")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		url, err := repo.RetrieveByShortCode(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, int64(n), url.AccessCount)
	})
}

func TestURLRepository_List(t *testing.T) {
	repo := NewURLRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i := 1; i <= 25; i++ {
		_, err := repo.Save(context.Background(), fmt.Sprintf("code%02d", i), fmt.Sprintf("https://example.com/%d", i))
		require.NoError(t, err)
	}

	t.Run("first page holds the newest", func(t *testing.T) {
		urls, total, err := repo.List(context.Background(), 0, 10)

		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		require.Len(t, urls, 10)
		assert.Equal(t, "code25", urls[0].ShortCode)
		assert.Equal(t, "code16", urls[9].ShortCode)
	})

	t.Run("last page holds the oldest", func(t *testing.T) {
		urls, total, err := repo.List(context.Background(), 20, 10)

		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		require.Len(t, urls, 5)
		assert.Equal(t, "code05", urls[0].ShortCode)
		assert.Equal(t, "code01", urls[4].ShortCode)
	})

	t.Run("offset past the end", func(t *testing.T) {
		urls, total, err := repo.List(context.Background(), 40, 10)

		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		assert.Empty(t, urls)
	})

	t.Run("negative offset", func(t *testing.T) {
		urls, total, err := repo.List(context.Background(), -116, 100)

		require.NoError(t, err)
		assert.Equal(t, int64(25), total)
		assert.Empty(t, urls)
	})
}
