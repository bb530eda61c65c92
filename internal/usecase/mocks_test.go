package usecase

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/linkshrink/internal/entity"
)

type mockURLRepository struct {
	mock.Mock
}

func (m *mockURLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	args := m.Called(ctx, shortCode, originalURL)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (m *mockURLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	args := m.Called(ctx, shortCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (m *mockURLRepository) IncrementAccessCount(ctx context.Context, shortCode string) (*entity.URL, error) {
	args := m.Called(ctx, shortCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (m *mockURLRepository) List(ctx context.Context, offset, limit int) ([]*entity.URL, int64, error) {
	args := m.Called(ctx, offset, limit)
	urls, _ := args.Get(0).([]*entity.URL)
	return urls, args.Get(1).(int64), args.Error(2)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// mapCache is a trivial urlCache used to observe cache interaction.
type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string]string)}
}

func (c *mapCache) Get(_ context.Context, shortCode string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[shortCode]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, shortCode, originalURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[shortCode] = originalURL
}

type countingObserver struct {
	mu    sync.Mutex
	count int
}

func (o *countingObserver) ObserveCollision() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.count++
}
