package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/linkshrink/internal/entity"
)

type mockURLUseCase struct {
	mock.Mock
}

func (m *mockURLUseCase) ShortenURL(ctx context.Context, originalURL, customCode string) (*entity.URL, error) {
	args := m.Called(ctx, originalURL, customCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (m *mockURLUseCase) ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	args := m.Called(ctx, shortCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (m *mockURLUseCase) ListURLs(ctx context.Context, page, limit int) (*entity.URLPage, error) {
	args := m.Called(ctx, page, limit)
	urls, _ := args.Get(0).(*entity.URLPage)
	return urls, args.Error(1)
}

func (m *mockURLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error) {
	args := m.Called(ctx, shortCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}
