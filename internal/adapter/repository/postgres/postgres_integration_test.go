//go:build integration

package postgres

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vadimbarashkov/linkshrink/internal/entity"
	"github.com/vadimbarashkov/linkshrink/migrations"
	"github.com/vadimbarashkov/linkshrink/pkg/postgres"
)

func setupPostgres(t testing.TB) *sqlx.DB {
	t.Helper()

	ctx := context.Background()

	pgUser := "test"
	pgPassword := "test"
	pgDB := "linkshrink"

	pgCont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDB,
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgCont.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate postgres container: %v", err)
		}
	})

	pgHost, err := pgCont.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	pgPort, err := pgCont.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", pgUser, pgPassword, pgHost, pgPort.Int(), pgDB)

	if err := postgres.RunMigrations(migrations.FS, dsn); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	db, err := postgres.New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestURLRepository_Integration(t *testing.T) {
	db := setupPostgres(t)
	repo := NewURLRepository(db)
	ctx := context.Background()

	t.Run("save and retrieve", func(t *testing.T) {
		saved, err := repo.Save(ctx, "first", "https://example.com/first")
		require.NoError(t, err)
		assert.NotZero(t, saved.ID)
		assert.Zero(t, saved.AccessCount)
		assert.False(t, saved.CreatedAt.IsZero())

		got, err := repo.RetrieveByShortCode(ctx, "first")
		require.NoError(t, err)
		assert.Equal(t, saved.ID, got.ID)
		assert.Equal(t, "https://example.com/first", got.OriginalURL)
	})

	t.Run("duplicate short code", func(t *testing.T) {
		_, err := repo.Save(ctx, "first", "https://example.com/other")

		assert.ErrorIs(t, err, entity.ErrShortCodeExists)

		got, err := repo.RetrieveByShortCode(ctx, "first")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/first", got.OriginalURL)
	})

	t.Run("unknown short code", func(t *testing.T) {
		_, err := repo.RetrieveByShortCode(ctx, "missing")
		assert.ErrorIs(t, err, entity.ErrURLNotFound)

		_, err = repo.IncrementAccessCount(ctx, "missing")
		assert.ErrorIs(t, err, entity.ErrURLNotFound)
	})

	t.Run("concurrent saves of one short code", func(t *testing.T) {
		const n = 16
		var wg sync.WaitGroup
		var succeeded, exists atomic.Int64

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()

				_, err := repo.Save(ctx, "contested", fmt.Sprintf("https://example.com/%d", i))
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

	t.Run("concurrent increments", func(t *testing.T) {
		const n = 50
		var wg sync.WaitGroup

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.IncrementAccessCount(ctx, "first")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := repo.RetrieveByShortCode(ctx, "first")
		require.NoError(t, err)
		assert.Equal(t, int64(n), got.AccessCount)
	})

	t.Run("list newest first", func(t *testing.T) {
		for i := 1; i <= 5; i++ {
			_, err := repo.Save(ctx, fmt.Sprintf("page%02d", i), fmt.Sprintf("https://example.com/page/%d", i))
			require.NoError(t, err)
		}

		urls, total, err := repo.List(ctx, 0, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(7), total)
		require.Len(t, urls, 3)
		assert.Equal(t, "page05", urls[0].ShortCode)
		assert.Equal(t, "page03", urls[2].ShortCode)

		urls, _, err = repo.List(ctx, 6, 3)
		require.NoError(t, err)
		require.Len(t, urls, 1)
		assert.Equal(t, "first", urls[0].ShortCode)
	})
}
