package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/linkshrink/internal/entity"
)

const (
	uniqueViolationErrCode = "23505"
	defaultQueryTimeout    = 3 * time.Second
)

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationErrCode
}

type urlDB struct {
	ID          int64     `db:"id"`
	ShortCode   string    `db:"short_code"`
	OriginalURL string    `db:"original_url"`
	AccessCount int64     `db:"access_count"`
	CreatedAt   time.Time `db:"created_at"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ID:          u.ID,
		ShortCode:   u.ShortCode,
		OriginalURL: u.OriginalURL,
		URLStats: entity.URLStats{
			AccessCount: u.AccessCount,
		},
		CreatedAt: u.CreatedAt,
	}
}

type Option func(*URLRepository)

// WithQueryTimeout bounds every statement so a stalled database surfaces as entity.ErrStoreUnavailable.
func WithQueryTimeout(d time.Duration) Option {
	return func(r *URLRepository) {
		if d > 0 {
			r.queryTimeout = d
		}
	}
}

type URLRepository struct {
	db           *sqlx.DB
	queryTimeout time.Duration
}

func NewURLRepository(db *sqlx.DB, opts ...Option) *URLRepository {
	r := &URLRepository{
		db:           db,
		queryTimeout: defaultQueryTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Save inserts a new URL. The unique constraint on short_code is the only uniqueness check,
// so concurrent inserts of one code yield a single row and entity.ErrShortCodeExists for the rest.
func (r *URLRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Save"
	const query = `INSERT INTO urls(short_code, original_url) VALUES ($1, $2)
		RETURNING id, short_code, original_url, access_count, created_at`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode, originalURL); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into urls table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveByShortCode"
	const query = `SELECT id, short_code, original_url, access_count, created_at FROM urls WHERE short_code = $1`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return url.toEntity(), nil
}

// IncrementAccessCount adds one to access_count in a single statement, so concurrent
// increments are never lost.
func (r *URLRepository) IncrementAccessCount(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.IncrementAccessCount"
	const query = `UPDATE urls SET access_count = access_count + 1 WHERE short_code = $1
		RETURNING id, short_code, original_url, access_count, created_at`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update urls table row: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return url.toEntity(), nil
}

// List returns one page of URLs, newest first, and the total number of URLs.
// Both reads share a repeatable read snapshot.
func (r *URLRepository) List(ctx context.Context, offset, limit int) ([]*entity.URL, int64, error) {
	const op = "adapter.repository.postgres.URLRepository.List"
	const selectQuery = `SELECT id, short_code, original_url, access_count, created_at FROM urls
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	const countQuery = `SELECT COUNT(*) FROM urls`

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to begin transaction: %w: %w", op, entity.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	var rows []urlDB

	if err := tx.SelectContext(ctx, &rows, selectQuery, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to select from urls table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	var total int64

	if err := tx.GetContext(ctx, &total, countQuery); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count urls table rows: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to commit transaction: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	urls := make([]*entity.URL, 0, len(rows))
	for i := range rows {
		urls = append(urls, rows[i].toEntity())
	}

	return urls, total, nil
}
