package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recognition-wall/internal/domain"
)

// ErrNotFound is returned when a row does not exist. It aliases pgx.ErrNoRows
// so Postgres and in-memory implementations report misses identically.
var ErrNotFound = pgx.ErrNoRows

// ErrStaleState is returned by conditional updates whose guard no longer holds.
var ErrStaleState = errors.New("row state changed concurrently")

// ErrDuplicate is returned when an insert hits a unique constraint.
var ErrDuplicate = errors.New("duplicate row")

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Transactor runs a function inside a single storage transaction. Nested
// calls join the outer transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserFilter narrows the user directory.
type UserFilter struct {
	Department *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// PostFilter captures feed filters. Unset fields pass everything.
type PostFilter struct {
	Department  *string
	SenderID    *string
	RecipientID *string
	DateFrom    *time.Time
	DateTo      *time.Time
}

// ReportFilter captures moderation queue filters.
type ReportFilter struct {
	Status     *domain.ReportStatus
	TargetKind *domain.TargetKind
	ReporterID *string
	Limit      int
}

type txKey struct{}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conn returns the transaction bound to ctx, or the pool.
func conn(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

type pgTransactor struct {
	pool *pgxpool.Pool
}

// NewTransactor returns a Postgres-backed Transactor.
func NewTransactor(pool *pgxpool.Pool) Transactor {
	return &pgTransactor{pool: pool}
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	return pgx.BeginFunc(ctx, t.pool, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}
