package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Transactor runs fn inside one transaction that holds an exclusive advisory
// lock for every slot key until commit or rollback.
type Transactor interface {
	WithinTx(ctx context.Context, keys []domain.SlotKey, fn func(ctx context.Context, store BookingStore) error) error
}

type PGTransactor struct {
	pool *pgxpool.Pool
}

func NewTransactor(pool *pgxpool.Pool) *PGTransactor {
	return &PGTransactor{pool: pool}
}

func (t *PGTransactor) WithinTx(ctx context.Context, keys []domain.SlotKey, fn func(ctx context.Context, store BookingStore) error) error {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, name := range LockNames(keys) {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, name); err != nil {
			return fmt.Errorf("acquire slot lock %s: %w", name, err)
		}
	}

	if err := fn(ctx, &PGBookingRepository{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LockNames returns the distinct advisory lock names of keys in a stable
// order, so concurrent transactions always lock in the same sequence.
func LockNames(keys []domain.SlotKey) []string {
	seen := make(map[string]struct{}, len(keys))
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		name := fmt.Sprintf("court:%d:%s", k.CourtID, k.Day)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ Transactor = (*PGTransactor)(nil)
