package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogStore reads the venue data this service does not own.
type CatalogStore interface {
	GetCourt(ctx context.Context, id int64) (*domain.Court, error)
	InstructorExists(ctx context.Context, id int64) (bool, error)
	ListActivePriceRows(ctx context.Context, courtID int64) ([]domain.PriceRow, error)
}

type PGCatalogRepository struct {
	db querier
}

func NewCatalogRepository(db *pgxpool.Pool) *PGCatalogRepository {
	return &PGCatalogRepository{db: db}
}

func (r *PGCatalogRepository) GetCourt(ctx context.Context, id int64) (*domain.Court, error) {
	var c domain.Court
	err := r.db.QueryRow(ctx, `SELECT id, venue_id, name, active FROM courts WHERE id=$1`, id).
		Scan(&c.ID, &c.VenueID, &c.Name, &c.Active)
	if err != nil {
		return nil, notFound(err, "court %d", id)
	}
	return &c, nil
}

func (r *PGCatalogRepository) InstructorExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM instructors WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup instructor: %w", err)
	}
	return exists, nil
}

func (r *PGCatalogRepository) ListActivePriceRows(ctx context.Context, courtID int64) ([]domain.PriceRow, error) {
	rows, err := r.db.Query(ctx, `SELECT id, court_id, normal_rate_cents, lesson_rate_cents, start_minute, end_minute, active
		FROM court_price_rows WHERE court_id=$1 AND active ORDER BY start_minute, id`, courtID)
	if err != nil {
		return nil, fmt.Errorf("list price rows: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PriceRow, 0)
	for rows.Next() {
		var p domain.PriceRow
		if err := rows.Scan(&p.ID, &p.CourtID, &p.NormalRateCents, &p.LessonRateCents, &p.StartMinute, &p.EndMinute, &p.Active); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ CatalogStore = (*PGCatalogRepository)(nil)
