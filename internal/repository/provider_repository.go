package repository

import (
	"context"
	"time"

	"github.com/iliyamo/sports-marketplace/internal/model"
)

// ProviderRepo stores provider profiles.  A provider shares its id with
// the user account that owns it.
type ProviderRepo struct {
	db DBTX
}

func NewProviderRepo(db DBTX) *ProviderRepo { return &ProviderRepo{db: db} }

// Create inserts a provider profile with zeroed counters.
func (r *ProviderRepo) Create(ctx context.Context, p *model.Provider) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO providers (id, display_name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.DisplayName, p.CreatedAt, p.UpdatedAt)
	return err
}

// Get returns a provider by id.
func (r *ProviderRepo) Get(ctx context.Context, id string) (model.Provider, error) {
	var p model.Provider
	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name, rating, published_services, completed_reservations, created_at, updated_at
		FROM providers WHERE id = ?`, id).
		Scan(&p.ID, &p.DisplayName, &p.Rating, &p.PublishedServices, &p.CompletedReservations, &p.CreatedAt, &p.UpdatedAt)
	return p, notFound(err)
}

// Lock takes the provider's row lock for the rest of the transaction.
// Every write that changes a provider aggregate takes it first.
func (r *ProviderRepo) Lock(ctx context.Context, id string) error {
	var got string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM providers WHERE id = ? FOR UPDATE`, id).Scan(&got)
	return notFound(err)
}

// SetRating stores the provider's recomputed aggregate rating.
func (r *ProviderRepo) SetRating(ctx context.Context, id string, rating float64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE providers SET rating = ?, updated_at = ? WHERE id = ?`, rating, at, id)
	return err
}

// SetPublishedServices stores the provider's published-services counter.
func (r *ProviderRepo) SetPublishedServices(ctx context.Context, id string, n int, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE providers SET published_services = ?, updated_at = ? WHERE id = ?`, n, at, id)
	return err
}

// IncrementCompleted adds one to the completed-reservations counter.
func (r *ProviderRepo) IncrementCompleted(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE providers SET completed_reservations = completed_reservations + 1, updated_at = ? WHERE id = ?`
	return expectFound(r.db.ExecContext(ctx, q, at, id))
}
