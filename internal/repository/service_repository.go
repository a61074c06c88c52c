package repository

import (
	"context"
	"time"

	"github.com/iliyamo/sports-marketplace/internal/model"
)

// ServiceRepo stores the services providers offer.
type ServiceRepo struct {
	db DBTX
}

func NewServiceRepo(db DBTX) *ServiceRepo { return &ServiceRepo{db: db} }

const serviceColumns = `id, provider_id, name, description, category, price_cents, status, rating, review_count, created_at, updated_at`

func scanService(s rowScanner) (model.Service, error) {
	var svc model.Service
	err := s.Scan(&svc.ID, &svc.ProviderID, &svc.Name, &svc.Description, &svc.Category, &svc.PriceCents,
		&svc.Status, &svc.Rating, &svc.ReviewCount, &svc.CreatedAt, &svc.UpdatedAt)
	return svc, err
}

// ServiceFilter narrows a catalog listing.  Zero fields match everything.
type ServiceFilter struct {
	Category   string
	ProviderID string
	Status     model.ServiceStatus
}

// Create inserts a service.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
	const q = `INSERT INTO services (id, provider_id, name, description, category, price_cents, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.ProviderID, s.Name, s.Description, s.Category, s.PriceCents,
		s.Status, s.CreatedAt, s.UpdatedAt)
	return err
}

// Get returns a service by id, including soft-deleted ones.
func (r *ServiceRepo) Get(ctx context.Context, id string) (model.Service, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id)
	s, err := scanService(row)
	return s, notFound(err)
}

// Update writes the editable fields and status of a service.
func (r *ServiceRepo) Update(ctx context.Context, s *model.Service) error {
	const q = `UPDATE services SET name = ?, description = ?, category = ?, price_cents = ?, status = ?, updated_at = ?
		WHERE id = ?`
	return expectFound(r.db.ExecContext(ctx, q, s.Name, s.Description, s.Category, s.PriceCents, s.Status, s.UpdatedAt, s.ID))
}

// SetRating stores the recomputed aggregate rating and review count.
func (r *ServiceRepo) SetRating(ctx context.Context, id string, rating float64, count int, at time.Time) error {
	const q = `UPDATE services SET rating = ?, review_count = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, rating, count, at, id)
	return err
}

// CountPublishedByProvider returns how many PUBLISHED services a provider
// has, as a locking read.
func (r *ServiceRepo) CountPublishedByProvider(ctx context.Context, providerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM services WHERE provider_id = ? AND status = 'PUBLISHED' LOCK IN SHARE MODE`, providerID).Scan(&n)
	return n, err
}

// List pages through services matching f, ordered by rating then name.
func (r *ServiceRepo) List(ctx context.Context, f ServiceFilter, page model.PageRequest) ([]model.Service, int, error) {
	page = page.Normalize()
	where := "1 = 1"
	var args []any
	if f.Category != "" {
		where += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.ProviderID != "" {
		where += " AND provider_id = ?"
		args = append(args, f.ProviderID)
	}
	if f.Status != "" {
		where += " AND status = ?"
		args = append(args, f.Status)
	} else {
		where += " AND status <> 'DELETED'"
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM services WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := `SELECT ` + serviceColumns + ` FROM services WHERE ` + where + ` ORDER BY rating DESC, name LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, page.PageSize, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Service, 0, page.PageSize)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}
