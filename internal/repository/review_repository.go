package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/sports-marketplace/internal/model"
)

// ReviewRepo stores reviews and answers the aggregate queries the rating
// recompute needs.
type ReviewRepo struct {
	db DBTX
}

func NewReviewRepo(db DBTX) *ReviewRepo { return &ReviewRepo{db: db} }

// RatingStats is the sum and count of PUBLISHED ratings for a scope.
type RatingStats struct {
	Sum   int
	Count int
}

const reviewColumns = `id, reservation_id, service_id, provider_id, client_id, rating, comment, reply, replied_at,
	state, flagged, created_at`

func scanReview(s rowScanner) (model.Review, error) {
	var (
		rv      model.Review
		reply   sql.NullString
		replied sql.NullTime
	)
	err := s.Scan(&rv.ID, &rv.ReservationID, &rv.ServiceID, &rv.ProviderID, &rv.ClientID, &rv.Rating, &rv.Comment,
		&reply, &replied, &rv.State, &rv.Flagged, &rv.CreatedAt)
	rv.Reply = stringPtr(reply)
	rv.RepliedAt = timePtr(replied)
	return rv, err
}

// Create inserts a review.  ErrDuplicate when the reservation already has one.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	const q = `INSERT INTO reviews (id, reservation_id, service_id, provider_id, client_id, rating, comment, state, flagged, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, rv.ID, rv.ReservationID, rv.ServiceID, rv.ProviderID, rv.ClientID, rv.Rating,
		rv.Comment, rv.State, rv.Flagged, rv.CreatedAt)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// Get returns a review by id.
func (r *ReviewRepo) Get(ctx context.Context, id string) (model.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id))
	return rv, notFound(err)
}

// ExistsForReservation reports whether the reservation was already reviewed.
func (r *ReviewRepo) ExistsForReservation(ctx context.Context, reservationID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE reservation_id = ?`, reservationID).Scan(&n)
	return n > 0, err
}

// Delete removes a review.
func (r *ReviewRepo) Delete(ctx context.Context, id string) error {
	return expectFound(r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id))
}

// SetReply stores the provider's reply.  Only the first reply sticks;
// later calls return ErrConflict.
func (r *ReviewRepo) SetReply(ctx context.Context, id, reply string, at time.Time) error {
	const q = `UPDATE reviews SET reply = ?, replied_at = ? WHERE id = ? AND reply IS NULL`
	return expectOne(r.db.ExecContext(ctx, q, reply, at, id))
}

// Flag marks a review as reported and hides it pending moderation.
// ErrConflict when it is already flagged.
func (r *ReviewRepo) Flag(ctx context.Context, id string) error {
	const q = `UPDATE reviews SET flagged = 1, state = 'UNDER_REVIEW' WHERE id = ? AND flagged = 0`
	return expectOne(r.db.ExecContext(ctx, q, id))
}

// Restore clears the flag and republishes a review.
func (r *ReviewRepo) Restore(ctx context.Context, id string) error {
	const q = `UPDATE reviews SET flagged = 0, state = 'PUBLISHED' WHERE id = ?`
	return expectFound(r.db.ExecContext(ctx, q, id))
}

// ServiceStats aggregates the PUBLISHED ratings of one service.
func (r *ReviewRepo) ServiceStats(ctx context.Context, serviceID string) (RatingStats, error) {
	return r.stats(ctx, "service_id", serviceID)
}

// ProviderStats aggregates the PUBLISHED ratings across every service of
// a provider.
func (r *ReviewRepo) ProviderStats(ctx context.Context, providerID string) (RatingStats, error) {
	return r.stats(ctx, "provider_id", providerID)
}

func (r *ReviewRepo) stats(ctx context.Context, column, id string) (RatingStats, error) {
	var st RatingStats
	// locking read: sees rows committed after the transaction's snapshot
	q := `SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM reviews WHERE ` + column + ` = ? AND state = 'PUBLISHED'
		LOCK IN SHARE MODE`
	err := r.db.QueryRowContext(ctx, q, id).Scan(&st.Sum, &st.Count)
	return st, err
}

// ListByService pages through a service's reviews in the given state.
func (r *ReviewRepo) ListByService(ctx context.Context, serviceID string, state model.ReviewState, page model.PageRequest) ([]model.Review, int, error) {
	return r.list(ctx, "service_id = ? AND state = ?", []any{serviceID, state}, page)
}

// ListFlagged pages through reported reviews awaiting moderation.
func (r *ReviewRepo) ListFlagged(ctx context.Context, page model.PageRequest) ([]model.Review, int, error) {
	return r.list(ctx, "flagged = 1", nil, page)
}

func (r *ReviewRepo) list(ctx context.Context, where string, args []any, page model.PageRequest) ([]model.Review, int, error) {
	page = page.Normalize()
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := `SELECT ` + reviewColumns + ` FROM reviews WHERE ` + where + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, page.PageSize, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Review, 0, page.PageSize)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rv)
	}
	return out, total, rows.Err()
}
