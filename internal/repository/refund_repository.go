package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/sports-marketplace/internal/model"
)

// RefundRepo stores refund requests.
type RefundRepo struct {
	db DBTX
}

func NewRefundRepo(db DBTX) *RefundRepo { return &RefundRepo{db: db} }

// RefundFilter narrows a refund listing.  Zero fields match everything.
type RefundFilter struct {
	ClientID string
	Status   model.RefundStatus
}

const refundColumns = `id, reservation_id, client_id, payment_id, amount_cents, percentage, reason, status,
	admin_notes, resolved_at, created_at`

func scanRefund(s rowScanner) (model.RefundRequest, error) {
	var (
		rr       model.RefundRequest
		notes    sql.NullString
		resolved sql.NullTime
	)
	err := s.Scan(&rr.ID, &rr.ReservationID, &rr.ClientID, &rr.PaymentID, &rr.AmountCents, &rr.Percentage,
		&rr.Reason, &rr.Status, &notes, &resolved, &rr.CreatedAt)
	rr.AdminNotes = stringPtr(notes)
	rr.ResolvedAt = timePtr(resolved)
	return rr, err
}

// Create inserts a refund request.  A second request for the same
// reservation yields ErrDuplicate.
func (r *RefundRepo) Create(ctx context.Context, rr *model.RefundRequest) error {
	const q = `INSERT INTO refund_requests (id, reservation_id, client_id, payment_id, amount_cents, percentage, reason, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, rr.ID, rr.ReservationID, rr.ClientID, rr.PaymentID, rr.AmountCents,
		rr.Percentage, rr.Reason, rr.Status, rr.CreatedAt)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// Get returns a refund request by id.
func (r *RefundRepo) Get(ctx context.Context, id string) (model.RefundRequest, error) {
	rr, err := scanRefund(r.db.QueryRowContext(ctx, `SELECT `+refundColumns+` FROM refund_requests WHERE id = ?`, id))
	return rr, notFound(err)
}

// ExistsForReservation reports whether a refund request was ever filed
// for the reservation.
func (r *RefundRepo) ExistsForReservation(ctx context.Context, reservationID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM refund_requests WHERE reservation_id = ?`, reservationID).Scan(&n)
	return n > 0, err
}

// Resolve moves a REQUESTED refund to to in a single compare-and-set.
// If another caller resolved it first the update matches nothing and
// ErrConflict is returned.
func (r *RefundRepo) Resolve(ctx context.Context, id string, to model.RefundStatus, notes *string, at time.Time) error {
	const q = `UPDATE refund_requests SET status = ?, admin_notes = ?, resolved_at = ?
		WHERE id = ? AND status = 'REQUESTED'`
	return expectOne(r.db.ExecContext(ctx, q, to, nullString(notes), at, id))
}

// List pages through refund requests, newest first.
func (r *RefundRepo) List(ctx context.Context, f RefundFilter, page model.PageRequest) ([]model.RefundRequest, int, error) {
	page = page.Normalize()
	where := "1 = 1"
	var args []any
	if f.ClientID != "" {
		where += " AND client_id = ?"
		args = append(args, f.ClientID)
	}
	if f.Status != "" {
		where += " AND status = ?"
		args = append(args, f.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM refund_requests WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := `SELECT ` + refundColumns + ` FROM refund_requests WHERE ` + where + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, page.PageSize, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.RefundRequest, 0, page.PageSize)
	for rows.Next() {
		rr, err := scanRefund(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rr)
	}
	return out, total, rows.Err()
}
