package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/sports-marketplace/internal/model"
)

// PaymentRepo stores payments.  reservation_id is unique, so a
// reservation carries at most one payment row; re-attempts after a
// rejected charge overwrite that row.
type PaymentRepo struct {
	db DBTX
}

func NewPaymentRepo(db DBTX) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, reservation_id, amount_cents, method, status, gateway_ref, failure_reason, created_at, updated_at`

func scanPayment(s rowScanner) (model.Payment, error) {
	var (
		p      model.Payment
		reason sql.NullString
	)
	err := s.Scan(&p.ID, &p.ReservationID, &p.AmountCents, &p.Method, &p.Status, &p.GatewayRef, &reason,
		&p.CreatedAt, &p.UpdatedAt)
	p.FailureReason = stringPtr(reason)
	return p, err
}

// Save inserts the payment or, when a row with the same id exists,
// overwrites its attempt fields.
func (r *PaymentRepo) Save(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (id, reservation_id, amount_cents, method, status, gateway_ref, failure_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE amount_cents = VALUES(amount_cents), method = VALUES(method), status = VALUES(status),
			gateway_ref = VALUES(gateway_ref), failure_reason = VALUES(failure_reason), updated_at = VALUES(updated_at)`
	_, err := r.db.ExecContext(ctx, q, p.ID, p.ReservationID, p.AmountCents, p.Method, p.Status, p.GatewayRef,
		nullString(p.FailureReason), p.CreatedAt, p.UpdatedAt)
	return err
}

// Get returns a payment by id.
func (r *PaymentRepo) Get(ctx context.Context, id string) (model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
	return p, notFound(err)
}

// GetByReservation returns the payment attached to a reservation.
func (r *PaymentRepo) GetByReservation(ctx context.Context, reservationID string) (model.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE reservation_id = ?`, reservationID))
	return p, notFound(err)
}

// Transition moves a payment between states, guarded on the current
// state.  ErrConflict when the payment is no longer in from.
func (r *PaymentRepo) Transition(ctx context.Context, id string, from, to model.PaymentStatus, at time.Time) error {
	const q = `UPDATE payments SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	return expectOne(r.db.ExecContext(ctx, q, to, at, id, from))
}
