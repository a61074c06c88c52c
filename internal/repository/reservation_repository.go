package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/sports-marketplace/internal/model"
)

// ReservationRepo stores reservations.  Dates are kept as DATE and times
// as TIME; both are returned in UTC.
type ReservationRepo struct {
	db DBTX
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db DBTX) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, client_id, service_id, provider_id, slot_id, reservation_date,
	reservation_time, status, total_cost_cents, notes, cancel_reason, created_at, updated_at`

func scanReservation(s rowScanner) (model.Reservation, error) {
	var (
		res    model.Reservation
		clock  string
		notes  sql.NullString
		reason sql.NullString
	)
	err := s.Scan(&res.ID, &res.ClientID, &res.ServiceID, &res.ProviderID, &res.SlotID, &res.Date,
		&clock, &res.Status, &res.TotalCostCents, &notes, &reason, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return res, err
	}
	if res.Time, err = model.ParseClock(clock); err != nil {
		return res, err
	}
	res.Notes = stringPtr(notes)
	res.CancelReason = stringPtr(reason)
	return res, nil
}

// Create inserts a reservation.  The caller assigns the id and timestamps.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (id, client_id, service_id, provider_id, slot_id, reservation_date,
		reservation_time, status, total_cost_cents, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, res.ID, res.ClientID, res.ServiceID, res.ProviderID, res.SlotID,
		res.Date.Format(model.DateLayout), res.Time, res.Status, res.TotalCostCents, nullString(res.Notes),
		res.CreatedAt, res.UpdatedAt)
	return err
}

// Get returns the reservation with the given id or ErrNotFound.
func (r *ReservationRepo) Get(ctx context.Context, id string) (model.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	res, err := scanReservation(row)
	return res, notFound(err)
}

// GetForUpdate is Get with a row lock held until the surrounding
// transaction ends.
func (r *ReservationRepo) GetForUpdate(ctx context.Context, id string) (model.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id)
	res, err := scanReservation(row)
	return res, notFound(err)
}

// Transition moves a reservation from one state to another.  The update
// only applies while the row is still in state from, so concurrent
// transitions cannot both succeed; a lost race yields ErrConflict.  A nil
// reason leaves cancel_reason untouched.
func (r *ReservationRepo) Transition(ctx context.Context, id string, from, to model.ReservationStatus, reason *string, at time.Time) error {
	const q = `UPDATE reservations SET status = ?, cancel_reason = COALESCE(?, cancel_reason), updated_at = ?
		WHERE id = ? AND status = ?`
	return expectOne(r.db.ExecContext(ctx, q, to, nullString(reason), at, id, from))
}

// ListByClient pages through a client's reservations, newest first.  An
// empty status matches every state.
func (r *ReservationRepo) ListByClient(ctx context.Context, clientID string, status model.ReservationStatus, page model.PageRequest) ([]model.Reservation, int, error) {
	return r.list(ctx, "client_id", clientID, status, page)
}

// ListByProvider pages through the reservations for a provider's services.
func (r *ReservationRepo) ListByProvider(ctx context.Context, providerID string, status model.ReservationStatus, page model.PageRequest) ([]model.Reservation, int, error) {
	return r.list(ctx, "provider_id", providerID, status, page)
}

func (r *ReservationRepo) list(ctx context.Context, column, id string, status model.ReservationStatus, page model.PageRequest) ([]model.Reservation, int, error) {
	page = page.Normalize()
	where := fmt.Sprintf("%s = ?", column)
	args := []any{id}
	if status != "" {
		where += " AND status = ?"
		args = append(args, status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE ` + where +
		` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, page.PageSize, page.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0, page.PageSize)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, res)
	}
	return out, total, rows.Err()
}

// ListStalePending returns PENDING reservations created before cutoff
// that have no payment, or only a rejected payment attempt.  Oldest first.
func (r *ReservationRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Reservation, error) {
	const q = `SELECT r.id, r.client_id, r.service_id, r.provider_id, r.slot_id, r.reservation_date,
		r.reservation_time, r.status, r.total_cost_cents, r.notes, r.cancel_reason, r.created_at, r.updated_at
		FROM reservations r
		LEFT JOIN payments p ON p.reservation_id = r.id
		WHERE r.status = 'PENDING' AND r.created_at < ? AND (p.id IS NULL OR p.status = 'REJECTED')
		ORDER BY r.created_at
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
