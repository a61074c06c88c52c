package repository

import (
	"context"
	"time"

	"github.com/iliyamo/sports-marketplace/internal/model"
)

// SlotRepo stores availability slots.  Remaining capacity is only ever
// changed through Decrement, which is a single conditional UPDATE so the
// counter cannot go below zero under concurrent bookings.
type SlotRepo struct {
	db DBTX
}

func NewSlotRepo(db DBTX) *SlotRepo { return &SlotRepo{db: db} }

const slotColumns = `id, service_id, slot_date, start_time, end_time, capacity, remaining, created_at`

func scanSlot(s rowScanner) (model.AvailabilitySlot, error) {
	var (
		slot       model.AvailabilitySlot
		start, end string
	)
	if err := s.Scan(&slot.ID, &slot.ServiceID, &slot.Date, &start, &end, &slot.Capacity, &slot.Remaining, &slot.CreatedAt); err != nil {
		return slot, err
	}
	var err error
	if slot.StartTime, err = model.ParseClock(start); err != nil {
		return slot, err
	}
	if slot.EndTime, err = model.ParseClock(end); err != nil {
		return slot, err
	}
	return slot, nil
}

// Create inserts a new slot with remaining = capacity.
func (r *SlotRepo) Create(ctx context.Context, s *model.AvailabilitySlot) error {
	const q = `INSERT INTO availability_slots (id, service_id, slot_date, start_time, end_time, capacity, remaining, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.ServiceID, s.Date.Format(model.DateLayout), s.StartTime, s.EndTime,
		s.Capacity, s.Remaining, s.CreatedAt)
	return err
}

// Get returns a slot by id.
func (r *SlotRepo) Get(ctx context.Context, id string) (model.AvailabilitySlot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM availability_slots WHERE id = ?`, id)
	s, err := scanSlot(row)
	return s, notFound(err)
}

// FindCovering returns a slot of the service on date whose window contains
// clock ("HH:MM").  Slots with capacity left are preferred; a full slot is
// returned only when no open one covers the time.  ErrNotFound when no
// slot covers the time at all.
func (r *SlotRepo) FindCovering(ctx context.Context, serviceID string, date time.Time, clock string) (model.AvailabilitySlot, error) {
	const q = `SELECT ` + slotColumns + ` FROM availability_slots
		WHERE service_id = ? AND slot_date = ? AND start_time <= ? AND end_time > ?
		ORDER BY remaining > 0 DESC, start_time
		LIMIT 1`
	row := r.db.QueryRowContext(ctx, q, serviceID, date.Format(model.DateLayout), clock, clock)
	s, err := scanSlot(row)
	return s, notFound(err)
}

// Decrement takes one unit of capacity from the slot.  It returns
// ErrConflict when the slot has none left.
func (r *SlotRepo) Decrement(ctx context.Context, id string) error {
	const q = `UPDATE availability_slots SET remaining = remaining - 1 WHERE id = ? AND remaining > 0`
	return expectOne(r.db.ExecContext(ctx, q, id))
}

// ListByService returns the slots of a service from the given day
// onwards, ordered by date and start time.
func (r *SlotRepo) ListByService(ctx context.Context, serviceID string, from time.Time) ([]model.AvailabilitySlot, error) {
	const q = `SELECT ` + slotColumns + ` FROM availability_slots
		WHERE service_id = ? AND slot_date >= ?
		ORDER BY slot_date, start_time`
	rows, err := r.db.QueryContext(ctx, q, serviceID, from.Format(model.DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AvailabilitySlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
