package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iliyamo/sports-marketplace/internal/model"
	"github.com/iliyamo/sports-marketplace/internal/repository"
)

const (
	// DefaultPendingTTL is how long a reservation may stay PENDING without
	// a payment before the sweep cancels it.
	DefaultPendingTTL = 48 * time.Hour

	sweepBatch = 500
)

// BookingService owns the reservation state machine:
//
//	PENDING --confirm--> CONFIRMED --finalize--> FINALIZED
//	PENDING|CONFIRMED --reject--> REJECTED
//	PENDING|CONFIRMED --cancel--> CANCELLED
//	PENDING (stale, unpaid) --expire--> CANCELLED
type BookingService struct {
	base
	pendingTTL time.Duration
}

func NewBookingService(d Deps, pendingTTL time.Duration) *BookingService {
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}
	return &BookingService{base: newBase(d), pendingTTL: pendingTTL}
}

// CreateReservationInput is a client's booking request.
type CreateReservationInput struct {
	ServiceID string
	Date      time.Time
	Time      string // "HH:MM"
	Notes     *string
}

// Create books a slot of a published service for the calling client.  The
// slot's capacity is taken with a conditional decrement in the same
// transaction as the insert, so a slot never goes below zero and never
// has more reservations than its capacity.
func (s *BookingService) Create(ctx context.Context, actor Actor, in CreateReservationInput) (res model.Reservation, err error) {
	ctx, span := startSpan(ctx, "booking.create", attribute.String("service_id", in.ServiceID))
	defer func() { endSpan(span, err) }()

	if !actor.IsClient() {
		return res, ForbiddenError{Msg: "only clients can book services"}
	}
	clock, perr := model.ParseClock(in.Time)
	if perr != nil {
		return res, ValidationError{Field: "time", Msg: perr.Error()}
	}
	if in.Date.IsZero() {
		return res, ValidationError{Field: "date", Msg: "required"}
	}
	now := s.clock()
	date := model.TruncateDay(in.Date)
	if date.Before(model.TruncateDay(now)) {
		return res, BusinessError{Msg: "reservation date is in the past"}
	}
	if in.Notes != nil {
		trimmed := strings.TrimSpace(*in.Notes)
		if trimmed == "" {
			in.Notes = nil
		} else {
			in.Notes = &trimmed
		}
	}

	var notes outbox
	err = s.store.WithTx(ctx, func(tx Store) error {
		svc, err := tx.Services().Get(ctx, in.ServiceID)
		if err != nil {
			return lookup("service", err)
		}
		if svc.Status != model.ServicePublished {
			return BusinessError{Msg: "service is not available for booking"}
		}

		slot, err := tx.Slots().FindCovering(ctx, svc.ID, date, clock)
		if errors.Is(err, repository.ErrNotFound) {
			return BusinessError{Msg: "no availability", Err: err}
		}
		if err != nil {
			return err
		}
		if !slot.Open() {
			return BusinessError{Msg: "no availability"}
		}
		if err := tx.Slots().Decrement(ctx, slot.ID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return BusinessError{Msg: "no availability", Err: err}
			}
			return err
		}

		res = model.Reservation{
			ID:             s.newID(),
			ClientID:       actor.UserID,
			ServiceID:      svc.ID,
			ProviderID:     svc.ProviderID,
			SlotID:         slot.ID,
			Date:           date,
			Time:           clock,
			Status:         model.ReservationPending,
			TotalCostCents: svc.PriceCents,
			Notes:          in.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Reservations().Create(ctx, &res); err != nil {
			return err
		}
		notes.add(svc.ProviderID, model.CategoryReservation, "New reservation",
			fmt.Sprintf("New booking for %s on %s at %s.", svc.Name, date.Format(model.DateLayout), clock))
		return nil
	})
	if err != nil {
		if IsBusiness(err) {
			s.metrics.ReservationCreated("rejected")
		} else {
			s.metrics.ReservationCreated("error")
		}
		return model.Reservation{}, err
	}
	s.metrics.ReservationCreated("ok")
	s.log.Info("reservation created", zap.String("reservation_id", res.ID), zap.String("service_id", res.ServiceID),
		zap.String("slot_id", res.SlotID))
	s.flush(ctx, notes)
	return res, nil
}

// Confirm accepts a pending reservation.  Only its provider may confirm.
func (s *BookingService) Confirm(ctx context.Context, actor Actor, id string) (model.Reservation, error) {
	return s.transition(ctx, "booking.confirm", id, func(res model.Reservation, n *outbox) (model.ReservationStatus, *string, error) {
		if res.ProviderID != actor.UserID {
			return "", nil, ForbiddenError{Msg: "only the provider can confirm this reservation"}
		}
		if res.Status != model.ReservationPending {
			return "", nil, BusinessError{Msg: fmt.Sprintf("reservation is %s, not PENDING", res.Status)}
		}
		n.add(res.ClientID, model.CategoryReservation, "Reservation confirmed",
			fmt.Sprintf("Your reservation for %s at %s was confirmed.", res.Date.Format(model.DateLayout), res.Time))
		return model.ReservationConfirmed, nil, nil
	})
}

// Reject declines a reservation that has not reached a terminal state.
// The consumed slot capacity is not given back.
func (s *BookingService) Reject(ctx context.Context, actor Actor, id, reason string) (model.Reservation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.Reservation{}, ValidationError{Field: "reason", Msg: "required"}
	}
	return s.transition(ctx, "booking.reject", id, func(res model.Reservation, n *outbox) (model.ReservationStatus, *string, error) {
		if res.ProviderID != actor.UserID {
			return "", nil, ForbiddenError{Msg: "only the provider can reject this reservation"}
		}
		if res.Status.Terminal() {
			return "", nil, BusinessError{Msg: fmt.Sprintf("reservation is already %s", res.Status)}
		}
		n.add(res.ClientID, model.CategoryReservation, "Reservation rejected",
			fmt.Sprintf("Your reservation for %s was rejected: %s", res.Date.Format(model.DateLayout), reason))
		return model.ReservationRejected, &reason, nil
	})
}

// Cancel lets the client withdraw a reservation.  Finalized reservations
// cannot be cancelled.
func (s *BookingService) Cancel(ctx context.Context, actor Actor, id, reason string) (model.Reservation, error) {
	reason = strings.TrimSpace(reason)
	return s.transition(ctx, "booking.cancel", id, func(res model.Reservation, n *outbox) (model.ReservationStatus, *string, error) {
		if res.ClientID != actor.UserID {
			return "", nil, ForbiddenError{Msg: "only the client can cancel this reservation"}
		}
		if res.Status == model.ReservationFinalized {
			return "", nil, BusinessError{Msg: "a finalized reservation cannot be cancelled"}
		}
		if res.Status.Terminal() {
			return "", nil, BusinessError{Msg: fmt.Sprintf("reservation is already %s", res.Status)}
		}
		n.add(res.ProviderID, model.CategoryReservation, "Reservation cancelled",
			fmt.Sprintf("The reservation for %s at %s was cancelled by the client.", res.Date.Format(model.DateLayout), res.Time))
		var r *string
		if reason != "" {
			r = &reason
		}
		return model.ReservationCancelled, r, nil
	})
}

// Finalize marks a confirmed reservation as delivered and credits the
// provider's completed-reservations counter.  The provider or an admin
// may finalize.
func (s *BookingService) Finalize(ctx context.Context, actor Actor, id string) (model.Reservation, error) {
	return s.transition(ctx, "booking.finalize", id, func(res model.Reservation, n *outbox) (model.ReservationStatus, *string, error) {
		if res.ProviderID != actor.UserID && !actor.IsAdmin() {
			return "", nil, ForbiddenError{Msg: "only the provider can finalize this reservation"}
		}
		if res.Status != model.ReservationConfirmed {
			return "", nil, BusinessError{Msg: fmt.Sprintf("reservation is %s, not CONFIRMED", res.Status)}
		}
		n.add(res.ClientID, model.CategoryReview, "How did it go?",
			"Your reservation is complete. Leave a review to help other clients.")
		return model.ReservationFinalized, nil, nil
	})
}

// decideFunc inspects the locked reservation and returns the target
// state, an optional reason to record, or an error to abort.
type decideFunc func(res model.Reservation, n *outbox) (model.ReservationStatus, *string, error)

func (s *BookingService) transition(ctx context.Context, op, id string, decide decideFunc) (res model.Reservation, err error) {
	ctx, span := startSpan(ctx, op, attribute.String("reservation_id", id))
	defer func() { endSpan(span, err) }()

	var notes outbox
	err = s.store.WithTx(ctx, func(tx Store) error {
		cur, err := tx.Reservations().GetForUpdate(ctx, id)
		if err != nil {
			return lookup("reservation", err)
		}
		to, reason, err := decide(cur, &notes)
		if err != nil {
			return err
		}
		now := s.clock()
		if err := tx.Reservations().Transition(ctx, id, cur.Status, to, reason, now); err != nil {
			return conflictAsBusiness(err, "reservation changed concurrently, retry")
		}
		if to == model.ReservationFinalized {
			if err := tx.Providers().IncrementCompleted(ctx, cur.ProviderID, now); err != nil {
				return lookup("provider", err)
			}
		}
		cur.Status, cur.UpdatedAt = to, now
		if reason != nil {
			cur.CancelReason = reason
		}
		res = cur
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	s.metrics.Transition(string(res.Status))
	s.log.Info("reservation transition", zap.String("reservation_id", id), zap.String("status", string(res.Status)))
	s.flush(ctx, notes)
	return res, nil
}

// ExpireStale cancels every PENDING reservation older than the pending
// TTL that has not been paid, and returns how many it cancelled.  Each
// reservation is re-read under a row lock in its own transaction, so a
// payment approved after the listing keeps it alive.  A failure is logged
// and the sweep moves on.  Running it twice cancels nothing new.
func (s *BookingService) ExpireStale(ctx context.Context) (count int, err error) {
	ctx, span := startSpan(ctx, "booking.expire_stale")
	defer func() {
		span.SetAttributes(attribute.Int("expired", count))
		endSpan(span, err)
	}()

	now := s.clock()
	stale, err := s.store.Reservations().ListStalePending(ctx, now.Add(-s.pendingTTL), sweepBatch)
	if err != nil {
		return 0, err
	}
	reason := fmt.Sprintf("expired: not paid within %s", s.pendingTTL)
	for _, res := range stale {
		expired, err := s.expireOne(ctx, res.ID, reason, now)
		if err != nil {
			s.log.Error("expire reservation failed", zap.String("reservation_id", res.ID), zap.Error(err))
			continue
		}
		if !expired {
			continue
		}
		count++
		s.notify.Send(ctx, res.ClientID, model.CategoryReservation, "Reservation expired",
			fmt.Sprintf("Your reservation for %s was cancelled because it was not paid in time.", res.Date.Format(model.DateLayout)))
	}
	s.metrics.Swept(count)
	if count > 0 {
		s.log.Info("expired stale reservations", zap.Int("count", count))
	}
	return count, nil
}

// expireOne cancels a reservation that is still PENDING with no payment or
// only a declined one.  It reports false when the reservation no longer
// qualifies.
func (s *BookingService) expireOne(ctx context.Context, id, reason string, now time.Time) (bool, error) {
	expired := false
	err := s.store.WithTx(ctx, func(tx Store) error {
		res, err := tx.Reservations().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if res.Status != model.ReservationPending {
			return nil
		}
		p, err := tx.Payments().GetByReservation(ctx, id)
		switch {
		case err == nil && p.Status != model.PaymentRejected:
			return nil
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return err
		}
		err = tx.Reservations().Transition(ctx, id, model.ReservationPending, model.ReservationCancelled, &reason, now)
		if errors.Is(err, repository.ErrConflict) {
			return nil
		}
		if err != nil {
			return err
		}
		expired = true
		return nil
	})
	return expired, err
}

// Get returns a reservation visible to its client, its provider or an admin.
func (s *BookingService) Get(ctx context.Context, actor Actor, id string) (model.Reservation, error) {
	res, err := s.store.Reservations().Get(ctx, id)
	if err != nil {
		return res, lookup("reservation", err)
	}
	if !canView(actor, res) {
		return model.Reservation{}, ForbiddenError{Msg: "not your reservation"}
	}
	return res, nil
}

// ListMine pages through the calling client's reservations.
func (s *BookingService) ListMine(ctx context.Context, actor Actor, status model.ReservationStatus, page model.PageRequest) (model.Page[model.Reservation], error) {
	if status != "" && !status.Valid() {
		return model.Page[model.Reservation]{}, ValidationError{Field: "status", Msg: "unknown state"}
	}
	items, total, err := s.store.Reservations().ListByClient(ctx, actor.UserID, status, page)
	if err != nil {
		return model.Page[model.Reservation]{}, err
	}
	return model.NewPage(items, page, total), nil
}

// ListForProvider pages through the reservations of the calling provider.
func (s *BookingService) ListForProvider(ctx context.Context, actor Actor, status model.ReservationStatus, page model.PageRequest) (model.Page[model.Reservation], error) {
	if !actor.IsProvider() {
		return model.Page[model.Reservation]{}, ForbiddenError{Msg: "provider role required"}
	}
	if status != "" && !status.Valid() {
		return model.Page[model.Reservation]{}, ValidationError{Field: "status", Msg: "unknown state"}
	}
	items, total, err := s.store.Reservations().ListByProvider(ctx, actor.UserID, status, page)
	if err != nil {
		return model.Page[model.Reservation]{}, err
	}
	return model.NewPage(items, page, total), nil
}

func canView(actor Actor, res model.Reservation) bool {
	return actor.IsAdmin() || res.ClientID == actor.UserID || res.ProviderID == actor.UserID
}
