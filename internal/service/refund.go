package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iliyamo/sports-marketplace/internal/model"
	"github.com/iliyamo/sports-marketplace/internal/repository"
)

// RefundPercentage is the share of the payment returned when cancelling
// days whole days before the booking: 100 from a week out, 90 from three
// days out, 80 otherwise, including after the date has passed.
func RefundPercentage(days int) int {
	switch {
	case days >= 7:
		return 100
	case days >= 3:
		return 90
	default:
		return 80
	}
}

// CalculateRefundAmount applies the refund tier for days to an amount in
// cents, rounding half up to the cent.
func CalculateRefundAmount(amountCents int64, days int) int64 {
	pct := int64(RefundPercentage(days))
	return (amountCents*pct + 50) / 100
}

// RefundQuote is what the client would get back if they asked now.
type RefundQuote struct {
	ReservationID    string `json:"reservation_id"`
	PaymentCents     int64  `json:"payment_cents"`
	DaysUntilBooking int    `json:"days_until_booking"`
	Percentage       int    `json:"percentage"`
	AmountCents      int64  `json:"amount_cents"`
}

// RefundService runs the refund flow: a client request cancels the
// reservation and records the amount owed; an admin then approves it,
// which refunds the payment, or rejects it, which reinstates the
// reservation as CONFIRMED.
type RefundService struct {
	base
}

func NewRefundService(d Deps) *RefundService {
	return &RefundService{base: newBase(d)}
}

// Quote computes the refund for a reservation with an approved payment.
func (s *RefundService) Quote(ctx context.Context, actor Actor, reservationID string) (RefundQuote, error) {
	res, err := s.store.Reservations().Get(ctx, reservationID)
	if err != nil {
		return RefundQuote{}, lookup("reservation", err)
	}
	if res.ClientID != actor.UserID && !actor.IsAdmin() {
		return RefundQuote{}, ForbiddenError{Msg: "not your reservation"}
	}
	pay, err := approvedPayment(ctx, s.store, res.ID)
	if err != nil {
		return RefundQuote{}, err
	}
	return s.quote(res, pay), nil
}

func (s *RefundService) quote(res model.Reservation, pay model.Payment) RefundQuote {
	days := model.DaysBetween(s.clock(), res.Date)
	return RefundQuote{
		ReservationID:    res.ID,
		PaymentCents:     pay.AmountCents,
		DaysUntilBooking: days,
		Percentage:       RefundPercentage(days),
		AmountCents:      CalculateRefundAmount(pay.AmountCents, days),
	}
}

func approvedPayment(ctx context.Context, st Store, reservationID string) (model.Payment, error) {
	pay, err := st.Payments().GetByReservation(ctx, reservationID)
	if errors.Is(err, repository.ErrNotFound) {
		return pay, BusinessError{Msg: "reservation has no approved payment", Err: err}
	}
	if err != nil {
		return pay, err
	}
	if pay.Status != model.PaymentApproved {
		return pay, BusinessError{Msg: fmt.Sprintf("payment is %s, not APPROVED", pay.Status)}
	}
	return pay, nil
}

// Request files a refund for the client's reservation and cancels it in
// the same transaction.  The amount is fixed at request time.
func (s *RefundService) Request(ctx context.Context, actor Actor, reservationID, reason string) (rr model.RefundRequest, err error) {
	ctx, span := startSpan(ctx, "refund.request", attribute.String("reservation_id", reservationID))
	defer func() { endSpan(span, err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return rr, ValidationError{Field: "reason", Msg: "required"}
	}

	var notes outbox
	err = s.store.WithTx(ctx, func(tx Store) error {
		res, err := tx.Reservations().GetForUpdate(ctx, reservationID)
		if err != nil {
			return lookup("reservation", err)
		}
		if res.ClientID != actor.UserID {
			return ForbiddenError{Msg: "only the client can request a refund"}
		}
		if res.Status != model.ReservationPending && res.Status != model.ReservationConfirmed {
			return BusinessError{Msg: fmt.Sprintf("cannot refund a %s reservation", res.Status)}
		}
		pay, err := approvedPayment(ctx, tx, res.ID)
		if err != nil {
			return err
		}
		exists, err := tx.Refunds().ExistsForReservation(ctx, res.ID)
		if err != nil {
			return err
		}
		if exists {
			return BusinessError{Msg: "a refund was already requested for this reservation"}
		}

		q := s.quote(res, pay)
		now := s.clock()
		rr = model.RefundRequest{
			ID:            s.newID(),
			ReservationID: res.ID,
			ClientID:      res.ClientID,
			PaymentID:     pay.ID,
			AmountCents:   q.AmountCents,
			Percentage:    q.Percentage,
			Reason:        reason,
			Status:        model.RefundRequested,
			CreatedAt:     now,
		}
		if err := tx.Refunds().Create(ctx, &rr); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return BusinessError{Msg: "a refund was already requested for this reservation", Err: err}
			}
			return err
		}
		if err := tx.Reservations().Transition(ctx, res.ID, res.Status, model.ReservationCancelled, &reason, now); err != nil {
			return conflictAsBusiness(err, "reservation changed concurrently, retry")
		}
		notes.add(res.ClientID, model.CategoryRefund, "Refund requested",
			fmt.Sprintf("We received your refund request for %s (%d%% of your payment).", FormatCents(rr.AmountCents), rr.Percentage))
		notes.add(res.ProviderID, model.CategoryReservation, "Reservation cancelled",
			fmt.Sprintf("Reservation %s was cancelled with a refund request.", res.ID))
		return nil
	})
	if err != nil {
		return model.RefundRequest{}, err
	}
	s.metrics.Refund("requested")
	s.log.Info("refund requested", zap.String("refund_id", rr.ID), zap.String("reservation_id", rr.ReservationID),
		zap.Int64("amount_cents", rr.AmountCents))
	s.flush(ctx, notes)
	return rr, nil
}

// Approve resolves a refund in the client's favour and marks the payment
// REFUNDED.  Resolution is a compare-and-set on REQUESTED, so a request
// can be approved at most once.
func (s *RefundService) Approve(ctx context.Context, actor Actor, refundID, notes string) (model.RefundRequest, error) {
	return s.resolve(ctx, "refund.approve", actor, refundID, model.RefundApproved, strings.TrimSpace(notes))
}

// Reject refuses a refund.  A reason is required; the reservation that
// the request cancelled goes back to CONFIRMED and the payment stays
// APPROVED.
func (s *RefundService) Reject(ctx context.Context, actor Actor, refundID, reason string) (model.RefundRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.RefundRequest{}, ValidationError{Field: "reason", Msg: "required"}
	}
	return s.resolve(ctx, "refund.reject", actor, refundID, model.RefundRejected, reason)
}

func (s *RefundService) resolve(ctx context.Context, op string, actor Actor, refundID string, to model.RefundStatus, notes string) (rr model.RefundRequest, err error) {
	ctx, span := startSpan(ctx, op, attribute.String("refund_id", refundID))
	defer func() { endSpan(span, err) }()

	if !actor.IsAdmin() {
		return rr, ForbiddenError{Msg: "admin role required"}
	}
	var adminNotes *string
	if notes != "" {
		adminNotes = &notes
	}

	var out outbox
	err = s.store.WithTx(ctx, func(tx Store) error {
		cur, err := tx.Refunds().Get(ctx, refundID)
		if err != nil {
			return lookup("refund request", err)
		}
		if cur.Status != model.RefundRequested {
			return BusinessError{Msg: fmt.Sprintf("refund request is already %s", cur.Status)}
		}
		now := s.clock()
		if err := tx.Refunds().Resolve(ctx, cur.ID, to, adminNotes, now); err != nil {
			return conflictAsBusiness(err, "refund request was resolved concurrently")
		}

		switch to {
		case model.RefundApproved:
			if err := tx.Payments().Transition(ctx, cur.PaymentID, model.PaymentApproved, model.PaymentRefunded, now); err != nil {
				return conflictAsBusiness(err, "payment is no longer APPROVED")
			}
			out.add(cur.ClientID, model.CategoryRefund, "Refund approved",
				fmt.Sprintf("Your refund of %s was approved.", FormatCents(cur.AmountCents)))
		case model.RefundRejected:
			if err := tx.Reservations().Transition(ctx, cur.ReservationID, model.ReservationCancelled, model.ReservationConfirmed, nil, now); err != nil {
				return conflictAsBusiness(err, "reservation is no longer CANCELLED")
			}
			out.add(cur.ClientID, model.CategoryRefund, "Refund rejected",
				fmt.Sprintf("Your refund request was rejected: %s. Your reservation is confirmed again.", notes))
		}

		cur.Status, cur.AdminNotes, cur.ResolvedAt = to, adminNotes, &now
		rr = cur
		return nil
	})
	if err != nil {
		return model.RefundRequest{}, err
	}
	s.metrics.Refund(strings.ToLower(string(to)))
	s.log.Info("refund resolved", zap.String("refund_id", rr.ID), zap.String("status", string(to)))
	s.flush(ctx, out)
	return rr, nil
}

// List pages through refund requests.  Admins see all of them, optionally
// filtered by state; other callers see only their own.
func (s *RefundService) List(ctx context.Context, actor Actor, status model.RefundStatus, page model.PageRequest) (model.Page[model.RefundRequest], error) {
	f := repository.RefundFilter{Status: status}
	if !actor.IsAdmin() {
		f.ClientID = actor.UserID
	}
	items, total, err := s.store.Refunds().List(ctx, f, page)
	if err != nil {
		return model.Page[model.RefundRequest]{}, err
	}
	return model.NewPage(items, page, total), nil
}

// conflictAsBusiness turns a lost compare-and-set into a BusinessError.
func conflictAsBusiness(err error, msg string) error {
	if errors.Is(err, repository.ErrConflict) {
		return BusinessError{Msg: msg, Err: err}
	}
	return err
}
