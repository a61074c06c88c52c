package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iliyamo/sports-marketplace/internal/model"
	"github.com/iliyamo/sports-marketplace/internal/repository"
)

// Gateway charges a payment method.  It returns the gateway reference of
// an approved charge or ErrDeclined.
type Gateway interface {
	Charge(ctx context.Context, amountCents int64, method, token string) (string, error)
}

// ErrDeclined is returned by a Gateway that refuses a charge.
var ErrDeclined = errors.New("declined")

// SimulatedGateway approves every card or wallet charge except tokens
// that start with "tok_declined" or "fail".
type SimulatedGateway struct{}

var supportedMethods = map[string]bool{"card": true, "wallet": true}

func (SimulatedGateway) Charge(_ context.Context, amountCents int64, method, token string) (string, error) {
	switch {
	case !supportedMethods[method]:
		return "", fmt.Errorf("%w: unsupported payment method %q", ErrDeclined, method)
	case amountCents <= 0:
		return "", fmt.Errorf("%w: invalid amount", ErrDeclined)
	case token == "", strings.HasPrefix(token, "tok_declined"), strings.HasPrefix(token, "fail"):
		return "", fmt.Errorf("%w: card declined", ErrDeclined)
	}
	return "pay_" + uuid.NewString(), nil
}

// PaymentService charges reservations through a Gateway.  There is at
// most one payment row per reservation; a declined attempt may be retried
// and overwrites that row.
type PaymentService struct {
	base
	gateway Gateway
}

func NewPaymentService(d Deps, gw Gateway) *PaymentService {
	if gw == nil {
		gw = SimulatedGateway{}
	}
	return &PaymentService{base: newBase(d), gateway: gw}
}

// PayInput is a client's payment attempt.
type PayInput struct {
	Method string
	Token  string
}

// Pay charges the reservation's total cost.  The gateway is called once;
// a decline is stored as a REJECTED payment and returned as PaymentError.
func (s *PaymentService) Pay(ctx context.Context, actor Actor, reservationID string, in PayInput) (p model.Payment, err error) {
	ctx, span := startSpan(ctx, "payment.pay", attribute.String("reservation_id", reservationID))
	defer func() { endSpan(span, err) }()

	method := strings.ToLower(strings.TrimSpace(in.Method))
	if method == "" {
		return p, ValidationError{Field: "method", Msg: "required"}
	}

	var (
		declined error
		notes    outbox
	)
	err = s.store.WithTx(ctx, func(tx Store) error {
		res, err := tx.Reservations().GetForUpdate(ctx, reservationID)
		if err != nil {
			return lookup("reservation", err)
		}
		if res.ClientID != actor.UserID {
			return ForbiddenError{Msg: "only the client can pay for this reservation"}
		}
		if res.Status != model.ReservationPending && res.Status != model.ReservationConfirmed {
			return BusinessError{Msg: fmt.Sprintf("cannot pay a %s reservation", res.Status)}
		}

		now := s.clock()
		p = model.Payment{ID: s.newID(), ReservationID: res.ID, CreatedAt: now}
		existing, err := tx.Payments().GetByReservation(ctx, res.ID)
		switch {
		case err == nil && (existing.Status == model.PaymentApproved || existing.Status == model.PaymentRefunded):
			return BusinessError{Msg: "reservation is already paid"}
		case err == nil:
			p.ID, p.CreatedAt = existing.ID, existing.CreatedAt
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		p.AmountCents = res.TotalCostCents
		p.Method = method
		p.UpdatedAt = now
		ref, cerr := s.gateway.Charge(ctx, p.AmountCents, method, in.Token)
		if cerr != nil {
			reason := cerr.Error()
			p.Status, p.FailureReason, p.GatewayRef = model.PaymentRejected, &reason, ""
			declined = PaymentError{Msg: reason, Err: cerr}
		} else {
			p.Status, p.GatewayRef, p.FailureReason = model.PaymentApproved, ref, nil
			notes.add(res.ProviderID, model.CategoryPayment, "Payment received",
				fmt.Sprintf("Reservation %s was paid.", res.ID))
			notes.add(res.ClientID, model.CategoryPayment, "Payment approved",
				fmt.Sprintf("Your payment of %s was approved.", FormatCents(p.AmountCents)))
		}
		return tx.Payments().Save(ctx, &p)
	})
	if err != nil {
		return model.Payment{}, err
	}
	if declined != nil {
		s.metrics.Payment("declined")
		s.log.Warn("payment declined", zap.String("reservation_id", reservationID), zap.Error(declined))
		return p, declined
	}
	s.metrics.Payment("approved")
	s.flush(ctx, notes)
	return p, nil
}

// Get returns the payment of a reservation visible to the caller.
func (s *PaymentService) Get(ctx context.Context, actor Actor, reservationID string) (model.Payment, error) {
	res, err := s.store.Reservations().Get(ctx, reservationID)
	if err != nil {
		return model.Payment{}, lookup("reservation", err)
	}
	if !canView(actor, res) {
		return model.Payment{}, ForbiddenError{Msg: "not your reservation"}
	}
	p, err := s.store.Payments().GetByReservation(ctx, reservationID)
	if err != nil {
		return model.Payment{}, lookup("payment", err)
	}
	return p, nil
}

// FormatCents renders an amount in cents as "1234.56".
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
