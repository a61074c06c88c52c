package handler

import (
	"context"
	"time"

	"github.com/iliyamo/sports-marketplace/internal/model"
	"github.com/iliyamo/sports-marketplace/internal/service"
)

// The interfaces below are the service operations each handler needs.
// They are satisfied by the types in internal/service.

type Accounts interface {
	Register(ctx context.Context, in service.RegisterInput) (model.User, error)
	Authenticate(ctx context.Context, email, password string) (model.User, error)
	Get(ctx context.Context, id string) (model.User, error)
}

type RefreshTokens interface {
	StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

type Catalog interface {
	CreateService(ctx context.Context, actor service.Actor, in service.ServiceInput) (model.Service, error)
	UpdateService(ctx context.Context, actor service.Actor, id string, in service.ServiceInput) (model.Service, error)
	PauseService(ctx context.Context, actor service.Actor, id string) (model.Service, error)
	PublishService(ctx context.Context, actor service.Actor, id string) (model.Service, error)
	DeleteService(ctx context.Context, actor service.Actor, id string) (model.Service, error)
	AddSlot(ctx context.Context, actor service.Actor, serviceID string, in service.SlotInput) (model.AvailabilitySlot, error)
	ListSlots(ctx context.Context, serviceID string, from time.Time) ([]model.AvailabilitySlot, error)
	GetService(ctx context.Context, id string) (model.Service, error)
	ListPublished(ctx context.Context, f service.BrowseFilter, page model.PageRequest) (model.Page[model.Service], error)
	ListMine(ctx context.Context, actor service.Actor, page model.PageRequest) (model.Page[model.Service], error)
}

type Bookings interface {
	Create(ctx context.Context, actor service.Actor, in service.CreateReservationInput) (model.Reservation, error)
	Confirm(ctx context.Context, actor service.Actor, id string) (model.Reservation, error)
	Reject(ctx context.Context, actor service.Actor, id, reason string) (model.Reservation, error)
	Cancel(ctx context.Context, actor service.Actor, id, reason string) (model.Reservation, error)
	Finalize(ctx context.Context, actor service.Actor, id string) (model.Reservation, error)
	ExpireStale(ctx context.Context) (int, error)
	Get(ctx context.Context, actor service.Actor, id string) (model.Reservation, error)
	ListMine(ctx context.Context, actor service.Actor, status model.ReservationStatus, page model.PageRequest) (model.Page[model.Reservation], error)
	ListForProvider(ctx context.Context, actor service.Actor, status model.ReservationStatus, page model.PageRequest) (model.Page[model.Reservation], error)
}

type Payments interface {
	Pay(ctx context.Context, actor service.Actor, reservationID string, in service.PayInput) (model.Payment, error)
	Get(ctx context.Context, actor service.Actor, reservationID string) (model.Payment, error)
}

type Refunds interface {
	Quote(ctx context.Context, actor service.Actor, reservationID string) (service.RefundQuote, error)
	Request(ctx context.Context, actor service.Actor, reservationID, reason string) (model.RefundRequest, error)
	Approve(ctx context.Context, actor service.Actor, refundID, notes string) (model.RefundRequest, error)
	Reject(ctx context.Context, actor service.Actor, refundID, reason string) (model.RefundRequest, error)
	List(ctx context.Context, actor service.Actor, status model.RefundStatus, page model.PageRequest) (model.Page[model.RefundRequest], error)
}

type Reviews interface {
	Create(ctx context.Context, actor service.Actor, reservationID string, in service.CreateReviewInput) (model.Review, error)
	Delete(ctx context.Context, actor service.Actor, reviewID string) error
	Report(ctx context.Context, actor service.Actor, reviewID string) error
	Restore(ctx context.Context, actor service.Actor, reviewID string) error
	Remove(ctx context.Context, actor service.Actor, reviewID string) error
	Reply(ctx context.Context, actor service.Actor, reviewID, reply string) (model.Review, error)
	ListForService(ctx context.Context, serviceID string, page model.PageRequest) (model.Page[model.Review], error)
	ListFlagged(ctx context.Context, actor service.Actor, page model.PageRequest) (model.Page[model.Review], error)
}

type Notifications interface {
	List(ctx context.Context, actor service.Actor, unreadOnly bool, page model.PageRequest) (model.Page[model.Notification], error)
	MarkRead(ctx context.Context, actor service.Actor, id string) error
}

// Jobs runs work under a scheduled job's guards.  ran is false when the
// job is already running.
type Jobs interface {
	RunWith(ctx context.Context, name string, fn func(ctx context.Context) error) (ran bool, err error)
}

type Reports interface {
	Generate(ctx context.Context) (model.KPIReport, error)
	Latest(ctx context.Context) (model.KPIReport, error)
}
