package service

import (
	"context"
	"time"

	"github.com/iliyamo/sports-marketplace/internal/model"
	"github.com/iliyamo/sports-marketplace/internal/repository"
)

// The store interfaces below are what the business services need from
// persistence.  The repository package satisfies them against MySQL;
// tests use an in-memory implementation.

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}

type ProviderStore interface {
	Create(ctx context.Context, p *model.Provider) error
	Get(ctx context.Context, id string) (model.Provider, error)
	Lock(ctx context.Context, id string) error
	SetRating(ctx context.Context, id string, rating float64, at time.Time) error
	SetPublishedServices(ctx context.Context, id string, n int, at time.Time) error
	IncrementCompleted(ctx context.Context, id string, at time.Time) error
}

type ServiceStore interface {
	Create(ctx context.Context, s *model.Service) error
	Get(ctx context.Context, id string) (model.Service, error)
	Update(ctx context.Context, s *model.Service) error
	SetRating(ctx context.Context, id string, rating float64, count int, at time.Time) error
	CountPublishedByProvider(ctx context.Context, providerID string) (int, error)
	List(ctx context.Context, f repository.ServiceFilter, page model.PageRequest) ([]model.Service, int, error)
}

type SlotStore interface {
	Create(ctx context.Context, s *model.AvailabilitySlot) error
	Get(ctx context.Context, id string) (model.AvailabilitySlot, error)
	FindCovering(ctx context.Context, serviceID string, date time.Time, clock string) (model.AvailabilitySlot, error)
	Decrement(ctx context.Context, id string) error
	ListByService(ctx context.Context, serviceID string, from time.Time) ([]model.AvailabilitySlot, error)
}

type ReservationStore interface {
	Create(ctx context.Context, r *model.Reservation) error
	Get(ctx context.Context, id string) (model.Reservation, error)
	GetForUpdate(ctx context.Context, id string) (model.Reservation, error)
	Transition(ctx context.Context, id string, from, to model.ReservationStatus, reason *string, at time.Time) error
	ListByClient(ctx context.Context, clientID string, status model.ReservationStatus, page model.PageRequest) ([]model.Reservation, int, error)
	ListByProvider(ctx context.Context, providerID string, status model.ReservationStatus, page model.PageRequest) ([]model.Reservation, int, error)
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Reservation, error)
}

type PaymentStore interface {
	Save(ctx context.Context, p *model.Payment) error
	Get(ctx context.Context, id string) (model.Payment, error)
	GetByReservation(ctx context.Context, reservationID string) (model.Payment, error)
	Transition(ctx context.Context, id string, from, to model.PaymentStatus, at time.Time) error
}

type RefundStore interface {
	Create(ctx context.Context, r *model.RefundRequest) error
	Get(ctx context.Context, id string) (model.RefundRequest, error)
	ExistsForReservation(ctx context.Context, reservationID string) (bool, error)
	Resolve(ctx context.Context, id string, to model.RefundStatus, notes *string, at time.Time) error
	List(ctx context.Context, f repository.RefundFilter, page model.PageRequest) ([]model.RefundRequest, int, error)
}

type ReviewStore interface {
	Create(ctx context.Context, r *model.Review) error
	Get(ctx context.Context, id string) (model.Review, error)
	ExistsForReservation(ctx context.Context, reservationID string) (bool, error)
	Delete(ctx context.Context, id string) error
	SetReply(ctx context.Context, id, reply string, at time.Time) error
	Flag(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	ServiceStats(ctx context.Context, serviceID string) (repository.RatingStats, error)
	ProviderStats(ctx context.Context, providerID string) (repository.RatingStats, error)
	ListByService(ctx context.Context, serviceID string, state model.ReviewState, page model.PageRequest) ([]model.Review, int, error)
	ListFlagged(ctx context.Context, page model.PageRequest) ([]model.Review, int, error)
}

type NotificationStore interface {
	ListByUser(ctx context.Context, userID string, unreadOnly bool, page model.PageRequest) ([]model.Notification, int, error)
	MarkRead(ctx context.Context, id, userID string) error
}

type ReportStore interface {
	ReservationsByStatus(ctx context.Context) (map[model.ReservationStatus]int, error)
	PaymentTotal(ctx context.Context, status model.PaymentStatus) (int64, error)
	RefundTotal(ctx context.Context, status model.RefundStatus) (int64, error)
	RefundCount(ctx context.Context, status model.RefundStatus) (int, error)
	ServiceCount(ctx context.Context, status model.ServiceStatus) (int, error)
	ProviderCount(ctx context.Context) (int, error)
	AverageServiceRating(ctx context.Context) (float64, error)
	Save(ctx context.Context, r *model.KPIReport) error
	Latest(ctx context.Context) (model.KPIReport, error)
}

// Store hands out the per-entity stores.  Stores obtained inside WithTx
// share one transaction; fn's error rolls it back.
type Store interface {
	Users() UserStore
	Providers() ProviderStore
	Services() ServiceStore
	Slots() SlotStore
	Reservations() ReservationStore
	Payments() PaymentStore
	Refunds() RefundStore
	Reviews() ReviewStore
	Notifications() NotificationStore
	Reports() ReportStore
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// Notifier delivers a user-facing message.  Implementations must not
// block the caller and must swallow their own failures.
type Notifier interface {
	Send(ctx context.Context, userID string, category model.NotificationCategory, title, body string)
}
