package service

import (
	"context"

	"github.com/iliyamo/sports-marketplace/internal/repository"
)

type sqlStore struct {
	repo *repository.Repository
}

// NewSQLStore adapts the MySQL repositories to Store.
func NewSQLStore(repo *repository.Repository) Store { return sqlStore{repo: repo} }

func (s sqlStore) Users() UserStore                 { return s.repo.Users }
func (s sqlStore) Providers() ProviderStore         { return s.repo.Providers }
func (s sqlStore) Services() ServiceStore           { return s.repo.Services }
func (s sqlStore) Slots() SlotStore                 { return s.repo.Slots }
func (s sqlStore) Reservations() ReservationStore   { return s.repo.Reservations }
func (s sqlStore) Payments() PaymentStore           { return s.repo.Payments }
func (s sqlStore) Refunds() RefundStore             { return s.repo.Refunds }
func (s sqlStore) Reviews() ReviewStore             { return s.repo.Reviews }
func (s sqlStore) Notifications() NotificationStore { return s.repo.Notifications }
func (s sqlStore) Reports() ReportStore             { return s.repo.Reports }

func (s sqlStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		return fn(sqlStore{repo: tx})
	})
}
