package service

import (
	"context"

	"github.com/iliyamo/sports-marketplace/internal/model"
)

// NotificationService serves a user's in-app notifications.
type NotificationService struct {
	base
}

func NewNotificationService(d Deps) *NotificationService {
	return &NotificationService{base: newBase(d)}
}

func (s *NotificationService) List(ctx context.Context, actor Actor, unreadOnly bool, page model.PageRequest) (model.Page[model.Notification], error) {
	items, total, err := s.store.Notifications().ListByUser(ctx, actor.UserID, unreadOnly, page)
	if err != nil {
		return model.Page[model.Notification]{}, err
	}
	return model.NewPage(items, page, total), nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id string) error {
	return lookup("notification", s.store.Notifications().MarkRead(ctx, id, actor.UserID))
}
