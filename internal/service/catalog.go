package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/sports-marketplace/internal/model"
	"github.com/iliyamo/sports-marketplace/internal/repository"
)

// CatalogService manages the services providers offer and their
// availability slots.
type CatalogService struct {
	base
}

func NewCatalogService(d Deps) *CatalogService {
	return &CatalogService{base: newBase(d)}
}

// ServiceInput holds the editable fields of a service.
type ServiceInput struct {
	Name        string
	Description string
	Category    string
	PriceCents  int64
}

func (in *ServiceInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	switch {
	case in.Name == "":
		return ValidationError{Field: "name", Msg: "required"}
	case in.Category == "":
		return ValidationError{Field: "category", Msg: "required"}
	case in.PriceCents <= 0:
		return ValidationError{Field: "price_cents", Msg: "must be positive"}
	}
	return nil
}

// SlotInput describes a new availability window.
type SlotInput struct {
	Date      time.Time
	StartTime string
	EndTime   string
	Capacity  int
}

// CreateService publishes a new service owned by the calling provider.
func (s *CatalogService) CreateService(ctx context.Context, actor Actor, in ServiceInput) (svc model.Service, err error) {
	if !actor.IsProvider() {
		return svc, ForbiddenError{Msg: "provider role required"}
	}
	if err := in.normalize(); err != nil {
		return svc, err
	}
	err = s.store.WithTx(ctx, func(tx Store) error {
		if err := tx.Providers().Lock(ctx, actor.UserID); err != nil {
			return lookup("provider profile", err)
		}
		now := s.clock()
		svc = model.Service{
			ID:          s.newID(),
			ProviderID:  actor.UserID,
			Name:        in.Name,
			Description: in.Description,
			Category:    in.Category,
			PriceCents:  in.PriceCents,
			Status:      model.ServicePublished,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Services().Create(ctx, &svc); err != nil {
			return err
		}
		return s.recountPublished(ctx, tx, actor.UserID, now)
	})
	if err != nil {
		return model.Service{}, err
	}
	s.log.Info("service created", zap.String("service_id", svc.ID), zap.String("provider_id", svc.ProviderID))
	return svc, nil
}

// UpdateService edits name, description, category and price.  Existing
// reservations keep the price they were booked at.
func (s *CatalogService) UpdateService(ctx context.Context, actor Actor, id string, in ServiceInput) (model.Service, error) {
	if err := in.normalize(); err != nil {
		return model.Service{}, err
	}
	return s.change(ctx, actor, id, false, func(svc *model.Service) error {
		svc.Name, svc.Description, svc.Category, svc.PriceCents = in.Name, in.Description, in.Category, in.PriceCents
		return nil
	})
}

// PauseService hides a published service from booking.
func (s *CatalogService) PauseService(ctx context.Context, actor Actor, id string) (model.Service, error) {
	return s.change(ctx, actor, id, false, func(svc *model.Service) error {
		if svc.Status != model.ServicePublished {
			return BusinessError{Msg: fmt.Sprintf("service is %s, not PUBLISHED", svc.Status)}
		}
		svc.Status = model.ServicePaused
		return nil
	})
}

// PublishService makes a paused service bookable again.
func (s *CatalogService) PublishService(ctx context.Context, actor Actor, id string) (model.Service, error) {
	return s.change(ctx, actor, id, false, func(svc *model.Service) error {
		if svc.Status != model.ServicePaused {
			return BusinessError{Msg: fmt.Sprintf("service is %s, not PAUSED", svc.Status)}
		}
		svc.Status = model.ServicePublished
		return nil
	})
}

// DeleteService soft-deletes a service.  Its owner or an admin may delete.
func (s *CatalogService) DeleteService(ctx context.Context, actor Actor, id string) (model.Service, error) {
	return s.change(ctx, actor, id, true, func(svc *model.Service) error {
		svc.Status = model.ServiceDeleted
		return nil
	})
}

// change applies edit to a non-deleted service owned by actor and keeps
// the provider's published-services counter in step.
func (s *CatalogService) change(ctx context.Context, actor Actor, id string, adminOK bool, edit func(*model.Service) error) (svc model.Service, err error) {
	err = s.store.WithTx(ctx, func(tx Store) error {
		cur, err := tx.Services().Get(ctx, id)
		if err != nil {
			return lookup("service", err)
		}
		if cur.Status == model.ServiceDeleted {
			return NotFoundError{Resource: "service"}
		}
		if cur.ProviderID != actor.UserID && !(adminOK && actor.IsAdmin()) {
			return ForbiddenError{Msg: "not your service"}
		}
		if err := tx.Providers().Lock(ctx, cur.ProviderID); err != nil {
			return err
		}
		if err := edit(&cur); err != nil {
			return err
		}
		now := s.clock()
		cur.UpdatedAt = now
		if err := tx.Services().Update(ctx, &cur); err != nil {
			return lookup("service", err)
		}
		svc = cur
		return s.recountPublished(ctx, tx, cur.ProviderID, now)
	})
	if err != nil {
		return model.Service{}, err
	}
	return svc, nil
}

// recountPublished needs the provider lock held by the caller.
func (s *CatalogService) recountPublished(ctx context.Context, tx Store, providerID string, at time.Time) error {
	n, err := tx.Services().CountPublishedByProvider(ctx, providerID)
	if err != nil {
		return err
	}
	return tx.Providers().SetPublishedServices(ctx, providerID, n, at)
}

// AddSlot opens an availability window on one of the provider's services.
func (s *CatalogService) AddSlot(ctx context.Context, actor Actor, serviceID string, in SlotInput) (model.AvailabilitySlot, error) {
	start, err := model.ParseClock(in.StartTime)
	if err != nil {
		return model.AvailabilitySlot{}, ValidationError{Field: "start_time", Msg: err.Error()}
	}
	end, err := model.ParseClock(in.EndTime)
	if err != nil {
		return model.AvailabilitySlot{}, ValidationError{Field: "end_time", Msg: err.Error()}
	}
	switch {
	case in.Date.IsZero():
		return model.AvailabilitySlot{}, ValidationError{Field: "date", Msg: "required"}
	case start >= end:
		return model.AvailabilitySlot{}, ValidationError{Field: "end_time", Msg: "must be after start_time"}
	case in.Capacity <= 0:
		return model.AvailabilitySlot{}, ValidationError{Field: "capacity", Msg: "must be positive"}
	}

	svc, err := s.store.Services().Get(ctx, serviceID)
	if err != nil {
		return model.AvailabilitySlot{}, lookup("service", err)
	}
	if svc.Status == model.ServiceDeleted {
		return model.AvailabilitySlot{}, NotFoundError{Resource: "service"}
	}
	if svc.ProviderID != actor.UserID {
		return model.AvailabilitySlot{}, ForbiddenError{Msg: "not your service"}
	}
	slot := model.AvailabilitySlot{
		ID:        s.newID(),
		ServiceID: svc.ID,
		Date:      model.TruncateDay(in.Date),
		StartTime: start,
		EndTime:   end,
		Capacity:  in.Capacity,
		Remaining: in.Capacity,
		CreatedAt: s.clock(),
	}
	if err := s.store.Slots().Create(ctx, &slot); err != nil {
		return model.AvailabilitySlot{}, err
	}
	return slot, nil
}

// ListSlots returns the slots of a service from the given day on.
func (s *CatalogService) ListSlots(ctx context.Context, serviceID string, from time.Time) ([]model.AvailabilitySlot, error) {
	if _, err := s.GetService(ctx, serviceID); err != nil {
		return nil, err
	}
	if from.IsZero() {
		from = s.clock()
	}
	slots, err := s.store.Slots().ListByService(ctx, serviceID, model.TruncateDay(from))
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []model.AvailabilitySlot{}
	}
	return slots, nil
}

// GetService returns a service that has not been deleted.
func (s *CatalogService) GetService(ctx context.Context, id string) (model.Service, error) {
	svc, err := s.store.Services().Get(ctx, id)
	if err != nil {
		return svc, lookup("service", err)
	}
	if svc.Status == model.ServiceDeleted {
		return model.Service{}, NotFoundError{Resource: "service"}
	}
	return svc, nil
}

// BrowseFilter narrows the public catalog.
type BrowseFilter struct {
	Category   string
	ProviderID string
}

// ListPublished pages through bookable services.
func (s *CatalogService) ListPublished(ctx context.Context, f BrowseFilter, page model.PageRequest) (model.Page[model.Service], error) {
	items, total, err := s.store.Services().List(ctx, repository.ServiceFilter{
		Category:   strings.ToLower(strings.TrimSpace(f.Category)),
		ProviderID: f.ProviderID,
		Status:     model.ServicePublished,
	}, page)
	if err != nil {
		return model.Page[model.Service]{}, err
	}
	return model.NewPage(items, page, total), nil
}

// ListMine pages through the calling provider's services of any state
// except deleted.
func (s *CatalogService) ListMine(ctx context.Context, actor Actor, page model.PageRequest) (model.Page[model.Service], error) {
	if !actor.IsProvider() {
		return model.Page[model.Service]{}, ForbiddenError{Msg: "provider role required"}
	}
	items, total, err := s.store.Services().List(ctx, repository.ServiceFilter{ProviderID: actor.UserID}, page)
	if err != nil {
		return model.Page[model.Service]{}, err
	}
	return model.NewPage(items, page, total), nil
}
