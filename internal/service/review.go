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

// ReviewService manages reviews.  Every change to the set of PUBLISHED
// reviews recomputes the service and provider ratings in the same
// transaction.
type ReviewService struct {
	base
}

func NewReviewService(d Deps) *ReviewService {
	return &ReviewService{base: newBase(d)}
}

// CreateReviewInput is a client's review of a finalized reservation.
type CreateReviewInput struct {
	Rating  int
	Comment string
}

// Create publishes the client's review of a finalized reservation.
func (s *ReviewService) Create(ctx context.Context, actor Actor, reservationID string, in CreateReviewInput) (rv model.Review, err error) {
	ctx, span := startSpan(ctx, "review.create", attribute.String("reservation_id", reservationID))
	defer func() { endSpan(span, err) }()

	if in.Rating < 1 || in.Rating > 5 {
		return rv, ValidationError{Field: "rating", Msg: "must be between 1 and 5"}
	}

	var notes outbox
	err = s.store.WithTx(ctx, func(tx Store) error {
		res, err := tx.Reservations().Get(ctx, reservationID)
		if err != nil {
			return lookup("reservation", err)
		}
		if res.ClientID != actor.UserID {
			return ForbiddenError{Msg: "only the client can review this reservation"}
		}
		if res.Status != model.ReservationFinalized {
			return BusinessError{Msg: fmt.Sprintf("only finalized reservations can be reviewed, this one is %s", res.Status)}
		}
		if err := tx.Providers().Lock(ctx, res.ProviderID); err != nil {
			return err
		}
		exists, err := tx.Reviews().ExistsForReservation(ctx, res.ID)
		if err != nil {
			return err
		}
		if exists {
			return BusinessError{Msg: "reservation already reviewed"}
		}

		now := s.clock()
		rv = model.Review{
			ID:            s.newID(),
			ReservationID: res.ID,
			ServiceID:     res.ServiceID,
			ProviderID:    res.ProviderID,
			ClientID:      res.ClientID,
			Rating:        in.Rating,
			Comment:       strings.TrimSpace(in.Comment),
			State:         model.ReviewPublished,
			CreatedAt:     now,
		}
		if err := tx.Reviews().Create(ctx, &rv); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return BusinessError{Msg: "reservation already reviewed", Err: err}
			}
			return err
		}
		if _, err := recomputeRatings(ctx, tx, rv.ServiceID, rv.ProviderID, now); err != nil {
			return err
		}
		notes.add(rv.ProviderID, model.CategoryReview, "New review",
			fmt.Sprintf("A client rated your service %d/5.", rv.Rating))
		return nil
	})
	if err != nil {
		return model.Review{}, err
	}
	s.log.Info("review created", zap.String("review_id", rv.ID), zap.String("service_id", rv.ServiceID))
	s.flush(ctx, notes)
	return rv, nil
}

// Delete removes the client's own review.
func (s *ReviewService) Delete(ctx context.Context, actor Actor, reviewID string) error {
	return s.mutate(ctx, "review.delete", reviewID, func(tx Store, rv model.Review) error {
		if rv.ClientID != actor.UserID {
			return ForbiddenError{Msg: "only the author can delete this review"}
		}
		return lookup("review", tx.Reviews().Delete(ctx, rv.ID))
	})
}

// Report flags a review for moderation and hides it until an admin
// decides.  Reporting an already flagged review fails.
func (s *ReviewService) Report(ctx context.Context, actor Actor, reviewID string) error {
	return s.mutate(ctx, "review.report", reviewID, func(tx Store, rv model.Review) error {
		if rv.Flagged {
			return BusinessError{Msg: "review is already reported"}
		}
		s.log.Info("review reported", zap.String("review_id", rv.ID), zap.String("reporter_id", actor.UserID))
		return conflictAsBusiness(tx.Reviews().Flag(ctx, rv.ID), "review is already reported")
	})
}

// Restore republishes a reported review.  Admin only.
func (s *ReviewService) Restore(ctx context.Context, actor Actor, reviewID string) error {
	if !actor.IsAdmin() {
		return ForbiddenError{Msg: "admin role required"}
	}
	return s.mutate(ctx, "review.restore", reviewID, func(tx Store, rv model.Review) error {
		if !rv.Flagged {
			return BusinessError{Msg: "review is not reported"}
		}
		return lookup("review", tx.Reviews().Restore(ctx, rv.ID))
	})
}

// Remove deletes a review on moderation.  Admin only.
func (s *ReviewService) Remove(ctx context.Context, actor Actor, reviewID string) error {
	if !actor.IsAdmin() {
		return ForbiddenError{Msg: "admin role required"}
	}
	return s.mutate(ctx, "review.remove", reviewID, func(tx Store, rv model.Review) error {
		return lookup("review", tx.Reviews().Delete(ctx, rv.ID))
	})
}

// mutate loads a review, applies change and recomputes the ratings of
// the review's service and provider, all in one transaction.
func (s *ReviewService) mutate(ctx context.Context, op, reviewID string, change func(tx Store, rv model.Review) error) (err error) {
	ctx, span := startSpan(ctx, op, attribute.String("review_id", reviewID))
	defer func() { endSpan(span, err) }()

	return s.store.WithTx(ctx, func(tx Store) error {
		rv, err := tx.Reviews().Get(ctx, reviewID)
		if err != nil {
			return lookup("review", err)
		}
		if err := tx.Providers().Lock(ctx, rv.ProviderID); err != nil {
			return err
		}
		if err := change(tx, rv); err != nil {
			return err
		}
		_, err = recomputeRatings(ctx, tx, rv.ServiceID, rv.ProviderID, s.clock())
		return err
	})
}

// Reply attaches the provider's answer to a review of one of their
// services.  A review takes one reply.
func (s *ReviewService) Reply(ctx context.Context, actor Actor, reviewID, reply string) (model.Review, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return model.Review{}, ValidationError{Field: "reply", Msg: "required"}
	}
	rv, err := s.store.Reviews().Get(ctx, reviewID)
	if err != nil {
		return rv, lookup("review", err)
	}
	if rv.ProviderID != actor.UserID {
		return model.Review{}, ForbiddenError{Msg: "only the provider can reply to this review"}
	}
	now := s.clock()
	if err := s.store.Reviews().SetReply(ctx, rv.ID, reply, now); err != nil {
		return model.Review{}, conflictAsBusiness(err, "review already has a reply")
	}
	rv.Reply, rv.RepliedAt = &reply, &now
	s.notify.Send(ctx, rv.ClientID, model.CategoryReview, "The provider replied", reply)
	return rv, nil
}

// ListForService pages through the published reviews of a service.
func (s *ReviewService) ListForService(ctx context.Context, serviceID string, page model.PageRequest) (model.Page[model.Review], error) {
	items, total, err := s.store.Reviews().ListByService(ctx, serviceID, model.ReviewPublished, page)
	if err != nil {
		return model.Page[model.Review]{}, err
	}
	return model.NewPage(items, page, total), nil
}

// ListFlagged pages through reviews awaiting moderation.  Admin only.
func (s *ReviewService) ListFlagged(ctx context.Context, actor Actor, page model.PageRequest) (model.Page[model.Review], error) {
	if !actor.IsAdmin() {
		return model.Page[model.Review]{}, ForbiddenError{Msg: "admin role required"}
	}
	items, total, err := s.store.Reviews().ListFlagged(ctx, page)
	if err != nil {
		return model.Page[model.Review]{}, err
	}
	return model.NewPage(items, page, total), nil
}

// RecomputeServiceRating refreshes the aggregates of a service and its
// provider on demand.
func (s *ReviewService) RecomputeServiceRating(ctx context.Context, serviceID string) (snap RatingSnapshot, err error) {
	err = s.store.WithTx(ctx, func(tx Store) error {
		svc, err := tx.Services().Get(ctx, serviceID)
		if err != nil {
			return lookup("service", err)
		}
		if err := tx.Providers().Lock(ctx, svc.ProviderID); err != nil {
			return err
		}
		snap, err = recomputeRatings(ctx, tx, svc.ID, svc.ProviderID, s.clock())
		return err
	})
	return snap, err
}
