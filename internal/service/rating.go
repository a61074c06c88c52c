package service

import (
	"context"
	"time"

	"github.com/iliyamo/sports-marketplace/internal/repository"
)

// MeanRating is sum/count rounded half up to two decimals, or 0 when
// count is 0.  Integer arithmetic keeps x.xx5 boundaries exact.
func MeanRating(sum, count int) float64 {
	if count <= 0 {
		return 0
	}
	hundredths := (int64(sum)*200 + int64(count)) / (2 * int64(count))
	return float64(hundredths) / 100
}

// RatingSnapshot is the outcome of a recompute.
type RatingSnapshot struct {
	ServiceRating  float64
	ReviewCount    int
	ProviderRating float64
}

// recomputeRatings refreshes the cached aggregate of a service from its
// PUBLISHED reviews, then the aggregate of the service's provider across
// all of its services.  It must run in the transaction that changed the
// reviews, after that transaction took the provider lock, so concurrent
// review writes for one provider recompute one after another.
func recomputeRatings(ctx context.Context, tx Store, serviceID, providerID string, at time.Time) (RatingSnapshot, error) {
	var snap RatingSnapshot
	st, err := tx.Reviews().ServiceStats(ctx, serviceID)
	if err != nil {
		return snap, err
	}
	snap.ServiceRating, snap.ReviewCount = MeanRating(st.Sum, st.Count), st.Count
	if err := tx.Services().SetRating(ctx, serviceID, snap.ServiceRating, snap.ReviewCount, at); err != nil {
		return snap, err
	}

	var pst repository.RatingStats
	if pst, err = tx.Reviews().ProviderStats(ctx, providerID); err != nil {
		return snap, err
	}
	snap.ProviderRating = MeanRating(pst.Sum, pst.Count)
	if err := tx.Providers().SetRating(ctx, providerID, snap.ProviderRating, at); err != nil {
		return snap, err
	}
	return snap, nil
}
