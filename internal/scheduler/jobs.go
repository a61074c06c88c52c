package scheduler

import (
	"context"
	"time"

	"github.com/iliyamo/sports-marketplace/internal/model"
)

const (
	ExpirePendingJob = "expire-pending"
	KPIReportJob     = "kpi-report"
	PurgeTokensJob   = "purge-tokens"
)

// Expirer cancels stale pending reservations.
type Expirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// Reporter builds and stores a KPI report.
type Reporter interface {
	Generate(ctx context.Context) (model.KPIReport, error)
}

// TokenPurger deletes refresh tokens that can no longer be used.
type TokenPurger interface {
	PurgeStale(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// ExpirePending sweeps stale reservations every interval, starting right
// away so a restart does not leave them waiting a full period.
func ExpirePending(e Expirer, interval time.Duration) Job {
	return Job{
		Name:       ExpirePendingJob,
		Interval:   interval,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			_, err := e.ExpireStale(ctx)
			return err
		},
	}
}

func KPIReport(r Reporter, interval time.Duration) Job {
	return Job{
		Name:     KPIReportJob,
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := r.Generate(ctx)
			return err
		},
	}
}

// purgeBatch caps one DELETE so the purge never holds long locks.
const purgeBatch = 1000

// PurgeTokens removes refresh tokens that expired or were revoked more
// than retain ago, in batches until a batch comes back short.
func PurgeTokens(p TokenPurger, interval, retain time.Duration, now func() time.Time) Job {
	return Job{
		Name:     PurgeTokensJob,
		Interval: interval,
		Run: func(ctx context.Context) error {
			cutoff := now().UTC().Add(-retain)
			for {
				n, err := p.PurgeStale(ctx, cutoff, purgeBatch)
				if err != nil {
					return err
				}
				if n < purgeBatch {
					return nil
				}
			}
		},
	}
}
