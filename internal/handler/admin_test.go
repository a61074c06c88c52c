package handler

import (
    "context"
    "net/http"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/sports-marketplace/internal/model"
    "github.com/iliyamo/sports-marketplace/internal/scheduler"
)

type fakeExpirer struct {
    Bookings
    calls int
}

func (f *fakeExpirer) ExpireStale(context.Context) (int, error) {
    f.calls++
    return 3, nil
}

type fakeReports struct {
    Reports
}

func (fakeReports) Generate(context.Context) (model.KPIReport, error) {
    return model.KPIReport{ID: "kpi-1"}, nil
}

func TestAdminJobTriggers(t *testing.T) {
    bookings := &fakeExpirer{}
    sched := scheduler.NewScheduler(zap.NewNop(), nil, nil, time.Minute)
    started := make(chan struct{})
    unblock := make(chan struct{})
    sched.Add(scheduler.Job{Name: scheduler.ExpirePendingJob, Interval: time.Hour, Run: func(context.Context) error {
        close(started)
        <-unblock
        return nil
    }})
    sched.Add(scheduler.KPIReport(fakeReports{}, time.Hour))

    h := NewAdminHandler(nil, bookings, fakeReports{}, sched)
    e := newEcho()
    e.POST("/expire", h.ExpirePending)
    e.POST("/reports", h.GenerateReport)

    done := make(chan struct{})
    go func() {
        defer close(done)
        _, _ = sched.RunNow(context.Background(), scheduler.ExpirePendingJob)
    }()
    <-started

    rec := do(e, http.MethodPost, "/expire", "", "")
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Equal(t, "job already running", decode[map[string]string](t, rec)["error"])
    assert.Equal(t, 0, bookings.calls)

    close(unblock)
    <-done

    rec = do(e, http.MethodPost, "/expire", "", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, 3, decode[map[string]int](t, rec)["expired"])
    assert.Equal(t, 1, bookings.calls)

    rec = do(e, http.MethodPost, "/reports", "", "")
    require.Equal(t, http.StatusCreated, rec.Code)
    assert.Equal(t, "kpi-1", decode[map[string]any](t, rec)["id"])
}
