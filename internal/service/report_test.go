package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sports-marketplace/internal/metrics"
	"github.com/iliyamo/sports-marketplace/internal/model"
)

func TestGenerateReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addSlot("slot-1", "svc-1", 10, 5)
	res := f.paidConfirmed(t, 10)
	f.book(t, client2, "svc-1", 10)
	_, err := f.refunds.Request(ctx, client, res.ID, "sick")
	require.NoError(t, err)

	d := f.deps
	d.Metrics = metrics.New(prometheus.NewRegistry())
	reports := NewReportService(d)

	rep, err := reports.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.TotalReservations)
	assert.Equal(t, 1, rep.ReservationsByStatus[model.ReservationCancelled])
	assert.Equal(t, 1, rep.ReservationsByStatus[model.ReservationPending])
	assert.Equal(t, int64(100000), rep.ApprovedRevenueCents)
	assert.Equal(t, 1, rep.OpenRefundRequests)
	assert.Equal(t, 1, rep.PublishedServices)
	assert.Equal(t, 2, rep.Providers)
	assert.Equal(t, baseTime, rep.GeneratedAt)

	latest, err := reports.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, rep.ID, latest.ID)
}

func TestGenerateReportSurvivesFailingFigure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.failReport["reservations_by_status"] = errors.New("timeout")
	f.store.failReport["payment_total"] = errors.New("timeout")
	reports := NewReportService(f.deps)

	_, err := reports.Latest(ctx)
	assert.True(t, IsNotFound(err))

	rep, err := reports.Generate(ctx)
	require.NoError(t, err)
	assert.NotNil(t, rep.ReservationsByStatus)
	assert.Equal(t, 0, rep.TotalReservations)
	assert.Equal(t, 1, rep.PublishedServices)
	assert.Len(t, f.store.reports, 1)
}

func TestNotificationInbox(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.notifications["n1"] = model.Notification{ID: "n1", UserID: client.UserID, Title: "a", CreatedAt: baseTime}
	f.store.notifications["n2"] = model.Notification{ID: "n2", UserID: client.UserID, Title: "b", CreatedAt: baseTime, Read: true}
	inbox := NewNotificationService(f.deps)

	page, err := inbox.List(ctx, client, true, model.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	assert.True(t, IsNotFound(inbox.MarkRead(ctx, client2, "n1")))
	require.NoError(t, inbox.MarkRead(ctx, client, "n1"))
	page, err = inbox.List(ctx, client, true, model.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
}
