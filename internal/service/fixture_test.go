package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sports-marketplace/internal/model"
)

var baseTime = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type sent struct {
	UserID   string
	Category model.NotificationCategory
	Title    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
}

func (r *recordingNotifier) Send(_ context.Context, userID string, category model.NotificationCategory, title, _ string) {
	r.mu.Lock()
	r.sent = append(r.sent, sent{UserID: userID, Category: category, Title: title})
	r.mu.Unlock()
}

func (r *recordingNotifier) titlesFor(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.sent {
		if s.UserID == userID {
			out = append(out, s.Title)
		}
	}
	return out
}

var (
	client   = Actor{UserID: "client-1", Role: model.RoleClient}
	client2  = Actor{UserID: "client-2", Role: model.RoleClient}
	provider = Actor{UserID: "prov-1", Role: model.RoleProvider}
	other    = Actor{UserID: "prov-2", Role: model.RoleProvider}
	admin    = Actor{UserID: "admin-1", Role: model.RoleAdmin}
)

type fixture struct {
	store    *memStore
	clock    *fakeClock
	notifier *recordingNotifier
	deps     Deps

	booking  *BookingService
	payments *PaymentService
	refunds  *RefundService
	reviews  *ReviewService
	catalog  *CatalogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newMemStore()
	clk := &fakeClock{t: baseTime}
	n := &recordingNotifier{}
	var seq int64
	d := Deps{
		Store:    st,
		Notifier: n,
		Now:      clk.Now,
		NewID:    func() string { return fmt.Sprintf("id-%d", atomic.AddInt64(&seq, 1)) },
	}
	f := &fixture{
		store: st, clock: clk, notifier: n, deps: d,
		booking:  NewBookingService(d, 48*time.Hour),
		payments: NewPaymentService(d, SimulatedGateway{}),
		refunds:  NewRefundService(d),
		reviews:  NewReviewService(d),
		catalog:  NewCatalogService(d),
	}
	for _, p := range []string{provider.UserID, other.UserID} {
		st.providers[p] = model.Provider{ID: p, DisplayName: p, CreatedAt: baseTime}
	}
	f.addService("svc-1", provider.UserID, 100000)
	return f
}

func (f *fixture) addService(id, providerID string, price int64) {
	f.store.services[id] = model.Service{
		ID: id, ProviderID: providerID, Name: "Court " + id, Category: "tennis",
		PriceCents: price, Status: model.ServicePublished, CreatedAt: baseTime,
	}
}

// addSlot opens a 09:00-11:00 slot daysOut days after baseTime.
func (f *fixture) addSlot(id, serviceID string, daysOut, capacity int) {
	f.store.slots[id] = model.AvailabilitySlot{
		ID: id, ServiceID: serviceID, Date: model.TruncateDay(baseTime).AddDate(0, 0, daysOut),
		StartTime: "09:00", EndTime: "11:00", Capacity: capacity, Remaining: capacity,
	}
}

func (f *fixture) book(t *testing.T, who Actor, serviceID string, daysOut int) model.Reservation {
	t.Helper()
	res, err := f.booking.Create(context.Background(), who, CreateReservationInput{
		ServiceID: serviceID,
		Date:      model.TruncateDay(f.clock.Now()).AddDate(0, 0, daysOut),
		Time:      "10:00",
	})
	require.NoError(t, err)
	return res
}

// paidConfirmed books, pays and confirms a reservation daysOut days ahead.
func (f *fixture) paidConfirmed(t *testing.T, daysOut int) model.Reservation {
	t.Helper()
	ctx := context.Background()
	res := f.book(t, client, "svc-1", daysOut)
	_, err := f.payments.Pay(ctx, client, res.ID, PayInput{Method: "card", Token: "tok_visa"})
	require.NoError(t, err)
	res, err = f.booking.Confirm(ctx, provider, res.ID)
	require.NoError(t, err)
	return res
}

func (f *fixture) reservation(t *testing.T, id string) model.Reservation {
	t.Helper()
	res, err := f.store.Reservations().Get(context.Background(), id)
	require.NoError(t, err)
	return res
}
