package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/sports-marketplace/internal/model"
	"github.com/iliyamo/sports-marketplace/internal/repository"
)

// memStore is an in-memory Store.  WithTx runs one transaction at a time
// and restores a snapshot when fn fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users         map[string]model.User
	providers     map[string]model.Provider
	services      map[string]model.Service
	slots         map[string]model.AvailabilitySlot
	reservations  map[string]model.Reservation
	payments      map[string]model.Payment
	refunds       map[string]model.RefundRequest
	reviews       map[string]model.Review
	notifications map[string]model.Notification
	reports       []model.KPIReport

	// failTransition makes Reservations().Transition fail for an id.
	failTransition map[string]error
	// failReport makes a report figure query fail by name.
	failReport map[string]error
	// afterStaleList runs once ListStalePending has built its result.
	afterStaleList func()
}

func newMemStore() *memStore {
	return &memStore{
		users:          map[string]model.User{},
		providers:      map[string]model.Provider{},
		services:       map[string]model.Service{},
		slots:          map[string]model.AvailabilitySlot{},
		reservations:   map[string]model.Reservation{},
		payments:       map[string]model.Payment{},
		refunds:        map[string]model.RefundRequest{},
		reviews:        map[string]model.Review{},
		notifications:  map[string]model.Notification{},
		failTransition: map[string]error{},
		failReport:     map[string]error{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type memSnapshot struct {
	users         map[string]model.User
	providers     map[string]model.Provider
	services      map[string]model.Service
	slots         map[string]model.AvailabilitySlot
	reservations  map[string]model.Reservation
	payments      map[string]model.Payment
	refunds       map[string]model.RefundRequest
	reviews       map[string]model.Review
	notifications map[string]model.Notification
	reports       []model.KPIReport
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memSnapshot{
		users: cloneMap(m.users), providers: cloneMap(m.providers), services: cloneMap(m.services),
		slots: cloneMap(m.slots), reservations: cloneMap(m.reservations), payments: cloneMap(m.payments),
		refunds: cloneMap(m.refunds), reviews: cloneMap(m.reviews), notifications: cloneMap(m.notifications),
		reports: append([]model.KPIReport(nil), m.reports...),
	}
}

func (m *memStore) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users, m.providers, m.services, m.slots = s.users, s.providers, s.services, s.slots
	m.reservations, m.payments, m.refunds, m.reviews = s.reservations, s.payments, s.refunds, s.reviews
	m.notifications, m.reports = s.notifications, s.reports
}

func (m *memStore) WithTx(_ context.Context, fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	snap := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) Users() UserStore                 { return memUsers{m} }
func (m *memStore) Providers() ProviderStore         { return memProviders{m} }
func (m *memStore) Services() ServiceStore           { return memServices{m} }
func (m *memStore) Slots() SlotStore                 { return memSlots{m} }
func (m *memStore) Reservations() ReservationStore   { return memReservations{m} }
func (m *memStore) Payments() PaymentStore           { return memPayments{m} }
func (m *memStore) Refunds() RefundStore             { return memRefunds{m} }
func (m *memStore) Reviews() ReviewStore             { return memReviews{m} }
func (m *memStore) Notifications() NotificationStore { return memNotifications{m} }
func (m *memStore) Reports() ReportStore             { return memReports{m} }

func paginate[T any](items []T, page model.PageRequest) []T {
	page = page.Normalize()
	off := page.Offset()
	if off >= len(items) {
		return []T{}
	}
	end := off + page.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[off:end]
}

// ---- users ----

type memUsers struct{ m *memStore }

func (s memUsers) Create(_ context.Context, u *model.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u.Email = repository.NormalizeEmail(u.Email)
	for _, other := range s.m.users {
		if other.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	s.m.users[u.ID] = *u
	return nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	email = repository.NormalizeEmail(email)
	for _, u := range s.m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s memUsers) GetByID(_ context.Context, id string) (model.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	u, ok := s.m.users[id]
	if !ok {
		return u, repository.ErrNotFound
	}
	return u, nil
}

// ---- providers ----

type memProviders struct{ m *memStore }

func (s memProviders) Create(_ context.Context, p *model.Provider) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.providers[p.ID] = *p
	return nil
}

func (s memProviders) Get(_ context.Context, id string) (model.Provider, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.providers[id]
	if !ok {
		return p, repository.ErrNotFound
	}
	return p, nil
}

// Lock only checks existence; WithTx already serializes transactions.
func (s memProviders) Lock(ctx context.Context, id string) error {
	_, err := s.Get(ctx, id)
	return err
}

func (s memProviders) update(id string, fn func(*model.Provider)) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.providers[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&p)
	s.m.providers[id] = p
	return nil
}

func (s memProviders) SetRating(_ context.Context, id string, rating float64, at time.Time) error {
	return s.update(id, func(p *model.Provider) { p.Rating, p.UpdatedAt = rating, at })
}

func (s memProviders) SetPublishedServices(_ context.Context, id string, n int, at time.Time) error {
	return s.update(id, func(p *model.Provider) { p.PublishedServices, p.UpdatedAt = n, at })
}

func (s memProviders) IncrementCompleted(_ context.Context, id string, at time.Time) error {
	return s.update(id, func(p *model.Provider) { p.CompletedReservations++; p.UpdatedAt = at })
}

// ---- services ----

type memServices struct{ m *memStore }

func (s memServices) Create(_ context.Context, svc *model.Service) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.services[svc.ID] = *svc
	return nil
}

func (s memServices) Get(_ context.Context, id string) (model.Service, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	svc, ok := s.m.services[id]
	if !ok {
		return svc, repository.ErrNotFound
	}
	return svc, nil
}

func (s memServices) Update(_ context.Context, svc *model.Service) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	cur, ok := s.m.services[svc.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name, cur.Description, cur.Category, cur.PriceCents = svc.Name, svc.Description, svc.Category, svc.PriceCents
	cur.Status, cur.UpdatedAt = svc.Status, svc.UpdatedAt
	s.m.services[svc.ID] = cur
	return nil
}

func (s memServices) SetRating(_ context.Context, id string, rating float64, count int, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	svc, ok := s.m.services[id]
	if !ok {
		return nil
	}
	svc.Rating, svc.ReviewCount, svc.UpdatedAt = rating, count, at
	s.m.services[id] = svc
	return nil
}

func (s memServices) CountPublishedByProvider(_ context.Context, providerID string) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	n := 0
	for _, svc := range s.m.services {
		if svc.ProviderID == providerID && svc.Status == model.ServicePublished {
			n++
		}
	}
	return n, nil
}

func (s memServices) List(_ context.Context, f repository.ServiceFilter, page model.PageRequest) ([]model.Service, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.Service
	for _, svc := range s.m.services {
		switch {
		case f.Category != "" && svc.Category != f.Category,
			f.ProviderID != "" && svc.ProviderID != f.ProviderID,
			f.Status != "" && svc.Status != f.Status,
			f.Status == "" && svc.Status == model.ServiceDeleted:
			continue
		}
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Name < out[j].Name
	})
	return paginate(out, page), len(out), nil
}

// ---- slots ----

type memSlots struct{ m *memStore }

func (s memSlots) Create(_ context.Context, sl *model.AvailabilitySlot) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.slots[sl.ID] = *sl
	return nil
}

func (s memSlots) Get(_ context.Context, id string) (model.AvailabilitySlot, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sl, ok := s.m.slots[id]
	if !ok {
		return sl, repository.ErrNotFound
	}
	return sl, nil
}

func (s memSlots) FindCovering(_ context.Context, serviceID string, date time.Time, clock string) (model.AvailabilitySlot, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var found []model.AvailabilitySlot
	for _, sl := range s.m.slots {
		if sl.ServiceID == serviceID && sl.Date.Equal(model.TruncateDay(date)) && sl.Contains(clock) {
			found = append(found, sl)
		}
	}
	if len(found) == 0 {
		return model.AvailabilitySlot{}, repository.ErrNotFound
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].Open() != found[j].Open() {
			return found[i].Open()
		}
		return found[i].StartTime < found[j].StartTime
	})
	return found[0], nil
}

func (s memSlots) Decrement(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sl, ok := s.m.slots[id]
	if !ok || sl.Remaining <= 0 {
		return repository.ErrConflict
	}
	sl.Remaining--
	s.m.slots[id] = sl
	return nil
}

func (s memSlots) ListByService(_ context.Context, serviceID string, from time.Time) ([]model.AvailabilitySlot, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.AvailabilitySlot
	for _, sl := range s.m.slots {
		if sl.ServiceID == serviceID && !sl.Date.Before(from) {
			out = append(out, sl)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

// ---- reservations ----

type memReservations struct{ m *memStore }

func (s memReservations) Create(_ context.Context, r *model.Reservation) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.reservations[r.ID] = *r
	return nil
}

func (s memReservations) Get(_ context.Context, id string) (model.Reservation, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.reservations[id]
	if !ok {
		return r, repository.ErrNotFound
	}
	return r, nil
}

func (s memReservations) GetForUpdate(ctx context.Context, id string) (model.Reservation, error) {
	return s.Get(ctx, id)
}

func (s memReservations) Transition(_ context.Context, id string, from, to model.ReservationStatus, reason *string, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.failTransition[id]; err != nil {
		return err
	}
	r, ok := s.m.reservations[id]
	if !ok || r.Status != from {
		return repository.ErrConflict
	}
	r.Status, r.UpdatedAt = to, at
	if reason != nil {
		r.CancelReason = reason
	}
	s.m.reservations[id] = r
	return nil
}

func (s memReservations) list(match func(model.Reservation) bool, page model.PageRequest) ([]model.Reservation, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.Reservation
	for _, r := range s.m.reservations {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, page), len(out), nil
}

func (s memReservations) ListByClient(_ context.Context, clientID string, status model.ReservationStatus, page model.PageRequest) ([]model.Reservation, int, error) {
	return s.list(func(r model.Reservation) bool {
		return r.ClientID == clientID && (status == "" || r.Status == status)
	}, page)
}

func (s memReservations) ListByProvider(_ context.Context, providerID string, status model.ReservationStatus, page model.PageRequest) ([]model.Reservation, int, error) {
	return s.list(func(r model.Reservation) bool {
		return r.ProviderID == providerID && (status == "" || r.Status == status)
	}, page)
}

func (s memReservations) ListStalePending(_ context.Context, cutoff time.Time, limit int) ([]model.Reservation, error) {
	out := s.stalePending(cutoff, limit)
	if s.m.afterStaleList != nil {
		s.m.afterStaleList()
	}
	return out, nil
}

func (s memReservations) stalePending(cutoff time.Time, limit int) []model.Reservation {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	paid := map[string]bool{}
	for _, p := range s.m.payments {
		if p.Status != model.PaymentRejected {
			paid[p.ReservationID] = true
		}
	}
	var out []model.Reservation
	for _, r := range s.m.reservations {
		if r.Status == model.ReservationPending && r.CreatedAt.Before(cutoff) && !paid[r.ID] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ---- payments ----

type memPayments struct{ m *memStore }

func (s memPayments) Save(_ context.Context, p *model.Payment) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, other := range s.m.payments {
		if other.ReservationID == p.ReservationID && id != p.ID {
			return repository.ErrDuplicate
		}
	}
	s.m.payments[p.ID] = *p
	return nil
}

func (s memPayments) Get(_ context.Context, id string) (model.Payment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.payments[id]
	if !ok {
		return p, repository.ErrNotFound
	}
	return p, nil
}

func (s memPayments) GetByReservation(_ context.Context, reservationID string) (model.Payment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, p := range s.m.payments {
		if p.ReservationID == reservationID {
			return p, nil
		}
	}
	return model.Payment{}, repository.ErrNotFound
}

func (s memPayments) Transition(_ context.Context, id string, from, to model.PaymentStatus, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	p, ok := s.m.payments[id]
	if !ok || p.Status != from {
		return repository.ErrConflict
	}
	p.Status, p.UpdatedAt = to, at
	s.m.payments[id] = p
	return nil
}

// ---- refunds ----

type memRefunds struct{ m *memStore }

func (s memRefunds) Create(_ context.Context, r *model.RefundRequest) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, other := range s.m.refunds {
		if other.ReservationID == r.ReservationID {
			return repository.ErrDuplicate
		}
	}
	s.m.refunds[r.ID] = *r
	return nil
}

func (s memRefunds) Get(_ context.Context, id string) (model.RefundRequest, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.refunds[id]
	if !ok {
		return r, repository.ErrNotFound
	}
	return r, nil
}

func (s memRefunds) ExistsForReservation(_ context.Context, reservationID string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, r := range s.m.refunds {
		if r.ReservationID == reservationID {
			return true, nil
		}
	}
	return false, nil
}

func (s memRefunds) Resolve(_ context.Context, id string, to model.RefundStatus, notes *string, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.refunds[id]
	if !ok || r.Status != model.RefundRequested {
		return repository.ErrConflict
	}
	r.Status, r.AdminNotes, r.ResolvedAt = to, notes, &at
	s.m.refunds[id] = r
	return nil
}

func (s memRefunds) List(_ context.Context, f repository.RefundFilter, page model.PageRequest) ([]model.RefundRequest, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.RefundRequest
	for _, r := range s.m.refunds {
		if (f.ClientID == "" || r.ClientID == f.ClientID) && (f.Status == "" || r.Status == f.Status) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), len(out), nil
}

// ---- reviews ----

type memReviews struct{ m *memStore }

func (s memReviews) Create(_ context.Context, r *model.Review) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, other := range s.m.reviews {
		if other.ReservationID == r.ReservationID {
			return repository.ErrDuplicate
		}
	}
	s.m.reviews[r.ID] = *r
	return nil
}

func (s memReviews) Get(_ context.Context, id string) (model.Review, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.reviews[id]
	if !ok {
		return r, repository.ErrNotFound
	}
	return r, nil
}

func (s memReviews) ExistsForReservation(_ context.Context, reservationID string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, r := range s.m.reviews {
		if r.ReservationID == reservationID {
			return true, nil
		}
	}
	return false, nil
}

func (s memReviews) Delete(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.m.reviews, id)
	return nil
}

func (s memReviews) SetReply(_ context.Context, id, reply string, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.reviews[id]
	if !ok || r.Reply != nil {
		return repository.ErrConflict
	}
	r.Reply, r.RepliedAt = &reply, &at
	s.m.reviews[id] = r
	return nil
}

func (s memReviews) Flag(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.reviews[id]
	if !ok || r.Flagged {
		return repository.ErrConflict
	}
	r.Flagged, r.State = true, model.ReviewUnderReview
	s.m.reviews[id] = r
	return nil
}

func (s memReviews) Restore(_ context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.reviews[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Flagged, r.State = false, model.ReviewPublished
	s.m.reviews[id] = r
	return nil
}

func (s memReviews) stats(match func(model.Review) bool) repository.RatingStats {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var st repository.RatingStats
	for _, r := range s.m.reviews {
		if r.State == model.ReviewPublished && match(r) {
			st.Sum += r.Rating
			st.Count++
		}
	}
	return st
}

func (s memReviews) ServiceStats(_ context.Context, serviceID string) (repository.RatingStats, error) {
	return s.stats(func(r model.Review) bool { return r.ServiceID == serviceID }), nil
}

func (s memReviews) ProviderStats(_ context.Context, providerID string) (repository.RatingStats, error) {
	return s.stats(func(r model.Review) bool { return r.ProviderID == providerID }), nil
}

func (s memReviews) list(match func(model.Review) bool, page model.PageRequest) ([]model.Review, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.Review
	for _, r := range s.m.reviews {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), len(out), nil
}

func (s memReviews) ListByService(_ context.Context, serviceID string, state model.ReviewState, page model.PageRequest) ([]model.Review, int, error) {
	return s.list(func(r model.Review) bool { return r.ServiceID == serviceID && r.State == state }, page)
}

func (s memReviews) ListFlagged(_ context.Context, page model.PageRequest) ([]model.Review, int, error) {
	return s.list(func(r model.Review) bool { return r.Flagged }, page)
}

// ---- notifications ----

type memNotifications struct{ m *memStore }

func (s memNotifications) ListByUser(_ context.Context, userID string, unreadOnly bool, page model.PageRequest) ([]model.Notification, int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []model.Notification
	for _, n := range s.m.notifications {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), len(out), nil
}

func (s memNotifications) MarkRead(_ context.Context, id, userID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	n, ok := s.m.notifications[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	n.Read = true
	s.m.notifications[id] = n
	return nil
}

// ---- reports ----

type memReports struct{ m *memStore }

func (s memReports) fail(name string) error {
	return s.m.failReport[name]
}

func (s memReports) ReservationsByStatus(_ context.Context) (map[model.ReservationStatus]int, error) {
	if err := s.fail("reservations_by_status"); err != nil {
		return nil, err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := map[model.ReservationStatus]int{}
	for _, r := range s.m.reservations {
		out[r.Status]++
	}
	return out, nil
}

func (s memReports) PaymentTotal(_ context.Context, status model.PaymentStatus) (int64, error) {
	if err := s.fail("payment_total"); err != nil {
		return 0, err
	}
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var total int64
	for _, p := range s.m.payments {
		if p.Status == status {
			total += p.AmountCents
		}
	}
	return total, nil
}

func (s memReports) RefundTotal(_ context.Context, status model.RefundStatus) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var total int64
	for _, r := range s.m.refunds {
		if r.Status == status {
			total += r.AmountCents
		}
	}
	return total, nil
}

func (s memReports) RefundCount(_ context.Context, status model.RefundStatus) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	n := 0
	for _, r := range s.m.refunds {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func (s memReports) ServiceCount(_ context.Context, status model.ServiceStatus) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	n := 0
	for _, svc := range s.m.services {
		if svc.Status == status {
			n++
		}
	}
	return n, nil
}

func (s memReports) ProviderCount(_ context.Context) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return len(s.m.providers), nil
}

func (s memReports) AverageServiceRating(_ context.Context) (float64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var sum float64
	n := 0
	for _, svc := range s.m.services {
		if svc.Status == model.ServicePublished && svc.ReviewCount > 0 {
			sum += svc.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

func (s memReports) Save(_ context.Context, r *model.KPIReport) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.reports = append(s.m.reports, *r)
	return nil
}

func (s memReports) Latest(_ context.Context) (model.KPIReport, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if len(s.m.reports) == 0 {
		return model.KPIReport{}, repository.ErrNotFound
	}
	return s.m.reports[len(s.m.reports)-1], nil
}
