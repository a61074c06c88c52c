// Package service holds the marketplace business rules: the reservation
// lifecycle, payments, the refund policy, reviews with their rating
// aggregates, the service catalog and KPI reporting.  Every operation
// takes the calling Actor and checks its authority explicitly.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/iliyamo/sports-marketplace/internal/metrics"
	"github.com/iliyamo/sports-marketplace/internal/model"
)

var tracer = otel.Tracer("sports-marketplace/internal/service")

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   model.Role
}

func (a Actor) IsAdmin() bool    { return a.Role == model.RoleAdmin }
func (a Actor) IsProvider() bool { return a.Role == model.RoleProvider }
func (a Actor) IsClient() bool   { return a.Role == model.RoleClient }

// Deps are the collaborators shared by every service.  Zero fields get
// defaults: a no-op logger and notifier, time.Now and uuid.NewString.
type Deps struct {
	Store    Store
	Notifier Notifier
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time
	NewID    func() string
}

type base struct {
	store   Store
	notify  Notifier
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

func newBase(d Deps) base {
	b := base{store: d.Store, notify: d.Notifier, log: d.Log, metrics: d.Metrics, now: d.Now, newID: d.NewID}
	if b.notify == nil {
		b.notify = nopNotifier{}
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.newID == nil {
		b.newID = uuid.NewString
	}
	return b
}

// clock returns the current time truncated to the second in UTC, the
// precision MySQL DATETIME keeps.
func (b base) clock() time.Time {
	return b.now().UTC().Truncate(time.Second)
}

type nopNotifier struct{}

func (nopNotifier) Send(context.Context, string, model.NotificationCategory, string, string) {}

// note is a notification held back until its transaction commits.
type note struct {
	userID   string
	category model.NotificationCategory
	title    string
	body     string
}

type outbox []note

func (o *outbox) add(userID string, category model.NotificationCategory, title, body string) {
	*o = append(*o, note{userID: userID, category: category, title: title, body: body})
}

func (b base) flush(ctx context.Context, o outbox) {
	for _, n := range o {
		b.notify.Send(ctx, n.userID, n.category, n.title, n.body)
	}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(attrs...)
	return ctx, span
}

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
