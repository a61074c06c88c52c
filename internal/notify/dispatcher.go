package notify

import (
    "context"
    "time"

    "github.com/google/uuid"
    "go.uber.org/zap"

    "github.com/iliyamo/sports-marketplace/internal/metrics"
    "github.com/iliyamo/sports-marketplace/internal/model"
    "github.com/iliyamo/sports-marketplace/internal/queue"
)

const publishTimeout = 5 * time.Second

// Dispatcher is the fire-and-forget notifier used by the business
// services.  Send only enqueues onto a bounded buffer; a single worker
// started with Run publishes from it.  When the buffer is full or the
// broker rejects a message, the notification is logged and dropped.
type Dispatcher struct {
    pub     Publisher
    log     *zap.Logger
    metrics *metrics.Metrics
    events  chan queue.NotificationEvent
    now     func() time.Time
}

func NewDispatcher(pub Publisher, log *zap.Logger, m *metrics.Metrics, buffer int) *Dispatcher {
    if log == nil {
        log = zap.NewNop()
    }
    if buffer <= 0 {
        buffer = 256
    }
    return &Dispatcher{
        pub:     pub,
        log:     log,
        metrics: m,
        events:  make(chan queue.NotificationEvent, buffer),
        now:     time.Now,
    }
}

// Send enqueues a notification for userID.  It never blocks.
func (d *Dispatcher) Send(_ context.Context, userID string, category model.NotificationCategory, title, body string) {
    ev := queue.NotificationEvent{
        ID:        uuid.NewString(),
        UserID:    userID,
        Category:  string(category),
        Title:     title,
        Body:      body,
        CreatedAt: d.now().UTC().Format(time.RFC3339),
    }
    select {
    case d.events <- ev:
        d.metrics.Notification("queued")
    default:
        d.metrics.Notification("dropped")
        d.log.Warn("notification buffer full, dropping",
            zap.String("user_id", userID), zap.String("category", ev.Category))
    }
}

// Run publishes queued notifications until ctx is cancelled, then makes
// one last pass over whatever is still buffered.
func (d *Dispatcher) Run(ctx context.Context) {
    for {
        select {
        case ev := <-d.events:
            d.publish(ctx, ev)
        case <-ctx.Done():
            d.drain()
            return
        }
    }
}

func (d *Dispatcher) drain() {
    ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
    defer cancel()
    for {
        select {
        case ev := <-d.events:
            d.publish(ctx, ev)
        default:
            return
        }
    }
}

func (d *Dispatcher) publish(ctx context.Context, ev queue.NotificationEvent) {
    pctx, cancel := context.WithTimeout(ctx, publishTimeout)
    defer cancel()
    if err := d.pub.Publish(pctx, ev); err != nil {
        d.metrics.Notification("failed")
        d.log.Warn("notification publish failed",
            zap.String("user_id", ev.UserID), zap.String("category", ev.Category), zap.Error(err))
        return
    }
    d.metrics.Notification("published")
}
