package notify

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/sports-marketplace/internal/metrics"
    "github.com/iliyamo/sports-marketplace/internal/model"
    "github.com/iliyamo/sports-marketplace/internal/queue"
    "github.com/iliyamo/sports-marketplace/internal/repository"
)

// ErrMalformed marks a message that can never be processed.  It is
// dropped; every other failure is requeued.
var ErrMalformed = errors.New("malformed notification")

// NotificationWriter persists in-app notifications.
type NotificationWriter interface {
    Create(ctx context.Context, n *model.Notification) error
}

// UserLookup resolves the email address of a notification's recipient.
type UserLookup interface {
    GetByID(ctx context.Context, id string) (model.User, error)
}

// Consumer reads the notifications queue.  Every message is stored as an
// in-app notification and mirrored to the user's email address.
type Consumer struct {
    url     string
    store   NotificationWriter
    users   UserLookup
    email   EmailSender
    log     *zap.Logger
    metrics *metrics.Metrics
    // retryDelay paces redelivery of messages that failed transiently.
    retryDelay time.Duration
}

func NewConsumer(url string, store NotificationWriter, users UserLookup, email EmailSender, log *zap.Logger, m *metrics.Metrics) *Consumer {
    if log == nil {
        log = zap.NewNop()
    }
    return &Consumer{url: url, store: store, users: users, email: email, log: log, metrics: m, retryDelay: time.Second}
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broken
// connections are redialled with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("notification consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.Warn("notification consumer: consume loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn("notification consumer: set QoS failed", zap.Error(err))
    }
    if err := declareQueue(ch); err != nil {
        return err
    }
    msgs, err := ch.Consume(queue.NotificationsQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            c.settle(ctx, d)
        }
    }
}

// settle handles one delivery and acks it, drops it when malformed, or
// requeues it after retryDelay.
func (c *Consumer) settle(ctx context.Context, d amqp.Delivery) {
    err := c.Handle(ctx, d.Body)
    switch {
    case err == nil:
        _ = d.Ack(false)
    case errors.Is(err, ErrMalformed):
        c.log.Error("notification consumer: dropping malformed message", zap.Error(err))
        c.metrics.Notification("malformed")
        _ = d.Nack(false, false)
    default:
        c.log.Warn("notification consumer: handle failed, requeueing", zap.Error(err), zap.Bool("redelivered", d.Redelivered))
        sleep(ctx, c.retryDelay)
        _ = d.Nack(false, true)
    }
}

// Handle processes one message body.  Undecodable or incomplete bodies
// fail with ErrMalformed.  A redelivered message that was already stored
// succeeds without a second email.  Email problems are logged and do not
// fail the message.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
    var ev queue.NotificationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("%w: %v", ErrMalformed, err)
    }
    if ev.ID == "" || ev.UserID == "" {
        return fmt.Errorf("%w: missing id or user_id", ErrMalformed)
    }
    created, err := time.Parse(time.RFC3339, ev.CreatedAt)
    if err != nil {
        created = time.Now().UTC()
    }

    n := &model.Notification{
        ID:        ev.ID,
        UserID:    ev.UserID,
        Category:  model.NotificationCategory(ev.Category),
        Title:     ev.Title,
        Body:      ev.Body,
        CreatedAt: created,
    }
    err = c.store.Create(ctx, n)
    if errors.Is(err, repository.ErrDuplicate) {
        c.log.Debug("notification already stored", zap.String("id", ev.ID))
        return nil
    }
    if err != nil {
        return fmt.Errorf("store notification: %w", err)
    }
    c.metrics.Notification("delivered")

    if c.email == nil || c.users == nil {
        return nil
    }
    u, err := c.users.GetByID(ctx, ev.UserID)
    if err != nil {
        c.log.Warn("notification email skipped: user lookup failed", zap.String("user_id", ev.UserID), zap.Error(err))
        return nil
    }
    msg := EmailMessage{To: u.Email, ToName: u.Name, Subject: ev.Title, Body: ev.Body}
    if err := c.email.Send(ctx, msg); err != nil {
        c.metrics.Notification("email_failed")
        c.log.Warn("notification email failed", zap.String("user_id", ev.UserID), zap.Error(err))
    }
    return nil
}

// sleep waits for d or until ctx is done; false means ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-t.C:
        return true
    case <-ctx.Done():
        return false
    }
}
