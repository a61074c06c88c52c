// Package notify delivers user notifications.  Producers hand messages to
// a Dispatcher, which publishes them to RabbitMQ without blocking the
// caller; a Consumer reads them back, stores the in-app copy and emails
// the user.
package notify

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/sports-marketplace/internal/queue"
)

// Publisher sends a notification event to the broker.
type Publisher interface {
    Publish(ctx context.Context, ev queue.NotificationEvent) error
}

// AMQPPublisher publishes to the durable notifications queue.  The
// connection is opened lazily and dropped after any publish failure so
// the next call redials.
type AMQPPublisher struct {
    url string
    log *zap.Logger

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

func NewAMQPPublisher(url string, log *zap.Logger) *AMQPPublisher {
    if log == nil {
        log = zap.NewNop()
    }
    return &AMQPPublisher{url: url, log: log}
}

// Publish marshals ev and publishes it as a persistent message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.NotificationEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    ev.ID,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",                       // default exchange
        queue.NotificationsQueue, // routing key = queue name
        false,                    // mandatory
        false,                    // immediate
        pub,
    ); err != nil {
        p.reset()
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}

// channel returns an open channel, dialing when needed.  Callers hold p.mu.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()

    conn, err := amqp.Dial(p.url)
    if err != nil {
        return nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("channel open: %w", err)
    }
    if err := declareQueue(ch); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    p.log.Info("rabbitmq publisher connected", zap.String("queue", queue.NotificationsQueue))
    return ch, nil
}

func (p *AMQPPublisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.ch, p.conn = nil, nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}

// declareQueue ensures the queue exists.  Durable so messages survive
// broker restarts; declaring is idempotent.
func declareQueue(ch *amqp.Channel) error {
    if _, err := ch.QueueDeclare(
        queue.NotificationsQueue, // name
        true,                     // durable
        false,                    // autoDelete
        false,                    // exclusive
        false,                    // noWait
        nil,                      // args
    ); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    return nil
}

// DirectPublisher hands events to a Consumer in-process.  It stands in
// for the broker when no RABBITMQ_URL is configured.
type DirectPublisher struct {
    consumer *Consumer
}

func NewDirectPublisher(c *Consumer) *DirectPublisher {
    return &DirectPublisher{consumer: c}
}

func (p *DirectPublisher) Publish(ctx context.Context, ev queue.NotificationEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    return p.consumer.Handle(ctx, body)
}
