package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// LedgerQueue is the durable queue carrying LedgerEvent messages.
const LedgerQueue = "ledger.events"

const (
    defaultDialTimeout = 3 * time.Second
    maxRedialBackoff   = 30 * time.Second
)

// ErrBrokerUnavailable is returned while a dial is in flight or the
// publisher is waiting out its redial backoff.
var ErrBrokerUnavailable = errors.New("rabbitmq unavailable")

// Publisher sends ledger events to RabbitMQ.  The connection is opened on
// first use and reopened after a failure.  A dial is bounded by the
// caller's deadline and by a short timeout, only one dial runs at a time,
// and failed dials back off exponentially; publishes arriving meanwhile
// fail fast with ErrBrokerUnavailable.  Messages are marked persistent.
type Publisher struct {
    url         string
    queue       string
    dialTimeout time.Duration
    log         *zap.Logger

    mu      sync.Mutex
    conn    *amqp.Connection
    ch      *amqp.Channel
    dialing bool
    closed  bool
    backoff time.Duration
    retryAt time.Time
}

// NewPublisher returns a Publisher for url.  No connection is made yet.
func NewPublisher(url string, log *zap.Logger) *Publisher {
    if log == nil {
        log = zap.NewNop()
    }
    return &Publisher{
        url:         url,
        queue:       LedgerQueue,
        dialTimeout: defaultDialTimeout,
        log:         log.Named("rabbitmq"),
    }
}

// Publish marshals ev to JSON and publishes it on the ledger queue using
// the default exchange.  Errors are logged and returned; callers are free
// to ignore them.
func (p *Publisher) Publish(ctx context.Context, ev LedgerEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    ch, err := p.channel(ctx)
    if err != nil {
        p.log.Warn("event dropped", zap.String("type", ev.Type), zap.Error(err))
        return err
    }
    msg := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    ev.ID,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
        p.log.Warn("publish failed", zap.String("type", ev.Type), zap.Error(err))
        p.discard(ch)
        return err
    }
    return nil
}

// channel returns the open channel or dials a new one.  p.mu is never
// held across the dial.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
    p.mu.Lock()
    if p.ch != nil && !p.ch.IsClosed() {
        ch := p.ch
        p.mu.Unlock()
        return ch, nil
    }
    if p.closed || p.dialing || time.Now().Before(p.retryAt) {
        p.mu.Unlock()
        return nil, ErrBrokerUnavailable
    }
    p.dialing = true
    p.resetLocked()
    p.mu.Unlock()

    conn, ch, err := p.connect(ctx)

    p.mu.Lock()
    defer p.mu.Unlock()
    p.dialing = false
    if err != nil {
        p.backoff = nextBackoff(p.backoff)
        p.retryAt = time.Now().Add(p.backoff)
        return nil, err
    }
    if p.closed {
        _ = ch.Close()
        _ = conn.Close()
        return nil, ErrBrokerUnavailable
    }
    p.backoff, p.retryAt = 0, time.Time{}
    p.conn, p.ch = conn, ch
    return ch, nil
}

func nextBackoff(d time.Duration) time.Duration {
    if d <= 0 {
        return time.Second
    }
    if d *= 2; d > maxRedialBackoff {
        return maxRedialBackoff
    }
    return d
}

func (p *Publisher) connect(ctx context.Context) (*amqp.Connection, *amqp.Channel, error) {
    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      p.dialer(ctx),
    })
    if err != nil {
        return nil, nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, nil, fmt.Errorf("channel open: %w", err)
    }
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, nil, fmt.Errorf("queue declare: %w", err)
    }
    return conn, ch, nil
}

// dialer opens the TCP connection with a deadline of dialTimeout or the
// ctx deadline, whichever comes first.  The deadline stays on the socket
// to bound the AMQP handshake; amqp091 clears it once the connection is
// open.
func (p *Publisher) dialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
    return func(network, addr string) (net.Conn, error) {
        deadline := time.Now().Add(p.dialTimeout)
        if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
            deadline = d
        }
        dctx, cancel := context.WithDeadline(ctx, deadline)
        defer cancel()
        var d net.Dialer
        conn, err := d.DialContext(dctx, network, addr)
        if err != nil {
            return nil, err
        }
        if err := conn.SetDeadline(deadline); err != nil {
            _ = conn.Close()
            return nil, err
        }
        return conn, nil
    }
}

// discard drops ch if it is still the current channel.
func (p *Publisher) discard(ch *amqp.Channel) {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.ch == ch {
        p.resetLocked()
    }
}

func (p *Publisher) resetLocked() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.ch, p.conn = nil, nil
}

// Close releases the broker connection.  Later publishes fail with
// ErrBrokerUnavailable.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.closed = true
    p.resetLocked()
    return nil
}
