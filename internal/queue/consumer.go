package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Consumer drains the ledger queue into an append-only audit file, one
// line per event.
type Consumer struct {
    url     string
    queue   string
    logPath string
    log     *zap.Logger
}

// NewConsumer returns a Consumer writing to logPath, typically
// logs/ledger.log.
func NewConsumer(url, logPath string, log *zap.Logger) *Consumer {
    if log == nil {
        log = zap.NewNop()
    }
    return &Consumer{url: url, queue: LedgerQueue, logPath: logPath, log: log.Named("ledger-consumer")}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff (capped at 30s) whenever the
// connection drops.  Malformed messages are rejected without requeue so
// they cannot loop.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn("set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    c.log.Info("consuming", zap.String("queue", c.queue), zap.String("file", c.logPath))

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.Handle(d.Body); err != nil {
                c.log.Error("handle message failed", zap.Error(err))
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body and appends its audit line.
func (c *Consumer) Handle(body []byte) error {
    var ev LedgerEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" {
        return errors.New("event without type")
    }
    if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if err := WriteLine(f, ev); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// WriteLine renders ev as a single human readable line.
func WriteLine(w io.Writer, ev LedgerEvent) error {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s | reservation_id=%d | state=%s",
        ev.OccurredAt.UTC().Format(time.RFC3339), describe(ev.Type), ev.ReservationID, ev.State)
    if ev.ClientID != 0 {
        fmt.Fprintf(&b, " | client_id=%d", ev.ClientID)
    }
    if ev.NationalID != "" {
        fmt.Fprintf(&b, " | cedula=%s", ev.NationalID)
    }
    if ev.Sector != "" {
        fmt.Fprintf(&b, " | sector=%q", ev.Sector)
    }
    if ev.Amount != nil {
        fmt.Fprintf(&b, " | amount=%s", ev.Amount.StringFixed(2))
    }
    if ev.PendingBalance != nil {
        fmt.Fprintf(&b, " | pending=%s", ev.PendingBalance.StringFixed(2))
    }
    b.WriteByte('\n')
    _, err := io.WriteString(w, b.String())
    return err
}

func describe(eventType string) string {
    switch eventType {
    case EventReservationCreated:
        return "Reservation created"
    case EventStatusChanged:
        return "Reservation status changed"
    case EventPaymentRecorded:
        return "Payment recorded"
    }
    return eventType
}
