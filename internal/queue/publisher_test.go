package queue

import (
    "context"
    "net"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// silentBroker accepts TCP connections and never answers the AMQP
// handshake.
func silentBroker(t *testing.T) (string, *atomic.Int32) {
    t.Helper()
    ln, err := net.Listen("tcp", "127.0.0.1:0")
    require.NoError(t, err)
    var accepted atomic.Int32
    var mu sync.Mutex
    var conns []net.Conn
    go func() {
        for {
            c, err := ln.Accept()
            if err != nil {
                return
            }
            accepted.Add(1)
            mu.Lock()
            conns = append(conns, c)
            mu.Unlock()
        }
    }()
    t.Cleanup(func() {
        _ = ln.Close()
        mu.Lock()
        defer mu.Unlock()
        for _, c := range conns {
            _ = c.Close()
        }
    })
    return "amqp://guest:guest@" + ln.Addr().String() + "/", &accepted
}

func TestPublishHonoursDeadlineWhenBrokerHangs(t *testing.T) {
    url, accepted := silentBroker(t)
    p := NewPublisher(url, nil)
    p.dialTimeout = time.Minute
    t.Cleanup(func() { _ = p.Close() })

    var wg sync.WaitGroup
    elapsed := make([]time.Duration, 2)
    errs := make([]error, 2)
    for i := range elapsed {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
            defer cancel()
            start := time.Now()
            errs[i] = p.Publish(ctx, NewLedgerEvent(EventPaymentRecorded, 1, "Partial"))
            elapsed[i] = time.Since(start)
        }(i)
    }
    wg.Wait()

    for i := range elapsed {
        assert.Error(t, errs[i])
        assert.Less(t, elapsed[i], 2*time.Second)
    }
    assert.Equal(t, int32(1), accepted.Load())
}

func TestPublishBacksOffAfterFailedDial(t *testing.T) {
    url, accepted := silentBroker(t)
    p := NewPublisher(url, nil)
    p.dialTimeout = 100 * time.Millisecond
    t.Cleanup(func() { _ = p.Close() })

    ev := NewLedgerEvent(EventReservationCreated, 1, "Pending")
    require.Error(t, p.Publish(context.Background(), ev))
    require.Equal(t, int32(1), accepted.Load())

    start := time.Now()
    err := p.Publish(context.Background(), ev)
    assert.ErrorIs(t, err, ErrBrokerUnavailable)
    assert.Less(t, time.Since(start), 50*time.Millisecond)
    assert.Equal(t, int32(1), accepted.Load())
}

func TestPublishAfterClose(t *testing.T) {
    url, accepted := silentBroker(t)
    p := NewPublisher(url, nil)
    require.NoError(t, p.Close())

    err := p.Publish(context.Background(), NewLedgerEvent(EventStatusChanged, 1, "Paid"))
    assert.ErrorIs(t, err, ErrBrokerUnavailable)
    assert.Zero(t, accepted.Load())
}

func TestNextBackoff(t *testing.T) {
    assert.Equal(t, time.Second, nextBackoff(0))
    assert.Equal(t, 4*time.Second, nextBackoff(2*time.Second))
    assert.Equal(t, maxRedialBackoff, nextBackoff(20*time.Second))
    assert.Equal(t, maxRedialBackoff, nextBackoff(maxRedialBackoff))
}
