package mccontrol

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeConn 按命令返回固定响应，可配置前若干次命令失败
type fakeConn struct {
	id       int
	failures int32
	closeErr error
	closed   atomic.Bool
	delay    time.Duration

	inFlight    *atomic.Int32
	maxInFlight *atomic.Int32
}

func (c *fakeConn) Command(cmd string) (string, error) {
	if c.inFlight != nil {
		n := c.inFlight.Add(1)
		defer c.inFlight.Add(-1)
		for {
			cur := c.maxInFlight.Load()
			if n <= cur || c.maxInFlight.CompareAndSwap(cur, n) {
				break
			}
		}
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.closed.Load() {
		return "", errors.New("use of closed connection")
	}
	if atomic.AddInt32(&c.failures, -1) >= 0 {
		return "", errors.New("connection reset by peer")
	}
	return fmt.Sprintf("conn%d:%s", c.id, cmd), nil
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return c.closeErr
}

// fakeDialer 前 failDials 次拨号失败，之后依次返回 conns 中的连接
type fakeDialer struct {
	mu        sync.Mutex
	failDials int
	dials     int
	conns     []*fakeConn
	next      int
}

func (d *fakeDialer) dial(host string, port int, password string) (RconConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.failDials > 0 {
		d.failDials--
		return nil, errors.New("connection refused")
	}
	if d.next >= len(d.conns) {
		c := &fakeConn{id: d.next}
		d.conns = append(d.conns, c)
	}
	c := d.conns[d.next]
	d.next++
	return c, nil
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func newTestManager(d *fakeDialer, rec *sleepRecorder) *RconManager {
	m := NewRconManager(RconOptions{
		Host:      "127.0.0.1",
		Port:      25575,
		Password:  "secret",
		RetryBase: 10 * time.Second,
		RetryMax:  300 * time.Second,
		Dialer:    d.dial,
	})
	if rec != nil {
		m.sleep = rec.sleep
	}
	return m
}

func TestNextBackoff_MonotonicAndCapped(t *testing.T) {
	m := newTestManager(&fakeDialer{}, nil)
	want := []time.Duration{
		10 * time.Second, 20 * time.Second, 40 * time.Second, 80 * time.Second,
		160 * time.Second, 300 * time.Second, 300 * time.Second,
	}
	for attempt, w := range want {
		if got := m.NextBackoff(attempt); got != w {
			t.Fatalf("NextBackoff(%d) = %s, want %s", attempt, got, w)
		}
	}

	prev := time.Duration(0)
	for attempt := 0; attempt < 200; attempt++ {
		got := m.NextBackoff(attempt)
		if got < prev || got > 300*time.Second {
			t.Fatalf("NextBackoff(%d) = %s after %s", attempt, got, prev)
		}
		prev = got
	}
}

func TestConnect_RetriesWithBackoffThenResets(t *testing.T) {
	d := &fakeDialer{failDials: 6}
	rec := &sleepRecorder{}
	m := newTestManager(d, rec)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	want := []time.Duration{
		10 * time.Second, 20 * time.Second, 40 * time.Second,
		80 * time.Second, 160 * time.Second, 300 * time.Second,
	}
	got := rec.recorded()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("backoff delays = %v, want %v", got, want)
	}
	if !m.IsConnected() || m.ConnectedSince().IsZero() {
		t.Fatalf("expected connected session")
	}
	if m.Attempt() != 0 {
		t.Fatalf("attempt counter = %d after success, want 0", m.Attempt())
	}
	if d.dials != 7 {
		t.Fatalf("dials = %d, want 7", d.dials)
	}
}

func TestConnect_AlreadyConnectedIsNoop(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(d, &sleepRecorder{})

	for i := 0; i < 3; i++ {
		if err := m.Connect(context.Background()); err != nil {
			t.Fatalf("Connect: %v", err)
		}
	}
	if d.dials != 1 {
		t.Fatalf("dials = %d, want 1", d.dials)
	}
}

func TestExecute_ReconnectsAfterTransportError(t *testing.T) {
	broken := &fakeConn{id: 0, failures: 1}
	healthy := &fakeConn{id: 1}
	d := &fakeDialer{conns: []*fakeConn{broken, healthy}}
	rec := &sleepRecorder{}
	m := newTestManager(d, rec)

	resp, err := m.Execute(context.Background(), "list")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp != "conn1:list" {
		t.Fatalf("response = %q, want answer from reconnected session", resp)
	}
	if !broken.closed.Load() {
		t.Fatalf("broken session should be closed")
	}
	if got := rec.recorded(); len(got) != 1 || got[0] != 10*time.Second {
		t.Fatalf("cooldown = %v, want [10s]", got)
	}
}

func TestExecute_OutageThenRecovery(t *testing.T) {
	// 首次连接正常，命令失败后服务器连续拒绝连接 5 次，随后恢复
	flaky := &fakeConn{id: 0, failures: 1}
	d := &fakeDialer{conns: []*fakeConn{flaky}}
	rec := &sleepRecorder{}
	m := newTestManager(d, rec)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	d.mu.Lock()
	d.failDials = 5
	d.mu.Unlock()

	resp, err := m.Execute(context.Background(), "time query daytime")
	if err != nil {
		t.Fatalf("Execute during outage returned error: %v", err)
	}
	if resp != "conn1:time query daytime" {
		t.Fatalf("response = %q", resp)
	}

	want := []time.Duration{
		10 * time.Second, // 命令失败后的冷却
		10 * time.Second, 20 * time.Second, 40 * time.Second, 80 * time.Second, 160 * time.Second,
	}
	if got := rec.recorded(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("delays = %v, want %v", got, want)
	}
	if m.Attempt() != 0 {
		t.Fatalf("attempt counter not reset: %d", m.Attempt())
	}
}

func TestExecute_Serialized(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	conn := &fakeConn{id: 0, delay: 2 * time.Millisecond, inFlight: &inFlight, maxInFlight: &maxInFlight}
	m := newTestManager(&fakeDialer{conns: []*fakeConn{conn}}, &sleepRecorder{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := fmt.Sprintf("data get entity p%d", i)
			resp, err := m.Execute(context.Background(), cmd)
			if err != nil || resp != "conn0:"+cmd {
				t.Errorf("Execute(%q) = %q, %v", cmd, resp, err)
			}
		}(i)
	}
	wg.Wait()

	if got := maxInFlight.Load(); got != 1 {
		t.Fatalf("max concurrent commands = %d, want 1", got)
	}
}

func TestExecute_ContextDeadline(t *testing.T) {
	d := &fakeDialer{failDials: 1 << 30}
	m := NewRconManager(RconOptions{
		Host:      "127.0.0.1",
		Port:      25575,
		Password:  "secret",
		RetryBase: 5 * time.Millisecond,
		RetryMax:  20 * time.Millisecond,
		Dialer:    d.dial,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	_, err := m.Execute(ctx, "list")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if m.Attempt() == 0 {
		t.Fatalf("expected failed attempts to be counted")
	}
}

func TestExecute_WaitingCallerHonorsContext(t *testing.T) {
	conn := &fakeConn{id: 0, delay: 200 * time.Millisecond}
	m := newTestManager(&fakeDialer{conns: []*fakeConn{conn}}, &sleepRecorder{})

	go m.Execute(context.Background(), "list")
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Execute(ctx, "list"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("queued caller err = %v, want deadline exceeded", err)
	}
}

func TestDisconnect_IdempotentAndReconnects(t *testing.T) {
	first := &fakeConn{id: 0, closeErr: errors.New("already closed")}
	d := &fakeDialer{conns: []*fakeConn{first}}
	m := newTestManager(d, &sleepRecorder{})

	m.Disconnect() // 未连接时调用
	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	m.Disconnect()
	m.Disconnect()

	if m.IsConnected() || !m.ConnectedSince().IsZero() {
		t.Fatalf("session should be cleared after disconnect")
	}
	if !first.closed.Load() {
		t.Fatalf("transport not closed")
	}

	resp, err := m.Execute(context.Background(), "list")
	if err != nil || resp != "conn1:list" {
		t.Fatalf("Execute after disconnect = %q, %v", resp, err)
	}
}

func TestClose_StopsRetryLoop(t *testing.T) {
	d := &fakeDialer{failDials: 1 << 30}
	m := newTestManager(d, nil) // 真实等待，退避 10s

	errCh := make(chan error, 1)
	go func() {
		_, err := m.Execute(context.Background(), "list")
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	m.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrManagerClosed) {
			t.Fatalf("err = %v, want ErrManagerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Execute did not return after Close")
	}

	if _, err := m.Execute(context.Background(), "list"); !errors.Is(err, ErrManagerClosed) {
		t.Fatalf("Execute after Close err = %v", err)
	}
}
