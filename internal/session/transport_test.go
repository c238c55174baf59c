package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pion/transport/v3/test"

	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/panel/paneltest"
	"github.com/muurk/omnilink/internal/protocol"
)

var testKey = protocol.Key{
	0x6B, 0x1E, 0x20, 0x4F, 0x97, 0x33, 0x0C, 0xA2,
	0x51, 0xD8, 0x7E, 0x03, 0xF4, 0x66, 0x19, 0xBC,
}

func newTestTransport(t *testing.T, p *paneltest.Panel, mutate func(*Config)) *Transport {
	t.Helper()
	cfg := Config{
		Address:    "panel.test:4369",
		PrivateKey: testKey,
		Dialer:     p,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	tr := New(cfg)
	t.Cleanup(func() {
		p.Close()
		_ = tr.Close()
	})
	return tr
}

func TestConnectAndSend(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	p := paneltest.New(testKey)
	tr := newTestTransport(t, p, nil)

	if tr.State() != StateDisconnected {
		t.Fatalf("initial state = %s", tr.State())
	}
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !tr.Ready() || p.Sessions() != 1 {
		t.Fatalf("state = %s, sessions = %d", tr.State(), p.Sessions())
	}

	msg, err := tr.Send(context.Background(), message.SystemInformationRequest)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	info, ok := msg.(*message.SystemInformation)
	if !ok {
		t.Fatalf("Send() = %T", msg)
	}
	if info.Version() != "4.0b" {
		t.Errorf("Version() = %q", info.Version())
	}

	if err := tr.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if tr.State() != StateDisconnected {
		t.Errorf("state after Close = %s", tr.State())
	}
	if _, err := tr.Send(context.Background(), message.SystemStatusRequest); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send() after Close error = %v, want ErrNotConnected", err)
	}

	stats := tr.Stats()
	if stats.PacketsSent < 4 || stats.PacketsReceived < 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestConnectDerivesSessionKey(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	var zero protocol.Key
	p := paneltest.New(zero)
	tr := newTestTransport(t, p, func(c *Config) { c.PrivateKey = zero })

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	tr.mu.Lock()
	key := append([]byte(nil), tr.key...)
	tr.mu.Unlock()

	want := make([]byte, protocol.KeySize)
	copy(want[11:], []byte{0x01, 0x02, 0x03, 0x04, 0x05})
	if string(key) != string(want) {
		t.Errorf("session key = % X, want % X", key, want)
	}
}

func TestConnectInvalidPrivateKey(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	other := testKey
	other[0] ^= 0xFF
	p := paneltest.New(other)
	tr := newTestTransport(t, p, nil)

	err := tr.Connect(context.Background())
	if !errors.Is(err, ErrInvalidPrivateKey) {
		t.Fatalf("Connect() error = %v, want ErrInvalidPrivateKey", err)
	}
	var handshakeErr *HandshakeError
	if !errors.As(err, &handshakeErr) || handshakeErr.Stage != "secure connection" {
		t.Errorf("Connect() error = %#v, want secure connection HandshakeError", err)
	}
	if tr.State() != StateDisconnected {
		t.Errorf("state = %s", tr.State())
	}
}

func TestConnectDialFailureAllowsRetry(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	p := paneltest.New(testKey)
	p.RefuseDials(1)
	tr := newTestTransport(t, p, nil)

	err := tr.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect() expected error")
	}
	var handshakeErr *HandshakeError
	if errors.As(err, &handshakeErr) {
		t.Errorf("dial failure reported as handshake error: %v", err)
	}

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}
	if p.Dials() != 2 {
		t.Errorf("dials = %d, want 2", p.Dials())
	}
}

func TestConnectWhileReady(t *testing.T) {
	p := paneltest.New(testKey)
	tr := newTestTransport(t, p, nil)
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := tr.Connect(context.Background()); err == nil {
		t.Error("Connect() on a ready transport expected error")
	}
}

func TestSequenceWraps(t *testing.T) {
	tr := New(Config{})
	tr.seq = 0xFFFE

	for _, want := range []uint16{0xFFFF, 1, 2} {
		if got := tr.nextSequence(); got != want {
			t.Fatalf("nextSequence() = %d, want %d", got, want)
		}
	}
}

func TestNotificationsAreRouted(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	notes := make(chan message.Message, 4)
	p := paneltest.New(testKey)
	p.AddObject(message.ObjectZone, 3, paneltest.Object{Name: "HALL", Status: message.ZoneStatus{}})
	tr := newTestTransport(t, p, func(c *Config) {
		c.OnNotification = func(m message.Message) { notes <- m }
	})

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	p.Notify(message.ObjectZone, message.StatusRecord{ID: 3, Status: message.ZoneStatus{Status: 0x01}})

	msg := <-notes
	status, ok := msg.(*message.ExtendedStatus)
	if !ok {
		t.Fatalf("notification = %T", msg)
	}
	if len(status.Records) != 1 || status.Records[0].ID != 3 {
		t.Errorf("notification = %s", status)
	}

	// Requests keep working alongside notifications
	if _, err := tr.Send(context.Background(), message.SystemTroublesRequest); err != nil {
		t.Errorf("Send() error = %v", err)
	}
}

func TestConnectionLossFailsPendingAndQueued(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	failures := make(chan error, 4)
	p := paneltest.New(testKey)
	tr := newTestTransport(t, p, func(c *Config) {
		c.OnError = func(err error) { failures <- err }
	})
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	p.Hold()

	errs := make(chan error, 2)
	go func() {
		_, err := tr.Send(context.Background(), message.SystemStatusRequest)
		errs <- err
	}()
	if !p.WaitForRequests(1, time.Second) {
		t.Fatal("first request never reached the panel")
	}
	go func() {
		_, err := tr.Send(context.Background(), message.SystemTroublesRequest)
		errs <- err
	}()

	p.DropConnections()

	for i := 0; i < 2; i++ {
		if err := <-errs; err == nil {
			t.Errorf("request %d succeeded after connection loss", i)
		}
	}
	if err := <-failures; !errors.Is(err, ErrConnectionLost) {
		t.Errorf("OnError(%v), want ErrConnectionLost", err)
	}
	if tr.State() != StateDisconnected {
		t.Errorf("state = %s", tr.State())
	}
	if n := len(p.Requests()); n != 1 {
		t.Errorf("panel received %d requests, want 1", n)
	}
}

func TestRequestTimeoutFailsSession(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	failures := make(chan error, 1)
	p := paneltest.New(testKey)
	tr := newTestTransport(t, p, func(c *Config) {
		c.RequestTimeout = 50 * time.Millisecond
		c.OnError = func(err error) { failures <- err }
	})
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	p.Hold()
	if _, err := tr.Send(context.Background(), message.SystemStatusRequest); !errors.Is(err, ErrTimeout) {
		t.Fatalf("Send() error = %v, want ErrTimeout", err)
	}
	if err := <-failures; !errors.Is(err, ErrTimeout) {
		t.Errorf("OnError(%v), want ErrTimeout", err)
	}
	if tr.Ready() {
		t.Error("transport still ready after timeout")
	}
}

func TestSendHonoursContext(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	p := paneltest.New(testKey)
	tr := newTestTransport(t, p, nil)
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	p.Hold()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := tr.Send(ctx, message.SystemStatusRequest); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Send() error = %v, want context.DeadlineExceeded", err)
	}
	if !tr.Ready() {
		t.Error("caller cancellation should not fail the session")
	}
}

func TestResponsesObservedInWireOrder(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	type seen struct {
		notification bool
		status       message.ObjectStatus
	}
	var (
		mu  sync.Mutex
		log []seen
	)
	record := func(notification bool) func(message.Message) {
		return func(m message.Message) {
			if es, ok := m.(*message.ExtendedStatus); ok && len(es.Records) == 1 {
				mu.Lock()
				log = append(log, seen{notification, es.Records[0].Status})
				mu.Unlock()
			}
		}
	}

	p := paneltest.New(testKey)
	p.AddObject(message.ObjectZone, 1, paneltest.Object{Name: "FRONT", Status: message.ZoneStatus{Status: 0x01}})
	p.AfterResponse(message.TypeExtendedObjectStatusRequest, func() {
		p.Notify(message.ObjectZone, message.StatusRecord{ID: 1, Status: message.ZoneStatus{Status: 0x02}})
	})
	tr := newTestTransport(t, p, func(c *Config) {
		c.OnResponse = record(false)
		c.OnNotification = record(true)
	})
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if _, err := tr.Send(context.Background(), message.ExtendedObjectStatusRequest{Object: message.ObjectZone, Start: 1, End: 1}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	// The response is observed before Send returns
	mu.Lock()
	if len(log) == 0 || log[0].notification {
		t.Errorf("first observed = %+v, want the response", log)
	}
	mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(log)
		mu.Unlock()
		if n >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("notification never observed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []seen{
		{false, message.ZoneStatus{Status: 0x01}},
		{true, message.ZoneStatus{Status: 0x02}},
	}
	for i, w := range want {
		if log[i] != w {
			t.Errorf("observed[%d] = %+v, want %+v", i, log[i], w)
		}
	}
}

func TestDedupCacheClearedOnReconnect(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	p := paneltest.New(testKey)
	tr := newTestTransport(t, p, func(c *Config) { c.DedupTTL = time.Hour })
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if _, err := tr.Send(context.Background(), message.SystemFormatsRequest); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	p.DropConnections()
	deadline := time.Now().Add(2 * time.Second)
	for tr.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("transport never noticed the dropped connection")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect error = %v", err)
	}
	if _, err := tr.Send(context.Background(), message.SystemFormatsRequest); err != nil {
		t.Fatalf("Send() after reconnect error = %v", err)
	}
	if n := p.RequestCount(message.TypeSystemFormatsRequest); n != 2 {
		t.Errorf("wire transmissions = %d, want 2 (one per connection)", n)
	}
	if hits := tr.Stats().DedupHits; hits != 0 {
		t.Errorf("dedup hits = %d, want 0", hits)
	}
}
