package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pion/transport/v3/test"
	"go.uber.org/zap"

	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/panel/paneltest"
	"github.com/muurk/omnilink/internal/protocol"
)

// fakeExchanger answers every request with an Acknowledge
type fakeExchanger struct {
	mu        sync.Mutex
	gen       uint64
	calls     int
	active    int
	maxActive int
	delay     time.Duration
	block     chan struct{}
	entered   chan struct{}
}

func (f *fakeExchanger) generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}

func (f *fakeExchanger) exchange(_ context.Context, gen uint64, _ []byte) (*protocol.Packet, error) {
	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return nil, ErrNotConnected
	}
	f.calls++
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	block, entered := f.block, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	return &protocol.Packet{
		Sequence: 1,
		Type:     protocol.PacketTypeApplicationData,
		Payload:  message.Envelope(message.TypeAcknowledge, nil),
	}, nil
}

func TestCorrelatorSingleInFlight(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	x := &fakeExchanger{delay: 10 * time.Millisecond}
	c := newCorrelator(x, -1, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(unit uint16) {
			defer wg.Done()
			msg, err := c.Send(context.Background(), message.UnitOn(unit, 0))
			if err != nil {
				t.Errorf("Send() error = %v", err)
				return
			}
			if ack, ok := msg.(*message.Acknowledge); !ok || !ack.OK() {
				t.Errorf("Send() = %v", msg)
			}
		}(uint16(i + 1))
	}
	wg.Wait()

	if x.maxActive != 1 {
		t.Errorf("max concurrent exchanges = %d, want 1", x.maxActive)
	}
	if x.calls != 8 {
		t.Errorf("exchanges = %d, want 8", x.calls)
	}
}

func TestCorrelatorQueuedRequestFailsAfterReconnect(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	x := &fakeExchanger{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	c := newCorrelator(x, -1, zap.NewNop())

	first := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), message.ExecuteButton(1))
		first <- err
	}()
	<-x.entered

	second := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), message.ExecuteButton(2))
		second <- err
	}()

	// Give the second caller time to capture the generation and queue
	time.Sleep(20 * time.Millisecond)
	x.mu.Lock()
	x.gen++
	x.mu.Unlock()
	close(x.block)

	if err := <-first; err != nil {
		t.Errorf("first Send() error = %v", err)
	}
	if err := <-second; !errors.Is(err, ErrNotConnected) {
		t.Errorf("second Send() error = %v, want ErrNotConnected", err)
	}
}

func TestCorrelatorQueueHonoursContext(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	x := &fakeExchanger{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	c := newCorrelator(x, -1, zap.NewNop())
	defer close(x.block)

	go func() { _, _ = c.Send(context.Background(), message.ExecuteButton(1)) }()
	<-x.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Send(ctx, message.ExecuteButton(2)); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("queued Send() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestSecondRequestWaitsForFirstResponse(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	p := paneltest.New(testKey)
	tr := newTestTransport(t, p, nil)
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	p.Hold()

	done := make(chan message.MessageType, 2)
	send := func(req message.Request) {
		if _, err := tr.Send(context.Background(), req); err != nil {
			t.Errorf("Send(%s) error = %v", req.Type(), err)
		}
		done <- req.Type()
	}

	go send(message.SystemStatusRequest)
	if !p.WaitForRequests(1, time.Second) {
		t.Fatal("first request never reached the panel")
	}
	go send(message.SystemTroublesRequest)

	// The second request must stay off the wire while the first is unanswered
	if p.WaitForRequests(2, 100*time.Millisecond) {
		t.Fatal("second request transmitted before the first response")
	}

	p.Release()
	<-done
	<-done

	reqs := p.Requests()
	if len(reqs) != 2 ||
		message.MessageType(reqs[0][2]) != message.TypeSystemStatusRequest ||
		message.MessageType(reqs[1][2]) != message.TypeSystemTroublesRequest {
		t.Errorf("wire order = % X", reqs)
	}
}

func TestDuplicateRequestsShareOneTransmission(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	p := paneltest.New(testKey)
	p.SetTroubles(message.TroubleACPower)
	tr := newTestTransport(t, p, nil)
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	p.Hold()

	results := make(chan message.Message, 2)
	send := func() {
		msg, err := tr.Send(context.Background(), message.SystemTroublesRequest)
		if err != nil {
			t.Errorf("Send() error = %v", err)
		}
		results <- msg
	}

	go send()
	if !p.WaitForRequests(1, time.Second) {
		t.Fatal("request never reached the panel")
	}
	go send()
	time.Sleep(20 * time.Millisecond)
	p.Release()

	for i := 0; i < 2; i++ {
		msg := <-results
		troubles, ok := msg.(*message.SystemTroubles)
		if !ok || len(troubles.Troubles) != 1 || troubles.Troubles[0] != message.TroubleACPower {
			t.Errorf("result %d = %v", i, msg)
		}
	}

	if n := p.RequestCount(message.TypeSystemTroublesRequest); n != 1 {
		t.Errorf("wire transmissions = %d, want 1", n)
	}
	if hits := tr.Stats().DedupHits; hits != 1 {
		t.Errorf("dedup hits = %d, want 1", hits)
	}
}

func TestDedupEntriesExpire(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	p := paneltest.New(testKey)
	tr := newTestTransport(t, p, func(c *Config) { c.DedupTTL = 20 * time.Millisecond })
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := tr.Send(context.Background(), message.SystemFormatsRequest); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		time.Sleep(60 * time.Millisecond)
	}

	if n := p.RequestCount(message.TypeSystemFormatsRequest); n != 2 {
		t.Errorf("wire transmissions = %d, want 2", n)
	}
}
