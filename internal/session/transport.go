package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/muurk/omnilink/internal/logging"
	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/protocol"
)

// Transport is an encrypted session with one controller
type Transport struct {
	cfg   Config
	log   *zap.Logger
	state *fsm.FSM
	corr  *Correlator

	mu      sync.Mutex
	conn    net.Conn
	key     []byte
	seq     uint16
	gen     uint64 // incremented by every successful handshake
	id      uuid.UUID
	pending map[uint16]chan result

	writeMu sync.Mutex

	sent     *atomic.Uint64
	received *atomic.Uint64
}

type result struct {
	pkt *protocol.Packet
	err error
}

// Stats counts packets and cache hits over the transport lifetime
type Stats struct {
	PacketsSent     uint64
	PacketsReceived uint64
	DedupHits       uint64
}

// New creates a disconnected transport
func New(cfg Config) *Transport {
	cfg.setDefaults()
	t := &Transport{
		cfg:      cfg,
		log:      cfg.Logger.With(zap.String("address", cfg.Address)),
		pending:  make(map[uint16]chan result),
		sent:     atomic.NewUint64(0),
		received: atomic.NewUint64(0),
	}
	t.state = newStateMachine(func(from, to string) {
		t.log.Debug("Session state changed", zap.String("from", from), zap.String("to", to))
	})
	t.corr = newCorrelator(t, cfg.DedupTTL, t.log)
	return t
}

// State returns the current transport state
func (t *Transport) State() string {
	return t.state.Current()
}

// Ready reports whether the session is secured
func (t *Transport) Ready() bool {
	return t.state.Is(StateReady)
}

// SessionID returns the id used to tag log entries for the current connection
func (t *Transport) SessionID() uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// Stats returns the packet counters
func (t *Transport) Stats() Stats {
	return Stats{
		PacketsSent:     t.sent.Load(),
		PacketsReceived: t.received.Load(),
		DedupHits:       t.corr.hits.Load(),
	}
}

// Connect dials the controller and secures a session. A rejected private key
// is reported as a *HandshakeError wrapping ErrInvalidPrivateKey.
func (t *Transport) Connect(ctx context.Context) error {
	if err := t.state.Event(context.Background(), eventDial); err != nil {
		return fmt.Errorf("cannot connect while %s: %w", t.state.Current(), err)
	}

	id := uuid.New()
	log := t.log.With(zap.String("session", id.String()))

	dialCtx, cancel := context.WithTimeout(ctx, t.cfg.DialTimeout)
	conn, err := t.cfg.Dialer.DialContext(dialCtx, "tcp", t.cfg.Address)
	cancel()
	if err != nil {
		t.transition(eventDisconnect)
		return fmt.Errorf("failed to connect to %s: %w", t.cfg.Address, err)
	}
	logging.LogConnection(log, t.cfg.Address, "connected")

	var key []byte
	reader := protocol.NewPacketReader(conn, func() []byte { return key })

	if err := t.handshake(ctx, conn, reader, &key, log); err != nil {
		_ = conn.Close()
		t.transition(eventDisconnect)
		return err
	}

	t.mu.Lock()
	t.conn = conn
	t.key = key
	t.id = id
	t.gen++
	gen := t.gen
	t.mu.Unlock()
	t.corr.purge()

	t.transition(eventSecured)
	log.Info("Session secured")

	go t.readLoop(reader, gen, log)
	return nil
}

// handshake runs the new session and secure connection exchanges. The
// session key is stored in *key as soon as it is derived, since reader
// needs it to decrypt the acknowledgement.
func (t *Transport) handshake(ctx context.Context, conn net.Conn, reader *protocol.PacketReader, key *[]byte, log *zap.Logger) error {
	deadline := time.Now().Add(t.cfg.DialTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)
	defer func() { _ = conn.SetDeadline(time.Time{}) }()

	t.transition(eventConnected)

	stage := "new session"
	req := &protocol.Packet{Sequence: t.nextSequence(), Type: protocol.PacketTypeNewSessionRequest}
	if err := t.writePacket(conn, req, nil, log); err != nil {
		return &HandshakeError{Stage: stage, Err: err}
	}
	ack, err := t.readPacket(reader, log)
	if err != nil {
		return &HandshakeError{Stage: stage, Err: err}
	}
	if ack.Type != protocol.PacketTypeNewSessionAcknowledge {
		return &HandshakeError{Stage: stage, Err: fmt.Errorf("controller replied %s", ack.Type)}
	}
	if len(ack.Payload) < protocol.SessionIDSize {
		return &HandshakeError{Stage: stage, Err: fmt.Errorf("session id truncated: %d bytes", len(ack.Payload))}
	}

	sessionID := ack.Payload[len(ack.Payload)-protocol.SessionIDSize:]
	sessionKey := protocol.DeriveSessionKey(t.cfg.PrivateKey, sessionID)
	*key = sessionKey[:]
	log.Debug("Session acknowledged", zap.Binary("session_id", sessionID))
	t.transition(eventSessionAck)

	stage = "secure connection"
	req = &protocol.Packet{
		Sequence: t.nextSequence(),
		Type:     protocol.PacketTypeSecureConnectionRequest,
		Payload:  sessionID,
	}
	if err := t.writePacket(conn, req, *key, log); err != nil {
		return &HandshakeError{Stage: stage, Err: err}
	}
	resp, err := t.readPacket(reader, log)
	if err != nil {
		return &HandshakeError{Stage: stage, Err: err}
	}
	switch resp.Type {
	case protocol.PacketTypeSecureConnectionAcknowledge:
		if !bytes.HasPrefix(resp.Payload, sessionID) {
			return &HandshakeError{Stage: stage, Err: ErrInvalidPrivateKey}
		}
	case protocol.PacketTypeControllerSessionTerminated:
		return &HandshakeError{Stage: stage, Err: ErrInvalidPrivateKey}
	default:
		return &HandshakeError{Stage: stage, Err: fmt.Errorf("controller replied %s", resp.Type)}
	}

	return nil
}

// Send issues an application request through the correlator
func (t *Transport) Send(ctx context.Context, req message.Request) (message.Message, error) {
	return t.corr.Send(ctx, req)
}

// Close terminates the session. Errors are logged, not returned; pending
// requests fail with ErrClosed. Connect may be called again afterwards.
func (t *Transport) Close() error {
	t.mu.Lock()
	conn := t.conn
	if conn == nil {
		t.mu.Unlock()
		return nil
	}
	t.conn = nil
	t.key = nil
	seq := t.nextSequenceLocked()
	pending := t.pending
	t.pending = make(map[uint16]chan result)
	t.mu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(closeTimeout))
	bye := &protocol.Packet{Sequence: seq, Type: protocol.PacketTypeClientSessionTerminated}
	if err := t.writePacket(conn, bye, nil, t.log); err != nil {
		t.log.Debug("Failed to send session termination", zap.Error(err))
	}
	if err := conn.Close(); err != nil {
		t.log.Debug("Failed to close connection", zap.Error(err))
	}

	for _, ch := range pending {
		ch <- result{err: ErrClosed}
	}
	t.transition(eventDisconnect)
	logging.LogConnection(t.log, t.cfg.Address, "closed")
	return nil
}

func (t *Transport) generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// exchange sends one ApplicationData payload on the connection established
// at generation gen and waits for the packet answering it
func (t *Transport) exchange(ctx context.Context, gen uint64, payload []byte) (*protocol.Packet, error) {
	t.mu.Lock()
	if t.conn == nil || t.gen != gen {
		t.mu.Unlock()
		return nil, ErrNotConnected
	}
	conn, key := t.conn, t.key
	seq := t.nextSequenceLocked()
	ch := make(chan result, 1)
	t.pending[seq] = ch
	t.mu.Unlock()

	req := &protocol.Packet{Sequence: seq, Type: protocol.PacketTypeApplicationData, Payload: payload}
	if err := t.writePacket(conn, req, key, t.log); err != nil {
		err = fmt.Errorf("%w: %v", ErrConnectionLost, err)
		t.fail(gen, err)
		return nil, err
	}

	timer := time.NewTimer(t.cfg.RequestTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.pkt, r.err
	case <-timer.C:
		t.log.Warn("Request timed out", zap.Uint16("seq", seq), zap.Duration("timeout", t.cfg.RequestTimeout))
		t.fail(gen, ErrTimeout)
		return nil, ErrTimeout
	case <-ctx.Done():
		t.mu.Lock()
		delete(t.pending, seq)
		t.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (t *Transport) readLoop(reader *protocol.PacketReader, gen uint64, log *zap.Logger) {
	for {
		pkt, raw, err := reader.ReadPacket()
		if err != nil {
			t.fail(gen, fmt.Errorf("%w: %v", ErrConnectionLost, err))
			return
		}
		t.received.Inc()
		t.tracePacket(log, "rx", pkt, raw)

		switch pkt.Type {
		case protocol.PacketTypeApplicationData:
		case protocol.PacketTypeControllerSessionTerminated, protocol.PacketTypeControllerSessionFailed:
			t.fail(gen, fmt.Errorf("%w: controller sent %s", ErrConnectionLost, pkt.Type))
			return
		default:
			log.Debug("Ignoring packet", zap.String("type", pkt.Type.String()))
			continue
		}

		if pkt.Sequence == protocol.NotificationSequence {
			t.notify(pkt, log)
			continue
		}

		t.mu.Lock()
		ch, ok := t.pending[pkt.Sequence]
		delete(t.pending, pkt.Sequence)
		t.mu.Unlock()
		if !ok {
			log.Debug("Dropping response with no pending request", zap.Uint16("seq", pkt.Sequence))
			continue
		}
		t.observe(pkt)
		ch <- result{pkt: pkt}
	}
}

// observe passes a response to OnResponse. Decode failures are left to the
// caller, which parses the same packet.
func (t *Transport) observe(pkt *protocol.Packet) {
	if t.cfg.OnResponse == nil {
		return
	}
	if msg, err := message.Parse(pkt.Payload); err == nil {
		t.cfg.OnResponse(msg)
	}
}

func (t *Transport) notify(pkt *protocol.Packet, log *zap.Logger) {
	msg, err := message.Parse(pkt.Payload)
	if err != nil {
		log.Warn("Failed to decode notification", zap.Error(err))
		logging.LogRawBytes(log, "Undecodable notification", pkt.Payload)
		return
	}
	if t.cfg.OnNotification != nil {
		t.cfg.OnNotification(msg)
	}
}

// fail tears down the connection established at generation gen. Stale
// generations and already closed connections are ignored.
func (t *Transport) fail(gen uint64, err error) {
	t.mu.Lock()
	if t.conn == nil || t.gen != gen {
		t.mu.Unlock()
		return
	}
	conn := t.conn
	t.conn = nil
	t.key = nil
	pending := t.pending
	t.pending = make(map[uint16]chan result)
	t.mu.Unlock()

	_ = conn.Close()
	t.corr.purge()
	for _, ch := range pending {
		ch <- result{err: err}
	}
	t.transition(eventDisconnect)
	t.log.Warn("Session failed", zap.Error(err))

	if t.cfg.OnError != nil {
		t.cfg.OnError(err)
	}
}

func (t *Transport) writePacket(conn net.Conn, pkt *protocol.Packet, key []byte, log *zap.Logger) error {
	raw, err := pkt.Encode(key)
	if err != nil {
		return err
	}
	t.writeMu.Lock()
	_, err = conn.Write(raw)
	t.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", pkt.Type, err)
	}
	t.sent.Inc()
	t.tracePacket(log, "tx", pkt, raw)
	return nil
}

func (t *Transport) readPacket(reader *protocol.PacketReader, log *zap.Logger) (*protocol.Packet, error) {
	pkt, raw, err := reader.ReadPacket()
	if err != nil {
		return nil, err
	}
	t.received.Inc()
	t.tracePacket(log, "rx", pkt, raw)
	return pkt, nil
}

func (t *Transport) tracePacket(log *zap.Logger, direction string, pkt *protocol.Packet, raw []byte) {
	if t.cfg.ShowProtocolEvents {
		logging.LogPacket(log, direction, pkt.Sequence, pkt.Type.String(), raw, pkt.Payload)
		return
	}
	log.Debug("Packet",
		zap.String("direction", direction),
		zap.Uint16("seq", pkt.Sequence),
		zap.String("type", pkt.Type.String()),
	)
}

// nextSequence returns the next sequence number, wrapping 65535 to 1.
// Zero is reserved for controller notifications.
func (t *Transport) nextSequence() uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextSequenceLocked()
}

func (t *Transport) nextSequenceLocked() uint16 {
	if t.seq == 0xFFFF {
		t.seq = 1
	} else {
		t.seq++
	}
	return t.seq
}

func (t *Transport) transition(event string) {
	err := t.state.Event(context.Background(), event)
	var noTransition fsm.NoTransitionError
	if err != nil && !errors.As(err, &noTransition) {
		t.log.Debug("Ignoring state event", zap.String("event", event), zap.Error(err))
	}
}
