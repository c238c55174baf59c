package panel

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/muurk/omnilink/internal/logging"
	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/session"
)

// Client is a supervised connection to one controller
type Client struct {
	cfg       Config
	log       *zap.Logger
	transport *session.Transport
	cache     *StatusCache
	bus       *eventBus

	// initMu admits one Connect or reconnect at a time
	initMu sync.Mutex

	connected    *atomic.Bool
	closed       *atomic.Bool
	reconnecting *atomic.Bool

	lifetime context.Context
	shutdown context.CancelFunc

	mu         sync.Mutex
	inventory  *Inventory
	troubles   map[message.Trouble]bool
	stopTimers context.CancelFunc
	timers     sync.WaitGroup
}

// New creates a client. Nothing is dialled until Connect.
func New(cfg Config) *Client {
	cfg.setDefaults()
	log := cfg.Logger
	if log == nil {
		log = logging.GetLogger()
	}
	log = log.With(zap.String("controller", cfg.HostPort()))

	c := &Client{
		cfg:          cfg,
		log:          log,
		cache:        newStatusCache(),
		bus:          newEventBus(log),
		connected:    atomic.NewBool(false),
		closed:       atomic.NewBool(false),
		reconnecting: atomic.NewBool(false),
		troubles:     make(map[message.Trouble]bool),
	}
	c.lifetime, c.shutdown = context.WithCancel(context.Background())

	c.transport = session.New(session.Config{
		Address:            cfg.HostPort(),
		PrivateKey:         cfg.PrivateKey,
		DialTimeout:        cfg.DialTimeout,
		RequestTimeout:     cfg.RequestTimeout,
		DedupTTL:           cfg.DedupTTL,
		ShowProtocolEvents: cfg.ShowProtocolEvents,
		Logger:             log,
		Dialer:             cfg.Dialer,
		OnNotification:     c.handleNotification,
		OnResponse:         c.handleResponse,
		OnError:            c.handleTransportError,
	})
	return c
}

// Connect establishes the session, retrying at RetryInterval until it
// succeeds, ctx is cancelled, ConnectAttempts is exhausted or the client is
// closed. Notifications are enabled and timers started before it returns.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return classify("connect", session.ErrClosed)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.lifetime, cancel)
	defer stop()

	c.initMu.Lock()
	defer c.initMu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.connected.Load() {
		return nil
	}

	for attempt := 1; ; attempt++ {
		err := c.establish(ctx)
		if err == nil {
			break
		}

		perr := classify("connect", err)
		fields := []zap.Field{
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", c.cfg.RetryInterval),
			zap.Error(err),
		}
		if perr.Type == ErrTypeHandshake {
			c.log.Error("Controller refused session", fields...)
		} else {
			c.log.Warn("Failed to connect to controller", fields...)
		}

		if c.cfg.ConnectAttempts > 0 && attempt >= c.cfg.ConnectAttempts {
			return perr
		}
		timer := time.NewTimer(c.cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return classify("connect", ctx.Err())
		case <-timer.C:
		}
	}

	c.log.Info("Controller ready", zap.String("session", c.transport.SessionID().String()))
	c.bus.publish(ConnectionChanged{Connected: true})
	c.startTimers()
	return nil
}

// establish secures a session and runs the post-handshake setup. On success
// the client is marked connected.
func (c *Client) establish(ctx context.Context) error {
	if err := c.transport.Connect(ctx); err != nil {
		return err
	}
	if err := c.initSession(ctx); err != nil {
		_ = c.transport.Close()
		return err
	}

	c.connected.Store(true)
	// handleTransportError drops failures seen before connected was set
	if !c.transport.Ready() {
		c.connected.Store(false)
		_ = c.transport.Close()
		return session.ErrConnectionLost
	}
	return nil
}

// initSession runs the post-handshake setup
func (c *Client) initSession(ctx context.Context) error {
	if !c.cfg.Notifications {
		return nil
	}
	msg, err := c.transport.Send(ctx, message.EnableNotificationsRequest{Enable: true})
	if err != nil {
		return err
	}
	if ack, ok := msg.(*message.Acknowledge); !ok || !ack.OK() {
		return &PanelError{Type: ErrTypeRejected, Op: "enable notifications", Message: "controller answered " + msg.String()}
	}
	return nil
}

// Connected reports whether the session is up
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Cache returns the status cache
func (c *Client) Cache() *StatusCache {
	return c.cache
}

// Stats returns session packet counters
func (c *Client) Stats() session.Stats {
	return c.transport.Stats()
}

// Subscribe returns a channel of events accepted by filter (nil accepts all)
// and a function that ends the subscription and closes the channel
func (c *Client) Subscribe(filter Filter) (<-chan Event, func()) {
	return c.bus.subscribe(filter)
}

// Close stops timers, ends the session and closes subscriber channels
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.shutdown()

	// Waits out a connect or reconnect, which exits on shutdown
	c.initMu.Lock()
	defer c.initMu.Unlock()

	c.cancelTimers()
	c.timers.Wait()
	err := c.transport.Close()
	c.connected.Store(false)
	c.bus.close()
	return err
}

// handleTransportError runs on the session goroutine that observed the
// failure. Failures before the client is connected belong to the connect
// loop, which retries on its own.
func (c *Client) handleTransportError(err error) {
	if c.closed.Load() || !c.connected.Load() {
		return
	}
	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}
	go c.reconnect(err)
}

// reconnect tears the session down and builds it again, then resyncs
// every cached status
func (c *Client) reconnect(cause error) {
	c.log.Warn("Connection lost, reconnecting", zap.Error(cause))

	rebuilt, err := c.rebuild(cause)
	c.reconnecting.Store(false)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.log.Error("Reconnect abandoned", zap.Error(err))
		}
		return
	}
	if !rebuilt {
		return
	}

	// A failure of the new session while reconnecting was set was dropped
	if !c.transport.Ready() {
		c.handleTransportError(session.ErrConnectionLost)
		return
	}

	if err := c.RefreshAll(c.lifetime); err != nil {
		c.log.Warn("Status resync after reconnect failed", zap.Error(err))
	}
}

// rebuild reports false when a newer session was already established by
// the connect loop, which leaves nothing to rebuild
func (c *Client) rebuild(cause error) (bool, error) {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.connected.Load() && c.transport.Ready() {
		return false, nil
	}

	c.cancelTimers()
	c.connected.Store(false)
	c.bus.publish(ConnectionChanged{Connected: false, Err: cause})
	_ = c.transport.Close()

	if err := c.connectLocked(c.lifetime); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) startTimers() {
	c.cancelTimers()

	ctx, cancel := context.WithCancel(c.lifetime)
	c.mu.Lock()
	c.stopTimers = cancel
	c.mu.Unlock()

	c.timers.Add(1)
	go c.every(ctx, c.cfg.PollInterval, true, func(ctx context.Context) {
		if _, err := c.PollTroubles(ctx); err != nil {
			c.log.Debug("Trouble poll failed", zap.Error(err))
		}
	})

	if c.cfg.ClockSync {
		c.timers.Add(1)
		go c.every(ctx, c.cfg.ClockSyncInterval, false, func(ctx context.Context) {
			if _, err := c.SyncClock(ctx); err != nil {
				c.log.Warn("Clock sync failed", zap.Error(err))
			}
		})
	}
}

func (c *Client) cancelTimers() {
	c.mu.Lock()
	stop := c.stopTimers
	c.stopTimers = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// every runs fn each interval until ctx is cancelled, optionally once at start
func (c *Client) every(ctx context.Context, interval time.Duration, immediate bool, fn func(context.Context)) {
	defer c.timers.Done()

	if immediate {
		fn(ctx)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// handleNotification runs on the session reader goroutine
func (c *Client) handleNotification(msg message.Message) {
	switch m := msg.(type) {
	case *message.ExtendedStatus:
		c.observe(m)
	case *message.Unsupported:
		c.log.Debug("Ignoring notification for unsupported object type", zap.String("object", m.Object.String()))
	default:
		c.log.Debug("Ignoring notification", zap.String("message", msg.String()))
	}
}

// handleResponse runs on the session reader goroutine before the caller
// waiting for msg is woken. Status carried by responses is applied here so
// that it interleaves with notifications in the order the controller sent
// them.
func (c *Client) handleResponse(msg message.Message) {
	switch m := msg.(type) {
	case *message.ExtendedStatus:
		c.observe(m)
	case *message.ObjectProperties:
		if m.Status != nil && keep(m) {
			c.cache.seed(Key{Object: m.Object, ID: m.Number}, m.Status)
		}
	}
}

// observe applies status records to the cache and publishes the changes
func (c *Client) observe(status *message.ExtendedStatus) {
	for _, r := range status.Records {
		k := Key{Object: status.Object, ID: r.ID}
		old, changed := c.cache.update(k, r.Status)
		if !changed {
			continue
		}
		c.log.Debug("Status changed", zap.Stringer("object", k), zap.Stringer("status", r.Status))
		c.bus.publish(StatusChanged{Key: k, Old: old, New: r.Status})
	}
}

// send issues a request and classifies failures
func (c *Client) send(ctx context.Context, op string, req message.Request) (message.Message, error) {
	msg, err := c.transport.Send(ctx, req)
	if err != nil {
		perr := classify(op, err)
		c.log.Warn("Request failed", zap.String("op", op), zap.Error(err))
		return nil, perr
	}
	return msg, nil
}
