package session

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/omnilink/internal/logging"
	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/protocol"
)

// Defaults applied by New for zero config values
const (
	DefaultDialTimeout    = 10 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultDedupTTL       = time.Second
)

// dedupCacheSize bounds the number of distinct cached responses
const dedupCacheSize = 128

// closeTimeout bounds the best-effort session termination write
const closeTimeout = time.Second

// Dialer opens the controller connection. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config holds the transport settings
type Config struct {
	// Address is the controller host:port
	Address string

	// PrivateKey is the 16 byte key configured on the controller
	PrivateKey protocol.Key

	// DialTimeout bounds the TCP connect and the handshake
	DialTimeout time.Duration

	// RequestTimeout bounds a single request/response exchange. Expiry fails
	// the session so that the owner reconnects.
	RequestTimeout time.Duration

	// DedupTTL is how long a response is reused for an identical request.
	// Negative disables the cache.
	DedupTTL time.Duration

	// ShowProtocolEvents logs every packet at info level instead of debug
	ShowProtocolEvents bool

	Logger *zap.Logger
	Dialer Dialer

	// OnNotification receives decoded sequence 0 messages. It runs on the
	// reader goroutine and must not block or issue requests.
	OnNotification func(message.Message)

	// OnResponse receives each decoded response on the reader goroutine
	// before the waiting caller is woken, so responses and notifications
	// reach it in wire order. It must not block or issue requests.
	OnResponse func(message.Message)

	// OnError is called once per connection when an established session fails
	OnError func(error)
}

func (c *Config) setDefaults() {
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.DedupTTL == 0 {
		c.DedupTTL = DefaultDedupTTL
	}
	if c.Logger == nil {
		c.Logger = logging.GetLogger()
	}
	if c.Dialer == nil {
		c.Dialer = &net.Dialer{}
	}
}
