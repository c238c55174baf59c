package panel

import (
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/omnilink/internal/protocol"
	"github.com/muurk/omnilink/internal/session"
)

// DefaultPort is the controller's Omni-Link II TCP port
const DefaultPort = 4369

// Config holds the client settings
type Config struct {
	// Address is the controller host name or IP, optionally with a port
	Address string
	Port    int

	PrivateKey protocol.Key

	// RetryInterval is the wait between failed connection attempts
	RetryInterval time.Duration

	// ConnectAttempts limits connection attempts; 0 retries forever
	ConnectAttempts int

	// PollInterval is the trouble polling period, which also keeps the
	// session from idling out
	PollInterval time.Duration

	ClockSync           bool
	ClockSyncInterval   time.Duration
	ClockDriftThreshold time.Duration

	// Notifications enables unsolicited status notifications after connecting
	Notifications bool

	DialTimeout    time.Duration
	RequestTimeout time.Duration
	DedupTTL       time.Duration

	ShowProtocolEvents bool

	Logger *zap.Logger
	Dialer session.Dialer

	// Now returns host time; used by clock synchronization
	Now func() time.Time
}

// DefaultConfig returns a Config with the standard intervals
func DefaultConfig() Config {
	return Config{
		Port:                DefaultPort,
		RetryInterval:       60 * time.Second,
		PollInterval:        60 * time.Second,
		ClockSyncInterval:   time.Hour,
		ClockDriftThreshold: 60 * time.Second,
		Notifications:       true,
		DialTimeout:         session.DefaultDialTimeout,
		RequestTimeout:      session.DefaultRequestTimeout,
		DedupTTL:            session.DefaultDedupTTL,
	}
}

// HostPort returns the dial address, adding Port when Address has none
func (c Config) HostPort() string {
	if _, _, err := net.SplitHostPort(c.Address); err == nil {
		return c.Address
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Address, strconv.Itoa(port))
}

func (c *Config) setDefaults() {
	def := DefaultConfig()
	if c.RetryInterval <= 0 {
		c.RetryInterval = def.RetryInterval
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.ClockSyncInterval <= 0 {
		c.ClockSyncInterval = def.ClockSyncInterval
	}
	if c.ClockDriftThreshold <= 0 {
		c.ClockDriftThreshold = def.ClockDriftThreshold
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}
