package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/muurk/omnilink/internal/logging"
	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/protocol"
)

// exchanger performs one request/response exchange on the wire
type exchanger interface {
	// generation identifies the current connection
	generation() uint64
	// exchange fails with ErrNotConnected unless gen is still current
	exchange(ctx context.Context, gen uint64, payload []byte) (*protocol.Packet, error)
}

// Correlator serializes application requests onto a transport.
//
// slot is a one element semaphore. Blocked senders on a channel are woken in
// arrival order, which gives callers FIFO admission.
type Correlator struct {
	x     exchanger
	slot  chan struct{}
	cache *expirable.LRU[string, *protocol.Packet] // nil when dedup is disabled
	hits  *atomic.Uint64
	log   *zap.Logger
}

func newCorrelator(x exchanger, ttl time.Duration, log *zap.Logger) *Correlator {
	c := &Correlator{
		x:    x,
		slot: make(chan struct{}, 1),
		hits: atomic.NewUint64(0),
		log:  log,
	}
	if ttl > 0 {
		c.cache = expirable.NewLRU[string, *protocol.Packet](dedupCacheSize, nil, ttl)
	}
	return c
}

// Send transmits req and returns the decoded response. Requests queued
// behind a connection failure fail with ErrNotConnected rather than being
// sent on a later connection.
func (c *Correlator) Send(ctx context.Context, req message.Request) (message.Message, error) {
	payload := req.Encode()
	key := string(payload)

	if pkt, ok := c.lookup(key); ok {
		return message.Parse(pkt.Payload)
	}

	gen := c.x.generation()

	select {
	case c.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.slot }()

	// An identical request may have completed while this one was queued
	if pkt, ok := c.lookup(key); ok {
		return message.Parse(pkt.Payload)
	}

	pkt, err := c.x.exchange(ctx, gen, payload)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Add(key, pkt)
	}

	msg, err := message.Parse(pkt.Payload)
	if err != nil {
		c.log.Warn("Failed to decode response",
			zap.String("request", req.Type().String()),
			zap.Error(err),
		)
		logging.LogRawBytes(c.log, "Undecodable response", pkt.Payload)
		return nil, err
	}
	return msg, nil
}

func (c *Correlator) lookup(key string) (*protocol.Packet, bool) {
	if c.cache == nil {
		return nil, false
	}
	pkt, ok := c.cache.Get(key)
	if ok {
		c.hits.Inc()
		c.log.Debug("Answered request from dedup cache", zap.Int("seq", int(pkt.Sequence)))
	}
	return pkt, ok
}

// purge drops every cached response. Responses from one connection are
// never reused on the next.
func (c *Correlator) purge() {
	if c.cache != nil {
		c.cache.Purge()
	}
}
