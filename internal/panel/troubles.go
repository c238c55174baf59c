package panel

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/muurk/omnilink/internal/message"
)

// PollTroubles fetches the active trouble conditions. A TroubleRaised
// event is published for each condition not active at the previous poll.
func (c *Client) PollTroubles(ctx context.Context) ([]message.Trouble, error) {
	resp, err := query[*message.SystemTroubles](ctx, c, "poll troubles", message.SystemTroublesRequest)
	if err != nil {
		return nil, err
	}

	current := make(map[message.Trouble]bool, len(resp.Troubles))
	var raised []message.Trouble
	c.mu.Lock()
	for _, t := range resp.Troubles {
		current[t] = true
		if !c.troubles[t] {
			raised = append(raised, t)
		}
	}
	for t := range c.troubles {
		if !current[t] {
			c.log.Info("Trouble cleared", zap.Stringer("trouble", t))
		}
	}
	c.troubles = current
	c.mu.Unlock()

	for _, t := range raised {
		c.log.Warn("Trouble raised", zap.Stringer("trouble", t))
		c.bus.publish(TroubleRaised{Trouble: t})
	}
	return resp.Troubles, nil
}

// ActiveTroubles returns the troubles seen at the last poll
func (c *Client) ActiveTroubles() []message.Trouble {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]message.Trouble, 0, len(c.troubles))
	for t := range c.troubles {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
