package panel

import (
	"context"
	"fmt"

	"github.com/muurk/omnilink/internal/message"
)

// maxStatusPayload is the largest extended status body addressed by the
// one byte length field
const maxStatusPayload = 255

// GetStatus returns the cached status of an object, querying the controller
// on a cache miss
func (c *Client) GetStatus(ctx context.Context, o message.ObjectType, id uint16) (message.ObjectStatus, error) {
	k := Key{Object: o, ID: id}
	if status, ok := c.cache.Get(k); ok {
		return status, nil
	}

	if err := c.queryStatus(ctx, "get status", o, id, id); err != nil {
		return nil, err
	}
	if status, ok := c.cache.Get(k); ok {
		return status, nil
	}
	return nil, &PanelError{Type: ErrTypeNotFound, Op: "get status", Message: fmt.Sprintf("no status for %s", k)}
}

// RefreshAll re-requests the full id range of every object type in the
// cache. Changes found are published like notifications.
func (c *Client) RefreshAll(ctx context.Context) error {
	for _, o := range c.cache.Types() {
		end := c.cache.MaxID(o)
		if inv := c.Inventory(); inv != nil && inv.Capacities[o] > end {
			end = inv.Capacities[o]
		}
		if err := c.queryStatus(ctx, "refresh", o, 1, end); err != nil {
			return err
		}
	}
	return nil
}

// RefreshType re-requests the status of every object of one type up to end
func (c *Client) RefreshType(ctx context.Context, o message.ObjectType, end uint16) error {
	return c.queryStatus(ctx, "refresh", o, 1, end)
}

// queryStatus requests an id range in chunks that fit one response
func (c *Client) queryStatus(ctx context.Context, op string, o message.ObjectType, start, end uint16) error {
	chunk := statusChunk(o)
	for first := int(start); first <= int(end); first += chunk {
		last := first + chunk - 1
		if last > int(end) {
			last = int(end)
		}
		msg, err := c.send(ctx, op, message.ExtendedObjectStatusRequest{
			Object: o,
			Start:  uint16(first),
			End:    uint16(last),
		})
		if err != nil {
			return err
		}

		switch msg.(type) {
		case *message.ExtendedStatus:
			// Records were applied to the cache by handleResponse
		case *message.Unsupported:
			return &PanelError{Type: ErrTypeDecode, Op: op, Message: fmt.Sprintf("%s status is not supported", o)}
		case *message.Acknowledge:
			// EndOfData: nothing in range
		default:
			return &PanelError{Type: ErrTypeDecode, Op: op, Message: fmt.Sprintf("unexpected %s", msg)}
		}
	}
	return nil
}

// statusChunk is how many records of a type fit in one response
func statusChunk(o message.ObjectType) int {
	recLen := message.RecordLength(o)
	if recLen == 0 {
		return 1
	}
	return (maxStatusPayload - 3) / recLen
}
