package panel

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/muurk/omnilink/internal/message"
)

// AllObjectTypes are the object types walked by Discover
var AllObjectTypes = []message.ObjectType{
	message.ObjectZone,
	message.ObjectUnit,
	message.ObjectButton,
	message.ObjectCode,
	message.ObjectArea,
	message.ObjectThermostat,
	message.ObjectAuxSensor,
	message.ObjectAccessReader,
	message.ObjectAccessLock,
}

// Object is a named controller object
type Object struct {
	Key
	Name    string
	Kind    byte // Zone, unit, thermostat or sensor type
	Area    byte
	Enabled bool
}

// Inventory is the result of discovery
type Inventory struct {
	Capacities map[message.ObjectType]uint16
	Objects    map[message.ObjectType][]Object // Sorted by id
}

func newInventory() *Inventory {
	return &Inventory{
		Capacities: make(map[message.ObjectType]uint16),
		Objects:    make(map[message.ObjectType][]Object),
	}
}

// Lookup finds an object by type and id
func (inv *Inventory) Lookup(k Key) (Object, bool) {
	for _, obj := range inv.Objects[k.Object] {
		if obj.ID == k.ID {
			return obj, true
		}
	}
	return Object{}, false
}

// Find returns the first object of a type with the given name
func (inv *Inventory) Find(o message.ObjectType, name string) (Object, bool) {
	for _, obj := range inv.Objects[o] {
		if obj.Name == name {
			return obj, true
		}
	}
	return Object{}, false
}

// Count returns the number of discovered objects of a type
func (inv *Inventory) Count(o message.ObjectType) int {
	return len(inv.Objects[o])
}

// keep applies the discovery filter: unnamed objects are dropped, except
// areas, which are kept when enabled
func keep(p *message.ObjectProperties) bool {
	if p.Name != "" {
		return true
	}
	return p.Object == message.ObjectArea && p.Enabled
}

// Discover queries the capacity of every object type and the properties of
// each id in range. known, when it has an entry for a type, restricts the
// ids queried for that type. Discovered statuses seed the cache without
// publishing events.
func (c *Client) Discover(ctx context.Context, known map[message.ObjectType][]uint16) (*Inventory, error) {
	return c.discover(ctx, AllObjectTypes, known)
}

// DiscoverObjects runs discovery for the given object types only. Types
// not listed keep what earlier discovery found.
func (c *Client) DiscoverObjects(ctx context.Context, types ...message.ObjectType) (*Inventory, error) {
	return c.discover(ctx, types, nil)
}

func (c *Client) discover(ctx context.Context, types []message.ObjectType, known map[message.ObjectType][]uint16) (*Inventory, error) {
	inv := newInventory()

	for _, o := range types {
		msg, err := c.send(ctx, "discover", message.ObjectTypeCapacitiesRequest{Object: o})
		if err != nil {
			return nil, err
		}
		capacity, ok := msg.(*message.ObjectCapacity)
		if !ok {
			c.log.Debug("Object type not supported by controller", zap.String("object", o.String()))
			continue
		}
		inv.Capacities[o] = capacity.Capacity

		ids, restricted := known[o]
		if !restricted {
			ids = make([]uint16, 0, capacity.Capacity)
			for id := uint16(1); id <= capacity.Capacity && id != 0; id++ {
				ids = append(ids, id)
			}
		}

		for _, id := range ids {
			if id == 0 || id > capacity.Capacity {
				continue
			}
			obj, err := c.properties(ctx, o, id)
			if err != nil {
				if IsDecodeError(err) {
					continue
				}
				return nil, err
			}
			if obj != nil {
				inv.Objects[o] = append(inv.Objects[o], *obj)
			}
		}
		sort.Slice(inv.Objects[o], func(i, j int) bool { return inv.Objects[o][i].ID < inv.Objects[o][j].ID })

		c.log.Info("Discovered objects",
			zap.String("object", o.String()),
			zap.Uint16("capacity", capacity.Capacity),
			zap.Int("named", len(inv.Objects[o])),
		)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inventory = c.inventory.merge(inv)
	return c.inventory, nil
}

// merge returns a new inventory holding inv with every type present in
// update replaced. inv is not modified, so earlier results stay valid.
func (inv *Inventory) merge(update *Inventory) *Inventory {
	out := newInventory()
	if inv != nil {
		for o, n := range inv.Capacities {
			out.Capacities[o] = n
		}
		for o, objs := range inv.Objects {
			out.Objects[o] = objs
		}
	}
	for o, n := range update.Capacities {
		out.Capacities[o] = n
		if objs := update.Objects[o]; len(objs) > 0 {
			out.Objects[o] = objs
		} else {
			delete(out.Objects, o)
		}
	}
	return out
}

// properties fetches one object; nil means the slot is unused
func (c *Client) properties(ctx context.Context, o message.ObjectType, id uint16) (*Object, error) {
	msg, err := c.send(ctx, "discover", message.ObjectPropertiesRequest{Object: o, Index: id})
	if err != nil {
		return nil, err
	}

	switch m := msg.(type) {
	case *message.ObjectProperties:
		// Status was seeded by handleResponse
		if !keep(m) {
			return nil, nil
		}
		return &Object{
			Key:     Key{Object: o, ID: m.Number},
			Name:    m.Name,
			Kind:    m.Kind,
			Area:    m.Area,
			Enabled: m.Enabled,
		}, nil
	case *message.Acknowledge:
		return nil, nil
	case *message.Unsupported:
		c.log.Debug("Unsupported object type in properties", zap.String("object", m.Object.String()))
		return nil, nil
	default:
		return nil, &PanelError{Type: ErrTypeDecode, Op: "discover", Message: fmt.Sprintf("unexpected %s", msg)}
	}
}

// Inventory returns everything discovered so far, or nil before Discover
func (c *Client) Inventory() *Inventory {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inventory
}
