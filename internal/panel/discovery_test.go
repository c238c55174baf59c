package panel

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/pion/transport/v3/test"

	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/panel/paneltest"
)

func newDiscoveryPanel() *paneltest.Panel {
	p := paneltest.New(testKey)
	p.AddObject(message.ObjectZone, 1, paneltest.Object{Name: "FRONT DOOR", Status: message.ZoneStatus{Loop: 0xFD}, Area: 1})
	p.AddObject(message.ObjectZone, 3, paneltest.Object{Name: "GARAGE", Status: message.ZoneStatus{Status: 0x01}, Area: 2})
	p.SetCapacity(message.ObjectZone, 4)
	p.AddObject(message.ObjectUnit, 2, paneltest.Object{Name: "PORCH", Status: message.UnitStatus{State: 1}})
	p.AddObject(message.ObjectArea, 1, paneltest.Object{Status: message.AreaStatus{}, Enabled: true})
	p.AddObject(message.ObjectArea, 2, paneltest.Object{Status: message.AreaStatus{}, Enabled: false})
	p.AddObject(message.ObjectButton, 1, paneltest.Object{Name: "ALL OFF"})
	return p
}

func TestDiscover(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	p := newDiscoveryPanel()
	c := newTestClient(t, p, nil)
	connect(t, c)

	events, cancel := c.Subscribe(StatusEvents)
	defer cancel()

	inv, err := c.Discover(context.Background(), nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if c.Inventory() != inv {
		t.Error("Inventory() does not return the discovery result")
	}

	tests := []struct {
		object   message.ObjectType
		capacity uint16
		ids      []uint16
	}{
		{message.ObjectZone, 4, []uint16{1, 3}},
		{message.ObjectUnit, 2, []uint16{2}},
		{message.ObjectArea, 2, []uint16{1}},
		{message.ObjectButton, 1, []uint16{1}},
		{message.ObjectThermostat, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.object.String(), func(t *testing.T) {
			if got := inv.Capacities[tt.object]; got != tt.capacity {
				t.Errorf("capacity = %d, want %d", got, tt.capacity)
			}
			objs := inv.Objects[tt.object]
			if len(objs) != len(tt.ids) {
				t.Fatalf("objects = %+v, want ids %v", objs, tt.ids)
			}
			for i, id := range tt.ids {
				if objs[i].ID != id {
					t.Errorf("object %d id = %d, want %d", i, objs[i].ID, id)
				}
			}
		})
	}

	garage, ok := inv.Lookup(Key{Object: message.ObjectZone, ID: 3})
	if !ok || garage.Name != "GARAGE" || garage.Area != 2 {
		t.Errorf("Lookup(zone 3) = %+v, %t", garage, ok)
	}
	if _, ok := inv.Find(message.ObjectUnit, "PORCH"); !ok {
		t.Error("Find(unit, PORCH) not found")
	}
	if inv.Count(message.ObjectZone) != 2 {
		t.Errorf("Count(zone) = %d", inv.Count(message.ObjectZone))
	}

	// Discovery seeds the cache for named objects only
	if status, ok := c.Cache().Get(Key{Object: message.ObjectZone, ID: 3}); !ok || status != (message.ZoneStatus{Status: 0x01}) {
		t.Errorf("cached zone 3 = %v, %t", status, ok)
	}
	if _, ok := c.Cache().Get(Key{Object: message.ObjectZone, ID: 2}); ok {
		t.Error("unnamed zone 2 was cached")
	}

	select {
	case e := <-events:
		t.Errorf("discovery published %#v", e)
	default:
	}
}

func TestDiscoverKnownIDs(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	p := newDiscoveryPanel()
	c := newTestClient(t, p, nil)
	connect(t, c)

	inv, err := c.Discover(context.Background(), map[message.ObjectType][]uint16{
		message.ObjectZone: {3, 9},
	})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	zones := inv.Objects[message.ObjectZone]
	if len(zones) != 1 || zones[0].ID != 3 {
		t.Errorf("zones = %+v, want only zone 3", zones)
	}
	for _, req := range p.Requests() {
		if message.MessageType(req[2]) != message.TypeObjectPropertiesRequest || message.ObjectType(req[3]) != message.ObjectZone {
			continue
		}
		if id := binary.BigEndian.Uint16(req[4:6]); id != 3 {
			t.Errorf("properties requested for zone %d", id)
		}
	}
}

func TestGetStatus(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	p := newDiscoveryPanel()
	c := newTestClient(t, p, nil)
	connect(t, c)

	status, err := c.GetStatus(context.Background(), message.ObjectUnit, 2)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status != (message.UnitStatus{State: 1}) {
		t.Errorf("GetStatus() = %v", status)
	}
	if _, err := c.GetStatus(context.Background(), message.ObjectUnit, 2); err != nil {
		t.Fatalf("second GetStatus() error = %v", err)
	}
	if n := p.RequestCount(message.TypeExtendedObjectStatusRequest); n != 1 {
		t.Errorf("status requests = %d, want 1 (second read from cache)", n)
	}

	if _, err := c.GetStatus(context.Background(), message.ObjectZone, 2); !IsNotFound(err) {
		t.Errorf("GetStatus(unused zone) error = %v, want not found", err)
	}
	if _, err := c.GetStatus(context.Background(), message.ObjectButton, 1); !IsDecodeError(err) {
		t.Errorf("GetStatus(button) error = %v, want decode error", err)
	}
}

func TestRefreshChunksRanges(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	p := paneltest.New(testKey)
	for id := uint16(1); id <= 40; id++ {
		p.AddObject(message.ObjectThermostat, id, paneltest.Object{Name: "STAT", Status: message.ThermostatStatus{Temperature: byte(100 + id)}})
	}
	c := newTestClient(t, p, nil)
	connect(t, c)

	if err := c.RefreshType(context.Background(), message.ObjectThermostat, 40); err != nil {
		t.Fatalf("RefreshType() error = %v", err)
	}

	var ranges [][2]uint16
	for _, req := range p.Requests() {
		if message.MessageType(req[2]) == message.TypeExtendedObjectStatusRequest {
			ranges = append(ranges, [2]uint16{binary.BigEndian.Uint16(req[4:6]), binary.BigEndian.Uint16(req[6:8])})
		}
	}
	want := [][2]uint16{{1, 18}, {19, 36}, {37, 40}}
	if len(ranges) != len(want) {
		t.Fatalf("ranges = %v, want %v", ranges, want)
	}
	for i := range want {
		if ranges[i] != want[i] {
			t.Errorf("range %d = %v, want %v", i, ranges[i], want[i])
		}
	}

	if got := len(c.Cache().Snapshot(message.ObjectThermostat)); got != 40 {
		t.Errorf("cached thermostats = %d, want 40", got)
	}
}

func TestStatusChunk(t *testing.T) {
	tests := []struct {
		object message.ObjectType
		want   int
	}{
		{message.ObjectZone, 63},
		{message.ObjectUnit, 50},
		{message.ObjectThermostat, 18},
		{message.ObjectButton, 1},
	}
	for _, tt := range tests {
		if got := statusChunk(tt.object); got != tt.want {
			t.Errorf("statusChunk(%s) = %d, want %d", tt.object, got, tt.want)
		}
	}
}

func TestDiscoverObjects(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	p := newDiscoveryPanel()
	c := newTestClient(t, p, nil)
	connect(t, c)

	inv, err := c.DiscoverObjects(context.Background(), message.ObjectUnit)
	if err != nil {
		t.Fatalf("DiscoverObjects() error = %v", err)
	}
	if n := p.RequestCount(message.TypeObjectTypeCapacitiesRequest); n != 1 {
		t.Errorf("capacity requests = %d, want 1", n)
	}
	if inv.Count(message.ObjectUnit) != 1 || inv.Count(message.ObjectZone) != 0 {
		t.Errorf("inventory = %+v", inv.Objects)
	}
}

func TestDiscoverObjectsMergesInventory(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	p := newDiscoveryPanel()
	c := newTestClient(t, p, nil)
	connect(t, c)

	first, err := c.Discover(context.Background(), nil)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	inv, err := c.DiscoverObjects(context.Background(), message.ObjectZone)
	if err != nil {
		t.Fatalf("DiscoverObjects() error = %v", err)
	}

	if inv.Count(message.ObjectZone) != 2 {
		t.Errorf("zones = %d, want 2", inv.Count(message.ObjectZone))
	}
	if inv.Count(message.ObjectUnit) != 1 || inv.Count(message.ObjectArea) != 1 || inv.Count(message.ObjectButton) != 1 {
		t.Errorf("other types lost: %+v", inv.Objects)
	}
	if inv.Capacities[message.ObjectUnit] != first.Capacities[message.ObjectUnit] {
		t.Errorf("unit capacity = %d, want %d", inv.Capacities[message.ObjectUnit], first.Capacities[message.ObjectUnit])
	}
	if c.Inventory() != inv {
		t.Error("Inventory() does not return the merged result")
	}
	if _, ok := c.Inventory().Find(message.ObjectUnit, "PORCH"); !ok {
		t.Error("PORCH missing after zone rediscovery")
	}
}
