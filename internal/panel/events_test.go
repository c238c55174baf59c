package panel

import (
	"testing"

	"go.uber.org/zap"

	"github.com/muurk/omnilink/internal/message"
)

func TestEventBusFilters(t *testing.T) {
	bus := newEventBus(zap.NewNop())
	zone1 := Key{Object: message.ObjectZone, ID: 1}
	unit1 := Key{Object: message.ObjectUnit, ID: 1}

	zones, cancelZones := bus.subscribe(ForObject(message.ObjectZone))
	defer cancelZones()
	one, cancelOne := bus.subscribe(ForKey(unit1))
	defer cancelOne()
	status, cancelStatus := bus.subscribe(StatusEvents)
	defer cancelStatus()
	all, cancelAll := bus.subscribe(nil)
	defer cancelAll()

	bus.publish(StatusChanged{Key: unit1, New: message.UnitStatus{State: 1}})
	bus.publish(StatusChanged{Key: zone1, New: message.ZoneStatus{}})
	bus.publish(ConnectionChanged{Connected: true})

	tests := []struct {
		name string
		ch   <-chan Event
		want int
	}{
		{"ForObject", zones, 1},
		{"ForKey", one, 1},
		{"StatusEvents", status, 2},
		{"all", all, 3},
	}
	for _, tt := range tests {
		if got := len(tt.ch); got != tt.want {
			t.Errorf("%s received %d events, want %d", tt.name, got, tt.want)
		}
	}

	if e := (<-zones).(StatusChanged); e.Key != zone1 {
		t.Errorf("ForObject delivered %s", e.Key)
	}
}

func TestEventBusDropsWhenFull(t *testing.T) {
	bus := newEventBus(zap.NewNop())
	ch, cancel := bus.subscribe(nil)
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		bus.publish(TroubleRaised{Trouble: message.TroubleFreeze})
	}
	if len(ch) != subscriberBuffer {
		t.Errorf("buffered = %d, want %d", len(ch), subscriberBuffer)
	}
}

func TestEventBusCancelAndClose(t *testing.T) {
	bus := newEventBus(zap.NewNop())

	ch, cancel := bus.subscribe(nil)
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel open after cancel")
	}
	cancel()

	open, _ := bus.subscribe(nil)
	bus.close()
	if _, ok := <-open; ok {
		t.Error("channel open after close")
	}

	late, _ := bus.subscribe(nil)
	if _, ok := <-late; ok {
		t.Error("subscription after close is open")
	}
	bus.publish(ConnectionChanged{})
}

func TestKeyString(t *testing.T) {
	k := Key{Object: message.ObjectZone, ID: 12}
	if got, want := k.String(), message.ObjectZone.String()+" 12"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
