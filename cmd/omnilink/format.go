package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/panel"
	"github.com/muurk/omnilink/internal/ui"
)

// temperature formats a raw temperature in the controller display unit
func temperature(raw byte, f message.TemperatureFormat) string {
	if raw == 0 {
		return "--"
	}
	if f == message.FormatCelsius {
		return fmt.Sprintf("%.1f°C", message.Celsius(raw))
	}
	return fmt.Sprintf("%.0f°F", message.Fahrenheit(raw))
}

// describe renders one object status as a state, severity and detail
func describe(status message.ObjectStatus, f message.TemperatureFormat) (string, ui.Level, string) {
	switch s := status.(type) {
	case message.ZoneStatus:
		var notes []string
		if s.Bypassed() {
			notes = append(notes, "bypassed")
		}
		if s.Tripped() {
			notes = append(notes, "tripped")
		}
		if s.HadTrouble() {
			notes = append(notes, "had trouble")
		}
		notes = append(notes, fmt.Sprintf("loop %d", s.Loop))
		level := ui.LevelNormal
		switch {
		case s.Tripped() || s.Condition() == message.ZoneTamper:
			level = ui.LevelAlert
		case !s.Ready() || s.Bypassed():
			level = ui.LevelNotice
		}
		return s.Condition().String(), level, strings.Join(notes, ", ")

	case message.UnitStatus:
		detail := ""
		if s.Time > 0 {
			detail = fmt.Sprintf("%ds remaining", s.Time)
		}
		switch {
		case !s.On():
			return "off", ui.LevelInactive, detail
		case s.Level() < 100:
			return fmt.Sprintf("on %d%%", s.Level()), ui.LevelNormal, detail
		default:
			return "on", ui.LevelNormal, detail
		}

	case message.AreaStatus:
		state := s.Mode().String()
		if s.Arming() {
			state = "arming " + state
		}
		switch {
		case s.InAlarm():
			return state, ui.LevelAlert, alarmNames(s.Alarms)
		case s.Armed():
			return state, ui.LevelNotice, ""
		default:
			return state, ui.LevelNormal, ""
		}

	case message.ThermostatStatus:
		if !s.Communicating() {
			return "not communicating", ui.LevelAlert, ""
		}
		detail := fmt.Sprintf("%s, heat %s, cool %s, fan %s",
			s.Mode, temperature(s.HeatSetpoint, f), temperature(s.CoolSetpoint, f), s.Fan)
		if s.Hold != message.HoldOff {
			detail += ", " + s.Hold.String()
		}
		return temperature(s.Temperature, f), ui.LevelNormal, detail

	case message.AuxSensorStatus:
		return temperature(s.Temperature, f), ui.LevelNormal,
			fmt.Sprintf("low %s, high %s", temperature(s.Low, f), temperature(s.High, f))

	case message.LockStatus:
		if s.Locked {
			return "locked", ui.LevelNormal, ""
		}
		detail := ""
		if s.UnlockTimer > 0 {
			detail = fmt.Sprintf("relocks in %ds", s.UnlockTimer)
		}
		return "unlocked", ui.LevelNotice, detail

	case message.ReaderStatus:
		if s.AccessGranted {
			return "granted", ui.LevelNormal, fmt.Sprintf("user %d", s.LastUser)
		}
		return "idle", ui.LevelInactive, ""
	}
	return status.String(), ui.LevelNormal, ""
}

var alarmBits = []struct {
	bit  byte
	name string
}{
	{message.AlarmBurglary, "burglary"},
	{message.AlarmFire, "fire"},
	{message.AlarmGas, "gas"},
	{message.AlarmAuxiliary, "auxiliary"},
	{message.AlarmFreeze, "freeze"},
	{message.AlarmWater, "water"},
	{message.AlarmDuress, "duress"},
	{message.AlarmTemperature, "temperature"},
}

func alarmNames(alarms byte) string {
	var names []string
	for _, a := range alarmBits {
		if alarms&a.bit != 0 {
			names = append(names, a.name)
		}
	}
	return strings.Join(names, ", ") + " alarm"
}

// objectName returns the discovered name, or a generated one for unnamed
// objects such as enabled areas
func objectName(inv *panel.Inventory, k panel.Key) string {
	if inv != nil {
		if obj, ok := inv.Lookup(k); ok && obj.Name != "" {
			return obj.Name
		}
	}
	name := k.Object.String()
	return strings.ToUpper(name[:1]) + name[1:] + fmt.Sprintf(" %d", k.ID)
}

// statusRows builds table rows for every cached object of a type
func statusRows(c *panel.Client, o message.ObjectType, f message.TemperatureFormat) []ui.Row {
	inv := c.Inventory()
	snapshot := c.Cache().Snapshot(o)

	rows := make([]ui.Row, 0, len(snapshot))
	for id, status := range snapshot {
		state, level, detail := describe(status, f)
		rows = append(rows, ui.Row{
			ID:     id,
			Name:   objectName(inv, panel.Key{Object: o, ID: id}),
			State:  state,
			Level:  level,
			Detail: detail,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

// describeEvent renders an event as one monitor line
func describeEvent(e panel.Event, inv *panel.Inventory, f message.TemperatureFormat) (string, ui.Level) {
	switch ev := e.(type) {
	case panel.StatusChanged:
		state, level, detail := describe(ev.New, f)
		line := fmt.Sprintf("%s: %s", objectName(inv, ev.Key), state)
		if ev.Old != nil {
			old, _, _ := describe(ev.Old, f)
			if old != state {
				line = fmt.Sprintf("%s: %s → %s", objectName(inv, ev.Key), old, state)
			}
		}
		if detail != "" {
			line += " (" + detail + ")"
		}
		return line, level
	case panel.TroubleRaised:
		return "Trouble: " + ev.Trouble.String(), ui.LevelAlert
	case panel.ConnectionChanged:
		if ev.Connected {
			return "Connected", ui.LevelNormal
		}
		if ev.Err != nil {
			return "Connection lost: " + panel.ShortMessage(ev.Err), ui.LevelAlert
		}
		return "Connection lost", ui.LevelAlert
	}
	return fmt.Sprintf("%T", e), ui.LevelNormal
}
