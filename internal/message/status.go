package message

import "fmt"

// ObjectStatus is the decoded status of a single object. Implementations are
// comparable value types, so two statuses can be compared with ==.
type ObjectStatus interface {
	ObjectType() ObjectType
	String() string
}

// ZoneCondition is the current electrical condition of a zone loop
type ZoneCondition byte

const (
	ZoneSecure   ZoneCondition = 0
	ZoneNotReady ZoneCondition = 1
	ZoneTrouble  ZoneCondition = 2
	ZoneTamper   ZoneCondition = 3
)

func (c ZoneCondition) String() string {
	switch c {
	case ZoneSecure:
		return "secure"
	case ZoneNotReady:
		return "not ready"
	case ZoneTrouble:
		return "trouble"
	default:
		return "tamper"
	}
}

// ZoneLatched is the latched alarm state of a zone
type ZoneLatched byte

const (
	ZoneLatchedSecure  ZoneLatched = 0
	ZoneLatchedTripped ZoneLatched = 1
	ZoneLatchedReset   ZoneLatched = 2
)

// ZoneArming is the arming state of a zone
type ZoneArming byte

const (
	ZoneDisarmed     ZoneArming = 0
	ZoneArmed        ZoneArming = 1
	ZoneUserBypass   ZoneArming = 2
	ZoneSystemBypass ZoneArming = 3
)

// ZoneStatus wraps the zone status byte and loop reading.
//
//	bits 0-1  current condition
//	bits 2-3  latched alarm
//	bits 4-5  arming state
//	bit  6    had trouble
type ZoneStatus struct {
	Status byte
	Loop   byte
}

func (ZoneStatus) ObjectType() ObjectType { return ObjectZone }

func (s ZoneStatus) Condition() ZoneCondition { return ZoneCondition(s.Status & 0x03) }
func (s ZoneStatus) Latched() ZoneLatched     { return ZoneLatched((s.Status >> 2) & 0x03) }
func (s ZoneStatus) Arming() ZoneArming       { return ZoneArming((s.Status >> 4) & 0x03) }
func (s ZoneStatus) HadTrouble() bool         { return s.Status&0x40 != 0 }

// Ready reports whether the zone is secure and can be armed
func (s ZoneStatus) Ready() bool { return s.Condition() == ZoneSecure }

// Bypassed reports whether the zone is bypassed by a user or the system
func (s ZoneStatus) Bypassed() bool {
	a := s.Arming()
	return a == ZoneUserBypass || a == ZoneSystemBypass
}

// Tripped reports whether the zone has latched an alarm
func (s ZoneStatus) Tripped() bool { return s.Latched() == ZoneLatchedTripped }

func (s ZoneStatus) String() string {
	return fmt.Sprintf("Zone{condition=%s, latched=%d, arming=%d, loop=%d}",
		s.Condition(), s.Latched(), s.Arming(), s.Loop)
}

// UnitStatus is the state of a unit (light, relay or output).
// State 0 is off, 1 is on and 100-200 encodes a brightness level of 0-100%.
type UnitStatus struct {
	State byte
	Time  uint16 // Seconds remaining on a timed command
}

func (UnitStatus) ObjectType() ObjectType { return ObjectUnit }

// On reports whether the unit is on at any level
func (s UnitStatus) On() bool {
	if s.State >= 100 && s.State <= 200 {
		return s.State > 100
	}
	return s.State != 0
}

// Level returns the brightness percentage, 100 for a plain "on" and 0 for off
func (s UnitStatus) Level() int {
	switch {
	case s.State >= 100 && s.State <= 200:
		return int(s.State) - 100
	case s.State == 0:
		return 0
	default:
		return 100
	}
}

func (s UnitStatus) String() string {
	return fmt.Sprintf("Unit{on=%t, level=%d, time=%d}", s.On(), s.Level(), s.Time)
}

// AreaMode is the security mode of an area
type AreaMode byte

const (
	AreaModeOff          AreaMode = 0
	AreaModeDay          AreaMode = 1
	AreaModeNight        AreaMode = 2
	AreaModeAway         AreaMode = 3
	AreaModeVacation     AreaMode = 4
	AreaModeDayInstant   AreaMode = 5
	AreaModeNightDelayed AreaMode = 6
)

var areaModeNames = []string{"off", "day", "night", "away", "vacation", "day instant", "night delayed"}

func (m AreaMode) String() string {
	if int(m) < len(areaModeNames) {
		return areaModeNames[m]
	}
	return fmt.Sprintf("mode(%d)", byte(m))
}

// ParseAreaMode resolves a mode name as printed by String
func ParseAreaMode(name string) (AreaMode, error) {
	for i, n := range areaModeNames {
		if n == name {
			return AreaMode(i), nil
		}
	}
	if name == "disarm" || name == "disarmed" {
		return AreaModeOff, nil
	}
	return 0, fmt.Errorf("unknown area mode %q", name)
}

// Area alarm bits
const (
	AlarmBurglary byte = 1 << iota
	AlarmFire
	AlarmGas
	AlarmAuxiliary
	AlarmFreeze
	AlarmWater
	AlarmDuress
	AlarmTemperature
)

// AreaStatus is the security state of an area. Modes 9-14 indicate that the
// area is arming into mode-8.
type AreaStatus struct {
	RawMode    byte
	Alarms     byte
	EntryTimer byte
	ExitTimer  byte
}

func (AreaStatus) ObjectType() ObjectType { return ObjectArea }

// Mode returns the current or pending security mode
func (s AreaStatus) Mode() AreaMode {
	if s.RawMode >= 9 && s.RawMode <= 14 {
		return AreaMode(s.RawMode - 8)
	}
	return AreaMode(s.RawMode)
}

// Arming reports whether an exit delay is running
func (s AreaStatus) Arming() bool { return s.RawMode >= 9 && s.RawMode <= 14 }

// Armed reports whether the area is in any mode other than off
func (s AreaStatus) Armed() bool { return s.RawMode != 0 && !s.Arming() }

// InAlarm reports whether any alarm bit is set
func (s AreaStatus) InAlarm() bool { return s.Alarms != 0 }

func (s AreaStatus) String() string {
	return fmt.Sprintf("Area{mode=%s, arming=%t, alarms=0x%02x, entry=%d, exit=%d}",
		s.Mode(), s.Arming(), s.Alarms, s.EntryTimer, s.ExitTimer)
}

// ThermostatMode is the thermostat system mode
type ThermostatMode byte

const (
	ThermostatOff           ThermostatMode = 0
	ThermostatHeat          ThermostatMode = 1
	ThermostatCool          ThermostatMode = 2
	ThermostatAuto          ThermostatMode = 3
	ThermostatEmergencyHeat ThermostatMode = 4
)

var thermostatModeNames = []string{"off", "heat", "cool", "auto", "emergency heat"}

func (m ThermostatMode) String() string {
	if int(m) < len(thermostatModeNames) {
		return thermostatModeNames[m]
	}
	return fmt.Sprintf("mode(%d)", byte(m))
}

// ParseThermostatMode resolves a mode name as printed by String
func ParseThermostatMode(name string) (ThermostatMode, error) {
	for i, n := range thermostatModeNames {
		if n == name {
			return ThermostatMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown thermostat mode %q", name)
}

// FanMode is the thermostat fan mode
type FanMode byte

const (
	FanAuto  FanMode = 0
	FanOn    FanMode = 1
	FanCycle FanMode = 2
)

func (f FanMode) String() string {
	switch f {
	case FanAuto:
		return "auto"
	case FanOn:
		return "on"
	case FanCycle:
		return "cycle"
	default:
		return fmt.Sprintf("fan(%d)", byte(f))
	}
}

// HoldMode is the thermostat hold mode
type HoldMode byte

const (
	HoldOff      HoldMode = 0
	HoldOn       HoldMode = 1
	HoldVacation HoldMode = 2
)

func (h HoldMode) String() string {
	switch h {
	case HoldOff:
		return "off"
	case HoldOn:
		return "hold"
	case HoldVacation:
		return "vacation"
	default:
		// Older firmware reports 0xFF for hold
		return "hold"
	}
}

// ThermostatStatus is the state of a thermostat. Temperatures are raw
// controller values; see Celsius and Fahrenheit.
type ThermostatStatus struct {
	Status             byte // bit 0: communicating, bit 1: freeze alarm
	Temperature        byte
	HeatSetpoint       byte
	CoolSetpoint       byte
	Mode               ThermostatMode
	Fan                FanMode
	Hold               HoldMode
	Humidity           byte
	HumidifySetpoint   byte
	DehumidifySetpoint byte
	OutdoorTemperature byte
	Activity           byte // bit 0: heating, bit 1: cooling, bit 2: humidifying, bit 3: dehumidifying
}

func (ThermostatStatus) ObjectType() ObjectType { return ObjectThermostat }

// Communicating reports whether the controller can reach the thermostat
func (s ThermostatStatus) Communicating() bool { return s.Status&0x01 != 0 }

// Heating reports whether the heat stage is active
func (s ThermostatStatus) Heating() bool { return s.Activity&0x01 != 0 }

// Cooling reports whether the cool stage is active
func (s ThermostatStatus) Cooling() bool { return s.Activity&0x02 != 0 }

func (s ThermostatStatus) String() string {
	return fmt.Sprintf("Thermostat{temp=%.1fC, heat=%.1fC, cool=%.1fC, mode=%s, fan=%s, hold=%s}",
		Celsius(s.Temperature), Celsius(s.HeatSetpoint), Celsius(s.CoolSetpoint), s.Mode, s.Fan, s.Hold)
}

// AuxSensorStatus is the state of an auxiliary temperature or humidity sensor
type AuxSensorStatus struct {
	Output      byte
	Temperature byte
	Low         byte
	High        byte
}

func (AuxSensorStatus) ObjectType() ObjectType { return ObjectAuxSensor }

func (s AuxSensorStatus) String() string {
	return fmt.Sprintf("AuxSensor{temp=%.1fC, low=%.1fC, high=%.1fC, output=%d}",
		Celsius(s.Temperature), Celsius(s.Low), Celsius(s.High), s.Output)
}

// LockStatus is the state of an access control lock
type LockStatus struct {
	Locked      bool
	UnlockTimer uint16 // Seconds until relock
}

func (LockStatus) ObjectType() ObjectType { return ObjectAccessLock }

func (s LockStatus) String() string {
	return fmt.Sprintf("Lock{locked=%t, unlock_timer=%d}", s.Locked, s.UnlockTimer)
}

// ReaderStatus is the state of an access control reader
type ReaderStatus struct {
	AccessGranted bool
	LastUser      byte
}

func (ReaderStatus) ObjectType() ObjectType { return ObjectAccessReader }

func (s ReaderStatus) String() string {
	return fmt.Sprintf("Reader{granted=%t, last_user=%d}", s.AccessGranted, s.LastUser)
}
