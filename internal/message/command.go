package message

import (
	"encoding/binary"
	"fmt"
)

// Command is a controller command number carried in a CommandRequest
type Command byte

const (
	CmdUnitOff              Command = 0
	CmdUnitOn               Command = 1
	CmdAllOff               Command = 2
	CmdAllOn                Command = 3
	CmdBypassZone           Command = 4
	CmdRestoreZone          Command = 5
	CmdRestoreAllZones      Command = 6
	CmdExecuteButton        Command = 7
	CmdUnitLevel            Command = 9
	CmdSecurityOff          Command = 48
	CmdSecurityDay          Command = 49
	CmdSecurityNight        Command = 50
	CmdSecurityAway         Command = 51
	CmdSecurityVacation     Command = 52
	CmdSecurityDayInstant   Command = 53
	CmdSecurityNightDelayed Command = 54
	CmdThermostatHeatPoint  Command = 64
	CmdThermostatCoolPoint  Command = 65
	CmdThermostatMode       Command = 66
	CmdThermostatFan        Command = 67
	CmdThermostatHold       Command = 68
	CmdLockDoor             Command = 220
	CmdUnlockDoor           Command = 221
)

// CommandRequest issues a controller command.
// Param2 usually addresses the object number.
type CommandRequest struct {
	Command Command
	Param1  byte
	Param2  uint16
}

func (r CommandRequest) Type() MessageType { return TypeCommand }

func (r CommandRequest) Encode() []byte {
	data := []byte{byte(r.Command), r.Param1, 0, 0}
	binary.BigEndian.PutUint16(data[2:4], r.Param2)
	return Envelope(TypeCommand, data)
}

func (r CommandRequest) String() string {
	return fmt.Sprintf("Command{cmd=%d, p1=%d, p2=%d}", r.Command, r.Param1, r.Param2)
}

// UnitOn switches a unit on; seconds 0 means indefinitely
func UnitOn(unit uint16, seconds byte) CommandRequest {
	return CommandRequest{Command: CmdUnitOn, Param1: seconds, Param2: unit}
}

// UnitOff switches a unit off
func UnitOff(unit uint16, seconds byte) CommandRequest {
	return CommandRequest{Command: CmdUnitOff, Param1: seconds, Param2: unit}
}

// UnitLevel sets a dimmable unit to a brightness percentage
func UnitLevel(unit uint16, percent byte) CommandRequest {
	if percent > 100 {
		percent = 100
	}
	return CommandRequest{Command: CmdUnitLevel, Param1: percent, Param2: unit}
}

// AllUnits switches every unit in an area on or off; area 0 addresses all areas
func AllUnits(area uint16, on bool) CommandRequest {
	cmd := CmdAllOff
	if on {
		cmd = CmdAllOn
	}
	return CommandRequest{Command: cmd, Param2: area}
}

// BypassZone bypasses a zone using the validated user code number
func BypassZone(zone uint16, codeNumber byte) CommandRequest {
	return CommandRequest{Command: CmdBypassZone, Param1: codeNumber, Param2: zone}
}

// RestoreZone restores a bypassed zone
func RestoreZone(zone uint16, codeNumber byte) CommandRequest {
	return CommandRequest{Command: CmdRestoreZone, Param1: codeNumber, Param2: zone}
}

// RestoreAllZones restores all bypassed zones in an area
func RestoreAllZones(area uint16, codeNumber byte) CommandRequest {
	return CommandRequest{Command: CmdRestoreAllZones, Param1: codeNumber, Param2: area}
}

// ExecuteButton runs a programmed button macro
func ExecuteButton(button uint16) CommandRequest {
	return CommandRequest{Command: CmdExecuteButton, Param2: button}
}

// SecurityMode arms or disarms an area
func SecurityMode(area uint16, mode AreaMode, codeNumber byte) (CommandRequest, error) {
	if mode > AreaModeNightDelayed {
		return CommandRequest{}, fmt.Errorf("invalid security mode %d", mode)
	}
	return CommandRequest{Command: CmdSecurityOff + Command(mode), Param1: codeNumber, Param2: area}, nil
}

// ThermostatHeatSetpoint sets the heating setpoint from a raw temperature
func ThermostatHeatSetpoint(thermostat uint16, raw byte) CommandRequest {
	return CommandRequest{Command: CmdThermostatHeatPoint, Param1: raw, Param2: thermostat}
}

// ThermostatCoolSetpoint sets the cooling setpoint from a raw temperature
func ThermostatCoolSetpoint(thermostat uint16, raw byte) CommandRequest {
	return CommandRequest{Command: CmdThermostatCoolPoint, Param1: raw, Param2: thermostat}
}

// ThermostatSystemMode sets the thermostat operating mode
func ThermostatSystemMode(thermostat uint16, mode ThermostatMode) CommandRequest {
	return CommandRequest{Command: CmdThermostatMode, Param1: byte(mode), Param2: thermostat}
}

// ThermostatFanMode sets the thermostat fan mode
func ThermostatFanMode(thermostat uint16, fan FanMode) CommandRequest {
	return CommandRequest{Command: CmdThermostatFan, Param1: byte(fan), Param2: thermostat}
}

// ThermostatHoldMode sets the thermostat hold mode
func ThermostatHoldMode(thermostat uint16, hold HoldMode) CommandRequest {
	return CommandRequest{Command: CmdThermostatHold, Param1: byte(hold), Param2: thermostat}
}

// LockDoor locks an access control lock
func LockDoor(lock uint16) CommandRequest {
	return CommandRequest{Command: CmdLockDoor, Param2: lock}
}

// UnlockDoor unlocks an access control lock; seconds 0 means indefinitely
func UnlockDoor(lock uint16, seconds byte) CommandRequest {
	return CommandRequest{Command: CmdUnlockDoor, Param1: seconds, Param2: lock}
}
