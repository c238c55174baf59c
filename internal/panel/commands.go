package panel

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/omnilink/internal/message"
)

// command sends a request that the controller answers with an Acknowledge
func (c *Client) command(ctx context.Context, op string, req message.Request) error {
	msg, err := c.send(ctx, op, req)
	if err != nil {
		return err
	}
	if ack, ok := msg.(*message.Acknowledge); ok && ack.OK() {
		c.log.Debug("Command acknowledged", zap.String("op", op))
		return nil
	}
	c.log.Warn("Command rejected", zap.String("op", op), zap.Stringer("response", msg))
	return &PanelError{Type: ErrTypeRejected, Op: op, Message: fmt.Sprintf("controller answered %s", msg)}
}

// authorize validates a user code for an area and returns its code number
func (c *Client) authorize(ctx context.Context, op string, area byte, code string) (byte, error) {
	v, err := c.ValidateCode(ctx, area, code)
	if err != nil {
		return 0, err
	}
	if !v.Valid() {
		c.log.Warn("Security code rejected", zap.String("op", op), zap.Uint8("area", area))
		return 0, &PanelError{Type: ErrTypeAuthorization, Op: op, Message: fmt.Sprintf("code not valid for area %d", area)}
	}
	return v.CodeNumber, nil
}

// SetAreaMode validates the code and switches an area to mode
func (c *Client) SetAreaMode(ctx context.Context, area uint16, mode message.AreaMode, code string) error {
	op := "arm area"
	if mode == message.AreaModeOff {
		op = "disarm area"
	}
	number, err := c.authorize(ctx, op, byte(area), code)
	if err != nil {
		return err
	}
	req, err := message.SecurityMode(area, mode, number)
	if err != nil {
		return &PanelError{Type: ErrTypeRejected, Op: op, Message: err.Error()}
	}
	return c.command(ctx, op, req)
}

// Arm switches an area into an armed mode
func (c *Client) Arm(ctx context.Context, area uint16, mode message.AreaMode, code string) error {
	return c.SetAreaMode(ctx, area, mode, code)
}

// Disarm switches an area off
func (c *Client) Disarm(ctx context.Context, area uint16, code string) error {
	return c.SetAreaMode(ctx, area, message.AreaModeOff, code)
}

// zoneArea returns the area a zone belongs to, defaulting to area 1 when
// the zone was not discovered
func (c *Client) zoneArea(zone uint16) byte {
	if inv := c.Inventory(); inv != nil {
		if obj, ok := inv.Lookup(Key{Object: message.ObjectZone, ID: zone}); ok && obj.Area != 0 {
			return obj.Area
		}
	}
	return 1
}

// BypassZone bypasses a zone using a code valid for its area
func (c *Client) BypassZone(ctx context.Context, zone uint16, code string) error {
	number, err := c.authorize(ctx, "bypass zone", c.zoneArea(zone), code)
	if err != nil {
		return err
	}
	return c.command(ctx, "bypass zone", message.BypassZone(zone, number))
}

// RestoreZone clears a zone bypass
func (c *Client) RestoreZone(ctx context.Context, zone uint16, code string) error {
	number, err := c.authorize(ctx, "restore zone", c.zoneArea(zone), code)
	if err != nil {
		return err
	}
	return c.command(ctx, "restore zone", message.RestoreZone(zone, number))
}

// ExecuteButton runs a button macro
func (c *Client) ExecuteButton(ctx context.Context, button uint16) error {
	return c.command(ctx, "execute button", message.ExecuteButton(button))
}

// UnitOn turns a unit on, for d when d is non-zero
func (c *Client) UnitOn(ctx context.Context, unit uint16, d time.Duration) error {
	return c.command(ctx, "unit on", message.UnitOn(unit, durationSeconds(d)))
}

// UnitOff turns a unit off, for d when d is non-zero
func (c *Client) UnitOff(ctx context.Context, unit uint16, d time.Duration) error {
	return c.command(ctx, "unit off", message.UnitOff(unit, durationSeconds(d)))
}

// UnitLevel dims a unit to percent
func (c *Client) UnitLevel(ctx context.Context, unit uint16, percent int) error {
	if percent < 0 || percent > 100 {
		return &PanelError{Type: ErrTypeRejected, Op: "unit level", Message: fmt.Sprintf("level %d out of range 0-100", percent)}
	}
	return c.command(ctx, "unit level", message.UnitLevel(unit, byte(percent)))
}

// AllUnits switches every unit in an area; area 0 addresses the whole house
func (c *Client) AllUnits(ctx context.Context, area uint16, on bool) error {
	return c.command(ctx, "all units", message.AllUnits(area, on))
}

// SetThermostatMode sets the heating/cooling mode
func (c *Client) SetThermostatMode(ctx context.Context, thermostat uint16, mode message.ThermostatMode) error {
	return c.command(ctx, "thermostat mode", message.ThermostatSystemMode(thermostat, mode))
}

// SetHeatSetpoint sets the heat setpoint from a raw temperature
func (c *Client) SetHeatSetpoint(ctx context.Context, thermostat uint16, raw byte) error {
	return c.command(ctx, "heat setpoint", message.ThermostatHeatSetpoint(thermostat, raw))
}

// SetCoolSetpoint sets the cool setpoint from a raw temperature
func (c *Client) SetCoolSetpoint(ctx context.Context, thermostat uint16, raw byte) error {
	return c.command(ctx, "cool setpoint", message.ThermostatCoolSetpoint(thermostat, raw))
}

// SetFanMode sets the thermostat fan
func (c *Client) SetFanMode(ctx context.Context, thermostat uint16, fan message.FanMode) error {
	return c.command(ctx, "fan mode", message.ThermostatFanMode(thermostat, fan))
}

// SetHoldMode sets the thermostat hold
func (c *Client) SetHoldMode(ctx context.Context, thermostat uint16, hold message.HoldMode) error {
	return c.command(ctx, "hold mode", message.ThermostatHoldMode(thermostat, hold))
}

// Lock locks an access control door
func (c *Client) Lock(ctx context.Context, lock uint16) error {
	return c.command(ctx, "lock", message.LockDoor(lock))
}

// Unlock unlocks a door, for d when d is non-zero
func (c *Client) Unlock(ctx context.Context, lock uint16, d time.Duration) error {
	return c.command(ctx, "unlock", message.UnlockDoor(lock, durationSeconds(d)))
}

// Emergency raises a keypad emergency in an area
func (c *Client) Emergency(ctx context.Context, area byte, kind message.EmergencyType) error {
	return c.command(ctx, "emergency", message.KeypadEmergencyRequest{Area: area, Emergency: kind})
}

// SetTime sets the controller clock
func (c *Client) SetTime(ctx context.Context, t time.Time, dst bool) error {
	return c.command(ctx, "set time", message.SetTimeRequest{Time: t, DST: dst})
}

// durationSeconds clamps d to the one byte seconds field
func durationSeconds(d time.Duration) byte {
	s := d / time.Second
	switch {
	case s <= 0:
		return 0
	case s > 255:
		return 255
	}
	return byte(s)
}
