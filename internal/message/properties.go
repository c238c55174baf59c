package message

import (
	"encoding/binary"
	"fmt"
)

// ObjectProperties is the response to an ObjectPropertiesRequest.
// Status is nil for object types without live status (buttons, codes and
// access control objects).
type ObjectProperties struct {
	Object  ObjectType
	Number  uint16
	Name    string
	Status  ObjectStatus
	Kind    byte // Zone, unit, thermostat or sensor type
	Area    byte // Zone area or unit area mask
	Enabled bool // Areas only
}

func (m *ObjectProperties) Type() MessageType { return TypeObjectProperties }

func (m *ObjectProperties) String() string {
	return fmt.Sprintf("ObjectProperties{object=%s, number=%d, name=%q}", m.Object, m.Number, m.Name)
}

// propertyLayout describes where the name and type-specific fields live,
// as offsets relative to the first byte after the object number
type propertyLayout struct {
	nameOffset int
	nameLength int
	decode     func(f fieldReader, m *ObjectProperties)
}

var propertyDecoders = map[ObjectType]propertyLayout{
	ObjectZone: {nameOffset: 5, nameLength: 15, decode: func(f fieldReader, m *ObjectProperties) {
		m.Status = ZoneStatus{Status: f.at(0), Loop: f.at(1)}
		m.Kind = f.at(2)
		m.Area = f.at(3)
	}},
	ObjectUnit: {nameOffset: 4, nameLength: 12, decode: func(f fieldReader, m *ObjectProperties) {
		m.Status = UnitStatus{State: f.at(0), Time: f.word(1)}
		m.Kind = f.at(3)
		m.Area = f.at(17)
	}},
	ObjectButton: {nameOffset: 0, nameLength: 12},
	ObjectCode:   {nameOffset: 0, nameLength: 12},
	ObjectArea: {nameOffset: 7, nameLength: 12, decode: func(f fieldReader, m *ObjectProperties) {
		m.Status = AreaStatus{RawMode: f.at(0), Alarms: f.at(1), EntryTimer: f.at(2), ExitTimer: f.at(3)}
		m.Enabled = f.at(4) != 0
	}},
	ObjectThermostat: {nameOffset: 8, nameLength: 12, decode: func(f fieldReader, m *ObjectProperties) {
		m.Status = ThermostatStatus{
			Status:       f.at(0),
			Temperature:  f.at(1),
			HeatSetpoint: f.at(2),
			CoolSetpoint: f.at(3),
			Mode:         ThermostatMode(f.at(4)),
			Fan:          FanMode(f.at(5)),
			Hold:         HoldMode(f.at(6)),
		}
		m.Kind = f.at(7)
	}},
	ObjectAuxSensor: {nameOffset: 5, nameLength: 15, decode: func(f fieldReader, m *ObjectProperties) {
		m.Status = AuxSensorStatus{Output: f.at(0), Temperature: f.at(1), Low: f.at(2), High: f.at(3)}
		m.Kind = f.at(4)
	}},
	ObjectAccessReader: {nameOffset: 0, nameLength: 15},
	ObjectAccessLock:   {nameOffset: 0, nameLength: 15},
}

// propertyStatusLength is the number of leading status bytes in a properties body
var propertyStatusLength = map[ObjectType]int{
	ObjectZone:       2,
	ObjectUnit:       3,
	ObjectArea:       4,
	ObjectThermostat: 7,
	ObjectAuxSensor:  4,
}

func parseObjectProperties(p []byte) (*ObjectProperties, error) {
	if len(p) < 6 {
		return nil, newDecodeError(TypeObjectProperties, ErrTruncated, "need 6 bytes, got %d", len(p))
	}
	m := &ObjectProperties{
		Object: ObjectType(p[3]),
		Number: binary.BigEndian.Uint16(p[4:6]),
	}
	layout := propertyDecoders[m.Object]
	f := fieldReader(p[6:])
	if layout.decode != nil {
		layout.decode(f, m)
	}
	m.Name = f.text(layout.nameOffset, layout.nameLength)
	return m, nil
}

// EncodeObjectProperties builds an object properties payload; the inverse
// of the decoder, used to simulate controller responses
func EncodeObjectProperties(m *ObjectProperties) []byte {
	layout, ok := propertyDecoders[m.Object]
	if !ok {
		return Envelope(TypeObjectProperties, []byte{byte(m.Object), byte(m.Number >> 8), byte(m.Number)})
	}

	body := make([]byte, layout.nameOffset+layout.nameLength)
	if m.Object == ObjectUnit {
		body = make([]byte, 18)
	}
	if m.Status != nil {
		encodeStatus(body[:propertyStatusLength[m.Object]], m.Status)
	}
	switch m.Object {
	case ObjectZone:
		body[2], body[3] = m.Kind, m.Area
	case ObjectUnit:
		body[3], body[17] = m.Kind, m.Area
	case ObjectArea:
		body[4] = boolByte(m.Enabled)
	case ObjectThermostat:
		body[7] = m.Kind
	case ObjectAuxSensor:
		body[4] = m.Kind
	}
	copy(body[layout.nameOffset:layout.nameOffset+layout.nameLength], m.Name)

	data := append([]byte{byte(m.Object), byte(m.Number >> 8), byte(m.Number)}, body...)
	return Envelope(TypeObjectProperties, data)
}
