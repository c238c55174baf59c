package message

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// StatusRecord pairs an object number with its decoded status
type StatusRecord struct {
	ID     uint16
	Status ObjectStatus
}

// ExtendedStatus is the response to an ExtendedObjectStatusRequest, and also
// the body of unsolicited status notifications
type ExtendedStatus struct {
	Object       ObjectType
	RecordLength int
	Records      []StatusRecord
}

func (m *ExtendedStatus) Type() MessageType { return TypeExtendedObjectStatus }

func (m *ExtendedStatus) String() string {
	ids := make([]string, 0, len(m.Records))
	for _, r := range m.Records {
		ids = append(ids, fmt.Sprintf("%d", r.ID))
	}
	return fmt.Sprintf("ExtendedStatus{object=%s, record_len=%d, ids=[%s]}",
		m.Object, m.RecordLength, strings.Join(ids, ","))
}

// statusDecoder decodes the status bytes of one record (after the object number)
type statusDecoder func(b fieldReader) ObjectStatus

// statusDecoders is the decode table for extended status records
var statusDecoders = map[ObjectType]statusDecoder{
	ObjectZone: func(b fieldReader) ObjectStatus {
		return ZoneStatus{Status: b.at(0), Loop: b.at(1)}
	},
	ObjectUnit: func(b fieldReader) ObjectStatus {
		return UnitStatus{State: b.at(0), Time: b.word(1)}
	},
	ObjectArea: func(b fieldReader) ObjectStatus {
		return AreaStatus{RawMode: b.at(0), Alarms: b.at(1), EntryTimer: b.at(2), ExitTimer: b.at(3)}
	},
	ObjectThermostat: func(b fieldReader) ObjectStatus {
		return ThermostatStatus{
			Status:             b.at(0),
			Temperature:        b.at(1),
			HeatSetpoint:       b.at(2),
			CoolSetpoint:       b.at(3),
			Mode:               ThermostatMode(b.at(4)),
			Fan:                FanMode(b.at(5)),
			Hold:               HoldMode(b.at(6)),
			Humidity:           b.at(7),
			HumidifySetpoint:   b.at(8),
			DehumidifySetpoint: b.at(9),
			OutdoorTemperature: b.at(10),
			Activity:           b.at(11),
		}
	},
	ObjectAuxSensor: func(b fieldReader) ObjectStatus {
		return AuxSensorStatus{Output: b.at(0), Temperature: b.at(1), Low: b.at(2), High: b.at(3)}
	},
	ObjectAccessLock: func(b fieldReader) ObjectStatus {
		return LockStatus{Locked: b.at(0) != 0, UnlockTimer: b.word(1)}
	},
	ObjectAccessReader: func(b fieldReader) ObjectStatus {
		return ReaderStatus{AccessGranted: b.at(0) != 0, LastUser: b.at(1)}
	},
}

// implicitRecordLength holds record lengths that are fixed per object type
// rather than taken from the wire
var implicitRecordLength = map[ObjectType]int{
	ObjectAccessLock:   5,
	ObjectAccessReader: 4,
}

// RecordLength returns the on-wire extended status record length for an
// object type, including the two byte object number
func RecordLength(o ObjectType) int {
	if n, ok := implicitRecordLength[o]; ok {
		return n
	}
	switch o {
	case ObjectZone:
		return 4
	case ObjectUnit:
		return 5
	case ObjectArea:
		return 6
	case ObjectThermostat:
		return 14
	case ObjectAuxSensor:
		return 6
	}
	return 0
}

// parseExtendedStatus decodes an extended status payload. The object type
// must already have been checked against statusDecoders.
func parseExtendedStatus(payload []byte) (*ExtendedStatus, error) {
	if len(payload) < 5 {
		return nil, newDecodeError(TypeExtendedObjectStatus, ErrTruncated, "need 5 bytes, got %d", len(payload))
	}

	object := ObjectType(payload[3])
	decode := statusDecoders[object]

	recLen := int(payload[4])
	if n, ok := implicitRecordLength[object]; ok {
		recLen = n
	}
	if recLen < 2 {
		return nil, newDecodeError(TypeExtendedObjectStatus, ErrMalformed, "record length %d too small", recLen)
	}

	length := int(payload[1])
	count := (length - 3) / recLen
	if count < 0 {
		count = 0
	}

	msg := &ExtendedStatus{
		Object:       object,
		RecordLength: recLen,
		Records:      make([]StatusRecord, 0, count),
	}

	for i := 0; i < count; i++ {
		off := 5 + i*recLen
		if off+recLen > len(payload) {
			return nil, newDecodeError(TypeExtendedObjectStatus, ErrTruncated,
				"record %d of %d ends at %d, payload is %d bytes", i+1, count, off+recLen, len(payload))
		}
		rec := payload[off : off+recLen]
		msg.Records = append(msg.Records, StatusRecord{
			ID:     binary.BigEndian.Uint16(rec[0:2]),
			Status: decode(fieldReader(rec[2:])),
		})
	}

	return msg, nil
}

// EncodeExtendedStatus builds an extended status payload from records. It is
// the inverse of the decoder and is used to simulate controller responses.
func EncodeExtendedStatus(object ObjectType, records []StatusRecord) []byte {
	recLen := RecordLength(object)
	data := []byte{byte(object), byte(recLen)}
	for _, r := range records {
		rec := make([]byte, recLen)
		binary.BigEndian.PutUint16(rec[0:2], r.ID)
		encodeStatus(rec[2:], r.Status)
		data = append(data, rec...)
	}
	return Envelope(TypeExtendedObjectStatus, data)
}

func encodeStatus(dst []byte, status ObjectStatus) {
	put := func(i int, v byte) {
		if i < len(dst) {
			dst[i] = v
		}
	}
	put16 := func(i int, v uint16) {
		put(i, byte(v>>8))
		put(i+1, byte(v))
	}

	switch s := status.(type) {
	case ZoneStatus:
		put(0, s.Status)
		put(1, s.Loop)
	case UnitStatus:
		put(0, s.State)
		put16(1, s.Time)
	case AreaStatus:
		put(0, s.RawMode)
		put(1, s.Alarms)
		put(2, s.EntryTimer)
		put(3, s.ExitTimer)
	case ThermostatStatus:
		for i, v := range []byte{s.Status, s.Temperature, s.HeatSetpoint, s.CoolSetpoint,
			byte(s.Mode), byte(s.Fan), byte(s.Hold), s.Humidity, s.HumidifySetpoint,
			s.DehumidifySetpoint, s.OutdoorTemperature, s.Activity} {
			put(i, v)
		}
	case AuxSensorStatus:
		put(0, s.Output)
		put(1, s.Temperature)
		put(2, s.Low)
		put(3, s.High)
	case LockStatus:
		put(0, boolByte(s.Locked))
		put16(1, s.UnlockTimer)
	case ReaderStatus:
		put(0, boolByte(s.AccessGranted))
		put(1, s.LastUser)
	}
}

// fieldReader reads fixed offsets, yielding zero past the end. Records that
// are shorter than the decoder expects leave trailing fields zero.
type fieldReader []byte

func (f fieldReader) at(i int) byte {
	if i < len(f) {
		return f[i]
	}
	return 0
}

func (f fieldReader) word(i int) uint16 {
	return uint16(f.at(i))<<8 | uint16(f.at(i+1))
}

func (f fieldReader) text(off, n int) string {
	if off >= len(f) {
		return ""
	}
	end := off + n
	if end > len(f) {
		end = len(f)
	}
	raw := f[off:end]
	if i := strings.IndexByte(string(raw), 0); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(string(raw))
}
