package message

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Parse decodes an application payload including its envelope
func Parse(payload []byte) (Message, error) {
	if len(payload) < 3 {
		return nil, newDecodeError(0, ErrTruncated, "envelope needs 3 bytes, got %d", len(payload))
	}
	if payload[0] != StartChar {
		return nil, newDecodeError(0, ErrMalformed, "start character 0x%02x", payload[0])
	}
	if int(payload[1])+2 > len(payload) {
		return nil, newDecodeError(MessageType(payload[2]), ErrTruncated,
			"length byte %d exceeds payload of %d bytes", payload[1], len(payload))
	}
	payload = payload[:2+int(payload[1])]

	t := MessageType(payload[2])
	switch t {
	case TypeAcknowledge, TypeNegativeAcknowledge, TypeEndOfData:
		return &Acknowledge{Kind: t}, nil
	case TypeSystemInformation:
		return parseSystemInformation(payload)
	case TypeSystemStatus:
		return parseSystemStatus(payload)
	case TypeSystemTroubles:
		return parseSystemTroubles(payload), nil
	case TypeSystemFormats:
		return parseSystemFormats(payload)
	case TypeObjectTypeCapacities:
		return parseCapacities(payload)
	case TypeSecurityCodeValidation:
		return parseCodeValidation(payload)
	case TypeObjectProperties:
		if len(payload) < 4 {
			return nil, newDecodeError(t, ErrTruncated, "missing object type")
		}
		object := ObjectType(payload[3])
		if _, ok := propertyDecoders[object]; !ok {
			return &Unsupported{MessageType: t, Object: object}, nil
		}
		return parseObjectProperties(payload)
	case TypeExtendedObjectStatus:
		if len(payload) < 4 {
			return nil, newDecodeError(t, ErrTruncated, "missing object type")
		}
		object := ObjectType(payload[3])
		if _, ok := statusDecoders[object]; !ok {
			return &Unsupported{MessageType: t, Object: object}, nil
		}
		return parseExtendedStatus(payload)
	default:
		return &UnknownMessage{MessageType: t, Data: append([]byte(nil), payload[3:]...)}, nil
	}
}

// Acknowledge collapses Acknowledge, NegativeAcknowledge and EndOfData
type Acknowledge struct {
	Kind MessageType
}

func (m *Acknowledge) Type() MessageType { return m.Kind }

// OK reports whether the controller accepted the request
func (m *Acknowledge) OK() bool { return m.Kind == TypeAcknowledge }

func (m *Acknowledge) String() string { return m.Kind.String() }

// Unsupported is returned for a recognized message carrying an object type
// that has no decoder
type Unsupported struct {
	MessageType MessageType
	Object      ObjectType
}

func (m *Unsupported) Type() MessageType { return m.MessageType }

func (m *Unsupported) String() string {
	return fmt.Sprintf("Unsupported{type=%s, object=%s}", m.MessageType, m.Object)
}

// UnknownMessage is the fallback for unrecognized message types
type UnknownMessage struct {
	MessageType MessageType
	Data        []byte
}

func (m *UnknownMessage) Type() MessageType { return m.MessageType }

func (m *UnknownMessage) String() string {
	return fmt.Sprintf("Unknown{type=0x%02x, len=%d}", byte(m.MessageType), len(m.Data))
}

// SystemInformation describes the controller model and firmware
type SystemInformation struct {
	Model    byte
	Major    byte
	Minor    byte
	Revision int8
	Phone    string
}

func (m *SystemInformation) Type() MessageType { return TypeSystemInformation }

// Version formats the firmware version, e.g. "4.0b" or "3.12X2"
func (m *SystemInformation) Version() string {
	v := fmt.Sprintf("%d.%d", m.Major, m.Minor)
	switch {
	case m.Revision > 0:
		v += string(rune('a' - 1 + int(m.Revision)))
	case m.Revision < 0:
		v += fmt.Sprintf("X%d", -int(m.Revision))
	}
	return v
}

// ModelName returns the marketing name of the controller model
func (m *SystemInformation) ModelName() string {
	if name, ok := modelNames[m.Model]; ok {
		return name
	}
	return fmt.Sprintf("model %d", m.Model)
}

var modelNames = map[byte]string{
	30: "HAI Omni IIe",
	16: "HAI OmniPro II",
	36: "HAI Lumina",
	37: "HAI Lumina Pro",
	38: "HAI Omni LTe",
	39: "HAI OmniPro II (v4)",
	40: "HAI Omni IIe (v4)",
}

func (m *SystemInformation) String() string {
	return fmt.Sprintf("SystemInformation{model=%s, version=%s}", m.ModelName(), m.Version())
}

func parseSystemInformation(p []byte) (*SystemInformation, error) {
	if len(p) < 7 {
		return nil, newDecodeError(TypeSystemInformation, ErrTruncated, "need 7 bytes, got %d", len(p))
	}
	f := fieldReader(p)
	return &SystemInformation{
		Model:    f.at(3),
		Major:    f.at(4),
		Minor:    f.at(5),
		Revision: int8(f.at(6)),
		Phone:    f.text(7, 25),
	}, nil
}

// AreaAlarm is an active alarm reported in the system status
type AreaAlarm struct {
	Area   byte
	Alarms byte
}

// SystemStatus carries the controller clock, daylight saving state, solar
// times and battery reading
type SystemStatus struct {
	TimeValid  bool
	Time       time.Time // Controller wall clock interpreted in time.Local
	DST        bool
	Sunrise    time.Duration // Offset from midnight
	Sunset     time.Duration
	Battery    byte
	AreaAlarms []AreaAlarm
}

func (m *SystemStatus) Type() MessageType { return TypeSystemStatus }

func (m *SystemStatus) String() string {
	return fmt.Sprintf("SystemStatus{valid=%t, time=%s, dst=%t, battery=%d}",
		m.TimeValid, m.Time.Format(time.DateTime), m.DST, m.Battery)
}

func parseSystemStatus(p []byte) (*SystemStatus, error) {
	if len(p) < 17 {
		return nil, newDecodeError(TypeSystemStatus, ErrTruncated, "need 17 bytes, got %d", len(p))
	}
	f := fieldReader(p)
	m := &SystemStatus{
		TimeValid: f.at(3) != 0,
		DST:       f.at(11) != 0,
		Sunrise:   time.Duration(f.at(12))*time.Hour + time.Duration(f.at(13))*time.Minute,
		Sunset:    time.Duration(f.at(14))*time.Hour + time.Duration(f.at(15))*time.Minute,
		Battery:   f.at(16),
	}
	if m.TimeValid {
		m.Time = time.Date(2000+int(f.at(4)), time.Month(f.at(5)), int(f.at(6)),
			int(f.at(8)), int(f.at(9)), int(f.at(10)), 0, time.Local)
	}
	for off := 17; off+1 < len(p); off += 2 {
		m.AreaAlarms = append(m.AreaAlarms, AreaAlarm{Area: p[off], Alarms: p[off+1]})
	}
	return m, nil
}

// Trouble is a system trouble condition code
type Trouble byte

const (
	TroubleFreeze      Trouble = 1
	TroubleBatteryLow  Trouble = 2
	TroubleACPower     Trouble = 3
	TroublePhoneLine   Trouble = 4
	TroubleDigitalComm Trouble = 5
	TroubleFuse        Trouble = 6
)

var troubleNames = map[Trouble]string{
	TroubleFreeze:      "freeze",
	TroubleBatteryLow:  "battery low",
	TroubleACPower:     "AC power",
	TroublePhoneLine:   "phone line",
	TroubleDigitalComm: "digital communicator",
	TroubleFuse:        "fuse",
}

func (t Trouble) String() string {
	if name, ok := troubleNames[t]; ok {
		return name
	}
	return fmt.Sprintf("trouble(%d)", byte(t))
}

// SystemTroubles lists the currently active trouble conditions
type SystemTroubles struct {
	Troubles []Trouble
}

func (m *SystemTroubles) Type() MessageType { return TypeSystemTroubles }

func (m *SystemTroubles) String() string {
	return fmt.Sprintf("SystemTroubles%v", m.Troubles)
}

func parseSystemTroubles(p []byte) *SystemTroubles {
	m := &SystemTroubles{}
	for _, b := range p[3:] {
		if b != 0 {
			m.Troubles = append(m.Troubles, Trouble(b))
		}
	}
	return m
}

// TemperatureFormat selects Fahrenheit or Celsius display on the controller
type TemperatureFormat byte

const (
	FormatFahrenheit TemperatureFormat = 1
	FormatCelsius    TemperatureFormat = 2
)

// SystemFormats carries the controller display formats
type SystemFormats struct {
	Temperature TemperatureFormat
	Time24Hour  bool
	DayFirst    bool
}

func (m *SystemFormats) Type() MessageType { return TypeSystemFormats }

func (m *SystemFormats) String() string {
	unit := "F"
	if m.Temperature == FormatCelsius {
		unit = "C"
	}
	return fmt.Sprintf("SystemFormats{temp=%s, 24h=%t, day_first=%t}", unit, m.Time24Hour, m.DayFirst)
}

func parseSystemFormats(p []byte) (*SystemFormats, error) {
	if len(p) < 6 {
		return nil, newDecodeError(TypeSystemFormats, ErrTruncated, "need 6 bytes, got %d", len(p))
	}
	return &SystemFormats{
		Temperature: TemperatureFormat(p[3]),
		Time24Hour:  p[4] == 2,
		DayFirst:    p[5] == 2,
	}, nil
}

// ObjectCapacity reports how many objects of a type the controller supports
type ObjectCapacity struct {
	Object   ObjectType
	Capacity uint16
}

func (m *ObjectCapacity) Type() MessageType { return TypeObjectTypeCapacities }

func (m *ObjectCapacity) String() string {
	return fmt.Sprintf("ObjectCapacity{object=%s, capacity=%d}", m.Object, m.Capacity)
}

func parseCapacities(p []byte) (*ObjectCapacity, error) {
	if len(p) < 6 {
		return nil, newDecodeError(TypeObjectTypeCapacities, ErrTruncated, "need 6 bytes, got %d", len(p))
	}
	return &ObjectCapacity{Object: ObjectType(p[3]), Capacity: binary.BigEndian.Uint16(p[4:6])}, nil
}

// AuthorityLevel is the privilege granted to a validated security code
type AuthorityLevel byte

const (
	AuthorityInvalid AuthorityLevel = 0
	AuthorityMaster  AuthorityLevel = 1
	AuthorityManager AuthorityLevel = 2
	AuthorityUser    AuthorityLevel = 3
)

func (a AuthorityLevel) String() string {
	switch a {
	case AuthorityInvalid:
		return "invalid"
	case AuthorityMaster:
		return "master"
	case AuthorityManager:
		return "manager"
	case AuthorityUser:
		return "user"
	default:
		return fmt.Sprintf("authority(%d)", byte(a))
	}
}

// CodeValidation is the result of a security code validation
type CodeValidation struct {
	Authority  AuthorityLevel
	CodeNumber byte
}

func (m *CodeValidation) Type() MessageType { return TypeSecurityCodeValidation }

// Valid reports whether the code was accepted for the area
func (m *CodeValidation) Valid() bool { return m.Authority != AuthorityInvalid }

func (m *CodeValidation) String() string {
	return fmt.Sprintf("CodeValidation{authority=%s, code=%d}", m.Authority, m.CodeNumber)
}

func parseCodeValidation(p []byte) (*CodeValidation, error) {
	if len(p) < 5 {
		return nil, newDecodeError(TypeSecurityCodeValidation, ErrTruncated, "need 5 bytes, got %d", len(p))
	}
	return &CodeValidation{Authority: AuthorityLevel(p[3]), CodeNumber: p[4]}, nil
}
