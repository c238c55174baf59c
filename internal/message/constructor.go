package message

import (
	"encoding/binary"
	"fmt"
	"time"
)

// StartChar opens every message envelope
const StartChar = 0x21

// Request is an application request that can be serialized for the wire
type Request interface {
	Type() MessageType
	Encode() []byte
}

// Envelope wraps message data in the start/length/type envelope
func Envelope(t MessageType, data []byte) []byte {
	buf := make([]byte, 3, 3+len(data))
	buf[0] = StartChar
	buf[1] = byte(1 + len(data))
	buf[2] = byte(t)
	return append(buf, data...)
}

// simpleRequest is a request with no data bytes
type simpleRequest MessageType

func (r simpleRequest) Type() MessageType { return MessageType(r) }
func (r simpleRequest) Encode() []byte    { return Envelope(MessageType(r), nil) }

// Requests without parameters
var (
	SystemInformationRequest Request = simpleRequest(TypeSystemInformationRequest)
	SystemStatusRequest      Request = simpleRequest(TypeSystemStatusRequest)
	SystemTroublesRequest    Request = simpleRequest(TypeSystemTroublesRequest)
	SystemFormatsRequest     Request = simpleRequest(TypeSystemFormatsRequest)
)

// EnableNotificationsRequest turns unsolicited status notifications on or off
type EnableNotificationsRequest struct {
	Enable bool
}

func (r EnableNotificationsRequest) Type() MessageType { return TypeEnableNotifications }

func (r EnableNotificationsRequest) Encode() []byte {
	return Envelope(TypeEnableNotifications, []byte{boolByte(r.Enable)})
}

// SetTimeRequest sets the controller clock.
// Year is sent as two digits and weekday as 1 (Monday) through 7 (Sunday).
type SetTimeRequest struct {
	Time time.Time
	DST  bool
}

func (r SetTimeRequest) Type() MessageType { return TypeSetTimeCommand }

func (r SetTimeRequest) Encode() []byte {
	t := r.Time
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return Envelope(TypeSetTimeCommand, []byte{
		byte(t.Year() % 100),
		byte(t.Month()),
		byte(t.Day()),
		byte(weekday),
		byte(t.Hour()),
		byte(t.Minute()),
		boolByte(r.DST),
	})
}

// ObjectTypeCapacitiesRequest asks how many objects of a type the controller supports
type ObjectTypeCapacitiesRequest struct {
	Object ObjectType
}

func (r ObjectTypeCapacitiesRequest) Type() MessageType { return TypeObjectTypeCapacitiesRequest }

func (r ObjectTypeCapacitiesRequest) Encode() []byte {
	return Envelope(TypeObjectTypeCapacitiesRequest, []byte{byte(r.Object)})
}

// ObjectPropertiesRequest fetches the properties of one object.
// Relative 0 addresses Index itself, 1 the next object and -1 the previous.
type ObjectPropertiesRequest struct {
	Object   ObjectType
	Index    uint16
	Relative int8
	Filter1  byte
	Filter2  byte
	Filter3  byte
}

func (r ObjectPropertiesRequest) Type() MessageType { return TypeObjectPropertiesRequest }

func (r ObjectPropertiesRequest) Encode() []byte {
	data := []byte{byte(r.Object), 0, 0, byte(r.Relative), r.Filter1, r.Filter2, r.Filter3}
	binary.BigEndian.PutUint16(data[1:3], r.Index)
	return Envelope(TypeObjectPropertiesRequest, data)
}

// ExtendedObjectStatusRequest fetches status records for an inclusive id range
type ExtendedObjectStatusRequest struct {
	Object ObjectType
	Start  uint16
	End    uint16
}

func (r ExtendedObjectStatusRequest) Type() MessageType { return TypeExtendedObjectStatusRequest }

func (r ExtendedObjectStatusRequest) Encode() []byte {
	data := make([]byte, 5)
	data[0] = byte(r.Object)
	binary.BigEndian.PutUint16(data[1:3], r.Start)
	binary.BigEndian.PutUint16(data[3:5], r.End)
	return Envelope(TypeExtendedObjectStatusRequest, data)
}

// SecurityCodeValidationRequest checks a four digit user code against an area
type SecurityCodeValidationRequest struct {
	Area byte
	Code [4]byte // Digits 0-9
}

// NewSecurityCodeValidation builds a validation request from a code string
// such as "1234"
func NewSecurityCodeValidation(area byte, code string) (SecurityCodeValidationRequest, error) {
	req := SecurityCodeValidationRequest{Area: area}
	if len(code) != 4 {
		return req, fmt.Errorf("security code must be 4 digits, got %d", len(code))
	}
	for i := 0; i < 4; i++ {
		if code[i] < '0' || code[i] > '9' {
			return req, fmt.Errorf("security code must be numeric")
		}
		req.Code[i] = code[i] - '0'
	}
	return req, nil
}

func (r SecurityCodeValidationRequest) Type() MessageType { return TypeSecurityCodeValidationReq }

func (r SecurityCodeValidationRequest) Encode() []byte {
	return Envelope(TypeSecurityCodeValidationReq, []byte{r.Area, r.Code[0], r.Code[1], r.Code[2], r.Code[3]})
}

// EmergencyType selects the alarm raised by a keypad emergency
type EmergencyType byte

const (
	EmergencyBurglary  EmergencyType = 1
	EmergencyFire      EmergencyType = 2
	EmergencyAuxiliary EmergencyType = 3
)

func (e EmergencyType) String() string {
	switch e {
	case EmergencyBurglary:
		return "burglary"
	case EmergencyFire:
		return "fire"
	case EmergencyAuxiliary:
		return "auxiliary"
	default:
		return fmt.Sprintf("emergency(%d)", byte(e))
	}
}

// KeypadEmergencyRequest raises an emergency alarm in an area
type KeypadEmergencyRequest struct {
	Area      byte
	Emergency EmergencyType
}

func (r KeypadEmergencyRequest) Type() MessageType { return TypeKeypadEmergency }

func (r KeypadEmergencyRequest) Encode() []byte {
	return Envelope(TypeKeypadEmergency, []byte{r.Area, byte(r.Emergency)})
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
