package message

import "fmt"

// MessageType is the application message type byte
type MessageType byte

const (
	TypeAcknowledge                 MessageType = 0x01
	TypeNegativeAcknowledge         MessageType = 0x02
	TypeEndOfData                   MessageType = 0x03
	TypeSetTimeCommand              MessageType = 0x13
	TypeCommand                     MessageType = 0x14
	TypeEnableNotifications         MessageType = 0x15
	TypeSystemInformationRequest    MessageType = 0x16
	TypeSystemInformation           MessageType = 0x17
	TypeSystemStatusRequest         MessageType = 0x18
	TypeSystemStatus                MessageType = 0x19
	TypeSystemTroublesRequest       MessageType = 0x1A
	TypeSystemTroubles              MessageType = 0x1B
	TypeObjectTypeCapacitiesRequest MessageType = 0x1E
	TypeObjectTypeCapacities        MessageType = 0x1F
	TypeObjectPropertiesRequest     MessageType = 0x20
	TypeObjectProperties            MessageType = 0x21
	TypeSecurityCodeValidationReq   MessageType = 0x26
	TypeSecurityCodeValidation      MessageType = 0x27
	TypeSystemFormatsRequest        MessageType = 0x28
	TypeSystemFormats               MessageType = 0x29
	TypeKeypadEmergency             MessageType = 0x2C
	TypeExtendedObjectStatusRequest MessageType = 0x3A
	TypeExtendedObjectStatus        MessageType = 0x3B
)

var messageTypeNames = map[MessageType]string{
	TypeAcknowledge:                 "Acknowledge",
	TypeNegativeAcknowledge:         "NegativeAcknowledge",
	TypeEndOfData:                   "EndOfData",
	TypeSetTimeCommand:              "SetTimeCommand",
	TypeCommand:                     "Command",
	TypeEnableNotifications:         "EnableNotifications",
	TypeSystemInformationRequest:    "SystemInformationRequest",
	TypeSystemInformation:           "SystemInformation",
	TypeSystemStatusRequest:         "SystemStatusRequest",
	TypeSystemStatus:                "SystemStatus",
	TypeSystemTroublesRequest:       "SystemTroublesRequest",
	TypeSystemTroubles:              "SystemTroubles",
	TypeObjectTypeCapacitiesRequest: "ObjectTypeCapacitiesRequest",
	TypeObjectTypeCapacities:        "ObjectTypeCapacities",
	TypeObjectPropertiesRequest:     "ObjectPropertiesRequest",
	TypeObjectProperties:            "ObjectProperties",
	TypeSecurityCodeValidationReq:   "SecurityCodeValidationRequest",
	TypeSecurityCodeValidation:      "SecurityCodeValidation",
	TypeSystemFormatsRequest:        "SystemFormatsRequest",
	TypeSystemFormats:               "SystemFormats",
	TypeKeypadEmergency:             "KeypadEmergency",
	TypeExtendedObjectStatusRequest: "ExtendedObjectStatusRequest",
	TypeExtendedObjectStatus:        "ExtendedObjectStatus",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MessageType(0x%02X)", byte(t))
}

// ObjectType is the class of an addressable controller object
type ObjectType byte

const (
	ObjectZone         ObjectType = 1
	ObjectUnit         ObjectType = 2
	ObjectButton       ObjectType = 3
	ObjectCode         ObjectType = 4
	ObjectArea         ObjectType = 5
	ObjectThermostat   ObjectType = 6
	ObjectAuxSensor    ObjectType = 8
	ObjectAudioSource  ObjectType = 9
	ObjectAudioZone    ObjectType = 10
	ObjectAccessReader ObjectType = 14
	ObjectAccessLock   ObjectType = 15
)

var objectTypeNames = map[ObjectType]string{
	ObjectZone:         "zone",
	ObjectUnit:         "unit",
	ObjectButton:       "button",
	ObjectCode:         "code",
	ObjectArea:         "area",
	ObjectThermostat:   "thermostat",
	ObjectAuxSensor:    "auxiliary sensor",
	ObjectAudioSource:  "audio source",
	ObjectAudioZone:    "audio zone",
	ObjectAccessReader: "access reader",
	ObjectAccessLock:   "access lock",
}

func (o ObjectType) String() string {
	if name, ok := objectTypeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("object(%d)", byte(o))
}

// ParseObjectType resolves a lower-case object type name as printed by String
func ParseObjectType(name string) (ObjectType, error) {
	for t, n := range objectTypeNames {
		if n == name {
			return t, nil
		}
	}
	switch name {
	case "aux", "sensor":
		return ObjectAuxSensor, nil
	case "lock":
		return ObjectAccessLock, nil
	case "reader":
		return ObjectAccessReader, nil
	}
	return 0, fmt.Errorf("unknown object type %q", name)
}

// Message is a decoded application message
type Message interface {
	Type() MessageType
	String() string
}
