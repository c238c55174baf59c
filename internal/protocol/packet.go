package protocol

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the size of the fixed packet header
	HeaderSize = 4

	// SessionIDSize is the length of the controller-issued session id
	SessionIDSize = 5

	// BlockSize is the cipher block size used for payload encryption
	BlockSize = 16

	// CRCSize is the size of the ApplicationData checksum trailer
	CRCSize = 2

	// NotificationSequence is the sequence number used by the controller
	// for unsolicited packets
	NotificationSequence uint16 = 0
)

// PacketType identifies the purpose of a packet
type PacketType byte

const (
	PacketTypeNewSessionRequest           PacketType = 0x01
	PacketTypeNewSessionAcknowledge       PacketType = 0x02
	PacketTypeSecureConnectionRequest     PacketType = 0x03
	PacketTypeSecureConnectionAcknowledge PacketType = 0x04
	PacketTypeClientSessionTerminated     PacketType = 0x05
	PacketTypeControllerSessionTerminated PacketType = 0x06
	PacketTypeControllerSessionFailed     PacketType = 0x07
	PacketTypeApplicationData             PacketType = 0x20
)

// String returns a human-readable packet type name
func (t PacketType) String() string {
	switch t {
	case PacketTypeNewSessionRequest:
		return "NewSessionRequest"
	case PacketTypeNewSessionAcknowledge:
		return "NewSessionAcknowledge"
	case PacketTypeSecureConnectionRequest:
		return "SecureConnectionRequest"
	case PacketTypeSecureConnectionAcknowledge:
		return "SecureConnectionAcknowledge"
	case PacketTypeClientSessionTerminated:
		return "ClientSessionTerminated"
	case PacketTypeControllerSessionTerminated:
		return "ControllerSessionTerminated"
	case PacketTypeControllerSessionFailed:
		return "ControllerSessionFailed"
	case PacketTypeApplicationData:
		return "ApplicationData"
	default:
		return fmt.Sprintf("unknown(0x%02X)", byte(t))
	}
}

// encrypted reports whether payloads of this type travel encrypted
func (t PacketType) encrypted() bool {
	switch t {
	case PacketTypeSecureConnectionRequest, PacketTypeSecureConnectionAcknowledge, PacketTypeApplicationData:
		return true
	}
	return false
}

// Packet is a single protocol data unit
type Packet struct {
	Sequence uint16
	Type     PacketType
	Payload  []byte // Plaintext payload (nil for header-only packets)
}

// Encode serializes the packet to wire bytes.
//
// ApplicationData payloads get the CRC trailer appended. When key is non-nil
// payloads of encrypted packet types are encrypted with it.
func (p *Packet) Encode(key []byte) ([]byte, error) {
	header := make([]byte, HeaderSize, HeaderSize+len(p.Payload)+BlockSize)
	binary.BigEndian.PutUint16(header[0:2], p.Sequence)
	header[2] = byte(p.Type)

	if len(p.Payload) == 0 {
		return header, nil
	}

	body := make([]byte, len(p.Payload), len(p.Payload)+CRCSize)
	copy(body, p.Payload)
	if p.Type == PacketTypeApplicationData {
		var crc [CRCSize]byte
		binary.LittleEndian.PutUint16(crc[:], Checksum(body))
		body = append(body, crc[:]...)
	}

	if key != nil && p.Type.encrypted() {
		enc, err := EncryptPayload(body, p.Sequence, key)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt %s payload: %w", p.Type, err)
		}
		body = enc
	}

	return append(header, body...), nil
}

// DecodePacket parses a complete packet from wire bytes.
//
// NewSessionAcknowledge payloads are returned as-is. Secure connection
// request/acknowledge and ApplicationData payloads are decrypted with key;
// ApplicationData additionally has its checksum trailer removed. Other packet
// types carry no payload.
func DecodePacket(data []byte, key []byte) (*Packet, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("packet too short: %d bytes (need %d)", len(data), HeaderSize)
	}

	p := &Packet{
		Sequence: binary.BigEndian.Uint16(data[0:2]),
		Type:     PacketType(data[2]),
	}
	body := data[HeaderSize:]

	switch p.Type {
	case PacketTypeNewSessionAcknowledge:
		p.Payload = append([]byte(nil), body...)

	case PacketTypeSecureConnectionRequest, PacketTypeSecureConnectionAcknowledge, PacketTypeApplicationData:
		if key == nil {
			return nil, fmt.Errorf("cannot decode %s: no session key established", p.Type)
		}
		plain, err := DecryptPayload(body, p.Sequence, key)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt %s payload: %w", p.Type, err)
		}
		if p.Type == PacketTypeApplicationData {
			plain = stripChecksum(plain)
		}
		p.Payload = plain
	}

	return p, nil
}

// stripChecksum removes the CRC trailer (and any block padding after it).
// When the message envelope is intact its length byte locates the trailer;
// otherwise the final two bytes are dropped.
func stripChecksum(plain []byte) []byte {
	if len(plain) >= 2 && plain[0] == StartChar {
		if end := 2 + int(plain[1]); end+CRCSize <= len(plain) {
			return plain[:end]
		}
	}
	if len(plain) < CRCSize {
		return plain[:0]
	}
	return plain[:len(plain)-CRCSize]
}

// StartChar opens every application message envelope
const StartChar = 0x21

// String returns a debug representation of the packet
func (p *Packet) String() string {
	return fmt.Sprintf("Packet{seq=%d, type=%s, payload_len=%d}", p.Sequence, p.Type, len(p.Payload))
}
