// Package protocol implements the packet layer of the Omni-Link II controller
// protocol.
//
// Omni controllers speak a session-oriented binary protocol over a persistent
// TCP connection. Every unit on the wire is a packet with a fixed four byte
// header followed by an optional payload. Application payloads are checksummed
// and encrypted with a per-session AES-128 key.
//
// # Packet Header
//
//   - Bytes 0-1: Sequence number (big-endian uint16)
//   - Byte 2: Packet type
//   - Byte 3: Reserved (always 0x00)
//
// Sequence 0 is reserved for unsolicited notifications pushed by the
// controller. Clients assign sequence numbers from 1 and wrap from 65535
// back to 1.
//
// # Packet Types
//
//   - 0x01 NewSessionRequest (client, no payload)
//   - 0x02 NewSessionAcknowledge (controller, protocol version + session id)
//   - 0x03 SecureConnectionRequest (client, encrypted session id)
//   - 0x04 SecureConnectionAcknowledge (controller, encrypted session id)
//   - 0x05 ClientSessionTerminated
//   - 0x06 ControllerSessionTerminated
//   - 0x07 ControllerSessionFailed
//   - 0x20 ApplicationData (encrypted message + CRC16)
//
// # Encryption
//
// The session key is the 16 byte private key with bytes 11-15 XORed with the
// controller-issued session id. Payloads are zero padded to a multiple of 16
// bytes and every block is encrypted on its own with AES-128. Before a block
// is encrypted its first two bytes are XORed with the high and low bytes of
// the packet sequence number; the same XOR is applied after decryption.
//
// # Checksum
//
// ApplicationData payloads carry a little-endian CRC-16/ARC (reflected
// polynomial 0xA001, initial value 0) computed from payload byte 1 onwards.
// The start character at byte 0 is not covered. The checksum is appended on
// send and stripped without verification on receive.
//
// # Usage Example
//
//	key, err := protocol.ParsePrivateKey("00112233445566778899aabbccddeeff")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sessionKey := protocol.DeriveSessionKey(key, sessionID)
//
//	pkt := &protocol.Packet{Sequence: 2, Type: protocol.PacketTypeApplicationData, Payload: msg}
//	raw, err := pkt.Encode(sessionKey[:])
//
//	reader := protocol.NewPacketReader(conn, func() []byte { return sessionKey[:] })
//	resp, err := reader.ReadPacket()
//
// # Thread Safety
//
// Encoding and decoding functions are stateless and safe for concurrent use.
// A PacketReader must only be used from a single goroutine.
package protocol
