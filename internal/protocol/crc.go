package protocol

import "github.com/sigurn/crc16"

// crcTable is CRC-16/ARC: polynomial 0x8005 reflected (0xA001), initial value 0
var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

// Checksum computes the ApplicationData checksum over payload[1:].
// The start character at index 0 is not covered.
func Checksum(payload []byte) uint16 {
	if len(payload) < 2 {
		return 0
	}
	return crc16.Checksum(payload[1:], crcTable)
}
