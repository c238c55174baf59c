package protocol

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// newSessionAckSize is the payload size of a NewSessionAcknowledge:
// two bytes of protocol version followed by the session id
const newSessionAckSize = 2 + SessionIDSize

// PacketReader reads packets from a byte stream. It frames both directions,
// so it also serves the controller side in tests.
//
// TCP does not preserve packet boundaries, so the payload length is derived
// from the packet type. Encrypted application payloads are sized by
// decrypting their first block and reading the envelope length byte.
type PacketReader struct {
	r   *bufio.Reader
	key func() []byte
}

// NewPacketReader creates a reader. key returns the current session key, or
// nil before the session is secured.
func NewPacketReader(r io.Reader, key func() []byte) *PacketReader {
	return &PacketReader{r: bufio.NewReader(r), key: key}
}

// ReadPacket reads and decodes the next packet
func (pr *PacketReader) ReadPacket() (*Packet, []byte, error) {
	raw := make([]byte, HeaderSize)
	if _, err := io.ReadFull(pr.r, raw); err != nil {
		return nil, nil, fmt.Errorf("failed to read packet header: %w", err)
	}

	typ := PacketType(raw[2])
	seq := binary.BigEndian.Uint16(raw[0:2])
	key := pr.key()

	switch typ {
	case PacketTypeNewSessionAcknowledge:
		body, err := pr.readN(newSessionAckSize)
		if err != nil {
			return nil, nil, err
		}
		raw = append(raw, body...)

	case PacketTypeSecureConnectionRequest, PacketTypeSecureConnectionAcknowledge:
		body, err := pr.readN(BlockSize)
		if err != nil {
			return nil, nil, err
		}
		raw = append(raw, body...)

	case PacketTypeApplicationData:
		if key == nil {
			return nil, nil, fmt.Errorf("received %s before session was secured", typ)
		}
		first, err := pr.readN(BlockSize)
		if err != nil {
			return nil, nil, err
		}
		plain, err := DecryptPayload(first, seq, key)
		if err != nil {
			return nil, nil, err
		}
		total := paddedLen(2 + int(plain[1]) + CRCSize)
		raw = append(raw, first...)
		if total > BlockSize {
			rest, err := pr.readN(total - BlockSize)
			if err != nil {
				return nil, nil, err
			}
			raw = append(raw, rest...)
		}
	}

	pkt, err := DecodePacket(raw, key)
	if err != nil {
		return nil, raw, err
	}
	return pkt, raw, nil
}

func (pr *PacketReader) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(pr.r, buf); err != nil {
		return nil, fmt.Errorf("failed to read packet payload: %w", err)
	}
	return buf, nil
}
