package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// KeySize is the length of the private and session keys
const KeySize = 16

// sessionKeyOffset is where the session id is folded into the private key
const sessionKeyOffset = 11

// Key is a 128-bit AES key
type Key [KeySize]byte

// DeriveSessionKey folds the controller-issued session id into the private
// key. Bytes outside [11, 11+len(sessionID)) are unchanged.
func DeriveSessionKey(private Key, sessionID []byte) Key {
	key := private
	for i := 0; i < len(sessionID) && sessionKeyOffset+i < KeySize; i++ {
		key[sessionKeyOffset+i] ^= sessionID[i]
	}
	return key
}

// ParsePrivateKey parses the 32 hex digit private key printed in the
// controller setup menu. Dashes, colons and whitespace are ignored.
func ParsePrivateKey(s string) (Key, error) {
	var key Key

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '-', ':', ' ', '\t':
			return -1
		}
		return r
	}, s)

	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return key, fmt.Errorf("private key is not valid hex: %w", err)
	}
	if len(raw) != KeySize {
		return key, fmt.Errorf("private key must be %d bytes, got %d", KeySize, len(raw))
	}

	copy(key[:], raw)
	return key, nil
}

// String formats the key as dash-separated hex pairs
func (k Key) String() string {
	parts := make([]string, 0, KeySize/2)
	for i := 0; i < KeySize; i += 2 {
		parts = append(parts, hex.EncodeToString(k[i:i+2]))
	}
	return strings.ToUpper(strings.Join(parts, "-"))
}
