package protocol

import (
	"crypto/aes"
	"fmt"
)

// EncryptPayload pads data with zeros to a multiple of BlockSize and encrypts
// every block independently, mixing the sequence number into the first two
// bytes of each block first.
func EncryptPayload(data []byte, seq uint16, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid session key: %w", err)
	}

	padded := make([]byte, paddedLen(len(data)))
	copy(padded, data)

	for off := 0; off < len(padded); off += BlockSize {
		chunk := padded[off : off+BlockSize]
		mixSequence(chunk, seq)
		block.Encrypt(chunk, chunk)
	}
	return padded, nil
}

// DecryptPayload reverses EncryptPayload. The result keeps any zero padding.
func DecryptPayload(data []byte, seq uint16, key []byte) ([]byte, error) {
	if len(data)%BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of %d", len(data), BlockSize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid session key: %w", err)
	}

	plain := make([]byte, len(data))
	for off := 0; off < len(data); off += BlockSize {
		chunk := plain[off : off+BlockSize]
		block.Decrypt(chunk, data[off:off+BlockSize])
		mixSequence(chunk, seq)
	}
	return plain, nil
}

func mixSequence(chunk []byte, seq uint16) {
	chunk[0] ^= byte(seq >> 8)
	chunk[1] ^= byte(seq)
}

func paddedLen(n int) int {
	if n%BlockSize == 0 {
		return n
	}
	return n + BlockSize - n%BlockSize
}
