package protocol

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestEncryptPayloadKnownAnswer(t *testing.T) {
	// FIPS-197 appendix C.1; sequence 0 leaves the block unmixed
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	plain := mustHex(t, "00112233445566778899aabbccddeeff")
	want := mustHex(t, "69c4e0d86a7b0430d8cdb78070b4c55a")

	got, err := EncryptPayload(plain, 0, key)
	if err != nil {
		t.Fatalf("EncryptPayload() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("EncryptPayload() = %x, want %x", got, want)
	}
}

func TestEncryptPayloadMixesSequence(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	plain := mustHex(t, "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")

	mixed := append([]byte(nil), plain...)
	for off := 0; off < len(mixed); off += BlockSize {
		mixed[off] ^= 0x12
		mixed[off+1] ^= 0x34
	}

	withSeq, err := EncryptPayload(plain, 0x1234, key)
	if err != nil {
		t.Fatalf("EncryptPayload() error = %v", err)
	}
	premixed, err := EncryptPayload(mixed, 0, key)
	if err != nil {
		t.Fatalf("EncryptPayload() error = %v", err)
	}
	if !bytes.Equal(withSeq, premixed) {
		t.Errorf("sequence mixing mismatch:\n got  %x\n want %x", withSeq, premixed)
	}
	if bytes.Equal(withSeq[:BlockSize], withSeq[BlockSize:]) {
		t.Error("identical plaintext blocks should still encrypt identically per block")
	}
}

func TestEncryptPayloadPads(t *testing.T) {
	key := make([]byte, KeySize)
	tests := []struct {
		in   int
		want int
	}{
		{1, 16},
		{15, 16},
		{16, 16},
		{17, 32},
		{40, 48},
	}
	for _, tt := range tests {
		got, err := EncryptPayload(make([]byte, tt.in), 1, key)
		if err != nil {
			t.Fatalf("EncryptPayload(%d) error = %v", tt.in, err)
		}
		if len(got) != tt.want {
			t.Errorf("EncryptPayload(%d bytes) length = %d, want %d", tt.in, len(got), tt.want)
		}
	}
}

func TestCipherRoundTripAllSequences(t *testing.T) {
	key := mustHex(t, "8f2c61a3d4e5f60718293a4b5c6d7e8f")
	block := mustHex(t, "21053b0100010203040506070809aabb")

	for seq := 0; seq <= 0xFFFF; seq++ {
		dec, err := DecryptPayload(block, uint16(seq), key)
		if err != nil {
			t.Fatalf("DecryptPayload(seq=%d) error = %v", seq, err)
		}
		enc, err := EncryptPayload(dec, uint16(seq), key)
		if err != nil {
			t.Fatalf("EncryptPayload(seq=%d) error = %v", seq, err)
		}
		if !bytes.Equal(enc, block) {
			t.Fatalf("seq %d: encrypt(decrypt(block)) = %x, want %x", seq, enc, block)
		}
	}
}

func TestDecryptPayloadRejectsPartialBlock(t *testing.T) {
	if _, err := DecryptPayload(make([]byte, 20), 1, make([]byte, KeySize)); err == nil {
		t.Error("expected error for non block-aligned ciphertext")
	}
}

func TestCipherRejectsBadKey(t *testing.T) {
	if _, err := EncryptPayload([]byte{1}, 1, []byte{1, 2, 3}); err == nil {
		t.Error("expected error for short key")
	}
}
