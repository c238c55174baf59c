package protocol

import "testing"

func TestChecksum(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    uint16
	}{
		{
			name:    "CRC-16/ARC check value",
			payload: append([]byte{StartChar}, "123456789"...),
			want:    0xBB3D,
		},
		{
			name:    "system information request",
			payload: []byte{0x21, 0x01, 0x16},
			want:    0x5E80,
		},
		{
			name:    "enable notifications request",
			payload: []byte{0x21, 0x02, 0x15, 0x01},
			want:    0x906E,
		},
		{
			name:    "start character is not covered",
			payload: append([]byte{0xFF}, "123456789"...),
			want:    0xBB3D,
		},
		{
			name:    "too short",
			payload: []byte{0x21},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.payload); got != tt.want {
				t.Errorf("Checksum() = 0x%04X, want 0x%04X", got, tt.want)
			}
		})
	}
}

func TestChecksumStable(t *testing.T) {
	payload := []byte{0x21, 0x05, 0x3A, 0x01, 0x00, 0x01, 0x00, 0x10}
	first := Checksum(payload)
	for i := 0; i < 10; i++ {
		if got := Checksum(payload); got != first {
			t.Fatalf("Checksum() changed between calls: 0x%04X then 0x%04X", first, got)
		}
	}
}
