package j1939id

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		id       uint32
		expected Identifier
	}{
		{
			name: "PDU2 broadcast EEC1",
			// PF=0xF0, dest field=0x04, SA=0x00 -> PGN 0xF004
			id:   uint32(0x18)<<24 | uint32(0xF0)<<16 | uint32(0x04)<<8 | 0x00,
			expected: Identifier{PGN: 0xF004, DA: 0xFF, SA: 0x00, PF: 0xF0},
		},
		{
			name: "PDU1 addressed request",
			// PF=0xEA (request), dest=0x00, SA=0xF9
			id:   uint32(0x18)<<24 | uint32(0xEA)<<16 | uint32(0x00)<<8 | 0xF9,
			expected: Identifier{PGN: 0xEA00, DA: 0x00, SA: 0xF9, PF: 0xEA},
		},
		{
			name: "TP.CM broadcast BAM",
			id:   uint32(0x18)<<24 | uint32(0xEC)<<16 | uint32(0xFF)<<8 | 0x00,
			expected: Identifier{PGN: 0xEC00, DA: 0xFF, SA: 0x00, PF: 0xEC},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.id)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	// PF<240: reconstructing ID from (PF,DA,SA) must equal the input.
	id := uint32(0x18)<<24 | uint32(0x10)<<16 | uint32(0x34)<<8 | 0x56
	parsed := Parse(id)
	reconstructed := uint32(parsed.PF)<<16 | uint32(parsed.DA)<<8 | uint32(parsed.SA)
	assert.Equal(t, id&0x1FFFFF, reconstructed)
}

func TestIsTransportPF(t *testing.T) {
	assert.True(t, IsTransportPF(PFTPCM))
	assert.True(t, IsTransportPF(PFTPDT))
	assert.True(t, IsTransportPF(PFACK))
	assert.False(t, IsTransportPF(0xF0))
}

func TestIsTransportPGN(t *testing.T) {
	assert.True(t, IsTransportPGN(PGNTPCM))
	assert.True(t, IsTransportPGN(PGNTPDT))
	assert.True(t, IsTransportPGN(PGNACK))
	assert.False(t, IsTransportPGN(0xF004))
}
