package bitfield

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nmfta-repo/pretty-j1939/internal/dadb"
)

func TestSliceFixedLength(t *testing.T) {
	// Engine Speed scenario: bytes 00 00 00 20 4E 00 00 00, start bit 24, length 16.
	payload := []byte{0x00, 0x00, 0x00, 0x20, 0x4E, 0x00, 0x00, 0x00}
	bits := New(payload)
	sl := bits.Slice(24, 16)
	assert.Equal(t, []byte{0x20, 0x4E}, sl)
}

func TestSliceOutOfBounds(t *testing.T) {
	bits := New([]byte{0x00})
	assert.Nil(t, bits.Slice(4, 8))
}

func TestExtractFixedSingleStart(t *testing.T) {
	pgn := dadb.PGN{SPNs: []int{190}, SPNStartBits: [][]int{{24}}}
	spn := dadb.SPN{SPNLength: "16"}
	payload := []byte{0x00, 0x00, 0x00, 0x20, 0x4E, 0x00, 0x00, 0x00}

	r := Extract(payload, pgn, spn, 190, true)
	assert.Equal(t, 16, r.Bits)
	assert.Equal(t, []byte{0x20, 0x4E}, r.Bytes)
}

func TestExtractFixedIncompleteReturnsEmpty(t *testing.T) {
	pgn := dadb.PGN{SPNs: []int{190}, SPNStartBits: [][]int{{24}}}
	spn := dadb.SPN{SPNLength: "16"}
	payload := []byte{0x00, 0x00, 0x00} // too short: 24 bits, SPN needs bits 24-39

	r := Extract(payload, pgn, spn, 190, false)
	assert.Equal(t, Empty, r)
}

func TestExtractSplitField(t *testing.T) {
	// SPN length 12, start [4, 8]: bits 4-7 of byte0 concat bits 8-15 of byte1.
	pgn := dadb.PGN{SPNs: []int{1}, SPNStartBits: [][]int{{4, 8}}}
	spn := dadb.SPN{SPNLength: "12"}
	payload := []byte{0x3A, 0xC5}

	r := Extract(payload, pgn, spn, 1, true)
	assert.Equal(t, 12, r.Bits)
	// low nibble of byte0 (0xA) concatenated with byte1 (0xC5) = 0xAC5
	assert.Equal(t, []byte{0xAC, 0x50}, r.Bytes)
}

func TestExtractVariableSingleSPNNoDelimiter(t *testing.T) {
	pgn := dadb.PGN{SPNs: []int{237}, SPNStartBits: [][]int{{0}}}
	spn := dadb.SPN{SPNLength: "Variable, 0 to 200 bytes"}
	payload := []byte("1FUJA6CK65LM12345*")

	r := Extract(payload, pgn, spn, 237, true)
	assert.Equal(t, len(payload)*8, r.Bits)
	assert.Equal(t, payload, r.Bytes)
}

func TestExtractVariableSingleSPNIncompleteReturnsEmpty(t *testing.T) {
	pgn := dadb.PGN{SPNs: []int{237}, SPNStartBits: [][]int{{0}}}
	spn := dadb.SPN{SPNLength: "Variable"}
	payload := []byte("partial")

	r := Extract(payload, pgn, spn, 237, false)
	assert.Equal(t, Empty, r)
}

func TestExtractVariableMultiSPNNoDelimiterUnsupported(t *testing.T) {
	pgn := dadb.PGN{SPNs: []int{1, 2}, SPNStartBits: [][]int{{0}, {-1}}}
	spn := dadb.SPN{SPNLength: "Variable"}
	payload := []byte("abc")

	r := Extract(payload, pgn, spn, 2, true)
	assert.Equal(t, Empty, r)
}

func TestExtractVariableDelimited(t *testing.T) {
	// Single variable field after one fixed field, delimited by 0x2a.
	pgn := dadb.PGN{SPNs: []int{1, 2}, SPNStartBits: [][]int{{0}, {-1}}}
	fixedSPN := dadb.SPN{SPNLength: "8"}
	varSPN := dadb.SPN{SPNLength: "Variable", Delimiter: "0x2a"}

	payload := []byte{0x01, 'h', 'i', 0x2a, 'r', 'e', 's', 't'}

	fixedR := Extract(payload, pgn, fixedSPN, 1, true)
	assert.Equal(t, []byte{0x01}, fixedR.Bytes)

	varR := Extract(payload, pgn, varSPN, 2, true)
	assert.Equal(t, []byte("rest"), varR.Bytes)
}
