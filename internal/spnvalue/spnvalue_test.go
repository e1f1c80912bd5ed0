package spnvalue

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nmfta-repo/pretty-j1939/internal/bitfield"
	"github.com/nmfta-repo/pretty-j1939/internal/dadb"
)

func TestDecodeEngineSpeed(t *testing.T) {
	spn := dadb.SPN{Units: "rpm", Resolution: 0.125, OperationalLow: 0, OperationalHigh: 8031.875}
	extracted := bitfield.Result{Bytes: []byte{0x20, 0x4E}, Bits: 16}

	d := Decode(extracted, spn, true)
	assert.Equal(t, KindValue, d.Kind)
	assert.InDelta(t, 2500.0, d.Number, 1e-9)
}

func TestDecodeNotAvailable(t *testing.T) {
	spn := dadb.SPN{Units: "rpm", Resolution: 0.125}
	extracted := bitfield.Result{Bytes: []byte{0xFF, 0xFF}, Bits: 16}

	d := Decode(extracted, spn, true)
	assert.Equal(t, KindNotAvailable, d.Kind)
	assert.True(t, math.IsNaN(d.Number))
}

func TestDecodeIncomplete(t *testing.T) {
	spn := dadb.SPN{Units: "rpm"}
	d := Decode(bitfield.Empty, spn, false)
	assert.Equal(t, KindIncomplete, d.Kind)
}

func TestDecodeBitEncoded(t *testing.T) {
	// payload first byte 0x40 = 01000000, SPN bits [0,2) -> "01" = 1
	spn := dadb.SPN{Units: "bit"}
	extracted := bitfield.Result{Bytes: []byte{0x40}, Bits: 2}
	// top 2 bits of 0x40 (01000000) are "01" = 1, but our Bytes here already
	// hold exactly the extracted 2 bits left-aligned per bitfield.Slice.
	d := Decode(extracted, spn, true)
	assert.Equal(t, KindValue, d.Kind)
	assert.True(t, d.IsBit)
	assert.Equal(t, float64(1), d.Number)
}

func TestDecodeOutOfRange(t *testing.T) {
	spn := dadb.SPN{Units: "rpm", Resolution: 1, OperationalLow: 0, OperationalHigh: 100}
	extracted := bitfield.Result{Bytes: []byte{200}, Bits: 8}

	d := Decode(extracted, spn, true)
	assert.Equal(t, KindOutOfRange, d.Kind)
	assert.Equal(t, float64(200), d.Number)
}

func TestDecodeSplitFieldRawInteger(t *testing.T) {
	// 12-bit split field example from the spec: raw integer 2757 pre- and
	// post-swap (swap is a no-op here since < 2 whole bytes are involved).
	spn := dadb.SPN{Units: "counts", Resolution: 0, OperationalLow: -1, OperationalHigh: -1}
	extracted := bitfield.Result{Bytes: []byte{0xAC, 0x50}, Bits: 12}

	d := Decode(extracted, spn, true)
	assert.Equal(t, KindValue, d.Kind)
	assert.Equal(t, float64(2757), d.Number)
}

func TestByteSwapToUintFullBytes(t *testing.T) {
	assert.Equal(t, uint64(0x4E20), byteSwapToUint([]byte{0x20, 0x4E}, 16))
}

func TestByteSwapToUintWithRemainder(t *testing.T) {
	assert.Equal(t, uint64(0xAC5), byteSwapToUint([]byte{0xAC, 0x50}, 12))
}

func TestAllOnesDetectsPartialByte(t *testing.T) {
	// 2-bit field, top 2 bits set -> all-ones for a 2-bit field.
	assert.True(t, allOnes(bitfield.Result{Bytes: []byte{0xC0}, Bits: 2}))
	assert.False(t, allOnes(bitfield.Result{Bytes: []byte{0x40}, Bits: 2}))
}
