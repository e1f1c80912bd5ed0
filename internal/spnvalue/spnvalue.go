// Package spnvalue converts an extracted SPN bit slice into a typed
// decoded value, replacing the original decoder's exception-based control
// flow with an explicit result variant.
package spnvalue

import (
	"math"
	"strings"

	"github.com/nmfta-repo/pretty-j1939/internal/bitfield"
	"github.com/nmfta-repo/pretty-j1939/internal/dadb"
)

// Kind tags which variant a Decoded result holds.
type Kind int

const (
	// KindValue holds a usable numeric value (Number) in Decoded.
	KindValue Kind = iota
	// KindNotAvailable means the slice was all-ones (sentinel "N/A"/NaN).
	KindNotAvailable
	// KindOutOfRange means the value lies outside the SPN's operational range.
	KindOutOfRange
	// KindIncomplete means the slice was empty because the message is not
	// yet fully available (more transport packets pending).
	KindIncomplete
)

// Decoded is the explicit result variant produced by Decode.
type Decoded struct {
	Kind   Kind
	Number float64 // valid for KindValue and KindOutOfRange
	Raw    []byte  // the raw extracted bytes, valid for KindOutOfRange
	IsBit  bool    // true if Units was "bit"/"binary" (no scale/offset applied)
}

// Decode converts an extracted bit slice into a Decoded result per the
// SPN Value Decoder algorithm:
//  1. empty + incomplete message -> Incomplete
//  2. all-ones bits -> NotAvailable
//  3. byte-swap the slice, interpret as unsigned integer R
//  4. Units in {bit,binary} -> value = R
//  5. else value = R*scale + offset (scale = Resolution if >0, else 1)
//  6. operational range violation -> OutOfRange
func Decode(extracted bitfield.Result, spn dadb.SPN, isComplete bool) Decoded {
	if extracted.Bits == 0 {
		if !isComplete {
			return Decoded{Kind: KindIncomplete}
		}
	}
	if allOnes(extracted) {
		return Decoded{Kind: KindNotAvailable, Number: math.NaN()}
	}

	r := byteSwapToUint(extracted.Bytes, extracted.Bits)

	isBit := isBitUnits(spn.Units)
	var value float64
	if isBit {
		value = float64(r)
	} else {
		value = float64(r)*spn.Scale() + spn.Offset
	}

	if !isBit && spn.HasOperationalRange() {
		if value < spn.OperationalLow || value > spn.OperationalHigh {
			return Decoded{Kind: KindOutOfRange, Number: value, Raw: extracted.Bytes}
		}
	}

	return Decoded{Kind: KindValue, Number: value, IsBit: isBit}
}

func isBitUnits(units string) bool {
	u := strings.ToLower(units)
	return u == "bit" || u == "binary"
}

// allOnes reports whether every addressed bit in extracted is 1.
func allOnes(extracted bitfield.Result) bool {
	if extracted.Bits == 0 {
		return false
	}
	fullBytes := extracted.Bits / 8
	rem := extracted.Bits % 8
	for i := 0; i < fullBytes; i++ {
		if extracted.Bytes[i] != 0xFF {
			return false
		}
	}
	if rem > 0 {
		mask := byte(0xFF << uint(8-rem))
		if extracted.Bytes[fullBytes]&mask != mask {
			return false
		}
	}
	return true
}

// byteSwapToUint implements the chosen byte-swap convention (§9 open
// question, resolved against the original source's cut_data.byteswap()
// call): reverse the byte order of the leading whole-byte group
// (bits/8 complete bytes); any trailing bits that don't fill a whole byte
// are left in place, unswapped, at the end. The resulting bit sequence is
// then read MSB-first as an unsigned integer.
//
// For byte-aligned SPNs (the common case) this is an ordinary full byte
// reversal. For a sub-byte remainder (e.g. a 12-bit split field spanning
// 1 whole byte plus 4 extra bits), the single whole byte has nothing to
// swap against and the trailing 4 bits are carried through unchanged,
// reproducing the original source's behavior exactly.
func byteSwapToUint(data []byte, bits int) uint64 {
	fullBytes := bits / 8
	rem := bits % 8

	var r uint64
	for i := 0; i < fullBytes; i++ {
		r = r<<8 | uint64(data[fullBytes-1-i])
	}
	if rem > 0 {
		tail := data[fullBytes] >> uint(8-rem)
		r = r<<uint(rem) | uint64(tail)
	}
	return r
}
