// Package bitfield extracts SPN bit slices from a J1939 payload using
// MSB-first bit numbering: bit 0 is the most-significant bit of byte 0.
// This matches the original decoder's bit-library convention, not the
// LSB0 numbering used by some NMEA2000 tooling.
package bitfield

import (
	"log"
	"strconv"

	"github.com/nmfta-repo/pretty-j1939/internal/dadb"
)

// Bits is a bit-addressable view over a byte payload, MSB-first.
type Bits struct {
	data []byte
}

// New wraps a payload for bit-level access.
func New(data []byte) Bits {
	return Bits{data: data}
}

// Len returns the number of addressable bits.
func (b Bits) Len() int {
	return len(b.data) * 8
}

// bitAt returns the bit at position pos (0 = MSB of byte 0).
func (b Bits) bitAt(pos int) byte {
	byteIdx := pos / 8
	bitIdx := uint(7 - pos%8) // 0 = MSB
	return (b.data[byteIdx] >> bitIdx) & 1
}

// Slice returns the bits [start, start+length) as a new bit-packed byte
// buffer, bit 0 of the result is the MSB of the slice's first bit. Returns
// nil if the range is out of bounds.
func (b Bits) Slice(start, length int) []byte {
	if length <= 0 {
		return []byte{}
	}
	if start < 0 || start+length > b.Len() {
		return nil
	}
	out := make([]byte, (length+7)/8)
	for i := 0; i < length; i++ {
		bit := b.bitAt(start + i)
		if bit == 1 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

// Concat appends two bit-packed slices (each produced by Slice) at the bit
// level, given their bit lengths, returning the combined bit-packed buffer.
func Concat(a []byte, aLen int, c []byte, cLen int) []byte {
	total := aLen + cLen
	out := make([]byte, (total+7)/8)
	write := func(bit byte, pos int) {
		if bit == 1 {
			out[pos/8] |= 1 << uint(7-pos%8)
		}
	}
	readBit := func(buf []byte, pos int) byte {
		byteIdx := pos / 8
		bitIdx := uint(7 - pos%8)
		return (buf[byteIdx] >> bitIdx) & 1
	}
	for i := 0; i < aLen; i++ {
		write(readBit(a, i), i)
	}
	for i := 0; i < cLen; i++ {
		write(readBit(c, i), aLen+i)
	}
	return out
}

// Result carries the extracted bit slice plus its exact bit length (the
// byte buffer alone cannot distinguish e.g. a 12-bit value from a 16-bit
// one when both pack into 2 bytes).
type Result struct {
	Bytes []byte
	Bits  int
}

// Empty is the zero-length extraction result ("not present in this view").
var Empty = Result{Bytes: []byte{}, Bits: 0}

// Extract returns the bit slice for spn within pgn's payload, handling
// fixed-length, split (multi-start-bit), and variable-length (delimited or
// not) SPNs per the extraction rules. isComplete indicates the payload is
// the entire message (true for link-layer frames and the final view of a
// reassembled transport session).
func Extract(payload []byte, pgn dadb.PGN, spn dadb.SPN, spnNumber int, isComplete bool) Result {
	bits := New(payload)

	starts, fixedCount := resolveStartBits(pgn, spn, spnNumber)
	if len(starts) == 0 {
		return Empty
	}

	if length, ok := spn.FixedLength(); ok {
		return extractFixed(bits, starts, length, isComplete)
	}
	return extractVariable(bits, pgn, spn, spnNumber, starts, fixedCount, isComplete)
}

// resolveStartBits applies SPN.StartBit (legacy override) if present, else
// looks up the PGN's parallel SPNStartBits entry for this SPN.
func resolveStartBits(pgn dadb.PGN, spn dadb.SPN, spnNumber int) (starts []int, fixedCount int) {
	if spn.StartBit != nil {
		return []int{*spn.StartBit}, 0
	}
	idx := pgn.IndexOf(spnNumber)
	if idx == -1 {
		return nil, 0
	}
	return pgn.StartBits(idx)
}

func extractFixed(bits Bits, starts []int, length int, isComplete bool) Result {
	if len(starts) == 1 {
		s := starts[0]
		if s < 0 {
			return Empty
		}
		if !isComplete && s+length-1 >= bits.Len() {
			return Empty
		}
		sl := bits.Slice(s, length)
		if sl == nil {
			return Empty
		}
		return Result{Bytes: sl, Bits: length}
	}

	// Split field: [s1, s2]. Left chunk is s1 through the byte boundary
	// preceding s2; right chunk is s2 through the remaining length.
	s1, s2 := starts[0], starts[1]
	lsplit := (s2/8)*8 - s1
	rightLen := length - lsplit
	if !isComplete {
		if s1+lsplit-1 >= bits.Len() || s2+rightLen-1 >= bits.Len() {
			return Empty
		}
	}
	left := bits.Slice(s1, lsplit)
	right := bits.Slice(s2, rightLen)
	if left == nil || right == nil {
		return Empty
	}
	return Result{Bytes: Concat(left, lsplit, right, rightLen), Bits: length}
}

func extractVariable(bits Bits, pgn dadb.PGN, spn dadb.SPN, spnNumber int, starts []int, fixedCount int, isComplete bool) Result {
	s := starts[0]

	if spn.Delimiter == "" {
		if len(pgn.SPNs) == 1 {
			if !isComplete {
				return Empty
			}
			if s < 0 {
				s = 0
			}
			length := bits.Len() - s
			sl := bits.Slice(s, length)
			if sl == nil {
				return Empty
			}
			return Result{Bytes: sl, Bits: length}
		}
		log.Printf("bitfield: variable-length SPN %d in multi-SPN PGN with no delimiter: unsupported layout, skipping", spnNumber)
		return Empty
	}

	return extractDelimited(bits, pgn, spn, spnNumber, s, fixedCount, isComplete)
}

func extractDelimited(bits Bits, pgn dadb.PGN, spn dadb.SPN, spnNumber int, s, fixedCount int, isComplete bool) Result {
	delim, ok := parseDelimiterByte(spn.Delimiter)
	if !ok {
		log.Printf("bitfield: SPN %d: unparseable delimiter %q", spnNumber, spn.Delimiter)
		return Empty
	}

	raw := bits.data
	fields := splitByDelimiter(raw, delim)

	ordinal := pgn.IndexOf(spnNumber)

	if s != -1 {
		// First variable-length field: begins at bit s within fields[0],
		// ends at the last bit of fields[0].
		if len(fields) == 0 {
			return Empty
		}
		if !isComplete && len(fields) < 2 {
			return Empty
		}
		field0 := fields[0]
		fieldBits := New(field0)
		length := fieldBits.Len() - s
		if length <= 0 {
			return Empty
		}
		sl := fieldBits.Slice(s, length)
		if sl == nil {
			return Empty
		}
		return Result{Bytes: sl, Bits: length}
	}

	var idx int
	if fixedCount > 0 {
		idx = ordinal - fixedCount
		if idx < 0 || idx+1 >= len(fields) {
			return Empty
		}
		idx++ // fields[1:] offset
	} else {
		idx = ordinal - fixedCount
		if idx < 0 || idx >= len(fields) {
			return Empty
		}
	}

	if !isComplete && len(fields) < 2 {
		return Empty
	}

	field := fields[idx]
	return Result{Bytes: field, Bits: len(field) * 8}
}

// splitByDelimiter splits a byte buffer on occurrences of delim, analogous
// to bytes.Split but operating on a single delimiter byte without
// allocating a []byte{delim} each call.
func splitByDelimiter(data []byte, delim byte) [][]byte {
	var fields [][]byte
	start := 0
	for i, b := range data {
		if b == delim {
			fields = append(fields, data[start:i])
			start = i + 1
		}
	}
	fields = append(fields, data[start:])
	return fields
}

func parseDelimiterByte(s string) (byte, bool) {
	if len(s) == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 0, 16)
	if err != nil || v < 0 || v > 255 {
		return 0, false
	}
	return byte(v), true
}
