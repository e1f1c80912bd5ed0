// Package dadb loads the SAE Digital Annex JSON dictionary into a
// read-only, integer-indexed in-memory model: PGN records, SPN records,
// source-address names, and bit-encoded SPN enum decodings.
//
// A loaded DB is never mutated; it may be shared by reference across any
// number of concurrent decode pipelines.
package dadb

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// PGN describes one Parameter Group Number record from the DA.
//
// Invariant: len(SPNs) == len(SPNStartBits); enforced at Load time.
type PGN struct {
	Label        string  `json:"Label"`
	Name         string  `json:"Name"`
	PGNLength    string  `json:"PGNLength"`
	Rate         string  `json:"Rate"`
	SPNs         []int   `json:"SPNs"`
	SPNStartBits [][]int `json:"SPNStartBits"`
}

// StartBits returns the start-bit list for the SPN at position i in p.SPNs,
// as the DA stores it (1 or 2 positions, or [-1] for an unknown start), and
// the count of fixed-start SPNs in the whole PGN (entries whose first
// start-bit element is not -1). Both are computed once per lookup rather
// than cached on PGN, since a PGN's SPN list is small and immutable after
// Load.
func (p PGN) StartBits(i int) (starts []int, fixedCount int) {
	for _, sb := range p.SPNStartBits {
		if len(sb) > 0 && sb[0] != -1 {
			fixedCount++
		}
	}
	return p.SPNStartBits[i], fixedCount
}

// IndexOf returns the position of spn within p.SPNs, or -1 if absent.
func (p PGN) IndexOf(spn int) int {
	for i, s := range p.SPNs {
		if s == spn {
			return i
		}
	}
	return -1
}

// SPNLength is an SPN's declared bit length as the DA JSON encodes it: a
// JSON number for a fixed length (the common case), or a JSON string
// ("Variable", a "Variable, ..." description, or empty) for a variable
// one. Unmarshaling accepts either encoding.
type SPNLength string

// UnmarshalJSON accepts both a JSON number (fixed length) and a JSON
// string (variable length), mirroring the DA conversion tool's own
// bimodal length field.
func (l *SPNLength) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = SPNLength(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*l = SPNLength(n.String())
	return nil
}

// SPN describes one Suspect Parameter Number record from the DA.
type SPN struct {
	Name             string    `json:"Name"`
	Units            string    `json:"Units"`
	SPNLength        SPNLength `json:"SPNLength"`
	Offset           float64   `json:"Offset"`
	Resolution       float64   `json:"Resolution"`
	OperationalLow   float64   `json:"OperationalLow"`
	OperationalHigh  float64   `json:"OperationalHigh"`
	DataRange        string    `json:"DataRange"`
	OperationalRange string    `json:"OperationalRange"`
	Delimiter        string    `json:"Delimiter,omitempty"`
	StartBit         *int      `json:"StartBit,omitempty"`
}

// rawDocument mirrors the DA JSON's top-level shape before re-indexing.
type rawDocument struct {
	J1939PGNdb       map[string]PGN            `json:"J1939PGNdb"`
	J1939SPNdb       map[string]SPN            `json:"J1939SPNdb"`
	J1939SATabledb   map[string]string         `json:"J1939SATabledb"`
	J1939BitDecodings map[string]map[string]string `json:"J1939BitDecodings"`
}

// DB is the immutable, integer-indexed Digital Annex dictionary.
type DB struct {
	pgns          map[int]PGN
	spns          map[int]SPN
	addressNames  map[int]string
	bitDecodings  map[int]map[string]string
}

// Load parses a DA JSON document (as produced by the spreadsheet-to-JSON
// conversion tool, out of this package's scope) into a read-only DB.
func Load(data []byte) (*DB, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("dadb: parse DA document: %w", err)
	}

	db := &DB{
		pgns:         make(map[int]PGN, len(raw.J1939PGNdb)),
		spns:         make(map[int]SPN, len(raw.J1939SPNdb)),
		addressNames: make(map[int]string, len(raw.J1939SATabledb)),
		bitDecodings: make(map[int]map[string]string, len(raw.J1939BitDecodings)),
	}

	for key, pgn := range raw.J1939PGNdb {
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("dadb: non-integer PGN key %q: %w", key, err)
		}
		if len(pgn.SPNs) != len(pgn.SPNStartBits) {
			return nil, fmt.Errorf("dadb: PGN %d: len(SPNs)=%d != len(SPNStartBits)=%d", n, len(pgn.SPNs), len(pgn.SPNStartBits))
		}
		db.pgns[n] = pgn
	}
	for key, spn := range raw.J1939SPNdb {
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("dadb: non-integer SPN key %q: %w", key, err)
		}
		db.spns[n] = spn
	}
	for key, name := range raw.J1939SATabledb {
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("dadb: non-integer address key %q: %w", key, err)
		}
		db.addressNames[n] = name
	}
	for key, enum := range raw.J1939BitDecodings {
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("dadb: non-integer bit-decoding key %q: %w", key, err)
		}
		db.bitDecodings[n] = enum
	}

	return db, nil
}

// PGN looks up a PGN record; ok is false if pgn is not in the dictionary.
func (db *DB) PGN(pgn int) (PGN, bool) {
	p, ok := db.pgns[pgn]
	return p, ok
}

// SPN looks up an SPN record; ok is false if spn is not in the dictionary.
func (db *DB) SPN(spn int) (SPN, bool) {
	s, ok := db.spns[spn]
	return s, ok
}

// BitDecodings returns the enum value->text map for a bit-encoded SPN, or
// nil if spn has no registered bit decodings.
func (db *DB) BitDecodings(spn int) map[string]string {
	return db.bitDecodings[spn]
}

// AddressName returns the display name for a source/destination address
// byte, "All" for 255, or "Unknown" if unregistered.
func (db *DB) AddressName(addr int) string {
	if addr == 255 {
		return "All"
	}
	if name, ok := db.addressNames[addr]; ok && name != "" {
		return name
	}
	return "Unknown"
}

// PGNAcronym returns the PGN's label, normalizing a missing/empty acronym
// to "Unknown".
func (db *DB) PGNAcronym(pgn int) string {
	p, ok := db.pgns[pgn]
	if !ok || p.Label == "" {
		return "Unknown"
	}
	return p.Label
}

// IsVariableLength reports whether an SPN's length is declared variable
// ("Variable" or any string starting with it) rather than a fixed bit count.
func (s SPN) IsVariableLength() bool {
	return len(s.SPNLength) >= len("Variable") && s.SPNLength[:len("Variable")] == "Variable"
}

// FixedLength returns the SPN's bit length and true, or (0, false) if the
// length is variable or unparseable.
func (s SPN) FixedLength() (int, bool) {
	if s.IsVariableLength() {
		return 0, false
	}
	n, err := strconv.Atoi(string(s.SPNLength))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Scale returns the decode scale factor: Resolution if positive, else 1
// (per §4.4 step 5 — a non-positive Resolution means "treat as 1").
func (s SPN) Scale() float64 {
	if s.Resolution > 0 {
		return s.Resolution
	}
	return 1
}

// HasOperationalRange reports whether OperationalLow/High bound the value
// (both -1 means "unbounded / undefined").
func (s SPN) HasOperationalRange() bool {
	return !(s.OperationalLow == -1 && s.OperationalHigh == -1)
}
