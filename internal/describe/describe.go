// Package describe implements the Message Describer: given a PGN and a
// payload, it decodes every declared SPN into a human-readable field,
// honoring a per-session coverage map so a value already emitted from an
// earlier (partial) view of the same session is not repeated.
package describe

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nmfta-repo/pretty-j1939/internal/bitfield"
	"github.com/nmfta-repo/pretty-j1939/internal/coverage"
	"github.com/nmfta-repo/pretty-j1939/internal/dadb"
	"github.com/nmfta-repo/pretty-j1939/internal/j1939id"
	"github.com/nmfta-repo/pretty-j1939/internal/spnvalue"
)

// Field is one decoded key/value pair, in the PGN's declared SPN order.
// SPN and OutOfRange are populated for numerical fields so a caller (the
// top-level Orchestrator) can raise an alert without re-decoding.
type Field struct {
	Name       string
	Value      string
	SPN        int
	OutOfRange bool
}

// Describer decodes PGN payloads against a shared, read-only DA Dictionary.
type Describer struct {
	db        *dadb.DB
	includeNA bool
}

// New returns a Describer bound to db. includeNA controls whether
// NotAvailable SPN values are emitted as "N/A" (true) or silently
// suppressed-but-covered (false).
func New(db *dadb.DB, includeNA bool) *Describer {
	return &Describer{db: db, includeNA: includeNA}
}

var nonNumericalUnits = map[string]struct{}{
	"manufacturer determined": {},
	"byte":                    {},
	"":                        {},
	"request dependent":       {},
	"ascii":                   {},
}

func isNumerical(units string) bool {
	_, nonNumeric := nonNumericalUnits[strings.ToLower(units)]
	return !nonNumeric
}

// Describe decodes pgn's payload, skipping SPNs already present in cov,
// and returns the fields emitted this call in declared SPN order. Fields
// handled definitively (emitted, or NotAvailable-suppressed) are recorded
// into cov; SPNs left Incomplete are not recorded, so a later, more
// complete view may still emit them.
//
// Per the transport-PGN invariant, a PGN that is itself one of the
// transport wrapper PGNs (0xEC00/0xEB00/0xE800) is never parsed using its
// own SPN list and always yields an empty result.
func (d *Describer) Describe(pgn int, payload []byte, isComplete bool, cov *coverage.Map) []Field {
	if j1939id.IsTransportPGN(uint32(pgn)) {
		return nil
	}

	pgnRecord, ok := d.db.PGN(pgn)
	if !ok {
		return nil
	}

	var fields []Field
	for _, spnNumber := range pgnRecord.SPNs {
		if cov.Has(spnNumber) {
			continue
		}
		spnRecord, ok := d.db.SPN(spnNumber)
		if !ok {
			continue
		}

		if isNumerical(spnRecord.Units) {
			d.describeNumerical(pgnRecord, spnRecord, spnNumber, payload, isComplete, cov, &fields)
		} else {
			d.describeNonNumerical(pgnRecord, spnRecord, spnNumber, payload, isComplete, cov, &fields)
		}
	}
	return fields
}

func (d *Describer) describeNumerical(pgnRecord dadb.PGN, spnRecord dadb.SPN, spnNumber int, payload []byte, isComplete bool, cov *coverage.Map, fields *[]Field) {
	extracted := bitfield.Extract(payload, pgnRecord, spnRecord, spnNumber, isComplete)
	decoded := spnvalue.Decode(extracted, spnRecord, isComplete)

	switch decoded.Kind {
	case spnvalue.KindIncomplete:
		return // not covered: a later, more complete view may supply it
	case spnvalue.KindNotAvailable:
		if d.includeNA {
			d.emit(fields, cov, spnNumber, spnRecord.Name, "N/A")
		} else {
			cov.Record(spnNumber, spnRecord.Name, "N/A")
		}
	case spnvalue.KindOutOfRange:
		d.emitOutOfRange(fields, cov, spnNumber, spnRecord.Name, rawBitsString(decoded.Raw)+" (Out of range)")
	case spnvalue.KindValue:
		d.emit(fields, cov, spnNumber, spnRecord.Name, d.formatValue(decoded, spnRecord, spnNumber))
	}
}

func (d *Describer) formatValue(decoded spnvalue.Decoded, spnRecord dadb.SPN, spnNumber int) string {
	if decoded.IsBit {
		n := strconv.Itoa(int(decoded.Number))
		enum := d.db.BitDecodings(spnNumber)
		if enum == nil {
			return n + " (Unknown)"
		}
		text, ok := enum[strconv.Itoa(int(decoded.Number))]
		if !ok {
			return n + " (Unknown)"
		}
		return n + " (" + strings.TrimSpace(text) + ")"
	}
	return formatNumber(decoded.Number) + " [" + spnRecord.Units + "]"
}

func (d *Describer) describeNonNumerical(pgnRecord dadb.PGN, spnRecord dadb.SPN, spnNumber int, payload []byte, isComplete bool, cov *coverage.Map, fields *[]Field) {
	extracted := bitfield.Extract(payload, pgnRecord, spnRecord, spnNumber, isComplete)
	if extracted.Bits == 0 {
		return // not covered: empty and either incomplete, or genuinely absent
	}

	switch strings.ToLower(spnRecord.Units) {
	case "request dependent":
		d.emit(fields, cov, spnNumber, spnRecord.Name, rawBitsString(extracted.Bytes)+" ("+spnRecord.Units+")")
	case "ascii":
		if utf8.Valid(extracted.Bytes) {
			d.emit(fields, cov, spnNumber, spnRecord.Name, string(extracted.Bytes))
		} else {
			d.emit(fields, cov, spnNumber, spnRecord.Name, rawBitsString(extracted.Bytes))
		}
	default:
		d.emit(fields, cov, spnNumber, spnRecord.Name, rawBitsString(extracted.Bytes))
	}
}

func (d *Describer) emit(fields *[]Field, cov *coverage.Map, spn int, name, value string) {
	*fields = append(*fields, Field{Name: name, Value: value, SPN: spn})
	cov.Record(spn, name, value)
}

func (d *Describer) emitOutOfRange(fields *[]Field, cov *coverage.Map, spn int, name, value string) {
	*fields = append(*fields, Field{Name: name, Value: value, SPN: spn, OutOfRange: true})
	cov.Record(spn, name, value)
}

// formatNumber renders a float the way the original decoder does: always
// with a fractional part, e.g. 2500 -> "2500.0".
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
