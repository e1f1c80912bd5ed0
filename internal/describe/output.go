package describe

import (
	"bytes"
	"encoding/json"
)

// Output is an insertion-ordered string->string mapping, matching the
// decoder's requirement for deterministic key order in its JSON output.
// Setting an already-present key updates its value in place without
// moving its position, mirroring the original decoder's use of an
// ordered mapping.
type Output struct {
	keys   []string
	values map[string]string
}

// NewOutput returns an empty ordered output.
func NewOutput() *Output {
	return &Output{values: make(map[string]string)}
}

// Set inserts key=value, or updates value in place if key is already present.
func (o *Output) Set(key, value string) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// SetFields appends/updates every field in order.
func (o *Output) SetFields(fields []Field) {
	for _, f := range fields {
		o.Set(f.Name, f.Value)
	}
}

// Len reports the number of keys currently set.
func (o *Output) Len() int {
	return len(o.keys)
}

// MarshalJSON renders the mapping as a JSON object preserving insertion order.
func (o *Output) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
