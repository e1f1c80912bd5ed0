// Package coverage tracks, per transport session, which SPNs have already
// been emitted with a definitive description so later partial reassembly
// views can skip them.
package coverage

// Entry records the name/description pair an SPN was last emitted (or
// suppressed) with.
type Entry struct {
	Name        string
	Description string
}

// Map is a per-session set of covered SPN numbers. The zero value is not
// usable; construct with New.
type Map struct {
	entries map[int]Entry
}

// New returns an empty coverage map.
func New() *Map {
	return &Map{entries: make(map[int]Entry)}
}

// Has reports whether spn has already been definitively handled.
func (m *Map) Has(spn int) bool {
	_, ok := m.entries[spn]
	return ok
}

// Record marks spn as covered with the given name/description.
func (m *Map) Record(spn int, name, description string) {
	m.entries[spn] = Entry{Name: name, Description: description}
}

// Len reports how many SPNs are currently covered.
func (m *Map) Len() int {
	return len(m.entries)
}
