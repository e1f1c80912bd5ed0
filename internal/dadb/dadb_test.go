package dadb

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *DB {
	t.Helper()
	data, err := os.ReadFile("../../testdata/da_fixture.json")
	require.NoError(t, err)
	db, err := Load(data)
	require.NoError(t, err)
	return db
}

func TestLoadAndLookup(t *testing.T) {
	db := loadFixture(t)

	pgn, ok := db.PGN(61444)
	require.True(t, ok)
	assert.Equal(t, "EEC1", pgn.Label)
	assert.Equal(t, []int{190}, pgn.SPNs)

	spn, ok := db.SPN(190)
	require.True(t, ok)
	assert.Equal(t, "Engine Speed", spn.Name)
	assert.Equal(t, 0.125, spn.Resolution)
}

func TestUnknownLookupsReturnUnknown(t *testing.T) {
	db := loadFixture(t)

	assert.Equal(t, "Unknown", db.PGNAcronym(1))
	assert.Equal(t, "Unknown", db.AddressName(200))
	assert.Equal(t, "All", db.AddressName(255))
	assert.Equal(t, "Engine #1", db.AddressName(0))
}

func TestLoadAcceptsNumericSPNLength(t *testing.T) {
	// Real DA documents encode a fixed SPNLength as a JSON number, not a
	// quoted string.
	data := []byte(`{"J1939PGNdb":{},"J1939SPNdb":{"190":{"Name":"Engine Speed","Units":"rpm","SPNLength":16}},"J1939SATabledb":{},"J1939BitDecodings":{}}`)
	db, err := Load(data)
	require.NoError(t, err)

	spn, ok := db.SPN(190)
	require.True(t, ok)
	n, ok := spn.FixedLength()
	assert.True(t, ok)
	assert.Equal(t, 16, n)
}

func TestLoadAcceptsStringSPNLength(t *testing.T) {
	data := []byte(`{"J1939PGNdb":{},"J1939SPNdb":{"9997":{"Name":"Variable SPN","Units":"ascii","SPNLength":"Variable, 0 to 200 bytes"}},"J1939SATabledb":{},"J1939BitDecodings":{}}`)
	db, err := Load(data)
	require.NoError(t, err)

	spn, ok := db.SPN(9997)
	require.True(t, ok)
	assert.True(t, spn.IsVariableLength())
}

func TestSPNFixedLength(t *testing.T) {
	spn := SPN{SPNLength: "16"}
	n, ok := spn.FixedLength()
	assert.True(t, ok)
	assert.Equal(t, 16, n)

	variable := SPN{SPNLength: "Variable, 0 to 1785 bytes"}
	assert.True(t, variable.IsVariableLength())
	_, ok = variable.FixedLength()
	assert.False(t, ok)
}

func TestSPNScale(t *testing.T) {
	assert.Equal(t, 0.125, SPN{Resolution: 0.125}.Scale())
	assert.Equal(t, float64(1), SPN{Resolution: 0}.Scale())
	assert.Equal(t, float64(1), SPN{Resolution: -1}.Scale())
}

func TestPGNStartBits(t *testing.T) {
	pgn := PGN{
		SPNs:         []int{1, 2, 3},
		SPNStartBits: [][]int{{0}, {-1}, {16}},
	}
	starts, fixed := pgn.StartBits(2)
	assert.Equal(t, []int{16}, starts)
	assert.Equal(t, 2, fixed) // SPNs 1 and 3 have a fixed (non -1) start; SPN 2 does not
}

func TestLoadRejectsMismatchedLength(t *testing.T) {
	bad := []byte(`{"J1939PGNdb":{"1":{"SPNs":[1,2],"SPNStartBits":[[0]]}},"J1939SPNdb":{},"J1939SATabledb":{},"J1939BitDecodings":{}}`)
	_, err := Load(bad)
	assert.Error(t, err)
}
