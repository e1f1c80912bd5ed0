package ingest

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCandumpLineBasic(t *testing.T) {
	f, err := ParseCandumpLine("can0 18FEF100#0102030405060708")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x18FEF100), f.ID)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, f.Payload)
}

func TestParseCandumpLineWithTimestamp(t *testing.T) {
	f, err := ParseCandumpLine("(1623430000.123456) can0 0CF00400#20FE0000FFFFFFFF")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0CF00400), f.ID)
	assert.Len(t, f.Payload, 8)
}

func TestParseCandumpLineRejectsStandardID(t *testing.T) {
	_, err := ParseCandumpLine("can0 123#0102")
	assert.Error(t, err)
}

func TestParseCandumpLineMalformed(t *testing.T) {
	_, err := ParseCandumpLine("garbage line with no hash")
	assert.Error(t, err)
}

func TestScanCandumpSkipsBadLines(t *testing.T) {
	input := "can0 18FEF100#0102030405060708\n" +
		"garbage\n" +
		"can0 0CF00400#AABBCCDDEEFF0011\n"

	var logged bytes.Buffer
	log.SetOutput(&logged)
	defer log.SetOutput(os.Stderr)

	var got []Frame
	err := ScanCandump(strings.NewReader(input), func(f Frame) {
		got = append(got, f)
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint32(0x18FEF100), got[0].ID)
	assert.Equal(t, uint32(0x0CF00400), got[1].ID)

	assert.Contains(t, logged.String(), "skipping malformed line")
}
