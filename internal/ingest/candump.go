package ingest

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
)

// ParseCandumpLine parses one line of candump -L / candump log output,
// e.g. "(1623430000.123456) can0 18FEF100#0102030405060708", returning the
// extended CAN ID and payload bytes. Lines with a non-extended (11-bit,
// <=3 hex digits) ID are rejected since J1939 requires the 29-bit format.
func ParseCandumpLine(line string) (Frame, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Frame{}, fmt.Errorf("ingest: empty candump line")
	}

	fields := strings.Fields(line)
	last := fields[len(fields)-1]
	idAndData := last
	if idx := strings.LastIndexByte(last, ' '); idx >= 0 {
		idAndData = last[idx+1:]
	}

	parts := strings.SplitN(idAndData, "#", 2)
	if len(parts) != 2 {
		return Frame{}, fmt.Errorf("ingest: malformed candump frame %q", last)
	}

	idHex, dataHex := parts[0], parts[1]
	if len(idHex) <= 3 {
		return Frame{}, fmt.Errorf("ingest: non-extended CAN ID %q, J1939 requires 29-bit", idHex)
	}

	id, err := strconv.ParseUint(idHex, 16, 32)
	if err != nil {
		return Frame{}, fmt.Errorf("ingest: parse CAN ID %q: %w", idHex, err)
	}

	data, err := hex.DecodeString(strings.TrimSuffix(dataHex, "\r"))
	if err != nil {
		return Frame{}, fmt.Errorf("ingest: parse frame data %q: %w", dataHex, err)
	}

	return Frame{ID: uint32(id), Payload: data}, nil
}

// ScanCandump reads candump-format lines from r, calling fn for each
// successfully parsed Frame. A line that is blank or fails to tokenize is
// logged to stderr and skipped rather than aborting the scan, since a
// serial adapter occasionally emits partial or garbled lines under line
// noise.
func ScanCandump(r io.Reader, fn func(Frame)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		frame, err := ParseCandumpLine(scanner.Text())
		if err != nil {
			log.Printf("ingest: skipping malformed line: %v", err)
			continue
		}
		fn(frame)
	}
	return scanner.Err()
}
