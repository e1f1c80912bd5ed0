package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/tarm/serial"
)

// SerialSource reads candump-format lines off a serial adapter: an
// ELM327-style CAN-to-serial bridge configured to emit one frame per
// line.
type SerialSource struct {
	config serial.Config
}

// NewSerialSource returns a Source reading candump lines from portName
// at baud.
func NewSerialSource(portName string, baud int) *SerialSource {
	return &SerialSource{config: serial.Config{
		Name:        portName,
		Baud:        baud,
		ReadTimeout: 100 * time.Millisecond,
	}}
}

// Frames opens the serial port and streams parsed frames until ctx is
// canceled or the port returns a non-timeout read error.
func (s *SerialSource) Frames(ctx context.Context) (<-chan Frame, <-chan error) {
	frames := make(chan Frame, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(frames)
		defer close(errs)

		port, err := serial.OpenPort(&s.config)
		if err != nil {
			errs <- fmt.Errorf("ingest: open serial port %s: %w", s.config.Name, err)
			return
		}
		defer port.Close()

		lines := make(chan string, 64)
		lineErrs := make(chan error, 1)
		go scanLines(port, lines, lineErrs)

		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-lines:
				if !ok {
					if err := <-lineErrs; err != nil && err != io.EOF {
						errs <- err
					}
					return
				}
				frame, err := ParseCandumpLine(line)
				if err != nil {
					log.Printf("ingest: skipping malformed line: %v", err)
					continue
				}
				select {
				case frames <- frame:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return frames, errs
}

// scanLines feeds successive newline-delimited reads from r into lines,
// since serial.Port does not implement bufio.Scanner's required
// io.Reader contract cleanly under a read timeout (a timed-out read
// returns 0, nil, not io.EOF).
func scanLines(r io.Reader, lines chan<- string, errs chan<- error) {
	defer close(lines)
	defer close(errs)

	var buf []byte
	chunk := make([]byte, 256)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				i := indexByte(buf, '\n')
				if i < 0 {
					break
				}
				lines <- string(buf[:i])
				buf = buf[i+1:]
			}
		}
		if err != nil {
			if err == io.EOF && n > 0 {
				continue
			}
			errs <- err
			return
		}
	}
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
