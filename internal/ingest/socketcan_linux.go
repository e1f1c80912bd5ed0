//go:build linux

package ingest

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// frameSize is sizeof(struct can_frame): 4-byte ID, 1-byte length, 3
// bytes padding, 8 bytes data.
const frameSize = 16

// SocketCANSource reads raw CAN 2.0B frames from a Linux SocketCAN
// interface via a CAN_RAW socket. This intentionally does not use the
// kernel's J1939 socket family (AF_CAN/CAN_J1939): that socket type hands
// the kernel the PGN addressing and transport reassembly, but this
// decoder must observe raw link-layer frames itself to implement its own
// BAM/RTS-CTS reassembler.
type SocketCANSource struct {
	ifaceName string
}

// NewSocketCANSource returns a Source reading raw frames off ifaceName
// (e.g. "can0").
func NewSocketCANSource(ifaceName string) *SocketCANSource {
	return &SocketCANSource{ifaceName: ifaceName}
}

// Frames opens a CAN_RAW socket bound to the configured interface and
// streams decoded frames until ctx is canceled.
func (s *SocketCANSource) Frames(ctx context.Context) (<-chan Frame, <-chan error) {
	frames := make(chan Frame, 256)
	errs := make(chan error, 1)

	go func() {
		defer close(frames)
		defer close(errs)

		fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
		if err != nil {
			errs <- fmt.Errorf("ingest: open CAN_RAW socket: %w", err)
			return
		}
		defer unix.Close(fd)

		iface, err := net.InterfaceByName(s.ifaceName)
		if err != nil {
			errs <- fmt.Errorf("ingest: lookup interface %q: %w", s.ifaceName, err)
			return
		}

		addr := &unix.SockaddrCAN{Ifindex: iface.Index}
		if err := unix.Bind(fd, addr); err != nil {
			errs <- fmt.Errorf("ingest: bind CAN_RAW socket to %q: %w", s.ifaceName, err)
			return
		}

		go func() {
			<-ctx.Done()
			unix.Close(fd)
		}()

		buf := make([]byte, frameSize)
		for {
			n, _, err := unix.Recvfrom(fd, buf, 0)
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if errors.Is(err, unix.EBADF) || errors.Is(err, net.ErrClosed) {
					return
				}
				errs <- fmt.Errorf("ingest: read CAN_RAW socket: %w", err)
				return
			}
			if n < frameSize {
				continue
			}

			rawID := binary.LittleEndian.Uint32(buf[0:4])
			if rawID&unix.CAN_EFF_FLAG == 0 {
				continue // not an extended (29-bit) frame; J1939 requires CAN 2.0B
			}
			id := rawID & unix.CAN_EFF_MASK
			length := int(buf[4])
			if length > 8 {
				length = 8
			}
			payload := make([]byte, length)
			copy(payload, buf[8:8+length])

			select {
			case frames <- Frame{ID: id, Payload: payload}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return frames, errs
}
