package zsock

import (
	"encoding/binary"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"
)

// A signal is a single 8-byte frame holding signalMagic with the low byte
// replaced by the status, little-endian on the wire. The magic makes
// signals distinguishable from ordinary application messages sharing the
// socket.
const (
	signalMagic uint64 = 0x7766554433221100
	signalMask  uint64 = 0xffffffffffffff00
)

// Signal sends a signal over a socket, actor or raw transport socket. A
// signal is a short message carrying a success/failure status; by
// convention 0 means OK. Signals are encoded to be distinguishable from
// ordinary messages, which lets control handshakes share a socket with
// application traffic.
func Signal(sock any, status byte) error {
	s := Resolve(sock)
	if s == nil {
		return errors.Wrap(ErrNotASocket, "signal")
	}

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, signalMagic|uint64(status))
	return errors.Wrap(s.Send(zmq4.NewMsg(buf)), "signal")
}

// Wait blocks until a signal arrives on the socket, actor or raw transport
// socket, and returns the received status. Use this to coordinate between
// goroutines over pipe pairs. Messages that are not signals are discarded
// while waiting, so callers relying on message ordering must not interleave
// Wait with ordinary receives on the same socket. Wait returns an error
// only when the underlying receive fails.
func Wait(sock any) (byte, error) {
	s := Resolve(sock)
	if s == nil {
		return 0, errors.Wrap(ErrNotASocket, "wait")
	}

	for {
		msg, err := s.Recv()
		if err != nil {
			return 0, errors.Wrap(err, "wait")
		}
		if len(msg.Frames) == 1 && len(msg.Frames[0]) == 8 {
			value := binary.LittleEndian.Uint64(msg.Frames[0])
			if value&signalMask == signalMagic {
				return byte(value), nil
			}
		}
		// Not a signal; drop it and keep looking.
	}
}
