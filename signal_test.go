package zsock

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/go-zeromq/zmq4"
)

func TestSignal_WireFormat(t *testing.T) {
	a, _ := newFakePair()

	if err := Signal(a, 123); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}
	if len(a.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(a.sent))
	}
	frames := a.sent[0].Frames
	if len(frames) != 1 || len(frames[0]) != 8 {
		t.Fatalf("signal shape = %d frames, %d bytes", len(frames), len(frames[0]))
	}

	value := binary.LittleEndian.Uint64(frames[0])
	if value&signalMask != signalMagic {
		t.Errorf("magic = %#x", value&signalMask)
	}
	if byte(value) != 123 {
		t.Errorf("status = %d, want 123", byte(value))
	}
}

func TestSignalWait_RoundTrip(t *testing.T) {
	a, b := newFakePair()

	for _, status := range []byte{0, 1, 123, 255} {
		if err := Signal(a, status); err != nil {
			t.Fatalf("Signal(%d) failed: %v", status, err)
		}
		got, err := Wait(b)
		if err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
		if got != status {
			t.Errorf("Wait = %d, want %d", got, status)
		}
	}
}

func TestWait_DiscardsOtherTraffic(t *testing.T) {
	a, b := newFakePair()

	// Ordinary messages, a multi-frame message, and an 8-byte frame with
	// the wrong magic must all be dropped while waiting.
	if err := Send(a, "s", "noise"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := Send(a, "ss", "more", "noise"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	bogus := make([]byte, 8)
	binary.LittleEndian.PutUint64(bogus, 0x1122334455667700)
	b.inbox <- zmq4.NewMsg(bogus)

	if err := Signal(a, 42); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}

	status, err := Wait(b)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if status != 42 {
		t.Errorf("Wait = %d, want 42", status)
	}
	if len(b.inbox) != 0 {
		t.Errorf("%d messages left in queue, want 0", len(b.inbox))
	}
}

func TestWait_ReceiveFailure(t *testing.T) {
	_, b := newFakePair()
	close(b.inbox)

	if _, err := Wait(b); err == nil {
		t.Fatal("Wait succeeded on a failed receive")
	}
}

func TestSignalWait_UnresolvableReference(t *testing.T) {
	if err := Signal("nope", 0); !errors.Is(err, ErrNotASocket) {
		t.Errorf("Signal error = %v, want ErrNotASocket", err)
	}
	if _, err := Wait("nope"); !errors.Is(err, ErrNotASocket) {
		t.Errorf("Wait error = %v, want ErrNotASocket", err)
	}
}

func TestSignalWait_ThroughSockWrapper(t *testing.T) {
	a, b := newFakePair()
	sa := newTestSock(t, Pair, a)
	sb := newTestSock(t, Pair, b)
	defer sa.Close()
	defer sb.Close()

	if err := sa.Signal(0); err != nil {
		t.Fatalf("Signal failed: %v", err)
	}
	status, err := sb.Wait()
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if status != 0 {
		t.Errorf("Wait = %d, want 0", status)
	}
}
