package zsock

import (
	"context"
	"strings"
	"testing"
)

// shoutHandler echoes every command back upper-cased until told to stop.
func shoutHandler(pipe *Sock) {
	if err := pipe.Signal(0); err != nil {
		return
	}
	for {
		var cmd string
		if err := pipe.Recv("s", &cmd); err != nil {
			return
		}
		if cmd == TermCommand {
			return
		}
		if err := pipe.Send("s", strings.ToUpper(cmd)); err != nil {
			return
		}
	}
}

func TestActor_Lifecycle(t *testing.T) {
	actor, err := NewActor(context.Background(), shoutHandler)
	if err != nil {
		t.Fatalf("NewActor failed: %v", err)
	}

	if err := Send(actor, "s", "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	var reply string
	if err := Recv(actor, "s", &reply); err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	if reply != "HELLO" {
		t.Errorf("reply = %q, want HELLO", reply)
	}

	if err := actor.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := actor.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}

func TestActor_ResolvesToPipe(t *testing.T) {
	actor, err := NewActor(context.Background(), shoutHandler)
	if err != nil {
		t.Fatalf("NewActor failed: %v", err)
	}
	defer actor.Close()

	if Resolve(actor) == nil {
		t.Error("actor did not resolve to a socket")
	}
	if Resolve(actor) != actor.Socket() {
		t.Error("Resolve(actor) != actor.Socket()")
	}
}

func TestActor_ReadySignalCarriesStatus(t *testing.T) {
	// A handler may signal a non-zero status; startup only cares that a
	// signal arrived.
	actor, err := NewActor(context.Background(), func(pipe *Sock) {
		if err := pipe.Signal(7); err != nil {
			return
		}
		var cmd string
		for cmd != TermCommand {
			if err := pipe.Recv("s", &cmd); err != nil {
				return
			}
		}
	})
	if err != nil {
		t.Fatalf("NewActor failed: %v", err)
	}
	if err := actor.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
