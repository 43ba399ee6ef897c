package main

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/zmqkit/zsock"
)

// upcase is an actor handler that shouts back every string it receives.
func upcase(pipe *zsock.Sock) {
	if err := pipe.Signal(0); err != nil {
		return
	}
	for {
		var cmd string
		if err := pipe.Recv("s", &cmd); err != nil {
			return
		}
		if cmd == zsock.TermCommand {
			return
		}
		if err := pipe.Send("s", strings.ToUpper(cmd)); err != nil {
			return
		}
	}
}

func main() {
	ctx := context.Background()

	// Coordinate with a worker goroutine over an actor pipe.
	actor, err := zsock.NewActor(ctx, upcase)
	if err != nil {
		slog.Error("failed to start actor", "error", err)
		return
	}
	defer actor.Close()

	if err := zsock.Send(actor, "s", "hello from the pipe"); err != nil {
		slog.Error("actor send failed", "error", err)
		return
	}
	var reply string
	if err := zsock.Recv(actor, "s", &reply); err != nil {
		slog.Error("actor recv failed", "error", err)
		return
	}
	slog.Info("actor replied", "reply", reply)

	// Push/pull over an ephemeral tcp port.
	writer, err := zsock.NewPush(ctx, "")
	if err != nil {
		slog.Error("failed to create writer", "error", err)
		return
	}
	defer writer.Close()

	port, err := writer.Bind("tcp://127.0.0.1:*[60000-60100]")
	if err != nil {
		slog.Error("bind failed", "error", err)
		return
	}
	slog.Info("writer bound", "endpoint", writer.Endpoint(), "port", port)

	reader, err := zsock.NewPull(ctx, ">"+writer.Endpoint())
	if err != nil {
		slog.Error("failed to create reader", "error", err)
		return
	}
	defer reader.Close()

	var group errgroup.Group
	group.Go(func() error {
		var seq int
		var body []byte
		if err := reader.Recv("ib", &seq, &body); err != nil {
			return err
		}
		slog.Info("received", "seq", seq, "body", string(body))
		return nil
	})

	if err := writer.Send("ib", 1, []byte("ABCDE")); err != nil {
		slog.Error("send failed", "error", err)
		return
	}
	if err := group.Wait(); err != nil {
		slog.Error("read failed", "error", err)
	}
}
