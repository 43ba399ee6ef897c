package zsock

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// TermCommand is the command string an actor handler must treat as its
// shutdown request.
const TermCommand = "$TERM"

// Handler runs inside an actor goroutine and owns its end of the pipe for
// its whole lifetime. A handler must signal on the pipe (status 0 by
// convention) once it is ready to receive commands, and must return when it
// receives the TermCommand string.
type Handler func(pipe *Sock)

// actorSeq makes each actor pipe endpoint unique within the process.
var actorSeq atomic.Uint64

// Actor is a goroutine running a Handler, coordinated with its owner over
// an inproc pipe pair using the signal protocol. An Actor resolves to its
// owner-side pipe socket, so Send, Recv, Signal and Wait accept it
// anywhere a socket reference is expected.
type Actor struct {
	pipe   *Sock
	group  errgroup.Group
	closed atomic.Bool
	logger Logger
}

// NewActor starts a handler goroutine connected over a fresh inproc pipe
// pair and blocks until the handler signals it is ready. On any failure the
// pipe sockets are released and the error returned.
func NewActor(ctx context.Context, handler Handler, opt ...Option) (*Actor, error) {
	endpoint := fmt.Sprintf("inproc://zsock-actor-%d", actorSeq.Add(1))

	parent, err := New(ctx, Pair, opt...)
	if err != nil {
		return nil, err
	}
	if _, err := parent.Bind(endpoint); err != nil {
		parent.Close()
		return nil, err
	}

	child, err := New(ctx, Pair, opt...)
	if err != nil {
		parent.Close()
		return nil, err
	}
	if err := child.Connect(endpoint); err != nil {
		child.Close()
		parent.Close()
		return nil, err
	}

	a := &Actor{pipe: parent, logger: parent.logger}
	a.group.Go(func() error {
		handler(child)
		// Acknowledge termination before releasing the pipe.
		err := Signal(child, 0)
		child.Close()
		return err
	})

	if _, err := Wait(parent); err != nil {
		a.group.Wait()
		parent.Close()
		return nil, errors.Wrap(err, "actor startup")
	}

	a.logger.Debug("actor started", "pipe", endpoint)
	return a, nil
}

// Socket returns the owner-side pipe socket, which is how the handle
// resolver reaches through an actor reference.
func (a *Actor) Socket() zmq4.Socket {
	return a.pipe.Socket()
}

// Close asks the handler to terminate, waits for its acknowledgement and
// releases the pipe. Safe to call multiple times.
func (a *Actor) Close() error {
	if a.closed.Swap(true) {
		return nil
	}

	err := Send(a.pipe, "s", TermCommand)
	if err == nil {
		_, err = Wait(a.pipe)
	}
	if werr := a.group.Wait(); err == nil {
		err = werr
	}
	a.pipe.Close()

	a.logger.Debug("actor stopped")
	return err
}
