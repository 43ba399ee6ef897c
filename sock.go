// Package zsock provides a high-level socket session layer on top of the
// go-zeromq transport. It hides raw socket handles behind a typed Sock
// object and adds endpoint parsing with ephemeral port allocation,
// picture-based multi-frame message encoding, and a signal handshake
// protocol for goroutine coordination over socket pairs.
package zsock

import (
	"context"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"
)

// Errors returned by socket operations.
var (
	// ErrNotSupported is returned for operations or socket kinds the
	// underlying transport does not provide.
	ErrNotSupported = errors.New("not supported by transport")
	// ErrNotASocket is returned when a polymorphic reference cannot be
	// resolved to a transport socket.
	ErrNotASocket = errors.New("reference does not resolve to a socket")
)

// Sock instances carry this tag while they are alive, which lets the
// resolver and the validity checks detect live instances. Close replaces it
// with deadTag.
const (
	sockTag = 0x0004cafe
	deadTag = 0xdeadbeef
)

// Kind is the socket messaging pattern of a Sock. It is fixed at
// construction.
type Kind int

// Socket kinds, in wire-protocol order.
const (
	Pair Kind = iota
	Pub
	Sub
	Req
	Rep
	Dealer
	Router
	Pull
	Push
	XPub
	XSub
	Stream
)

var kindNames = [...]string{
	"PAIR", "PUB", "SUB", "REQ", "REP",
	"DEALER", "ROUTER", "PULL", "PUSH",
	"XPUB", "XSUB", "STREAM",
}

// String returns the printable constant name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "UNKNOWN"
	}
	return kindNames[k]
}

// Sock is a socket session. It owns one underlying transport socket, knows
// its kind, and remembers the last endpoint it successfully bound.
//
// A Sock is not safe for concurrent use from multiple goroutines; each
// session assumes a single thread of control, matching the transport's own
// usage rules.
type Sock struct {
	tag      uint32
	sock     zmq4.Socket
	kind     Kind
	endpoint string
	logger   Logger

	opts options
}

// Resolver is implemented by wrappers, such as actors, that expose an
// underlying transport socket. The polymorphic operations (Send, Recv,
// Signal, Wait) accept any Resolver.
type Resolver interface {
	Socket() zmq4.Socket
}

// New creates a socket session of the given kind. The underlying transport
// socket is allocated from the transport unless CustomSocketOption supplies
// one; either way the session owns it and closes it on Close.
func New(ctx context.Context, kind Kind, opt ...Option) (*Sock, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}
	if err := checkOptions(&opts); err != nil {
		return nil, err
	}

	sock := opts.sock
	if sock == nil {
		var err error
		sock, err = newTransportSocket(ctx, kind)
		if err != nil {
			return nil, err
		}
	}

	return &Sock{
		tag:    sockTag,
		sock:   sock,
		kind:   kind,
		logger: opts.logger,
		opts:   opts,
	}, nil
}

func newTransportSocket(ctx context.Context, kind Kind) (zmq4.Socket, error) {
	switch kind {
	case Pair:
		return zmq4.NewPair(ctx), nil
	case Pub:
		return zmq4.NewPub(ctx), nil
	case Sub:
		return zmq4.NewSub(ctx), nil
	case Req:
		return zmq4.NewReq(ctx), nil
	case Rep:
		return zmq4.NewRep(ctx), nil
	case Dealer:
		return zmq4.NewDealer(ctx), nil
	case Router:
		return zmq4.NewRouter(ctx), nil
	case Pull:
		return zmq4.NewPull(ctx), nil
	case Push:
		return zmq4.NewPush(ctx), nil
	case XPub:
		return zmq4.NewXPub(ctx), nil
	case XSub:
		return zmq4.NewXSub(ctx), nil
	}
	return nil, errors.Wrapf(ErrNotSupported, "%s socket", kind)
}

// Smart constructors. In all of these, endpoints is empty or a
// comma-separated endpoint list where each endpoint may start with '@'
// (bind) or '>' (connect). Endpoints without a prefix use the default
// action of the socket kind. A failed attach closes the socket and returns
// the error.

// NewPub creates a PUB socket. Default action is bind.
func NewPub(ctx context.Context, endpoints string, opt ...Option) (*Sock, error) {
	return newAttached(ctx, Pub, endpoints, true, opt)
}

// NewSub creates a SUB socket and subscribes it to the given topic prefix.
// An empty prefix subscribes to everything. Default action is connect.
func NewSub(ctx context.Context, endpoints, subscribe string, opt ...Option) (*Sock, error) {
	s, err := New(ctx, Sub, opt...)
	if err != nil {
		return nil, err
	}
	if err := s.sock.SetOption(zmq4.OptionSubscribe, subscribe); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "subscribe")
	}
	if err := s.Attach(endpoints, false); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// NewReq creates a REQ socket. Default action is connect.
func NewReq(ctx context.Context, endpoints string, opt ...Option) (*Sock, error) {
	return newAttached(ctx, Req, endpoints, false, opt)
}

// NewRep creates a REP socket. Default action is bind.
func NewRep(ctx context.Context, endpoints string, opt ...Option) (*Sock, error) {
	return newAttached(ctx, Rep, endpoints, true, opt)
}

// NewDealer creates a DEALER socket. Default action is connect.
func NewDealer(ctx context.Context, endpoints string, opt ...Option) (*Sock, error) {
	return newAttached(ctx, Dealer, endpoints, false, opt)
}

// NewRouter creates a ROUTER socket. Default action is bind.
func NewRouter(ctx context.Context, endpoints string, opt ...Option) (*Sock, error) {
	return newAttached(ctx, Router, endpoints, true, opt)
}

// NewPush creates a PUSH socket. Default action is connect.
func NewPush(ctx context.Context, endpoints string, opt ...Option) (*Sock, error) {
	return newAttached(ctx, Push, endpoints, false, opt)
}

// NewPull creates a PULL socket. Default action is bind.
func NewPull(ctx context.Context, endpoints string, opt ...Option) (*Sock, error) {
	return newAttached(ctx, Pull, endpoints, true, opt)
}

// NewXPub creates an XPUB socket. Default action is bind.
func NewXPub(ctx context.Context, endpoints string, opt ...Option) (*Sock, error) {
	return newAttached(ctx, XPub, endpoints, true, opt)
}

// NewXSub creates an XSUB socket. Default action is connect.
func NewXSub(ctx context.Context, endpoints string, opt ...Option) (*Sock, error) {
	return newAttached(ctx, XSub, endpoints, false, opt)
}

// NewPair creates a PAIR socket. Default action is connect.
func NewPair(ctx context.Context, endpoints string, opt ...Option) (*Sock, error) {
	return newAttached(ctx, Pair, endpoints, false, opt)
}

// NewStream reports ErrNotSupported; the transport does not implement
// STREAM sockets.
func NewStream(ctx context.Context, endpoints string, opt ...Option) (*Sock, error) {
	return newAttached(ctx, Stream, endpoints, false, opt)
}

func newAttached(ctx context.Context, kind Kind, endpoints string, serverish bool, opt []Option) (*Sock, error) {
	s, err := New(ctx, kind, opt...)
	if err != nil {
		return nil, err
	}
	if err := s.Attach(endpoints, serverish); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying transport socket and invalidates the
// session. Any further operation on the session panics. Safe to call
// multiple times.
func (s *Sock) Close() error {
	if s == nil || s.tag != sockTag {
		return nil
	}
	s.tag = deadTag
	s.endpoint = ""
	return s.sock.Close()
}

// Kind returns the socket kind declared at construction.
func (s *Sock) Kind() Kind {
	s.mustBeValid()
	return s.kind
}

// Type returns the socket kind as a printable constant string.
func (s *Sock) Type() string {
	s.mustBeValid()
	return s.kind.String()
}

// Endpoint returns the last endpoint this socket successfully bound, or ""
// if it never bound.
func (s *Sock) Endpoint() string {
	s.mustBeValid()
	return s.endpoint
}

// Socket returns the underlying transport socket. The session keeps
// ownership.
func (s *Sock) Socket() zmq4.Socket {
	s.mustBeValid()
	return s.sock
}

// Send encodes the arguments against the picture into a multi-frame
// message and sends it. See the package-level Send for the picture format.
func (s *Sock) Send(picture string, args ...any) error {
	return Send(s, picture, args...)
}

// Recv receives one message and decodes it against the picture into the
// supplied output pointers. See the package-level Recv.
func (s *Sock) Recv(picture string, args ...any) error {
	return Recv(s, picture, args...)
}

// Signal sends a status signal over the socket. See the package-level
// Signal.
func (s *Sock) Signal(status byte) error {
	return Signal(s, status)
}

// Wait blocks until a signal arrives on the socket and returns its status.
// See the package-level Wait.
func (s *Sock) Wait() (byte, error) {
	return Wait(s)
}

func (s *Sock) valid() bool {
	return s != nil && s.tag == sockTag
}

// mustBeValid guards every operation against use of a closed or otherwise
// corrupt instance. That is a programmer error, not an environmental
// failure, so it is fatal.
func (s *Sock) mustBeValid() {
	if !s.valid() {
		panic("zsock: operation on invalid socket instance")
	}
}

// IsSock reports whether the reference is a live Sock instance.
func IsSock(ref any) bool {
	s, ok := ref.(*Sock)
	return ok && s.valid()
}

// Resolve probes the supplied reference and extracts the usable transport
// socket: a live Sock yields its owned socket, a Resolver (such as an
// Actor) is asked for its socket, and a raw transport socket is returned
// unchanged. Anything else resolves to nil; operations report that as
// ErrNotASocket.
func Resolve(ref any) zmq4.Socket {
	switch v := ref.(type) {
	case *Sock:
		if v.valid() {
			return v.sock
		}
	case Resolver:
		return v.Socket()
	case zmq4.Socket:
		return v
	}
	return nil
}
