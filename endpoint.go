package zsock

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// DynPortFirst and DynPortLast bound the port range defined by IANA for
// dynamic or private ports. Ephemeral binds draw from this range unless the
// endpoint or DynamicPortRangeOption narrows it.
const (
	DynPortFirst = 0xc000 // 49152
	DynPortLast  = 0xffff // 65535
)

// maxEndpointLength caps one endpoint inside an attach list.
const maxEndpointLength = 255

// Errors returned by bind, connect and attach operations.
var (
	// ErrNoFreePort is returned when an ephemeral bind exhausts its port
	// range without a successful bind.
	ErrNoFreePort = errors.New("no free port in range")
	// ErrEndpointTooLong is returned by Attach when one endpoint in the
	// list exceeds maxEndpointLength characters.
	ErrEndpointTooLong = errors.New("endpoint exceeds maximum length")
)

// The two tcp endpoint grammars with port semantics, checked in priority
// order. Everything else passes through to the transport verbatim.
var (
	fixedPortRE = regexp.MustCompile(`^tcp://.*:(\d+)$`)
	ephemeralRE = regexp.MustCompile(`^(tcp://.*):([*!])(\[(\d+)?-(\d+)?\])?$`)
)

// Bind binds the socket to an endpoint. For tcp:// endpoints, supports
// ephemeral ports if the port is given as "*" (first free port, scanning
// up) or "!" (random starting point, then scanning up). Both draw from the
// IANA dynamic range by default; follow the operator with "[first-last]"
// to narrow it, where either bound may be empty.
//
// Examples:
//
//	tcp://127.0.0.1:*                first free port from 49152 up
//	tcp://127.0.0.1:!                random port from 49152 to 65535
//	tcp://127.0.0.1:*[60000-]        first free port from 60000 up
//	tcp://127.0.0.1:![55000-55999]   random port from 55000 to 55999
//
// On success returns the actual port for tcp:// endpoints and 0 for other
// transports, and records the endpoint as the session's last bound
// endpoint. On failure returns -1 and a non-nil error. Note that ephemeral
// ports may be reused by different services without clients being aware;
// protocols running on them should take this into account.
func (s *Sock) Bind(endpoint string) (int, error) {
	s.mustBeValid()

	if m := fixedPortRE.FindStringSubmatch(endpoint); m != nil {
		if err := s.sock.Listen(endpoint); err != nil {
			return -1, errors.Wrapf(err, "bind %s", endpoint)
		}
		port, _ := strconv.Atoi(m[1])
		s.setEndpoint(endpoint, port)
		return port, nil
	}

	if m := ephemeralRE.FindStringSubmatch(endpoint); m != nil {
		host := m[1]
		random := m[2] == "!"
		first, last := s.opts.dynFirst, s.opts.dynLast
		if m[4] != "" {
			first, _ = strconv.Atoi(m[4])
		}
		if m[5] != "" {
			last, _ = strconv.Atoi(m[5])
		}
		port, bound, err := s.bindEphemeral(host, first, last, random)
		if err != nil {
			return -1, err
		}
		s.setEndpoint(bound, port)
		return port, nil
	}

	// No port semantics; whatever the transport says goes.
	if err := s.sock.Listen(endpoint); err != nil {
		return -1, errors.Wrapf(err, "bind %s", endpoint)
	}
	s.setEndpoint(endpoint, 0)
	return 0, nil
}

// bindEphemeral scans the [first, last] range for a port the transport will
// bind. Sequential mode starts at first; random mode takes a random leap
// into the range and still scans sequentially from there, wrapping at last,
// so a free slot is found rapidly while concurrent allocators rarely
// collide. The attempt budget is the range size; exhausting it fails with
// ErrNoFreePort, as does an inverted or empty range.
func (s *Sock) bindEphemeral(host string, first, last int, random bool) (int, string, error) {
	attempts := last - first + 1
	if attempts <= 0 {
		return -1, "", errors.Wrapf(ErrNoFreePort, "%s:[%d-%d]", host, first, last)
	}

	port := first
	if random {
		// rand.IntN is safe for concurrent use and keeps no state here.
		port += rand.Intn(attempts)
	}

	for ; attempts > 0; attempts-- {
		endpoint := fmt.Sprintf("%s:%d", host, port)
		if err := s.sock.Listen(endpoint); err == nil {
			return port, endpoint, nil
		}
		if port++; port > last {
			port = first
		}
	}
	return -1, "", errors.Wrapf(ErrNoFreePort, "%s:[%d-%d]", host, first, last)
}

// setEndpoint records the endpoint of the most recent successful bind,
// overwriting any earlier one.
func (s *Sock) setEndpoint(endpoint string, port int) {
	s.endpoint = endpoint
	s.logger.Debug("socket bound", "type", s.kind.String(), "endpoint", endpoint, "port", port)
}

// Unbinder is the optional interface of transport sockets able to unbind a
// single endpoint.
type Unbinder interface {
	Unbind(endpoint string) error
}

// Disconnecter is the optional interface of transport sockets able to
// disconnect a single endpoint.
type Disconnecter interface {
	Disconnect(endpoint string) error
}

// Unbind unbinds the socket from one endpoint. Returns ErrNotSupported if
// the underlying transport socket cannot unbind individual endpoints.
func (s *Sock) Unbind(endpoint string) error {
	s.mustBeValid()
	u, ok := s.sock.(Unbinder)
	if !ok {
		return errors.Wrapf(ErrNotSupported, "unbind %s", endpoint)
	}
	return errors.Wrapf(u.Unbind(endpoint), "unbind %s", endpoint)
}

// Disconnect disconnects the socket from one endpoint. Returns
// ErrNotSupported if the underlying transport socket cannot disconnect
// individual endpoints.
func (s *Sock) Disconnect(endpoint string) error {
	s.mustBeValid()
	d, ok := s.sock.(Disconnecter)
	if !ok {
		return errors.Wrapf(ErrNotSupported, "disconnect %s", endpoint)
	}
	return errors.Wrapf(d.Disconnect(endpoint), "disconnect %s", endpoint)
}

// Connect connects the socket to an endpoint. With ConnectRetryOption set,
// a connect refused by the peer is retried with a fixed delay, which
// bridges the bind/connect race between cooperating goroutines on
// transports where the bind must happen first.
func (s *Sock) Connect(endpoint string) error {
	s.mustBeValid()

	err := s.sock.Dial(endpoint)
	for retries := s.opts.connectRetries; err != nil && retries > 0; retries-- {
		if !errors.Is(err, syscall.ECONNREFUSED) {
			break
		}
		time.Sleep(s.opts.connectRetryDelay)
		err = s.sock.Dial(endpoint)
	}
	return errors.Wrapf(err, "connect %s", endpoint)
}

// Attach attaches the socket to zero or more endpoints. An empty list is a
// no-op. Otherwise the list is parsed as comma-separated endpoints, each
// optionally prefixed by '@' (bind) or '>' (connect); without a prefix,
// serverish decides: true binds, false connects. Each endpoint may be at
// most 255 characters.
//
// The first endpoint that fails aborts the call; endpoints applied before
// the failure stay applied. Callers needing a clean slate after a failed
// attach should close the socket.
func (s *Sock) Attach(endpoints string, serverish bool) error {
	s.mustBeValid()
	if endpoints == "" {
		return nil
	}

	parts := strings.Split(endpoints, ",")
	// A single trailing comma does not introduce an empty endpoint.
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}

	for _, endpoint := range parts {
		if len(endpoint) > maxEndpointLength {
			return errors.Wrapf(ErrEndpointTooLong, "%.32q...", endpoint)
		}

		var err error
		switch {
		case strings.HasPrefix(endpoint, "@"):
			_, err = s.Bind(endpoint[1:])
		case strings.HasPrefix(endpoint, ">"):
			err = s.Connect(endpoint[1:])
		case serverish:
			_, err = s.Bind(endpoint)
		default:
			err = s.Connect(endpoint)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
