package zsock

import (
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"
)

// ErrInvalidPortRange is returned when a configured dynamic port range is
// empty or outside the valid port space.
var ErrInvalidPortRange = errors.New("invalid dynamic port range")

// defaultConnectRetryDelay is the fixed inter-attempt delay of the legacy
// connect retry loop.
const defaultConnectRetryDelay = 250 * time.Millisecond

// options holds the configuration for a socket session.
type options struct {
	logger Logger
	sock   zmq4.Socket

	// default range for ephemeral binds whose endpoint carries no bounds
	dynFirst int
	dynLast  int

	connectRetries    int
	connectRetryDelay time.Duration
}

// Option is a function that configures session options.
type Option func(*options)

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// CustomSocketOption returns an Option that supplies the underlying
// transport socket instead of having the session allocate one from the
// transport. The session takes ownership and closes it on Close.
func CustomSocketOption(sock zmq4.Socket) Option {
	return func(o *options) {
		o.sock = sock
	}
}

// DynamicPortRangeOption returns an Option that overrides the default port
// range used by ephemeral binds ("*" or "!" endpoints) when the endpoint
// does not carry its own [first-last] bounds. The default is the IANA
// dynamic range, DynPortFirst to DynPortLast.
func DynamicPortRangeOption(first, last int) Option {
	return func(o *options) {
		o.dynFirst = first
		o.dynLast = last
	}
}

// ConnectRetryOption returns an Option that enables the legacy retry loop
// for connects refused by the peer. Connect retries up to the given number
// of times with a fixed delay between attempts, bridging bind/connect races
// on transports that require the bind to happen first. A non-positive delay
// uses the historical 250ms.
func ConnectRetryOption(retries int, delay time.Duration) Option {
	return func(o *options) {
		o.connectRetries = retries
		o.connectRetryDelay = delay
	}
}

// checkOptions validates and sets default values for session options.
func checkOptions(opts *options) error {
	if opts.dynFirst == 0 && opts.dynLast == 0 {
		opts.dynFirst = DynPortFirst
		opts.dynLast = DynPortLast
	}

	if opts.dynFirst < 1 || opts.dynLast > 65535 || opts.dynFirst > opts.dynLast {
		return ErrInvalidPortRange
	}

	if opts.connectRetryDelay <= 0 {
		opts.connectRetryDelay = defaultConnectRetryDelay
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	return nil
}
