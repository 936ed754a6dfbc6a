package clubql

// options.go has the options accepted by New and MustRun. Each returns a closure that records
// the setting, which is later converted to the equivalent handler option.

import (
	"time"

	"github.com/andrewwphillips/clubql/internal/handler"
)

type options struct {
	noIntrospection, noConcurrency, noConsole  bool
	initialTimeout, pingFrequency, pongTimeout time.Duration
}

// NoIntrospection rejects __schema and __type queries (eg for a production server)
func NoIntrospection(on bool) func(*options) {
	return func(opt *options) {
		opt.noIntrospection = on
	}
}

// NoConcurrency resolves query fields one at a time, in document order (mutation fields are always serial)
func NoConcurrency(on bool) func(*options) {
	return func(opt *options) {
		opt.noConcurrency = on
	}
}

// NoConsole stops the GraphiQL console being sent to a browser that GETs the GraphQL endpoint
func NoConsole(on bool) func(*options) {
	return func(opt *options) {
		opt.noConsole = on
	}
}

// InitialTimeout limits how long a new websocket client has to send "connection_init"
func InitialTimeout(timeout time.Duration) func(*options) {
	return func(opt *options) {
		opt.initialTimeout = timeout
	}
}

// PingFrequency is the interval between keep-alive messages sent on a websocket
func PingFrequency(freq time.Duration) func(*options) {
	return func(opt *options) {
		opt.pingFrequency = freq
	}
}

// PongTimeout is how long a graphql-transport-ws client has to answer a ping
func PongTimeout(timeout time.Duration) func(*options) {
	return func(opt *options) {
		opt.pongTimeout = timeout
	}
}

// handlerOptions runs the option closures and converts the result into handler options
func handlerOptions(opts []func(*options)) []func(*handler.Handler) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return []func(*handler.Handler){
		handler.NoIntrospection(o.noIntrospection),
		handler.NoConcurrency(o.noConcurrency),
		handler.NoConsole(o.noConsole),
		handler.InitialTimeout(o.initialTimeout), // zero durations get the handler's default
		handler.PingFrequency(o.pingFrequency),
		handler.PongTimeout(o.pongTimeout),
	}
}
