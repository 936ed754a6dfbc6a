package handler

// options.go has the functional options accepted by New, eg:
//
//   handler.New(s, nil, handler.NoConsole(true), handler.PongTimeout(time.Second))
//
// Options are applied in order so a repeated option overrides the earlier one.

import (
	"time"
)

// Websocket timing used when the corresponding option is not given (or is zero)
const (
	defaultInitialTimeout = 10 * time.Second
	defaultPingFrequency  = 20 * time.Second
	defaultPongTimeout    = 5 * time.Second
)

// applyOptions runs the options then fills in any websocket timing left at zero
func (h *Handler) applyOptions(options []func(*Handler)) {
	for _, option := range options {
		option(h)
	}
	for _, d := range []struct {
		v   *time.Duration
		def time.Duration
	}{
		{&h.initialTimeout, defaultInitialTimeout},
		{&h.pingFrequency, defaultPingFrequency},
		{&h.pongTimeout, defaultPongTimeout},
	} {
		if *d.v == 0 {
			*d.v = d.def
		}
	}
}

// NoIntrospection rejects __schema and __type queries (__typename still works)
func NoIntrospection(on bool) func(*Handler) {
	return func(h *Handler) { h.noIntrospection = on }
}

// NoConcurrency resolves the fields of a query one at a time
func NoConcurrency(on bool) func(*Handler) {
	return func(h *Handler) { h.noConcurrency = on }
}

// NoConsole disables GraphiQL; browser GETs without a query then get a 400
func NoConsole(on bool) func(*Handler) {
	return func(h *Handler) { h.noConsole = on }
}

// InitialTimeout limits the wait for connection_init on a new websocket
func InitialTimeout(d time.Duration) func(*Handler) {
	return func(h *Handler) { h.initialTimeout = d }
}

// PingFrequency is the keep-alive interval: "ping" for graphql-transport-ws, "ka" for graphql-ws
func PingFrequency(d time.Duration) func(*Handler) {
	return func(h *Handler) { h.pingFrequency = d }
}

// PongTimeout closes a graphql-transport-ws connection if no "pong" follows a "ping" within d
func PongTimeout(d time.Duration) func(*Handler) {
	return func(h *Handler) { h.pongTimeout = d }
}
