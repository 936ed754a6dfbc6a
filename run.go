package clubql

// run.go provides the MustRun function for quickly creating the GraphQL http handler

import (
	"net/http"
)

// MustRun creates an http handler that handles GraphQL requests for the clubs and players
// of the store (a store with the initial data if s is nil). It panics if the handler
// cannot be created.
func MustRun(s *Store, options ...func(*options)) http.Handler {
	g := New(s, options...)
	h, err := g.GetHandler()
	if err != nil {
		panic(err)
	}
	return h
}
