package clubql

// clubql.go provides the gql type for generating the GraphQL HTTP handler or schema

import (
	"net/http"

	"github.com/andrewwphillips/clubql/internal/handler"
	"github.com/andrewwphillips/clubql/internal/store"
)

type gql struct {
	store   *Store
	options []func(*options)
}

// New creates a new instance that serves the clubs and players of a store.
// If s is nil a store with the initial clubs and players (see NewStore) is used.
func New(s *Store, options ...func(*options)) gql {
	if s == nil {
		s = NewStore()
	}
	return gql{store: s, options: options}
}

// Store returns the store used by the resolvers
func (g *gql) Store() *Store {
	return g.store
}

// GetSchema returns the GraphQL schema document
func (g *gql) GetSchema() (string, error) {
	return NewSchema().SDL()
}

// GetHandler builds the schema and returns the HTTP handler that handles GraphQL queries
func (g *gql) GetHandler() (http.Handler, error) {
	s := NewSchema()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return WithStore(g.store, handler.New(s, nil, handlerOptions(g.options)...)), nil
}

// WithStore returns a handler that makes the store available to the resolvers (via the
// request context) before calling next
func WithStore(s *Store, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(store.NewContext(r.Context(), s)))
	})
}
