package clubql

// types.go exposes the store types used by the resolvers

import (
	"io"

	"github.com/andrewwphillips/clubql/internal/store"
)

type (
	// Store holds all the clubs and players - it is safe for concurrent use
	Store = store.Store

	// Club is a football club
	Club = store.Club

	// Player is a football player. ClubID refers to a Club but the club may not exist.
	Player = store.Player
)

// NewStore returns a store containing the initial clubs and players:
//   clubs: 1 Real Madrid, 2 Atl Madrid, 3 Barcelona
//   players: 1 Sergio Ramos (club 1), 2 Lionel Messi (club 3), 3 Niguez Saul (club 2)
func NewStore() *Store {
	return store.New()
}

// LoadStore returns a store containing the clubs and players of a YAML document
func LoadStore(r io.Reader) (*Store, error) {
	return store.Load(r)
}
