package store

// load.go reads the initial clubs and players from YAML (instead of using the built-in ones)

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type (
	// seed is the layout of a YAML seed document, eg:
	//   clubs:
	//     - {id: 1, name: Real Madrid}
	//   players:
	//     - {id: 1, name: Sergio Ramos, clubId: 1}
	seed struct {
		Clubs   []Club   `yaml:"clubs"`
		Players []Player `yaml:"players"`
	}

	storeKey struct{}
)

// Load creates a store from a YAML seed document. IDs must be unique in each collection
// and new IDs are assigned after the largest ID found.
func Load(r io.Reader) (*Store, error) {
	var data seed
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&data); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w decoding seed data", err)
	}

	s := NewEmpty()
	seen := make(map[int]bool, len(data.Clubs))
	for _, c := range data.Clubs {
		if seen[c.ID] {
			return nil, fmt.Errorf("duplicate club id %d in seed data", c.ID)
		}
		seen[c.ID] = true
		if c.ID > s.lastClubID {
			s.lastClubID = c.ID
		}
		s.clubs = append(s.clubs, c)
	}

	seen = make(map[int]bool, len(data.Players))
	for _, p := range data.Players {
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate player id %d in seed data", p.ID)
		}
		seen[p.ID] = true
		if p.ID > s.lastPlayerID {
			s.lastPlayerID = p.ID
		}
		s.players = append(s.players, p)
	}
	return s, nil
}

// NewContext returns a copy of ctx that carries the store (see FromContext)
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

// FromContext returns the store added with NewContext or nil if there is none
func FromContext(ctx context.Context) *Store {
	s, _ := ctx.Value(storeKey{}).(*Store)
	return s
}
