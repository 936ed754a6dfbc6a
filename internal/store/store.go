// Package store holds the clubs and players served by the GraphQL handler.
// Everything is kept in memory, in insertion order, and is lost when the process exits.
package store

// store.go implements the Store type with its lookups and appends

import (
	"sync"
)

type (
	// Club is a football club
	Club struct {
		ID   int    `yaml:"id" graphql:"id"`
		Name string `yaml:"name"`
	}

	// Player is a football player - ClubID refers to Club.ID but this is not enforced
	Player struct {
		ID     int    `yaml:"id" graphql:"id"`
		Name   string `yaml:"name"`
		ClubID int    `yaml:"clubId" graphql:"clubId"`
	}

	// Store contains the 2 collections plus the counters used to assign new IDs.
	// All methods are safe for concurrent use.
	Store struct {
		mtx     sync.RWMutex
		clubs   []Club
		players []Player

		lastClubID, lastPlayerID int // highest ID assigned so far (for each collection)

		feed feed // notifies subscribers of appended clubs/players
	}
)

// New returns a store containing the initial clubs and players
func New() *Store {
	s := NewEmpty()
	s.clubs = []Club{
		{ID: 1, Name: "Real Madrid"},
		{ID: 2, Name: "Atl Madrid"},
		{ID: 3, Name: "Barcelona"},
	}
	s.players = []Player{
		{ID: 1, Name: "Sergio Ramos", ClubID: 1},
		{ID: 2, Name: "Lionel Messi", ClubID: 3},
		{ID: 3, Name: "Niguez Saul", ClubID: 2},
	}
	s.lastClubID, s.lastPlayerID = 3, 3
	return s
}

// NewEmpty returns a store with no clubs or players
func NewEmpty() *Store {
	return &Store{feed: newFeed()}
}

// Club finds the first club with the given ID
func (s *Store) Club(id int) (Club, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	for _, c := range s.clubs {
		if c.ID == id {
			return c, true
		}
	}
	return Club{}, false
}

// Clubs returns a copy of all clubs in the order they were added
func (s *Store) Clubs() []Club {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return append(make([]Club, 0, len(s.clubs)), s.clubs...)
}

// Player finds the first player with the given ID
func (s *Store) Player(id int) (Player, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	for _, p := range s.players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Players returns a copy of all players in the order they were added
func (s *Store) Players() []Player {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return append(make([]Player, 0, len(s.players)), s.players...)
}

// PlayersOf returns all players whose ClubID is clubID (in the order they were added).
// The returned slice is empty (not nil) if there are none.
func (s *Store) PlayersOf(clubID int) []Player {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	r := []Player{}
	for _, p := range s.players {
		if p.ClubID == clubID {
			r = append(r, p)
		}
	}
	return r
}

// ClubOf returns the club that a player belongs to - ok is false for a dangling ClubID
func (s *Store) ClubOf(p Player) (Club, bool) {
	return s.Club(p.ClubID)
}

// Count returns the number of clubs and players
func (s *Store) Count() (clubs, players int) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.clubs), len(s.players)
}

// AddClub appends a new club, assigning it the next club ID
func (s *Store) AddClub(name string) Club {
	s.mtx.Lock()
	s.lastClubID++
	c := Club{ID: s.lastClubID, Name: name}
	s.clubs = append(s.clubs, c)
	s.mtx.Unlock()

	s.feed.publish(Event{Club: &c})
	return c
}

// AddPlayer appends a new player, assigning it the next player ID.
// The club ID is stored as is, even if there is no such club.
func (s *Store) AddPlayer(name string, clubID int) Player {
	s.mtx.Lock()
	s.lastPlayerID++
	p := Player{ID: s.lastPlayerID, Name: name, ClubID: clubID}
	s.players = append(s.players, p)
	s.mtx.Unlock()

	s.feed.publish(Event{Player: &p})
	return p
}
