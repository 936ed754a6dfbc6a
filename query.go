package clubql

// query.go has the fields (and resolvers) of the query type

import (
	"context"

	"github.com/andrewwphillips/clubql/internal/field"
	"github.com/andrewwphillips/clubql/internal/schema"
)

func queryFields() []*schema.Field {
	return []*schema.Field{
		{
			Name:        "player",
			Description: "Find a player by id",
			Type:        playerType,
			Args:        []*schema.Arg{{Name: "id", Type: schema.Int}},
			Resolve:     queryPlayer,
		},
		{
			Name:        "players",
			Description: "All players in the order they were added",
			Type:        schema.ListOf(playerType),
			Resolve:     queryPlayers,
		},
		{
			Name:        "club",
			Description: "Find a club by id",
			Type:        clubType,
			Args:        []*schema.Arg{{Name: "id", Type: schema.Int}},
			Resolve:     queryClub,
		},
		{
			Name:        "clubs",
			Description: "All clubs in the order they were added",
			Type:        schema.ListOf(clubType),
			Resolve:     queryClubs,
		},
	}
}

func queryPlayer(ctx context.Context, _ interface{}, args field.Args) (interface{}, error) {
	s, err := storeFrom(ctx)
	if err != nil {
		return nil, err
	}
	id, ok := args.Int("id")
	if !ok {
		return nil, nil // no id: nothing can match
	}
	if p, found := s.Player(id); found {
		return p, nil
	}
	return nil, nil
}

func queryPlayers(ctx context.Context, _ interface{}, _ field.Args) (interface{}, error) {
	s, err := storeFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.Players(), nil
}

func queryClub(ctx context.Context, _ interface{}, args field.Args) (interface{}, error) {
	s, err := storeFrom(ctx)
	if err != nil {
		return nil, err
	}
	id, ok := args.Int("id")
	if !ok {
		return nil, nil
	}
	if c, found := s.Club(id); found {
		return c, nil
	}
	return nil, nil
}

func queryClubs(ctx context.Context, _ interface{}, _ field.Args) (interface{}, error) {
	s, err := storeFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.Clubs(), nil
}
