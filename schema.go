package clubql

// schema.go declares the Club and Player types and the root types of the schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/andrewwphillips/clubql/internal/field"
	"github.com/andrewwphillips/clubql/internal/schema"
	"github.com/andrewwphillips/clubql/internal/store"
)

// Club and Player refer to each other so they are created in init (their Fields thunks
// are not called until the schema is first used)
var clubType, playerType, queryType, mutationType, subscriptionType *schema.Object

func init() {
	clubType = &schema.Object{Name: "Club", Description: "A football club", Fields: clubFields}
	playerType = &schema.Object{Name: "Player", Description: "A football player", Fields: playerFields}
	queryType = &schema.Object{Name: "Query", Fields: queryFields}
	mutationType = &schema.Object{Name: "Mutation", Fields: mutationFields}
	subscriptionType = &schema.Object{Name: "Subscription", Fields: subscriptionFields}
}

// NewSchema returns the schema with the query, mutation and subscription types
func NewSchema() *schema.Schema {
	return schema.New(queryType, mutationType, subscriptionType)
}

func clubFields() []*schema.Field {
	return []*schema.Field{
		{Name: "id", Type: schema.NonNull(schema.Int)},
		{Name: "name", Type: schema.NonNull(schema.String)},
		{
			Name:        "players",
			Description: "All players whose clubId is the id of this club",
			Type:        schema.ListOf(playerType),
			Resolve:     clubPlayers,
		},
	}
}

func playerFields() []*schema.Field {
	return []*schema.Field{
		{Name: "id", Type: schema.NonNull(schema.Int)},
		{Name: "name", Type: schema.NonNull(schema.String)},
		{Name: "clubId", Type: schema.NonNull(schema.Int)},
		{
			Name:        "club",
			Description: "The club the player belongs to (null if there is no club with id clubId)",
			Type:        clubType,
			Resolve:     playerClub,
		},
	}
}

var errNoStore = errors.New("no store available to resolvers")

// storeFrom gets the store that WithStore added to the request context
func storeFrom(ctx context.Context) (*Store, error) {
	s := store.FromContext(ctx)
	if s == nil {
		return nil, errNoStore
	}
	return s, nil
}

// clubPlayers resolves Club.players
func clubPlayers(ctx context.Context, parent interface{}, _ field.Args) (interface{}, error) {
	c, ok := parent.(Club)
	if !ok {
		return nil, fmt.Errorf("players resolver expected a Club but got %T", parent)
	}
	s, err := storeFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.PlayersOf(c.ID), nil
}

// playerClub resolves Player.club
func playerClub(ctx context.Context, parent interface{}, _ field.Args) (interface{}, error) {
	p, ok := parent.(Player)
	if !ok {
		return nil, fmt.Errorf("club resolver expected a Player but got %T", parent)
	}
	s, err := storeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if c, found := s.ClubOf(p); found {
		return c, nil
	}
	return nil, nil // dangling clubId
}
