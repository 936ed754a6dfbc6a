package clubql

// mutation.go has the fields (and resolvers) of the mutation type

import (
	"context"
	"fmt"

	"github.com/andrewwphillips/clubql/internal/field"
	"github.com/andrewwphillips/clubql/internal/schema"
)

func mutationFields() []*schema.Field {
	return []*schema.Field{
		{
			Name:        "addPlayer",
			Description: "Add a player, giving it the next player id. The club is not checked.",
			Type:        playerType,
			Args: []*schema.Arg{
				{Name: "name", Type: schema.NonNull(schema.String)},
				{Name: "clubId", Type: schema.NonNull(schema.Int)},
			},
			Resolve: addPlayer,
		},
		{
			Name:        "addClub",
			Description: "Add a club, giving it the next club id",
			Type:        clubType,
			Args:        []*schema.Arg{{Name: "name", Type: schema.NonNull(schema.String)}},
			Resolve:     addClub,
		},
	}
}

func addPlayer(ctx context.Context, _ interface{}, args field.Args) (interface{}, error) {
	s, err := storeFrom(ctx)
	if err != nil {
		return nil, err
	}
	var in struct {
		Name   string
		ClubID int `graphql:"clubId"`
	}
	if err := args.Decode(&in); err != nil {
		return nil, fmt.Errorf("%w in addPlayer", err)
	}
	return s.AddPlayer(in.Name, in.ClubID), nil
}

func addClub(ctx context.Context, _ interface{}, args field.Args) (interface{}, error) {
	s, err := storeFrom(ctx)
	if err != nil {
		return nil, err
	}
	name, _ := args.String("name")
	return s.AddClub(name), nil
}
