package clubql

// subscription.go has the fields of the subscription type which send clubs and players as they are added

import (
	"context"

	"github.com/andrewwphillips/clubql/internal/field"
	"github.com/andrewwphillips/clubql/internal/schema"
	"github.com/andrewwphillips/clubql/internal/store"
)

func subscriptionFields() []*schema.Field {
	return []*schema.Field{
		{
			Name:        "clubAdded",
			Description: "Sends each club added after the subscription starts",
			Type:        schema.NonNull(clubType),
			Subscribe:   clubAdded,
		},
		{
			Name:        "playerAdded",
			Description: "Sends each player added after the subscription starts (only those of one club if clubId is given)",
			Type:        schema.NonNull(playerType),
			Args:        []*schema.Arg{{Name: "clubId", Type: schema.Int}},
			Subscribe:   playerAdded,
		},
	}
}

func clubAdded(ctx context.Context, _ field.Args) (<-chan interface{}, error) {
	s, err := storeFrom(ctx)
	if err != nil {
		return nil, err
	}
	return forward(ctx, s.Subscribe(ctx), func(e store.Event) (interface{}, bool) {
		if e.Club == nil {
			return nil, false
		}
		return *e.Club, true
	}), nil
}

func playerAdded(ctx context.Context, args field.Args) (<-chan interface{}, error) {
	s, err := storeFrom(ctx)
	if err != nil {
		return nil, err
	}
	clubID, filtered := args.Int("clubId")
	return forward(ctx, s.Subscribe(ctx), func(e store.Event) (interface{}, bool) {
		if e.Player == nil || filtered && e.Player.ClubID != clubID {
			return nil, false
		}
		return *e.Player, true
	}), nil
}

// forward sends the store events accepted by the filter function on the returned chan,
// which is closed when the events chan is closed (ie when ctx is done)
func forward(ctx context.Context, events <-chan store.Event, filter func(store.Event) (interface{}, bool)) <-chan interface{} {
	ch := make(chan interface{})
	go func() {
		defer close(ch)
		for e := range events {
			v, ok := filter(e)
			if !ok {
				continue
			}
			select {
			case ch <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
