package store

// feed.go lets subscribers watch for clubs and players as they are added

import (
	"context"
	"sync"
)

// feedBuffer is how many events can be queued for a subscriber before new events are dropped
const feedBuffer = 16

type (
	// Event describes one append to the store - exactly one of Club or Player is set
	Event struct {
		Club   *Club
		Player *Player
	}

	feed struct {
		mtx         *sync.Mutex
		subscribers map[chan Event]struct{}
	}
)

func newFeed() feed {
	return feed{
		mtx:         &sync.Mutex{},
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a chan that receives every club and player added from now on.
// The chan is closed when ctx is done. A subscriber that does not keep up misses events
// rather than holding up AddClub/AddPlayer.
func (s *Store) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, feedBuffer)
	s.feed.mtx.Lock()
	s.feed.subscribers[ch] = struct{}{}
	s.feed.mtx.Unlock()

	go func() {
		<-ctx.Done()
		s.feed.mtx.Lock()
		delete(s.feed.subscribers, ch)
		close(ch)
		s.feed.mtx.Unlock()
	}()
	return ch
}

func (f feed) publish(e Event) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- e:
		default:
			// subscriber is full - drop it
		}
	}
}
