package store_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/andrewwphillips/clubql/internal/store"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	var s *store.Store

	BeforeEach(func() {
		s = store.New()
	})

	Describe("seed data", func() {
		It("has 3 clubs and 3 players", func() {
			clubs, players := s.Count()
			Expect(clubs).Should(Equal(3))
			Expect(players).Should(Equal(3))
		})

		It("finds Barcelona by id", func() {
			c, ok := s.Club(3)
			Expect(ok).Should(BeTrue())
			Expect(c.Name).Should(Equal("Barcelona"))
		})

		It("finds Messi playing for Barcelona", func() {
			p, ok := s.Player(2)
			Expect(ok).Should(BeTrue())
			Expect(p).Should(Equal(store.Player{ID: 2, Name: "Lionel Messi", ClubID: 3}))

			c, ok := s.ClubOf(p)
			Expect(ok).Should(BeTrue())
			Expect(c.Name).Should(Equal("Barcelona"))
		})

		It("returns players of a club in insertion order", func() {
			Expect(s.PlayersOf(3)).Should(Equal([]store.Player{{ID: 2, Name: "Lionel Messi", ClubID: 3}}))
		})

		It("returns an empty list for a club without players", func() {
			Expect(s.PlayersOf(99)).ShouldNot(BeNil())
			Expect(s.PlayersOf(99)).Should(BeEmpty())
		})
	})

	Describe("lookups", func() {
		It("reports a missing club", func() {
			_, ok := s.Club(42)
			Expect(ok).Should(BeFalse())
		})

		It("reports a missing player", func() {
			_, ok := s.Player(0)
			Expect(ok).Should(BeFalse())
		})

		It("resolves a dangling club id to nothing", func() {
			p := s.AddPlayer("Nobody", 77)
			_, ok := s.ClubOf(p)
			Expect(ok).Should(BeFalse())
		})

		It("returns copies of the collections", func() {
			clubs := s.Clubs()
			clubs[0].Name = "changed"
			c, _ := s.Club(1)
			Expect(c.Name).Should(Equal("Real Madrid"))
		})
	})

	Describe("appending", func() {
		It("assigns the next club id", func() {
			c := s.AddClub("Valencia")
			Expect(c).Should(Equal(store.Club{ID: 4, Name: "Valencia"}))
			Expect(s.Clubs()).Should(HaveLen(4))
			Expect(s.Clubs()[3]).Should(Equal(c))
		})

		It("assigns the next player id without checking the club", func() {
			p := s.AddPlayer("Pedri", 3)
			Expect(p).Should(Equal(store.Player{ID: 4, Name: "Pedri", ClubID: 3}))
			Expect(s.PlayersOf(3)).Should(HaveLen(2))
		})

		It("never reuses an id under concurrent appends", func() {
			const n = 50
			var wg sync.WaitGroup
			ids := make(chan int, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ids <- s.AddClub("club").ID
				}()
			}
			wg.Wait()
			close(ids)

			seen := make(map[int]bool)
			for id := range ids {
				Expect(seen).ShouldNot(HaveKey(id))
				seen[id] = true
			}
			Expect(s.Clubs()).Should(HaveLen(3 + n))
		})
	})

	Describe("Subscribe", func() {
		It("delivers appends made after subscribing", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			ch := s.Subscribe(ctx)
			s.AddClub("Sevilla")
			s.AddPlayer("Navas", 4)

			var e store.Event
			Eventually(ch).Should(Receive(&e))
			Expect(e.Club).ShouldNot(BeNil())
			Expect(e.Club.Name).Should(Equal("Sevilla"))
			Eventually(ch).Should(Receive(&e))
			Expect(e.Player).ShouldNot(BeNil())
			Expect(e.Player.ClubID).Should(Equal(4))
		})

		It("closes the chan when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			ch := s.Subscribe(ctx)
			cancel()
			Eventually(ch, time.Second).Should(BeClosed())
		})
	})

	Describe("context", func() {
		It("round trips the store", func() {
			ctx := store.NewContext(context.Background(), s)
			Expect(store.FromContext(ctx)).Should(BeIdenticalTo(s))
		})

		It("returns nil when there is no store", func() {
			Expect(store.FromContext(context.Background())).Should(BeNil())
		})
	})
})

var _ = Describe("Load", func() {
	It("reads clubs and players from YAML", func() {
		s, err := store.Load(strings.NewReader(`
clubs:
  - {id: 10, name: Ajax}
  - {id: 12, name: PSV}
players:
  - {id: 5, name: Cruyff, clubId: 10}
`))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(s.Clubs()).Should(HaveLen(2))
		Expect(s.PlayersOf(10)).Should(ConsistOf(store.Player{ID: 5, Name: "Cruyff", ClubID: 10}))

		// new IDs follow the largest loaded ID
		Expect(s.AddClub("Feyenoord").ID).Should(Equal(13))
		Expect(s.AddPlayer("Bergkamp", 10).ID).Should(Equal(6))
	})

	It("accepts an empty document", func() {
		s, err := store.Load(strings.NewReader(""))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(s.Clubs()).Should(BeEmpty())
		Expect(s.AddClub("first").ID).Should(Equal(1))
	})

	It("rejects duplicate ids", func() {
		_, err := store.Load(strings.NewReader("clubs: [{id: 1, name: a}, {id: 1, name: b}]"))
		Expect(err).Should(MatchError(ContainSubstring("duplicate club id 1")))
	})

	It("rejects unknown keys", func() {
		_, err := store.Load(strings.NewReader("teams: []"))
		Expect(err).Should(HaveOccurred())
	})
})
