package main

import (
	"net/http"
	"strings"

	"github.com/andrewwphillips/clubql"
)

// Start with a different list of clubs and players (instead of the built-in ones)
const seed = `
clubs:
  - {id: 10, name: Arsenal}
  - {id: 20, name: Chelsea}
players:
  - {id: 1, name: Bukayo Saka, clubId: 10}
  - {id: 2, name: Cole Palmer, clubId: 20}
`

func main() {
	s, err := clubql.LoadStore(strings.NewReader(seed))
	if err != nil {
		panic(err)
	}
	http.Handle("/graphql", clubql.MustRun(s))
	http.ListenAndServe(":8080", nil)
}
