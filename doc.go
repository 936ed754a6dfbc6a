// Package clubql serves football clubs and their players as a GraphQL API.
//
// Clubs and players are held in memory (see Store). Each player refers to its club by id,
// and the relation can be followed both ways: Club.players lists the players of a club and
// Player.club finds the club of a player. New clubs and players can be appended using
// mutations and watched for using subscriptions (over a websocket).
//
// For example, here is the code for a complete server:

//package main
//
//import (
//	"net/http"
//
//	"github.com/andrewwphillips/clubql"
//)
//
//func main() {
//	http.Handle("/graphql", clubql.MustRun(clubql.NewStore()))
//	http.ListenAndServe(":5000", nil)
//}

// A query like this:
// {
//    club(id: 3) { name players { name } }
// }

// returns this JSON:
// {
//    "data": {
//      "club": { "name": "Barcelona", "players": [ { "name": "Lionel Messi" } ] }
//    }
// }

// See cmd/clubql for a server with configuration, CORS, access logs and a health check.

package clubql
