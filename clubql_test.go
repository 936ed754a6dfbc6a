package clubql_test

// End-to-end tests (also see low-level tests in the store, field, schema and handler packages)

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andrewwphillips/clubql"
	"github.com/gorilla/websocket"
	"github.com/posener/wstest"
)

type (
	// JsonObject is what json.Unmarshaler produces when it decodes a JSON object.  Note that we use a type alias here,
	// hence the equals sign (=), rather than a type definition - otherwise reflect.DeepEqual does not work.
	JsonObject = map[string]interface{}

	gqlResponse struct {
		Data   interface{}
		Errors []struct {
			Message string
			Path    []interface{}
		}
	}
)

func post(h http.Handler, query string) (int, gqlResponse) {
	buf, _ := json.Marshal(map[string]interface{}{"query": query})
	request := httptest.NewRequest("POST", "/graphql", strings.NewReader(string(buf)))
	request.Header.Add("Content-Type", "application/json")
	writer := httptest.NewRecorder()
	h.ServeHTTP(writer, request)

	var result gqlResponse
	_ = json.NewDecoder(writer.Body).Decode(&result)
	return writer.Code, result
}

// TestQuery runs queries against a store holding the initial clubs and players
func TestQuery(t *testing.T) {
	tests := map[string]struct {
		query    string      // GraphQL query
		expected interface{} // decoded JSON data
	}{
		"player": {
			query:    `{ player(id: 1) { id name clubId } }`,
			expected: JsonObject{"player": JsonObject{"id": 1.0, "name": "Sergio Ramos", "clubId": 1.0}},
		},
		"player_not_found": {
			query:    `{ player(id: 99) { name } }`,
			expected: JsonObject{"player": nil},
		},
		"player_no_id": {
			query:    `{ player { name } }`,
			expected: JsonObject{"player": nil},
		},
		"club_of_player": {
			query:    `{ player(id: 2) { club { name } } }`,
			expected: JsonObject{"player": JsonObject{"club": JsonObject{"name": "Barcelona"}}},
		},
		"players_of_club": {
			query:    `{ club(id: 3) { players { name } } }`,
			expected: JsonObject{"club": JsonObject{"players": []interface{}{JsonObject{"name": "Lionel Messi"}}}},
		},
		"club_not_found": {
			query:    `{ club(id: 0) { name } }`,
			expected: JsonObject{"club": nil},
		},
		"clubs": {
			query: `{ clubs { id name } }`,
			expected: JsonObject{"clubs": []interface{}{
				JsonObject{"id": 1.0, "name": "Real Madrid"},
				JsonObject{"id": 2.0, "name": "Atl Madrid"},
				JsonObject{"id": 3.0, "name": "Barcelona"},
			}},
		},
		"players": {
			query: `{ players { name } }`,
			expected: JsonObject{"players": []interface{}{
				JsonObject{"name": "Sergio Ramos"},
				JsonObject{"name": "Lionel Messi"},
				JsonObject{"name": "Niguez Saul"},
			}},
		},
		"round_trip": {
			query: `{ club(id: 2) { players { club { name } } } }`,
			expected: JsonObject{"club": JsonObject{"players": []interface{}{
				JsonObject{"club": JsonObject{"name": "Atl Madrid"}},
			}}},
		},
		"alias": {
			query:    `{ a: club(id: 1) { name } b: club(id: 3) { name } }`,
			expected: JsonObject{"a": JsonObject{"name": "Real Madrid"}, "b": JsonObject{"name": "Barcelona"}},
		},
		"typename": {
			query:    `{ player(id: 3) { __typename club { __typename } } }`,
			expected: JsonObject{"player": JsonObject{"__typename": "Player", "club": JsonObject{"__typename": "Club"}}},
		},
	}

	for name, testData := range tests {
		h := clubql.MustRun(nil)
		status, result := post(h, testData.query)

		Assertf(t, status == http.StatusOK, "%16s: expected status OK, got %d", name, status)
		Assertf(t, len(result.Errors) == 0, "%16s: expected no errors, got %v", name, result.Errors)
		Assertf(t, reflect.DeepEqual(result.Data, testData.expected), "%16s: expected %v, got %v", name, testData.expected, result.Data)
	}
}

func TestMutation(t *testing.T) {
	g := clubql.New(clubql.NewStore())
	h, err := g.GetHandler()
	Assertf(t, err == nil, "GetHandler: expected no error, got %v", err)

	status, result := post(h, `mutation { addClub(name: "Valencia") { id name players { id } } }`)
	Assertf(t, status == http.StatusOK, "addClub: expected status OK, got %d", status)
	expected := JsonObject{"addClub": JsonObject{"id": 4.0, "name": "Valencia", "players": []interface{}{}}}
	Assertf(t, reflect.DeepEqual(result.Data, expected), "addClub: expected %v, got %v", expected, result.Data)

	_, result = post(h, `{ club(id: 4) { name } }`)
	expected = JsonObject{"club": JsonObject{"name": "Valencia"}}
	Assertf(t, reflect.DeepEqual(result.Data, expected), "club: expected %v, got %v", expected, result.Data)

	// Two mutations run in order - the 2nd player belongs to a club that does not exist
	_, result = post(h, `mutation {
		p1: addPlayer(name: "Gaya", clubId: 4) { id club { name } }
		p2: addPlayer(name: "Nobody", clubId: 42) { id club { name } }
	}`)
	expected = JsonObject{
		"p1": JsonObject{"id": 4.0, "club": JsonObject{"name": "Valencia"}},
		"p2": JsonObject{"id": 5.0, "club": nil},
	}
	Assertf(t, reflect.DeepEqual(result.Data, expected), "addPlayer: expected %v, got %v", expected, result.Data)
	Assertf(t, len(result.Errors) == 0, "addPlayer: expected no errors (dangling clubId), got %v", result.Errors)

	clubs, players := g.Store().Count()
	Assertf(t, clubs == 4 && players == 5, "expected 4 clubs and 5 players, got %d and %d", clubs, players)
}

func TestMissingArgument(t *testing.T) {
	s := clubql.NewStore()
	h := clubql.MustRun(s)

	status, result := post(h, `mutation { addPlayer(name: "X") { id } }`)
	Assertf(t, status == http.StatusBadRequest, "expected status 400, got %d", status)
	Assertf(t, len(result.Errors) > 0 && strings.Contains(result.Errors[0].Message, "clubId"),
		"expected error about clubId, got %v", result.Errors)
	Assertf(t, result.Data == nil, "expected no data, got %v", result.Data)

	_, players := s.Count()
	Assertf(t, players == 3, "expected players to be unchanged (3), got %d", players)
}

func TestIntOutOfRange(t *testing.T) {
	s := clubql.NewStore()
	h := clubql.MustRun(s)

	for _, query := range []string{
		`mutation { addPlayer(name: "Big", clubId: 9999999999) { id } }`,
		`mutation { addPlayer(name: "Small", clubId: -2147483649) { id } }`,
		`{ player(id: 4294967297) { name } }`,
	} {
		status, result := post(h, query)
		Assertf(t, status == http.StatusBadRequest, "%s: expected status 400, got %d", query, status)
		Assertf(t, len(result.Errors) == 1 && strings.Contains(result.Errors[0].Message, "out of range for Int"),
			"%s: expected range error, got %v", query, result.Errors)
		Assertf(t, result.Data == nil, "%s: expected no data, got %v", query, result.Data)
	}

	_, players := s.Count()
	Assertf(t, players == 3, "expected players to be unchanged (3), got %d", players)

	// every player still has a valid clubId
	status, result := post(h, `{ players { clubId } }`)
	Assertf(t, status == http.StatusOK && len(result.Errors) == 0, "players: expected no errors, got %d %v", status, result.Errors)
}

// TestRelations checks that both directions of the club/player relation agree
func TestRelations(t *testing.T) {
	s := clubql.NewStore()
	s.AddPlayer("Pedri", 3)
	s.AddPlayer("Lost", 77)
	h := clubql.MustRun(s)

	_, result := post(h, `{ clubs { id players { id clubId } } players { id clubId club { id } } }`)
	data := result.Data.(JsonObject)
	for _, c := range data["clubs"].([]interface{}) {
		club := c.(JsonObject)
		for _, p := range club["players"].([]interface{}) {
			player := p.(JsonObject)
			Assertf(t, player["clubId"] == club["id"], "player %v of club %v has clubId %v", player["id"], club["id"], player["clubId"])
		}
	}
	for _, p := range data["players"].([]interface{}) {
		player := p.(JsonObject)
		if player["clubId"] == 77.0 {
			Assertf(t, player["club"] == nil, "player %v: expected null club for dangling clubId, got %v", player["id"], player["club"])
			continue
		}
		club, _ := player["club"].(JsonObject)
		Assertf(t, club != nil && club["id"] == player["clubId"], "player %v: expected club %v, got %v", player["id"], player["clubId"], player["club"])
	}
}

func TestConcurrentAdds(t *testing.T) {
	const count = 20
	s := clubql.NewStore()
	h := clubql.MustRun(s)

	var wg sync.WaitGroup
	ids := make(chan float64, count)
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, result := post(h, fmt.Sprintf(`mutation { addClub(name: "club %d") { id } }`, i))
			if data, ok := result.Data.(JsonObject); ok {
				ids <- data["addClub"].(JsonObject)["id"].(float64)
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[float64]bool)
	for id := range ids {
		Assertf(t, !seen[id], "club id %v assigned more than once", id)
		seen[id] = true
	}
	Assertf(t, len(seen) == count, "expected %d distinct ids, got %d", count, len(seen))
	clubs, _ := s.Count()
	Assertf(t, clubs == 3+count, "expected %d clubs, got %d", 3+count, clubs)
}

func TestSchema(t *testing.T) {
	g := clubql.New(nil)
	sdl, err := g.GetSchema()
	Assertf(t, err == nil, "GetSchema: expected no error, got %v", err)
	for _, want := range []string{
		" player(id: Int): Player\n",
		" players: [Player]\n",
		" club(id: Int): Club\n",
		" clubs: [Club]\n",
		" addPlayer(name: String!, clubId: Int!): Player\n",
		" addClub(name: String!): Club\n",
		" clubId: Int!\n",
		" club: Club\n",
		" playerAdded(clubId: Int): Player!\n",
	} {
		Assertf(t, strings.Contains(sdl, want), "expected schema to contain %q", want)
	}
}

func TestPlayerAdded(t *testing.T) {
	s := clubql.NewStore()
	h := clubql.MustRun(s)

	header := make(http.Header)
	header.Add("Sec-WebSocket-Protocol", "graphql-transport-ws")
	conn, resp, err := wstest.NewDialer(h).Dial("ws://localhost/graphql", header)
	Assertf(t, err == nil, "expected no Dial error, got %v", err)
	if err != nil {
		return
	}
	defer conn.Close()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	read := func() string {
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		_, p, err := conn.ReadMessage()
		Assertf(t, err == nil, "read: expected no error, got %v", err)
		return string(p)
	}
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"connection_init"}`))
	msg := read()
	Assertf(t, strings.Contains(msg, `"connection_ack"`), "expected ack, got %s", msg)

	_ = conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"subscribe","id":"p","payload":{"query":"subscription { playerAdded(clubId: 1) { name club { name } } }"}}`))
	time.Sleep(50 * time.Millisecond) // allow the subscription to start

	s.AddPlayer("Elsewhere", 2) // filtered out
	_, _ = post(h, `mutation { addPlayer(name: "Vinicius", clubId: 1) { id } }`)

	msg = read()
	expected := `{"type":"next","id":"p","payload":{"data":{"playerAdded":{"name":"Vinicius","club":{"name":"Real Madrid"}}}}}`
	Assertf(t, strings.Contains(msg, expected), "expected %s, got %s", expected, msg)
}

func TestOptions(t *testing.T) {
	h := clubql.MustRun(nil, clubql.NoIntrospection(true), clubql.NoConcurrency(true))
	_, result := post(h, `{ __type(name: "Club") { name } clubs { name } }`)
	Assertf(t, len(result.Errors) == 1, "expected introspection error, got %v", result.Errors)

	h = clubql.MustRun(nil, clubql.NoConsole(true))
	request := httptest.NewRequest("GET", "/graphql", nil)
	request.Header.Add("Accept", "text/html")
	writer := httptest.NewRecorder()
	h.ServeHTTP(writer, request)
	Assertf(t, !strings.Contains(writer.Body.String(), "graphiql"), "expected no console, got %s", writer.Body.String())
}

func Assertf(t *testing.T, succeeded bool, format string, args ...interface{}) {
	const (
		succeed = "\u2713" // tick
		failed  = "X"      //"\u2717" // cross
	)

	t.Helper()
	if !succeeded {
		t.Errorf("%s\t"+format, append([]interface{}{failed}, args...)...)
	} else {
		t.Logf("%s\t"+format, append([]interface{}{succeed}, args...)...)
	}
}
