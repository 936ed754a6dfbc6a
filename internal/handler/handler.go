// Package handler implements an HTTP handler to process GraphQL queries (and
// mutations/subscriptions) given a schema built with the schema package. The
// resolver functions of the schema's fields are called to fulfil the request.
package handler

// handler.go implements the handler and it's ServeHTTP method

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/andrewwphillips/clubql/internal/schema"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

type (
	// Handler stores the invariants (schema and root value) used in the GraphQL requests
	Handler struct {
		schema    *schema.Schema
		astSchema *ast.Schema // schema as parsed by gqlparser for validating queries and introspection
		root      interface{} // the "parent" value passed to resolvers of root fields

		// introspection holds the __schema and __type fields implicitly added to the query type
		introspection *schema.Object

		noIntrospection, noConcurrency, noConsole  bool
		initialTimeout, pingFrequency, pongTimeout time.Duration
	}
)

// jsonAPI is used for all JSON encoding and decoding of requests and responses
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// New is the main handler function that returns an HTTP handler given a schema plus the root
// value which is passed (as parent) to the resolvers of the query and mutation fields.
// It panics if the schema is not valid - use schema.Validate beforehand to check.
func New(s *schema.Schema, root interface{}, options ...func(*Handler)) *Handler {
	astSchema, err := s.Load()
	if err != nil {
		panic("handler.New - error making schema: " + err.Error())
	}

	h := &Handler{
		schema:    s,
		astSchema: astSchema,
		root:      root,
	}
	h.introspection = newIntrospection(astSchema)
	h.applyOptions(options)
	return h
}

// ServeHTTP receives a GraphQL query as an HTTP request, executes the
// query (or mutation) and generates an HTTP response or error message.
// A websocket upgrade request is handed over to the subscription handler, and a
// browser asking for HTML (without a query) is sent the GraphiQL console.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		h.serveWS(w, r)
		return
	}
	if r.Method == http.MethodGet && !h.noConsole && r.URL.Query().Get("query") == "" &&
		strings.Contains(r.Header.Get("Accept"), "text/html") {
		h.serveConsole(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed")
		return
	}

	// Decode the request (JSON body, GraphQL body or URL parameters)
	g, err := h.decodeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Since variables are sent as JSON (which does not distinguish int/float) we need to decide
	if err := FixNumberVariables(g.Variables); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, status := g.Execute(r.Context())
	buf, err := jsonAPI.Marshal(result)
	if err != nil {
		log.Println("handler: error encoding result:", err)
		writeError(w, http.StatusInternalServerError, "Error encoding JSON response: "+err.Error())
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(buf); err != nil {
		log.Println("handler: error writing response:", err)
	}
}

// writeError sends a response with a single error message (and no data)
func writeError(w http.ResponseWriter, status int, message string) {
	buf, _ := jsonAPI.Marshal(gqlResult{Errors: gqlerror.List{gqlerror.Errorf("%s", message)}})
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// FixNumberVariables goes through the structure created by the JSON decoder, converting any json.Number values to
// either an int64 or a float64.  A number with no fractional part (such as 2.0 or 1e3) becomes an int64 if it fits.  This assumes that all the JSON numbers were decoded into a json.Number type, rather
// than int/float, by use of the Decoder.UseNumber() method.
func FixNumberVariables(m map[string]interface{}) error {
	for key, val := range m {
		v, err := fixNumber(val)
		if err != nil {
			return err
		}
		m[key] = v
	}
	return nil
}

func fixNumber(val interface{}) (interface{}, error) {
	switch v := val.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		if f, err := v.Float64(); err == nil {
			if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
				return int64(f), nil
			}
			return f, nil
		}
		return nil, gqlerror.Errorf("invalid number %q in variables", v.String())

	case map[string]interface{}:
		if err := FixNumberVariables(v); err != nil { // recursively handle nested numbers
			return nil, err
		}

	case []interface{}:
		for i := range v {
			elt, err := fixNumber(v[i])
			if err != nil {
				return nil, err
			}
			v[i] = elt
		}
	}
	return val, nil
}
