package server

// middleware.go has the request id middleware and health check handler

import (
	"log"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

// RequestIDHeader is the header used to pass the request id to and from the client
const RequestIDHeader = "X-Request-ID"

// requestID makes sure every request has an id, which is returned to the client and
// logged if the request fails. The id is taken from the request header or generated.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		m := httpsnoop.CaptureMetrics(next, w, r)
		if m.Code >= http.StatusInternalServerError {
			log.Printf("clubql: request %s (%s %s) failed with status %d", id, r.Method, r.URL.Path, m.Code)
		}
	})
}

type healthStatus struct {
	Status  string `json:"status"`
	Clubs   int    `json:"clubs"`
	Players int    `json:"players"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	clubs, players := s.store.Count()
	w.Header().Set("Content-Type", "application/json")
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w).Encode(healthStatus{
		Status:  "ok",
		Clubs:   clubs,
		Players: players,
	}); err != nil {
		log.Println("clubql: error writing health status:", err)
	}
}
