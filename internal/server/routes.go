package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/scythe504/hangman-rooms/internal"
)

const defaultHistoryLimit = 20

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/", s.HelloWorldHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/healthz", s.HealthHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/rooms", s.RoomsHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/history", s.HistoryHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/ws", s.HandleWebSocket)

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, time.Now(), http.StatusOK, "Hangman server, connect over TCP or /ws")
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, time.Now(), http.StatusOK, map[string]int{
		"sessions": s.sessions.Count(),
		"rooms":    s.rooms.Len(),
		"playing":  len(s.rooms.Playing()),
	})
}

// RoomsHandler mirrors the ROOMS line as JSON.
func (s *Server) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, time.Now(), http.StatusOK, s.rooms.List())
}

func (s *Server) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.history == nil {
		writeJSON(w, start, http.StatusNotFound, "Round history is not enabled")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, start, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, 100)
	}

	rounds, err := s.history.RecentRounds(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("[HistoryHandler] Failed to load rounds")
		writeJSON(w, start, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, start, http.StatusOK, rounds)
}

func writeJSON(w http.ResponseWriter, start time.Time, status int, data any) {
	end := time.Now()
	resp := internal.Response{
		StatusCode:    status,
		RespStartTime: start.UnixMilli(),
		RespEndTime:   end.UnixMilli(),
		NetRespTime:   end.Sub(start).Milliseconds(),
		Data:          data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("[writeJSON] Error encoding response")
	}
}
