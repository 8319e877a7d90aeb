package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// recoverer turns a handler panic into the generic 503 body.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.Responder.RespondAndLogError(w, r.Context(), fmt.Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, rec))
		}()
		next.ServeHTTP(w, r)
	})
}

// bomb lets an operator answer searches with a fixed 503 message.
func bomb(rr *Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if msg := strings.TrimSpace(r.URL.Query().Get("bomb")); msg != "" {
				rr.Message(w, r.Context(), http.StatusServiceUnavailable, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allowAnyOrigin reflects every request origin with credentials allowed.
func allowAnyOrigin() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc:  func(*http.Request, string) bool { return true },
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
