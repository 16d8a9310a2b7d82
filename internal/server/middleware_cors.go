// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package server

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
)

const AccessControlMaxAge = "600"

// corsCheck answers preflight requests and rejects requests whose origin is not
// listed in the allowed origins of the server config. Requests without an
// Origin header are passed on unchanged.
func (s *Server) corsCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		allowed := slices.ContainsFunc(s.config.Server.AllowedOrigins, func(o string) bool {
			return strings.EqualFold(origin, strings.TrimSuffix(o, "/"))
		})
		if !allowed {
			s.log.Warn("origin not allowed", slog.String("origin", origin), slog.String("path", r.URL.Path))
			w.WriteHeader(http.StatusForbidden)
			return
		}

		// must be set for all CORS responses
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
			w.Header().Set("Access-Control-Allow-Headers", r.Header.Get("Access-Control-Request-Headers"))
			w.Header().Set("Access-Control-Max-Age", AccessControlMaxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HandlerAPIOptions answers OPTIONS requests that are not CORS preflights.
func (s *Server) HandlerAPIOptions(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", "OPTIONS, POST")
	w.WriteHeader(http.StatusNoContent)
}
