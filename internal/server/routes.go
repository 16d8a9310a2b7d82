// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
)

func (s *Server) routes(_ context.Context) {
	logSkipPath := []string{"/ping"}
	reqLogger := s.log.With(slog.String("service", "http"))
	logHandler := httplog.RequestLogger(
		reqLogger.Logger,
		&httplog.Options{
			Level: s.config.Log.Level,
			Skip: func(req *http.Request, code int) bool {
				for _, skip := range logSkipPath {
					if strings.HasPrefix(req.URL.Path, skip) && code == http.StatusOK {
						return true
					}
				}
				return false
			},
			Schema:        httplog.SchemaECS,
			RecoverPanics: true,
		},
	)

	// Register middleware
	s.mux.Use(middleware.RealIP)
	s.mux.Use(middleware.RequestID)
	s.mux.Use(middleware.StripSlashes)
	s.mux.Use(middleware.Compress(5))
	s.mux.Use(logHandler)
	s.mux.Use(s.serverHeader)

	// Register routes
	s.mux.Get("/ping", s.HandlerAPIPingGet)
	s.mux.Group(func(r chi.Router) {
		r.Use(s.corsCheck)
		r.Post("/signup", s.HandlerAPISignupPost)
		r.Options("/signup", s.HandlerAPIOptions)
		r.Get("/verify", s.HandlerAPIVerifyGet)
		r.Post("/verify/resend", s.HandlerAPIVerifyResendPost)
		r.Options("/verify/resend", s.HandlerAPIOptions)
		r.Get("/users/status", s.HandlerAPIUserStatusGet)
		r.Get("/products", s.HandlerAPIProductsGet)
	})
	s.mux.With(s.requireAdmin).Route("/admin", func(r chi.Router) {
		r.Post("/products", s.HandlerAPIAdminProductsPost)
		r.Get("/cache", s.HandlerAPIAdminCacheGet)
		r.Delete("/cache", s.HandlerAPIAdminCacheDelete)
	})
}
