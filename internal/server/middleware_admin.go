// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/wneessen/shopkeep/internal/auth"
	"github.com/wneessen/shopkeep/internal/logger"
)

type ctxKeyAdmin struct{}

var (
	ErrAdminDisabled = errors.New("admin access is disabled")
	ErrMissingBearer = errors.New("missing bearer token")
)

// requireAdmin only passes requests that carry a valid admin JWT as bearer token.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.issuer == nil {
			_ = render.Render(w, r, ErrServiceUnavailable(ErrAdminDisabled))
			return
		}

		scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			_ = render.Render(w, r, ErrUnauthorized(ErrMissingBearer))
			return
		}

		claims, err := s.issuer.Parse(strings.TrimSpace(token))
		if err != nil {
			s.log.Warn("admin token rejected", logger.Err(err), logger.RequestID(r))
			if errors.Is(err, auth.ErrNotAdmin) {
				_ = render.Render(w, r, ErrForbidden(auth.ErrNotAdmin))
				return
			}
			_ = render.Render(w, r, ErrUnauthorized(auth.ErrInvalidToken))
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyAdmin{}, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func adminSubject(r *http.Request) slog.Attr {
	subject, _ := r.Context().Value(ctxKeyAdmin{}).(string)
	return slog.String("admin", subject)
}
