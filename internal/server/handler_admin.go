// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package server

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/wneessen/shopkeep/internal/logger"
)

type CacheStatsResponse struct {
	Type     string `json:"type"`
	Statuses int    `json:"statuses"`
	Listings int    `json:"listings"`
}

func (s *Server) cacheStats() CacheStatsResponse {
	return CacheStatsResponse{
		Type:     s.config.Cache.Type,
		Statuses: s.caches.statuses.Len(),
		Listings: s.caches.listings.Len(),
	}
}

func (s *Server) HandlerAPIAdminCacheGet(w http.ResponseWriter, r *http.Request) {
	resp := NewResponse(http.StatusOK, "cache statistics", s.cacheStats())
	if err := render.Render(w, r, resp); err != nil {
		s.log.Error("failed to render CacheStatsResponse", logger.Err(err))
	}
}

func (s *Server) HandlerAPIAdminCacheDelete(w http.ResponseWriter, r *http.Request) {
	s.accounts.InvalidateStatuses()
	s.catalog.Invalidate()
	s.log.Info("caches cleared", logger.RequestID(r), adminSubject(r))

	resp := NewResponse(http.StatusOK, "caches cleared", s.cacheStats())
	if err := render.Render(w, r, resp); err != nil {
		s.log.Error("failed to render CacheStatsResponse", logger.Err(err))
	}
}
