// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/wneessen/shopkeep/internal/catalog"
	"github.com/wneessen/shopkeep/internal/logger"
	"github.com/wneessen/shopkeep/internal/storage"
	"github.com/wneessen/shopkeep/internal/validate"
)

type ProductsResponse struct {
	Products []catalog.Listing `json:"products"`
}

type ProductCreatedResponse struct {
	ProductID int64 `json:"product_id"`
}

func (s *Server) HandlerAPIProductsGet(w http.ResponseWriter, r *http.Request) {
	listings, err := s.catalog.Products(r.Context())
	if err != nil {
		_ = render.Render(w, r, ErrUnexpected(ErrInternal))
		return
	}

	resp := NewResponse(http.StatusOK, "product listings", ProductsResponse{Products: listings})
	if err = render.Render(w, r, resp); err != nil {
		s.log.Error("failed to render ProductsResponse", logger.Err(err))
	}
}

func (s *Server) HandlerAPIAdminProductsPost(w http.ResponseWriter, r *http.Request) {
	req := new(catalog.ProductRequest)
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodySize), req); err != nil {
		_ = render.Render(w, r, ErrBadRequest(ErrInvalidBody))
		return
	}

	id, err := s.catalog.AddProduct(r.Context(), *req)
	switch {
	case errors.Is(err, validate.ErrInvalidInput):
		_ = render.Render(w, r, ErrBadRequest(err))
		return
	case errors.Is(err, storage.ErrProductExists):
		_ = render.Render(w, r, ErrConflict(storage.ErrProductExists))
		return
	case err != nil:
		_ = render.Render(w, r, ErrUnexpected(ErrInternal))
		return
	}
	s.log.Info("product added", logger.RequestID(r), slog.Int64("product_id", id), adminSubject(r))

	resp := NewResponse(http.StatusCreated, "product added", ProductCreatedResponse{ProductID: id})
	if err = render.Render(w, r, resp); err != nil {
		s.log.Error("failed to render ProductCreatedResponse", logger.Err(err))
	}
}
