// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/wneessen/shopkeep/internal/account"
	"github.com/wneessen/shopkeep/internal/logger"
	"github.com/wneessen/shopkeep/internal/storage"
	"github.com/wneessen/shopkeep/internal/validate"
)

const maxBodySize = 64 << 10

var (
	ErrInvalidBody = errors.New("request body is not valid JSON")
	ErrInternal    = errors.New("internal server error")
)

type SignupResponse struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

type ResendRequest struct {
	Email string `json:"email"`
}

func (s *Server) HandlerAPISignupPost(w http.ResponseWriter, r *http.Request) {
	req := new(account.SignupRequest)
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodySize), req); err != nil {
		s.log.Warn("failed to decode signup request", logger.Err(err), logger.RequestID(r))
		_ = render.Render(w, r, ErrBadRequest(ErrInvalidBody))
		return
	}

	id, err := s.accounts.Signup(r.Context(), *req)
	switch {
	case errors.Is(err, validate.ErrInvalidInput):
		_ = render.Render(w, r, ErrBadRequest(err))
		return
	case errors.Is(err, storage.ErrUserExists):
		_ = render.Render(w, r, ErrConflict(storage.ErrUserExists))
		return
	case errors.Is(err, account.ErrMailDelivery):
		s.log.Error("user created without verification mail", logger.RequestID(r), slog.Int64("user_id", id))
		_ = render.Render(w, r, ErrBadGateway(account.ErrMailDelivery))
		return
	case err != nil:
		_ = render.Render(w, r, ErrUnexpected(ErrInternal))
		return
	}

	resp := NewResponse(http.StatusCreated, "user registered, please check your mailbox",
		SignupResponse{UserID: id, Email: account.NormalizeEmail(req.Email)})
	if err = render.Render(w, r, resp); err != nil {
		s.log.Error("failed to render SignupResponse", logger.Err(err))
	}
}

func (s *Server) HandlerAPIVerifyGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	err := s.accounts.Verify(r.Context(), query.Get("email"), query.Get("token"))
	switch {
	case errors.Is(err, account.ErrMissingParameters):
		_ = render.Render(w, r, ErrBadRequest(account.ErrMissingParameters))
		return
	case errors.Is(err, account.ErrInvalidToken):
		_ = render.Render(w, r, ErrForbidden(account.ErrInvalidToken))
		return
	case errors.Is(err, storage.ErrUserNotFound):
		_ = render.Render(w, r, ErrNotFound(storage.ErrUserNotFound))
		return
	case err != nil:
		_ = render.Render(w, r, ErrUnexpected(account.ErrUpdateFailed))
		return
	}

	resp := NewResponse(http.StatusOK, "email address successfully verified", nil)
	if err = render.Render(w, r, resp); err != nil {
		s.log.Error("failed to render verification response", logger.Err(err))
	}
}

func (s *Server) HandlerAPIVerifyResendPost(w http.ResponseWriter, r *http.Request) {
	req := new(ResendRequest)
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodySize), req); err != nil {
		_ = render.Render(w, r, ErrBadRequest(ErrInvalidBody))
		return
	}

	err := s.accounts.ResendVerification(r.Context(), req.Email)
	switch {
	case errors.Is(err, account.ErrMissingParameters):
		_ = render.Render(w, r, ErrBadRequest(account.ErrMissingParameters))
		return
	case errors.Is(err, storage.ErrUserNotFound):
		_ = render.Render(w, r, ErrNotFound(storage.ErrUserNotFound))
		return
	case errors.Is(err, account.ErrAlreadyVerified):
		_ = render.Render(w, r, ErrConflict(account.ErrAlreadyVerified))
		return
	case errors.Is(err, account.ErrMailDelivery):
		_ = render.Render(w, r, ErrBadGateway(account.ErrMailDelivery))
		return
	case err != nil:
		_ = render.Render(w, r, ErrUnexpected(ErrInternal))
		return
	}

	resp := NewResponse(http.StatusAccepted, "verification link sent", nil)
	if err = render.Render(w, r, resp); err != nil {
		s.log.Error("failed to render resend response", logger.Err(err))
	}
}

func (s *Server) HandlerAPIUserStatusGet(w http.ResponseWriter, r *http.Request) {
	status, err := s.accounts.Status(r.Context(), r.URL.Query().Get("email"))
	switch {
	case errors.Is(err, account.ErrMissingParameters):
		_ = render.Render(w, r, ErrBadRequest(errors.New("missing email")))
		return
	case errors.Is(err, storage.ErrUserNotFound):
		_ = render.Render(w, r, ErrNotFound(storage.ErrUserNotFound))
		return
	case err != nil:
		s.log.Error("failed to look up user status", logger.Err(err), logger.RequestID(r))
		_ = render.Render(w, r, ErrUnexpected(ErrInternal))
		return
	}

	resp := NewResponse(http.StatusOK, "user status", status)
	if err = render.Render(w, r, resp); err != nil {
		s.log.Error("failed to render user status", logger.Err(err))
	}
}
