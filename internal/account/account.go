// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wneessen/shopkeep/internal/cache"
	"github.com/wneessen/shopkeep/internal/domain/models"
	"github.com/wneessen/shopkeep/internal/logger"
	"github.com/wneessen/shopkeep/internal/validate"
	"github.com/wneessen/shopkeep/internal/verification"
)

type UserSaver interface {
	SaveUser(ctx context.Context, email string, passHash []byte) (int64, error)
}

type UserProvider interface {
	User(ctx context.Context, email string) (models.User, error)
}

type UserVerifier interface {
	MarkEmailVerified(ctx context.Context, email string, at time.Time) error
}

// Sender delivers verification links.
type Sender interface {
	SendVerification(ctx context.Context, rcpt, link string) (string, error)
}

var (
	ErrMissingParameters = errors.New("missing token or email")
	ErrInvalidToken      = errors.New("invalid or expired verification token")
	ErrUpdateFailed      = errors.New("failed to update user record")
	ErrAlreadyVerified   = errors.New("email address is already verified")
	ErrMailDelivery      = errors.New("failed to deliver verification mail")
)

// SignupRequest is the input of Signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Status is the verification status of a user.
type Status struct {
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

type Service struct {
	log          *logger.Logger
	userSaver    UserSaver
	userProvider UserProvider
	userVerifier UserVerifier
	sender       Sender
	tokens       *verification.Scheme
	statuses     cache.Store[string, Status]
	statusGen    cache.Generation
	validator    *validate.Validator
	baseURL      string
	now          func() time.Time
}

func New(
	log *logger.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	userVerifier UserVerifier,
	sender Sender,
	tokens *verification.Scheme,
	statuses cache.Store[string, Status],
	baseURL string,
) *Service {
	return &Service{
		log:          log.With(slog.String("service", "account")),
		userSaver:    userSaver,
		userProvider: userProvider,
		userVerifier: userVerifier,
		sender:       sender,
		tokens:       tokens,
		statuses:     statuses,
		validator:    validate.New(),
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		now:          time.Now,
	}
}

// Signup registers a new user and sends the verification link.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (int64, error) {
	const op = "account.Signup"

	req.Email = NormalizeEmail(req.Email)
	log := s.log.With(logger.Op(op), logger.Email(req.Email))

	if err := s.validator.Struct(req); err != nil {
		log.Warn("signup request did not pass validation", logger.Err(err))
		return 0, err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", logger.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.userSaver.SaveUser(ctx, req.Email, passHash)
	if err != nil {
		log.Error("failed to save user", logger.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("user registered", slog.Int64("user_id", id))

	if err = s.sendLink(ctx, req.Email); err != nil {
		log.Error("failed to send verification link", logger.Err(err))
		return id, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// Verify checks the token of a verification link and marks the email address
// of the user as verified.
func (s *Service) Verify(ctx context.Context, email, token string) error {
	const op = "account.Verify"

	email = NormalizeEmail(email)
	token = strings.TrimSpace(token)
	if email == "" || token == "" {
		return ErrMissingParameters
	}
	log := s.log.With(logger.Op(op), logger.Email(email))

	if !s.tokens.Verify(email, token) {
		log.Warn("verification token mismatch")
		return ErrInvalidToken
	}

	if err := s.userVerifier.MarkEmailVerified(ctx, email, s.now()); err != nil {
		log.Error("failed to mark email address as verified", logger.Err(err))
		return fmt.Errorf("%s: %w: %w", op, ErrUpdateFailed, err)
	}
	s.InvalidateStatuses()

	log.Info("email address verified")
	return nil
}

// ResendVerification sends a new verification link to an unverified user.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	const op = "account.ResendVerification"

	email = NormalizeEmail(email)
	if email == "" {
		return ErrMissingParameters
	}
	log := s.log.With(logger.Op(op), logger.Email(email))

	user, err := s.userProvider.User(ctx, email)
	if err != nil {
		log.Warn("failed to look up user", logger.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	if err = s.sendLink(ctx, email); err != nil {
		log.Error("failed to send verification link", logger.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Status returns the verification status of the user with the given email.
// Results are served from the status cache when possible.
func (s *Service) Status(ctx context.Context, email string) (Status, error) {
	const op = "account.Status"

	email = NormalizeEmail(email)
	if email == "" {
		return Status{}, ErrMissingParameters
	}
	if status, ok := s.statuses.Get(email); ok {
		return status, nil
	}

	gen := s.statusGen.Current()
	user, err := s.userProvider.User(ctx, email)
	if err != nil {
		return Status{}, fmt.Errorf("%s: %w", op, err)
	}
	status := Status{Email: user.Email, Verified: user.EmailVerified}
	s.statusGen.Fill(gen, func() { s.statuses.Set(email, status) })

	return status, nil
}

// InvalidateStatuses drops all cached verification statuses. Lookups that are
// in flight do not write their result back.
func (s *Service) InvalidateStatuses() {
	s.statusGen.Invalidate(s.statuses.Clear)
}

// VerificationLink returns the link that confirms email.
func (s *Service) VerificationLink(email string) string {
	query := url.Values{}
	query.Set("token", s.tokens.Generate(email))
	query.Set("email", email)
	return s.baseURL + "/verify?" + query.Encode()
}

func (s *Service) sendLink(ctx context.Context, email string) error {
	resp, err := s.sender.SendVerification(ctx, email, s.VerificationLink(email))
	if err != nil {
		return errors.Join(ErrMailDelivery, err)
	}
	s.log.Debug("verification link sent", logger.Email(email), slog.String("server_response", resp))
	return nil
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
