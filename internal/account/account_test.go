// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package account

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wneessen/shopkeep/internal/cache"
	"github.com/wneessen/shopkeep/internal/domain/models"
	"github.com/wneessen/shopkeep/internal/storage"
	"github.com/wneessen/shopkeep/internal/testhelper"
	"github.com/wneessen/shopkeep/internal/validate"
	"github.com/wneessen/shopkeep/internal/verification"
)

const (
	testBaseURL  = "https://shop.example.com/"
	testEmail    = "jane@example.com"
	testPassword = "correct horse battery"
)

// lookupGate holds the next user lookup after it has read its row.
type lookupGate struct {
	reached chan struct{}
	release chan struct{}
}

func newLookupGate() *lookupGate {
	return &lookupGate{reached: make(chan struct{}), release: make(chan struct{})}
}

type fakeUsers struct {
	mu        sync.Mutex
	users     map[string]models.User
	lookups   int
	updateErr error
	gate      *lookupGate
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]models.User)}
}

func (f *fakeUsers) SaveUser(_ context.Context, email string, passHash []byte) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; ok {
		return 0, storage.ErrUserExists
	}
	id := int64(len(f.users) + 1)
	f.users[email] = models.User{ID: id, Email: email, PassHash: passHash}
	return id, nil
}

func (f *fakeUsers) User(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	f.lookups++
	user, ok := f.users[email]
	gate := f.gate
	f.gate = nil
	f.mu.Unlock()

	if gate != nil {
		close(gate.reached)
		<-gate.release
	}
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUsers) MarkEmailVerified(_ context.Context, email string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	user, ok := f.users[email]
	if !ok {
		return storage.ErrUserNotFound
	}
	user.EmailVerified = true
	user.UpdatedAt = at
	f.users[email] = user
	return nil
}

type fakeSender struct {
	links map[string]string
	err   error
}

func (f *fakeSender) SendVerification(_ context.Context, rcpt, link string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.links[rcpt] = link
	return "250 OK", nil
}

func newTestService(t *testing.T) (*Service, *fakeUsers, *fakeSender) {
	t.Helper()
	users := newFakeUsers()
	sender := &fakeSender{links: make(map[string]string)}
	service := New(testhelper.Logger(t, slog.LevelDebug, nil), users, users, users, sender,
		verification.New(), cache.New[string, Status](), testBaseURL)
	return service, users, sender
}

func tokenFromLink(t *testing.T, link string) (string, string) {
	t.Helper()
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("failed to parse link: %s", err)
	}
	return parsed.Query().Get("email"), parsed.Query().Get("token")
}

func TestService_Signup(t *testing.T) {
	t.Run("signup stores the user and sends a link", func(t *testing.T) {
		service, users, sender := newTestService(t)
		id, err := service.Signup(t.Context(), SignupRequest{Email: "  Jane@Example.com ", Password: testPassword})
		if err != nil {
			t.Fatalf("signup failed: %s", err)
		}
		if id != 1 {
			t.Errorf("expected user ID 1, got %d", id)
		}
		user, ok := users.users[testEmail]
		if !ok {
			t.Fatal("expected user to be stored with normalized email")
		}
		if err = bcrypt.CompareHashAndPassword(user.PassHash, []byte(testPassword)); err != nil {
			t.Errorf("expected password hash to match: %s", err)
		}
		link, ok := sender.links[testEmail]
		if !ok {
			t.Fatal("expected verification link to be sent")
		}
		if !strings.HasPrefix(link, "https://shop.example.com/verify?") {
			t.Errorf("unexpected link: %s", link)
		}
		email, token := tokenFromLink(t, link)
		if email != testEmail {
			t.Errorf("expected email %s in link, got %s", testEmail, email)
		}
		if len(token) != verification.TokenLength {
			t.Errorf("expected token of length %d, got %q", verification.TokenLength, token)
		}
	})
	t.Run("invalid input is rejected", func(t *testing.T) {
		tests := []struct {
			name string
			req  SignupRequest
		}{
			{"missing email", SignupRequest{Password: testPassword}},
			{"invalid email", SignupRequest{Email: "jane", Password: testPassword}},
			{"short password", SignupRequest{Email: testEmail, Password: "short"}},
			{"long password", SignupRequest{Email: testEmail, Password: strings.Repeat("x", 73)}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				service, users, _ := newTestService(t)
				if _, err := service.Signup(t.Context(), tt.req); !errors.Is(err, validate.ErrInvalidInput) {
					t.Errorf("expected error %s, got %s", validate.ErrInvalidInput, err)
				}
				if len(users.users) != 0 {
					t.Error("expected no user to be stored")
				}
			})
		}
	})
	t.Run("duplicate user is rejected", func(t *testing.T) {
		service, _, _ := newTestService(t)
		req := SignupRequest{Email: testEmail, Password: testPassword}
		if _, err := service.Signup(t.Context(), req); err != nil {
			t.Fatalf("signup failed: %s", err)
		}
		if _, err := service.Signup(t.Context(), req); !errors.Is(err, storage.ErrUserExists) {
			t.Errorf("expected error %s, got %s", storage.ErrUserExists, err)
		}
	})
	t.Run("mail delivery failure is reported", func(t *testing.T) {
		service, users, sender := newTestService(t)
		sender.err = errors.New("connection refused")
		id, err := service.Signup(t.Context(), SignupRequest{Email: testEmail, Password: testPassword})
		if !errors.Is(err, ErrMailDelivery) {
			t.Errorf("expected error %s, got %s", ErrMailDelivery, err)
		}
		if id == 0 {
			t.Error("expected the user ID to be returned")
		}
		if _, ok := users.users[testEmail]; !ok {
			t.Error("expected user to be stored")
		}
	})
}

func TestService_Verify(t *testing.T) {
	signup := func(t *testing.T) (*Service, *fakeUsers, string) {
		t.Helper()
		service, users, sender := newTestService(t)
		if _, err := service.Signup(t.Context(), SignupRequest{Email: testEmail, Password: testPassword}); err != nil {
			t.Fatalf("signup failed: %s", err)
		}
		_, token := tokenFromLink(t, sender.links[testEmail])
		return service, users, token
	}

	t.Run("valid token verifies the user", func(t *testing.T) {
		service, users, token := signup(t)
		if err := service.Verify(t.Context(), testEmail, token); err != nil {
			t.Fatalf("verification failed: %s", err)
		}
		user := users.users[testEmail]
		if !user.EmailVerified {
			t.Error("expected user to be verified")
		}
		if user.UpdatedAt.IsZero() {
			t.Error("expected update timestamp to be set")
		}
	})
	t.Run("missing parameters", func(t *testing.T) {
		service, _, token := signup(t)
		tests := []struct {
			name  string
			email string
			token string
		}{
			{"missing email", "", token},
			{"missing token", testEmail, ""},
			{"blank values", "  ", "  "},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if err := service.Verify(t.Context(), tt.email, tt.token); !errors.Is(err, ErrMissingParameters) {
					t.Errorf("expected error %s, got %s", ErrMissingParameters, err)
				}
			})
		}
	})
	t.Run("token mismatch", func(t *testing.T) {
		service, users, _ := signup(t)
		if err := service.Verify(t.Context(), testEmail, "00000000"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected error %s, got %s", ErrInvalidToken, err)
		}
		if users.users[testEmail].EmailVerified {
			t.Error("expected user to stay unverified")
		}
	})
	t.Run("unknown user", func(t *testing.T) {
		service, _, _ := newTestService(t)
		token := service.tokens.Generate("ghost@example.com")
		err := service.Verify(t.Context(), "ghost@example.com", token)
		if !errors.Is(err, ErrUpdateFailed) {
			t.Errorf("expected error %s, got %s", ErrUpdateFailed, err)
		}
		if !errors.Is(err, storage.ErrUserNotFound) {
			t.Errorf("expected error %s, got %s", storage.ErrUserNotFound, err)
		}
	})
	t.Run("update failure", func(t *testing.T) {
		service, users, token := signup(t)
		users.updateErr = errors.New("database is locked")
		if err := service.Verify(t.Context(), testEmail, token); !errors.Is(err, ErrUpdateFailed) {
			t.Errorf("expected error %s, got %s", ErrUpdateFailed, err)
		}
	})
	t.Run("verification clears the status cache", func(t *testing.T) {
		service, _, token := signup(t)
		status, err := service.Status(t.Context(), testEmail)
		if err != nil {
			t.Fatalf("failed to get status: %s", err)
		}
		if status.Verified {
			t.Fatal("expected user to be unverified")
		}
		if err = service.Verify(t.Context(), testEmail, token); err != nil {
			t.Fatalf("verification failed: %s", err)
		}
		status, err = service.Status(t.Context(), testEmail)
		if err != nil {
			t.Fatalf("failed to get status: %s", err)
		}
		if !status.Verified {
			t.Error("expected status to reflect the verification")
		}
	})
	t.Run("verification during a status lookup", func(t *testing.T) {
		service, users, token := signup(t)
		gate := newLookupGate()
		users.mu.Lock()
		users.gate = gate
		users.mu.Unlock()

		looked := make(chan Status, 1)
		go func() {
			status, err := service.Status(t.Context(), testEmail)
			if err != nil {
				t.Errorf("failed to get status: %s", err)
			}
			looked <- status
		}()
		<-gate.reached

		if err := service.Verify(t.Context(), testEmail, token); err != nil {
			t.Fatalf("verification failed: %s", err)
		}
		close(gate.release)
		if status := <-looked; status.Verified {
			t.Error("expected the in-flight lookup to return the unverified row")
		}

		status, err := service.Status(t.Context(), testEmail)
		if err != nil {
			t.Fatalf("failed to get status: %s", err)
		}
		if !status.Verified {
			t.Error("expected the status read before the verification not to be cached")
		}
	})
}

func TestService_Status(t *testing.T) {
	t.Run("status is cached", func(t *testing.T) {
		service, users, _ := newTestService(t)
		if _, err := service.Signup(t.Context(), SignupRequest{Email: testEmail, Password: testPassword}); err != nil {
			t.Fatalf("signup failed: %s", err)
		}
		for range 3 {
			status, err := service.Status(t.Context(), testEmail)
			if err != nil {
				t.Fatalf("failed to get status: %s", err)
			}
			if status.Email != testEmail {
				t.Errorf("expected email %s, got %s", testEmail, status.Email)
			}
		}
		if users.lookups != 1 {
			t.Errorf("expected a single storage lookup, got %d", users.lookups)
		}
	})
	t.Run("unknown user", func(t *testing.T) {
		service, _, _ := newTestService(t)
		if _, err := service.Status(t.Context(), testEmail); !errors.Is(err, storage.ErrUserNotFound) {
			t.Errorf("expected error %s, got %s", storage.ErrUserNotFound, err)
		}
	})
	t.Run("missing email", func(t *testing.T) {
		service, _, _ := newTestService(t)
		if _, err := service.Status(t.Context(), ""); !errors.Is(err, ErrMissingParameters) {
			t.Errorf("expected error %s, got %s", ErrMissingParameters, err)
		}
	})
	t.Run("invalidate drops cached statuses", func(t *testing.T) {
		service, users, _ := newTestService(t)
		if _, err := service.Signup(t.Context(), SignupRequest{Email: testEmail, Password: testPassword}); err != nil {
			t.Fatalf("signup failed: %s", err)
		}
		if _, err := service.Status(t.Context(), testEmail); err != nil {
			t.Fatalf("failed to get status: %s", err)
		}
		service.InvalidateStatuses()
		if _, err := service.Status(t.Context(), testEmail); err != nil {
			t.Fatalf("failed to get status: %s", err)
		}
		if users.lookups != 2 {
			t.Errorf("expected 2 storage lookups, got %d", users.lookups)
		}
	})
}

func TestService_ResendVerification(t *testing.T) {
	t.Run("link is sent again", func(t *testing.T) {
		service, _, sender := newTestService(t)
		if _, err := service.Signup(t.Context(), SignupRequest{Email: testEmail, Password: testPassword}); err != nil {
			t.Fatalf("signup failed: %s", err)
		}
		delete(sender.links, testEmail)
		if err := service.ResendVerification(t.Context(), testEmail); err != nil {
			t.Fatalf("resend failed: %s", err)
		}
		if _, ok := sender.links[testEmail]; !ok {
			t.Error("expected verification link to be sent")
		}
	})
	t.Run("verified user is rejected", func(t *testing.T) {
		service, users, _ := newTestService(t)
		users.users[testEmail] = models.User{ID: 1, Email: testEmail, EmailVerified: true}
		if err := service.ResendVerification(t.Context(), testEmail); !errors.Is(err, ErrAlreadyVerified) {
			t.Errorf("expected error %s, got %s", ErrAlreadyVerified, err)
		}
	})
	t.Run("unknown user", func(t *testing.T) {
		service, _, _ := newTestService(t)
		err := service.ResendVerification(t.Context(), testEmail)
		if !errors.Is(err, storage.ErrUserNotFound) {
			t.Errorf("expected error %s, got %s", storage.ErrUserNotFound, err)
		}
	})
	t.Run("missing email", func(t *testing.T) {
		service, _, _ := newTestService(t)
		if err := service.ResendVerification(t.Context(), " "); !errors.Is(err, ErrMissingParameters) {
			t.Errorf("expected error %s, got %s", ErrMissingParameters, err)
		}
	})
}

func TestService_VerificationLink(t *testing.T) {
	service, _, _ := newTestService(t)
	link := service.VerificationLink(testEmail)
	want := "https://shop.example.com/verify?email=jane%40example.com&token=" + service.tokens.Generate(testEmail)
	if link != want {
		t.Errorf("expected link %s, got %s", want, link)
	}
}
