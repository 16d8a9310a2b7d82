// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package verification derives stateless email verification tokens.
//
// A token is the last TokenLength hex characters of the SHA-256 digest of the
// email address concatenated with the current day number. A token stays valid
// for the day it was issued on and for a configurable number of following
// calendar days (one by default). Nothing is stored, so a valid token can be
// used any number of times within that window.
package verification

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"time"
)

const (
	// TokenLength is the number of hex characters in a token.
	TokenLength = 8

	// DefaultGraceDays is the number of past days a token is still accepted for.
	DefaultGraceDays = 1

	// MaxGraceDays bounds the grace period.
	MaxGraceDays = 30

	msPerDay = int64(24 * time.Hour / time.Millisecond)
)

// Scheme generates and verifies tokens.
type Scheme struct {
	now       func() time.Time
	graceDays int
}

// Option configures a Scheme.
type Option func(*Scheme)

// WithClock sets the time source used to determine the current day.
func WithClock(now func() time.Time) Option {
	return func(s *Scheme) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGraceDays sets how many days before the current one are accepted by
// Verify. Negative values are ignored, values above MaxGraceDays are capped.
func WithGraceDays(days int) Option {
	return func(s *Scheme) {
		if days >= 0 {
			s.graceDays = min(days, MaxGraceDays)
		}
	}
}

// New returns a Scheme using the system clock and DefaultGraceDays unless
// configured otherwise.
func New(opts ...Option) *Scheme {
	s := &Scheme{
		now:       time.Now,
		graceDays: DefaultGraceDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GraceDays returns the configured grace period in days.
func (s *Scheme) GraceDays() int {
	return s.graceDays
}

// DayNumber returns the number of whole days between the Unix epoch and t.
func DayNumber(t time.Time) int64 {
	ms := t.UnixMilli()
	day := ms / msPerDay
	if ms%msPerDay < 0 {
		day--
	}
	return day
}

// Today returns the day number of the scheme's clock.
func (s *Scheme) Today() int64 {
	return DayNumber(s.now())
}

// Generate returns the token for email on the current day.
func (s *Scheme) Generate(email string) string {
	return GenerateAt(email, s.Today())
}

// GenerateAt returns the token for email on the given day number.
func GenerateAt(email string, day int64) string {
	sum := sha256.Sum256([]byte(email + strconv.FormatInt(day, 10)))
	digest := hex.EncodeToString(sum[:])
	return digest[len(digest)-TokenLength:]
}

// Verify reports whether token was issued for email today or within the
// grace period.
func (s *Scheme) Verify(email, token string) bool {
	if len(token) != TokenLength {
		return false
	}
	today := s.Today()
	for offset := range int64(s.graceDays) + 1 {
		want := GenerateAt(email, today-offset)
		if subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 1 {
			return true
		}
	}
	return false
}
