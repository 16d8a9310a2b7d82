// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wneessen/shopkeep/internal/account"
	"github.com/wneessen/shopkeep/internal/auth"
	"github.com/wneessen/shopkeep/internal/catalog"
	"github.com/wneessen/shopkeep/internal/config"
	"github.com/wneessen/shopkeep/internal/logger"
	"github.com/wneessen/shopkeep/internal/mailer"
	"github.com/wneessen/shopkeep/internal/verification"
)

// Storage is the persistence layer the HTTP services operate on.
type Storage interface {
	account.UserSaver
	account.UserProvider
	account.UserVerifier
	catalog.ProductProvider
	catalog.ProductSaver
}

type Server struct {
	accounts *account.Service
	caches   *caches
	catalog  *catalog.Service
	config   *config.Config
	httpSrv  *http.Server
	issuer   *auth.Issuer
	log      *logger.Logger
	mux      *chi.Mux
	version  string
}

// New returns a new server instance. Admin routes are disabled if no admin JWT
// secret is configured.
func New(conf *config.Config, log *logger.Logger, store Storage, version string) (*Server, error) {
	mux := chi.NewMux()
	listenAddr := net.JoinHostPort(conf.Server.BindAddress, conf.Server.BindPort)

	var issuer *auth.Issuer
	if conf.Admin.JWTSecret != "" {
		var err error
		if issuer, err = auth.NewIssuer(conf.Admin.JWTSecret, conf.Admin.TokenTTL); err != nil {
			return nil, fmt.Errorf("failed to create admin token issuer: %w", err)
		}
	}

	stores, err := newCaches(conf)
	if err != nil {
		return nil, err
	}

	tokens := verification.New(verification.WithGraceDays(conf.Verification.GraceDays))
	sender := mailer.New(mailer.Config{
		Host:     conf.Mail.Host,
		Port:     conf.Mail.Port,
		Username: conf.Mail.Username,
		Password: conf.Mail.Password,
		Sender:   conf.Mail.Sender,
		ForceTLS: conf.Mail.ForceTLS,
		DryRun:   conf.Mail.DryRun,

		GraceDays: tokens.GraceDays(),
	}, log)

	return &Server{
		accounts: account.New(log, store, store, store, sender, tokens, stores.statuses, conf.Server.BaseURL),
		caches:   stores,
		catalog:  catalog.New(log, store, store, stores.listings),
		config:   conf,
		httpSrv: &http.Server{
			Addr:              listenAddr,
			Handler:           mux,
			ReadTimeout:       conf.Server.Timeout,
			ReadHeaderTimeout: conf.Server.Timeout,
			WriteTimeout:      conf.Server.Timeout,
			IdleTimeout:       conf.Server.Timeout,
		},
		issuer:  issuer,
		log:     log,
		mux:     mux,
		version: version,
	}, nil
}

// Start starts up the server and waits for a shutdown signal
func (s *Server) Start(ctx context.Context) error {
	ctxServer, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	s.log.Info("starting shopkeep http server", slog.String("listen_addr", s.httpSrv.Addr),
		slog.String("cache_type", s.config.Cache.Type))

	// Assign routes
	s.routes(ctxServer)

	// Start caches
	s.caches.start()

	// Start http server
	var listenerFailed atomic.Bool
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("failed to start http listener", logger.Err(err))
			listenerFailed.Store(true)
		}
		cancelServer()
	}()
	<-ctxServer.Done()
	if listenerFailed.Load() {
		s.caches.stop()
		return fmt.Errorf("failed to start http listener")
	}

	// Shut down server and services
	s.log.Info("shutting down shopkeep http server")
	ctxShutdown, cancelStop := context.WithTimeout(context.WithoutCancel(ctx), time.Second*5)
	defer cancelStop()
	if err := s.httpSrv.Shutdown(ctxShutdown); err != nil {
		s.log.Error("failed to shut down http server gracefully", logger.Err(err))
	}
	s.caches.stop()

	return nil
}
