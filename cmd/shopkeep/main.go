// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/wneessen/shopkeep/internal/auth"
	"github.com/wneessen/shopkeep/internal/config"
	"github.com/wneessen/shopkeep/internal/logger"
	"github.com/wneessen/shopkeep/internal/server"
	"github.com/wneessen/shopkeep/internal/storage/sqlite"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()

	var conf *config.Config
	var err error

	confPath := flag.String("config", "", "path to the config file")
	adminSubject := flag.String("issue-admin-token", "", "print an admin token for the given subject and exit")
	flag.Parse()
	switch {
	case confPath != nil && *confPath != "":
		file := filepath.Base(*confPath)
		path := filepath.Dir(*confPath)
		conf, err = config.NewFromFile(path, file)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to load config from file: %s\n", err)
			os.Exit(1)
		}
	default:
		conf, err = config.New()
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to load default config: %s\n", err)
			os.Exit(1)
		}
	}

	if *adminSubject != "" {
		issuer, err := auth.NewIssuer(conf.Admin.JWTSecret, conf.Admin.TokenTTL)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to issue admin token: %s\n", err)
			os.Exit(1)
		}
		token, err := issuer.Issue(*adminSubject)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to issue admin token: %s\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	// Initialize a logger based on the config
	log := logger.New(conf.Log.Level, logger.Opts{
		Format:       conf.Log.Format,
		DontLogIP:    conf.Log.DontLogIP,
		DontLogEmail: conf.Log.DontLogEmail,
	})

	// Open the database
	store, err := sqlite.New(ctx, conf.Database.Path)
	if err != nil {
		log.Error("failed to open database", logger.Err(err), slog.String("path", conf.Database.Path))
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close database", logger.Err(err))
		}
	}()

	// Initialize server instance
	srv, err := server.New(conf, log, store, version)
	if err != nil {
		log.Error("failed to create server", logger.Err(err))
		return
	}

	// Start server
	log.Info("starting shopkeep service", slog.String("version", version),
		slog.String("commit", commit), slog.String("date", date))
	if err = srv.Start(ctx); err != nil {
		log.Error("failed to start server", logger.Err(err))
	}
	log.Info("shutting down shopkeep service")
}
