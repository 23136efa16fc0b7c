// Package main is the entry point of the VentureHub web server.
//
// main only reads configuration, builds the logger and hands over to
// internal/server, which owns every other dependency.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sakif/venturehub/internal/auth"
	"github.com/sakif/venturehub/internal/config"
	"github.com/sakif/venturehub/internal/handler"
	"github.com/sakif/venturehub/internal/server"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	// === 1. CONFIGURATION ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.BasicAuth.Password == config.Default().BasicAuth.Password {
		logger.Warn("BASIC_AUTH_PASSWORD is the default, set it before exposing the approval pages")
	}

	// === 3. BACKEND ===
	ctx := context.Background()
	backend, err := server.OpenBackend(ctx, cfg, nil, logger)
	if err != nil {
		logger.Error("failed to open backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 4. SOCIAL LOGIN ===
	// Optional: without a reachable issuer the social routes answer 404.
	var social handler.SocialProvider
	oidcProvider, err := auth.NewOIDCProvider(ctx, auth.OIDCConfig{
		IssuerURL:    cfg.Keycloak.IssuerURL(),
		ClientID:     cfg.Keycloak.ClientID,
		ClientSecret: cfg.Keycloak.ClientSecret,
		RedirectURL:  strings.TrimRight(cfg.Server.BaseURL, "/") + "/auth/social/callback",
		IDPHint:      cfg.Keycloak.IDPHint,
	})
	if err != nil {
		logger.Warn("social login disabled", slog.String("error", err.Error()))
	} else {
		social = oidcProvider
	}

	// === 5. SERVE ===
	srv, err := server.New(cfg, backend, social, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		_ = backend.Close(ctx)
		os.Exit(1)
	}

	// Start() blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger writes to stdout and, when a directory is configured, to a
// rotating file as well.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.Dir != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, "venturehub.log"),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
