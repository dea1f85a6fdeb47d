package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/conversa-chat/conversa/pkg/auth"
	"github.com/conversa-chat/conversa/pkg/logging"
	"github.com/conversa-chat/conversa/pkg/server"
	"github.com/conversa-chat/conversa/pkg/store"
)

func main() {
	cfg := server.DefaultConfig()

	// .env (if present) and CONVERSA_* variables fill in before flags, so the
	// admin secret can stay out of the command line.
	_ = godotenv.Load()
	cfg.ApplyEnv()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "TCP bind address")
	flag.StringVar(&cfg.WSAddr, "ws", cfg.WSAddr, "WebSocket gateway bind address (empty to disable)")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "HTTP bind address for Prometheus /metrics (empty to disable)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database file path")
	flag.StringVar(&cfg.AdminSecret, "admin-secret", cfg.AdminSecret, "Shared admin secret (empty disables admin logins)")
	flag.BoolVar(&cfg.AutoCreateRooms, "auto-create-rooms", cfg.AutoCreateRooms, "Create absent rooms on ENTRAR_SALA")
	flag.StringVar(&cfg.RoomsFile, "rooms-file", cfg.RoomsFile, "YAML file defining rooms to create on startup")
	flag.BoolVar(&cfg.ExportBans, "export-bans", false, "Export the ban list as YAML and exit")
	flag.StringVar(&cfg.Unban, "unban", "", "Lift the ban on a username and exit")

	logLevel := flag.String("log-level", "info", "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	flag.Parse()

	// Configure structured logging
	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: *logFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	// Handle moderation commands (run and exit)
	if cfg.ExportBans || cfg.Unban != "" {
		st, err := store.New(cfg.DBPath)
		if err != nil {
			slog.Error("open database", "err", err)
			os.Exit(1)
		}
		defer func() { _ = st.Close() }()

		if cfg.ExportBans {
			data, err := server.ExportBansYAML(st)
			if err != nil {
				slog.Error("export bans", "err", err)
				os.Exit(1)
			}
			fmt.Print(string(data))
		}
		if cfg.Unban != "" {
			if err := st.RemoveBan(cfg.Unban); err != nil {
				slog.Error("unban", "user", cfg.Unban, "err", err)
				os.Exit(1)
			}
			slog.Info("ban lifted", "user", cfg.Unban)
		}
		return
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		slog.Error("open database", "err", err)
		os.Exit(1)
	}

	if cfg.AdminSecret == "" {
		slog.Warn("no admin secret configured; admin commands are disabled")
	}
	verifier, err := auth.NewVerifier(cfg.AdminSecret)
	if err != nil {
		slog.Error("init admin verifier", "err", err)
		os.Exit(1)
	}

	srv := server.New(cfg, server.Dependencies{Store: st, Verifier: verifier})
	if err := srv.Run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
