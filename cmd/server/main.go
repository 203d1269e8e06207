package main

import (
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jaki95/plex-playlist-importer/config"
	"github.com/jaki95/plex-playlist-importer/internal/server"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to config file")
	port := flag.String("port", "", "Server port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if *port != "" {
		cfg.Server.Port = *port
	}

	srv := server.New(cfg)
	slog.Info("Starting playlist importer server", "port", cfg.Server.Port)
	if err := srv.Start(cfg.Server.Port); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
