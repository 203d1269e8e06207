package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/jaki95/plex-playlist-importer/config"
	"github.com/jaki95/plex-playlist-importer/internal/importer"
	"github.com/jaki95/plex-playlist-importer/internal/plex"
	"github.com/jaki95/plex-playlist-importer/internal/tracklist"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "Path to config file")
	csvPath := flag.String("csv", "", "Path to the playlist CSV (required)")
	playlistName := flag.String("playlist", "", "Target playlist name")
	section := flag.String("section", "", "Music library section (overrides config)")
	appendOnly := flag.Bool("append", false, "Append missing tracks instead of replacing the playlist")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "usage: import -csv <file> [-playlist <name>] [-section <name>] [-append]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}
	if *section != "" {
		cfg.Plex.MusicSection = *section
	}

	name := *playlistName
	if name == "" {
		name = cfg.Import.DefaultPlaylistName
	}

	if err := run(cfg, *csvPath, name, !*appendOnly && !cfg.Import.AppendOnly); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, csvPath, playlistName string, replace bool) error {
	data, err := os.ReadFile(csvPath)
	if err != nil {
		return fmt.Errorf("failed to read CSV: %w", err)
	}

	payload, err := tracklist.Parse(data)
	if err != nil {
		return err
	}

	workingURL, err := plex.NewConnectionTester().Test(cfg.Plex.URL)
	if err != nil {
		var connErr *plex.ConnectionError
		if errors.As(err, &connErr) {
			for _, step := range connErr.Steps {
				fmt.Fprintln(os.Stderr, "  - "+step)
			}
		}
		return err
	}

	client, err := plex.NewClient(workingURL, cfg.Plex.Token)
	if err != nil {
		return err
	}

	ctx := context.Background()
	sec, err := client.MusicSection(ctx, cfg.Plex.MusicSection)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(
		len(payload.Entries),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: ".",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Matching tracks...[reset]"),
	)

	imp := importer.New(client, sec, cfg.Import.MatchThreshold)
	result, err := imp.Run(ctx, payload.Entries, playlistName, replace, func(processed int) error {
		return bar.Set(processed)
	})
	if err != nil {
		return err
	}
	_ = bar.Finish()

	fmt.Printf("\nPlaylist %q: %d matched, %d added, %d unmatched\n",
		playlistName, result.MatchedCount, result.AddedCount, len(result.Unmatched))
	for _, track := range result.Unmatched {
		fmt.Printf("  row %d: %s - %s: %s\n", track.Row, track.ArtistName, track.TrackName, track.Reason)
	}
	return nil
}
