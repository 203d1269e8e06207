package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jaki95/plex-playlist-importer/internal/domain"
	"github.com/jaki95/plex-playlist-importer/internal/match"
)

var (
	// ErrSyncFailed means the playlist mutation failed after matching
	// completed. Matched-but-unapplied tracks are lost from the run.
	ErrSyncFailed = errors.New("playlist update failed")
)

// Unmatched reason templates. The wording is part of the report contract.
const (
	reasonNotFound   = "Track not found in the selected library."
	reasonUnplayable = "Matched track has no playable media (check library paths)."
	reasonLowScore   = "Best match score %.1f < threshold %.0f."
)

// ProgressFunc receives the 1-based count of entries processed so far. It is
// a fire-and-forget notification: failures are logged and discarded.
type ProgressFunc func(processed int) error

// Importer drives matching across all entries of one run and synchronises
// the target playlist with the result. One importer handles one run; runs
// for different jobs may execute concurrently against separate importers.
type Importer struct {
	library   domain.Library
	matcher   *match.Matcher
	threshold float64
}

func New(library domain.Library, section domain.Section, threshold float64) *Importer {
	if threshold <= 0 {
		threshold = match.DefaultThreshold
	}
	return &Importer{
		library:   library,
		matcher:   match.NewMatcher(section, threshold),
		threshold: threshold,
	}
}

// Run matches every entry in order, then applies the playlist changes.
// Per-entry failures are recorded in the result, never returned as errors;
// only a playlist mutation failure aborts the run.
func (i *Importer) Run(
	ctx context.Context,
	entries []domain.Entry,
	playlistName string,
	replaceExisting bool,
	onProgress ProgressFunc,
) (*domain.ImportResult, error) {
	var (
		matchedTracks []domain.Candidate
		unmatched     []domain.UnmatchedTrack
		matchedCount  int
	)
	seenIdentities := make(map[string]struct{})

	for index, entry := range entries {
		attempt := i.matcher.FindBestMatch(ctx, entry)

		switch {
		case attempt.Result != nil && !attempt.Result.Track.Playable():
			slog.Warn("skipping track with no playable media",
				"title", attempt.Result.Track.Title(), "row", entry.Row)
			unmatched = append(unmatched, domain.UnmatchedTrack{
				Row:        entry.Row,
				TrackName:  entry.TrackName,
				ArtistName: entry.ArtistName,
				Reason:     reasonUnplayable,
			})

		case attempt.Result != nil:
			matchedCount++
			identity := attempt.Result.Track.Identity()
			if _, ok := seenIdentities[identity]; !ok {
				seenIdentities[identity] = struct{}{}
				matchedTracks = append(matchedTracks, attempt.Result.Track)
			}

		default:
			reason := reasonNotFound
			if attempt.HadCandidates && attempt.BestScore > 0 {
				reason = fmt.Sprintf(reasonLowScore, attempt.BestScore, i.threshold)
			}
			unmatched = append(unmatched, domain.UnmatchedTrack{
				Row:        entry.Row,
				TrackName:  entry.TrackName,
				ArtistName: entry.ArtistName,
				Reason:     reason,
			})
		}

		if onProgress != nil {
			if err := onProgress(index + 1); err != nil {
				slog.Debug("progress callback failed", "error", err)
			}
		}
	}

	addedCount, err := i.applyPlaylistChanges(ctx, playlistName, matchedTracks, replaceExisting)
	if err != nil {
		slog.Error("failed to apply playlist changes", "playlist", playlistName, "error", err)
		return nil, fmt.Errorf("%w: %q: %v", ErrSyncFailed, playlistName, err)
	}

	return &domain.ImportResult{
		MatchedCount: matchedCount,
		AddedCount:   addedCount,
		Unmatched:    unmatched,
	}, nil
}

// applyPlaylistChanges diffs the matched tracks against the target playlist
// and applies create, replace or append semantics. It never removes a track
// that was not already present before the call.
func (i *Importer) applyPlaylistChanges(
	ctx context.Context,
	playlistName string,
	tracks []domain.Candidate,
	replaceExisting bool,
) (int, error) {
	if len(tracks) == 0 {
		slog.Info("no tracks matched, skipping playlist update", "playlist", playlistName)
		return 0, nil
	}

	playlist, found, err := i.library.FindPlaylist(ctx, playlistName)
	if err != nil {
		return 0, err
	}

	if !found {
		slog.Info("creating playlist", "playlist", playlistName, "tracks", len(tracks))
		if err := i.library.CreatePlaylist(ctx, playlistName, tracks); err != nil {
			return 0, err
		}
		return len(tracks), nil
	}

	if replaceExisting {
		slog.Info("replacing playlist contents", "playlist", playlistName, "tracks", len(tracks))
		items, err := playlist.Items(ctx)
		if err != nil {
			return 0, err
		}
		if len(items) > 0 {
			if err := playlist.RemoveItems(ctx, items); err != nil {
				slog.Warn("bulk removal failed, retrying items individually", "error", err)
				for _, item := range items {
					if err := playlist.RemoveItems(ctx, []domain.Candidate{item}); err != nil {
						slog.Error("unable to remove track", "title", item.Title(), "error", err)
					}
				}
			}
		}
		if err := playlist.AddItems(ctx, tracks); err != nil {
			return 0, err
		}
		return len(tracks), nil
	}

	items, err := playlist.Items(ctx)
	if err != nil {
		return 0, err
	}
	existing := make(map[string]struct{}, len(items))
	for _, item := range items {
		existing[item.Identity()] = struct{}{}
	}

	var newTracks []domain.Candidate
	for _, track := range tracks {
		if _, ok := existing[track.Identity()]; !ok {
			newTracks = append(newTracks, track)
		}
	}
	if len(newTracks) == 0 {
		slog.Info("no new tracks to add", "playlist", playlistName)
		return 0, nil
	}
	slog.Info("appending new tracks", "playlist", playlistName, "tracks", len(newTracks))
	if err := playlist.AddItems(ctx, newTracks); err != nil {
		return 0, err
	}
	return len(newTracks), nil
}
