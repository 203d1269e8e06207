package match

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jaki95/plex-playlist-importer/internal/domain"
)

// DefaultThreshold is the minimum score for an automatic match.
const DefaultThreshold = 70.0

// Result is a candidate that met the threshold, with its score.
type Result struct {
	Track domain.Candidate
	Score float64
}

// Attempt is the outcome of matching one entry. BestScore is the highest
// score seen across all evaluated candidates, whether or not it met the
// threshold; HadCandidates distinguishes "nothing found" from "found but
// scored too low".
type Attempt struct {
	Result        *Result
	BestScore     float64
	HadCandidates bool
}

// Matcher finds the best catalog candidate for playlist entries within a
// single library section.
type Matcher struct {
	section   domain.Section
	threshold float64
}

func NewMatcher(section domain.Section, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{section: section, threshold: threshold}
}

// FindBestMatch runs the query list for an entry, scoring every candidate it
// has not already seen. A perfect score of 100 stops the scan immediately.
func (m *Matcher) FindBestMatch(ctx context.Context, entry domain.Entry) Attempt {
	slog.Debug("searching for track",
		"track", entry.TrackName, "artist", entry.ArtistName, "row", entry.Row)

	queries := BuildQueries(entry)

	var best *Result
	seen := make(map[string]struct{})
	hadCandidates := false
	bestScoreSeen := 0.0

	for _, query := range queries {
		candidates := m.searchCandidates(ctx, query)
		if len(candidates) > 0 {
			hadCandidates = true
		}
		for _, candidate := range candidates {
			if _, ok := seen[candidate.Identity()]; ok {
				continue
			}
			seen[candidate.Identity()] = struct{}{}

			score := Score(entry, candidate)
			if score > bestScoreSeen {
				bestScoreSeen = score
			}
			slog.Debug("scored candidate",
				"title", candidate.Title(), "artist", candidate.Artist(), "score", score)

			if score >= m.threshold && (best == nil || score > best.Score) {
				best = &Result{Track: candidate, Score: score}
				if score == 100 {
					return Attempt{Result: best, BestScore: bestScoreSeen, HadCandidates: hadCandidates}
				}
			}
		}
	}

	if best == nil {
		slog.Debug("no candidate met threshold",
			"bestScore", bestScoreSeen, "threshold", m.threshold, "hadCandidates", hadCandidates)
	}
	return Attempt{Result: best, BestScore: bestScoreSeen, HadCandidates: hadCandidates}
}

// searchCandidates runs one query: structured lookup first, then a free-text
// fallback. Transport errors degrade to zero candidates; they are never
// fatal to a run.
func (m *Matcher) searchCandidates(ctx context.Context, query domain.Query) []domain.Candidate {
	if query.Title == "" {
		return nil
	}

	results, err := m.section.SearchTracks(ctx, query)
	if err != nil {
		slog.Debug("structured search failed", "query", query, "error", err)
		results = nil
	}
	if filtered := filterCandidates(results); len(filtered) > 0 {
		return filtered
	}

	text := query.FreeText()
	if text == "" {
		text = query.Title
	}
	results, err = m.section.Search(ctx, text)
	if err != nil {
		slog.Debug("free-text search failed", "query", text, "error", err)
		return nil
	}
	filtered := filterCandidates(results)
	if len(filtered) > 0 {
		slog.Debug("free-text fallback produced candidates", "query", text, "count", len(filtered))
	}
	return filtered
}

func filterCandidates(items []domain.Candidate) []domain.Candidate {
	var filtered []domain.Candidate
	for _, item := range items {
		if item.Title() == "" || item.Identity() == "" {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

// BuildQueries expands an entry into an ordered query list: for each title
// variant, the most specific field combinations first.
func BuildQueries(entry domain.Entry) []domain.Query {
	artist := strings.TrimSpace(entry.ArtistName)
	album := strings.TrimSpace(entry.AlbumName)

	var queries []domain.Query
	for _, title := range TitleVariants(entry.TrackName) {
		if artist != "" && album != "" {
			queries = append(queries, domain.Query{Title: title, Artist: artist, Album: album})
		}
		if artist != "" {
			queries = append(queries, domain.Query{Title: title, Artist: artist})
		}
		if album != "" {
			queries = append(queries, domain.Query{Title: title, Album: album})
		}
		queries = append(queries, domain.Query{Title: title})
	}
	return queries
}
