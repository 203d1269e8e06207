package plex

import (
	"context"
	"net/url"

	"github.com/jaki95/plex-playlist-importer/internal/domain"
)

// Section is one music library section. It implements domain.Section.
type Section struct {
	client *Client
	key    string
	title  string
}

func (s *Section) Title() string { return s.title }

// SearchTracks runs a structured track search using the non-empty query
// fields as metadata filters.
func (s *Section) SearchTracks(ctx context.Context, q domain.Query) ([]domain.Candidate, error) {
	params := url.Values{}
	params.Set("type", trackType)
	if q.Title != "" {
		params.Set("title", q.Title)
	}
	if q.Artist != "" {
		params.Set("artist.title", q.Artist)
	}
	if q.Album != "" {
		params.Set("album.title", q.Album)
	}

	container, err := s.client.get(ctx, "/library/sections/"+s.key+"/all", params)
	if err != nil {
		return nil, err
	}
	return trackCandidates(container.Tracks), nil
}

// Search runs a free-text search restricted to tracks.
func (s *Section) Search(ctx context.Context, text string) ([]domain.Candidate, error) {
	params := url.Values{}
	params.Set("type", trackType)
	params.Set("query", text)

	container, err := s.client.get(ctx, "/library/sections/"+s.key+"/search", params)
	if err != nil {
		return nil, err
	}
	return trackCandidates(container.Tracks), nil
}

// trackCandidates narrows a response to items Plex explicitly tagged as
// tracks; search endpoints occasionally mix other entity kinds in.
func trackCandidates(tracks []*Track) []domain.Candidate {
	var candidates []domain.Candidate
	for _, t := range tracks {
		if t.Type != "track" {
			continue
		}
		candidates = append(candidates, t)
	}
	return candidates
}
