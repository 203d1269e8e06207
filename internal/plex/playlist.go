package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jaki95/plex-playlist-importer/internal/domain"
)

// Playlist is a handle to an existing playlist. It implements
// domain.Playlist.
type Playlist struct {
	client    *Client
	ratingKey string
	title     string
}

func (p *Playlist) Title() string { return p.title }

// Items lists the playlist's current tracks, including their playlist item
// ids, which are needed for removal.
func (p *Playlist) Items(ctx context.Context) ([]domain.Candidate, error) {
	container, err := p.client.get(ctx, "/playlists/"+p.ratingKey+"/items", nil)
	if err != nil {
		return nil, err
	}
	return trackCandidates(container.Tracks), nil
}

// AddItems appends tracks to the playlist.
func (p *Playlist) AddItems(ctx context.Context, items []domain.Candidate) error {
	if len(items) == 0 {
		return nil
	}
	uri, err := p.client.itemsURI(ctx, items)
	if err != nil {
		return err
	}
	params := url.Values{}
	params.Set("uri", uri)
	return p.client.do(ctx, http.MethodPut, "/playlists/"+p.ratingKey+"/items", params, nil)
}

// RemoveItems deletes tracks from the playlist. Items must come from a
// previous Items call so their playlist item ids are known; removal stops at
// the first failing item.
func (p *Playlist) RemoveItems(ctx context.Context, items []domain.Candidate) error {
	for _, item := range items {
		track, ok := item.(*Track)
		if !ok || track.PlaylistItemID == "" {
			return fmt.Errorf("item %q has no playlist item id", item.Title())
		}
		path := "/playlists/" + p.ratingKey + "/items/" + track.PlaylistItemID
		if err := p.client.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
			return err
		}
	}
	return nil
}
