package plex

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jaki95/plex-playlist-importer/internal/domain"
)

const (
	// Plex metadata type for music tracks.
	trackType = "10"

	defaultHTTPTimeout = 30 * time.Second
)

var (
	ErrMissingToken    = errors.New("plex token is required")
	ErrSectionNotFound = errors.New("music section not found")
)

// Client talks to a Plex Media Server over its XML HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	mu        sync.Mutex
	machineID string
}

func NewClient(baseURL, token string) (*Client, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}

// BaseURL returns the server address the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// get performs a GET against path with the given query parameters and
// decodes the MediaContainer response.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*mediaContainer, error) {
	container := &mediaContainer{}
	if err := c.do(ctx, http.MethodGet, path, params, container); err != nil {
		return nil, err
	}
	return container, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, out *mediaContainer) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("X-Plex-Token", c.token)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to plex failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated &&
		resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("plex returned status %d for %s", resp.StatusCode, path)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode plex response: %w", err)
		}
	}
	return nil
}

// machineIdentifier fetches and caches the server id used in playlist item
// URIs.
func (c *Client) machineIdentifier(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.machineID != "" {
		return c.machineID, nil
	}

	container, err := c.get(ctx, "/", nil)
	if err != nil {
		return "", err
	}
	if container.MachineIdentifier == "" {
		return "", fmt.Errorf("plex server info has no machine identifier")
	}
	c.machineID = container.MachineIdentifier
	return c.machineID, nil
}

// itemsURI builds the server:// URI naming a set of tracks, used by the
// playlist create and add endpoints.
func (c *Client) itemsURI(ctx context.Context, items []domain.Candidate) (string, error) {
	machineID, err := c.machineIdentifier(ctx)
	if err != nil {
		return "", err
	}
	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.Identity())
	}
	return fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s",
		machineID, strings.Join(keys, ",")), nil
}

// SectionInfo names one music section, for the library picker.
type SectionInfo struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// MusicSections lists the sections of type "artist" on the server.
func (c *Client) MusicSections(ctx context.Context) ([]SectionInfo, error) {
	container, err := c.get(ctx, "/library/sections", nil)
	if err != nil {
		return nil, err
	}
	var sections []SectionInfo
	for _, dir := range container.Directories {
		if dir.Type == "artist" {
			sections = append(sections, SectionInfo{Key: dir.Key, Title: dir.Title})
		}
	}
	return sections, nil
}

// MusicSection resolves a music section by title.
func (c *Client) MusicSection(ctx context.Context, name string) (*Section, error) {
	sections, err := c.MusicSections(ctx)
	if err != nil {
		return nil, err
	}
	for _, info := range sections {
		if info.Title == name {
			return &Section{client: c, key: info.Key, title: info.Title}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSectionNotFound, name)
}

// FindPlaylist resolves a playlist by exact title. Absence is reported via
// the boolean, not an error.
func (c *Client) FindPlaylist(ctx context.Context, name string) (domain.Playlist, bool, error) {
	container, err := c.get(ctx, "/playlists", nil)
	if err != nil {
		return nil, false, err
	}
	for _, pl := range container.Playlists {
		if pl.Title == name {
			return &Playlist{client: c, ratingKey: pl.RatingKey, title: pl.Title}, true, nil
		}
	}
	return nil, false, nil
}

// CreatePlaylist creates a new audio playlist containing the given tracks.
func (c *Client) CreatePlaylist(ctx context.Context, name string, items []domain.Candidate) error {
	uri, err := c.itemsURI(ctx, items)
	if err != nil {
		return err
	}
	params := url.Values{}
	params.Set("type", "audio")
	params.Set("smart", "0")
	params.Set("title", name)
	params.Set("uri", uri)
	return c.do(ctx, http.MethodPost, "/playlists", params, nil)
}
