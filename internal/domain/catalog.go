package domain

import "context"

// Query is one structured search against the media catalog. Title is always
// set; Artist and Album narrow the search when present.
type Query struct {
	Title  string
	Artist string
	Album  string
}

// FreeText joins the non-empty query fields into a single free-text search
// string, artist first.
func (q Query) FreeText() string {
	text := ""
	for _, part := range []string{q.Artist, q.Title, q.Album} {
		if part == "" {
			continue
		}
		if text != "" {
			text += " "
		}
		text += part
	}
	return text
}

// Candidate is a read-only view of one catalog track returned by a search.
type Candidate interface {
	// Identity is a stable comparable token naming the catalog item.
	Identity() string
	Title() string
	Artist() string
	Album() string
	// Playable reports whether the item exposes at least one resolvable
	// media file reference.
	Playable() bool
}

// Section is a searchable music library section.
type Section interface {
	// SearchTracks runs a structured track search using the non-empty
	// query fields.
	SearchTracks(ctx context.Context, q Query) ([]Candidate, error)
	// Search runs a free-text track search.
	Search(ctx context.Context, text string) ([]Candidate, error)
}

// Playlist is a mutable named track list in the catalog.
type Playlist interface {
	Items(ctx context.Context) ([]Candidate, error)
	AddItems(ctx context.Context, items []Candidate) error
	RemoveItems(ctx context.Context, items []Candidate) error
}

// Library is the catalog-side surface the importer needs: playlist lookup by
// exact name, where absence is a normal outcome rather than an error, and
// playlist creation.
type Library interface {
	// FindPlaylist resolves a playlist by exact name. The boolean is false
	// when no playlist with that name exists.
	FindPlaylist(ctx context.Context, name string) (Playlist, bool, error)
	CreatePlaylist(ctx context.Context, name string, items []Candidate) error
}
