package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaki95/plex-playlist-importer/internal/domain"
)

type fakeCandidate struct {
	id       string
	title    string
	artist   string
	album    string
	playable bool
}

func (c fakeCandidate) Identity() string { return c.id }
func (c fakeCandidate) Title() string    { return c.title }
func (c fakeCandidate) Artist() string   { return c.artist }
func (c fakeCandidate) Album() string    { return c.album }
func (c fakeCandidate) Playable() bool   { return c.playable }

// fakeSection returns candidates keyed by lowercased title.
type fakeSection struct {
	byTitle map[string][]domain.Candidate
}

func (s *fakeSection) SearchTracks(_ context.Context, q domain.Query) ([]domain.Candidate, error) {
	return s.byTitle[strings.ToLower(q.Title)], nil
}

func (s *fakeSection) Search(_ context.Context, _ string) ([]domain.Candidate, error) {
	return nil, nil
}

type fakePlaylist struct {
	items []domain.Candidate

	bulkRemoveErr error
	addErr        error

	removeCalls [][]domain.Candidate
	added       []domain.Candidate
}

func (p *fakePlaylist) Items(context.Context) ([]domain.Candidate, error) {
	return p.items, nil
}

func (p *fakePlaylist) AddItems(_ context.Context, items []domain.Candidate) error {
	if p.addErr != nil {
		return p.addErr
	}
	p.added = append(p.added, items...)
	return nil
}

func (p *fakePlaylist) RemoveItems(_ context.Context, items []domain.Candidate) error {
	p.removeCalls = append(p.removeCalls, items)
	if p.bulkRemoveErr != nil && len(items) > 1 {
		return p.bulkRemoveErr
	}
	return nil
}

type fakeLibrary struct {
	playlist  *fakePlaylist
	createErr error
	created   map[string][]domain.Candidate
}

func (l *fakeLibrary) FindPlaylist(_ context.Context, name string) (domain.Playlist, bool, error) {
	if l.playlist == nil {
		return nil, false, nil
	}
	return l.playlist, true, nil
}

func (l *fakeLibrary) CreatePlaylist(_ context.Context, name string, items []domain.Candidate) error {
	if l.createErr != nil {
		return l.createErr
	}
	if l.created == nil {
		l.created = make(map[string][]domain.Candidate)
	}
	l.created[name] = items
	return nil
}

func playableTrack(id, title, artist string) fakeCandidate {
	return fakeCandidate{id: id, title: title, artist: artist, playable: true}
}

func sectionFor(tracks ...fakeCandidate) *fakeSection {
	byTitle := make(map[string][]domain.Candidate)
	for i := range tracks {
		key := strings.ToLower(tracks[i].title)
		byTitle[key] = append(byTitle[key], tracks[i])
	}
	return &fakeSection{byTitle: byTitle}
}

func TestRunCreatesPlaylist(t *testing.T) {
	section := sectionFor(
		playableTrack("1", "Yesterday", "The Beatles"),
		playableTrack("2", "Help!", "The Beatles"),
	)
	library := &fakeLibrary{}
	imp := New(library, section, 70)

	entries := []domain.Entry{
		{Row: 2, TrackName: "Yesterday", ArtistName: "The Beatles"},
		{Row: 3, TrackName: "Help!", ArtistName: "The Beatles"},
	}
	result, err := imp.Run(context.Background(), entries, "Favourites", true, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, result.MatchedCount)
	assert.Equal(t, 2, result.AddedCount)
	assert.Empty(t, result.Unmatched)
	require.Len(t, library.created["Favourites"], 2)
}

func TestRunDeduplicatesMatchedTracks(t *testing.T) {
	// Every entry resolves to the same catalog track: matched_count counts
	// attempts, the playlist gets the track once.
	section := sectionFor(playableTrack("1", "Yesterday", "The Beatles"))
	library := &fakeLibrary{}
	imp := New(library, section, 70)

	entries := []domain.Entry{
		{Row: 2, TrackName: "Yesterday", ArtistName: "The Beatles"},
		{Row: 3, TrackName: "Yesterday", ArtistName: "The Beatles"},
		{Row: 4, TrackName: "Yesterday", ArtistName: "The Beatles"},
	}
	result, err := imp.Run(context.Background(), entries, "Dupes", true, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, result.MatchedCount)
	assert.Equal(t, 1, result.AddedCount)
	require.Len(t, library.created["Dupes"], 1)
}

func TestRunUnplayableCandidate(t *testing.T) {
	unplayable := fakeCandidate{id: "1", title: "Yesterday", artist: "The Beatles", playable: false}
	section := sectionFor(unplayable)
	library := &fakeLibrary{}
	imp := New(library, section, 70)

	entries := []domain.Entry{{Row: 2, TrackName: "Yesterday", ArtistName: "The Beatles"}}
	result, err := imp.Run(context.Background(), entries, "List", true, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, result.MatchedCount)
	assert.Equal(t, 0, result.AddedCount)
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "Matched track has no playable media (check library paths).", result.Unmatched[0].Reason)
	assert.Nil(t, library.created)
}

func TestRunTrackNotFound(t *testing.T) {
	library := &fakeLibrary{}
	imp := New(library, &fakeSection{}, 70)

	entries := []domain.Entry{{Row: 5, TrackName: "Ghost Song", ArtistName: "Nobody"}}
	result, err := imp.Run(context.Background(), entries, "List", true, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, result.MatchedCount)
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "Track not found in the selected library.", result.Unmatched[0].Reason)
	assert.Equal(t, 5, result.Unmatched[0].Row)
}

func TestRunBelowThresholdReason(t *testing.T) {
	// A candidate exists but cannot reach the (deliberately impossible)
	// threshold, so the reason reports the best score seen.
	near := fakeCandidate{id: "1", title: "Yesterday (Demo Take 40)", artist: "Beatles Revival Band", playable: true}
	section := &fakeSection{byTitle: map[string][]domain.Candidate{"yesterday": {near}}}
	library := &fakeLibrary{}
	imp := New(library, section, 101)

	entries := []domain.Entry{{Row: 2, TrackName: "Yesterday", ArtistName: "The Beatles"}}
	result, err := imp.Run(context.Background(), entries, "List", true, nil)

	require.NoError(t, err)
	require.Len(t, result.Unmatched, 1)
	reason := result.Unmatched[0].Reason
	assert.True(t, strings.HasPrefix(reason, "Best match score "), "got reason %q", reason)
	assert.True(t, strings.HasSuffix(reason, "< threshold 101."), "got reason %q", reason)
}

func TestRunReplaceExistingPlaylist(t *testing.T) {
	section := sectionFor(
		playableTrack("n1", "One", "A"),
		playableTrack("n2", "Two", "A"),
		playableTrack("n3", "Three", "A"),
		playableTrack("n4", "Four", "A"),
		playableTrack("n5", "Five", "A"),
	)
	existing := &fakePlaylist{items: []domain.Candidate{
		playableTrack("old1", "Old One", "B"),
		playableTrack("old2", "Old Two", "B"),
		playableTrack("old3", "Old Three", "B"),
	}}
	library := &fakeLibrary{playlist: existing}
	imp := New(library, section, 70)

	entries := []domain.Entry{
		{Row: 2, TrackName: "One", ArtistName: "A"},
		{Row: 3, TrackName: "Two", ArtistName: "A"},
		{Row: 4, TrackName: "Three", ArtistName: "A"},
		{Row: 5, TrackName: "Four", ArtistName: "A"},
		{Row: 6, TrackName: "Five", ArtistName: "A"},
	}
	result, err := imp.Run(context.Background(), entries, "Mix", true, nil)

	require.NoError(t, err)
	assert.Equal(t, 5, result.AddedCount)
	require.Len(t, existing.removeCalls, 1)
	assert.Len(t, existing.removeCalls[0], 3)
	assert.Len(t, existing.added, 5)
}

func TestRunReplaceRetriesRemovalIndividually(t *testing.T) {
	section := sectionFor(playableTrack("n1", "One", "A"))
	existing := &fakePlaylist{
		items: []domain.Candidate{
			playableTrack("old1", "Old One", "B"),
			playableTrack("old2", "Old Two", "B"),
		},
		bulkRemoveErr: errors.New("server error"),
	}
	library := &fakeLibrary{playlist: existing}
	imp := New(library, section, 70)

	entries := []domain.Entry{{Row: 2, TrackName: "One", ArtistName: "A"}}
	result, err := imp.Run(context.Background(), entries, "Mix", true, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.AddedCount)
	// One failed bulk call, then one call per item.
	require.Len(t, existing.removeCalls, 3)
	assert.Len(t, existing.removeCalls[0], 2)
	assert.Len(t, existing.removeCalls[1], 1)
	assert.Len(t, existing.removeCalls[2], 1)
}

func TestRunAppendOnlyAddsDifference(t *testing.T) {
	tracks := []fakeCandidate{
		playableTrack("n1", "One", "A"),
		playableTrack("n2", "Two", "A"),
		playableTrack("n3", "Three", "A"),
		playableTrack("n4", "Four", "A"),
		playableTrack("n5", "Five", "A"),
	}
	section := sectionFor(tracks...)
	existing := &fakePlaylist{items: []domain.Candidate{tracks[0], tracks[1]}}
	library := &fakeLibrary{playlist: existing}
	imp := New(library, section, 70)

	entries := []domain.Entry{
		{Row: 2, TrackName: "One", ArtistName: "A"},
		{Row: 3, TrackName: "Two", ArtistName: "A"},
		{Row: 4, TrackName: "Three", ArtistName: "A"},
		{Row: 5, TrackName: "Four", ArtistName: "A"},
		{Row: 6, TrackName: "Five", ArtistName: "A"},
	}
	result, err := imp.Run(context.Background(), entries, "Mix", false, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, result.AddedCount)
	assert.Empty(t, existing.removeCalls, "append must never remove existing tracks")
	assert.Len(t, existing.added, 3)
}

func TestRunEmptyMatchesSkipsPlaylist(t *testing.T) {
	library := &fakeLibrary{}
	imp := New(library, &fakeSection{}, 70)

	result, err := imp.Run(context.Background(),
		[]domain.Entry{{Row: 2, TrackName: "Nope", ArtistName: "Nobody"}}, "Mix", true, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, result.AddedCount)
	assert.Nil(t, library.created)
}

func TestRunSyncFailure(t *testing.T) {
	section := sectionFor(playableTrack("1", "Yesterday", "The Beatles"))
	library := &fakeLibrary{createErr: errors.New("insufficient permissions")}
	imp := New(library, section, 70)

	entries := []domain.Entry{{Row: 2, TrackName: "Yesterday", ArtistName: "The Beatles"}}
	result, err := imp.Run(context.Background(), entries, "Locked", true, nil)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyncFailed)
	assert.Contains(t, err.Error(), "Locked")
}

func TestRunProgressCallback(t *testing.T) {
	section := sectionFor(playableTrack("1", "Yesterday", "The Beatles"))
	library := &fakeLibrary{}
	imp := New(library, section, 70)

	entries := []domain.Entry{
		{Row: 2, TrackName: "Yesterday", ArtistName: "The Beatles"},
		{Row: 3, TrackName: "Missing", ArtistName: "Nobody"},
	}

	var seen []int
	_, err := imp.Run(context.Background(), entries, "Mix", true, func(processed int) error {
		seen = append(seen, processed)
		if processed == 1 {
			return fmt.Errorf("flaky sink")
		}
		return nil
	})

	// Callback failures never abort the run.
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}
