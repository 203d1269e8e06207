package domain

import "strings"

// Entry represents a single parsed row from an uploaded playlist CSV.
type Entry struct {
	Row        int    `json:"row"`
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`
	AlbumName  string `json:"album_name,omitempty"`
}

// CombinedKey returns the "<artist> - <track>" form used for scoring.
func (e Entry) CombinedKey() string {
	return strings.TrimSpace(e.ArtistName + " - " + e.TrackName)
}

// UnmatchedTrack records an entry that could not be imported, with the reason.
type UnmatchedTrack struct {
	Row        int    `json:"row"`
	TrackName  string `json:"track_name"`
	ArtistName string `json:"artist_name"`
	Reason     string `json:"reason"`
}

// ImportResult summarises one import run. MatchedCount counts entries that
// resolved to a usable candidate; AddedCount counts tracks actually written
// to the playlist after deduplication and diffing.
type ImportResult struct {
	MatchedCount int              `json:"matched_count"`
	AddedCount   int              `json:"added_count"`
	Unmatched    []UnmatchedTrack `json:"unmatched"`
}
