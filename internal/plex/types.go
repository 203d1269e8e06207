package plex

import "encoding/xml"

// mediaContainer is the envelope every Plex API response uses.
type mediaContainer struct {
	XMLName           xml.Name    `xml:"MediaContainer"`
	MachineIdentifier string      `xml:"machineIdentifier,attr"`
	Directories       []directory `xml:"Directory"`
	Tracks            []*Track    `xml:"Track"`
	Playlists         []playlist  `xml:"Playlist"`
}

// directory describes a library section.
type directory struct {
	Key   string `xml:"key,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// playlist describes a playlist container.
type playlist struct {
	RatingKey string `xml:"ratingKey,attr"`
	Title     string `xml:"title,attr"`
}

// Track is one catalog track as returned by a search or playlist listing.
// It implements domain.Candidate.
type Track struct {
	RatingKey        string  `xml:"ratingKey,attr"`
	TrackTitle       string  `xml:"title,attr"`
	GrandparentTitle string  `xml:"grandparentTitle,attr"`
	ParentTitle      string  `xml:"parentTitle,attr"`
	Type             string  `xml:"type,attr"`
	PlaylistItemID   string  `xml:"playlistItemID,attr"`
	Media            []media `xml:"Media"`
}

type media struct {
	Parts []part `xml:"Part"`
}

type part struct {
	File string `xml:"file,attr"`
}

func (t *Track) Identity() string { return t.RatingKey }
func (t *Track) Title() string    { return t.TrackTitle }
func (t *Track) Artist() string   { return t.GrandparentTitle }
func (t *Track) Album() string    { return t.ParentTitle }

// Playable reports whether the server exposes at least one file-bearing
// media part for the track. Tracks without one show up in search results but
// cannot be played or added usefully.
func (t *Track) Playable() bool {
	for _, m := range t.Media {
		for _, p := range m.Parts {
			if p.File != "" {
				return true
			}
		}
	}
	return false
}
