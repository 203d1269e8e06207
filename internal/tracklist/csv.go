package tracklist

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jaki95/plex-playlist-importer/internal/domain"
)

var (
	ErrEmptyCSV       = errors.New("the CSV file is empty")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoValidTracks  = errors.New("no valid tracks found in the CSV")
)

// columnAliases maps friendly header names (normalized: lowercased, spaces
// for underscores) to the internal field they resolve to.
var columnAliases = map[string]string{
	"track name":  "track_name",
	"title":       "track_name",
	"track":       "track_name",
	"artist name": "artist_name",
	"artist":      "artist_name",
	"album":       "album_name",
	"album name":  "album_name",
}

var requiredColumns = []string{"artist_name", "track_name"}

// Payload is the validated result of parsing a playlist CSV: the entries to
// import plus a canonical re-serialisation echoed back to the form.
type Payload struct {
	Entries       []domain.Entry
	NormalizedCSV string
}

// Parse reads a playlist CSV. Headers are matched case-, space- and
// underscore-insensitively against the alias table; rows missing a track or
// artist are skipped. Row numbers start at 2, the header being row 1.
func Parse(data []byte) (*Payload, error) {
	text := decode(data)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCSV
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyCSV
	}

	columns, err := mapColumns(records[0])
	if err != nil {
		return nil, err
	}

	var entries []domain.Entry
	for i, record := range records[1:] {
		row := i + 2
		trackName := cell(record, columns["track_name"])
		artistName := cell(record, columns["artist_name"])
		if trackName == "" || artistName == "" {
			slog.Debug("skipping row with missing track or artist",
				"row", row, "track", trackName, "artist", artistName)
			continue
		}

		albumName := ""
		if idx, ok := columns["album_name"]; ok {
			albumName = cell(record, idx)
		}

		entries = append(entries, domain.Entry{
			Row:        row,
			TrackName:  trackName,
			ArtistName: artistName,
			AlbumName:  albumName,
		})
	}

	if len(entries) == 0 {
		return nil, ErrNoValidTracks
	}

	slog.Info("parsed playlist CSV", "rows", len(records)-1, "entries", len(entries))
	return &Payload{Entries: entries, NormalizedCSV: serialize(entries)}, nil
}

// mapColumns resolves header cells to internal column indexes via the alias
// table.
func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for idx, name := range header {
		normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", " ")
		if internal, ok := columnAliases[normalized]; ok {
			if _, taken := columns[internal]; !taken {
				columns[internal] = idx
			}
		}
	}

	var missing []string
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return columns, nil
}

func cell(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// decode strips a UTF-8 BOM and falls back to a Latin-1 interpretation when
// the bytes are not valid UTF-8.
func decode(data []byte) string {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

// sniffDelimiter picks the separator that splits the header line into the
// most fields.
func sniffDelimiter(text string) rune {
	headerLine, _, _ := strings.Cut(text, "\n")
	best, bestCount := ',', strings.Count(headerLine, ",")
	for _, candidate := range []rune{';', '\t'} {
		if count := strings.Count(headerLine, string(candidate)); count > bestCount {
			best, bestCount = candidate, count
		}
	}
	return best
}

// serialize re-emits the parsed entries as a canonical CSV.
func serialize(entries []domain.Entry) string {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)
	_ = writer.Write([]string{"Artist name", "Album", "Track name"})
	for _, entry := range entries {
		_ = writer.Write([]string{entry.ArtistName, entry.AlbumName, entry.TrackName})
	}
	writer.Flush()
	return strings.TrimSpace(buf.String())
}
