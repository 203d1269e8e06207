package server

import (
	"encoding/csv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jaki95/plex-playlist-importer/internal/domain"
)

// reportStore holds generated import reports keyed by one-time download
// token. Entries live until their first retrieval; there is no other
// eviction, which is fine for the low volume of reports a session produces.
type reportStore struct {
	mu      sync.Mutex
	reports map[string]string
}

func newReportStore() *reportStore {
	return &reportStore{reports: make(map[string]string)}
}

// Put stores a report and returns its download token.
func (r *reportStore) Put(csvData string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[token] = csvData
	return token
}

// Pop removes and returns the report for a token.
func (r *reportStore) Pop(token string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	csvData, ok := r.reports[token]
	if ok {
		delete(r.reports, token)
	}
	return csvData, ok
}

// buildReportCSV renders the per-row import outcome as a CSV document.
func buildReportCSV(result *domain.ImportResult, entries []domain.Entry) string {
	reasons := make(map[int]string, len(result.Unmatched))
	for _, item := range result.Unmatched {
		reason := item.Reason
		if reason == "" {
			reason = "No confident match found."
		}
		reasons[item.Row] = reason
	}

	var buf strings.Builder
	writer := csv.NewWriter(&buf)
	_ = writer.Write([]string{"Artist", "Album", "Track", "Status"})
	for _, entry := range entries {
		status, ok := reasons[entry.Row]
		if !ok {
			status = "Imported ok"
		}
		_ = writer.Write([]string{entry.ArtistName, entry.AlbumName, entry.TrackName, status})
	}
	writer.Flush()
	return buf.String()
}
