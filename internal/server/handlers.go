package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jaki95/plex-playlist-importer/internal/importer"
	"github.com/jaki95/plex-playlist-importer/internal/plex"
	"github.com/jaki95/plex-playlist-importer/internal/progress"
	"github.com/jaki95/plex-playlist-importer/internal/tracklist"
)

// formValues echoes the submitted form back into the template on errors.
type formValues struct {
	PlexURL         string
	PlexToken       string
	MusicSection    string
	PlaylistName    string
	ReplaceExisting bool
	CSVText         string
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Error": nil,
		"Form": formValues{
			PlexURL:         s.cfg.Plex.URL,
			PlexToken:       s.cfg.Plex.Token,
			MusicSection:    s.cfg.Plex.MusicSection,
			ReplaceExisting: !s.cfg.Import.AppendOnly,
		},
	})
}

// importPlaylist runs a full import from the submitted form. Matching runs
// on this request's goroutine; the browser polls /progress/:id concurrently.
func (s *Server) importPlaylist(c *gin.Context) {
	form := formValues{
		PlexURL:         strings.TrimSpace(c.PostForm("plex_url")),
		PlexToken:       strings.TrimSpace(c.PostForm("plex_token")),
		MusicSection:    c.DefaultPostForm("music_section", s.cfg.Plex.MusicSection),
		PlaylistName:    strings.TrimSpace(c.PostForm("playlist_name")),
		ReplaceExisting: s.replaceFlag(c),
		CSVText:         c.PostForm("csv_text"),
	}
	jobID := strings.TrimSpace(c.PostForm("job_id"))

	slog.Info("received import request",
		"playlist", form.PlaylistName, "section", form.MusicSection, "jobId", jobID)

	csvData := s.resolveCSV(c, form.CSVText)
	if len(csvData) == 0 {
		s.renderFormError(c, http.StatusBadRequest, form,
			"Please provide CSV text or upload a CSV file.")
		return
	}

	if jobID != "" {
		s.progress.Start(jobID, 0)
	}
	failJob := func() {
		if jobID != "" {
			s.progress.Error(jobID)
			s.progress.Pop(jobID)
		}
	}

	payload, err := tracklist.Parse(csvData)
	if err != nil {
		slog.Error("CSV parsing failed", "error", err)
		failJob()
		s.renderFormError(c, http.StatusBadRequest, form, err.Error())
		return
	}
	form.CSVText = payload.NormalizedCSV

	if form.PlaylistName == "" {
		form.PlaylistName = s.cfg.Import.DefaultPlaylistName
	}
	if jobID != "" {
		s.progress.SetTotal(jobID, len(payload.Entries))
	}

	plexURL := form.PlexURL
	if plexURL == "" {
		plexURL = s.cfg.Plex.URL
	}
	plexToken := form.PlexToken
	if plexToken == "" {
		plexToken = s.cfg.Plex.Token
	}

	workingURL, err := s.tester.Test(plexURL)
	if err != nil {
		slog.Error("plex connection failed", "url", plexURL, "error", err)
		failJob()
		s.renderFormError(c, http.StatusBadGateway, form, connectionErrorText(err))
		return
	}
	if workingURL != plexURL {
		slog.Info("using fallback plex URL", "url", workingURL)
	}

	client, err := plex.NewClient(workingURL, plexToken)
	if err != nil {
		failJob()
		s.renderFormError(c, http.StatusBadRequest, form, "Plex token is required.")
		return
	}

	// A started run must reach a terminal state even if the submitting
	// browser disconnects, so the lookup and run are detached from the
	// request's cancellation.
	runCtx := context.WithoutCancel(c.Request.Context())

	section, err := client.MusicSection(runCtx, form.MusicSection)
	if err != nil {
		slog.Error("music section lookup failed", "section", form.MusicSection, "error", err)
		failJob()
		s.renderFormError(c, http.StatusBadGateway, form, err.Error())
		return
	}

	imp := importer.New(client, section, s.cfg.Import.MatchThreshold)
	result, err := imp.Run(runCtx, payload.Entries, form.PlaylistName,
		form.ReplaceExisting, func(processed int) error {
			if jobID != "" {
				s.progress.Update(jobID, processed)
			}
			return nil
		})
	if err != nil {
		slog.Error("playlist import failed", "playlist", form.PlaylistName, "error", err)
		failJob()
		s.renderFormError(c, http.StatusBadGateway, form, err.Error())
		return
	}

	if jobID != "" {
		s.progress.Finish(jobID)
	}

	slog.Info("playlist processed",
		"playlist", form.PlaylistName,
		"matched", result.MatchedCount,
		"added", result.AddedCount,
		"unmatched", len(result.Unmatched))

	token := s.reports.Put(buildReportCSV(result, payload.Entries))
	c.HTML(http.StatusOK, "result.html", gin.H{
		"Result":       result,
		"PlaylistName": form.PlaylistName,
		"PlexURL":      workingURL,
		"ReportToken":  token,
	})
	if jobID != "" {
		s.progress.Pop(jobID)
	}
}

// previewPlaylist validates a CSV without touching Plex.
func (s *Server) previewPlaylist(c *gin.Context) {
	csvData := s.resolveCSV(c, c.PostForm("csv_text"))
	if len(csvData) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No CSV content provided."})
		return
	}

	payload, err := tracklist.Parse(csvData)
	if err != nil {
		slog.Error("CSV preview failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"csv":        payload.NormalizedCSV,
		"entryCount": len(payload.Entries),
	})
}

// getProgress reports job progress. Terminal states are removed after their
// first read.
func (s *Server) getProgress(c *gin.Context) {
	jobID := c.Param("id")

	snapshot, ok := s.progress.Snapshot(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": "unknown"})
		return
	}
	if snapshot.Status == progress.StatusCompleted || snapshot.Status == progress.StatusError {
		s.progress.Pop(jobID)
	}
	c.JSON(http.StatusOK, snapshot)
}

type librariesRequest struct {
	PlexURL   string `json:"plex_url"`
	PlexToken string `json:"plex_token"`
}

// listLibraries enumerates the music sections for the form dropdown.
func (s *Server) listLibraries(c *gin.Context) {
	var req librariesRequest
	_ = c.ShouldBindJSON(&req)

	plexURL := req.PlexURL
	if plexURL == "" {
		plexURL = s.cfg.Plex.URL
	}
	plexToken := req.PlexToken
	if plexToken == "" {
		plexToken = s.cfg.Plex.Token
	}
	if plexToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plex token is required to list libraries."})
		return
	}

	workingURL, err := s.tester.Test(plexURL)
	if err != nil {
		slog.Error("plex connection failed", "url", plexURL, "error", err)
		response := gin.H{"error": err.Error()}
		var connErr *plex.ConnectionError
		if errors.As(err, &connErr) {
			response["troubleshooting"] = connErr.Steps
		}
		c.JSON(http.StatusBadGateway, response)
		return
	}

	client, err := plex.NewClient(workingURL, plexToken)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sections, err := client.MusicSections(c.Request.Context())
	if err != nil {
		slog.Error("failed to fetch plex libraries", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Unable to retrieve music libraries."})
		return
	}

	response := gin.H{"sections": sections}
	if len(sections) == 0 {
		response["message"] = "No music libraries found."
	}
	if workingURL != plexURL {
		response["suggested_url"] = workingURL
	}
	c.JSON(http.StatusOK, response)
}

// downloadReport serves a stored import report exactly once.
func (s *Server) downloadReport(c *gin.Context) {
	token := c.Param("token")
	csvData, ok := s.reports.Pop(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report expired or not found."})
		return
	}
	c.Header("Content-Disposition", `attachment; filename=import-report-`+token+`.csv`)
	c.Data(http.StatusOK, "text/csv", []byte(csvData))
}

// resolveCSV prefers pasted text over an uploaded file.
func (s *Server) resolveCSV(c *gin.Context, csvText string) []byte {
	if strings.TrimSpace(csvText) != "" {
		return []byte(csvText)
	}
	file, err := c.FormFile("csv_file")
	if err != nil {
		return nil
	}
	opened, err := file.Open()
	if err != nil {
		slog.Error("failed to open uploaded CSV", "error", err)
		return nil
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		slog.Error("failed to read uploaded CSV", "error", err)
		return nil
	}
	return data
}

// replaceFlag interprets the checkbox value, falling back to the configured
// default when the field is absent.
func (s *Server) replaceFlag(c *gin.Context) bool {
	value, present := c.GetPostForm("replace_existing")
	if !present {
		return !s.cfg.Import.AppendOnly
	}
	switch strings.ToLower(value) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

func (s *Server) renderFormError(c *gin.Context, status int, form formValues, message string) {
	c.HTML(status, "index.html", gin.H{
		"Error": message,
		"Form":  form,
	})
}

// connectionErrorText flattens a connection failure into the message plus
// its remediation steps.
func connectionErrorText(err error) string {
	var connErr *plex.ConnectionError
	if !errors.As(err, &connErr) {
		return err.Error()
	}
	var b strings.Builder
	b.WriteString(connErr.Message)
	b.WriteString("\n\nTroubleshooting steps:\n")
	for _, step := range connErr.Steps {
		b.WriteString("• " + step + "\n")
	}
	return strings.TrimSpace(b.String())
}
