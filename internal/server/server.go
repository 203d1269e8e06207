package server

import (
	"embed"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaki95/plex-playlist-importer/config"
	"github.com/jaki95/plex-playlist-importer/internal/plex"
	"github.com/jaki95/plex-playlist-importer/internal/progress"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Server handles HTTP requests for the playlist importer.
type Server struct {
	cfg      *config.Config
	router   *gin.Engine
	progress *progress.Tracker
	reports  *reportStore
	tester   *plex.ConnectionTester
}

// New creates the HTTP server with its routes configured.
func New(cfg *config.Config) *Server {
	router := gin.Default()
	router.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	server := &Server{
		cfg:      cfg,
		router:   router,
		progress: progress.NewTracker(),
		reports:  newReportStore(),
		tester:   plex.NewConnectionTester(),
	}
	server.setupRoutes(router)
	return server
}

func (s *Server) setupRoutes(router *gin.Engine) {
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	router.GET("/health", s.healthCheck)
	router.GET("/", s.index)
	router.POST("/import", s.importPlaylist)
	router.POST("/preview", s.previewPlaylist)
	router.GET("/progress/:id", s.getProgress)
	router.POST("/libraries", s.listLibraries)
	router.GET("/report/:token", s.downloadReport)
}

// Start starts the HTTP server.
func (s *Server) Start(port string) error {
	return s.router.Run(":" + port)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "plex-playlist-importer",
	})
}
