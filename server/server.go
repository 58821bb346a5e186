// Package server - HTTP API accepting car photos and returning grouped inspection results.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nvr-ai/carcheck/images"
	"github.com/nvr-ai/carcheck/inspection"
	"github.com/pkg/errors"
)

// RequestIDHeader carries the request id on every response.
const RequestIDHeader = "X-Request-ID"

// Inspector inspects an image file. *inspection.Inspector implements it.
type Inspector interface {
	InspectFile(ctx context.Context, path string) (*inspection.Report, error)
}

// Config configures the HTTP API.
type Config struct {
	Addr           string
	AllowedOrigins []string
	// MaxUploadBytes caps the request body of an upload. Zero means no cap.
	MaxUploadBytes int64
}

// Server is the HTTP API.
type Server struct {
	cfg       Config
	inspector Inspector
	logger    *log.Logger
	engine    *gin.Engine
}

// New builds the routes:
//
//	POST /upload   multipart field "image" (.jpg, .jpeg, .png) -> inspection.Summary, 413 over MaxUploadBytes
//	GET  /healthz  {"status": "ok"}
func New(cfg Config, inspector Inspector, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}

	s := &Server{cfg: cfg, inspector: inspector, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestID(), s.logRequests())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	r.POST("/upload", s.upload)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("🚀 Listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
		s.logger.Printf("🛑 Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
	}
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Printf("🌐 %s %s %d %v [%s]",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start).Round(time.Millisecond), c.GetString("request_id"))
	}
}

func (s *Server) upload(c *gin.Context) {
	if s.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)
	}
	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	format, ok := images.FormatOf(file.Filename)
	if !ok {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported image format: " + file.Filename})
		return
	}
	tmp := filepath.Join(os.TempDir(), "upload_"+uuid.NewString()+format.Extension())
	if err := c.SaveUploadedFile(file, tmp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer os.Remove(tmp)

	report, err := s.inspector.InspectFile(c.Request.Context(), tmp)
	if err != nil {
		s.logger.Printf("❌ Inspection failed [%s]: %v", c.GetString("request_id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "inspection failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, inspection.Summarize(report))
}
