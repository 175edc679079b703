package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/godsvagn/godsvagn/internal/generator"
	"github.com/godsvagn/godsvagn/internal/ingest"
	"github.com/godsvagn/godsvagn/internal/models"
)

// maxUploadBytes bounds a single artifact upload
const maxUploadBytes = 512 << 20

// Server is the HTTP boundary: it delivers uploads into the ingestion
// service, triggers regeneration, and serves the published repository
// tree. Authentication and TLS are the front proxy's problem, not
// ours.
type Server struct {
	echo     *echo.Echo
	ingester *ingest.Service
	gen      *generator.Generator
	bind     string
}

// New wires the HTTP routes
func New(bind string, ingester *ingest.Service, gen *generator.Generator, repoRoot string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:     e,
		ingester: ingester,
		gen:      gen,
		bind:     bind,
	}

	e.POST("/upload", s.handleUpload)
	e.POST("/regenerate", s.handleRegenerate)
	e.GET("/healthz", s.handleHealth)
	e.Static("/", repoRoot)

	return s
}

// Start runs the server until an interrupt or fatal error, then shuts
// down gracefully
func (s *Server) Start() error {
	serverErrors := make(chan error, 1)
	go func() {
		logrus.Infof("listening on %s", s.bind)
		serverErrors <- s.echo.Start(s.bind)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err
	case sig := <-shutdown:
		logrus.Infof("shutdown signal received: %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.echo.Shutdown(ctx); err != nil {
			logrus.Errorf("graceful shutdown failed: %v", err)
			return s.echo.Close()
		}
	}
	return nil
}

// handleUpload ingests one artifact delivered as the raw request body.
// With ?ignore_exists=true a duplicate upload reports success, which
// makes retried identical uploads idempotent for callers.
func (s *Server) handleUpload(c echo.Context) error {
	body := http.MaxBytesReader(c.Response(), c.Request().Body, maxUploadBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err))
	}

	pkg, err := s.ingester.Ingest(c.Request().Context(), data)
	if err != nil {
		logrus.Warnf("upload rejected: %v", err)
		switch models.Kind(err) {
		case models.ErrDuplicate:
			if ignore, _ := strconv.ParseBool(c.QueryParam("ignore_exists")); ignore {
				return c.JSON(http.StatusOK, map[string]string{"status": "exists"})
			}
			return c.JSON(http.StatusConflict, errorBody(err))
		case models.ErrParse:
			return c.JSON(http.StatusBadRequest, errorBody(err))
		default:
			return c.JSON(http.StatusInternalServerError, errorBody(err))
		}
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"package":      pkg.Name,
		"version":      pkg.Version,
		"architecture": pkg.Architecture,
		"filepath":     pkg.Filepath,
	})
}

// handleRegenerate rebuilds the indices for every known architecture
func (s *Server) handleRegenerate(c echo.Context) error {
	if err := s.gen.Generate(c.Request().Context()); err != nil {
		logrus.Errorf("regeneration failed: %v", err)
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "regenerated"})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}
