// Package server exposes the discovery engine over HTTP. The profile
// store, auth and the rest of the portal are external collaborators; the
// server consumes profiles through the narrow ProfileSource interface
// and trusts the presentation layer in front of it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kec-hub/opportunity-engine/config"
	"github.com/kec-hub/opportunity-engine/internal/engine"
	"github.com/kec-hub/opportunity-engine/internal/profile"
)

// ProfileSource supplies profile records by email. ErrProfileNotFound is
// the only error the handler treats specially.
type ProfileSource interface {
	Profile(ctx context.Context, email string) (profile.Record, error)
}

var ErrProfileNotFound = errors.New("profile not found")

// StaticSource is an in-process ProfileSource backed by a fixed map,
// used for development and tests.
type StaticSource map[string]profile.Record

func (s StaticSource) Profile(ctx context.Context, email string) (profile.Record, error) {
	rec, ok := s[email]
	if !ok {
		return profile.Record{}, ErrProfileNotFound
	}
	return rec, nil
}

// Server mounts the discovery HTTP surface.
type Server struct {
	echo     *echo.Echo
	engine   *engine.Engine
	profiles ProfileSource
	logger   *log.Logger
}

// New builds the server with panic recovery, permissive CORS and a
// unified JSON error handler.
func New(eng *engine.Engine, profiles ProfileSource) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	logger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}

	s := &Server{echo: e, engine: eng, profiles: profiles, logger: logger}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/api/opportunities/realtime/:email", s.realtimeOpportunities)

	return s
}

// Handler returns the http.Handler, for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Run builds everything from configuration and serves until the listener
// fails.
func Run(cfg *config.Config, profiles ProfileSource) error {
	eng := engine.FromConfig(cfg)
	s := New(eng, profiles)
	s.logger.Printf("listening on %s (search=%q expansion=%v)",
		cfg.Server.Address, cfg.Search.ProviderName(), cfg.Expansion.Enabled())
	return s.echo.Start(cfg.Server.Address)
}
