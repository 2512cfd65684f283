package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kec-hub/opportunity-engine/internal/engine"
	"github.com/kec-hub/opportunity-engine/internal/extract"
	"github.com/kec-hub/opportunity-engine/internal/profile"
)

// OpportunitiesResponse is the wire shape the portal frontend consumes.
// Meta flags are embedded so groqEnabled/webSearch* appear at the top
// level, and the nullable fields serialize as explicit null.
type OpportunitiesResponse struct {
	Success       bool                  `json:"success"`
	Message       string                `json:"message"`
	Opportunities []extract.Opportunity `json:"opportunities"`
	GeneratedAt   string                `json:"generatedAt"`
	engine.Meta
}

// realtimeOpportunities triggers one best-effort discovery call for a
// student profile. The handler always answers 200 with a structured
// body; failure states are expressed through success/message and the
// meta flags, never as HTTP errors.
func (s *Server) realtimeOpportunities(c echo.Context) error {
	email := c.Param("email")

	rec, err := s.profiles.Profile(c.Request().Context(), email)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return c.JSON(http.StatusOK, OpportunitiesResponse{
				Success:       false,
				Message:       "User not found.",
				Opportunities: []extract.Opportunity{},
				GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
			})
		}
		s.logger.Printf("profile lookup failed for %s: %v", email, err)
		return c.JSON(http.StatusOK, OpportunitiesResponse{
			Success:       false,
			Message:       "Profile service is unavailable. Try again.",
			Opportunities: []extract.Opportunity{},
			GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}

	if rec.Role != profile.RoleStudent {
		return c.JSON(http.StatusOK, OpportunitiesResponse{
			Success:       false,
			Message:       "Realtime discovery is available for student profiles only.",
			Opportunities: []extract.Opportunity{},
			GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		})
	}

	res := s.engine.Discover(c.Request().Context(), profile.Normalize(rec))
	return c.JSON(http.StatusOK, OpportunitiesResponse{
		Success:       true,
		Message:       "Opportunities extracted.",
		Opportunities: res.Opportunities,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		Meta:          res.Meta,
	})
}
