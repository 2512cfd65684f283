package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kec-hub/opportunity-engine/internal/engine"
	"github.com/kec-hub/opportunity-engine/internal/fetch"
	"github.com/kec-hub/opportunity-engine/internal/planner"
	"github.com/kec-hub/opportunity-engine/internal/profile"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	eng := engine.New(engine.Options{
		Planner:      planner.New(nil, time.Second, 4),
		Orchestrator: fetch.New(nil, 4, 8, time.Second),
		Timeout:      time.Second,
	})
	profiles := StaticSource{
		"stu@kongu.edu": {
			Email:      "stu@kongu.edu",
			Role:       profile.RoleStudent,
			Department: "Computer Science",
			Skills:     []string{"React"},
		},
		"alum@kongu.edu": {Email: "alum@kongu.edu", Role: profile.RoleAlumni},
	}
	return New(eng, profiles)
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v\n%s", err, rec.Body.String())
	}
	return rec, body
}

func TestRealtimeDisabledProviderStillSucceeds(t *testing.T) {
	t.Parallel()
	s := testServer(t)
	rec, body := get(t, s, "/api/opportunities/realtime/stu@kongu.edu")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["success"] != true {
		t.Fatalf("success = %v", body["success"])
	}
	if body["webSearchEnabled"] != false || body["groqEnabled"] != false {
		t.Fatalf("feature flags wrong: %v", body)
	}
	// Key presence matters to the frontend: nullable fields must be
	// explicit null, not omitted.
	for _, key := range []string{"webSearchProvider", "webSearchError", "groqUsed", "webSearchUsed", "opportunities", "generatedAt"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("response missing key %q: %v", key, body)
		}
	}
	if body["webSearchError"] != nil {
		t.Fatalf("webSearchError = %v, want null", body["webSearchError"])
	}
	if ops, ok := body["opportunities"].([]any); !ok || len(ops) != 0 {
		t.Fatalf("opportunities = %v, want []", body["opportunities"])
	}
}

func TestRealtimeUnknownUser(t *testing.T) {
	t.Parallel()
	s := testServer(t)
	rec, body := get(t, s, "/api/opportunities/realtime/nobody@kongu.edu")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["success"] != false {
		t.Fatalf("success = %v, want false", body["success"])
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "not found") {
		t.Fatalf("message = %q", msg)
	}
}

func TestRealtimeNonStudentRefused(t *testing.T) {
	t.Parallel()
	s := testServer(t)
	_, body := get(t, s, "/api/opportunities/realtime/alum@kongu.edu")
	if body["success"] != false {
		t.Fatalf("non-student lookup should not run discovery: %v", body)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}
