package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"testing"

	"github.com/lumisonic/lumisonic/internal/params"
)

type fakeSource struct {
	t Telemetry
}

func (f fakeSource) Telemetry() Telemetry { return f.t }

func newTestServer() (*Server, *params.Store) {
	store := params.NewStore()
	src := fakeSource{t: Telemetry{FPS: 60, Emotion: "joy", Volume: 0.4, Particles: 12}}
	return NewServer(store, src, log.New(io.Discard, "", 0)), store
}

func TestGetParamsReturnsSnapshot(t *testing.T) {
	srv, store := newTestServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/params", nil))
	if rec.Code != 200 {
		t.Fatalf("GET /api/params returned %d", rec.Code)
	}

	var got params.Spectrum
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got != store.Snapshot() {
		t.Fatalf("response %+v does not match store %+v", got, store.Snapshot())
	}
}

func TestPostParamsClampsAtWrite(t *testing.T) {
	srv, store := newTestServer()

	body := bytes.NewBufferString(`{"smoothingFactor": 9, "minThreshold": 0.001, "displayMode": "sides"}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/params", body))
	if rec.Code != 200 {
		t.Fatalf("POST /api/params returned %d: %s", rec.Code, rec.Body.String())
	}

	got := store.Snapshot()
	if got.SmoothingFactor != 0.5 {
		t.Fatalf("smoothing factor not clamped: %f", got.SmoothingFactor)
	}
	if got.MinThreshold != 0.01 {
		t.Fatalf("min threshold not clamped: %f", got.MinThreshold)
	}
	if got.Mode != params.DisplaySides {
		t.Fatalf("display mode not applied: %v", got.Mode)
	}
	// Untouched fields keep their values.
	if got.FallSpeed != params.Defaults().FallSpeed {
		t.Fatalf("partial update clobbered fallSpeed: %f", got.FallSpeed)
	}
}

func TestPostParamsRejectsBadJSON(t *testing.T) {
	srv, _ := newTestServer()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/params", bytes.NewBufferString("{nope")))
	if rec.Code != 400 {
		t.Fatalf("malformed body returned %d, want 400", rec.Code)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	srv, store := newTestServer()
	s := store.Snapshot()
	s.MelSensitivity = 1.0
	store.Update(s)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/params/reset", nil))
	if rec.Code != 200 {
		t.Fatalf("POST /api/params/reset returned %d", rec.Code)
	}
	if store.Snapshot() != params.Defaults() {
		t.Fatalf("reset did not restore defaults: %+v", store.Snapshot())
	}
}

func TestStatusReportsTelemetry(t *testing.T) {
	srv, _ := newTestServer()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/status", nil))

	var got Telemetry
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if got.Emotion != "joy" || got.FPS != 60 || got.Particles != 12 {
		t.Fatalf("unexpected telemetry: %+v", got)
	}
}
