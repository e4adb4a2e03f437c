package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/castkit/playoutd/internal/compositor"
	"github.com/castkit/playoutd/internal/core/channel"
	"github.com/castkit/playoutd/internal/core/format"
	"github.com/castkit/playoutd/internal/events"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	desc := format.New("test", 32, 18, format.Progressive, 25, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ch := channel.New(1, desc, compositor.New(), nil, nil, logger)
	t.Cleanup(ch.Close)

	return NewServer(&Options{
		AuthUsername: "admin",
		AuthPassword: "secret",
		Channels:     map[int]*channel.Channel{1: ch},
		EventBus:     events.New(),
		Logger:       logger,
	})
}

func request(t *testing.T, s *Server, method, path, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.SetBasicAuth("admin", "secret")
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListChannelsRequiresAuth(t *testing.T) {
	s := testServer(t)

	rec := request(t, s, http.MethodGet, "/api/channels", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated list = %d, want 401", rec.Code)
	}

	rec = request(t, s, http.MethodGet, "/api/channels", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated list = %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Channels []struct {
			Index  int    `json:"index"`
			Format string `json:"format"`
		} `json:"channels"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 || body.Channels[0].Index != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestGetChannelState(t *testing.T) {
	s := testServer(t)

	rec := request(t, s, http.MethodGet, "/api/channels/1/state", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("state = %d: %s", rec.Code, rec.Body.String())
	}

	var state map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	// The state may be from before the first completed tick, but once
	// populated it carries the telemetry keys.
	if len(state) > 0 {
		if _, ok := state["timecode/source"]; !ok {
			t.Errorf("state missing timecode/source: %v", state)
		}
	}
}

func TestGetUnknownChannelIs404(t *testing.T) {
	s := testServer(t)

	rec := request(t, s, http.MethodGet, "/api/channels/9", "", true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown channel = %d, want 404", rec.Code)
	}
}

func TestLoadColorProducer(t *testing.T) {
	s := testServer(t)

	rec := request(t, s, http.MethodPost, "/api/channels/1/layers/10/load",
		`{"producer":"color","color":"#FF0000"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("load = %d: %s", rec.Code, rec.Body.String())
	}

	rec = request(t, s, http.MethodPost, "/api/channels/1/layers/10/play", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("play = %d: %s", rec.Code, rec.Body.String())
	}

	rec = request(t, s, http.MethodGet, "/api/channels/1", "", true)
	var body struct {
		Layers []int `json:"layers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Layers) != 1 || body.Layers[0] != 10 {
		t.Errorf("layers = %v, want [10]", body.Layers)
	}
}

func TestLoadRejectsBadColor(t *testing.T) {
	s := testServer(t)

	rec := request(t, s, http.MethodPost, "/api/channels/1/layers/10/load",
		`{"producer":"color","color":"#ZZ"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad color = %d, want 400", rec.Code)
	}
}

func TestSetFormat(t *testing.T) {
	s := testServer(t)

	rec := request(t, s, http.MethodPut, "/api/channels/1/format",
		`{"format":"720p5000"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("set format = %d: %s", rec.Code, rec.Body.String())
	}

	rec = request(t, s, http.MethodGet, "/api/channels/1", "", true)
	var body struct {
		Format string `json:"format"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Format != "720p5000" {
		t.Errorf("format = %q, want 720p5000", body.Format)
	}

	rec = request(t, s, http.MethodPut, "/api/channels/1/format",
		`{"format":"nonsense"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format = %d, want 400", rec.Code)
	}
}

func TestFormatsEndpointIsPublic(t *testing.T) {
	s := testServer(t)

	rec := request(t, s, http.MethodGet, "/api/formats", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("formats = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "1080i5000") {
		t.Error("formats list should include 1080i5000")
	}
}
