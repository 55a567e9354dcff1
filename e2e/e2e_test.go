package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/bus"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

type env struct {
	dir      string
	store    *store.Store
	app      *app.App
	detector *detector.MockDetector
	ts       *httptest.Server
	srv      *server.Server
}

func setup(t *testing.T) *env {
	t.Helper()
	e := &env{dir: t.TempDir(), detector: detector.NewMockDetector()}

	images := filepath.Join(e.dir, "images")
	os.Mkdir(images, 0755)
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if err := os.WriteFile(filepath.Join(images, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	s, err := store.New(filepath.Join(e.dir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	e.store = s

	cfg := config.Default()
	cfg.DataDir = e.dir
	cfg.Gallery.Dir = images
	cfg.Plugins.Dir = filepath.Join(e.dir, "plugins")
	cfg.Pipeline.IdleFPS = 20
	cfg.Pipeline.ActiveFPS = 20

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { frame.Close() })

	pub, err := bus.New(bus.Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	e.app = app.New(app.Options{
		Config:   &cfg,
		Store:    s,
		Camera:   capture.NewMockCamera([]*gocv.Mat{&frame}, true),
		Detector: e.detector,
		Bus:      pub,
	})
	t.Cleanup(e.app.Shutdown)

	e.srv = server.New(server.Config{App: e.app})
	e.ts = httptest.NewServer(e.srv)
	t.Cleanup(e.ts.Close)
	t.Cleanup(e.srv.Close)
	return e
}

func (e *env) getJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	resp, err := e.ts.Client().Get(e.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s error = %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("GET %s decode: %v", path, err)
	}
}

// touchRightKnee points the right index finger at the right knee of the
// standing pose.
func touchRightKnee() detector.Observation {
	pose := detector.StandingPoseLandmarks()
	right := detector.IndexOnlyLandmarks(detector.KindRight).PlaceAt(detector.IndexTip, detector.Point3D{X: 0.58, Y: 0.85})
	return detector.Observation{Right: &right, Pose: &pose}
}

func TestE2E_GestureDrivesGallery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}
	e := setup(t)

	// A plugin bound to "next" that records what it receives.
	pluginDir := filepath.Join(e.dir, "plugins", "recorder")
	os.MkdirAll(pluginDir, 0755)
	os.WriteFile(filepath.Join(pluginDir, "plugin.json"),
		[]byte(`{"name":"recorder","version":"1.0.0","executable":"run.sh","actions":["record"]}`), 0644)
	os.WriteFile(filepath.Join(pluginDir, "run.sh"),
		[]byte("#!/bin/sh\ncat >> received.jsonl\necho >> received.jsonl\necho '{\"success\":true}'\n"), 0755)
	if err := e.app.DiscoverPlugins(); err != nil {
		t.Fatalf("DiscoverPlugins() error = %v", err)
	}

	resp, err := e.ts.Client().Post(e.ts.URL+"/api/bindings", "application/json",
		strings.NewReader(`{"command": "next", "plugin_name": "recorder", "action_name": "record"}`))
	if err != nil {
		t.Fatalf("create binding error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create binding status = %d", resp.StatusCode)
	}

	wsURL := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	// Nobody in frame yet.
	if err := e.app.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	// Touch and hold the right knee across many ticks.
	e.detector.SetObservation(touchRightKnee())

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg struct {
		Type  string `json:"type"`
		Event struct {
			Command string `json:"command"`
			Source  string `json:"source"`
		} `json:"event"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Event.Command != "next" || msg.Event.Source != "sequence" {
		t.Fatalf("event = %+v", msg)
	}

	time.Sleep(500 * time.Millisecond)
	e.app.Stop()

	var gallery struct {
		Counter string `json:"counter"`
	}
	e.getJSON(t, "/api/gallery", &gallery)
	if gallery.Counter != "2 / 3" {
		t.Errorf("held touch should advance exactly once, counter = %q", gallery.Counter)
	}

	var history struct {
		Entries []struct {
			Command string `json:"command"`
		} `json:"entries"`
	}
	e.getJSON(t, "/api/history", &history)
	if len(history.Entries) != 1 || history.Entries[0].Command != "next" {
		t.Errorf("history = %+v", history.Entries)
	}

	received := filepath.Join(pluginDir, "received.jsonl")
	deadline := time.Now().Add(5 * time.Second)
	var data []byte
	for time.Now().Before(deadline) {
		if data, _ = os.ReadFile(received); len(data) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !strings.Contains(string(data), `"command":"next"`) {
		t.Errorf("plugin received %q", data)
	}

	// The position survives a restart.
	if got := e.store.Settings().GetInt(store.SettingGalleryIndex, -1); got != 1 {
		t.Errorf("stored gallery index = %d, want 1", got)
	}
}

func TestE2E_DisabledIgnoresGestures(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	e := setup(t)

	req, _ := http.NewRequest(http.MethodPut, e.ts.URL+"/api/status", strings.NewReader(`{"enabled": false}`))
	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("PUT /api/status error = %v", err)
	}
	resp.Body.Close()

	e.detector.SetObservation(touchRightKnee())
	if err := e.app.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	e.app.Stop()

	var status struct {
		Enabled bool `json:"enabled"`
		Gallery struct {
			Counter string `json:"counter"`
		} `json:"gallery"`
	}
	e.getJSON(t, "/api/status", &status)
	if status.Enabled || status.Gallery.Counter != "1 / 3" {
		t.Errorf("status = %+v", status)
	}
	if got := e.store.Settings().GetBool(store.SettingEnabled, true); got {
		t.Error("disabled state should be persisted")
	}
}
