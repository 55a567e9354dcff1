package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

type fixture struct {
	app      *App
	camera   *capture.MockCamera
	detector *detector.MockDetector
	store    *store.Store
	frame    gocv.Mat
}

func newFixture(t *testing.T, withStore bool) *fixture {
	t.Helper()
	dir := t.TempDir()

	images := filepath.Join(dir, "images")
	if err := os.Mkdir(images, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if err := os.WriteFile(filepath.Join(images, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.Gallery.Dir = images
	cfg.Plugins.Dir = filepath.Join(dir, "plugins")

	f := &fixture{
		detector: detector.NewMockDetector(),
		frame:    gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3),
	}
	t.Cleanup(func() { f.frame.Close() })
	f.camera = capture.NewMockCamera([]*gocv.Mat{&f.frame}, true)

	opts := Options{Config: &cfg, Camera: f.camera, Detector: f.detector}
	if withStore {
		s, err := store.New(filepath.Join(dir, "test.db"))
		if err != nil {
			t.Fatalf("store.New() error = %v", err)
		}
		t.Cleanup(func() { s.Close() })
		f.store = s
		opts.Store = s
	}
	f.app = New(opts)
	t.Cleanup(f.app.Shutdown)
	return f
}

// tick feeds obs through the pipeline at ms.
func (f *fixture) tick(ms int, obs detector.Observation) gesture.Result {
	f.detector.SetObservation(obs)
	frame := f.frame.Clone()
	defer frame.Close()
	return f.app.processFrame(&frame, at(ms))
}

// Knee targets for StandingPoseLandmarks.
var (
	rightKnee = detector.Point3D{X: 0.58, Y: 0.85}
	leftKnee  = detector.Point3D{X: 0.42, Y: 0.85}
)

// touch points the right index finger at p in front of the standing pose.
func touch(p detector.Point3D) detector.Observation {
	pose := detector.StandingPoseLandmarks()
	right := detector.IndexOnlyLandmarks(detector.KindRight).PlaceAt(detector.IndexTip, p)
	return detector.Observation{Right: &right, Pose: &pose}
}

func flatAt(x, y float64) detector.Observation {
	hand := detector.ClosePalmLandmarks(detector.KindRight).PlaceAt(detector.Wrist, detector.Point3D{X: x, Y: y})
	return detector.Observation{Right: &hand}
}

func TestApp_ProcessFrame_Navigates(t *testing.T) {
	f := newFixture(t, false)

	res := f.tick(0, touch(rightKnee))
	if res.Event == nil || res.Event.Command != gesture.CommandNext {
		t.Fatalf("expected next, got %+v", res.Event)
	}
	if got := f.app.Gallery().Status().Index; got != 1 {
		t.Errorf("gallery index = %d, want 1", got)
	}

	// Holding the touch does not repeat the command.
	if res := f.tick(100, touch(rightKnee)); res.Event != nil {
		t.Errorf("held touch produced %s", res.Event.Command)
	}

	f.tick(400, detector.Observation{})
	f.tick(800, touch(leftKnee))
	if got := f.app.Gallery().Status().Index; got != 0 {
		t.Errorf("gallery index = %d, want 0", got)
	}

	st := f.app.Status()
	if st.LastEvent == nil || st.LastEvent.Command != gesture.CommandPrevious {
		t.Errorf("LastEvent = %+v", st.LastEvent)
	}
	if st.Gallery.Counter != "1 / 3" {
		t.Errorf("counter = %q", st.Gallery.Counter)
	}
	if _, seq := f.app.Frames().Latest(); seq != 4 {
		t.Errorf("expected 4 encoded frames, got %d", seq)
	}
}

func TestApp_DetectorErrorStillTicks(t *testing.T) {
	f := newFixture(t, false)
	f.detector.SetError(os.ErrClosed)

	frame := f.frame.Clone()
	defer frame.Close()
	res := f.app.processFrame(&frame, at(0))
	if res.Event != nil {
		t.Errorf("unexpected event %s", res.Event.Command)
	}
	if res.Snapshot.Status != "Waiting for right hand" {
		t.Errorf("status = %q", res.Snapshot.Status)
	}
}

func TestApp_TrackerFailureReported(t *testing.T) {
	f := newFixture(t, false)
	var got []string
	f.app.AddStatusListener(StatusFunc(func(msg string) { got = append(got, msg) }))

	f.detector.SetError(os.ErrClosed)
	f.tick(0, detector.Observation{})
	f.tick(100, detector.Observation{})

	want := "Landmark tracking failed: " + os.ErrClosed.Error()
	if f.app.Status().Fault != want {
		t.Errorf("Fault = %q, want %q", f.app.Status().Fault, want)
	}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("listener got %q, want one failure report", got)
	}

	f.detector.SetError(nil)
	f.tick(200, touch(rightKnee))
	if f.app.Status().Fault != "" {
		t.Errorf("Fault = %q after recovery", f.app.Status().Fault)
	}
	if len(got) != 2 || got[1] != "" {
		t.Errorf("listener got %q, want a recovery report", got)
	}
	if f.app.Gallery().Status().Index != 1 {
		t.Error("commands should flow again after recovery")
	}
}

func TestApp_CameraFailureReported(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Gallery.Dir = t.TempDir()
	cfg.Pipeline.IdleFPS = 20
	cfg.Pipeline.ActiveFPS = 20
	det := detector.NewMockDetector()
	a := New(Options{Config: &cfg, Camera: capture.NewMockCamera(nil, false), Detector: det})
	defer a.Shutdown()

	reports := make(chan string, 8)
	a.AddStatusListener(StatusFunc(func(msg string) {
		select {
		case reports <- msg:
		default:
		}
	}))

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	select {
	case msg := <-reports:
		if msg != "Camera unavailable: "+capture.ErrNoFrames.Error() {
			t.Errorf("report = %q", msg)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("camera failure was not reported")
	}
	a.Stop()

	if a.Status().Fault == "" {
		t.Error("Status().Fault should describe the camera failure")
	}
	if det.Calls() != 0 {
		t.Errorf("detection ran %d times without frames", det.Calls())
	}
}

func TestApp_ExitConfirmClosesGallery(t *testing.T) {
	f := newFixture(t, false)
	ok := detector.OKLandmarks(detector.KindRight)
	okObs := detector.Observation{Right: &ok}

	f.tick(0, flatAt(0.6, 0.6))
	res := f.tick(300, flatAt(0.45, 0.62))
	if res.Event == nil || res.Event.Command != gesture.CommandRequestExit {
		t.Fatalf("expected request_exit, got %+v", res.Event)
	}
	st := f.app.Gallery().Status()
	if !st.ExitPending {
		t.Fatal("gallery should show the exit prompt")
	}

	f.tick(1000, okObs)
	f.tick(1300, okObs)
	res = f.tick(1500, okObs)
	if res.Event == nil || res.Event.Command != gesture.CommandConfirmExit {
		t.Fatalf("expected confirm_exit, got %+v", res.Event)
	}
	if !f.app.Gallery().Closed() {
		t.Error("gallery should be closed")
	}
}

func TestApp_HistoryAndPlugins(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}
	f := newFixture(t, true)

	pluginDir := filepath.Join(f.app.cfg.Plugins.Dir, "recorder")
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"name":"recorder","version":"1.0.0","executable":"run.sh","actions":["record"]}`
	script := "#!/bin/sh\ncat > received.json\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	if err := f.app.DiscoverPlugins(); err != nil {
		t.Fatalf("DiscoverPlugins() error = %v", err)
	}
	err := f.store.Bindings().Create(&store.Binding{
		Command: "next", PluginName: "recorder", ActionName: "record",
		Config: json.RawMessage(`{"k":"v"}`), Enabled: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.app.runner.Start(ctx)

	f.tick(0, touch(rightKnee))

	received := filepath.Join(pluginDir, "received.json")
	var data []byte
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if data, err = os.ReadFile(received); err == nil && len(data) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	var req struct {
		Action  string          `json:"action"`
		Command string          `json:"command"`
		Config  json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("plugin did not receive a request: %v (%q)", err, data)
	}
	if req.Action != "record" || req.Command != "next" || string(req.Config) != `{"k":"v"}` {
		t.Errorf("unexpected request %+v", req)
	}

	history, err := f.store.History().Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Command != "next" || history[0].Source != gesture.SourceSequence {
		t.Errorf("history = %+v", history)
	}
}

func TestApp_Execute(t *testing.T) {
	f := newFixture(t, false)

	var got []gesture.Command
	f.app.AddSink(SinkFunc(func(ev gesture.Event) {
		if ev.Source != SourceAPI {
			t.Errorf("source = %q", ev.Source)
		}
		got = append(got, ev.Command)
	}))

	tests := []struct {
		cmd  gesture.Command
		want bool
	}{
		{gesture.CommandNext, true},
		{gesture.CommandIncrease, true},
		{gesture.CommandHelp, true},
		{gesture.CommandToggleFullscreen, false},
		{gesture.CommandConfirmExit, false},
		{gesture.CommandNone, false},
	}
	for _, tt := range tests {
		if ok := f.app.Execute(tt.cmd); ok != tt.want {
			t.Errorf("Execute(%s) = %t, want %t", tt.cmd, ok, tt.want)
		}
	}
	if len(got) != 3 {
		t.Errorf("sink saw %v", got)
	}
	st := f.app.Gallery().Status()
	if st.Index != 1 || st.Zoom != 1.2 || !st.Help {
		t.Errorf("gallery status %+v", st)
	}
}

func TestApp_ModesFromOutside(t *testing.T) {
	f := newFixture(t, false)

	f.app.SetFullscreen(true)
	f.app.SetDebug(true)
	if st := f.app.Gallery().Status(); !st.Fullscreen || !st.Debug {
		t.Errorf("gallery status %+v", st)
	}

	// Leaving fullscreen by gesture starts from the externally set state.
	open := detector.OpenPalmLandmarks(detector.KindRight)
	fist := detector.FistLandmarks(detector.KindRight)
	f.tick(0, detector.Observation{Right: &open})
	res := f.tick(100, detector.Observation{Right: &fist})
	if res.Event == nil || res.Event.Command != gesture.CommandToggleFullscreen || res.Event.Detail != "off" {
		t.Fatalf("expected toggle_fullscreen off, got %+v", res.Event)
	}
	if f.app.Gallery().Status().Fullscreen {
		t.Error("gallery should have left fullscreen")
	}
}

func TestApp_EnabledPersists(t *testing.T) {
	f := newFixture(t, true)
	if !f.app.IsEnabled() {
		t.Fatal("enabled by default")
	}
	f.app.SetEnabled(false)

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Gallery.Dir = t.TempDir()
	again := New(Options{Config: &cfg, Store: f.store, Camera: capture.NewMockCamera(nil, false), Detector: detector.NewMockDetector()})
	defer again.Shutdown()
	if again.IsEnabled() {
		t.Error("disabled state should be restored from the store")
	}
}

func TestApp_StartStop(t *testing.T) {
	f := newFixture(t, false)

	if err := f.app.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := f.app.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if !f.app.Status().Running {
		t.Error("Status().Running should be true")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, _, err := f.app.Frames().Next(ctx, 0); err != nil {
		t.Fatalf("no frame processed: %v", err)
	}
	if f.detector.Calls() == 0 {
		t.Error("detector was never called")
	}

	f.app.Stop()
	if f.app.Status().Running || f.camera.IsOpen() {
		t.Error("Stop should close the camera")
	}

	f.app.Shutdown()
	f.app.Shutdown()
	if f.detector.CloseCount() != 1 {
		t.Errorf("detector closed %d times, want 1", f.detector.CloseCount())
	}
	select {
	case <-f.app.Done():
	default:
		t.Error("Done should be closed after Shutdown")
	}
}

func TestApp_ConfirmedExitEndsLoop(t *testing.T) {
	f := newFixture(t, false)
	f.app.Gallery().Apply(gesture.Event{Command: gesture.CommandConfirmExit})

	if err := f.app.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	select {
	case <-f.app.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("confirmed exit should request quit")
	}
}

func TestApp_DisabledSkipsFrames(t *testing.T) {
	f := newFixture(t, false)
	f.app.SetEnabled(false)

	if err := f.app.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(500 * time.Millisecond)
	f.app.Stop()

	if f.detector.Calls() != 0 {
		t.Errorf("disabled app ran detection %d times", f.detector.Calls())
	}
}

func TestApp_HistoryIsPerRun(t *testing.T) {
	f := newFixture(t, true)
	f.tick(0, touch(rightKnee))

	if entries, _ := f.store.History().Recent(0); len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Gallery.Dir = t.TempDir()
	again := New(Options{Config: &cfg, Store: f.store, Camera: capture.NewMockCamera(nil, false), Detector: detector.NewMockDetector()})
	defer again.Shutdown()

	if entries, _ := f.store.History().Recent(0); len(entries) != 0 {
		t.Errorf("a new run should start with an empty history, got %d entries", len(entries))
	}
}
