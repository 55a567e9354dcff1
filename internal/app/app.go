// Package app wires the camera, landmark detector and recognizer together
// and delivers recognized commands to the gallery and every other sink.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/bus"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gallery"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/overlay"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// SourceAPI marks commands issued through the HTTP API or the tray.
const SourceAPI = "api"

// Options carries the dependencies of an App. Only Config is required;
// nil fields get production defaults.
type Options struct {
	Config   *config.Config
	Logger   log.Logger
	Store    *store.Store
	Camera   capture.Camera
	Detector detector.Detector
	Bus      *bus.Publisher
}

// Status is the application state reported by the API.
type Status struct {
	Enabled     bool             `json:"enabled"`
	Running     bool             `json:"running"`
	Active      bool             `json:"active"`
	FPS         int              `json:"fps"`
	Recognizer  gesture.Snapshot `json:"recognizer"`
	Diagnostics []string         `json:"diagnostics,omitempty"`
	Gallery     gallery.Status   `json:"gallery"`
	LastEvent   *gesture.Event   `json:"last_event,omitempty"`
	// Fault describes a camera or tracker failure; empty while frames and
	// landmarks flow.
	Fault string `json:"fault,omitempty"`
}

// App is the gesture-controlled gallery.
type App struct {
	cfg    config.Config
	logger log.Logger
	store  *store.Store

	camera   capture.Camera
	motion   *capture.MotionDetector
	activity *capture.Activity
	detector detector.Detector

	recMu      sync.Mutex
	recognizer *gesture.Recognizer

	gallery *gallery.View
	frames  *overlay.Buffer
	bus     *bus.Publisher
	plugins *plugin.Manager
	runner  *plugin.Runner

	sinksMu   sync.RWMutex
	sinks     []Sink
	listeners []StatusListener

	mu          sync.RWMutex
	enabled     bool
	active      bool
	cancel      context.CancelFunc
	loopDone    chan struct{}
	snapshot    gesture.Snapshot
	diagnostics []string
	lastEvent   *gesture.Event
	fault       string

	quit         chan struct{}
	quitOnce     sync.Once
	shutdownOnce sync.Once
	now          func() time.Time
}

// New builds an App. It does not open the camera; call Start for that.
func New(opts Options) *App {
	cfg := *opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	a := &App{
		cfg:        cfg,
		logger:     logger.WithField("component", "app"),
		store:      opts.Store,
		camera:     opts.Camera,
		motion:     capture.NewMotionDetector(cfg.Pipeline.MotionThreshold),
		activity:   capture.NewActivity(cfg.Pipeline.IdleFPS, cfg.Pipeline.ActiveFPS, cfg.Pipeline.IdleAfter),
		detector:   opts.Detector,
		recognizer: gesture.NewRecognizer(cfg.Gesture),
		gallery:    gallery.New(cfg.Gallery),
		frames:     overlay.NewBuffer(),
		bus:        opts.Bus,
		plugins:    plugin.NewManager(cfg.Plugins.Dir),
		enabled:    cfg.Pipeline.StartEnabled,
		quit:       make(chan struct{}),
		now:        time.Now,
	}
	a.runner = plugin.NewRunner(a.plugins, cfg.Plugins, logger)

	if a.camera == nil {
		a.camera = capture.NewCamera(cfg.Camera)
	}
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(cfg.Detector); err == nil {
			a.detector = mp
			a.logger.Infof("using MediaPipe landmark tracking")
		} else {
			a.logger.Warnf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}
	if a.bus == nil {
		a.bus, _ = bus.New(bus.Config{}, logger)
	}

	if err := a.gallery.Scan(); err != nil {
		a.logger.Warnf("gallery: %v", err)
	}
	if a.store != nil {
		a.gallery.Persist(a.store.Settings())
		a.enabled = a.store.Settings().GetBool(store.SettingEnabled, a.enabled)
		// Command history covers the current run only.
		if err := a.store.History().Clear(); err != nil {
			a.logger.Warnf("clear command history: %v", err)
		}
	}

	a.AddSink(gallerySink{view: a.gallery, logger: a.logger})
	a.AddSink(busSink{pub: a.bus, logger: a.logger})
	if a.store != nil {
		a.AddSink(historySink{repo: a.store.History(), logger: a.logger})
		a.AddSink(pluginSink{bindings: a.store.Bindings(), runner: a.runner, logger: a.logger})
	}
	return a
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.plugins.Discover()
}

// AddSink registers s to receive every recognized command.
func (a *App) AddSink(s Sink) {
	a.sinksMu.Lock()
	defer a.sinksMu.Unlock()
	a.sinks = append(a.sinks, s)
}

// AddStatusListener registers l to hear about camera and tracker failures
// and their recovery.
func (a *App) AddStatusListener(l StatusListener) {
	a.sinksMu.Lock()
	defer a.sinksMu.Unlock()
	a.listeners = append(a.listeners, l)
}

// SetEnabled enables or disables recognition. The choice is remembered
// across runs when a store is configured.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if a.store != nil {
		if err := a.store.Settings().SetBool(store.SettingEnabled, enabled); err != nil {
			a.logger.Warnf("save enabled state: %v", err)
		}
	}
	a.logger.Infof("recognition enabled=%t", enabled)
}

// IsEnabled returns whether recognition is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetFullscreen changes the fullscreen mode from outside the gesture
// stream and keeps the recognizer's toggle in step.
func (a *App) SetFullscreen(on bool) {
	a.recMu.Lock()
	a.recognizer.SetFullscreen(on)
	a.recMu.Unlock()
	a.gallery.SetFullscreen(on)
}

// SetDebug changes the debug mode from outside the gesture stream.
func (a *App) SetDebug(on bool) {
	a.recMu.Lock()
	a.recognizer.SetDebug(on)
	a.recMu.Unlock()
	a.gallery.SetDebug(on)
}

// Execute delivers cmd as if it had been recognized. Toggles and the exit
// workflow are gesture-only; use SetFullscreen and SetDebug for the modes.
func (a *App) Execute(cmd gesture.Command) bool {
	switch cmd {
	case gesture.CommandNext, gesture.CommandPrevious, gesture.CommandIncrease,
		gesture.CommandDecrease, gesture.CommandHelp:
	default:
		return false
	}
	a.dispatch(gesture.Event{Command: cmd, At: a.now(), Source: SourceAPI})
	return true
}

// Status returns the current application state.
func (a *App) Status() Status {
	a.mu.RLock()
	st := Status{
		Enabled:     a.enabled,
		Running:     a.cancel != nil,
		Active:      a.active,
		Recognizer:  a.snapshot,
		Diagnostics: append([]string(nil), a.diagnostics...),
		LastEvent:   a.lastEvent,
		Fault:       a.fault,
	}
	a.mu.RUnlock()

	st.FPS = a.camera.FPS()
	st.Gallery = a.gallery.Status()
	return st
}

// Gallery returns the gallery view.
func (a *App) Gallery() *gallery.View { return a.gallery }

// Frames returns the buffer holding the latest annotated frame.
func (a *App) Frames() *overlay.Buffer { return a.frames }

// Table returns the recognizer's command table.
func (a *App) Table() *gesture.Table { return a.recognizer.Table() }

// Store returns the store, which may be nil.
func (a *App) Store() *store.Store { return a.store }

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager { return a.plugins }

// Done is closed once an exit was confirmed or RequestQuit was called.
func (a *App) Done() <-chan struct{} { return a.quit }

// RequestQuit asks the owner of the App to shut it down.
func (a *App) RequestQuit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// Start opens the camera and launches the pipeline.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}
	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.activity.FPS())

	a.runner.Start(ctx)

	ctx, a.cancel = context.WithCancel(ctx)
	a.loopDone = make(chan struct{})
	go a.runPipeline(ctx, a.loopDone)

	a.logger.Infof("detection pipeline started at %d fps", a.activity.FPS())
	return nil
}

// Stop halts the pipeline and closes the camera. It can be restarted.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.loopDone
	a.cancel, a.loopDone = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	if err := a.camera.Close(); err != nil {
		a.logger.Warnf("closing camera: %v", err)
	}
	a.motion.Reset()
	a.logger.Infof("detection pipeline stopped")
}

// Shutdown stops everything and releases all resources. It runs once;
// later calls return immediately.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		a.RequestQuit()
		a.Stop()
		a.runner.Stop()

		a.motion.Close()
		if err := a.detector.Close(); err != nil {
			a.logger.Warnf("closing detector: %v", err)
		}
		if err := a.bus.Close(); err != nil {
			a.logger.Warnf("closing bus: %v", err)
		}
		a.logger.Infof("shut down")
	})
}
