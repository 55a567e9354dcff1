// Package gallery is the image viewer driven by recognized commands. It
// keeps the image list, the current position and zoom, an undo history and
// the view flags that gestures toggle.
package gallery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// ErrNoImages is returned when the gallery directory holds no images.
var ErrNoImages = errors.New("no images found")

// Config controls the gallery.
type Config struct {
	Dir         string   `yaml:"dir" json:"dir"`
	ZoomStep    float64  `yaml:"zoom_step" json:"zoom_step"`
	MinZoom     float64  `yaml:"min_zoom" json:"min_zoom"`
	MaxZoom     float64  `yaml:"max_zoom" json:"max_zoom"`
	HistorySize int      `yaml:"history_size" json:"history_size"`
	Extensions  []string `yaml:"extensions" json:"extensions"`
}

// DefaultConfig returns a gallery reading ./images with 1.2x zoom steps.
func DefaultConfig() Config {
	return Config{
		Dir:         "images",
		ZoomStep:    1.2,
		MinZoom:     0.1,
		MaxZoom:     10,
		HistorySize: 20,
		Extensions:  []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"},
	}
}

// IndexStore persists the current position across runs.
type IndexStore interface {
	GetInt(key string, def int) int
	SetInt(key string, n int) error
}

const indexKey = "gallery.index"

// state is one undo step.
type state struct {
	index int
	zoom  float64
}

// Status is the read-only view state for rendering and the API.
type Status struct {
	Count      int     `json:"count"`
	Index      int     `json:"index"`
	Current    string  `json:"current,omitempty"`
	Counter    string  `json:"counter"`
	Zoom       float64 `json:"zoom"`
	Help       bool    `json:"help"`
	Fullscreen bool    `json:"fullscreen"`
	Debug      bool    `json:"debug"`
	// ExitPending is set between an exit request and its outcome.
	ExitPending bool `json:"exit_pending"`
	// ExitRemaining is the confirmation time left, in whole seconds.
	ExitRemaining int  `json:"exit_remaining,omitempty"`
	Closed        bool `json:"closed"`
	CanUndo       bool `json:"can_undo"`
}

// View is the gallery state. It is safe for concurrent use; the pipeline
// applies commands while HTTP handlers read the status.
type View struct {
	mu  sync.RWMutex
	cfg Config

	images  []string
	index   int
	zoom    float64
	history []state

	help         bool
	fullscreen   bool
	debug        bool
	exitPending  bool
	exitDeadline time.Time
	closed       bool

	store   IndexStore
	saveErr error
	now     func() time.Time
}

// New creates an empty view. Call Scan or SetImages to fill it.
func New(cfg Config) *View {
	def := DefaultConfig()
	if cfg.ZoomStep <= 1 {
		cfg.ZoomStep = def.ZoomStep
	}
	if cfg.MinZoom <= 0 {
		cfg.MinZoom = def.MinZoom
	}
	if cfg.MaxZoom < cfg.MinZoom {
		cfg.MaxZoom = def.MaxZoom
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = def.HistorySize
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = def.Extensions
	}
	return &View{cfg: cfg, zoom: 1, now: time.Now}
}

// Scan loads the images in the configured directory, sorted by name.
// Extensions match case-insensitively.
func (v *View) Scan() error {
	images, err := ListImages(v.cfg.Dir, v.cfg.Extensions)
	if err != nil {
		return err
	}
	v.SetImages(images)
	if len(images) == 0 {
		return fmt.Errorf("%w in %s", ErrNoImages, v.cfg.Dir)
	}
	return nil
}

// ListImages returns the sorted image paths in dir.
func ListImages(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read gallery directory: %w", err)
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if allowed[strings.ToLower(filepath.Ext(e.Name()))] {
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(images)
	return images, nil
}

// SetImages replaces the image list and resets the position, zoom and
// history.
func (v *View) SetImages(images []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.images = append([]string(nil), images...)
	v.index = 0
	v.zoom = 1
	v.history = nil
}

// Persist stores the position in s from now on and restores the position
// saved there by a previous run.
func (v *View) Persist(s IndexStore) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.store = s
	if s == nil {
		return
	}
	if i := s.GetInt(indexKey, 0); i >= 0 && i < len(v.images) {
		v.index = i
	}
}

// Images returns the image list.
func (v *View) Images() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.images...)
}

// Current returns the path of the image on screen.
func (v *View) Current() (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if len(v.images) == 0 {
		return "", false
	}
	return v.images[v.index], true
}

// Zoom returns the current zoom factor.
func (v *View) Zoom() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.zoom
}

// Next moves forward, wrapping to the first image, and resets the zoom.
func (v *View) Next() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.step(1)
}

// Previous moves back, wrapping to the last image, and resets the zoom.
func (v *View) Previous() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.step(-1)
}

func (v *View) step(delta int) {
	n := len(v.images)
	if n == 0 {
		return
	}
	v.record()
	v.index = ((v.index+delta)%n + n) % n
	v.zoom = 1
	v.save()
}

// Increase zooms in by one step.
func (v *View) Increase() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.setZoom(v.zoom * v.cfg.ZoomStep)
}

// Decrease zooms out by one step.
func (v *View) Decrease() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.setZoom(v.zoom / v.cfg.ZoomStep)
}

func (v *View) setZoom(z float64) {
	if z < v.cfg.MinZoom {
		z = v.cfg.MinZoom
	}
	if z > v.cfg.MaxZoom {
		z = v.cfg.MaxZoom
	}
	if z == v.zoom {
		return
	}
	v.record()
	v.zoom = z
}

// Home returns to the first image at 1x.
func (v *View) Home() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.images) == 0 {
		return
	}
	v.record()
	v.index = 0
	v.zoom = 1
	v.save()
}

// Undo restores the state before the last navigation or zoom. It returns
// false when there is nothing to undo.
func (v *View) Undo() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.history) == 0 {
		return false
	}
	last := v.history[len(v.history)-1]
	v.history = v.history[:len(v.history)-1]
	if last.index < len(v.images) {
		v.index = last.index
	}
	v.zoom = last.zoom
	v.save()
	return true
}

func (v *View) record() {
	v.history = append(v.history, state{index: v.index, zoom: v.zoom})
	if over := len(v.history) - v.cfg.HistorySize; over > 0 {
		v.history = v.history[over:]
	}
}

func (v *View) save() {
	if v.store == nil {
		return
	}
	if err := v.store.SetInt(indexKey, v.index); err != nil {
		v.saveErr = fmt.Errorf("save position %d: %w", v.index, err)
	}
}

// SaveErr returns and clears the last error from persisting the position.
func (v *View) SaveErr() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	err := v.saveErr
	v.saveErr = nil
	return err
}

// ToggleHelp shows or hides the gesture help.
func (v *View) ToggleHelp() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.help = !v.help
}

// SetFullscreen sets the fullscreen flag.
func (v *View) SetFullscreen(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fullscreen = on
}

// SetDebug sets the debug flag.
func (v *View) SetDebug(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.debug = on
}

// SetExitDeadline records when a pending exit request expires.
func (v *View) SetExitDeadline(t time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.exitDeadline = t
}

// Closed reports whether an exit was confirmed.
func (v *View) Closed() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.closed
}

// Apply performs the effect of a recognized command.
func (v *View) Apply(ev gesture.Event) {
	switch ev.Command {
	case gesture.CommandNext:
		v.Next()
	case gesture.CommandPrevious:
		v.Previous()
	case gesture.CommandIncrease:
		v.Increase()
	case gesture.CommandDecrease:
		v.Decrease()
	case gesture.CommandHelp:
		v.ToggleHelp()
	case gesture.CommandToggleFullscreen:
		v.SetFullscreen(ev.Detail == "on")
	case gesture.CommandToggleDebug:
		v.SetDebug(ev.Detail == "on")
	case gesture.CommandRequestExit:
		v.mu.Lock()
		v.exitPending = true
		v.mu.Unlock()
	case gesture.CommandCancelExit:
		v.mu.Lock()
		v.exitPending = false
		v.exitDeadline = time.Time{}
		v.mu.Unlock()
	case gesture.CommandConfirmExit:
		v.mu.Lock()
		v.exitPending = false
		v.closed = true
		v.mu.Unlock()
	}
}

// Status returns the current view state.
func (v *View) Status() Status {
	v.mu.RLock()
	defer v.mu.RUnlock()

	st := Status{
		Count:       len(v.images),
		Index:       v.index,
		Zoom:        v.zoom,
		Help:        v.help,
		Fullscreen:  v.fullscreen,
		Debug:       v.debug,
		ExitPending: v.exitPending,
		Closed:      v.closed,
		CanUndo:     len(v.history) > 0,
		Counter:     Counter(v.index, len(v.images)),
	}
	if len(v.images) > 0 {
		st.Current = v.images[v.index]
	}
	if v.exitPending && !v.exitDeadline.IsZero() {
		st.ExitRemaining = remainingSeconds(v.exitDeadline.Sub(v.now()))
	}
	return st
}

// Counter formats a 1-based position such as "3 / 12".
func Counter(index, count int) string {
	if count == 0 {
		return "0 / 0"
	}
	return fmt.Sprintf("%d / %d", index+1, count)
}

func remainingSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
