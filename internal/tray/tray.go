// Package tray provides the system tray menu for Mudra.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle     func(enabled bool)
	onFullscreen func(on bool)
	onSettings   func()
	onQuit       func()
	enabled      bool
	fullscreen   bool
	lastCommand  string
	fault        string
	mu           sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuFullscreen  *systray.MenuItem
	menuLastCommand *systray.MenuItem
}

// New creates a Tray showing the given enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
	}
}

// OnFullscreen sets the callback called when fullscreen is switched from
// the menu.
func (t *Tray) OnFullscreen(fn func(on bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFullscreen = fn
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	t.mu.Lock()
	systray.SetTooltip(tooltip(t.fault))
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture recognition")
	t.menuFullscreen = systray.AddMenuItemCheckbox("Fullscreen", "Show the gallery fullscreen", t.fullscreen)
	systray.AddSeparator()

	t.menuLastCommand = systray.AddMenuItem(lastTitle(t.lastCommand), "Last recognized command")
	t.menuLastCommand.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Gallery...", "Open the gallery in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuFullscreen.ClickedCh:
				t.handleFullscreen()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
// It performs cleanup tasks.
func (t *Tray) onExit() {
	// Cleanup resources if needed
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	t.menuToggle.SetTitle(toggleTitle(enabled))

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleFullscreen flips the fullscreen checkbox.
func (t *Tray) handleFullscreen() {
	t.mu.Lock()
	on := !t.fullscreen
	t.setFullscreen(on)
	callback := t.onFullscreen
	t.mu.Unlock()

	if callback != nil {
		callback(on)
	}
}

func (t *Tray) setFullscreen(on bool) {
	t.fullscreen = on
	if t.menuFullscreen == nil {
		return
	}
	if on {
		t.menuFullscreen.Check()
	} else {
		t.menuFullscreen.Uncheck()
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Deliver shows ev as the last command and keeps the fullscreen checkbox
// in step with gesture toggles. It makes Tray an app sink.
func (t *Tray) Deliver(ev gesture.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastCommand = ev.Command.String()
	if t.menuLastCommand != nil {
		t.menuLastCommand.SetTitle(lastTitle(t.lastCommand))
	}
	if ev.Command == gesture.CommandToggleFullscreen {
		t.setFullscreen(ev.Detail == "on")
	}
}

// StatusChanged shows camera or tracker failures in the tooltip. An empty
// msg restores the normal tooltip.
func (t *Tray) StatusChanged(msg string) {
	t.mu.Lock()
	t.fault = msg
	ready := t.menuToggle != nil
	t.mu.Unlock()

	if ready {
		systray.SetTooltip(tooltip(msg))
	}
}

// Fault returns the last reported failure, or "" when healthy.
func (t *Tray) Fault() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fault
}

// LastCommand returns the name of the last delivered command.
func (t *Tray) LastCommand() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastCommand
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// IsFullscreen returns the fullscreen checkbox state.
func (t *Tray) IsFullscreen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fullscreen
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func tooltip(fault string) string {
	if fault == "" {
		return "Mudra gesture gallery"
	}
	return "Mudra: " + fault
}

func lastTitle(command string) string {
	if command == "" {
		return "Last: none"
	}
	return "Last: " + command
}
