package gesture

import (
	"fmt"
	"time"
)

// Command is one of the discrete outputs delivered to the gallery.
type Command int

const (
	CommandNone Command = iota
	CommandNext
	CommandPrevious
	CommandIncrease
	CommandDecrease
	CommandHelp
	CommandToggleFullscreen
	CommandToggleDebug
	CommandRequestExit
	CommandConfirmExit
	CommandCancelExit
)

// CommandInfo describes a command for help screens and the API.
type CommandInfo struct {
	Command     Command `json:"command"`
	Gesture     string  `json:"gesture"`
	Description string  `json:"description"`
}

var commandNames = map[Command]string{
	CommandNone:             "none",
	CommandNext:             "next",
	CommandPrevious:         "previous",
	CommandIncrease:         "increase",
	CommandDecrease:         "decrease",
	CommandHelp:             "help",
	CommandToggleFullscreen: "toggle_fullscreen",
	CommandToggleDebug:      "toggle_debug",
	CommandRequestExit:      "request_exit",
	CommandConfirmExit:      "confirm_exit",
	CommandCancelExit:       "cancel_exit",
}

var catalogue = []CommandInfo{
	{CommandNext, "Touch right knee with right index finger, or swipe right with the index finger", "Show the next image"},
	{CommandPrevious, "Touch left knee with right index finger, or swipe left with the index finger", "Show the previous image"},
	{CommandIncrease, "In zoom mode, touch the tip of the left index finger", "Zoom in"},
	{CommandDecrease, "In zoom mode, touch the tip of the left pinky finger", "Zoom out"},
	{CommandHelp, "Touch right temple twice with right index finger", "Show the gesture help"},
	{CommandToggleFullscreen, "Fist then open palm to enter, open palm then fist to leave", "Toggle fullscreen"},
	{CommandToggleDebug, "Two fingers then fist", "Toggle the debug view"},
	{CommandRequestExit, "Swipe left with fingers held together", "Ask to close the application"},
	{CommandConfirmExit, "Hold an OK sign for half a second while asked", "Close the application"},
	{CommandCancelExit, "Wait for the confirmation window to pass", "Keep the application open"},
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (c Command) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Command) UnmarshalText(text []byte) error {
	parsed, err := ParseCommand(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCommand resolves a command name as produced by String.
func ParseCommand(name string) (Command, error) {
	for cmd, n := range commandNames {
		if n == name && cmd != CommandNone {
			return cmd, nil
		}
	}
	return CommandNone, fmt.Errorf("unknown command %q", name)
}

// Commands returns the catalogue of every command with a short description
// of the gesture that produces it.
func Commands() []CommandInfo {
	out := make([]CommandInfo, len(catalogue))
	copy(out, catalogue)
	return out
}

// Event is a recognized command, delivered at most once per physical gesture.
type Event struct {
	Command Command   `json:"command"`
	At      time.Time `json:"at"`
	// Source names the engine that produced the command.
	Source string `json:"source"`
	Detail string `json:"detail,omitempty"`
}

// Event sources.
const (
	SourceSequence   = "sequence"
	SourceSwipe      = "swipe"
	SourceFullscreen = "fullscreen"
	SourceDebug      = "debug"
	SourceExit       = "exit"
)
