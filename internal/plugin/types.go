// Package plugin discovers external action plugins and runs them when a
// bound command is recognized.
package plugin

import (
	"encoding/json"
	"time"
)

// Manifest describes a plugin's metadata and capabilities. Commands lists
// the gesture commands the plugin accepts; empty accepts every command.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	Commands     []string        `json:"commands,omitempty"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request is written to the plugin's stdin as one JSON document.
type Request struct {
	Action string `json:"action"`
	// Command is the recognized command that triggered the action.
	Command string          `json:"command"`
	Source  string          `json:"source,omitempty"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the response from a plugin execution.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Supports reports whether the manifest lists action. A manifest without
// actions accepts any.
func (p *Plugin) Supports(action string) bool {
	if len(p.Manifest.Actions) == 0 {
		return true
	}
	for _, a := range p.Manifest.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Handles reports whether the plugin accepts command.
func (p *Plugin) Handles(command string) bool {
	if len(p.Manifest.Commands) == 0 {
		return true
	}
	for _, c := range p.Manifest.Commands {
		if c == command {
			return true
		}
	}
	return false
}

// Config controls discovery and asynchronous execution.
type Config struct {
	// Dir holds one subdirectory per plugin, each with a plugin.json.
	Dir string `yaml:"dir" json:"dir"`
	// Workers is the number of plugin processes allowed to run at once.
	Workers int `yaml:"workers" json:"workers"`
	// QueueSize bounds pending jobs; submissions beyond it are dropped.
	QueueSize int           `yaml:"queue_size" json:"queue_size"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns two workers, a queue of 16 and a 5s timeout.
func DefaultConfig() Config {
	return Config{
		Workers:   2,
		QueueSize: 16,
		Timeout:   5 * time.Second,
	}
}
