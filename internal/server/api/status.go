package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// StatusHandler serves GET /api/status and PUT /api/status to switch
// recognition on or off.
type StatusHandler struct {
	app *app.App
}

// NewStatusHandler creates a StatusHandler for a.
func NewStatusHandler(a *app.App) *StatusHandler {
	return &StatusHandler{app: a}
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.app.Status())
	case http.MethodPut:
		var req enabledRequest
		if !decode(w, r, &req) {
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		h.app.SetEnabled(*req.Enabled)
		writeJSON(w, http.StatusOK, h.app.Status())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type commandsResponse struct {
	Commands []gesture.CommandInfo `json:"commands"`
	Rules    []string              `json:"rules"`
}

// CommandsHandler lists the command catalogue and the sequence table.
type CommandsHandler struct {
	table *gesture.Table
}

// NewCommandsHandler creates a CommandsHandler describing table.
func NewCommandsHandler(table *gesture.Table) *CommandsHandler {
	return &CommandsHandler{table: table}
}

func (h *CommandsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rules := h.table.Rules()
	resp := commandsResponse{
		Commands: gesture.Commands(),
		Rules:    make([]string, 0, len(rules)),
	}
	for _, rule := range rules {
		resp.Rules = append(resp.Rules, rule.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

type historyResponse struct {
	Entries []*store.HistoryEntry `json:"entries"`
}

// HistoryHandler serves the delivered-command history.
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a HistoryHandler reading from s.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}
		entries, err := h.store.History().Recent(limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read history")
			return
		}
		writeJSON(w, http.StatusOK, historyResponse{Entries: entries})
	case http.MethodDelete:
		if err := h.store.History().Clear(); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to clear history")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Actions     []string `json:"actions"`
	Commands    []string `json:"commands,omitempty"`
}

type listPluginsResponse struct {
	Plugins []pluginResponse `json:"plugins"`
	// Problems lists plugins skipped by the last rescan.
	Problems []string `json:"problems,omitempty"`
}

// PluginsHandler lists discovered plugins. POST rescans the plugin
// directory.
type PluginsHandler struct {
	manager *plugin.Manager
}

// NewPluginsHandler creates a PluginsHandler for m.
func NewPluginsHandler(m *plugin.Manager) *PluginsHandler {
	return &PluginsHandler{manager: m}
}

func (h *PluginsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var problems []string
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := h.manager.Discover(); err != nil {
			if !errors.Is(err, plugin.ErrInvalidManifest) {
				writeError(w, http.StatusInternalServerError, "Failed to discover plugins")
				return
			}
			problems = splitErrors(err)
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plugins := h.manager.List()
	resp := listPluginsResponse{Plugins: make([]pluginResponse, 0, len(plugins)), Problems: problems}
	for _, p := range plugins {
		actions := p.Manifest.Actions
		if actions == nil {
			actions = []string{}
		}
		resp.Plugins = append(resp.Plugins, pluginResponse{
			Name:        p.Manifest.Name,
			Version:     p.Manifest.Version,
			Description: p.Manifest.Description,
			Actions:     actions,
			Commands:    p.Manifest.Commands,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// splitErrors returns the messages of a joined error, one per cause.
func splitErrors(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
