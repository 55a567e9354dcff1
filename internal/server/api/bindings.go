package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// BindingHandler handles HTTP requests for command-to-plugin bindings.
type BindingHandler struct {
	store   *store.Store
	plugins *plugin.Manager
}

// NewBindingHandler creates a BindingHandler. When plugins is non-nil,
// new bindings must name a discovered plugin and one of its actions.
func NewBindingHandler(s *store.Store, plugins *plugin.Manager) *BindingHandler {
	return &BindingHandler{store: s, plugins: plugins}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *BindingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/bindings or /api/bindings/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/bindings")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createBindingRequest struct {
	Command    string          `json:"command"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
}

type updateBindingRequest struct {
	Command    string          `json:"command"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type bindingResponse struct {
	ID         string          `json:"id"`
	Command    string          `json:"command"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

func toBindingResponse(b *store.Binding) bindingResponse {
	config := b.Config
	if config == nil {
		config = json.RawMessage("{}")
	}
	return bindingResponse{
		ID:         b.ID,
		Command:    b.Command,
		PluginName: b.PluginName,
		ActionName: b.ActionName,
		Config:     config,
		Enabled:    b.Enabled,
		CreatedAt:  b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// list handles GET /api/bindings.
func (h *BindingHandler) list(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.store.Bindings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}

	response := listBindingsResponse{
		Bindings: make([]bindingResponse, 0, len(bindings)),
	}
	for _, b := range bindings {
		response.Bindings = append(response.Bindings, toBindingResponse(b))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/bindings/{id}.
func (h *BindingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	binding, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	writeJSON(w, http.StatusOK, toBindingResponse(binding))
}

// create handles POST /api/bindings.
func (h *BindingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBindingRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Command == "" {
		writeError(w, http.StatusBadRequest, "command is required")
		return
	}
	if req.PluginName == "" {
		writeError(w, http.StatusBadRequest, "plugin_name is required")
		return
	}
	if req.ActionName == "" {
		writeError(w, http.StatusBadRequest, "action_name is required")
		return
	}
	if _, err := gesture.ParseCommand(req.Command); err != nil {
		writeError(w, http.StatusBadRequest, "Unknown command")
		return
	}
	if msg := h.checkPlugin(req.PluginName, req.ActionName, req.Command); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	config := req.Config
	if config == nil {
		config = json.RawMessage("{}")
	}

	binding := &store.Binding{
		ID:         uuid.New().String(),
		Command:    req.Command,
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     config,
		Enabled:    true,
	}

	if err := h.store.Bindings().Create(binding); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create binding")
		return
	}

	writeJSON(w, http.StatusCreated, toBindingResponse(binding))
}

// update handles PUT /api/bindings/{id}.
func (h *BindingHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	binding, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	var req updateBindingRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Command != "" {
		if _, err := gesture.ParseCommand(req.Command); err != nil {
			writeError(w, http.StatusBadRequest, "Unknown command")
			return
		}
		binding.Command = req.Command
	}
	if req.PluginName != "" {
		binding.PluginName = req.PluginName
	}
	if req.ActionName != "" {
		binding.ActionName = req.ActionName
	}
	if req.Command != "" || req.PluginName != "" || req.ActionName != "" {
		if msg := h.checkPlugin(binding.PluginName, binding.ActionName, binding.Command); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
	}
	if req.Config != nil {
		binding.Config = req.Config
	}
	if req.Enabled != nil {
		binding.Enabled = *req.Enabled
	}

	if err := h.store.Bindings().Update(binding); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update binding")
		return
	}

	writeJSON(w, http.StatusOK, toBindingResponse(binding))
}

// delete handles DELETE /api/bindings/{id}.
func (h *BindingHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Bindings().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// checkPlugin returns an error message when no discovered plugin named
// name serves action for command.
func (h *BindingHandler) checkPlugin(name, action, command string) string {
	if h.plugins == nil {
		return ""
	}
	p, err := h.plugins.Get(name)
	if err != nil {
		return "Plugin not found"
	}
	if !p.Supports(action) {
		return "Plugin does not support action"
	}
	if !p.Handles(command) {
		return "Plugin does not handle command"
	}
	return ""
}
