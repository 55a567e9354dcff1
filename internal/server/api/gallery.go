package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gallery"
	"github.com/ayusman/mudra/internal/gesture"
)

// Default size of /api/gallery/image when the client sends none.
const (
	DefaultImageWidth  = 1280
	DefaultImageHeight = 720
	maxImageSide       = 4096
)

// GalleryHandler exposes the gallery view. Commands sent here go through
// the same dispatch as recognized gestures.
type GalleryHandler struct {
	app *app.App
}

// NewGalleryHandler creates a GalleryHandler for a.
func NewGalleryHandler(a *app.App) *GalleryHandler {
	return &GalleryHandler{app: a}
}

type commandRequest struct {
	Command string `json:"command"`
}

type modeRequest struct {
	On *bool `json:"on"`
}

type imagesResponse struct {
	Images []string `json:"images"`
	Index  int      `json:"index"`
}

// ServeHTTP routes /api/gallery and its sub-resources.
func (h *GalleryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gallery")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, h.app.Gallery().Status())
		case http.MethodPost:
			h.command(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "fullscreen", "debug":
		if r.Method != http.MethodPut {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.mode(w, r, path)
	case "home":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.app.Gallery().Home()
		writeJSON(w, http.StatusOK, h.app.Gallery().Status())
	case "undo":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !h.app.Gallery().Undo() {
			writeError(w, http.StatusConflict, "Nothing to undo")
			return
		}
		writeJSON(w, http.StatusOK, h.app.Gallery().Status())
	case "images":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.images(w)
	case "image":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.image(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// command handles POST /api/gallery with {"command": "next"}.
func (h *GalleryHandler) command(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if !decode(w, r, &req) {
		return
	}
	cmd, err := gesture.ParseCommand(req.Command)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown command")
		return
	}
	if !h.app.Execute(cmd) {
		writeError(w, http.StatusUnprocessableEntity, "Command is gesture-only")
		return
	}
	writeJSON(w, http.StatusOK, h.app.Gallery().Status())
}

// mode handles PUT /api/gallery/fullscreen and /api/gallery/debug.
func (h *GalleryHandler) mode(w http.ResponseWriter, r *http.Request, which string) {
	var req modeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.On == nil {
		writeError(w, http.StatusBadRequest, "on is required")
		return
	}
	if which == "fullscreen" {
		h.app.SetFullscreen(*req.On)
	} else {
		h.app.SetDebug(*req.On)
	}
	writeJSON(w, http.StatusOK, h.app.Gallery().Status())
}

func (h *GalleryHandler) images(w http.ResponseWriter) {
	paths := h.app.Gallery().Images()
	resp := imagesResponse{
		Images: make([]string, 0, len(paths)),
		Index:  h.app.Gallery().Status().Index,
	}
	for _, p := range paths {
		resp.Images = append(resp.Images, filepath.Base(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// image renders the current image at its zoom as JPEG. The canvas size
// comes from the width and height query parameters.
func (h *GalleryHandler) image(w http.ResponseWriter, r *http.Request) {
	width, err := dimension(r, "width", DefaultImageWidth)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	height, err := dimension(r, "height", DefaultImageHeight)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, ok := h.app.Gallery().Current()
	if !ok {
		writeError(w, http.StatusNotFound, "No images")
		return
	}

	img, err := gallery.Render(path, h.app.Gallery().Zoom(), width, height)
	if err != nil {
		img.Close()
		writeError(w, http.StatusInternalServerError, "Failed to render image")
		return
	}
	defer img.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode image")
		return
	}
	defer buf.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.GetBytes())
}

func dimension(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxImageSide {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}
