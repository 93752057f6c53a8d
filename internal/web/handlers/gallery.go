package handlers

import (
	"net/http"

	"github.com/kozaktomas/facegate/internal/gallery"
)

// GalleryHandler lists enrolled identities.
type GalleryHandler struct {
	gallery *gallery.Gallery
}

// NewGalleryHandler creates a new gallery handler
func NewGalleryHandler(g *gallery.Gallery) *GalleryHandler {
	return &GalleryHandler{gallery: g}
}

// GalleryResponse lists labels in matching order.
type GalleryResponse struct {
	Dir    string   `json:"dir,omitempty"`
	Count  int      `json:"count"`
	Labels []string `json:"labels"`
}

// List returns the enrolled labels.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	var dir string
	if h.gallery != nil {
		dir = h.gallery.Dir()
	}
	respondJSON(w, http.StatusOK, GalleryResponse{
		Dir:    dir,
		Count:  h.gallery.Len(),
		Labels: h.gallery.Labels(),
	})
}
