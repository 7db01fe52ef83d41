package web

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

var errNoPhoto = errors.New("no photo on file")

// photoTypes are the raster formats a browser canvas can produce.
var photoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// decodePhoto splits a base64 image data URL such as
// "data:image/jpeg;base64,/9j/..." into its media type and bytes.
func decodePhoto(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return "", nil, errNoPhoto
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errNoPhoto
	}
	mediaType, encoding, _ := strings.Cut(meta, ";")
	mediaType = strings.ToLower(mediaType)
	if !photoTypes[mediaType] || encoding != "base64" {
		return "", nil, errNoPhoto
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errNoPhoto
	}
	return mediaType, data, nil
}

// handleAdminPhoto serves the photo captured at sign-in.
func (s *Server) handleAdminPhoto(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	v, err := s.visitors.Get(r.Context(), id)
	if err != nil {
		s.pageError(w, r, err, "loading visitor")
		return
	}
	mediaType, data, err := decodePhoto(v.Photo)
	if err != nil {
		http.Error(w, "No photo on file", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, no-store")
	if _, err := w.Write(data); err != nil {
		slog.Warn("writing photo", "visitor_id", id, "error", err)
	}
}
