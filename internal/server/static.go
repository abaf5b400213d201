package server

import (
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// StaticHandler serves the browser client from a directory. "/" maps to
// index.html and anything that cannot be read is a 404.
type StaticHandler struct {
	root string
	log  *slog.Logger
}

// NewStaticHandler serves files below root.
func NewStaticHandler(root string, log *slog.Logger) *StaticHandler {
	return &StaticHandler{root: root, log: log}
}

func (s *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Path
	if name == "" || name == "/" {
		name = "/index.html"
	}

	// Clean against "/" first so ".." can never climb above root.
	file := filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+name)))

	data, err := os.ReadFile(file)
	if err != nil {
		s.log.Debug("Static file not served", "path", r.URL.Path, "error", err)
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType(file, data))
	if _, err := w.Write(data); err != nil {
		s.log.Debug("Error writing static file", "path", r.URL.Path, "error", err)
	}
}

// contentType prefers the extension and falls back to sniffing the bytes.
func contentType(file string, data []byte) string {
	if ctype := mime.TypeByExtension(filepath.Ext(file)); ctype != "" {
		return ctype
	}
	return mimetype.Detect(data).String()
}
