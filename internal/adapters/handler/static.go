package handler

import (
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// fallbackContentType is sent for extensions without a known MIME type
const fallbackContentType = "application/octet-stream"

// StaticHandler serves files below a root directory
type StaticHandler struct {
	root     string
	realRoot string // root with symlinks resolved, used for containment checks
	dirs     http.Handler
}

// NewStaticHandler creates a file server rooted at root
func NewStaticHandler(root string) *StaticHandler {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		realRoot = root
	}
	if abs, err := filepath.Abs(realRoot); err == nil {
		realRoot = abs
	}

	return &StaticHandler{
		root:     root,
		realRoot: realRoot,
		dirs:     http.FileServer(http.Dir(root)),
	}
}

// ServeHTTP maps the request path under the root.
// Regular files are served directly, directories (index.html or listing)
// and missing paths go through http.FileServer.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Refused before touching the filesystem
	if containsDotDot(r.URL.Path) {
		h.forbid(w, r, "dot-dot segment")
		return
	}

	name := filepath.Join(h.root, filepath.FromSlash(path.Clean("/"+r.URL.Path)))

	resolved, err := filepath.EvalSymlinks(name)
	if err != nil {
		// Missing or unreadable: FileServer produces the matching 404/403
		h.dirs.ServeHTTP(w, r)
		return
	}
	if !h.contains(resolved) {
		h.forbid(w, r, "symlink leaves static root")
		return
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		h.dirs.ServeHTTP(w, r)
		return
	}

	h.serveFile(w, r, resolved, info)
}

// serveFile answers with the file's bytes under its own name.
// http.FileServer would redirect ".../index.html" to the directory instead.
func (h *StaticHandler) serveFile(w http.ResponseWriter, r *http.Request, name string, info os.FileInfo) {
	f, err := os.Open(name)
	if err != nil {
		h.dirs.ServeHTTP(w, r)
		return
	}
	defer f.Close()

	// Set up front so ServeContent does not sniff the body
	w.Header().Set("Content-Type", contentTypeFor(name))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (h *StaticHandler) contains(resolved string) bool {
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(h.realRoot, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (h *StaticHandler) forbid(w http.ResponseWriter, r *http.Request, reason string) {
	slog.Warn("Rejected path outside static root",
		"path", r.URL.Path,
		"reason", reason,
		"remote", r.RemoteAddr,
	)
	http.Error(w, "403 forbidden", http.StatusForbidden)
}

// contentTypeFor resolves the type from the extension only
func contentTypeFor(name string) string {
	if ctype := mime.TypeByExtension(filepath.Ext(name)); ctype != "" {
		return ctype
	}
	return fallbackContentType
}

func containsDotDot(v string) bool {
	if !strings.Contains(v, "..") {
		return false
	}
	for _, segment := range strings.FieldsFunc(v, isSlashRune) {
		if segment == ".." {
			return true
		}
	}
	return false
}

func isSlashRune(r rune) bool { return r == '/' || r == '\\' }
