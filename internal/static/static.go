package static

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/indigo-web/twotter/http"
	"github.com/indigo-web/twotter/http/mime"
	"github.com/indigo-web/twotter/http/status"
)

// Server serves files out of a single root. The served response streams the file, so it
// carries no Content-Length.
type Server struct {
	fsys fs.FS
}

// New returns a server rooted in the directory.
func New(root string) *Server {
	return NewFS(os.DirFS(root))
}

// NewFS returns a server rooted in the filesystem.
func NewFS(fsys fs.FS) *Server {
	return &Server{fsys: fsys}
}

// Serve opens the file named by the path and returns a response streaming it. Paths
// containing a parent-directory token are rejected before the filesystem is consulted.
// Any failure to open the file is reported as status.ErrNotFound.
func (s *Server) Serve(path string) (*http.Response, error) {
	if strings.Contains(path, "..") {
		return nil, status.ErrNotFound
	}

	name := strings.TrimPrefix(path, "/")
	file, err := s.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", status.ErrNotFound, err)
	}

	if info, err := file.Stat(); err != nil || info.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("%w: %s is not a regular file", status.ErrNotFound, name)
	}

	return http.NewResponse().
		ContentType(mime.Guess(path)).
		Stream(file), nil
}
