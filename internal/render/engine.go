package render

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/indigo-web/twotter/http/status"
)

// Placeholders recognized in page templates.
const (
	MarkerViewer          = "%user%"
	MarkerSubject         = "%username%"
	MarkerUserInformation = "%userInformation%"
	MarkerPosts           = "%posts%"
	MarkerButton          = "%button%"
)

// Page is what gets substituted into a page template.
type Page struct {
	// Viewer is the account looking at the page. Replaces every occurrence.
	Viewer string
	// Subject is the account the page is about. Replaces every occurrence.
	Subject string
	// UserInformation, Posts and Button are fragments, each substituted into the
	// first occurrence of its marker only.
	UserInformation string
	Posts           string
	Button          string
}

// Engine reads templates from a directory on every call, so edits on disk are picked up
// without a restart.
type Engine struct {
	root string
}

func New(root string) *Engine {
	return &Engine{root: root}
}

// Load returns the whole content of the named template. A missing file results in an
// error wrapping status.ErrNotFound.
func (e *Engine) Load(name string) (string, error) {
	content, err := os.ReadFile(filepath.Join(e.root, filepath.FromSlash(name)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("template %s: %w", name, status.ErrNotFound)
		}

		return "", fmt.Errorf("template %s: %w", name, err)
	}

	return string(content), nil
}

// Render loads the named template and substitutes the page into it.
func (e *Engine) Render(name string, page Page) (string, error) {
	tmpl, err := e.Load(name)
	if err != nil {
		return "", err
	}

	return Substitute(tmpl, page), nil
}

// Substitute applies the page to an already loaded template. Page-wide markers go first,
// so the ones inside fragments are left as they are.
func Substitute(tmpl string, page Page) string {
	tmpl = strings.ReplaceAll(tmpl, MarkerViewer, page.Viewer)
	tmpl = strings.ReplaceAll(tmpl, MarkerSubject, page.Subject)
	tmpl = strings.Replace(tmpl, MarkerUserInformation, page.UserInformation, 1)
	tmpl = strings.Replace(tmpl, MarkerPosts, page.Posts, 1)
	tmpl = strings.Replace(tmpl, MarkerButton, page.Button, 1)

	return tmpl
}
