package static

import (
	"io"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/indigo-web/twotter/http/mime"
	"github.com/indigo-web/twotter/http/status"
	"github.com/stretchr/testify/require"
)

type countingFS struct {
	fs.FS
	opens int
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.opens++
	return c.FS.Open(name)
}

func newFS() *countingFS {
	return &countingFS{FS: fstest.MapFS{
		"Login.html":   {Data: []byte("<html>login</html>")},
		"css/main.css": {Data: []byte("body{}")},
		"pic1.jpg":     {Data: []byte{0xff, 0xd8, 0xff}},
	}}
}

func TestServe(t *testing.T) {
	t.Run("streams the file", func(t *testing.T) {
		resp, err := NewFS(newFS()).Serve("/Login.html")
		require.NoError(t, err)

		fields := resp.Expose()
		require.Equal(t, status.OK, fields.Code)
		require.Equal(t, mime.HTML, fields.ContentType)
		require.NotNil(t, fields.Stream)

		content, err := io.ReadAll(fields.Stream)
		require.NoError(t, err)
		require.Equal(t, "<html>login</html>", string(content))
	})

	t.Run("nested", func(t *testing.T) {
		resp, err := NewFS(newFS()).Serve("/css/main.css")
		require.NoError(t, err)
		require.Equal(t, mime.CSS, resp.Expose().ContentType)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFS(newFS()).Serve("/nope.png")
		require.ErrorIs(t, err, status.ErrNotFound)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := NewFS(newFS()).Serve("/css")
		require.ErrorIs(t, err, status.ErrNotFound)
	})

	t.Run("parent directory never reaches the filesystem", func(t *testing.T) {
		fsys := newFS()
		server := NewFS(fsys)

		for _, path := range []string{"/../etc/passwd", "/css/../Login.html", "/..", "/a..b.html"} {
			_, err := server.Serve(path)
			require.ErrorIs(t, err, status.ErrNotFound, path)
		}

		require.Zero(t, fsys.opens)
	})

	t.Run("from a directory on disk", func(t *testing.T) {
		_, err := New(t.TempDir()).Serve("/missing.html")
		require.ErrorIs(t, err, status.ErrNotFound)
	})
}
