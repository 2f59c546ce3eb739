package mime

import "strings"

// Extension maps lower-cased file extensions (without the dot) onto their MIME.
var Extension = map[string]MIME{
	"txt":  Plain,
	"htm":  HTML,
	"html": HTML,
	"jpg":  JPEG,
	"gif":  GIF,
	"png":  PNG,
	"css":  CSS,
	"js":   JS,
}

// Guess returns the MIME of a file judging by everything after its last dot. Unknown
// extensions, as well as names without any dot, are served as plain text.
func Guess(name string) MIME {
	ext := name[strings.LastIndexByte(name, '.')+1:]
	if mime, found := Extension[strings.ToLower(ext)]; found {
		return mime
	}

	return Plain
}
