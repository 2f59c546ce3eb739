package mime

type MIME = string

const (
	Plain MIME = "text/plain"
	HTML  MIME = "text/html"
	CSS   MIME = "text/css"
	JS    MIME = "text/javascript"
	GIF   MIME = "image/gif"
	JPEG  MIME = "image/jpeg"
	PNG   MIME = "image/png"
)
