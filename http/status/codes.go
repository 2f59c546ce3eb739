package status

type (
	Code   uint16
	Status string
)

// The server only ever answers with a handful of codes: pages are 200, missing
// templates and assets are 404, and malformed requests are 500.
const (
	OK                  Code = 200 // RFC 9110, 15.3.1
	NotFound            Code = 404 // RFC 9110, 15.5.5
	InternalServerError Code = 500 // RFC 9110, 15.6.1
)

// Text returns a text for the HTTP status code. Unknown codes are reported
// as such rather than left empty, so the status line is never malformed.
func Text(code Code) Status {
	switch code {
	case OK:
		return "OK"
	case NotFound:
		return "Not Found"
	case InternalServerError:
		return "Internal Server Error"
	default:
		return "Unknown Status Code"
	}
}
