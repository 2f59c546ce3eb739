package status

import "errors"

type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	// ErrMalformedRequest is answered with 500, not 400.
	ErrMalformedRequest    = NewError(InternalServerError, "invalid request line")
	ErrNotFound            = NewError(NotFound, "not found")
	ErrInternalServerError = NewError(InternalServerError, "internal server error")
)

// CodeOf returns the code carried by err, or InternalServerError if err isn't an HTTPError.
func CodeOf(err error) Code {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return InternalServerError
}
