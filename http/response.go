package http

import (
	"io"

	"github.com/indigo-web/twotter/http/cookie"
	"github.com/indigo-web/twotter/http/mime"
	"github.com/indigo-web/twotter/http/status"
)

// Fields are the parts of a response the serializer needs.
type Fields struct {
	Code        status.Code
	ContentType mime.MIME
	Body        []byte
	// Stream, if set, is copied to the connection after the headers. Its length isn't known
	// in advance, therefore such responses carry no Content-Length.
	Stream io.Reader
	// Cookie, if set, becomes the Set-Cookie header.
	Cookie *cookie.Cookie
}

type Response struct {
	fields Fields
}

// NewResponse returns a new instance of the Response object with status code set to 200 OK
// and text/html content-type.
func NewResponse() *Response {
	return &Response{
		fields: Fields{
			Code:        status.OK,
			ContentType: mime.HTML,
		},
	}
}

// Code sets a Response code.
func (r *Response) Code(code status.Code) *Response {
	r.fields.Code = code
	return r
}

// ContentType sets a custom Content-Type header value.
func (r *Response) ContentType(value mime.MIME) *Response {
	r.fields.ContentType = value
	return r
}

// String sets the response's body to the passed string
func (r *Response) String(body string) *Response {
	return r.Bytes([]byte(body))
}

// Bytes sets the response's body to passed slice WITHOUT COPYING. Changing
// the passed slice later will affect the response by itself
func (r *Response) Bytes(body []byte) *Response {
	r.fields.Body = body
	r.fields.Stream = nil
	return r
}

// Stream makes the response unsized: the reader is drained into the connection after the
// headers. If it implements io.Closer, it's closed once written.
func (r *Response) Stream(reader io.Reader) *Response {
	r.fields.Stream = reader
	r.fields.Body = nil
	return r
}

// Cookie sets the cookie to be sent along with the response.
func (r *Response) Cookie(c cookie.Cookie) *Response {
	r.fields.Cookie = &c
	return r
}

// Error sets the code from the error, if it's status.HTTPError, or 500 otherwise. The body
// is the error message wrapped into a tiny page.
func (r *Response) Error(err error) *Response {
	return r.
		Code(status.CodeOf(err)).
		ContentType(mime.HTML).
		String("<html><body>Error - " + err.Error() + "</body></html>")
}

// Expose gives access to the response fields.
func (r *Response) Expose() Fields {
	return r.fields
}
