package http1

import (
	"io"
	"strconv"

	"github.com/indigo-web/twotter/http"
	"github.com/indigo-web/twotter/http/status"
)

const protocol = "HTTP/1.1 "

// Serializer frames responses. A response with a body is written with its Content-Length;
// a streamed response is written in its header-only form with Connection: close, followed
// by the stream in fixed-size chunks.
type Serializer struct {
	w     io.Writer
	buff  []byte
	chunk []byte
}

func NewSerializer(w io.Writer, chunkSize int) *Serializer {
	return &Serializer{
		w:     w,
		buff:  make([]byte, 0, 256),
		chunk: make([]byte, chunkSize),
	}
}

func (s *Serializer) Write(response *http.Response) (err error) {
	resp := response.Expose()

	s.buff = s.buff[:0]
	s.appendStatus(resp.Code)

	if resp.Stream == nil {
		s.appendKnownHeader("Content-Length: ", strconv.Itoa(len(resp.Body)))
	} else {
		s.appendKnownHeader("Connection: ", "close")
	}

	s.appendKnownHeader("Content-Type: ", resp.ContentType)

	if resp.Cookie != nil {
		s.appendKnownHeader("Set-Cookie: ", resp.Cookie.String())
	}

	s.crlf()

	if resp.Stream == nil {
		s.buff = append(s.buff, resp.Body...)
		return s.flush()
	}

	if err = s.flush(); err != nil {
		if c, ok := resp.Stream.(io.Closer); ok {
			_ = c.Close()
		}

		return err
	}

	return s.writeStream(resp.Stream)
}

func (s *Serializer) writeStream(stream io.Reader) (err error) {
	defer func() {
		if c, ok := stream.(io.Closer); ok {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	}()

	for {
		n, err := stream.Read(s.chunk)
		if n > 0 {
			if _, werr := s.w.Write(s.chunk[:n]); werr != nil {
				return werr
			}
		}

		switch err {
		case nil:
		case io.EOF:
			return nil
		default:
			return err
		}
	}
}

func (s *Serializer) flush() error {
	_, err := s.w.Write(s.buff)
	s.buff = s.buff[:0]

	return err
}

func (s *Serializer) appendStatus(code status.Code) {
	s.buff = append(s.buff, protocol...)
	s.buff = strconv.AppendUint(s.buff, uint64(code), 10)
	s.buff = append(s.buff, ' ')
	s.buff = append(s.buff, status.Text(code)...)
	s.crlf()
}

// appendKnownHeader appends the header line. The key is expected to already contain the
// colon and the space.
func (s *Serializer) appendKnownHeader(key, value string) {
	s.buff = append(s.buff, key...)
	s.buff = append(s.buff, value...)
	s.crlf()
}

func (s *Serializer) crlf() {
	s.buff = append(s.buff, '\r', '\n')
}
