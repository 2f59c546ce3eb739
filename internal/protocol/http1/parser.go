package http1

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/indigo-web/twotter/http"
	"github.com/indigo-web/twotter/http/cookie"
	"github.com/indigo-web/twotter/http/status"
	"github.com/indigo-web/twotter/internal/session"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

const (
	acceptedMethod = "get"
	protocolPrefix = "http/"
)

// ErrTransport is returned when the peer goes away before the headers block is complete.
// Nothing must be written back in this case.
var ErrTransport = errors.New("connection closed before the request was complete")

// Parser reads exactly one request out of a connection. Request bodies are never read.
type Parser struct {
	reader *bufio.Reader
	line   []byte
}

func NewParser(r io.Reader, bufferSize int) *Parser {
	return &Parser{
		reader: bufio.NewReaderSize(r, bufferSize),
	}
}

// Parse reads the request line and the headers block. The whole headers block is consumed
// even if the request line turns out to be malformed, in which case status.ErrMalformedRequest
// is returned. Every header line carrying the session cookie marker overrides the session
// taken from the previous one.
func (p *Parser) Parse() (*http.Request, error) {
	requestLine, err := p.readLine()
	if err != nil {
		return nil, err
	}

	// the line is going to be stored, so it must not alias the reader's buffer
	requestLine = strings.Clone(requestLine)
	token := session.Anonymous

	for {
		line, err := p.readLine()
		if err != nil {
			return nil, err
		}

		if len(line) == 0 {
			break
		}

		if value, found := cookie.SessionFrom(line); found {
			token = strings.Clone(value)
		}
	}

	method, target, ok := splitRequestLine(requestLine)
	if !ok {
		return nil, status.ErrMalformedRequest
	}

	path, query := http.SplitTarget(target)

	return &http.Request{
		Method:  method,
		Target:  target,
		Path:    path,
		Query:   query,
		Session: token,
	}, nil
}

// readLine returns the next line without its terminator. The returned string is valid
// only until the next call. A last line missing its terminator is still a line.
func (p *Parser) readLine() (string, error) {
	p.line = p.line[:0]

	for {
		chunk, err := p.reader.ReadSlice('\n')
		p.line = append(p.line, chunk...)

		switch err {
		case nil:
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			if len(p.line) == 0 {
				return "", ErrTransport
			}
		default:
			return "", fmt.Errorf("%w: %w", ErrTransport, err)
		}

		return uf.B2S(trimEOL(p.line)), nil
	}
}

func trimEOL(line []byte) []byte {
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}

	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}

	return line
}

// splitRequestLine accepts exactly three space-separated fields. Trailing spaces are
// dropped before counting.
func splitRequestLine(line string) (method, target string, ok bool) {
	fields := strings.Split(strings.TrimRight(line, " "), " ")
	if len(fields) != 3 {
		return "", "", false
	}

	if !strcomp.EqualFold(fields[0], acceptedMethod) {
		return "", "", false
	}

	if len(fields[2]) < len(protocolPrefix) || !strcomp.EqualFold(fields[2][:len(protocolPrefix)], protocolPrefix) {
		return "", "", false
	}

	return fields[0], fields[1], true
}
