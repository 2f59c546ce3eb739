package cookie

import "strings"

// SessionName is the only cookie the server ever reads or sets.
const SessionName = "session"

// marker is looked up in lower-cased header lines.
const marker = SessionName + "="

type Cookie struct {
	Name  string
	Value string
}

func New(name, value string) Cookie {
	return Cookie{Name: name, Value: value}
}

// Session returns the cookie carrying the session token.
func Session(token string) Cookie {
	return New(SessionName, token)
}

// String renders the cookie as a Set-Cookie header value.
func (c Cookie) String() string {
	return c.Name + "=" + c.Value
}

// SessionFrom extracts the session token out of a raw header line. The line is lower-cased
// first and everything after the marker is taken as is, including any trailing
// attributes of other cookies. The header name isn't checked at all: whatever line
// carries the marker wins.
func SessionFrom(line string) (token string, found bool) {
	line = strings.ToLower(line)
	offset := strings.Index(line, marker)
	if offset == -1 {
		return "", false
	}

	return line[offset+len(marker):], true
}
