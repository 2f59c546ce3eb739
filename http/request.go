package http

import (
	"net"
	"strings"

	"github.com/indigo-web/twotter/kv"
)

type Query = *kv.Storage

// Request represents a single parsed request. It is never modified after the parser is done
// with it, so it's safe to pass around by pointer.
type Request struct {
	// Method is the request method exactly as received.
	Method string
	// Target is the raw request target, query included. Routing runs its pattern checks
	// against it.
	Target string
	// Path is the part of Target before the first question mark.
	Path string
	// Query holds the pairs of the query string in their order. Values are left
	// percent-encoded, as every consumer decodes a different set of escapes.
	Query Query
	// Session is the token taken from the last cookie line carrying it, or the
	// anonymous sentinel.
	Session string
	// Remote is the peer address.
	Remote net.Addr
}

// NewRequest returns a request carrying nothing but the target and session, splitting the
// target the same way the parser does. Mostly used by re-dispatching and tests.
func NewRequest(target, session string) *Request {
	path, query := SplitTarget(target)

	return &Request{
		Method:  "GET",
		Target:  target,
		Path:    path,
		Query:   query,
		Session: session,
	}
}

// SplitTarget splits the target on the first question mark into a path and query pairs.
// Pairs are separated by ampersands and split on their first equality sign. A pair without
// the sign becomes a key with an empty value.
func SplitTarget(target string) (path string, query Query) {
	query = kv.New()
	path, rawQuery, found := strings.Cut(target, "?")
	if !found {
		return path, query
	}

	for len(rawQuery) > 0 {
		var pair string
		pair, rawQuery, _ = strings.Cut(rawQuery, "&")
		if len(pair) == 0 {
			continue
		}

		key, value, _ := strings.Cut(pair, "=")
		query.Add(key, value)
	}

	return path, query
}
