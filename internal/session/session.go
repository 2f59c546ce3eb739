// Package session maps opaque bearer tokens onto accounts. Tokens never expire: each
// account receives one on creation and keeps it forever.
package session

import (
	"log/slog"

	"github.com/dchest/uniuri"
)

// Anonymous is the token of a caller without a session. It never resolves to an account.
const Anonymous = "00000000000000000000"

// TokenLength is the length of generated tokens.
const TokenLength = 20

var alphabet = []byte("abcdefghijklmnopqrstuvwxyz")

// NewToken generates a fresh token out of lower-case latin letters using crypto/rand.
// Collisions aren't checked.
func NewToken() string {
	return uniuri.NewLenChars(TokenLength, alphabet)
}

// Lookup is the part of the persistence layer the resolver needs.
type Lookup interface {
	AccountForToken(token string) (username string, found bool, err error)
}

type Resolver struct {
	lookup Lookup
	logger *slog.Logger
}

func NewResolver(lookup Lookup, logger *slog.Logger) Resolver {
	return Resolver{
		lookup: lookup,
		logger: logger,
	}
}

// Resolve returns the username owning the token. A miss is reported via ok=false; lookup
// failures are logged and treated as misses.
func (r Resolver) Resolve(token string) (username string, ok bool) {
	if token == Anonymous || len(token) == 0 {
		return "", false
	}

	username, found, err := r.lookup.AccountForToken(token)
	if err != nil {
		r.logger.Warn("resolving session", slog.String("error", err.Error()))
		return "", false
	}

	return username, found
}
