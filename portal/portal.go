// Package portal describes the persistence layer the server talks to: accounts, their
// session tokens, posts, reposts and follow edges.
package portal

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("portal: no such record")
	ErrExists   = errors.New("portal: record already exists")
)

type Account struct {
	Username    string
	Email       string
	Description string
	// Picture is a path of the profile picture under the assets root.
	Picture string
	// Name is the display name.
	Name string
}

// Post is a single posting of a message. A repost is a separate posting of the same message:
// it shares ID, Body and Author with the original but has its own PostedBy and Timestamp.
type Post struct {
	ID        int64
	Body      string
	Author    string
	PostedBy  string
	Timestamp time.Time
	// Picture is the author's profile picture.
	Picture string
}

// Portal must be safe for concurrent use. Methods taking a token act on behalf of the
// account owning it and fail with ErrNotFound if there's none.
type Portal interface {
	CreateAccount(username, description, email, picture, password, name string) error
	AccountExists(username string) (bool, error)
	EmailTaken(email string) (bool, error)
	// Account returns the account by its username.
	Account(username string) (Account, bool, error)

	VerifyLogin(username, password string) (bool, error)
	SessionTokenFor(username string) (string, error)
	AccountForToken(token string) (username string, found bool, err error)

	CreatePost(body, author string) error
	DeletePost(id int64) error
	Repost(token string, id int64) error

	Follow(token, target string) error
	Unfollow(token, target string) error
	IsFollowing(follower, followee string) (bool, error)
	Followers(username string) ([]Account, error)
	Following(username string) ([]Account, error)

	// FeedFor returns postings of the account and of everyone it follows, newest first.
	FeedFor(username string) ([]Post, error)
	// PostsBy returns postings of the account, reposts included, newest first.
	PostsBy(username string) ([]Post, error)
	SearchAccounts(term string) ([]Account, error)

	SetDisplayName(token, value string) error
	SetDescription(token, value string) error
	SetPicture(token, value string) error

	AccountHTML(Account) string
	PostHTML(Post) string
}
