// Package seed fills a portal.Portal with fixture data read from JSON.
package seed

import (
	"errors"
	"fmt"
	"io"

	"github.com/indigo-web/twotter/portal"
	json "github.com/json-iterator/go"
)

type Account struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Picture     string `json:"picture"`
}

type Follow struct {
	Follower string `json:"follower"`
	Followee string `json:"followee"`
}

type Post struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

type Fixture struct {
	Accounts []Account `json:"accounts"`
	Follows  []Follow  `json:"follows"`
	Posts    []Post    `json:"posts"`
}

// Load decodes a fixture from r and inserts it into p. Accounts that already exist are left
// untouched and their posts are skipped, so loading the same fixture twice changes nothing.
func Load(r io.Reader, p portal.Portal) error {
	var fixture Fixture
	if err := json.ConfigDefault.NewDecoder(r).Decode(&fixture); err != nil {
		return fmt.Errorf("decode fixture: %w", err)
	}

	return Apply(fixture, p)
}

func Apply(fixture Fixture, p portal.Portal) error {
	created := make(map[string]bool, len(fixture.Accounts))

	for _, acc := range fixture.Accounts {
		exists, err := p.AccountExists(acc.Username)
		if err != nil {
			return err
		}

		if exists {
			continue
		}

		err = p.CreateAccount(acc.Username, acc.Description, acc.Email, acc.Picture, acc.Password, acc.Name)
		if err != nil {
			return fmt.Errorf("account %s: %w", acc.Username, err)
		}

		created[acc.Username] = true
	}

	for _, follow := range fixture.Follows {
		token, err := p.SessionTokenFor(follow.Follower)
		if err != nil {
			return fmt.Errorf("follower %s: %w", follow.Follower, err)
		}

		err = p.Follow(token, follow.Followee)
		if err != nil && !errors.Is(err, portal.ErrExists) {
			return fmt.Errorf("follow %s -> %s: %w", follow.Follower, follow.Followee, err)
		}
	}

	for _, post := range fixture.Posts {
		if !created[post.Author] {
			continue
		}

		if err := p.CreatePost(post.Body, post.Author); err != nil {
			return fmt.Errorf("post by %s: %w", post.Author, err)
		}
	}

	return nil
}
