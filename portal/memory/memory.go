// Package memory implements portal.Portal on top of plain maps. Nothing survives a restart.
package memory

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/indigo-web/twotter/internal/session"
	"github.com/indigo-web/twotter/portal"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	portal.Account
	token    string
	password string
}

type message struct {
	body   string
	author string
}

type posting struct {
	postID   int64
	postedBy string
	at       time.Time
}

type edge struct {
	follower, followee string
}

type Store struct {
	portal.Fragments

	mu       sync.RWMutex
	cost     int
	now      func() time.Time
	accounts map[string]*account
	tokens   map[string]string
	messages map[int64]message
	// postings are kept in insertion order, so iterating backwards yields newest first
	postings []posting
	follows  map[edge]struct{}
	nextID   int64
}

// New returns an empty store hashing passwords with bcrypt.DefaultCost.
func New() *Store {
	return NewWithCost(bcrypt.DefaultCost)
}

// NewWithCost returns an empty store hashing passwords with the given bcrypt cost.
func NewWithCost(cost int) *Store {
	return &Store{
		cost:     cost,
		now:      time.Now,
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		messages: make(map[int64]message),
		follows:  make(map[edge]struct{}),
	}
}

func (s *Store) CreateAccount(username, description, email, picture, password, name string) error {
	hash, err := portal.HashPassword(password, s.cost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.accounts[username]; found || s.emailTaken(email) {
		return portal.ErrExists
	}

	acc := &account{
		Account: portal.Account{
			Username:    username,
			Email:       email,
			Description: description,
			Picture:     picture,
			Name:        name,
		},
		token:    session.NewToken(),
		password: hash,
	}
	s.accounts[username] = acc
	s.tokens[acc.token] = username

	return nil
}

func (s *Store) AccountExists(username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, found := s.accounts[username]
	return found, nil
}

func (s *Store) EmailTaken(email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.emailTaken(email), nil
}

func (s *Store) emailTaken(email string) bool {
	for _, acc := range s.accounts {
		if acc.Email == email {
			return true
		}
	}

	return false
}

func (s *Store) Account(username string) (portal.Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, found := s.accounts[username]
	if !found {
		return portal.Account{}, false, nil
	}

	return acc.Account, true, nil
}

func (s *Store) VerifyLogin(username, password string) (bool, error) {
	s.mu.RLock()
	acc, found := s.accounts[username]
	s.mu.RUnlock()

	if !found {
		return false, nil
	}

	return portal.CheckPassword(acc.password, password)
}

func (s *Store) SessionTokenFor(username string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, found := s.accounts[username]
	if !found {
		return "", portal.ErrNotFound
	}

	return acc.token, nil
}

func (s *Store) AccountForToken(token string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	username, found := s.tokens[token]
	return username, found, nil
}

func (s *Store) CreatePost(body, author string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.accounts[author]; !found {
		return portal.ErrNotFound
	}

	s.nextID++
	s.messages[s.nextID] = message{body: body, author: author}
	s.postings = append(s.postings, posting{postID: s.nextID, postedBy: author, at: s.now()})

	return nil
}

func (s *Store) DeletePost(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.messages[id]; !found {
		return portal.ErrNotFound
	}

	delete(s.messages, id)
	s.postings = slices.DeleteFunc(s.postings, func(p posting) bool {
		return p.postID == id
	})

	return nil
}

func (s *Store) Repost(token string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username, found := s.tokens[token]
	if !found {
		return portal.ErrNotFound
	}

	if _, found = s.messages[id]; !found {
		return portal.ErrNotFound
	}

	s.postings = append(s.postings, posting{postID: id, postedBy: username, at: s.now()})

	return nil
}

func (s *Store) Follow(token, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username, found := s.tokens[token]
	if !found {
		return portal.ErrNotFound
	}

	if _, found = s.accounts[target]; !found {
		return portal.ErrNotFound
	}

	e := edge{follower: username, followee: target}
	if _, found = s.follows[e]; found {
		return portal.ErrExists
	}

	s.follows[e] = struct{}{}

	return nil
}

func (s *Store) Unfollow(token, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username, found := s.tokens[token]
	if !found {
		return portal.ErrNotFound
	}

	e := edge{follower: username, followee: target}
	if _, found = s.follows[e]; !found {
		return portal.ErrNotFound
	}

	delete(s.follows, e)

	return nil
}

func (s *Store) IsFollowing(follower, followee string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, found := s.follows[edge{follower: follower, followee: followee}]
	return found, nil
}

func (s *Store) Followers(username string) ([]portal.Account, error) {
	return s.collectEdges(func(e edge) (string, bool) {
		return e.follower, e.followee == username
	})
}

func (s *Store) Following(username string) ([]portal.Account, error) {
	return s.collectEdges(func(e edge) (string, bool) {
		return e.followee, e.follower == username
	})
}

func (s *Store) collectEdges(pick func(edge) (string, bool)) ([]portal.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var accounts []portal.Account
	for e := range s.follows {
		if username, ok := pick(e); ok {
			if acc, found := s.accounts[username]; found {
				accounts = append(accounts, acc.Account)
			}
		}
	}

	sortAccounts(accounts)

	return accounts, nil
}

func (s *Store) FeedFor(username string) ([]portal.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectPostings(func(p posting) bool {
		if p.postedBy == username {
			return true
		}

		_, follows := s.follows[edge{follower: username, followee: p.postedBy}]
		return follows
	}), nil
}

func (s *Store) PostsBy(username string) ([]portal.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collectPostings(func(p posting) bool {
		return p.postedBy == username
	}), nil
}

func (s *Store) collectPostings(match func(posting) bool) []portal.Post {
	var posts []portal.Post

	for i := len(s.postings) - 1; i >= 0; i-- {
		p := s.postings[i]
		if !match(p) {
			continue
		}

		msg := s.messages[p.postID]
		var picture string
		if author, found := s.accounts[msg.author]; found {
			picture = author.Picture
		}

		posts = append(posts, portal.Post{
			ID:        p.postID,
			Body:      msg.body,
			Author:    msg.author,
			PostedBy:  p.postedBy,
			Timestamp: p.at,
			Picture:   picture,
		})
	}

	// postings are appended in time order unless the clock went backwards
	slices.SortStableFunc(posts, func(a, b portal.Post) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	return posts
}

// SearchAccounts matches the term case-insensitively against usernames and display names.
func (s *Store) SearchAccounts(term string) ([]portal.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term = strings.ToLower(term)
	var accounts []portal.Account

	for _, acc := range s.accounts {
		if strings.Contains(strings.ToLower(acc.Username), term) ||
			strings.Contains(strings.ToLower(acc.Name), term) {
			accounts = append(accounts, acc.Account)
		}
	}

	sortAccounts(accounts)

	return accounts, nil
}

func (s *Store) SetDisplayName(token, value string) error {
	return s.update(token, func(acc *account) { acc.Name = value })
}

func (s *Store) SetDescription(token, value string) error {
	return s.update(token, func(acc *account) { acc.Description = value })
}

func (s *Store) SetPicture(token, value string) error {
	return s.update(token, func(acc *account) { acc.Picture = value })
}

func (s *Store) update(token string, mutate func(*account)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username, found := s.tokens[token]
	if !found {
		return portal.ErrNotFound
	}

	mutate(s.accounts[username])

	return nil
}

func sortAccounts(accounts []portal.Account) {
	slices.SortFunc(accounts, func(a, b portal.Account) int {
		return strings.Compare(a.Username, b.Username)
	})
}
