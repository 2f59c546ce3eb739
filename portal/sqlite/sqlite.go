// Package sqlite implements portal.Portal over an SQLite database file.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/indigo-web/twotter/internal/session"
	"github.com/indigo-web/twotter/portal"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

type Store struct {
	portal.Fragments

	conn   *sql.DB
	logger *slog.Logger
	cost   int
	now    func() time.Time
}

// Open opens or creates the database at path and makes sure the schema exists.
func Open(path string, logger *slog.Logger) (*Store, error) {
	return OpenWithCost(path, logger, bcrypt.DefaultCost)
}

// OpenWithCost is Open with a custom bcrypt cost for new passwords.
func OpenWithCost(path string, logger *slog.Logger, cost int) (*Store, error) {
	dsn := "file:" + path +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite serializes writers anyway; a single connection also keeps the pragmas consistent
	conn.SetMaxOpenConns(1)

	if _, err = conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logger.Debug("database opened", slog.String("path", path))

	return &Store{
		conn:   conn,
		logger: logger,
		cost:   cost,
		now:    time.Now,
	}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// withTx runs fn in a transaction, rolling it back if fn fails.
func (s *Store) withTx(fn func(*sql.Tx) error) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rolling back transaction",
				slog.String("error", err.Error()),
				slog.String("rollback_error", rbErr.Error()),
			)
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (s *Store) CreateAccount(username, description, email, picture, password, name string) error {
	hash, err := portal.HashPassword(password, s.cost)
	if err != nil {
		return err
	}

	return s.withTx(func(tx *sql.Tx) error {
		var taken bool
		err := tx.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM users WHERE username = ? OR email = ?)`,
			username, email,
		).Scan(&taken)
		if err != nil {
			return err
		}

		if taken {
			return portal.ErrExists
		}

		_, err = tx.Exec(
			`INSERT INTO users (username, email, password, token, name, description, picture)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			username, email, hash, session.NewToken(), name, description, picture,
		)

		return err
	})
}

func (s *Store) AccountExists(username string) (bool, error) {
	return s.exists(`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username)
}

func (s *Store) EmailTaken(email string) (bool, error) {
	return s.exists(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email)
}

func (s *Store) IsFollowing(follower, followee string) (bool, error) {
	return s.exists(
		`SELECT EXISTS(SELECT 1 FROM following WHERE follower = ? AND followee = ?)`,
		follower, followee,
	)
}

func (s *Store) exists(query string, args ...any) (found bool, err error) {
	err = s.conn.QueryRow(query, args...).Scan(&found)
	return found, err
}

const accountColumns = `username, email, description, picture, name`

func scanAccount(row interface{ Scan(...any) error }) (acc portal.Account, err error) {
	err = row.Scan(&acc.Username, &acc.Email, &acc.Description, &acc.Picture, &acc.Name)
	return acc, err
}

func (s *Store) Account(username string) (portal.Account, bool, error) {
	acc, err := scanAccount(s.conn.QueryRow(
		`SELECT `+accountColumns+` FROM users WHERE username = ?`, username,
	))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return portal.Account{}, false, nil
	case err != nil:
		return portal.Account{}, false, err
	}

	return acc, true, nil
}

func (s *Store) VerifyLogin(username, password string) (bool, error) {
	var hash string
	err := s.conn.QueryRow(`SELECT password FROM users WHERE username = ?`, username).Scan(&hash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	}

	return portal.CheckPassword(hash, password)
}

func (s *Store) SessionTokenFor(username string) (string, error) {
	var token string
	err := s.conn.QueryRow(`SELECT token FROM users WHERE username = ?`, username).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", portal.ErrNotFound
	}

	return token, err
}

func (s *Store) AccountForToken(token string) (string, bool, error) {
	var username string
	err := s.conn.QueryRow(`SELECT username FROM users WHERE token = ?`, token).Scan(&username)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, err
	}

	return username, true, nil
}

func (s *Store) CreatePost(body, author string) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`INSERT INTO posts (body, author) SELECT ?, username FROM users WHERE username = ?`,
			body, author,
		)
		if err != nil {
			return err
		}

		if n, _ := res.RowsAffected(); n == 0 {
			return portal.ErrNotFound
		}

		id, err := res.LastInsertId()
		if err != nil {
			return err
		}

		_, err = tx.Exec(
			`INSERT INTO posted (post_id, posted_by, timestamp) VALUES (?, ?, ?)`,
			id, author, s.now().UnixNano(),
		)

		return err
	})
}

func (s *Store) DeletePost(id int64) error {
	res, err := s.conn.Exec(`DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return expectAffected(res, portal.ErrNotFound)
}

func (s *Store) Repost(token string, id int64) error {
	res, err := s.conn.Exec(
		`INSERT INTO posted (post_id, posted_by, timestamp)
		 SELECT p.id, u.username, ? FROM posts p, users u WHERE p.id = ? AND u.token = ?`,
		s.now().UnixNano(), id, token,
	)
	if err != nil {
		return err
	}

	return expectAffected(res, portal.ErrNotFound)
}

func (s *Store) Follow(token, target string) error {
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`INSERT OR IGNORE INTO following (follower, followee)
			 SELECT f.username, t.username FROM users f, users t
			 WHERE f.token = ? AND t.username = ?`,
			token, target,
		)
		if err != nil {
			return err
		}

		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}

		var bothExist bool
		err = tx.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM users WHERE token = ?)
			    AND EXISTS(SELECT 1 FROM users WHERE username = ?)`,
			token, target,
		).Scan(&bothExist)
		if err != nil {
			return err
		}

		if bothExist {
			return portal.ErrExists
		}

		return portal.ErrNotFound
	})
}

func (s *Store) Unfollow(token, target string) error {
	res, err := s.conn.Exec(
		`DELETE FROM following
		 WHERE follower = (SELECT username FROM users WHERE token = ?) AND followee = ?`,
		token, target,
	)
	if err != nil {
		return err
	}

	return expectAffected(res, portal.ErrNotFound)
}

func (s *Store) Followers(username string) ([]portal.Account, error) {
	return s.queryAccounts(
		`SELECT `+prefixed("u", accountColumns)+` FROM following f
		 JOIN users u ON u.username = f.follower
		 WHERE f.followee = ? ORDER BY u.username`,
		username,
	)
}

func (s *Store) Following(username string) ([]portal.Account, error) {
	return s.queryAccounts(
		`SELECT `+prefixed("u", accountColumns)+` FROM following f
		 JOIN users u ON u.username = f.followee
		 WHERE f.follower = ? ORDER BY u.username`,
		username,
	)
}

func (s *Store) SearchAccounts(term string) ([]portal.Account, error) {
	term = strings.ToLower(term)

	return s.queryAccounts(
		`SELECT `+accountColumns+` FROM users
		 WHERE instr(lower(username), ?) > 0 OR instr(lower(name), ?) > 0
		 ORDER BY username`,
		term, term,
	)
}

func (s *Store) queryAccounts(query string, args ...any) ([]portal.Account, error) {
	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []portal.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, acc)
	}

	return accounts, rows.Err()
}

const postingsQuery = `
	SELECT p.id, p.body, p.author, s.posted_by, s.timestamp, u.picture
	FROM posted s
	JOIN posts p ON p.id = s.post_id
	JOIN users u ON u.username = p.author
	WHERE %s
	ORDER BY s.timestamp DESC, s.seq DESC`

func (s *Store) FeedFor(username string) ([]portal.Post, error) {
	return s.queryPostings(
		`s.posted_by = ? OR s.posted_by IN (SELECT followee FROM following WHERE follower = ?)`,
		username, username,
	)
}

func (s *Store) PostsBy(username string) ([]portal.Post, error) {
	return s.queryPostings(`s.posted_by = ?`, username)
}

func (s *Store) queryPostings(where string, args ...any) ([]portal.Post, error) {
	rows, err := s.conn.Query(fmt.Sprintf(postingsQuery, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []portal.Post
	for rows.Next() {
		var (
			post portal.Post
			nano int64
		)

		err = rows.Scan(&post.ID, &post.Body, &post.Author, &post.PostedBy, &nano, &post.Picture)
		if err != nil {
			return nil, err
		}

		post.Timestamp = time.Unix(0, nano)
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

func (s *Store) SetDisplayName(token, value string) error {
	return s.update("name", token, value)
}

func (s *Store) SetDescription(token, value string) error {
	return s.update("description", token, value)
}

func (s *Store) SetPicture(token, value string) error {
	return s.update("picture", token, value)
}

// update sets a single column. The column is never user-supplied.
func (s *Store) update(column, token, value string) error {
	res, err := s.conn.Exec(`UPDATE users SET `+column+` = ? WHERE token = ?`, value, token)
	if err != nil {
		return err
	}

	return expectAffected(res, portal.ErrNotFound)
}

func expectAffected(res sql.Result, otherwise error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return otherwise
	}

	return nil
}

func prefixed(table, columns string) string {
	fields := strings.Split(columns, ", ")
	for i, field := range fields {
		fields[i] = table + "." + field
	}

	return strings.Join(fields, ", ")
}
