package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username    TEXT PRIMARY KEY,
	email       TEXT NOT NULL UNIQUE,
	password    TEXT NOT NULL,
	token       TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	picture     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS posts (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	body   TEXT NOT NULL,
	author TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS posted (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id   INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	posted_by TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
	timestamp INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posted_by ON posted(posted_by, timestamp);

CREATE TABLE IF NOT EXISTS following (
	follower TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
	followee TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
	PRIMARY KEY (follower, followee)
);
`
