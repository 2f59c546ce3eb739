// Package portaltest holds the behaviour every portal.Portal implementation must share.
package portaltest

import (
	"testing"

	"github.com/indigo-web/twotter/portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh portal returned by newPortal in every subtest.
func Run(t *testing.T, newPortal func(t *testing.T) portal.Portal) {
	t.Run("accounts", func(t *testing.T) {
		p := newPortal(t)
		require.NoError(t, p.CreateAccount("alice", "likes tea", "alice@x.org", "/pic1.jpg", "x123", "Alice"))

		exists, err := p.AccountExists("alice")
		require.NoError(t, err)
		require.True(t, exists)

		exists, err = p.AccountExists("bob")
		require.NoError(t, err)
		require.False(t, exists)

		taken, err := p.EmailTaken("alice@x.org")
		require.NoError(t, err)
		require.True(t, taken)

		acc, found, err := p.Account("alice")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, portal.Account{
			Username:    "alice",
			Email:       "alice@x.org",
			Description: "likes tea",
			Picture:     "/pic1.jpg",
			Name:        "Alice",
		}, acc)

		_, found, err = p.Account("bob")
		require.NoError(t, err)
		require.False(t, found)

		err = p.CreateAccount("alice", "", "other@x.org", "", "pw", "")
		require.ErrorIs(t, err, portal.ErrExists)
		err = p.CreateAccount("carol", "", "alice@x.org", "", "pw", "")
		require.ErrorIs(t, err, portal.ErrExists)
	})

	t.Run("login and tokens", func(t *testing.T) {
		p := newPortal(t)
		require.NoError(t, p.CreateAccount("alice", "", "a@x.org", "", "x123", ""))
		require.NoError(t, p.CreateAccount("bob", "", "b@x.org", "", "y456", ""))

		ok, err := p.VerifyLogin("alice", "x123")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = p.VerifyLogin("alice", "y456")
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = p.VerifyLogin("nobody", "x123")
		require.NoError(t, err)
		require.False(t, ok)

		alice, err := p.SessionTokenFor("alice")
		require.NoError(t, err)
		require.Len(t, alice, 20)
		again, err := p.SessionTokenFor("alice")
		require.NoError(t, err)
		require.Equal(t, alice, again)

		bob, err := p.SessionTokenFor("bob")
		require.NoError(t, err)
		require.NotEqual(t, alice, bob)

		_, err = p.SessionTokenFor("nobody")
		require.ErrorIs(t, err, portal.ErrNotFound)

		username, found, err := p.AccountForToken(alice)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "alice", username)

		_, found, err = p.AccountForToken("00000000000000000000")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("posts", func(t *testing.T) {
		p := newPortal(t)
		require.NoError(t, p.CreateAccount("alice", "", "a@x.org", "/a.png", "pw", ""))
		require.NoError(t, p.CreateAccount("bob", "", "b@x.org", "/b.png", "pw", ""))
		bob := token(t, p, "bob")

		require.NoError(t, p.CreatePost("first", "alice"))
		require.NoError(t, p.CreatePost("second", "alice"))
		require.ErrorIs(t, p.CreatePost("ghost", "nobody"), portal.ErrNotFound)

		posts, err := p.PostsBy("alice")
		require.NoError(t, err)
		require.Equal(t, []string{"second", "first"}, bodies(posts))
		require.Equal(t, "/a.png", posts[0].Picture)
		require.Equal(t, "alice", posts[0].PostedBy)
		require.False(t, posts[0].Timestamp.IsZero())

		first := posts[1].ID
		require.NoError(t, p.Repost(bob, first))
		require.ErrorIs(t, p.Repost(bob, 9999), portal.ErrNotFound)
		require.ErrorIs(t, p.Repost("nosuchtoken", first), portal.ErrNotFound)

		reposts, err := p.PostsBy("bob")
		require.NoError(t, err)
		require.Len(t, reposts, 1)
		require.Equal(t, first, reposts[0].ID)
		require.Equal(t, "alice", reposts[0].Author)
		require.Equal(t, "bob", reposts[0].PostedBy)
		require.Equal(t, "/a.png", reposts[0].Picture)

		require.NoError(t, p.DeletePost(first))
		require.ErrorIs(t, p.DeletePost(first), portal.ErrNotFound)

		posts, err = p.PostsBy("alice")
		require.NoError(t, err)
		require.Equal(t, []string{"second"}, bodies(posts))

		reposts, err = p.PostsBy("bob")
		require.NoError(t, err)
		require.Empty(t, reposts)
	})

	t.Run("follows", func(t *testing.T) {
		p := newPortal(t)
		for _, name := range []string{"alice", "bob", "carol"} {
			require.NoError(t, p.CreateAccount(name, "", name+"@x.org", "", "pw", ""))
		}
		alice := token(t, p, "alice")

		require.NoError(t, p.Follow(alice, "bob"))
		require.NoError(t, p.Follow(alice, "carol"))
		require.ErrorIs(t, p.Follow(alice, "bob"), portal.ErrExists)
		require.ErrorIs(t, p.Follow(alice, "nobody"), portal.ErrNotFound)
		require.ErrorIs(t, p.Follow("nosuchtoken", "bob"), portal.ErrNotFound)

		following, err := p.IsFollowing("alice", "bob")
		require.NoError(t, err)
		require.True(t, following)

		following, err = p.IsFollowing("bob", "alice")
		require.NoError(t, err)
		require.False(t, following)

		followees, err := p.Following("alice")
		require.NoError(t, err)
		require.Equal(t, []string{"bob", "carol"}, usernames(followees))

		followers, err := p.Followers("bob")
		require.NoError(t, err)
		require.Equal(t, []string{"alice"}, usernames(followers))

		require.NoError(t, p.Unfollow(alice, "bob"))
		require.ErrorIs(t, p.Unfollow(alice, "bob"), portal.ErrNotFound)

		followers, err = p.Followers("bob")
		require.NoError(t, err)
		require.Empty(t, followers)
	})

	t.Run("feed", func(t *testing.T) {
		p := newPortal(t)
		for _, name := range []string{"alice", "bob", "carol"} {
			require.NoError(t, p.CreateAccount(name, "", name+"@x.org", "", "pw", ""))
		}
		require.NoError(t, p.Follow(token(t, p, "alice"), "bob"))

		require.NoError(t, p.CreatePost("a1", "alice"))
		require.NoError(t, p.CreatePost("b1", "bob"))
		require.NoError(t, p.CreatePost("c1", "carol"))
		require.NoError(t, p.CreatePost("a2", "alice"))

		feed, err := p.FeedFor("alice")
		require.NoError(t, err)
		require.Equal(t, []string{"a2", "b1", "a1"}, bodies(feed))

		carolPosts, err := p.PostsBy("carol")
		require.NoError(t, err)
		require.NoError(t, p.Repost(token(t, p, "bob"), carolPosts[0].ID))

		feed, err = p.FeedFor("alice")
		require.NoError(t, err)
		require.Equal(t, []string{"c1", "a2", "b1", "a1"}, bodies(feed))
		assert.Equal(t, "bob", feed[0].PostedBy)
		assert.Equal(t, "carol", feed[0].Author)

		feed, err = p.FeedFor("carol")
		require.NoError(t, err)
		require.Equal(t, []string{"c1"}, bodies(feed))
	})

	t.Run("search", func(t *testing.T) {
		p := newPortal(t)
		require.NoError(t, p.CreateAccount("alice", "", "a@x.org", "", "pw", "Alice Liddell"))
		require.NoError(t, p.CreateAccount("bob", "", "b@x.org", "", "pw", "Bob"))
		require.NoError(t, p.CreateAccount("malice", "", "m@x.org", "", "pw", ""))

		found, err := p.SearchAccounts("ALI")
		require.NoError(t, err)
		require.Equal(t, []string{"alice", "malice"}, usernames(found))

		found, err = p.SearchAccounts("liddell")
		require.NoError(t, err)
		require.Equal(t, []string{"alice"}, usernames(found))

		found, err = p.SearchAccounts("zed")
		require.NoError(t, err)
		require.Empty(t, found)
	})

	t.Run("profile edits", func(t *testing.T) {
		p := newPortal(t)
		require.NoError(t, p.CreateAccount("alice", "old", "a@x.org", "/old.png", "pw", "Old"))
		alice := token(t, p, "alice")

		require.NoError(t, p.SetDisplayName(alice, "New Name"))
		require.NoError(t, p.SetDescription(alice, "new description"))
		require.NoError(t, p.SetPicture(alice, "/new.png"))
		require.ErrorIs(t, p.SetPicture("nosuchtoken", "/x.png"), portal.ErrNotFound)

		acc, _, err := p.Account("alice")
		require.NoError(t, err)
		require.Equal(t, "New Name", acc.Name)
		require.Equal(t, "new description", acc.Description)
		require.Equal(t, "/new.png", acc.Picture)
	})
}

func token(t *testing.T, p portal.Portal, username string) string {
	tok, err := p.SessionTokenFor(username)
	require.NoError(t, err)

	return tok
}

func bodies(posts []portal.Post) []string {
	out := make([]string, len(posts))
	for i, post := range posts {
		out[i] = post.Body
	}

	return out
}

func usernames(accounts []portal.Account) []string {
	out := make([]string, len(accounts))
	for i, acc := range accounts {
		out[i] = acc.Username
	}

	return out
}
