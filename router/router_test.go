package router

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/indigo-web/twotter/http"
	"github.com/indigo-web/twotter/http/status"
	"github.com/indigo-web/twotter/internal/session"
	"github.com/indigo-web/twotter/portal/memory"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var templates = map[string]string{
	"Login.html":        "<login/>",
	"LoginError.html":   "<login-error/>",
	"makeAProfile.html": "<signup/>",
	"template.html":     "<page viewer=%user% subject=%username%>%userInformation%|%posts%|%button%</page>",
	"nothing_here.html": "<nothing/>",
	"follow.html":       "<follow %username%/>",
	"unfollow.html":     "<unfollow/>",
	"editprofile.html":  "<edit/>",
	"404.html":          "<missing/>",
	"style.css":         "body{}",
}

type fixture struct {
	store  *memory.Store
	router *Router
	root   string
}

func newFixture(t *testing.T) *fixture {
	root := t.TempDir()
	for name, content := range templates {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}

	store := memory.NewWithCost(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		store:  store,
		router: New(store, root, logger),
		root:   root,
	}
}

// account creates an account and returns its session token.
func (f *fixture) account(t *testing.T, username string) string {
	err := f.store.CreateAccount(username, "about "+username, username+"@x.org", "/pic1.jpg", "x123", strings.ToUpper(username))
	require.NoError(t, err)

	token, err := f.store.SessionTokenFor(username)
	require.NoError(t, err)

	return token
}

func (f *fixture) get(target, token string) *http.Response {
	return f.router.OnRequest(http.NewRequest(target, token))
}

type result struct {
	code     status.Code
	body     string
	streamed bool
	cookie   string
}

func read(t *testing.T, response *http.Response) result {
	fields := response.Expose()
	res := result{code: fields.Code, body: string(fields.Body)}

	if fields.Stream != nil {
		res.streamed = true
		content, err := io.ReadAll(fields.Stream)
		require.NoError(t, err)
		res.body = string(content)

		if closer, ok := fields.Stream.(io.Closer); ok {
			require.NoError(t, closer.Close())
		}
	}

	if fields.Cookie != nil {
		res.cookie = fields.Cookie.String()
	}

	return res
}

func (f *fixture) bodies(t *testing.T, username string) []string {
	posts, err := f.store.PostsBy(username)
	require.NoError(t, err)

	var out []string
	for _, post := range posts {
		out = append(out, post.Body)
	}

	return out
}

func TestAnonymous(t *testing.T) {
	f := newFixture(t)
	f.account(t, "bob")

	t.Run("login page as file", func(t *testing.T) {
		res := read(t, f.get("/Login.html", session.Anonymous))
		require.Equal(t, status.OK, res.code)
		require.Equal(t, "<login/>", res.body)
		require.True(t, res.streamed)
		require.Empty(t, res.cookie)
	})

	t.Run("default", func(t *testing.T) {
		for _, target := range []string{"/", "/home", "/bob", "/whatever?x=1"} {
			res := read(t, f.get(target, session.Anonymous))
			require.Equal(t, "<login/>", res.body, target)
		}
	})

	t.Run("signup form", func(t *testing.T) {
		res := read(t, f.get("/makeaprofile", session.Anonymous))
		require.Equal(t, "<signup/>", res.body)
	})

	t.Run("static", func(t *testing.T) {
		res := read(t, f.get("/style.css", session.Anonymous))
		require.Equal(t, status.OK, res.code)
		require.Equal(t, "body{}", res.body)
	})

	t.Run("unknown token", func(t *testing.T) {
		res := read(t, f.get("/home", "abcdefghijabcdefghij"))
		require.Equal(t, "<login/>", res.body)
	})

	t.Run("wrong password", func(t *testing.T) {
		res := read(t, f.get("/?username=bob&password=nope", session.Anonymous))
		require.Equal(t, status.OK, res.code)
		require.Equal(t, "<login-error/>", res.body)
		require.Empty(t, res.cookie)
	})

	t.Run("empty credentials", func(t *testing.T) {
		res := read(t, f.get("/?username=&password=x123", session.Anonymous))
		require.Equal(t, "<login-error/>", res.body)
	})

	t.Run("login", func(t *testing.T) {
		token, err := f.store.SessionTokenFor("bob")
		require.NoError(t, err)

		res := read(t, f.get("/?username=bob&password=x123", session.Anonymous))
		require.Equal(t, status.OK, res.code)
		require.False(t, res.streamed)
		require.Equal(t, "session="+token, res.cookie)
		require.Contains(t, res.body, "<page viewer=bob subject=bob>")
	})
}

func TestSignup(t *testing.T) {
	const target = "/makeaprofile?username=carol&password=p%40ss&email=carol%40x.org" +
		"&name=Carol+Danvers&description=flies%2Bfast&image=pic2.jpg"

	f := newFixture(t)
	res := read(t, f.get(target, session.Anonymous))
	require.Equal(t, status.OK, res.code)
	require.Contains(t, res.body, "<page viewer=carol subject=carol>")

	exists, err := f.store.AccountExists("carol")
	require.NoError(t, err)
	require.True(t, exists)

	token, err := f.store.SessionTokenFor("carol")
	require.NoError(t, err)
	require.Equal(t, "session="+token, res.cookie)

	acc, _, err := f.store.Account("carol")
	require.NoError(t, err)
	require.Equal(t, "Carol Danvers", acc.Name)
	require.Equal(t, "flies+fast", acc.Description)
	require.Equal(t, "/pic2.jpg", acc.Picture)
	require.Equal(t, "carol@x.org", acc.Email)

	ok, err := f.store.VerifyLogin("carol", "p@ss")
	require.NoError(t, err)
	require.True(t, ok)

	t.Run("taken", func(t *testing.T) {
		res := read(t, f.get(target, session.Anonymous))
		require.Equal(t, "<signup/>", res.body)
		require.Empty(t, res.cookie)
	})
}

func TestAuthenticated(t *testing.T) {
	f := newFixture(t)
	alice := f.account(t, "alice")
	bob := f.account(t, "bob")
	f.account(t, "carol")

	t.Run("empty feed", func(t *testing.T) {
		for _, target := range []string{"/home", "/", "/twotter"} {
			res := read(t, f.get(target, alice))
			require.Equal(t, status.OK, res.code)
			require.Empty(t, res.cookie)
			require.Equal(t, 1, strings.Count(res.body, "<nothing/>"), target)
			require.Contains(t, res.body, "<page viewer=alice subject=alice>")
			require.Contains(t, res.body, `href="/alice"`)
		}
	})

	t.Run("post", func(t *testing.T) {
		res := read(t, f.get("/?post=Hello%2BWorld", alice))
		require.Equal(t, status.OK, res.code)
		require.Contains(t, res.body, "Hello World")
		require.NotContains(t, res.body, "<nothing/>")
		require.Equal(t, []string{"Hello World"}, f.bodies(t, "alice"))
	})

	t.Run("precedence", func(t *testing.T) {
		read(t, f.get("/?post=first&follow=bob", alice))
		require.Equal(t, []string{"first", "Hello World"}, f.bodies(t, "alice"))

		following, err := f.store.IsFollowing("alice", "bob")
		require.NoError(t, err)
		require.False(t, following)
	})

	t.Run("no post without a post value", func(t *testing.T) {
		for _, target := range []string{"/?repost=7", "/?post="} {
			res := read(t, f.get(target, alice))
			require.Equal(t, status.OK, res.code, target)
			require.Contains(t, res.body, "<page viewer=alice subject=alice>", target)
		}

		require.Equal(t, []string{"first", "Hello World"}, f.bodies(t, "alice"))
	})

	t.Run("follow", func(t *testing.T) {
		read(t, f.get("/?follow=bob", alice))
		following, err := f.store.IsFollowing("alice", "bob")
		require.NoError(t, err)
		require.True(t, following)

		// repeated follow is a no-op
		res := read(t, f.get("/?follow=bob", alice))
		require.Equal(t, status.OK, res.code)
	})

	t.Run("profiles", func(t *testing.T) {
		res := read(t, f.get("/bob", alice))
		require.Contains(t, res.body, "<page viewer=alice subject=bob>")
		require.Contains(t, res.body, "|<unfollow/></page>")

		res = read(t, f.get("/carol", alice))
		require.Contains(t, res.body, "|<follow carol/></page>")

		res = read(t, f.get("/alice", alice))
		require.Contains(t, res.body, "|<edit/></page>")
		require.Contains(t, res.body, "Hello World")
	})

	t.Run("follow lists", func(t *testing.T) {
		res := read(t, f.get("/followers.html?username=bob", alice))
		require.Contains(t, res.body, "<page viewer=alice subject=bob>")
		require.Contains(t, res.body, `href="/alice"`)

		res = read(t, f.get("/following.html?username=carol", alice))
		require.Contains(t, res.body, "<nothing/>")
	})

	t.Run("search", func(t *testing.T) {
		res := read(t, f.get("/?search=car", alice))
		require.Contains(t, res.body, `href="/carol"`)
		require.NotContains(t, res.body, `href="/bob"`)
	})

	t.Run("unfollow", func(t *testing.T) {
		read(t, f.get("/?unfollow=bob", alice))
		following, err := f.store.IsFollowing("alice", "bob")
		require.NoError(t, err)
		require.False(t, following)
	})

	t.Run("edit profile", func(t *testing.T) {
		res := read(t, f.get("/EditProfile?name=Alice+L&description=tea%21&image=", alice))
		require.Equal(t, status.OK, res.code)

		acc, _, err := f.store.Account("alice")
		require.NoError(t, err)
		require.Equal(t, "Alice L", acc.Name)
		require.Equal(t, "tea!", acc.Description)
		require.Equal(t, "/pic1.jpg", acc.Picture)
	})

	t.Run("re-login", func(t *testing.T) {
		res := read(t, f.get("/?username=bob&password=x123", alice))
		require.Equal(t, "session="+bob, res.cookie)
		require.Contains(t, res.body, "<page viewer=bob subject=bob>")
	})

	t.Run("logout", func(t *testing.T) {
		res := read(t, f.get("/Logout", alice))
		require.Equal(t, status.OK, res.code)
		require.True(t, res.streamed)
		require.Equal(t, "<login/>", res.body)
		require.Equal(t, "session="+session.Anonymous, res.cookie)
	})

	t.Run("static", func(t *testing.T) {
		res := read(t, f.get("/style.css", alice))
		require.Equal(t, "body{}", res.body)
	})

	t.Run("not found", func(t *testing.T) {
		for _, target := range []string{"/nobody", "/../secret.css", "/missing.png"} {
			res := read(t, f.get(target, alice))
			require.Equal(t, status.NotFound, res.code, target)
			require.Equal(t, "<missing/>", res.body, target)
		}
	})
}

func TestDeleteAndResqueak(t *testing.T) {
	f := newFixture(t)
	alice := f.account(t, "alice")
	f.account(t, "bob")

	postOf := func(username, body string) int64 {
		require.NoError(t, f.store.CreatePost(body, username))
		posts, err := f.store.PostsBy(username)
		require.NoError(t, err)

		return posts[0].ID
	}

	t.Run("non-numeric", func(t *testing.T) {
		for _, target := range []string{"/?delete=abc", "/bob?resqueak=x1"} {
			res := read(t, f.get(target, alice))
			require.Equal(t, status.OK, res.code)
			require.Contains(t, res.body, "<page viewer=alice subject=alice>", target)
		}
	})

	t.Run("delete from own profile", func(t *testing.T) {
		id := postOf("alice", "oops")
		res := read(t, f.get("/alice?delete="+itoa(id), alice))
		require.Contains(t, res.body, "<page viewer=alice subject=alice>")
		require.Contains(t, res.body, "<edit/>")
		require.Empty(t, f.bodies(t, "alice"))
	})

	t.Run("delete from feed alias", func(t *testing.T) {
		id := postOf("alice", "oops")
		res := read(t, f.get("/home?delete="+itoa(id), alice))
		require.Contains(t, res.body, "<page viewer=alice subject=alice>")
		require.NotContains(t, res.body, "<edit/>")
	})

	t.Run("resqueak refreshes the page", func(t *testing.T) {
		id := postOf("bob", "worth repeating")
		res := read(t, f.get("/bob?resqueak="+itoa(id), alice))
		require.Contains(t, res.body, "<page viewer=alice subject=bob>")
		require.Contains(t, res.body, "<follow bob/>")
		require.Equal(t, []string{"worth repeating"}, f.bodies(t, "alice"))
	})

	t.Run("residual target", func(t *testing.T) {
		id := postOf("bob", "again")
		res := read(t, f.get("/?search=bo&resqueak="+itoa(id), alice))
		require.Contains(t, res.body, `href="/bob"`)
	})
}

func TestNotFoundFallback(t *testing.T) {
	f := newFixture(t)
	alice := f.account(t, "alice")
	require.NoError(t, os.Remove(filepath.Join(f.root, "404.html")))

	res := read(t, f.get("/nobody", alice))
	require.Equal(t, status.NotFound, res.code)
	require.Equal(t, "<html><body>Error - not found</body></html>", res.body)
}

func TestMissingTemplate(t *testing.T) {
	f := newFixture(t)
	alice := f.account(t, "alice")
	require.NoError(t, os.Remove(filepath.Join(f.root, "template.html")))

	res := read(t, f.get("/home", alice))
	require.Equal(t, status.NotFound, res.code)
	require.Equal(t, "<missing/>", res.body)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func TestShippedTemplates(t *testing.T) {
	store := memory.NewWithCost(bcrypt.MinCost)
	r := New(store, "../examples/HTMLTemplates", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, store.CreateAccount("alice", "", "a@x.org", "/a.png", "x123", "Alice"))
	require.NoError(t, store.CreateAccount("bob", "", "b@x.org", "/b.png", "x123", "Bob"))
	token, err := store.SessionTokenFor("alice")
	require.NoError(t, err)

	for _, target := range []string{"/home", "/bob", "/alice", "/?search=b", "/followers.html?username=bob"} {
		res := read(t, r.OnRequest(http.NewRequest(target, token)))
		require.Equal(t, status.OK, res.code, target)
		require.NotContains(t, res.body, "%user", target)
		require.NotContains(t, res.body, "%posts%", target)
		require.NotContains(t, res.body, "%button%", target)
	}

	res := read(t, r.OnRequest(http.NewRequest("/", session.Anonymous)))
	require.Contains(t, res.body, `<form action="/" method="get">`)

	res = read(t, r.OnRequest(http.NewRequest("/alice.png", token)))
	require.Equal(t, status.OK, res.code)
	require.True(t, strings.HasPrefix(res.body, "\x89PNG"))
}
