package router

import (
	"strconv"

	"github.com/indigo-web/twotter/http"
	"github.com/indigo-web/twotter/http/cookie"
	"github.com/indigo-web/twotter/http/status"
	"github.com/indigo-web/twotter/internal/session"
	"github.com/indigo-web/twotter/internal/urlencoded"
)

func (r *Router) login(request *http.Request) (*http.Response, error) {
	username := urlencoded.Decode(request.Query.Value("username"), urlencoded.Punctuation, urlencoded.PlusKeep)
	password := urlencoded.Decode(request.Query.Value("password"), urlencoded.Punctuation, urlencoded.PlusKeep)

	if len(username) == 0 || len(password) == 0 {
		return r.file(pageLoginError)
	}

	ok, err := r.portal.VerifyLogin(username, password)
	if err != nil {
		r.collaboratorFailed("verifying login", err)
	}

	if !ok {
		return r.file(pageLoginError)
	}

	return r.enter(username, pageLoginError)
}

func (r *Router) signup(request *http.Request) (*http.Response, error) {
	var (
		query       = request.Query
		username    = urlencoded.Decode(query.Value("username"), urlencoded.Punctuation, urlencoded.PlusKeep)
		password    = urlencoded.Decode(query.Value("password"), urlencoded.Punctuation, urlencoded.PlusKeep)
		email       = urlencoded.Decode(query.Value("email"), urlencoded.Punctuation, urlencoded.PlusKeep)
		name        = urlencoded.Decode(query.Value("name"), urlencoded.Punctuation, urlencoded.PlusFirst)
		description = urlencoded.Decode(query.Value("description"), urlencoded.Punctuation, urlencoded.PlusFirst)
		image       = "/" + urlencoded.Decode(query.Value("image"), urlencoded.Punctuation, urlencoded.PlusKeep)
	)

	if r.accountExists(username) || r.emailTaken(email) {
		return r.file(pageSignup)
	}

	if err := r.portal.CreateAccount(username, description, email, image, password, name); err != nil {
		r.collaboratorFailed("creating account", err)
		return r.file(pageSignup)
	}

	return r.enter(username, pageSignup)
}

// enter responds with the feed of a freshly authenticated account and hands its token over
// to the client. If the token can't be retrieved, the fallback page is served instead.
func (r *Router) enter(username, fallback string) (*http.Response, error) {
	token, err := r.portal.SessionTokenFor(username)
	if err != nil {
		r.collaboratorFailed("retrieving session token", err)
		return r.file(fallback)
	}

	response, err := r.feed(identity{token: token, username: username})
	if err != nil {
		return nil, err
	}

	return response.Cookie(cookie.Session(token)), nil
}

func (r *Router) logout() (*http.Response, error) {
	response, err := r.file(pageLogin)
	if err != nil {
		return nil, err
	}

	return response.Cookie(cookie.Session(session.Anonymous)), nil
}

func (r *Router) delete(request *http.Request, id identity) (*http.Response, error) {
	postID, ok := numeric(request.Query.Value("delete"))
	if !ok {
		return r.feed(id)
	}

	if err := r.portal.DeletePost(postID); err != nil {
		r.collaboratorFailed("deleting post", err)
	}

	return r.redirect(request, id, "delete=")
}

func (r *Router) resqueak(request *http.Request, id identity) (*http.Response, error) {
	postID, ok := numeric(request.Query.Value("resqueak"))
	if !ok {
		return r.feed(id)
	}

	if err := r.portal.Repost(id.token, postID); err != nil {
		r.collaboratorFailed("reposting", err)
	}

	return r.redirect(request, id, "resqueak=")
}

func (r *Router) post(request *http.Request, id identity) (*http.Response, error) {
	// the marker also matches keys like repost=, which carry no post key at all
	body := urlencoded.Decode(request.Query.Value("post"), urlencoded.Punctuation, urlencoded.PlusLast)
	if len(body) == 0 {
		return r.feed(id)
	}

	if err := r.portal.CreatePost(body, id.username); err != nil {
		r.collaboratorFailed("creating post", err)
	}

	return r.feed(id)
}

func (r *Router) follow(request *http.Request, id identity) (*http.Response, error) {
	target := urlencoded.Decode(request.Query.Value("follow"), urlencoded.None, urlencoded.PlusKeep)
	if err := r.portal.Follow(id.token, target); err != nil {
		r.collaboratorFailed("following", err)
	}

	return r.feed(id)
}

func (r *Router) unfollow(request *http.Request, id identity) (*http.Response, error) {
	target := urlencoded.Decode(request.Query.Value("unfollow"), urlencoded.None, urlencoded.PlusKeep)
	if err := r.portal.Unfollow(id.token, target); err != nil {
		r.collaboratorFailed("unfollowing", err)
	}

	return r.feed(id)
}

func (r *Router) editProfile(request *http.Request, id identity) (*http.Response, error) {
	var (
		query       = request.Query
		name        = urlencoded.Decode(query.Value("name"), urlencoded.Punctuation, urlencoded.PlusLast)
		description = urlencoded.Decode(query.Value("description"), urlencoded.Punctuation, urlencoded.PlusLast)
		image       = urlencoded.Decode(query.Value("image"), urlencoded.Punctuation, urlencoded.PlusKeep)
	)

	edits := []struct {
		value string
		apply func(token, value string) error
	}{
		{name, r.portal.SetDisplayName},
		{description, r.portal.SetDescription},
		{image, func(token, value string) error {
			return r.portal.SetPicture(token, "/"+value)
		}},
	}

	for _, edit := range edits {
		if len(edit.value) == 0 {
			continue
		}

		if err := edit.apply(id.token, edit.value); err != nil {
			r.collaboratorFailed("editing profile", err)
		}
	}

	return r.feed(id)
}

func (r *Router) emailTaken(email string) bool {
	taken, err := r.portal.EmailTaken(email)
	if err != nil {
		r.collaboratorFailed("checking email", err)
		return false
	}

	return taken
}

func (r *Router) file(path string) (*http.Response, error) {
	return r.assets.Serve(path)
}

func (r *Router) notFound() *http.Response {
	response, err := r.assets.Serve(pageNotFound)
	if err != nil {
		return http.NewResponse().Error(status.ErrNotFound)
	}

	return response.Code(status.NotFound)
}

func numeric(value string) (int64, bool) {
	n, err := strconv.ParseInt(value, 10, 64)
	return n, err == nil
}
