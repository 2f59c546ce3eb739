package router

import (
	"fmt"
	"strings"

	"github.com/indigo-web/twotter/http"
	"github.com/indigo-web/twotter/http/status"
	"github.com/indigo-web/twotter/internal/render"
	"github.com/indigo-web/twotter/internal/urlencoded"
	"github.com/indigo-web/twotter/portal"
)

func (r *Router) feed(id identity) (*http.Response, error) {
	posts, err := r.portal.FeedFor(id.username)
	if err != nil {
		r.collaboratorFailed("loading feed", err)
	}

	listing, err := r.postsHTML(posts)
	if err != nil {
		return nil, err
	}

	return r.assemble(id, id.username, listing, "")
}

func (r *Router) profile(id identity, username string) (*http.Response, error) {
	posts, err := r.portal.PostsBy(username)
	if err != nil {
		r.collaboratorFailed("loading posts", err)
	}

	listing, err := r.postsHTML(posts)
	if err != nil {
		return nil, err
	}

	button, err := r.button(id, username)
	if err != nil {
		return nil, err
	}

	return r.assemble(id, username, listing, button)
}

func (r *Router) followList(
	request *http.Request, id identity, list func(username string) ([]portal.Account, error),
) (*http.Response, error) {
	username := urlencoded.Decode(request.Query.Value("username"), urlencoded.None, urlencoded.PlusKeep)
	accounts, err := list(username)
	if err != nil {
		r.collaboratorFailed("listing follows", err)
	}

	listing, err := r.accountsHTML(accounts)
	if err != nil {
		return nil, err
	}

	return r.assemble(id, username, listing, "")
}

func (r *Router) search(request *http.Request, id identity) (*http.Response, error) {
	term := urlencoded.Decode(request.Query.Value("search"), urlencoded.None, urlencoded.PlusKeep)
	accounts, err := r.portal.SearchAccounts(term)
	if err != nil {
		r.collaboratorFailed("searching", err)
	}

	listing, err := r.accountsHTML(accounts)
	if err != nil {
		return nil, err
	}

	return r.assemble(id, id.username, listing, "")
}

// button picks the fragment offered on a profile: editing for the owner, otherwise following
// or unfollowing depending on whether the viewer already follows the account.
func (r *Router) button(id identity, username string) (string, error) {
	name := templateFollow

	if username == id.username {
		name = templateEditOwner
	} else {
		following, err := r.portal.IsFollowing(id.username, username)
		if err != nil {
			r.collaboratorFailed("checking follow", err)
		}

		if following {
			name = templateUnfollow
		}
	}

	fragment, err := r.pages.Load(name)
	if err != nil {
		return "", err
	}

	return render.Substitute(fragment, render.Page{Viewer: id.username, Subject: username}), nil
}

// assemble renders the page template about the subject, with the listing in place of posts.
func (r *Router) assemble(id identity, subject, listing, button string) (*http.Response, error) {
	account, found, err := r.portal.Account(subject)
	if err != nil {
		return nil, fmt.Errorf("loading account %s: %w", subject, err)
	}

	if !found {
		return nil, fmt.Errorf("%w: no account %s", status.ErrNotFound, subject)
	}

	page, err := r.pages.Render(templatePage, render.Page{
		Viewer:          id.username,
		Subject:         subject,
		UserInformation: r.portal.AccountHTML(account),
		Posts:           listing,
		Button:          button,
	})
	if err != nil {
		return nil, err
	}

	return http.NewResponse().String(page), nil
}

func (r *Router) postsHTML(posts []portal.Post) (string, error) {
	if len(posts) == 0 {
		return r.pages.Load(templateNothing)
	}

	var b strings.Builder
	for _, post := range posts {
		b.WriteString(r.portal.PostHTML(post))
	}

	return b.String(), nil
}

func (r *Router) accountsHTML(accounts []portal.Account) (string, error) {
	if len(accounts) == 0 {
		return r.pages.Load(templateNothing)
	}

	var b strings.Builder
	for _, account := range accounts {
		b.WriteString(r.portal.AccountHTML(account))
	}

	return b.String(), nil
}
