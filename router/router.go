// Package router decides what to do with a request. The decision depends on whether the
// caller has a session, and within each state on a fixed order of substring checks against
// the raw request target. The first check that holds wins.
package router

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/indigo-web/twotter/http"
	"github.com/indigo-web/twotter/http/status"
	"github.com/indigo-web/twotter/internal/render"
	"github.com/indigo-web/twotter/internal/session"
	"github.com/indigo-web/twotter/internal/static"
	"github.com/indigo-web/twotter/portal"
)

// Templates and assets the router refers to by name.
const (
	pageLogin      = "/Login.html"
	pageLoginError = "/LoginError.html"
	pageSignup     = "/makeAProfile.html"
	pageNotFound   = "/404.html"

	templatePage      = "template.html"
	templateNothing   = "nothing_here.html"
	templateFollow    = "follow.html"
	templateUnfollow  = "unfollow.html"
	templateEditOwner = "editprofile.html"
)

// Aliases of the pages with a fixed meaning.
const (
	aliasRoot     = "/twotter"
	aliasHome     = "/home"
	aliasLogout   = "/Logout"
	aliasSignup   = "/makeaprofile"
	aliasEdit     = "/EditProfile"
	markFollowers = "/followers.html"
	markFollowing = "/following.html"
)

// Router is safe for concurrent use as long as the portal is.
type Router struct {
	portal   portal.Portal
	pages    *render.Engine
	assets   *static.Server
	sessions session.Resolver
	logger   *slog.Logger
}

// New returns a router serving pages and assets out of the same root.
func New(p portal.Portal, root string, logger *slog.Logger) *Router {
	return &Router{
		portal:   p,
		pages:    render.New(root),
		assets:   static.New(root),
		sessions: session.NewResolver(p, logger),
		logger:   logger,
	}
}

// identity is the session state of a single request. An empty username means anonymous.
type identity struct {
	token    string
	username string
}

func (i identity) anonymous() bool {
	return len(i.username) == 0
}

// OnRequest resolves the session the request carries and dispatches it. The returned
// response is never nil.
func (r *Router) OnRequest(request *http.Request) *http.Response {
	id := identity{token: request.Session}
	if username, ok := r.sessions.Resolve(request.Session); ok {
		id.username = username
	}

	return r.dispatch(request, id)
}

// OnError builds the response for a request that failed before it could be dispatched, or
// for an action that failed in a way it couldn't recover from.
func (r *Router) OnError(request *http.Request, err error) *http.Response {
	if errors.Is(err, status.ErrNotFound) {
		return r.notFound()
	}

	if request != nil {
		r.logger.Error("handling request",
			slog.String("target", request.Target),
			slog.String("error", err.Error()),
		)
	}

	if !errors.As(err, new(status.HTTPError)) {
		err = status.ErrInternalServerError
	}

	return http.NewResponse().Error(err)
}

func (r *Router) dispatch(request *http.Request, id identity) *http.Response {
	var (
		response *http.Response
		err      error
	)

	if id.anonymous() {
		response, err = r.dispatchAnonymous(request)
	} else {
		response, err = r.dispatchAuthenticated(request, id)
	}

	if err != nil {
		return r.OnError(request, err)
	}

	return response
}

func (r *Router) dispatchAnonymous(request *http.Request) (*http.Response, error) {
	target := request.Target

	switch {
	case target == aliasSignup:
		return r.file(pageSignup)
	case strings.HasPrefix(target, aliasSignup) &&
		containsAll(target, "username=", "password=", "email=", "name=", "description=", "image="):
		return r.signup(request)
	case strings.Contains(target, "."):
		return r.file(request.Path)
	case containsAll(target, "username=", "password="):
		return r.login(request)
	default:
		return r.file(pageLogin)
	}
}

func (r *Router) dispatchAuthenticated(request *http.Request, id identity) (*http.Response, error) {
	target := request.Target

	switch {
	case target == aliasRoot || target == "/" || target == aliasHome:
		return r.feed(id)
	case target == aliasLogout:
		return r.logout()
	case strings.Contains(target, markFollowers):
		return r.followList(request, id, r.portal.Followers)
	case strings.Contains(target, markFollowing):
		return r.followList(request, id, r.portal.Following)
	case containsAll(target, "username=", "password=") && !strings.Contains(target, "image="):
		return r.login(request)
	case strings.Contains(target, "delete="):
		return r.delete(request, id)
	case strings.Contains(target, "post="):
		return r.post(request, id)
	case strings.Contains(target, "resqueak="):
		return r.resqueak(request, id)
	case strings.Contains(target, "unfollow="):
		return r.unfollow(request, id)
	case strings.Contains(target, "follow="):
		return r.follow(request, id)
	case strings.Contains(target, "search="):
		return r.search(request, id)
	case strings.HasPrefix(target, aliasEdit) && containsAll(target, "name=", "description=", "image="):
		return r.editProfile(request, id)
	case len(target) > 0 && r.accountExists(target[1:]):
		return r.profile(id, target[1:])
	case hasAnySuffix(target, ".css", ".js", ".jpg", ".html", ".png"):
		return r.file(request.Path)
	default:
		return r.notFound(), nil
	}
}

// redirect picks the page to show after a post was deleted or reposted from the target. The
// marker is the query key that triggered the action, including its equality sign.
func (r *Router) redirect(request *http.Request, id identity, marker string) (*http.Response, error) {
	target := request.Target

	switch {
	case strings.HasPrefix(target, "/"+id.username):
		return r.profile(id, id.username)
	case hasAnyPrefix(target, aliasHome, aliasLogout, "/makeAProfile", aliasEdit):
		return r.feed(id)
	}

	// cut the marker off together with the character preceding it and show whatever is left
	offset := strings.Index(target, marker)
	if offset < 2 {
		return r.feed(id)
	}

	residual := http.NewRequest(target[:offset-1], request.Session)
	residual.Remote = request.Remote

	return r.dispatch(residual, id), nil
}

func (r *Router) accountExists(username string) bool {
	exists, err := r.portal.AccountExists(username)
	if err != nil {
		r.collaboratorFailed("checking account", err)
		return false
	}

	return exists
}

func (r *Router) collaboratorFailed(action string, err error) {
	r.logger.Warn(action, slog.String("error", err.Error()))
}

func containsAll(str string, substrs ...string) bool {
	for _, substr := range substrs {
		if !strings.Contains(str, substr) {
			return false
		}
	}

	return true
}

func hasAnyPrefix(str string, prefixes ...string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(str, prefix) {
			return true
		}
	}

	return false
}

func hasAnySuffix(str string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(str, suffix) {
			return true
		}
	}

	return false
}
