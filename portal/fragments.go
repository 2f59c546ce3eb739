package portal

import (
	"html/template"
	"strings"
)

var (
	accountTemplate = template.Must(template.New("account").Parse(
		`<div class="user">` +
			`<img class="avatar" src="{{.Picture}}" alt="{{.Username}}">` +
			`<h2>{{.Name}}</h2>` +
			`<a class="handle" href="/{{.Username}}">@{{.Username}}</a>` +
			`<p>{{.Description}}</p>` +
			`<a href="/followers.html?username={{.Username}}">followers</a> ` +
			`<a href="/following.html?username={{.Username}}">following</a>` +
			`</div>`,
	))

	postTemplate = template.Must(template.New("post").Parse(
		`<div class="post" id="post{{.ID}}">` +
			`<img class="avatar" src="{{.Picture}}" alt="{{.Author}}">` +
			`<a class="handle" href="/{{.Author}}">@{{.Author}}</a>` +
			`{{if ne .PostedBy .Author}} <span class="resqueak">resqueaked by ` +
			`<a href="/{{.PostedBy}}">@{{.PostedBy}}</a></span>{{end}}` +
			`<p>{{.Body}}</p>` +
			`<time>{{.Timestamp.Format "2006-01-02 15:04"}}</time> ` +
			`<a href="?resqueak={{.ID}}">resqueak</a> ` +
			`<a href="?delete={{.ID}}">delete</a>` +
			`</div>`,
	))
)

// Fragments renders accounts and posts into HTML. User-supplied content is escaped. It's
// meant to be embedded into Portal implementations.
type Fragments struct{}

func (Fragments) AccountHTML(account Account) string {
	return execute(accountTemplate, account)
}

func (Fragments) PostHTML(post Post) string {
	return execute(postTemplate, post)
}

func execute(tmpl *template.Template, data any) string {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		// both templates only access fields known to exist
		panic(err)
	}

	return b.String()
}
