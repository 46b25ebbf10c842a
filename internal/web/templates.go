// ABOUTME: Template data types and rendering for the front end pages
// ABOUTME: Parses embedded templates once and renders markdown copy with goldmark

package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"sort"

	"github.com/yuin/goldmark"

	"github.com/2389/argent-web/internal/flow"
	"github.com/2389/argent-web/internal/session"
)

// layoutData is shared by every page through the base template.
type layoutData struct {
	Title     string
	CSRFToken string
	SignedIn  bool
	FirstName string
}

type homeData struct {
	layoutData
	Hero     template.HTML
	Features []template.HTML
}

type signInData struct {
	layoutData
	Form flow.SignInForm
}

type account struct {
	Title       string
	Amount      string
	Description string
}

type userData struct {
	layoutData
	Profile    session.Profile
	HasProfile bool
	Error      string
	Editing    bool
	Edit       flow.EditForm
	Accounts   []account
}

// demoAccounts are the static account cards of the user page.
var demoAccounts = []account{
	{Title: "Argent Bank Checking (x8349)", Amount: "$2,082.79", Description: "Available Balance"},
	{Title: "Argent Bank Savings (x6712)", Amount: "$10,928.42", Description: "Available Balance"},
	{Title: "Argent Bank Credit Card (x8349)", Amount: "$184.30", Description: "Current Balance"},
}

// pages holds the parsed templates and rendered markdown.
type pages struct {
	home     *template.Template
	signIn   *template.Template
	user     *template.Template
	hero     template.HTML
	features []template.HTML
}

func loadPages() (*pages, error) {
	p := &pages{}

	for name, dst := range map[string]**template.Template{
		"home.html":    &p.home,
		"sign_in.html": &p.signIn,
		"user.html":    &p.user,
	} {
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		*dst = tmpl
	}

	hero, err := renderMarkdown("content/hero.md")
	if err != nil {
		return nil, err
	}
	p.hero = hero

	names, err := fs.Glob(contentFS, "content/features/*.md")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	for _, name := range names {
		html, err := renderMarkdown(name)
		if err != nil {
			return nil, err
		}
		p.features = append(p.features, html)
	}

	return p, nil
}

// renderMarkdown converts an embedded markdown file to HTML.
func renderMarkdown(name string) (template.HTML, error) {
	src, err := contentFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path.Base(name), err)
	}

	var buf bytes.Buffer
	if err := goldmark.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("converting %s: %w", path.Base(name), err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // embedded, trusted content
}

// layout builds the header data from the device's session.
func layout(title string, req *request) layoutData {
	snap := req.store.Snapshot()
	d := layoutData{
		Title:     title,
		CSRFToken: req.csrf,
		SignedIn:  snap.HasToken(),
	}
	if p, ok := snap.Profile(); ok {
		d.FirstName = p.FirstName
	}
	return d
}

func (a *App) render(w http.ResponseWriter, req *request, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		req.logger.Error("failed to render page", "template", tmpl.Name(), "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w) //nolint:errcheck // client went away
}

func (a *App) renderHome(w http.ResponseWriter, req *request) {
	a.render(w, req, http.StatusOK, a.pages.home, homeData{
		layoutData: layout("Home Page", req),
		Hero:       a.pages.hero,
		Features:   a.pages.features,
	})
}

func (a *App) renderSignIn(w http.ResponseWriter, req *request, status int, form flow.SignInForm) {
	a.render(w, req, status, a.pages.signIn, signInData{
		layoutData: layout("Sign In", req),
		Form:       form,
	})
}

func (a *App) renderUser(w http.ResponseWriter, req *request, view flow.UserView) {
	p, ok := view.Session.Profile()
	a.render(w, req, http.StatusOK, a.pages.user, userData{
		layoutData: layout("Profile", req),
		Profile:    p,
		HasProfile: ok,
		Error:      view.Session.Error,
		Editing:    view.Editing,
		Edit:       view.Edit,
		Accounts:   demoAccounts,
	})
}
