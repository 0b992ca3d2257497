// Package site renders the human-facing money list page.
package site

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/types"
)

// ErrRender is returned when the page template fails.
var ErrRender = errors.New("site render failed")

const pageSize = 25

// Source provides the data shown on the page.
type Source interface {
	TopN(ctx context.Context, n int) ([]types.Entry, error)
	Course() course.Profile
}

// Register attaches the page to GET / on r.
func Register(r chi.Router, src Source) {
	if r == nil || src == nil {
		panic("site: nil router or source")
	}
	r.Get("/", NewRootHandler(src).HandleRoot)
}

// RootHandler renders the money list.
type RootHandler struct {
	src Source
}

// NewRootHandler creates a new root handler.
func NewRootHandler(src Source) *RootHandler {
	return &RootHandler{src: src}
}

type pageData struct {
	Course  course.Profile
	Entries []types.Entry
}

// HandleRoot handles GET / requests.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	entries, err := h.src.TopN(r.Context(), pageSize)
	if err != nil {
		http.Error(w, ErrRender.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, pageData{Course: h.src.Course(), Entries: entries}); err != nil {
		http.Error(w, ErrRender.Error(), http.StatusInternalServerError)
	}
}

var page = template.Must(template.New("index").Funcs(template.FuncMap{
	"money": formatUnits,
}).Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>Skins Money List</title>
    <style>body{font-family:sans-serif;margin:2em}td,th{padding:.25em 1em;text-align:left}</style>
  </head>
  <body>
    <h1>Money list</h1>
    <p>{{.Course.Name}} &middot; {{.Course.Holes}} holes &middot; <a href="/docs/">API docs</a></p>
    {{if .Entries}}
    <table>
      <tr><th>#</th><th>Player</th><th>Winnings</th><th>Skins</th><th>Games</th></tr>
      {{range .Entries}}
      <tr><td>{{.Rank}}</td><td>{{if .Name}}{{.Name}}{{else}}{{.PlayerID}}{{end}}</td><td>{{money .Winnings}}</td><td>{{.Skins}}</td><td>{{.Games}}</td></tr>
      {{end}}
    </table>
    {{else}}
    <p>No games settled yet.</p>
    {{end}}
  </body>
</html>`))
