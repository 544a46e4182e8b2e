// Package server serves a read-only browser preview of a notes file and
// pushes a refresh event whenever the file changes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/Rancor38/Jot-Down/internal/document"
	"github.com/Rancor38/Jot-Down/internal/logger"
	"github.com/Rancor38/Jot-Down/internal/markdown"
	"github.com/Rancor38/Jot-Down/internal/store"
)

// maxSaveBody bounds POST /save request bodies.
const maxSaveBody = 8 << 20

type Config struct {
	Store       store.Store
	Title       string
	Placeholder string
}

type Server struct {
	cfg  Config
	tmpl *template.Template

	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("server: missing store")
	}
	if cfg.Title == "" {
		cfg.Title = "Jot Down"
	}
	tmpl, err := template.New("index").Parse(indexHTML)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, tmpl: tmpl, subs: make(map[chan struct{}]struct{})}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("GET /saved", s.handleSaved)
	mux.HandleFunc("GET /fetch", s.handleFetch)
	mux.HandleFunc("POST /save", s.handleSave)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /static/app.css", s.handleCSS)
	mux.HandleFunc("GET /static/app.js", s.handleJS)
	return withSecurityHeaders(mux)
}

// Forward relays change notifications to connected browsers until ctx is
// done or changes is closed.
func (s *Server) Forward(ctx context.Context, changes <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			s.Notify()
		}
	}
}

// Notify tells every open event stream to refresh.
func (s *Server) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Server) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan struct{}) {
	s.mu.Lock()
	delete(s.subs, ch)
	s.mu.Unlock()
}

// Render turns the whole text into preview markup, one block per unit.
// Unit content is inserted unescaped.
func Render(text, placeholder string) template.HTML {
	doc := document.Deserialize(text)
	sole := doc.Len() == 1
	var b strings.Builder
	for _, u := range doc.Units() {
		b.WriteString(`<div class="unit">`)
		b.WriteString(markdown.Render(u.Content, markdown.Options{Sole: sole, Placeholder: placeholder}))
		b.WriteString("</div>\n")
	}
	return template.HTML(b.String())
}

type indexModel struct {
	Title string
	Body  template.HTML
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (string, bool) {
	text, err := s.cfg.Store.Load(r.Context())
	if err != nil {
		logger.Error("preview load failed", "op", "load", "path", s.cfg.Store.Location(), "err", err)
		http.Error(w, "could not read notes", http.StatusInternalServerError)
		return "", false
	}
	return text, true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	text, ok := s.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = s.tmpl.Execute(w, indexModel{Title: s.cfg.Title, Body: Render(text, s.cfg.Placeholder)})
}

func (s *Server) handleSaved(w http.ResponseWriter, r *http.Request) {
	text, ok := s.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(Render(text, s.cfg.Placeholder)))
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	text, ok := s.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(text))
}

type saveRequest struct {
	Data *string `json:"data"`
}

// sameOrigin rejects requests a browser sent on behalf of another site.
// Clients that send neither header, such as curl, are allowed.
func sameOrigin(r *http.Request) bool {
	switch r.Header.Get("Sec-Fetch-Site") {
	case "", "same-origin", "none":
	default:
		return false
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if !sameOrigin(r) {
		http.Error(w, "cross-origin save refused", http.StatusForbidden)
		return
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		http.Error(w, "expected application/json", http.StatusUnsupportedMediaType)
		return
	}
	var req saveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSaveBody))
	if err := dec.Decode(&req); err != nil || req.Data == nil {
		http.Error(w, "expected {\"data\": text}", http.StatusBadRequest)
		return
	}
	if err := s.cfg.Store.Save(r.Context(), *req.Data); err != nil {
		logger.Error("preview save failed", "op", "save", "path", s.cfg.Store.Location(), "err", err)
		http.Error(w, "Error saving file", http.StatusInternalServerError)
		return
	}
	s.Notify()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("File saved successfully"))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.subscribe()
	defer s.unsubscribe(ch)
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			if _, err := fmt.Fprint(w, "data: refresh\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(appCSS))
}

func (s *Server) handleJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(appJS))
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self'; script-src 'self'; base-uri 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

const indexHTML = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="/static/app.css" />
  </head>
  <body>
    <main class="notes" id="notes">
{{.Body}}
    </main>
    <script src="/static/app.js"></script>
  </body>
</html>
`

const appCSS = `body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
.unit { min-height: 1.4em; }
.placeholder { color: #999; font-style: italic; }
mark { background: #ffe066; }
blockquote { border-left: 3px solid #ccc; margin: 0; padding-left: 0.75rem; color: #555; }
code { background: #f3f3f3; padding: 0 0.2em; }
`

const appJS = `(function () {
  var source = new EventSource("/events");
  source.onmessage = function (ev) {
    if (ev.data !== "refresh") return;
    fetch("/saved").then(function (r) { return r.text(); }).then(function (html) {
      document.getElementById("notes").innerHTML = html;
    });
  };
})();
`
