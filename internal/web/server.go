// Package web serves the change listing and diff review UI, plus a JSON API
// mirroring the same operations.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/regwatch/regwatch/internal/diff"
	"github.com/regwatch/regwatch/internal/log"
	"github.com/regwatch/regwatch/internal/review"
	"github.com/regwatch/regwatch/internal/search"
	"github.com/regwatch/regwatch/internal/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server handles HTTP requests for the review UI and API.
type Server struct {
	svc       *review.Service
	db        *store.DB
	idx       *search.Index // nil disables search
	templates *template.Template
}

// NewServer creates a server over the review service. idx may be nil when no
// search index is available.
func NewServer(svc *review.Service, db *store.DB, idx *search.Index) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"datetime": func(t time.Time) string {
			return t.Format("Mon, 02 Jan 2006 15:04 MST")
		},
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Server{
		svc:       svc,
		db:        db,
		idx:       idx,
		templates: tmpl,
	}, nil
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.FileServer(http.FS(staticFS)))

	mux.HandleFunc("GET /{$}", s.handleList)
	mux.HandleFunc("GET /change/{id}", s.handleDetail)

	mux.HandleFunc("GET /api/changes", s.handleAPIChanges)
	mux.HandleFunc("GET /api/changes/{id}", s.handleAPIChangeDetail)
	mux.HandleFunc("GET /api/search", s.handleAPISearch)
	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

type listPage struct {
	Changes    []store.ChangeSummary
	Unreviewed int
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	listing, err := s.svc.ListCurrent(r.Context())
	if err != nil {
		log.WithError(err).Errorf("list changes")
		s.renderError(w, http.StatusInternalServerError,
			"Failed to load updates. Please try again later.", true)
		return
	}

	page := listPage{Changes: listing.Changes, Unreviewed: listing.Unreviewed}
	s.render(w, "list.html", page)
}

type detailPage struct {
	Detail   *store.ChangeDetail
	Segments []diff.Segment
	View     string
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	changeID := r.PathValue("id")

	detail, err := s.svc.ViewDetail(r.Context(), changeID)
	if errors.Is(err, store.ErrNotFound) {
		s.renderError(w, http.StatusNotFound, "Change not found", false)
		return
	}
	if err != nil {
		log.WithError(err).Errorf("change detail %s", changeID)
		s.renderError(w, http.StatusInternalServerError,
			"Failed to load change details", false)
		return
	}

	view := r.URL.Query().Get("view")
	if view != "unified" {
		view = "split"
	}

	page := detailPage{
		Detail:   detail,
		Segments: diff.Compute(detail.OldContent, detail.NewContent),
		View:     view,
	}
	s.render(w, "detail.html", page)
}

type errorPage struct {
	Message string
	Retry   bool
}

func (s *Server) renderError(w http.ResponseWriter, status int, message string, retry bool) {
	w.WriteHeader(status)
	s.render(w, "error.html", errorPage{Message: message, Retry: retry})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.WithError(err).Errorf("render %s", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handleAPIChanges(w http.ResponseWriter, r *http.Request) {
	listing, err := s.svc.ListCurrent(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list changes")
		return
	}

	changes := listing.Changes
	if changes == nil {
		changes = []store.ChangeSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"changes":    changes,
		"unreviewed": listing.Unreviewed,
	})
}

func (s *Server) handleAPIChangeDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.ViewDetail(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "change not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load change")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	if s.idx == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "search index not available")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSONError(w, http.StatusBadRequest, "missing q parameter")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	results, err := s.idx.Search(query, limit)
	if err != nil {
		log.WithError(err).Errorf("search %q", query)
		writeJSONError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if results == nil {
		results = []*search.Result{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	regs, _ := s.db.CountRegulations(r.Context())
	total, unreviewed, _ := s.db.CountChanges(r.Context())

	status := map[string]any{
		"status":             "ok",
		"regulations":        regs,
		"changes":            total,
		"unreviewed_changes": unreviewed,
	}
	if s.idx != nil {
		if count, err := s.idx.Count(); err == nil {
			status["regulations_in_index"] = count
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Errorf("encode response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
