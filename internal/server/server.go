// Package server exposes the stored articles and events over a JSON API.
package server

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/geomonitor/internal/database"
	"github.com/TobiSchelling/geomonitor/internal/quality"
	"github.com/TobiSchelling/geomonitor/internal/taxonomy"
)

//go:embed overview.md
var overviewMD []byte

const maxQueryBody = 1 << 20

// Server is the HTTP server for the read API.
type Server struct {
	db       *database.DB
	router   *chi.Mux
	overview []byte
	logger   *slog.Logger
}

// New creates a new Server.
func New(db *database.DB, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var buf bytes.Buffer
	buf.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>geomonitor</title></head><body>`)
	if err := goldmark.New(goldmark.WithExtensions(extension.Table)).Convert(overviewMD, &buf); err != nil {
		return nil, fmt.Errorf("rendering overview: %w", err)
	}
	buf.WriteString("</body></html>")

	s := &Server{db: db, router: chi.NewRouter(), overview: buf.Bytes(), logger: logger}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Get("/stats", s.handleStats)
	r.Get("/articles", s.handleArticles)
	r.Get("/articles/{id}", s.handleArticle)
	r.Get("/events", s.handleEvents)
	r.Get("/events/{eventID}", s.handleEvent)
	r.Get("/full-export", s.handleFullExport)
	r.Post("/query", s.handleQuery)
	r.Get("/quality", s.handleQuality)
	r.Get("/runs", s.handleRuns)
	r.Get("/taxonomy", s.handleTaxonomy)
	r.Get("/countries", s.handleCountries)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(s.overview)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	articles, err := s.db.ListArticles(r.Context(), database.ArticleFilter{
		Status:  q.Get("status"),
		Country: strings.ToUpper(q.Get("country")),
		Limit:   queryInt(r, "limit", 0),
		Offset:  queryInt(r, "offset", 0),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(articles))
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid article id"))
		return
	}
	article, err := s.db.GetArticleByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if article == nil {
		writeJSON(w, http.StatusNotFound, errorBody("article not found"))
		return
	}
	events, err := s.db.EventsForArticle(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*database.Article
		Events []database.Event `json:"events"`
	}{article, orEmpty(events)})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := database.EventFilter{
		SubDimension: q.Get("sub_dimension"),
		Direction:    strings.ToLower(q.Get("direction")),
		Country:      strings.ToUpper(q.Get("country")),
		Limit:        queryInt(r, "limit", 0),
		Offset:       queryInt(r, "offset", 0),
	}
	if d := q.Get("dimension"); d != "" {
		canonical, ok := taxonomy.CanonicalDimension(d)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("unknown dimension %q", d)))
			return
		}
		f.Dimension = canonical
	}
	events, err := s.db.ListEvents(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(events))
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.db.GetEvent(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ev == nil {
		writeJSON(w, http.StatusNotFound, errorBody("event not found"))
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleFullExport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.FullExport(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(rows))
}

type queryRequest struct {
	SQL     string `json:"sql"`
	MaxRows int    `json:"max_rows"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("sql is required"))
		return
	}
	res, err := s.db.ReadOnlyQuery(r.Context(), req.SQL, req.MaxRows)
	if err != nil {
		if errors.Is(err, database.ErrNotSelect) || errors.Is(err, database.ErrUnavailable) {
			s.writeError(w, err)
			return
		}
		// The statement itself failed: bad column, syntax and the like.
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	report, err := quality.Build(r.Context(), s.db)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.ListRuns(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(runs))
}

func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.db.TaxonomyPairs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(pairs))
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	list, err := s.db.Countries(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(list))
}

// writeError maps storage errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotSelect):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, database.ErrUnavailable):
		s.logger.Error("storage unavailable", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody("storage unavailable"))
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal server error"))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Serve starts the HTTP server on the given port and stops it when ctx is
// done.
func Serve(ctx context.Context, db *database.DB, port int, logger *slog.Logger) error {
	srv, err := New(db, logger)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Info("server listening", "url", "http://"+addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
