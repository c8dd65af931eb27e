// Package api serves the story graph over HTTP: chapter upload, the list view,
// graph JSON and the rendered visualization page.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/storymap/storymap/internal/chapter"
	"github.com/storymap/storymap/internal/story"
	"github.com/storymap/storymap/internal/storygraph"
)

// maxBodyBytes bounds an upload request body.
const maxBodyBytes = 16 << 20

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	svc       *story.Service
	selection *storygraph.Selection
	validate  *validator.Validate
	logger    zerolog.Logger

	layout   string
	origins  []string
	onStored func([]chapter.Chapter)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithLayout sets the layout used by /viz when the request names none.
func WithLayout(layout string) Option {
	return func(s *Server) {
		if layout != "" {
			s.layout = layout
		}
	}
}

// WithAllowedOrigins sets the CORS origins allowed to call the API.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithOnStored registers fn to run after an upload stores chapters. It receives
// the chapters that reached storage, including those stored before a failure.
func WithOnStored(fn func([]chapter.Chapter)) Option {
	return func(s *Server) {
		s.onStored = fn
	}
}

// WithSelection shares a selection with the server instead of a fresh one.
func WithSelection(sel *storygraph.Selection) Option {
	return func(s *Server) {
		if sel != nil {
			s.selection = sel
		}
	}
}

// NewServer creates a Server over svc.
func NewServer(svc *story.Service, opts ...Option) *Server {
	s := &Server{
		svc:       svc,
		selection: storygraph.NewSelection(),
		validate:  validator.New(),
		logger:    zerolog.Nop(),
		layout:    "force",
		origins:   []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler configures all routes and middleware.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", s.health)
	router.Get("/viz", s.vizPage)

	router.Route("/api", func(r chi.Router) {
		r.Post("/stories", s.uploadStory)
		r.Get("/chapters", s.listChapters)
		r.Get("/graph", s.graph)
		r.Get("/selection", s.getSelection)
		r.Post("/selection", s.setSelection)
	})

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}
