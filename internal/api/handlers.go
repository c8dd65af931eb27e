package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/storymap/storymap/internal/chapter"
	"github.com/storymap/storymap/internal/source"
	"github.com/storymap/storymap/internal/storygraph"
	"github.com/storymap/storymap/internal/viz"
)

// uploadRequest is the body of POST /api/stories.
type uploadRequest struct {
	Title    string          `json:"title" validate:"omitempty,max=200"`
	Owner    string          `json:"owner" validate:"required,max=100"`
	Chapters []uploadChapter `json:"chapters" validate:"required,min=1,max=200,dive"`
}

type uploadChapter struct {
	Filename string `json:"filename" validate:"required,max=255"`
	Title    string `json:"title" validate:"omitempty,max=200"`
	Content  string `json:"content"`
}

// drafts converts the request into chapter drafts. A chapter without a title takes
// the story title, then its first heading or filename.
func (req uploadRequest) drafts() []chapter.Draft {
	drafts := make([]chapter.Draft, 0, len(req.Chapters))
	for _, c := range req.Chapters {
		title := c.Title
		if title == "" {
			title = req.Title
		}
		if title == "" {
			title = source.Title(c.Filename, c.Content)
		}
		drafts = append(drafts, chapter.Draft{
			Owner:    req.Owner,
			Filename: c.Filename,
			Title:    title,
			Content:  c.Content,
			Source:   &chapter.Source{Type: chapter.SourceAPI},
		})
	}
	return drafts
}

func (s *Server) uploadStory(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	stored, err := s.svc.AddChapters(r.Context(), req.drafts())
	if len(stored) > 0 && s.onStored != nil {
		s.onStored(stored)
	}
	if err != nil {
		if isDraftError(err) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Str("owner", req.Owner).Int("stored", len(stored)).Msg("Failed to store chapters")
		s.respondError(w, http.StatusInternalServerError, "failed to store chapters")
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Story uploaded successfully",
		"owner":    req.Owner,
		"chapters": stored,
	})
}

// isDraftError reports whether err is a problem with the submitted chapters rather
// than with storage.
func isDraftError(err error) bool {
	return errors.Is(err, chapter.ErrOrderingKey) ||
		errors.Is(err, chapter.ErrEmptyOwner) ||
		errors.Is(err, chapter.ErrEmptyTitle) ||
		errors.Is(err, chapter.ErrEmptyFilename)
}

// isAssemblyError reports whether err means the stored chapters cannot form a graph,
// as opposed to a failure reading them.
func isAssemblyError(err error) bool {
	return errors.Is(err, chapter.ErrOrderingKey) ||
		errors.Is(err, storygraph.ErrReservedID) ||
		errors.Is(err, storygraph.ErrDuplicateID)
}

// validationMessage names the offending fields of a validator error.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Namespace()+" failed "+fe.Tag())
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

func (s *Server) listChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := s.svc.ListChapters(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list chapters")
		s.respondError(w, http.StatusInternalServerError, "failed to list chapters")
		return
	}

	owner := r.URL.Query().Get("owner")
	filtered := make([]chapter.Chapter, 0, len(chapters))
	for _, c := range chapters {
		if owner == "" || c.Owner == owner {
			filtered = append(filtered, c)
		}
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := viz.RenderList(w, filtered); err != nil {
			s.logger.Error().Err(err).Msg("Failed to write list")
		}
		return
	}
	s.respondJSON(w, http.StatusOK, filtered)
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.BuildGraph(r.Context())
	if err != nil {
		if isAssemblyError(err) {
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Failed to build graph")
		s.respondError(w, http.StatusInternalServerError, "failed to build graph")
		return
	}
	s.respondJSON(w, http.StatusOK, viz.FromGraph(g))
}

func (s *Server) vizPage(w http.ResponseWriter, r *http.Request) {
	layout := r.URL.Query().Get("layout")
	if layout == "" {
		layout = s.layout
	}
	var selection storygraph.SelectionReader = s.selection
	if owner := r.URL.Query().Get("select"); owner != "" {
		only := storygraph.NewSelection()
		only.Select(owner)
		selection = only
	}

	g, err := s.svc.BuildGraph(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if isAssemblyError(err) {
			status = http.StatusUnprocessableEntity
		} else {
			s.logger.Error().Err(err).Msg("Failed to build graph")
		}
		s.respondHTML(w, status, viz.GenerateErrorHTML(err))
		return
	}

	page, err := viz.GenerateHTML(viz.FromGraph(g), viz.HTMLOptions{Layout: layout, Selection: selection})
	if err != nil {
		s.respondHTML(w, http.StatusBadRequest, viz.GenerateErrorHTML(err))
		return
	}
	s.respondHTML(w, http.StatusOK, page)
}

func (s *Server) respondHTML(w http.ResponseWriter, status int, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(page)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write page")
	}
}

type selectionBody struct {
	Owner string `json:"owner" validate:"required"`
}

func (s *Server) getSelection(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.selection.Current()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"owner": owner, "selected": ok})
}

func (s *Server) setSelection(w http.ResponseWriter, r *http.Request) {
	var body selectionBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(body); err != nil {
		s.respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	s.selection.Select(body.Owner)
	s.getSelection(w, r)
}

// Selection exposes the server's selection for tests and embedding programs.
func (s *Server) Selection() storygraph.SelectionReader {
	return s.selection
}
