// Package api exposes resolved content over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/stateful-content/pkg/statefulcontent"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Route string `json:"route,omitempty"`
}

// CourseSummary is a course without its lessons.
type CourseSummary struct {
	ID               string `json:"id"`
	Slug             string `json:"slug"`
	Title            string `json:"title"`
	ShortDescription string `json:"short_description,omitempty"`
	Duration         int    `json:"duration,omitempty"`
	SkillLevel       string `json:"skill_level,omitempty"`
	State            string `json:"state"`
}

// LessonResponse is a lesson along with the course it belongs to.
type LessonResponse struct {
	Course CourseSummary           `json:"course"`
	Lesson *statefulcontent.Lesson `json:"lesson"`
}

// SessionRequest is the body of PUT /session. Omitted fields keep their value.
type SessionRequest struct {
	APIMode           *string `json:"api_mode,omitempty"`
	Locale            *string `json:"locale,omitempty"`
	EditorialFeatures *bool   `json:"editorial_features,omitempty"`
}

// ContentHandler serves resolved courses, lessons and layouts.
type ContentHandler struct {
	services *statefulcontent.ServiceContext
	logger   *slog.Logger
}

// NewContentHandler creates a new content handler.
func NewContentHandler(services *statefulcontent.ServiceContext, logger *slog.Logger) *ContentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentHandler{
		services: services,
		logger:   logger,
	}
}

// Routes returns the routes for content.
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/courses", h.ListCourses)
	r.Get("/courses/{slug}", h.GetCourse)
	r.Get("/courses/{slug}/lessons/{lessonSlug}", h.GetLesson)
	r.Get("/categories", h.ListCategories)
	r.Get("/layouts/{slug}", h.GetHomeLayout)

	r.Get("/session", h.GetSession)
	r.Put("/session", h.UpdateSession)

	return r
}

// ListCourses lists courses, optionally filtered with ?category=<id>.
func (h *ContentHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	svc := h.services.Current()
	courses, err := svc.FetchCourses(r.Context(), statefulcontent.Identifier(r.URL.Query().Get("category")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]CourseSummary, len(courses))
	for i, c := range courses {
		out[i] = summarize(c)
	}
	render.JSON(w, r, out)
}

// GetCourse returns a course with its lessons and modules, state resolved.
func (h *ContentHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	svc := h.services.Current()

	course, err := svc.FetchCourse(r.Context(), slug)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	course = svc.ResolveCourseState(r.Context(), course)
	render.JSON(w, r, course)
}

// GetLesson returns one lesson of a course, state resolved.
func (h *ContentHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	lessonSlug := chi.URLParam(r, "lessonSlug")
	svc := h.services.Current()

	course, lesson, err := svc.FetchLesson(r.Context(), slug, lessonSlug)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	lesson = svc.ResolveLessonState(r.Context(), lesson)
	render.JSON(w, r, LessonResponse{Course: summarize(course), Lesson: lesson})
}

// ListCategories lists course categories.
func (h *ContentHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.services.Current().FetchCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, categories)
}

// GetHomeLayout returns a home layout with its modules, state resolved.
func (h *ContentHandler) GetHomeLayout(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	svc := h.services.Current()

	layout, err := svc.FetchHomeLayout(r.Context(), slug)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	layout = svc.ResolveHomeLayoutState(r.Context(), layout)
	render.JSON(w, r, layout)
}

// GetSession returns the current session.
func (h *ContentHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.services.Current().Session().Session())
}

// UpdateSession changes API mode, locale or editorial features.
func (h *ContentHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "invalid request body"})
		return
	}

	session := h.services.Current().Session()
	next := session.Session()
	if req.APIMode != nil {
		mode, err := statefulcontent.ParseAPIMode(*req.APIMode)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: err.Error()})
			return
		}
		next.APIMode = mode
	}
	if req.Locale != nil && *req.Locale != "" {
		next.Locale = *req.Locale
	}
	if req.EditorialFeatures != nil {
		next.EditorialFeatures = *req.EditorialFeatures
	}

	session.Update(next)
	h.logger.Info("session updated", "api_mode", next.APIMode, "locale", next.Locale, "editorial_features", next.EditorialFeatures)
	render.JSON(w, r, session.Session())
}

func (h *ContentHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var noContent *statefulcontent.NoContentError
	var fetchErr *statefulcontent.FetchError

	switch {
	case errors.As(err, &noContent):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Error: err.Error(), Route: noContent.Route})
	case errors.Is(err, statefulcontent.ErrDecode):
		h.logger.Error("failed to decode content", "path", r.URL.Path, "err", err)
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, ErrorResponse{Error: err.Error()})
	case errors.As(err, &fetchErr) && fetchErr.RateLimited:
		if fetchErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(fetchErr.RetryAfter/time.Second)))
		}
		render.Status(r, http.StatusTooManyRequests)
		render.JSON(w, r, ErrorResponse{Error: err.Error()})
	case errors.Is(err, statefulcontent.ErrFetch):
		h.logger.Error("failed to fetch content", "path", r.URL.Path, "err", err)
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: err.Error()})
	}
}

func summarize(c *statefulcontent.Course) CourseSummary {
	return CourseSummary{
		ID:               string(c.ID),
		Slug:             c.Slug,
		Title:            c.Title,
		ShortDescription: c.ShortDescription,
		Duration:         c.Duration,
		SkillLevel:       c.SkillLevel,
		State:            string(c.ResourceState()),
	}
}
