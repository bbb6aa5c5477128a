package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/rollbook/internal/web/flash"
	"github.com/saltyorg/rollbook/internal/web/templates"
)

// Base holds what every app's handlers need to answer a request
type Base struct {
	app       string
	title     string
	templates *templates.Set
	flash     *flash.Store
}

// NewBase creates the shared handler state for app ("roster" or "school")
func NewBase(app, title string, tmpls *templates.Set, flashes *flash.Store) Base {
	return Base{
		app:       app,
		title:     title,
		templates: tmpls,
		flash:     flashes,
	}
}

// PageData contains common data for all pages
type PageData struct {
	Title   string
	App     string
	Flashes []flash.Message
	Content any
}

// render renders a page with common data. The page is buffered so a
// template error still produces a clean 500.
func (h *Base) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	pageData := PageData{
		Title:   h.title,
		App:     h.app,
		Content: data,
	}
	if title != "" {
		pageData.Title = title + " - " + h.title
	}

	// Popped before rendering so the clearing cookie precedes the body
	pageData.Flashes = h.flash.Pop(w, r)

	var buf bytes.Buffer
	if err := h.templates.Render(&buf, name, pageData); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// flashSuccess queues a success message for the next page
func (h *Base) flashSuccess(w http.ResponseWriter, r *http.Request, message string) {
	h.flash.Add(w, r, flash.Success, message)
}

// flashDanger queues an error or destructive-action message for the next page
func (h *Base) flashDanger(w http.ResponseWriter, r *http.Request, message string) {
	h.flash.Add(w, r, flash.Danger, message)
}

// redirect redirects to a URL
func (h *Base) redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// serverError logs err and answers 500
func (h *Base) serverError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

var errBadID = errors.New("invalid id")

// pathID parses the {id} route parameter as a positive integer
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}
