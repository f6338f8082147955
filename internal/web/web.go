// Package web renders the browser UI.
//
// Pages are server-rendered with html/template. Every mutation is a form
// POST followed by a redirect, and the next page renders from the store,
// so what the user sees is always the committed state.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/bryankimani/todo-list/internal/tasks"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"home", "todos", "completed", "confirm", "lists"}

// Config holds UI settings.
type Config struct {
	// PageSize is the number of items per page on /todos and /completed.
	PageSize int

	// Location is used to display timestamps and to read date filters.
	Location *time.Location
}

// Handler serves the HTML pages.
type Handler struct {
	tasks     tasks.Service
	logger    *zap.Logger
	config    Config
	templates map[string]*template.Template
	markdown  *markdownRenderer
}

// New parses the embedded templates.
func New(svc tasks.Service, logger *zap.Logger, cfg Config) (*Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("tasks service cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	h := &Handler{
		tasks:     svc,
		logger:    logger,
		config:    cfg,
		templates: make(map[string]*template.Template, len(pages)),
		markdown:  newMarkdownRenderer(),
	}

	funcs := template.FuncMap{
		"markdown": h.markdown.HTML,
		"date":     h.formatTime,
	}
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/partials.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		h.templates[name] = t
	}
	return h, nil
}

// Render implements echo.Renderer.
func (h *Handler) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := h.templates[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// Register installs the page routes and the renderer on e.
func (h *Handler) Register(e *echo.Echo) {
	e.Renderer = h

	e.GET("/", h.handleHome)

	e.GET("/todos", h.handleTodos)
	e.POST("/todos", h.handleCreate)
	e.POST("/todos/:id/edit", h.handleEdit)
	e.POST("/todos/:id/complete", h.setComplete(true))
	e.POST("/todos/:id/reopen", h.setComplete(false))
	e.POST("/todos/:id/star", h.handleStar)
	e.GET("/todos/:id/delete", h.handleConfirmDelete)
	e.POST("/todos/:id/delete", h.handleDelete)

	e.GET("/completed", h.handleCompleted)

	e.GET(listsPath, h.handleLists)
	e.POST(listsPath, h.handleCreateList)
	e.POST(listsPath+"/:id/rename", h.handleRenameList)
	e.POST(listsPath+"/:id/delete", h.handleDeleteList)
}

// formatTime accepts time.Time or *time.Time.
func (h *Handler) formatTime(v any) string {
	var t time.Time
	switch tv := v.(type) {
	case time.Time:
		t = tv
	case *time.Time:
		if tv != nil {
			t = *tv
		}
	}
	if t.IsZero() {
		return ""
	}
	return t.In(h.config.Location).Format("Jan 2, 2006 15:04")
}

// layout is the data every page shares.
type layout struct {
	Title  string
	Active string
	Flash  *Flash
}

func (h *Handler) render(c echo.Context, name string, data any) error {
	return c.Render(http.StatusOK, name, data)
}
