package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/bryankimani/todo-list/internal/tasks"
	"github.com/bryankimani/todo-list/internal/todo"
)

const (
	listsPath = "/manage/lists"

	// defaultListParam selects items without a list in the list filter.
	defaultListParam = "default"
)

type homeView struct {
	layout
	Overall todo.Progress
	Lists   []todo.Progress
}

func (h *Handler) handleHome(c echo.Context) error {
	report, err := h.tasks.Progress(c.Request().Context())
	if err != nil {
		return err
	}
	return h.render(c, "home", homeView{
		layout:  layout{Title: "Home", Active: "home", Flash: takeFlash(c)},
		Overall: report.Overall,
		Lists:   report.Lists,
	})
}

// itemFilters are the query parameters of the item pages.
type itemFilters struct {
	List    string
	Starred bool
	From    string
	To      string
}

func readFilters(c echo.Context) itemFilters {
	return itemFilters{
		List:    c.QueryParam("list"),
		Starred: c.QueryParam("starred") == "true",
		From:    strings.TrimSpace(c.QueryParam("from")),
		To:      strings.TrimSpace(c.QueryParam("to")),
	}
}

func (f itemFilters) values() url.Values {
	v := url.Values{}
	if f.List != "" {
		v.Set("list", f.List)
	}
	if f.Starred {
		v.Set("starred", "true")
	}
	if f.From != "" {
		v.Set("from", f.From)
	}
	if f.To != "" {
		v.Set("to", f.To)
	}
	return v
}

func (f itemFilters) url(path string, page int) string {
	v := f.values()
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

// filter converts the form state into a todo.Filter.
func (h *Handler) filter(f itemFilters, completed bool) (todo.Filter, error) {
	out := todo.Filter{Complete: &completed}
	switch f.List {
	case "":
	case defaultListParam:
		id := todo.DefaultListID
		out.ListID = &id
	default:
		id := f.List
		out.ListID = &id
	}
	if f.Starred {
		starred := true
		out.Starred = &starred
	}

	var err error
	if out.From, err = todo.ParseDay(f.From, false, h.config.Location); err != nil {
		return out, err
	}
	if out.To, err = todo.ParseDay(f.To, true, h.config.Location); err != nil {
		return out, err
	}
	if completed {
		out.DateField = todo.DateCompleted
	}
	return out, out.Validate()
}

type itemView struct {
	todo.Item
	ListName string
	Editing  bool
}

type itemsView struct {
	layout
	Path    string
	Items   []itemView
	Lists   []todo.List
	Filters itemFilters
	Page    todo.Page
	PrevURL string
	NextURL string

	// Return is the current page without the edit parameter. Forms post
	// it back so actions redirect to where the user was.
	Return           string
	DefaultListParam string
}

// EditURL returns the current page with the inline editor open for id.
func (v itemsView) EditURL(id string) string {
	q := v.Filters.values()
	if v.Page.Number > 1 {
		q.Set("page", strconv.Itoa(v.Page.Number))
	}
	q.Set("edit", id)
	return v.Path + "?" + q.Encode()
}

func (h *Handler) handleTodos(c echo.Context) error {
	return h.itemsPage(c, "todos", "/todos", false)
}

func (h *Handler) handleCompleted(c echo.Context) error {
	return h.itemsPage(c, "completed", "/completed", true)
}

func (h *Handler) itemsPage(c echo.Context, name, path string, completed bool) error {
	ctx := c.Request().Context()
	flash := takeFlash(c)

	filters := readFilters(c)
	filter, err := h.filter(filters, completed)
	if err != nil {
		if !errors.Is(err, todo.ErrInvalidFilter) {
			return err
		}
		flash = &Flash{Kind: FlashError, Message: "Invalid date range."}
		filters.From, filters.To = "", ""
		if filter, err = h.filter(filters, completed); err != nil {
			return err
		}
	}

	pageNum, _ := strconv.Atoi(c.QueryParam("page"))
	res, err := h.tasks.Items(ctx, tasks.Query{
		Filter:   filter,
		Page:     pageNum,
		PageSize: h.config.PageSize,
	})
	if err != nil {
		return err
	}

	lists, err := h.tasks.Lists(ctx)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(lists))
	for _, l := range lists {
		names[l.ID] = l.Name
	}

	editID := c.QueryParam("edit")
	items := make([]itemView, len(res.Items))
	for i, item := range res.Items {
		name, ok := names[item.ListID]
		if !ok {
			name = todo.DefaultListName
		}
		items[i] = itemView{Item: item, ListName: name, Editing: !completed && item.ID == editID}
	}

	title := "To-Do"
	if completed {
		title = "Completed"
	}
	view := itemsView{
		layout:           layout{Title: title, Active: name, Flash: flash},
		Path:             path,
		Items:            items,
		Lists:            lists,
		Filters:          filters,
		Page:             res.Page,
		Return:           filters.url(path, res.Page.Number),
		DefaultListParam: defaultListParam,
	}
	if res.Page.HasPrev() {
		view.PrevURL = filters.url(path, res.Page.Prev())
	}
	if res.Page.HasNext() {
		view.NextURL = filters.url(path, res.Page.Next())
	}
	return h.render(c, name, view)
}

type confirmView struct {
	layout
	Item   todo.Item
	Return string
}

func (h *Handler) handleConfirmDelete(c echo.Context) error {
	item, err := h.tasks.Item(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, todo.ErrNotFound) {
			setFlash(c, FlashError, "Failed to delete task.")
			return c.Redirect(http.StatusSeeOther, safeReturn(c.QueryParam("return"), "/todos"))
		}
		h.logger.Error("failed to load item", zap.String("id", c.Param("id")), zap.Error(err))
		return err
	}
	return h.render(c, "confirm", confirmView{
		layout: layout{Title: "Delete task", Active: "todos"},
		Item:   item,
		Return: safeReturn(c.QueryParam("return"), "/todos"),
	})
}

// safeReturn accepts only local absolute paths.
func safeReturn(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}
