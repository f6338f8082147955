package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/bryankimani/todo-list/internal/logging"
	"github.com/bryankimani/todo-list/internal/todo"
)

type listRow struct {
	todo.List
	Total     int
	Completed int
	Percent   int
}

type listsView struct {
	layout
	Lists    []listRow
	Path     string
	Renaming string
}

func (h *Handler) handleLists(c echo.Context) error {
	ctx := c.Request().Context()
	lists, err := h.tasks.Lists(ctx)
	if err != nil {
		return err
	}
	report, err := h.tasks.Progress(ctx)
	if err != nil {
		return err
	}
	counts := make(map[string]todo.Progress, len(report.Lists))
	for _, p := range report.Lists {
		counts[p.ListID] = p
	}

	rows := make([]listRow, len(lists))
	for i, l := range lists {
		p := counts[l.ID]
		rows[i] = listRow{List: l, Total: p.Total, Completed: p.Completed, Percent: p.Percent}
	}
	return h.render(c, "lists", listsView{
		layout:   layout{Title: "Lists", Active: "lists", Flash: takeFlash(c)},
		Lists:    rows,
		Path:     listsPath,
		Renaming: c.QueryParam("rename"),
	})
}

func listErrorMessage(err error) string {
	switch {
	case errors.Is(err, todo.ErrDuplicateList):
		return "A list with that name already exists."
	case errors.Is(err, todo.ErrInvalidList):
		return "List name is required and must be at most 100 characters."
	case errors.Is(err, todo.ErrNotFound):
		return "That list no longer exists."
	case errors.Is(err, todo.ErrListNotEmpty):
		return "The list still has tasks. Tick \"Delete its tasks\" to remove them too."
	}
	return "Failed to update lists."
}

func (h *Handler) backToLists(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, listsPath)
}

func (h *Handler) handleCreateList(c echo.Context) error {
	list, err := h.tasks.CreateList(c.Request().Context(), c.FormValue("name"))
	if err != nil {
		h.logger.Warn("failed to create list", zap.Error(err))
		setFlash(c, FlashError, listErrorMessage(err))
		return h.backToLists(c)
	}
	setFlash(c, FlashSuccess, fmt.Sprintf("List %q created.", list.Name))
	return h.backToLists(c)
}

func (h *Handler) handleRenameList(c echo.Context) error {
	ctx := logging.WithListID(c.Request().Context(), c.Param("id"))
	list, err := h.tasks.RenameList(ctx, c.Param("id"), c.FormValue("name"))
	if err != nil {
		h.logger.Warn("failed to rename list", zap.String("id", c.Param("id")), zap.Error(err))
		setFlash(c, FlashError, listErrorMessage(err))
		return h.backToLists(c)
	}
	setFlash(c, FlashSuccess, fmt.Sprintf("List renamed to %q.", list.Name))
	return h.backToLists(c)
}

func (h *Handler) handleDeleteList(c echo.Context) error {
	ctx := logging.WithListID(c.Request().Context(), c.Param("id"))
	cascade := c.FormValue("cascade") == "on"
	removed, err := h.tasks.DeleteList(ctx, c.Param("id"), cascade)
	if err != nil {
		h.logger.Warn("failed to delete list", zap.String("id", c.Param("id")), zap.Error(err))
		setFlash(c, FlashError, listErrorMessage(err))
		return h.backToLists(c)
	}

	msg := "List deleted."
	if removed > 0 {
		msg = fmt.Sprintf("List deleted with %d tasks.", removed)
	}
	setFlash(c, FlashSuccess, msg)
	return h.backToLists(c)
}
