package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/bryankimani/todo-list/internal/tasks"
	"github.com/bryankimani/todo-list/internal/todo"
)

const (
	msgRequired      = "Heading and body are required."
	msgDeleted       = "Task deleted successfully!"
	msgDeleteFailed  = "Failed to delete task."
	msgCreated       = "Task added."
	msgUpdated       = "Task updated."
	msgUpdateFailed  = "Failed to update task."
	msgCreateFailed  = "Failed to add task."
	msgMissingTask   = "That task no longer exists."
	msgUnknownList   = "That list no longer exists."
	msgInvalidTask   = "Heading or body is too long."
	defaultReturnURL = "/todos"
)

func (h *Handler) back(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, safeReturn(c.FormValue("return"), defaultReturnURL))
}

// itemForm reads the create and edit form. ok is false when heading or
// body is blank.
func itemForm(c echo.Context) (in tasks.ItemInput, ok bool) {
	in = tasks.ItemInput{
		Heading: strings.TrimSpace(c.FormValue("heading")),
		Body:    strings.TrimSpace(c.FormValue("body")),
		ListID:  c.FormValue("list"),
	}
	if in.ListID == defaultListParam {
		in.ListID = todo.DefaultListID
	}
	return in, in.Heading != "" && in.Body != ""
}

// itemErrorMessage picks the toast for a failed item write.
func itemErrorMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, todo.ErrNotFound):
		return msgMissingTask
	case errors.Is(err, todo.ErrUnknownList):
		return msgUnknownList
	case errors.Is(err, todo.ErrInvalidItem):
		return msgInvalidTask
	}
	return fallback
}

func (h *Handler) handleCreate(c echo.Context) error {
	in, ok := itemForm(c)
	if !ok {
		setFlash(c, FlashError, msgRequired)
		return h.back(c)
	}
	item, err := h.tasks.CreateItem(c.Request().Context(), in)
	if err != nil {
		h.logger.Warn("failed to create item", zap.Error(err))
		setFlash(c, FlashError, itemErrorMessage(err, msgCreateFailed))
		return h.back(c)
	}
	h.logger.Debug("created item from form", zap.String("id", item.ID))
	setFlash(c, FlashSuccess, msgCreated)
	return h.back(c)
}

func (h *Handler) handleEdit(c echo.Context) error {
	in, ok := itemForm(c)
	if !ok {
		setFlash(c, FlashError, msgRequired)
		return h.back(c)
	}
	_, err := h.tasks.PatchItem(c.Request().Context(), c.Param("id"), todo.Patch{
		Heading: &in.Heading,
		Body:    &in.Body,
		ListID:  &in.ListID,
	})
	if err != nil {
		h.logger.Warn("failed to update item", zap.String("id", c.Param("id")), zap.Error(err))
		setFlash(c, FlashError, itemErrorMessage(err, msgUpdateFailed))
		return h.back(c)
	}
	setFlash(c, FlashSuccess, msgUpdated)
	return h.back(c)
}

// setComplete returns a handler that moves an item to the given state.
// Resubmitting the form leaves the item where it is.
func (h *Handler) setComplete(complete bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := h.tasks.SetComplete(c.Request().Context(), c.Param("id"), complete); err != nil {
			h.logger.Warn("failed to update completion", zap.String("id", c.Param("id")),
				zap.Bool("complete", complete), zap.Error(err))
			setFlash(c, FlashError, itemErrorMessage(err, msgUpdateFailed))
		}
		return h.back(c)
	}
}

func (h *Handler) handleStar(c echo.Context) error {
	starred, err := strconv.ParseBool(c.FormValue("starred"))
	if err != nil {
		setFlash(c, FlashError, msgUpdateFailed)
		return h.back(c)
	}
	if _, err := h.tasks.SetStarred(c.Request().Context(), c.Param("id"), starred); err != nil {
		h.logger.Warn("failed to update star", zap.String("id", c.Param("id")), zap.Error(err))
		setFlash(c, FlashError, itemErrorMessage(err, msgUpdateFailed))
	}
	return h.back(c)
}

func (h *Handler) handleDelete(c echo.Context) error {
	if err := h.tasks.DeleteItem(c.Request().Context(), c.Param("id")); err != nil {
		h.logger.Warn("failed to delete item", zap.String("id", c.Param("id")), zap.Error(err))
		setFlash(c, FlashError, msgDeleteFailed)
		return h.back(c)
	}
	setFlash(c, FlashSuccess, msgDeleted)
	return h.back(c)
}
