package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bryankimani/todo-list/internal/logging"
)

// withListID tags the request context with a list id so service and
// request logs carry it.
func withListID(c echo.Context, listID string) context.Context {
	ctx := logging.WithListID(c.Request().Context(), listID)
	c.SetRequest(c.Request().WithContext(ctx))
	return ctx
}

// ListInput is the body of list create and rename requests.
type ListInput struct {
	Name string `json:"name"`
}

func (s *Server) handleListLists(c echo.Context) error {
	lists, err := s.tasks.Lists(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lists)
}

func (s *Server) handleGetList(c echo.Context) error {
	list, err := s.tasks.List(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) handleCreateList(c echo.Context) error {
	var in ListInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	list, err := s.tasks.CreateList(c.Request().Context(), in.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, list)
}

func (s *Server) handleRenameList(c echo.Context) error {
	var in ListInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	ctx := withListID(c, c.Param("id"))

	list, err := s.tasks.RenameList(ctx, c.Param("id"), in.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// handleDeleteList removes a list. Lists with items need ?cascade=true.
func (s *Server) handleDeleteList(c echo.Context) error {
	cascade := false
	if v := c.QueryParam("cascade"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "cascade must be true or false")
		}
		cascade = b
	}
	ctx := withListID(c, c.Param("id"))

	removed, err := s.tasks.DeleteList(ctx, c.Param("id"), cascade)
	if err != nil {
		return err
	}
	c.Response().Header().Set("X-Items-Deleted", strconv.Itoa(removed))
	return c.JSON(http.StatusOK, struct{}{})
}
