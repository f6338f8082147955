package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bryankimani/todo-list/internal/tasks"
	"github.com/bryankimani/todo-list/internal/todo"
)

const (
	headerTotalCount = "X-Total-Count"
	defaultPageLimit = 10
)

// parseItemQuery reads json-server style query parameters.
//
//	isComplete, starred  true|false
//	listId               exact match, empty selects the default list
//	from, to, dateField  inclusive range over createdAt|updatedAt|completedAt
//	q                    substring of heading or body
//	_sort, _order        createdAt|updatedAt|heading, asc|desc
//	_page, _limit        1-based page and page size
func (s *Server) parseItemQuery(c echo.Context) (tasks.Query, bool, error) {
	var q tasks.Query
	params := c.QueryParams()

	var err error
	if q.Filter.Complete, err = boolParam(params.Get("isComplete"), "isComplete"); err != nil {
		return q, false, err
	}
	if q.Filter.Starred, err = boolParam(params.Get("starred"), "starred"); err != nil {
		return q, false, err
	}
	if _, ok := params["listId"]; ok {
		listID := params.Get("listId")
		q.Filter.ListID = &listID
	}

	if q.Filter.DateField, err = todo.ParseDateField(params.Get("dateField")); err != nil {
		return q, false, err
	}
	if q.Filter.From, err = todo.ParseDay(params.Get("from"), false, s.config.Location); err != nil {
		return q, false, err
	}
	if q.Filter.To, err = todo.ParseDay(params.Get("to"), true, s.config.Location); err != nil {
		return q, false, err
	}
	q.Filter.Query = params.Get("q")

	if sortBy := params.Get("_sort"); sortBy != "" {
		if q.Sort, err = todo.ParseSortField(sortBy); err != nil {
			return q, false, err
		}
	}
	switch strings.ToLower(params.Get("_order")) {
	case "", "asc":
	case "desc":
		q.Desc = true
	default:
		return q, false, fmt.Errorf("%w: _order must be asc or desc", todo.ErrInvalidFilter)
	}

	page, err := intParam(params.Get("_page"), "_page")
	if err != nil {
		return q, false, err
	}
	limit, err := intParam(params.Get("_limit"), "_limit")
	if err != nil {
		return q, false, err
	}
	paged := page > 0 || limit > 0
	if paged {
		if page == 0 {
			page = 1
		}
		if limit == 0 {
			limit = defaultPageLimit
		}
		q.Page, q.PageSize = page, limit
	}
	return q, paged, nil
}

func boolParam(v, name string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", todo.ErrInvalidFilter, name)
	}
	return &b, nil
}

func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", todo.ErrInvalidFilter, name)
	}
	return n, nil
}

func (s *Server) handleListItems(c echo.Context) error {
	q, paged, err := s.parseItemQuery(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if q.Filter.ListID != nil {
		ctx = withListID(c, *q.Filter.ListID)
	}

	res, err := s.tasks.Items(ctx, q)
	if err != nil {
		return err
	}
	if paged {
		c.Response().Header().Set(headerTotalCount, strconv.Itoa(res.Page.TotalItems))
	}
	return c.JSON(http.StatusOK, res.Items)
}

func (s *Server) handleGetItem(c echo.Context) error {
	item, err := s.tasks.Item(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func bindError(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
}

func (s *Server) handleCreateItem(c echo.Context) error {
	var in tasks.ItemInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	ctx := withListID(c, in.ListID)

	item, err := s.tasks.CreateItem(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

func (s *Server) handleReplaceItem(c echo.Context) error {
	var in tasks.ReplaceInput
	if err := c.Bind(&in); err != nil {
		return bindError(err)
	}
	item, err := s.tasks.ReplaceItem(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (s *Server) handlePatchItem(c echo.Context) error {
	var p todo.Patch
	if err := c.Bind(&p); err != nil {
		return bindError(err)
	}
	ctx := c.Request().Context()
	id := c.Param("id")

	var (
		item todo.Item
		err  error
	)
	if p.IsEmpty() {
		item, err = s.tasks.Item(ctx, id)
	} else {
		item, err = s.tasks.PatchItem(ctx, id, p)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (s *Server) handleDeleteItem(c echo.Context) error {
	if err := s.tasks.DeleteItem(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, struct{}{})
}
