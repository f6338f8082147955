package tasks

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bryankimani/todo-list/internal/events"
	"github.com/bryankimani/todo-list/internal/store"
	"github.com/bryankimani/todo-list/internal/todo"
)

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Close() error { return nil }

func (r *recorder) subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Subject()
	}
	return out
}

type fixture struct {
	svc   Service
	store *store.Memory
	pub   *recorder
	clock *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	f := &fixture{
		store: store.NewMemory(nil),
		pub:   &recorder{},
		clock: &now,
	}
	seq := 0
	svc, err := NewService(f.store, f.pub, zap.NewNop(),
		WithClock(func() time.Time { return *f.clock }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func TestNewService_RequiresStore(t *testing.T) {
	_, err := NewService(nil, nil, nil)
	require.Error(t, err)
}

func TestCreateItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.CreateItem(ctx, ItemInput{Heading: "  Buy milk ", Body: "2 litres"})
	require.NoError(t, err)

	assert.Equal(t, "id-1", item.ID)
	assert.Equal(t, "Buy milk", item.Heading)
	assert.False(t, item.IsComplete)
	assert.Nil(t, item.CompletedAt)
	assert.Equal(t, *f.clock, item.CreatedAt)
	assert.Equal(t, item.CreatedAt, item.UpdatedAt)

	got, err := f.svc.Item(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item, got)
	assert.Equal(t, []string{"todo.items.created"}, f.pub.subjects())
}

func TestCreateItem_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ItemInput
	}{
		{"missing heading", ItemInput{Body: "b"}},
		{"missing body", ItemInput{Heading: "h"}},
		{"unknown list", ItemInput{Heading: "h", Body: "b", ListID: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateItem(ctx, tt.in)
			assert.ErrorIs(t, err, todo.ErrInvalidItem)
		})
	}
	assert.Empty(t, f.pub.subjects())
}

func TestSetComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.CreateItem(ctx, ItemInput{Heading: "h", Body: "b"})
	require.NoError(t, err)

	f.advance(time.Hour)
	done, err := f.svc.SetComplete(ctx, item.ID, true)
	require.NoError(t, err)
	assert.True(t, done.IsComplete)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, *f.clock, *done.CompletedAt)
	assert.Equal(t, *f.clock, done.UpdatedAt)
	assert.Equal(t, item.CreatedAt, done.CreatedAt)

	t.Run("repeating keeps completedAt", func(t *testing.T) {
		f.advance(time.Hour)
		again, err := f.svc.SetComplete(ctx, item.ID, true)
		require.NoError(t, err)
		assert.True(t, again.IsComplete)
		require.NotNil(t, again.CompletedAt)
		assert.Equal(t, *done.CompletedAt, *again.CompletedAt)
		assert.Equal(t, done.UpdatedAt, again.UpdatedAt)
	})

	t.Run("reopen clears completedAt", func(t *testing.T) {
		undone, err := f.svc.SetComplete(ctx, item.ID, false)
		require.NoError(t, err)
		assert.False(t, undone.IsComplete)
		assert.Nil(t, undone.CompletedAt)

		undone, err = f.svc.SetComplete(ctx, item.ID, false)
		require.NoError(t, err)
		assert.False(t, undone.IsComplete)
	})

	_, err = f.svc.SetComplete(ctx, "missing", true)
	assert.ErrorIs(t, err, todo.ErrNotFound)
}

func TestSetStarred(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.CreateItem(ctx, ItemInput{Heading: "h", Body: "b"})
	require.NoError(t, err)

	starred, err := f.svc.SetStarred(ctx, item.ID, true)
	require.NoError(t, err)
	assert.True(t, starred.Starred)

	starred, err = f.svc.SetStarred(ctx, item.ID, true)
	require.NoError(t, err)
	assert.True(t, starred.Starred)

	unstarred, err := f.svc.SetStarred(ctx, item.ID, false)
	require.NoError(t, err)
	assert.False(t, unstarred.Starred)

	_, err = f.svc.SetStarred(ctx, "missing", true)
	assert.ErrorIs(t, err, todo.ErrNotFound)
}

func TestPatchItem_KeepsStateOnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.CreateItem(ctx, ItemInput{Heading: "h", Body: "b"})
	require.NoError(t, err)

	empty := " "
	_, err = f.svc.PatchItem(ctx, item.ID, todo.Patch{Heading: &empty})
	assert.ErrorIs(t, err, todo.ErrInvalidItem)

	got, err := f.svc.Item(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "h", got.Heading)
}

func TestReplaceItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.svc.CreateList(ctx, "Work")
	require.NoError(t, err)
	item, err := f.svc.CreateItem(ctx, ItemInput{Heading: "h", Body: "b"})
	require.NoError(t, err)

	f.advance(time.Minute)
	got, err := f.svc.ReplaceItem(ctx, item.ID, ReplaceInput{
		ItemInput:  ItemInput{Heading: "new", Body: "body", ListID: list.ID},
		IsComplete: true,
		Starred:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Heading)
	assert.Equal(t, list.ID, got.ListID)
	assert.True(t, got.Starred)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, item.CreatedAt, got.CreatedAt)

	_, err = f.svc.ReplaceItem(ctx, item.ID, ReplaceInput{
		ItemInput: ItemInput{Heading: "new", Body: "body", ListID: "ghost"},
	})
	assert.ErrorIs(t, err, todo.ErrInvalidItem)
}

func TestDeleteItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.CreateItem(ctx, ItemInput{Heading: "h", Body: "b"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteItem(ctx, item.ID))
	_, err = f.svc.Item(ctx, item.ID)
	assert.ErrorIs(t, err, todo.ErrNotFound)

	err = f.svc.DeleteItem(ctx, item.ID)
	assert.ErrorIs(t, err, todo.ErrNotFound)

	assert.Equal(t, []string{"todo.items.created", "todo.items.deleted"}, f.pub.subjects())
}

func TestItems_QuerySortsAndPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, h := range []string{"charlie", "alpha", "bravo"} {
		_, err := f.svc.CreateItem(ctx, ItemInput{Heading: h, Body: "b"})
		require.NoError(t, err)
		f.advance(time.Minute)
	}
	_, err := f.svc.SetStarred(ctx, "id-2", true)
	require.NoError(t, err)

	page, err := f.svc.Items(ctx, Query{Sort: todo.SortHeading, Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "alpha", page.Items[0].Heading)
	assert.Equal(t, "bravo", page.Items[1].Heading)
	assert.Equal(t, 3, page.Page.TotalItems)
	assert.Equal(t, 2, page.Page.TotalPages)

	starred := true
	page, err = f.svc.Items(ctx, Query{Filter: todo.Filter{Starred: &starred}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "alpha", page.Items[0].Heading)

	_, err = f.svc.Items(ctx, Query{Filter: todo.Filter{
		From: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}})
	assert.ErrorIs(t, err, todo.ErrInvalidFilter)
}

func TestLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	work, err := f.svc.CreateList(ctx, "Work")
	require.NoError(t, err)

	_, err = f.svc.CreateList(ctx, " work ")
	assert.ErrorIs(t, err, todo.ErrDuplicateList)

	_, err = f.svc.CreateList(ctx, "")
	assert.ErrorIs(t, err, todo.ErrInvalidList)

	home, err := f.svc.CreateList(ctx, "Home")
	require.NoError(t, err)

	_, err = f.svc.RenameList(ctx, home.ID, "WORK")
	assert.ErrorIs(t, err, todo.ErrDuplicateList)

	f.advance(time.Minute)
	renamed, err := f.svc.RenameList(ctx, work.ID, "Office")
	require.NoError(t, err)
	assert.Equal(t, "Office", renamed.Name)
	assert.Equal(t, *f.clock, renamed.UpdatedAt)
	assert.Equal(t, work.CreatedAt, renamed.CreatedAt)

	lists, err := f.svc.Lists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "Office", lists[0].Name)

	_, err = f.svc.List(ctx, "missing")
	assert.ErrorIs(t, err, todo.ErrNotFound)
}

func TestDeleteList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.svc.CreateList(ctx, "Work")
	require.NoError(t, err)
	_, err = f.svc.CreateItem(ctx, ItemInput{Heading: "a", Body: "b", ListID: list.ID})
	require.NoError(t, err)
	keep, err := f.svc.CreateItem(ctx, ItemInput{Heading: "c", Body: "d"})
	require.NoError(t, err)

	_, err = f.svc.DeleteList(ctx, list.ID, false)
	assert.ErrorIs(t, err, todo.ErrListNotEmpty)

	n, err := f.svc.DeleteList(ctx, list.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	page, err := f.svc.Items(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, keep.ID, page.Items[0].ID)

	_, err = f.svc.DeleteList(ctx, list.ID, true)
	assert.ErrorIs(t, err, todo.ErrNotFound)

	subjects := f.pub.subjects()
	assert.Equal(t, []string{"todo.items.deleted", "todo.lists.deleted"}, subjects[len(subjects)-2:])
}

func TestDeleteList_Empty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.svc.CreateList(ctx, "Empty")
	require.NoError(t, err)

	n, err := f.svc.DeleteList(ctx, list.ID, false)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.svc.CreateList(ctx, "Work")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateItem(ctx, ItemInput{Heading: "h", Body: "b", ListID: list.ID})
		require.NoError(t, err)
	}
	_, err = f.svc.CreateItem(ctx, ItemInput{Heading: "h", Body: "b"})
	require.NoError(t, err)

	// id-1 is the list.
	_, err = f.svc.SetComplete(ctx, "id-2", true)
	require.NoError(t, err)

	report, err := f.svc.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Overall.Total)
	assert.Equal(t, 1, report.Overall.Completed)
	assert.Equal(t, 25, report.Overall.Percent)

	require.Len(t, report.Lists, 2)
	assert.Equal(t, list.ID, report.Lists[0].ListID)
	assert.Equal(t, 33, report.Lists[0].Percent)
	assert.Equal(t, todo.DefaultListID, report.Lists[1].ListID)
	assert.Equal(t, 0, report.Lists[1].Percent)
}
