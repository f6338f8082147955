package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryankimani/todo-list/internal/todo"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	seed := NewDocument()
	seed.Items = append(seed.Items, todo.Item{ID: "seed"})

	m := NewMemory(seed)
	seed.Items[0].ID = "mutated"

	require.NoError(t, m.Update(ctx, addItem("1")))
	require.NoError(t, m.View(ctx, func(doc *Document) error {
		require.Len(t, doc.Items, 2)
		assert.Equal(t, "seed", doc.Items[0].ID)
		return nil
	}))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, m.Update(cancelled, addItem("2")), context.Canceled)

	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Update(ctx, addItem("3")), ErrClosed)
}

func TestMemory_NilSeed(t *testing.T) {
	m := NewMemory(nil)
	assert.Equal(t, 0, countItems(t, m))
}
