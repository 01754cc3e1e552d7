package store

import (
	"context"
	"strings"
	"testing"

	perrors "github.com/abgdnv/gocatalog/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract checks the behaviour every ProductStore implementation must share.
// newStore must return an empty store; unknownID must be well-formed for the store but absent.
func runStoreContract(t *testing.T, newStore func(t *testing.T) ProductStore, unknownID string) {
	ctx := context.Background()

	t.Run("FindAll on empty store returns empty slice", func(t *testing.T) {
		s := newStore(t)
		list, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("Create assigns distinct ids and keeps insertion order", func(t *testing.T) {
		s := newStore(t)
		first, err := s.Create(ctx, "Pen", 10, "http://x/pen.png")
		require.NoError(t, err)
		second, err := s.Create(ctx, "Pencil", 2.5, "http://x/pencil.png")
		require.NoError(t, err)

		assert.NotEmpty(t, first.ID)
		assert.NotEqual(t, first.ID, second.ID)

		list, err := s.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, *first, list[0])
		assert.Equal(t, *second, list[1])
	})

	t.Run("Replace overwrites fields and preserves id and order", func(t *testing.T) {
		s := newStore(t)
		first, err := s.Create(ctx, "Pen", 10, "http://x/pen.png")
		require.NoError(t, err)
		second, err := s.Create(ctx, "Pencil", 2.5, "http://x/pencil.png")
		require.NoError(t, err)

		updated, err := s.Replace(ctx, first.ID, "Pen v2", 12, "http://x/pen2.png")
		require.NoError(t, err)
		assert.Equal(t, Product{ID: first.ID, Name: "Pen v2", Price: 12, Image: "http://x/pen2.png"}, *updated)

		list, err := s.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, *updated, list[0])
		assert.Equal(t, *second, list[1])
	})

	t.Run("Replace unknown id returns not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Replace(ctx, unknownID, "Pen", 10, "http://x/pen.png")
		assert.ErrorIs(t, err, perrors.ErrProductNotFound)
	})

	t.Run("Replace malformed id returns invalid id", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Replace(ctx, "not-an-id", "Pen", 10, "http://x/pen.png")
		assert.ErrorIs(t, err, perrors.ErrInvalidID)
	})

	t.Run("DeleteByID removes once then reports not found", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, "Pen", 10, "http://x/pen.png")
		require.NoError(t, err)

		deleted, err := s.DeleteByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, *created, *deleted)

		_, err = s.DeleteByID(ctx, created.ID)
		assert.ErrorIs(t, err, perrors.ErrProductNotFound)

		list, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("DeleteByID malformed id returns invalid id", func(t *testing.T) {
		s := newStore(t)
		_, err := s.DeleteByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, perrors.ErrInvalidID)
	})

	t.Run("Replace and DeleteByID answer with the canonical id for an upper case id", func(t *testing.T) {
		s := newStore(t)
		created, err := s.Create(ctx, "Pen", 10, "http://x/pen.png")
		require.NoError(t, err)
		upper := strings.ToUpper(created.ID)
		if upper == created.ID {
			t.Skip("generated id has no letters")
		}

		updated, err := s.Replace(ctx, upper, "Pen v2", 12, "http://x/pen2.png")
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)

		deleted, err := s.DeleteByID(ctx, upper)
		require.NoError(t, err)
		assert.Equal(t, created.ID, deleted.ID)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(ctx))
	})
}
