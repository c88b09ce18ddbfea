package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/promptdeck/promptdeck/pkg/models"
)

func testListStore(t *testing.T) *ListStore {
	t.Helper()

	store, err := NewStore(Config{
		Driver:   DriverSQLite,
		DSN:      "file:" + t.Name() + "?mode=memory&cache=shared",
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return NewListStore(store)
}

func TestListStore_CreateAndListByOwner(t *testing.T) {
	lists := testListStore(t)
	ctx := context.Background()

	id, err := lists.Create(ctx, "user-1", "Morning Pages", []string{"a", "b"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = lists.Create(ctx, "user-2", "Other", []string{"x"})
	require.NoError(t, err)

	owned, err := lists.ListByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "Morning Pages", owned[0].Name)
	assert.Equal(t, []string{"a", "b"}, owned[0].Prompts.Texts())
	assert.Equal(t, "user-1", owned[0].OwnerID)
	assert.NotEmpty(t, owned[0].CreatedAt)

	// Freshly created prompts carry no usage data.
	for _, rec := range owned[0].Prompts {
		assert.Nil(t, rec.LastUsed)
		assert.Zero(t, rec.UsedCount)
	}
}

func TestListStore_EmptyOwnerIsNoOp(t *testing.T) {
	lists := testListStore(t)
	ctx := context.Background()

	id, err := lists.Create(ctx, "", "ignored", []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, id)

	owned, err := lists.ListByOwner(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func TestListStore_GetByID(t *testing.T) {
	lists := testListStore(t)
	ctx := context.Background()

	id, err := lists.Create(ctx, "user-1", "Foo", []string{"a"})
	require.NoError(t, err)

	got, err := lists.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Foo", got.Name)

	_, err = lists.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListStore_Rename(t *testing.T) {
	lists := testListStore(t)
	ctx := context.Background()

	id, err := lists.Create(ctx, "user-1", "Foo", []string{"a"})
	require.NoError(t, err)

	require.NoError(t, lists.Rename(ctx, id, "Bar"))

	got, err := lists.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Bar", got.Name)
	assert.Equal(t, id, got.ID)

	assert.ErrorIs(t, lists.Rename(ctx, "missing", "x"), ErrNotFound)
}

func TestListStore_ReplacePrompts(t *testing.T) {
	lists := testListStore(t)
	ctx := context.Background()

	id, err := lists.Create(ctx, "user-1", "Foo", []string{"a", "b"})
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	replacement := models.PromptRecords{
		{Text: "a", LastUsed: &now, UsedCount: 1},
		{Text: "c"},
	}
	require.NoError(t, lists.ReplacePrompts(ctx, id, replacement))

	got, err := lists.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Prompts, 2)
	assert.Equal(t, []string{"a", "c"}, got.Prompts.Texts())
	require.NotNil(t, got.Prompts[0].LastUsed)
	assert.True(t, got.Prompts[0].LastUsed.Equal(now))
	assert.Equal(t, 1, got.Prompts[0].UsedCount)
	assert.Nil(t, got.Prompts[1].LastUsed)

	assert.ErrorIs(t, lists.ReplacePrompts(ctx, "missing", replacement), ErrNotFound)
}

func TestListStore_Delete(t *testing.T) {
	lists := testListStore(t)
	ctx := context.Background()

	id, err := lists.Create(ctx, "user-1", "Foo", []string{"a"})
	require.NoError(t, err)

	require.NoError(t, lists.Delete(ctx, id))

	_, err = lists.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, lists.Delete(ctx, id), ErrNotFound)
}
