package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptdeck/promptdeck/internal/builtin"
	"github.com/promptdeck/promptdeck/internal/identity"
	"github.com/promptdeck/promptdeck/internal/parser"
	"github.com/promptdeck/promptdeck/internal/selection"
	"github.com/promptdeck/promptdeck/pkg/models"
)

// fakeStore is an in-memory Store with injectable failures.
type fakeStore struct {
	mu         sync.Mutex
	lists      map[string]*models.PromptList
	nextID     int
	failCreate error
	failWrite  error
	failList   error
	ops        []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{lists: make(map[string]*models.PromptList)}
}

func (f *fakeStore) ListByOwner(_ context.Context, ownerID string) ([]*models.PromptList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	if ownerID == "" {
		return nil, nil
	}
	var out []*models.PromptList
	for _, l := range f.lists {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*models.PromptList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lists[id]
	if !ok {
		return nil, errors.New("not found")
	}
	clone := *l
	return &clone, nil
}

func (f *fakeStore) Create(_ context.Context, ownerID, name string, texts []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return "", f.failCreate
	}
	if ownerID == "" {
		return "", nil
	}
	f.nextID++
	id := fmt.Sprintf("list-%d", f.nextID)
	f.lists[id] = models.NewPromptList(id, ownerID, name, texts)
	f.ops = append(f.ops, "create:"+id)
	return id, nil
}

func (f *fakeStore) Rename(_ context.Context, id, newName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return f.failWrite
	}
	l, ok := f.lists[id]
	if !ok {
		return errors.New("not found")
	}
	l.Name = newName
	f.ops = append(f.ops, "rename:"+id)
	return nil
}

func (f *fakeStore) ReplacePrompts(_ context.Context, id string, records models.PromptRecords) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return f.failWrite
	}
	l, ok := f.lists[id]
	if !ok {
		return errors.New("not found")
	}
	l.Prompts = records
	f.ops = append(f.ops, "replace:"+id)
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return f.failWrite
	}
	if _, ok := f.lists[id]; !ok {
		return errors.New("not found")
	}
	delete(f.lists, id)
	f.ops = append(f.ops, "delete:"+id)
	return nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testController(t *testing.T) (*Controller, *fakeStore, *identity.TokenProvider, *testClock) {
	t.Helper()

	reg, err := builtin.Load("")
	require.NoError(t, err)

	store := newFakeStore()
	ident := identity.NewTokenProvider()
	clock := &testClock{now: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)}

	c := NewController(Config{
		Registry: reg,
		Store:    store,
		Identity: ident,
		Picker:   selection.New(rand.New(rand.NewPCG(1, 1))),
		Now:      clock.Now,
	})
	t.Cleanup(c.Close)

	return c, store, ident, clock
}

func TestController_NilIdentityActsSignedOut(t *testing.T) {
	reg, err := builtin.Load("")
	require.NoError(t, err)

	c := NewController(Config{
		Registry: reg,
		Store:    newFakeStore(),
		Picker:   selection.New(rand.New(rand.NewPCG(1, 1))),
	})
	t.Cleanup(c.Close)

	require.NoError(t, c.UploadText(context.Background(), "- a\n"))
	assert.Empty(t, c.Snapshot().ListID, "no identity, no auto-save")

	assert.ErrorIs(t, c.SwitchToList(context.Background(), "list-1"), ErrNotSignedIn)
	_, err = c.DeleteList(context.Background(), "list-1", true)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	view := c.Lists(context.Background())
	assert.NotEmpty(t, view.BuiltIn)
	assert.Empty(t, view.Owned)
}

func TestController_InitialState(t *testing.T) {
	c, _, _, _ := testController(t)

	snap := c.Snapshot()
	assert.Equal(t, StateNoListLoaded, snap.State)
	_, ok := c.Current()
	assert.False(t, ok)

	_, err := c.Next()
	assert.ErrorIs(t, err, ErrNoListLoaded)
}

func TestController_SwitchToBuiltIn(t *testing.T) {
	c, _, _, _ := testController(t)

	require.NoError(t, c.SwitchToBuiltIn("writing-sparks"))

	snap := c.Snapshot()
	assert.Equal(t, StateListLoaded, snap.State)
	assert.Equal(t, "Writing Sparks", snap.ListName)
	assert.Empty(t, snap.ListID)
	assert.NotEmpty(t, snap.Current)
	assert.Contains(t, snap.Prompts.Texts(), snap.Current)

	// Built-in lists start with no usage.
	for _, rec := range snap.Prompts {
		assert.False(t, rec.Used())
	}

	assert.ErrorIs(t, c.SwitchToBuiltIn("nope"), ErrUnknownList)
}

func TestController_UploadText_SignedOut(t *testing.T) {
	c, store, _, _ := testController(t)

	require.NoError(t, c.UploadText(context.Background(), "# Mine\n- a\n- b\n"))

	snap := c.Snapshot()
	assert.Equal(t, "Mine", snap.ListName)
	assert.Empty(t, snap.ListID, "signed-out uploads are not persisted")
	assert.Empty(t, store.lists)
}

func TestController_UploadText_AutoSaves(t *testing.T) {
	c, store, ident, _ := testController(t)
	ident.SignIn(identity.User{ID: "user-1"})

	require.NoError(t, c.UploadText(context.Background(), "- a\n- b\n"))

	snap := c.Snapshot()
	assert.Equal(t, DefaultListName, snap.ListName)
	assert.NotEmpty(t, snap.ListID)

	saved, err := store.GetByID(context.Background(), snap.ListID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, saved.Prompts.Texts())
}

func TestController_UploadText_AutoSaveDegrades(t *testing.T) {
	c, store, ident, _ := testController(t)
	ident.SignIn(identity.User{ID: "user-1"})
	store.failCreate = errors.New("store down")

	// Upload succeeds locally even though persistence failed.
	require.NoError(t, c.UploadText(context.Background(), "- a\n- b\n"))

	snap := c.Snapshot()
	assert.Equal(t, StateListLoaded, snap.State)
	assert.Equal(t, []string{"a", "b"}, snap.Prompts.Texts())
	assert.Empty(t, snap.ListID)
}

func TestController_UploadText_ParseFailureKeepsState(t *testing.T) {
	c, _, _, _ := testController(t)
	require.NoError(t, c.SwitchToBuiltIn("memoir"))
	before := c.Snapshot()

	err := c.UploadText(context.Background(), "# only a heading\n")
	assert.ErrorIs(t, err, parser.ErrNoPrompts)

	after := c.Snapshot()
	assert.Equal(t, before.ListName, after.ListName)
	assert.Equal(t, before.Prompts.Texts(), after.Prompts.Texts())
}

func TestController_EditPrompt(t *testing.T) {
	c, store, ident, _ := testController(t)
	ident.SignIn(identity.User{ID: "user-1"})
	require.NoError(t, c.UploadText(context.Background(), "- a\n- b\n"))
	listID := c.Snapshot().ListID

	_, err := c.MarkCurrentUsed(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.EditPrompt(context.Background(), 0, "  a edited  "))

	snap := c.Snapshot()
	assert.Equal(t, "a edited", snap.Prompts[0].Text)

	saved, err := store.GetByID(context.Background(), listID)
	require.NoError(t, err)
	assert.Equal(t, snap.Prompts.Texts(), saved.Prompts.Texts())

	assert.ErrorIs(t, c.EditPrompt(context.Background(), 0, "   "), ErrEmptyPromptText)
	assert.ErrorIs(t, c.EditPrompt(context.Background(), 99, "x"), ErrIndexOutOfRange)
}

func TestController_EditPrompt_StoreFailureKeepsLocalEdit(t *testing.T) {
	c, store, ident, _ := testController(t)
	ident.SignIn(identity.User{ID: "user-1"})
	require.NoError(t, c.UploadText(context.Background(), "- a\n- b\n"))
	store.failWrite = errors.New("store down")

	err := c.EditPrompt(context.Background(), 0, "edited")
	var se *StoreError
	require.ErrorAs(t, err, &se)

	// Local state runs ahead of the store until the next successful save.
	assert.Equal(t, "edited", c.Snapshot().Prompts[0].Text)
}

func TestController_DeletePrompt_TwoStepConfirm(t *testing.T) {
	c, _, _, clock := testController(t)
	require.NoError(t, c.UploadText(context.Background(), "- a\n- b\n- c\n"))

	// First call arms, does not delete.
	deleted, err := c.DeletePrompt(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Len(t, c.Snapshot().Prompts, 3)

	// Second call within the window deletes.
	clock.Advance(2 * time.Second)
	deleted, err = c.DeletePrompt(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []string{"a", "c"}, c.Snapshot().Prompts.Texts())
}

func TestController_DeletePrompt_WindowExpiryRearms(t *testing.T) {
	c, _, _, clock := testController(t)
	require.NoError(t, c.UploadText(context.Background(), "- a\n- b\n"))

	deleted, err := c.DeletePrompt(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, deleted)

	// Past the window the call behaves as a fresh first call.
	clock.Advance(3*time.Second + time.Millisecond)
	deleted, err = c.DeletePrompt(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Len(t, c.Snapshot().Prompts, 2)

	clock.Advance(time.Second)
	deleted, err = c.DeletePrompt(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestController_DeletePrompt_DifferentIndexRearms(t *testing.T) {
	c, _, _, _ := testController(t)
	require.NoError(t, c.UploadText(context.Background(), "- a\n- b\n"))

	deleted, err := c.DeletePrompt(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, deleted)

	// A different index clears the pending marker without deleting.
	deleted, err = c.DeletePrompt(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Len(t, c.Snapshot().Prompts, 2)
}

func TestController_MarkCurrentUsed(t *testing.T) {
	c, store, ident, _ := testController(t)
	ident.SignIn(identity.User{ID: "user-1"})
	require.NoError(t, c.UploadText(context.Background(), "- a\n- b\n- c\n"))
	listID := c.Snapshot().ListID
	used, _ := c.Current()

	next, err := c.MarkCurrentUsed(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, next)

	// Usage was persisted before the selection advanced.
	saved, err := store.GetByID(context.Background(), listID)
	require.NoError(t, err)
	var found bool
	for _, rec := range saved.Prompts {
		if rec.Text == used {
			found = true
			assert.True(t, rec.Used())
		} else {
			assert.False(t, rec.Used())
		}
	}
	assert.True(t, found)

	// Unused prompts take selection priority.
	assert.NotEqual(t, used, next)
}

func TestController_MarkCurrentUsed_StoreFailureStillAdvances(t *testing.T) {
	c, store, ident, _ := testController(t)
	ident.SignIn(identity.User{ID: "user-1"})
	require.NoError(t, c.UploadText(context.Background(), "- a\n- b\n"))
	store.failWrite = errors.New("store down")
	before, _ := c.Current()

	next, err := c.MarkCurrentUsed(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, before, next)
}

func TestController_RenameCurrentList_RebindsMarker(t *testing.T) {
	c, store, ident, _ := testController(t)
	ident.SignIn(identity.User{ID: "user-1"})
	require.NoError(t, c.UploadText(context.Background(), "# Foo\n- a\n"))
	listID := c.Snapshot().ListID
	require.NotEmpty(t, listID)

	require.NoError(t, c.RenameCurrentList(context.Background(), "Bar"))

	snap := c.Snapshot()
	assert.Equal(t, "Bar", snap.ListName, "active-list marker follows the rename")
	assert.Equal(t, listID, snap.ListID, "list id is unchanged")

	saved, err := store.GetByID(context.Background(), listID)
	require.NoError(t, err)
	assert.Equal(t, "Bar", saved.Name)
}

func TestController_RenameCurrentList_RequiresPersistedList(t *testing.T) {
	c, _, _, _ := testController(t)
	require.NoError(t, c.SwitchToBuiltIn("memoir"))

	assert.ErrorIs(t, c.RenameCurrentList(context.Background(), "Nope"), ErrNotPersisted)
}

func TestController_SwitchToList_CarriesUsage(t *testing.T) {
	c, store, ident, _ := testController(t)
	ident.SignIn(identity.User{ID: "user-1"})

	id, err := store.Create(context.Background(), "user-1", "Stored", []string{"a", "b"})
	require.NoError(t, err)
	now := time.Now()
	store.lists[id].Prompts[0].LastUsed = &now
	store.lists[id].Prompts[0].UsedCount = 1

	require.NoError(t, c.SwitchToList(context.Background(), id))

	snap := c.Snapshot()
	assert.Equal(t, id, snap.ListID)
	assert.True(t, snap.Prompts[0].Used())
	// The unused prompt is selected first.
	assert.Equal(t, "b", snap.Current)
}

func TestController_SwitchToList_OwnershipEnforced(t *testing.T) {
	c, store, ident, _ := testController(t)
	id, err := store.Create(context.Background(), "someone-else", "Theirs", []string{"a"})
	require.NoError(t, err)

	assert.ErrorIs(t, c.SwitchToList(context.Background(), id), ErrNotSignedIn)

	ident.SignIn(identity.User{ID: "user-1"})
	assert.ErrorIs(t, c.SwitchToList(context.Background(), id), ErrNotListOwner)
}

func TestController_DeleteList_RequiresConfirmation(t *testing.T) {
	c, store, ident, _ := testController(t)
	ident.SignIn(identity.User{ID: "user-1"})
	id, err := store.Create(context.Background(), "user-1", "Doomed", []string{"a"})
	require.NoError(t, err)

	deleted, err := c.DeleteList(context.Background(), id, false)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Contains(t, store.lists, id)

	deleted, err = c.DeleteList(context.Background(), id, true)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NotContains(t, store.lists, id)
}

func TestController_DeleteActiveListResetsSession(t *testing.T) {
	c, _, ident, _ := testController(t)
	ident.SignIn(identity.User{ID: "user-1"})
	require.NoError(t, c.UploadText(context.Background(), "- a\n"))
	id := c.Snapshot().ListID

	deleted, err := c.DeleteList(context.Background(), id, true)
	require.NoError(t, err)
	require.True(t, deleted)

	snap := c.Snapshot()
	assert.Equal(t, StateNoListLoaded, snap.State)
	assert.Empty(t, snap.Current)
}

func TestController_Lists_DegradesOnReadFailure(t *testing.T) {
	c, store, ident, _ := testController(t)
	ident.SignIn(identity.User{ID: "user-1"})
	_, err := store.Create(context.Background(), "user-1", "Mine", []string{"a"})
	require.NoError(t, err)

	view := c.Lists(context.Background())
	assert.NotEmpty(t, view.BuiltIn)
	assert.Len(t, view.Owned, 1)

	store.failList = errors.New("store down")
	view = c.Lists(context.Background())
	assert.NotEmpty(t, view.BuiltIn)
	assert.Empty(t, view.Owned)

	store.failList = nil
	ident.SignOut()
	view = c.Lists(context.Background())
	assert.NotEmpty(t, view.BuiltIn)
	assert.Empty(t, view.Owned)
}

func TestController_Events(t *testing.T) {
	c, _, _, _ := testController(t)

	var mu sync.Mutex
	var got []EventType
	unsubscribe := c.Subscribe(func(ev Event) {
		mu.Lock()
		got = append(got, ev.Type)
		mu.Unlock()
	})
	defer unsubscribe()

	require.NoError(t, c.SwitchToBuiltIn("memoir"))
	_, err := c.Next()
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, got, EventListChanged)
	assert.Contains(t, got, EventPromptChanged)
}
