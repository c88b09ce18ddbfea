// Package session orchestrates prompt parsing, usage tracking, selection,
// and list persistence behind the user intents the presentation layer
// dispatches.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/promptdeck/promptdeck/internal/builtin"
	"github.com/promptdeck/promptdeck/internal/identity"
	"github.com/promptdeck/promptdeck/internal/parser"
	"github.com/promptdeck/promptdeck/internal/selection"
	"github.com/promptdeck/promptdeck/internal/usage"
	"github.com/promptdeck/promptdeck/pkg/models"
)

// Store is the document-store surface the controller needs. *store.ListStore
// satisfies it.
type Store interface {
	ListByOwner(ctx context.Context, ownerID string) ([]*models.PromptList, error)
	GetByID(ctx context.Context, id string) (*models.PromptList, error)
	Create(ctx context.Context, ownerID, name string, texts []string) (string, error)
	Rename(ctx context.Context, id, newName string) error
	ReplacePrompts(ctx context.Context, id string, records models.PromptRecords) error
	Delete(ctx context.Context, id string) error
}

// State of the controller's list lifecycle.
type State string

const (
	StateNoListLoaded State = "noListLoaded"
	StateListLoaded   State = "listLoaded"
)

// DefaultConfirmWindow is how long a pending prompt delete stays armed.
const DefaultConfirmWindow = 3 * time.Second

// DefaultListName names uploaded lists whose text carries no title.
const DefaultListName = "Untitled List"

// Config wires a Controller's collaborators.
type Config struct {
	Registry      *builtin.Registry
	Store         Store
	Identity      identity.Provider // nil: permanently signed out
	Picker        *selection.Picker // nil: time-seeded
	Now           func() time.Time  // nil: time.Now
	ConfirmWindow time.Duration     // zero: DefaultConfirmWindow
}

// activeList marks which list the session shows. Session state is keyed by
// stable id (or built-in slug); the display name is a marker resolved at
// render time, never a lookup key.
type activeList struct {
	id          string // store id, empty for built-in or unsaved uploads
	builtinSlug string // registry slug, empty for stored/uploaded lists
	name        string
}

// Controller holds the current list, dispatches user intents, and emits
// change notifications. All operations are safe for concurrent use; store
// writes for one list id apply in issue order via a per-list queue.
type Controller struct {
	store  Store
	ident  identity.Provider
	picker *selection.Picker
	now    func() time.Time
	window time.Duration

	mu       sync.Mutex
	registry *builtin.Registry
	state    State
	active   activeList
	records  models.PromptRecords
	current  string

	pendingDeleteIndex int
	pendingDeleteArmed time.Time

	queues map[string]*writeQueue

	subs      map[int]func(Event)
	nextSubID int
}

// NewController creates a Controller in the noListLoaded state.
func NewController(cfg Config) *Controller {
	c := &Controller{
		store:              cfg.Store,
		ident:              cfg.Identity,
		picker:             cfg.Picker,
		now:                cfg.Now,
		window:             cfg.ConfirmWindow,
		registry:           cfg.Registry,
		state:              StateNoListLoaded,
		pendingDeleteIndex: -1,
		queues:             make(map[string]*writeQueue),
		subs:               make(map[int]func(Event)),
	}
	if c.picker == nil {
		c.picker = selection.New(nil)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.window <= 0 {
		c.window = DefaultConfirmWindow
	}
	if c.ident != nil {
		// Lists become visible or invisible with the auth state.
		c.ident.Subscribe(func(*identity.User) {
			c.notify(Event{Type: EventListsChanged})
		})
	}
	return c
}

// Close drains all pending writes.
func (c *Controller) Close() {
	c.mu.Lock()
	queues := make([]*writeQueue, 0, len(c.queues))
	for _, q := range c.queues {
		queues = append(queues, q)
	}
	c.queues = make(map[string]*writeQueue)
	c.mu.Unlock()

	for _, q := range queues {
		q.Close()
	}
}

// currentUser treats a nil identity provider as permanently signed out.
func (c *Controller) currentUser() (identity.User, bool) {
	if c.ident == nil {
		return identity.User{}, false
	}
	return c.ident.Current()
}

// queueFor must be called with mu held.
func (c *Controller) queueFor(listID string) *writeQueue {
	q, ok := c.queues[listID]
	if !ok {
		q = newWriteQueue()
		c.queues[listID] = q
	}
	return q
}

// Snapshot is the render-facing view of the session.
type Snapshot struct {
	State       State                `json:"state"`
	ListID      string               `json:"listId,omitempty"`
	BuiltinSlug string               `json:"builtinSlug,omitempty"`
	ListName    string               `json:"listName,omitempty"`
	Current     string               `json:"currentPrompt,omitempty"`
	Prompts     models.PromptRecords `json:"prompts"`
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	prompts := make(models.PromptRecords, len(c.records))
	copy(prompts, c.records)
	return Snapshot{
		State:       c.state,
		ListID:      c.active.id,
		BuiltinSlug: c.active.builtinSlug,
		ListName:    c.active.name,
		Current:     c.current,
		Prompts:     prompts,
	}
}

// Current returns the displayed prompt text.
func (c *Controller) Current() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.current != ""
}

// AllPrompts returns the loaded prompts ordered for "show all" views:
// never-used first in parse order, then longest-unused first.
func (c *Controller) AllPrompts() models.PromptRecords {
	c.mu.Lock()
	defer c.mu.Unlock()
	return usage.SortForDisplay(c.records)
}

// SwitchToBuiltIn loads the built-in list with the given slug. Built-in
// lists carry no persisted usage, so selection starts fresh; any custom-file
// marker from a prior upload is discarded.
func (c *Controller) SwitchToBuiltIn(slug string) error {
	c.mu.Lock()
	list, ok := c.registry.Get(slug)
	if !ok {
		c.mu.Unlock()
		return ErrUnknownList
	}

	records := make(models.PromptRecords, len(list.Prompts))
	for i, text := range list.Prompts {
		records[i] = models.PromptRecord{Text: text}
	}

	c.state = StateListLoaded
	c.active = activeList{builtinSlug: slug, name: list.Title}
	c.records = records
	c.clearPendingDeleteLocked()
	c.current = c.picker.Pick(records)
	ev := c.changedEventsLocked()
	c.mu.Unlock()

	c.notify(ev...)
	return nil
}

// SwitchToList loads a stored list owned by the current user. Usage data
// travels with the stored records.
func (c *Controller) SwitchToList(ctx context.Context, id string) error {
	user, ok := c.currentUser()
	if !ok {
		return ErrNotSignedIn
	}

	list, err := c.store.GetByID(ctx, id)
	if err != nil {
		return storeErr("load", err)
	}
	if list.OwnerID != user.ID {
		return ErrNotListOwner
	}
	if len(list.Prompts) == 0 {
		return parser.ErrNoPrompts
	}
	records := usage.MergedView(list.Prompts.Texts(), list.Prompts)

	c.mu.Lock()
	c.state = StateListLoaded
	c.active = activeList{id: list.ID, name: list.Name}
	c.records = records
	c.clearPendingDeleteLocked()
	c.current = c.picker.Pick(records)
	ev := c.changedEventsLocked()
	c.mu.Unlock()

	c.notify(ev...)
	return nil
}

// UploadText parses raw text into the active collection. When a user is
// signed in the list is auto-saved; a failed auto-save is logged and the
// upload still succeeds locally, so uploads never feel broken just because
// persistence did not happen. On parse failure prior state is untouched.
func (c *Controller) UploadText(ctx context.Context, raw string) error {
	doc, err := parser.Parse(raw)
	if err != nil {
		return err
	}

	name := doc.Title
	if name == "" {
		name = DefaultListName
	}

	listID := ""
	if user, ok := c.currentUser(); ok {
		id, err := c.store.Create(ctx, user.ID, name, doc.Prompts)
		if err != nil {
			log.Warn().Err(err).Str("name", name).Msg("Auto-save of uploaded list failed, keeping it local")
		} else {
			listID = id
		}
	}

	records := make(models.PromptRecords, len(doc.Prompts))
	for i, text := range doc.Prompts {
		records[i] = models.PromptRecord{Text: text}
	}

	c.mu.Lock()
	c.state = StateListLoaded
	c.active = activeList{id: listID, name: name}
	c.records = records
	c.clearPendingDeleteLocked()
	c.current = c.picker.Pick(records)
	ev := c.changedEventsLocked()
	c.mu.Unlock()

	if listID != "" {
		ev = append(ev, Event{Type: EventListsChanged})
	}
	c.notify(ev...)
	return nil
}

// Next advances to a newly selected prompt.
func (c *Controller) Next() (string, error) {
	c.mu.Lock()
	if c.state != StateListLoaded || len(c.records) == 0 {
		c.mu.Unlock()
		return "", ErrNoListLoaded
	}
	c.current = c.picker.Pick(c.records)
	prompt := c.current
	ev := Event{Type: EventPromptChanged, Prompt: prompt}
	c.mu.Unlock()

	c.notify(ev)
	return prompt, nil
}

// EditPrompt replaces the text at index, preserving every other prompt's
// usage data, and persists the full record set. A store failure is surfaced
// but the local edit stands; local state may run ahead of the store until
// the next successful save.
func (c *Controller) EditPrompt(ctx context.Context, index int, newText string) error {
	newText = strings.TrimSpace(newText)
	if newText == "" {
		return ErrEmptyPromptText
	}

	c.mu.Lock()
	if c.state != StateListLoaded {
		c.mu.Unlock()
		return ErrNoListLoaded
	}
	if index < 0 || index >= len(c.records) {
		c.mu.Unlock()
		return ErrIndexOutOfRange
	}

	oldText := c.records[index].Text
	c.records[index] = models.PromptRecord{Text: newText}
	if c.current == oldText {
		c.current = newText
	}
	wait := c.persistRecordsLocked()
	ev := c.changedEventsLocked()
	c.mu.Unlock()

	c.notify(ev...)
	if wait != nil {
		if err := wait(ctx); err != nil {
			return storeErr("save", err)
		}
	}
	return nil
}

// DeletePrompt is a two-step confirm. The first call arms a pending-delete
// marker for index; a second call on the same index within the confirm
// window removes the prompt and persists. Expiry or a call on a different
// index re-arms without deleting. Returns whether removal occurred.
func (c *Controller) DeletePrompt(ctx context.Context, index int) (bool, error) {
	c.mu.Lock()
	if c.state != StateListLoaded {
		c.mu.Unlock()
		return false, ErrNoListLoaded
	}
	if index < 0 || index >= len(c.records) {
		c.mu.Unlock()
		return false, ErrIndexOutOfRange
	}

	now := c.now()
	armed := c.pendingDeleteIndex == index && now.Sub(c.pendingDeleteArmed) <= c.window
	if !armed {
		c.pendingDeleteIndex = index
		c.pendingDeleteArmed = now
		c.mu.Unlock()
		return false, nil
	}

	removed := c.records[index].Text
	c.records = append(c.records[:index:index], c.records[index+1:]...)
	c.clearPendingDeleteLocked()

	if c.current == removed {
		if len(c.records) > 0 {
			c.current = c.picker.Pick(c.records)
		} else {
			c.current = ""
		}
	}
	wait := c.persistRecordsLocked()
	ev := c.changedEventsLocked()
	c.mu.Unlock()

	c.notify(ev...)
	if wait != nil {
		if err := wait(ctx); err != nil {
			return true, storeErr("save", err)
		}
	}
	return true, nil
}

// MarkCurrentUsed records that the displayed prompt was used, persists the
// updated record set, then advances to a new prompt. Persistence is
// sequenced before selection so the display never runs ahead of an
// unacknowledged save; a save failure is logged and selection proceeds.
func (c *Controller) MarkCurrentUsed(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state != StateListLoaded || c.current == "" {
		c.mu.Unlock()
		return "", ErrNoListLoaded
	}

	c.records = usage.MarkUsed(c.records, c.current, c.now())
	wait := c.persistRecordsLocked()
	c.mu.Unlock()

	if wait != nil {
		if err := wait(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to persist usage, advancing anyway")
		}
	}

	c.mu.Lock()
	if len(c.records) > 0 {
		c.current = c.picker.Pick(c.records)
	}
	prompt := c.current
	ev := c.changedEventsLocked()
	c.mu.Unlock()

	c.notify(ev...)
	return prompt, nil
}

// RenameCurrentList renames the active stored list. The session is keyed by
// list id; the name marker is updated here so render-time lookups see the
// new name immediately.
func (c *Controller) RenameCurrentList(ctx context.Context, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyListName
	}

	c.mu.Lock()
	if c.state != StateListLoaded {
		c.mu.Unlock()
		return ErrNoListLoaded
	}
	id := c.active.id
	if id == "" {
		c.mu.Unlock()
		return ErrNotPersisted
	}
	errc := c.queueFor(id).Enqueue(func(ctx context.Context) error {
		return c.store.Rename(ctx, id, newName)
	})
	c.mu.Unlock()

	select {
	case err := <-errc:
		if err != nil {
			return storeErr("rename", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	c.mu.Lock()
	if c.active.id == id {
		c.active.name = newName
	}
	name := c.active.name
	c.mu.Unlock()

	c.notify(
		Event{Type: EventListsChanged},
		Event{Type: EventListChanged, ListID: id, ListName: name},
	)
	return nil
}

// DeleteList removes a stored list owned by the current user. Removal only
// happens with confirmed=true; an unconfirmed call reports false without
// contacting the store. Deleting the active list resets the session to
// noListLoaded.
func (c *Controller) DeleteList(ctx context.Context, id string, confirmed bool) (bool, error) {
	if !confirmed {
		return false, nil
	}

	user, ok := c.currentUser()
	if !ok {
		return false, ErrNotSignedIn
	}
	list, err := c.store.GetByID(ctx, id)
	if err != nil {
		return false, storeErr("load", err)
	}
	if list.OwnerID != user.ID {
		return false, ErrNotListOwner
	}

	c.mu.Lock()
	errc := c.queueFor(id).Enqueue(func(ctx context.Context) error {
		return c.store.Delete(ctx, id)
	})
	c.mu.Unlock()

	select {
	case err := <-errc:
		if err != nil {
			return false, storeErr("delete", err)
		}
	case <-ctx.Done():
		return false, ctx.Err()
	}

	var events []Event
	c.mu.Lock()
	if c.active.id == id {
		c.state = StateNoListLoaded
		c.active = activeList{}
		c.records = nil
		c.current = ""
		c.clearPendingDeleteLocked()
		events = c.changedEventsLocked()
	}
	c.mu.Unlock()

	events = append(events, Event{Type: EventListsChanged})
	c.notify(events...)
	return true, nil
}

// ListsView is everything the list panel shows.
type ListsView struct {
	BuiltIn []builtin.List       `json:"builtin"`
	Owned   []*models.PromptList `json:"owned"`
}

// Lists returns the built-in registry plus the signed-in user's stored
// lists. A store read failure degrades to "as if signed out": the built-in
// lists still render and the error is logged.
func (c *Controller) Lists(ctx context.Context) ListsView {
	c.mu.Lock()
	view := ListsView{BuiltIn: c.registry.All()}
	c.mu.Unlock()

	user, ok := c.currentUser()
	if !ok {
		return view
	}

	owned, err := c.store.ListByOwner(ctx, user.ID)
	if err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("Failed to load stored lists, showing built-ins only")
		return view
	}
	view.Owned = owned
	return view
}

// SetRegistry swaps the built-in registry (used for hot reload of the
// on-disk lists directory). The active list is untouched.
func (c *Controller) SetRegistry(reg *builtin.Registry) {
	c.mu.Lock()
	c.registry = reg
	c.mu.Unlock()
	c.notify(Event{Type: EventListsChanged})
}

// persistRecordsLocked enqueues a full-replace save of the current records
// when the active list is persisted. It returns a wait function, or nil when
// there is nothing to persist. Must be called with mu held.
func (c *Controller) persistRecordsLocked() func(context.Context) error {
	id := c.active.id
	if id == "" {
		return nil
	}

	records := make(models.PromptRecords, len(c.records))
	copy(records, c.records)
	errc := c.queueFor(id).Enqueue(func(ctx context.Context) error {
		return c.store.ReplacePrompts(ctx, id, records)
	})

	return func(ctx context.Context) error {
		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// clearPendingDeleteLocked must be called with mu held.
func (c *Controller) clearPendingDeleteLocked() {
	c.pendingDeleteIndex = -1
	c.pendingDeleteArmed = time.Time{}
}

// changedEventsLocked must be called with mu held.
func (c *Controller) changedEventsLocked() []Event {
	return []Event{
		{Type: EventListChanged, ListID: c.active.id, ListName: c.active.name},
		{Type: EventPromptChanged, Prompt: c.current},
	}
}
