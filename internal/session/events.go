package session

// EventType identifies a change notification emitted to the presentation
// layer.
type EventType string

const (
	// EventPromptChanged fires when the displayed prompt changes.
	EventPromptChanged EventType = "prompt-changed"
	// EventListChanged fires when the active list's content changes.
	EventListChanged EventType = "list-changed"
	// EventListsChanged fires when the set of available lists changes.
	EventListsChanged EventType = "lists-changed"
)

// Event is one change notification.
type Event struct {
	Type     EventType `json:"type"`
	Prompt   string    `json:"prompt,omitempty"`
	ListID   string    `json:"listId,omitempty"`
	ListName string    `json:"listName,omitempty"`
}

// Subscribe registers fn for all future events and returns an unsubscribe
// function. fn is called synchronously on the goroutine emitting the event.
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	c.nextSubID++
	id := c.nextSubID
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// notify must be called without mu held.
func (c *Controller) notify(events ...Event) {
	c.mu.Lock()
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}
