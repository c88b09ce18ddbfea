package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/promptdeck/promptdeck/internal/session"
)

// sseWriteTimeout bounds writes to SSE clients so a stale connection cannot
// block event delivery.
const sseWriteTimeout = 2 * time.Second

type sseClient struct {
	w       http.ResponseWriter
	flusher http.Flusher
	done    chan struct{}
	id      int
}

// broadcaster fans session change events out to connected SSE clients.
type broadcaster struct {
	mu      sync.Mutex
	clients map[int]*sseClient
	nextID  int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{clients: make(map[int]*sseClient)}
}

// Broadcast sends one session event to every connected client. Clients that
// fail or time out are dropped.
func (b *broadcaster) Broadcast(ev session.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return
	}
	message := fmt.Sprintf("data: %s\n\n", payload)

	b.mu.Lock()
	clients := make([]*sseClient, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.Unlock()

	for _, c := range clients {
		if !b.write(c, message) {
			b.remove(c)
		}
	}
}

// write delivers message to one client within sseWriteTimeout.
func (b *broadcaster) write(c *sseClient, message string) bool {
	done := make(chan bool, 1)
	go func() {
		if _, err := c.w.Write([]byte(message)); err != nil {
			done <- false
			return
		}
		c.flusher.Flush()
		done <- true
	}()

	select {
	case ok := <-done:
		return ok
	case <-time.After(sseWriteTimeout):
		log.Warn().Int("clientId", c.id).Msg("SSE write timed out, dropping client")
		return false
	case <-c.done:
		return true
	}
}

func (b *broadcaster) add(w http.ResponseWriter) (*sseClient, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	b.mu.Lock()
	b.nextID++
	c := &sseClient{w: w, flusher: flusher, done: make(chan struct{}), id: b.nextID}
	b.clients[c.id] = c
	total := len(b.clients)
	b.mu.Unlock()

	log.Debug().Int("clientId", c.id).Int("totalClients", total).Msg("SSE client connected")
	return c, nil
}

func (b *broadcaster) remove(c *sseClient) {
	b.mu.Lock()
	_, present := b.clients[c.id]
	delete(b.clients, c.id)
	b.mu.Unlock()

	if present {
		close(c.done)
		log.Debug().Int("clientId", c.id).Msg("SSE client disconnected")
	}
}

// handleSSE streams session change events until the client disconnects.
func (b *broadcaster) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c, err := b.add(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer b.remove(c)

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	c.flusher.Flush()

	<-r.Context().Done()
}
