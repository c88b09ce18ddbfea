package identity

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// TokenProvider tracks the current user for a single-user session. The HTTP
// layer signs users in by presenting a verified token; SignOut clears the
// session. Subscribers are notified on every change, mirroring the
// auth-state listener the managed identity SDKs expose.
type TokenProvider struct {
	mu     sync.RWMutex
	user   *User
	subs   map[int]func(*User)
	nextID int
}

// NewTokenProvider creates a signed-out TokenProvider.
func NewTokenProvider() *TokenProvider {
	return &TokenProvider{subs: make(map[int]func(*User))}
}

// Current implements Provider.
func (p *TokenProvider) Current() (User, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return User{}, false
	}
	return *p.user, true
}

// SignIn records u as the current user and notifies subscribers.
func (p *TokenProvider) SignIn(u User) {
	p.mu.Lock()
	p.user = &u
	subs := p.snapshotSubs()
	p.mu.Unlock()

	log.Info().Str("userId", u.ID).Msg("User signed in")
	notify(subs, &u)
}

// SignOut clears the current user and notifies subscribers.
func (p *TokenProvider) SignOut() {
	p.mu.Lock()
	wasSignedIn := p.user != nil
	p.user = nil
	subs := p.snapshotSubs()
	p.mu.Unlock()

	if wasSignedIn {
		log.Info().Msg("User signed out")
	}
	notify(subs, nil)
}

// Subscribe implements Provider.
func (p *TokenProvider) Subscribe(fn func(*User)) func() {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// snapshotSubs must be called with mu held.
func (p *TokenProvider) snapshotSubs() []func(*User) {
	subs := make([]func(*User), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(*User), u *User) {
	for _, fn := range subs {
		fn(u)
	}
}

// Static returns a provider permanently signed in as u. Used by the CLI's
// local mode where no identity provider is configured.
func Static(u User) *TokenProvider {
	p := NewTokenProvider()
	p.user = &u
	return p
}
