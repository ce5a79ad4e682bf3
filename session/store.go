// Package session holds the live search sessions of each client and
// discards results of searches that a newer submission has superseded.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"vidrank/feed"
)

var (
	ErrNotFound   = errors.New("session not found")
	ErrSuperseded = errors.New("search superseded by a newer submission")
)

const (
	DefaultLimit = 1000
	DefaultTTL   = 30 * time.Minute

	// clientsPerSession sizes client tracking relative to the session
	// limit, since clients with a search in flight hold no session yet.
	clientsPerSession = 4
)

type client struct {
	latest    uint64
	sessionID string
}

// Store maps session ids to sessions. Each client owns at most one session:
// committing a new one drops the previous. Sessions idle for longer than
// the TTL, or beyond the size limit, are evicted.
type Store struct {
	mu       sync.Mutex
	seq      uint64
	clients  *expirable.LRU[string, client]
	sessions *expirable.LRU[string, *feed.Session]
}

// NewStore returns a store holding up to limit sessions for ttl each.
func NewStore(limit int, ttl time.Duration) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		clients:  expirable.NewLRU[string, client](limit*clientsPerSession, nil, ttl),
		sessions: expirable.NewLRU[string, *feed.Session](limit, nil, ttl),
	}
}

// Begin issues the sequence number of a new search by clientID. Any
// search the client started earlier is superseded from now on.
func (s *Store) Begin(clientID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	c, _ := s.clients.Peek(clientID)
	c.latest = s.seq
	s.clients.Add(clientID, c)
	return s.seq
}

// Latest reports the newest sequence number issued to clientID.
func (s *Store) Latest(clientID string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients.Peek(clientID)
	return c.latest, ok
}

// Commit stores sess as the client's current session if sess.Seq is still
// the client's latest search, replacing the previous session. A client
// whose tracking entry was evicted has begun nothing since, so its commit
// is accepted.
func (s *Store) Commit(clientID string, sess *feed.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.Seq == 0 || sess.Seq > s.seq {
		return ErrSuperseded
	}
	c, ok := s.clients.Get(clientID)
	if ok && c.latest != sess.Seq {
		return ErrSuperseded
	}
	c.latest = sess.Seq
	if c.sessionID != "" && c.sessionID != sess.ID {
		s.sessions.Remove(c.sessionID)
	}
	c.sessionID = sess.ID
	s.clients.Add(clientID, c)
	s.sessions.Add(sess.ID, sess)
	return nil
}

// Get describes session id without revealing more results.
func (s *Store) Get(id string) (feed.Page, error) {
	return s.Update(id, (*feed.Session).Current)
}

// Update runs fn on session id. fn is the only writer while it runs.
func (s *Store) Update(id string, fn func(*feed.Session) feed.Page) (feed.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions.Get(id)
	if !ok {
		return feed.Page{}, ErrNotFound
	}
	return fn(sess), nil
}

// Len is the number of live sessions.
func (s *Store) Len() int {
	return s.sessions.Len()
}
