// Package session tracks which connection belongs to which user, match, and
// player slot, with O(1) lookup along every axis.
package session

import (
	"log"
	"sync"

	"battle-arena/server/internal/wire"
)

// Conn abstracts the transport under a session. Both the websocket and the
// raw TCP endpoints satisfy it.
type Conn interface {
	// Send frames and writes one message. Implementations serialize writes
	// internally; the registry never holds its lock across a Send.
	Send(msg wire.Message) error
	Close() error
	RemoteAddr() string
}

// Session is one authenticated connection's registry entry.
type Session struct {
	Conn       Conn
	UserID     string
	MatchID    string
	Slot       int
	Ready      bool
	ChampionID string
}

type slotKey struct {
	matchID string
	slot    int
}

// Registry provides atomic register/unregister of session tuples and
// bidirectional lookups. All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byConn  map[Conn]*Session
	byUser  map[string]*Session
	byMatch map[string]map[Conn]*Session
	bySlot  map[slotKey]*Session

	// onMatchEmpty fires (outside the lock) when a match's connection set
	// becomes empty, so the scheduler can track deferred cleanup.
	onMatchEmpty func(matchID string)
}

// NewRegistry builds an empty registry. onMatchEmpty may be nil.
func NewRegistry(onMatchEmpty func(matchID string)) *Registry {
	return &Registry{
		byConn:       make(map[Conn]*Session),
		byUser:       make(map[string]*Session),
		byMatch:      make(map[string]map[Conn]*Session),
		bySlot:       make(map[slotKey]*Session),
		onMatchEmpty: onMatchEmpty,
	}
}

// Register records a session tuple. A duplicate user id is rejected unless it
// arrives on a new connection, in which case the stale connection is closed
// and replaced. The returned bool reports whether the session was stored.
func (r *Registry) Register(sess *Session) bool {
	if sess == nil || sess.Conn == nil || sess.UserID == "" {
		return false
	}

	var stale Conn

	r.mu.Lock()
	if existing, ok := r.byUser[sess.UserID]; ok {
		if existing.Conn == sess.Conn {
			r.mu.Unlock()
			log.Printf("session: duplicate registration for user %s ignored", sess.UserID)
			return false
		}
		// Same user on a new connection: replace the stale entry.
		stale = existing.Conn
		r.removeLocked(existing)
	}
	if _, taken := r.bySlot[slotKey{sess.MatchID, sess.Slot}]; taken {
		r.mu.Unlock()
		if stale != nil {
			stale.Close()
		}
		log.Printf("session: slot %d already occupied in match %s", sess.Slot, sess.MatchID)
		return false
	}

	r.byConn[sess.Conn] = sess
	r.byUser[sess.UserID] = sess
	conns := r.byMatch[sess.MatchID]
	if conns == nil {
		conns = make(map[Conn]*Session)
		r.byMatch[sess.MatchID] = conns
	}
	conns[sess.Conn] = sess
	r.bySlot[slotKey{sess.MatchID, sess.Slot}] = sess
	r.mu.Unlock()

	if stale != nil {
		stale.Close()
	}
	return true
}

// Unregister removes the session bound to the connection and all derived
// mappings. Returns the removed session, or nil if none was registered.
func (r *Registry) Unregister(conn Conn) *Session {
	var emptied string

	r.mu.Lock()
	sess, ok := r.byConn[conn]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	r.removeLocked(sess)
	if conns := r.byMatch[sess.MatchID]; len(conns) == 0 {
		emptied = sess.MatchID
	}
	r.mu.Unlock()

	if emptied != "" && r.onMatchEmpty != nil {
		r.onMatchEmpty(emptied)
	}
	return sess
}

func (r *Registry) removeLocked(sess *Session) {
	delete(r.byConn, sess.Conn)
	delete(r.byUser, sess.UserID)
	delete(r.bySlot, slotKey{sess.MatchID, sess.Slot})
	if conns := r.byMatch[sess.MatchID]; conns != nil {
		delete(conns, sess.Conn)
		if len(conns) == 0 {
			delete(r.byMatch, sess.MatchID)
		}
	}
}

// ByConn returns the session for a connection.
func (r *Registry) ByConn(conn Conn) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.byConn[conn]
	return sess, ok
}

// ByUser returns the session for a user id.
func (r *Registry) ByUser(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.byUser[userID]
	return sess, ok
}

// BySlot returns the session seated at (match, slot).
func (r *Registry) BySlot(matchID string, slot int) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.bySlot[slotKey{matchID, slot}]
	return sess, ok
}

// MatchSessions returns a snapshot of every session in a match.
func (r *Registry) MatchSessions(matchID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := r.byMatch[matchID]
	out := make([]*Session, 0, len(conns))
	for _, sess := range conns {
		out = append(out, sess)
	}
	return out
}

// MatchConnCount returns the number of live connections in a match.
func (r *Registry) MatchConnCount(matchID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byMatch[matchID])
}

// SetReady updates the ready flag for the session on conn.
func (r *Registry) SetReady(conn Conn, ready bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.byConn[conn]
	if !ok {
		return false
	}
	sess.Ready = ready
	return true
}

// SetChampion records the champion pick for the session on conn.
func (r *Registry) SetChampion(conn Conn, championID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.byConn[conn]
	if !ok {
		return false
	}
	sess.ChampionID = championID
	return true
}

// Broadcast sends a message to every connection in a match. Sends happen
// outside the registry lock; failed connections are returned so the caller
// can clean them up.
func (r *Registry) Broadcast(matchID string, msg wire.Message) []Conn {
	sessions := r.MatchSessions(matchID)
	var failed []Conn
	for _, sess := range sessions {
		if err := sess.Conn.Send(msg); err != nil {
			failed = append(failed, sess.Conn)
		}
	}
	return failed
}

// Unicast sends a message to the single connection at (match, slot).
func (r *Registry) Unicast(matchID string, slot int, msg wire.Message) error {
	sess, ok := r.BySlot(matchID, slot)
	if !ok {
		return nil
	}
	return sess.Conn.Send(msg)
}
