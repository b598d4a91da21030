package session

import (
	"sync"
	"testing"

	"battle-arena/server/internal/wire"
)

type fakeConn struct {
	mu     sync.Mutex
	sent   []wire.Message
	closed bool
	addr   string
}

func newFakeConn(addr string) *fakeConn { return &fakeConn{addr: addr} }

func (c *fakeConn) Send(msg wire.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) RemoteAddr() string { return c.addr }

func (c *fakeConn) wasClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func TestRegisterAndLookups(t *testing.T) {
	reg := NewRegistry(nil)
	conn := newFakeConn("10.0.0.1:5000")
	sess := &Session{Conn: conn, UserID: "u1", MatchID: "m1", Slot: 0}

	if !reg.Register(sess) {
		t.Fatalf("register failed")
	}
	if got, ok := reg.ByConn(conn); !ok || got.UserID != "u1" {
		t.Fatalf("ByConn lookup failed: %v %v", got, ok)
	}
	if got, ok := reg.ByUser("u1"); !ok || got.Conn != Conn(conn) {
		t.Fatalf("ByUser lookup failed: %v %v", got, ok)
	}
	if got, ok := reg.BySlot("m1", 0); !ok || got.UserID != "u1" {
		t.Fatalf("BySlot lookup failed: %v %v", got, ok)
	}
	if n := reg.MatchConnCount("m1"); n != 1 {
		t.Fatalf("expected 1 connection in match, got %d", n)
	}
}

func TestDuplicateUserReplacesStaleConnection(t *testing.T) {
	reg := NewRegistry(nil)
	old := newFakeConn("10.0.0.1:5000")
	if !reg.Register(&Session{Conn: old, UserID: "u1", MatchID: "m1", Slot: 0}) {
		t.Fatalf("first register failed")
	}

	fresh := newFakeConn("10.0.0.1:5001")
	if !reg.Register(&Session{Conn: fresh, UserID: "u1", MatchID: "m1", Slot: 0}) {
		t.Fatalf("reconnect register failed")
	}
	if !old.wasClosed() {
		t.Fatalf("stale connection should be closed")
	}
	if got, ok := reg.ByUser("u1"); !ok || got.Conn != Conn(fresh) {
		t.Fatalf("user should map to the fresh connection")
	}
	if _, ok := reg.ByConn(old); ok {
		t.Fatalf("stale connection should be unmapped")
	}
}

func TestDuplicateRegistrationSameConnRejected(t *testing.T) {
	reg := NewRegistry(nil)
	conn := newFakeConn("a")
	sess := &Session{Conn: conn, UserID: "u1", MatchID: "m1", Slot: 0}
	if !reg.Register(sess) {
		t.Fatalf("first register failed")
	}
	if reg.Register(sess) {
		t.Fatalf("second register with the same connection should be rejected")
	}
}

func TestOccupiedSlotRejected(t *testing.T) {
	reg := NewRegistry(nil)
	if !reg.Register(&Session{Conn: newFakeConn("a"), UserID: "u1", MatchID: "m1", Slot: 1}) {
		t.Fatalf("first register failed")
	}
	if reg.Register(&Session{Conn: newFakeConn("b"), UserID: "u2", MatchID: "m1", Slot: 1}) {
		t.Fatalf("second user must not take an occupied slot")
	}
	// Same slot in a different match is fine.
	if !reg.Register(&Session{Conn: newFakeConn("c"), UserID: "u3", MatchID: "m2", Slot: 1}) {
		t.Fatalf("same slot in another match should register")
	}
}

func TestUnregisterFiresEmptyMatchHook(t *testing.T) {
	var emptied []string
	reg := NewRegistry(func(matchID string) { emptied = append(emptied, matchID) })

	a := newFakeConn("a")
	b := newFakeConn("b")
	reg.Register(&Session{Conn: a, UserID: "u1", MatchID: "m1", Slot: 0})
	reg.Register(&Session{Conn: b, UserID: "u2", MatchID: "m1", Slot: 1})

	reg.Unregister(a)
	if len(emptied) != 0 {
		t.Fatalf("hook must not fire while connections remain")
	}
	reg.Unregister(b)
	if len(emptied) != 1 || emptied[0] != "m1" {
		t.Fatalf("hook should fire exactly once for m1, got %v", emptied)
	}
	if reg.Unregister(b) != nil {
		t.Fatalf("second unregister should be a no-op")
	}
}

func TestReadyAndChampionUpdates(t *testing.T) {
	reg := NewRegistry(nil)
	conn := newFakeConn("a")
	reg.Register(&Session{Conn: conn, UserID: "u1", MatchID: "m1", Slot: 0})

	if !reg.SetReady(conn, true) {
		t.Fatalf("SetReady failed")
	}
	if !reg.SetChampion(conn, "blade-master") {
		t.Fatalf("SetChampion failed")
	}
	sess, _ := reg.ByConn(conn)
	if !sess.Ready || sess.ChampionID != "blade-master" {
		t.Fatalf("updates not applied: %+v", sess)
	}
	if reg.SetReady(newFakeConn("x"), true) {
		t.Fatalf("SetReady on unknown connection should fail")
	}
}

func TestBroadcastReachesWholeMatch(t *testing.T) {
	reg := NewRegistry(nil)
	a := newFakeConn("a")
	b := newFakeConn("b")
	c := newFakeConn("c")
	reg.Register(&Session{Conn: a, UserID: "u1", MatchID: "m1", Slot: 0})
	reg.Register(&Session{Conn: b, UserID: "u2", MatchID: "m1", Slot: 1})
	reg.Register(&Session{Conn: c, UserID: "u3", MatchID: "m2", Slot: 0})

	failed := reg.Broadcast("m1", &wire.GoldUpdate{Slot: 0, Gold: 100})
	if len(failed) != 0 {
		t.Fatalf("no sends should fail: %v", failed)
	}
	if a.sentCount() != 1 || b.sentCount() != 1 {
		t.Fatalf("match members should each receive one message")
	}
	if c.sentCount() != 0 {
		t.Fatalf("other match must not receive the broadcast")
	}
}
