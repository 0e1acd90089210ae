package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araneusX/battleship-gateway/domain"
)

type mockConn struct {
	id     string
	userID domain.UserID
	bound  bool
	alive  bool
	mu     sync.Mutex
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) UserID() (domain.UserID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userID, m.bound
}

func (m *mockConn) Bind(id domain.UserID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bound {
		return false
	}
	m.userID = id
	m.bound = true
	return true
}

func (m *mockConn) Alive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alive
}

func (m *mockConn) SetAlive(alive bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alive = alive
}

func (m *mockConn) Send(data []byte) error { return nil }
func (m *mockConn) Ping() error            { return nil }
func (m *mockConn) Terminate() error       { return nil }
func (m *mockConn) Close() error           { return nil }

func bound(id string, user domain.UserID) *mockConn {
	return &mockConn{id: id, userID: user, bound: true, alive: true}
}

func track(r *Registry, c *mockConn) *mockConn {
	r.Track(c)
	return c
}

func TestRegistry_Bind(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*Registry)
		userID    domain.UserID
		wantConns int
	}{
		{
			name: "single connection",
			setup: func(r *Registry) {
				r.Bind(1, track(r, bound("c1", 1)))
			},
			userID:    1,
			wantConns: 1,
		},
		{
			name: "two connections same user",
			setup: func(r *Registry) {
				r.Bind(1, track(r, bound("c1", 1)))
				r.Bind(1, track(r, bound("c2", 1)))
			},
			userID:    1,
			wantConns: 2,
		},
		{
			name: "bind is idempotent per pair",
			setup: func(r *Registry) {
				c := track(r, bound("c1", 1))
				r.Bind(1, c)
				r.Bind(1, c)
			},
			userID:    1,
			wantConns: 1,
		},
		{
			name: "other user contributes nothing",
			setup: func(r *Registry) {
				r.Bind(2, track(r, bound("c1", 2)))
			},
			userID:    1,
			wantConns: 0,
		},
		{
			name: "bind after forget is a no-op",
			setup: func(r *Registry) {
				c := track(r, bound("c1", 1))
				r.Forget(c)
				r.Bind(1, c)
			},
			userID:    1,
			wantConns: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			tt.setup(r)

			assert.Len(t, r.ConnectionsFor(tt.userID), tt.wantConns)
		})
	}
}

func TestRegistry_UnbindRemovesEmptyBucket(t *testing.T) {
	r := New()
	conn := track(r, bound("c1", 7))

	r.Bind(7, conn)
	users, _ := r.Stats()
	require.Equal(t, 1, users)

	r.Unbind(7, conn)
	users, _ = r.Stats()
	assert.Equal(t, 0, users)
	assert.Empty(t, r.ConnectionsFor(7))
}

func TestRegistry_UnbindKeepsSiblings(t *testing.T) {
	r := New()
	first := track(r, bound("c1", 7))
	second := track(r, bound("c2", 7))

	r.Bind(7, first)
	r.Bind(7, second)
	r.Unbind(7, first)

	conns := r.ConnectionsFor(7)
	require.Len(t, conns, 1)
	assert.Equal(t, "c2", conns[0].ID())
}

func TestRegistry_TrackAndForget(t *testing.T) {
	r := New()
	unregistered := &mockConn{id: "c1", alive: true}
	registered := bound("c2", 3)

	r.Track(unregistered)
	r.Track(registered)
	r.Bind(3, registered)

	assert.Len(t, r.AllConnections(), 2, "broadcast set includes unregistered connections")

	r.Forget(registered)
	assert.Len(t, r.AllConnections(), 1)
	assert.Empty(t, r.ConnectionsFor(3), "forget removes the user bucket entry")

	r.Forget(unregistered)
	users, conns := r.Stats()
	assert.Equal(t, 0, users)
	assert.Equal(t, 0, conns)
}

func TestRegistry_ConcurrentBindUnbind(t *testing.T) {
	r := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c := bound(string(rune('a'+n)), domain.UserID(n%4))
			r.Track(c)
			r.Bind(domain.UserID(n%4), c)
			r.Unbind(domain.UserID(n%4), c)
			r.Forget(c)
		}(i)
	}
	wg.Wait()

	users, conns := r.Stats()
	assert.Equal(t, 0, users)
	assert.Equal(t, 0, conns)
}
