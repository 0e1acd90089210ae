package registry

import (
	"log/slog"
	"sync"

	"github.com/araneusX/battleship-gateway/domain"
)

// Registry maps user identities to their live connections and keeps an index
// of every accepted connection, bound or not. All components mutate it under
// one lock: the registration handler binds, the heartbeat monitor and the
// listener's close path remove, the dispatch gateway reads.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]domain.Connection
	users map[domain.UserID]map[string]domain.Connection
}

func New() *Registry {
	return &Registry{
		conns: make(map[string]domain.Connection),
		users: make(map[domain.UserID]map[string]domain.Connection),
	}
}

// Track records a newly accepted connection so broadcasts reach it before
// registration.
func (r *Registry) Track(conn domain.Connection) {
	r.mu.Lock()
	r.conns[conn.ID()] = conn
	count := len(r.conns)
	r.mu.Unlock()

	slog.Info("connection accepted", "clientId", conn.ID(), "connections", count)
}

// Forget removes a connection entirely, including its user bucket entry if
// it was bound. Called on transport close and heartbeat eviction.
func (r *Registry) Forget(conn domain.Connection) {
	r.mu.Lock()
	delete(r.conns, conn.ID())
	count := len(r.conns)

	if id, ok := conn.UserID(); ok {
		r.removeFromBucket(id, conn)
	}
	r.mu.Unlock()

	slog.Info("connection removed", "clientId", conn.ID(), "connections", count)
}

// Bind adds the connection to the bucket for id, creating it if absent.
// Idempotent for a repeated (id, conn) pair.
func (r *Registry) Bind(id domain.UserID, conn domain.Connection) {
	r.mu.Lock()
	if _, tracked := r.conns[conn.ID()]; !tracked {
		// the connection went away before the bind landed
		r.mu.Unlock()
		return
	}
	bucket, exists := r.users[id]
	if !exists {
		bucket = make(map[string]domain.Connection)
		r.users[id] = bucket
	}
	bucket[conn.ID()] = conn
	count := len(bucket)
	r.mu.Unlock()

	slog.Info("user bound", "userId", id, "clientId", conn.ID(), "connections", count)
}

// Unbind removes the connection from the bucket for id; an emptied bucket is
// deleted so lookups behave as "no connections".
func (r *Registry) Unbind(id domain.UserID, conn domain.Connection) {
	r.mu.Lock()
	r.removeFromBucket(id, conn)
	r.mu.Unlock()
}

// removeFromBucket must run with r.mu held.
func (r *Registry) removeFromBucket(id domain.UserID, conn domain.Connection) {
	bucket, exists := r.users[id]
	if !exists {
		return
	}
	delete(bucket, conn.ID())
	if len(bucket) == 0 {
		delete(r.users, id)
		slog.Debug("user offline", "userId", id)
	}
}

// ConnectionsFor returns the live connections bound to id, empty if none.
func (r *Registry) ConnectionsFor(id domain.UserID) []domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.users[id]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]domain.Connection, 0, len(bucket))
	for _, conn := range bucket {
		out = append(out, conn)
	}
	return out
}

// AllConnections returns every accepted connection, registered or not.
func (r *Registry) AllConnections() []domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}

func (r *Registry) Stats() (users, connections int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), len(r.conns)
}
