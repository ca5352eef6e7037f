// Package runtime hosts the process-wide broadcast engine: the session
// registry, the per-room command dispatch, and the fan-out of events to
// connected clients. It contains no transport or storage logic of its own.
package runtime

import (
	"bubble/contract"
	"sync"
)

type Set map[string]struct{}

// Registry tracks, for every live connection, which rooms it currently
// occupies, plus the reverse index used by broadcast. It is the only
// concurrently mutated shared structure of the engine.
//
// A connection normally occupies at most one room, but a join without a
// prior leave does not clear earlier memberships. Broadcasts then still
// reach the stale room. Disconnect is the only operation that clears
// everything at once.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]contract.EventSink // connection -> delivery sink
	roomMembers map[string]Set                // room -> connection set
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]contract.EventSink),
		roomMembers: make(map[string]Set),
	}
}

// Subscribe registers a connection's delivery sink and adds it to a room.
// If the room has no member set yet, it is initialized on the fly.
func (r *Registry) Subscribe(connectionID, room string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[connectionID] = sink

	if _, ok := r.roomMembers[room]; !ok {
		r.roomMembers[room] = make(Set)
	}
	r.roomMembers[room][connectionID] = struct{}{}
}

// Unsubscribe removes one membership; the session itself stays alive since
// the connection may join another room afterwards. No-op when absent.
// Empty member sets are removed to avoid leaking room entries over time.
func (r *Registry) Unsubscribe(connectionID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeMember(connectionID, room)
}

// Drop removes the session and every membership it holds. Called on
// disconnect; an event already in flight towards the dropped sink is
// simply lost, never an error.
func (r *Registry) Drop(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, connectionID)
	for room := range r.roomMembers {
		r.removeMember(connectionID, room)
	}
}

// removeMember must be called with the write lock held.
func (r *Registry) removeMember(connectionID, room string) {
	members, ok := r.roomMembers[room]
	if !ok {
		return
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(r.roomMembers, room)
	}
}

// SinksForRoom returns a snapshot of the member sinks of one room, so the
// caller can iterate without holding the lock while memberships mutate.
// Returns nil for an unknown or empty room.
func (r *Registry) SinksForRoom(room string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for connectionID := range members {
		if sink, exists := r.sessions[connectionID]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// SinkOf resolves the delivery sink of a single connection.
func (r *Registry) SinkOf(connectionID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sink, ok := r.sessions[connectionID]
	return sink, ok
}

// Stats reports the current number of sessions and occupied rooms.
func (r *Registry) Stats() (sessions, rooms int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions), len(r.roomMembers)
}
