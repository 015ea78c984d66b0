package websocket

import (
	"sync"

	"github.com/google/uuid"
)

// connection is one live socket: owning user plus the set of conversation
// groups it has joined. The arena in Registry indexes these by connection id
// so join/leave stays O(1) and groups never hold dangling back-references.
type connection struct {
	id     uuid.UUID
	userId uuid.UUID
	client *Client

	mu     sync.Mutex
	joined map[uuid.UUID]struct{}
}

// group holds the members of one conversation. Each group carries its own
// lock so traffic in unrelated conversations never serializes.
type group struct {
	mu      sync.RWMutex
	members map[uuid.UUID]*connection
}

// Registry tracks live connections and their conversation-group membership.
// It is process-local and ephemeral; clients re-join after reconnecting.
type Registry struct {
	// mu guards the two maps only. Member churn inside a group takes the
	// group's own lock.
	mu     sync.RWMutex
	conns  map[uuid.UUID]*connection
	groups map[uuid.UUID]*group
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[uuid.UUID]*connection),
		groups: make(map[uuid.UUID]*group),
	}
}

// Connect registers a client and returns its connection id.
func (r *Registry) Connect(client *Client) uuid.UUID {
	conn := &connection{
		id:     uuid.New(),
		userId: client.UserId,
		client: client,
		joined: make(map[uuid.UUID]struct{}),
	}
	r.mu.Lock()
	r.conns[conn.id] = conn
	r.mu.Unlock()
	return conn.id
}

// Disconnect removes the connection from every group it joined, exactly
// once. Unknown ids are a no-op.
func (r *Registry) Disconnect(connId uuid.UUID) {
	r.mu.Lock()
	conn, ok := r.conns[connId]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, connId)
	r.mu.Unlock()

	conn.mu.Lock()
	joined := make([]uuid.UUID, 0, len(conn.joined))
	for conversationId := range conn.joined {
		joined = append(joined, conversationId)
	}
	conn.joined = make(map[uuid.UUID]struct{})
	conn.mu.Unlock()

	for _, conversationId := range joined {
		r.removeMember(conversationId, connId)
	}
}

// Join adds the connection to the conversation's group. Idempotent; returns
// false only if the connection is unknown (already disconnected).
func (r *Registry) Join(connId, conversationId uuid.UUID) bool {
	r.mu.RLock()
	conn, ok := r.conns[connId]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	g := r.getOrCreateGroup(conversationId)
	g.mu.Lock()
	g.members[connId] = conn
	g.mu.Unlock()

	conn.mu.Lock()
	conn.joined[conversationId] = struct{}{}
	conn.mu.Unlock()
	return true
}

// Leave removes the connection from the group. Idempotent.
func (r *Registry) Leave(connId, conversationId uuid.UUID) {
	r.mu.RLock()
	conn, ok := r.conns[connId]
	r.mu.RUnlock()
	if ok {
		conn.mu.Lock()
		delete(conn.joined, conversationId)
		conn.mu.Unlock()
	}
	r.removeMember(conversationId, connId)
}

// IsJoined reports whether the connection currently belongs to the group.
func (r *Registry) IsJoined(connId, conversationId uuid.UUID) bool {
	r.mu.RLock()
	conn, ok := r.conns[connId]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	conn.mu.Lock()
	_, joined := conn.joined[conversationId]
	conn.mu.Unlock()
	return joined
}

// MembersOf returns a snapshot of the clients joined to the conversation.
func (r *Registry) MembersOf(conversationId uuid.UUID) []*Client {
	r.mu.RLock()
	g, ok := r.groups[conversationId]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	g.mu.RLock()
	clients := make([]*Client, 0, len(g.members))
	for _, conn := range g.members {
		clients = append(clients, conn.client)
	}
	g.mu.RUnlock()
	return clients
}

// ConnectionsOfUser returns every live client of a user (multi-device).
func (r *Registry) ConnectionsOfUser(userId uuid.UUID) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var clients []*Client
	for _, conn := range r.conns {
		if conn.userId == userId {
			clients = append(clients, conn.client)
		}
	}
	return clients
}

// UserOf resolves the owner of a connection.
func (r *Registry) UserOf(connId uuid.UUID) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connId]
	if !ok {
		return uuid.Nil, false
	}
	return conn.userId, true
}

func (r *Registry) getOrCreateGroup(conversationId uuid.UUID) *group {
	r.mu.RLock()
	g, ok := r.groups[conversationId]
	r.mu.RUnlock()
	if ok {
		return g
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok = r.groups[conversationId]; ok {
		return g
	}
	g = &group{members: make(map[uuid.UUID]*connection)}
	r.groups[conversationId] = g
	return g
}

func (r *Registry) removeMember(conversationId, connId uuid.UUID) {
	r.mu.RLock()
	g, ok := r.groups[conversationId]
	r.mu.RUnlock()
	if !ok {
		return
	}

	g.mu.Lock()
	delete(g.members, connId)
	empty := len(g.members) == 0
	g.mu.Unlock()

	if empty {
		// Drop the group entry; re-check emptiness under the registry lock
		// in case a Join raced in.
		r.mu.Lock()
		if cur, ok := r.groups[conversationId]; ok && cur == g {
			g.mu.RLock()
			if len(g.members) == 0 {
				delete(r.groups, conversationId)
			}
			g.mu.RUnlock()
		}
		r.mu.Unlock()
	}
}
