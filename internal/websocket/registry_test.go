package websocket

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userId uuid.UUID) *Client {
	return &Client{
		UserId: userId,
		Send:   make(chan []byte, 8),
		done:   make(chan struct{}),
	}
}

func TestRegistryJoinLeave(t *testing.T) {
	r := NewRegistry()
	userId := uuid.New()
	conversationId := uuid.New()

	client := newTestClient(userId)
	client.Id = r.Connect(client)

	require.True(t, r.Join(client.Id, conversationId))
	assert.True(t, r.IsJoined(client.Id, conversationId))

	// Idempotent join keeps a single membership.
	require.True(t, r.Join(client.Id, conversationId))
	assert.Len(t, r.MembersOf(conversationId), 1)

	r.Leave(client.Id, conversationId)
	assert.False(t, r.IsJoined(client.Id, conversationId))
	assert.Empty(t, r.MembersOf(conversationId))

	// Idempotent leave.
	r.Leave(client.Id, conversationId)
	assert.Empty(t, r.MembersOf(conversationId))
}

func TestRegistryMultiDevice(t *testing.T) {
	r := NewRegistry()
	userId := uuid.New()
	conversationId := uuid.New()

	phone := newTestClient(userId)
	phone.Id = r.Connect(phone)
	laptop := newTestClient(userId)
	laptop.Id = r.Connect(laptop)

	require.True(t, r.Join(phone.Id, conversationId))
	require.True(t, r.Join(laptop.Id, conversationId))

	assert.Len(t, r.ConnectionsOfUser(userId), 2)
	assert.Len(t, r.MembersOf(conversationId), 2)

	// Dropping one device leaves the other joined.
	r.Disconnect(phone.Id)
	assert.Len(t, r.ConnectionsOfUser(userId), 1)
	assert.Len(t, r.MembersOf(conversationId), 1)
}

func TestRegistryDisconnectCleansAllGroups(t *testing.T) {
	r := NewRegistry()
	client := newTestClient(uuid.New())
	client.Id = r.Connect(client)

	groups := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, g := range groups {
		require.True(t, r.Join(client.Id, g))
	}

	r.Disconnect(client.Id)

	for _, g := range groups {
		assert.Empty(t, r.MembersOf(g))
	}
	_, ok := r.UserOf(client.Id)
	assert.False(t, ok)

	// Joining after disconnect is refused.
	assert.False(t, r.Join(client.Id, groups[0]))
}

func TestRegistryConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	conversationId := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := newTestClient(uuid.New())
			client.Id = r.Connect(client)
			for j := 0; j < 20; j++ {
				r.Join(client.Id, conversationId)
				r.MembersOf(conversationId)
				r.Leave(client.Id, conversationId)
			}
			r.Disconnect(client.Id)
		}()
	}
	wg.Wait()

	assert.Empty(t, r.MembersOf(conversationId))
}
