package websocket

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/GeorgeShani/Learnyx-sub001/internal/apperror"
	"github.com/GeorgeShani/Learnyx-sub001/internal/dto"
	"github.com/GeorgeShani/Learnyx-sub001/internal/pkg/logger"
	"github.com/GeorgeShani/Learnyx-sub001/internal/pkg/serverutils"
	"github.com/GeorgeShani/Learnyx-sub001/internal/repository/memory"
	"github.com/GeorgeShani/Learnyx-sub001/internal/service"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const relayChannel = "chat_cluster_events"

// relayEnvelope carries a group event across instances through Redis.
// Origin lets an instance skip frames it already delivered locally.
type relayEnvelope struct {
	Origin         string          `json:"origin"`
	ConversationId uuid.UUID       `json:"conversation_id"`
	Frame          json.RawMessage `json:"frame"`
}

// Gateway is the connection-facing protocol handler: it parses client
// actions, delegates to the chat service, and fans resulting events out to
// the right groups. Action failures never close the connection; they become
// caller-scoped Error events.
type Gateway struct {
	registry    *Registry
	chatService service.IChatService
	presence    *memory.PresenceRepository
	rdb         *redis.Client
	logger      logger.ILogger

	// instanceId distinguishes this process on the relay channel.
	instanceId string
}

func NewGateway(
	chatService service.IChatService,
	presence *memory.PresenceRepository,
	rdb *redis.Client,
	log logger.ILogger,
) *Gateway {
	return &Gateway{
		registry:    NewRegistry(),
		chatService: chatService,
		presence:    presence,
		rdb:         rdb,
		logger:      log,
		instanceId:  uuid.NewString(),
	}
}

func (g *Gateway) Registry() *Registry {
	return g.registry
}

// Run starts the cross-instance relay subscriber. Without Redis the gateway
// still works single-instance.
func (g *Gateway) Run() {
	if g.rdb != nil {
		go g.subscribeToRelay()
	}
}

// Serve registers the connection and blocks pumping frames until it closes.
// The caller must already have authenticated the user.
func (g *Gateway) Serve(conn *websocket.Conn, userId uuid.UUID) {
	client := &Client{
		gateway: g,
		Conn:    conn,
		UserId:  userId,
		Send:    make(chan []byte, 256),
		done:    make(chan struct{}),
	}
	client.Id = g.registry.Connect(client)
	g.presence.Touch(userId)
	g.logger.Info("Gateway", "Client connected", map[string]interface{}{
		"user_id":       userId,
		"connection_id": client.Id,
	})

	go client.writePump()
	client.readPump()
}

func (g *Gateway) disconnect(c *Client) {
	g.registry.Disconnect(c.Id)
	g.presence.Touch(c.UserId)
	close(c.done)
	g.logger.Info("Gateway", "Client disconnected", map[string]interface{}{
		"user_id":       c.UserId,
		"connection_id": c.Id,
	})
}

func (g *Gateway) handleFrame(c *Client, raw []byte) {
	var frame ActionFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		g.sendError(c, nil, "malformed frame")
		return
	}
	g.presence.Touch(c.UserId)

	ctx := context.Background()

	switch frame.Action {
	case ActionJoinConversation:
		g.handleJoin(ctx, c, frame.Data)
	case ActionLeaveConversation:
		g.handleLeave(c, frame.Data)
	case ActionSendMessage:
		g.handleSendMessage(ctx, c, frame.Data)
	case ActionMarkMessageAsRead:
		g.handleMarkAsRead(ctx, c, frame.Data)
	case ActionMarkAllMessagesAsRead:
		g.handleMarkAllAsRead(ctx, c, frame.Data)
	case ActionStartTyping:
		g.handleTyping(c, frame.Data, true)
	case ActionStopTyping:
		g.handleTyping(c, frame.Data, false)
	default:
		g.sendError(c, nil, "unknown action")
	}
}

// handleJoin authorization-checks via the chat service. Denial is silent:
// no state change and no event, so a probing client learns nothing about
// the conversation's existence.
func (g *Gateway) handleJoin(ctx context.Context, c *Client, data json.RawMessage) {
	var payload conversationPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ConversationId == uuid.Nil {
		g.sendError(c, nil, "conversation_id is required")
		return
	}

	allowed, err := g.chatService.CanAccess(ctx, payload.ConversationId, c.UserId)
	if err != nil || !allowed {
		return
	}
	if !g.registry.Join(c.Id, payload.ConversationId) {
		return
	}

	g.broadcast(payload.ConversationId, EventUserJoined, presencePayload{
		ConversationId: payload.ConversationId,
		UserId:         c.UserId,
	})
}

func (g *Gateway) handleLeave(c *Client, data json.RawMessage) {
	var payload conversationPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ConversationId == uuid.Nil {
		g.sendError(c, nil, "conversation_id is required")
		return
	}
	if !g.registry.IsJoined(c.Id, payload.ConversationId) {
		return
	}
	g.registry.Leave(c.Id, payload.ConversationId)

	g.broadcast(payload.ConversationId, EventUserLeft, presencePayload{
		ConversationId: payload.ConversationId,
		UserId:         c.UserId,
	})
}

func (g *Gateway) handleSendMessage(ctx context.Context, c *Client, data json.RawMessage) {
	var req dto.SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		g.sendError(c, nil, "malformed send_message payload")
		return
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		g.sendError(c, &req.ConversationId, err.Error())
		return
	}

	message, assistantTyped, err := g.chatService.SendMessage(ctx, c.UserId, &req)
	if err != nil {
		g.sendError(c, &req.ConversationId, errorMessage(err))
		return
	}

	g.broadcast(message.ConversationId, EventReceiveMessage, message)

	if assistantTyped {
		// Detached so the sender's acknowledgment never waits on
		// generation latency. Conversation state is authoritative; the
		// turn completes even if this connection drops mid-generation.
		go g.runAssistantTurn(message.ConversationId)
	}
}

// runAssistantTurn drives one assistant response cycle. The typing
// indicator is cleared on every exit path.
func (g *Gateway) runAssistantTurn(conversationId uuid.UUID) {
	ctx := context.Background()

	g.broadcast(conversationId, EventAssistantTyping, assistantTypingPayload{
		ConversationId: conversationId,
		Typing:         true,
	})
	defer g.broadcast(conversationId, EventAssistantTyping, assistantTypingPayload{
		ConversationId: conversationId,
		Typing:         false,
	})

	text, err := g.chatService.GetAssistantResponse(ctx, conversationId)
	if err != nil {
		g.logger.Error("Gateway", "Assistant turn failed", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err,
		})
		g.broadcast(conversationId, EventError, errorPayload{
			ConversationId: &conversationId,
			Message:        errorMessage(err),
		})
		return
	}

	reply, err := g.chatService.SendAssistantMessage(ctx, conversationId, text)
	if err != nil {
		g.logger.Error("Gateway", "Failed to persist assistant reply", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err,
		})
		g.broadcast(conversationId, EventError, errorPayload{
			ConversationId: &conversationId,
			Message:        errorMessage(err),
		})
		return
	}

	g.broadcast(conversationId, EventReceiveMessage, reply)
}

func (g *Gateway) handleMarkAsRead(ctx context.Context, c *Client, data json.RawMessage) {
	var payload markMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.MessageId == uuid.Nil {
		g.sendError(c, nil, "message_id is required")
		return
	}

	status, err := g.chatService.MarkAsRead(ctx, payload.MessageId, c.UserId)
	if err != nil {
		g.sendError(c, nil, errorMessage(err))
		return
	}

	g.broadcast(status.ConversationId, EventMessageRead, status)
}

func (g *Gateway) handleMarkAllAsRead(ctx context.Context, c *Client, data json.RawMessage) {
	var payload conversationPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ConversationId == uuid.Nil {
		g.sendError(c, nil, "conversation_id is required")
		return
	}

	result, err := g.chatService.MarkAllAsRead(ctx, payload.ConversationId, c.UserId)
	if err != nil {
		g.sendError(c, &payload.ConversationId, errorMessage(err))
		return
	}

	g.broadcast(payload.ConversationId, EventMessagesMarkedAsRead, markAllPayload{
		ConversationId: payload.ConversationId,
		UserId:         c.UserId,
		MarkedCount:    result.MarkedCount,
	})
}

// handleTyping relays typing signals to the group. Best-effort, no
// persistence; membership is the only gate.
func (g *Gateway) handleTyping(c *Client, data json.RawMessage, typing bool) {
	var payload conversationPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ConversationId == uuid.Nil {
		return
	}
	if !g.registry.IsJoined(c.Id, payload.ConversationId) {
		return
	}

	event := EventUserStoppedTyping
	if typing {
		event = EventUserTyping
	}
	g.broadcast(payload.ConversationId, event, presencePayload{
		ConversationId: payload.ConversationId,
		UserId:         c.UserId,
	})
}

// broadcast delivers a group event locally and relays it to other
// instances through Redis.
func (g *Gateway) broadcast(conversationId uuid.UUID, event string, data interface{}) {
	frame := encodeEvent(event, data)
	if frame == nil {
		return
	}

	g.deliverLocal(conversationId, frame)

	if g.rdb != nil {
		envelope, err := json.Marshal(relayEnvelope{
			Origin:         g.instanceId,
			ConversationId: conversationId,
			Frame:          frame,
		})
		if err != nil {
			return
		}
		if err := g.rdb.Publish(context.Background(), relayChannel, envelope).Err(); err != nil {
			g.logger.Warn("Gateway", "Relay publish failed", map[string]interface{}{
				"conversation_id": conversationId,
				"error":           err,
			})
		}
	}
}

func (g *Gateway) deliverLocal(conversationId uuid.UUID, frame []byte) {
	for _, client := range g.registry.MembersOf(conversationId) {
		select {
		case client.Send <- frame:
		default:
			g.logger.Warn("Gateway", "Send buffer full, dropping frame", map[string]interface{}{
				"user_id": client.UserId,
			})
		}
	}
}

func (g *Gateway) subscribeToRelay() {
	ctx := context.Background()
	pubsub := g.rdb.Subscribe(ctx, relayChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var envelope relayEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			g.logger.Warn("Gateway", "Malformed relay payload", map[string]interface{}{"error": err})
			continue
		}
		if envelope.Origin == g.instanceId {
			continue
		}
		g.deliverLocal(envelope.ConversationId, envelope.Frame)
	}
}

// sendError emits a caller-scoped Error event. The connection stays open.
func (g *Gateway) sendError(c *Client, conversationId *uuid.UUID, message string) {
	frame := encodeEvent(EventError, errorPayload{
		ConversationId: conversationId,
		Message:        message,
	})
	if frame == nil {
		return
	}
	select {
	case c.Send <- frame:
	default:
	}
}

// errorMessage keeps internal causes out of client-visible errors.
func errorMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}
