package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeMessageSent     = "message.sent"
	EventTypeMessageRead     = "message.read"
	EventTypeAssistantReply  = "assistant.reply"
	EventTypeAssistantFailed = "assistant.failed"
)

// NewMessageSentEvent is published after a message is persisted so
// downstream consumers (unread counters, notification workers) can react
// without sitting on the send path.
func NewMessageSentEvent(conversationId, messageId uuid.UUID, senderId *uuid.UUID, recipientId *uuid.UUID) Event {
	data := map[string]interface{}{
		"conversation_id": conversationId.String(),
		"message_id":      messageId.String(),
	}
	if senderId != nil {
		data["sender_id"] = senderId.String()
	}
	if recipientId != nil {
		data["recipient_id"] = recipientId.String()
	}
	return BaseEvent{
		Type:       EventTypeMessageSent,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

func NewMessageReadEvent(conversationId, messageId, readerId uuid.UUID) Event {
	return BaseEvent{
		Type: EventTypeMessageRead,
		Data: map[string]interface{}{
			"conversation_id": conversationId.String(),
			"message_id":      messageId.String(),
			"reader_id":       readerId.String(),
		},
		OccurredAt: time.Now(),
	}
}

func NewAssistantReplyEvent(conversationId, messageId uuid.UUID) Event {
	return BaseEvent{
		Type: EventTypeAssistantReply,
		Data: map[string]interface{}{
			"conversation_id": conversationId.String(),
			"message_id":      messageId.String(),
		},
		OccurredAt: time.Now(),
	}
}

func NewAssistantFailedEvent(conversationId uuid.UUID, reason string) Event {
	return BaseEvent{
		Type: EventTypeAssistantFailed,
		Data: map[string]interface{}{
			"conversation_id": conversationId.String(),
			"reason":          reason,
		},
		OccurredAt: time.Now(),
	}
}
