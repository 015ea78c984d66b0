package websocket

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Inbound action names.
const (
	ActionJoinConversation      = "join_conversation"
	ActionLeaveConversation     = "leave_conversation"
	ActionSendMessage           = "send_message"
	ActionMarkMessageAsRead     = "mark_message_as_read"
	ActionMarkAllMessagesAsRead = "mark_all_messages_as_read"
	ActionStartTyping           = "start_typing"
	ActionStopTyping            = "stop_typing"
)

// Outbound event names.
const (
	EventUserJoined           = "UserJoined"
	EventUserLeft             = "UserLeft"
	EventReceiveMessage       = "ReceiveMessage"
	EventMessageRead          = "MessageRead"
	EventMessagesMarkedAsRead = "MessagesMarkedAsRead"
	EventUserTyping           = "UserTyping"
	EventUserStoppedTyping    = "UserStoppedTyping"
	EventAssistantTyping      = "AssistantTyping"
	EventError                = "Error"
)

// ActionFrame is the envelope for every inbound client message.
type ActionFrame struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// EventFrame is the envelope for every outbound server message.
type EventFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type conversationPayload struct {
	ConversationId uuid.UUID `json:"conversation_id"`
}

type markMessagePayload struct {
	MessageId uuid.UUID `json:"message_id"`
}

type presencePayload struct {
	ConversationId uuid.UUID `json:"conversation_id"`
	UserId         uuid.UUID `json:"user_id"`
}

type assistantTypingPayload struct {
	ConversationId uuid.UUID `json:"conversation_id"`
	Typing         bool      `json:"typing"`
}

type markAllPayload struct {
	ConversationId uuid.UUID `json:"conversation_id"`
	UserId         uuid.UUID `json:"user_id"`
	MarkedCount    int       `json:"marked_count"`
}

type errorPayload struct {
	ConversationId *uuid.UUID `json:"conversation_id,omitempty"`
	Message        string     `json:"message"`
}

func encodeEvent(event string, data interface{}) []byte {
	raw, err := json.Marshal(EventFrame{Event: event, Data: data})
	if err != nil {
		return nil
	}
	return raw
}
