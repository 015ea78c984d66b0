package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/GeorgeShani/Learnyx-sub001/internal/dto"
	"github.com/GeorgeShani/Learnyx-sub001/pkg/events"
	pkgNats "github.com/GeorgeShani/Learnyx-sub001/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process bus and relays message-sent
// payloads onto the durable event stream. Downstream workers (unread
// counters, push notification fan-out) subscribe there, off the send path.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	eventPublisher *pkgNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	eventPublisher *pkgNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		eventPublisher: eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishChatEvent
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if cs.eventPublisher == nil {
		msg.Ack()
		return
	}

	evt, ok := cs.toStreamEvent(payload)
	if !ok {
		log.Printf("[ERROR] Dropping malformed %q event for conversation %s", payload.Kind, payload.ConversationId)
		msg.Ack()
		return
	}

	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		log.Printf("[ERROR] Failed to relay %s for conversation %s: %v", payload.Kind, payload.ConversationId, err)
		msg.Nack() // Nack for retriable errors
		return
	}

	msg.Ack()
}

// toStreamEvent maps a bus payload to its durable stream event. The second
// return value is false for payloads missing the fields their kind needs.
func (cs *consumerService) toStreamEvent(payload dto.PublishChatEvent) (events.Event, bool) {
	switch payload.Kind {
	case events.EventTypeMessageSent:
		if payload.MessageId == nil {
			return nil, false
		}
		return events.NewMessageSentEvent(payload.ConversationId, *payload.MessageId, payload.SenderId, payload.RecipientId), true
	case events.EventTypeMessageRead:
		if payload.MessageId == nil || payload.ReaderId == nil {
			return nil, false
		}
		return events.NewMessageReadEvent(payload.ConversationId, *payload.MessageId, *payload.ReaderId), true
	case events.EventTypeAssistantReply:
		if payload.MessageId == nil {
			return nil, false
		}
		return events.NewAssistantReplyEvent(payload.ConversationId, *payload.MessageId), true
	case events.EventTypeAssistantFailed:
		return events.NewAssistantFailedEvent(payload.ConversationId, payload.Reason), true
	default:
		return nil, false
	}
}
