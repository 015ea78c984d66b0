package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReadStatus string

const (
	ReadStatusSent      ReadStatus = "sent"
	ReadStatusDelivered ReadStatus = "delivered"
	ReadStatusRead      ReadStatus = "read"
)

// Rank orders read statuses for the monotonic-only transition rule.
// A transition to a lower or equal rank is silently ignored.
func (s ReadStatus) Rank() int {
	switch s {
	case ReadStatusSent:
		return 0
	case ReadStatusDelivered:
		return 1
	case ReadStatusRead:
		return 2
	}
	return -1
}

type MessageReadStatus struct {
	Id        uuid.UUID
	MessageId uuid.UUID
	UserId    uuid.UUID
	Status    ReadStatus
	StatusAt  time.Time
}
