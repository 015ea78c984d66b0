package model

import (
	"time"

	"github.com/google/uuid"
)

type MessageReadStatus struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_read_statuses_message_user"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_read_statuses_message_user;index"`
	Status    string    `gorm:"type:varchar(16);not null"`
	StatusAt  time.Time `gorm:"not null"`
}

func (MessageReadStatus) TableName() string {
	return "message_read_statuses"
}
