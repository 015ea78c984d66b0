package entity

import (
	"time"

	"github.com/google/uuid"
)

// User carries the identity fields the messaging core needs. Account
// management (passwords, providers, verification) lives in the identity
// service and is not modeled here.
type User struct {
	Id          uuid.UUID
	Email       string
	DisplayName string
	AvatarURL   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
