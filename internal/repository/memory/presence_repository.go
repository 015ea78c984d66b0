package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// PresenceRepository tracks last-seen timestamps per user. Entries expire on
// their own, so a user with no recent activity simply drops out of the cache.
type PresenceRepository struct {
	cache *cache.Cache
}

func NewPresenceRepository() *PresenceRepository {
	// Presence older than 5 minutes is stale; purge sweep every minute.
	c := cache.New(5*time.Minute, 1*time.Minute)
	return &PresenceRepository{
		cache: c,
	}
}

func (r *PresenceRepository) Touch(userId uuid.UUID) {
	r.cache.Set(userId.String(), time.Now(), cache.DefaultExpiration)
}

func (r *PresenceRepository) LastSeen(userId uuid.UUID) (time.Time, bool) {
	if x, found := r.cache.Get(userId.String()); found {
		return x.(time.Time), true
	}
	return time.Time{}, false
}

func (r *PresenceRepository) IsOnline(userId uuid.UUID) bool {
	_, found := r.cache.Get(userId.String())
	return found
}

func (r *PresenceRepository) Forget(userId uuid.UUID) {
	r.cache.Delete(userId.String())
}
