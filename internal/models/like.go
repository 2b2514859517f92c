package models

import (
	"time"

	"github.com/google/uuid"
)

// SetLike is the persisted edge for one user liking one set. CreatorID is a
// denormalized copy of the set owner at like-time so the aggregate reversal
// on unlike does not depend on the set still existing.
type SetLike struct {
	ID        uuid.UUID `json:"id"`
	SetID     uuid.UUID `json:"set_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatorID uuid.UUID `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}
