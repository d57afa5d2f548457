package uid

import "github.com/google/uuid"

// UUID produces time-ordered v7 UUIDs, so correlation ids and lock tokens
// sort by creation time in logs.
type UUID struct {
	newV7 func() (uuid.UUID, error)
}

// NewUUID returns a v7 UUID generator.
func NewUUID() *UUID {
	return &UUID{newV7: uuid.NewV7}
}

// Generate returns a v7 UUID, or a random v4 one when the v7 source fails.
func (u *UUID) Generate() string {
	if u == nil || u.newV7 == nil {
		return uuid.NewString()
	}

	id, err := u.newV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
