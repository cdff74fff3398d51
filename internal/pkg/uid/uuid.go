package uid

import "github.com/google/uuid"

// UUID produces time-ordered UUIDv7 strings, degrading to random v4 when
// the v7 source fails.
type UUID struct {
	newV7 func() (uuid.UUID, error)
}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{newV7: uuid.NewV7}
}

// Generate returns a new UUID string.
func (u *UUID) Generate() string {
	if u.newV7 != nil {
		if id, err := u.newV7(); err == nil {
			return id.String()
		}
	}

	return uuid.NewString()
}
