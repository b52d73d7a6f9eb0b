package chat

import "time"

// User is a chat participant profile. ExternalID is the stable identifier
// issued by the identity provider and is immutable; the remaining profile
// fields may change over time.
type User struct {
	ID         string    `db:"id"`
	ExternalID string    `db:"external_id"`
	Email      string    `db:"email"`
	Username   *string   `db:"username"`
	ImageURL   *string   `db:"image_url"`
	CreatedAt  time.Time `db:"created_at"`
}
