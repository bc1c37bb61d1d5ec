package user

import "time"

// User is the local directory entry mirrored from the auth provider. It only
// carries what is needed to label authored content.
type User struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	ImageURL  string    `json:"image_url,omitempty" db:"image_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

const AnonymousUsername = "Anonymous"
