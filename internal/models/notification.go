package models

import "time"

// Notification is one append-only entry in a user's in-app feed.
type Notification struct {
	ID          string    `db:"id" json:"id"`
	RecipientID int64     `db:"recipient_user_id" json:"recipient_user_id"`
	Title       string    `db:"title" json:"title"`
	Message     string    `db:"message" json:"message"`
	Read        bool      `db:"read" json:"read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
