package dto

import "time"

// NewsView projects a news item with its resolved image URL.
type NewsView struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

// EventView projects an event with its resolved image URL.
type EventView struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	Image       *string   `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
}

// StudentHomeResponse is the student landing page payload.
type StudentHomeResponse struct {
	Events []EventView `json:"events"`
	News   []NewsView  `json:"news"`
}

// DashboardStats carries request-state percentages, rounded to integers.
type DashboardStats struct {
	PendingPercentage  int `json:"pending_percentage"`
	AcceptedPercentage int `json:"accepted_percentage"`
	RejectedPercentage int `json:"rejected_percentage"`
}

// DashboardResponse is the admin dashboard payload.
type DashboardResponse struct {
	Events []EventView    `json:"events"`
	Stats  DashboardStats `json:"stats"`
}

// ProfileResponse is the authenticated profile payload.
type ProfileResponse struct {
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	PhoneNumber     *string `json:"phone_number"`
	Major           string  `json:"major"`
	Type            string  `json:"type"`
	ProfilePhotoURL string  `json:"profile_photo_url"`
	CoverPhotoURL   string  `json:"cover_photo_url"`
}

// NotificationView is one unread feed entry.
type NotificationView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportResult summarises a bulk user import.
type ImportResult struct {
	ImportedCount int     `json:"imported_count"`
	SkippedCount  int     `json:"skipped_count"`
	SkippedIDs    []int64 `json:"skipped_ids"`
}
