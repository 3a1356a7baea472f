package models

import "time"

// Platform is the chat platform a participant joined from.
type Platform string

const (
	PlatformTwitch  Platform = "twitch"
	PlatformYouTube Platform = "youtube"
)

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	return p == PlatformTwitch || p == PlatformYouTube
}

// Giveaway is a giveaway run by a streamer.
type Giveaway struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Name          string    `json:"name"`
	Command       string    `json:"command"`
	TickerMessage *string   `json:"ticker_message,omitempty"`
	IsOpen        bool      `json:"is_open"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Participant is a chat user who entered a giveaway.
type Participant struct {
	ID             int64     `json:"id"`
	GiveawayID     int64     `json:"giveaway_id"`
	Platform       Platform  `json:"platform"`
	PlatformUserID string    `json:"platform_user_id"`
	DisplayName    string    `json:"display_name"`
	FirstSeen      time.Time `json:"first_seen"`
	LastSeen       time.Time `json:"last_seen"`
}

// Winner is a participant drawn in a giveaway.
type Winner struct {
	ID             int64     `json:"id"`
	GiveawayID     int64     `json:"giveaway_id"`
	Platform       Platform  `json:"platform"`
	PlatformUserID string    `json:"platform_user_id"`
	DisplayName    string    `json:"display_name"`
	DrawnAt        time.Time `json:"drawn_at"`
}
