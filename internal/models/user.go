package models

import "time"

// Notification channel names as stored in user preferences
const (
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
)

// User represents an account that owns habits and receives notifications
type User struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	TelegramChatID int64     `json:"telegram_chat_id,omitempty" db:"telegram_chat_id"`
	Channels       []string  `json:"channels,omitempty"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// EnabledChannels returns the channels the user wants notifications on,
// falling back to email when nothing is configured.
func (u *User) EnabledChannels() []string {
	if len(u.Channels) == 0 {
		return []string{ChannelEmail}
	}
	return u.Channels
}

// DisplayName returns the best display name for the user
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
