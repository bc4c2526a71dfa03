package model

import "time"

// LibraryEntry is a purchase record linking a user to a game it owns
// (`user_games` table). Playtime is tracked in whole minutes.
type LibraryEntry struct {
	UserID          uint64
	GameID          uint64
	GameTitle       string // joined from games.title on reads
	PurchasedAt     time.Time
	PlaytimeMinutes uint32
	LastPlayedAt    *time.Time
}

// Profile holds the public, user-editable part of an account (`profiles`
// table, one row per user).
type Profile struct {
	UserID      uint64
	DisplayName string
	Bio         string
	AvatarURL   string
	Country     string
	UpdatedAt   time.Time
}
