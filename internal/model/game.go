package model

import "time"

// Game is a catalog entry in the `games` table. Tags are loaded separately
// from `game_tags` and may be empty.
type Game struct {
	ID          uint64
	Title       string
	Description string
	Developer   string
	Publisher   string
	ReleaseDate *time.Time
	PriceCents  uint32
	Tags        []Tag
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tag is a catalog taxonomy label such as "RPG" or "Co-op".
type Tag struct {
	ID   uint64
	Name string
}

// GameFilter narrows catalog listings. Zero values mean "no filter".
type GameFilter struct {
	Tag    string // exact tag name
	Query  string // case-insensitive title substring
	Limit  int
	Offset int
}
