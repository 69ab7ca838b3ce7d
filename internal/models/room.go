package models

import "time"

// Room is a bookable classroom or laboratory. The (room, floor) pair is unique.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"room" json:"room"`
	Floor     string    `db:"floor" json:"floor"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures filtering options for listing rooms.
type RoomFilter struct {
	Floor     string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
