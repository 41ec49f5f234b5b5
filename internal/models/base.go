package models

import "time"

// Base is the base model for all entities. IDs are auto-increment integers
// for compatibility with the original SQLite schema (the API renders them as
// strings).
type Base struct {
	ID        uint      `json:"id"       gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"modified"`
}
