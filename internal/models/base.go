package models

import "time"

// Base contains common columns for all tables.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DateLayout is the wire and storage format for civil dates. Dates are kept
// as plain YYYY-MM-DD strings so that lexicographic comparison matches
// chronological order and no timezone conversion is ever applied to them.
const DateLayout = "2006-01-02"
