package models

import "time"

// Holiday represents a configured non-working date.
type Holiday struct {
	ID        string    `db:"id" json:"id"`
	Date      time.Time `db:"date" json:"date"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HolidayFilter narrows holiday listings to a date range.
type HolidayFilter struct {
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
