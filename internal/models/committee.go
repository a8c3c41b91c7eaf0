package models

import "time"

// Committee represents a research ethics review committee.
type Committee struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CommitteeFilter narrows committee listings.
type CommitteeFilter struct {
	Search   string
	IsActive *bool
	Page     int
	PageSize int
}
