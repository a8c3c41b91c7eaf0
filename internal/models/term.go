package models

import "time"

// TermAll is the term selector sentinel meaning "all terms of the year".
const TermAll = "ALL"

// AcademicTerm defines one reporting window [StartDate, EndDate) within an
// academic year. Term numbers run 1 to 3.
type AcademicTerm struct {
	ID           string    `db:"id" json:"id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Term         int       `db:"term" json:"term"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AcademicTermFilter narrows term listings.
type AcademicTermFilter struct {
	AcademicYear string
	Term         *int
	Page         int
	PageSize     int
}
