package models

import "time"

// ProponentCategory classifies who submitted the research.
type ProponentCategory string

const (
	ProponentUndergrad ProponentCategory = "UNDERGRAD"
	ProponentGrad      ProponentCategory = "GRAD"
	ProponentFaculty   ProponentCategory = "FACULTY"
	ProponentOther     ProponentCategory = "OTHER"
)

// Valid reports whether the category is one of the known values.
func (p ProponentCategory) Valid() bool {
	switch p {
	case ProponentUndergrad, ProponentGrad, ProponentFaculty, ProponentOther:
		return true
	default:
		return false
	}
}

// Project represents a research project under committee oversight.
type Project struct {
	ID                string            `db:"id" json:"id"`
	CommitteeID       string            `db:"committee_id" json:"committee_id"`
	Code              string            `db:"code" json:"code"`
	Title             string            `db:"title" json:"title"`
	PIName            string            `db:"pi_name" json:"pi_name"`
	PIAffiliation     string            `db:"pi_affiliation" json:"pi_affiliation"`
	CollegeOrUnit     string            `db:"college_or_unit" json:"college_or_unit"`
	ProponentCategory ProponentCategory `db:"proponent_category" json:"proponent_category"`
	ApprovalStartDate *time.Time        `db:"approval_start_date" json:"approval_start_date,omitempty"`
	ApprovalEndDate   *time.Time        `db:"approval_end_date" json:"approval_end_date,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	CommitteeID   string
	CollegeOrUnit string
	Search        string
	Page          int
	PageSize      int
}
