package dto

import "time"

// ReportTotals counts submissions by outcome bucket.
type ReportTotals struct {
	Received   int `json:"received"`
	Withdrawn  int `json:"withdrawn"`
	Exempted   int `json:"exempted"`
	Expedited  int `json:"expedited"`
	FullReview int `json:"full_review"`
}

// CollegeBreakdown cross-tabulates one college or unit by proponent
// category and by (category, review type).
type CollegeBreakdown struct {
	CollegeOrUnit        string                    `json:"college_or_unit"`
	Totals               ReportTotals              `json:"totals"`
	ByCategory           map[string]ReportTotals   `json:"by_category"`
	ByCategoryReviewType map[string]map[string]int `json:"by_category_review_type"`
}

// TermVolume counts submissions received within one term window.
type TermVolume struct {
	Term      int       `json:"term"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Received  int       `json:"received"`
}

// ReviewTypeAverages carries mean working-day durations for one review
// type. Nil means no data points, not zero.
type ReviewTypeAverages struct {
	ResultsNotificationDays    *float64 `json:"results_notification_days"`
	ResubmissionTurnaroundDays *float64 `json:"resubmission_turnaround_days"`
	ClearanceDays              *float64 `json:"clearance_days"`
}

// ReportAverages groups duration statistics by review type. Exempt
// submissions are excluded from duration tracking.
type ReportAverages struct {
	Expedited  ReviewTypeAverages `json:"expedited"`
	FullReview ReviewTypeAverages `json:"full_review"`
}

// DateRange is a half-open [start, end) window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AcademicYearReport is the aggregate summary for an academic year (or a
// single term of it).
type AcademicYearReport struct {
	AcademicYear             string             `json:"academic_year"`
	Term                     string             `json:"term"`
	CommitteeCode            string             `json:"committee_code,omitempty"`
	DateRange                DateRange          `json:"date_range"`
	Totals                   ReportTotals       `json:"totals"`
	TermVolume               []TermVolume       `json:"term_volume"`
	AcademicYearVolume       *int               `json:"academic_year_volume,omitempty"`
	BreakdownByCollegeOrUnit []CollegeBreakdown `json:"breakdown_by_college_or_unit"`
	Averages                 ReportAverages     `json:"averages"`
}
