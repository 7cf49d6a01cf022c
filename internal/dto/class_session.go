package dto

// GenerateSessionsRequest materializes dated sessions from weekly schedules.
// Dates use the 2006-01-02 layout; empty values fall back to today and today plus the default horizon.
type GenerateSessionsRequest struct {
	StartDate string   `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string   `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	CourseIDs []string `json:"courseIds" validate:"omitempty,dive,required"`
	Overwrite bool     `json:"overwrite"`
}

// GenerateSessionsResult aggregates counts across every processed schedule.
// Overwritten sessions are counted as generated.
type GenerateSessionsResult struct {
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
	Schedules int    `json:"schedules"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// PurgeSessionsRequest removes old sessions without attendance history.
type PurgeSessionsRequest struct {
	KeepYears int `json:"keepYears" validate:"omitempty,min=1,max=50"`
}

// PurgeSessionsResult reports the retention run.
type PurgeSessionsResult struct {
	Deleted   int64  `json:"deleted"`
	Cutoff    string `json:"cutoff"`
	KeepYears int    `json:"keepYears"`
}
