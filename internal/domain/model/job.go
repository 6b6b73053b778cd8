package model

import "time"

// DateLayout is the calendar-day format used on job records. ISO dates sort
// lexicographically in calendar order.
const DateLayout = "2006-01-02"

// Job is a single completed field job. Jobs are immutable facts owned by
// exactly one technician.
type Job struct {
	TechnicianID          string `json:"technicianId"`
	Region                string `json:"region"`
	JobType               string `json:"jobType"`
	Date                  string `json:"date"`
	CompletionTimeMinutes int    `json:"completionTimeMinutes"`
	FirstTimeFix          bool   `json:"firstTimeFix"`
	SLACompliant          bool   `json:"slaCompliant"`
	RevisitRequired       bool   `json:"revisitRequired"`
}

// Day parses the job date.
func (j Job) Day() (time.Time, error) {
	return time.Parse(DateLayout, j.Date)
}
