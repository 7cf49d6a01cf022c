package models

import "time"

// SessionDateLayout is the wire and storage layout for session dates.
const SessionDateLayout = "2006-01-02"

// ClassSchedule is a recurring weekly slot for a course. It is read-only input to session generation.
type ClassSchedule struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	DayOfWeek   string    `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	SessionType string    `db:"session_type" json:"session_type"`
	Room        string    `db:"room" json:"room"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Weekday resolves the schedule's day name.
func (s ClassSchedule) Weekday() (time.Weekday, bool) {
	day, ok := ParseWeekday(s.DayOfWeek)
	if !ok {
		return 0, false
	}
	return day.TimeWeekday()
}

// ClassSession is one dated occurrence of a schedule.
type ClassSession struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	SessionDate time.Time `db:"session_date" json:"session_date"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	SessionType string    `db:"session_type" json:"session_type"`
	Room        string    `db:"room" json:"room"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Key returns the natural key of the session.
func (s ClassSession) Key() ClassSessionKey {
	return ClassSessionKey{CourseID: s.CourseID, SessionDate: DateOnly(s.SessionDate), StartTime: s.StartTime}
}

// ClassSessionKey is the natural key (course, date, start time).
type ClassSessionKey struct {
	CourseID    string
	SessionDate time.Time
	StartTime   string
}

// ClassScheduleFilter narrows the schedules a generation run reads.
type ClassScheduleFilter struct {
	CourseIDs []string
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
