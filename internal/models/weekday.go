package models

import (
	"strings"
	"time"
)

// Weekday is the named day a class schedule recurs on.
type Weekday string

// Supported weekdays.
const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

var weekdayOrdinals = map[Weekday]time.Weekday{
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
	Sunday:    time.Sunday,
}

// ParseWeekday resolves a day name case-insensitively. ok is false for unmapped names.
func ParseWeekday(name string) (Weekday, bool) {
	trimmed := strings.TrimSpace(name)
	for day := range weekdayOrdinals {
		if strings.EqualFold(string(day), trimmed) {
			return day, true
		}
	}
	return "", false
}

// TimeWeekday maps the day onto the standard library ordinal.
func (d Weekday) TimeWeekday() (time.Weekday, bool) {
	wd, ok := weekdayOrdinals[d]
	return wd, ok
}

// Valid reports whether d is one of the seven named days.
func (d Weekday) Valid() bool {
	_, ok := weekdayOrdinals[d]
	return ok
}
