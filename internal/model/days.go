// Package model defines the persistent domain types for the event
// registration and payment tracking service. The structs mirror the
// database schema; handlers define separate response types where the
// JSON shape differs from storage.
package model

// EventDay is one of the five fixed event days. The keys are stored
// uppercase in students.selected_days.
type EventDay string

const (
	DayMonday    EventDay = "MONDAY"
	DayTuesday   EventDay = "TUESDAY"
	DayWednesday EventDay = "WEDNESDAY"
	DayThursday  EventDay = "THURSDAY"
	DayFriday    EventDay = "FRIDAY"
)

// EventDays lists every valid day key in calendar order.
var EventDays = []EventDay{DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday}

// EventDayLabels maps a day key to its display label used on invites
// and in notification emails.
var EventDayLabels = map[EventDay]string{
	DayMonday:    "Monday - Corporate Day",
	DayTuesday:   "Tuesday - Denim Day",
	DayWednesday: "Wednesday - Costume Day",
	DayThursday:  "Thursday - Jersey Day",
	DayFriday:    "Friday - Cultural Day/Owambe",
}

// ValidEventDay reports whether the given key is one of the five
// event days.
func ValidEventDay(d EventDay) bool {
	_, ok := EventDayLabels[d]
	return ok
}
