package domain

import (
	"net/url"
	"strings"
)

// EventFilters are the optional criteria of the event list. Empty fields impose no constraint.
type EventFilters struct {
	Title    string `json:"title"`
	Location string `json:"location"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
	Status   string `json:"status"`
}

// ParseEventFilters reads filters from query parameters
// title, location, date_from, date_to and status.
func ParseEventFilters(q url.Values) EventFilters {
	return EventFilters{
		Title:    q.Get("title"),
		Location: q.Get("location"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
		Status:   q.Get("status"),
	}
}

// IsEmpty reports whether no criterion is set.
func (f EventFilters) IsEmpty() bool {
	return f == EventFilters{}
}

// Matches reports whether e satisfies every non-empty criterion.
// Title and location are case-insensitive substrings, status is exact and
// the date bounds are inclusive ISO-date comparisons.
func (f EventFilters) Matches(e *Event) bool {
	if f.Title != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Title)) {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(e.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.Status != "" && string(e.Status) != f.Status {
		return false
	}
	if f.DateFrom != "" && e.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && e.Date > f.DateTo {
		return false
	}
	return true
}

// FilterEvents returns the events matching f, preserving input order.
// The input slice is never modified.
func FilterEvents(events []*Event, f EventFilters) []*Event {
	out := make([]*Event, 0, len(events))
	for _, e := range events {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}
