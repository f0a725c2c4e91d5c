package store

import (
	"context"
	"time"
)

// MemberCollection is the collection (table, key prefix) registrations live in.
const MemberCollection = "member"

// Registration is the record saved when a user finishes the register flow.
// One record per user; the last write wins.
type Registration struct {
	UID          string    `json:"uid"`
	Name         string    `json:"name"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	SelectedDate time.Time `json:"-"` // zero when the source date could not be parsed
}

// Store persists registrations.
type Store interface {
	Save(ctx context.Context, reg Registration) error
	Close() error
}

// dateLayouts pairs each accepted form with the zone it is read in. A date-time
// without an offset is local time; a bare date is UTC midnight.
var dateLayouts = []struct {
	layout string
	local  bool
}{
	{time.RFC3339Nano, false},
	{time.RFC3339, false},
	{"2006-01-02T15:04:05.999999999", true},
	{"2006-01-02 15:04:05.999999999", true},
	{"2006-01-02", false},
}

// ParseSelectedDate accepts the ISO 8601 forms Dialogflow sends for @sys.date.
// Anything else yields the zero time.
func ParseSelectedDate(s string) time.Time {
	for _, l := range dateLayouts {
		loc := time.UTC
		if l.local {
			loc = time.Local
		}
		if t, err := time.ParseInLocation(l.layout, s, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SelectedDateMillis returns the selected date as epoch milliseconds, or nil if invalid.
func (r Registration) SelectedDateMillis() *int64 {
	if r.SelectedDate.IsZero() {
		return nil
	}
	ms := r.SelectedDate.UnixMilli()
	return &ms
}

// Document is the stored shape of a registration.
func (r Registration) Document() map[string]any {
	doc := map[string]any{
		"uid":           r.UID,
		"name":          r.Name,
		"latitude":      r.Latitude,
		"longitude":     r.Longitude,
		"selected_date": nil,
	}
	if ms := r.SelectedDateMillis(); ms != nil {
		doc["selected_date"] = *ms
	}
	return doc
}
