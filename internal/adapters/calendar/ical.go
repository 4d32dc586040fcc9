// Package calendar exports events as an iCalendar (.ics) feed.
package calendar

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"eventscheduler/internal/domain"
)

const (
	productID = "-//eventscheduler//EN"

	// Events have no end time; exported entries last one hour.
	defaultDuration = time.Hour

	floatingLayout = "20060102T150405"
)

// ContentType is the media type of the exported feed.
const ContentType = "text/calendar; charset=utf-8"

var statusMapping = map[domain.EventStatus]string{
	domain.EventStatusAttending: "CONFIRMED",
	domain.EventStatusMaybe:     "TENTATIVE",
	domain.EventStatusDeclined:  "CANCELLED",
}

// NewCalendar builds a VCALENDAR with one VEVENT per event. Start times are floating
// local times since events carry no zone. Events whose date or time cannot be parsed are skipped.
func NewCalendar(events []*domain.Event, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	for _, e := range events {
		ve, ok := toVEvent(e, stamp)
		if !ok {
			continue
		}
		cal.Children = append(cal.Children, ve)
	}
	return cal
}

// Write encodes events to w.
func Write(w io.Writer, events []*domain.Event, stamp time.Time) error {
	if err := ical.NewEncoder(w).Encode(NewCalendar(events, stamp)); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func toVEvent(e *domain.Event, stamp time.Time) (*ical.Component, bool) {
	start, err := time.Parse(domain.DateLayout+" "+domain.TimeLayout, e.Date+" "+e.Time)
	if err != nil {
		return nil, false
	}
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, e.ID+"@eventscheduler")
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.Set(floatingProp(ical.PropDateTimeStart, start))
	ve.Props.Set(floatingProp(ical.PropDateTimeEnd, start.Add(defaultDuration)))
	ve.Props.SetText(ical.PropSummary, e.Title)
	if e.Location != "" {
		ve.Props.SetText(ical.PropLocation, e.Location)
	}
	if e.Description != "" {
		ve.Props.SetText(ical.PropDescription, e.Description)
	}
	if s, ok := statusMapping[e.Status]; ok {
		ve.Props.SetText(ical.PropStatus, s)
	}
	return ve, true
}

func floatingProp(name string, t time.Time) *ical.Prop {
	p := ical.NewProp(name)
	p.Value = t.Format(floatingLayout)
	return p
}
