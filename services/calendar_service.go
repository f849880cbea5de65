package services

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"eventboard-api/models"

	"github.com/emersion/go-ical"
)

const calendarProductID = "-//Eventboard//Community Events//EN"

// WriteCalendar encodes events as an iCalendar feed of all-day entries.
func WriteCalendar(w io.Writer, events []models.CommunityEvent, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, calendarProductID)

	for _, e := range events {
		cal.Children = append(cal.Children, calendarEvent(e, stamp).Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func calendarEvent(e models.CommunityEvent, stamp time.Time) *ical.Event {
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, e.ID+"@eventboard")
	ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ev.Props.SetDate(ical.PropDateTimeStart, e.Date)
	ev.Props.SetText(ical.PropSummary, e.Title)
	ev.Props.SetText(ical.PropLocation, e.Location)

	description := e.Description
	if e.Time != "" {
		description = "Time: " + e.Time + "\n\n" + description
	}
	ev.Props.SetText(ical.PropDescription, description)

	if e.EventLink != "" {
		if u, err := url.Parse(e.EventLink); err == nil {
			ev.Props.SetURI(ical.PropURL, u)
		}
	}

	if len(e.CommunityFocus) > 0 {
		tags := make([]string, len(e.CommunityFocus))
		for i, t := range e.CommunityFocus {
			tags[i] = string(t)
		}
		categories := ical.NewProp(ical.PropCategories)
		categories.Value = strings.Join(tags, ",")
		ev.Props.Set(categories)
	}
	return ev
}
