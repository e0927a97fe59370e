// Package calendar renders crawled records as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/pfrederiksen/ikoma-events/internal/event"
)

const (
	prodID   = "-//ikoma-events//ikoma-events//JA"
	calName  = "生駒市イベント"
	uidHost  = "city.ikoma.lg.jp"
	timezone = "Asia/Tokyo"
)

// Encode writes records as one VCALENDAR with an all-day VEVENT per record.
// Records whose date cannot be parsed are left out; the number written is
// returned.
func Encode(w io.Writer, records []*event.Record, now time.Time) (int, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	cal.Props.SetText("X-WR-CALNAME", calName)
	cal.Props.SetText("X-WR-TIMEZONE", timezone)

	for _, r := range records {
		evt, ok := newEvent(r, now)
		if !ok {
			continue
		}
		cal.Children = append(cal.Children, evt.Component)
	}

	// The encoder rejects a calendar without components
	if len(cal.Children) == 0 {
		_, err := fmt.Fprintf(w, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:%s\r\nEND:VCALENDAR\r\n", prodID)
		return 0, err
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return 0, fmt.Errorf("encoding calendar: %w", err)
	}
	return len(cal.Children), nil
}

func newEvent(r *event.Record, now time.Time) (*ical.Event, bool) {
	day := event.ParseDate(r.Date)
	if day.IsZero() {
		return nil, false
	}

	evt := ical.NewEvent()
	evt.Props.SetText(ical.PropUID, fmt.Sprintf("%s@%s", r.ID(), uidHost))

	stamp := ical.NewProp(ical.PropDateTimeStamp)
	stamp.SetDateTime(now.UTC())
	evt.Props.Set(stamp)

	start := ical.NewProp(ical.PropDateTimeStart)
	start.SetDate(day)
	evt.Props.Set(start)

	// DTEND is exclusive for all-day events
	end := ical.NewProp(ical.PropDateTimeEnd)
	end.SetDate(day.AddDate(0, 0, 1))
	evt.Props.Set(end)

	evt.Props.SetText(ical.PropSummary, r.Title)
	if loc := location(r); loc != "" {
		evt.Props.SetText(ical.PropLocation, loc)
	}
	if desc := description(r); desc != "" {
		evt.Props.SetText(ical.PropDescription, desc)
	}

	if r.DetailURL != "" {
		// Set directly to avoid a VALUE=TEXT parameter
		u := ical.NewProp(ical.PropURL)
		u.Value = r.DetailURL
		evt.Props.Set(u)
	}

	evt.Props.SetText(ical.PropStatus, "CONFIRMED")
	evt.Props.SetText(ical.PropTransparency, "TRANSPARENT")

	return evt, true
}

func location(r *event.Record) string {
	switch {
	case r.VenueName != "" && r.VenueAddress != "":
		return r.VenueName + " " + r.VenueAddress
	case r.VenueName != "":
		return r.VenueName
	default:
		return r.VenueAddress
	}
}

func description(r *event.Record) string {
	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+"："+value)
		}
	}
	add("時間", r.Time)
	add("定員", r.Capacity)
	add("費用", r.Cost)
	add("持ち物", r.ItemsToBring)
	add("申し込み方法", r.ApplicationMethod)
	return strings.Join(lines, "\n")
}
