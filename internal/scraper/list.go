package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/pfrederiksen/ikoma-events/internal/document"
	"github.com/pfrederiksen/ikoma-events/internal/event"
)

// Extraction misses. Both are expected on real listings and only counted.
var (
	ErrNoAnchor = errors.New("list item has no link")
	ErrNoDate   = errors.New("list item has no date")
)

// ErrBadLink is returned for an anchor without a usable href
var ErrBadLink = errors.New("list item link is not usable")

const (
	listSelector      = "ul.event_list"
	itemSelector      = "li"
	anchorSelector    = "a"
	paragraphSelector = "p"
)

// Paragraphs holding one of these are tried first when looking for the date:
// 開催 (held), 期間 (period), 日時 (date and time)
var dateMarkers = []string{"開催", "期間", "日時"}

// IsMiss reports whether err is an expected extraction miss
func IsMiss(err error) bool {
	return errors.Is(err, ErrNoAnchor) || errors.Is(err, ErrNoDate)
}

// ExtractItem builds a candidate record from one listing entry.
//
// The title and detail URL come from the first link; relative links are
// resolved against base. The date is taken from the first paragraph that
// carries a date marker and a recognizable date, falling back to the first
// paragraph with any recognizable date. Dates without a year get the year of
// the month being crawled.
func ExtractItem(item document.Node, base *url.URL, target event.Target) (*event.Record, error) {
	link, ok := item.First(anchorSelector)
	if !ok {
		return nil, ErrNoAnchor
	}

	title := link.Text()
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return nil, fmt.Errorf("%w: %q has no href", ErrBadLink, title)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLink, err)
	}
	detailURL := base.ResolveReference(ref).String()

	date, ok := findDate(item.Find(paragraphSelector))
	if !ok {
		return nil, ErrNoDate
	}

	return event.NewRecord(event.CompleteYear(date, target.Year), title, detailURL), nil
}

func findDate(paragraphs []document.Node) (string, bool) {
	texts := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		texts[i] = p.Text()
	}

	for _, text := range texts {
		if !hasDateMarker(text) {
			continue
		}
		if date, ok := event.NormalizeDate(text); ok {
			return date, true
		}
	}

	for _, text := range texts {
		if date, ok := event.NormalizeDate(text); ok {
			return date, true
		}
	}

	return "", false
}

func hasDateMarker(text string) bool {
	for _, marker := range dateMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
