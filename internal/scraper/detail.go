package scraper

import (
	"strings"

	"github.com/pfrederiksen/ikoma-events/internal/document"
	"github.com/pfrederiksen/ikoma-events/internal/event"
)

// detailRule maps label markers on a detail page to a Detail field
type detailRule struct {
	markers []string
	field   func(*event.Detail) *string
}

// Rules are tried in order; a row fills at most one field.
var detailRules = []detailRule{
	{[]string{"場所", "会場"}, func(d *event.Detail) *string { return &d.Address }},
	{[]string{"定員"}, func(d *event.Detail) *string { return &d.Capacity }},
	{[]string{"費用", "参加費"}, func(d *event.Detail) *string { return &d.Cost }},
	{[]string{"持ち物"}, func(d *event.Detail) *string { return &d.ItemsToBring }},
	{[]string{"申込"}, func(d *event.Detail) *string { return &d.ApplicationMethod }},
	{[]string{"時間"}, func(d *event.Detail) *string { return &d.Time }},
}

type labelPair struct {
	label string
	value string
}

// ExtractDetail reads label/value rows from a detail page.
//
// Rows are table rows with a th and a td, and dt/dd pairs in definition
// lists. The first row matching a field wins; later rows for the same field
// are ignored. A nil or rowless document yields an empty Detail.
func ExtractDetail(doc document.Node) event.Detail {
	var d event.Detail
	if doc == nil {
		return d
	}

	filled := make([]bool, len(detailRules))
	for _, pair := range labelPairs(doc) {
		for i, rule := range detailRules {
			if !containsAny(pair.label, rule.markers) {
				continue
			}
			if !filled[i] {
				*rule.field(&d) = pair.value
				filled[i] = true
			}
			break
		}
	}

	return d
}

func labelPairs(doc document.Node) []labelPair {
	var pairs []labelPair

	for _, tr := range doc.Find("tr") {
		th, ok := tr.First("th")
		if !ok {
			continue
		}
		td, ok := tr.First("td")
		if !ok {
			continue
		}
		pairs = append(pairs, labelPair{label: th.Text(), value: td.Text()})
	}

	for _, dl := range doc.Find("dl") {
		for _, dt := range dl.Children("dt") {
			dd, ok := dt.Next()
			if !ok || !dd.Is("dd") {
				continue
			}
			pairs = append(pairs, labelPair{label: dt.Text(), value: dd.Text()})
		}
	}

	return pairs
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
