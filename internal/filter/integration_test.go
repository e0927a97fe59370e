package filter_test

import (
	"testing"

	"github.com/pfrederiksen/ikoma-events/internal/event"
	"github.com/pfrederiksen/ikoma-events/internal/filter"
)

// TestIntegration demonstrates the full filter workflow
func TestIntegration(t *testing.T) {
	records := []*event.Record{
		{Date: "2025/12/06", Title: "こども科学教室", VenueAddress: "生駒市図書館", DetailURL: "https://example.jp/1"},
		{Date: "2025/12/07", Title: "クリスマスコンサート", VenueAddress: "たけまるホール", DetailURL: "https://example.jp/2"},
		{Date: "2025/12/10", Title: "健康講座", VenueAddress: "生駒市図書館", DetailURL: "https://example.jp/3"},
		{Date: "2026/01/11", Title: "新春体験教室", VenueAddress: "生駒市図書館", DetailURL: "https://example.jp/4"},
	}

	from, to, err := filter.ParseRange("2025-12", "2025-12")
	if err != nil {
		t.Fatalf("ParseRange() error: %v", err)
	}

	f := filter.NewFilter()
	f.DateFrom = from
	f.DateTo = to
	f.Venues = []string{"図書館"}

	got := f.Apply(records)
	if len(got) != 2 {
		t.Fatalf("Apply() returned %d records, want 2", len(got))
	}
	if got[0].DetailURL != "https://example.jp/1" || got[1].DetailURL != "https://example.jp/3" {
		t.Errorf("unexpected records: %s, %s", got[0].DetailURL, got[1].DetailURL)
	}

	// Narrow further on a copy
	weekend := *f
	weekend.WeekendsOnly = true
	weekend.Keywords = []string{"教室"}

	got = weekend.Apply(records)
	if len(got) != 1 || got[0].Title != "こども科学教室" {
		t.Errorf("weekend filter = %+v", got)
	}
	if f.WeekendsOnly {
		t.Error("changing the copy changed the original")
	}

	want := "From: 2025/12/01 | To: 2025/12/31 | Keywords: 教室 | Venues: 図書館 | Weekends only"
	if weekend.String() != want {
		t.Errorf("String() = %q, want %q", weekend.String(), want)
	}
}
