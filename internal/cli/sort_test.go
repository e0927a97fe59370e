package cli

import (
	"testing"

	"github.com/pfrederiksen/ikoma-events/internal/event"
)

func titles(records []*event.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Title
	}
	return out
}

func TestSortRecords(t *testing.T) {
	newRecords := func() []*event.Record {
		return []*event.Record{
			{Date: "2025/12/10", Title: "banana"},
			{Date: "2025/12/01", Title: "Cherry"},
			{Date: "bad", Title: "apple"},
			{Date: "2025/12/01", Title: "apple"},
		}
	}

	tests := []struct {
		name  string
		order SortOrder
		want  []string
	}{
		{"none keeps crawl order", SortNone, []string{"banana", "Cherry", "apple", "apple"}},
		// Equal dates keep crawl order; unparseable dates go last
		{"by date", SortByDate, []string{"Cherry", "apple", "banana", "apple"}},
		{"by title", SortByTitle, []string{"apple", "apple", "banana", "Cherry"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := newRecords()
			sortRecords(records, tt.order)
			got := titles(records)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("sortRecords(%s) = %v, want %v", tt.order, got, tt.want)
				}
			}
		})
	}

	t.Run("title ties broken by date", func(t *testing.T) {
		records := newRecords()
		sortRecords(records, SortByTitle)
		if records[0].Date != "2025/12/01" || records[1].Date != "bad" {
			t.Errorf("apple records in wrong order: %s, %s", records[0].Date, records[1].Date)
		}
	})
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    SortOrder
		wantErr bool
	}{
		{"", SortNone, false},
		{"none", SortNone, false},
		{"DATE", SortByDate, false},
		{" title ", SortByTitle, false},
		{"state", SortNone, true},
	}

	for _, tt := range tests {
		got, err := ParseSortOrder(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortOrder(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSortOrder(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
