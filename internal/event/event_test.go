package event

import "testing"

func TestRecord_ID(t *testing.T) {
	a := NewRecord("2025/12/01", "A", "https://x/e1")
	b := NewRecord("2025/12/01", "renamed", "https://x/e1")
	c := NewRecord("2025/12/02", "A", "https://x/e1")

	if a.ID() == "" {
		t.Fatal("ID() is empty")
	}
	if a.ID() != b.ID() {
		t.Error("records with the same key should share an ID")
	}
	if a.ID() == c.ID() {
		t.Error("records with different dates should have different IDs")
	}
}

func TestRecord_Enrich(t *testing.T) {
	r := NewRecord("2025/12/01", "Workshop", "https://x/e1")
	r.Enrich(Detail{
		Time:     "10:00-12:00",
		Address:  "Hall A",
		Cost:     "Free",
		Capacity: "20",
	})

	if r.VenueAddress != "Hall A" || r.Cost != "Free" || r.Capacity != "20" || r.Time != "10:00-12:00" {
		t.Errorf("Enrich() produced %+v", r)
	}
	if r.ItemsToBring != "" || r.ApplicationMethod != "" {
		t.Errorf("absent detail fields should stay empty, got %+v", r)
	}
	if r.Key() != (Key{DetailURL: "https://x/e1", Date: "2025/12/01"}) {
		t.Errorf("Enrich() changed key to %+v", r.Key())
	}
}

func TestDetail_IsEmpty(t *testing.T) {
	if !(Detail{}).IsEmpty() {
		t.Error("zero Detail should be empty")
	}
	if (Detail{Cost: "Free"}).IsEmpty() {
		t.Error("Detail with cost should not be empty")
	}
}
