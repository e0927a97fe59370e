package event

import (
	"crypto/sha1"
	"fmt"
)

// Record represents one occurrence of an event on the city calendar
type Record struct {
	Date              string `json:"date"` // YYYY/MM/DD
	Time              string `json:"time"`
	Title             string `json:"title"`
	VenueName         string `json:"venue_name"`
	VenueAddress      string `json:"venue_address"`
	Capacity          string `json:"capacity"`
	Cost              string `json:"cost"`
	ItemsToBring      string `json:"items_to_bring"`
	ApplicationMethod string `json:"application_method"`
	DetailURL         string `json:"detail_url"`
}

// Key identifies a record within a collection
type Key struct {
	DetailURL string
	Date      string
}

// Detail holds the fields taken from an event's detail page
type Detail struct {
	Time              string
	Address           string
	Capacity          string
	Cost              string
	ItemsToBring      string
	ApplicationMethod string
}

// IsEmpty reports whether no field was found on the detail page.
func (d Detail) IsEmpty() bool {
	return d == Detail{}
}

// NewRecord creates a record as found on a listing page, before enrichment
func NewRecord(date, title, detailURL string) *Record {
	return &Record{
		Date:      date,
		Title:     title,
		DetailURL: detailURL,
	}
}

// Key returns the uniqueness key of the record
func (r *Record) Key() Key {
	return Key{DetailURL: r.DetailURL, Date: r.Date}
}

// ID creates a deterministic ID for the record based on its key
func (r *Record) ID() string {
	h := sha1.New()
	h.Write([]byte(r.DetailURL + "|" + r.Date))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Enrich copies the detail page fields into the record
func (r *Record) Enrich(d Detail) {
	r.Time = d.Time
	r.VenueAddress = d.Address
	r.Capacity = d.Capacity
	r.Cost = d.Cost
	r.ItemsToBring = d.ItemsToBring
	r.ApplicationMethod = d.ApplicationMethod
}
