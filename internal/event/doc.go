// Package event provides types and functions for Ikoma city calendar events.
//
// The event package handles record representation, date normalization of the
// free-text dates found on listing pages, the rolling window of crawl months,
// and the index-backed collection that keeps records unique by detail URL
// and date. Snapshots of a previous run can be diffed against a new crawl to
// find records that appeared since.
package event
