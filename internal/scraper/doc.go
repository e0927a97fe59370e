// Package scraper crawls the Ikoma city event calendar.
//
// A Crawler walks a rolling window of months. For each month a PageWalker
// pages through the listing endpoint, extracts one candidate record per
// listing entry, enriches candidates from their detail pages on a bounded
// worker pool, and accepts them into a shared collection that keeps records
// unique by detail URL and date. Every request goes through one Client whose
// token bucket keeps the aggregate request rate polite to the city's server.
package scraper
