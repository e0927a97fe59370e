// Package cli implements the command-line interface for ikoma-events.
//
// The cli package provides the Cobra-based CLI that crawls the Ikoma city
// event calendar, filters and sorts the records, writes them in the chosen
// output format, and reports a summary (text/JSON) including the records that
// are new since the previous run. It coordinates the config, scraper,
// storage and export packages.
package cli
