package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/pfrederiksen/ikoma-events/internal/document"
)

const testListURL = "https://example.jp/event2/event_list.php"

// fakeFetcher serves canned HTML and records every call
type fakeFetcher struct {
	mu sync.Mutex

	// listing returns the HTML for one listing request
	listing func(params url.Values) (string, error)
	details map[string]string
	failing map[string]bool

	listingCalls []url.Values
	detailCalls  []string
}

func newFakeFetcher(listing func(params url.Values) (string, error)) *fakeFetcher {
	return &fakeFetcher{
		listing: listing,
		details: make(map[string]string),
		failing: make(map[string]bool),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string, params url.Values) (document.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if rawURL == testListURL {
		f.listingCalls = append(f.listingCalls, params)
		html, err := f.listing(params)
		if err != nil {
			return nil, err
		}
		return document.ParseString(html)
	}

	f.detailCalls = append(f.detailCalls, rawURL)
	if f.failing[rawURL] {
		return nil, errors.New("connection reset")
	}
	html, ok := f.details[rawURL]
	if !ok {
		return nil, &StatusError{URL: rawURL, StatusCode: 404}
	}
	return document.ParseString(html)
}

func (f *fakeFetcher) listingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listingCalls)
}

func (f *fakeFetcher) detailCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.detailCalls)
}

// listingPage renders a listing page with the given entries
func listingPage(items ...string) string {
	html := `<html><body><ul class="event_list">`
	for _, item := range items {
		html += item
	}
	return html + `</ul></body></html>`
}

// datedItem renders a listing entry linking to detail.php?id=<id>
func datedItem(id, title, date string) string {
	return fmt.Sprintf(`<li><a href="detail.php?id=%s">%s</a><p>開催日：%s</p></li>`, id, title, date)
}

func detailURL(id string) string {
	return "https://example.jp/event2/detail.php?id=" + id
}

const emptyListing = `<html><body><p>該当するイベントはありません</p></body></html>`
