package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/pfrederiksen/ikoma-events/internal/event"
	"github.com/pfrederiksen/ikoma-events/internal/logger"
	"github.com/pfrederiksen/ikoma-events/internal/metrics"
)

var november = time.Date(2025, time.November, 15, 9, 0, 0, 0, time.Local)

func TestCrawler_Run(t *testing.T) {
	var mu sync.Mutex
	var agents []string

	mux := http.NewServeMux()
	mux.HandleFunc("/event2/event_list.php", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.Header.Get("User-Agent"))
		mu.Unlock()

		q := r.URL.Query()
		if q.Get("ev") != "2" || q.Get("ca") != "0" || q.Get("eoeload") != "t" {
			t.Errorf("unexpected listing query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch q.Get("mon") {
		case "202511":
			_, _ = w.Write([]byte(listingPage(
				datedItem("1", "Autumn Concert", "11月20日（木曜日）"),
				`<li><a href="detail.php?id=2">Ongoing</a><p>随時受付</p></li>`,
			)))
		default:
			_, _ = w.Write([]byte(emptyListing))
		}
	})
	mux.HandleFunc("/event2/detail.php", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "1" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<table>
			<tr><th>開催場所</th><td>Ikoma Hall</td></tr>
			<tr><th>定員</th><td>100人</td></tr>
			<tr><th>費用</th><td>無料</td></tr>
			<tr><th>持ち物</th><td>なし</td></tr>
			<tr><th>申込方法</th><td>不要</td></tr>
		</table>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := DefaultConfig()
	cfg.ListURL = server.URL + "/event2/event_list.php"
	cfg.Months = 2
	cfg.Start = november
	client := NewClient(ClientOptions{Interval: 0, RetryWait: time.Millisecond})

	crawler, err := New(cfg, client, logger.Discard(), metrics.New())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	res := crawler.Run(context.Background())

	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	if res.Cancelled {
		t.Error("Cancelled = true")
	}
	if len(res.Months) != 2 {
		t.Fatalf("crawled %d months, want 2", len(res.Months))
	}
	if len(res.Failed()) != 0 {
		t.Errorf("unexpected failures: %+v", res.Failed())
	}
	if len(res.Records) != 1 {
		t.Fatalf("collected %d records, want 1", len(res.Records))
	}

	want := event.Record{
		Date:              "2025/11/20",
		Title:             "Autumn Concert",
		VenueAddress:      "Ikoma Hall",
		Capacity:          "100人",
		Cost:              "無料",
		ItemsToBring:      "なし",
		ApplicationMethod: "不要",
		DetailURL:         server.URL + "/event2/detail.php?id=1",
	}
	if got := *res.Records[0]; got != want {
		t.Errorf("record = %+v\nwant     %+v", got, want)
	}

	// November: page 1, then page 2 repeating it. December: one empty page.
	if len(agents) != 3 {
		t.Errorf("listing requested %d times, want 3", len(agents))
	}
	for _, ua := range agents {
		if ua != UserAgent {
			t.Errorf("User-Agent = %q, want %q", ua, UserAgent)
		}
	}
}

func TestCrawler_MonthFailureDoesNotStopCrawl(t *testing.T) {
	f := newFakeFetcher(func(params url.Values) (string, error) {
		switch params.Get("mon") {
		case "202511":
			return "", errors.New("timeout")
		case "202512":
			if params.Get("page") == "1" {
				return listingPage(datedItem("9", "Year End", "12/28")), nil
			}
		}
		return emptyListing, nil
	})
	f.details[detailURL("9")] = `<p></p>`

	cfg := DefaultConfig()
	cfg.ListURL = testListURL
	cfg.Months = 3
	cfg.Start = november

	crawler, err := New(cfg, f, logger.Discard(), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	res := crawler.Run(context.Background())

	if len(res.Months) != 3 {
		t.Fatalf("crawled %d months, want 3", len(res.Months))
	}
	failed := res.Failed()
	if len(failed) != 1 || failed[0].Target.Param() != "202511" {
		t.Errorf("Failed() = %+v, want only 202511", failed)
	}
	if len(res.Records) != 1 || res.Records[0].Date != "2025/12/28" {
		t.Errorf("unexpected records: %+v", res.Records)
	}
}

func TestCrawler_Targets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Months = 3
	cfg.Start = november

	crawler, err := New(cfg, newFakeFetcher(nil), logger.Discard(), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	var got []string
	for _, target := range crawler.Targets() {
		got = append(got, target.Param())
	}
	want := []string{"202511", "202512", "202601"}
	if len(got) != len(want) {
		t.Fatalf("Targets() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Targets()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCrawler_ZeroMonths(t *testing.T) {
	f := newFakeFetcher(func(params url.Values) (string, error) {
		return emptyListing, nil
	})
	cfg := DefaultConfig()
	cfg.ListURL = testListURL
	cfg.Months = 0
	cfg.Start = november

	crawler, err := New(cfg, f, logger.Discard(), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	res := crawler.Run(context.Background())

	if len(res.Months) != 0 || len(res.Records) != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	if f.listingCount() != 0 {
		t.Errorf("listing fetched %d times, want 0", f.listingCount())
	}
}

func TestCrawler_Cancelled(t *testing.T) {
	f := newFakeFetcher(func(params url.Values) (string, error) {
		return listingPage(datedItem("1", "A", "11/1")), nil
	})
	cfg := DefaultConfig()
	cfg.ListURL = testListURL
	cfg.Start = november

	crawler, err := New(cfg, f, logger.Discard(), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := crawler.Run(ctx)

	if !res.Cancelled {
		t.Error("Cancelled = false, want true")
	}
	if len(res.Records) != 0 {
		t.Errorf("collected %d records after cancellation", len(res.Records))
	}
	if f.listingCount() != 0 {
		t.Errorf("listing fetched %d times after cancellation", f.listingCount())
	}
}

func TestNew_Invalid(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := New(cfg, nil, nil, nil); err == nil {
		t.Error("New() without fetcher should fail")
	}

	cfg.Months = -1
	if _, err := New(cfg, newFakeFetcher(nil), nil, nil); err == nil {
		t.Error("New() with negative months should fail")
	}
}
