package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse test document: %v", err)
	}
	return doc
}

func TestListingID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.openrent.co.uk/property-to-rent/london/flat/2051234", "2051234"},
		{"https://www.rightmove.co.uk/properties/123456789", "123456789"},
		{"https://www.spareroom.co.uk/flatshare/flatshare_detail.pl?flatshare_id=17654321", "17654321"},
		{"https://www.gumtree.com/p/property-to-rent/lovely-flat/1487654321", "1487654321"},
		{"https://example.com/listings/cosy-studio", "cosy-studio"},
		{"https://example.com/", ""},
		{"://bad url", ""},
	}
	for _, tt := range tests {
		if got := listingID(tt.url); got != tt.want {
			t.Errorf("listingID(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}

func TestAbsoluteURL(t *testing.T) {
	const base = "https://www.example.co.uk"
	tests := []struct {
		href string
		want string
	}{
		{"https://other.com/x", "https://other.com/x"},
		{"//cdn.example.com/img.jpg", "https://cdn.example.com/img.jpg"},
		{"/property/123", "https://www.example.co.uk/property/123"},
		{"  /property/123  ", "https://www.example.co.uk/property/123"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := absoluteURL(base, tt.href); got != tt.want {
			t.Errorf("absoluteURL(%q) = %q; want %q", tt.href, got, tt.want)
		}
	}
}

func TestCollapseText(t *testing.T) {
	doc := docFromString(t, "<p>  Two   bed\n\tflat  </p>")
	if got := collapseText(doc.Find("p")); got != "Two bed flat" {
		t.Errorf("collapseText = %q", got)
	}
}

func TestExtractImages(t *testing.T) {
	doc := docFromString(t, `<div class="card">
		<img src="/img/1.jpg">
		<img data-src="//cdn.example.com/2.jpg">
		<img src="data:image/gif;base64,xyz">
		<img src="/img/1.jpg">
		<img data-lazy="/img/3.jpg">
	</div>`)

	got := extractImages(doc.Find("div.card"), "https://www.example.co.uk")
	want := []string{
		"https://www.example.co.uk/img/1.jpg",
		"https://cdn.example.com/2.jpg",
		"https://www.example.co.uk/img/3.jpg",
	}
	if len(got) != len(want) {
		t.Fatalf("images = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("image[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestFirstText(t *testing.T) {
	doc := docFromString(t, `<div><span class="empty"></span><span class="price">£1,200 pcm</span></div>`)
	sel := doc.Find("div")

	if got := firstText(sel, "span.missing", "span.empty", "span.price"); got != "£1,200 pcm" {
		t.Errorf("firstText = %q", got)
	}
	if got := firstText(sel, "span.missing"); got != "" {
		t.Errorf("firstText with no match = %q; want empty", got)
	}
}

func TestCrawlPagesStopsOnEmptyPage(t *testing.T) {
	var fetches int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	// Page 1 yields a listing, page 2 yields none: the crawl must stop there
	// well short of the page budget.
	counts := []int{1, 0}
	call := 0
	err := crawlPages(context.Background(), testClient(1), docFromString(t, "<html></html>"),
		srv.URL+"?q=x", 10,
		func(searchURL string, page int) string { return searchURL + "&page=2" },
		func(doc *goquery.Document) int {
			n := counts[call]
			call++
			return n
		})
	if err != nil {
		t.Fatalf("crawlPages: %v", err)
	}
	if call != 2 {
		t.Errorf("parse called %d times; want 2", call)
	}
	if got := atomic.LoadInt32(&fetches); got != 1 {
		t.Errorf("fetched %d follow-up pages; want 1", got)
	}
}

func TestCrawlPagesHonoursBudget(t *testing.T) {
	var fetches int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	parsed := 0
	err := crawlPages(context.Background(), testClient(1), docFromString(t, "<html></html>"),
		srv.URL, 3,
		func(searchURL string, page int) string { return searchURL },
		func(doc *goquery.Document) int {
			parsed++
			return 1
		})
	if err != nil {
		t.Fatalf("crawlPages: %v", err)
	}
	if parsed != 3 {
		t.Errorf("parsed %d pages; want 3", parsed)
	}
	if got := atomic.LoadInt32(&fetches); got != 2 {
		t.Errorf("fetched %d follow-up pages; want 2", got)
	}
}

func TestCrawlPagesPropagatesFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	err := crawlPages(context.Background(), testClient(1), docFromString(t, "<html></html>"),
		srv.URL, 5,
		func(searchURL string, page int) string { return searchURL },
		func(doc *goquery.Document) int { return 1 })
	if err == nil {
		t.Fatal("crawlPages swallowed a fetch failure")
	}
}

func TestCrawlPagesStopsWhenNoNextURL(t *testing.T) {
	parsed := 0
	err := crawlPages(context.Background(), testClient(1), docFromString(t, "<html></html>"),
		"https://example.com", 5, nil,
		func(doc *goquery.Document) int {
			parsed++
			return 1
		})
	if err != nil {
		t.Fatalf("crawlPages: %v", err)
	}
	if parsed != 1 {
		t.Errorf("parsed %d pages; want 1 when pagination is unsupported", parsed)
	}
}
