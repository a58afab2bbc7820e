package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"property-trawler/models"
)

// Adapter is implemented once per source site. Fetch streams raw listing
// candidates through emit as pages are parsed; a returned error means the
// source as a whole was unreachable or blocked, and the orchestrator records
// it as a soft failure without touching the other sources.
//
// Field extraction inside Fetch is best-effort: a listing element that cannot
// be parsed is skipped, never fatal.
type Adapter interface {
	Name() models.Source
	Fetch(ctx context.Context, criteria *models.SearchCriteria, emit func(*models.RawListing)) error
}

// nextPageURL builds the URL for page n (1-based) of a search, or returns ""
// when the source has no usable page parameter.
type nextPageURL func(searchURL string, page int) string

// crawlPages drives the shared pagination loop: parse the current page, then
// keep fetching follow-up pages until the page budget is spent, a page yields
// no new listings, or a fetch fails hard. parse returns the number of
// listings on the page that were new to this run.
func crawlPages(ctx context.Context, c *Client, first *goquery.Document, searchURL string,
	maxPages int, next nextPageURL, parse func(*goquery.Document) int) error {

	if maxPages <= 0 {
		maxPages = 1
	}

	doc := first
	for page := 1; ; page++ {
		if parse(doc) == 0 {
			return nil
		}
		if page >= maxPages || next == nil {
			return nil
		}
		u := next(searchURL, page+1)
		if u == "" {
			return nil
		}

		var err error
		doc, _, err = c.GetDocument(ctx, u)
		if err != nil {
			return err
		}
	}
}

var idDigitsRe = regexp.MustCompile(`\d{5,}`)

// listingID derives a source-native listing key from a listing URL: the
// first long digit run in the path, else in the query string (SpareRoom
// puts its IDs there), else the last path segment. Returns "" when none
// exists; the normalizer then falls back to title+address.
func listingID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if m := idDigitsRe.FindString(u.Path); m != "" {
		return m
	}
	if m := idDigitsRe.FindString(u.RawQuery); m != "" {
		return m
	}
	segs := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// absoluteURL resolves href against the site base, handling the relative and
// protocol-relative forms listing markup mixes freely.
func absoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(ref).String()
}

// collapseText returns the selection's text with whitespace runs collapsed.
func collapseText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

var imageAttrs = []string{"src", "data-src", "data-lazy", "data-original"}

// extractImages collects image URLs from a listing element, in document
// order, trying the lazy-loading attribute variants sites use.
func extractImages(s *goquery.Selection, base string) []string {
	var images []string
	seen := map[string]struct{}{}

	s.Find("img").Each(func(_ int, img *goquery.Selection) {
		for _, attr := range imageAttrs {
			val, ok := img.Attr(attr)
			if !ok || strings.TrimSpace(val) == "" {
				continue
			}
			u := absoluteURL(base, val)
			if u == "" || strings.HasPrefix(u, "data:") {
				continue
			}
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			images = append(images, u)
			break
		}
	})
	return images
}

// firstText returns the collapsed text of the first selector that matches.
func firstText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if found := s.Find(sel).First(); found.Length() > 0 {
			if text := collapseText(found); text != "" {
				return text
			}
		}
	}
	return ""
}
