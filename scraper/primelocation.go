package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"property-trawler/models"
	"property-trawler/utils"
)

const primeLocationBase = "https://www.primelocation.com"

// PrimeLocationAdapter searches PrimeLocation's to-rent section. The site is
// quick to serve 403s, so this adapter leans on the multi-pattern fallback
// more than the others.
type PrimeLocationAdapter struct {
	client *Client
	logger *utils.Logger
}

func NewPrimeLocation(client *Client, logger *utils.Logger) *PrimeLocationAdapter {
	return &PrimeLocationAdapter{client: client, logger: logger}
}

func (a *PrimeLocationAdapter) Name() models.Source { return models.SourcePrimeLocation }

func (a *PrimeLocationAdapter) Fetch(ctx context.Context, criteria *models.SearchCriteria, emit func(*models.RawListing)) error {
	a.client.Warmup(ctx, primeLocationBase)

	for _, location := range criteria.Locations {
		if err := a.fetchLocation(ctx, location, criteria, emit); err != nil {
			return fmt.Errorf("primelocation: %w", err)
		}
	}
	return nil
}

func (a *PrimeLocationAdapter) fetchLocation(ctx context.Context, location string, criteria *models.SearchCriteria, emit func(*models.RawListing)) error {
	lower := strings.ToLower(location)
	candidates := []string{
		primeLocationBase + "/to-rent/?q=" + url.QueryEscape(location),
		primeLocationBase + "/to-rent/?locationIdentifier=" + url.QueryEscape(location),
		primeLocationBase + "/to-rent/property/" + url.PathEscape(lower) + "/",
		primeLocationBase + "/to-rent/" + url.PathEscape(lower) + "/",
	}

	doc, searchURL, err := a.client.FirstDocument(ctx, candidates)
	if err != nil {
		return err
	}

	seen := utils.NewURLSet()
	return crawlPages(ctx, a.client, doc, searchURL, criteria.MaxPages, primeLocationPage,
		func(doc *goquery.Document) int {
			return a.parsePage(doc, location, seen, emit)
		})
}

func primeLocationPage(searchURL string, page int) string {
	sep := "&"
	if !strings.Contains(searchURL, "?") {
		sep = "?"
	}
	return fmt.Sprintf("%s%spn=%d", searchURL, sep, page)
}

func (a *PrimeLocationAdapter) parsePage(doc *goquery.Document, location string, seen *utils.URLSet, emit func(*models.RawListing)) int {
	sel := doc.Find("article[class*=property], article[class*=listing]")
	if sel.Length() == 0 {
		sel = doc.Find("div[class*=property], li[class*=property], div[class*=result]")
	}

	count := 0
	sel.Each(func(_ int, s *goquery.Selection) {
		raw := a.parseListing(s, location)
		if raw == nil {
			a.logger.Debug("[primelocation] skipping unparseable listing element")
			return
		}
		if !seen.Add(raw.URL) {
			return
		}
		emit(raw)
		count++
	})
	return count
}

func (a *PrimeLocationAdapter) parseListing(s *goquery.Selection, location string) *models.RawListing {
	link := s.Find("a[href*='/to-rent/details/']").First()
	if link.Length() == 0 {
		link = s.Find("a[href]").First()
	}
	href, _ := link.Attr("href")
	if href == "" {
		return nil
	}

	title := firstText(s, "h2", "a[class*=title]", "span[class*=title]")
	if title == "" {
		title = collapseText(link)
	}
	if len(title) < 5 {
		return nil
	}

	listingURL := absoluteURL(primeLocationBase, href)
	allText := collapseText(s)

	price := firstText(s, "span[class*=price]", "p[class*=price]", "div[class*=price]")
	if price == "" {
		price = allText
	}
	address := firstText(s, "span[class*=address]", "p[class*=address]", "h3[class*=address]")
	if address == "" {
		address = location
	}
	desc := firstText(s, "p[class*=description]", "div[class*=description]")
	if desc == "" {
		desc = title
	}

	return &models.RawListing{
		Source:         models.SourcePrimeLocation,
		SourceID:       listingID(listingURL),
		URL:            listingURL,
		Title:          title,
		Description:    desc,
		PriceText:      price,
		Address:        address,
		BedroomsText:   allText,
		BathroomsText:  allText,
		ListedDateText: firstText(s, "span[class*=date]", "span[class*=listed]"),
		ImageURLs:      extractImages(s, primeLocationBase),
		ScrapedAt:      time.Now(),
	}
}
