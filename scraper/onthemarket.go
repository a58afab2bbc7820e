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

const onTheMarketBase = "https://www.onthemarket.com"

// OnTheMarketAdapter searches OnTheMarket's to-rent index. It supports a
// locationIdentifier query convention plus a path-based fallback, and pages
// with a plain page parameter.
type OnTheMarketAdapter struct {
	client *Client
	logger *utils.Logger
}

func NewOnTheMarket(client *Client, logger *utils.Logger) *OnTheMarketAdapter {
	return &OnTheMarketAdapter{client: client, logger: logger}
}

func (a *OnTheMarketAdapter) Name() models.Source { return models.SourceOnTheMarket }

func (a *OnTheMarketAdapter) Fetch(ctx context.Context, criteria *models.SearchCriteria, emit func(*models.RawListing)) error {
	a.client.Warmup(ctx, onTheMarketBase)

	for _, location := range criteria.Locations {
		if err := a.fetchLocation(ctx, location, criteria, emit); err != nil {
			return fmt.Errorf("onthemarket: %w", err)
		}
	}
	return nil
}

func (a *OnTheMarketAdapter) fetchLocation(ctx context.Context, location string, criteria *models.SearchCriteria, emit func(*models.RawListing)) error {
	params := url.Values{}
	params.Set("locationIdentifier", location)
	if criteria.MinPrice != nil {
		params.Set("minPrice", fmt.Sprintf("%.0f", *criteria.MinPrice))
	}
	if criteria.MaxPrice != nil {
		params.Set("maxPrice", fmt.Sprintf("%.0f", *criteria.MaxPrice))
	}
	if criteria.MinBedrooms != nil {
		params.Set("bedrooms", fmt.Sprintf("%d", *criteria.MinBedrooms))
	}

	candidates := []string{
		onTheMarketBase + "/to-rent/?" + params.Encode(),
		onTheMarketBase + "/to-rent/property/" + url.PathEscape(strings.ToLower(location)) + "/",
		onTheMarketBase + "/to-rent/?locationIdentifier=" + url.QueryEscape(location),
	}

	doc, searchURL, err := a.client.FirstDocument(ctx, candidates)
	if err != nil {
		return err
	}

	seen := utils.NewURLSet()
	return crawlPages(ctx, a.client, doc, searchURL, criteria.MaxPages, onTheMarketPage,
		func(doc *goquery.Document) int {
			return a.parsePage(doc, location, seen, emit)
		})
}

func onTheMarketPage(searchURL string, page int) string {
	sep := "&"
	if !strings.Contains(searchURL, "?") {
		sep = "?"
	}
	return fmt.Sprintf("%s%spage=%d", searchURL, sep, page)
}

func (a *OnTheMarketAdapter) parsePage(doc *goquery.Document, location string, seen *utils.URLSet, emit func(*models.RawListing)) int {
	sel := doc.Find("li[class*=property-card], li[class*=otm-PropertyCard]")
	if sel.Length() == 0 {
		sel = doc.Find("div[class*=property], li[class*=result], article[class*=property]")
	}

	count := 0
	sel.Each(func(_ int, s *goquery.Selection) {
		raw := a.parseListing(s, location)
		if raw == nil {
			a.logger.Debug("[onthemarket] skipping unparseable listing element")
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

func (a *OnTheMarketAdapter) parseListing(s *goquery.Selection, location string) *models.RawListing {
	link := s.Find("a[href*='/details/']").First()
	if link.Length() == 0 {
		link = s.Find("a[href]").First()
	}
	href, _ := link.Attr("href")
	if href == "" {
		return nil
	}

	title := firstText(s, "span[class*=title]", "h2", "a[class*=title]")
	if title == "" {
		title = collapseText(link)
	}
	if len(title) < 5 {
		return nil
	}

	listingURL := absoluteURL(onTheMarketBase, href)
	allText := collapseText(s)

	price := firstText(s, "span[class*=price]", "div[class*=price]")
	if price == "" {
		price = allText
	}
	address := firstText(s, "span[class*=address]", "p[class*=address]", "span[class*=location]")
	if address == "" {
		address = location
	}
	desc := firstText(s, "p[class*=description]", "div[class*=summary]")
	if desc == "" {
		desc = title
	}

	return &models.RawListing{
		Source:         models.SourceOnTheMarket,
		SourceID:       listingID(listingURL),
		URL:            listingURL,
		Title:          title,
		Description:    desc,
		PriceText:      price,
		Address:        address,
		BedroomsText:   allText,
		BathroomsText:  allText,
		ListedDateText: firstText(s, "span[class*=date]", "div[class*=added]"),
		ImageURLs:      extractImages(s, onTheMarketBase),
		ScrapedAt:      time.Now(),
	}
}
