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

const openrentBase = "https://www.openrent.co.uk"

// OpenRentAdapter queries OpenRent's to-rent search. OpenRent takes
// term/minPrice/maxPrice/bedrooms query parameters and loads further results
// by infinite scroll, so only the first page is reachable without a browser;
// the crawl loop stops on its own when a repeat fetch yields nothing new.
type OpenRentAdapter struct {
	client *Client
	logger *utils.Logger
}

func NewOpenRent(client *Client, logger *utils.Logger) *OpenRentAdapter {
	return &OpenRentAdapter{client: client, logger: logger}
}

func (a *OpenRentAdapter) Name() models.Source { return models.SourceOpenRent }

func (a *OpenRentAdapter) Fetch(ctx context.Context, criteria *models.SearchCriteria, emit func(*models.RawListing)) error {
	a.client.Warmup(ctx, openrentBase)

	for _, location := range criteria.Locations {
		params := url.Values{}
		params.Set("term", location)
		if criteria.MinPrice != nil {
			params.Set("minPrice", fmt.Sprintf("%.0f", *criteria.MinPrice))
		}
		if criteria.MaxPrice != nil {
			params.Set("maxPrice", fmt.Sprintf("%.0f", *criteria.MaxPrice))
		}
		if criteria.MinBedrooms != nil {
			params.Set("bedrooms", fmt.Sprintf("%d", *criteria.MinBedrooms))
		}

		doc, _, err := a.client.FirstDocument(ctx, []string{
			openrentBase + "/properties-to-rent?" + params.Encode(),
			openrentBase + "/properties-to-rent?term=" + url.QueryEscape(location),
		})
		if err != nil {
			return fmt.Errorf("openrent: %w", err)
		}

		seen := utils.NewURLSet()
		a.parsePage(doc, location, seen, emit)
	}
	return nil
}

func (a *OpenRentAdapter) parsePage(doc *goquery.Document, location string, seen *utils.URLSet, emit func(*models.RawListing)) int {
	sel := doc.Find("div[class*=listing], article[class*=property]")
	if sel.Length() == 0 {
		sel = doc.Find("a[href*='/properties-to-rent/'], a[href*='/property/']")
	}

	count := 0
	sel.Each(func(_ int, s *goquery.Selection) {
		raw := a.parseListing(s, location)
		if raw == nil {
			a.logger.Debug("[openrent] skipping unparseable listing element")
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

func (a *OpenRentAdapter) parseListing(s *goquery.Selection, location string) *models.RawListing {
	var href string
	if h, ok := s.Attr("href"); ok {
		href = h
	} else if h, ok := s.Find("a[href]").First().Attr("href"); ok {
		href = h
	}
	if href == "" {
		return nil
	}

	title := firstText(s, "h2", "h3", "span[class*=title]")
	if title == "" {
		title = collapseText(s.Find("a").First())
	}
	if len(strings.TrimSpace(title)) < 5 {
		return nil
	}

	listingURL := absoluteURL(openrentBase, href)
	allText := collapseText(s)

	price := firstText(s, "span[class*=price]", "div[class*=price]", "h3[class*=price]")
	if price == "" {
		price = allText
	}
	address := firstText(s, "span[class*=location]", "div[class*=address]", "p[class*=location]")
	if address == "" {
		address = location
	}
	desc := firstText(s, "p[class*=description]", "div[class*=summary]")
	if desc == "" {
		desc = title
	}

	return &models.RawListing{
		Source:        models.SourceOpenRent,
		SourceID:      listingID(listingURL),
		URL:           listingURL,
		Title:         title,
		Description:   desc,
		PriceText:     price,
		Address:       address,
		BedroomsText:  allText,
		BathroomsText: allText,
		ImageURLs:     extractImages(s, openrentBase),
		ScrapedAt:     time.Now(),
	}
}
