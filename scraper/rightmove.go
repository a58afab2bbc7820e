package scraper

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"property-trawler/models"
	"property-trawler/utils"
)

const rightmoveBase = "https://www.rightmove.co.uk"

// RightmoveAdapter searches Rightmove's property-to-rent index. Rightmove
// pages by result offset (index parameter, 24 results per page).
type RightmoveAdapter struct {
	client *Client
	logger *utils.Logger
}

func NewRightmove(client *Client, logger *utils.Logger) *RightmoveAdapter {
	return &RightmoveAdapter{client: client, logger: logger}
}

func (a *RightmoveAdapter) Name() models.Source { return models.SourceRightmove }

func (a *RightmoveAdapter) Fetch(ctx context.Context, criteria *models.SearchCriteria, emit func(*models.RawListing)) error {
	a.client.Warmup(ctx, rightmoveBase)

	for _, location := range criteria.Locations {
		if err := a.fetchLocation(ctx, location, criteria, emit); err != nil {
			return fmt.Errorf("rightmove: %w", err)
		}
	}
	return nil
}

func (a *RightmoveAdapter) fetchLocation(ctx context.Context, location string, criteria *models.SearchCriteria, emit func(*models.RawListing)) error {
	params := url.Values{}
	params.Set("locationIdentifier", location)
	if criteria.MinPrice != nil {
		params.Set("minPrice", fmt.Sprintf("%.0f", *criteria.MinPrice))
	}
	if criteria.MaxPrice != nil {
		params.Set("maxPrice", fmt.Sprintf("%.0f", *criteria.MaxPrice))
	}
	if criteria.MinBedrooms != nil {
		params.Set("minBedrooms", fmt.Sprintf("%d", *criteria.MinBedrooms))
	}

	candidates := []string{
		rightmoveBase + "/property-to-rent/find.html?" + params.Encode(),
		rightmoveBase + "/property-to-rent/find.html?searchLocation=" + url.QueryEscape(location),
		rightmoveBase + "/property-to-rent/find.html?q=" + url.QueryEscape(location),
	}

	doc, searchURL, err := a.client.FirstDocument(ctx, candidates)
	if err != nil {
		return err
	}

	seen := utils.NewURLSet()
	return crawlPages(ctx, a.client, doc, searchURL, criteria.MaxPages, rightmovePage,
		func(doc *goquery.Document) int {
			return a.parsePage(doc, location, seen, emit)
		})
}

func rightmovePage(searchURL string, page int) string {
	return fmt.Sprintf("%s&index=%d", searchURL, (page-1)*24)
}

func (a *RightmoveAdapter) parsePage(doc *goquery.Document, location string, seen *utils.URLSet, emit func(*models.RawListing)) int {
	sel := doc.Find("div[class*=propertyCard], div[class*=property-card]")
	if sel.Length() == 0 {
		sel = doc.Find("div[class*=l-searchResult], article[class*=property], div[class*=result]")
	}

	count := 0
	sel.Each(func(_ int, s *goquery.Selection) {
		raw := a.parseListing(s, location)
		if raw == nil {
			a.logger.Debug("[rightmove] skipping unparseable listing element")
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

func (a *RightmoveAdapter) parseListing(s *goquery.Selection, location string) *models.RawListing {
	link := s.Find("a[class*=propertyCard-link]").First()
	if link.Length() == 0 {
		link = s.Find("a[href*='/properties/']").First()
	}
	if link.Length() == 0 {
		link = s.Find("a[href]").First()
	}
	href, _ := link.Attr("href")
	if href == "" {
		return nil
	}

	title := firstText(s, "h2[class*=propertyCard-title]", "h2", "span[class*=title]")
	if title == "" {
		title = collapseText(link)
	}
	if len(title) < 5 {
		return nil
	}

	listingURL := absoluteURL(rightmoveBase, href)
	allText := collapseText(s)

	price := firstText(s, "span[class*=propertyCard-priceValue]", "div[class*=price]", "span[class*=price]")
	if price == "" {
		price = allText
	}
	address := firstText(s, "address", "span[class*=address]", "div[class*=address]")
	if address == "" {
		address = location
	}
	desc := firstText(s, "span[data-test=property-description]", "p[class*=description]", "div[class*=summary]")
	if desc == "" {
		desc = title
	}

	return &models.RawListing{
		Source:         models.SourceRightmove,
		SourceID:       listingID(listingURL),
		URL:            listingURL,
		Title:          title,
		Description:    desc,
		PriceText:      price,
		Address:        address,
		BedroomsText:   allText,
		BathroomsText:  allText,
		ListedDateText: firstText(s, "span[class*=addedOrReduced]", "span[class*=date]"),
		ImageURLs:      extractImages(s, rightmoveBase),
		ScrapedAt:      time.Now(),
	}
}
