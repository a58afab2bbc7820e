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

const spareroomBase = "https://www.spareroom.co.uk"

// SpareroomAdapter searches SpareRoom's flatshare index restricted to whole
// properties. SpareRoom keys its search on min_rent/max_rent and pages by
// offset, ten listings per page.
type SpareroomAdapter struct {
	client *Client
	logger *utils.Logger
}

func NewSpareroom(client *Client, logger *utils.Logger) *SpareroomAdapter {
	return &SpareroomAdapter{client: client, logger: logger}
}

func (a *SpareroomAdapter) Name() models.Source { return models.SourceSpareroom }

func (a *SpareroomAdapter) Fetch(ctx context.Context, criteria *models.SearchCriteria, emit func(*models.RawListing)) error {
	a.client.Warmup(ctx, spareroomBase)

	for _, location := range criteria.Locations {
		if err := a.fetchLocation(ctx, location, criteria, emit); err != nil {
			return fmt.Errorf("spareroom: %w", err)
		}
	}
	return nil
}

func (a *SpareroomAdapter) fetchLocation(ctx context.Context, location string, criteria *models.SearchCriteria, emit func(*models.RawListing)) error {
	params := url.Values{}
	params.Set("search", location)
	params.Set("flatshare_type", "whole_property")
	if criteria.MinPrice != nil {
		params.Set("min_rent", fmt.Sprintf("%.0f", *criteria.MinPrice))
	}
	if criteria.MaxPrice != nil {
		params.Set("max_rent", fmt.Sprintf("%.0f", *criteria.MaxPrice))
	}
	if criteria.MinBedrooms != nil {
		params.Set("bedrooms", fmt.Sprintf("%d", *criteria.MinBedrooms))
	}

	candidates := []string{
		spareroomBase + "/flatshare/?" + params.Encode(),
		spareroomBase + "/flatshare/?search=" + url.QueryEscape(location) + "&flatshare_type=whole_property",
		spareroomBase + "/flatshare/?search=" + url.QueryEscape(location),
	}

	doc, searchURL, err := a.client.FirstDocument(ctx, candidates)
	if err != nil {
		return err
	}

	seen := utils.NewURLSet()
	return crawlPages(ctx, a.client, doc, searchURL, criteria.MaxPages, spareroomPage,
		func(doc *goquery.Document) int {
			return a.parsePage(doc, location, seen, emit)
		})
}

func spareroomPage(searchURL string, page int) string {
	return fmt.Sprintf("%s&offset=%d", searchURL, (page-1)*10)
}

func (a *SpareroomAdapter) parsePage(doc *goquery.Document, location string, seen *utils.URLSet, emit func(*models.RawListing)) int {
	sel := doc.Find("article[class*=listing-card]")
	if sel.Length() == 0 {
		sel = doc.Find("article.listing-result, li.listing-result, div[data-listing-id]")
	}

	count := 0
	sel.Each(func(_ int, s *goquery.Selection) {
		raw := a.parseListing(s, location)
		if raw == nil {
			a.logger.Debug("[spareroom] skipping unparseable listing element")
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

func (a *SpareroomAdapter) parseListing(s *goquery.Selection, location string) *models.RawListing {
	link := s.Find("a[class*=listing-card__link]").First()
	if link.Length() == 0 {
		link = s.Find("a[href]").First()
	}
	href, _ := link.Attr("href")
	if href == "" {
		return nil
	}

	title := strings.TrimSpace(link.AttrOr("title", ""))
	if title == "" {
		title = collapseText(link)
	}
	if len(title) < 5 {
		return nil
	}

	listingURL := absoluteURL(spareroomBase, href)
	allText := collapseText(s)

	price := firstText(s, "span[class*=price]", "div[class*=price]", "span[class*=rent]")
	if price == "" {
		price = allText
	}
	address := firstText(s, "span[class*=location]", "div[class*=location]", "p[class*=address]")
	if address == "" {
		address = location
	}
	desc := firstText(s, "p[class*=description]", "p[class*=summary]")
	if desc == "" {
		desc = title
	}

	return &models.RawListing{
		Source:        models.SourceSpareroom,
		SourceID:      listingID(listingURL),
		URL:           listingURL,
		Title:         title,
		Description:   desc,
		PriceText:     price,
		Address:       address,
		BedroomsText:  allText,
		BathroomsText: allText,
		ImageURLs:     extractImages(s, spareroomBase),
		ScrapedAt:     time.Now(),
	}
}
