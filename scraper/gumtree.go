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

const gumtreeBase = "https://www.gumtree.com"

// GumtreeAdapter runs a keyword search against Gumtree's property-for-rent
// category. Gumtree has no structured location parameter, so the location
// and any bedroom preference are folded into the free-text query, the way a
// person would type it.
type GumtreeAdapter struct {
	client *Client
	logger *utils.Logger
}

func NewGumtree(client *Client, logger *utils.Logger) *GumtreeAdapter {
	return &GumtreeAdapter{client: client, logger: logger}
}

func (a *GumtreeAdapter) Name() models.Source { return models.SourceGumtree }

func (a *GumtreeAdapter) Fetch(ctx context.Context, criteria *models.SearchCriteria, emit func(*models.RawListing)) error {
	a.client.Warmup(ctx, gumtreeBase)

	for _, location := range criteria.Locations {
		if err := a.fetchLocation(ctx, location, criteria, emit); err != nil {
			return fmt.Errorf("gumtree: %w", err)
		}
	}
	return nil
}

func (a *GumtreeAdapter) fetchLocation(ctx context.Context, location string, criteria *models.SearchCriteria, emit func(*models.RawListing)) error {
	query := "property rent " + location
	if t := criteria.TypeFilter(); t == models.FilterHouse || t == models.FilterFlat {
		query = string(t) + " rent " + location
	}
	if criteria.MinBedrooms != nil {
		query = fmt.Sprintf("%d bedroom %s", *criteria.MinBedrooms, query)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("category", "property-for-rent")
	if criteria.MinPrice != nil {
		params.Set("min_price", fmt.Sprintf("%.0f", *criteria.MinPrice))
	}
	if criteria.MaxPrice != nil {
		params.Set("max_price", fmt.Sprintf("%.0f", *criteria.MaxPrice))
	}

	candidates := []string{
		gumtreeBase + "/search?" + params.Encode(),
		gumtreeBase + "/search?q=" + url.QueryEscape(query) + "&category=property-for-rent",
		gumtreeBase + "/search?q=" + url.QueryEscape("property rent "+location),
		gumtreeBase + "/property-for-rent/" + url.PathEscape(strings.ToLower(location)),
	}

	doc, searchURL, err := a.client.FirstDocument(ctx, candidates)
	if err != nil {
		return err
	}

	seen := utils.NewURLSet()
	return crawlPages(ctx, a.client, doc, searchURL, criteria.MaxPages, gumtreePage,
		func(doc *goquery.Document) int {
			return a.parsePage(doc, location, seen, emit)
		})
}

func gumtreePage(searchURL string, page int) string {
	return fmt.Sprintf("%s&page=%d", searchURL, page)
}

func (a *GumtreeAdapter) parsePage(doc *goquery.Document, location string, seen *utils.URLSet, emit func(*models.RawListing)) int {
	sel := doc.Find("article[class*=listing]")
	if sel.Length() == 0 {
		sel = doc.Find("div[class*=listing], li[class*=listing], div[class*=result]")
	}

	count := 0
	sel.Each(func(_ int, s *goquery.Selection) {
		raw := a.parseListing(s, location)
		if raw == nil {
			a.logger.Debug("[gumtree] skipping unparseable listing element")
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

func (a *GumtreeAdapter) parseListing(s *goquery.Selection, location string) *models.RawListing {
	link := s.Find("a[href*='/p/']").First()
	if link.Length() == 0 {
		link = s.Find("a[href]").First()
	}
	href, _ := link.Attr("href")
	if href == "" {
		return nil
	}

	title := firstText(s, "h2", "h3", "a[class*=title]", "div[class*=title]")
	if title == "" {
		title = collapseText(link)
	}
	if len(title) < 5 {
		return nil
	}

	listingURL := absoluteURL(gumtreeBase, href)
	allText := collapseText(s)

	price := firstText(s, "span[class*=price]", "div[class*=price]", "strong[class*=amount]")
	if price == "" {
		price = allText
	}
	address := firstText(s, "span[class*=location]", "div[class*=location]", "span[class*=area]")
	if address == "" {
		address = location
	}
	desc := firstText(s, "p[class*=description]", "div[class*=description]")
	if desc == "" {
		desc = title
	}

	return &models.RawListing{
		Source:        models.SourceGumtree,
		SourceID:      listingID(listingURL),
		URL:           listingURL,
		Title:         title,
		Description:   desc,
		PriceText:     price,
		Address:       address,
		BedroomsText:  allText,
		BathroomsText: allText,
		ImageURLs:     extractImages(s, gumtreeBase),
		ScrapedAt:     time.Now(),
	}
}
