package scraper

import (
	"testing"

	"property-trawler/models"
	"property-trawler/utils"
)

const spareroomResultsHTML = `<html><body>
<article class="listing-card">
  <a class="listing-card__link" href="/flatshare/flatshare_detail.pl?flatshare_id=17654321"
     title="2 bedroom flat to rent in Hackney">2 bedroom flat to rent in Hackney</a>
  <span class="listing-card__price">£1,500 pcm</span>
  <span class="listing-card__location">Hackney, London E8 2AA</span>
  <p class="listing-card__description">Bright whole property with private garden.</p>
  <img data-src="//photos.example.com/17654321/main.jpg">
</article>
<article class="listing-card">
  <a class="listing-card__link" href="/flatshare/dalston/20987654" title="Studio flat near Dalston Junction">Studio flat near Dalston Junction</a>
  <span class="listing-card__price">£1,100 pcm</span>
</article>
<article class="listing-card">
  <span>promoted tile with no link</span>
</article>
</body></html>`

func TestSpareroomParsePage(t *testing.T) {
	a := NewSpareroom(testClient(1), utils.NewLogger())
	doc := docFromString(t, spareroomResultsHTML)

	var got []*models.RawListing
	seen := utils.NewURLSet()
	count := a.parsePage(doc, "London", seen, func(r *models.RawListing) { got = append(got, r) })

	if count != 2 {
		t.Fatalf("parsePage = %d new listings; want 2 (unparseable tile skipped)", count)
	}

	first := got[0]
	if first.Source != models.SourceSpareroom {
		t.Errorf("source = %s", first.Source)
	}
	if first.SourceID != "17654321" {
		t.Errorf("source id = %q; want 17654321", first.SourceID)
	}
	if first.URL != "https://www.spareroom.co.uk/flatshare/flatshare_detail.pl?flatshare_id=17654321" {
		t.Errorf("url = %q", first.URL)
	}
	if first.Title != "2 bedroom flat to rent in Hackney" {
		t.Errorf("title = %q", first.Title)
	}
	if first.PriceText != "£1,500 pcm" {
		t.Errorf("price text = %q", first.PriceText)
	}
	if first.Address != "Hackney, London E8 2AA" {
		t.Errorf("address = %q", first.Address)
	}
	if len(first.ImageURLs) != 1 || first.ImageURLs[0] != "https://photos.example.com/17654321/main.jpg" {
		t.Errorf("images = %v", first.ImageURLs)
	}

	second := got[1]
	if second.SourceID != "20987654" {
		t.Errorf("second source id = %q; want 20987654", second.SourceID)
	}
	// No address element on the tile: the searched location stands in.
	if second.Address != "London" {
		t.Errorf("second address = %q; want the search location fallback", second.Address)
	}

	// The same page parsed again yields nothing new.
	if again := a.parsePage(doc, "London", seen, func(*models.RawListing) {}); again != 0 {
		t.Errorf("re-parse produced %d listings; want 0", again)
	}
}
