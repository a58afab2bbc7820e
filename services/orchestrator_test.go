package services

import (
	"context"
	"errors"
	"testing"

	"property-trawler/models"
	"property-trawler/scraper"
)

// fakeAdapter emits a canned set of listings, optionally failing afterwards.
type fakeAdapter struct {
	name     models.Source
	listings []*models.RawListing
	err      error
}

func (f *fakeAdapter) Name() models.Source { return f.name }

func (f *fakeAdapter) Fetch(ctx context.Context, criteria *models.SearchCriteria, emit func(*models.RawListing)) error {
	for _, l := range f.listings {
		emit(l)
	}
	return f.err
}

func rawListing(source models.Source, id, title, price string) *models.RawListing {
	return &models.RawListing{
		Source:    source,
		SourceID:  id,
		Title:     title,
		PriceText: price,
		URL:       "https://example.com/" + id,
	}
}

func TestRunPartialFailure(t *testing.T) {
	good := &fakeAdapter{
		name: models.SourceOpenRent,
		listings: []*models.RawListing{
			rawListing(models.SourceOpenRent, "1", "Two bed flat in Hackney", "£1,500 pcm"),
			rawListing(models.SourceOpenRent, "2", "Studio flat near station", "£1,200 pcm"),
		},
	}
	bad := &fakeAdapter{
		name: models.SourceGumtree,
		listings: []*models.RawListing{
			rawListing(models.SourceGumtree, "9", "One bed flat with garden", "£1,400 pcm"),
		},
		err: errors.Join(scraper.ErrSourceUnavailable, errors.New("status 403")),
	}

	o := NewOrchestrator([]scraper.Adapter{good, bad}, 1, newTestLogger())
	result, err := o.Run(context.Background(), &models.SearchCriteria{Locations: []string{"London"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Properties) != 3 {
		t.Errorf("properties = %d; want 3 (failed source keeps what it emitted)", len(result.Properties))
	}
	if result.TotalScraped != 3 {
		t.Errorf("TotalScraped = %d; want 3", result.TotalScraped)
	}
	if len(result.Reports) != 2 {
		t.Fatalf("reports = %d; want 2", len(result.Reports))
	}
	for _, r := range result.Reports {
		switch r.Source {
		case models.SourceOpenRent:
			if r.Status != models.StatusOK || r.Listings != 2 {
				t.Errorf("openrent report = %+v", r)
			}
		case models.SourceGumtree:
			if r.Status != models.StatusFailed || r.Reason == "" {
				t.Errorf("gumtree report = %+v; want failed with reason", r)
			}
		default:
			t.Errorf("unexpected report source %s", r.Source)
		}
	}
}

func TestRunAllSourcesFailed(t *testing.T) {
	o := NewOrchestrator([]scraper.Adapter{
		&fakeAdapter{name: models.SourceOpenRent, err: scraper.ErrSourceUnavailable},
		&fakeAdapter{name: models.SourceGumtree, err: scraper.ErrSourceUnavailable},
	}, 2, newTestLogger())

	result, err := o.Run(context.Background(), &models.SearchCriteria{Locations: []string{"London"}})
	if err != nil {
		t.Fatalf("Run must not fail when every source does: %v", err)
	}
	if len(result.Properties) != 0 {
		t.Errorf("properties = %d; want empty collection", len(result.Properties))
	}
	for _, r := range result.Reports {
		if r.Status != models.StatusFailed {
			t.Errorf("source %s status = %s; want failed", r.Source, r.Status)
		}
	}
}

func TestRunDeduplicatesLaterWins(t *testing.T) {
	first := rawListing(models.SourceOpenRent, "42", "Two bed flat", "£1,500 pcm")
	second := rawListing(models.SourceOpenRent, "42", "Two bed flat with garden", "£1,450 pcm")

	o := NewOrchestrator([]scraper.Adapter{
		&fakeAdapter{name: models.SourceOpenRent, listings: []*models.RawListing{first, second}},
	}, 1, newTestLogger())

	result, err := o.Run(context.Background(), &models.SearchCriteria{Locations: []string{"London"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.TotalScraped != 2 {
		t.Errorf("TotalScraped = %d; want 2 (counted before dedup)", result.TotalScraped)
	}
	if len(result.Properties) != 1 {
		t.Fatalf("properties = %d; want 1 after dedup", len(result.Properties))
	}
	p := result.Properties[0]
	if p.Title != "Two bed flat with garden" {
		t.Errorf("title = %q; want the later record to win", p.Title)
	}
	if p.Price == nil || *p.Price != 1450 {
		t.Errorf("price = %v; want 1450 from the later record", p.Price)
	}
}

func TestRunSameNativeIDAcrossSourcesIsNotADuplicate(t *testing.T) {
	o := NewOrchestrator([]scraper.Adapter{
		&fakeAdapter{name: models.SourceOpenRent, listings: []*models.RawListing{
			rawListing(models.SourceOpenRent, "42", "Two bed flat", "£1,500 pcm"),
		}},
		&fakeAdapter{name: models.SourceGumtree, listings: []*models.RawListing{
			rawListing(models.SourceGumtree, "42", "One bed flat", "£1,100 pcm"),
		}},
	}, 1, newTestLogger())

	result, err := o.Run(context.Background(), &models.SearchCriteria{Locations: []string{"London"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Properties) != 2 {
		t.Errorf("properties = %d; want 2 (identity is source-scoped)", len(result.Properties))
	}
}

func TestRunInvalidCriteriaFailsBeforeScraping(t *testing.T) {
	touched := false
	adapter := adapterFunc(func(ctx context.Context, c *models.SearchCriteria, emit func(*models.RawListing)) error {
		touched = true
		return nil
	})
	o := NewOrchestrator([]scraper.Adapter{adapter}, 1, newTestLogger())

	_, err := o.Run(context.Background(), &models.SearchCriteria{}) // no locations
	if err == nil {
		t.Fatal("Run accepted criteria with no locations")
	}
	if touched {
		t.Error("adapter ran despite invalid criteria")
	}
}

// adapterFunc lets a test drop a bare function in as an Adapter.
type adapterFunc func(context.Context, *models.SearchCriteria, func(*models.RawListing)) error

func (f adapterFunc) Name() models.Source { return models.SourceOpenRent }
func (f adapterFunc) Fetch(ctx context.Context, c *models.SearchCriteria, emit func(*models.RawListing)) error {
	return f(ctx, c, emit)
}

func TestRunDisabledSourcesSkipped(t *testing.T) {
	ran := map[models.Source]bool{}
	mk := func(name models.Source) scraper.Adapter {
		return &recordingAdapter{name: name, ran: ran}
	}
	o := NewOrchestrator([]scraper.Adapter{mk(models.SourceOpenRent), mk(models.SourceGumtree)}, 1, newTestLogger())

	criteria := &models.SearchCriteria{
		Locations: []string{"London"},
		Sources:   []models.Source{models.SourceGumtree},
	}
	result, err := o.Run(context.Background(), criteria)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ran[models.SourceOpenRent] {
		t.Error("disabled source was scraped")
	}
	if !ran[models.SourceGumtree] {
		t.Error("enabled source was not scraped")
	}
	if len(result.Reports) != 1 {
		t.Errorf("reports = %d; want 1 (disabled sources get no report)", len(result.Reports))
	}
}

type recordingAdapter struct {
	name models.Source
	ran  map[models.Source]bool
}

func (r *recordingAdapter) Name() models.Source { return r.name }
func (r *recordingAdapter) Fetch(ctx context.Context, c *models.SearchCriteria, emit func(*models.RawListing)) error {
	r.ran[r.name] = true
	return nil
}

func TestRunFilterAndScoreApplied(t *testing.T) {
	o := NewOrchestrator([]scraper.Adapter{
		&fakeAdapter{name: models.SourceOpenRent, listings: []*models.RawListing{
			rawListing(models.SourceOpenRent, "1", "2 bed flat with garden", "£1,500 pcm"),
			rawListing(models.SourceOpenRent, "2", "Student accommodation room", "£900 pcm"),
			rawListing(models.SourceOpenRent, "3", "Flat to rent", "price on application"),
		}},
	}, 1, newTestLogger())

	criteria := &models.SearchCriteria{
		Locations:                   []string{"London"},
		MinPrice:                    fp(1000),
		MaxPrice:                    fp(2000),
		MinBedrooms:                 ip(2),
		ExcludeStudentAccommodation: true,
	}
	result, err := o.Run(context.Background(), criteria)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The student listing is excluded; the priced 2-bed and the priceless
	// listing (unknown fields never reject) both survive, best match first.
	if len(result.Properties) != 2 {
		t.Fatalf("properties = %d; want 2", len(result.Properties))
	}
	top := result.Properties[0]
	if top.Source != models.SourceOpenRent || top.Price == nil || *top.Price != 1500 {
		t.Errorf("top match = %+v; want the £1500 two-bed", top)
	}
	for _, p := range result.Properties {
		if p.MatchScore == nil {
			t.Fatalf("property %s has no match score", p.ID)
		}
		if *p.MatchScore < 0 || *p.MatchScore > 100 {
			t.Errorf("property %s score %v out of range", p.ID, *p.MatchScore)
		}
	}
	if *result.Properties[0].MatchScore < *result.Properties[1].MatchScore {
		t.Error("properties not sorted by score descending")
	}
}
