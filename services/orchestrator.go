package services

import (
	"context"

	"property-trawler/models"
	"property-trawler/scraper"
	"property-trawler/utils"
)

// Orchestrator runs the enabled source adapters, merges their normalized
// output into one deduplicated collection, applies the filter pipeline and
// the match scorer, and reports per-source outcomes. One failing source
// never prevents the others from running; even a run where every source
// failed succeeds with an empty collection.
type Orchestrator struct {
	adapters   []scraper.Adapter
	normalizer *Normalizer
	filter     *FilterPipeline
	scorer     *Scorer
	logger     *utils.Logger

	// maxConcurrency bounds how many sources run at once. Pacing within a
	// source lives in that adapter's client, so running sources side by side
	// never violates a site's rate limit; 1 keeps the run fully sequential.
	maxConcurrency int
}

// NewOrchestrator wires an orchestrator over an explicit adapter list.
// Passing the adapters in (rather than a package registry) lets tests run a
// deterministic subset with fakes.
func NewOrchestrator(adapters []scraper.Adapter, maxConcurrency int, logger *utils.Logger) *Orchestrator {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Orchestrator{
		adapters:       adapters,
		normalizer:     NewNormalizer(logger),
		filter:         NewFilterPipeline(logger),
		scorer:         NewScorer(logger),
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

type sourceOutcome struct {
	report models.SourceReport
	raw    []*models.RawListing
}

// Run executes a full trawl for the given criteria. Invalid criteria is the
// only error: it is surfaced before any network activity begins.
func (o *Orchestrator) Run(ctx context.Context, criteria *models.SearchCriteria) (*models.RunResult, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	var enabled []scraper.Adapter
	for _, a := range o.adapters {
		if criteria.SourceEnabled(a.Name()) {
			enabled = append(enabled, a)
		} else {
			o.logger.Debug("[orchestrator] source %s disabled by criteria", a.Name())
		}
	}

	// Each goroutine writes only its own slot, so the merge below needs no
	// locking once the pool has drained.
	outcomes := make([]sourceOutcome, len(enabled))

	pool := utils.NewWorkerPool(o.maxConcurrency)
	for i, adapter := range enabled {
		i, adapter := i, adapter
		pool.Submit(func() {
			outcomes[i] = o.runSource(ctx, adapter, criteria)
		})
	}
	pool.Wait()

	// Merge is single-threaded relative to adapter completion. Later-seen
	// records win, but the first-seen position is kept so runs stay
	// deterministic before scoring.
	order := make([]string, 0)
	byKey := make(map[string]*models.Property)
	total := 0
	reports := make([]models.SourceReport, 0, len(enabled))

	for _, outcome := range outcomes {
		reports = append(reports, outcome.report)
		for _, raw := range outcome.raw {
			total++
			prop := o.normalizer.Normalize(raw)
			if _, exists := byKey[prop.ID]; !exists {
				order = append(order, prop.ID)
			}
			byKey[prop.ID] = prop
		}
	}

	collection := make([]*models.Property, 0, len(order))
	for _, id := range order {
		collection = append(collection, byKey[id])
	}
	if dropped := total - len(collection); dropped > 0 {
		o.logger.Info("[orchestrator] deduplicated %d listings (%d duplicates)", total, dropped)
	}

	filtered := o.filter.Apply(collection, criteria)
	ranked := o.scorer.Score(filtered, criteria)

	return &models.RunResult{
		Properties:   ranked,
		Reports:      reports,
		TotalScraped: total,
	}, nil
}

// runSource drives one adapter to completion. The emitted listings are kept
// even when the adapter later hits a hard failure; the report still records
// the failure reason.
func (o *Orchestrator) runSource(ctx context.Context, adapter scraper.Adapter, criteria *models.SearchCriteria) sourceOutcome {
	name := adapter.Name()
	o.logger.Info("[orchestrator] scraping %s...", name)

	var raw []*models.RawListing
	err := adapter.Fetch(ctx, criteria, func(r *models.RawListing) {
		raw = append(raw, r)
	})

	if err != nil {
		o.logger.Warn("[orchestrator] source %s failed: %v", name, err)
		return sourceOutcome{
			report: models.SourceReport{
				Source:   name,
				Status:   models.StatusFailed,
				Listings: len(raw),
				Reason:   err.Error(),
			},
			raw: raw,
		}
	}

	o.logger.Info("[orchestrator] source %s done: %d listings", name, len(raw))
	return sourceOutcome{
		report: models.SourceReport{
			Source:   name,
			Status:   models.StatusOK,
			Listings: len(raw),
		},
		raw: raw,
	}
}

// DefaultAdapters builds the full adapter set, one session client per source
// so cookies and pacing never leak across sites.
func DefaultAdapters(delayMs, maxRetries int, logger *utils.Logger) []scraper.Adapter {
	newClient := func() *scraper.Client {
		return scraper.NewClient(delayMs, maxRetries, logger)
	}
	return []scraper.Adapter{
		scraper.NewSpareroom(newClient(), logger),
		scraper.NewOpenRent(newClient(), logger),
		scraper.NewGumtree(newClient(), logger),
		scraper.NewOnTheMarket(newClient(), logger),
		scraper.NewPrimeLocation(newClient(), logger),
		scraper.NewRightmove(newClient(), logger),
	}
}
