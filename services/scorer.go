package services

import (
	"math"
	"sort"

	"property-trawler/models"
	"property-trawler/utils"
)

// Score weights. The component maxima sum to exactly 100.
const (
	priceScoreMax   = 30
	roomScoreMax    = 20
	amenityScoreMax = 10

	roomInRangeScore  = 15
	roomOutsideScore  = 5
	roomMissingScore  = 2
	amenityMaybeScore = 3

	// A property with no price data scores low but never zero, so missing
	// data ranks below a bad price rather than disappearing entirely.
	missingPriceScore = 5

	// Reference monthly rent used when the criteria set no price bounds at
	// all; keeps the price component a monotonic preference for lower rent.
	defaultRentReference = 1000.0

	completenessPointsPer = 2
)

// Scorer computes the deterministic 0–100 match score for each property
// against the search criteria, and establishes the ranking order.
type Scorer struct {
	logger *utils.Logger
}

// NewScorer creates a Scorer with the given logger.
func NewScorer(logger *utils.Logger) *Scorer {
	return &Scorer{logger: logger}
}

// Score assigns every property a match score and returns a new slice sorted
// by score descending, ties broken by more recent listed date with dateless
// properties last. Scores are recomputed from scratch on every pass: a
// re-score with different criteria overwrites, never combines.
func (s *Scorer) Score(props []*models.Property, criteria *models.SearchCriteria) []*models.Property {
	for _, p := range props {
		score := s.score(p, criteria)
		p.MatchScore = &score
	}

	s.logger.Debug("[scorer] scored %d properties", len(props))

	ranked := make([]*models.Property, len(props))
	copy(ranked, props)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := *ranked[i].MatchScore, *ranked[j].MatchScore
		if si != sj {
			return si > sj
		}
		di, dj := ranked[i].ListedDate, ranked[j].ListedDate
		switch {
		case di != nil && dj != nil:
			return di.After(*dj)
		case di != nil:
			return true
		default:
			return false
		}
	})
	return ranked
}

func (s *Scorer) score(p *models.Property, c *models.SearchCriteria) float64 {
	total := priceScore(p.Price, c.MinPrice, c.MaxPrice) +
		roomScore(p.Bedrooms, c.MinBedrooms, c.MaxBedrooms, c.PreferredBedrooms) +
		roomScore(p.Bathrooms, c.MinBathrooms, c.MaxBathrooms, c.PreferredBathrooms) +
		amenityScore(p.HasGarden, c.RequireGarden) +
		amenityScore(p.HasBalcony, c.RequireBalcony) +
		completenessScore(p)

	// The maxima already sum to 100; the clamp is belt-and-braces.
	return math.Min(100, math.Max(0, total))
}

// priceScore awards full points at the midpoint of a fully bounded price
// range, decaying linearly to zero at either bound. With a bound missing it
// degrades to a monotonic preference for lower rent.
func priceScore(price, min, max *float64) float64 {
	if price == nil {
		return missingPriceScore
	}
	p := *price

	switch {
	case min != nil && max != nil && *max > *min:
		mid := (*min + *max) / 2
		half := (*max - *min) / 2
		return clampScore(priceScoreMax * (1 - math.Abs(p-mid)/half))
	case min != nil && max != nil:
		// Degenerate range: only the exact price matches.
		if p == *min {
			return priceScoreMax
		}
		return 0
	case max != nil:
		return clampScore(priceScoreMax * (1 - p / *max))
	case min != nil:
		if p <= *min {
			return priceScoreMax
		}
		return priceScoreMax * *min / p
	default:
		return priceScoreMax * defaultRentReference / (defaultRentReference + p)
	}
}

// roomScore tiers a bedroom/bathroom count: exact preferred value, within the
// configured range, outside the range but known, or missing. With no
// preferred value configured, the midpoint of a fully bounded range stands in
// for it.
func roomScore(v, min, max, preferred *int) float64 {
	if v == nil {
		return roomMissingScore
	}
	if preferred == nil && min != nil && max != nil {
		mid := (*min + *max) / 2
		preferred = &mid
	}
	if preferred != nil && *v == *preferred {
		return roomScoreMax
	}
	if (min == nil || *v >= *min) && (max == nil || *v <= *max) {
		return roomInRangeScore
	}
	return roomOutsideScore
}

// amenityScore: a required amenity scores full when present and a token
// amount when unknown; an amenity that isn't required still earns a small
// bonus when present.
func amenityScore(t models.Tristate, required bool) float64 {
	if required {
		switch t {
		case models.Yes:
			return amenityScoreMax
		case models.Unknown:
			return amenityMaybeScore
		default:
			return 0
		}
	}
	if t == models.Yes {
		return amenityMaybeScore
	}
	return 0
}

// completenessScore rewards listings that actually carry data: price,
// bedrooms, bathrooms, at least one image, and a postcode.
func completenessScore(p *models.Property) float64 {
	points := 0
	if p.Price != nil {
		points += completenessPointsPer
	}
	if p.Bedrooms != nil {
		points += completenessPointsPer
	}
	if p.Bathrooms != nil {
		points += completenessPointsPer
	}
	if len(p.Images) > 0 {
		points += completenessPointsPer
	}
	if p.Postcode != "" {
		points += completenessPointsPer
	}
	return float64(points)
}

func clampScore(v float64) float64 {
	return math.Min(priceScoreMax, math.Max(0, v))
}
