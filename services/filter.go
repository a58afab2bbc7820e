package services

import (
	"regexp"
	"strings"

	"property-trawler/models"
	"property-trawler/utils"
)

// Exclusion keyword patterns. A match against an enabled exclusion removes
// the property unconditionally, whatever its score would have been.
var (
	studentRegexp = regexp.MustCompile(`(?i)\b(?:students?|student (?:accommodation|housing|flat|room|halls?|let|property|only)|` +
		`university accommodation|halls? of residence|for students)\b`)
	houseShareRegexp = regexp.MustCompile(`(?i)\b(?:house shar(?:e|ing)|shared house|share house|shared accommodation|` +
		`room (?:to rent|in shared house|available|for rent)|single room|double room|share of|sharing with)\b`)
	retirementRegexp = regexp.MustCompile(`(?i)\b(?:retirement(?: property| flat| home| housing| village| community)?|` +
		`over (?:55|60|65)|age restricted|senior living|sheltered accommodation)\b`)
)

// FilterPipeline applies the user's inclusion and exclusion predicates over
// the canonical collection. Filters compose by logical AND and never mutate
// a Property; a field the source didn't supply never causes rejection.
type FilterPipeline struct {
	logger *utils.Logger
}

// NewFilterPipeline creates a FilterPipeline with the given logger.
func NewFilterPipeline(logger *utils.Logger) *FilterPipeline {
	return &FilterPipeline{logger: logger}
}

// Apply returns the subset of properties that pass every enabled filter.
func (f *FilterPipeline) Apply(props []*models.Property, criteria *models.SearchCriteria) []*models.Property {
	result := make([]*models.Property, 0, len(props))
	for _, p := range props {
		if f.passes(p, criteria) {
			result = append(result, p)
		}
	}
	f.logger.Info("[filter] %d → %d properties (excluded %d)",
		len(props), len(result), len(props)-len(result))
	return result
}

// passes runs the cheap predicates before the keyword scans.
func (f *FilterPipeline) passes(p *models.Property, c *models.SearchCriteria) bool {
	if !c.SourceEnabled(p.Source) {
		return false
	}
	if !passesFloatRange(p.Price, c.MinPrice, c.MaxPrice) {
		return false
	}
	if !passesIntRange(p.Bedrooms, c.MinBedrooms, c.MaxBedrooms) {
		return false
	}
	if !passesIntRange(p.Bathrooms, c.MinBathrooms, c.MaxBathrooms) {
		return false
	}

	switch c.TypeFilter() {
	case models.FilterHouse:
		if p.PropertyType == models.TypeFlat {
			return false
		}
	case models.FilterFlat:
		if p.PropertyType == models.TypeHouse {
			return false
		}
	}

	// Required amenities reject only an explicit "no"; unknown passes and is
	// down-scored by the match scorer instead.
	if c.RequireGarden && p.HasGarden == models.No {
		return false
	}
	if c.RequireBalcony && p.HasBalcony == models.No {
		return false
	}

	text := strings.ToLower(p.Title + " " + p.Description)
	if c.ExcludeStudentAccommodation && studentRegexp.MatchString(text) {
		return false
	}
	if c.ExcludeHouseShares && houseShareRegexp.MatchString(text) {
		return false
	}
	if c.ExcludeRetirement && retirementRegexp.MatchString(text) {
		return false
	}

	return true
}

// passesFloatRange applies a numeric range filter. A nil value passes: an
// unknown field is never grounds for rejection.
func passesFloatRange(v, min, max *float64) bool {
	if v == nil {
		return true
	}
	if min != nil && *v < *min {
		return false
	}
	if max != nil && *v > *max {
		return false
	}
	return true
}

func passesIntRange(v, min, max *int) bool {
	if v == nil {
		return true
	}
	if min != nil && *v < *min {
		return false
	}
	if max != nil && *v > *max {
		return false
	}
	return true
}
