package models

import (
	"errors"
	"fmt"
)

// PropertyTypeFilter is the property-type option on a search: restrict to
// houses, restrict to flats, or accept either.
type PropertyTypeFilter string

const (
	FilterHouse  PropertyTypeFilter = "house"
	FilterFlat   PropertyTypeFilter = "flat"
	FilterEither PropertyTypeFilter = "either"
)

// SearchCriteria is the full set of user-supplied search parameters: what to
// look for, what to reject outright, and how hard to hit each source.
// The same criteria object drives URL construction, filtering and scoring.
type SearchCriteria struct {
	Locations []string `yaml:"locations"`

	MinPrice *float64 `yaml:"min_price"`
	MaxPrice *float64 `yaml:"max_price"`

	MinBedrooms       *int `yaml:"min_bedrooms"`
	MaxBedrooms       *int `yaml:"max_bedrooms"`
	PreferredBedrooms *int `yaml:"preferred_bedrooms"`

	MinBathrooms       *int `yaml:"min_bathrooms"`
	MaxBathrooms       *int `yaml:"max_bathrooms"`
	PreferredBathrooms *int `yaml:"preferred_bathrooms"`

	RequireGarden  bool `yaml:"require_garden"`
	RequireBalcony bool `yaml:"require_balcony"`

	PropertyType PropertyTypeFilter `yaml:"property_type"`

	ExcludeStudentAccommodation bool `yaml:"exclude_student_accommodation"`
	ExcludeHouseShares          bool `yaml:"exclude_house_shares"`
	ExcludeRetirement           bool `yaml:"exclude_retirement"`

	// Sources restricts the run to a subset of adapters. Empty means all.
	Sources []Source `yaml:"sources"`

	MaxPages       int `yaml:"max_pages"`
	RequestDelayMs int `yaml:"request_delay_ms"`
}

// Validate rejects unsatisfiable criteria before any network activity.
// This is the only fatal condition in a run.
func (c *SearchCriteria) Validate() error {
	if len(c.Locations) == 0 {
		return errors.New("criteria: at least one location is required")
	}
	if c.MinPrice != nil && *c.MinPrice < 0 {
		return errors.New("criteria: min_price must not be negative")
	}
	if c.MinPrice != nil && c.MaxPrice != nil && *c.MinPrice > *c.MaxPrice {
		return fmt.Errorf("criteria: min_price %.0f exceeds max_price %.0f", *c.MinPrice, *c.MaxPrice)
	}
	if err := validateIntRange("bedrooms", c.MinBedrooms, c.MaxBedrooms); err != nil {
		return err
	}
	if err := validateIntRange("bathrooms", c.MinBathrooms, c.MaxBathrooms); err != nil {
		return err
	}
	switch c.PropertyType {
	case "", FilterHouse, FilterFlat, FilterEither:
	default:
		return fmt.Errorf("criteria: unrecognized property_type %q", c.PropertyType)
	}
	if c.MaxPages < 0 {
		return errors.New("criteria: max_pages must not be negative")
	}
	return nil
}

func validateIntRange(name string, min, max *int) error {
	if min != nil && *min < 0 {
		return fmt.Errorf("criteria: min_%s must not be negative", name)
	}
	if min != nil && max != nil && *min > *max {
		return fmt.Errorf("criteria: min_%s %d exceeds max_%s %d", name, *min, name, *max)
	}
	return nil
}

// SourceEnabled reports whether the given source should run. An empty
// Sources list enables every known source.
func (c *SearchCriteria) SourceEnabled(s Source) bool {
	if len(c.Sources) == 0 {
		return true
	}
	for _, enabled := range c.Sources {
		if enabled == s {
			return true
		}
	}
	return false
}

// TypeFilter returns the effective property-type option, defaulting to either.
func (c *SearchCriteria) TypeFilter() PropertyTypeFilter {
	if c.PropertyType == "" {
		return FilterEither
	}
	return c.PropertyType
}
