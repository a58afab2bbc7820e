package models

import "time"

// Source identifies one of the property websites we scrape.
type Source string

const (
	SourceSpareroom     Source = "spareroom"
	SourceOpenRent      Source = "openrent"
	SourceGumtree       Source = "gumtree"
	SourceOnTheMarket   Source = "onthemarket"
	SourcePrimeLocation Source = "primelocation"
	SourceRightmove     Source = "rightmove"
)

// KnownSources returns every source the trawler has an adapter for,
// in the default run order.
func KnownSources() []Source {
	return []Source{
		SourceSpareroom,
		SourceOpenRent,
		SourceGumtree,
		SourceOnTheMarket,
		SourcePrimeLocation,
		SourceRightmove,
	}
}

// PropertyType classifies a listing as a whole house or a flat.
// Unknown is the default when the listing text is ambiguous.
type PropertyType string

const (
	TypeHouse   PropertyType = "house"
	TypeFlat    PropertyType = "flat"
	TypeUnknown PropertyType = "unknown"
)

// Tristate is a three-valued boolean for attributes that a listing may
// state positively, state negatively, or simply not mention. Unknown is
// distinct from No: the scorer treats them differently.
type Tristate int

const (
	Unknown Tristate = iota
	No
	Yes
)

func (t Tristate) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes Yes/No as JSON booleans and Unknown as null, so the
// exported records keep the optional-boolean shape downstream tools expect.
func (t Tristate) MarshalJSON() ([]byte, error) {
	switch t {
	case Yes:
		return []byte("true"), nil
	case No:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// RawListing holds best-effort field candidates extracted from one listing
// element on a source page. Zero values mean the field was absent; nothing
// here is validated or parsed yet.
type RawListing struct {
	Source         Source
	SourceID       string // source-native listing key, usually from the URL
	URL            string
	Title          string
	Description    string
	PriceText      string
	Address        string
	BedroomsText   string
	BathroomsText  string
	ListedDateText string
	ImageURLs      []string
	ScrapedAt      time.Time
}

// Property is the canonical, source-independent listing record produced by
// the normalizer. Optional fields are pointers; nil means the source did not
// supply a parseable value.
type Property struct {
	ID           string       `json:"id"`
	Source       Source       `json:"source"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Price        *float64     `json:"price"`
	Currency     string       `json:"currency"`
	RentPeriod   string       `json:"rent_period,omitempty"` // pcm/pw/pa as advertised, not normalized
	Address      string       `json:"address"`
	Postcode     string       `json:"postcode,omitempty"`
	Bedrooms     *int         `json:"bedrooms"`
	Bathrooms    *int         `json:"bathrooms"`
	PropertyType PropertyType `json:"property_type"`
	HasGarden    Tristate     `json:"has_garden"`
	HasBalcony   Tristate     `json:"has_balcony"`
	Images       []string     `json:"images"`
	URL          string       `json:"url"`
	ListedDate   *time.Time   `json:"listed_date"`
	MatchScore   *float64     `json:"match_score"`
	ScrapedAt    time.Time    `json:"scraped_at"`
}
