package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"property-trawler/models"
	"property-trawler/utils"
)

var (
	// priceRegexp captures a sterling amount with optional thousands separators
	priceRegexp = regexp.MustCompile(`£\s*([\d,]+(?:\.\d+)?)`)
	// periodRegexp captures the advertised rent period, which is recorded raw
	// and never converted between weekly/monthly/annual
	periodRegexp = regexp.MustCompile(`(?i)\b(pcm|per\s+month|pm|pw|per\s+week|pa|per\s+annum)\b`)
	// bedroomsRegexp captures "2 bed", "3 bedrooms" etc.
	bedroomsRegexp  = regexp.MustCompile(`(?i)(\d+)\s*(?:bed|bedroom)`)
	bathroomsRegexp = regexp.MustCompile(`(?i)(\d+)\s*(?:bath|bathroom)`)
	// postcodeRegexp matches UK postcodes like SW1A 1AA or M1 4BT
	postcodeRegexp = regexp.MustCompile(`[A-Z]{1,2}\d{1,2}[A-Z]?\s?\d[A-Z]{2}`)

	gardenNegRegexp  = regexp.MustCompile(`(?i)\b(?:no garden|without garden|no outdoor space)\b`)
	gardenPosRegexp  = regexp.MustCompile(`(?i)\b(?:garden|outdoor space|patio|terrace|yard|courtyard)\b`)
	balconyNegRegexp = regexp.MustCompile(`(?i)\b(?:no balcony|without balcony)\b`)
	balconyPosRegexp = regexp.MustCompile(`(?i)\b(?:balcony|balconies|terrace)\b`)

	flatRegexp  = regexp.MustCompile(`(?i)\b(?:flat|apartment|studio|maisonette)\b`)
	houseRegexp = regexp.MustCompile(`(?i)\b(?:house|bungalow|cottage|detached|semi-detached|terraced)\b`)

	dmyDateRegexp = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
	isoDateRegexp = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

const (
	// Amounts outside this window are concatenated digits or junk, not rents.
	minSanePrice = 100
	maxSanePrice = 10_000_000
	// Room counts above this are parse artefacts.
	maxSaneRooms = 20

	maxDescriptionLen = 500
)

// Normalizer converts raw field candidates into canonical Properties.
// It never fails: missing or malformed fields map to nil/unknown.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize maps one raw record plus its known source into one canonical
// Property.
func (n *Normalizer) Normalize(raw *models.RawListing) *models.Property {
	title := normaliseText(raw.Title)
	description := normaliseText(raw.Description)
	if len(description) > maxDescriptionLen {
		description = description[:maxDescriptionLen]
	}
	address := normaliseText(raw.Address)

	// Amenity and type detection read whatever text the source supplied.
	amenityText := title + " " + description + " " + raw.BedroomsText

	price, period := parsePrice(raw.PriceText)
	if price == nil && raw.PriceText != "" {
		n.logger.Debug("[normalizer] no parseable price in %q", clip(raw.PriceText, 60))
	}
	currency := ""
	if price != nil {
		currency = "GBP"
	}

	prop := &models.Property{
		ID:           DedupKey(raw),
		Source:       raw.Source,
		Title:        title,
		Description:  description,
		Price:        price,
		Currency:     currency,
		RentPeriod:   period,
		Address:      address,
		Postcode:     extractPostcode(address + " " + title),
		Bedrooms:     parseRoomCount(raw.BedroomsText, bedroomsRegexp),
		Bathrooms:    parseRoomCount(raw.BathroomsText, bathroomsRegexp),
		PropertyType: classifyType(title + " " + description),
		HasGarden:    detectAmenity(amenityText, gardenNegRegexp, gardenPosRegexp),
		HasBalcony:   detectAmenity(amenityText, balconyNegRegexp, balconyPosRegexp),
		Images:       raw.ImageURLs,
		URL:          raw.URL,
		ListedDate:   parseListedDate(raw.ListedDateText),
		ScrapedAt:    raw.ScrapedAt,
	}
	return prop
}

// DedupKey composes the stable cross-run identity for a raw record: the
// source plus its native listing key, falling back to normalized
// title+address when the source exposes no key.
func DedupKey(raw *models.RawListing) string {
	if raw.SourceID != "" {
		return string(raw.Source) + ":" + raw.SourceID
	}
	title := strings.ToLower(normaliseText(raw.Title))
	address := strings.ToLower(normaliseText(raw.Address))
	return string(raw.Source) + ":" + title + "|" + address
}

// parsePrice extracts a sterling amount and the advertised rent period.
// Values that are not purely numeric after stripping the symbol and
// thousands separators, or that fall outside sanity bounds, yield nil.
// The period is recorded as found; weekly amounts are NOT converted to
// monthly, so callers must not assume a uniform period.
func parsePrice(text string) (*float64, string) {
	if text == "" {
		return nil, ""
	}

	match := priceRegexp.FindStringSubmatch(text)
	if match == nil {
		return nil, ""
	}

	cleaned := strings.ReplaceAll(match[1], ",", "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value < minSanePrice || value > maxSanePrice {
		return nil, ""
	}

	period := ""
	if m := periodRegexp.FindString(text); m != "" {
		period = canonicalPeriod(m)
	}
	return &value, period
}

func canonicalPeriod(raw string) string {
	switch strings.Join(strings.Fields(strings.ToLower(raw)), " ") {
	case "pw", "per week":
		return "pw"
	case "pa", "per annum":
		return "pa"
	default:
		return "pcm"
	}
}

// parseRoomCount extracts the first room count token. Values above the
// sanity ceiling are treated as parse errors.
func parseRoomCount(text string, re *regexp.Regexp) *int {
	match := re.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	count, err := strconv.Atoi(match[1])
	if err != nil || count < 0 || count > maxSaneRooms {
		return nil
	}
	return &count
}

// detectAmenity resolves a tri-state amenity flag from listing text.
// Negative phrases are tested first since "no garden" contains "garden";
// with neither kind of keyword present the result stays Unknown.
func detectAmenity(text string, negative, positive *regexp.Regexp) models.Tristate {
	if text == "" {
		return models.Unknown
	}
	if negative.MatchString(text) {
		return models.No
	}
	if positive.MatchString(text) {
		return models.Yes
	}
	return models.Unknown
}

// classifyType picks house or flat from listing text keywords. When the text
// matches neither category, or both, the type stays unknown; a guessed
// default would poison the property_type filter.
func classifyType(text string) models.PropertyType {
	isFlat := flatRegexp.MatchString(text)
	isHouse := houseRegexp.MatchString(text)
	switch {
	case isFlat && !isHouse:
		return models.TypeFlat
	case isHouse && !isFlat:
		return models.TypeHouse
	default:
		return models.TypeUnknown
	}
}

func extractPostcode(text string) string {
	return postcodeRegexp.FindString(strings.ToUpper(text))
}

var listedDateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"2006-01-02",
	"2 January 2006",
	"2 Jan 2006",
}

// parseListedDate pulls a date out of strings like "Added on 12/01/2024".
func parseListedDate(text string) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	candidate := text
	if m := dmyDateRegexp.FindString(text); m != "" {
		candidate = m
	} else if m := isoDateRegexp.FindString(text); m != "" {
		candidate = m
	}

	for _, layout := range listedDateLayouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			return &t
		}
	}
	return nil
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
