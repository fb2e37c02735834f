package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"apartment-tracker/config"
	"apartment-tracker/models"
	"apartment-tracker/utils"
)

var (
	// priceRegexp captures the numeric part of a price like "$3,200".
	priceRegexp = regexp.MustCompile(`\d+`)
	// sqftRegexp captures the numeric part of a size like "650 ft²".
	sqftRegexp = regexp.MustCompile(`\d+`)
	// bedsCountRegexp captures the leading count in "2 beds".
	bedsCountRegexp = regexp.MustCompile(`^(\d+)`)
)

// DropReason explains why a candidate did not survive normalization.
type DropReason int

const (
	DropNone DropReason = iota
	// DropRejected: missing address, price or URL — not normalizable.
	DropRejected
	// DropOutOfBounds: price outside the configured inclusive bounds.
	DropOutOfBounds
	// DropWrongBeds: bedroom count not in the configured whitelist.
	DropWrongBeds
)

// NormalizeDrops counts candidates dropped per reason for one batch.
type NormalizeDrops struct {
	Rejected    int
	OutOfBounds int
	WrongBeds   int
}

// Normalizer canonicalizes parsed candidates into stable-keyed listings and
// applies the configured price and bedroom criteria. Bounds are applied here,
// before dedup and sponsorship, so an out-of-bounds record is never counted
// as duplicate or sponsored.
type Normalizer struct {
	minPrice int
	maxPrice int
	bedRooms map[string]struct{} // empty means accept all
	logger   *utils.Logger
}

// NewNormalizer creates a Normalizer from the search criteria in cfg.
func NewNormalizer(cfg *config.Config, logger *utils.Logger) *Normalizer {
	beds := make(map[string]struct{}, len(cfg.BedRooms))
	for _, b := range cfg.BedRooms {
		beds[strings.ToLower(strings.TrimSpace(b))] = struct{}{}
	}
	return &Normalizer{
		minPrice: cfg.MinPrice,
		maxPrice: cfg.MaxPrice,
		bedRooms: beds,
		logger:   logger,
	}
}

// NormalizeBatch processes a page's candidates in order, returning the
// surviving listings (input order preserved) and per-reason drop counts.
func (n *Normalizer) NormalizeBatch(candidates []*models.Candidate, searchedSlug string) ([]*models.Listing, NormalizeDrops) {
	var drops NormalizeDrops
	listings := make([]*models.Listing, 0, len(candidates))

	for _, c := range candidates {
		listing, reason := n.Normalize(c, searchedSlug)
		switch reason {
		case DropNone:
			listings = append(listings, listing)
		case DropRejected:
			drops.Rejected++
			n.logger.Debug("[normalize] Rejected candidate (missing fields): %q", c.URL)
		case DropOutOfBounds:
			drops.OutOfBounds++
			n.logger.Debug("[normalize] %s dropped — price $%d outside bounds", c.Address, listing.Price)
		case DropWrongBeds:
			drops.WrongBeds++
			n.logger.Debug("[normalize] %s dropped — beds %q not wanted", c.Address, c.Beds)
		}
	}

	return listings, drops
}

// Normalize canonicalizes a single candidate. It is idempotent: the same
// candidate always yields an identical listing, including its ID.
func (n *Normalizer) Normalize(c *models.Candidate, searchedSlug string) (*models.Listing, DropReason) {
	address := normalizeText(c.Address)
	url := strings.TrimSpace(c.URL)
	price, priceOK := parsePrice(c.RawPrice)

	if address == "" || url == "" || !priceOK {
		return nil, DropRejected
	}

	listing := &models.Listing{
		ID:                   models.ListingID(url, address),
		Address:              address,
		Price:                price,
		Beds:                 normalizeText(c.Beds),
		Baths:                normalizeText(c.Baths),
		Sqft:                 parseSqft(c.RawSqft),
		NeighborhoodSearched: searchedSlug,
		Neighborhood:         normalizeText(c.Neighborhood),
		URL:                  url,
		ImageURL:             strings.TrimSpace(c.ImageURL),
	}

	if !n.priceInBounds(price) {
		return listing, DropOutOfBounds
	}
	if !n.bedsWanted(listing.Beds) {
		return listing, DropWrongBeds
	}

	return listing, DropNone
}

func (n *Normalizer) priceInBounds(price int) bool {
	if n.minPrice > 0 && price < n.minPrice {
		return false
	}
	if n.maxPrice > 0 && price > n.maxPrice {
		return false
	}
	return true
}

// bedsWanted matches a card's beds text ("Studio", "2 beds") against the
// configured whitelist ("studio", "2"). An empty whitelist accepts all.
func (n *Normalizer) bedsWanted(beds string) bool {
	if len(n.bedRooms) == 0 {
		return true
	}
	key := strings.ToLower(beds)
	if strings.Contains(key, "studio") {
		key = "studio"
	} else if m := bedsCountRegexp.FindStringSubmatch(key); m != nil {
		key = m[1]
	}
	_, ok := n.bedRooms[key]
	return ok
}

// parsePrice extracts an integer price from a string like "$3,200".
func parsePrice(raw string) (int, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return 0, false
	}
	price, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return price, true
}

// parseSqft extracts square footage from a string like "650 ft²".
// Placeholder values like "-ft²" yield 0 (unknown).
func parseSqft(raw string) int {
	cleaned := strings.ReplaceAll(raw, ",", "")
	match := sqftRegexp.FindString(cleaned)
	if match == "" {
		return 0
	}
	sqft, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return sqft
}

// normalizeText strips leading/trailing whitespace and collapses internal
// whitespace.
func normalizeText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
