package streeteasy

import (
	"fmt"
	"strings"

	"apartment-tracker/config"
)

const baseURL = "https://streeteasy.com"

// URLBuilder constructs StreetEasy rental search URLs from the configured
// criteria.
type URLBuilder struct {
	minPrice int
	maxPrice int
	beds     []string
	noFee    bool
}

// NewURLBuilder creates a URLBuilder from the search criteria in cfg.
func NewURLBuilder(cfg *config.Config) *URLBuilder {
	return &URLBuilder{
		minPrice: cfg.MinPrice,
		maxPrice: cfg.MaxPrice,
		beds:     cfg.BedRooms,
		noFee:    cfg.NoFee,
	}
}

// Search returns the results URL for one neighborhood page. Page 1 has no
// page parameter; later pages carry ?page=N.
func (b *URLBuilder) Search(slug string, page int) string {
	filters := []string{b.priceFilter()}
	if beds := b.bedsFilter(); beds != "" {
		filters = append(filters, beds)
	}
	if b.noFee {
		filters = append(filters, "no_fee:1")
	}

	u := fmt.Sprintf("%s/for-rent/%s/%s", baseURL, slug, strings.Join(filters, "|"))
	if page > 1 {
		u += fmt.Sprintf("?page=%d", page)
	}
	return u
}

func (b *URLBuilder) priceFilter() string {
	if b.minPrice > 0 {
		return fmt.Sprintf("price:%d-%d", b.minPrice, b.maxPrice)
	}
	return fmt.Sprintf("price:-%d", b.maxPrice)
}

// bedsFilter maps the configured bedroom counts to StreetEasy's beds
// parameter. "studio" is beds:0; a range collapses to first-last.
func (b *URLBuilder) bedsFilter() string {
	if len(b.beds) == 0 {
		return ""
	}

	vals := make([]string, 0, len(b.beds))
	for _, bed := range b.beds {
		if strings.EqualFold(strings.TrimSpace(bed), "studio") {
			vals = append(vals, "0")
		} else {
			vals = append(vals, strings.TrimSpace(bed))
		}
	}

	if len(vals) == 1 {
		return "beds:" + vals[0]
	}
	return fmt.Sprintf("beds:%s-%s", vals[0], vals[len(vals)-1])
}
