package services

import (
	"apartment-tracker/models"
	"apartment-tracker/utils"
)

// FilterResult splits a batch of normalized listings into genuinely new
// records, sponsored noise, and already-seen duplicates. Each slice
// preserves the input order.
type FilterResult struct {
	New        []*models.Listing
	Sponsored  []*models.Listing
	Duplicates []*models.Listing
}

// Filter applies sponsored suppression and deduplication against the seen
// set. It never mutates the seen set.
type Filter struct {
	aliases *AliasTable
	logger  *utils.Logger
}

// NewFilter creates a Filter using the given alias table.
func NewFilter(aliases *AliasTable, logger *utils.Logger) *Filter {
	return &Filter{aliases: aliases, logger: logger}
}

// Apply classifies each listing. Sponsorship is evaluated before dedup so a
// sponsored listing is never consumed as seen: if it later reappears under
// its true neighborhood it is still eligible there.
func (f *Filter) Apply(listings []*models.Listing, seen models.SeenSet) FilterResult {
	var res FilterResult

	for _, l := range listings {
		if f.aliases.IsSponsored(l.NeighborhoodSearched, l.Neighborhood) {
			f.logger.Debug("[filter] Sponsored: %s — %q not valid for %s",
				l.Address, l.Neighborhood, l.NeighborhoodSearched)
			res.Sponsored = append(res.Sponsored, l)
			continue
		}
		if _, ok := seen[l.ID]; ok {
			res.Duplicates = append(res.Duplicates, l)
			continue
		}
		res.New = append(res.New, l)
	}

	return res
}
