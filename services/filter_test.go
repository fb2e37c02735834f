package services

import (
	"testing"
	"time"

	"apartment-tracker/models"
)

func testListing(id, address, rawHood, slug string) *models.Listing {
	return &models.Listing{
		ID:                   id,
		Address:              address,
		Price:                2800,
		Neighborhood:         rawHood,
		NeighborhoodSearched: slug,
		URL:                  "https://streeteasy.com/rental/" + id,
	}
}

func TestFilterDuplicateInTrueNeighborhood(t *testing.T) {
	f := NewFilter(NewAliasTable(), newTestLogger())
	seen := models.SeenSet{
		"x": &models.SeenEntry{FirstSeen: time.Now()},
	}

	res := f.Apply([]*models.Listing{
		testListing("x", "100 Ludlow St", "Lower East Side", "les"),
	}, seen)

	if len(res.Duplicates) != 1 {
		t.Fatalf("duplicates: got %d, want 1", len(res.Duplicates))
	}
	if len(res.New) != 0 {
		t.Errorf("new: got %d, want 0", len(res.New))
	}
}

func TestFilterSponsoredBeforeDedup(t *testing.T) {
	f := NewFilter(NewAliasTable(), newTestLogger())

	// Even a listing whose id is already in the seen set lands in Sponsored
	// when its label fails the alias check, and the seen set is untouched.
	seen := models.SeenSet{
		"y": &models.SeenEntry{FirstSeen: time.Now()},
	}

	res := f.Apply([]*models.Listing{
		testListing("y", "55 Kent Ave", "Greenpoint", "les"),
	}, seen)

	if len(res.Sponsored) != 1 {
		t.Fatalf("sponsored: got %d, want 1", len(res.Sponsored))
	}
	if len(res.Duplicates) != 0 {
		t.Errorf("sponsorship must be evaluated before dedup")
	}
	if len(seen) != 1 {
		t.Errorf("filter must not mutate the seen set")
	}
}

func TestFilterPreservesInputOrder(t *testing.T) {
	f := NewFilter(NewAliasTable(), newTestLogger())

	listings := []*models.Listing{
		testListing("a", "1 Orchard St", "Lower East Side", "les"),
		testListing("b", "2 Orchard St", "Two Bridges", "les"),
		testListing("c", "3 Orchard St", "Chinatown", "les"),
	}

	res := f.Apply(listings, models.SeenSet{})

	if len(res.New) != 3 {
		t.Fatalf("new: got %d, want 3", len(res.New))
	}
	for i, id := range []string{"a", "b", "c"} {
		if res.New[i].ID != id {
			t.Errorf("order not preserved at %d: got %q, want %q", i, res.New[i].ID, id)
		}
	}
}

func TestFilterUnconfiguredSlugPassesThrough(t *testing.T) {
	f := NewFilter(NewAliasTable(), newTestLogger())

	res := f.Apply([]*models.Listing{
		testListing("z", "10 Main St", "Somewhere Else", "roosevelt-island"),
	}, models.SeenSet{})

	if len(res.New) != 1 {
		t.Errorf("unconfigured neighborhood must not be sponsored-filtered")
	}
}
