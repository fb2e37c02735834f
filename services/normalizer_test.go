package services

import (
	"testing"

	"apartment-tracker/config"
	"apartment-tracker/models"
	"apartment-tracker/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

func testNormalizer(minPrice, maxPrice int, beds ...string) *Normalizer {
	return NewNormalizer(&config.Config{
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		BedRooms: beds,
	}, newTestLogger())
}

func testCandidate() *models.Candidate {
	return &models.Candidate{
		URL:          "https://streeteasy.com/rental/4183665",
		Address:      "337 East 21st Street #3H",
		RawPrice:     "$2,800",
		Beds:         "Studio",
		Baths:        "1 bath",
		RawSqft:      "450 ft²",
		Neighborhood: "Gramercy Park",
		ImageURL:     "https://photos.zillowstatic.com/x.jpg",
	}
}

func TestNormalizeHappyPath(t *testing.T) {
	l, reason := testNormalizer(0, 0).Normalize(testCandidate(), "gramercy-park")
	if reason != DropNone {
		t.Fatalf("drop reason: got %v, want DropNone", reason)
	}

	if l.ID != "rental-4183665" {
		t.Errorf("id: got %q, want rental path segment id", l.ID)
	}
	if l.Price != 2800 {
		t.Errorf("price: got %d, want 2800", l.Price)
	}
	if l.Sqft != 450 {
		t.Errorf("sqft: got %d, want 450", l.Sqft)
	}
	if l.NeighborhoodSearched != "gramercy-park" {
		t.Errorf("searched slug: got %q", l.NeighborhoodSearched)
	}
	if l.Neighborhood != "Gramercy Park" {
		t.Errorf("raw neighborhood: got %q", l.Neighborhood)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := testNormalizer(0, 0)

	first, _ := n.Normalize(testCandidate(), "gramercy-park")
	second, _ := n.Normalize(testCandidate(), "gramercy-park")

	if *first != *second {
		t.Errorf("normalizing the same candidate twice differed:\n%+v\n%+v", first, second)
	}
}

func TestNormalizeIDFallbackHash(t *testing.T) {
	n := testNormalizer(0, 0)

	c := testCandidate()
	c.URL = "https://streeteasy.com/building/337-east-21-street/3h"
	first, _ := n.Normalize(c, "gramercy-park")
	second, _ := n.Normalize(c, "gramercy-park")

	if first.ID == "" || first.ID != second.ID {
		t.Errorf("fallback id not deterministic: %q vs %q", first.ID, second.ID)
	}

	// Price must not participate in identity.
	c.RawPrice = "$2,650"
	cheaper, _ := n.Normalize(c, "gramercy-park")
	if cheaper.ID != first.ID {
		t.Errorf("price change altered listing id: %q vs %q", cheaper.ID, first.ID)
	}
}

func TestNormalizeRejectsMissingFields(t *testing.T) {
	n := testNormalizer(0, 0)

	tests := []struct {
		name   string
		mutate func(*models.Candidate)
	}{
		{"missing address", func(c *models.Candidate) { c.Address = "  " }},
		{"missing url", func(c *models.Candidate) { c.URL = "" }},
		{"missing price", func(c *models.Candidate) { c.RawPrice = "N/A" }},
	}

	for _, tt := range tests {
		c := testCandidate()
		tt.mutate(c)
		if _, reason := n.Normalize(c, "les"); reason != DropRejected {
			t.Errorf("%s: got reason %v, want DropRejected", tt.name, reason)
		}
	}
}

func TestNormalizePriceBounds(t *testing.T) {
	n := testNormalizer(2000, 3000)

	tests := []struct {
		price string
		want  DropReason
	}{
		{"$2,000", DropNone}, // inclusive lower bound
		{"$3,000", DropNone}, // inclusive upper bound
		{"$1,999", DropOutOfBounds},
		{"$3,001", DropOutOfBounds},
	}

	for _, tt := range tests {
		c := testCandidate()
		c.RawPrice = tt.price
		if _, reason := n.Normalize(c, "les"); reason != tt.want {
			t.Errorf("price %s: got reason %v, want %v", tt.price, reason, tt.want)
		}
	}
}

func TestNormalizeBedsWhitelist(t *testing.T) {
	n := testNormalizer(0, 0, "studio", "1")

	tests := []struct {
		beds string
		want DropReason
	}{
		{"Studio", DropNone},
		{"1 bed", DropNone},
		{"2 beds", DropWrongBeds},
		{"3 beds", DropWrongBeds},
	}

	for _, tt := range tests {
		c := testCandidate()
		c.Beds = tt.beds
		if _, reason := n.Normalize(c, "les"); reason != tt.want {
			t.Errorf("beds %q: got reason %v, want %v", tt.beds, reason, tt.want)
		}
	}
}

func TestNormalizeSqftPlaceholder(t *testing.T) {
	n := testNormalizer(0, 0)

	c := testCandidate()
	c.RawSqft = "- ft²"
	l, reason := n.Normalize(c, "les")
	if reason != DropNone {
		t.Fatalf("missing sqft must not reject candidate: %v", reason)
	}
	if l.Sqft != 0 {
		t.Errorf("placeholder sqft: got %d, want 0", l.Sqft)
	}
}

func TestNormalizeBatchCounts(t *testing.T) {
	n := testNormalizer(0, 3000, "studio")

	noURL := testCandidate()
	noURL.URL = ""
	tooExpensive := testCandidate()
	tooExpensive.RawPrice = "$5,500"
	twoBeds := testCandidate()
	twoBeds.Beds = "2 beds"

	listings, drops := n.NormalizeBatch(
		[]*models.Candidate{testCandidate(), noURL, tooExpensive, twoBeds}, "les")

	if len(listings) != 1 {
		t.Errorf("survivors: got %d, want 1", len(listings))
	}
	if drops.Rejected != 1 || drops.OutOfBounds != 1 || drops.WrongBeds != 1 {
		t.Errorf("drops: got %+v", drops)
	}
}
