package models

import (
	"strings"
	"testing"
)

func TestListingIDFromRentalURL(t *testing.T) {
	id := ListingID("https://streeteasy.com/rental/4183665", "100 Ludlow Street")
	if id != "rental-4183665" {
		t.Errorf("got %q, want rental-4183665", id)
	}
}

func TestListingIDFallbackHash(t *testing.T) {
	url := "https://streeteasy.com/building/100-ludlow/3f"
	addr := "100 Ludlow Street #3F"

	first := ListingID(url, addr)
	second := ListingID(url, addr)
	if first != second {
		t.Fatalf("fallback id not deterministic: %q vs %q", first, second)
	}
	if !strings.HasPrefix(first, "se-") {
		t.Errorf("fallback id %q missing se- prefix", first)
	}
	if other := ListingID(url, "200 Ludlow Street"); other == first {
		t.Error("different addresses must not collide")
	}
}

func TestDetectPriceDrop(t *testing.T) {
	entry := &SeenEntry{Address: "100 Ludlow Street", Price: 3000}

	if change := DetectPriceDrop(entry, 3000); change != nil {
		t.Errorf("unchanged price reported as drop: %+v", change)
	}
	if change := DetectPriceDrop(entry, 3200); change != nil {
		t.Errorf("increase reported as drop: %+v", change)
	}
	if change := DetectPriceDrop(&SeenEntry{Price: 0}, 2500); change != nil {
		t.Errorf("unknown stored price reported as drop: %+v", change)
	}

	change := DetectPriceDrop(entry, 2700)
	if change == nil {
		t.Fatal("drop not detected")
	}
	if change.Savings != 300 || change.Pct != 10.0 {
		t.Errorf("got savings=%d pct=%.1f, want 300/10.0", change.Savings, change.Pct)
	}
}
