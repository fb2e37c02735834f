package models

import (
	"fmt"
	"hash/fnv"
	"io"
	"regexp"
	"time"
)

// Candidate holds one listing card as parsed off a search results page,
// before any normalization.
type Candidate struct {
	URL          string
	Address      string
	RawPrice     string
	Beds         string
	Baths        string
	RawSqft      string
	Neighborhood string
	ImageURL     string
}

// Listing is the normalized, validated record produced from a Candidate.
// ID is derived from immutable fields only, never from price or fetch time,
// so a listing keeps its identity across runs even when its price changes.
type Listing struct {
	ID                   string
	Address              string
	Price                int
	Beds                 string
	Baths                string
	Sqft                 int // 0 means unknown
	NeighborhoodSearched string
	Neighborhood         string // raw label from the card
	URL                  string
	ImageURL             string
}

// rentalIDPattern matches the numeric rental segment in StreetEasy URLs
// like https://streeteasy.com/rental/4183665.
var rentalIDPattern = regexp.MustCompile(`/rental/(\d+)`)

// ListingID derives a deterministic identifier for a listing. It prefers the
// stable rental path segment embedded in the URL and falls back to a hash of
// (address, url) when no such segment exists.
func ListingID(url, address string) string {
	if m := rentalIDPattern.FindStringSubmatch(url); m != nil {
		return "rental-" + m[1]
	}
	h := fnv.New64a()
	_, _ = io.WriteString(h, address)
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, url)
	return fmt.Sprintf("se-%016x", h.Sum64())
}

// PricePoint records one observed price change for a tracked listing.
type PricePoint struct {
	Price int       `json:"price"`
	Date  time.Time `json:"date"`
}

// SeenEntry is the durable record for a listing that has already been
// notified about.
type SeenEntry struct {
	FirstSeen    time.Time    `json:"first_seen"`
	LastScraped  time.Time    `json:"last_scraped"`
	Address      string       `json:"address"`
	Price        int          `json:"price"`
	Neighborhood string       `json:"neighborhood"`
	URL          string       `json:"url"`
	PriceHistory []PricePoint `json:"price_history,omitempty"`
}

// SeenSet maps listing ID to its seen entry. It is the single source of
// truth for "already notified".
type SeenSet map[string]*SeenEntry

// NewSeenEntry builds the entry stored when a listing is first notified.
func NewSeenEntry(l *Listing, now time.Time) *SeenEntry {
	return &SeenEntry{
		FirstSeen:    now,
		LastScraped:  now,
		Address:      l.Address,
		Price:        l.Price,
		Neighborhood: l.Neighborhood,
		URL:          l.URL,
	}
}

// PriceChange describes a detected price drop on an already-seen listing.
type PriceChange struct {
	OldPrice int
	NewPrice int
	Savings  int
	Pct      float64
}

// DetectPriceDrop compares a stored entry against the currently scraped
// price. It returns nil unless the price decreased.
func DetectPriceDrop(entry *SeenEntry, currentPrice int) *PriceChange {
	if entry.Price <= 0 || currentPrice <= 0 || currentPrice >= entry.Price {
		return nil
	}
	savings := entry.Price - currentPrice
	return &PriceChange{
		OldPrice: entry.Price,
		NewPrice: currentPrice,
		Savings:  savings,
		Pct:      float64(savings) / float64(entry.Price) * 100,
	}
}

// NeighborhoodSummary holds per-neighborhood counters for one run.
type NeighborhoodSummary struct {
	Slug           string
	PagesFetched   int
	Parsed         int
	New            int
	Sponsored      int
	Duplicates     int
	OutOfBounds    int
	Rejected       int
	PriceDrops     int
	NotifyFailures int
	FetchFailed    bool
}

// RunReport is the full outcome of one tracker run. It is produced even
// when some neighborhoods failed to fetch.
type RunReport struct {
	Neighborhoods   []*NeighborhoodSummary
	TotalNew        int
	TotalPriceDrops int
	TotalTracked    int
	FirstRun        bool
	DryRun          bool
}
