package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"apartment-tracker/models"
	"apartment-tracker/utils"
)

func testListing() *models.Listing {
	return &models.Listing{
		ID:           "rental-4183665",
		Address:      "100 Ludlow Street #4F",
		Price:        2800,
		Beds:         "Studio",
		Baths:        "1 bath",
		Sqft:         450,
		Neighborhood: "Lower East Side",
		URL:          "https://streeteasy.com/rental/4183665",
		ImageURL:     "https://photos.streeteasy.com/a.jpg",
	}
}

func TestNotifyListingPayload(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("payload not valid JSON: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscord(srv.URL, "Tracker", "", utils.NewLogger())
	if err := d.NotifyListing(testListing()); err != nil {
		t.Fatalf("NotifyListing: %v", err)
	}

	if got.Username != "Tracker" {
		t.Errorf("username: got %q", got.Username)
	}
	if len(got.Embeds) != 1 {
		t.Fatalf("embeds: got %d, want 1", len(got.Embeds))
	}
	e := got.Embeds[0]
	if !strings.Contains(e.Title, "100 Ludlow Street") {
		t.Errorf("title: got %q", e.Title)
	}
	if e.URL != "https://streeteasy.com/rental/4183665" {
		t.Errorf("url: got %q", e.URL)
	}
	if e.Image == nil || e.Image.URL == "" {
		t.Error("image missing from embed")
	}

	var priceField, hoodField string
	for _, f := range e.Fields {
		if strings.Contains(f.Name, "Price") {
			priceField = f.Value
		}
		if strings.Contains(f.Name, "Neighborhood") {
			hoodField = f.Value
		}
	}
	if priceField != "$2,800" {
		t.Errorf("price field: got %q, want $2,800", priceField)
	}
	if hoodField != "Lower East Side" {
		t.Errorf("neighborhood field: got %q", hoodField)
	}
}

func TestNotifyRetriesOnceOn429(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"retry_after": 0.01}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscord(srv.URL, "Tracker", "", utils.NewLogger())
	if err := d.NotifyListing(testListing()); err != nil {
		t.Fatalf("expected success after 429 retry, got %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestNotifyFailureReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := NewDiscord(srv.URL, "Tracker", "", utils.NewLogger())
	if err := d.NotifyListing(testListing()); err == nil {
		t.Fatal("expected error on HTTP 400")
	}
}

func TestNotifyPriceDrop(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscord(srv.URL, "Tracker", "", utils.NewLogger())
	change := &models.PriceChange{OldPrice: 2800, NewPrice: 2650, Savings: 150, Pct: 5.4}
	if err := d.NotifyPriceDrop(testListing(), change); err != nil {
		t.Fatalf("NotifyPriceDrop: %v", err)
	}

	e := got.Embeds[0]
	if !strings.Contains(e.Title, "Price Drop") {
		t.Errorf("title: got %q", e.Title)
	}
	if e.Color != colorPriceDrop {
		t.Errorf("color: got %#x, want %#x", e.Color, colorPriceDrop)
	}
}

func TestNotifySummary(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	second := testListing()
	second.ID = "rental-999"
	second.Price = 2500
	second.Neighborhood = "Chinatown"

	d := NewDiscord(srv.URL, "Tracker", "", utils.NewLogger())
	if err := d.NotifySummary([]*models.Listing{testListing(), second}); err != nil {
		t.Fatalf("NotifySummary: %v", err)
	}

	desc := got.Embeds[0].Description
	if !strings.Contains(desc, "2 listings") {
		t.Errorf("description missing count: %q", desc)
	}
	if !strings.Contains(desc, "$2,500 – $2,800") {
		t.Errorf("description missing price range: %q", desc)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{2800, "$2,800"},
		{950, "$950"},
		{1234567, "$1,234,567"},
		{0, "N/A"},
	}
	for _, tt := range tests {
		if got := formatPrice(tt.in); got != tt.want {
			t.Errorf("formatPrice(%d) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
