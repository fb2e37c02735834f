// Package notify delivers listing alerts through a Discord webhook.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"apartment-tracker/models"
	"apartment-tracker/utils"
)

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedImage struct {
	URL string `json:"url"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title       string       `json:"title"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp"`
	Footer      embedFooter  `json:"footer"`
	Image       *embedImage  `json:"image,omitempty"`
}

type webhookPayload struct {
	Username  string  `json:"username"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []embed `json:"embeds"`
}

const (
	colorNewListing = 0x00B4D8
	colorPriceDrop  = 0xFF8C00
	colorSummary    = 0x2ECC71
)

// Discord posts listing alerts to a webhook. One delivery attempt per
// message; a 429 is honored once via its retry_after hint. A failed delivery
// is returned to the caller and never aborts the batch.
type Discord struct {
	webhookURL string
	username   string
	avatarURL  string
	client     *http.Client
	logger     *utils.Logger
}

// NewDiscord creates a dispatcher for the given webhook.
func NewDiscord(webhookURL, username, avatarURL string, logger *utils.Logger) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		username:   username,
		avatarURL:  avatarURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// NotifyListing sends the alert for one new listing.
func (d *Discord) NotifyListing(l *models.Listing) error {
	fields := []embedField{
		{Name: "💰 Price", Value: formatPrice(l.Price), Inline: true},
		{Name: "🛏️ Beds", Value: orNA(l.Beds), Inline: true},
		{Name: "🚿 Baths", Value: orNA(l.Baths), Inline: true},
		{Name: "📐 Size", Value: formatSqft(l.Sqft), Inline: true},
		{Name: "📍 Neighborhood", Value: orNA(l.Neighborhood), Inline: true},
		{Name: "🗺️ Map", Value: fmt.Sprintf("[View on Google Maps](%s)", mapsURL(l.Address)), Inline: true},
	}

	e := embed{
		Title:     "🏠 " + l.Address,
		URL:       l.URL,
		Color:     colorNewListing,
		Fields:    fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    embedFooter{Text: "NYC Apartment Tracker • StreetEasy"},
	}
	if l.ImageURL != "" {
		e.Image = &embedImage{URL: l.ImageURL}
	}

	return d.post(e)
}

// NotifyPriceDrop sends the orange alert for a price drop on a tracked
// listing.
func (d *Discord) NotifyPriceDrop(l *models.Listing, change *models.PriceChange) error {
	fields := []embedField{
		{Name: "💰 Price", Value: fmt.Sprintf("~~%s~~ → **%s**",
			formatPrice(change.OldPrice), formatPrice(change.NewPrice)), Inline: true},
		{Name: "💵 Savings", Value: fmt.Sprintf("%s/mo (%.1f%% off)",
			formatPrice(change.Savings), change.Pct), Inline: true},
		{Name: "📍 Neighborhood", Value: orNA(l.Neighborhood), Inline: true},
		{Name: "🗺️ Map", Value: fmt.Sprintf("[View on Google Maps](%s)", mapsURL(l.Address)), Inline: true},
	}

	return d.post(embed{
		Title:     "📉 Price Drop! " + l.Address,
		URL:       l.URL,
		Color:     colorPriceDrop,
		Fields:    fields,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    embedFooter{Text: "NYC Apartment Tracker • Price Drop"},
	})
}

// NotifySummary sends a single first-run summary instead of flooding the
// channel with one alert per existing listing.
func (d *Discord) NotifySummary(listings []*models.Listing) error {
	byNeighborhood := map[string]int{}
	minPrice, maxPrice := 0, 0
	for _, l := range listings {
		hood := l.Neighborhood
		if hood == "" {
			hood = "Unknown"
		}
		byNeighborhood[hood]++
		if l.Price > 0 {
			if minPrice == 0 || l.Price < minPrice {
				minPrice = l.Price
			}
			if l.Price > maxPrice {
				maxPrice = l.Price
			}
		}
	}

	hoods := make([]string, 0, len(byNeighborhood))
	for hood := range byNeighborhood {
		hoods = append(hoods, hood)
	}
	sort.Slice(hoods, func(i, j int) bool {
		if byNeighborhood[hoods[i]] != byNeighborhood[hoods[j]] {
			return byNeighborhood[hoods[i]] > byNeighborhood[hoods[j]]
		}
		return hoods[i] < hoods[j]
	})

	lines := ""
	for _, hood := range hoods {
		lines += fmt.Sprintf("• **%s**: %d listings\n", hood, byNeighborhood[hood])
	}

	priceRange := "N/A"
	if minPrice > 0 {
		priceRange = fmt.Sprintf("%s – %s", formatPrice(minPrice), formatPrice(maxPrice))
	}

	return d.post(embed{
		Title: "🚀 Apartment Tracker Started",
		Description: fmt.Sprintf(
			"Found **%d listings** matching your criteria. "+
				"These have been saved — you'll only be notified about **new** listings from now on.\n\n"+
				"**Price range:** %s\n\n**By neighborhood:**\n%s",
			len(listings), priceRange, lines),
		Color:     colorSummary,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    embedFooter{Text: "NYC Apartment Tracker • First Run Summary"},
	})
}

// post delivers one embed. On a 429 it waits the advertised retry_after and
// tries exactly once more.
func (d *Discord) post(e embed) error {
	body, err := json.Marshal(webhookPayload{
		Username:  d.username,
		AvatarURL: d.avatarURL,
		Embeds:    []embed{e},
	})
	if err != nil {
		return fmt.Errorf("notify: marshal payload: %w", err)
	}

	resp, err := d.client.Post(d.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: webhook post: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := retryAfter(resp)
		drainAndClose(resp)
		d.logger.Warn("[notify] Discord rate limit hit, waiting %v", wait)
		time.Sleep(wait)

		resp, err = d.client.Post(d.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("notify: webhook retry post: %w", err)
		}
	}
	defer drainAndClose(resp)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// retryAfter reads Discord's retry_after hint (seconds, possibly
// fractional) from a 429 response body, defaulting to 5s.
func retryAfter(resp *http.Response) time.Duration {
	var body struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.RetryAfter > 0 {
		return time.Duration(body.RetryAfter * float64(time.Second))
	}
	return 5 * time.Second
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// mapsURL builds a Google Maps search link for an NYC address.
func mapsURL(address string) string {
	query := url.QueryEscape(address + ", New York, NY")
	return "https://www.google.com/maps/search/?api=1&query=" + query
}

// formatPrice renders 2800 as "$2,800".
func formatPrice(price int) string {
	if price <= 0 {
		return "N/A"
	}
	s := strconv.Itoa(price)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return "$" + string(out)
}

func formatSqft(sqft int) string {
	if sqft <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d ft²", sqft)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
