package streeteasy

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"apartment-tracker/models"
	"apartment-tracker/utils"
)

var (
	// neighborhoodRegexp pulls the neighborhood out of a card title like
	// "Rental unit in Lower East Side at 100 Ludlow Street".
	neighborhoodRegexp = regexp.MustCompile(`in\s+(.+?)(?:\s+at\b|$)`)
	// pageParamRegexp matches pagination hrefs like "?page=3".
	pageParamRegexp = regexp.MustCompile(`page=(\d+)`)
	hasDigitRegexp  = regexp.MustCompile(`\d`)
)

// Parser extracts listing cards from a fetched search results page. A card
// that fails to parse is skipped, never fatal to the page.
type Parser struct {
	logger *utils.Logger
}

// NewParser creates a Parser.
func NewParser(logger *utils.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse returns the candidates found in the page body, in page order.
func (p *Parser) Parse(body string) []*models.Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		p.logger.Warn("[parse] Unreadable page body: %v", err)
		return nil
	}

	cards := doc.Find(`div[data-testid="listing-card"]`)
	if cards.Length() == 0 {
		// Fallback: class-based selector
		cards = doc.Find(`div[class*="ListingCard-module__cardContainer"]`)
	}

	var candidates []*models.Candidate
	cards.Each(func(_ int, card *goquery.Selection) {
		if c := parseCard(card); c != nil && c.URL != "" {
			candidates = append(candidates, c)
		}
	})

	p.logger.Debug("[parse] Found %d candidates in %d cards", len(candidates), cards.Length())
	return candidates
}

// parseCard extracts one candidate from a card element, or nil when the
// card lacks an address link.
func parseCard(card *goquery.Selection) *models.Candidate {
	link := card.Find(`a[class*="addressTextAction"]`).First()
	if link.Length() == 0 {
		link = card.Find(`a[href*="/building/"]`).First()
	}
	if link.Length() == 0 {
		return nil
	}

	href := link.AttrOr("href", "")
	if href != "" && !strings.HasPrefix(href, "http") {
		href = baseURL + href
	}
	// Drop tracking params like ?featured=1
	if i := strings.Index(href, "?"); i >= 0 {
		href = href[:i]
	}

	c := &models.Candidate{
		URL:     href,
		Address: strings.TrimSpace(link.Text()),
	}

	price := card.Find(`span[class*="PriceInfo"]`).First()
	if price.Length() == 0 {
		price = card.Find(`span[class*="price"]`).First()
	}
	c.RawPrice = strings.TrimSpace(price.Text())

	title := card.Find(`p[class*="ListingDescription"]`).First()
	if title.Length() == 0 {
		title = card.Find(`p[class*="title"]`).First()
	}
	if m := neighborhoodRegexp.FindStringSubmatch(strings.TrimSpace(title.Text())); m != nil {
		c.Neighborhood = strings.TrimSpace(m[1])
	}

	card.Find(`span[class*="BedsBathsSqft"]`).Each(func(_ int, span *goquery.Selection) {
		text := strings.TrimSpace(span.Text())
		lower := strings.ToLower(text)
		switch {
		case strings.Contains(lower, "bed") || strings.Contains(lower, "studio"):
			c.Beds = text
		case strings.Contains(lower, "bath"):
			c.Baths = text
		case strings.Contains(lower, "ft"):
			// Skip placeholder sizes like "- ft²"
			if hasDigitRegexp.MatchString(text) {
				c.RawSqft = text
			}
		}
	})

	c.ImageURL = card.Find("img").First().AttrOr("src", "")

	return c
}

// MaxPage returns the highest page number visible in the pagination
// controls, or 1 when there is none.
func (p *Parser) MaxPage(body string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return 1
	}

	maxPage := 1
	doc.Find(`div[class*="paginationContainer"] a`).Each(func(_ int, a *goquery.Selection) {
		if m := pageParamRegexp.FindStringSubmatch(a.AttrOr("href", "")); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > maxPage {
				maxPage = n
			}
		}
	})
	return maxPage
}
