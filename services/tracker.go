package services

import (
	"fmt"
	"time"

	"apartment-tracker/config"
	"apartment-tracker/models"
	"apartment-tracker/storage"
	"apartment-tracker/utils"
)

// maxPagesPerNeighborhood caps pagination to avoid excessive requests; the
// top results pages carry everything recent anyway.
const maxPagesPerNeighborhood = 5

// Fetcher retrieves one search results page. Implementations classify
// failures with utils.FetchError so the retry controller can decide whether
// to retry.
type Fetcher interface {
	FetchPage(url string) (string, error)
}

// Parser extracts listing cards from a fetched page body.
type Parser interface {
	Parse(body string) []*models.Candidate
	MaxPage(body string) int
}

// Notifier delivers alerts. A returned error means the message was not
// delivered and the listing must not be marked seen.
type Notifier interface {
	NotifyListing(l *models.Listing) error
	NotifyPriceDrop(l *models.Listing, change *models.PriceChange) error
	NotifySummary(listings []*models.Listing) error
}

// Tracker sequences one full run: load seen set, then per neighborhood
// fetch → parse → normalize → filter → notify, then persist the seen set
// atomically. Runs are single-threaded and must not overlap; the external
// scheduler is responsible for not invoking concurrent runs.
type Tracker struct {
	cfg        *config.Config
	logger     *utils.Logger
	fetcher    Fetcher
	parser     Parser
	buildURL   func(slug string, page int) string
	notifier   Notifier
	store      storage.SeenStore
	normalizer *Normalizer
	filter     *Filter
	retry      *utils.RetryController
	pacer      *utils.Pacer
	now        func() time.Time
}

// NewTracker wires a Tracker from its collaborators.
func NewTracker(
	cfg *config.Config,
	logger *utils.Logger,
	fetcher Fetcher,
	parser Parser,
	buildURL func(slug string, page int) string,
	notifier Notifier,
	store storage.SeenStore,
) *Tracker {
	delay := time.Duration(cfg.RequestDelaySeconds) * time.Second
	return &Tracker{
		cfg:        cfg,
		logger:     logger,
		fetcher:    fetcher,
		parser:     parser,
		buildURL:   buildURL,
		notifier:   notifier,
		store:      store,
		normalizer: NewNormalizer(cfg, logger),
		filter:     NewFilter(NewAliasTable(), logger),
		retry: &utils.RetryController{
			MaxAttempts: cfg.MaxFetchAttempts,
			BaseDelay:   delay,
			Logger:      logger,
		},
		pacer: utils.NewPacer(delay),
		now:   time.Now,
	}
}

// Run executes one tracking run and returns its report. A neighborhood
// whose fetch fails is recorded and skipped, never fatal. The error return
// is reserved for unrecoverable store failures.
func (t *Tracker) Run() (*models.RunReport, error) {
	seen, err := t.store.Load()
	if err != nil {
		return nil, err
	}

	firstRun := len(seen) == 0
	if firstRun {
		t.logger.Info("[tracker] First run detected — will send one summary instead of individual alerts")
	}
	if t.cfg.DryRun {
		t.logger.Info("[tracker] Dry run — delivery and seen-set persistence are suppressed")
	}

	report := &models.RunReport{FirstRun: firstRun, DryRun: t.cfg.DryRun}
	var firstRunListings []*models.Listing

	for _, slug := range t.cfg.Neighborhoods {
		sum := t.trackNeighborhood(slug, seen, firstRun, &firstRunListings)
		report.Neighborhoods = append(report.Neighborhoods, sum)
		report.TotalNew += sum.New
		report.TotalPriceDrops += sum.PriceDrops
	}

	if firstRun && len(firstRunListings) > 0 && !t.cfg.DryRun {
		if err := t.notifier.NotifySummary(firstRunListings); err != nil {
			t.logger.Error("[tracker] First-run summary delivery failed: %v", err)
		}
	}

	if t.cfg.DryRun {
		t.logger.Info("[tracker] Dry run — seen set not persisted (%d entries untouched)", len(seen))
	} else if err := t.store.Save(seen); err != nil {
		return report, err
	}

	report.TotalTracked = len(seen)
	return report, nil
}

// trackNeighborhood processes one neighborhood end to end.
func (t *Tracker) trackNeighborhood(slug string, seen models.SeenSet, firstRun bool, firstRunListings *[]*models.Listing) *models.NeighborhoodSummary {
	sum := &models.NeighborhoodSummary{Slug: slug}

	candidates := t.collectCandidates(slug, sum)
	if sum.FetchFailed {
		t.logger.Warn("[tracker] %s skipped — fetch failed, continuing with next neighborhood", slug)
		return sum
	}
	sum.Parsed = len(candidates)

	listings, drops := t.normalizer.NormalizeBatch(candidates, slug)
	sum.Rejected = drops.Rejected
	sum.OutOfBounds = drops.OutOfBounds + drops.WrongBeds

	res := t.filter.Apply(listings, seen)
	sum.Sponsored = len(res.Sponsored)
	sum.Duplicates = len(res.Duplicates)
	if sum.Sponsored > 0 {
		t.logger.Info("[tracker] %s: filtered %d sponsored/unrelated listing(s)", slug, sum.Sponsored)
	}

	t.revisitDuplicates(res.Duplicates, seen, firstRun, sum)
	t.handleNew(res.New, seen, firstRun, firstRunListings, sum)

	t.logger.Info("[tracker] %s: %d parsed → %d new, %d duplicate, %d sponsored, %d out-of-criteria",
		slug, sum.Parsed, sum.New, sum.Duplicates, sum.Sponsored, sum.OutOfBounds+sum.Rejected)
	return sum
}

// collectCandidates fetches up to maxPagesPerNeighborhood result pages,
// dedups listings that repeat across pages, and returns the cards in page
// order. A page-1 failure marks the neighborhood FetchFailed; a later page
// failure just stops pagination.
func (t *Tracker) collectCandidates(slug string, sum *models.NeighborhoodSummary) []*models.Candidate {
	var all []*models.Candidate
	urls := utils.NewURLSet()
	maxPage := 1

	for page := 1; page <= maxPage; page++ {
		pageURL := t.buildURL(slug, page)
		t.logger.Info("[tracker] Fetching %s page %d — %s", slug, page, pageURL)

		var body string
		err := t.retry.Do(fmt.Sprintf("%s-page-%d", slug, page), func() error {
			// The inter-request floor applies to every attempt, retries
			// included, on top of the retry back-off.
			t.pacer.Wait()
			var ferr error
			body, ferr = t.fetcher.FetchPage(pageURL)
			return ferr
		})
		if err != nil {
			if page == 1 {
				sum.FetchFailed = true
			} else {
				t.logger.Warn("[tracker] %s page %d failed, stopping pagination: %v", slug, page, err)
			}
			return all
		}
		sum.PagesFetched++

		if page == 1 {
			if mp := t.parser.MaxPage(body); mp > 1 {
				maxPage = mp
				if maxPage > maxPagesPerNeighborhood {
					maxPage = maxPagesPerNeighborhood
				}
			}
		}

		pageCands := t.parser.Parse(body)
		if len(pageCands) == 0 && page > 1 {
			break
		}
		for _, c := range pageCands {
			// Featured listings appear on multiple pages; keep the first.
			if c.URL == "" || !urls.Add(c.URL) {
				continue
			}
			all = append(all, c)
		}
	}

	return all
}

// revisitDuplicates refreshes already-seen listings and raises price-drop
// alerts. Price never participates in identity: a changed price is an
// update to the tracked entry, not a new listing.
func (t *Tracker) revisitDuplicates(duplicates []*models.Listing, seen models.SeenSet, firstRun bool, sum *models.NeighborhoodSummary) {
	now := t.now().UTC()

	for _, l := range duplicates {
		entry, ok := seen[l.ID]
		if !ok {
			continue
		}
		entry.LastScraped = now

		if firstRun {
			continue
		}
		change := models.DetectPriceDrop(entry, l.Price)
		if change == nil {
			continue
		}

		sum.PriceDrops++
		t.logger.Info("[tracker] PRICE DROP: %s — $%d → $%d (%.1f%%)",
			entry.Address, change.OldPrice, change.NewPrice, change.Pct)

		if !t.cfg.DryRun {
			if err := t.notifier.NotifyPriceDrop(l, change); err != nil {
				sum.NotifyFailures++
				t.logger.Error("[tracker] Price-drop alert failed for %s: %v", l.Address, err)
			}
		}

		entry.PriceHistory = append(entry.PriceHistory, models.PricePoint{Price: l.Price, Date: now})
		entry.Price = l.Price
	}
}

// handleNew notifies and records genuinely new listings. A listing joins the
// seen set only when its alert was delivered, so a failed delivery is
// retried on the next run instead of being lost. In dry-run mode neither
// happens. On the first run everything found is recorded without individual
// alerts; the caller sends one summary at the end.
func (t *Tracker) handleNew(newListings []*models.Listing, seen models.SeenSet, firstRun bool, firstRunListings *[]*models.Listing, sum *models.NeighborhoodSummary) {
	now := t.now().UTC()

	for _, l := range newListings {
		t.logger.Info("[tracker] NEW: $%d — %s — %s", l.Price, l.Address, l.Neighborhood)

		if t.cfg.DryRun {
			sum.New++
			continue
		}

		if firstRun {
			seen[l.ID] = models.NewSeenEntry(l, now)
			*firstRunListings = append(*firstRunListings, l)
			sum.New++
			continue
		}

		if err := t.notifier.NotifyListing(l); err != nil {
			sum.NotifyFailures++
			t.logger.Error("[tracker] Alert failed for %s — will retry next run: %v", l.Address, err)
			continue
		}
		seen[l.ID] = models.NewSeenEntry(l, now)
		sum.New++
	}
}
