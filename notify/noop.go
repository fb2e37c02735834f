package notify

import (
	"apartment-tracker/models"
	"apartment-tracker/utils"
)

// Noop stands in when no webhook is configured: the run still scrapes,
// filters and records listings, it just logs instead of delivering. Every
// message counts as delivered so the seen set is maintained either way.
type Noop struct {
	logger *utils.Logger
}

// NewNoop creates a Noop dispatcher.
func NewNoop(logger *utils.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) NotifyListing(l *models.Listing) error {
	n.logger.Info("[notify] (no webhook) NEW: $%d — %s — %s", l.Price, l.Address, l.Neighborhood)
	return nil
}

func (n *Noop) NotifyPriceDrop(l *models.Listing, change *models.PriceChange) error {
	n.logger.Info("[notify] (no webhook) PRICE DROP: %s — $%d → $%d",
		l.Address, change.OldPrice, change.NewPrice)
	return nil
}

func (n *Noop) NotifySummary(listings []*models.Listing) error {
	n.logger.Info("[notify] (no webhook) first-run summary: %d listings", len(listings))
	return nil
}
