package storage

import "apartment-tracker/models"

// SeenStore is the durable backend for the set of already-notified listings.
// Load is called once at run start, Save once at run end; the tracker owns
// the set in between. Implementations must make Save atomic: a killed
// process never leaves a partially written store behind.
type SeenStore interface {
	Load() (models.SeenSet, error)
	Save(seen models.SeenSet) error
	Close() error
}
