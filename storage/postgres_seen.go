package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"apartment-tracker/models"
)

// PostgresStore keeps the seen set in PostgreSQL for deployments where a
// local JSON file is inconvenient (e.g. the tracker runs on ephemeral CI
// runners). Semantics match FileStore: load everything at run start, rewrite
// everything at run end, inside one transaction so the swap is atomic.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, waits for the database to come up,
// and runs schema migrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS seen_listings (
			id            TEXT PRIMARY KEY,
			url           TEXT        NOT NULL DEFAULT '',
			address       TEXT        NOT NULL DEFAULT '',
			price         INTEGER     NOT NULL DEFAULT 0,
			neighborhood  TEXT        NOT NULL DEFAULT '',
			first_seen    TIMESTAMPTZ NOT NULL,
			last_scraped  TIMESTAMPTZ NOT NULL,
			price_history JSONB       NOT NULL DEFAULT '[]'
		);

		CREATE INDEX IF NOT EXISTS idx_seen_neighborhood ON seen_listings(neighborhood);
		CREATE INDEX IF NOT EXISTS idx_seen_first_seen   ON seen_listings(first_seen);
	`)
	return err
}

// Load retrieves the full seen set.
func (ps *PostgresStore) Load() (models.SeenSet, error) {
	rows, err := ps.db.Query(`
		SELECT id, url, address, price, neighborhood, first_seen, last_scraped, price_history
		FROM seen_listings
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load seen set: %w", err)
	}
	defer rows.Close()

	seen := models.SeenSet{}
	for rows.Next() {
		var (
			id      string
			entry   models.SeenEntry
			history []byte
		)
		if err := rows.Scan(
			&id, &entry.URL, &entry.Address, &entry.Price, &entry.Neighborhood,
			&entry.FirstSeen, &entry.LastScraped, &history,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if err := json.Unmarshal(history, &entry.PriceHistory); err != nil {
			return nil, fmt.Errorf("postgres: decode price history for %s: %w", id, err)
		}
		seen[id] = &entry
	}
	return seen, rows.Err()
}

// Save rewrites the whole table with the given seen set in one transaction.
func (ps *PostgresStore) Save(seen models.SeenSet) error {
	tx, err := ps.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM seen_listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}

	const batchSize = 50
	for i := 0; i < len(ids); i += batchSize {
		end := i + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := insertBatch(tx, ids[i:end], seen); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertBatch(tx *sql.Tx, ids []string, seen models.SeenSet) error {
	valueStrings := make([]string, 0, len(ids))
	valueArgs := make([]interface{}, 0, len(ids)*8)

	for idx, id := range ids {
		entry := seen[id]
		history, err := json.Marshal(entry.PriceHistory)
		if err != nil {
			return fmt.Errorf("postgres: encode price history for %s: %w", id, err)
		}

		base := idx * 8
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		valueArgs = append(valueArgs,
			id, entry.URL, entry.Address, entry.Price, entry.Neighborhood,
			entry.FirstSeen, entry.LastScraped, history)
	}

	query := fmt.Sprintf(`
		INSERT INTO seen_listings (id, url, address, price, neighborhood, first_seen, last_scraped, price_history)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := tx.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert batch: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
