// Package storage persists the peer contact directory learned from contact
// frames: which endpoint a peer identifier hash was last seen at.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/netip"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/peerlan/fscp/pkg/protocol"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidEndpoint = errors.New("invalid endpoint")
)

// ContactDB manages the local SQLite-backed contact directory.
type ContactDB struct {
	db *sql.DB
}

// Open opens (or creates) the contact directory at dbPath.
func Open(dbPath string) (*ContactDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %v", err)
	}

	cdb := &ContactDB{db: db}

	if err := cdb.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return cdb, nil
}

// initSchema creates database tables
func (c *ContactDB) initSchema() error {
	schema := `
	-- Contacts table
	CREATE TABLE IF NOT EXISTS contacts (
		hash BLOB PRIMARY KEY,
		endpoint TEXT NOT NULL,
		first_seen INTEGER NOT NULL,
		last_seen INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contacts_last_seen ON contacts(last_seen DESC);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %v", err)
	}

	return nil
}

// Save adds or updates a contact's endpoint, refreshing its last-seen time.
func (c *ContactDB) Save(hash protocol.Hash, endpoint netip.AddrPort) error {
	if !endpoint.IsValid() {
		return ErrInvalidEndpoint
	}

	now := time.Now().Unix()
	query := `
		INSERT INTO contacts (hash, endpoint, first_seen, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			endpoint = excluded.endpoint,
			last_seen = excluded.last_seen
	`

	_, err := c.db.Exec(query, hash[:], endpoint.String(), now, now)
	return err
}

// Merge stores every entry of a parsed contact map.
func (c *ContactDB) Merge(contacts protocol.ContactMap) error {
	for hash, endpoint := range contacts {
		if err := c.Save(hash, endpoint); err != nil {
			return err
		}
	}
	return nil
}

// Lookup retrieves the endpoint for a peer identifier hash.
func (c *ContactDB) Lookup(hash protocol.Hash) (netip.AddrPort, error) {
	query := `SELECT endpoint FROM contacts WHERE hash = ?`

	var raw string
	err := c.db.QueryRow(query, hash[:]).Scan(&raw)
	if err == sql.ErrNoRows {
		return netip.AddrPort{}, ErrNotFound
	}
	if err != nil {
		return netip.AddrPort{}, err
	}

	endpoint, err := netip.ParseAddrPort(raw)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}

	return endpoint, nil
}

// All retrieves the whole directory as a contact map, ready to serialize
// into a contact frame.
func (c *ContactDB) All() (protocol.ContactMap, error) {
	query := `SELECT hash, endpoint FROM contacts`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make(protocol.ContactMap)
	for rows.Next() {
		var hb []byte
		var raw string
		if err := rows.Scan(&hb, &raw); err != nil {
			return nil, err
		}

		endpoint, err := netip.ParseAddrPort(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
		}

		var hash protocol.Hash
		copy(hash[:], hb)
		contacts[hash] = endpoint
	}

	return contacts, rows.Err()
}

// Prune deletes contacts not seen since the given time and returns the
// count of rows removed.
func (c *ContactDB) Prune(olderThan time.Time) (int64, error) {
	res, err := c.db.Exec(`DELETE FROM contacts WHERE last_seen < ?`, olderThan.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the database connection
func (c *ContactDB) Close() error {
	return c.db.Close()
}
