// Package store provides durable, sqlite-backed persistence of known
// player IPs so a restart doesn't require a cold SSDP sweep before any
// player is addressable. It deliberately knows nothing about topology,
// subscriptions, or playback state — those are rebuilt fresh on discovery.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB holds separate read and write connection pools for the known-players
// table. With WAL mode, readers don't block writers and vice versa; a
// single writer connection serializes the (rare) writes.
type DB struct {
	reader *sql.DB
	writer *sql.DB
}

// Open creates (if needed) the sqlite database at path and applies schema.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	writerConnStr := fmt.Sprintf("%s?_journal=WAL&_busy_timeout=5000&cache=shared&mode=rwc", path)
	writer, err := sql.Open("sqlite3", writerConnStr)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)
	writer.SetMaxIdleConns(1)
	writer.SetConnMaxLifetime(time.Hour)

	if _, err := writer.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		writer.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}

	if _, err := writer.Exec(schema); err != nil {
		writer.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	readerConnStr := fmt.Sprintf("%s?_journal=WAL&_busy_timeout=5000&cache=shared&mode=ro", path)
	reader, err := sql.Open("sqlite3", readerConnStr)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(4)
	reader.SetMaxIdleConns(2)
	reader.SetConnMaxLifetime(time.Hour)

	return &DB{reader: reader, writer: writer}, nil
}

func (d *DB) Close() error {
	writerErr := d.writer.Close()
	readerErr := d.reader.Close()
	if writerErr != nil {
		return writerErr
	}
	return readerErr
}

const schema = `
CREATE TABLE IF NOT EXISTS known_players (
	udn TEXT PRIMARY KEY,
	ip TEXT NOT NULL,
	room_name TEXT NOT NULL DEFAULT '',
	last_seen_unix INTEGER NOT NULL
);
`

// KnownPlayer is one row of the durable known-players cache.
type KnownPlayer struct {
	UDN      string
	IP       string
	RoomName string
	LastSeen time.Time
}

// Upsert records (or refreshes) a player's last-known IP.
func (d *DB) Upsert(p KnownPlayer) error {
	_, err := d.writer.Exec(`
		INSERT INTO known_players (udn, ip, room_name, last_seen_unix)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(udn) DO UPDATE SET
			ip = excluded.ip,
			room_name = excluded.room_name,
			last_seen_unix = excluded.last_seen_unix
	`, p.UDN, p.IP, p.RoomName, p.LastSeen.Unix())
	return err
}

// All returns every known player, most-recently-seen last seen time and
// all, regardless of staleness — the registry decides what to do with age.
func (d *DB) All() ([]KnownPlayer, error) {
	rows, err := d.reader.Query(`SELECT udn, ip, room_name, last_seen_unix FROM known_players`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []KnownPlayer
	for rows.Next() {
		var p KnownPlayer
		var lastSeen int64
		if err := rows.Scan(&p.UDN, &p.IP, &p.RoomName, &lastSeen); err != nil {
			return nil, err
		}
		p.LastSeen = time.Unix(lastSeen, 0)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Remove deletes a known player row, used only on explicit teardown.
func (d *DB) Remove(udn string) error {
	_, err := d.writer.Exec(`DELETE FROM known_players WHERE udn = ?`, udn)
	return err
}
