package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/hostsub/internal/models"
	"github.com/starford/hostsub/internal/notify"
)

// RecordMutation appends a hosts mutation to the log. A zero At is set to now.
func (db *DB) RecordMutation(m models.Mutation) error {
	if m.At.IsZero() {
		m.At = time.Now().UTC()
	}
	addrs := m.Addresses
	if addrs == nil {
		addrs = []string{}
	}
	addrJSON, _ := json.Marshal(addrs)

	_, err := db.conn.Exec(`
		INSERT INTO mutations (kind, hostname, addresses, elevated, matched, at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.Kind, m.Hostname, string(addrJSON), m.Elevated, m.Matched, m.At)
	if err != nil {
		return fmt.Errorf("history: record mutation: %w", err)
	}
	return nil
}

// ListMutations returns mutations newest first, optionally filtered by exact
// hostname, plus the total matching count.
func (db *DB) ListMutations(limit, offset int, hostname string) ([]models.Mutation, int, error) {
	where := ""
	var args []any
	if hostname != "" {
		where = " WHERE hostname = ?"
		args = append(args, hostname)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM mutations`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("history: count mutations: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, kind, hostname, addresses, elevated, matched, at
		FROM mutations`+where+`
		ORDER BY id DESC LIMIT ? OFFSET ?`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("history: list mutations: %w", err)
	}
	defer rows.Close()

	var out []models.Mutation
	for rows.Next() {
		var m models.Mutation
		var addrJSON string
		if err := rows.Scan(&m.ID, &m.Kind, &m.Hostname, &addrJSON, &m.Elevated, &m.Matched, &m.At); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(addrJSON), &m.Addresses)
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// Notify records a delivered notification; it satisfies notify.Notifier so
// the log can sit in the notifier fan-out.
func (db *DB) Notify(ctx context.Context, n notify.Notification) error {
	at := n.At
	if at.IsZero() {
		at = time.Now()
	}
	recJSON, err := json.Marshal(n.Records)
	if err != nil {
		return fmt.Errorf("history: encode records: %w", err)
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO notifications (device, count, records, at) VALUES (?, ?, ?, ?)
	`, n.Device, len(n.Records), string(recJSON), at.UTC())
	if err != nil {
		return fmt.Errorf("history: record notification: %w", err)
	}
	return nil
}

// ListNotifications returns notifications newest first and the total count.
func (db *DB) ListNotifications(limit, offset int) ([]models.NotificationLog, int, error) {
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notifications`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("history: count notifications: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, device, count, records, at FROM notifications
		ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("history: list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.NotificationLog
	for rows.Next() {
		var n models.NotificationLog
		if err := rows.Scan(&n.ID, &n.Device, &n.Count, &n.Records, &n.At); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// SetChecksum stores the last known content checksum of a file.
func (db *DB) SetChecksum(path, sum string) error {
	_, err := db.conn.Exec(`
		INSERT INTO file_state (path, checksum, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, path, sum, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("history: set checksum: %w", err)
	}
	return nil
}

// GetChecksum returns the stored checksum, or "" if the path is unknown.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM file_state WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("history: get checksum: %w", err)
	}
	return cs, nil
}
