package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists relay activity to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trade_events (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			action       TEXT,
			token        TEXT,
			amount       REAL,
			status       TEXT,
			detail       TEXT,
			external_ref TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_ts ON trade_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS alert_events (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			variant   TEXT,
			text      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_ts ON alert_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS delivery_failures (
			id         TEXT PRIMARY KEY,
			timestamp  INTEGER NOT NULL,
			channel_id TEXT,
			text       TEXT,
			reason     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failure_ts ON delivery_failures(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTrade(rec *TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trade_events
		(id, timestamp, action, token, amount, status, detail, external_ref)
		VALUES (?,?,?,?,?,?,?,?)`,
		rec.ID, time.Now().Unix(), rec.Action, rec.Token, rec.Amount,
		rec.Status, rec.Detail, rec.ExternalRef,
	)
	return err
}

func (r *SQLiteRecorder) RecordAlert(rec *AlertRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO alert_events
		(id, timestamp, variant, text)
		VALUES (?,?,?,?)`,
		rec.ID, time.Now().Unix(), rec.Variant, rec.Text,
	)
	return err
}

func (r *SQLiteRecorder) RecordDeliveryFailure(rec *DeliveryFailure) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO delivery_failures
		(id, timestamp, channel_id, text, reason)
		VALUES (?,?,?,?,?)`,
		rec.ID, time.Now().Unix(), rec.ChannelID, rec.Text, rec.Reason,
	)
	return err
}

func (r *SQLiteRecorder) SummarySince(since time.Time) (*Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := since.Unix()
	s := &Summary{}
	if err := r.db.QueryRow(
		`SELECT COUNT(*) FROM trade_events WHERE timestamp >= ?`, ts,
	).Scan(&s.Trades); err != nil {
		return nil, fmt.Errorf("count trades: %w", err)
	}
	if err := r.db.QueryRow(
		`SELECT COUNT(*) FROM trade_events WHERE timestamp >= ? AND status = 'FAILURE'`, ts,
	).Scan(&s.FailedTrades); err != nil {
		return nil, fmt.Errorf("count failed trades: %w", err)
	}
	if err := r.db.QueryRow(
		`SELECT COUNT(*) FROM alert_events WHERE timestamp >= ?`, ts,
	).Scan(&s.Alerts); err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}
	if err := r.db.QueryRow(
		`SELECT COUNT(*) FROM delivery_failures WHERE timestamp >= ?`, ts,
	).Scan(&s.DroppedMsgs); err != nil {
		return nil, fmt.Errorf("count delivery failures: %w", err)
	}
	return s, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
