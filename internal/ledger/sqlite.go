package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/wisdom-keeper/backend/pkg/logger"
)

const metaLastResetKey = "last_reset"

// SQLiteStore persists the ledger in a local SQLite database so counts
// survive server restarts within the same day.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS provider_usage (
		provider_id TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS ledger_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("Ledger store initialized", zap.String("path", dbPath))

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load() (map[string]int, string, error) {
	rows, err := s.db.Query(`SELECT provider_id, count FROM provider_usage`)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load usage counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, "", fmt.Errorf("failed to scan usage row: %w", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to iterate usage rows: %w", err)
	}

	var lastReset string
	err = s.db.QueryRow(`SELECT value FROM ledger_meta WHERE key = ?`, metaLastResetKey).Scan(&lastReset)
	if err != nil && err != sql.ErrNoRows {
		return nil, "", fmt.Errorf("failed to load last reset date: %w", err)
	}

	return counts, lastReset, nil
}

func (s *SQLiteStore) Save(counts map[string]int, lastReset string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM provider_usage`); err != nil {
		return fmt.Errorf("failed to clear usage counts: %w", err)
	}

	for id, count := range counts {
		_, err := tx.Exec(`INSERT INTO provider_usage (provider_id, count) VALUES (?, ?)`, id, count)
		if err != nil {
			return fmt.Errorf("failed to save usage count: %w", err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO ledger_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaLastResetKey, lastReset)
	if err != nil {
		return fmt.Errorf("failed to save last reset date: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger save: %w", err)
	}

	return nil
}
