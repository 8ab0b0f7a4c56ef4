package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const (
	keyDeviceID = "device_id"
	keyUserID   = "user_id"
)

// Identity persists the device identity in a small sqlite key-value
// table. The device id survives reinstalls of everything except the
// database file itself; the user id appears once registration succeeds.
type Identity struct {
	db *sql.DB
}

// OpenIdentity opens (and if needed creates) the identity store at path.
func OpenIdentity(path string) (*Identity, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open identity store: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping identity store: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS credentials (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create credentials table: %w", err)
	}

	return &Identity{db: db}, nil
}

// GetOrCreateDeviceID returns the stored device id, generating and
// persisting a new one on first call. Every later call returns the
// same value for the lifetime of the install.
func (s *Identity) GetOrCreateDeviceID() (string, error) {
	id, err := s.get(keyDeviceID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id = uuid.New().String()
	if err := s.set(keyDeviceID, id); err != nil {
		return "", fmt.Errorf("failed to persist device id: %w", err)
	}
	return id, nil
}

// SaveCredentials stores the device/user pairing after a successful
// registration. Both values land in one transaction so a crash can
// never leave a half-written pairing behind.
func (s *Identity) SaveCredentials(deviceID, userID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin credentials write: %w", err)
	}
	defer tx.Rollback()

	upsert := `INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	if _, err := tx.Exec(upsert, keyDeviceID, deviceID); err != nil {
		return fmt.Errorf("failed to save device id: %w", err)
	}
	if _, err := tx.Exec(upsert, keyUserID, userID); err != nil {
		return fmt.Errorf("failed to save user id: %w", err)
	}

	return tx.Commit()
}

// UserID returns the stored user id, or "" when not registered.
func (s *Identity) UserID() (string, error) {
	return s.get(keyUserID)
}

// IsRegistered reports whether a user id has been saved.
func (s *Identity) IsRegistered() bool {
	id, err := s.get(keyUserID)
	return err == nil && id != ""
}

func (s *Identity) Close() error {
	return s.db.Close()
}

func (s *Identity) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (s *Identity) set(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
