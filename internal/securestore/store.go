// Package securestore is the client's keyed secure storage: a small
// encrypted key/value table in a local SQLite file. It stands in for the
// platform keychain the mobile build used, and persists the credential
// session across restarts.
//
// Values are sealed with AES-256-GCM; the key is derived from a passphrase
// with argon2id using a per-database random salt. The salt is the only
// plaintext row.
package securestore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	_ "modernc.org/sqlite"

	"github.com/fitsync-app/fitsync/internal/backend"
	"github.com/fitsync-app/fitsync/internal/common"
)

const (
	saltKey    = "!salt"
	sessionKey = "credential_session"

	nonceSize = 12
)

type Store struct {
	db  *sql.DB
	key []byte
}

// Open opens (creating if needed) the store at path and derives the sealing
// key from the passphrase. Values written with a different passphrase fail
// to open.
func Open(ctx context.Context, path, passphrase string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening secure store: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS vault (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing secure store: %w", err)
	}

	salt, err := loadOrCreateSalt(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	key := argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32)
	return &Store{db: db, key: key}, nil
}

func loadOrCreateSalt(ctx context.Context, db *sql.DB) ([]byte, error) {
	var salt []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM vault WHERE key = ?`, saltKey).Scan(&salt)
	if err == nil {
		return salt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reading salt: %w", err)
	}

	salt = common.GenerateRandByteArray(32)
	if _, err := db.ExecContext(ctx, `INSERT INTO vault (key, value) VALUES (?, ?)`, saltKey, salt); err != nil {
		return nil, fmt.Errorf("writing salt: %w", err)
	}
	return salt, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Set seals value and upserts it under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := s.seal(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vault (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, sealed)
	if err != nil {
		return fmt.Errorf("failed to set vault[%s]: %w", key, err)
	}
	return nil
}

// Get returns the unsealed value for key, or (nil, nil) when absent.
// A value sealed under a different passphrase fails to open.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var sealed []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM vault WHERE key = ?`, key).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vault[%s]: %w", key, err)
	}
	return s.open(sealed)
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM vault WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete vault[%s]: %w", key, err)
	}
	return nil
}

// seal encrypts plaintext with AES-GCM; the random nonce is prepended to the
// ciphertext so each value is self-contained.
func (s *Store) seal(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(nonceSize)
	return aesgcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Store) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize {
		return nil, errors.New("sealed value too short")
	}
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return aesgcm.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
}

// SaveSession persists the credential session. Implements backend.TokenStore.
func (s *Store) SaveSession(ctx context.Context, sess *backend.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.Set(ctx, sessionKey, b)
}

// LoadSession restores the persisted credential session, or (nil, nil) when
// none is stored.
func (s *Store) LoadSession(ctx context.Context) (*backend.Session, error) {
	b, err := s.Get(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	var sess backend.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ClearSession drops the persisted credential session.
func (s *Store) ClearSession(ctx context.Context) error {
	return s.Delete(ctx, sessionKey)
}
