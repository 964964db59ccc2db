package credentials

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/foodkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/foodkeeper/internal/dbx"
)

// Metadata keys used by SQLiteStore.
const (
	KeyAccessToken = "access_token"
	KeySavedAt     = "access_token_saved_at"
)

// SQLiteStore persists the credential in the local metadata table so that it
// survives restarts.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (s *SQLiteStore) Get(ctx context.Context) (string, error) {
	v, err := metadata.NewSQLiteRepository(s.db).Get(ctx, KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return string(v), nil
}

// Set writes the token and the time it was saved in one transaction.
func (s *SQLiteStore) Set(ctx context.Context, token string) error {
	savedAt := s.now().UTC().Format(time.RFC3339)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, KeyAccessToken, []byte(token)); err != nil {
			return err
		}
		return repo.Set(ctx, KeySavedAt, []byte(savedAt))
	})
	if err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, KeyAccessToken); err != nil {
			return err
		}
		return repo.Delete(ctx, KeySavedAt)
	})
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// SavedAt reports when the current credential was stored.
func (s *SQLiteStore) SavedAt(ctx context.Context) (time.Time, bool, error) {
	v, err := metadata.NewSQLiteRepository(s.db).Get(ctx, KeySavedAt)
	if err != nil {
		return time.Time{}, false, err
	}
	if v == nil {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, string(v))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse %s: %w", KeySavedAt, err)
	}
	return t, true, nil
}
