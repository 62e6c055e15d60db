package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/scentlog/scentlog-server/internal/domain"
	"github.com/scentlog/scentlog-server/internal/store"
)

const metaUpdatedAt = "updated_at"

// Load reads the whole collection. A fresh database yields an empty snapshot.
func (s *Store) Load(ctx context.Context) (*domain.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()

	snap := &domain.Snapshot{}

	if snap.References, err = loadReferences(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Perfumes, err = loadPerfumes(ctx, tx); err != nil {
		return nil, err
	}
	if snap.UpdatedAt, err = loadUpdatedAt(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Debug("collection loaded",
		"perfumes", len(snap.Perfumes),
		"brands", len(snap.References.Brands),
		"tags", len(snap.References.Tags),
	)
	return snap, nil
}

// Save replaces the stored collection in one transaction.
func (s *Store) Save(ctx context.Context, snap *domain.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	// perfume_refs, events and notes cascade from perfumes.
	for _, table := range []string{"perfumes", "reference_entries"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := saveReferences(ctx, tx, &snap.References); err != nil {
		return err
	}
	for i, p := range snap.Perfumes {
		if err := savePerfume(ctx, tx, i, p); err != nil {
			return fmt.Errorf("save perfume %s: %w", p.ID, err)
		}
	}

	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO collection_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaUpdatedAt, formatTime(updatedAt),
	); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	s.logger.Debug("collection saved", "perfumes", len(snap.Perfumes))
	return nil
}

func loadUpdatedAt(ctx context.Context, tx *sql.Tx) (time.Time, error) {
	var value string
	err := tx.QueryRowContext(ctx, `SELECT value FROM collection_meta WHERE key = ?`, metaUpdatedAt).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("load meta: %w", err)
	}
	t, err := parseTime(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: meta %s: %v", store.ErrCorrupt, metaUpdatedAt, err)
	}
	return t, nil
}

func decodeJSON(column, raw string, v any) error {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: column %s: %v", store.ErrCorrupt, column, err)
	}
	return nil
}
