package lighting

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lumina-home/lumina-core/internal/infrastructure/database"
)

// Snapshot is a persisted copy of the last merged catalogue.
type Snapshot struct {
	Lights     []Light
	Stale      bool
	CapturedAt time.Time
}

// SnapshotStore persists the catalogue snapshot across restarts.
type SnapshotStore interface {
	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap Snapshot) error

	// Load returns the stored snapshot, or ErrNoSnapshot if none was
	// ever saved.
	Load(ctx context.Context) (Snapshot, error)
}

// SQLiteSnapshotStore stores the catalogue snapshot as a single JSON row
// in the catalogue_snapshot table.
type SQLiteSnapshotStore struct {
	db *database.DB
}

// NewSnapshotStore creates a snapshot store over an open database.
// The catalogue_snapshot migration must have been applied.
func NewSnapshotStore(db *database.DB) *SQLiteSnapshotStore {
	return &SQLiteSnapshotStore{db: db}
}

// Save implements SnapshotStore.
func (s *SQLiteSnapshotStore) Save(ctx context.Context, snap Snapshot) error {
	lights, err := json.Marshal(snap.Lights)
	if err != nil {
		return fmt.Errorf("encoding snapshot lights: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO catalogue_snapshot (id, lights, stale, captured_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lights = excluded.lights,
			stale = excluded.stale,
			captured_at = excluded.captured_at
	`, string(lights), snap.Stale, snap.CapturedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving catalogue snapshot: %w", err)
	}
	return nil
}

// Load implements SnapshotStore.
func (s *SQLiteSnapshotStore) Load(ctx context.Context) (Snapshot, error) {
	var (
		lightsJSON string
		stale      bool
		capturedAt string
	)

	err := s.db.QueryRowContext(ctx,
		"SELECT lights, stale, captured_at FROM catalogue_snapshot WHERE id = 1",
	).Scan(&lightsJSON, &stale, &capturedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading catalogue snapshot: %w", err)
	}

	var lights []Light
	if err := json.Unmarshal([]byte(lightsJSON), &lights); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot lights: %w", err)
	}

	snap := Snapshot{Lights: lights, Stale: stale}
	// Format is controlled by Save; a parse failure leaves the zero time.
	snap.CapturedAt, _ = time.Parse(time.RFC3339, capturedAt)

	return snap, nil
}
