/*
Package sqlite provides a SQLite-backed implementation of rotation.GroupStore.

PURPOSE:
  Persists each group as ONE row: settings and participants are stored as
  JSON documents, so a Save is a single-row UPDATE and the whole-group
  atomic-replace contract holds by construction. The same shape maps onto
  any document store (the original system ran on Firestore).

SCHEMA:
  groups(id PK, owner_id, settings_json, participants_json,
         created_at, updated_at)
  idx_groups_owner: owner-scoped listing (the hot path)

CONCURRENCY:
  Uses sync.RWMutex in-process plus WAL mode. Cross-process writers are
  last-write-wins at row granularity, which is exactly the documented
  concurrency model - no merge, no conflict detection.

USAGE:
  store, err := sqlite.New("./data/rotation.db")  // ":memory:" for tests
  if err != nil { log.Fatal(err) }
  defer store.Close()

SEE ALSO:
  - rotation/store.go: Interface and whole-group contract
  - rotation/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/rotation-engine/rotation"
)

// Store implements rotation.GroupStore on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		settings_json TEXT NOT NULL,
		participants_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_groups_owner
		ON groups(owner_id, created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// GROUP STORE
// =============================================================================

func (s *Store) Create(ctx context.Context, g *rotation.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, participants, err := marshalDocs(g)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO groups (id, owner_id, settings_json, participants_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerID, settings, participants,
		g.CreatedAt.UTC().Format(time.RFC3339Nano),
		g.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert group %s: %w", g.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*rotation.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, settings_json, participants_json, created_at, updated_at
		FROM groups WHERE id = ?`, id)

	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rotation.ErrGroupNotFound
	}
	return g, err
}

// Save replaces the whole row. Last write wins.
func (s *Store) Save(ctx context.Context, g *rotation.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, participants, err := marshalDocs(g)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE groups
		SET owner_id = ?, settings_json = ?, participants_json = ?, updated_at = ?
		WHERE id = ?`,
		g.OwnerID, settings, participants,
		g.UpdatedAt.UTC().Format(time.RFC3339Nano),
		g.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save group %s: %w", g.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return rotation.ErrGroupNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	return err
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]*rotation.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, settings_json, participants_json, created_at, updated_at
		FROM groups WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGroups(rows)
}

func (s *Store) ListAll(ctx context.Context) ([]*rotation.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, settings_json, participants_json, created_at, updated_at
		FROM groups ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGroups(rows)
}

// =============================================================================
// ROW MAPPING
// =============================================================================

func marshalDocs(g *rotation.Group) (settings, participants []byte, err error) {
	settings, err = json.Marshal(g.Settings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	if g.Participants == nil {
		participants = []byte("[]")
	} else {
		participants, err = json.Marshal(g.Participants)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal participants: %w", err)
		}
	}
	return settings, participants, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*rotation.Group, error) {
	var g rotation.Group
	var settings, participants, createdAt, updatedAt string

	if err := row.Scan(&g.ID, &g.OwnerID, &settings, &participants, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(settings), &g.Settings); err != nil {
		return nil, fmt.Errorf("corrupt settings for group %s: %w", g.ID, err)
	}
	if err := json.Unmarshal([]byte(participants), &g.Participants); err != nil {
		return nil, fmt.Errorf("corrupt participants for group %s: %w", g.ID, err)
	}

	var err error
	if g.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at for group %s: %w", g.ID, err)
	}
	if g.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("corrupt updated_at for group %s: %w", g.ID, err)
	}
	return &g, nil
}

func scanGroups(rows *sql.Rows) ([]*rotation.Group, error) {
	var groups []*rotation.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
