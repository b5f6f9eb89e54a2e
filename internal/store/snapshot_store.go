package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/vbonduro/pricelist/internal/db"
	"github.com/vbonduro/pricelist/internal/domain"
)

const snapshotColumns = `id, user_id, title, rate, created_at, updated_at`

type snapshotRow struct {
	ID        string          `db:"id"`
	UserID    string          `db:"user_id"`
	Title     sql.NullString  `db:"title"`
	Rate      decimal.Decimal `db:"rate"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r snapshotRow) snapshot() *domain.Snapshot {
	s := &domain.Snapshot{
		ID:        r.ID,
		UserID:    r.UserID,
		Rate:      r.Rate,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		Tables:    []*domain.SnapshotTable{},
	}
	if r.Title.Valid {
		title := r.Title.String
		s.Title = &title
	}
	return s
}

type tableRow struct {
	ID         string    `db:"id"`
	SnapshotID string    `db:"snapshot_id"`
	Title      string    `db:"title"`
	SortOrder  int       `db:"sort_order"`
	Entries    []byte    `db:"entries"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r tableRow) table() (*domain.SnapshotTable, error) {
	t := &domain.SnapshotTable{
		ID:         r.ID,
		SnapshotID: r.SnapshotID,
		Title:      r.Title,
		Order:      r.SortOrder,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
		Entries:    []domain.DeviceEntry{},
	}
	if len(r.Entries) > 0 {
		if err := json.Unmarshal(r.Entries, &t.Entries); err != nil {
			return nil, fmt.Errorf("failed to decode entries of table %s: %w", r.ID, err)
		}
	}
	return t, nil
}

type SnapshotStore struct {
	db *sqlx.DB
}

func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Create writes the snapshot and its tables in one transaction and returns
// the stored result. Ids are generated here, and table and entry orders are
// reassigned from slice position. CreatedAt must be set by the caller.
func (s *SnapshotStore) Create(ctx context.Context, snap *domain.Snapshot) (*domain.Snapshot, error) {
	if snap.CreatedAt.IsZero() {
		return nil, errors.New("failed to create snapshot: created_at is required")
	}
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = snap.CreatedAt
	}
	snap.ID = uuid.NewString()

	var created *domain.Snapshot
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO pricing_snapshots (id, user_id, title, rate, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`), snap.ID, snap.UserID, snap.Title, snap.Rate, snap.CreatedAt, snap.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create snapshot: %w", err)
		}

		for i, t := range snap.Tables {
			if err := insertTable(ctx, tx, snap, i, t); err != nil {
				return err
			}
		}

		created, err = getSnapshot(ctx, tx, `id = ?`, snap.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func insertTable(ctx context.Context, tx *sqlx.Tx, snap *domain.Snapshot, order int, t *domain.SnapshotTable) error {
	entries := make([]domain.DeviceEntry, len(t.Entries))
	for j, e := range t.Entries {
		e.Order = j
		entries[j] = e
	}
	encoded, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO snapshot_tables (id, snapshot_id, title, sort_order, entries, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), uuid.NewString(), snap.ID, t.Title, order, string(encoded), snap.CreatedAt, snap.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create table %d: %w", order, err)
	}
	return nil
}

// GetByID returns the snapshot only when it belongs to userID. A missing or
// foreign snapshot yields nil with no error.
func (s *SnapshotStore) GetByID(ctx context.Context, userID, id string) (*domain.Snapshot, error) {
	return getSnapshot(ctx, s.db, `id = ? AND user_id = ?`, id, userID)
}

// Latest returns the most recently created snapshot of any user, or nil.
func (s *SnapshotStore) Latest(ctx context.Context) (*domain.Snapshot, error) {
	var row snapshotRow
	err := sqlx.GetContext(ctx, s.db, &row, s.db.Rebind(`
		SELECT `+snapshotColumns+` FROM pricing_snapshots
		ORDER BY created_at DESC, id DESC LIMIT 1
	`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	snaps := []*domain.Snapshot{row.snapshot()}
	if err := attachTables(ctx, s.db, snaps); err != nil {
		return nil, err
	}
	return snaps[0], nil
}

// ListByUser returns one page of the user's snapshots, newest first.
func (s *SnapshotStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Snapshot, error) {
	var rows []snapshotRow
	err := sqlx.SelectContext(ctx, s.db, &rows, s.db.Rebind(`
		SELECT `+snapshotColumns+` FROM pricing_snapshots
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`), userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	snaps := make([]*domain.Snapshot, 0, len(rows))
	for _, r := range rows {
		snaps = append(snaps, r.snapshot())
	}
	if err := attachTables(ctx, s.db, snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

func (s *SnapshotStore) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, s.db, &n, s.db.Rebind(`
		SELECT COUNT(*) FROM pricing_snapshots WHERE user_id = ?
	`), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}

func getSnapshot(ctx context.Context, q sqlx.ExtContext, where string, args ...any) (*domain.Snapshot, error) {
	var row snapshotRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`
		SELECT `+snapshotColumns+` FROM pricing_snapshots WHERE `+where), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	snaps := []*domain.Snapshot{row.snapshot()}
	if err := attachTables(ctx, q, snaps); err != nil {
		return nil, err
	}
	return snaps[0], nil
}

// attachTables loads the tables of every snapshot in one query.
func attachTables(ctx context.Context, q sqlx.ExtContext, snaps []*domain.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Snapshot, len(snaps))
	ids := make([]string, 0, len(snaps))
	for _, s := range snaps {
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	query, args, err := sqlx.In(`
		SELECT id, snapshot_id, title, sort_order, entries, created_at, updated_at
		FROM snapshot_tables
		WHERE snapshot_id IN (?)
		ORDER BY snapshot_id, sort_order ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to build tables query: %w", err)
	}

	var rows []tableRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	for _, r := range rows {
		t, err := r.table()
		if err != nil {
			return err
		}
		if s, ok := byID[r.SnapshotID]; ok {
			s.Tables = append(s.Tables, t)
		}
	}
	return nil
}
