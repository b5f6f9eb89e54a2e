package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/pricelist/internal/domain"
	"github.com/vbonduro/pricelist/internal/exportstore"
	"github.com/vbonduro/pricelist/internal/validation"
)

// DefaultTitleLayout labels snapshots created without a title.
const DefaultTitleLayout = "Jan 2, 2006 15:04"

var ErrNotFound = errors.New("snapshot not found")

// snapshotRepository is the subset of store.SnapshotStore that SnapshotService requires.
type snapshotRepository interface {
	Create(ctx context.Context, snap *domain.Snapshot) (*domain.Snapshot, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Snapshot, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Snapshot, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

// idempotencyLedger is the subset of idempotency.Ledger that SnapshotService requires.
type idempotencyLedger interface {
	Reserve(userID, key string) (snapshotID string, reserved bool, err error)
	Complete(userID, key, snapshotID string) error
	Release(userID, key string) error
}

type SnapshotService struct {
	snapshots snapshotRepository
	exports   exportstore.ExportStore
	ledger    idempotencyLedger
	logger    *slog.Logger
	now       func() time.Time
	location  *time.Location
}

func NewSnapshotService(snapshots snapshotRepository, exports exportstore.ExportStore, logger *slog.Logger) *SnapshotService {
	return &SnapshotService{
		snapshots: snapshots,
		exports:   exports,
		logger:    logger,
		now:       time.Now,
		location:  time.UTC,
	}
}

// UseLedger enables Idempotency-Key handling for CreateIdempotent.
func (s *SnapshotService) UseLedger(ledger idempotencyLedger) {
	s.ledger = ledger
}

// UseLocation sets the zone used for default snapshot titles.
func (s *SnapshotService) UseLocation(loc *time.Location) {
	s.location = loc
}

// Page is one page of a user's snapshot history.
type Page struct {
	Data       []*domain.Snapshot `json:"data"`
	Pagination PageInfo           `json:"pagination"`
}

type PageInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func (s *SnapshotService) Create(ctx context.Context, userID string, draft *domain.SnapshotDraft) (*domain.Snapshot, error) {
	created, err := s.snapshots.Create(ctx, s.build(userID, draft))
	if err != nil {
		return nil, err
	}
	s.logger.Info("snapshot created", "user_id", userID, "snapshot_id", created.ID, "tables", len(created.Tables))
	return created, nil
}

// CreateIdempotent creates a snapshot unless key already produced one for
// this user, in which case that snapshot is returned with replayed true.
// An empty key or a service without a ledger behaves like Create.
func (s *SnapshotService) CreateIdempotent(ctx context.Context, userID, key string, draft *domain.SnapshotDraft) (snap *domain.Snapshot, replayed bool, err error) {
	if key == "" || s.ledger == nil {
		snap, err = s.Create(ctx, userID, draft)
		return snap, false, err
	}

	existingID, reserved, err := s.ledger.Reserve(userID, key)
	if err != nil {
		return nil, false, err
	}
	if !reserved {
		s.logger.Info("idempotent replay", "user_id", userID, "snapshot_id", existingID)
		snap, err = s.Get(ctx, userID, existingID)
		return snap, true, err
	}

	snap, err = s.Create(ctx, userID, draft)
	if err != nil {
		if rerr := s.ledger.Release(userID, key); rerr != nil {
			s.logger.Error("failed to release idempotency key", "user_id", userID, "error", rerr)
		}
		return nil, false, err
	}
	if err := s.ledger.Complete(userID, key, snap.ID); err != nil {
		s.logger.Error("failed to record idempotency key", "user_id", userID, "snapshot_id", snap.ID, "error", err)
	}
	return snap, false, nil
}

// Get returns the user's snapshot. Snapshots owned by someone else are
// reported as ErrNotFound.
func (s *SnapshotService) Get(ctx context.Context, userID, id string) (*domain.Snapshot, error) {
	snap, err := s.snapshots.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrNotFound
	}
	return snap, nil
}

// List returns one page of the user's snapshots, newest first. Pages past
// the end are empty.
func (s *SnapshotService) List(ctx context.Context, userID string, p validation.Pagination) (*Page, error) {
	total, err := s.snapshots.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	snaps := []*domain.Snapshot{}
	if offset := p.Offset(); offset < total {
		snaps, err = s.snapshots.ListByUser(ctx, userID, p.PageSize, offset)
		if err != nil {
			return nil, err
		}
		if snaps == nil {
			snaps = []*domain.Snapshot{}
		}
	}
	return &Page{
		Data: snaps,
		Pagination: PageInfo{
			Page:       p.Page,
			PageSize:   p.PageSize,
			Total:      total,
			TotalPages: (total + p.PageSize - 1) / p.PageSize,
		},
	}, nil
}

// Duplicate copies the rate and tables of an owned snapshot into a new
// snapshot with a default title.
func (s *SnapshotService) Duplicate(ctx context.Context, userID, id string) (*domain.Snapshot, error) {
	src, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	draft := &domain.SnapshotDraft{Rate: src.Rate, Tables: make([]domain.TableDraft, 0, len(src.Tables))}
	for _, t := range src.Tables {
		entries := make([]domain.DeviceEntry, len(t.Entries))
		copy(entries, t.Entries)
		draft.Tables = append(draft.Tables, domain.TableDraft{Title: t.Title, Entries: entries})
	}

	dup, err := s.Create(ctx, userID, draft)
	if err != nil {
		return nil, err
	}
	s.logger.Info("snapshot duplicated", "user_id", userID, "source_id", id, "snapshot_id", dup.ID)
	return dup, nil
}

func (s *SnapshotService) build(userID string, draft *domain.SnapshotDraft) *domain.Snapshot {
	now := s.now().UTC().Truncate(time.Microsecond)

	title := draft.Title
	if title != nil {
		t := strings.TrimSpace(*title)
		title = &t
	} else {
		t := now.In(s.location).Format(DefaultTitleLayout)
		title = &t
	}

	snap := &domain.Snapshot{
		UserID:    userID,
		Title:     title,
		Rate:      draft.Rate,
		CreatedAt: now,
		UpdatedAt: now,
		Tables:    make([]*domain.SnapshotTable, 0, len(draft.Tables)),
	}
	for i, t := range draft.Tables {
		entries := make([]domain.DeviceEntry, 0, len(t.Entries))
		for j, e := range t.Entries {
			entries = append(entries, domain.DeviceEntry{
				Name:     strings.TrimSpace(e.Name),
				PriceUSD: e.PriceUSD,
				Order:    j,
			})
		}
		snap.Tables = append(snap.Tables, &domain.SnapshotTable{
			Title:   strings.TrimSpace(t.Title),
			Order:   i,
			Entries: entries,
		})
	}
	return snap
}

// ExportImage identifies a stored snapshot image.
type ExportImage struct {
	Key      string `json:"key"`
	MimeType string `json:"mimeType"`
}

// AttachImage stores a rendered image of an owned snapshot.
func (s *SnapshotService) AttachImage(ctx context.Context, userID, id string, data []byte) (*ExportImage, error) {
	snap, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	mimeType, err := exportstore.DetectImageType(data)
	if err != nil {
		return nil, err
	}

	key, err := s.exports.Save(ctx, snap.ID, mimeType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to save export: %w", err)
	}
	s.logger.Info("export image stored", "user_id", userID, "snapshot_id", snap.ID, "key", key, "bytes", len(data))
	return &ExportImage{Key: key, MimeType: mimeType}, nil
}

// OpenImage returns a stored export for public download.
func (s *SnapshotService) OpenImage(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return s.exports.Get(ctx, key)
}

// ConvertedEntry is a device entry priced in both currencies.
type ConvertedEntry struct {
	Name       string          `json:"name"`
	Order      int             `json:"order"`
	PriceUSD   decimal.Decimal `json:"priceUsd"`
	PriceSYP   decimal.Decimal `json:"priceSyp"`
	DisplayUSD string          `json:"displayUsd"`
	DisplaySYP string          `json:"displaySyp"`
}

type ConvertedTable struct {
	Title   string           `json:"title"`
	Order   int              `json:"order"`
	Entries []ConvertedEntry `json:"entries"`
}

type PriceList struct {
	SnapshotID string           `json:"snapshotId"`
	Title      *string          `json:"title"`
	Rate       decimal.Decimal  `json:"rate"`
	Tables     []ConvertedTable `json:"tables"`
}
