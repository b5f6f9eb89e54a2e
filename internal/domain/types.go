package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and rates travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type Snapshot struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Title     *string          `json:"title"`
	Rate      decimal.Decimal  `json:"rate"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Tables    []*SnapshotTable `json:"tables"`
}

type SnapshotTable struct {
	ID         string        `json:"id"`
	SnapshotID string        `json:"snapshotId"`
	Title      string        `json:"title"`
	Order      int           `json:"order"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
	Entries    []DeviceEntry `json:"entries"`
}

// DeviceEntry is stored as part of its table's entries array, not as a row.
type DeviceEntry struct {
	Name     string          `json:"name"`
	PriceUSD decimal.Decimal `json:"priceUsd"`
	Order    int             `json:"order"`
}

// SnapshotDraft is a validated creation request. Table and entry order is
// taken from slice position; any client-supplied order is ignored.
type SnapshotDraft struct {
	Title  *string
	Rate   decimal.Decimal
	Tables []TableDraft
}

type TableDraft struct {
	Title   string
	Entries []DeviceEntry
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}
