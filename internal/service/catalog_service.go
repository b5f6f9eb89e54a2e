package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/pricelist/internal/domain"
	"github.com/vbonduro/pricelist/internal/money"
)

// latestSnapshotReader is the subset of store.SnapshotStore that CatalogService requires.
type latestSnapshotReader interface {
	Latest(ctx context.Context) (*domain.Snapshot, error)
}

// ShopInfo is the storefront metadata published with the catalog.
type ShopInfo struct {
	Name         string
	Phone        string
	Location     string
	WorkingHours string
}

type Catalog struct {
	Success       bool            `json:"success"`
	ShopName      string          `json:"shopName"`
	Phone         string          `json:"phone"`
	Location      string          `json:"location"`
	WorkingHours  string          `json:"workingHours"`
	LastUpdated   time.Time       `json:"lastUpdated"`
	ExchangeRate  decimal.Decimal `json:"exchangeRate"`
	Categories    []Category      `json:"categories"`
	TotalProducts int             `json:"totalProducts"`
}

type Category struct {
	Category string    `json:"category"`
	Products []Product `json:"products"`
}

type Product struct {
	Name     string          `json:"name"`
	PriceUSD decimal.Decimal `json:"priceUsd"`
	PriceSYP decimal.Decimal `json:"priceSyp"`
}

// CatalogService projects the newest snapshot of any user into the public
// catalog.
type CatalogService struct {
	snapshots latestSnapshotReader
	shop      ShopInfo
	logger    *slog.Logger
	now       func() time.Time
}

func NewCatalogService(snapshots latestSnapshotReader, shop ShopInfo, logger *slog.Logger) *CatalogService {
	return &CatalogService{snapshots: snapshots, shop: shop, logger: logger, now: time.Now}
}

// Latest builds the catalog. SYP prices are rounded to whole pounds here,
// unlike the two decimal places used elsewhere.
func (s *CatalogService) Latest(ctx context.Context) (*Catalog, error) {
	snap, err := s.snapshots.Latest(ctx)
	if err != nil {
		return nil, err
	}

	c := &Catalog{
		Success:      true,
		ShopName:     s.shop.Name,
		Phone:        s.shop.Phone,
		Location:     s.shop.Location,
		WorkingHours: s.shop.WorkingHours,
		Categories:   []Category{},
	}
	if snap == nil {
		c.LastUpdated = s.now().UTC()
		c.ExchangeRate = decimal.NewFromInt(1)
		return c, nil
	}

	c.LastUpdated = snap.UpdatedAt
	c.ExchangeRate = snap.Rate
	for _, t := range snap.Tables {
		cat := Category{Category: t.Title, Products: make([]Product, 0, len(t.Entries))}
		for _, e := range t.Entries {
			cat.Products = append(cat.Products, Product{
				Name:     e.Name,
				PriceUSD: e.PriceUSD,
				PriceSYP: money.RoundWhole(e.PriceUSD.Mul(snap.Rate)),
			})
		}
		c.TotalProducts += len(cat.Products)
		c.Categories = append(c.Categories, cat)
	}
	return c, nil
}
