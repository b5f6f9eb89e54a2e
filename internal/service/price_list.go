package service

import (
	"context"
	"fmt"

	"github.com/vbonduro/pricelist/internal/money"
)

// PriceList converts every entry of an owned snapshot at the snapshot's rate.
func (s *SnapshotService) PriceList(ctx context.Context, userID, id string) (*PriceList, error) {
	snap, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	pl := &PriceList{
		SnapshotID: snap.ID,
		Title:      snap.Title,
		Rate:       snap.Rate,
		Tables:     make([]ConvertedTable, 0, len(snap.Tables)),
	}
	for _, t := range snap.Tables {
		ct := ConvertedTable{Title: t.Title, Order: t.Order, Entries: make([]ConvertedEntry, 0, len(t.Entries))}
		for _, e := range t.Entries {
			syp, err := money.UsdToSyr(e.PriceUSD, snap.Rate)
			if err != nil {
				return nil, fmt.Errorf("failed to convert %q in snapshot %s: %w", e.Name, snap.ID, err)
			}
			usd := e.PriceUSD.Round(money.Precision)
			ct.Entries = append(ct.Entries, ConvertedEntry{
				Name:       e.Name,
				Order:      e.Order,
				PriceUSD:   usd,
				PriceSYP:   syp,
				DisplayUSD: money.FormatCurrency(usd),
				DisplaySYP: money.FormatCurrency(syp),
			})
		}
		pl.Tables = append(pl.Tables, ct)
	}
	return pl, nil
}
