package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/pricelist/internal/domain"
)

const invalidSnapshotMessage = "Invalid snapshot data"

type createSnapshotBody struct {
	Title  *string     `json:"title" validate:"omitnil,min=1,max=255"`
	Rate   *float64    `json:"rate" validate:"required,gte=0.01"`
	Tables []tableBody `json:"tables" validate:"required,dive"`

	titleNull bool
}

// UnmarshalJSON tells an explicit "title": null apart from an absent title.
// Only the latter is allowed.
func (b *createSnapshotBody) UnmarshalJSON(data []byte) error {
	type fields createSnapshotBody
	var aux struct {
		fields
		Title json.RawMessage `json:"title"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*b = createSnapshotBody(aux.fields)

	switch {
	case aux.Title == nil:
	case string(aux.Title) == "null":
		b.titleNull = true
	default:
		var title string
		if err := json.Unmarshal(aux.Title, &title); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				typeErr.Field = "title"
			}
			return err
		}
		b.Title = &title
	}
	return nil
}

type tableBody struct {
	Title   string      `json:"title" validate:"min=1,max=255"`
	Entries []entryBody `json:"entries" validate:"required,dive"`
}

type entryBody struct {
	Name     string   `json:"name" validate:"max=255"`
	PriceUSD *float64 `json:"priceUsd" validate:"required,gte=0"`
}

// DecodeCreateSnapshot reads a snapshot creation body, trims its strings and
// validates it. The returned error is always a *Error.
func DecodeCreateSnapshot(r io.Reader) (*domain.SnapshotDraft, error) {
	var body createSnapshotBody
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		verr := &Error{Message: invalidSnapshotMessage}
		addDecodeError(verr, err)
		return nil, verr
	}

	body.trim()

	verr := &Error{Message: invalidSnapshotMessage}
	if body.titleNull {
		verr.add("title", "title must be of type string")
	}
	collect(verr, &body)
	if !verr.empty() {
		return nil, verr
	}
	return body.draft(), nil
}

func (b *createSnapshotBody) trim() {
	if b.Title != nil {
		t := strings.TrimSpace(*b.Title)
		b.Title = &t
	}
	for i := range b.Tables {
		b.Tables[i].Title = strings.TrimSpace(b.Tables[i].Title)
		for j := range b.Tables[i].Entries {
			b.Tables[i].Entries[j].Name = strings.TrimSpace(b.Tables[i].Entries[j].Name)
		}
	}
}

func (b *createSnapshotBody) draft() *domain.SnapshotDraft {
	d := &domain.SnapshotDraft{
		Title:  b.Title,
		Rate:   decimal.NewFromFloat(*b.Rate),
		Tables: make([]domain.TableDraft, 0, len(b.Tables)),
	}
	for _, t := range b.Tables {
		entries := make([]domain.DeviceEntry, 0, len(t.Entries))
		for _, e := range t.Entries {
			entries = append(entries, domain.DeviceEntry{
				Name:     e.Name,
				PriceUSD: decimal.NewFromFloat(*e.PriceUSD),
			})
		}
		d.Tables = append(d.Tables, domain.TableDraft{Title: t.Title, Entries: entries})
	}
	return d
}

func addDecodeError(verr *Error, err error) {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		verr.add("body", "request body is required")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		verr.add(typeErr.Field, fmt.Sprintf("%s must be of type %s", typeErr.Field, jsonType(typeErr.Type.Kind().String())))
	default:
		verr.add("body", "request body must be valid JSON")
	}
}

func jsonType(goKind string) string {
	switch goKind {
	case "float64", "float32", "int", "int64":
		return "number"
	case "slice":
		return "array"
	case "struct", "ptr":
		return "object"
	default:
		return goKind
	}
}
