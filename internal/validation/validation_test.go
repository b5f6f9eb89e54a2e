package validation

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) (*Error, bool) {
	t.Helper()
	_, err := DecodeCreateSnapshot(strings.NewReader(body))
	if err == nil {
		return nil, false
	}
	verr, ok := AsError(err)
	require.True(t, ok, "expected *validation.Error, got %T", err)
	return verr, true
}

func TestDecodeCreateSnapshotValid(t *testing.T) {
	body := `{
		"title": "  Morning prices  ",
		"rate": 1500,
		"tables": [
			{"title": " Phones ", "entries": [
				{"name": " X1 ", "priceUsd": 100, "order": 7},
				{"name": "X2", "priceUsd": 0}
			]},
			{"title": "Tablets", "entries": []}
		]
	}`

	draft, err := DecodeCreateSnapshot(strings.NewReader(body))
	require.NoError(t, err)

	require.NotNil(t, draft.Title)
	assert.Equal(t, "Morning prices", *draft.Title)
	assert.Equal(t, "1500", draft.Rate.String())
	require.Len(t, draft.Tables, 2)
	assert.Equal(t, "Phones", draft.Tables[0].Title)
	require.Len(t, draft.Tables[0].Entries, 2)
	assert.Equal(t, "X1", draft.Tables[0].Entries[0].Name)
	assert.Equal(t, "100", draft.Tables[0].Entries[0].PriceUSD.String())
	assert.Zero(t, draft.Tables[0].Entries[0].Order, "client order must be ignored")
	assert.Empty(t, draft.Tables[1].Entries)
}

func TestDecodeCreateSnapshotTitleOptional(t *testing.T) {
	draft, err := DecodeCreateSnapshot(strings.NewReader(`{"rate": 1, "tables": []}`))
	require.NoError(t, err)
	assert.Nil(t, draft.Title)
	assert.Empty(t, draft.Tables)
}

func TestDecodeCreateSnapshotTitleNull(t *testing.T) {
	verr, failed := decode(t, `{"title": null, "rate": 1, "tables": []}`)
	require.True(t, failed)
	assert.Equal(t, []string{"title must be of type string"}, verr.Fields["title"])

	verr, failed = decode(t, `{"title": 5, "rate": 1, "tables": []}`)
	require.True(t, failed)
	assert.Contains(t, verr.Fields, "title")
}

func TestDecodeCreateSnapshotRate(t *testing.T) {
	for _, rate := range []string{"0", "-5", "0.001"} {
		verr, failed := decode(t, `{"rate": `+rate+`, "tables": []}`)
		require.True(t, failed, "rate %s should be rejected", rate)
		assert.Contains(t, verr.Fields, "rate")
	}

	_, failed := decode(t, `{"rate": 0.01, "tables": []}`)
	assert.False(t, failed, "rate 0.01 should be accepted")
}

func TestDecodeCreateSnapshotCollectsAllErrors(t *testing.T) {
	long := strings.Repeat("a", 256)
	body := `{
		"title": "",
		"tables": [
			{"title": "", "entries": [{"name": "` + long + `", "priceUsd": -1}]},
			{"title": "ok"}
		]
	}`

	verr, failed := decode(t, body)
	require.True(t, failed)

	assert.Equal(t, "Invalid snapshot data", verr.Message)
	for _, field := range []string{
		"title",
		"rate",
		"tables[0].title",
		"tables[0].entries[0].name",
		"tables[0].entries[0].priceUsd",
		"tables[1].entries",
	} {
		assert.Contains(t, verr.Fields, field)
	}
}

func TestDecodeCreateSnapshotMissingTables(t *testing.T) {
	verr, failed := decode(t, `{"rate": 10}`)
	require.True(t, failed)
	assert.Equal(t, []string{"tables is required"}, verr.Fields["tables"])
}

func TestDecodeCreateSnapshotArabicLength(t *testing.T) {
	// 255 Arabic letters are 510 bytes but still within the limit.
	title := strings.Repeat("ه", 255)
	_, failed := decode(t, `{"rate": 1, "tables": [{"title": "`+title+`", "entries": []}]}`)
	assert.False(t, failed)
}

func TestDecodeCreateSnapshotMalformed(t *testing.T) {
	verr, failed := decode(t, `{"rate": `)
	require.True(t, failed)
	assert.Contains(t, verr.Fields, "body")

	verr, failed = decode(t, ``)
	require.True(t, failed)
	assert.Equal(t, []string{"request body is required"}, verr.Fields["body"])

	verr, failed = decode(t, `{"rate": "fast", "tables": []}`)
	require.True(t, failed)
	assert.Contains(t, verr.Fields, "rate")
}

func TestParsePaginationDefaults(t *testing.T) {
	p, err := ParsePagination(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 1, PageSize: 10}, p)
	assert.Equal(t, 0, p.Offset())
}

func TestParsePaginationCoerces(t *testing.T) {
	p, err := ParsePagination(url.Values{"page": {" 2 "}, "pageSize": {"100"}})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 2, PageSize: 100}, p)
	assert.Equal(t, 100, p.Offset())
}

func TestParsePaginationAcceptsIntegralNumbers(t *testing.T) {
	p, err := ParsePagination(url.Values{"page": {"2.0"}, "pageSize": {"1e1"}})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 2, PageSize: 10}, p)
}

func TestParsePaginationRejectsOverflowingPage(t *testing.T) {
	tests := []url.Values{
		{"page": {"922337203685477582"}, "pageSize": {"10"}},
		{"page": {"9223372036854775807"}, "pageSize": {"2"}},
		{"page": {"1e300"}},
	}
	for _, q := range tests {
		_, err := ParsePagination(q)
		verr, ok := AsError(err)
		require.True(t, ok, "page %s should be rejected", q.Get("page"))
		assert.Contains(t, verr.Fields, "page")
	}

	p, err := ParsePagination(url.Values{"page": {"9223372036854775807"}, "pageSize": {"1"}})
	require.NoError(t, err)
	assert.Positive(t, p.Offset())
}

func TestParsePaginationRejects(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		field string
	}{
		{"zero page", url.Values{"page": {"0"}}, "page"},
		{"negative page", url.Values{"page": {"-1"}}, "page"},
		{"fractional page", url.Values{"page": {"1.5"}}, "page"},
		{"text page size", url.Values{"pageSize": {"ten"}}, "pageSize"},
		{"infinite page", url.Values{"page": {"Inf"}}, "page"},
		{"page size too large", url.Values{"pageSize": {"101"}}, "pageSize"},
		{"empty page", url.Values{"page": {""}}, "page"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePagination(tc.query)
			verr, ok := AsError(err)
			require.True(t, ok)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}
}

func TestParsePaginationReportsBothFields(t *testing.T) {
	_, err := ParsePagination(url.Values{"page": {"x"}, "pageSize": {"y"}})
	verr, ok := AsError(err)
	require.True(t, ok)
	assert.Len(t, verr.Fields, 2)
}
