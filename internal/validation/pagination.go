package validation

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Pagination struct {
	Page     int `json:"page" validate:"gt=0"`
	PageSize int `json:"pageSize" validate:"gt=0,lte=100"`
}

// Offset is the number of rows to skip for this page. ParsePagination
// guarantees it does not overflow.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ParsePagination coerces the page and pageSize query parameters. Absent
// parameters take their defaults; present ones must be integral numbers in
// range, written either as integers or as numbers like "2.0" or "1e1".
func ParsePagination(q url.Values) (Pagination, error) {
	verr := &Error{Message: "Invalid pagination parameters"}
	p := Pagination{
		Page:     coerceInt(verr, q, "page", DefaultPage),
		PageSize: coerceInt(verr, q, "pageSize", DefaultPageSize),
	}

	if verr.empty() {
		collect(verr, &p)
	}
	if verr.empty() && p.Page-1 > math.MaxInt/p.PageSize {
		verr.add("page", "page is too large")
	}
	if !verr.empty() {
		return Pagination{}, verr
	}
	return p, nil
}

func coerceInt(verr *Error, q url.Values, key string, def int) int {
	if !q.Has(key) {
		return def
	}
	raw := strings.TrimSpace(q.Get(key))
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		verr.add(key, fmt.Sprintf("%s must be an integer", key))
		return def
	}
	if f >= math.MaxInt || f <= math.MinInt {
		verr.add(key, fmt.Sprintf("%s is too large", key))
		return def
	}
	return int(f)
}
