package product

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBuildListQueryDefaults(t *testing.T) {
	sql, args := buildListQuery(Query{Limit: 12})
	if !strings.Contains(sql, "WHERE active = TRUE\nORDER BY created_at DESC, id ASC") {
		t.Fatalf("unexpected default query:\n%s", sql)
	}
	if len(args) != 1 || args[0] != 12 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestBuildListQueryAllFilters(t *testing.T) {
	min := decimal.NewFromInt(100)
	max := decimal.RequireFromString("2500.50")
	sql, args := buildListQuery(Query{
		Categories: []string{"Rings", "Bridal"},
		MinPrice:   &min,
		MaxPrice:   &max,
		Search:     "50%_off",
		Sort:       SortPriceHigh,
		Limit:      12,
		Offset:     24,
	})

	for _, want := range []string{
		"categories && $1::text[]",
		"price >= $2::numeric",
		"price <= $3::numeric",
		"title ILIKE $4 OR description ILIKE $4",
		"ORDER BY price DESC, id ASC",
		"LIMIT $5 OFFSET $6",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("query missing %q:\n%s", want, sql)
		}
	}
	if args[1] != "100" || args[2] != "2500.5" {
		t.Fatalf("unexpected price args %v", args)
	}
	if args[3] != `%50\%\_off%` {
		t.Fatalf("search term not escaped: %v", args[3])
	}
	if args[5] != 24 {
		t.Fatalf("unexpected offset arg %v", args[5])
	}
}

func TestOrderBy(t *testing.T) {
	cases := map[Sort]string{
		SortOldest:    "created_at ASC, id ASC",
		SortPriceLow:  "price ASC, id ASC",
		SortName:      "title ASC, id ASC",
		Sort("bogus"): "created_at DESC, id ASC",
	}
	for in, want := range cases {
		if got := orderBy(in); got != want {
			t.Fatalf("orderBy(%s) = %s, want %s", in, got, want)
		}
	}
}
