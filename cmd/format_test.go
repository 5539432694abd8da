package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lukman83/dealdesk/internal/inventory"
	"github.com/lukman83/dealdesk/internal/models"
)

func TestFormatPrice(t *testing.T) {
	testCases := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{37, "$37.00"},
		{1234.5, "$1,234.50"},
		{1234567.899, "$1,234,567.90"},
		{-12.25, "-$12.25"},
		{9.999, "$10.00"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.want, formatPrice(tc.in))
	}
}

func TestTruncate(t *testing.T) {
	rq := require.New(t)
	rq.Equal("short", truncate("short", 10))
	rq.Equal("abcdefg...", truncate("abcdefghijklmnop", 10))
	rq.Equal("ab", truncate("abcdef", 2))
}

func TestPrintInventoryTable(t *testing.T) {
	rq := require.New(t)

	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	st := inventory.Report(inventory.Input{
		Deals: []models.Deal{
			{ID: "deal_1", Title: "Road bike", Status: models.StatusFound, MarginPct: 80, UpdatedAt: now.Add(-time.Hour)},
			{ID: "deal_2", Title: "Mixer", Status: models.StatusPurchased, UpdatedAt: now.Add(-2 * time.Hour)},
		},
		Warnings: []string{"buyers.json could not be parsed and was treated as empty"},
	}, now)

	var buf bytes.Buffer
	printInventoryTable(&buf, st)
	out := buf.String()

	rq.Contains(out, "Deals: 2  |  Awaiting approval: 1  |  To list: 1")
	rq.Contains(out, "found=1")
	rq.Contains(out, "sold=0")
	rq.NotContains(out, "unknown=")
	rq.Contains(out, "1. Road bike  (80.0% margin)")
	rq.Contains(out, "Purchased, not listed")
	rq.Contains(out, "2026-10-14 08:00  found      Road bike")
	rq.Contains(out, "! buyers.json could not be parsed")
}
