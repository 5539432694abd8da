package matching

import (
	"github.com/samber/lo"

	"github.com/lukman83/dealdesk/internal/models"
)

type Item struct {
	Title     string
	Price     float64
	URL       string
	Images    []string
	MarginPct *float64
}

// Match returns the active buyers that take category and whose price range
// contains the item price, in registry order.
func Match(buyers []models.Buyer, item Item, category string) []models.Buyer {
	return lo.Filter(buyers, func(b models.Buyer, _ int) bool {
		return b.Active && b.AcceptsCategory(category) && b.PriceRange.Contains(item.Price)
	})
}
