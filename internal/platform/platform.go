package platform

import "github.com/shopspring/decimal"

// DefaultName is the marketplace whose fee schedule applies to unknown names.
const DefaultName = "ebay"

// Marketplace describes where a deal can be resold and what selling there
// costs.
type Marketplace struct {
	Name string

	// Fee schedule, applied to the sale price.
	FinalValueFeeRate     decimal.Decimal
	PaymentProcessingRate decimal.Decimal
	FixedFee              decimal.Decimal

	SellURL       string // page that starts a new listing
	ItemURLPrefix string // listing URL is ItemURLPrefix + listing id
	TitleLimit    int    // 0 means unlimited
}

// TruncateTitle shortens title to the marketplace limit, ending in "...".
func (m Marketplace) TruncateTitle(title string) string {
	r := []rune(title)
	if m.TitleLimit <= 0 || len(r) <= m.TitleLimit {
		return title
	}
	if m.TitleLimit <= 3 {
		return string(r[:m.TitleLimit])
	}
	return string(r[:m.TitleLimit-3]) + "..."
}

func rate(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func builtin() []Marketplace {
	return []Marketplace{
		{
			Name:                  "ebay",
			FinalValueFeeRate:     rate("0.1315"),
			PaymentProcessingRate: rate("0.029"),
			FixedFee:              rate("0.30"),
			SellURL:               "https://www.ebay.com/sl/sell",
			ItemURLPrefix:         "https://www.ebay.com/itm/",
			TitleLimit:            80,
		},
		{
			Name:                  "facebook",
			FinalValueFeeRate:     rate("0.05"),
			PaymentProcessingRate: rate("0.029"),
			FixedFee:              rate("0.30"),
			SellURL:               "https://www.facebook.com/marketplace/create/item",
			ItemURLPrefix:         "https://www.facebook.com/marketplace/item/",
		},
		{
			Name:                  "poshmark",
			FinalValueFeeRate:     rate("0.20"),
			PaymentProcessingRate: decimal.Zero,
			FixedFee:              decimal.Zero,
			SellURL:               "https://poshmark.com/create-listing",
			ItemURLPrefix:         "https://poshmark.com/listing/",
			TitleLimit:            80,
		},
		{
			Name:                  "mercari",
			FinalValueFeeRate:     rate("0.10"),
			PaymentProcessingRate: rate("0.029"),
			FixedFee:              rate("0.30"),
			SellURL:               "https://www.mercari.com/sell/",
			ItemURLPrefix:         "https://www.mercari.com/us/item/",
			TitleLimit:            80,
		},
		{
			Name:                  "local",
			FinalValueFeeRate:     decimal.Zero,
			PaymentProcessingRate: decimal.Zero,
			FixedFee:              decimal.Zero,
		},
	}
}
