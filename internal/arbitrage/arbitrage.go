package arbitrage

import (
	"github.com/shopspring/decimal"

	"github.com/lukman83/dealdesk/internal/apperr"
	"github.com/lukman83/dealdesk/internal/platform"
)

// MarginThreshold is the minimum net margin, in percent of buy price, for a
// deal to count as profitable.
const MarginThreshold = 50.0

var hundred = decimal.NewFromInt(100)

type Input struct {
	BuyPrice      decimal.Decimal
	EstimatedSell decimal.Decimal
	Platform      string
	ShippingCost  decimal.Decimal
	OtherCosts    decimal.Decimal
}

type Fees struct {
	FinalValueFee     float64 `json:"final_value_fee"`
	PaymentProcessing float64 `json:"payment_processing"`
	FixedFee          float64 `json:"fixed_fee"`
	TotalFees         float64 `json:"total_fees"`
}

type Result struct {
	BuyPrice      float64 `json:"buy_price"`
	EstimatedSell float64 `json:"estimated_sell"`
	Platform      string  `json:"platform"`
	FeeSchedule   string  `json:"fee_schedule"`
	GrossProfit   float64 `json:"gross_profit"`
	NetProfit     float64 `json:"net_profit"`
	MarginPct     float64 `json:"margin_pct"`
	ROI           float64 `json:"roi"`
	Fees          Fees    `json:"fees"`
	ShippingCost  float64 `json:"shipping_cost"`
	OtherCosts    float64 `json:"other_costs"`
	TotalCosts    float64 `json:"total_costs"`
	IsProfitable  bool    `json:"is_profitable"`
	Threshold     float64 `json:"threshold"`
}

// Evaluate computes fees, profit, margin and ROI for selling an item bought
// at in.BuyPrice for in.EstimatedSell on in.Platform. Unknown platforms use
// the default fee schedule. Money amounts are exact; margin and ROI are
// rounded to one decimal.
func Evaluate(in Input) (Result, error) {
	if !in.BuyPrice.IsPositive() {
		return Result{}, apperr.New(apperr.ValidationError, "buy_price must be positive")
	}
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"estimated_sell", in.EstimatedSell},
		{"shipping_cost", in.ShippingCost},
		{"other_costs", in.OtherCosts},
	} {
		if f.value.IsNegative() {
			return Result{}, apperr.Newf(apperr.ValidationError, "%s must not be negative", f.name)
		}
	}

	if in.Platform == "" {
		in.Platform = platform.DefaultName
	}
	market, _ := platform.Lookup(in.Platform)

	finalValue := in.EstimatedSell.Mul(market.FinalValueFeeRate)
	payment := in.EstimatedSell.Mul(market.PaymentProcessingRate)
	totalFees := finalValue.Add(payment).Add(market.FixedFee)

	gross := in.EstimatedSell.Sub(in.BuyPrice)
	totalCosts := in.BuyPrice.Add(in.ShippingCost).Add(in.OtherCosts).Add(totalFees)
	net := in.EstimatedSell.Sub(totalCosts)

	margin := Percent(net, in.BuyPrice)
	roi := decimal.Zero
	if totalCosts.IsPositive() {
		roi = Percent(net, totalCosts)
	}

	return Result{
		BuyPrice:      in.BuyPrice.InexactFloat64(),
		EstimatedSell: in.EstimatedSell.InexactFloat64(),
		Platform:      in.Platform,
		FeeSchedule:   market.Name,
		GrossProfit:   gross.InexactFloat64(),
		NetProfit:     net.InexactFloat64(),
		MarginPct:     margin.Round(1).InexactFloat64(),
		ROI:           roi.Round(1).InexactFloat64(),
		Fees: Fees{
			FinalValueFee:     finalValue.InexactFloat64(),
			PaymentProcessing: payment.InexactFloat64(),
			FixedFee:          market.FixedFee.InexactFloat64(),
			TotalFees:         totalFees.InexactFloat64(),
		},
		ShippingCost: in.ShippingCost.InexactFloat64(),
		OtherCosts:   in.OtherCosts.InexactFloat64(),
		TotalCosts:   totalCosts.InexactFloat64(),
		IsProfitable: margin.GreaterThanOrEqual(decimal.NewFromFloat(MarginThreshold)),
		Threshold:    MarginThreshold,
	}, nil
}

// Percent returns part/whole*100, or zero when whole is not positive.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
