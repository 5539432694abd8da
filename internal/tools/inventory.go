package tools

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/lukman83/dealdesk/internal/arbitrage"
	"github.com/lukman83/dealdesk/internal/inventory"
	"github.com/lukman83/dealdesk/internal/listings"
	"github.com/lukman83/dealdesk/internal/models"
	"github.com/lukman83/dealdesk/internal/request"
)

type arbitrageRequest struct {
	BuyPrice      decimal.NullDecimal `json:"buy_price" validate:"required,gt=0"`
	EstimatedSell decimal.NullDecimal `json:"estimated_sell" validate:"required,gte=0"`
	Platform      string              `json:"platform"`
	ShippingCost  decimal.NullDecimal `json:"shipping_cost" validate:"omitempty,gte=0"`
	OtherCosts    decimal.NullDecimal `json:"other_costs" validate:"omitempty,gte=0"`
}

type arbitrageResponse struct {
	OK
	arbitrage.Result
}

func (s *Service) calculateArbitrage(ctx context.Context, raw []byte) (any, error) {
	var req arbitrageRequest
	if err := request.Decode(ctx, raw, &req); err != nil {
		return nil, err
	}

	res, err := arbitrage.Evaluate(arbitrage.Input{
		BuyPrice:      req.BuyPrice.Decimal,
		EstimatedSell: req.EstimatedSell.Decimal,
		Platform:      req.Platform,
		ShippingCost:  req.ShippingCost.Decimal,
		OtherCosts:    req.OtherCosts.Decimal,
	})
	if err != nil {
		return nil, err
	}
	return arbitrageResponse{OK: ok, Result: res}, nil
}

type inventoryRequest struct {
	Detailed bool `json:"detailed"`
}

type statusResponse struct {
	OK
	inventory.Status
}

type detailResponse struct {
	OK
	inventory.Detail
}

func (s *Service) getInventoryStatus(ctx context.Context, raw []byte) (any, error) {
	var req inventoryRequest
	if err := request.Decode(ctx, raw, &req); err != nil {
		return nil, err
	}

	in, err := inventory.Load(ctx, s.store)
	if err != nil {
		return nil, err
	}
	if req.Detailed {
		return detailResponse{OK: ok, Detail: inventory.Detailed(in, s.now())}, nil
	}
	return statusResponse{OK: ok, Status: inventory.Report(in, s.now())}, nil
}

type recordListingRequest struct {
	DealID      string              `json:"deal_id" validate:"required"`
	Platform    string              `json:"platform"`
	Title       string              `json:"title" validate:"required"`
	Price       decimal.NullDecimal `json:"price" validate:"required,gte=0"`
	URL         string              `json:"url"`
	SessionID   string              `json:"session_id"`
	OpenSession bool                `json:"open_session"`
}

type recordListingResponse struct {
	OK
	ListingID     string         `json:"listing_id"`
	Listing       models.Listing `json:"listing"`
	SellURL       string         `json:"sell_url"`
	SessionOpened bool           `json:"session_opened"`
	Message       string         `json:"message"`
}

func (s *Service) recordListing(ctx context.Context, raw []byte) (any, error) {
	var req recordListingRequest
	if err := request.Decode(ctx, raw, &req); err != nil {
		return nil, err
	}

	rec, err := s.listings.Record(ctx, listings.Draft{
		DealID:      req.DealID,
		Platform:    req.Platform,
		Title:       req.Title,
		Price:       req.Price.Decimal,
		URL:         req.URL,
		SessionID:   req.SessionID,
		OpenSession: req.OpenSession,
	})
	if err != nil {
		return nil, err
	}

	msg := "Listing recorded for " + rec.Listing.Platform
	if rec.SessionOpened {
		msg += "; browser session opened at " + rec.SellURL
	}
	return recordListingResponse{
		OK:            ok,
		ListingID:     rec.Listing.ID,
		Listing:       rec.Listing,
		SellURL:       rec.SellURL,
		SessionOpened: rec.SessionOpened,
		Message:       msg,
	}, nil
}
