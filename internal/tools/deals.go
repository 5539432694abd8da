package tools

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/lukman83/dealdesk/internal/deals"
	"github.com/lukman83/dealdesk/internal/models"
	"github.com/lukman83/dealdesk/internal/request"
)

type saveDealRequest struct {
	Title         string              `json:"title" validate:"required"`
	Source        string              `json:"source" validate:"required"`
	URL           string              `json:"url"`
	BuyPrice      decimal.NullDecimal `json:"buy_price" validate:"required,gt=0"`
	EstimatedSell decimal.NullDecimal `json:"estimated_sell" validate:"required,gte=0"`
	MarginPct     decimal.NullDecimal `json:"margin_pct" validate:"required"`
	Images        []string            `json:"images"`
	Notes         string              `json:"notes"`
}

type saveDealResponse struct {
	OK
	DealID  string      `json:"deal_id"`
	Message string      `json:"message"`
	Deal    models.Deal `json:"deal"`
}

func (s *Service) saveDeal(ctx context.Context, raw []byte) (any, error) {
	var req saveDealRequest
	if err := request.Decode(ctx, raw, &req); err != nil {
		return nil, err
	}

	deal, err := s.deals.Create(ctx, deals.NewDeal{
		Title:         req.Title,
		Source:        req.Source,
		URL:           req.URL,
		BuyPrice:      req.BuyPrice.Decimal,
		EstimatedSell: req.EstimatedSell.Decimal,
		MarginPct:     req.MarginPct.Decimal,
		Images:        req.Images,
		Notes:         req.Notes,
	})
	if err != nil {
		return nil, err
	}

	return saveDealResponse{OK: ok, DealID: deal.ID, Message: "Deal saved: " + deal.Title, Deal: deal}, nil
}

type updateInventoryRequest struct {
	DealID       string              `json:"deal_id" validate:"required"`
	Status       models.Status       `json:"status" validate:"omitempty,oneof=found approved rejected purchased listed sold expired"`
	ListingIDs   []string            `json:"listing_ids"`
	ListingURLs  []string            `json:"listing_urls"`
	SoldPrice    decimal.NullDecimal `json:"sold_price" validate:"omitempty,gte=0"`
	SoldPlatform string              `json:"sold_platform"`
	Notes        *string             `json:"notes"`
}

type updateInventoryResponse struct {
	OK
	Deal               models.Deal `json:"deal"`
	PreviousStatus     string      `json:"previous_status"`
	ListingsMarkedSold int         `json:"listings_marked_sold"`
	Message            string      `json:"message"`
}

func (s *Service) updateInventory(ctx context.Context, raw []byte) (any, error) {
	var req updateInventoryRequest
	if err := request.Decode(ctx, raw, &req); err != nil {
		return nil, err
	}

	out, err := s.deals.Update(ctx, deals.Change{
		DealID:       req.DealID,
		Status:       req.Status,
		ListingIDs:   req.ListingIDs,
		ListingURLs:  req.ListingURLs,
		SoldPrice:    req.SoldPrice,
		SoldPlatform: req.SoldPlatform,
		Notes:        req.Notes,
	})
	if err != nil {
		return nil, err
	}

	return updateInventoryResponse{
		OK:                 ok,
		Deal:               out.Deal,
		PreviousStatus:     string(out.From),
		ListingsMarkedSold: out.ListingsSold,
		Message:            out.Message,
	}, nil
}

type getDealRequest struct {
	DealID string `json:"deal_id" validate:"required"`
}

type getDealResponse struct {
	OK
	Deal     models.Deal      `json:"deal"`
	Listings []models.Listing `json:"listings"`
}

func (s *Service) getDeal(ctx context.Context, raw []byte) (any, error) {
	var req getDealRequest
	if err := request.Decode(ctx, raw, &req); err != nil {
		return nil, err
	}

	deal, err := s.deals.Get(ctx, req.DealID)
	if err != nil {
		return nil, err
	}
	ls, err := s.listings.List(ctx, deal.ID)
	if err != nil {
		return nil, err
	}

	return getDealResponse{OK: ok, Deal: deal, Listings: ls}, nil
}

type listDealsRequest struct {
	Status models.Status `json:"status" validate:"omitempty,oneof=found approved rejected purchased listed sold expired"`
}

type listDealsResponse struct {
	OK
	Count int           `json:"count"`
	Deals []models.Deal `json:"deals"`
}

func (s *Service) listDeals(ctx context.Context, raw []byte) (any, error) {
	var req listDealsRequest
	if err := request.Decode(ctx, raw, &req); err != nil {
		return nil, err
	}

	ds, err := s.deals.List(ctx, req.Status)
	if err != nil {
		return nil, err
	}
	return listDealsResponse{OK: ok, Count: len(ds), Deals: ds}, nil
}
