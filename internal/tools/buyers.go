package tools

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/lukman83/dealdesk/internal/apperr"
	"github.com/lukman83/dealdesk/internal/buyers"
	"github.com/lukman83/dealdesk/internal/matching"
	"github.com/lukman83/dealdesk/internal/models"
	"github.com/lukman83/dealdesk/internal/request"
)

type manageBuyerRequest struct {
	Action        string                `json:"action" validate:"omitempty,oneof=add update remove list"`
	Name          string                `json:"name"`
	Categories    *[]string             `json:"categories"`
	PriceRange    *models.PriceRange    `json:"price_range"`
	ContactMethod *models.ContactMethod `json:"contact_method" validate:"omitempty,oneof=email whatsapp sms"`
	ContactInfo   *string               `json:"contact_info"`
	Notes         *string               `json:"notes"`
	Active        *bool                 `json:"active"`
}

type buyerResponse struct {
	OK
	Message string       `json:"message"`
	Buyer   models.Buyer `json:"buyer"`
}

type buyerListResponse struct {
	OK
	Count  int            `json:"count"`
	Buyers []models.Buyer `json:"buyers"`
}

func (s *Service) manageBuyer(ctx context.Context, raw []byte) (any, error) {
	var req manageBuyerRequest
	if err := request.Decode(ctx, raw, &req); err != nil {
		return nil, err
	}

	switch req.Action {
	case "", "list":
		all, err := s.buyers.List(ctx)
		if err != nil {
			return nil, err
		}
		return buyerListResponse{OK: ok, Count: len(all), Buyers: all}, nil

	case "add":
		nb := buyers.NewBuyer{
			Name:       req.Name,
			PriceRange: req.PriceRange,
		}
		if req.Categories != nil {
			nb.Categories = *req.Categories
		}
		if req.ContactMethod != nil {
			nb.ContactMethod = *req.ContactMethod
		}
		if req.ContactInfo != nil {
			nb.ContactInfo = *req.ContactInfo
		}
		if req.Notes != nil {
			nb.Notes = *req.Notes
		}
		b, err := s.buyers.Add(ctx, nb)
		if err != nil {
			return nil, err
		}
		return buyerResponse{OK: ok, Message: "Added buyer: " + b.Name, Buyer: b}, nil

	case "update":
		b, err := s.buyers.Update(ctx, req.Name, buyers.Patch{
			Categories:    req.Categories,
			PriceRange:    req.PriceRange,
			ContactMethod: req.ContactMethod,
			ContactInfo:   req.ContactInfo,
			Notes:         req.Notes,
			Active:        req.Active,
		})
		if err != nil {
			return nil, err
		}
		return buyerResponse{OK: ok, Message: "Updated buyer: " + b.Name, Buyer: b}, nil

	case "remove":
		b, err := s.buyers.Remove(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		return buyerResponse{OK: ok, Message: "Removed buyer: " + b.Name, Buyer: b}, nil
	}

	return nil, apperr.Newf(apperr.ValidationError, "unknown action: %s", req.Action)
}

type itemRequest struct {
	Title     string              `json:"title" validate:"required"`
	Price     decimal.NullDecimal `json:"price" validate:"omitempty,gte=0"`
	URL       string              `json:"url"`
	Images    []string            `json:"images"`
	MarginPct decimal.NullDecimal `json:"margin_pct"`
}

type notifyRequest struct {
	Item             itemRequest `json:"item"`
	Category         string      `json:"category"`
	NotifyAll        bool        `json:"notify_all"`
	MaxNotifications int         `json:"max_notifications" validate:"gte=0"`
}

type notifyResponse struct {
	OK
	matching.Report
}

func (s *Service) notifyBuyerNetwork(ctx context.Context, raw []byte) (any, error) {
	var req notifyRequest
	if err := request.Decode(ctx, raw, &req); err != nil {
		return nil, err
	}

	item := matching.Item{
		Title:  req.Item.Title,
		Price:  req.Item.Price.Decimal.InexactFloat64(),
		URL:    req.Item.URL,
		Images: req.Item.Images,
	}
	if req.Item.MarginPct.Valid {
		m := req.Item.MarginPct.Decimal.InexactFloat64()
		item.MarginPct = &m
	}

	report, err := s.engine.Notify(ctx, matching.Alert{
		Item:             item,
		Category:         req.Category,
		NotifyAll:        req.NotifyAll,
		MaxNotifications: req.MaxNotifications,
	})
	if err != nil {
		return nil, err
	}
	return notifyResponse{OK: ok, Report: report}, nil
}
