package deals

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/lukman83/dealdesk/internal/apperr"
	"github.com/lukman83/dealdesk/internal/arbitrage"
	"github.com/lukman83/dealdesk/internal/logx"
	"github.com/lukman83/dealdesk/internal/models"
	"github.com/lukman83/dealdesk/internal/store"
)

// UnknownPlatform is recorded as sold_platform when a sale names none.
const UnknownPlatform = "unknown"

// saleFeeRate is the flat fee estimate applied when reconciling a sale.
var saleFeeRate = decimal.RequireFromString("0.13") //nolint:gochecknoglobals

// ListingMarker flips every listing of a deal to sold.
type ListingMarker interface {
	MarkSold(ctx context.Context, dealID string, at time.Time) (int, error)
}

// Manager owns the deals collection and its state machine.
type Manager struct {
	store    *store.Store
	listings ListingMarker
	now      func() time.Time
	newID    func(time.Time) string
	strict   bool
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithStrictTransitions toggles enforcement of the allowed-edges table. It is
// off by default: any enumerated status may be written from any status.
func WithStrictTransitions(strict bool) Option {
	return func(m *Manager) {
		m.strict = strict
	}
}

func WithIDGenerator(fn func(time.Time) string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a Manager. listings may be nil, in which case sales are
// not propagated to listings.
func NewManager(s *store.Store, listings ListingMarker, opts ...Option) *Manager {
	m := &Manager{
		store:    s,
		listings: listings,
		now:      time.Now,
		newID:    NewID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewID returns deal_<YYYYMMDD>_<HHMMSS>_<8 hex>.
func NewID(now time.Time) string {
	return fmt.Sprintf("deal_%s_%s", now.Format("20060102_150405"), uuid.NewString()[:8])
}

type NewDeal struct {
	Title         string
	Source        string
	URL           string
	BuyPrice      decimal.Decimal
	EstimatedSell decimal.Decimal
	MarginPct     decimal.Decimal
	Images        []string
	Notes         string
}

// Create appends a new deal in status found.
func (m *Manager) Create(ctx context.Context, nd NewDeal) (models.Deal, error) {
	var missing []string
	if strings.TrimSpace(nd.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(nd.Source) == "" {
		missing = append(missing, "source")
	}
	if len(missing) > 0 {
		return models.Deal{}, apperr.Newf(apperr.ValidationError, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if !nd.BuyPrice.IsPositive() {
		return models.Deal{}, apperr.New(apperr.ValidationError, "buy_price must be positive")
	}
	if nd.EstimatedSell.IsNegative() {
		return models.Deal{}, apperr.New(apperr.ValidationError, "estimated_sell must not be negative")
	}

	now := m.now().UTC()
	deal := models.Deal{
		ID:            m.newID(now),
		Title:         nd.Title,
		Source:        nd.Source,
		URL:           nd.URL,
		BuyPrice:      nd.BuyPrice.InexactFloat64(),
		EstimatedSell: nd.EstimatedSell.InexactFloat64(),
		MarginPct:     nd.MarginPct.InexactFloat64(),
		Status:        models.StatusFound,
		Images:        lo.Ternary(nd.Images == nil, []string{}, nd.Images),
		Notes:         nd.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
		StatusHistory: []models.StatusChange{},
	}

	snap, err := store.Update(ctx, m.store, store.Deals, func(records []models.Deal) ([]models.Deal, error) {
		if lo.ContainsBy(records, func(d models.Deal) bool { return d.ID == deal.ID }) {
			return nil, apperr.Newf(apperr.Conflict, "deal id already exists: %s", deal.ID)
		}
		return append(records, deal), nil
	})
	snap.LogWarning(ctx)
	if err != nil {
		return models.Deal{}, fmt.Errorf("save deal: %w", err)
	}

	logx.FromContext(ctx).Info("deal saved", slog.String(logx.FieldDealID, deal.ID))
	return deal, nil
}

// Get returns the deal with the given id.
func (m *Manager) Get(ctx context.Context, id string) (models.Deal, error) {
	if id == "" {
		return models.Deal{}, apperr.New(apperr.ValidationError, "deal_id is required")
	}
	snap, err := store.Load[models.Deal](m.store, store.Deals)
	if err != nil {
		return models.Deal{}, err
	}
	snap.LogWarning(ctx)

	deal, ok := lo.Find(snap.Records, func(d models.Deal) bool { return d.ID == id })
	if !ok {
		return models.Deal{}, apperr.Newf(apperr.NotFound, "deal not found: %s", id)
	}
	return deal, nil
}

// List returns deals in store order, optionally only those in status.
func (m *Manager) List(ctx context.Context, status models.Status) ([]models.Deal, error) {
	if status != "" && !status.Valid() {
		return nil, invalidStatus(status)
	}
	snap, err := store.Load[models.Deal](m.store, store.Deals)
	if err != nil {
		return nil, err
	}
	snap.LogWarning(ctx)

	if status == "" {
		return snap.Records, nil
	}
	return lo.Filter(snap.Records, func(d models.Deal, _ int) bool { return d.Status == status }), nil
}

// Change is one update of a deal. Status is optional; a change carrying only
// Notes leaves the status alone.
type Change struct {
	DealID       string
	Status       models.Status
	ListingIDs   []string
	ListingURLs  []string
	SoldPrice    decimal.NullDecimal
	SoldPlatform string
	Notes        *string
}

type Outcome struct {
	Deal         models.Deal
	From         models.Status
	ListingsSold int
	Message      string
}

// Update applies c to its deal. Failed updates write nothing. A sale is saved
// to the deals collection before matching listings are flipped to sold.
func (m *Manager) Update(ctx context.Context, c Change) (Outcome, error) {
	if err := c.validate(); err != nil {
		return Outcome{}, err
	}

	now := m.now().UTC()
	var out Outcome

	snap, err := store.Update(ctx, m.store, store.Deals, func(records []models.Deal) ([]models.Deal, error) {
		idx := slices.IndexFunc(records, func(d models.Deal) bool { return d.ID == c.DealID })
		if idx < 0 {
			return nil, apperr.Newf(apperr.NotFound, "deal not found: %s", c.DealID)
		}

		deal := records[idx]
		out.From = deal.Status

		if c.Status != "" {
			if m.strict && !Allowed(deal.Status, c.Status) {
				return nil, apperr.Newf(apperr.InvalidTransition, "deal %s cannot move from %s to %s", deal.ID, deal.Status, c.Status)
			}
			transition(&deal, c, now)
		}
		if c.Notes != nil {
			deal.Notes += fmt.Sprintf("\n[%s] %s", now.Format(time.DateOnly), *c.Notes)
		}
		deal.UpdatedAt = now

		records[idx] = deal
		out.Deal = deal
		return records, nil
	})
	snap.LogWarning(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("update deal %s: %w", c.DealID, err)
	}

	log := logx.FromContext(ctx).With(slog.String(logx.FieldDealID, c.DealID))
	log.Info("deal updated", slog.String("from", string(out.From)), slog.String(logx.FieldStatus, string(out.Deal.Status)))

	out.Message = message(out.Deal, c.Status)

	if c.Status == models.StatusSold && m.listings != nil {
		n, err := m.listings.MarkSold(ctx, c.DealID, now)
		if err != nil {
			log.Error("mark listings sold", logx.Error(err))
			return out, fmt.Errorf("deal %s saved as sold but its listings were not updated: %w", c.DealID, err)
		}
		out.ListingsSold = n
	}

	return out, nil
}

func (c Change) validate() error {
	if c.DealID == "" {
		return apperr.New(apperr.ValidationError, "deal_id is required")
	}
	if c.Status == "" {
		return nil
	}
	if !c.Status.Valid() {
		return invalidStatus(c.Status)
	}

	switch c.Status {
	case models.StatusListed:
		if len(c.ListingIDs) == 0 && len(c.ListingURLs) == 0 {
			return apperr.New(apperr.ValidationError, "listing_ids or listing_urls is required for status listed")
		}
	case models.StatusSold:
		if !c.SoldPrice.Valid {
			return apperr.New(apperr.ValidationError, "sold_price is required for status sold")
		}
		if c.SoldPrice.Decimal.IsNegative() {
			return apperr.New(apperr.ValidationError, "sold_price must not be negative")
		}
	}
	return nil
}

func transition(deal *models.Deal, c Change, now time.Time) {
	at := &now

	deal.StatusHistory = append(deal.StatusHistory, models.StatusChange{From: deal.Status, To: c.Status, At: now})
	deal.Status = c.Status
	deal.StatusUpdated = at

	switch c.Status {
	case models.StatusApproved:
		deal.ApprovedAt = at
	case models.StatusRejected:
		deal.RejectedAt = at
		deal.RejectionReason = lo.ToPtr(lo.FromPtr(c.Notes))
	case models.StatusPurchased:
		deal.PurchasedAt = at
	case models.StatusListed:
		deal.ListedAt = at
		deal.ListingIDs = lo.Ternary(c.ListingIDs == nil, []string{}, c.ListingIDs)
		deal.ListingURLs = lo.Ternary(c.ListingURLs == nil, []string{}, c.ListingURLs)
	case models.StatusSold:
		sale := Reconcile(decimal.NewFromFloat(deal.BuyPrice), c.SoldPrice.Decimal)
		deal.SoldAt = at
		deal.SoldPrice = lo.ToPtr(c.SoldPrice.Decimal.InexactFloat64())
		deal.SoldPlatform = lo.Ternary(c.SoldPlatform == "", UnknownPlatform, c.SoldPlatform)
		deal.EstimatedFees = lo.ToPtr(sale.EstimatedFees)
		deal.ActualProfit = lo.ToPtr(sale.ActualProfit)
		deal.ActualMarginPct = lo.ToPtr(sale.ActualMarginPct)
	case models.StatusExpired:
		deal.ExpiredAt = at
	}
}

// Sale holds the figures recorded when a deal sells.
type Sale struct {
	EstimatedFees   float64
	ActualProfit    float64
	ActualMarginPct float64
}

// Reconcile estimates fees as a flat 13% of soldPrice and derives profit and
// margin against buyPrice. Fees and profit are rounded to cents, margin to
// one decimal.
func Reconcile(buyPrice, soldPrice decimal.Decimal) Sale {
	fees := soldPrice.Mul(saleFeeRate)
	profit := soldPrice.Sub(buyPrice).Sub(fees)
	return Sale{
		EstimatedFees:   fees.Round(2).InexactFloat64(),
		ActualProfit:    profit.Round(2).InexactFloat64(),
		ActualMarginPct: arbitrage.Percent(profit, buyPrice).Round(1).InexactFloat64(),
	}
}

func message(deal models.Deal, status models.Status) string {
	if status == "" {
		return fmt.Sprintf("Deal '%s' notes updated", deal.Title)
	}
	msg := fmt.Sprintf("Deal '%s' updated to %s", deal.Title, status)
	if status == models.StatusSold && deal.ActualProfit != nil {
		msg += fmt.Sprintf(" | Profit: $%.2f (%.1f%%)", *deal.ActualProfit, lo.FromPtr(deal.ActualMarginPct))
	}
	return msg
}

func invalidStatus(status models.Status) error {
	valid := lo.Map(models.Statuses, func(s models.Status, _ int) string { return string(s) })
	return apperr.Newf(apperr.ValidationError, "invalid status %q, valid: %s", status, strings.Join(valid, ", "))
}
