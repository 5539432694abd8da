// Package tools exposes each core operation as a named tool taking one JSON
// request and producing one JSON response. The CLI and the MCP server are
// both thin shells over Service.Call.
package tools

import (
	"context"
	"io"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/lukman83/dealdesk/internal/apperr"
	"github.com/lukman83/dealdesk/internal/buyers"
	"github.com/lukman83/dealdesk/internal/deals"
	"github.com/lukman83/dealdesk/internal/listings"
	"github.com/lukman83/dealdesk/internal/logx"
	"github.com/lukman83/dealdesk/internal/matching"
	"github.com/lukman83/dealdesk/internal/metrics"
	"github.com/lukman83/dealdesk/internal/store"
)

var json = jsoniter.Config{ //nolint:gochecknoglobals
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// Tool names.
const (
	SaveDeal           = "save_deal"
	UpdateInventory    = "update_inventory"
	GetDeal            = "get_deal"
	ListDeals          = "list_deals"
	CalculateArbitrage = "calculate_arbitrage"
	ManageBuyer        = "manage_buyer"
	NotifyBuyerNetwork = "notify_buyer_network"
	GetInventoryStatus = "get_inventory_status"
	RecordListing      = "record_listing"
)

type Handler func(ctx context.Context, raw []byte) (any, error)

type Tool struct {
	Name        string
	Description string
	Handle      Handler
}

type Deps struct {
	Store    *store.Store
	Deals    *deals.Manager
	Listings *listings.Book
	Buyers   *buyers.Registry
	Engine   *matching.Engine
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

type Service struct {
	store    *store.Store
	deals    *deals.Manager
	listings *listings.Book
	buyers   *buyers.Registry
	engine   *matching.Engine
	metrics  *metrics.Metrics
	now      func() time.Time

	tools []Tool
	index map[string]Tool
}

func NewService(d Deps) *Service {
	s := &Service{
		store:    d.Store,
		deals:    d.Deals,
		listings: d.Listings,
		buyers:   d.Buyers,
		engine:   d.Engine,
		metrics:  d.Metrics,
		now:      d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.tools = []Tool{
		{SaveDeal, "Save a newly found deal with status 'found'.", s.saveDeal},
		{UpdateInventory, "Move a deal through its lifecycle (approved, rejected, purchased, listed, sold, expired) or append notes.", s.updateInventory},
		{GetDeal, "Fetch one deal together with its listings.", s.getDeal},
		{ListDeals, "List deals, optionally filtered by status.", s.listDeals},
		{CalculateArbitrage, "Compute platform fees, net profit, margin and ROI for a proposed resale.", s.calculateArbitrage},
		{ManageBuyer, "Add, update, remove or list buyers in the notification network.", s.manageBuyer},
		{NotifyBuyerNetwork, "Notify matching buyers about a deal (first 3 unless notify_all).", s.notifyBuyerNetwork},
		{GetInventoryStatus, "Summarise deals, listings and buyers: pending work, stale listings, profit.", s.getInventoryStatus},
		{RecordListing, "Record a draft marketplace listing for a deal, optionally opening a browser session on the sell page.", s.recordListing},
	}
	s.index = make(map[string]Tool, len(s.tools))
	for _, t := range s.tools {
		s.index[t.Name] = t
	}
	return s
}

// Tools returns every tool in a stable order.
func (s *Service) Tools() []Tool {
	return s.tools
}

func (s *Service) Lookup(name string) (Tool, bool) {
	t, ok := s.index[name]
	return t, ok
}

// Call runs one tool invocation with its own request id.
func (s *Service) Call(ctx context.Context, name string, raw []byte) (any, error) {
	tool, ok := s.Lookup(name)
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "unknown tool %q", name)
	}

	ctx, _ = logx.WithRequestID(ctx)
	log := logx.FromContext(ctx).With(slog.String(logx.FieldTool, name))
	ctx = logx.WithLogger(ctx, log)

	start := time.Now()
	out, err := tool.Handle(ctx, raw)
	elapsed := time.Since(start)

	code := "ok"
	if err != nil {
		code = apperr.CodeOf(err).String()
	}
	s.metrics.ObserveTool(name, code, elapsed)

	attrs := []any{slog.String("code", code), slog.Int64(logx.FieldDurationMs, elapsed.Milliseconds())}
	switch {
	case err == nil:
		log.Debug("tool call", attrs...)
	case code == apperr.Internal.String():
		log.Error("tool call", append(attrs, logx.Error(err))...)
	default:
		log.Warn("tool call", append(attrs, logx.Error(err))...)
	}

	return out, err
}

// OK leads every success response.
type OK struct {
	Success bool `json:"success"`
}

var ok = OK{Success: true} //nolint:gochecknoglobals

type ErrorBody struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// Envelope returns out, or the error response for err.
func Envelope(out any, err error) any {
	if err != nil {
		return ErrorResponse{Error: ErrorBody{Code: apperr.CodeOf(err), Message: err.Error()}}
	}
	return out
}

// Encode writes v as two-space indented JSON followed by a newline.
func Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Marshal is Encode into a byte slice without the trailing newline.
func Marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
