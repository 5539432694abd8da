package listings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/lukman83/dealdesk/internal/apperr"
	"github.com/lukman83/dealdesk/internal/logx"
	"github.com/lukman83/dealdesk/internal/models"
	"github.com/lukman83/dealdesk/internal/platform"
	"github.com/lukman83/dealdesk/internal/store"
)

// SessionOpener opens a remote browser session on a page and returns its id.
type SessionOpener interface {
	Open(ctx context.Context, url string) (string, error)
}

// Book owns the listings collection.
type Book struct {
	store    *store.Store
	sessions SessionOpener
	now      func() time.Time
}

type Option func(*Book)

func WithClock(now func() time.Time) Option {
	return func(b *Book) {
		b.now = now
	}
}

// NewBook creates a Book. sessions may be nil when no session service is
// configured.
func NewBook(s *store.Store, sessions SessionOpener, opts ...Option) *Book {
	b := &Book{store: s, sessions: sessions, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type Draft struct {
	DealID      string
	Platform    string
	Title       string
	Price       decimal.Decimal
	URL         string
	SessionID   string
	OpenSession bool
}

type Recorded struct {
	Listing       models.Listing
	SellURL       string
	SessionOpened bool
}

// Record appends a draft listing for a deal. The deal id is stored as given.
func (b *Book) Record(ctx context.Context, d Draft) (Recorded, error) {
	if d.DealID == "" {
		return Recorded{}, apperr.New(apperr.ValidationError, "deal_id is required")
	}
	if strings.TrimSpace(d.Title) == "" {
		return Recorded{}, apperr.New(apperr.ValidationError, "title is required")
	}
	if d.Price.IsNegative() {
		return Recorded{}, apperr.New(apperr.ValidationError, "price must not be negative")
	}

	name := lo.Ternary(d.Platform == "", platform.DefaultName, strings.ToLower(d.Platform))
	market, err := platform.Get(name)
	if err != nil {
		return Recorded{}, apperr.Newf(apperr.ValidationError, "unknown platform %q, valid: %s", d.Platform, strings.Join(platform.List(), ", "))
	}

	now := b.now().UTC()
	listing := models.Listing{
		ID:        fmt.Sprintf("%s_%s_%s", market.Name, now.Format("20060102_150405"), uuid.NewString()[:8]),
		Platform:  market.Name,
		DealID:    d.DealID,
		Title:     market.TruncateTitle(d.Title),
		Price:     d.Price.InexactFloat64(),
		Status:    models.ListingDraft,
		URL:       d.URL,
		CreatedAt: now,
		SessionID: d.SessionID,
	}
	if listing.URL == "" && market.ItemURLPrefix != "" {
		listing.URL = market.ItemURLPrefix + listing.ID
	}

	out := Recorded{SellURL: market.SellURL}
	if d.OpenSession && d.SessionID == "" && market.SellURL != "" {
		if b.sessions == nil {
			return Recorded{}, apperr.New(apperr.DownstreamFailure, "session service not configured")
		}
		id, err := b.sessions.Open(ctx, market.SellURL)
		if err != nil {
			return Recorded{}, fmt.Errorf("open %s sell page: %w", market.Name, err)
		}
		listing.SessionID = id
		out.SessionOpened = true
	}

	snap, err := store.Update(ctx, b.store, store.Listings, func(records []models.Listing) ([]models.Listing, error) {
		return append(records, listing), nil
	})
	snap.LogWarning(ctx)
	if err != nil {
		return Recorded{}, fmt.Errorf("save listing: %w", err)
	}

	logx.FromContext(ctx).Info("listing recorded",
		slog.String("listing-id", listing.ID),
		slog.String(logx.FieldDealID, listing.DealID),
	)

	out.Listing = listing
	return out, nil
}

// MarkSold flips every listing of dealID to sold and returns how many
// changed. Nothing is written when no listing matches.
func (b *Book) MarkSold(ctx context.Context, dealID string, at time.Time) (int, error) {
	snap, err := store.Load[models.Listing](b.store, store.Listings)
	if err != nil {
		return 0, err
	}
	snap.LogWarning(ctx)

	n := 0
	for i := range snap.Records {
		if snap.Records[i].DealID != dealID {
			continue
		}
		snap.Records[i].Status = models.ListingSold
		snap.Records[i].SoldAt = lo.ToPtr(at)
		n++
	}
	if n == 0 {
		return 0, nil
	}

	if _, err := store.Save(ctx, b.store, store.Listings, snap.Version, snap.Records); err != nil {
		return 0, fmt.Errorf("save listings: %w", err)
	}
	return n, nil
}

// List returns listings in store order, optionally only those of dealID.
func (b *Book) List(ctx context.Context, dealID string) ([]models.Listing, error) {
	snap, err := store.Load[models.Listing](b.store, store.Listings)
	if err != nil {
		return nil, err
	}
	snap.LogWarning(ctx)

	if dealID == "" {
		return snap.Records, nil
	}
	return lo.Filter(snap.Records, func(l models.Listing, _ int) bool { return l.DealID == dealID }), nil
}
