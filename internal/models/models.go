package models

import (
	"slices"
	"time"
)

// Status is the lifecycle state of a Deal.
type Status string

const (
	StatusFound     Status = "found"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusPurchased Status = "purchased"
	StatusListed    Status = "listed"
	StatusSold      Status = "sold"
	StatusExpired   Status = "expired"
)

// Statuses lists every valid deal status in lifecycle order.
var Statuses = []Status{
	StatusFound,
	StatusApproved,
	StatusRejected,
	StatusPurchased,
	StatusListed,
	StatusSold,
	StatusExpired,
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// StatusChange is one entry of a deal's append-only status log.
type StatusChange struct {
	From Status    `json:"from"`
	To   Status    `json:"to"`
	At   time.Time `json:"at"`
}

type Deal struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Source        string         `json:"source"`
	URL           string         `json:"url"`
	BuyPrice      float64        `json:"buy_price"`
	EstimatedSell float64        `json:"estimated_sell"`
	MarginPct     float64        `json:"margin_pct"`
	Status        Status         `json:"status"`
	Images        []string       `json:"images"`
	Notes         string         `json:"notes"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	StatusUpdated *time.Time     `json:"status_updated_at,omitempty"`
	StatusHistory []StatusChange `json:"status_history"`

	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	PurchasedAt     *time.Time `json:"purchased_at,omitempty"`
	ListedAt        *time.Time `json:"listed_at,omitempty"`
	ListingIDs      []string   `json:"listing_ids,omitempty"`
	ListingURLs     []string   `json:"listing_urls,omitempty"`

	SoldAt          *time.Time `json:"sold_at,omitempty"`
	SoldPrice       *float64   `json:"sold_price,omitempty"`
	SoldPlatform    string     `json:"sold_platform,omitempty"`
	EstimatedFees   *float64   `json:"estimated_fees,omitempty"`
	ActualProfit    *float64   `json:"actual_profit,omitempty"`
	ActualMarginPct *float64   `json:"actual_margin_pct,omitempty"`

	ExpiredAt *time.Time `json:"expired_at,omitempty"`
}

// LastActivity returns updated_at, falling back to created_at for records
// written without one.
func (d Deal) LastActivity() time.Time {
	if !d.UpdatedAt.IsZero() {
		return d.UpdatedAt
	}
	return d.CreatedAt
}

// ListedSince returns listed_at, falling back to created_at.
func (d Deal) ListedSince() time.Time {
	if d.ListedAt != nil && !d.ListedAt.IsZero() {
		return *d.ListedAt
	}
	return d.CreatedAt
}

type ListingStatus string

const (
	ListingDraft ListingStatus = "draft"
	ListingSold  ListingStatus = "sold"
)

// Listing is a platform-specific posting for a Deal. DealID is a plain back
// reference and may point at a deal that no longer resolves.
type Listing struct {
	ID        string        `json:"id"`
	Platform  string        `json:"platform"`
	DealID    string        `json:"deal_id"`
	Title     string        `json:"title"`
	Price     float64       `json:"price"`
	Status    ListingStatus `json:"status"`
	URL       string        `json:"url"`
	CreatedAt time.Time     `json:"created_at"`
	SessionID string        `json:"session_id,omitempty"`
	SoldAt    *time.Time    `json:"sold_at,omitempty"`
}

type ContactMethod string

const (
	ContactEmail    ContactMethod = "email"
	ContactWhatsApp ContactMethod = "whatsapp"
	ContactSMS      ContactMethod = "sms"
)

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether min <= price <= max.
func (r PriceRange) Contains(price float64) bool {
	return r.Min <= price && price <= r.Max
}

// GeneralCategory matches any item when present in a buyer's categories.
const GeneralCategory = "general"

type Buyer struct {
	Name          string        `json:"name"`
	Categories    []string      `json:"categories"`
	PriceRange    PriceRange    `json:"price_range"`
	ContactMethod ContactMethod `json:"contact_method"`
	ContactInfo   string        `json:"contact_info"`
	Notes         string        `json:"notes"`
	Active        bool          `json:"active"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// AcceptsCategory reports whether the buyer takes items of the given
// category. An empty category set or "general" accepts everything.
func (b Buyer) AcceptsCategory(category string) bool {
	if len(b.Categories) == 0 {
		return true
	}
	return slices.Contains(b.Categories, category) || slices.Contains(b.Categories, GeneralCategory)
}
