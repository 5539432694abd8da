package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/lukman83/dealdesk/internal/models"
	"github.com/lukman83/dealdesk/internal/store"
)

const (
	// StaleAfterDays is how many whole days a listing may sit unsold.
	StaleAfterDays = 7
	recentWindow   = 7 * 24 * time.Hour
	day            = 24 * time.Hour

	// UnknownStatus counts deals saved without a status.
	UnknownStatus = "unknown"

	maxStale    = 5
	maxPending  = 5
	maxActivity = 10
)

type Input struct {
	Deals    []models.Deal
	Listings []models.Listing
	Buyers   []models.Buyer
	Warnings []string
}

// Load reads all three collections. Corrupt collections come back empty
// with a warning.
func Load(ctx context.Context, s *store.Store) (Input, error) {
	deals, err := store.Load[models.Deal](s, store.Deals)
	if err != nil {
		return Input{}, err
	}
	listings, err := store.Load[models.Listing](s, store.Listings)
	if err != nil {
		return Input{}, err
	}
	buyers, err := store.Load[models.Buyer](s, store.Buyers)
	if err != nil {
		return Input{}, err
	}

	deals.LogWarning(ctx)
	listings.LogWarning(ctx)
	buyers.LogWarning(ctx)

	return Input{
		Deals:    deals.Records,
		Listings: listings.Records,
		Buyers:   buyers.Records,
		Warnings: lo.Compact([]string{deals.Warning(), listings.Warning(), buyers.Warning()}),
	}, nil
}

type Summary struct {
	TotalDeals       int     `json:"total_deals"`
	AwaitingApproval int     `json:"awaiting_approval"`
	NeedToList       int     `json:"need_to_list"`
	ActiveListings   int     `json:"active_listings"`
	TotalSold        int     `json:"total_sold"`
	TotalProfit      float64 `json:"total_profit"`
	BuyerNetworkSize int     `json:"buyer_network_size"`
	StaleListings    int     `json:"stale_listings"`
}

type StaleListing struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	DaysListed int    `json:"days_listed"`
}

type PendingApproval struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Margin float64 `json:"margin"`
}

type PendingListing struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Activity struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Status  models.Status `json:"status"`
	Updated time.Time     `json:"updated"`
}

type Status struct {
	Summary         Summary           `json:"summary"`
	DealsByStatus   map[string]int    `json:"deals_by_status"`
	StaleListings   []StaleListing    `json:"stale_listings"`
	PendingApproval []PendingApproval `json:"pending_approval"`
	PendingListing  []PendingListing  `json:"pending_listing"`
	RecentActivity  []Activity        `json:"recent_activity"`
	Message         string            `json:"message"`
	StoreWarnings   []string          `json:"store_warnings,omitempty"`
}

// Detail is Status plus the raw collections.
type Detail struct {
	Status
	AllDeals    []models.Deal    `json:"all_deals"`
	AllListings []models.Listing `json:"all_listings"`
	AllBuyers   []models.Buyer   `json:"all_buyers"`
}

// Report aggregates in as of now. It never mutates in.
func Report(in Input, now time.Time) Status {
	byStatus := make(map[string]int, len(models.Statuses))
	for _, s := range models.Statuses {
		byStatus[string(s)] = 0
	}

	var (
		stale    []StaleListing
		approval []PendingApproval
		listing  []PendingListing
		recent   []Activity
		sold     int
		profit   = decimal.Zero
	)

	weekAgo := now.Add(-recentWindow)

	for _, d := range in.Deals {
		byStatus[lo.Ternary(d.Status == "", UnknownStatus, string(d.Status))]++

		switch d.Status {
		case models.StatusFound:
			approval = append(approval, PendingApproval{ID: d.ID, Title: d.Title, Margin: d.MarginPct})
		case models.StatusPurchased:
			listing = append(listing, PendingListing{ID: d.ID, Title: d.Title})
		case models.StatusListed:
			if days := int(now.Sub(d.ListedSince()) / day); days > StaleAfterDays {
				stale = append(stale, StaleListing{ID: d.ID, Title: d.Title, DaysListed: days})
			}
		case models.StatusSold:
			if d.ActualProfit != nil {
				sold++
				profit = profit.Add(decimal.NewFromFloat(*d.ActualProfit))
			}
		}

		if updated := d.LastActivity(); updated.After(weekAgo) {
			recent = append(recent, Activity{ID: d.ID, Title: d.Title, Status: d.Status, Updated: updated})
		}
	}

	summary := Summary{
		TotalDeals:       len(in.Deals),
		AwaitingApproval: len(approval),
		NeedToList:       len(listing),
		ActiveListings:   byStatus[string(models.StatusListed)],
		TotalSold:        sold,
		TotalProfit:      profit.Round(2).InexactFloat64(),
		BuyerNetworkSize: len(in.Buyers),
		StaleListings:    len(stale),
	}

	return Status{
		Summary:         summary,
		DealsByStatus:   byStatus,
		StaleListings:   head(stale, maxStale),
		PendingApproval: head(approval, maxPending),
		PendingListing:  head(listing, maxPending),
		RecentActivity:  head(recent, maxActivity),
		Message:         message(summary),
		StoreWarnings:   in.Warnings,
	}
}

// Detailed is Report with the raw collections attached.
func Detailed(in Input, now time.Time) Detail {
	return Detail{
		Status:      Report(in, now),
		AllDeals:    lo.Ternary(in.Deals == nil, []models.Deal{}, in.Deals),
		AllListings: lo.Ternary(in.Listings == nil, []models.Listing{}, in.Listings),
		AllBuyers:   lo.Ternary(in.Buyers == nil, []models.Buyer{}, in.Buyers),
	}
}

func head[T any](items []T, n int) []T {
	if items == nil {
		return []T{}
	}
	return lo.Slice(items, 0, n)
}

func message(s Summary) string {
	return fmt.Sprintf("Inventory Status:\n"+
		"- %d deals awaiting approval\n"+
		"- %d items to list\n"+
		"- %d active listings\n"+
		"- %d sold (+$%.2f profit)\n"+
		"- %d stale listings (>%d days)",
		s.AwaitingApproval, s.NeedToList, s.ActiveListings, s.TotalSold, s.TotalProfit, s.StaleListings, StaleAfterDays)
}
