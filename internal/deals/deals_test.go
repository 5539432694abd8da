package deals_test

import (
	"context"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lukman83/dealdesk/internal/apperr"
	"github.com/lukman83/dealdesk/internal/deals"
	"github.com/lukman83/dealdesk/internal/models"
	"github.com/lukman83/dealdesk/internal/store"
)

type clock struct{ at time.Time }

func (c *clock) now() time.Time { return c.at }

func (c *clock) advance(d time.Duration) { c.at = c.at.Add(d) }

type markerCall struct {
	dealID string
	at     time.Time
}

type fakeMarker struct {
	calls []markerCall
	err   error
}

func (f *fakeMarker) MarkSold(_ context.Context, dealID string, at time.Time) (int, error) {
	f.calls = append(f.calls, markerCall{dealID, at})
	return 2, f.err
}

func setup(t *testing.T, opts ...deals.Option) (*deals.Manager, *store.Store, *clock, *fakeMarker) {
	t.Helper()
	s := store.New(t.TempDir())
	c := &clock{at: time.Date(2026, 10, 1, 9, 30, 15, 0, time.UTC)}
	marker := &fakeMarker{}
	opts = append([]deals.Option{deals.WithClock(c.now)}, opts...)
	return deals.NewManager(s, marker, opts...), s, c, marker
}

func exampleDeal() deals.NewDeal {
	return deals.NewDeal{
		Title:         "X",
		Source:        "craigslist",
		BuyPrice:      decimal.NewFromInt(50),
		EstimatedSell: decimal.NewFromInt(100),
		MarginPct:     decimal.NewFromInt(40),
	}
}

func fileBytes(t *testing.T, s *store.Store, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(s.Path(name))
	require.NoError(t, err)
	return data
}

func TestCreate(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	m, s, _, _ := setup(t)

	deal, err := m.Create(ctx, exampleDeal())
	rq.NoError(err)
	rq.Equal(models.StatusFound, deal.Status)
	rq.Regexp(regexp.MustCompile(`^deal_20261001_093015_[0-9a-f]{8}$`), deal.ID)
	rq.NotNil(deal.StatusHistory)
	rq.Empty(deal.StatusHistory)
	rq.NotNil(deal.Images)
	rq.Equal(deal.CreatedAt, deal.UpdatedAt)
	rq.Equal(50.0, deal.BuyPrice)

	other, err := m.Create(ctx, exampleDeal())
	rq.NoError(err)
	rq.NotEqual(deal.ID, other.ID)

	snap, err := store.Load[models.Deal](s, store.Deals)
	rq.NoError(err)
	rq.Equal([]models.Deal{deal, other}, snap.Records)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*deals.NewDeal)
		msg  string
	}{
		{"missing title and source", func(d *deals.NewDeal) { d.Title, d.Source = "", " " }, "title, source"},
		{"zero buy price", func(d *deals.NewDeal) { d.BuyPrice = decimal.Zero }, "buy_price"},
		{"negative sell", func(d *deals.NewDeal) { d.EstimatedSell = decimal.NewFromInt(-1) }, "estimated_sell"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rq := require.New(t)
			m, s, _, _ := setup(t)

			nd := exampleDeal()
			tt.mod(&nd)
			_, err := m.Create(context.Background(), nd)
			rq.True(apperr.HasCode(err, apperr.ValidationError))
			rq.Contains(err.Error(), tt.msg)

			_, statErr := os.Stat(s.Path(store.Deals))
			rq.True(os.IsNotExist(statErr))
		})
	}
}

func TestCreateIDCollision(t *testing.T) {
	rq := require.New(t)
	m, _, _, _ := setup(t, deals.WithIDGenerator(func(time.Time) string { return "deal_fixed" }))

	_, err := m.Create(context.Background(), exampleDeal())
	rq.NoError(err)
	_, err = m.Create(context.Background(), exampleDeal())
	rq.True(apperr.HasCode(err, apperr.Conflict))
}

func TestUpdateUnknownDealLeavesStoreUnchanged(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	m, s, _, marker := setup(t)

	_, err := m.Create(ctx, exampleDeal())
	rq.NoError(err)
	before := fileBytes(t, s, store.Deals)

	for _, status := range models.Statuses {
		_, err := m.Update(ctx, deals.Change{
			DealID:     "deal_missing",
			Status:     status,
			ListingIDs: []string{"ebay_1"},
			SoldPrice:  decimal.NewNullDecimal(decimal.NewFromInt(10)),
		})
		rq.True(apperr.HasCode(err, apperr.NotFound), status)
	}

	rq.Equal(before, fileBytes(t, s, store.Deals))
	rq.Empty(marker.calls)
}

func TestLifecycle(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	m, _, c, marker := setup(t)

	deal, err := m.Create(ctx, exampleDeal())
	rq.NoError(err)

	c.advance(time.Hour)
	out, err := m.Update(ctx, deals.Change{DealID: deal.ID, Status: models.StatusApproved})
	rq.NoError(err)
	rq.Equal(models.StatusFound, out.From)
	rq.NotNil(out.Deal.ApprovedAt)
	rq.Equal(c.at, *out.Deal.ApprovedAt)
	rq.Equal(c.at, *out.Deal.StatusUpdated)
	rq.Equal(c.at, out.Deal.UpdatedAt)

	c.advance(time.Hour)
	out, err = m.Update(ctx, deals.Change{DealID: deal.ID, Status: models.StatusPurchased})
	rq.NoError(err)
	rq.NotNil(out.Deal.PurchasedAt)

	c.advance(time.Hour)
	out, err = m.Update(ctx, deals.Change{
		DealID:      deal.ID,
		Status:      models.StatusListed,
		ListingURLs: []string{"https://www.ebay.com/itm/1"},
	})
	rq.NoError(err)
	rq.Equal(c.at, *out.Deal.ListedAt)
	rq.Equal([]string{}, out.Deal.ListingIDs)
	rq.Equal([]string{"https://www.ebay.com/itm/1"}, out.Deal.ListingURLs)

	c.advance(time.Hour)
	out, err = m.Update(ctx, deals.Change{
		DealID:    deal.ID,
		Status:    models.StatusSold,
		SoldPrice: decimal.NewNullDecimal(decimal.NewFromInt(100)),
	})
	rq.NoError(err)
	rq.Equal(2, out.ListingsSold)
	rq.Equal(deals.UnknownPlatform, out.Deal.SoldPlatform)
	rq.Equal(100.0, *out.Deal.SoldPrice)
	rq.Equal(13.0, *out.Deal.EstimatedFees)
	rq.Equal(37.0, *out.Deal.ActualProfit)
	rq.Equal(74.0, *out.Deal.ActualMarginPct)
	rq.Equal("Deal 'X' updated to sold | Profit: $37.00 (74.0%)", out.Message)
	rq.Equal([]markerCall{{deal.ID, c.at}}, marker.calls)

	history := lo.Map(out.Deal.StatusHistory, func(sc models.StatusChange, _ int) models.Status { return sc.To })
	rq.Equal([]models.Status{models.StatusApproved, models.StatusPurchased, models.StatusListed, models.StatusSold}, history)
	rq.Equal(models.StatusListed, out.Deal.StatusHistory[3].From)

	got, err := m.Get(ctx, deal.ID)
	rq.NoError(err)
	rq.Equal(out.Deal, got)
}

func TestSoldTwiceLastWriteWins(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	m, _, _, _ := setup(t, deals.WithStrictTransitions(false))

	deal, err := m.Create(ctx, exampleDeal())
	rq.NoError(err)

	_, err = m.Update(ctx, deals.Change{DealID: deal.ID, Status: models.StatusSold, SoldPrice: decimal.NewNullDecimal(decimal.NewFromInt(100))})
	rq.NoError(err)
	out, err := m.Update(ctx, deals.Change{
		DealID:       deal.ID,
		Status:       models.StatusSold,
		SoldPrice:    decimal.NewNullDecimal(decimal.NewFromInt(200)),
		SoldPlatform: "ebay",
	})
	rq.NoError(err)

	rq.Equal(200.0, *out.Deal.SoldPrice)
	rq.Equal(26.0, *out.Deal.EstimatedFees)
	rq.Equal(124.0, *out.Deal.ActualProfit)
	rq.Equal(248.0, *out.Deal.ActualMarginPct)
	rq.Equal("ebay", out.Deal.SoldPlatform)
	rq.Len(out.Deal.StatusHistory, 2)
}

func TestStrictTransitions(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	m, s, _, _ := setup(t, deals.WithStrictTransitions(true))

	deal, err := m.Create(ctx, exampleDeal())
	rq.NoError(err)
	_, err = m.Update(ctx, deals.Change{DealID: deal.ID, Status: models.StatusRejected, Notes: lo.ToPtr("too scratched")})
	rq.NoError(err)
	before := fileBytes(t, s, store.Deals)

	_, err = m.Update(ctx, deals.Change{DealID: deal.ID, Status: models.StatusFound})
	rq.True(apperr.HasCode(err, apperr.InvalidTransition))
	rq.Equal(before, fileBytes(t, s, store.Deals))

	lenient := deals.NewManager(s, nil, deals.WithStrictTransitions(false))
	out, err := lenient.Update(ctx, deals.Change{DealID: deal.ID, Status: models.StatusFound})
	rq.NoError(err)
	rq.Equal(models.StatusFound, out.Deal.Status)
}

func TestRejectAndNotes(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	m, _, c, _ := setup(t)

	nd := exampleDeal()
	nd.Notes = "seen on friday"
	deal, err := m.Create(ctx, nd)
	rq.NoError(err)

	c.advance(48 * time.Hour)
	out, err := m.Update(ctx, deals.Change{DealID: deal.ID, Notes: lo.ToPtr("seller is flexible")})
	rq.NoError(err)
	rq.Equal(models.StatusFound, out.Deal.Status)
	rq.Empty(out.Deal.StatusHistory)
	rq.Equal("seen on friday\n[2026-10-03] seller is flexible", out.Deal.Notes)
	rq.Equal("Deal 'X' notes updated", out.Message)

	out, err = m.Update(ctx, deals.Change{DealID: deal.ID, Status: models.StatusRejected, Notes: lo.ToPtr("price too high")})
	rq.NoError(err)
	rq.Equal("price too high", *out.Deal.RejectionReason)
	rq.NotNil(out.Deal.RejectedAt)
	rq.Equal("seen on friday\n[2026-10-03] seller is flexible\n[2026-10-03] price too high", out.Deal.Notes)
}

func TestUpdateValidation(t *testing.T) {
	tests := []struct {
		name   string
		change deals.Change
	}{
		{"missing deal id", deals.Change{Status: models.StatusApproved}},
		{"unknown status", deals.Change{DealID: "d", Status: "shipped"}},
		{"listed without listings", deals.Change{DealID: "d", Status: models.StatusListed}},
		{"sold without price", deals.Change{DealID: "d", Status: models.StatusSold}},
		{"negative sold price", deals.Change{DealID: "d", Status: models.StatusSold, SoldPrice: decimal.NewNullDecimal(decimal.NewFromInt(-5))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _, _ := setup(t)
			_, err := m.Update(context.Background(), tt.change)
			require.True(t, apperr.HasCode(err, apperr.ValidationError), err)
		})
	}
}

func TestListFilter(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()
	m, _, _, _ := setup(t)

	first, err := m.Create(ctx, exampleDeal())
	rq.NoError(err)
	_, err = m.Create(ctx, exampleDeal())
	rq.NoError(err)
	_, err = m.Update(ctx, deals.Change{DealID: first.ID, Status: models.StatusApproved})
	rq.NoError(err)

	all, err := m.List(ctx, "")
	rq.NoError(err)
	rq.Len(all, 2)

	approved, err := m.List(ctx, models.StatusApproved)
	rq.NoError(err)
	rq.Len(approved, 1)
	rq.Equal(first.ID, approved[0].ID)

	_, err = m.List(ctx, "bogus")
	rq.True(apperr.HasCode(err, apperr.ValidationError))

	_, err = m.Get(ctx, "deal_nope")
	rq.True(apperr.HasCode(err, apperr.NotFound))
}

func TestReconcile(t *testing.T) {
	rq := require.New(t)

	sale := deals.Reconcile(decimal.NewFromInt(40), decimal.RequireFromString("99.99"))
	rq.Equal(13.0, sale.EstimatedFees)
	rq.Equal(46.99, sale.ActualProfit)
	rq.Equal(117.5, sale.ActualMarginPct)

	rq.Zero(deals.Reconcile(decimal.Zero, decimal.NewFromInt(10)).ActualMarginPct)
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		from, to models.Status
		want     bool
	}{
		{models.StatusFound, models.StatusApproved, true},
		{models.StatusFound, models.StatusSold, false},
		{models.StatusApproved, models.StatusPurchased, true},
		{models.StatusPurchased, models.StatusSold, true},
		{models.StatusListed, models.StatusListed, true},
		{models.StatusSold, models.StatusSold, true},
		{models.StatusSold, models.StatusFound, false},
		{models.StatusRejected, models.StatusApproved, false},
		{models.StatusExpired, models.StatusFound, false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, deals.Allowed(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
	require.Empty(t, deals.Next(models.StatusRejected))
}
