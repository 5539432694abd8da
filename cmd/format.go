package cmd

import (
	"fmt"
	"io"

	"github.com/lukman83/dealdesk/internal/inventory"
	"github.com/lukman83/dealdesk/internal/models"
)

// printInventoryTable prints the inventory report in a human-friendly layout.
func printInventoryTable(w io.Writer, st inventory.Status) {
	s := st.Summary
	fmt.Fprintf(w, " %s\n\n", st.Message)
	fmt.Fprintf(w, "    Deals: %d  |  Awaiting approval: %d  |  To list: %d\n", s.TotalDeals, s.AwaitingApproval, s.NeedToList)
	fmt.Fprintf(w, "    Active listings: %d  |  Stale: %d\n", s.ActiveListings, s.StaleListings)
	fmt.Fprintf(w, "    Sold: %d  |  Profit: %s  |  Buyers: %d\n", s.TotalSold, formatPrice(s.TotalProfit), s.BuyerNetworkSize)

	fmt.Fprintln(w)
	fmt.Fprint(w, "    By status:")
	for _, status := range models.Statuses {
		fmt.Fprintf(w, " %s=%d", status, st.DealsByStatus[string(status)])
	}
	if n := st.DealsByStatus[inventory.UnknownStatus]; n > 0 {
		fmt.Fprintf(w, " %s=%d", inventory.UnknownStatus, n)
	}
	fmt.Fprintln(w)

	if len(st.PendingApproval) > 0 {
		fmt.Fprintln(w, "\n Awaiting approval")
		for i, p := range st.PendingApproval {
			fmt.Fprintf(w, " %d. %s  (%.1f%% margin)\n", i+1, truncate(p.Title, 60), p.Margin)
			fmt.Fprintf(w, "    %s\n", p.ID)
		}
	}
	if len(st.PendingListing) > 0 {
		fmt.Fprintln(w, "\n Purchased, not listed")
		for i, p := range st.PendingListing {
			fmt.Fprintf(w, " %d. %s\n", i+1, truncate(p.Title, 60))
			fmt.Fprintf(w, "    %s\n", p.ID)
		}
	}
	if len(st.StaleListings) > 0 {
		fmt.Fprintln(w, "\n Stale listings")
		for i, p := range st.StaleListings {
			fmt.Fprintf(w, " %d. %s  (listed %d days)\n", i+1, truncate(p.Title, 60), p.DaysListed)
		}
	}
	if len(st.RecentActivity) > 0 {
		fmt.Fprintln(w, "\n Recent activity")
		for _, a := range st.RecentActivity {
			fmt.Fprintf(w, "    %s  %-9s  %s\n", a.Updated.Format("2006-01-02 15:04"), a.Status, truncate(a.Title, 50))
		}
	}
	for _, warning := range st.StoreWarnings {
		fmt.Fprintf(w, "\n ! %s\n", warning)
	}
}

// formatPrice formats a dollar amount as "$1,234.50".
func formatPrice(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := int64(v)
	cents := int64((v-float64(whole))*100 + 0.5)
	if cents == 100 {
		whole++
		cents = 0
	}

	s := fmt.Sprintf("%d", whole)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return fmt.Sprintf("%s$%s.%02d", sign, s, cents)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
