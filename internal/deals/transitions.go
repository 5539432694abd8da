package deals

import (
	"slices"

	"github.com/lukman83/dealdesk/internal/models"
)

// edges lists the statuses each status may move to. rejected and expired
// are terminal. sold -> sold re-reconciles a sale.
var edges = map[models.Status][]models.Status{ //nolint:gochecknoglobals
	models.StatusFound:     {models.StatusApproved, models.StatusPurchased, models.StatusRejected, models.StatusExpired},
	models.StatusApproved:  {models.StatusPurchased, models.StatusRejected, models.StatusExpired},
	models.StatusPurchased: {models.StatusListed, models.StatusSold, models.StatusExpired},
	models.StatusListed:    {models.StatusListed, models.StatusSold, models.StatusExpired},
	models.StatusSold:      {models.StatusSold},
	models.StatusRejected:  {},
	models.StatusExpired:   {},
}

// Allowed reports whether a deal in status from may move to status to.
func Allowed(from, to models.Status) bool {
	return slices.Contains(edges[from], to)
}

// Next returns the statuses reachable from status in one step.
func Next(status models.Status) []models.Status {
	return slices.Clone(edges[status])
}
