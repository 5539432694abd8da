package buyers

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/lukman83/dealdesk/internal/apperr"
	"github.com/lukman83/dealdesk/internal/logx"
	"github.com/lukman83/dealdesk/internal/models"
	"github.com/lukman83/dealdesk/internal/store"
)

// DefaultPriceRange applies when a buyer is added without one.
var DefaultPriceRange = models.PriceRange{Min: 0, Max: 10000} //nolint:gochecknoglobals

var contactMethods = []models.ContactMethod{models.ContactEmail, models.ContactWhatsApp, models.ContactSMS} //nolint:gochecknoglobals

// Registry owns the buyers collection. Names are matched case-insensitively.
type Registry struct {
	store *store.Store
	now   func() time.Time
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(s *store.Store, opts ...Option) *Registry {
	r := &Registry{store: s, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type NewBuyer struct {
	Name          string
	Categories    []string
	PriceRange    *models.PriceRange
	ContactMethod models.ContactMethod
	ContactInfo   string
	Notes         string
}

// Patch carries the fields an update overwrites; nil fields are preserved.
type Patch struct {
	Categories    *[]string
	PriceRange    *models.PriceRange
	ContactMethod *models.ContactMethod
	ContactInfo   *string
	Notes         *string
	Active        *bool
}

func (r *Registry) Add(ctx context.Context, nb NewBuyer) (models.Buyer, error) {
	name := strings.TrimSpace(nb.Name)
	if name == "" {
		return models.Buyer{}, apperr.New(apperr.ValidationError, "name is required for add action")
	}

	now := r.now().UTC()
	buyer := models.Buyer{
		Name:          name,
		Categories:    normalizeCategories(nb.Categories),
		PriceRange:    lo.FromPtrOr(nb.PriceRange, DefaultPriceRange),
		ContactMethod: lo.Ternary(nb.ContactMethod == "", models.ContactEmail, nb.ContactMethod),
		ContactInfo:   nb.ContactInfo,
		Notes:         nb.Notes,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := validate(buyer); err != nil {
		return models.Buyer{}, err
	}

	snap, err := store.Update(ctx, r.store, store.Buyers, func(records []models.Buyer) ([]models.Buyer, error) {
		if indexOf(records, name) >= 0 {
			return nil, apperr.Newf(apperr.Conflict, "buyer '%s' already exists", name)
		}
		return append(records, buyer), nil
	})
	snap.LogWarning(ctx)
	if err != nil {
		return models.Buyer{}, fmt.Errorf("add buyer: %w", err)
	}

	logx.FromContext(ctx).Info("buyer added", slog.String(logx.FieldBuyer, name))
	return buyer, nil
}

// Update overwrites the supplied fields of the named buyer and refreshes
// updated_at.
func (r *Registry) Update(ctx context.Context, name string, p Patch) (models.Buyer, error) {
	if strings.TrimSpace(name) == "" {
		return models.Buyer{}, apperr.New(apperr.ValidationError, "name is required for update action")
	}

	now := r.now().UTC()
	var updated models.Buyer

	snap, err := store.Update(ctx, r.store, store.Buyers, func(records []models.Buyer) ([]models.Buyer, error) {
		idx := indexOf(records, name)
		if idx < 0 {
			return nil, apperr.Newf(apperr.NotFound, "buyer '%s' not found", name)
		}

		b := records[idx]
		if p.Categories != nil {
			b.Categories = normalizeCategories(*p.Categories)
		}
		if p.PriceRange != nil {
			b.PriceRange = *p.PriceRange
		}
		if p.ContactMethod != nil {
			b.ContactMethod = *p.ContactMethod
		}
		if p.ContactInfo != nil {
			b.ContactInfo = *p.ContactInfo
		}
		if p.Notes != nil {
			b.Notes = *p.Notes
		}
		if p.Active != nil {
			b.Active = *p.Active
		}
		b.UpdatedAt = now

		if err := validate(b); err != nil {
			return nil, err
		}

		records[idx] = b
		updated = b
		return records, nil
	})
	snap.LogWarning(ctx)
	if err != nil {
		return models.Buyer{}, fmt.Errorf("update buyer: %w", err)
	}

	logx.FromContext(ctx).Info("buyer updated", slog.String(logx.FieldBuyer, updated.Name))
	return updated, nil
}

// Remove hard-deletes the named buyer and returns the removed record.
func (r *Registry) Remove(ctx context.Context, name string) (models.Buyer, error) {
	if strings.TrimSpace(name) == "" {
		return models.Buyer{}, apperr.New(apperr.ValidationError, "name is required for remove action")
	}

	var removed models.Buyer
	snap, err := store.Update(ctx, r.store, store.Buyers, func(records []models.Buyer) ([]models.Buyer, error) {
		idx := indexOf(records, name)
		if idx < 0 {
			return nil, apperr.Newf(apperr.NotFound, "buyer '%s' not found", name)
		}
		removed = records[idx]
		return slices.Delete(records, idx, idx+1), nil
	})
	snap.LogWarning(ctx)
	if err != nil {
		return models.Buyer{}, fmt.Errorf("remove buyer: %w", err)
	}

	logx.FromContext(ctx).Info("buyer removed", slog.String(logx.FieldBuyer, removed.Name))
	return removed, nil
}

// List returns every buyer in registry order, active or not.
func (r *Registry) List(ctx context.Context) ([]models.Buyer, error) {
	snap, err := store.Load[models.Buyer](r.store, store.Buyers)
	if err != nil {
		return nil, err
	}
	snap.LogWarning(ctx)
	return snap.Records, nil
}

func indexOf(records []models.Buyer, name string) int {
	return slices.IndexFunc(records, func(b models.Buyer) bool {
		return strings.EqualFold(b.Name, strings.TrimSpace(name))
	})
}

func normalizeCategories(in []string) []string {
	out := lo.Uniq(lo.FilterMap(in, func(c string, _ int) (string, bool) {
		c = strings.ToLower(strings.TrimSpace(c))
		return c, c != ""
	}))
	return lo.Ternary(out == nil, []string{}, out)
}

func validate(b models.Buyer) error {
	if !slices.Contains(contactMethods, b.ContactMethod) {
		return apperr.Newf(apperr.ValidationError, "invalid contact_method %q, valid: email, whatsapp, sms", b.ContactMethod)
	}
	if b.PriceRange.Min < 0 || b.PriceRange.Max < 0 {
		return apperr.New(apperr.ValidationError, "price_range bounds must not be negative")
	}
	if b.PriceRange.Min > b.PriceRange.Max {
		return apperr.Newf(apperr.ValidationError, "price_range min %.2f is greater than max %.2f", b.PriceRange.Min, b.PriceRange.Max)
	}
	return nil
}
