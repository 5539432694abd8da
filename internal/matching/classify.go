package matching

import (
	"strings"

	"github.com/lukman83/dealdesk/internal/models"
)

// Classifier maps an item title to a category.
type Classifier interface {
	Classify(title string) string
}

// Rule assigns Category to titles containing any of Keywords.
type Rule struct {
	Category string
	Keywords []string
}

// DefaultRules is checked in order; the first matching keyword wins.
var DefaultRules = []Rule{ //nolint:gochecknoglobals
	{"electronics", []string{"phone", "iphone", "samsung", "laptop", "tablet", "gaming", "console", "ps5", "xbox", "computer", "tv", "monitor"}},
	{"furniture", []string{"couch", "sofa", "table", "chair", "desk", "bed", "dresser", "cabinet", "shelf"}},
	{"collectibles", []string{"cards", "pokemon", "vintage", "antique", "rare", "limited", "comic", "figure"}},
	{"clothing", []string{"shoes", "sneakers", "nike", "jordan", "designer", "clothing", "jacket", "bag"}},
	{"tools", []string{"dewalt", "milwaukee", "tools", "power", "drill", "saw", "wrench"}},
	{"appliances", []string{"washer", "dryer", "refrigerator", "appliance", "dishwasher", "microwave"}},
}

// KeywordClassifier does substring matching on the lower-cased title.
type KeywordClassifier struct {
	rules []Rule
}

// NewKeywordClassifier uses DefaultRules when no rules are given.
func NewKeywordClassifier(rules ...Rule) *KeywordClassifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &KeywordClassifier{rules: rules}
}

func (k *KeywordClassifier) Classify(title string) string {
	lower := strings.ToLower(title)
	for _, r := range k.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Category
			}
		}
	}
	return models.GeneralCategory
}
