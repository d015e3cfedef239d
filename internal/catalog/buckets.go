package catalog

import "github.com/shopspring/decimal"

// PriceBucket is a shop price filter. A nil Max is open-ended.
type PriceBucket struct {
	Label string           `json:"label"`
	Min   decimal.Decimal  `json:"min"`
	Max   *decimal.Decimal `json:"max,omitempty"`
}

func PriceBuckets() []PriceBucket {
	hundred := decimal.NewFromInt(100)
	fiveHundred := decimal.NewFromInt(500)
	return []PriceBucket{
		{Label: "Under $100", Min: decimal.Zero, Max: &hundred},
		{Label: "$100 - $500", Min: hundred, Max: &fiveHundred},
		{Label: "Over $500", Min: fiveHundred},
	}
}

// Bucket returns the filter with the given label.
func Bucket(label string) (PriceBucket, bool) {
	for _, b := range PriceBuckets() {
		if b.Label == label {
			return b, true
		}
	}
	return PriceBucket{}, false
}
