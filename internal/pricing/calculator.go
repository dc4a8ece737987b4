package pricing

import (
	"github.com/shopspring/decimal"
)

// minorUnitDigits is the rounding precision for final prices (paise).
const minorUnitDigits = 2

var oneHundred = decimal.NewFromInt(100)

// Quote is the computed price result for one assessment. Breakdown always
// starts with the implicit base entry so a rendered list never comes up empty.
type Quote struct {
	BasePrice     decimal.Decimal   `json:"base_price"`
	PercentTotal  decimal.Decimal   `json:"percent_total"`
	AbsoluteTotal decimal.Decimal   `json:"absolute_total"`
	FinalPrice    decimal.Decimal   `json:"final_price"`
	Breakdown     []ConditionSignal `json:"breakdown"`
	CatalogVersion string           `json:"catalog_version,omitempty"`
}

// Compute folds the condition signals into a final price.
//
// Percent and absolute deltas accumulate into two independent totals, so the
// result does not depend on signal order. The percent total applies to the
// base first, the absolute total is added after, and the rounded result is
// clamped at zero: a percent total at or below -100 is a legal input that
// produces a zero quote, never a negative one.
func Compute(basePrice decimal.Decimal, signals []ConditionSignal) Quote {
	if basePrice.IsNegative() {
		basePrice = decimal.Zero
	}

	percentTotal := decimal.Zero
	absoluteTotal := decimal.Zero
	for _, s := range signals {
		switch s.Delta.Type {
		case DeltaPercent:
			percentTotal = percentTotal.Add(s.Delta.Signed())
		case DeltaAbsolute:
			absoluteTotal = absoluteTotal.Add(s.Delta.Signed())
		}
	}

	adjusted := basePrice.Mul(decimal.NewFromInt(1).Add(percentTotal.Div(oneHundred)))
	final := adjusted.Add(absoluteTotal).Round(minorUnitDigits)
	if final.IsNegative() {
		final = decimal.Zero
	}

	breakdown := make([]ConditionSignal, 0, len(signals)+1)
	breakdown = append(breakdown, ConditionSignal{
		SourceKind: SourceBase,
		Label:      "Base Price",
		Delta:      Delta{Type: DeltaAbsolute, Sign: SignPlus, Value: basePrice},
	})
	breakdown = append(breakdown, signals...)

	return Quote{
		BasePrice:     basePrice,
		PercentTotal:  percentTotal,
		AbsoluteTotal: absoluteTotal,
		FinalPrice:    final,
		Breakdown:     breakdown,
	}
}

// BaseQuote is the quote of an untouched draft session: base price only.
func BaseQuote(basePrice decimal.Decimal) Quote {
	return Compute(basePrice, nil)
}
