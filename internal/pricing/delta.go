package pricing

import (
	"github.com/shopspring/decimal"
)

type DeltaType string

const (
	DeltaPercent  DeltaType = "percent"
	DeltaAbsolute DeltaType = "absolute"
)

type Sign string

const (
	SignPlus  Sign = "+"
	SignMinus Sign = "-"
)

// Delta is one signed price adjustment. Value is always non-negative; the
// direction lives in Sign so catalog rows stay human-readable.
type Delta struct {
	Type  DeltaType       `json:"type"`
	Sign  Sign            `json:"sign"`
	Value decimal.Decimal `json:"value"`
}

func (d Delta) Signed() decimal.Decimal {
	v := d.Value.Abs()
	if d.Sign == SignMinus {
		return v.Neg()
	}
	return v
}

type SourceKind string

const (
	SourceBase      SourceKind = "base"
	SourceAnswer    SourceKind = "answer"
	SourceDefect    SourceKind = "defect"
	SourceAccessory SourceKind = "accessory"
)

// ConditionSignal is a Delta plus its provenance: which answer, defect or
// accessory produced it, and the labels the breakdown renders.
type ConditionSignal struct {
	SourceID      string     `json:"source_id"`
	SourceKind    SourceKind `json:"source_kind"`
	Label         string     `json:"label"`
	SelectedLabel string     `json:"selected_label,omitempty"`
	Delta         Delta      `json:"delta"`
}
