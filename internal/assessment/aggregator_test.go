package assessment

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/swapkart/tradein-backend/internal/catalog"
	"github.com/swapkart/tradein-backend/internal/logger"
	"github.com/swapkart/tradein-backend/internal/pricing"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func testSnapshot() *catalog.Snapshot {
	snap := &catalog.Snapshot{
		Category: "smartphones",
		Version:  "v7",
		Questions: []catalog.Question{
			{
				ID: "q-power", Text: "Does the device switch on?", Kind: catalog.QuestionSingle, Required: true,
				Options: []catalog.Option{
					{ID: "opt-yes", Label: "Yes", Delta: pricing.Delta{Type: pricing.DeltaPercent, Sign: pricing.SignPlus, Value: decimal.Zero}},
					{ID: "opt-no", Label: "No", Delta: pricing.Delta{Type: pricing.DeltaPercent, Sign: pricing.SignMinus, Value: decimal.NewFromInt(40)}},
				},
			},
			{
				ID: "q-issues", Text: "Functional issues", Kind: catalog.QuestionMulti, Required: false,
				Options: []catalog.Option{
					{ID: "opt-speaker", Label: "Speaker faulty", Delta: pricing.Delta{Type: pricing.DeltaPercent, Sign: pricing.SignMinus, Value: decimal.NewFromInt(5)}},
					{ID: "opt-mic", Label: "Mic faulty", Delta: pricing.Delta{Type: pricing.DeltaPercent, Sign: pricing.SignMinus, Value: decimal.NewFromInt(5)}},
				},
			},
		},
		Defects: []catalog.Defect{
			{ID: "dent", Label: "Body dent", Delta: pricing.Delta{Type: pricing.DeltaAbsolute, Sign: pricing.SignMinus, Value: decimal.NewFromInt(500)}},
		},
		Accessories: []catalog.Accessory{
			{ID: "charger", Label: "Original charger", Delta: pricing.Delta{Type: pricing.DeltaAbsolute, Sign: pricing.SignPlus, Value: decimal.NewFromInt(100)}},
			{ID: "box", Label: "Original box", Delta: pricing.Delta{Type: pricing.DeltaAbsolute, Sign: pricing.SignPlus, Value: decimal.NewFromInt(100)}},
		},
		Products: []catalog.Product{
			{ID: "p1", Name: "Phone X", Variants: []catalog.Variant{{ID: "v1", Label: "128GB", BasePrice: decimal.NewFromInt(10000)}}},
		},
	}
	snap.Index()
	return snap
}

func TestSignalsEmission(t *testing.T) {
	ag := NewAggregator(testLogger(t))
	snap := testSnapshot()

	a := New("p1", "v1")
	a.SetAnswer("q-power", "opt-no")
	a.ToggleOption("q-issues", "opt-speaker")
	a.ToggleOption("q-issues", "opt-mic")
	a.ToggleDefect("dent")
	a.ToggleAccessory("charger")
	a.ToggleAccessory("box")
	a.Normalize()

	signals := ag.Signals(a, snap)
	if len(signals) != 6 {
		t.Fatalf("len(signals) = %d, want 6", len(signals))
	}

	q := pricing.Compute(decimal.NewFromInt(10000), signals)
	// -40% -5% -5% on 10000 → 5000; -500 dent +200 accessories → 4700.
	if !q.FinalPrice.Equal(decimal.NewFromInt(4700)) {
		t.Fatalf("FinalPrice = %s, want 4700", q.FinalPrice)
	}
}

func TestSignalsNoDefectsSentinelIsNoOp(t *testing.T) {
	ag := NewAggregator(testLogger(t))
	a := New("p1", "v1")
	a.ToggleDefect(catalog.NoDefectsID)

	signals := ag.Signals(a, testSnapshot())
	if len(signals) != 0 {
		t.Fatalf("len(signals) = %d, want 0", len(signals))
	}
}

func TestSignalsDropsUnknownReferences(t *testing.T) {
	ag := NewAggregator(testLogger(t))
	snap := testSnapshot()

	a := New("p1", "v1")
	a.SetAnswer("q-power", "opt-yes")
	a.SetAnswer("q-retired", "opt-gone")
	a.ToggleOption("q-issues", "opt-removed")
	a.ToggleDefect("defect-retired")
	a.ToggleAccessory("accessory-retired")

	signals := ag.Signals(a, snap)
	if len(signals) != 1 {
		t.Fatalf("len(signals) = %d, want 1 (only the known answer)", len(signals))
	}
	if signals[0].SourceID != "q-power" {
		t.Fatalf("signals[0].SourceID = %s, want q-power", signals[0].SourceID)
	}
}

func TestSignalsZeroMultiSelectIsValid(t *testing.T) {
	ag := NewAggregator(testLogger(t))
	a := New("p1", "v1")
	a.SetAnswer("q-power", "opt-yes")

	signals := ag.Signals(a, testSnapshot())
	if len(signals) != 1 {
		t.Fatalf("len(signals) = %d, want 1", len(signals))
	}
}

func TestIsComplete(t *testing.T) {
	ag := NewAggregator(testLogger(t))
	snap := testSnapshot()

	a := New("p1", "v1")
	if ag.IsComplete(a, snap) {
		t.Fatal("IsComplete = true with required question unanswered")
	}
	a.SetAnswer("q-power", "opt-yes")
	if !ag.IsComplete(a, snap) {
		t.Fatal("IsComplete = false with all required questions answered")
	}
}
