package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func pctSignal(id string, sign Sign, v int64) ConditionSignal {
	return ConditionSignal{
		SourceID:   id,
		SourceKind: SourceAnswer,
		Delta:      Delta{Type: DeltaPercent, Sign: sign, Value: decimal.NewFromInt(v)},
	}
}

func absSignal(id string, kind SourceKind, sign Sign, v int64) ConditionSignal {
	return ConditionSignal{
		SourceID:   id,
		SourceKind: kind,
		Delta:      Delta{Type: DeltaAbsolute, Sign: sign, Value: decimal.NewFromInt(v)},
	}
}

func TestComputeFinalPrice(t *testing.T) {
	cases := []struct {
		name    string
		base    int64
		signals []ConditionSignal
		want    string
	}{
		{
			name: "percent_then_absolute",
			base: 10000,
			signals: []ConditionSignal{
				pctSignal("q1", SignMinus, 10),
				absSignal("d1", SourceDefect, SignMinus, 500),
			},
			want: "8500",
		},
		{
			name: "clamped_at_zero",
			base: 2160,
			signals: []ConditionSignal{
				pctSignal("q1", SignMinus, 80),
				pctSignal("q2", SignMinus, 70),
			},
			want: "0",
		},
		{
			name: "accessories_add_after_percent",
			base: 1000,
			signals: []ConditionSignal{
				pctSignal("q1", SignMinus, 50),
				absSignal("a1", SourceAccessory, SignPlus, 100),
				absSignal("a2", SourceAccessory, SignPlus, 100),
			},
			want: "700",
		},
		{
			name:    "no_signals",
			base:    4999,
			signals: nil,
			want:    "4999",
		},
		{
			name: "negative_absolute_exceeds_value",
			base: 300,
			signals: []ConditionSignal{
				absSignal("d1", SourceDefect, SignMinus, 500),
			},
			want: "0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := Compute(decimal.NewFromInt(tc.base), tc.signals)
			if !q.FinalPrice.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("FinalPrice = %s, want %s", q.FinalPrice, tc.want)
			}
			if q.FinalPrice.IsNegative() {
				t.Fatalf("FinalPrice is negative: %s", q.FinalPrice)
			}
		})
	}
}

func TestComputeIsOrderIndependent(t *testing.T) {
	signals := []ConditionSignal{
		pctSignal("q1", SignMinus, 10),
		pctSignal("q2", SignPlus, 5),
		absSignal("d1", SourceDefect, SignMinus, 500),
		absSignal("a1", SourceAccessory, SignPlus, 100),
		absSignal("a2", SourceAccessory, SignPlus, 250),
	}
	base := decimal.NewFromInt(12500)
	want := Compute(base, signals).FinalPrice

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := make([]ConditionSignal, len(signals))
		copy(shuffled, signals)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		got := Compute(base, shuffled).FinalPrice
		if !got.Equal(want) {
			t.Fatalf("permutation %d: FinalPrice = %s, want %s", i, got, want)
		}
	}
}

func TestComputeClampsBelowMinus100Percent(t *testing.T) {
	base := decimal.NewFromInt(2160)
	q := Compute(base, []ConditionSignal{
		pctSignal("q1", SignMinus, 150),
	})
	if !q.FinalPrice.IsZero() {
		t.Fatalf("FinalPrice = %s, want 0", q.FinalPrice)
	}
	if !q.PercentTotal.Equal(decimal.NewFromInt(-150)) {
		t.Fatalf("PercentTotal = %s, want -150", q.PercentTotal)
	}
}

func TestComputeBreakdownKeepsBaseEntry(t *testing.T) {
	q := Compute(decimal.NewFromInt(500), nil)
	if len(q.Breakdown) != 1 {
		t.Fatalf("Breakdown length = %d, want 1", len(q.Breakdown))
	}
	if q.Breakdown[0].SourceKind != SourceBase {
		t.Fatalf("Breakdown[0].SourceKind = %s, want %s", q.Breakdown[0].SourceKind, SourceBase)
	}

	q = Compute(decimal.NewFromInt(500), []ConditionSignal{pctSignal("q1", SignMinus, 10)})
	if len(q.Breakdown) != 2 || q.Breakdown[0].SourceKind != SourceBase {
		t.Fatalf("expected base entry first, got %+v", q.Breakdown)
	}
}

func TestDeltaSigned(t *testing.T) {
	d := Delta{Type: DeltaPercent, Sign: SignMinus, Value: decimal.NewFromInt(10)}
	if !d.Signed().Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("Signed() = %s, want -10", d.Signed())
	}
	// Value is stored unsigned; a negative value must not flip the sign back.
	d = Delta{Type: DeltaAbsolute, Sign: SignMinus, Value: decimal.NewFromInt(-500)}
	if !d.Signed().Equal(decimal.NewFromInt(-500)) {
		t.Fatalf("Signed() = %s, want -500", d.Signed())
	}
}
