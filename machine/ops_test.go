package machine

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecimalDivChoosesScaleForTargetSignificantDigits(t *testing.T) {
	tests := []struct {
		l, r      string
		wantScale int32
	}{
		// quotient ~33.3..., 2 integer digits -> 26 fractional digits.
		{"100", "3", 26},
		// quotient ~1.89..., 1 integer digit -> 27 fractional digits
		// (the spec §8 example: 28 significant digits total).
		{"2.123456789123456789", "1.121212121121212121", 27},
		// quotient 0.125 exactly, 0 integer digits -> the full 28.
		{"1", "8", 28},
	}
	for _, tt := range tests {
		l, err := decimal.NewFromString(tt.l)
		if err != nil {
			t.Fatalf("decimal.NewFromString(%q) error: %v", tt.l, err)
		}
		r, err := decimal.NewFromString(tt.r)
		if err != nil {
			t.Fatalf("decimal.NewFromString(%q) error: %v", tt.r, err)
		}
		got := decimalDiv(l, r)
		if got.Exponent() != -tt.wantScale {
			t.Errorf("decimalDiv(%s, %s) = %s, exponent %d, want %d",
				tt.l, tt.r, got.String(), got.Exponent(), -tt.wantScale)
		}
	}
}

func TestDecimalDivExactQuotientValue(t *testing.T) {
	got := decimalDiv(decimal.NewFromInt(10), decimal.NewFromInt(4))
	want := decimal.NewFromFloat(2.5)
	if !got.Equal(want) {
		t.Errorf("decimalDiv(10, 4) = %s, want 2.5", got.String())
	}
}
