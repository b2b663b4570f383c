package router

import "testing"

func TestGetPriceImpactSeverity(t *testing.T) {
	tests := []struct {
		bps      uint16
		expected PriceImpactSeverity
	}{
		{0, SeverityNone},
		{99, SeverityNone},
		{100, SeverityLow},
		{299, SeverityLow},
		{300, SeverityModerate},
		{499, SeverityModerate},
		{500, SeverityHigh},
		{999, SeverityHigh},
		{1000, SeverityExtreme},
		{10_000, SeverityExtreme},
	}

	for _, tt := range tests {
		if got := GetPriceImpactSeverity(tt.bps); got != tt.expected {
			t.Errorf("severity(%d) = %s, want %s", tt.bps, got, tt.expected)
		}
	}
}
