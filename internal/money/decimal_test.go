package money

import "testing"

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		minorUnits int64
		scale      int
		want       string
	}{
		{10250, 2, "102.5"},
		{10000, 2, "100"},
		{5, 2, "0.05"},
		{-1025, 2, "-10.25"},
		{7, 0, "7"},
	}
	for _, c := range cases {
		got := FormatPrice(c.minorUnits, c.scale)
		if got != c.want {
			t.Errorf("FormatPrice(%d, %d) = %q, want %q", c.minorUnits, c.scale, got, c.want)
		}
	}
}

func TestDivTruncates(t *testing.T) {
	avg := FromMinorUnits(310, 0).Div(FromMinorUnits(3, 0), 2)
	if got := avg.String(); got != "103.33" {
		t.Fatalf("expected 103.33, got %s", got)
	}
}
