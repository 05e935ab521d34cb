package failure

import "testing"

func TestHostCountRoundsUp(t *testing.T) {
	cases := []struct {
		total    int
		fraction float64
		want     int
	}{
		{4, 0.5, 2},
		{4, 0.26, 2},
		{4, 1, 4},
		{3, 1.0 / 3.0, 1},
	}
	for _, c := range cases {
		if got := hostCount(c.total, c.fraction); got != c.want {
			t.Errorf("hostCount(%d, %v) = %d, want %d", c.total, c.fraction, got, c.want)
		}
	}
}
