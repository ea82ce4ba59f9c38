package roulette

import (
	"errors"
	"math"
	"testing"

	"serotonyl.ru/gift-roulette/internal/common"
)

func newTestSelector(t *testing.T) (*Selector, *Catalog) {
	t.Helper()

	catalog, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	return NewSelector(catalog, 42, 1024), catalog
}

func TestPick_Boundaries(t *testing.T) {
	_, catalog := newTestSelector(t)
	rewards, _, _ := catalog.Distribution("swiss")

	tests := []struct {
		r    int
		want string
	}{
		{0, "5170233102089322756"},
		{3999, "5170233102089322756"},
		{4000, "5170145012310081615"},
		{57999, "5168043875654172773"},
		{58000, "5170564780938756245"},
		{98999, "5782984811920491178"},
		{99000, "9996"},
		{99999, "9996"},
	}

	for _, tt := range tests {
		if got := pick(rewards, tt.r); got != tt.want {
			t.Fatalf("unexpected gift for r=%d: got=%q want=%q", tt.r, got, tt.want)
		}
	}
}

func TestSelector_UnknownCase(t *testing.T) {
	selector, _ := newTestSelector(t)

	if _, err := selector.Draw("nonexistent_case"); !errors.Is(err, common.ErrUnknownCase) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSelector_ReseedIsDeterministic(t *testing.T) {
	selector, _ := newTestSelector(t)

	draw := func() []string {
		out := make([]string, 50)
		for i := range out {
			g, err := selector.Draw("swiss")
			if err != nil {
				t.Fatalf("Draw failed: %v", err)
			}
			out[i] = g
		}
		return out
	}

	selector.Reseed(7, 7)
	first := draw()
	selector.Reseed(7, 7)
	second := draw()

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("draw #%d differs after reseed: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestSelector_DistributionFidelity(t *testing.T) {
	selector, catalog := newTestSelector(t)
	rewards, total, _ := catalog.Distribution("swiss")

	const trials = 100000
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		g, err := selector.Draw("swiss")
		if err != nil {
			t.Fatalf("Draw failed: %v", err)
		}
		counts[g]++
	}

	prev := 0
	declared := 0
	for _, r := range rewards {
		want := float64(r.Bound-prev) / float64(total)
		got := float64(counts[r.GiftNumber]) / trials
		// ~8 стандартных отклонений для худшей корзины (14%)
		if math.Abs(got-want) > 0.009 {
			t.Fatalf("gift %s frequency out of tolerance: got=%.4f want=%.4f", r.GiftNumber, got, want)
		}
		declared += counts[r.GiftNumber]
		prev = r.Bound
	}
	if declared != trials {
		t.Fatalf("draws outside declared gifts: got=%d want=%d", declared, trials)
	}

	first := float64(counts[rewards[0].GiftNumber]) / trials
	if math.Abs(first-0.04) > 0.005 {
		t.Fatalf("first bucket frequency: got=%.4f want=0.04", first)
	}
}
