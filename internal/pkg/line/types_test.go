package line

import (
	"testing"

	"github.com/nstojkov/betsnipe/internal/pkg/markets"
)

func TestAddPricesSnapsTicks(t *testing.T) {
	var m RawMatch
	ok := m.AddPrices(
		markets.Key{BetTypeID: markets.BTTotal, Margin: 2.5000001},
		1.8499999999, Ptr(1.9500000001), nil,
	)
	if !ok {
		t.Fatal("row rejected")
	}
	o := m.Odds[0]
	if o.Key.Margin != 2.5 {
		t.Errorf("margin = %v, want 2.5", o.Key.Margin)
	}
	if o.P1 != 1.85 || *o.P2 != 1.95 {
		t.Errorf("prices = %v/%v, want 1.85/1.95", o.P1, *o.P2)
	}
}

func TestAddPricesLeavesCallerValues(t *testing.T) {
	var m RawMatch
	p2 := 1.9500000001
	m.AddPrices(markets.Key{BetTypeID: markets.BTTotal, Margin: 2.5}, 1.85, &p2, nil)
	if p2 != 1.9500000001 {
		t.Errorf("caller value mutated: %v", p2)
	}
}

func TestAddPricesCountsDrops(t *testing.T) {
	var m RawMatch
	if m.AddPrices(markets.Key{BetTypeID: markets.BT1X2}, 2.10, nil, nil) {
		t.Fatal("arity violation accepted")
	}
	if m.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", m.Dropped)
	}
	if m.HasOdds() {
		t.Errorf("odds appended on drop: %v", m.Odds)
	}
}
