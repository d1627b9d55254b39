package arb

import (
	"math"
	"testing"
	"time"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
	"github.com/nstojkov/betsnipe/internal/pkg/models"
	"github.com/nstojkov/betsnipe/internal/pkg/storage"
)

var (
	kickoff = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	now     = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
)

func ptr(v float64) *float64 { return &v }

func snap(matchID int64, provider, betType int, margin float64, sel string, p1 float64, p2, p3 *float64) storage.OddsSnapshot {
	return storage.OddsSnapshot{
		CurrentOdds: models.CurrentOdds{
			MatchID:    matchID,
			ProviderID: provider,
			BetTypeID:  betType,
			Margin:     margin,
			Selection:  sel,
			P1:         p1,
			P2:         p2,
			P3:         p3,
		},
		Sport:     enums.Football,
		StartTime: kickoff,
	}
}

func TestDetectThreeWayAcrossProviders(t *testing.T) {
	d := New(1.0)
	res := d.Detect([]storage.OddsSnapshot{
		snap(1, 1, markets.BT1X2, 0, "", 2.10, ptr(3.50), ptr(4.20)),
		snap(1, 2, markets.BT1X2, 0, "", 2.30, ptr(3.60), ptr(3.80)),
	}, now)

	if len(res.Opportunities) != 1 {
		t.Fatalf("found %d opportunities, want 1", len(res.Opportunities))
	}
	arb := res.Opportunities[0]

	if arb.ProfitPct != 5.19 {
		t.Errorf("profit = %.4f, want 5.19", arb.ProfitPct)
	}
	wantLegs := []models.Leg{
		{ProviderID: 2, OutcomeIndex: 0, Price: 2.30},
		{ProviderID: 2, OutcomeIndex: 1, Price: 3.60},
		{ProviderID: 1, OutcomeIndex: 2, Price: 4.20},
	}
	for i, want := range wantLegs {
		got := arb.Legs[i]
		if got.ProviderID != want.ProviderID || got.OutcomeIndex != want.OutcomeIndex || got.Price != want.Price {
			t.Errorf("leg %d = %+v, want %+v", i, got, want)
		}
	}

	wantStakes := []float64{0.45735, 0.29220, 0.25045}
	sum := 0.0
	for i, stake := range arb.Stakes {
		sum += stake
		if math.Abs(stake-wantStakes[i]) > 1e-4 {
			t.Errorf("stake %d = %.5f, want %.5f", i, stake, wantStakes[i])
		}
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("stakes sum to %.12f, want 1", sum)
	}

	if !arb.ExpiresAt.Equal(kickoff) {
		t.Errorf("expires at %v, want kick-off %v", arb.ExpiresAt, kickoff)
	}
	if !arb.Active {
		t.Error("detected opportunity not active")
	}
	if len(res.LiveHashes) != 1 || res.LiveHashes[0] != arb.ContentHash {
		t.Errorf("live hashes = %v", res.LiveHashes)
	}
}

func TestDetectTwoWayTieBreaksLowestProvider(t *testing.T) {
	d := New(1.0)
	res := d.Detect([]storage.OddsSnapshot{
		snap(2, 5, markets.BTWinner, 0, "", 2.05, ptr(2.08), nil),
		snap(2, 2, markets.BTWinner, 0, "", 2.05, ptr(2.10), nil),
	}, now)

	if len(res.Opportunities) != 1 {
		t.Fatalf("found %d opportunities, want 1", len(res.Opportunities))
	}
	arb := res.Opportunities[0]
	if arb.Legs[0].ProviderID != 2 {
		t.Errorf("tied price went to provider %d, want 2", arb.Legs[0].ProviderID)
	}
	if arb.ProfitPct != 3.73 {
		t.Errorf("profit = %.4f, want 3.73", arb.ProfitPct)
	}
}

func TestDetectNothingWithoutOverround(t *testing.T) {
	d := New(1.0)
	res := d.Detect([]storage.OddsSnapshot{
		snap(3, 1, markets.BTWinner, 0, "", 1.85, ptr(1.85), nil),
	}, now)

	if len(res.Opportunities) != 0 || len(res.LiveHashes) != 0 {
		t.Errorf("result = %+v, want empty", res)
	}
}

func TestDetectBelowFloorStaysLive(t *testing.T) {
	// 2.01/2.01 implies 0.5% profit: under the 1% floor but still live.
	d := New(1.0)
	res := d.Detect([]storage.OddsSnapshot{
		snap(4, 1, markets.BTWinner, 0, "", 2.01, ptr(2.01), nil),
	}, now)

	if len(res.Opportunities) != 0 {
		t.Errorf("found %d opportunities, want 0 below floor", len(res.Opportunities))
	}
	if len(res.LiveHashes) != 1 {
		t.Errorf("live hashes = %d, want 1", len(res.LiveHashes))
	}
}

func TestDetectHTFTPartition(t *testing.T) {
	partition, ok := markets.PartitionFor(markets.BTHTFT)
	if !ok {
		t.Fatal("ht_ft has no partition")
	}

	var rows []storage.OddsSnapshot
	for _, sel := range partition {
		rows = append(rows, snap(5, 1, markets.BTHTFT, 0, sel, 10.0, nil, nil))
	}
	rows = append(rows, snap(5, 2, markets.BTHTFT, 0, "X/X", 12.0, nil, nil))

	d := New(1.0)
	res := d.Detect(rows, now)
	if len(res.Opportunities) != 1 {
		t.Fatalf("found %d opportunities, want 1", len(res.Opportunities))
	}
	arb := res.Opportunities[0]

	if len(arb.Legs) != len(partition) {
		t.Fatalf("legs = %d, want %d", len(arb.Legs), len(partition))
	}
	for i, leg := range arb.Legs {
		if leg.Selection != partition[i] || leg.OutcomeIndex != i {
			t.Errorf("leg %d = %+v, want selection %s", i, leg, partition[i])
		}
	}
	// X/X is outcome 4 and must come from provider 2 at the better price.
	if arb.Legs[4].ProviderID != 2 || arb.Legs[4].Price != 12.0 {
		t.Errorf("X/X leg = %+v, want provider 2 at 12.0", arb.Legs[4])
	}
	if arb.ProfitPct != 13.21 {
		t.Errorf("profit = %.4f, want 13.21", arb.ProfitPct)
	}
}

func TestDetectPartitionNeedsFullCoverage(t *testing.T) {
	partition, _ := markets.PartitionFor(markets.BTHTFT)

	var rows []storage.OddsSnapshot
	for _, sel := range partition[:len(partition)-1] {
		rows = append(rows, snap(6, 1, markets.BTHTFT, 0, sel, 20.0, nil, nil))
	}

	d := New(1.0)
	res := d.Detect(rows, now)
	if len(res.Opportunities) != 0 || len(res.LiveHashes) != 0 {
		t.Errorf("incomplete partition combined: %+v", res)
	}
}

func TestDetectPartitionlessSelectionsNeverCombine(t *testing.T) {
	d := New(1.0)
	res := d.Detect([]storage.OddsSnapshot{
		snap(7, 1, markets.BTCorrectScore, 0, "1:0", 8.0, nil, nil),
		snap(7, 1, markets.BTCorrectScore, 0, "2:0", 9.0, nil, nil),
		snap(7, 2, markets.BTCorrectScore, 0, "0:0", 11.0, nil, nil),
	}, now)

	if len(res.Opportunities) != 0 || len(res.LiveHashes) != 0 {
		t.Errorf("open selection set combined: %+v", res)
	}
}

func TestDetectSplitsGroupsByMargin(t *testing.T) {
	// The 2.5 and 3.5 lines are different markets. Mixing their best prices
	// (2.40 and 2.40) would imply a fake 20% profit.
	d := New(1.0)
	res := d.Detect([]storage.OddsSnapshot{
		snap(8, 1, markets.BTTotal, 2.5, "", 2.40, ptr(1.55), nil),
		snap(8, 2, markets.BTTotal, 3.5, "", 1.50, ptr(2.40), nil),
	}, now)

	if len(res.Opportunities) != 0 {
		t.Errorf("cross-margin rows combined: %+v", res.Opportunities)
	}
}

func TestContentHashIgnoresRowOrder(t *testing.T) {
	rows := []storage.OddsSnapshot{
		snap(9, 1, markets.BT1X2, 0, "", 2.10, ptr(3.50), ptr(4.20)),
		snap(9, 2, markets.BT1X2, 0, "", 2.30, ptr(3.60), ptr(3.80)),
	}
	reversed := []storage.OddsSnapshot{rows[1], rows[0]}

	d := New(1.0)
	a := d.Detect(rows, now)
	b := d.Detect(reversed, now)
	if len(a.Opportunities) != 1 || len(b.Opportunities) != 1 {
		t.Fatalf("detections = %d/%d, want 1/1", len(a.Opportunities), len(b.Opportunities))
	}
	if a.Opportunities[0].ContentHash != b.Opportunities[0].ContentHash {
		t.Errorf("hash depends on row order: %s vs %s",
			a.Opportunities[0].ContentHash, b.Opportunities[0].ContentHash)
	}
	if len(a.Opportunities[0].ContentHash) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a.Opportunities[0].ContentHash))
	}
}

func TestContentHashSeparatesMatches(t *testing.T) {
	d := New(1.0)
	res := d.Detect([]storage.OddsSnapshot{
		snap(10, 1, markets.BTWinner, 0, "", 2.10, ptr(2.10), nil),
		snap(11, 1, markets.BTWinner, 0, "", 2.10, ptr(2.10), nil),
	}, now)

	if len(res.Opportunities) != 2 {
		t.Fatalf("found %d opportunities, want 2", len(res.Opportunities))
	}
	if res.Opportunities[0].ContentHash == res.Opportunities[1].ContentHash {
		t.Error("identical legs on different matches share a hash")
	}
}
