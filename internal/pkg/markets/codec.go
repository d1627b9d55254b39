package markets

import (
	"fmt"
	"math"
	"strconv"
)

// Key names a real-world wager independently of the provider that offered
// it: the bet type, the selection string (arity-1 types only) and the numeric
// margin (handicap line or total threshold, 0 when the type has none).
type Key struct {
	BetTypeID int
	Selection string
	Margin    float64
}

// EncodeFunc translates one provider's vendor market code or name plus its
// raw parameters into a canonical key. ok = false means the vendor market is
// unknown; that is not an error, the caller reports it on the unmapped
// channel and drops the row.
type EncodeFunc func(vendor string, params map[string]string) (Key, bool)

var encoders = map[int]EncodeFunc{}

// RegisterEncoder installs the encoder for a provider id. An adapter
// registers at most one; duplicates are a programming error.
func RegisterEncoder(providerID int, fn EncodeFunc) {
	if fn == nil {
		panic("markets: encoder cannot be nil")
	}
	if _, dup := encoders[providerID]; dup {
		panic(fmt.Sprintf("markets: encoder for provider %d registered twice", providerID))
	}
	encoders[providerID] = fn
}

// Encode runs the registered encoder for a provider. It backs the
// cross-provider audit fixtures; adapters call their own encoders directly.
func Encode(providerID int, vendor string, params map[string]string) (Key, bool) {
	fn, ok := encoders[providerID]
	if !ok {
		return Key{}, false
	}
	return fn(vendor, params)
}

// Decode renders a canonical key as a human-readable label for publisher
// payloads and the read API.
func Decode(key Key) string {
	bt, ok := betTypes[key.BetTypeID]
	if !ok {
		return fmt.Sprintf("bet_type_%d", key.BetTypeID)
	}
	label := bt.Name
	if key.Margin != 0 {
		label += " " + FormatMargin(key.Margin)
	}
	if key.Selection != "" {
		label += " " + key.Selection
	}
	return label
}

// FormatMargin renders a margin without trailing zeros, signed for handicap
// style negative lines.
func FormatMargin(m float64) string {
	s := strconv.FormatFloat(m, 'f', -1, 64)
	if m > 0 {
		return "+" + s
	}
	return s
}

// RoundMargin snaps a margin to the storage tick (two decimals) so float
// noise cannot split one line into several keys.
func RoundMargin(m float64) float64 {
	return math.Round(m*100) / 100
}

// RoundPrice snaps a price to the three-decimal storage tick at ingestion,
// so feed noise cannot move stored rows or the arbitrage content hash.
func RoundPrice(p float64) float64 {
	return math.Round(p*1000) / 1000
}

// Validate rejects rows whose bet type, arity, price count or selection
// syntax violate the canonical contract. p2 and p3 must be nil exactly where
// the arity says they carry no meaning.
func Validate(key Key, p1 float64, p2, p3 *float64) error {
	bt, ok := betTypes[key.BetTypeID]
	if !ok {
		return fmt.Errorf("unknown bet type %d", key.BetTypeID)
	}
	if math.IsNaN(key.Margin) || math.IsInf(key.Margin, 0) {
		return fmt.Errorf("%s: margin is not finite", bt.Name)
	}

	switch bt.Arity {
	case 1:
		if err := ValidateSelection(key.Selection); err != nil {
			return fmt.Errorf("%s: %w", bt.Name, err)
		}
		if p2 != nil || p3 != nil {
			return fmt.Errorf("%s: arity 1 row carries extra prices", bt.Name)
		}
	case 2:
		if key.Selection != "" {
			return fmt.Errorf("%s: arity 2 row carries a selection %q", bt.Name, key.Selection)
		}
		if p2 == nil {
			return fmt.Errorf("%s: arity 2 row is missing p2", bt.Name)
		}
		if p3 != nil {
			return fmt.Errorf("%s: arity 2 row carries p3", bt.Name)
		}
	case 3:
		if key.Selection != "" {
			return fmt.Errorf("%s: arity 3 row carries a selection %q", bt.Name, key.Selection)
		}
		if p2 == nil || p3 == nil {
			return fmt.Errorf("%s: arity 3 row needs p2 and p3", bt.Name)
		}
	}

	if err := validPrice(p1); err != nil {
		return fmt.Errorf("%s p1: %w", bt.Name, err)
	}
	if p2 != nil {
		if err := validPrice(*p2); err != nil {
			return fmt.Errorf("%s p2: %w", bt.Name, err)
		}
	}
	if p3 != nil {
		if err := validPrice(*p3); err != nil {
			return fmt.Errorf("%s p3: %w", bt.Name, err)
		}
	}
	return nil
}

func validPrice(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return fmt.Errorf("price is not finite")
	}
	if p <= 1.0 {
		return fmt.Errorf("price %v must exceed 1.0", p)
	}
	if p > 1000 {
		return fmt.Errorf("price %v too high (suspicious)", p)
	}
	return nil
}
