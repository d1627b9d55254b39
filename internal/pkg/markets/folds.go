package markets

import (
	"fmt"
	"strconv"
	"strings"
)

// Folding helpers shared by the provider adapters. Each vendor family spells
// the same wager differently; everything here folds those spellings into the
// single canonical form so two providers can never disagree on a key.

// NormalizeHTFT rewrites halftime/fulltime selections that use "-" as the
// separator into the canonical "/" form. Inputs already in canonical form
// pass through unchanged; anything else is returned as-is.
func NormalizeHTFT(sel string) string {
	if reHTFT.MatchString(sel) {
		return sel
	}
	if len(sel) == 3 && sel[1] == '-' {
		fixed := string(sel[0]) + "/" + string(sel[2])
		if reHTFT.MatchString(fixed) {
			return fixed
		}
	}
	return sel
}

// dcMembers maps a double chance side label onto its member results, in
// canonical 1, X, 2 order.
var dcMembers = map[string][]string{
	"1":  {"1"},
	"X":  {"X"},
	"2":  {"2"},
	"1X": {"1", "X"},
	"12": {"1", "2"},
	"X2": {"X", "2"},
}

// ExpandHTFTDouble rewrites a halftime/fulltime pair whose sides may be
// double chance labels ("1X/12") into the canonical alternative form
// ("1/1|1/2|X/1|X/2"). Plain pairs and non HT/FT selections pass through.
func ExpandHTFTDouble(sel string) string {
	sel = NormalizeHTFT(sel)
	parts := strings.SplitN(sel, "/", 2)
	if len(parts) != 2 {
		return sel
	}
	ht, ok := dcMembers[parts[0]]
	if !ok {
		return sel
	}
	ft, ok := dcMembers[parts[1]]
	if !ok {
		return sel
	}
	if len(ht) == 1 && len(ft) == 1 {
		return sel
	}
	alts := make([]string, 0, len(ht)*len(ft))
	for _, h := range ht {
		for _, f := range ft {
			alts = append(alts, HTFT(h, f))
		}
	}
	return Or(alts...)
}

// InvertHandicap converts a line reported in the negated convention (vendor
// negative = home advantage) into the canonical positive = home advantage.
func InvertHandicap(line float64) float64 {
	if line == 0 {
		return 0
	}
	return -line
}

// EuroHandicapMargin parses a European handicap spelled "home:away" (goals
// added to each side) into the canonical signed margin, away minus home.
func EuroHandicapMargin(spec string) (float64, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("european handicap %q: want home:away", spec)
	}
	home, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, fmt.Errorf("european handicap %q: %w", spec, err)
	}
	away, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("european handicap %q: %w", spec, err)
	}
	return away - home, nil
}

// LocalScope is the half/team scope a localized label carries in front of
// the selection body ("DI 2+" = home team, first half).
type LocalScope struct {
	Half int // 0 match, 1, 2
	Team int // 0 none, 1 home, 2 away
}

// localScopePrefixes in match-longest-first order. D = home, G = away,
// Roman I/II = half.
var localScopePrefixes = []struct {
	prefix string
	scope  LocalScope
}{
	{"DII ", LocalScope{Half: 2, Team: 1}},
	{"GII ", LocalScope{Half: 2, Team: 2}},
	{"DI ", LocalScope{Half: 1, Team: 1}},
	{"GI ", LocalScope{Half: 1, Team: 2}},
	{"II ", LocalScope{Half: 2}},
	{"I ", LocalScope{Half: 1}},
	{"D ", LocalScope{Team: 1}},
	{"G ", LocalScope{Team: 2}},
}

// SplitLocalScope strips a localized half/team prefix off a selection label
// and reports what it scoped. The rest still needs FoldLocalTokens.
func SplitLocalScope(label string) (LocalScope, string) {
	for _, p := range localScopePrefixes {
		if strings.HasPrefix(label, p.prefix) {
			return p.scope, strings.TrimSpace(label[len(p.prefix):])
		}
	}
	return LocalScope{}, label
}

var localTokenReplacer = strings.NewReplacer(
	"Tim1", "H",
	"Tim2", "A",
	"TIM1", "H",
	"TIM2", "A",
)

// FoldLocalTokens rewrites localized selection bodies into grammar tokens:
// team labels D/G and Tim1/Tim2 become H/A, "NE " negation becomes "!",
// " v " alternatives become "|", "N gol." exact counts become TN, and
// whitespace is dropped. GG/NG pass through.
func FoldLocalTokens(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return body
	}
	if neg, ok := strings.CutPrefix(body, "NE "); ok {
		return Negate(FoldLocalTokens(neg))
	}
	if strings.Contains(body, " v ") {
		alts := strings.Split(body, " v ")
		for i := range alts {
			alts[i] = FoldLocalTokens(alts[i])
		}
		return Or(alts...)
	}
	if n, ok := strings.CutSuffix(body, " gol."); ok {
		if reDigits.MatchString(n) {
			count, _ := strconv.Atoi(n)
			return ExactGoals(count)
		}
	}
	body = localTokenReplacer.Replace(body)
	if body == "D" {
		return "H"
	}
	if body == "G" {
		return "A"
	}
	return strings.Join(strings.Fields(body), "")
}

// ApplyScope turns a LocalScope plus folded body into a canonical part.
func ApplyScope(scope LocalScope, body string) string {
	if scope.Half != 0 {
		return Half(scope.Half, body)
	}
	return body
}

// ScopeFullTime prefixes FT: onto every unscoped count part of a combo that
// already carries a half-scoped part, so "H1:1+&2+" reads "H1:1+&FT:2+".
func ScopeFullTime(sel string) string {
	if !strings.Contains(sel, "&") {
		return sel
	}
	parts := strings.Split(sel, "&")
	hasHalf := false
	for _, p := range parts {
		if strings.HasPrefix(p, "H1:") || strings.HasPrefix(p, "H2:") {
			hasHalf = true
			break
		}
	}
	if !hasHalf {
		return sel
	}
	for i, p := range parts {
		if strings.HasPrefix(p, "H1:") || strings.HasPrefix(p, "H2:") ||
			strings.HasPrefix(p, "FT:") || strings.HasPrefix(p, "!") {
			continue
		}
		if reDigits.MatchString(p) || IsCountToken(p) {
			parts[i] = FullTime(p)
		}
	}
	return And(parts...)
}

// RerouteExactGoals fixes vendors that put an exact count inside a goal
// count bet type: standalone digits take the T prefix, and inside the
// generic goal range type the row moves to the dedicated exact goals type.
func RerouteExactGoals(betTypeID int, sel string) (int, string) {
	if !IsGoalCount(betTypeID) {
		return betTypeID, sel
	}
	switch {
	case reDigits.MatchString(sel):
		count, _ := strconv.Atoi(sel)
		sel = ExactGoals(count)
	case reExact.MatchString(sel):
	default:
		return betTypeID, sel
	}
	if betTypeID == BTGoalsRange {
		betTypeID = BTExactGoals
	}
	return betTypeID, sel
}

// FirstGoalSide folds localized first/last goal outcome labels to the
// canonical H/A/X team side tokens.
func FirstGoalSide(label string) (string, bool) {
	switch strings.TrimSpace(label) {
	case "1", "Tim1", "D", "Domacin", "Domaćin", "H":
		return "H", true
	case "2", "Tim2", "G", "Gost", "A":
		return "A", true
	case "X", "Niko", "Nijedan", "Nijedna":
		return "X", true
	}
	return "", false
}

// ExpandScoreShortcut turns the two-digit correct score shorthand some
// vendors emit ("10" meaning 1:0) into the canonical d:d form.
func ExpandScoreShortcut(sel string) string {
	if len(sel) == 2 && sel[0] >= '0' && sel[0] <= '9' && sel[1] >= '0' && sel[1] <= '9' {
		return Score(int(sel[0]-'0'), int(sel[1]-'0'))
	}
	return sel
}
