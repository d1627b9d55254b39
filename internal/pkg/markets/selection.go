package markets

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Selection grammar. A selection is one or more alternatives joined by "|";
// each alternative is one or more parts joined by "&"; each part is an
// optional "!" negation, an optional scope prefix (H1:, H2:, FT:) and a core
// token:
//
//	result        1, X, 2
//	team side     H, A (X = neither, first/last goal markets)
//	both to score GG, NG
//	correct score d:d           e.g. 2:1
//	exact count   T + digits    e.g. T0, T3
//	count range   a-b or n+     e.g. 0-2, 3+
//	HT/FT pair    r/r           e.g. 1/X (separator is always "/")
var (
	reScore     = regexp.MustCompile(`^\d{1,2}:\d{1,2}$`)
	reExact     = regexp.MustCompile(`^T\d{1,2}$`)
	reRange     = regexp.MustCompile(`^\d{1,2}-\d{1,2}$`)
	reOpenRange = regexp.MustCompile(`^\d{1,2}\+$`)
	reHTFT      = regexp.MustCompile(`^[1X2]/[1X2]$`)
	reDigits    = regexp.MustCompile(`^\d{1,2}$`)
)

// ValidateSelection checks a selection string against the grammar. The empty
// selection is rejected; arity >= 2 bet types never reach this path.
func ValidateSelection(sel string) error {
	if sel == "" {
		return fmt.Errorf("selection cannot be empty")
	}
	if sel != strings.TrimSpace(sel) || strings.Contains(sel, " ") {
		return fmt.Errorf("selection %q contains whitespace", sel)
	}
	for _, alt := range strings.Split(sel, "|") {
		if alt == "" {
			return fmt.Errorf("selection %q has an empty alternative", sel)
		}
		for _, part := range strings.Split(alt, "&") {
			if err := validatePart(part); err != nil {
				return fmt.Errorf("selection %q: %w", sel, err)
			}
		}
	}
	return nil
}

func validatePart(part string) error {
	if part == "" {
		return fmt.Errorf("empty part")
	}
	core := strings.TrimPrefix(part, "!")
	for _, prefix := range []string{"H1:", "H2:", "FT:"} {
		if strings.HasPrefix(core, prefix) {
			core = core[len(prefix):]
			break
		}
	}
	if core == "" {
		return fmt.Errorf("part %q has a prefix but no token", part)
	}
	switch core {
	case "1", "X", "2", "H", "A", "GG", "NG":
		return nil
	}
	if reRange.MatchString(core) {
		lo, hi, _ := strings.Cut(core, "-")
		a, _ := strconv.Atoi(lo)
		b, _ := strconv.Atoi(hi)
		if a >= b {
			return fmt.Errorf("range %q must increase", core)
		}
		return nil
	}
	if reScore.MatchString(core) || reExact.MatchString(core) ||
		reOpenRange.MatchString(core) || reHTFT.MatchString(core) {
		return nil
	}
	return fmt.Errorf("token %q is not in the selection grammar", core)
}

// IsCountToken reports whether sel is a bare goal count token: an exact
// count, a closed range or an open range.
func IsCountToken(sel string) bool {
	return reExact.MatchString(sel) || reRange.MatchString(sel) || reOpenRange.MatchString(sel)
}

// HTFT builds a halftime/fulltime selection from two result tokens.
func HTFT(ht, ft string) string {
	return ht + "/" + ft
}

// Score builds a correct score selection.
func Score(home, away int) string {
	return strconv.Itoa(home) + ":" + strconv.Itoa(away)
}

// ExactGoals builds an exact goal count selection.
func ExactGoals(n int) string {
	return "T" + strconv.Itoa(n)
}

// Half scopes a selection part to the first or second half.
func Half(half int, inner string) string {
	if half == 2 {
		return "H2:" + inner
	}
	return "H1:" + inner
}

// FullTime scopes a selection part explicitly to full time, used inside
// combos that mix half-scoped and match-scoped parts.
func FullTime(inner string) string {
	return "FT:" + inner
}

// And joins selection parts with the AND separator.
func And(parts ...string) string {
	return strings.Join(parts, "&")
}

// Or joins selection alternatives with the OR separator.
func Or(alts ...string) string {
	return strings.Join(alts, "|")
}

// Negate marks a selection part as "anything but".
func Negate(part string) string {
	return "!" + part
}
