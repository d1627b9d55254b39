package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
)

// foldChain strips diacritics: NFKD decomposition, drop combining marks,
// recompose.
var foldChain = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Serbian Cyrillic to Latin, plus the Latin letters that survive NFKD with
// no decomposition (đ has no combining mark form).
var translit = strings.NewReplacer(
	"а", "a", "б", "b", "в", "v", "г", "g", "д", "d", "ђ", "dj",
	"е", "e", "ж", "z", "з", "z", "и", "i", "ј", "j", "к", "k",
	"л", "l", "љ", "lj", "м", "m", "н", "n", "њ", "nj", "о", "o",
	"п", "p", "р", "r", "с", "s", "т", "t", "ћ", "c", "у", "u",
	"ф", "f", "х", "h", "ц", "c", "ч", "c", "џ", "dz", "ш", "s",
	"đ", "dj", "ß", "ss",
)

// clubAffixes are dropped wherever they appear as standalone tokens, so
// "FK Partizan" and "Partizan" normalize identically.
var clubAffixes = map[string]bool{
	"fc": true, "fk": true, "sk": true, "bc": true, "hc": true,
	"kk": true, "rk": true, "ok": true, "sc": true, "ac": true,
	"as": true, "ss": true, "us": true, "cd": true, "cf": true,
	"sd": true, "ud": true, "rc": true, "nk": true, "afc": true,
	"sfc": true, "ssc": true, "club": true, "team": true, "tim": true,
}

// Team normalizes a raw team string into the deterministic form stored in
// team1_norm/team2_norm and scored by the resolver: diacritics folded,
// transliterated, lowercased, club affixes and punctuation removed,
// whitespace collapsed. Idempotent.
func Team(raw string) string {
	s, _, err := transform.String(foldChain, raw)
	if err != nil {
		s = raw
	}
	s = strings.ToLower(s)
	s = translit.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	kept := fields[:0]
	for _, f := range fields {
		if clubAffixes[f] || isYear(f) {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		// Affix-only names keep their tokens rather than vanish.
		kept = strings.Fields(strings.Join(fields, " "))
	}
	return strings.Join(kept, " ")
}

func isYear(tok string) bool {
	if len(tok) != 4 {
		return false
	}
	return strings.HasPrefix(tok, "19") || strings.HasPrefix(tok, "20")
}

// TeamForSport applies sport-specific rules on top of Team. Tennis reduces
// "Last, First" and "First Last" player forms to surname tokens.
func TeamForSport(sport enums.Sport, raw string) string {
	if sport == enums.Tennis || sport == enums.TableTennis {
		return tennisCanonical(raw)
	}
	return Team(raw)
}

// tennisCanonical reduces a player listing to the surname token. The part
// after a comma is the given name ("Djokovic, Novak"); without a comma the
// surname is the last token that is not a bare initial ("Novak Djokovic",
// "Djokovic N.", "Del Potro J." all reduce to one token).
func tennisCanonical(raw string) string {
	if i := strings.IndexByte(raw, ','); i >= 0 {
		raw = raw[:i]
	}
	s := Team(raw)
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if len(f) == 1 {
			continue
		}
		kept = append(kept, f)
	}
	switch len(kept) {
	case 0:
		return s
	case 1:
		return kept[0]
	default:
		return kept[len(kept)-1]
	}
}
