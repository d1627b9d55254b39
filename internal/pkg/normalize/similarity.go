package normalize

import (
	"sort"
	"strings"
)

// Ratio is a similarity score in [0,100] between two strings, 100 for equal,
// based on Levenshtein distance over the longer length.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}
	longer := la
	if lb > longer {
		longer = lb
	}
	d := levenshtein(a, b)
	return int(float64(longer-d) / float64(longer) * 100)
}

// TokenSortRatio sorts the tokens of both strings before comparing, so word
// order ("Partizan Beograd" vs "Beograd Partizan") does not lower the score.
func TokenSortRatio(a, b string) int {
	return Ratio(sortTokens(a), sortTokens(b))
}

func sortTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// PairScore scores two normalized team pairs in both orientations (home/home
// or home/away swapped) and returns the better one. Providers sometimes list
// the same fixture with the teams flipped.
func PairScore(home1, away1, home2, away2 string) int {
	straight := (TokenSortRatio(home1, home2) + TokenSortRatio(away1, away2)) / 2
	flipped := (TokenSortRatio(home1, away2) + TokenSortRatio(away1, home2)) / 2
	if flipped > straight {
		return flipped
	}
	return straight
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
