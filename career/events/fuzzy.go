package events

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultFuzzyThreshold is the minimum token-sort similarity for a
// correction to be adopted.
const DefaultFuzzyThreshold = 0.8

// TokenSortRatio sorts the whitespace-separated tokens of both strings
// alphabetically and returns 1 - editDistance/maxLen over the results, in
// [0, 1].
func TokenSortRatio(a, b string) float64 {
	sa, sb := sortTokens(a), sortTokens(b)
	if sa == sb {
		return 1
	}
	longest := utf8.RuneCountInString(sa)
	if n := utf8.RuneCountInString(sb); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(sa, sb)
	return 1 - float64(d)/float64(longest)
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// Match is a fuzzy lookup result.
type Match struct {
	Key   string
	Score float64
}

// BestMatch scores query against every key and returns the best one when it
// reaches threshold. Keys are scanned in sorted order so equal scores pick
// the same key every time; an exact key always wins.
func BestMatch(query string, keys []string, threshold float64) (Match, bool) {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	best := Match{Score: -1}
	for _, k := range sorted {
		if k == query {
			return Match{Key: k, Score: 1}, true
		}
		score := TokenSortRatio(query, k)
		if score > best.Score {
			best = Match{Key: k, Score: score}
		}
	}
	if best.Score < threshold {
		return best, false
	}
	return best, true
}
