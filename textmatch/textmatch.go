// Package textmatch provides the string-similarity scoring shared by the
// expansion planner and the fuzzy element matcher.
package textmatch

import (
	"strings"

	"github.com/adrg/strutil"
)

// Similarity returns a score in [0, 1] for how alike a and b are, ignoring
// case. It uses the Ratcliff/Obershelp gestalt ratio, so punctuation and
// small suffix differences ("See More" vs "See more...") still score high.
func Similarity(a, b string) float64 {
	return strutil.Similarity(strings.ToLower(a), strings.ToLower(b), ratcliffObershelp{})
}

// ratcliffObershelp implements strutil.StringMetric with the gestalt
// pattern-matching ratio: twice the number of matching characters over the
// combined length, where matches are found by recursively taking the longest
// common substring and descending into the unmatched regions on either side.
type ratcliffObershelp struct{}

func (ratcliffObershelp) Compare(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	return 2 * float64(commonChars(ra, rb)) / float64(len(ra)+len(rb))
}

// commonChars counts the matched characters: the longest common substring,
// plus the matches found recursively to its left and right.
func commonChars(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	return size + commonChars(a[:ai], b[:bi]) + commonChars(a[ai+size:], b[bi+size:])
}

// longestCommonSubstring returns the start offsets and length of the longest
// run of characters shared by a and b, using a two-row dynamic program.
func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					ai = i - size
					bi = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return ai, bi, size
}
