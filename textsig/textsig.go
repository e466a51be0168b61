// Package textsig computes 64-bit similarity fingerprints over plain text.
// The pipeline uses it to judge whether an expansion click actually changed
// the page text: two OCR passes of the same content hash close together,
// while genuinely expanded content lands far apart.
package textsig

import (
	"hash/fnv"
	"math/bits"
	"strings"
)

// shingleSize is the word-window width used for shingling. Three-word
// shingles keep local word order relevant without making the fingerprint
// oversensitive to OCR noise.
const shingleSize = 3

// Fingerprint returns a simhash-style 64-bit fingerprint of the text.
// Whitespace-only input yields 0.
func Fingerprint(text string) uint64 {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return 0
	}

	features := makeShingles(tokens, shingleSize)
	if features == nil {
		features = tokens
	}

	var counts [64]int
	for _, f := range features {
		h := fnv.New64a()
		_, _ = h.Write([]byte(f))
		sum := h.Sum64()
		for bit := 0; bit < 64; bit++ {
			if sum&(1<<uint(bit)) != 0 {
				counts[bit]++
			} else {
				counts[bit]--
			}
		}
	}

	var fp uint64
	for bit := 0; bit < 64; bit++ {
		if counts[bit] > 0 {
			fp |= 1 << uint(bit)
		}
	}
	return fp
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar reports whether two fingerprints are within maxDistance bits.
func Similar(a, b uint64, maxDistance int) bool {
	return Distance(a, b) <= maxDistance
}

// makeShingles joins each n-gram of tokens with underscores. Returns nil
// when there are fewer tokens than n.
func makeShingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	shingles := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+n], "_"))
	}
	return shingles
}
