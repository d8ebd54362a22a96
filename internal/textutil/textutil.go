// Package textutil contains the small lexical helpers shared by the scoring,
// consensus and lineage packages: tokenization, keyword hit counting and
// syllable extraction. All functions are pure.
package textutil

import (
	"strings"
	"unicode"
)

// Tokenize lowercases the input and splits it on any non letter/digit rune.
// Empty tokens are dropped.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// CountHits returns the total number of token occurrences that appear in the
// vocabulary.
func CountHits(text string, vocabulary []string) int {
	vocab := toSet(vocabulary)
	count := 0
	for _, tok := range Tokenize(text) {
		if _, ok := vocab[tok]; ok {
			count++
		}
	}
	return count
}

// DistinctHits returns the distinct vocabulary words present in the text,
// preserving vocabulary order.
func DistinctHits(text string, vocabulary []string) []string {
	present := toSet(nil)
	for _, tok := range Tokenize(text) {
		present[tok] = struct{}{}
	}
	var hits []string
	for _, w := range vocabulary {
		if _, ok := present[strings.ToLower(w)]; ok {
			hits = append(hits, w)
		}
	}
	return hits
}

// OverlapScore is the fraction of distinct query tokens found in the text,
// in [0,1]. An empty query scores 0.
func OverlapScore(query, text string) float64 {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return 0
	}
	textSet := toSet(Tokenize(text))
	distinct := toSet(nil)
	matched := 0
	for _, qt := range queryTokens {
		if _, seen := distinct[qt]; seen {
			continue
		}
		distinct[qt] = struct{}{}
		if _, ok := textSet[qt]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(distinct))
}

// Keywords extracts candidate keywords from the text: tokens longer than
// minLen that are not stoplisted, deduplicated in order of appearance, up to
// max entries. Pass max <= 0 for no limit.
func Keywords(text string, minLen, max int, stoplist []string) []string {
	stop := toSet(stoplist)
	seen := toSet(nil)
	var out []string
	for _, tok := range Tokenize(text) {
		if len(tok) <= minLen {
			continue
		}
		if _, ok := stop[tok]; ok {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// Syllables splits a name into vowel-bounded syllables: each syllable is the
// run of consonants leading up to and including a vowel group. A trailing
// consonant run without a vowel is dropped. Non-letter runes are separators.
func Syllables(name string) []string {
	var out []string
	var current strings.Builder
	sawVowel := false
	flush := func() {
		if current.Len() > 0 && sawVowel {
			out = append(out, current.String())
		}
		current.Reset()
		sawVowel = false
	}
	for _, r := range strings.ToLower(name) {
		if !unicode.IsLetter(r) {
			flush()
			continue
		}
		if isVowel(r) {
			current.WriteRune(r)
			sawVowel = true
			continue
		}
		// consonant after a vowel group starts the next syllable
		if sawVowel {
			flush()
		}
		current.WriteRune(r)
	}
	flush()
	return out
}

// Capitalize uppercases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	default:
		return false
	}
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}
