// ABOUTME: Textual mention scanning for companions
// ABOUTME: Finds which companions a message refers to, ordered by first occurrence

package companion

import (
	"sort"
	"strings"
)

// Mentions returns the companions from pool whose name appears in text,
// ordered by the position of each name's first occurrence. Matching is
// case-insensitive and requires word boundaries, so "Al" does not match
// inside "Alice".
func Mentions(text string, pool []*Companion) []*Companion {
	lower := strings.ToLower(text)

	type hit struct {
		c   *Companion
		pos int
	}
	var hits []hit
	for _, c := range pool {
		pos := firstWordIndex(lower, strings.ToLower(c.Config.Name))
		if pos < 0 {
			pos = firstWordIndex(lower, c.ID)
		}
		if pos >= 0 {
			hits = append(hits, hit{c: c, pos: pos})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	out := make([]*Companion, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.c)
	}
	return out
}

// firstWordIndex finds the first occurrence of word in s that is bounded
// by non-alphanumeric characters (or the ends of s). Returns -1 if absent.
func firstWordIndex(s, word string) int {
	if word == "" {
		return -1
	}
	for from := 0; ; {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return -1
		}
		i += from
		if boundedWord(s, i, len(word)) {
			return i
		}
		from = i + 1
	}
}

func boundedWord(s string, start, length int) bool {
	if start > 0 && isWordByte(s[start-1]) {
		return false
	}
	end := start + length
	if end < len(s) && isWordByte(s[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
