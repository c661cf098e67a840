// Package moderation masks configured words in chat messages before they are
// persisted or broadcast.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator holds an Aho-Corasick automaton built from a normalized word
// list. Matching ignores case, punctuation, and common leet substitutions so
// that "h.3.l-l o" still matches "hello".
type Moderator struct {
	matcher     *goahocorasick.Machine
	maskingRune rune
}

// NewModerator builds the automaton from the censored word list. An empty
// list yields a pass-through moderator.
func NewModerator(censoredWords []string, maskingRune rune) (*Moderator, error) {
	if len(censoredWords) == 0 {
		return &Moderator{maskingRune: maskingRune}, nil
	}
	patterns := make([][]rune, len(censoredWords))
	for i, word := range censoredWords {
		patterns[i] = normalizeRunes([]rune(word))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, maskingRune: maskingRune}, nil
}

// Censor replaces every matched span in the original text with the masking
// rune, preserving the original length and spacing.
func (m *Moderator) Censor(original string) string {
	if m.matcher == nil {
		return original
	}

	normalized, origIdx := normalize(original)
	if len(normalized) == 0 {
		return original
	}

	spans := m.matcher.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return original
	}

	origRunes := []rune(original)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			origRunes[i] = m.maskingRune
		}
	}
	return string(origRunes)
}

// normalize lowers and simplifies the input while keeping, for every rune in
// the normalized form, the index of the rune it came from.
func normalize(input string) ([]rune, []int) {
	origRunes := []rune(input)
	norm := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))
	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		norm = append(norm, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}
	return norm, origIdx
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common leet characters to their alphabet counterparts.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
