// Package lexicon implements per-language negation marker detection for the
// Wolof⇄French pair. Markers are plain data supplied by configuration; the
// scanner handles both contiguous markers ("jamais", "bul") and discontinuous
// ones written as "first ... second" ("ne ... pas"), which French splits
// around the verb while Wolof uses a single particle.
package lexicon

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// pairWindow is the maximum number of words allowed between the two parts of
// a discontinuous marker before the pairing is considered spurious.
const pairWindow = 8

// Match is one negation marker occurrence with source byte offsets.
type Match struct {
	Marker string
	Start  int
	End    int
}

// marker is a compiled lexicon entry. Discontinuous entries carry a non-empty
// second part.
type marker struct {
	display string
	first   string
	second  string
}

// Detector finds negation markers for a single language.
type Detector struct {
	lang    string
	markers []marker
}

// Set holds one Detector per configured language, selected by language code.
type Set struct {
	detectors map[string]*Detector
}

// NewSet compiles negation lexicons into detectors keyed by language code.
func NewSet(negations map[string][]string) (*Set, error) {
	set := &Set{detectors: make(map[string]*Detector)}

	for lang, words := range negations {
		if len(words) == 0 {
			return nil, fmt.Errorf("empty negation lexicon for language %q", lang)
		}
		det := &Detector{lang: lang}
		for _, w := range words {
			w = strings.TrimSpace(w)
			if w == "" {
				continue
			}
			if first, second, ok := strings.Cut(w, " ... "); ok {
				det.markers = append(det.markers, marker{
					display: w,
					first:   strings.ToLower(first),
					second:  strings.ToLower(second),
				})
				continue
			}
			det.markers = append(det.markers, marker{display: w, first: strings.ToLower(w)})
		}
		// Longest first part wins at a shared start position ("aucune" over "aucun").
		sort.SliceStable(det.markers, func(i, j int) bool {
			return len(det.markers[i].first) > len(det.markers[j].first)
		})
		set.detectors[lang] = det
	}

	return set, nil
}

// ForLanguage returns the detector for a language code.
func (s *Set) ForLanguage(lang string) (*Detector, bool) {
	det, ok := s.detectors[lang]
	return det, ok
}

// Language returns the language code this detector scans for.
func (d *Detector) Language() string {
	return d.lang
}

// MatchAt reports the longest marker starting at byte offset pos, if any.
// pos must sit on a word start.
func (d *Detector) MatchAt(text string, pos int) (Match, bool) {
	return d.MatchAtLowered(text, strings.ToLower(text), pos)
}

// MatchAtLowered is MatchAt with the lowercased text supplied by the caller,
// so a scan probing many positions lowers the input only once.
func (d *Detector) MatchAtLowered(text, lower string, pos int) (Match, bool) {
	for _, m := range d.markers {
		if !strings.HasPrefix(lower[pos:], m.first) {
			continue
		}
		end := pos + len(m.first)
		if !boundaryBefore(text, pos) || !boundaryAfter(text, end) {
			continue
		}

		if m.second == "" {
			return Match{Marker: m.display, Start: pos, End: end}, true
		}

		if secondEnd, ok := findSecondPart(lower, end, m.second); ok {
			return Match{Marker: m.display, Start: pos, End: secondEnd}, true
		}
	}

	return Match{}, false
}

// FindAll returns every marker occurrence in text, left to right,
// without overlap.
func (d *Detector) FindAll(text string) []Match {
	var matches []Match
	lower := strings.ToLower(text)

	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		if !boundaryBefore(text, i) {
			i += size
			continue
		}
		if m, ok := d.MatchAtLowered(text, lower, i); ok {
			matches = append(matches, m)
			// Discontinuous markers only block re-matching of their first
			// part; the text in between stays scannable.
			i += len(strings.Split(m.Marker, " ... ")[0])
			continue
		}
		i += size
	}

	return matches
}

// Contains reports whether text holds at least one negation marker.
func (d *Detector) Contains(text string) bool {
	return len(d.FindAll(text)) > 0
}

// findSecondPart looks for the paired particle within pairWindow words after
// the first part.
func findSecondPart(lower string, from int, second string) (int, bool) {
	words := 0
	inWord := false

	for i := from; i < len(lower); {
		r, size := utf8.DecodeRuneInString(lower[i:])
		if isWordRune(r) {
			if !inWord {
				inWord = true
				words++
				if words > pairWindow {
					return 0, false
				}
				if strings.HasPrefix(lower[i:], second) && boundaryAfter(lower, i+len(second)) {
					return i + len(second), true
				}
			}
		} else {
			inWord = false
		}
		i += size
	}

	return 0, false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// boundaryBefore reports whether pos starts a word.
func boundaryBefore(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return !isWordRune(r)
}

// boundaryAfter reports whether pos ends a word.
func boundaryAfter(text string, pos int) bool {
	if pos >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	return !isWordRune(r)
}
