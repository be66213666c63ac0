// Package meddb provides the read-only medication reference index used to
// protect drug names during translation. The index is built once at startup
// and is safe for unlimited concurrent readers.
package meddb

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MedicationEntry is one medication with its canonical name and aliases
// (brand names, spelling variants, the DCI for brand entries). Immutable
// after load.
type MedicationEntry struct {
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	DCI      string   `json:"dci,omitempty"`
	Aliases  []string `json:"aliases,omitempty"`
}

// foldChain strips combining marks so "métronidazole" and "metronidazole"
// index identically.
var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases and removes diacritics for alias matching.
func Normalize(s string) string {
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

type node struct {
	children map[rune]*node
	entry    *MedicationEntry
}

func newNode() *node {
	return &node{children: make(map[rune]*node)}
}

// Index is a rune trie over normalized medication aliases supporting
// longest-match lookup at a text position.
type Index struct {
	root    *node
	entries int
	aliases int
}

// NewIndex builds an index over the given entries. Every entry is indexed
// under its name, its DCI and all aliases.
func NewIndex(entries []MedicationEntry, logger *zap.Logger) *Index {
	ix := &Index{root: newNode()}

	for i := range entries {
		entry := &entries[i]
		ix.insert(entry.Name, entry)
		if entry.DCI != "" {
			ix.insert(entry.DCI, entry)
		}
		for _, alias := range entry.Aliases {
			ix.insert(alias, entry)
		}
		ix.entries++
	}

	if logger != nil {
		logger.Info("Medication index built",
			zap.Int("medications", ix.entries),
			zap.Int("aliases", ix.aliases),
		)
	}

	return ix
}

func (ix *Index) insert(alias string, entry *MedicationEntry) {
	normalized := Normalize(strings.TrimSpace(alias))
	if normalized == "" {
		return
	}

	n := ix.root
	for _, r := range normalized {
		child, ok := n.children[r]
		if !ok {
			child = newNode()
			n.children[r] = child
		}
		n = child
	}
	// First registration wins so the canonical entry for a shared alias
	// is deterministic.
	if n.entry == nil {
		n.entry = entry
		ix.aliases++
	}
}

// Len returns the number of indexed medications.
func (ix *Index) Len() int {
	return ix.entries
}

// LookupLongest finds the longest alias match starting at byte offset pos.
// Matching is case-insensitive and diacritic-normalized, and a match must
// end on a word boundary so compound aliases are never truncated.
func (ix *Index) LookupLongest(text string, pos int) (*MedicationEntry, int, bool) {
	var (
		best    *MedicationEntry
		bestLen int
	)

	n := ix.root
	i := pos
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])

		next := n
		ok := true
		for _, fr := range Normalize(string(r)) {
			child, exists := next.children[fr]
			if !exists {
				ok = false
				break
			}
			next = child
		}
		if !ok {
			break
		}

		n = next
		i += size

		if n.entry != nil && wordBoundary(text, i) {
			best = n.entry
			bestLen = i - pos
		}
	}

	if best == nil {
		return nil, 0, false
	}
	return best, bestLen, true
}

// wordBoundary reports whether byte offset pos in text is not inside a word.
func wordBoundary(text string, pos int) bool {
	if pos >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// referenceFile matches the JSON written by the medload tool. Entries may be
// full objects or bare name strings.
type referenceFile struct {
	Medications []json.RawMessage `json:"medications"`
}

// LoadFile reads medication entries from a reference JSON file.
func LoadFile(path string) ([]MedicationEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read medication reference: %w", err)
	}

	var ref referenceFile
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("failed to parse medication reference: %w", err)
	}

	entries := make([]MedicationEntry, 0, len(ref.Medications))
	for _, raw := range ref.Medications {
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			entries = append(entries, MedicationEntry{Name: name})
			continue
		}

		var entry MedicationEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("invalid medication entry %s: %w", string(raw), err)
		}
		if entry.Name == "" {
			return nil, fmt.Errorf("medication entry without name: %s", string(raw))
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("medication reference %s contains no entries", path)
	}

	return entries, nil
}
