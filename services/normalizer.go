package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultBrandPrefixes are the marketing tokens the vendor puts in front of
// property names. Longer prefixes come first.
var DefaultBrandPrefixes = []string{"eaves by avalon", "avalon at", "avalon", "ava", "eaves", "kanso"}

// cityNoiseSuffixes are trailing words some feeds append to city slugs.
var cityNoiseSuffixes = []string{"apartments", "apartment", "apts"}

// Normalizer maps raw city, property and unit strings to comparison keys.
// All methods are pure and idempotent.
type Normalizer struct {
	brandPrefixes []string
}

// NewNormalizer creates a Normalizer that strips the given leading brand
// tokens from property names.
func NewNormalizer(brandPrefixes []string) *Normalizer {
	prefixes := make([]string, 0, len(brandPrefixes))
	for _, p := range brandPrefixes {
		if p = normaliseText(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return &Normalizer{brandPrefixes: prefixes}
}

// Property lowercases, folds accents, collapses whitespace and removes
// leading brand tokens. A name that consists only of brand tokens keeps
// its last token.
func (n *Normalizer) Property(s string) string {
	s = normaliseText(foldAccents(s))
	for {
		stripped := false
		for _, prefix := range n.brandPrefixes {
			rest, ok := strings.CutPrefix(s, prefix+" ")
			if ok && strings.TrimSpace(rest) != "" {
				s = strings.TrimSpace(rest)
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}

// City lowercases, folds accents, turns hyphens into spaces and drops
// trailing "apartments"-style noise words.
func (n *Normalizer) City(s string) string {
	s = strings.ReplaceAll(foldAccents(s), "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	s = normaliseText(s)
	for {
		stripped := false
		for _, suffix := range cityNoiseSuffixes {
			rest, ok := strings.CutSuffix(s, " "+suffix)
			if ok && strings.TrimSpace(rest) != "" {
				s = strings.TrimSpace(rest)
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}

// Unit lowercases and collapses whitespace in a unit token.
func (n *Normalizer) Unit(s string) string {
	return normaliseText(s)
}

// normaliseText lowercases, strips leading/trailing whitespace and collapses
// internal whitespace runs.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), unicode.IsSpace)
	return strings.Join(fields, " ")
}

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldAccents(s string) string {
	out, _, err := transform.String(accentFolder, s)
	if err != nil {
		return s
	}
	return out
}
