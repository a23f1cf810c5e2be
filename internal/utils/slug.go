package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrDuplicateName reports two catalog records with the same display name.
var ErrDuplicateName = errors.New("duplicate product name")

// fallbackKey stands in for names with no letters or digits at all.
const fallbackKey = "product"

// Slugify turns a display name into a stable product key:
// "Vanilla Bean Crème Brûlée" becomes "vanilla-bean-creme-brulee" and
// "珍珠奶茶" stays "珍珠奶茶".
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case isKeyRune(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func isKeyRune(r rune) bool {
	return unicode.In(r, unicode.Ll, unicode.Lm, unicode.Lo, unicode.Nd)
}

// ProductKeys assigns one key per name, in order. A name whose slug is
// already taken gets the first free "-2", "-3", ... suffix, so "C++ Cake"
// after "C Cake" becomes "c-cake-2". Names must be unique.
func ProductKeys(names []string) ([]string, error) {
	keys := make([]string, len(names))
	taken := make(map[string]bool, len(names))
	seen := make(map[string]int, len(names))

	for i, name := range names {
		if prev, exists := seen[name]; exists {
			return nil, fmt.Errorf("%w: products %d and %d are both %q", ErrDuplicateName, prev, i, name)
		}
		seen[name] = i

		base := Slugify(name)
		if base == "" {
			base = fallbackKey
		}
		key := base
		for n := 2; taken[key]; n++ {
			key = base + "-" + strconv.Itoa(n)
		}
		taken[key] = true
		keys[i] = key
	}
	return keys, nil
}
