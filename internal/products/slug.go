package product

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	slugConstraint  = "products_slug_key"
	maxSlugAttempts = 100
)

// Slugify lower-cases s, strips diacritics and collapses every run of non-alphanumerics to a single dash.
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

func slugCandidate(base string, suffix int) string {
	if suffix <= 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, suffix)
}

// nextSlugSuffix returns the lowest free suffix among existing, which holds base and base-N
// slugs. Zero means base itself is free.
func nextSlugSuffix(base string, existing []string) int {
	taken := make(map[int]bool, len(existing))
	for _, slug := range existing {
		if slug == base {
			taken[0] = true
			continue
		}
		rest, ok := strings.CutPrefix(slug, base+"-")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			taken[n] = true
		}
	}
	suffix := 0
	for taken[suffix] {
		suffix++
	}
	return suffix
}
