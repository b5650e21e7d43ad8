// Package inflect provides the minimal English pluralization rules the
// pipeline needs for naming tables after noun phrases and matching
// <target>_id columns against table names. Irregular nouns outside the
// common set fall back to suffix rules.
package inflect

import "strings"

var irregular = map[string]string{
	"person": "people",
	"child":  "children",
	"man":    "men",
	"woman":  "women",
	"foot":   "feet",
	"tooth":  "teeth",
	"goose":  "geese",
	"mouse":  "mice",
	"datum":  "data",
	"status": "statuses",
}

var irregularReverse = func() map[string]string {
	m := make(map[string]string, len(irregular))
	for s, p := range irregular {
		m[p] = s
	}
	return m
}()

// Plural returns the plural form of a singular noun. Already-plural input is
// returned unchanged when detectable.
func Plural(word string) string {
	if word == "" {
		return word
	}
	lower := strings.ToLower(word)
	if p, ok := irregular[lower]; ok {
		return p
	}
	if _, ok := irregularReverse[lower]; ok {
		return lower
	}

	switch {
	case strings.HasSuffix(lower, "ss") || strings.HasSuffix(lower, "x") ||
		strings.HasSuffix(lower, "z") || strings.HasSuffix(lower, "ch") ||
		strings.HasSuffix(lower, "sh"):
		return lower + "es"
	case strings.HasSuffix(lower, "s"):
		// A bare trailing s usually means the word is already plural.
		return lower
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !isVowel(lower[len(lower)-2]):
		return lower[:len(lower)-1] + "ies"
	default:
		return lower + "s"
	}
}

// Singular returns the singular form of a plural noun. Singular input is
// returned unchanged when detectable.
func Singular(word string) string {
	if word == "" {
		return word
	}
	lower := strings.ToLower(word)
	if s, ok := irregularReverse[lower]; ok {
		return s
	}
	if _, ok := irregular[lower]; ok {
		return lower
	}

	switch {
	case strings.HasSuffix(lower, "ies") && len(lower) > 3:
		return lower[:len(lower)-3] + "y"
	case strings.HasSuffix(lower, "sses") || strings.HasSuffix(lower, "xes") ||
		strings.HasSuffix(lower, "zes") || strings.HasSuffix(lower, "ches") ||
		strings.HasSuffix(lower, "shes"):
		return lower[:len(lower)-2]
	case strings.HasSuffix(lower, "ss"):
		return lower
	case strings.HasSuffix(lower, "s"):
		return lower[:len(lower)-1]
	default:
		return lower
	}
}

// SameNoun reports whether two words name the same noun in either number.
func SameNoun(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	return a == b || Singular(a) == Singular(b)
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
