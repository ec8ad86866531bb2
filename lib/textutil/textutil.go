package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CollapseSpace trims leading/trailing whitespace and collapses
// internal whitespace runs to a single space.
func CollapseSpace(s string) string {
	s = strings.TrimSpace(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// NormalizeKey canonicalizes a value for identity-key comparison.
// Display values keep their original casing, keys do not.
func NormalizeKey(s string) string {
	return strings.ToLower(CollapseSpace(s))
}

var absentSentinels = map[string]bool{
	"":     true,
	"null": true,
	"n/a":  true,
	"na":   true,
	"-":    true,
}

// IsAbsent reports whether a value should compare as missing:
// empty, whitespace-only, or an explicit null sentinel.
func IsAbsent(s string) bool {
	return absentSentinels[NormalizeKey(s)]
}

var namePrefixes = []string{
	"Dr. ", "Dr ", "Mr. ", "Mr ", "Ms. ", "Ms ", "Mrs. ", "Mrs ", "Prof. ", "Professor ",
}

var nameSuffixes = []string{
	" Jr.", " Jr", " Sr.", " Sr", " II", " III", " IV", ", PhD", ", MD", ", DSc",
}

// CleanName strips honorific prefixes and generational/degree suffixes
// so the same person scrapes to the same name across visits.
func CleanName(name string) string {
	name = CollapseSpace(name)
	for _, p := range namePrefixes {
		if strings.HasPrefix(name, p) {
			name = name[len(p):]
			break
		}
	}
	for _, s := range nameSuffixes {
		if strings.HasSuffix(name, s) {
			name = name[:len(name)-len(s)]
			break
		}
	}
	return CollapseSpace(name)
}
