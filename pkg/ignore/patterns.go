package ignore

import (
	"regexp"
	"strings"
)

// Precompiled regular expressions used in pattern translation.
var (
	doubleStarMiddle   = regexp.MustCompile(`/\*\*/`)
	doubleStarTrailing = regexp.MustCompile(`/\*\*$`)
	doubleStarLeading  = regexp.MustCompile(`^\*\*/`)
	singleStar         = regexp.MustCompile(`\*`)
)

// Placeholder tokens keep the '**' expansions out of reach of the
// single-star pass; they cannot appear in ignore file lines.
const (
	tokenMiddle   = "\x00"
	tokenTrailing = "\x01"
	tokenLeading  = "\x02"
)

// translate converts a gitignore-style pattern body into a regex fragment.
func translate(pattern string) string {
	pattern = escapeSpecialChars(pattern)
	pattern = doubleStarMiddle.ReplaceAllString(pattern, tokenMiddle)
	pattern = doubleStarTrailing.ReplaceAllString(pattern, tokenTrailing)
	pattern = doubleStarLeading.ReplaceAllString(pattern, tokenLeading)
	pattern = singleStar.ReplaceAllString(pattern, `[^/]*`)
	pattern = strings.ReplaceAll(pattern, "?", "[^/]")
	pattern = strings.ReplaceAll(pattern, tokenMiddle, `(/|/.+/)`)
	pattern = strings.ReplaceAll(pattern, tokenTrailing, `(/.*)?`)
	pattern = strings.ReplaceAll(pattern, tokenLeading, `(.*/)?`)
	return pattern
}

// escapeSpecialChars escapes regex special characters except '*', '?', and '/'.
func escapeSpecialChars(pattern string) string {
	const specialChars = `.+()|^$[]{}`
	for _, char := range specialChars {
		pattern = strings.ReplaceAll(pattern, string(char), `\`+string(char))
	}
	return pattern
}
