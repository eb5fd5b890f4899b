// Package pattern implements the glob/placeholder patterns used by the
// PatternMatch and ExtractParam built-ins.
//
// A pattern is matched case-insensitively against the whole text.
// '*' matches any run of characters (possibly empty) and '{name}' matches a
// non-empty run; the name inside the braces is documentation only.
// Both tokens are capturing groups, numbered left to right from 0.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const cacheSize = 256

var compiled *lru.Cache[string, *regexp.Regexp]

func init() {
	var err error
	compiled, err = lru.New[string, *regexp.Regexp](cacheSize)
	if err != nil {
		panic(fmt.Sprintf("pattern: failed to initialize cache: %v", err))
	}
}

// Compile translates pattern into an anchored regular expression.
// The result is cached; callers must not mutate it.
func Compile(pattern string) (*regexp.Regexp, error) {
	normalized := normalize(pattern)
	if re, ok := compiled.Get(normalized); ok {
		return re, nil
	}

	re, err := regexp.Compile(Translate(normalized))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	compiled.Add(normalized, re)
	return re, nil
}

// Translate returns the regular expression source for an already normalized pattern.
func Translate(normalized string) string {
	var b strings.Builder
	b.WriteByte('^')
	for i := 0; i < len(normalized); {
		switch c := normalized[i]; {
		case c == '*':
			b.WriteString("(.*)")
			i++
		case c == '{':
			if end := strings.IndexByte(normalized[i+1:], '}'); end > 0 {
				b.WriteString("(.+)")
				i += end + 2
				continue
			}
			b.WriteString(`\{`)
			i++
		default:
			// Copy a run of literal text in one go.
			j := i + 1
			for j < len(normalized) && normalized[j] != '*' && normalized[j] != '{' {
				j++
			}
			b.WriteString(regexp.QuoteMeta(normalized[i:j]))
			i = j
		}
	}
	b.WriteByte('$')
	return b.String()
}

// Matches reports whether text matches pattern in full.
// An invalid pattern never matches.
func Matches(pattern, text string) bool {
	re, err := Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(normalize(text))
}

// Extract returns the index-th captured group of pattern applied to text.
// The capture is mapped back onto the original casing of text when possible.
// It reports false when the pattern does not match or index is out of range.
func Extract(pattern, text string, index int) (string, bool) {
	re, err := Compile(pattern)
	if err != nil || index < 0 {
		return "", false
	}

	groups := re.FindStringSubmatch(normalize(text))
	if groups == nil || index+1 >= len(groups) {
		return "", false
	}

	captured := strings.TrimSpace(groups[index+1])
	if original, ok := originalCase(strings.TrimSpace(text), captured); ok {
		return original, true
	}
	return captured, true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// originalCase finds the first slice of source whose lower-case form equals lowered.
func originalCase(source, lowered string) (string, bool) {
	lowerSource := strings.ToLower(source)
	if len(lowerSource) == len(source) {
		// Byte offsets line up, so the lower-cased index maps directly.
		if i := strings.Index(lowerSource, lowered); i >= 0 {
			return source[i : i+len(lowered)], true
		}
		return "", false
	}

	// Case mapping changed byte lengths; fall back to a rune-aligned scan.
	for i := range source {
		for j := i; j <= len(source); j++ {
			if j < len(source) && !isRuneStart(source[j]) {
				continue
			}
			if strings.ToLower(source[i:j]) == lowered {
				return source[i:j], true
			}
		}
	}
	return "", false
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
