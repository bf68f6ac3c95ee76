package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	hyphenBreakRE  = regexp.MustCompile(`([\p{L}\p{N}])-\r?\n(\p{Ll})`)
	oddSpaceRE     = regexp.MustCompile("[\t\f\v\u00A0\u2009\u202F]+")
	multiSpaceRE   = regexp.MustCompile(` {2,}`)
	multiNewlineRE = regexp.MustCompile(`\n{3,}`)
	pageNumberRE   = regexp.MustCompile(`^(?:[Pp]age\s*)?\d+(?:\s*/\s*\d+)?$`)

	ligatures = strings.NewReplacer(
		"ﬁ", "fi",
		"ﬂ", "fl",
		"ﬀ", "ff",
		"ﬃ", "ffi",
		"ﬄ", "ffl",
		"ﬆ", "st",
	)
)

// TextCleaner normalizes extracted article text before it is shown to the judge.
type TextCleaner struct {
	// Lines with fewer visible runes are dropped (menus, share buttons, page numbers).
	MinLineRunes int
}

func NewTextCleaner() *TextCleaner {
	return &TextCleaner{MinLineRunes: 3}
}

// Clean applies ligature replacement, NFC normalization, hyphenation repair,
// short-line removal and whitespace collapsing, in that order.
func (tc *TextCleaner) Clean(s string) string {
	s = ligatures.Replace(s)
	s, _, _ = transform.String(norm.NFC, s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = hyphenBreakRE.ReplaceAllString(s, "$1$2")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			kept = append(kept, "")
			continue
		}
		if pageNumberRE.MatchString(trimmed) || countVisibleRunes(trimmed) < tc.MinLineRunes {
			continue
		}
		kept = append(kept, l)
	}
	return collapseWhitespace(strings.Join(kept, "\n"))
}

func collapseWhitespace(s string) string {
	s = oddSpaceRE.ReplaceAllString(s, " ")
	s = multiSpaceRE.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRightFunc(lines[i], unicode.IsSpace)
	}
	s = strings.Join(lines, "\n")
	s = multiNewlineRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func countVisibleRunes(s string) int {
	count := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
