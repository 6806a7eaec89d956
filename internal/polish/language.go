// Package polish detects language and applies per-language cleanup rules to bilingual text.
package polish

import "strings"

// Language is the tag reported for a polished text.
type Language string

const (
	Chinese Language = "zh"
	English Language = "en"
	Unknown Language = "unknown"
)

// Detect classifies text as Chinese when CJK ideographs outnumber ASCII letters.
// Ties, including text with neither, resolve to English.
func Detect(text string) Language {
	cjk, latin := 0, 0
	for _, r := range text {
		switch {
		case isCJK(r):
			cjk++
		case isASCIILetter(r):
			latin++
		}
	}
	if cjk > latin {
		return Chinese
	}
	return English
}

// ParseLanguage maps a caller hint onto a known tag. Matching ignores case and
// surrounding whitespace, so " EN " is English.
func ParseLanguage(hint string) (Language, bool) {
	switch Language(strings.ToLower(strings.TrimSpace(hint))) {
	case Chinese:
		return Chinese, true
	case English:
		return English, true
	default:
		return "", false
	}
}

func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
