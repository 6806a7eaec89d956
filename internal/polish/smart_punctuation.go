package polish

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	fullComma       = "，"
	fullPeriod      = "。"
	fullExclamation = "！"
	fullQuestion    = "？"
)

// isPunctuated reports whether text already carries clause or sentence
// punctuation, full-width or ASCII, which disables smart insertion.
func isPunctuated(text string) bool {
	return strings.ContainsAny(text, "，。！？；：,.!?;:")
}

// isInsertedMark reports whether r is one of the marks smart punctuation emits.
func isInsertedMark(r rune) bool {
	switch r {
	case '，', '。', '！', '？':
		return true
	default:
		return false
	}
}

// InsertChinesePunctuation adds commas, question marks, exclamation marks, and
// periods to unpunctuated Chinese text by keyword matching. Each keyword list is
// applied in order over the whole current string; overlapping marks are then
// collapsed so that only the last mark of every run survives.
func InsertChinesePunctuation(text string, kw Keywords) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	result := strings.Map(func(r rune) rune {
		switch r {
		case '，', '。', '！', '？', '；', '：':
			return -1
		default:
			return r
		}
	}, text)

	for _, word := range kw.Connectives {
		if word == "" {
			continue
		}
		result = strings.ReplaceAll(result, word, fullComma+word)
	}
	for _, word := range kw.Interrogatives {
		result = markAfterClause(result, word, fullQuestion, true)
	}
	for _, word := range kw.Exclamatives {
		result = markAfterClause(result, word, fullExclamation, true)
	}
	for _, word := range kw.FinalParticles {
		result = markAfterClause(result, word, fullPeriod, false)
	}

	if result != "" {
		last, _ := utf8.DecodeLastRuneInString(result)
		if !isInsertedMark(last) {
			result += fullPeriod
		}
	}

	return collapseInsertedMarks(result)
}

// markAfterClause appends mark after every occurrence of keyword that is followed
// by whitespace or end of text. With extend set, the match may first run over
// characters that are not inserted marks; the shortest such run wins. Matches do
// not overlap and scanning resumes after the end of each match.
func markAfterClause(text string, keyword string, mark string, extend bool) string {
	if keyword == "" || !strings.Contains(text, keyword) {
		return text
	}

	var out strings.Builder
	out.Grow(len(text) + len(mark)*2)

	pos := 0
	for pos <= len(text) {
		idx := strings.Index(text[pos:], keyword)
		if idx < 0 {
			break
		}
		start := pos + idx
		end, ok := clauseEnd(text, start+len(keyword), extend)
		if !ok {
			_, size := utf8.DecodeRuneInString(text[start:])
			out.WriteString(text[pos : start+size])
			pos = start + size
			continue
		}
		out.WriteString(text[pos:end])
		out.WriteString(mark)
		pos = end
	}
	if pos < len(text) {
		out.WriteString(text[pos:])
	}
	return out.String()
}

// clauseEnd finds the first offset at or after from that is followed by
// whitespace or end of text.
func clauseEnd(text string, from int, extend bool) (int, bool) {
	i := from
	for {
		if i >= len(text) {
			return len(text), true
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			return i, true
		}
		if !extend || isInsertedMark(r) {
			return 0, false
		}
		i += size
	}
}

// collapseInsertedMarks keeps only the last mark of each consecutive run.
func collapseInsertedMarks(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	var pending rune
	for _, r := range text {
		if isInsertedMark(r) {
			pending = r
			continue
		}
		if pending != 0 {
			out.WriteRune(pending)
			pending = 0
		}
		out.WriteRune(r)
	}
	if pending != 0 {
		out.WriteRune(pending)
	}
	return out.String()
}
