package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

func decodeJSONC(content string) (filePayload, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return filePayload{}, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload filePayload
	if err := decoder.Decode(&payload); err != nil {
		return filePayload{}, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return filePayload{}, wrapJSONDecodeError(normalized, err)
	}
	return payload, nil
}

// normalizeJSONC blanks out comments and trailing commas in one pass. Every
// removed byte becomes a space (newlines are kept) so decoder offsets still
// point at the original line and column.
func normalizeJSONC(content string) (string, error) {
	out := []byte(content)

	const (
		stateCode = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateCode
	escape := false
	pendingComma := -1

	for i := 0; i < len(out); i++ {
		ch := out[i]

		switch state {
		case stateString:
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				state = stateCode
			}

		case stateLineComment:
			if ch == '\n' || ch == '\r' {
				state = stateCode
				continue
			}
			out[i] = ' '

		case stateBlockComment:
			if ch == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				state = stateCode
				continue
			}
			if ch != '\n' && ch != '\r' && ch != '\t' {
				out[i] = ' '
			}

		default:
			if ch == '/' && i+1 < len(out) && (out[i+1] == '/' || out[i+1] == '*') {
				if out[i+1] == '/' {
					state = stateLineComment
				} else {
					state = stateBlockComment
				}
				out[i], out[i+1] = ' ', ' '
				i++
				continue
			}
			if isJSONWhitespace(ch) {
				continue
			}
			if (ch == '}' || ch == ']') && pendingComma >= 0 {
				out[pendingComma] = ' '
			}
			pendingComma = -1
			switch ch {
			case ',':
				pendingComma = i
			case '"':
				state = stateString
			}
		}
	}

	if state == stateBlockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}
	return string(out), nil
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := min(int(offset), len(content))

	line, col := 1, 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
