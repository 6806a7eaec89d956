package asr

import "strings"

// assembleSegments joins recognizer output lines into one transcript. Each
// non-empty line is a segment; runs of whitespace collapse to one space so
// segment boundaries survive as clause breaks.
func assembleSegments(output string) string {
	lines := strings.Split(output, "\n")
	segments := make([]string, 0, len(lines))
	for _, line := range lines {
		if normalized := strings.Join(strings.Fields(line), " "); normalized != "" {
			segments = append(segments, normalized)
		}
	}
	return strings.Join(segments, " ")
}
