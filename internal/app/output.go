package app

import (
	"encoding/json"
	"log/slog"

	"github.com/rbright/textpolish/internal/polish"
)

type errorLine struct {
	Error string `json:"error"`
}

// writeJSON emits v as one line with '<', '>' and '&' left unescaped.
func (r Runner) writeJSON(v any) error {
	enc := json.NewEncoder(r.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func logPolishComplete(logger *slog.Logger, result polish.Result, fields ...any) {
	logger.Info("polish complete", append([]any{
		"language", result.Language,
		"change_count", len(result.Changes),
		"input_length", len(result.Original),
		"output_length", len(result.Polished),
	}, fields...)...)
}
