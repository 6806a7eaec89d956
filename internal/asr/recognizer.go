// Package asr runs the external speech-recognition command that turns an audio
// file into raw transcript text.
package asr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrEmptyCommand is returned when no recognizer argv is configured.
var ErrEmptyCommand = errors.New("asr command argv cannot be empty")

// Recognizer invokes a configured argv with the audio path appended and reads
// the transcript from stdout.
type Recognizer struct {
	argv    []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewRecognizer constructs a recognizer. timeout <= 0 disables the deadline.
func NewRecognizer(argv []string, timeout time.Duration, logger *slog.Logger) *Recognizer {
	return &Recognizer{argv: append([]string(nil), argv...), timeout: timeout, logger: logger}
}

// Transcribe runs the recognizer against audioPath and returns its stdout
// lines joined into one transcript.
func (r *Recognizer) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if len(r.argv) == 0 {
		return "", ErrEmptyCommand
	}
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("stat audio %q: %w", audioPath, err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	started := time.Now()
	stdout, err := runCommand(ctx, append(append([]string(nil), r.argv...), audioPath))
	if err != nil {
		r.log(slog.LevelError, "asr failed", "audio", audioPath, "error", err.Error())
		return "", err
	}

	text := assembleSegments(stdout)
	r.log(slog.LevelInfo, "asr complete",
		"audio", audioPath,
		"duration_ms", time.Since(started).Milliseconds(),
		"transcript_chars", len([]rune(text)),
	)
	return text, nil
}

func (r *Recognizer) log(level slog.Level, msg string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Log(context.Background(), level, msg, args...)
}

// runCommand executes argv and returns stdout. Non-zero exits surface the
// trimmed stderr in the error.
func runCommand(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", ErrEmptyCommand
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("run %s: %w", argv[0], ctxErr)
		}
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return "", fmt.Errorf("run %s: %w: %s", argv[0], err, detail)
		}
		return "", fmt.Errorf("run %s: %w", argv[0], err)
	}
	return stdout.String(), nil
}
