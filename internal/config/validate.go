package config

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/rbright/textpolish/internal/polish"
)

var (
	validHintPolicies = []string{string(polish.HintDetect), string(polish.HintStrict), string(polish.HintPassthrough)}
	validUnicodeForms = []string{string(polish.FormNone), string(polish.FormNFC)}
	validLogLevels    = []string{"debug", "info", "warn", "error"}
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if lang := cfg.Polish.DefaultLanguage; lang != "" {
		if _, ok := polish.ParseLanguage(lang); !ok {
			return nil, fmt.Errorf("polish.default_language must be one of: zh, en (got %q)", lang)
		}
	}
	if !slices.Contains(validHintPolicies, cfg.Polish.HintPolicy) {
		return nil, fmt.Errorf("polish.hint_policy must be one of: %s", strings.Join(validHintPolicies, ", "))
	}
	if !slices.Contains(validUnicodeForms, cfg.Polish.UnicodeForm) {
		return nil, fmt.Errorf("polish.unicode_form must be one of: %s", strings.Join(validUnicodeForms, ", "))
	}

	if len(cfg.ASR.Command.Argv) == 0 {
		return nil, fmt.Errorf("asr.command must not be empty")
	}
	if cfg.ASR.TimeoutMS <= 0 {
		return nil, fmt.Errorf("asr.timeout_ms must be > 0")
	}

	if strings.TrimSpace(cfg.Audio.Input) == "" {
		return nil, fmt.Errorf("audio.input must not be empty")
	}
	if cfg.Audio.MaxDurationMS <= 0 {
		return nil, fmt.Errorf("audio.max_duration_ms must be > 0")
	}
	if strings.TrimSpace(cfg.Audio.Fallback) == "" {
		warnings = append(warnings, Warning{Message: "audio.fallback is empty; device selection will not fall back"})
	}

	if strings.TrimSpace(cfg.Server.Address) == "" {
		return nil, fmt.Errorf("server.address must not be empty")
	}
	if _, _, err := net.SplitHostPort(cfg.Server.Address); err != nil {
		return nil, fmt.Errorf("server.address must be host:port: %w", err)
	}

	if cfg.Batch.Jobs < 0 {
		return nil, fmt.Errorf("batch.jobs must be >= 0")
	}

	if !slices.Contains(validLogLevels, cfg.Log.Level) {
		return nil, fmt.Errorf("log.level must be one of: %s", strings.Join(validLogLevels, ", "))
	}

	if cfg.Debug.KeepRecordings {
		warnings = append(warnings, Warning{Message: "debug.keep_recordings is enabled; recordings are not removed after transcription"})
	}

	return warnings, nil
}
