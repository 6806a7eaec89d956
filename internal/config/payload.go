package config

import (
	"fmt"
	"strings"
)

// filePayload is the on-disk shape shared by the JSONC and TOML formats.
// Pointer fields distinguish "absent" from zero values.
type filePayload struct {
	Polish *filePolish `json:"polish" toml:"polish"`
	ASR    *fileASR    `json:"asr" toml:"asr"`
	Audio  *fileAudio  `json:"audio" toml:"audio"`
	Server *fileServer `json:"server" toml:"server"`
	Batch  *fileBatch  `json:"batch" toml:"batch"`
	Log    *fileLog    `json:"log" toml:"log"`
	Debug  *fileDebug  `json:"debug" toml:"debug"`
}

type filePolish struct {
	DefaultLanguage             *string `json:"default_language" toml:"default_language"`
	HintPolicy                  *string `json:"hint_policy" toml:"hint_policy"`
	SmartPunctuation            *bool   `json:"smart_punctuation" toml:"smart_punctuation"`
	PreserveInsertedPunctuation *bool   `json:"preserve_inserted_punctuation" toml:"preserve_inserted_punctuation"`
	UnicodeForm                 *string `json:"unicode_form" toml:"unicode_form"`
}

type fileASR struct {
	Command   *string `json:"command" toml:"command"`
	TimeoutMS *int    `json:"timeout_ms" toml:"timeout_ms"`
}

type fileAudio struct {
	Input         *string `json:"input" toml:"input"`
	Fallback      *string `json:"fallback" toml:"fallback"`
	MaxDurationMS *int    `json:"max_duration_ms" toml:"max_duration_ms"`
}

type fileServer struct {
	Address *string `json:"address" toml:"address"`
}

type fileBatch struct {
	Jobs *int `json:"jobs" toml:"jobs"`
}

type fileLog struct {
	Level *string `json:"level" toml:"level"`
}

type fileDebug struct {
	KeepRecordings *bool `json:"keep_recordings" toml:"keep_recordings"`
}

func normalizeKeyword(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func (payload filePayload) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if p := payload.Polish; p != nil {
		if p.DefaultLanguage != nil {
			cfg.Polish.DefaultLanguage = normalizeKeyword(*p.DefaultLanguage)
		}
		if p.HintPolicy != nil {
			cfg.Polish.HintPolicy = normalizeKeyword(*p.HintPolicy)
		}
		if p.SmartPunctuation != nil {
			cfg.Polish.SmartPunctuation = *p.SmartPunctuation
		}
		if p.PreserveInsertedPunctuation != nil {
			cfg.Polish.PreserveInsertedPunctuation = *p.PreserveInsertedPunctuation
		}
		if p.UnicodeForm != nil {
			cfg.Polish.UnicodeForm = normalizeKeyword(*p.UnicodeForm)
		}
		if !cfg.Polish.SmartPunctuation && p.PreserveInsertedPunctuation != nil {
			warnings = append(warnings, Warning{Message: "polish.preserve_inserted_punctuation has no effect while polish.smart_punctuation=false"})
		}
	}

	if a := payload.ASR; a != nil {
		if a.Command != nil {
			raw := *a.Command
			argv, err := parseArgv(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid asr.command: %w", err)
			}
			cfg.ASR.Command = CommandConfig{Raw: raw, Argv: argv}
		}
		if a.TimeoutMS != nil {
			cfg.ASR.TimeoutMS = *a.TimeoutMS
		}
	}

	if a := payload.Audio; a != nil {
		if a.Input != nil {
			cfg.Audio.Input = strings.TrimSpace(*a.Input)
		}
		if a.Fallback != nil {
			cfg.Audio.Fallback = strings.TrimSpace(*a.Fallback)
		}
		if a.MaxDurationMS != nil {
			cfg.Audio.MaxDurationMS = *a.MaxDurationMS
		}
	}

	if payload.Server != nil && payload.Server.Address != nil {
		cfg.Server.Address = strings.TrimSpace(*payload.Server.Address)
	}

	if payload.Batch != nil && payload.Batch.Jobs != nil {
		cfg.Batch.Jobs = *payload.Batch.Jobs
	}

	if payload.Log != nil && payload.Log.Level != nil {
		cfg.Log.Level = normalizeKeyword(*payload.Log.Level)
	}

	if payload.Debug != nil && payload.Debug.KeepRecordings != nil {
		cfg.Debug.KeepRecordings = *payload.Debug.KeepRecordings
	}

	return warnings, nil
}
