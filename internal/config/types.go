// Package config resolves, parses, validates, and defaults textpolish configuration.
package config

import (
	"time"

	"github.com/rbright/textpolish/internal/polish"
)

// Config is the fully materialized runtime configuration.
type Config struct {
	Polish PolishConfig
	ASR    ASRConfig
	Audio  AudioConfig
	Server ServerConfig
	Batch  BatchConfig
	Log    LogConfig
	Debug  DebugConfig
}

// PolishConfig tunes the polish engine.
type PolishConfig struct {
	DefaultLanguage             string
	HintPolicy                  string
	SmartPunctuation            bool
	PreserveInsertedPunctuation bool
	UnicodeForm                 string
}

// EngineOptions converts validated polish settings into engine options.
func (c PolishConfig) EngineOptions() polish.Options {
	return polish.Options{
		DefaultLanguage:             polish.Language(c.DefaultLanguage),
		HintPolicy:                  polish.HintPolicy(c.HintPolicy),
		SmartPunctuation:            c.SmartPunctuation,
		PreserveInsertedPunctuation: c.PreserveInsertedPunctuation,
		UnicodeForm:                 polish.UnicodeForm(c.UnicodeForm),
	}
}

// ASRConfig controls the external transcription command.
type ASRConfig struct {
	Command   CommandConfig
	TimeoutMS int
}

// Timeout returns the per-invocation ASR deadline.
func (c ASRConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input         string
	Fallback      string
	MaxDurationMS int
}

// MaxDuration returns the recording cap.
func (c AudioConfig) MaxDuration() time.Duration {
	return time.Duration(c.MaxDurationMS) * time.Millisecond
}

// ServerConfig controls the gRPC polish service.
type ServerConfig struct {
	Address string
}

// BatchConfig controls concurrent batch polishing. Jobs == 0 means GOMAXPROCS.
type BatchConfig struct {
	Jobs int
}

// LogConfig controls runtime log verbosity.
type LogConfig struct {
	Level string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	KeepRecordings bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
