package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEmptyContentReturnsDefaults(t *testing.T) {
	cfg, warnings, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Empty(t, warnings)
}

func TestParseTOMLAppliesAllSections(t *testing.T) {
	cfg, warnings, err := Parse(`
# textpolish config
[polish]
default_language = "ZH"
hint_policy = "strict"
smart_punctuation = true
preserve_inserted_punctuation = false
unicode_form = "NFC"

[asr]
command = "whisper-cli --model 'large v3'"
timeout_ms = 5000

[audio]
input = "Elgato"
fallback = "default"
max_duration_ms = 30000

[server]
address = "0.0.0.0:6000"

[batch]
jobs = 4

[log]
level = "debug"
`, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, "zh", cfg.Polish.DefaultLanguage)
	require.Equal(t, "strict", cfg.Polish.HintPolicy)
	require.False(t, cfg.Polish.PreserveInsertedPunctuation)
	require.Equal(t, "nfc", cfg.Polish.UnicodeForm)
	require.Equal(t, []string{"whisper-cli", "--model", "large v3"}, cfg.ASR.Command.Argv)
	require.Equal(t, 5000, cfg.ASR.TimeoutMS)
	require.Equal(t, "Elgato", cfg.Audio.Input)
	require.Equal(t, 30000, cfg.Audio.MaxDurationMS)
	require.Equal(t, "0.0.0.0:6000", cfg.Server.Address)
	require.Equal(t, 4, cfg.Batch.Jobs)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestParseTOMLUnknownKeyFails(t *testing.T) {
	_, _, err := Parse("[polish]\nbogus = 1\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown key")
	require.Contains(t, err.Error(), "polish.bogus")
}

func TestParseTOMLSyntaxErrorIncludesLine(t *testing.T) {
	_, _, err := Parse("\n\nthis is bad", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
}

func TestParseTOMLTypeMismatchFails(t *testing.T) {
	_, _, err := Parse("[asr]\ntimeout_ms = \"soon\"\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "toml")
}

func TestParseJSONCAppliesPartialOverrides(t *testing.T) {
	cfg, _, err := Parse(`{
  // only the fields present change
  "polish": {"smart_punctuation": false},
  "debug": {"keep_recordings": true},
}`, Default())
	require.NoError(t, err)
	require.False(t, cfg.Polish.SmartPunctuation)
	require.True(t, cfg.Polish.PreserveInsertedPunctuation)
	require.True(t, cfg.Debug.KeepRecordings)
	require.Equal(t, Default().ASR, cfg.ASR)
}

func TestParseWarnsWhenPreserveSetWithoutSmartPunctuation(t *testing.T) {
	_, warnings, err := Parse(`{"polish": {"smart_punctuation": false, "preserve_inserted_punctuation": true}}`, Default())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "no effect")
}

func TestParseRejectsInvalidASRCommand(t *testing.T) {
	_, _, err := Parse(`{"asr": {"command": "unterminated ' quote"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid asr.command")

	_, _, err = Parse("[asr]\ncommand = \"unterminated ' quote\"\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid asr.command")
}

func TestParseValidatesAfterApplying(t *testing.T) {
	_, _, err := Parse(`{"polish": {"hint_policy": "guess"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "polish.hint_policy")
}
