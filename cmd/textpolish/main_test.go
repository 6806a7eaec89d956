package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMainHelp(t *testing.T) {
	output, err := runMainSubprocess(t, "--help")
	require.NoError(t, err, string(output))
	require.Contains(t, string(output), "Usage:")
}

func TestMainInvalidFlagExitsWithUsageCode(t *testing.T) {
	output, err := runMainSubprocess(t, "--not-a-flag")
	require.Error(t, err)

	exitErr, ok := err.(*exec.ExitError)
	require.True(t, ok)
	require.Equal(t, 2, exitErr.ExitCode())
	require.Contains(t, string(output), "unknown flag")
}

func TestMainMissingTextExitsOne(t *testing.T) {
	output, err := runMainSubprocess(t)
	require.Error(t, err)

	exitErr, ok := err.(*exec.ExitError)
	require.True(t, ok)
	require.Equal(t, 1, exitErr.ExitCode())
	require.Contains(t, string(output), `{"error":"usage: textpolish <text> [language]"}`)
}

func TestMainPolishPrintsJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(configPath, []byte("{}\n"), 0o600))

	output, err := runMainSubprocess(t, "--config", configPath, "hello world", "en")
	require.NoError(t, err, string(output))

	var result struct {
		Polished string `json:"polished"`
		Language string `json:"language"`
	}
	require.NoError(t, json.Unmarshal(output, &result))
	require.Equal(t, "Hello world.", result.Polished)
	require.Equal(t, "en", result.Language)
}

func TestMainHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	dashIndex := -1
	for i, arg := range args {
		if arg == "--" {
			dashIndex = i
			break
		}
	}

	os.Args = []string{"textpolish"}
	if dashIndex >= 0 && dashIndex+1 < len(args) {
		os.Args = append(os.Args, args[dashIndex+1:]...)
	}

	main()
}

func runMainSubprocess(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()

	cmdArgs := []string{"-test.run=TestMainHelperProcess", "--"}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.Command(os.Args[0], cmdArgs...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "XDG_STATE_HOME="+t.TempDir())
	return cmd.CombinedOutput()
}
