package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/textpolish/internal/logging"
)

var chmodRecording = (*os.File).Chmod

// RecordingsDir returns $XDG_STATE_HOME/textpolish/recordings (or the home fallback).
func RecordingsDir() (string, error) {
	stateDir, err := logging.StateDir()
	if err != nil {
		return "", fmt.Errorf("resolve state dir: %w", err)
	}
	return filepath.Join(stateDir, "recordings"), nil
}

// createRecordingFile creates a timestamped WAV file under dir (or RecordingsDir).
func createRecordingFile(dir string) (*os.File, error) {
	if strings.TrimSpace(dir) == "" {
		resolved, err := RecordingsDir()
		if err != nil {
			return nil, err
		}
		dir = resolved
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create recordings dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	file, err := os.CreateTemp(dir, "recording-"+timestamp+"-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create recording in %q: %w", dir, err)
	}
	if err := chmodRecording(file, 0o600); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return nil, fmt.Errorf("chmod recording %q: %w", file.Name(), err)
	}
	return file, nil
}
