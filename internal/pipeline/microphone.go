package pipeline

import (
	"context"
	"log/slog"

	"github.com/rbright/textpolish/internal/audio"
)

// PulseMicrophone records from the Pulse source chosen by input/fallback selectors.
type PulseMicrophone struct {
	Input    string
	Fallback string
	Logger   *slog.Logger
}

// Record selects a device, then captures until ctx is done.
func (m PulseMicrophone) Record(ctx context.Context) ([]byte, audio.Device, error) {
	selection, err := audio.SelectDevice(ctx, m.Input, m.Fallback)
	if err != nil {
		return nil, audio.Device{}, err
	}
	if selection.Warning != "" && m.Logger != nil {
		m.Logger.Warn(selection.Warning)
	}

	rec, err := audio.StartRecording(ctx, selection.Device)
	if err != nil {
		return nil, selection.Device, err
	}

	select {
	case <-ctx.Done():
	case <-rec.Done():
	}
	return rec.Stop(), selection.Device, nil
}
