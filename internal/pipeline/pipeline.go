// Package pipeline chains audio capture, speech recognition, and polishing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/textpolish/internal/audio"
	"github.com/rbright/textpolish/internal/polish"
)

// ErrEmptyRecording is returned when capture produced no PCM.
var ErrEmptyRecording = errors.New("recording captured no audio")

// Recognizer turns an audio file into raw transcript text.
type Recognizer interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Polisher cleans up transcript text.
type Polisher interface {
	Run(text string, hint string) (polish.Result, error)
}

// Microphone records PCM (16kHz mono s16le) until ctx is done.
type Microphone interface {
	Record(ctx context.Context) ([]byte, audio.Device, error)
}

// Outcome is the polish result for one audio input. Audio is set only when the
// recording was kept on disk.
type Outcome struct {
	polish.Result
	Audio string `json:"audio,omitempty"`
}

// Options for a Pipeline.
type Options struct {
	KeepRecordings bool
	// RecordingsDir overrides the default state-dir location.
	RecordingsDir string
}

// Pipeline runs the upstream stages in front of the polish engine.
type Pipeline struct {
	recognizer Recognizer
	polisher   Polisher
	mic        Microphone
	opts       Options
	logger     *slog.Logger
}

// New constructs a pipeline. mic may be nil when only files are transcribed.
func New(recognizer Recognizer, polisher Polisher, mic Microphone, opts Options, logger *slog.Logger) *Pipeline {
	return &Pipeline{recognizer: recognizer, polisher: polisher, mic: mic, opts: opts, logger: logger}
}

// TranscribeFile recognizes speech in path and polishes the transcript.
func (p *Pipeline) TranscribeFile(ctx context.Context, path string, hint string) (Outcome, error) {
	transcript, err := p.recognizer.Transcribe(ctx, path)
	if err != nil {
		return Outcome{}, fmt.Errorf("transcribe %q: %w", path, err)
	}

	result, err := p.polisher.Run(transcript, hint)
	if err != nil {
		return Outcome{}, fmt.Errorf("polish transcript: %w", err)
	}
	return Outcome{Result: result}, nil
}

// Record captures from the microphone until ctx is done or maxDuration
// elapses, then transcribes and polishes the recording. Cancelling ctx only
// ends capture; recognition still runs under the recognizer's own timeout.
func (p *Pipeline) Record(ctx context.Context, hint string, maxDuration time.Duration) (Outcome, error) {
	if p.mic == nil {
		return Outcome{}, errors.New("no microphone configured")
	}

	captureCtx := ctx
	if maxDuration > 0 {
		var cancel context.CancelFunc
		captureCtx, cancel = context.WithTimeout(ctx, maxDuration)
		defer cancel()
	}

	started := time.Now()
	pcm, device, err := p.mic.Record(captureCtx)
	if err != nil {
		return Outcome{}, fmt.Errorf("record audio: %w", err)
	}
	if len(pcm) == 0 {
		return Outcome{}, ErrEmptyRecording
	}
	p.logInfo("recording captured",
		"device", device.Label(),
		"bytes", len(pcm),
		"audio_ms", audio.DurationMS(pcm, audio.SampleRate, audio.Channels),
		"elapsed_ms", time.Since(started).Milliseconds(),
	)

	path, err := p.saveRecording(pcm)
	if err != nil {
		return Outcome{}, err
	}
	if !p.opts.KeepRecordings {
		defer func() {
			if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				p.logWarn("unable to remove recording", "path", path, "error", rmErr.Error())
			}
		}()
	}

	outcome, err := p.TranscribeFile(context.WithoutCancel(ctx), path, hint)
	if err != nil {
		return Outcome{}, err
	}
	if p.opts.KeepRecordings {
		outcome.Audio = path
	}
	return outcome, nil
}

func (p *Pipeline) saveRecording(pcm []byte) (string, error) {
	file, err := createRecordingFile(p.opts.RecordingsDir)
	if err != nil {
		return "", err
	}
	path := file.Name()

	if err := audio.WriteWAV(file, pcm, audio.SampleRate, audio.Channels); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write recording %q: %w", path, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close recording %q: %w", path, err)
	}
	return path, nil
}

func (p *Pipeline) logInfo(msg string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Info(msg, args...)
}

func (p *Pipeline) logWarn(msg string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Warn(msg, args...)
}
