package audio

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	// SampleRate is the capture rate expected by speech recognizers.
	SampleRate = 16000
	// Channels is the capture channel count.
	Channels = 1

	fragmentBytes = 640 // 20ms @ 16kHz mono s16
)

// Recording is a live Pulse record stream that accumulates s16le PCM until stopped.
type Recording struct {
	device Device
	stop   func()

	mu      sync.Mutex
	pcm     []byte
	stopped bool
	done    chan struct{}
}

// StartRecording begins a 16kHz mono s16le stream from the selected source.
// Cancelling ctx stops the stream; Stop must still be called to collect PCM.
func StartRecording(ctx context.Context, selected Device) (*Recording, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}

	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selected.ID, err)
	}

	rec := newRecording(selected)
	stream, err := client.NewRecord(
		pulse.NewWriter(writerFunc(rec.append), pulseproto.FormatInt16LE),
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(fragmentBytes),
		pulse.RecordMediaName("textpolish recording"),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	rec.stop = func() {
		stream.Stop()
		stream.Close()
		client.Close()
	}
	stream.Start()

	go func() {
		select {
		case <-ctx.Done():
			rec.Stop()
		case <-rec.done:
		}
	}()

	return rec, nil
}

func newRecording(device Device) *Recording {
	return &Recording{device: device, done: make(chan struct{})}
}

// Device returns the source being recorded.
func (r *Recording) Device() Device {
	return r.device
}

// Done is closed once the recording has stopped.
func (r *Recording) Done() <-chan struct{} {
	return r.done
}

// Stop halts the stream and returns every PCM byte captured. It is safe to
// call more than once; later calls return the same data.
func (r *Recording) Stop() []byte {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		close(r.done)
		stop := r.stop
		r.mu.Unlock()
		if stop != nil {
			stop()
		}
		r.mu.Lock()
	}
	defer r.mu.Unlock()
	return append([]byte(nil), r.pcm...)
}

// append receives raw Pulse frames.
func (r *Recording) append(buffer []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return 0, io.EOF
	}
	r.pcm = append(r.pcm, buffer...)
	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
