package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rbright/textpolish/internal/asr"
	"github.com/rbright/textpolish/internal/audio"
	"github.com/rbright/textpolish/internal/batch"
	"github.com/rbright/textpolish/internal/doctor"
	"github.com/rbright/textpolish/internal/pipeline"
	"github.com/rbright/textpolish/internal/polish"
	"github.com/rbright/textpolish/internal/server"
)

const remoteDialTimeout = 3 * time.Second

// remotePolisher adapts a server client to the pipeline's synchronous Polisher.
type remotePolisher struct {
	ctx    context.Context
	client *server.Client
}

func (p remotePolisher) Run(text string, hint string) (polish.Result, error) {
	return p.client.Polish(p.ctx, text, hint)
}

// polisher returns the local engine, or a dialed client when --remote is set.
// The returned close func is always non-nil.
func (r Runner) polisher(ctx context.Context, e env) (batch.Polisher, func(), error) {
	if strings.TrimSpace(e.parsed.Remote) == "" {
		return batch.Local{Engine: e.engine}, func() {}, nil
	}
	client, err := server.Dial(ctx, e.parsed.Remote, remoteDialTimeout)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func (r Runner) commandPolish(ctx context.Context, e env) int {
	p, closeFn, err := r.polisher(ctx, e)
	if err != nil {
		return r.fail(e.logger, "connect polish server failed", err, "remote", e.parsed.Remote)
	}
	defer closeFn()

	started := time.Now()
	result, err := p.Polish(ctx, e.parsed.Text, e.parsed.Language)
	if err != nil {
		return r.fail(e.logger, "polish failed", err, "hint", e.parsed.Language)
	}
	logPolishComplete(e.logger, result,
		"remote", e.parsed.Remote != "",
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if err := r.writeJSON(result); err != nil {
		return r.fail(e.logger, "write output failed", err)
	}
	return 0
}

func (r Runner) newPipeline(ctx context.Context, e env, mic pipeline.Microphone) (*pipeline.Pipeline, func(), error) {
	var pol pipeline.Polisher = e.engine
	closeFn := func() {}
	if strings.TrimSpace(e.parsed.Remote) != "" {
		client, err := server.Dial(ctx, e.parsed.Remote, remoteDialTimeout)
		if err != nil {
			return nil, nil, err
		}
		pol = remotePolisher{ctx: context.WithoutCancel(ctx), client: client}
		closeFn = func() { _ = client.Close() }
	}

	cfg := e.cfg.Config
	recognizer := asr.NewRecognizer(cfg.ASR.Command.Argv, cfg.ASR.Timeout(), e.logger)
	p := pipeline.New(recognizer, pol, mic, pipeline.Options{KeepRecordings: cfg.Debug.KeepRecordings}, e.logger)
	return p, closeFn, nil
}

func (r Runner) commandTranscribe(ctx context.Context, e env) int {
	p, closeFn, err := r.newPipeline(ctx, e, nil)
	if err != nil {
		return r.fail(e.logger, "connect polish server failed", err, "remote", e.parsed.Remote)
	}
	defer closeFn()

	outcome, err := p.TranscribeFile(ctx, e.parsed.AudioPath, e.parsed.Language)
	if err != nil {
		return r.fail(e.logger, "transcribe failed", err, "audio", e.parsed.AudioPath)
	}
	logPolishComplete(e.logger, outcome.Result, "audio", e.parsed.AudioPath)

	if err := r.writeJSON(outcome); err != nil {
		return r.fail(e.logger, "write output failed", err)
	}
	return 0
}

func (r Runner) commandRecord(ctx context.Context, e env) int {
	cfg := e.cfg.Config
	mic := pipeline.PulseMicrophone{Input: cfg.Audio.Input, Fallback: cfg.Audio.Fallback, Logger: e.logger}
	p, closeFn, err := r.newPipeline(ctx, e, mic)
	if err != nil {
		return r.fail(e.logger, "connect polish server failed", err, "remote", e.parsed.Remote)
	}
	defer closeFn()

	maxDuration := e.parsed.Duration
	if maxDuration == 0 {
		maxDuration = cfg.Audio.MaxDuration()
	}
	fmt.Fprintf(r.Stderr, "recording for up to %s (Ctrl-C to stop)\n", maxDuration)

	outcome, err := p.Record(ctx, e.parsed.Language, maxDuration)
	if err != nil {
		return r.fail(e.logger, "record failed", err)
	}
	logPolishComplete(e.logger, outcome.Result, "kept_audio", outcome.Audio != "")

	if err := r.writeJSON(outcome); err != nil {
		return r.fail(e.logger, "write output failed", err)
	}
	return 0
}

func (r Runner) commandBatch(ctx context.Context, e env) int {
	stdin := r.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	lines, err := batch.ReadFiles(e.parsed.Files, stdin)
	if err != nil {
		return r.fail(e.logger, "read batch input failed", err)
	}

	p, closeFn, err := r.polisher(ctx, e)
	if err != nil {
		return r.fail(e.logger, "connect polish server failed", err, "remote", e.parsed.Remote)
	}
	defer closeFn()

	jobs := e.cfg.Config.Batch.Jobs
	if e.parsed.HasJobs {
		jobs = e.parsed.Jobs
	}

	started := time.Now()
	items, err := batch.Run(ctx, p, lines, e.parsed.Language, jobs)
	if err != nil {
		return r.fail(e.logger, "batch failed", err)
	}

	failed := 0
	for _, item := range items {
		if item.Error != "" {
			failed++
			fmt.Fprintf(r.Stderr, "error: line %d: %s\n", item.Line, item.Error)
		}
		if err := r.writeJSON(item); err != nil {
			return r.fail(e.logger, "write output failed", err)
		}
	}
	e.logger.Info("batch complete",
		"lines", len(items),
		"failed", failed,
		"jobs", jobs,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	if failed > 0 {
		return 1
	}
	return 0
}

func (r Runner) commandServe(ctx context.Context, e env) int {
	address := strings.TrimSpace(e.parsed.Address)
	if address == "" {
		address = e.cfg.Config.Server.Address
	}

	lis, err := net.Listen("tcp", address)
	if err != nil {
		return r.fail(e.logger, "listen failed", fmt.Errorf("listen %q: %w", address, err), "address", address)
	}
	fmt.Fprintf(r.Stdout, "listening on %s\n", lis.Addr().String())

	srv := server.New(e.engine, e.logger)
	if err := srv.Serve(ctx, lis); err != nil {
		return r.fail(e.logger, "serve failed", err, "address", address)
	}
	return 0
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			yesNo(device.Available),
			yesNo(device.Muted),
		)
	}
	return 0
}

func (r Runner) commandDoctor(ctx context.Context, e env) int {
	report := doctor.Run(ctx, e.cfg, e.engine.Tables(), r.Probes)
	colorize := !color.NoColor && r.Stdout == os.Stdout
	fmt.Fprintln(r.Stdout, report.Render(colorize))
	if report.OK() {
		return 0
	}
	return 1
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
