// Package app executes parsed textpolish commands and maps failures to exit codes.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rbright/textpolish/internal/cli"
	"github.com/rbright/textpolish/internal/config"
	"github.com/rbright/textpolish/internal/doctor"
	"github.com/rbright/textpolish/internal/logging"
	"github.com/rbright/textpolish/internal/polish"
	"github.com/rbright/textpolish/internal/version"
)

// Runner executes one invocation against injectable streams.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	Logger *slog.Logger

	// Probes overrides doctor's live-system lookups.
	Probes doctor.Probes
}

// Execute runs args with process-default stdin.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr, Stdin: os.Stdin}
	return r.Execute(ctx, args)
}

// env is the bootstrapped state shared by every command.
type env struct {
	parsed cli.Parsed
	cfg    config.Loaded
	logger *slog.Logger
	engine *polish.Engine
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		if errors.Is(err, cli.ErrMissingText) {
			_ = r.writeJSON(errorLine{Error: err.Error()})
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) && usageErr.Help != "" {
			fmt.Fprintf(r.Stderr, "\n%s", usageErr.Help)
		}
		return 2
	}

	switch parsed.Command {
	case cli.CommandHelp:
		fmt.Fprint(r.Stdout, parsed.Help)
		return 0
	case cli.CommandVersion:
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logRuntime, err := logging.New(cfgLoaded.Config.Log.Level)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	e := env{
		parsed: parsed,
		cfg:    cfgLoaded,
		logger: logger,
		engine: polish.NewEngine(nil, cfgLoaded.Config.Polish.EngineOptions()),
	}

	switch parsed.Command {
	case cli.CommandPolish:
		return r.commandPolish(ctx, e)
	case cli.CommandTranscribe:
		return r.commandTranscribe(ctx, e)
	case cli.CommandRecord:
		return r.commandRecord(ctx, e)
	case cli.CommandBatch:
		return r.commandBatch(ctx, e)
	case cli.CommandServe:
		return r.commandServe(ctx, e)
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandDoctor:
		return r.commandDoctor(ctx, e)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// fail reports err on stderr and in the runtime log.
func (r Runner) fail(logger *slog.Logger, msg string, err error, fields ...any) int {
	fmt.Fprintf(r.Stderr, "error: %v\n", err)
	logger.Error(msg, append(fields, "error", err.Error())...)
	return 1
}
