// Package doctor runs runtime readiness diagnostics for config, rule tables,
// the ASR command, audio input, and the polish server.
package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rbright/textpolish/internal/audio"
	"github.com/rbright/textpolish/internal/config"
	"github.com/rbright/textpolish/internal/polish"
	"github.com/rbright/textpolish/internal/server"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report without color.
func (r Report) String() string {
	return r.Render(false)
}

// Render formats one line per check, coloring the status word when colorize is set.
func (r Report) Render(colorize bool) string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		paint := okColor
		if !check.Pass {
			status = "FAIL"
			paint = failColor
		}
		if colorize {
			status = paint.Sprint(status)
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Probes are the live-system lookups doctor performs. Tests replace them.
type Probes struct {
	SelectDevice func(ctx context.Context, input string, fallback string) (audio.Selection, error)
	ServerHealth func(ctx context.Context, address string) (bool, error)
}

// DefaultProbes talks to PulseAudio and the configured gRPC address.
func DefaultProbes() Probes {
	return Probes{
		SelectDevice: audio.SelectDevice,
		ServerHealth: probeServer,
	}
}

// Run executes config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded, tables *polish.Tables, probes Probes) Report {
	if tables == nil {
		tables = polish.DefaultTables()
	}
	defaults := DefaultProbes()
	if probes.SelectDevice == nil {
		probes.SelectDevice = defaults.SelectDevice
	}
	if probes.ServerHealth == nil {
		probes.ServerHealth = defaults.ServerHealth
	}

	checks := []Check{checkConfig(cfg)}
	for _, lang := range polish.DefaultTables().Languages() {
		checks = append(checks, checkRules(tables, lang))
	}
	checks = append(checks, checkCommand(cfg.Config.ASR.Command.Argv, "asr.command"))
	checks = append(checks, checkAudioSelection(ctx, cfg.Config, probes.SelectDevice))
	checks = append(checks, checkServer(ctx, cfg.Config.Server.Address, probes.ServerHealth))

	return Report{Checks: checks}
}

func checkConfig(cfg config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		message = fmt.Sprintf("using defaults (no file at %q)", cfg.Path)
	}
	if n := len(cfg.Warnings); n > 0 {
		message += fmt.Sprintf(", %d warning(s)", n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

func checkRules(tables *polish.Tables, lang polish.Language) Check {
	name := "rules." + string(lang)
	set, ok := tables.Lookup(lang)
	if !ok {
		return Check{Name: name, Pass: false, Message: "no rule table"}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf(
		"%d punctuation, %d duplicate, %d spacing, %d capitalization rules",
		len(set.Punctuation), len(set.Duplicates), len(set.Spacing), len(set.Capitalization),
	)}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(
	ctx context.Context,
	cfg config.Config,
	selectDevice func(context.Context, string, string) (audio.Selection, error),
) Check {
	selection, err := selectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkServer is informational: an unreachable server passes with a note.
func checkServer(ctx context.Context, address string, health func(context.Context, string) (bool, error)) Check {
	healthy, err := health(ctx, address)
	switch {
	case err != nil:
		return Check{Name: "server.health", Pass: true, Message: fmt.Sprintf("not running at %s (optional)", address)}
	case !healthy:
		return Check{Name: "server.health", Pass: false, Message: fmt.Sprintf("server at %s is not serving", address)}
	default:
		return Check{Name: "server.health", Pass: true, Message: fmt.Sprintf("serving at %s", address)}
	}
}

func probeServer(ctx context.Context, address string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	client, err := server.Dial(ctx, address, time.Second)
	if err != nil {
		return false, err
	}
	defer client.Close()
	return client.Healthy(ctx)
}
