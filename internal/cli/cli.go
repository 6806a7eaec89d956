// Package cli parses textpolish argv into a typed request using a cobra
// command tree. Commands are parsed here and executed by internal/app.
package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Command names one executable action.
type Command string

const (
	CommandPolish     Command = "polish"
	CommandTranscribe Command = "transcribe"
	CommandRecord     Command = "record"
	CommandBatch      Command = "batch"
	CommandServe      Command = "serve"
	CommandDevices    Command = "devices"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

// ErrMissingText is returned when the root command receives no text. Its
// message is the usage line emitted as a JSON error object.
var ErrMissingText = errors.New("usage: textpolish <text> [language]")

// UsageError wraps a malformed invocation (unknown flag, wrong arg count).
type UsageError struct {
	Err  error
	Help string
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// Parsed is one fully-parsed invocation.
type Parsed struct {
	Command    Command
	ConfigPath string
	Remote     string

	// polish, transcribe, record, batch
	Text     string
	Language string

	AudioPath string
	Duration  time.Duration

	Files   []string
	Jobs    int
	HasJobs bool

	Address string

	// Help holds rendered help when Command is CommandHelp.
	Help string
}

// Parse maps argv (without the binary name) to a Parsed request.
func Parse(args []string) (Parsed, error) {
	if args == nil {
		args = []string{}
	}

	var parsed Parsed
	var help bytes.Buffer

	root := newRootCommand(&parsed)
	root.SetArgs(args)
	root.SetOut(&help)
	root.SetErr(io.Discard)

	cmd, err := root.ExecuteC()
	if err != nil {
		if errors.Is(err, ErrMissingText) {
			return Parsed{}, err
		}
		usage := &bytes.Buffer{}
		if cmd != nil {
			cmd.SetOut(usage)
			_ = cmd.Usage()
		}
		return Parsed{}, &UsageError{Err: err, Help: usage.String()}
	}

	if parsed.Command == "" {
		parsed.Command = CommandHelp
		parsed.Help = help.String()
	}
	return parsed, nil
}

func newRootCommand(parsed *Parsed) *cobra.Command {
	root := &cobra.Command{
		Use:   "textpolish [flags] <text> [language]",
		Short: "Polish bilingual Chinese/English text",
		Long: `textpolish detects whether text is Chinese or English and applies
punctuation, duplicate-word, spacing, and capitalization cleanup.
The result is printed as one JSON line.

Text that equals a command name is run as that command; put it after "--"
to polish it instead. Text starting with a single "-" is polished as is.`,
		Example: `  textpolish "今天天气真好但是我很累" zh
  textpolish -5度很冷
  textpolish -- help`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceErrors:      true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, text, err := parseRootArgs(args)
			if err != nil {
				return err
			}
			parsed.ConfigPath = opts.configPath
			parsed.Remote = opts.remote

			switch {
			case opts.help:
				return cmd.Help()
			case opts.version:
				parsed.Command = CommandVersion
				return nil
			case len(text) == 0:
				return ErrMissingText
			}
			parsed.Command = CommandPolish
			parsed.Text = text[0]
			if len(text) > 1 {
				parsed.Language = text[1]
			}
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	// Root flags are parsed by parseRootArgs; these declarations drive help output
	// and are inherited by subcommands.
	root.Flags().Bool("version", false, "show version")
	root.PersistentFlags().StringVar(&parsed.ConfigPath, "config", "", "config file path (default: $XDG_CONFIG_HOME/textpolish/config.jsonc)")
	root.PersistentFlags().StringVar(&parsed.Remote, "remote", "", "polish via a running `textpolish serve` at ADDR")

	root.AddCommand(
		newTranscribeCommand(parsed),
		newRecordCommand(parsed),
		newBatchCommand(parsed),
		newServeCommand(parsed),
		newSimpleCommand(parsed, CommandDevices, "List available audio input devices"),
		newSimpleCommand(parsed, CommandDoctor, "Run configuration and environment checks"),
		newSimpleCommand(parsed, CommandVersion, "Print version information"),
	)
	return root
}

type rootOptions struct {
	configPath string
	remote     string
	help       bool
	version    bool
}

// parseRootArgs reads root flags up to the first positional argument. Every
// argument from there on is text, as is everything after "--" and any
// single-dash argument other than -h.
func parseRootArgs(args []string) (rootOptions, []string, error) {
	var opts rootOptions
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(arg, "=")

		switch {
		case arg == "--":
			return opts, args[i+1:], nil
		case arg == "-h" || arg == "--help":
			opts.help = true
		case arg == "--version":
			opts.version = true
		case name == "--config" || name == "--remote":
			if !hasValue {
				if i+1 >= len(args) {
					return opts, nil, fmt.Errorf("flag needs an argument: %s", name)
				}
				i++
				value = args[i]
			}
			if name == "--config" {
				opts.configPath = value
			} else {
				opts.remote = value
			}
		case strings.HasPrefix(arg, "--"):
			return opts, nil, fmt.Errorf("unknown flag: %s", name)
		default:
			return opts, args[i:], nil
		}
	}
	return opts, nil, nil
}

func newTranscribeCommand(parsed *Parsed) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <audio> [language]",
		Short: "Recognize speech in an audio file and polish the transcript",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			parsed.Command = CommandTranscribe
			parsed.AudioPath = args[0]
			if len(args) > 1 {
				parsed.Language = args[1]
			}
			return nil
		},
	}
}

func newRecordCommand(parsed *Parsed) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record [language]",
		Short: "Record from the microphone until Ctrl-C, then transcribe and polish",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			parsed.Command = CommandRecord
			if len(args) > 0 {
				parsed.Language = args[0]
			}
			if parsed.Duration < 0 {
				return fmt.Errorf("--duration must be >= 0")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&parsed.Duration, "duration", 0, "maximum recording length (default: audio.max_duration_ms)")
	return cmd
}

func newBatchCommand(parsed *Parsed) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [FILE...]",
		Short: "Polish every line of the given files (or stdin)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed.Command = CommandBatch
			parsed.Files = append([]string(nil), args...)
			parsed.HasJobs = cmd.Flags().Changed("jobs")
			if parsed.HasJobs && parsed.Jobs < 0 {
				return fmt.Errorf("--jobs must be >= 0")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&parsed.Language, "language", "l", "", "language hint applied to every line")
	cmd.Flags().IntVarP(&parsed.Jobs, "jobs", "j", 0, "parallel workers (0 = GOMAXPROCS; default: batch.jobs)")
	return cmd
}

func newServeCommand(parsed *Parsed) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC polish service",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			parsed.Command = CommandServe
			return nil
		},
	}
	cmd.Flags().StringVar(&parsed.Address, "address", "", "listen address (default: server.address)")
	return cmd
}

func newSimpleCommand(parsed *Parsed, name Command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(name),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			parsed.Command = name
			return nil
		},
	}
}
