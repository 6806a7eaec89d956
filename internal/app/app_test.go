package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rbright/textpolish/internal/audio"
	"github.com/rbright/textpolish/internal/doctor"
	"github.com/rbright/textpolish/internal/polish"
	"github.com/rbright/textpolish/internal/server"
	"github.com/stretchr/testify/require"
)

type runnerPaths struct {
	configPath string
	stateDir   string
}

func setupRunnerEnv(t *testing.T, content string) runnerPaths {
	t.Helper()

	stateDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateDir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configPath := filepath.Join(t.TempDir(), "config.jsonc")
	if content == "" {
		content = "{}\n"
	}
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	return runnerPaths{configPath: configPath, stateDir: stateDir}
}

func runRunner(t *testing.T, runner Runner, args ...string) (int, string, string) {
	t.Helper()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	runner.Stdout = &stdout
	runner.Stderr = &stderr
	code := runner.Execute(context.Background(), args)
	return code, stdout.String(), stderr.String()
}

func decodeResult(t *testing.T, line string) polish.Result {
	t.Helper()

	var result polish.Result
	require.NoError(t, json.Unmarshal([]byte(line), &result))
	return result
}

func writeScript(t *testing.T, name string, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func TestExecuteHelp(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"--help"}, &stdout, &stderr)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), "Usage:")
	require.Empty(t, stderr.String())
}

func TestExecuteVersion(t *testing.T) {
	for _, args := range [][]string{{"version"}, {"--version"}} {
		var stdout bytes.Buffer
		var stderr bytes.Buffer

		exitCode := Execute(context.Background(), args, &stdout, &stderr)
		require.Equal(t, 0, exitCode)
		require.Contains(t, stdout.String(), "textpolish")
		require.Empty(t, stderr.String())
	}
}

func TestExecuteUnknownFlagIsUsageError(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{"--definitely-not-a-flag", "hi"}, &stdout, &stderr)
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "unknown flag")
	require.Contains(t, stderr.String(), "Usage:")
	require.Empty(t, stdout.String())
}

func TestExecuteMissingTextPrintsJSONError(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	exitCode := Execute(context.Background(), []string{}, &stdout, &stderr)
	require.Equal(t, 1, exitCode)
	require.Equal(t, "{\"error\":\"usage: textpolish <text> [language]\"}\n", stdout.String())
}

func TestRunnerPolishEmitsSingleJSONLine(t *testing.T) {
	paths := setupRunnerEnv(t, "")

	code, stdout, stderr := runRunner(t, Runner{}, "--config", paths.configPath, "我的的书很好", "zh")
	require.Equal(t, 0, code, stderr)
	require.Empty(t, stderr)
	require.Equal(t, 1, strings.Count(stdout, "\n"))

	result := decodeResult(t, stdout)
	require.Equal(t, "我的的书很好", result.Original)
	require.Equal(t, "我的书很好！", result.Polished)
	require.Equal(t, polish.Chinese, result.Language)
	require.Equal(t, []string{polish.ChangeSmartPunctuation, "duplicate word: '的的' → '的'"}, result.Changes)
}

func TestRunnerPolishDoesNotEscapeAngleBrackets(t *testing.T) {
	paths := setupRunnerEnv(t, "")

	code, stdout, _ := runRunner(t, Runner{}, "--config", paths.configPath, "《书》很好", "zh")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "<")
	require.NotContains(t, stdout, `<`)
}

func TestRunnerPolishAppliesConfigOptions(t *testing.T) {
	paths := setupRunnerEnv(t, `{
  // keep ASCII conversion of inserted marks
  "polish": {"preserve_inserted_punctuation": false, "smart_punctuation": true},
}`)

	code, stdout, stderr := runRunner(t, Runner{}, "--config", paths.configPath, "今天天气真好但是我很累", "zh")
	require.Equal(t, 0, code, stderr)
	require.Equal(t, "今天天气真好,但是我很累.", decodeResult(t, stdout).Polished)
}

func TestRunnerPolishStrictHintFails(t *testing.T) {
	paths := setupRunnerEnv(t, `{"polish": {"hint_policy": "strict"}}`)

	code, stdout, stderr := runRunner(t, Runner{}, "--config", paths.configPath, "hello", "fr")
	require.Equal(t, 1, code)
	require.Empty(t, stdout)
	require.Contains(t, stderr, "unknown language hint")
}

func TestRunnerInvalidConfigFails(t *testing.T) {
	paths := setupRunnerEnv(t, `{"polish": {"hint_policy": "sometimes"}}`)

	code, _, stderr := runRunner(t, Runner{}, "--config", paths.configPath, "hello")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "polish.hint_policy")
}

func TestRunnerPrintsConfigWarnings(t *testing.T) {
	paths := setupRunnerEnv(t, `{"debug": {"keep_recordings": true}}`)

	code, _, stderr := runRunner(t, Runner{}, "--config", paths.configPath, "hello")
	require.Equal(t, 0, code)
	require.Contains(t, stderr, "warning: debug.keep_recordings is enabled")
}

func TestRunnerWritesPolishCompleteLog(t *testing.T) {
	paths := setupRunnerEnv(t, "")

	code, _, _ := runRunner(t, Runner{}, "--config", paths.configPath, "hello world")
	require.Equal(t, 0, code)

	data, err := os.ReadFile(filepath.Join(paths.stateDir, "textpolish", "log.jsonl"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"polish complete"`)
	require.Contains(t, string(data), `"change_count":2`)
}

func TestRunnerTranscribeRunsASRCommand(t *testing.T) {
	script := writeScript(t, "asr.sh", "#!/usr/bin/env bash\nprintf '今天天气真好但是我很累\\n'\n")
	paths := setupRunnerEnv(t, `{"asr": {"command": "`+script+`"}}`)

	audioPath := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(audioPath, []byte("RIFF"), 0o600))

	code, stdout, stderr := runRunner(t, Runner{}, "--config", paths.configPath, "transcribe", audioPath, "zh")
	require.Equal(t, 0, code, stderr)
	result := decodeResult(t, stdout)
	require.Equal(t, "今天天气真好但是我很累", result.Original)
	require.Equal(t, "今天天气真好，但是我很累。", result.Polished)
}

func TestRunnerTranscribeMissingAudioFails(t *testing.T) {
	paths := setupRunnerEnv(t, `{"asr": {"command": "true"}}`)

	code, stdout, stderr := runRunner(t, Runner{}, "--config", paths.configPath, "transcribe", "/definitely/missing.wav")
	require.Equal(t, 1, code)
	require.Empty(t, stdout)
	require.Contains(t, stderr, "missing.wav")
}

func TestRunnerBatchReadsStdinInOrder(t *testing.T) {
	paths := setupRunnerEnv(t, "")

	runner := Runner{Stdin: strings.NewReader("hello world\n\n今天天气真好\n")}
	code, stdout, stderr := runRunner(t, runner, "--config", paths.configPath, "batch", "--jobs", "2")
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	require.Len(t, lines, 3)

	var first struct {
		Line     int    `json:"line"`
		Polished string `json:"polished"`
		Language string `json:"language"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Equal(t, 1, first.Line)
	require.Equal(t, "Hello world.", first.Polished)

	require.Contains(t, lines[1], `"language":"unknown"`)
	require.Contains(t, lines[2], "今天天气真好！")
}

func TestRunnerBatchReportsLineFailures(t *testing.T) {
	paths := setupRunnerEnv(t, `{"polish": {"hint_policy": "strict"}}`)

	runner := Runner{Stdin: strings.NewReader("hello\n")}
	code, stdout, stderr := runRunner(t, runner, "--config", paths.configPath, "batch", "-l", "fr")
	require.Equal(t, 1, code)
	require.Contains(t, stdout, `"error":"unknown language hint: \"fr\""`)
	require.Contains(t, stderr, "line 1")
}

func TestRunnerBatchMissingFileFails(t *testing.T) {
	paths := setupRunnerEnv(t, "")

	code, _, stderr := runRunner(t, Runner{}, "--config", paths.configPath, "batch", "/definitely/missing.txt")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "missing.txt")
}

func startPolishServer(t *testing.T) string {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := server.New(polish.NewEngine(nil, polish.DefaultOptions()), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return lis.Addr().String()
}

func TestRunnerPolishRemote(t *testing.T) {
	paths := setupRunnerEnv(t, "")
	address := startPolishServer(t)

	code, stdout, stderr := runRunner(t, Runner{}, "--config", paths.configPath, "--remote", address, "i think so", "en")
	require.Equal(t, 0, code, stderr)
	require.Equal(t, "I think so.", decodeResult(t, stdout).Polished)
}

func TestRunnerPolishRemoteUnreachableFails(t *testing.T) {
	paths := setupRunnerEnv(t, "")

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := lis.Addr().String()
	require.NoError(t, lis.Close())

	code, stdout, stderr := runRunner(t, Runner{}, "--config", paths.configPath, "--remote", address, "hello")
	require.Equal(t, 1, code)
	require.Empty(t, stdout)
	require.Contains(t, stderr, "error:")
}

// lockedBuffer lets the test read stdout while serve is still writing.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunnerServeUntilCancelled(t *testing.T) {
	paths := setupRunnerEnv(t, "")

	var stdout lockedBuffer
	var stderr lockedBuffer
	runner := Runner{Stdout: &stdout, Stderr: &stderr}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() {
		done <- runner.Execute(ctx, []string{"--config", paths.configPath, "serve", "--address", "127.0.0.1:0"})
	}()

	var address string
	require.Eventually(t, func() bool {
		line := stdout.String()
		if !strings.HasPrefix(line, "listening on ") {
			return false
		}
		address = strings.TrimSpace(strings.TrimPrefix(line, "listening on "))
		return true
	}, 5*time.Second, 20*time.Millisecond)

	client, err := server.Dial(context.Background(), address, time.Second)
	require.NoError(t, err)
	result, err := client.Polish(context.Background(), "你好，世界！", "zh")
	require.NoError(t, err)
	require.Equal(t, "你好,世界!", result.Polished)
	require.NoError(t, client.Close())

	cancel()
	select {
	case code := <-done:
		require.Equal(t, 0, code, stderr.String())
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestRunnerDoctorUsesProbes(t *testing.T) {
	paths := setupRunnerEnv(t, `{"asr": {"command": "sh"}}`)

	runner := Runner{Probes: doctor.Probes{
		SelectDevice: func(context.Context, string, string) (audio.Selection, error) {
			return audio.Selection{Device: audio.Device{ID: "mic"}}, nil
		},
		ServerHealth: func(context.Context, string) (bool, error) {
			return false, errors.New("connection refused")
		},
	}}

	code, stdout, stderr := runRunner(t, runner, "--config", paths.configPath, "doctor")
	require.Equal(t, 0, code, stdout+stderr)
	require.Contains(t, stdout, "[OK] rules.zh")
	require.Contains(t, stdout, "[OK] rules.en")
	require.Contains(t, stdout, `[OK] audio.device: selected "mic"`)
}

func TestRunnerDoctorFailsWhenAudioUnavailable(t *testing.T) {
	paths := setupRunnerEnv(t, `{"asr": {"command": "sh"}}`)

	runner := Runner{Probes: doctor.Probes{
		SelectDevice: func(context.Context, string, string) (audio.Selection, error) {
			return audio.Selection{}, errors.New("no audio input devices found")
		},
		ServerHealth: func(context.Context, string) (bool, error) { return true, nil },
	}}

	code, stdout, _ := runRunner(t, runner, "--config", paths.configPath, "doctor")
	require.Equal(t, 1, code)
	require.Contains(t, stdout, "[FAIL] audio.device")
}

func TestRunnerDevicesFailsWithoutPulseServer(t *testing.T) {
	paths := setupRunnerEnv(t, "")
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	code, _, stderr := runRunner(t, Runner{}, "--config", paths.configPath, "devices")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "error:")
}

func TestRunnerPolishesLeadingDashAndCommandNameText(t *testing.T) {
	paths := setupRunnerEnv(t, "")

	code, stdout, stderr := runRunner(t, Runner{}, "--config", paths.configPath, "-5度很冷")
	require.Equal(t, 0, code, stderr)
	result := decodeResult(t, stdout)
	require.Equal(t, "-5度很冷", result.Original)
	require.Equal(t, polish.Chinese, result.Language)
	require.Equal(t, "-5 度很冷。", result.Polished)

	code, stdout, stderr = runRunner(t, Runner{}, "--config", paths.configPath, "--", "help")
	require.Equal(t, 0, code, stderr)
	require.Equal(t, "Help.", decodeResult(t, stdout).Polished)
}
