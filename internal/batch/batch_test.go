package batch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rbright/textpolish/internal/polish"
	"github.com/stretchr/testify/require"
)

func TestReadLinesNumbersAndTrimsCarriageReturn(t *testing.T) {
	t.Parallel()

	lines, err := ReadLines(strings.NewReader("hello\r\n\n你好\n"), "in.txt")
	require.NoError(t, err)
	require.Equal(t, []Line{
		{Source: "in.txt", Number: 1, Text: "hello"},
		{Source: "in.txt", Number: 2, Text: ""},
		{Source: "in.txt", Number: 3, Text: "你好"},
	}, lines)
}

func TestReadFilesConcatenatesInOrderAndFallsBackToStdin(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("one\ntwo\n"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("three"), 0o600))

	lines, err := ReadFiles([]string{a, b}, nil)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	require.Equal(t, Line{Source: b, Number: 1, Text: "three"}, lines[2])

	lines, err = ReadFiles(nil, strings.NewReader("from stdin"))
	require.NoError(t, err)
	require.Equal(t, []Line{{Number: 1, Text: "from stdin"}}, lines)

	_, err = ReadFiles([]string{filepath.Join(dir, "missing.txt")}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "open")
}

func TestRunPreservesInputOrder(t *testing.T) {
	t.Parallel()

	engine := polish.NewEngine(nil, polish.DefaultOptions())
	inputs := []string{"hello world", "", "今天天气真好但是我很累", "i think so", "你好，世界！"}
	lines := make([]Line, 0, len(inputs))
	for i, text := range inputs {
		lines = append(lines, Line{Number: i + 1, Text: text})
	}

	items, err := Run(context.Background(), Local{Engine: engine}, lines, "", 3)
	require.NoError(t, err)
	require.Len(t, items, len(inputs))

	for i, item := range items {
		require.Equal(t, i+1, item.Line)
		require.NotNil(t, item.Result)
		want, err := engine.Run(inputs[i], "")
		require.NoError(t, err)
		require.Equal(t, want, *item.Result)
	}
	require.Equal(t, polish.Unknown, items[1].Language)
}

type countingPolisher struct {
	inflight atomic.Int32
	peak     atomic.Int32
	fail     string
}

func (c *countingPolisher) Polish(_ context.Context, text string, _ string) (polish.Result, error) {
	n := c.inflight.Add(1)
	defer c.inflight.Add(-1)
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if text == c.fail {
		return polish.Result{}, errors.New("boom")
	}
	return polish.Result{Original: text, Polished: text, Language: polish.English, Changes: []string{}}, nil
}

func TestRunRespectsJobLimitAndReportsLineErrors(t *testing.T) {
	t.Parallel()

	p := &countingPolisher{fail: "bad"}
	lines := []Line{{Number: 1, Text: "a"}, {Number: 2, Text: "bad"}, {Number: 3, Text: "c"}, {Number: 4, Text: "d"}}

	items, err := Run(context.Background(), p, lines, "", 2)
	require.NoError(t, err)
	require.LessOrEqual(t, p.peak.Load(), int32(2))

	require.Nil(t, items[1].Result)
	require.Equal(t, "boom", items[1].Error)
	require.Equal(t, "c", items[2].Polished)
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, &countingPolisher{}, []Line{{Number: 1, Text: "a"}}, "", 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunEmptyInput(t *testing.T) {
	t.Parallel()

	items, err := Run(context.Background(), &countingPolisher{}, nil, "", 0)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestItemJSONShape(t *testing.T) {
	t.Parallel()

	ok := Item{Source: "a.txt", Line: 2, Result: &polish.Result{Original: "x", Polished: "X.", Language: polish.English, Changes: []string{"fixed capitalization"}}}
	data, err := json.Marshal(ok)
	require.NoError(t, err)
	require.JSONEq(t, `{"source":"a.txt","line":2,"original":"x","polished":"X.","language":"en","changes":["fixed capitalization"]}`, string(data))

	failed := Item{Line: 3, Error: "boom"}
	data, err = json.Marshal(failed)
	require.NoError(t, err)
	require.JSONEq(t, `{"line":3,"error":"boom"}`, string(data))
}
