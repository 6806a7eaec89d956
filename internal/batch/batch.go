// Package batch polishes many lines concurrently and returns results in input order.
package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/rbright/textpolish/internal/polish"
	"golang.org/x/sync/errgroup"
)

const maxLineBytes = 1 << 20

// Polisher polishes one text. *server.Client and Local both satisfy it.
type Polisher interface {
	Polish(ctx context.Context, text string, hint string) (polish.Result, error)
}

// Local adapts an in-process engine to Polisher.
type Local struct {
	Engine *polish.Engine
}

// Polish runs the engine synchronously.
func (l Local) Polish(_ context.Context, text string, hint string) (polish.Result, error) {
	return l.Engine.Run(text, hint)
}

// Line is one input line with its origin.
type Line struct {
	Source string
	Number int
	Text   string
}

// Item is the outcome for one Line. Exactly one of Result and Error is set.
type Item struct {
	Source string `json:"source,omitempty"`
	Line   int    `json:"line"`
	*polish.Result
	Error string `json:"error,omitempty"`
}

// ReadLines splits r into lines tagged with source and 1-based line numbers.
// A trailing carriage return is dropped from every line.
func ReadLines(r io.Reader, source string) ([]Line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var lines []Line
	for n := 1; scanner.Scan(); n++ {
		lines = append(lines, Line{
			Source: source,
			Number: n,
			Text:   strings.TrimSuffix(scanner.Text(), "\r"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", displaySource(source), err)
	}
	return lines, nil
}

// ReadFiles reads every file in order; an empty list reads stdin.
func ReadFiles(paths []string, stdin io.Reader) ([]Line, error) {
	if len(paths) == 0 {
		return ReadLines(stdin, "")
	}

	var all []Line
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %q: %w", path, err)
		}
		lines, err := ReadLines(f, path)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		all = append(all, lines...)
	}
	return all, nil
}

// Run polishes every line with up to jobs concurrent workers (jobs <= 0 means
// GOMAXPROCS). Per-line failures are reported in Item.Error; only context
// cancellation aborts the batch.
func Run(ctx context.Context, p Polisher, lines []Line, hint string, jobs int) ([]Item, error) {
	items := make([]Item, len(lines))
	if len(lines) == 0 {
		return items, nil
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(lines)))

	for i, line := range lines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			item := Item{Source: line.Source, Line: line.Number}
			result, err := p.Polish(gctx, line.Text, hint)
			if err != nil {
				item.Error = err.Error()
			} else {
				item.Result = &result
			}
			// Each goroutine owns index i.
			items[i] = item
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func displaySource(source string) string {
	if source == "" {
		return "stdin"
	}
	return fmt.Sprintf("%q", source)
}
