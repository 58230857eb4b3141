package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yndnr/redikv/internal/cli/output"
	"github.com/yndnr/redikv/internal/protocol/resp"
)

// Executor sends one command and returns the server's reply.
type Executor interface {
	Addr() string
	Do(ctx context.Context, args ...string) (resp.Reply, error)
}

// REPL reads commands line by line and prints each reply.
type REPL struct {
	exec    Executor
	format  output.Format
	input   io.Reader
	output  io.Writer
	history *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithHistory replaces the default history.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// New creates a REPL that sends commands through exec.
func New(exec Executor, format output.Format, opts ...Option) *REPL {
	r := &REPL{
		exec:    exec,
		format:  format,
		input:   os.Stdin,
		output:  os.Stdout,
		history: NewHistory(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loops until exit, quit, EOF or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	_ = r.history.Load()
	defer func() { _ = r.history.Save() }()

	reader := bufio.NewReader(r.input)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintf(r.output, "%s> ", r.exec.Addr())

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := err != nil
		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(r.output)
				return nil
			}
			continue
		}

		r.history.Add(line)
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		if err := r.execute(ctx, line); err != nil {
			fmt.Fprintf(r.output, "(error) %v\n", err)
		}
		if eof {
			return nil
		}
	}
}

func (r *REPL) execute(ctx context.Context, line string) error {
	args, err := SplitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	reply, err := r.exec.Do(ctx, args...)
	if err != nil {
		return fmt.Errorf("could not reach %s: %w", r.exec.Addr(), err)
	}
	return output.Write(r.output, output.ForCommand(r.format, args[0]), reply)
}
