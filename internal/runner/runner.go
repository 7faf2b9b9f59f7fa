// Package runner executes the runnable code blocks of a markdown document as
// isolated child processes and collects one Result per block.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ezerfernandes/mddoctest/internal/mdcode"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultCommand evaluates the block text, passed as the last argument, with node.
var DefaultCommand = []string{"node", "--eval"}

// DefaultEncoding is the encoding used to decode captured output.
const DefaultEncoding = "utf-8"

// Logger receives progress messages from the runner.
type Logger interface {
	LogDebug(message string)
	LogTrace(message string)
}

// Result is the outcome of evaluating one block, or the placeholder produced
// for a document without runnable blocks.
type Result struct {
	Line      int
	ExitCode  int
	Stdout    string
	Stderr    string
	Synthetic bool
}

// Passed reports whether the block exited with status zero.
func (r Result) Passed() bool {
	return r.ExitCode == 0
}

// Runner spawns one process per runnable block.
type Runner struct {
	// Command is the runtime invocation; the block text is appended as the
	// final argument. Empty means DefaultCommand.
	Command []string
	// Dir is the working directory of spawned processes.
	Dir string
	// Env holds extra KEY=VALUE pairs added to the inherited environment.
	Env []string
	// Encoding names the encoding of the runtime's output streams.
	Encoding string
	// Jobs limits the number of processes in flight. Zero means no limit.
	Jobs int
	// Languages selects runnable blocks. Nil means mdcode.DefaultLanguages.
	Languages *mdcode.Languages
	Logger    Logger
}

// Run executes every runnable block of doc and returns their results in
// document order. It returns only after every spawned process has exited.
//
// A block that exits non-zero is a failing Result, not an error. Errors are
// reserved for documents whose blocks cannot be read and for processes that
// cannot be started at all, the latter reported as *SpawnError.
func (r *Runner) Run(ctx context.Context, doc *mdcode.Document) ([]Result, error) {
	blocks, err := doc.Blocks()
	if err != nil {
		return nil, err
	}

	langs, err := r.languages()
	if err != nil {
		return nil, err
	}

	runnable, err := langs.Executable(blocks)
	if err != nil {
		return nil, err
	}

	if len(runnable) == 0 {
		r.logger().LogDebug("no runnable blocks, reporting a single pass")

		return []Result{{Line: doc.Line(), ExitCode: 0, Synthetic: true}}, nil
	}

	enc, err := lookupEncoding(r.Encoding)
	if err != nil {
		return nil, err
	}

	command := r.command()

	path, err := exec.LookPath(command[0])
	if err != nil {
		return nil, &SpawnError{Command: command[0], Err: err}
	}

	tasks := make([]*task, len(runnable))
	for i, block := range runnable {
		tasks[i] = &task{block: block, state: Pending}
	}

	group, gctx := errgroup.WithContext(ctx)
	if r.Jobs > 0 {
		group.SetLimit(r.Jobs)
	}

	for _, t := range tasks {
		t := t
		group.Go(func() error {
			return r.runTask(gctx, t, path, command[1:], enc)
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	results := make([]Result, len(tasks))
	for i, t := range tasks {
		results[i] = t.result
	}

	return results, nil
}

func (r *Runner) runTask(ctx context.Context, t *task, path string, args []string, enc encoding.Encoding) error {
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, args...)
	argv = append(argv, string(t.block.Code))

	cmd := exec.CommandContext(ctx, path, argv...)
	cmd.Dir = r.Dir

	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return &SpawnError{Command: path, Line: t.block.StartLine, Err: err}
	}

	t.state = Running
	r.logger().LogTrace(fmt.Sprintf("line %d: %s pid %d", t.block.StartLine, t.state, cmd.Process.Pid))

	exitCode, err := waitExit(cmd)
	if err != nil {
		return err
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	t.result = Result{
		Line:     t.block.StartLine,
		ExitCode: exitCode,
		Stdout:   decode(enc, stdout.Bytes()),
		Stderr:   decode(enc, stderr.Bytes()),
	}
	t.state = Completed

	r.logger().LogDebug(fmt.Sprintf("line %d: %s with exit code %d", t.block.StartLine, t.state, exitCode))

	return nil
}

func waitExit(cmd *exec.Cmd) (int, error) {
	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return code, nil
		}

		// killed by a signal
		return 1, nil
	}

	return -1, err
}

func (r *Runner) command() []string {
	if len(r.Command) == 0 {
		return DefaultCommand
	}

	return r.Command
}

func (r *Runner) languages() (*mdcode.Languages, error) {
	if r.Languages != nil {
		return r.Languages, nil
	}

	return mdcode.NewLanguages()
}

func (r *Runner) logger() Logger { //nolint:ireturn
	if r.Logger == nil {
		return nopLogger{}
	}

	return r.Logger
}

func lookupEncoding(name string) (encoding.Encoding, error) { //nolint:ireturn
	if len(strings.TrimSpace(name)) == 0 {
		name = DefaultEncoding
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrEncoding, name)
	}

	return enc, nil
}

func decode(enc encoding.Encoding, data []byte) string {
	if len(data) == 0 {
		return ""
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}

	return string(out)
}

type nopLogger struct{}

func (nopLogger) LogDebug(string) {}
func (nopLogger) LogTrace(string) {}
