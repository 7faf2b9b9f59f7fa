package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ezerfernandes/mddoctest/internal/discover"
	"github.com/ezerfernandes/mddoctest/internal/mdcode"
	"github.com/ezerfernandes/mddoctest/internal/report"
	"github.com/ezerfernandes/mddoctest/internal/runner"
	"github.com/google/uuid"
)

const runPlaceholder = "{run}"

func checkRun(ctx context.Context, opts *options, stdout io.Writer) error {
	runID := uuid.NewString()
	opts.log.LogDebug("run " + runID)

	files, err := sources(opts)
	if err != nil {
		return err
	}

	r, err := newRunner(opts)
	if err != nil {
		return err
	}

	sum := report.NewSummary()

	for _, filename := range files {
		opts.log.LogInfo("checking " + filename)

		rep, err := checkFile(ctx, r, opts, filename)
		if err != nil {
			if fatal(ctx, err) {
				return err
			}

			opts.log.LogError(fmt.Sprintf("%s: %v", filename, err))
			sum.AddError(filename, err)

			continue
		}

		sum.Add(rep)
	}

	if err := writeReport(opts, &sum.FileReport, stdout); err != nil {
		return err
	}

	if len(opts.output) != 0 {
		path := strings.ReplaceAll(opts.output, runPlaceholder, runID)
		if err := report.SaveJSON(path, &sum.FileReport); err != nil {
			return err
		}

		opts.log.LogDebug("report written to " + path)
	}

	if !sum.OK() {
		return errChecksFailed
	}

	return nil
}

// checkFile runs the blocks of one file. Failing blocks are part of the
// report; an error means the file could not be checked at all.
func checkFile(ctx context.Context, r *runner.Runner, opts *options, filename string) (*report.FileReport, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	doc, err := mdcode.Parse(src)
	if err != nil {
		return nil, err
	}

	results, err := r.Run(ctx, doc)
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		location := fmt.Sprintf("%s:%d", filename, res.Line)

		opts.log.LogOutput(location, "stdout", res.Stdout)
		opts.log.LogOutput(location, "stderr", res.Stderr)

		if !res.Passed() {
			opts.log.LogInfo(fmt.Sprintf("%s exited with %d", location, res.ExitCode))
		}
	}

	return report.Aggregate(filename, results), nil
}

// fatal reports whether err must stop the whole sweep instead of only the
// current file.
func fatal(ctx context.Context, err error) bool {
	return errors.Is(err, runner.ErrSpawn) || errors.Is(err, runner.ErrEncoding) || ctx.Err() != nil
}

func writeReport(opts *options, rep *report.FileReport, stdout io.Writer) error {
	switch {
	case opts.JSON:
		return report.WriteJSON(stdout, rep)
	case opts.Silent:
		return nil
	default:
		return report.WriteHuman(stdout, rep)
	}
}

func sources(opts *options) ([]string, error) {
	if len(opts.File) != 0 {
		return []string{opts.File}, nil
	}

	files, err := discover.Files(os.DirFS(opts.Dir), ".", opts.cfg.Include)
	if err != nil {
		return nil, err
	}

	for i, name := range files {
		files[i] = filepath.Join(opts.Dir, filepath.FromSlash(name))
	}

	return files, nil
}

func newRunner(opts *options) (*runner.Runner, error) {
	command, err := opts.cfg.Command(os.Getenv)
	if err != nil {
		return nil, err
	}

	langs, err := mdcode.NewLanguages(opts.cfg.Languages...)
	if err != nil {
		return nil, err
	}

	return &runner.Runner{
		Command:   command,
		Env:       opts.cfg.Env,
		Encoding:  opts.cfg.Encoding,
		Jobs:      opts.cfg.Jobs,
		Languages: langs,
		Logger:    opts.log,
	}, nil
}
