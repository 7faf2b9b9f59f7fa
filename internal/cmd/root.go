// Package cmd implements the mddoctest command line.
package cmd

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/ezerfernandes/mddoctest/internal/config"
	"github.com/ezerfernandes/mddoctest/internal/logger"
	"github.com/spf13/cobra"
)

//go:embed help/root.md
var rootHelp string

// Version is injected at build time via -ldflags
var Version = "dev"

// errChecksFailed signals failing blocks; it sets the exit status without
// printing an error message.
var errChecksFailed = errors.New("checks failed")

type options struct {
	config.Options

	configFile string
	output     string
	logLevel   string
	jobs       int

	cfg *config.Config
	log *logger.ConsoleLogger
}

// Execute runs the command line with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if !errors.Is(err, errChecksFailed) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}

	return 1
}

// NewRootCommand creates the mddoctest command and its subcommands.
func NewRootCommand() *cobra.Command {
	opts := new(options)

	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:           "mddoctest [flags]",
		Short:         "Run the JavaScript code blocks of markdown files as tests",
		Long:          rootHelp,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return checkRun(cmd.Context(), opts, cmd.OutOrStdout())
		},

		DisableAutoGenTag: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.File, "file", "f", "", "markdown file to check")
	flags.StringVarP(&opts.Dir, "dir", "d", "", "directory to check recursively (default \".\")")
	flags.StringVarP(&opts.configFile, "config", "c", config.DefaultFile, "configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log verbosity: trace, debug, info, warn, error")

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVarP(&opts.Silent, "silent", "s", false, "print nothing, report through the exit status only")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "also write the JSON report to this file ({run} expands to the run id)")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "maximum blocks of a file running at once (0 = unlimited)")

	cmd.AddCommand(listCmd(opts))

	return cmd
}

// setup validates the flags and loads the configuration. It runs before
// any file is read, so conflicting selections never execute a block.
func (o *options) setup(cmd *cobra.Command) error {
	if err := o.Validate(); err != nil {
		return err
	}

	if cmd.Flags().Changed("config") {
		if _, err := os.Stat(o.configFile); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
	}

	cfg, err := config.LoadConfig(o.configFile)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		if !logger.ValidLevel(o.logLevel) {
			return fmt.Errorf("invalid log level %q", o.logLevel)
		}

		cfg.LogLevel = o.logLevel
	}

	if cmd.Flags().Changed("jobs") {
		if o.jobs < 0 {
			return fmt.Errorf("invalid jobs %d: must not be negative", o.jobs)
		}

		cfg.Jobs = o.jobs
	}

	o.cfg = cfg
	o.log = logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	return nil
}
