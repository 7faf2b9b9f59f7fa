package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ezerfernandes/mddoctest/internal/mdcode"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

func listCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{ //nolint:exhaustruct
		Use:     "list [flags]",
		Aliases: []string{"ls"},
		Short:   "List the runnable code blocks without running them",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listRun(opts, cmd.OutOrStdout())
		},

		DisableAutoGenTag: true,
	}

	return cmd
}

func listRun(opts *options, out io.Writer) error {
	files, err := sources(opts)
	if err != nil {
		return err
	}

	langs, err := mdcode.NewLanguages(opts.cfg.Languages...)
	if err != nil {
		return err
	}

	tbl := table.New("File", "Line", "Lang", "Lines").WithWriter(out)

	for _, filename := range files {
		src, err := os.ReadFile(filename)
		if err != nil {
			return err
		}

		blocks, err := mdcode.Unfence(src)
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}

		runnable, err := langs.Executable(blocks)
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}

		for _, block := range runnable {
			tbl.AddRow(filename, block.StartLine, block.Lang, fmt.Sprintf("%d-%d", block.StartLine, block.EndLine))
		}
	}

	tbl.Print()

	return nil
}
