package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"
)

// WriteJSON writes rep as an indented {"pass": [...], "fail": [...]} object.
func WriteJSON(w io.Writer, rep *FileReport) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s\n", data)

	return err
}

// WriteHuman prints the pass/fail counts followed by every failure as
// filename:line. Colors are used only when w is a terminal.
func WriteHuman(w io.Writer, rep *FileReport) error {
	pass, fail := plain(), plain()
	if isTerminal(w) {
		pass, fail = color.New(color.FgGreen), color.New(color.FgRed)
	}

	_, err := fmt.Fprintf(w, "\n%s, %s\n\n",
		pass.Sprintf("%d passed", len(rep.Pass)),
		fail.Sprintf("%d failed", len(rep.Fail)),
	)
	if err != nil {
		return err
	}

	if len(rep.Fail) == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w, "Failed checks:"); err != nil {
		return err
	}

	for _, entry := range rep.Fail {
		if _, err := fmt.Fprintf(w, "- %s\n", fail.Sprintf("%s:%d", entry.Filename, entry.Line)); err != nil {
			return err
		}
	}

	return nil
}

// SaveJSON writes rep to path, holding an exclusive lock on path+".lock"
// so concurrent runs never interleave. The file is replaced atomically.
func SaveJSON(path string, rep *FileReport) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", path, err)
	}
	defer lock.Unlock() //nolint:errcheck

	tmp, err := os.CreateTemp(dir, ".mddoctest-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpPath := tmp.Name()

	if err := WriteJSON(tmp, rep); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("failed to write report: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, fileMode); err != nil {
		os.Remove(tmpPath)

		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("failed to rename report into place: %w", err)
	}

	return nil
}

const (
	dirMode  = 0o755
	fileMode = 0o644
)

func plain() *color.Color {
	c := color.New()
	c.DisableColor()

	return c
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
