// Package report folds block results into per-file pass/fail reports and
// renders them as JSON or as a human-readable summary.
package report

import (
	"github.com/ezerfernandes/mddoctest/internal/runner"
)

// Entry locates one block result.
type Entry struct {
	Line     int    `json:"line"`
	Filename string `json:"filename"`
}

// FileReport partitions the results of one file into passes and failures.
type FileReport struct {
	Pass []Entry `json:"pass"`
	Fail []Entry `json:"fail"`
}

// Aggregate classifies results of filename. A result passes when its exit
// code is exactly zero. Both lists keep the order of results.
func Aggregate(filename string, results []runner.Result) *FileReport {
	rep := &FileReport{Pass: []Entry{}, Fail: []Entry{}}

	for _, res := range results {
		entry := Entry{Line: res.Line, Filename: filename}

		if res.Passed() {
			rep.Pass = append(rep.Pass, entry)
		} else {
			rep.Fail = append(rep.Fail, entry)
		}
	}

	return rep
}

// OK reports whether the file has no failures.
func (r *FileReport) OK() bool {
	return len(r.Fail) == 0
}

// FileError records a file that could not be checked.
type FileError struct {
	Filename string
	Err      error
}

// Summary accumulates the reports of every file of a run.
type Summary struct {
	Files  int
	Errors []FileError
	FileReport
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{FileReport: FileReport{Pass: []Entry{}, Fail: []Entry{}}}
}

// Add appends the entries of rep.
func (s *Summary) Add(rep *FileReport) {
	s.Files++
	s.Pass = append(s.Pass, rep.Pass...)
	s.Fail = append(s.Fail, rep.Fail...)
}

// AddError records a file that failed before any of its blocks ran.
func (s *Summary) AddError(filename string, err error) {
	s.Files++
	s.Errors = append(s.Errors, FileError{Filename: filename, Err: err})
}

// OK reports whether every file passed.
func (s *Summary) OK() bool {
	return len(s.Fail) == 0 && len(s.Errors) == 0
}
