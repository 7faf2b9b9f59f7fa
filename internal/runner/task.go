package runner

import "github.com/ezerfernandes/mddoctest/internal/mdcode"

// State is the lifecycle stage of a block evaluation.
type State int

const (
	Pending State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// task owns one runnable block and the slot its result is recorded in.
// Each task is touched by a single goroutine until the group is drained.
type task struct {
	block  *mdcode.Block
	state  State
	result Result
}
