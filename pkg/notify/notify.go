// Package notify publishes campaign progress events.
package notify

import (
	"time"

	"github.com/ja7ad/simcampaign/pkg/types"
)

// Kind of a progress event.
type Kind string

const (
	KindStarted  Kind = "started"
	KindFinished Kind = "finished"
	KindFailed   Kind = "failed"
)

// Event describes one simulation run changing state.
type Event struct {
	Kind       Kind                   `json:"kind"`
	Script     string                 `json:"script"`
	RunID      string                 `json:"run_id,omitempty"`
	Params     map[string]types.Value `json:"params"`
	Repetition int                    `json:"repetition"`
	ExitStatus int                    `json:"exit_status,omitempty"`
	Elapsed    time.Duration          `json:"elapsed_ns,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Done       int                    `json:"done"`
	Total      int                    `json:"total"`
	At         time.Time              `json:"at"`
}

// Notifier receives progress events. Implementations must be safe for
// concurrent use; delivery is best-effort and never fails a run.
type Notifier interface {
	Notify(Event)
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(Event) {}

func (Nop) Close() error { return nil }
