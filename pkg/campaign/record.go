package campaign

import (
	"time"

	"github.com/ja7ad/simcampaign/pkg/types"
)

// Record is one stored simulation result. It is created when a run
// completes and never modified afterwards.
type Record struct {
	ID         string
	Key        string
	Params     map[string]types.Value
	Repetition int
	Seed       int

	Stdout     string
	Stderr     string
	ExitStatus int

	Elapsed    time.Duration
	UserTime   time.Duration
	SystemTime time.Duration
	MaxRSS     types.Bytes

	CreatedAt time.Time
}

// Param returns the value the run was configured with.
func (r Record) Param(name string) (types.Value, bool) {
	v, ok := r.Params[name]
	return v, ok
}

// CPUTime is user plus system time.
func (r Record) CPUTime() time.Duration { return r.UserTime + r.SystemTime }

// Extractor maps one record to the scalar being swept.
type Extractor func(Record) (float64, error)
