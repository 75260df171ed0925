package campaign

import (
	"context"
	"time"

	"github.com/ja7ad/simcampaign/pkg/stats"
	"github.com/ja7ad/simcampaign/pkg/sweep"
	"github.com/ja7ad/simcampaign/pkg/types"
)

// Summary describes what a campaign holds.
type Summary struct {
	Program        string
	Script         string
	Folder         string
	Records        int
	Configurations int
	StdoutBytes    types.Bytes
	PeakRSS        types.Bytes
	CPUTime        time.Duration
	// RunTime accumulates per-run wall time in seconds.
	RunTime stats.Accumulator
	// Missing is the number of runs the queried grid still lacks; zero when
	// no grid was given.
	Missing int
}

// Summarize reports the campaign contents. When grid is non-nil the number
// of runs it still misses is included.
func (c *Campaign) Summarize(ctx context.Context, grid sweep.Grid, runs int) (Summary, error) {
	program, script, _, err := c.store.Meta(ctx)
	if err != nil {
		return Summary{}, err
	}
	recs, err := c.store.All(ctx)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Program: program, Script: script, Folder: c.folder, Records: len(recs)}
	configs := make(map[string]struct{})
	for _, r := range recs {
		configs[r.Key] = struct{}{}
		s.StdoutBytes += types.Bytes(len(r.Stdout))
		s.CPUTime += r.CPUTime()
		if r.MaxRSS > s.PeakRSS {
			s.PeakRSS = r.MaxRSS
		}
		s.RunTime.Add(r.Elapsed.Seconds())
	}
	s.Configurations = len(configs)

	if grid != nil {
		jobs, err := c.Missing(ctx, grid, runs)
		if err != nil {
			return Summary{}, err
		}
		s.Missing = len(jobs)
	}
	return s, nil
}
