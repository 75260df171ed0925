package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/simcampaign/pkg/campaign"
	"github.com/ja7ad/simcampaign/pkg/pipeline"
	"github.com/ja7ad/simcampaign/pkg/stats"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarise the stored runs and what the configured grid still misses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := pipeline.Status(cmd.Context(), a.cfg, pipeline.WithLogger(a.log))
			if err != nil {
				return err
			}
			printStatus(a.out, s, a.cfg.Grid.Size()*a.cfg.Runs)
			return nil
		},
	}
}

func (a *app) simulate(ctx context.Context) error {
	st, err := pipeline.Simulate(ctx, a.cfg, pipeline.WithLogger(a.log))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d of %d runs executed in %s\n",
		st.Executed, st.Required, st.Elapsed.Round(time.Millisecond))
	return nil
}

func printStatus(w io.Writer, s campaign.Summary, required int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "folder\t%s\n", s.Folder)
	fmt.Fprintf(tw, "program\t%s\n", s.Program)
	fmt.Fprintf(tw, "script\t%s\n", s.Script)
	fmt.Fprintf(tw, "runs stored\t%d\n", s.Records)
	fmt.Fprintf(tw, "configurations\t%d\n", s.Configurations)
	fmt.Fprintf(tw, "runs missing\t%d of %d\n", s.Missing, required)
	fmt.Fprintf(tw, "stdout stored\t%s\n", s.StdoutBytes.Humanized())
	fmt.Fprintf(tw, "peak rss\t%s\n", s.PeakRSS.Humanized())
	fmt.Fprintf(tw, "cpu time\t%s\n", s.CPUTime.Round(time.Millisecond))
	if n := s.RunTime.Count(); n > 0 {
		fmt.Fprintf(tw, "run time (s)\tavg %.3f  sd %.3f  min %.3f  max %.3f\n",
			s.RunTime.Mean(), s.RunTime.StdDev(), s.RunTime.Min(), s.RunTime.Max())
		fmt.Fprintf(tw, "cpu per wall second\t%.2f\n", stats.SafeDiv(s.CPUTime.Seconds(), s.RunTime.Sum()))
	}
	_ = tw.Flush()
}
