package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ja7ad/simcampaign/pkg/config"
	"github.com/ja7ad/simcampaign/pkg/logging"
	"github.com/ja7ad/simcampaign/pkg/pipeline"
)

type opts struct {
	configPath string
	logLevel   string
	logJSON    bool

	// campaign
	results   string
	runs      int
	workers   int
	overwrite bool
	broker    string

	// outputs
	output   string
	format   string
	ci       float64
	csvPath  string
	jsonPath string
	htmlPath string
}

type app struct {
	o   opts
	cfg config.Config
	log *zap.Logger
	out io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	a := &app{out: os.Stdout}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	if err != nil {
		log := a.logger()
		log.Error(err.Error())
		_ = log.Sync()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "simcampaign",
		Short: "Run a parameter sweep of network simulations and report averaged throughput",
		Long: `The simcampaign tool runs a simulation script (by default the ns-3
wifi-multi-tos example) for every configuration of a parameter grid, repeats
each configuration with independent seeds, stores every run in a results
folder and writes the throughput averaged over repetitions as a plain text
matrix: one line per distance, one column per MCS.

Runs already present in the results folder are never executed again, so an
interrupted campaign resumes where it stopped.

Examples:
  simcampaign
  simcampaign --config campaign.yaml --workers 4 --ci 0.95 --html report/throughput.html
  simcampaign export --fmt %.18e
  simcampaign status`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.o.configPath, "config", "c", "", "YAML campaign file (defaults to the built-in wifi-multi-tos campaign)")
	pf.StringVar(&a.o.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&a.o.logJSON, "log-json", false, "log one JSON object per line")
	pf.StringVarP(&a.o.results, "results", "r", "", "results folder holding the campaign database")
	pf.IntVarP(&a.o.runs, "runs", "n", 0, "repetitions per configuration")
	pf.BoolVar(&a.o.overwrite, "overwrite", false, "wipe a results folder that belongs to another program or script")

	root.Flags().IntVarP(&a.o.workers, "workers", "w", 0, "simulations running at the same time")
	root.Flags().StringVar(&a.o.broker, "mqtt", "", "publish run progress to this MQTT broker (e.g. tcp://127.0.0.1:1883)")
	addReportFlags(root, &a.o)

	root.AddCommand(newSimulateCmd(a), newExportCmd(a), newStatusCmd(a))
	return root
}

func addReportFlags(cmd *cobra.Command, o *opts) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "text matrix output path")
	cmd.Flags().StringVar(&o.format, "fmt", "", "float format of the text matrix (e.g. %g, %.18e)")
	cmd.Flags().Float64Var(&o.ci, "ci", 0, "also write Student-t confidence half-widths at this level (e.g. 0.95)")
	cmd.Flags().StringVar(&o.csvPath, "csv", "", "write the averaged table to CSV file")
	cmd.Flags().StringVar(&o.jsonPath, "json", "", "write the averaged table to JSON file")
	cmd.Flags().StringVar(&o.htmlPath, "html", "", "write the averaged table to HTML file")
}

func newSimulateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Execute the missing runs without writing a report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.simulate(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&a.o.workers, "workers", "w", 0, "simulations running at the same time")
	cmd.Flags().StringVar(&a.o.broker, "mqtt", "", "publish run progress to this MQTT broker")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the report from stored runs only; fails if a run is missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := pipeline.Run(cmd.Context(), a.cfg, pipeline.WithLogger(a.log), pipeline.WithoutSimulation())
			return err
		},
	}
	addReportFlags(cmd, &a.o)
	return cmd
}

// setup loads the configuration, applies the flags that were set and builds
// the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.o.configPath != "" {
		var err error
		if cfg, err = config.Load(a.o.configPath); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("log-level", func() { cfg.Logging.Level = a.o.logLevel })
	set("log-json", func() { cfg.Logging.JSON = a.o.logJSON })
	set("results", func() { cfg.Results = a.o.results })
	set("runs", func() { cfg.Runs = a.o.runs })
	set("overwrite", func() { cfg.Overwrite = a.o.overwrite })
	set("workers", func() { cfg.Workers = a.o.workers })
	set("mqtt", func() { cfg.Notify.MQTT.Broker = a.o.broker })
	set("output", func() { cfg.Report.Output = a.o.output })
	set("fmt", func() { cfg.Report.Format = a.o.format })
	set("ci", func() { cfg.Report.Confidence = a.o.ci })
	set("csv", func() { cfg.Report.CSV = a.o.csvPath })
	set("json", func() { cfg.Report.JSON = a.o.jsonPath })
	set("html", func() { cfg.Report.HTML = a.o.htmlPath })

	log, err := logging.New(logging.Options{Level: cfg.Logging.Level, JSON: cfg.Logging.JSON})
	if err != nil {
		return err
	}
	a.log = log
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) logger() *zap.Logger {
	if a.log != nil {
		return a.log
	}
	log, err := logging.New(logging.Options{})
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func (a *app) run(ctx context.Context) error {
	res, err := pipeline.Run(ctx, a.cfg, pipeline.WithLogger(a.log))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d of %d runs executed in %s\n",
		res.Stats.Executed, res.Stats.Required, res.Stats.Elapsed.Round(time.Millisecond))
	for _, f := range res.Files {
		fmt.Fprintf(a.out, "wrote %s\n", f)
	}
	return nil
}
