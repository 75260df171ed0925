// Package config holds the campaign configuration: which program to run,
// the parameter grid, the number of repetitions and where the report goes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ja7ad/simcampaign/pkg/logging"
	"github.com/ja7ad/simcampaign/pkg/report"
	"github.com/ja7ad/simcampaign/pkg/runner"
	"github.com/ja7ad/simcampaign/pkg/sweep"
	"github.com/ja7ad/simcampaign/pkg/types"
)

// Config is passed by value into the pipeline; nothing reads global state.
type Config struct {
	Program   Program    `yaml:"program"`
	Results   string     `yaml:"results"`
	Grid      sweep.Grid `yaml:"grid"`
	Runs      int        `yaml:"runs"`
	Workers   int        `yaml:"workers"`
	Overwrite bool       `yaml:"overwrite"`
	Report    Report     `yaml:"report"`
	Logging   Logging    `yaml:"logging"`
	Notify    Notify     `yaml:"notify"`
}

// Program locates the simulator.
type Program struct {
	Dir       string   `yaml:"dir"`
	Script    string   `yaml:"script"`
	Launcher  []string `yaml:"launcher"`
	SeedParam string   `yaml:"seed_param"`
}

// Report selects the swept x axis and the output files.
type Report struct {
	X      string `yaml:"x"`
	Output string `yaml:"output"`
	Format string `yaml:"format"`
	// Confidence is the level of the Student-t interval written next to
	// the means; 0 disables it.
	Confidence float64 `yaml:"confidence"`
	CSV        string  `yaml:"csv"`
	JSON       string  `yaml:"json"`
	HTML       string  `yaml:"html"`
}

// Logging selects the zap level and encoder.
type Logging struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Notify groups the progress notification sinks.
type Notify struct {
	MQTT MQTT `yaml:"mqtt"`
}

// MQTT enables progress events when Broker is set.
type MQTT struct {
	Broker      string        `yaml:"broker"`
	TopicPrefix string        `yaml:"topic_prefix"`
	ClientID    string        `yaml:"client_id"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Default returns the wifi-multi-tos throughput campaign.
func Default() Config {
	return Config{
		Program: Program{
			Dir:       "ns-3",
			Script:    "wifi-multi-tos",
			Launcher:  []string{"./ns3", "run", "--quiet", "--no-build"},
			SeedParam: runner.DefaultSeedParam,
		},
		Results: "results",
		Grid: sweep.Grid{
			{Name: "channelWidth", Values: sweep.Values(20)},
			{Name: "distance", Values: mustRange(0, 60, 5)},
			{Name: "mcs", Values: mustRange(0, 7, 2)},
			{Name: "nWifi", Values: sweep.Values(1)},
			{Name: "simulationTime", Values: sweep.Values(5)},
			{Name: "useRts", Values: sweep.Values(false)},
			{Name: "useShortGuardInterval", Values: sweep.Values(false)},
		},
		Runs:    10,
		Workers: 1,
		Report: Report{
			X:      "distance",
			Output: "report/figures/data/throughput.txt",
			Format: report.DefaultFormat,
		},
		Logging: Logging{Level: "info"},
		Notify: Notify{MQTT: MQTT{
			TopicPrefix: "simcampaign",
			Timeout:     5 * time.Second,
		}},
	}
}

func mustRange(start, stop, step int) []types.Value {
	vs, err := sweep.Range(start, stop, step)
	if err != nil {
		panic(err)
	}
	return vs
}

// Load reads a YAML file over Default. Keys absent from the file keep their
// default; unknown keys are rejected.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Decode(bytes.NewReader(b))
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML from r over Default.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// Spec is the runner view of Program.
func (c Config) Spec() runner.Spec {
	return runner.Spec{
		Program:   c.Program.Dir,
		Script:    c.Program.Script,
		Launcher:  c.Program.Launcher,
		SeedParam: c.Program.SeedParam,
	}
}

// Validate reports the first problem found in c.
func (c Config) Validate() error {
	if c.Program.Dir == "" {
		return fmt.Errorf("%w: program.dir is empty", ErrInvalid)
	}
	if c.Program.Script == "" {
		return fmt.Errorf("%w: program.script is empty", ErrInvalid)
	}
	if c.Results == "" {
		return fmt.Errorf("%w: results folder is empty", ErrInvalid)
	}
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("%w: grid: %w", ErrInvalid, err)
	}
	if c.Runs <= 0 {
		return fmt.Errorf("%w: runs must be > 0, got %d", ErrInvalid, c.Runs)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be > 0, got %d", ErrInvalid, c.Workers)
	}
	if err := c.Report.validate(c.Grid); err != nil {
		return fmt.Errorf("%w: report: %w", ErrInvalid, err)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (r Report) validate(grid sweep.Grid) error {
	if r.Output == "" {
		return errors.New("output path is empty")
	}
	p, _, ok := grid.Param(r.X)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParam, r.X)
	}
	if _, err := p.Floats(); err != nil {
		return err
	}
	if r.Format != "" {
		if err := report.CheckFormat(r.Format); err != nil {
			return err
		}
	}
	if r.Confidence < 0 || r.Confidence >= 1 {
		return fmt.Errorf("confidence must be in [0,1), got %g", r.Confidence)
	}
	return nil
}
