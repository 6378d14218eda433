// Command cyclescan locates repeating cycles in recorded position
// signals and lets the operator correct detections interactively. Records
// are processed one at a time; each runs through the adjustment session
// until accepted or aborted, and accepted results are persisted with the
// parameters that produced them.
package main

import (
	"errors"
	"flag"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/kinelab/cyclescan/internal/console"
	"github.com/kinelab/cyclescan/internal/detect"
	"github.com/kinelab/cyclescan/internal/params"
	"github.com/kinelab/cyclescan/internal/records"
	"github.com/kinelab/cyclescan/internal/results"
	"github.com/kinelab/cyclescan/internal/session"
	"github.com/kinelab/cyclescan/internal/signal"
	"github.com/kinelab/cyclescan/internal/timeutil"
)

// LogFileName is the processing log database inside the output directory.
const LogFileName = "processed_records.db"

// Config holds the command line configuration.
type Config struct {
	DataDir     string
	OutputDir   string
	FS          float64
	Pattern     string
	Source      string
	Condition   string
	PositionCol string
	VelocityCol string
	Signal      string
	Threshold   float64 // NaN when not given
	Distance    float64 // NaN when not given
	Anchor      bool
	HTML        bool
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.DataDir, "data", "", "Path to the data directory (required)")
	flag.StringVar(&cfg.OutputDir, "out", "output", "Directory for results, plots and the processing log")
	flag.Float64Var(&cfg.FS, "fs", 0, "Sampling frequency in Hz (required)")
	flag.StringVar(&cfg.Pattern, "pattern", "both", "Detection pattern: on_peak, between_peak or both")
	flag.StringVar(&cfg.Source, "source", "", "Data source keyword to filter files, e.g. c3d or xsens (required)")
	flag.StringVar(&cfg.Condition, "condition", "", "Condition keyword to filter files (required)")
	flag.StringVar(&cfg.PositionCol, "position-col", "", "Name of the position column (required)")
	flag.StringVar(&cfg.VelocityCol, "velocity-col", "", "Name of the velocity column (derived from position when empty)")
	flag.StringVar(&cfg.Signal, "signal", "abs_velocity", "Series to detect on: position, velocity or abs_velocity")
	flag.Float64Var(&cfg.Threshold, "threshold", math.NaN(), "Detection threshold (default: last used)")
	flag.Float64Var(&cfg.Distance, "distance", math.NaN(), "Minimum peak distance in seconds (default: last used)")
	flag.BoolVar(&cfg.Anchor, "anchor-endpoints", true, "Extend accepted detections with the first and last sample")
	flag.BoolVar(&cfg.HTML, "html", false, "Also render interactive HTML charts")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()

	if cfg.DataDir == "" {
		log.Fatal("data directory is required (-data)")
	}
	if cfg.FS <= 0 {
		log.Fatal("sampling frequency is required and must be positive (-fs)")
	}
	if cfg.Source == "" || cfg.Condition == "" {
		log.Fatal("data source and condition keywords are required (-source, -condition)")
	}
	if cfg.PositionCol == "" {
		log.Fatal("position column name is required (-position-col)")
	}

	pattern, err := detect.ParsePattern(cfg.Pattern)
	if err != nil {
		log.Fatal(err)
	}
	src, err := signal.ParseSource(cfg.Signal)
	if err != nil {
		log.Fatal(err)
	}

	plotsDir := filepath.Join(cfg.OutputDir, "plots")
	if err := os.MkdirAll(plotsDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	logDB, err := results.OpenLog(filepath.Join(cfg.OutputDir, LogFileName))
	if err != nil {
		log.Fatalf("failed to open processing log: %v", err)
	}
	defer logDB.Close()

	store := params.NewStore(cfg.OutputDir)
	writer := results.NewWriter(cfg.OutputDir, logDB, timeutil.RealClock{})
	con := console.New(os.Stdin, os.Stdout, src, plotsDir, cfg.HTML)
	sess := session.New(con, src, cfg.Anchor)

	paths, err := records.Scan(cfg.DataDir, cfg.Source, cfg.Condition)
	if err != nil {
		log.Fatal(err)
	}
	if len(paths) == 0 {
		con.Errorf("No CSV or Parquet records found matching %q and %q.", cfg.Source, cfg.Condition)
		return
	}

	failed := false
	for _, path := range paths {
		name := records.RecordName(path)

		if writer.HasResult(name) {
			con.Infof("Record %q has already been processed.", name)
			reprocess, err := con.Confirm("Do you want to reprocess it?", false)
			if err != nil {
				con.Errorf("Operator input closed: %v", err)
				break
			}
			if !reprocess {
				continue
			}
		}

		con.Successf("Processing record: %s", name)

		sig, err := records.Load(path, cfg.PositionCol, cfg.VelocityCol, cfg.FS)
		if err != nil {
			var loadErr *records.LoadError
			if errors.As(err, &loadErr) {
				con.Errorf("Skipping record %q: %v", name, err)
				continue
			}
			log.Fatal(err)
		}

		// Seed from the last accepted parameters, then apply any explicit
		// CLI overrides for this run.
		p := store.Load()
		p.Pattern = pattern
		if !math.IsNaN(cfg.Threshold) {
			p.Threshold = cfg.Threshold
		}
		if !math.IsNaN(cfg.Distance) {
			p.MinDistanceSeconds = cfg.Distance
		}

		outcome, err := sess.Run(sig, p)
		if err != nil {
			con.Errorf("Session for %q failed: %v", name, err)
			break
		}
		if !outcome.Accepted {
			con.Infof("Record %q aborted; nothing saved.", name)
			continue
		}

		res := writer.NewResult(name, outcome.Parameters, outcome.Boundaries)
		if err := writer.Write(res); err != nil {
			con.Errorf("Failed to persist %q: %v", name, err)
			failed = true
			continue
		}
		con.Successf("Saved cycle data to %s", writer.Path(name))

		if err := store.Save(outcome.Parameters); err != nil {
			con.Errorf("Failed to save parameters after %q: %v", name, err)
			failed = true
			continue
		}
	}

	con.Successf("Processing completed.")
	if failed {
		os.Exit(1)
	}
}
