// Command gasreport runs the gas analysis pipeline over one CSV file: it
// logs the current status, statistics and filter counts as JSON and writes
// the CSV report of readings above the lower bound.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cazuela/gasmonitor/pkg/compute"
	"github.com/cazuela/gasmonitor/pkg/filter"
	"github.com/cazuela/gasmonitor/pkg/ingest"
	"github.com/cazuela/gasmonitor/pkg/report"
	"github.com/cazuela/gasmonitor/pkg/types"
)

// optionalFloat is a flag.Value that records whether it was set.
type optionalFloat struct {
	v   float64
	set bool
}

func (o *optionalFloat) String() string {
	if o == nil || !o.set {
		return ""
	}
	return fmt.Sprint(o.v)
}

func (o *optionalFloat) Set(s string) error {
	v, err := parseLevel(s)
	if err != nil {
		return err
	}
	o.v, o.set = v, true
	return nil
}

func (o *optionalFloat) ptr() *float64 {
	if !o.set {
		return nil
	}
	return &o.v
}

func main() {
	in := flag.String("in", "", "input CSV with the sensor readings (required)")
	out := flag.String("out", report.FileName, "path of the CSV report to write; \"-\" for stdout")
	withIndex := flag.Bool("index", false, "include the row index column in the report")
	var lower, upper optionalFloat
	flag.Var(&lower, "min", "lower bound: the report keeps readings strictly above it (default: dataset mean)")
	flag.Var(&upper, "max", "upper bound for the below-range count (default: dataset mean)")
	alert := flag.Float64("alert", envFloat("GAS_ALERT", types.DefaultAlert), "alert threshold in percent (env GAS_ALERT)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if *in == "" {
		fmt.Fprintln(os.Stderr, "gasreport: -in is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*in, *out, *alert, filter.Request{Lower: lower.ptr(), Upper: upper.ptr()}, *withIndex); err != nil {
		slog.Error("gasreport failed", "err", err)
		var pe *types.ParseError
		if errors.As(err, &pe) || errors.Is(err, types.ErrEmptyDataset) {
			slog.Info("expected input format", "hint", types.FormatHint)
		}
		os.Exit(1)
	}
}

// parseLevel parses a gas level in percent. NaN and infinities are rejected.
func parseLevel(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}

func checkLevels(alert float64, req filter.Request) error {
	levels := map[string]*float64{"alert": &alert, "min": req.Lower, "max": req.Upper}
	for name, v := range levels {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("gasreport: -%s must be a finite number", name)
		}
	}
	return nil
}

func run(in, out string, alert float64, req filter.Request, withIndex bool) error {
	if err := checkLevels(alert, req); err != nil {
		return err
	}
	ds, err := ingest.ParseFile(in)
	if err != nil {
		return err
	}
	if ds.Empty() {
		return fmt.Errorf("gasreport: %s: %w", in, types.ErrEmptyDataset)
	}
	th := types.DefaultThresholds().WithAlert(alert)

	ov, err := compute.OverviewOf(ds, th)
	if err != nil {
		return err
	}
	slog.Info("current status",
		"file", filepath.Base(in),
		"readings", ds.Len(),
		"source_column", ds.SourceColumn,
		"current", ov.Current.Value,
		"state", ov.Classification,
		"label", ov.Classification.Label(),
		"mean", ov.Mean,
		"max", ov.Max,
	)

	stats, err := compute.Summarize(ds, th)
	if err != nil {
		return err
	}
	slog.Info("statistics",
		"count", stats.Count,
		"mean", stats.Mean,
		"std", stats.Std,
		"min", stats.Min,
		"q1", stats.Q1,
		"median", stats.Median,
		"q3", stats.Q3,
		"max", stats.Max,
		"high_count", stats.HighCount,
		"high_pct", stats.HighPercent,
		"warn_count", stats.WarnCount,
		"warn_pct", stats.WarnPercent,
		"alert", th.Alert,
		"alert_count", stats.AlertCount,
		"safe_pct", stats.SafeOperationPercent,
	)

	res, err := filter.Apply(ds, th, req)
	if err != nil {
		return err
	}
	reportSet := ds
	if res.NoVariation {
		slog.Warn("filters skipped", "notice", res.Notice)
	} else {
		slog.Info("filters",
			"lower", *res.Above.Lower,
			"above_count", res.Above.Dataset.Len(),
			"upper", *res.Below.Upper,
			"below_count", res.Below.Dataset.Len(),
		)
		reportSet = res.Above.Dataset
	}

	var opts []report.Option
	if withIndex {
		opts = append(opts, report.WithIndex())
	}
	if out == "-" {
		return report.Write(os.Stdout, reportSet, opts...)
	}
	if err := writeReport(out, reportSet, opts); err != nil {
		return err
	}
	slog.Info("report written", "path", out, "rows", reportSet.Len())
	return nil
}

func writeReport(path string, ds types.Dataset, opts []report.Option) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gasreport: create %q: %w", path, err)
	}
	if err := report.Write(f, ds, opts...); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("gasreport: close %q: %w", path, err)
	}
	return nil
}

// envFloat reads a float from the environment, after loading .env if present.
func envFloat(key string, def float64) float64 {
	_ = godotenv.Load()
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := parseLevel(v)
	if err != nil {
		slog.Warn("ignoring environment value", "key", key, "err", err, "default", def)
		return def
	}
	return f
}
