package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/soltixdb/xmrchart/internal/analytics/xmr"
	"github.com/soltixdb/xmrchart/internal/ingest"
	"github.com/soltixdb/xmrchart/internal/models"
)

type analyzeFlags struct {
	dateField   string
	valueField  string
	scale       float64
	delimiter   string
	metric      string
	trend       bool
	seasonality bool
	period      int
	asJSON      bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "xmrctl",
		Short:         "Analyse time series with XmR control charts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAnalyzeCmd(), newVersionCmd())
	return root
}

func newAnalyzeCmd() *cobra.Command {
	var f analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze <file.csv>",
		Short: "Compute limits and signals for a CSV series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.OutOrStdout(), args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.dateField, "date-field", "date", "CSV column holding the date")
	flags.StringVar(&f.valueField, "value-field", "value", "CSV column holding the value")
	flags.Float64Var(&f.scale, "scale", 1, "Multiplier applied to every value")
	flags.StringVar(&f.delimiter, "delimiter", ",", "CSV field delimiter")
	flags.StringVar(&f.metric, "metric", "", "Metric name reported in JSON output (default: file name)")
	flags.BoolVar(&f.trend, "trend", false, "Fit a linear trend and slope the limits when significant")
	flags.BoolVar(&f.seasonality, "seasonality", false, "Report per-position seasonal averages")
	flags.IntVar(&f.period, "period", xmr.DefaultSeasonalPeriod, "Seasonal period in points")
	flags.BoolVar(&f.asJSON, "json", false, "Print the chart as JSON")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "xmrctl %s (%s)\n", Version, GitCommit)
		},
	}
}

func runAnalyze(w io.Writer, path string, f analyzeFlags) error {
	if len(f.delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", f.delimiter)
	}
	if f.period <= 0 {
		return fmt.Errorf("period must be positive, got %d", f.period)
	}

	series, err := ingest.LoadCSV(path, ingest.CSVOptions{
		DateField:  f.dateField,
		ValueField: f.valueField,
		Scale:      f.scale,
		Delimiter:  rune(f.delimiter[0]),
	})
	if err != nil {
		return err
	}

	result, err := xmr.Analyze(series, xmr.Options{
		SeasonalPeriod:     f.period,
		IncludeTrend:       f.trend,
		IncludeSeasonality: f.seasonality,
	})
	if err != nil {
		return err
	}

	metric := f.metric
	if metric == "" {
		metric = metricFromPath(path)
	}

	if f.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(models.NewChartResponse(metric, result))
	}
	return writeTable(w, result)
}

// metricFromPath returns the file name without directory or extension
func metricFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func writeTable(w io.Writer, result *xmr.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "DATE\tVALUE\tCL\tUCL\tLCL\tSIGNALS")
	lines := result.Lines()
	for i, p := range result.Points {
		b := lines.At(i)
		signals := "-"
		if p.HasSignal {
			names := make([]string, len(p.Signals))
			for j, s := range p.Signals {
				names[j] = string(s)
			}
			signals = strings.Join(names, ",")
		}
		fmt.Fprintf(tw, "%s\t%.4g\t%.4g\t%.4g\t%.4g\t%s\n",
			p.Time.Format("2006-01-02"), p.Value, b.CL, b.UCL, b.LCL, signals)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	l := result.Limits
	fmt.Fprintf(w, "\npoints=%d signals=%d sloped=%t\n", len(result.Points), result.SignalCount(), result.Sloped())
	fmt.Fprintf(w, "avg_x=%.4g avg_mr=%.4g unpl=%.4g lnpl=%.4g url=%.4g\n", l.AvgX, l.AvgMovement, l.UNPL, l.LNPL, l.URL)

	if t := result.Trend; t != nil {
		fmt.Fprintf(w, "trend: slope=%.4g r2=%.3f direction=%s significant=%t\n",
			t.Slope, t.RSquared, t.Direction, t.IsSignificant)
	}
	if s := result.Seasonality; s != nil {
		fmt.Fprintf(w, "seasonality (period %d):\n", s.Period)
		for _, b := range s.Buckets {
			fmt.Fprintf(w, "  %2d  avg=%.4g var=%.4g\n", b.Period, b.Average, b.Variance)
		}
	}
	return nil
}
