package commands

import (
	"fmt"
	"io"

	"github.com/scpsigma/scpsigma-go/pkg/report"
	"github.com/scpsigma/scpsigma-go/pkg/transfer"
)

// ReportOptions configures the report command.
type ReportOptions struct {
	// Output is the report file. Empty writes to the command's writer.
	Output string

	// Format overrides the format chosen from the Output extension.
	Format string

	Limits report.Limits
}

// RunReport builds a quality report from the metrics in src.
func RunReport(src Source, opts ReportOptions, w io.Writer) error {
	metrics, err := LoadMetrics(src)
	if err != nil {
		return err
	}
	rep := report.Generate(metrics, opts.Limits)
	if rep == nil {
		return fmt.Errorf("%w in %s", report.ErrEmpty, src)
	}

	format := report.FormatJSON
	if opts.Output != "" {
		format = report.FormatForPath(opts.Output)
	}
	if opts.Format != "" {
		if format, err = report.ParseFormat(opts.Format); err != nil {
			return err
		}
	}

	if opts.Output == "" {
		return report.Write(w, rep, format)
	}
	if opts.Format == "" {
		if err := report.WriteFile(opts.Output, rep); err != nil {
			return err
		}
	} else if err := writeReportAs(opts.Output, rep, format); err != nil {
		return err
	}
	fmt.Fprintf(w, "Quality report written to %s (%d transfers)\n", opts.Output, len(metrics))
	return nil
}

// RunChart renders the control chart of the metrics in src to output.
func RunChart(src Source, output string, w io.Writer) error {
	if output == "" {
		return fmt.Errorf("output file (-o) required")
	}
	metrics, err := LoadMetrics(src)
	if err != nil {
		return err
	}
	if len(metrics) == 0 {
		return fmt.Errorf("%w in %s", report.ErrEmpty, src)
	}
	if err := report.RenderChartFile(output, transfer.Throughputs(metrics)); err != nil {
		return err
	}
	fmt.Fprintf(w, "Control chart written to %s (%d transfers)\n", output, len(metrics))
	return nil
}

func writeReportAs(path string, rep *report.QualityReport, format report.Format) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if err := report.Write(f, rep, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
