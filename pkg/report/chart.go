package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/scpsigma/scpsigma-go/pkg/sigma"
)

// Chart labels.
const (
	ChartTitle  = "SCP Transfer Throughput Control Chart"
	ChartXLabel = "Transfer #"
	ChartYLabel = "Throughput (Mbps)"
)

// Chart geometry in SVG user units.
const (
	chartWidth   = 1200
	chartHeight  = 600
	marginLeft   = 80
	marginRight  = 150
	marginTop    = 50
	marginBottom = 60
	gridLines    = 5
)

const (
	colorSeries = "#1f77b4"
	colorLimit  = "#d62728"
	colorMean   = "#2ca02c"
	colorGrid   = "#e0e0e0"
)

// RenderChart writes an SVG control chart of throughputs to w: the series,
// the control limits as dashed red lines and the mean in green. Nothing is
// written for an empty series.
func RenderChart(w io.Writer, throughputs []float64) error {
	if len(throughputs) == 0 {
		return nil
	}

	a := sigma.NewAnalyzer(throughputs)
	limits, ok := a.ControlChart()
	if !ok {
		limits = sigma.Limits{
			UpperControlLimit: a.Mean(),
			LowerControlLimit: a.Mean(),
			Mean:              a.Mean(),
		}
	}

	lo, hi := yRange(throughputs, limits)
	plotW := float64(chartWidth - marginLeft - marginRight)
	plotH := float64(chartHeight - marginTop - marginBottom)

	x := func(i int) float64 {
		if len(throughputs) == 1 {
			return marginLeft + plotW/2
		}
		return marginLeft + plotW*float64(i)/float64(len(throughputs)-1)
	}
	y := func(v float64) float64 {
		return marginTop + plotH*(hi-v)/(hi-lo)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`+"\n",
		chartWidth, chartHeight, chartWidth, chartHeight)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="white"/>`+"\n", chartWidth, chartHeight)
	fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="18" text-anchor="middle">%s</text>`+"\n",
		marginLeft+int(plotW)/2, marginTop/2+6, ChartTitle)

	// Grid and y ticks.
	for i := 0; i <= gridLines; i++ {
		v := lo + (hi-lo)*float64(i)/gridLines
		fmt.Fprintf(&b, `<line x1="%d" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s"/>`+"\n",
			marginLeft, y(v), marginLeft+plotW, y(v), colorGrid)
		fmt.Fprintf(&b, `<text x="%d" y="%.2f" font-size="12" text-anchor="end">%.1f</text>`+"\n",
			marginLeft-6, y(v)+4, v)
	}
	// x ticks, at most ten labels.
	step := max(1, (len(throughputs)+9)/10)
	for i := 0; i < len(throughputs); i += step {
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%d" x2="%.2f" y2="%.2f" stroke="%s"/>`+"\n",
			x(i), marginTop, x(i), marginTop+plotH, colorGrid)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" font-size="12" text-anchor="middle">%d</text>`+"\n",
			x(i), marginTop+plotH+18, i)
	}
	fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%.2f" height="%.2f" fill="none" stroke="black"/>`+"\n",
		marginLeft, marginTop, plotW, plotH)

	// Axis labels.
	fmt.Fprintf(&b, `<text x="%.2f" y="%d" font-size="14" text-anchor="middle">%s</text>`+"\n",
		marginLeft+plotW/2, chartHeight-15, ChartXLabel)
	fmt.Fprintf(&b, `<text x="20" y="%.2f" font-size="14" text-anchor="middle" transform="rotate(-90 20 %.2f)">%s</text>`+"\n",
		marginTop+plotH/2, marginTop+plotH/2, ChartYLabel)

	// Limits.
	hline := func(v float64, color, dash string) {
		fmt.Fprintf(&b, `<line x1="%d" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1.5"%s/>`+"\n",
			marginLeft, y(v), marginLeft+plotW, y(v), color, dash)
	}
	hline(limits.UpperControlLimit, colorLimit, ` stroke-dasharray="8 4"`)
	hline(limits.LowerControlLimit, colorLimit, ` stroke-dasharray="8 4"`)
	hline(limits.Mean, colorMean, "")

	// Series.
	points := make([]string, len(throughputs))
	for i, v := range throughputs {
		points[i] = fmt.Sprintf("%.2f,%.2f", x(i), y(v))
	}
	fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
		strings.Join(points, " "), colorSeries)
	for i, v := range throughputs {
		fill := colorSeries
		if v > limits.UpperControlLimit || v < limits.LowerControlLimit {
			fill = colorLimit
		}
		fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s"/>`+"\n", x(i), y(v), fill)
	}

	// Legend.
	legendX := chartWidth - marginRight + 15
	legend := []struct {
		label, color, dash string
	}{
		{"Throughput (Mbps)", colorSeries, ""},
		{"UCL", colorLimit, ` stroke-dasharray="8 4"`},
		{"LCL", colorLimit, ` stroke-dasharray="8 4"`},
		{"Mean", colorMean, ""},
	}
	for i, item := range legend {
		ly := marginTop + 10 + i*22
		fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"%s/>`+"\n",
			legendX, ly, legendX+24, ly, item.color, item.dash)
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="12">%s</text>`+"\n", legendX+30, ly+4, item.label)
	}

	b.WriteString("</svg>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderChartFile writes the chart to path. No file is created for an empty
// series.
func RenderChartFile(path string, throughputs []float64) error {
	if len(throughputs) == 0 {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := RenderChart(f, throughputs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// yRange returns the value range covering the data and the limits, padded by
// 10% so nothing sits on the frame.
func yRange(data []float64, limits sigma.Limits) (lo, hi float64) {
	lo = math.Min(limits.LowerControlLimit, limits.Mean)
	hi = math.Max(limits.UpperControlLimit, limits.Mean)
	for _, v := range data {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.1, 1)
	}
	return lo - pad, hi + pad
}
