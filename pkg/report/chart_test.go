package report

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, []float64{40, 42, 39, 41, 90}))

	svg := buf.String()
	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.Contains(t, svg, ChartTitle)
	assert.Contains(t, svg, ChartXLabel)
	assert.Contains(t, svg, ChartYLabel)
	assert.Equal(t, 1, strings.Count(svg, "<polyline"))
	assert.Equal(t, 5, strings.Count(svg, "<circle"))
	// UCL and LCL plus their legend entries.
	assert.Equal(t, 4, strings.Count(svg, `stroke-dasharray="8 4"`))

	// Well-formed XML.
	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		_, err := dec.Token()
		if err != nil {
			assert.Equal(t, "EOF", err.Error())
			break
		}
	}
}

func TestRenderChartSinglePoint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, []float64{12}))
	assert.NotContains(t, buf.String(), "NaN")
	assert.NotContains(t, buf.String(), "Inf")
}

func TestRenderChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, nil))
	assert.Zero(t, buf.Len())

	path := filepath.Join(t.TempDir(), "chart.svg")
	require.NoError(t, RenderChartFile(path, nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRenderChartFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.svg")
	require.NoError(t, RenderChartFile(path, []float64{10, 20, 30}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "</svg>")
}
