package sigma

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormPPF(t *testing.T) {
	assert.InDelta(t, 0.0, NormPPF(0.5), 1e-12)
	assert.InDelta(t, 1.959963984540054, NormPPF(0.975), 1e-9)
	assert.InDelta(t, -1.959963984540054, NormPPF(0.025), 1e-9)
}

func TestSixSigmaDefectRate(t *testing.T) {
	// 3.4 defects per million is 4.5 sigma long term, 6 sigma short term.
	z := NormPPF(1 - 3.4e-6)
	assert.InDelta(t, 4.5, z, 1e-3)
	assert.InDelta(t, 6.0, z+ShortTermShift, 1e-3)
}

func TestNormPPFBounds(t *testing.T) {
	assert.True(t, math.IsInf(NormPPF(0), -1))
	assert.True(t, math.IsInf(NormPPF(1), 1))
	assert.True(t, math.IsInf(NormPPF(-0.5), -1))
	assert.True(t, math.IsNaN(NormPPF(math.NaN())))
}

func TestNormCDFInvertsPPF(t *testing.T) {
	for _, p := range []float64{0.001, 0.1, 0.3, 0.5, 0.8, 0.99} {
		assert.InDelta(t, p, NormCDF(NormPPF(p)), 1e-9)
	}
}
