package sigma

import (
	"math"
)

// DefaultDefectBelow is the throughput (Mbps) below which a transfer counts
// as a defect when no threshold is configured.
const DefaultDefectBelow = 10.0

// ShortTermShift is the long-term to short-term sigma shift.
const ShortTermShift = 1.5

// MinSamples is the minimum number of samples for capability figures.
const MinSamples = 2

// Limits are Shewhart control chart limits.
type Limits struct {
	UpperControlLimit float64 `json:"upper_control_limit" yaml:"upper_control_limit"`
	LowerControlLimit float64 `json:"lower_control_limit" yaml:"lower_control_limit"`
	Mean              float64 `json:"mean" yaml:"mean"`
}

// Analyzer computes process statistics over a fixed sample.
// The sample is copied on construction; Analyzer is safe for concurrent reads.
type Analyzer struct {
	data []float64
	mean float64
	std  float64
}

// NewAnalyzer creates an analyzer over data.
func NewAnalyzer(data []float64) *Analyzer {
	a := &Analyzer{data: append([]float64(nil), data...)}
	a.mean = mean(a.data)
	a.std = stdDev(a.data, a.mean)
	return a
}

// Len returns the number of samples.
func (a *Analyzer) Len() int {
	return len(a.data)
}

// Mean returns the arithmetic mean, or 0 for an empty sample.
func (a *Analyzer) Mean() float64 {
	return a.mean
}

// StdDev returns the population standard deviation (ddof = 0).
func (a *Analyzer) StdDev() float64 {
	return a.std
}

// Cpk returns the process capability index against the specification limits:
// min((usl-mean)/3σ, (mean-lsl)/3σ).
//
// With zero spread the process is either perfectly capable (+Inf, mean inside
// the limits) or never capable (-Inf).
func (a *Analyzer) Cpk(usl, lsl float64) float64 {
	if len(a.data) < MinSamples {
		return 0
	}
	if a.std == 0 {
		if a.mean >= lsl && a.mean <= usl {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	upper := (usl - a.mean) / (3 * a.std)
	lower := (a.mean - lsl) / (3 * a.std)
	return math.Min(upper, lower)
}

// Cp returns the potential process capability (usl-lsl)/6σ.
func (a *Analyzer) Cp(usl, lsl float64) float64 {
	if len(a.data) < MinSamples {
		return 0
	}
	if a.std == 0 {
		if usl >= lsl {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return (usl - lsl) / (6 * a.std)
}

// ControlChart returns the control limits mean ± 3σ.
// ok is false when the sample is too small.
func (a *Analyzer) ControlChart() (limits Limits, ok bool) {
	if len(a.data) < MinSamples {
		return Limits{}, false
	}
	return Limits{
		UpperControlLimit: a.mean + 3*a.std,
		LowerControlLimit: a.mean - 3*a.std,
		Mean:              a.mean,
	}, true
}

// OutOfControl returns the indices of samples outside the control limits.
func (a *Analyzer) OutOfControl() []int {
	limits, ok := a.ControlChart()
	if !ok {
		return nil
	}
	var idx []int
	for i, v := range a.data {
		if v > limits.UpperControlLimit || v < limits.LowerControlLimit {
			idx = append(idx, i)
		}
	}
	return idx
}

// Defects returns the number of samples strictly below threshold.
func (a *Analyzer) Defects(threshold float64) int {
	n := 0
	for _, v := range a.data {
		if v < threshold {
			n++
		}
	}
	return n
}

// SigmaLevel returns the short-term sigma level for the defect rate, where a
// defect is a sample strictly below defectBelow.
//
// A defect-free sample returns +Inf. A sample where every point is a defect
// returns 0.
func (a *Analyzer) SigmaLevel(defectBelow float64) float64 {
	if len(a.data) < MinSamples {
		return 0
	}
	rate := float64(a.Defects(defectBelow)) / float64(len(a.data))
	if rate >= 1 {
		return 0
	}
	return NormPPF(1-rate) + ShortTermShift
}

func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func stdDev(data []float64, m float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var ss float64
	for _, v := range data {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(data)))
}
