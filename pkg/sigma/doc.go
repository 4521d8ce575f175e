// Package sigma provides Six Sigma statistics for transfer throughput samples.
//
// Throughput is treated as the output of a manufacturing process. The
// Analyzer computes the process mean and population standard deviation,
// process capability (Cp, Cpk) against specification limits, Shewhart
// control chart limits (mean ± 3σ), and a short-term sigma level derived
// from the observed defect rate with the conventional 1.5σ shift.
//
// Fewer than two samples is not enough to describe a process; capability
// and sigma level report 0 and ControlChart reports ok=false in that case.
package sigma
