// Package report turns transfer metrics into a Six Sigma quality report and
// a throughput control chart.
//
// A report summarises the throughput of a set of transfers as a process:
// mean and spread, capability against specification limits (Cpk, Cp),
// Shewhart control limits, and the sigma level implied by the share of
// transfers below the defect threshold. Reports serialise to JSON or YAML;
// statistics that are not finite (a defect-free run has an infinite sigma
// level) are written as null.
package report
