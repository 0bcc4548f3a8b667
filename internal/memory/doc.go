// Package memory implements the memory governor (C11): a periodic
// snapshot of process memory pressure that fires cleanup, spill, and
// limit-exceeded hooks when configured thresholds are crossed, with peak
// tracking exportable as a JSON profile and Prometheus gauges.
package memory
