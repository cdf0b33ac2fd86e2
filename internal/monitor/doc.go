// Package monitor samples resource usage of running processes at a fixed
// interval and turns consecutive samples into delta records.
//
// A Monitor owns one target process: it aggregates per-thread counters from
// /proc, primes on the first sample, and emits a Record per subsequent
// sample to a SampleHandler. A Runner resolves configured targets, runs one
// Monitor per target, and applies live target-list reloads.
package monitor
