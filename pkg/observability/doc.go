/*
Package observability exposes simulation runs to Prometheus.

Metrics turns simulator lifecycle hooks into run outcome counters, per-type node visit
counters and a step duration histogram. Combine its Hooks with others through
domain.MergeHooks.
*/
package observability
