/*
Package metrics exposes waypoint's prometheus instrumentation: snapshot and
backup counters/histograms, scheduler cycle timing, retention cleanup
counts, authorization denials, and per-method IPC latency.

Handler returns the promhttp handler for mounting at /metrics. Collector
periodically samples the snapshot count and pending-backup queue depth so
those gauges stay current between scrapes without recomputing on every
request. health.go implements the process's /health, /ready and /live
endpoints independently of prometheus.
*/
package metrics
