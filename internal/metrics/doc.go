// Package metrics records build metrics behind a small Recorder interface.
//
// Components take a Recorder and default to NoopRecorder, so metrics stay optional and
// callers never check for nil. PrometheusRecorder backs the --metrics-file flag: after each
// build the registry is written in the Prometheus text format, ready for the node-exporter
// textfile collector.
package metrics
