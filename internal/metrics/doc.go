// Package metrics records build and stage metrics for pagesmith.
//
// Components receive a Recorder and default to NoopRecorder, so metrics cost
// nothing unless configured. PrometheusRecorder registers its collectors on a
// private registry which can be written to a node_exporter textfile after each
// build.
package metrics
