// Package metrics provides build-invocation metrics for vbuild.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so metrics cost nothing unless a command asks for them:
//
//	recorder := metrics.NewPrometheusRecorder(nil)
//	driver := domain.NewBuildDriver(root, variant, kit, executor,
//	    domain.WithRecorder(recorder))
//
// PrometheusRecorder.WriteTextfile dumps the collected series in the
// node-exporter textfile format so CI agents can pick them up after a run.
package metrics
