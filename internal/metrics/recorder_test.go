package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRecorder struct {
	NoopRecorder
	stages  map[string]ResultLabel
	outputs map[OutputKind]int
}

func (c *countingRecorder) IncStageResult(stage string, result ResultLabel) { c.stages[stage] = result }
func (c *countingRecorder) AddOutputs(kind OutputKind, n int)               { c.outputs[kind] += n }

func TestRecorderInterface(t *testing.T) {
	c := &countingRecorder{stages: map[string]ResultLabel{}, outputs: map[OutputKind]int{}}
	var r Recorder = c
	r.ObserveStageDuration("load_sources", time.Millisecond)
	r.IncStageResult("load_sources", ResultSuccess)
	r.IncStageResult("render_output", ResultFatal)
	r.AddOutputs(OutputPage, 2)
	r.AddOutputs(OutputPage, 1)
	r.IncBuildOutcome(BuildOutcomeFailed)

	assert.Equal(t, map[string]ResultLabel{"load_sources": ResultSuccess, "render_output": ResultFatal}, c.stages)
	assert.Equal(t, 3, c.outputs[OutputPage])

	var _ Recorder = NoopRecorder{}
	var _ Recorder = (*PrometheusRecorder)(nil)
}
