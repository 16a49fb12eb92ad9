package metrics

import "time"

// ResultLabel is the outcome of one build stage.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel is the outcome of a whole build.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeWarning  BuildOutcomeLabel = "warning" // succeeded with report warnings
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// OutputKind classifies what a build wrote.
type OutputKind string

const (
	OutputPage        OutputKind = "page"         // split out of a section
	OutputBody        OutputKind = "body"         // residual text at the mirrored path
	OutputSkippedBody OutputKind = "skipped_body" // residual that was empty
	OutputLiteral     OutputKind = "literal"
	OutputMedia       OutputKind = "media"
)

// Recorder receives build metrics.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	AddOutputs(kind OutputKind, n int)
}

// NoopRecorder discards everything; builders use it unless metrics are configured.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)          {}
func (NoopRecorder) AddOutputs(OutputKind, int)                 {}
