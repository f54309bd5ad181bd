package models

// MetricNames lists the seven perfusion metrics extracted from the engine
// report, in the fixed order they appear in the summary table.
var MetricNames = [7]string{
	"Mean within mask",
	"GM mean",
	"Pure GM mean",
	"Cortical GM mean",
	"WM mean",
	"Pure WM mean",
	"Cerebral WM mean",
}

// PerfusionMetrics holds the seven named metrics parsed from an engine report.
type PerfusionMetrics struct {
	MeanWithinMask float64
	GMMean         float64
	PureGMMean     float64
	CorticalGMMean float64
	WMMean         float64
	PureWMMean     float64
	CerebralWMMean float64
}

// Values returns the metrics in MetricNames order.
func (m *PerfusionMetrics) Values() [7]float64 {
	return [7]float64{
		m.MeanWithinMask,
		m.GMMean,
		m.PureGMMean,
		m.CorticalGMMean,
		m.WMMean,
		m.PureWMMean,
		m.CerebralWMMean,
	}
}

// OutcomeState enumerates the terminal states of a run.
type OutcomeState int

const (
	// Completed means the engine ran and its report parsed cleanly.
	Completed OutcomeState = iota

	// Failed means the run reached the engine but the call failed or the
	// report could not be parsed.
	Failed

	// Skipped means a precondition failed before the engine was invoked.
	Skipped
)

func (s OutcomeState) String() string {
	switch s {
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "skipped"
	}
}

// RunOutcome is the terminal record of one acquisition. Every discovered run
// produces exactly one outcome; none are silently dropped.
type RunOutcome struct {
	Subject string
	Session string
	Run     string
	State   OutcomeState

	// Err is the categorized error behind a Failed or Skipped state;
	// nil for Completed. Callers match it with errors.Is.
	Err error

	// Reason explains a Failed or Skipped state; empty for Completed.
	Reason string

	// Metrics is set only for Completed outcomes.
	Metrics *PerfusionMetrics
}
