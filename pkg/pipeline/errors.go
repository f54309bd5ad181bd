package pipeline

import "errors"

// Per-run failure categories. All are recoverable at the batch level: the
// run is recorded with its reason and the batch continues. Only missing
// required tools at start-up aborts the whole batch, before any run starts.
var (
	// ErrMissingInput means a required input file is absent or unreadable
	// (raw volume, structural reference).
	ErrMissingInput = errors.New("missing input")

	// ErrIncompleteMetadata means neither a delay list nor an
	// inversion-time list resolved for the run.
	ErrIncompleteMetadata = errors.New("incomplete metadata")

	// ErrDerivationFailure means no calibration image could be obtained.
	ErrDerivationFailure = errors.New("calibration derivation failed")

	// ErrExternalTool means the quantification engine returned
	// non-success or timed out.
	ErrExternalTool = errors.New("external tool failure")
)
