// Package models holds the core data model shared by the pipeline stages:
// acquisition records discovered on disk, volume role assignments, and
// per-run outcomes accumulated into the batch summary.
package models

// AcquisitionRecord identifies one perfusion acquisition (subject/session/run)
// and the files that belong to it. It is created during dataset discovery and
// summarized into a RunOutcome once processing finishes or the run is skipped.
type AcquisitionRecord struct {
	// Subject is the subject identifier, including the "sub-" prefix.
	Subject string

	// Session is the session identifier including the "ses-" prefix,
	// or empty for datasets without a session level.
	Session string

	// Run is the run identifier (e.g. "run-01"), or empty when the
	// acquisition is the only one in its directory.
	Run string

	// VolumePath is the path to the raw 4-D perfusion volume.
	VolumePath string

	// SidecarPath is the run-level JSON metadata sidecar, or empty when
	// none exists next to the volume.
	SidecarPath string

	// ContextPath is the per-run volume role manifest (aslcontext table),
	// or empty when the acquisition has none.
	ContextPath string

	// ReferencePath is an explicitly acquired calibration (M0) scan, or
	// empty when the calibration image must be derived.
	ReferencePath string

	// ReferenceSidecarPath is the JSON sidecar of the calibration scan.
	ReferenceSidecarPath string

	// StructuralPath is the structural reference volume for the subject.
	StructuralPath string
}

// ID returns a stable human-readable identifier for log lines and report rows.
func (r *AcquisitionRecord) ID() string {
	id := r.Subject
	if r.Session != "" {
		id += "/" + r.Session
	}
	if r.Run != "" {
		id += "/" + r.Run
	}
	return id
}
