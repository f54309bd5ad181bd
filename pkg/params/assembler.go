// Package params merges the resolved metadata, role assignment and
// calibration image into the normalized, engine-agnostic quantification
// request. The assembler never invents values: every field is either
// resolved, explicitly omitted, or causes a typed failure.
package params

import (
	"errors"

	"aslquant/internal/models"
	"aslquant/pkg/calibration"
	"aslquant/pkg/metadata"
)

// Assembly failure conditions. The caller records these as Skipped reasons.
var (
	// ErrNoTimingParameters means neither a delay list nor an
	// inversion-time list resolved.
	ErrNoTimingParameters = errors.New("neither post-labeling delays nor inversion times resolved")

	// ErrNoCalibrationImage means no explicit or derived calibration
	// image was available.
	ErrNoCalibrationImage = errors.New("no calibration image available")

	// ErrNoStructuralReference means the run has no structural volume.
	ErrNoStructuralReference = errors.New("no structural reference available")
)

// CalibrationMethod is the fixed calibration method tag passed to the
// engine alongside the calibration image.
const CalibrationMethod = "per-voxel"

// Request is the fully specified quantification request handed to the
// external engine.
type Request struct {
	// Format tags how the dynamic axis is organized.
	Format models.AcqFormat

	// Delays is the ordered post-labeling delay list, seconds.
	Delays []float64

	// InversionTimes is the ordered inversion-time list, seconds.
	InversionTimes []float64

	// LabelingDuration is the labeling pulse/train duration; zero with
	// HasLabelingDuration false when it did not resolve.
	LabelingDuration    float64
	HasLabelingDuration bool

	// RepetitionTime is the preferred repetition time: the calibration
	// scan's when known, the acquisition's otherwise.
	RepetitionTime    float64
	HasRepetitionTime bool

	// Continuous is true for continuous/pseudo-continuous labeling.
	Continuous bool

	// Calibration is the calibration image (explicit or derived).
	Calibration *calibration.Image

	// StructuralPath is the structural reference volume.
	StructuralPath string
}

// Input collects the per-run state feeding the assembler.
type Input struct {
	// Assignment is the classifier's decision.
	Assignment models.RoleAssignment

	// Metadata is the run's resolved metadata bundle; may be nil.
	Metadata *metadata.Bundle

	// ReferenceMetadata is the calibration scan's own sidecar bundle,
	// consulted for the calibration repetition time; may be nil.
	ReferenceMetadata *metadata.Bundle

	// Continuous is the labeling-type detector's verdict.
	Continuous bool

	// Calibration is the calibration image obtained for the run.
	Calibration *calibration.Image

	// StructuralPath is the structural reference volume.
	StructuralPath string
}

// Assemble builds the quantification request, failing with a typed error
// when timing parameters, a calibration image, or a structural reference
// are missing.
func Assemble(in Input) (*Request, error) {
	delays := in.Metadata.FloatList(metadata.FieldDelays)
	tis := in.Metadata.FloatList(metadata.FieldInversionTimes)
	if len(delays) == 0 && len(tis) == 0 {
		return nil, ErrNoTimingParameters
	}
	if in.Calibration == nil || in.Calibration.Volume == nil {
		return nil, ErrNoCalibrationImage
	}
	if in.StructuralPath == "" {
		return nil, ErrNoStructuralReference
	}

	req := &Request{
		Format:         in.Assignment.Format(),
		Delays:         delays,
		InversionTimes: tis,
		Continuous:     in.Continuous,
		Calibration:    in.Calibration,
		StructuralPath: in.StructuralPath,
	}

	if dur, ok := in.Metadata.Float(metadata.FieldLabelingDuration); ok {
		req.LabelingDuration = dur
		req.HasLabelingDuration = true
	}

	// The calibration scan's repetition time takes priority over the
	// acquisition's.
	if tr, ok := in.Metadata.Float(metadata.FieldReferenceRepetitionTime); ok {
		req.RepetitionTime = tr
		req.HasRepetitionTime = true
	} else if tr, ok := in.ReferenceMetadata.Float(metadata.FieldRepetitionTime); ok {
		req.RepetitionTime = tr
		req.HasRepetitionTime = true
	} else if tr, ok := in.Metadata.Float(metadata.FieldRepetitionTime); ok {
		req.RepetitionTime = tr
		req.HasRepetitionTime = true
	}

	return req, nil
}
