// Package calibration obtains the calibration (reference) image for a run:
// either the explicitly acquired reference scan, or an image derived by
// NaN-aware voxelwise averaging of the volumes classified as control.
package calibration

import (
	"fmt"

	"aslquant/internal/models"
	"aslquant/pkg/volume"
)

// Image is the calibration image selected or derived for a run.
type Image struct {
	// Volume is the calibration volume data.
	Volume *volume.Volume

	// Path is where the image lives on disk. For a derived image this is
	// set once the volume has been written out.
	Path string

	// Derived reports whether the image was computed from control
	// volumes rather than explicitly acquired.
	Derived bool
}

// Derive returns the calibration image for a run. An explicit reference
// volume is passed through unchanged. Otherwise the voxelwise mean over the
// control frames is computed; not-a-number samples are excluded from the
// average, and a voxel with no finite samples stays not-a-number. The
// derived image inherits the run's spatial geometry.
//
// Derivation is never attempted for an already-differenced run: with no
// control volumes the caller must have supplied an explicit reference.
func Derive(raw *volume.Volume, assignment models.RoleAssignment, reference *volume.Volume) (*Image, error) {
	if reference != nil {
		return &Image{Volume: reference}, nil
	}

	if assignment.Kind == models.RoleAlreadyDifferenced {
		return nil, fmt.Errorf("cannot derive a calibration image for a difference series without a reference scan")
	}
	if len(assignment.ControlIndices) == 0 {
		return nil, fmt.Errorf("no control volumes identified")
	}

	mean, err := raw.MeanOverFrames(assignment.ControlIndices)
	if err != nil {
		return nil, fmt.Errorf("failed to average control volumes: %w", err)
	}
	return &Image{Volume: mean, Derived: true}, nil
}
