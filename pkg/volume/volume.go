// Package volume provides the in-memory representation of NIfTI image
// volumes used by the classification and calibration stages. Volumes are
// stored as flat float64 arrays in x-fastest order with explicit dimensions,
// and all statistics are NaN-aware: not-a-number samples are excluded from
// means rather than propagated or zeroed.
package volume

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Volume is a 3-D or 4-D image volume. Data is laid out with x varying
// fastest, then y, then z, then the dynamic (time) axis:
// index = t*NX*NY*NZ + z*NX*NY + y*NX + x.
type Volume struct {
	// Data holds voxel intensities after applying any scaling recorded
	// in the source header.
	Data []float64

	// NX, NY, NZ are the spatial dimensions in voxels.
	NX, NY, NZ int

	// NT is the number of volumes along the dynamic axis; 1 for a
	// single-timepoint (3-D) image.
	NT int

	// VoxelSize is the physical voxel spacing in mm, with the repetition
	// time (seconds) along T when the source header carries one.
	VoxelSize struct {
		X, Y, Z, T float64
	}

	// hdr preserves the source NIfTI header so that derived volumes
	// inherit the spatial geometry (orientation, spacing) unchanged.
	hdr *nifti1Header
}

// SpatialSize returns the number of voxels in one volume along the dynamic axis.
func (v *Volume) SpatialSize() int {
	return v.NX * v.NY * v.NZ
}

// Is4D reports whether the volume has more than one timepoint.
func (v *Volume) Is4D() bool {
	return v.NT > 1
}

// Frame returns the voxel data of the i-th volume along the dynamic axis as
// a subslice of Data.
func (v *Volume) Frame(i int) ([]float64, error) {
	if i < 0 || i >= v.NT {
		return nil, fmt.Errorf("frame index %d out of range [0,%d)", i, v.NT)
	}
	n := v.SpatialSize()
	return v.Data[i*n : (i+1)*n], nil
}

// FrameMeans computes the spatial mean intensity of every volume along the
// dynamic axis, excluding not-a-number voxels. A frame with no finite voxels
// yields NaN.
func (v *Volume) FrameMeans() []float64 {
	n := v.SpatialSize()
	means := make([]float64, v.NT)
	finite := make([]float64, 0, n)
	for t := 0; t < v.NT; t++ {
		frame := v.Data[t*n : (t+1)*n]
		finite = finite[:0]
		for _, s := range frame {
			if !math.IsNaN(s) {
				finite = append(finite, s)
			}
		}
		if len(finite) == 0 {
			means[t] = math.NaN()
			continue
		}
		means[t] = stat.Mean(finite, nil)
	}
	return means
}

// MeanOverFrames computes, per voxel, the arithmetic mean over the selected
// frames, excluding not-a-number samples. A voxel whose every selected sample
// is not-a-number yields not-a-number. The result is a single-timepoint
// volume that inherits the receiver's spatial geometry.
func (v *Volume) MeanOverFrames(indices []int) (*Volume, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("no frames selected")
	}
	for _, i := range indices {
		if i < 0 || i >= v.NT {
			return nil, fmt.Errorf("frame index %d out of range [0,%d)", i, v.NT)
		}
	}

	n := v.SpatialSize()
	out := &Volume{
		Data: make([]float64, n),
		NX:   v.NX, NY: v.NY, NZ: v.NZ, NT: 1,
		VoxelSize: v.VoxelSize,
		hdr:       v.hdr,
	}

	for vox := 0; vox < n; vox++ {
		sum := 0.0
		count := 0
		for _, t := range indices {
			s := v.Data[t*n+vox]
			if math.IsNaN(s) {
				continue
			}
			sum += s
			count++
		}
		if count == 0 {
			out.Data[vox] = math.NaN()
		} else {
			out.Data[vox] = sum / float64(count)
		}
	}

	return out, nil
}
