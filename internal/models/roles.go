package models

// RoleKind enumerates the possible classifications of a run's dynamic axis.
type RoleKind int

const (
	// RoleUnresolved is the zero value. The classifier never returns it
	// (the positional fallback always produces an assignment) but it is
	// kept as an explicit representable state.
	RoleUnresolved RoleKind = iota

	// RoleAlreadyDifferenced marks a run whose control/label subtraction
	// was performed upstream, leaving only difference volumes.
	RoleAlreadyDifferenced

	// RoleAlternatingPair marks a run holding interleaved control and
	// label volumes.
	RoleAlternatingPair
)

// String returns the role kind name used in logs.
func (k RoleKind) String() string {
	switch k {
	case RoleAlreadyDifferenced:
		return "already-differenced"
	case RoleAlternatingPair:
		return "alternating-pair"
	default:
		return "unresolved"
	}
}

// VolumeOrder tags which state comes first in an alternating series.
type VolumeOrder int

const (
	ControlFirst VolumeOrder = iota
	LabelFirst
)

func (o VolumeOrder) String() string {
	if o == LabelFirst {
		return "label-first"
	}
	return "control-first"
}

// RoleAssignment is the classifier's decision for one run. For
// RoleAlternatingPair it carries the zero-based indices of the control
// volumes along the dynamic axis and the ordering tag; both are unset for
// RoleAlreadyDifferenced.
type RoleAssignment struct {
	Kind           RoleKind
	Order          VolumeOrder
	ControlIndices []int
}

// AcqFormat is the acquisition-format tag passed to the quantification
// engine. The string values are part of the engine interface.
type AcqFormat string

const (
	FormatDifference   AcqFormat = "difference"
	FormatControlFirst AcqFormat = "control-first"
	FormatLabelFirst   AcqFormat = "label-first"
)

// Format maps a role assignment to its acquisition-format tag.
func (a RoleAssignment) Format() AcqFormat {
	switch a.Kind {
	case RoleAlreadyDifferenced:
		return FormatDifference
	case RoleAlternatingPair:
		if a.Order == LabelFirst {
			return FormatLabelFirst
		}
		return FormatControlFirst
	default:
		return FormatControlFirst
	}
}
