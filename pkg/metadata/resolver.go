package metadata

import (
	"strconv"

	"github.com/tidwall/gjson"
)

// Field names a logical acquisition parameter, independent of the sidecar
// key it was stored under.
type Field string

const (
	// FieldDelays is the post-labeling delay (scalar or list, seconds).
	FieldDelays Field = "post-labeling delay"

	// FieldInversionTimes is the inversion-time list for pulsed labeling.
	FieldInversionTimes Field = "inversion times"

	// FieldLabelingDuration is the duration of the labeling pulse/train.
	FieldLabelingDuration Field = "labeling duration"

	// FieldRepetitionTime is the acquisition repetition time.
	FieldRepetitionTime Field = "repetition time"

	// FieldLabelingType is the textual labeling-scheme descriptor.
	FieldLabelingType Field = "labeling type"

	// FieldReferenceRepetitionTime is the calibration-scan repetition
	// time, which takes priority over the acquisition one.
	FieldReferenceRepetitionTime Field = "calibration repetition time"
)

// aliases lists the accepted sidecar keys per logical field, in priority
// order: the first alias present in the winning source supplies the value.
var aliases = map[Field][]string{
	FieldDelays:                  {"PostLabelingDelay", "PostLabelingDelay_s", "PLD", "InitialPostLabelDelay"},
	FieldInversionTimes:          {"TIs", "TIs_s", "InversionTimes"},
	FieldLabelingDuration:        {"LabelingDuration", "LabelDuration"},
	FieldRepetitionTime:          {"RepetitionTimePreparation", "RepetitionTime"},
	FieldLabelingType:            {"ArterialSpinLabelingType", "ASLType", "ASLContext", "LabelingType"},
	FieldReferenceRepetitionTime: {"M0RepetitionTime", "M0RepetitionTimePreparation", "M0TR"},
}

// Aliases returns the accepted sidecar keys for a field, in priority order.
func Aliases(f Field) []string {
	return aliases[f]
}

// Value is a resolved field value: a scalar number, a text string, or an
// ordered list. Exactly one representation is populated.
type Value struct {
	kind    valueKind
	num     float64
	text    string
	numList []float64
	strList []string
}

type valueKind int

const (
	kindNumber valueKind = iota
	kindText
	kindNumberList
	kindTextList
)

// Float returns the value as a scalar number.
func (v Value) Float() (float64, bool) {
	if v.kind == kindNumber {
		return v.num, true
	}
	return 0, false
}

// Text returns the value as text.
func (v Value) Text() (string, bool) {
	if v.kind == kindText {
		return v.text, true
	}
	return "", false
}

// FloatList returns the value as an ordered list of numbers. A scalar
// number yields a one-element list; text elements that parse as numbers are
// included, anything else is dropped.
func (v Value) FloatList() []float64 {
	switch v.kind {
	case kindNumber:
		return []float64{v.num}
	case kindNumberList:
		return v.numList
	case kindTextList:
		var out []float64
		for _, s := range v.strList {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				out = append(out, f)
			}
		}
		return out
	case kindText:
		if f, err := strconv.ParseFloat(v.text, 64); err == nil {
			return []float64{f}
		}
	}
	return nil
}

// Bundle is the immutable result of resolving a run's fields of interest
// against a single winning source.
type Bundle struct {
	// SourcePath identifies the sidecar that supplied the values.
	SourcePath string

	values map[Field]Value
}

// Value returns the resolved value for a field, reporting whether any alias
// for it was present in the winning source.
func (b *Bundle) Value(f Field) (Value, bool) {
	if b == nil {
		return Value{}, false
	}
	v, ok := b.values[f]
	return v, ok
}

// Float is a convenience accessor for scalar numeric fields.
func (b *Bundle) Float(f Field) (float64, bool) {
	v, ok := b.Value(f)
	if !ok {
		return 0, false
	}
	return v.Float()
}

// FloatList is a convenience accessor for ordered numeric list fields.
// It returns nil when the field did not resolve.
func (b *Bundle) FloatList(f Field) []float64 {
	v, ok := b.Value(f)
	if !ok {
		return nil
	}
	return v.FloatList()
}

// Text is a convenience accessor for textual fields.
func (b *Bundle) Text(f Field) (string, bool) {
	v, ok := b.Value(f)
	if !ok {
		return "", false
	}
	return v.Text()
}

// Resolve walks sources in priority order (run-level sidecar first, then
// dataset-level candidates nearer the root first) and returns a bundle built
// from the first source containing at least one alias of at least one field
// of interest. All fields come from that single source; fields it lacks are
// simply absent from the bundle. Resolve never fails on missing fields: with
// no matching source it returns nil and the caller decides whether the run
// can proceed.
func Resolve(sources []*Source, fields ...Field) *Bundle {
	for _, src := range sources {
		if src == nil {
			continue
		}
		bundle := resolveFrom(src, fields)
		if bundle != nil {
			return bundle
		}
	}
	return nil
}

func resolveFrom(src *Source, fields []Field) *Bundle {
	values := make(map[Field]Value)
	for _, f := range fields {
		for _, key := range aliases[f] {
			res := src.lookup(key)
			if !res.Exists() {
				continue
			}
			if v, ok := convert(res); ok {
				values[f] = v
			}
			break
		}
	}
	if len(values) == 0 {
		return nil
	}
	return &Bundle{SourcePath: src.Path, values: values}
}

// unwrapKeys are the accepted casings of a one-level nested value container.
var unwrapKeys = []string{"value", "Value", "VALUE"}

// convert maps a JSON value to a resolved Value, unwrapping a keyed
// container one level when the value is an object holding a "value" field.
func convert(res gjson.Result) (Value, bool) {
	if res.IsObject() {
		for _, k := range unwrapKeys {
			if inner := res.Get(k); inner.Exists() {
				return convertFlat(inner)
			}
		}
		return Value{}, false
	}
	return convertFlat(res)
}

func convertFlat(res gjson.Result) (Value, bool) {
	switch {
	case res.IsArray():
		elems := res.Array()
		allNumbers := true
		for _, e := range elems {
			if e.Type != gjson.Number {
				allNumbers = false
				break
			}
		}
		if allNumbers {
			nums := make([]float64, len(elems))
			for i, e := range elems {
				nums[i] = e.Float()
			}
			return Value{kind: kindNumberList, numList: nums}, true
		}
		strs := make([]string, len(elems))
		for i, e := range elems {
			strs[i] = e.String()
		}
		return Value{kind: kindTextList, strList: strs}, true
	case res.Type == gjson.Number:
		return Value{kind: kindNumber, num: res.Float()}, true
	case res.Type == gjson.String:
		return Value{kind: kindText, text: res.String()}, true
	case res.Type == gjson.True || res.Type == gjson.False:
		return Value{kind: kindText, text: res.Raw}, true
	default:
		return Value{}, false
	}
}
