package grading

import (
	"github.com/trezcool/matokeo/core"
)

// Grade is the label a GradeRange maps marks to, e.g. "A" or "D1".
type Grade string

// Unclassified is the outcome of evaluating a mark no range matches.
// It is a valid evaluation result, not an error.
const Unclassified Grade = "U"

func (g Grade) String() string { return string(g) }

func (g Grade) IsClassified() bool { return g != Unclassified }

type GradeRange struct {
	ID            int   `json:"id,omitempty"`
	Grade         Grade `json:"grade"`
	Min           int   `json:"min"`
	Max           int   `json:"max"`
	GradeSystemID int   `json:"gradeSystemId,omitempty"`
}

// GradeSystem is a named grading scheme, e.g. "O-Level".
// Ranges are ordered by Min descending.
type GradeSystem struct {
	ID     int          `json:"id"`
	Name   string       `json:"name"`
	Ranges []GradeRange `json:"gradeRanges"`
}

// Evaluate grades mark with the system's ranges.
func (gs GradeSystem) Evaluate(mark float64) Grade {
	return Evaluate(mark, gs.Ranges)
}

// RangeInput is a GradeRange as submitted by clients.
type RangeInput struct {
	Grade string `json:"grade" validate:"required,notblank,max=8"`
	Min   *int   `json:"min" validate:"required"`
	Max   *int   `json:"max" validate:"required"`
}

// NewScale contains information needed to create a new GradeSystem.
type NewScale struct {
	Name        string       `json:"name" validate:"required,notblank,max=64"`
	GradeRanges []RangeInput `json:"gradeRanges" validate:"required,dive"`
}

// ReplaceScale defines the new name and full set of ranges of an existing GradeSystem.
type ReplaceScale struct {
	Name        string       `json:"name" validate:"required,notblank,max=64"`
	GradeRanges []RangeInput `json:"gradeRanges" validate:"required,dive"`
}

type structValidator interface {
	Struct(s interface{}) error
}

func cleanRanges(inputs []RangeInput) []GradeRange {
	ranges := make([]GradeRange, 0, len(inputs))
	for _, in := range inputs {
		r := GradeRange{Grade: Grade(core.CleanString(in.Grade))}
		if in.Min != nil {
			r.Min = *in.Min
		}
		if in.Max != nil {
			r.Max = *in.Max
		}
		ranges = append(ranges, r)
	}
	return ranges
}

func (ns *NewScale) Validate(validate structValidator) ([]GradeRange, error) {
	ns.Name = core.CleanString(ns.Name)
	if err := validate.Struct(ns); err != nil {
		return nil, err
	}
	ranges := cleanRanges(ns.GradeRanges)
	if err := ValidateRanges(ranges); err != nil {
		return nil, err
	}
	return ranges, nil
}

func (rs *ReplaceScale) Validate(validate structValidator) ([]GradeRange, error) {
	rs.Name = core.CleanString(rs.Name)
	if err := validate.Struct(rs); err != nil {
		return nil, err
	}
	ranges := cleanRanges(rs.GradeRanges)
	if err := ValidateRanges(ranges); err != nil {
		return nil, err
	}
	return ranges, nil
}
