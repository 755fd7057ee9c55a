package grading

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
)

const (
	minPercent = 0
	maxPercent = 100
)

var errInvalidRanges = errors.New("invalid grade ranges")

// Evaluate maps a mark (percentage) to the grade of the first range in `ranges` containing it.
// Marks are compared by their whole percent: 59.99 falls in a 50-59 range.
// Marks outside 0-100 and marks no range contains are Unclassified.
// Overlapping ranges are a data-entry error: the first match in stored order wins.
func Evaluate(mark float64, ranges []GradeRange) Grade {
	if math.IsNaN(mark) || mark < minPercent || mark > maxPercent {
		return Unclassified
	}
	m := int(math.Floor(mark))
	for _, r := range ranges {
		if r.Min <= m && m <= r.Max {
			return r.Grade
		}
	}
	return Unclassified
}

// SortRanges orders ranges by Min descending (highest grade first).
func SortRanges(ranges []GradeRange) {
	sort.SliceStable(ranges, func(i, j int) bool { return ranges[i].Min > ranges[j].Min })
}

// ValidateRanges makes sure that ranges define a total, unambiguous function from percentage to grade:
// every range lies within 0-100 with min <= max and a label,
// no two ranges overlap, and together they cover 0-100 with no gap.
func ValidateRanges(ranges []GradeRange) error {
	if len(ranges) == 0 {
		return core.NewValidationError(errInvalidRanges, core.FieldError{
			Field: "gradeRanges",
			Error: "at least one grade range is required",
		})
	}

	var fldErrs []core.FieldError
	labels := make(map[Grade]int, len(ranges))
	for i, r := range ranges {
		fld := fmt.Sprintf("gradeRanges[%d]", i)
		switch {
		case r.Grade == "":
			fldErrs = append(fldErrs, core.FieldError{Field: fld + ".grade", Error: "this field is required"})
		case r.Grade == Unclassified:
			fldErrs = append(fldErrs, core.FieldError{Field: fld + ".grade", Error: fmt.Sprintf("%q is reserved for unclassified marks", Unclassified)})
		}
		if j, ok := labels[r.Grade]; ok && r.Grade != "" {
			fldErrs = append(fldErrs, core.FieldError{Field: fld + ".grade", Error: fmt.Sprintf("grade %q is already used by gradeRanges[%d]", r.Grade, j)})
		} else {
			labels[r.Grade] = i
		}
		if r.Min < minPercent || r.Max > maxPercent {
			fldErrs = append(fldErrs, core.FieldError{Field: fld, Error: "min and max must be between 0 and 100"})
		}
		if r.Min > r.Max {
			fldErrs = append(fldErrs, core.FieldError{Field: fld, Error: "min cannot be greater than max"})
		}
	}
	if len(fldErrs) > 0 {
		return core.NewValidationError(errInvalidRanges, fldErrs...)
	}

	// check overlaps & gaps on a copy sorted by Min ascending
	sorted := make([]GradeRange, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	if sorted[0].Min != minPercent {
		fldErrs = append(fldErrs, core.FieldError{
			Field: "gradeRanges",
			Error: fmt.Sprintf("marks from 0 to %d are not covered", sorted[0].Min-1),
		})
	}
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		switch {
		case curr.Min <= prev.Max:
			fldErrs = append(fldErrs, core.FieldError{
				Field: "gradeRanges",
				Error: fmt.Sprintf("grade %q (%d-%d) overlaps grade %q (%d-%d)", curr.Grade, curr.Min, curr.Max, prev.Grade, prev.Min, prev.Max),
			})
		case curr.Min > prev.Max+1:
			fldErrs = append(fldErrs, core.FieldError{
				Field: "gradeRanges",
				Error: fmt.Sprintf("marks from %d to %d are not covered", prev.Max+1, curr.Min-1),
			})
		}
	}
	if last := sorted[len(sorted)-1]; last.Max != maxPercent {
		fldErrs = append(fldErrs, core.FieldError{
			Field: "gradeRanges",
			Error: fmt.Sprintf("marks from %d to 100 are not covered", last.Max+1),
		})
	}

	if len(fldErrs) > 0 {
		return core.NewValidationError(errInvalidRanges, fldErrs...)
	}
	return nil
}
