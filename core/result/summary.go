package result

import (
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/grading"
	"github.com/trezcool/matokeo/core/student"
)

// ErrEmptyResultSet is returned when summarizing a student who has no results.
var ErrEmptyResultSet = errors.New("no results to summarize")

// Summarize totals and averages lines, grading each line and the average with ranges.
func Summarize(lines []student.ResultLine, ranges []grading.GradeRange) (Summary, error) {
	if len(lines) == 0 {
		return Summary{}, ErrEmptyResultSet
	}

	sum := Summary{Lines: make([]Line, 0, len(lines))}
	for _, l := range lines {
		sum.Total += l.Mark
		sum.Lines = append(sum.Lines, Line{
			Subject: l.Subject,
			Paper:   l.Paper,
			Mark:    l.Mark,
			Grade:   grading.Evaluate(l.Mark, ranges),
		})
	}
	sum.Average = sum.Total / float64(len(lines))
	sum.OverallGrade = grading.Evaluate(sum.Average, ranges)
	return sum, nil
}
