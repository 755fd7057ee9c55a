package result

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/grading"
	"github.com/trezcool/matokeo/core/student"
	"github.com/trezcool/matokeo/core/subject"
)

var errInvalidMark = errors.New("mark must be a number")

// Entry is a mark obtained by a student on a subject paper.
type Entry struct {
	ID             int       `json:"id"`
	StudentID      int       `json:"studentId"`
	SubjectPaperID int       `json:"subjectPaperId"`
	Mark           float64   `json:"mark"`
	AddedBy        int       `json:"addedBy"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Mark is a percentage submitted by clients, either as a JSON number or a numeric string.
type Mark float64

func (m *Mark) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errInvalidMark
		}
		raw = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return errInvalidMark
	}
	*m = Mark(f)
	return nil
}

type StudentRef struct {
	ID int `json:"id" validate:"required,min=1"`
}

// Score is one mark of a RecordMarks batch. Subject is optional.
type Score struct {
	Subject int   `json:"subject" validate:"omitempty,min=1"`
	Paper   int   `json:"paper" validate:"required,min=1"`
	Mark    *Mark `json:"mark" validate:"required"`
}

// RecordMarks contains the marks of a student to record.
type RecordMarks struct {
	Student *StudentRef `json:"student" validate:"required"`
	Scores  []Score     `json:"scores" validate:"required,min=1,dive"`
}

// ResultItem is an Entry as shown in a student's results.
type ResultItem struct {
	ID           int                 `json:"id"`
	Result       float64             `json:"result"`
	SubjectPaper subject.PaperDetail `json:"subjectpaper"`
}

type StudentResults struct {
	Student student.Student `json:"student"`
	Result  []ResultItem    `json:"result"`
}

// Line is a graded result line.
type Line struct {
	Subject string        `json:"subject"`
	Paper   string        `json:"paper"`
	Mark    float64       `json:"mark"`
	Grade   grading.Grade `json:"grade"`
}

// Summary aggregates a student's results.
// Average is not rounded; round it when presenting.
type Summary struct {
	Total        float64       `json:"total"`
	Average      float64       `json:"average"`
	OverallGrade grading.Grade `json:"overallGrade"`
	Lines        []Line        `json:"lines"`
}

type QueryFilter struct {
	StudentID int `query:"studentId"`
}
