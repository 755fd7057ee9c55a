package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/trezcool/matokeo/core/result"
	"github.com/trezcool/matokeo/core/school"
	"github.com/trezcool/matokeo/core/student"
)

// Watermarks
const (
	WatermarkOfficial   = "OFFICIAL COPY"
	WatermarkUnofficial = "UNOFFICIAL"
)

// Slip holds everything printed on a student's result slip.
type Slip struct {
	Student      student.Student
	School       school.School
	AcademicYear string
	Term         string
	Motto        string
	Summary      result.Summary
	HasResults   bool
	GeneratedAt  time.Time
}

func (s Slip) Watermark() string {
	if s.Student.Paid {
		return WatermarkOfficial
	}
	return WatermarkUnofficial
}

func (s Slip) PaymentStatus() string {
	if s.Student.Paid {
		return "PAID"
	}
	return "NOT PAID"
}

// DocumentID identifies one generated copy of the slip.
func (s Slip) DocumentID() string {
	return fmt.Sprintf("%d-%d", s.Student.ID, s.GeneratedAt.UnixMilli())
}

func (s Slip) Filename() string {
	return "results-" + safeFilename(s.Student.IndexNo) + ".pdf"
}

func safeFilename(s string) string {
	out := []rune(s)
	for i, r := range out {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			out[i] = '-'
		}
	}
	return string(out)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
