package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/matokeo/core/result"
	"github.com/trezcool/matokeo/core/school"
	"github.com/trezcool/matokeo/core/student"
)

func render(t *testing.T, slip Slip) []byte {
	compressPDF = false
	t.Cleanup(func() { compressPDF = true })

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, slip))
	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	return out
}

func newSlip(paid bool, lines ...result.Line) Slip {
	slip := Slip{
		Student: student.Student{
			ID:        7,
			FirstName: "Amina",
			LastName:  "Nakato",
			Email:     "amina@example.com",
			Phone:     "+256700000000",
			Gender:    student.GenderFemale,
			IndexNo:   "U0001/001",
			Class:     "S.4",
			Paid:      paid,
		},
		School:       school.School{ID: 1, Name: "Kampala High"},
		AcademicYear: "2024",
		Term:         "First Term",
		GeneratedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	if len(lines) > 0 {
		slip.HasResults = true
		slip.Summary = result.Summary{Total: 90, Average: 45, OverallGrade: "E", Lines: lines}
	}
	return slip
}

func TestRender_watermark(t *testing.T) {
	lines := []result.Line{
		{Subject: "Mathematics", Paper: "P1", Mark: 34, Grade: "E"},
		{Subject: "Mathematics", Paper: "P2", Mark: 56, Grade: "D"},
	}

	tests := []struct {
		name          string
		paid          bool
		wantWatermark string
		wantStatus    string
	}{
		{name: "paid", paid: true, wantWatermark: WatermarkOfficial, wantStatus: "PAID"},
		{name: "not paid", paid: false, wantWatermark: WatermarkUnofficial, wantStatus: "NOT PAID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slip := newSlip(tt.paid, lines...)
			assert.Equal(t, tt.wantWatermark, slip.Watermark())

			out := render(t, slip)
			assert.Contains(t, string(out), "("+tt.wantWatermark+")")
			assert.Contains(t, string(out), "("+tt.wantStatus+")")
			assert.Contains(t, string(out), "(45.00)")
			assert.Contains(t, string(out), "(Document ID: 7-1714557600000)")
			if !tt.paid {
				assert.NotContains(t, string(out), "("+WatermarkOfficial+")")
			}
		})
	}
}

func TestRender_noResults(t *testing.T) {
	out := render(t, newSlip(false))
	assert.Contains(t, string(out), "(No results recorded yet)")
	assert.Contains(t, string(out), "(N/A)")
	assert.NotContains(t, string(out), "NaN")
}

func TestSlip(t *testing.T) {
	slip := newSlip(true)
	assert.Equal(t, "7-1714557600000", slip.DocumentID())
	assert.Equal(t, "results-U0001-001.pdf", slip.Filename())
	assert.False(t, slip.HasResults)
	assert.Equal(t, "PAID", slip.PaymentStatus())
}
