package report

import (
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
)

var compressPDF = true // disabled in tests to inspect the content streams

const (
	pageMargin = 15.0
	lineHeight = 7.0
)

// Render writes slip as an A4 PDF document to w.
func Render(w io.Writer, slip Slip) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compressPDF)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetCreationDate(slip.GeneratedAt)
	pdf.SetModificationDate(slip.GeneratedAt)
	pdf.SetTitle("Student Academic Results", true)
	pdf.SetSubject(slip.Student.IndexNo, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() { drawWatermark(pdf, slip.Watermark()) })
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(0, 5, tr("Generated on "+slip.GeneratedAt.Format("02 Jan 2006 15:04 MST")), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, tr("Document ID: "+slip.DocumentID()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	drawHeader(pdf, tr, slip)
	drawStudentInfo(pdf, tr, slip)
	drawResults(pdf, tr, slip)
	drawSummary(pdf, tr, slip)

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "writing pdf")
	}
	return nil
}

func drawWatermark(pdf *fpdf.Fpdf, text string) {
	w, h := pdf.GetPageSize()
	pdf.SetFont("Helvetica", "B", 60)
	pdf.SetTextColor(200, 200, 200)
	pdf.SetAlpha(0.35, "Normal")
	pdf.TransformBegin()
	pdf.TransformRotate(45, w/2, h/2)
	pdf.Text((w-pdf.GetStringWidth(text))/2, h/2, text)
	pdf.TransformEnd()
	pdf.SetAlpha(1, "Normal")
	pdf.SetTextColor(0, 0, 0)
}

func drawHeader(pdf *fpdf.Fpdf, tr func(string) string, slip Slip) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "STUDENT ACADEMIC RESULTS", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, lineHeight, tr(strings.ToUpper(slip.School.Name)), "", 1, "C", false, 0, "")
	if slip.Motto != "" {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 5, tr(slip.Motto), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, lineHeight, tr("Academic Year: "+slip.AcademicYear+"   Term: "+slip.Term+"   Class: "+slip.Student.Class), "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func drawStudentInfo(pdf *fpdf.Fpdf, tr func(string) string, slip Slip) {
	std := slip.Student
	rows := [][2]string{
		{"Name", std.FullName()},
		{"Index Number", std.IndexNo},
		{"Gender", capitalize(std.Gender)},
		{"Contact", std.Phone},
		{"Email", std.Email},
		{"Payment Status", slip.PaymentStatus()},
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, lineHeight, "Student Information", "1", 1, "L", true, 0, "")
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, lineHeight, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, lineHeight, tr(row[1]), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

func drawResults(pdf *fpdf.Fpdf, tr func(string) string, slip Slip) {
	widths := []float64{80, 40, 30, 30}
	headers := []string{"Subject", "Paper", "Marks", "Grade"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, hdr := range headers {
		pdf.CellFormat(widths[i], lineHeight, hdr, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	if !slip.HasResults {
		pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], lineHeight, "No results recorded yet", "1", 1, "C", false, 0, "")
	}
	for _, l := range slip.Summary.Lines {
		pdf.CellFormat(widths[0], lineHeight, tr(l.Subject), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], lineHeight, tr(l.Paper), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], lineHeight, core.FormatMark(l.Mark), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], lineHeight, l.Grade.String(), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(5)
}

func drawSummary(pdf *fpdf.Fpdf, tr func(string) string, slip Slip) {
	total, average, grade := "N/A", "N/A", "N/A"
	if slip.HasResults {
		total = core.FormatMark(slip.Summary.Total)
		average = core.FormatMark(slip.Summary.Average)
		grade = slip.Summary.OverallGrade.String()
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, lineHeight, "Summary", "1", 1, "L", true, 0, "")
	for _, row := range [][2]string{{"Total", total}, {"Average", average}, {"Overall Grade", grade}} {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, lineHeight, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, lineHeight, tr(row[1]), "1", 1, "L", false, 0, "")
	}
}
