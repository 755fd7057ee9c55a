package report

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/result"
	"github.com/trezcool/matokeo/core/student"
)

var (
	NowFunc = time.Now // mockable

	resultsTemplate = "student_results"
)

type Service struct {
	studentSvc *student.Service
	resultSvc  *result.Service
	mailSvc    core.EmailService
	conf       *core.Config
}

func NewService(conf *core.Config, studentSvc *student.Service, resultSvc *result.Service, mailSvc core.EmailService) *Service {
	return &Service{
		studentSvc: studentSvc,
		resultSvc:  resultSvc,
		mailSvc:    mailSvc,
		conf:       conf,
	}
}

// BuildSlip gathers and grades the results of std.
// A student without results gets a slip with no result lines.
func (svc *Service) BuildSlip(ctx context.Context, std student.WithSchool) (Slip, error) {
	slip := Slip{
		Student:      std.Student,
		School:       std.School,
		AcademicYear: svc.conf.Report.AcademicYear,
		Term:         svc.conf.Report.Term,
		Motto:        svc.conf.Report.SchoolMotto,
		GeneratedAt:  NowFunc(),
	}
	sum, err := svc.resultSvc.Summarize(ctx, std.Student)
	switch errors.Cause(err) {
	case nil:
		slip.Summary = sum
		slip.HasResults = true
	case result.ErrEmptyResultSet:
	default:
		return Slip{}, errors.Wrap(err, "summarizing results")
	}
	return slip, nil
}

// SlipByIndex builds the slip of the student with the given index number.
func (svc *Service) SlipByIndex(ctx context.Context, indexNo string) (Slip, error) {
	std, err := svc.studentSvc.GetByIndexNo(ctx, indexNo)
	if err != nil {
		return Slip{}, err
	}
	return svc.BuildSlip(ctx, std)
}

// SlipByStudentID builds the slip of the student `id`.
func (svc *Service) SlipByStudentID(ctx context.Context, id int) (Slip, error) {
	std, err := svc.studentSvc.GetByID(ctx, id)
	if err != nil {
		return Slip{}, err
	}
	return svc.SlipByIndex(ctx, std.IndexNo)
}

// SendSlip emails the result slip of the student `id` to them, as a PDF attachment.
func (svc *Service) SendSlip(ctx context.Context, id int) (Slip, error) {
	slip, err := svc.SlipByStudentID(ctx, id)
	if err != nil {
		return Slip{}, err
	}
	if slip.Student.Email == "" {
		return Slip{}, core.NewFieldValidationError("email", "student %d has no email address", id)
	}

	var buf bytes.Buffer
	if err = Render(&buf, slip); err != nil {
		return Slip{}, errors.Wrap(err, "rendering slip")
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: slip.Student.FullName(), Address: slip.Student.Email}},
		Subject:      fmt.Sprintf("Your %s results", slip.Term),
		TemplateName: resultsTemplate,
		TemplateData: map[string]interface{}{
			"Name":         slip.Student.FullName(),
			"Term":         slip.Term,
			"AcademicYear": slip.AcademicYear,
			"IndexNo":      slip.Student.IndexNo,
			"Paid":         slip.Student.Paid,
		},
	}
	msg.Attach(buf.Bytes(), slip.Filename(), "application/pdf")
	svc.mailSvc.SendMessages(msg)
	return slip, nil
}
