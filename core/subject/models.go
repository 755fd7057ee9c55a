package subject

import (
	"strings"

	"github.com/trezcool/matokeo/core"
)

type Paper struct {
	ID        int    `json:"id"`
	SubjectID int    `json:"subjectId"`
	Paper     string `json:"paper"`
}

type Subject struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Class       string  `json:"class"`
	Description *string `json:"description"`
	Papers      []Paper `json:"papers"`
}

// PaperDetail is a Paper along with its Subject, as shown in results.
type PaperDetail struct {
	ID      int     `json:"id"`
	Paper   string  `json:"paper"`
	Subject Subject `json:"subject"`
}

type NewPaperInput struct {
	Paper string `json:"paper" validate:"required,notblank,max=64"`
}

// NewSubject contains information needed to create a new Subject along with its papers.
type NewSubject struct {
	Name        string          `json:"name" validate:"required,notblank,max=255"`
	Code        string          `json:"code" validate:"required,notblank,max=32"`
	Class       string          `json:"class" validate:"required,notblank,max=32"`
	Description string          `json:"description" validate:"max=2000"`
	Papers      []NewPaperInput `json:"papers" validate:"dive"`
}

// UpdateSubject defines what information may be provided to modify an existing Subject.
// Papers are managed through their own endpoints.
type UpdateSubject struct {
	Name        string  `json:"name" validate:"omitempty,max=255"`
	Code        string  `json:"code" validate:"omitempty,max=32"`
	Class       string  `json:"class" validate:"omitempty,max=32"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// NewPaper contains information needed to add a Paper to an existing Subject.
type NewPaper struct {
	SubjectID int    `json:"subjectId" validate:"required,min=1"`
	Paper     string `json:"paper" validate:"required,notblank,max=64"`
}

type QueryFilter struct {
	Class string `query:"class"`
}

type PaperFilter struct {
	SubjectID int    `query:"subject"`
	Search    string `query:"search"`
}

type structValidator interface {
	Struct(s interface{}) error
}

func cleanCode(code string) string {
	return strings.ToUpper(core.CleanString(code))
}

func (ns *NewSubject) Validate(validate structValidator) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = cleanCode(ns.Code)
	ns.Class = core.CleanString(ns.Class)
	ns.Description = core.CleanString(ns.Description)
	for i := range ns.Papers {
		ns.Papers[i].Paper = core.CleanString(ns.Papers[i].Paper)
	}
	return validate.Struct(ns)
}

func (us *UpdateSubject) Validate(orig Subject, validate structValidator) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if code := cleanCode(us.Code); code != "" {
		us.Code = code
	} else {
		us.Code = orig.Code
	}
	if class := core.CleanString(us.Class); class != "" {
		us.Class = class
	} else {
		us.Class = orig.Class
	}
	if us.Description != nil {
		desc := core.CleanString(*us.Description)
		us.Description = &desc
	} else {
		us.Description = orig.Description
	}
	return validate.Struct(us)
}

func (np *NewPaper) Validate(validate structValidator) error {
	np.Paper = core.CleanString(np.Paper)
	return validate.Struct(np)
}

func (qf *QueryFilter) Clean() {
	qf.Class = core.CleanString(qf.Class)
}

func (pf *PaperFilter) Clean() {
	pf.Search = core.CleanString(pf.Search)
}
