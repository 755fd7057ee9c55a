package student

import (
	"time"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/school"
)

// Genders
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

type Student struct {
	ID        int       `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Gender    string    `json:"gender"`
	IndexNo   string    `json:"indexNo"`
	Class     string    `json:"class"`
	SchoolID  int       `json:"schoolId"`
	Paid      bool      `json:"paid"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// ResultLine is a student's mark on a subject paper, with the names of the paper and its subject.
type ResultLine struct {
	SubjectID int
	Subject   string
	PaperID   int
	Paper     string
	Mark      float64
}

// DetailResult is a student's mark referencing the subject and the subject paper by ID.
type DetailResult struct {
	Subject int     `json:"subject"`
	Paper   int     `json:"paper"`
	Mark    float64 `json:"mark"`
}

// WithSchool is a Student along with their School.
type WithSchool struct {
	Student
	School school.School `json:"school"`
}

// Detail is a Student along with their results.
type Detail struct {
	Student
	Results []DetailResult `json:"results"`
}

// NewStudent contains information needed to create a new Student.
// It is also used for full updates.
type NewStudent struct {
	FirstName string `json:"firstName" validate:"required,notblank,max=255"`
	LastName  string `json:"lastName" validate:"required,notblank,max=255"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Phone     string `json:"phone" validate:"required,notblank,max=32"`
	Gender    string `json:"gender" validate:"required,oneof=male female"`
	IndexNo   string `json:"indexNo" validate:"required,notblank,max=64"`
	Class     string `json:"class" validate:"required,notblank,max=32"`
	SchoolID  int    `json:"schoolId" validate:"required,min=1"`
}

type QueryFilter struct {
	Level    string `query:"level"`
	SchoolID int    `query:"school"`
	Search   string `query:"search"`
	Paid     *bool  `query:"paid"`
}

type structValidator interface {
	Struct(s interface{}) error
}

func (ns *NewStudent) Validate(validate structValidator, svc *Service) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Gender = core.CleanString(ns.Gender, true /* lower */)
	ns.IndexNo = core.CleanString(ns.IndexNo)
	ns.Class = core.CleanString(ns.Class)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkReferences(ns.IndexNo, ns.SchoolID)
}

func (qf *QueryFilter) Clean() {
	qf.Level = core.CleanString(qf.Level)
	qf.Search = core.CleanString(qf.Search)
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Level == "" && qf.SchoolID == 0 && qf.Search == "" && qf.Paid == nil
}
