package school

import "github.com/trezcool/matokeo/core"

type School struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Principal   string `json:"principal"`
}

// NewSchool contains information needed to create a new School.
// It is also used for full updates.
type NewSchool struct {
	Name        string `json:"name" validate:"required,notblank,max=255"`
	Address     string `json:"address" validate:"required,notblank,max=255"`
	Email       string `json:"email" validate:"required,email,max=255"`
	PhoneNumber string `json:"phoneNumber" validate:"required,notblank,max=32"`
	Principal   string `json:"principal" validate:"required,notblank,max=255"`
}

type structValidator interface {
	Struct(s interface{}) error
}

func (ns *NewSchool) Validate(validate structValidator) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Address = core.CleanString(ns.Address)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.PhoneNumber = core.CleanString(ns.PhoneNumber)
	ns.Principal = core.CleanString(ns.Principal)
	return validate.Struct(ns)
}

func (ns NewSchool) School(id ...int) School {
	sch := School{
		Name:        ns.Name,
		Address:     ns.Address,
		Email:       ns.Email,
		PhoneNumber: ns.PhoneNumber,
		Principal:   ns.Principal,
	}
	if len(id) > 0 {
		sch.ID = id[0]
	}
	return sch
}
