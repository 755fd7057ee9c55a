package user

import (
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/matokeo/core"
)

// Roles
const (
	RoleAdmin  = "admin"
	RoleNormal = "normal"
)

var AllRoles = []string{RoleAdmin, RoleNormal}

type User struct {
	ID           int        `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Telephone    string     `json:"telephone"`
	Gender       string     `json:"gender"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"isActive"`
	PasswordHash []byte     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"` // UTC
	UpdatedAt    time.Time  `json:"updatedAt"` // UTC
	LastLogin    *time.Time `json:"lastLogin"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Name is the name users are greeted with.
func (u User) Name() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// LogPerson identifies the User in logs.
func (u User) LogPerson() core.LogPerson {
	return core.LogPerson{ID: strconv.Itoa(u.ID), Name: u.Username, Email: u.Email}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username        string `json:"username" validate:"required,min=3,max=64,alphanum_"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Telephone       string `json:"telephone" validate:"max=32"`
	Gender          string `json:"gender" validate:"omitempty,oneof=male female"`
	Role            string `json:"role" validate:"omitempty,userrole"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate structValidator, svc *Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Telephone = core.CleanString(nu.Telephone)
	nu.Gender = core.CleanString(nu.Gender, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Username        string `json:"username" validate:"omitempty,min=3,max=64,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email,max=255"`
	Telephone       string `json:"telephone" validate:"max=32"`
	Gender          string `json:"gender" validate:"omitempty,oneof=male female"`
	Role            string `json:"role" validate:"omitempty,userrole"`
	IsActive        *bool  `json:"isActive"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate structValidator, svc *Service) error {
	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	if tel := core.CleanString(uu.Telephone); tel != "" {
		uu.Telephone = tel
	} else {
		uu.Telephone = origUsr.Telephone
	}
	if gender := core.CleanString(uu.Gender, true /* lower */); gender != "" {
		uu.Gender = gender
	} else {
		uu.Gender = origUsr.Gender
	}
	if role := core.CleanString(uu.Role, true /* lower */); role != "" {
		uu.Role = role
	} else {
		uu.Role = origUsr.Role
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.checkUniqueness(uu.Username, uu.Email, origUsr.ID)
}

// ResetUserPassword contains information needed to reset a forgotten password.
// UID and Token come from the link of the password reset email.
type ResetUserPassword struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (rp *ResetUserPassword) Validate(validate structValidator) error {
	rp.UID = core.CleanString(rp.UID)
	rp.Token = core.CleanString(rp.Token)
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Role     string `query:"role"`
	IsActive *bool  `query:"isActive"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}

type structValidator interface {
	Struct(s interface{}) error
}
