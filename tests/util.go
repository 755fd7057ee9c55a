package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/grading"
	"github.com/trezcool/matokeo/core/school"
	"github.com/trezcool/matokeo/core/student"
	"github.com/trezcool/matokeo/core/subject"
	"github.com/trezcool/matokeo/core/user"
	"github.com/trezcool/matokeo/storage/database"
)

const memoryDSN = "file::memory:?_pragma=foreign_keys(1)"

// NewConfig returns the app config in test mode, backed by an in-memory sqlite database.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.Database.Engine = database.EngineSQLite
	conf.Database.DSN = memoryDSN
	conf.Payment.Provider = "simulated"
	return conf
}

// PrepareDB opens a fresh, fully migrated in-memory database. It is closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.OpenSQLite(memoryDSN)
	if err != nil {
		t.Fatalf("PrepareDB(): opening db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	goose.SetLogger(goose.NopLogger())
	if err = database.Migrate(context.Background(), db, database.EngineSQLite); err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	return db
}

// SeedScales creates the default O-Level and A-Level grade systems.
func SeedScales(t *testing.T, svc *grading.Service) {
	t.Helper()
	if _, err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("SeedScales() failed: %v", err)
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if role == "" {
		role = user.RoleNormal
	}
	usr := user.User{
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd == "" {
		pwd = "S3cur3!Pa55"
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSchool(t *testing.T, repo school.Repository, name string) school.School {
	t.Helper()
	sch, err := repo.CreateSchool(context.Background(), school.School{
		Name:        name,
		Address:     "Plot 1, Kampala Road",
		Email:       "info@school.test",
		PhoneNumber: "+256700000000",
		Principal:   "Jane Principal",
	})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

func CreateStudent(t *testing.T, repo student.Repository, schoolID int, first, last, indexNo, class string, paid bool) student.Student {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	std, err := repo.CreateStudent(context.Background(), student.Student{
		FirstName: first,
		LastName:  last,
		Email:     indexNo + "@students.test",
		Phone:     "+256711111111",
		Gender:    student.GenderFemale,
		IndexNo:   indexNo,
		Class:     class,
		SchoolID:  schoolID,
		Paid:      paid,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

// CreateSubject creates a subject with one paper per name in papers.
func CreateSubject(t *testing.T, repo subject.Repository, name, code, class string, papers ...string) subject.Subject {
	t.Helper()
	ctx := context.Background()
	sub, err := repo.CreateSubject(ctx, subject.Subject{Name: name, Code: code, Class: class})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	for _, p := range papers {
		paper, err := repo.CreatePaper(ctx, subject.Paper{SubjectID: sub.ID, Paper: p})
		if err != nil {
			t.Fatalf("CreateSubject() failed: creating paper: %v", err)
		}
		sub.Papers = append(sub.Papers, paper)
	}
	return sub
}
