package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/user"
)

type (
	userRow struct {
		ID           int       `db:"id"`
		Username     string    `db:"username"`
		Email        string    `db:"email"`
		Telephone    string    `db:"telephone"`
		Gender       string    `db:"gender"`
		Role         string    `db:"role"`
		PasswordHash []byte    `db:"password_hash"`
		IsActive     bool      `db:"is_active"`
		CreatedAt    time.Time `db:"created_at"`
		UpdatedAt    time.Time `db:"updated_at"`
		LastLogin    null.Time `db:"last_login"`
	}

	userRepository struct {
		repository
	}
)

var _ user.Repository = (*userRepository)(nil) // interface compliance check

const userColumns = `id, username, email, telephone, gender, role, password_hash, is_active, created_at, updated_at, last_login`

var userOrderings = map[string]string{
	"username":  "username",
	"email":     "email",
	"role":      "role",
	"isActive":  "is_active",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"lastLogin": "last_login",
}

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

func (row userRow) unmarshal() user.User {
	usr := user.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		Telephone:    row.Telephone,
		Gender:       row.Gender,
		Role:         row.Role,
		PasswordHash: row.PasswordHash,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		ll := row.LastLogin.Time.UTC()
		usr.LastLogin = &ll
	}
	return usr
}

func lastLogin(usr user.User) null.Time {
	if usr.LastLogin == nil {
		return null.Time{}
	}
	return null.TimeFrom(usr.LastLogin.UTC())
}

func (repo userRepository) constraintErr(err error, msg string) error {
	if isUniqueViolation(err) {
		return core.NewValidationError(errors.New("a user with this username or email already exists"),
			core.FieldError{Field: "username", Error: user.ErrUsernameExists.Error()},
			core.FieldError{Field: "email", Error: user.ErrEmailExists.Error()},
		)
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedIDs []int) error {
	q := `SELECT username, email FROM app_user WHERE (username = ? OR email = ?)`
	args := []interface{}{username, email}
	if len(excludedIDs) > 0 {
		q += ` AND id NOT IN (?)`
		args = append(args, excludedIDs)
	}
	q, args, err := in(repo.exec, q, args...)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}

	var rows []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err = repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, r := range rows {
		if r.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(rows) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	id, err := insert(
		ctx, repo.exec,
		`INSERT INTO app_user (username, email, telephone, gender, role, password_hash, is_active, created_at, updated_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		usr.Username, usr.Email, usr.Telephone, usr.Gender, usr.Role, usr.PasswordHash, usr.IsActive,
		usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(), lastLogin(usr),
	)
	if err != nil {
		return user.User{}, repo.constraintErr(err, "inserting user")
	}
	usr.ID = id
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	q := `SELECT ` + userColumns + ` FROM app_user WHERE 1 = 1`
	var args []interface{}
	if filter != nil {
		if filter.Search != "" {
			q += ` AND (LOWER(username) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?) OR telephone LIKE ?)`
			search := "%" + filter.Search + "%"
			args = append(args, search, search, search)
		}
		if filter.Role != "" {
			q += ` AND role = ?`
			args = append(args, filter.Role)
		}
		if filter.IsActive != nil {
			q += ` AND is_active = ?`
			args = append(args, *filter.IsActive)
		}
	}
	q += core.OrderByClause(ordering, userOrderings, "created_at DESC, id DESC")

	var rows []userRow
	if err := repo.exec.SelectContext(ctx, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.unmarshal())
	}
	return users, nil
}

func (repo userRepository) getUser(ctx context.Context, where string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.exec.GetContext(ctx, &row, repo.exec.Rebind(`SELECT `+userColumns+` FROM app_user WHERE `+where), args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "selecting user")
	}
	return row.unmarshal(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	return repo.getUser(ctx, "id = ?", id)
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, "username = ? OR email = ? ORDER BY id ASC LIMIT 1", username, username)
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	err := execAffecting(
		ctx, repo.exec, user.ErrNotFound,
		`UPDATE app_user SET username = ?, email = ?, telephone = ?, gender = ?, role = ?, password_hash = ?,
			is_active = ?, updated_at = ?, last_login = ?
		WHERE id = ?`,
		usr.Username, usr.Email, usr.Telephone, usr.Gender, usr.Role, usr.PasswordHash,
		usr.IsActive, usr.UpdatedAt.UTC(), lastLogin(usr), usr.ID,
	)
	if err != nil {
		if err == user.ErrNotFound {
			return user.User{}, err
		}
		return user.User{}, repo.constraintErr(err, "updating user")
	}
	return usr, nil
}

func (repo userRepository) DeleteUser(ctx context.Context, id int) error {
	err := execAffecting(ctx, repo.exec, user.ErrNotFound, `DELETE FROM app_user WHERE id = ?`, id)
	if err != nil && err != user.ErrNotFound {
		return errors.Wrap(err, "deleting user")
	}
	return err
}
