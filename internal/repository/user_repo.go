package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-ceremony-portal/internal/model"
)

const uniqueViolation = "23505"

const userColumns = `id, username, COALESCE(password_hash, ''), first_name, last_name, role, faculty_code,
	can_manage_undergrad_level, can_manage_graduate_level, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (model.StaffUser, error) {
	var (
		u    model.StaffUser
		role string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &role, &u.FacultyCode,
		&u.Permissions.ManageUndergrad, &u.Permissions.ManageGraduate, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.StaffUser{}, err
	}
	u.Role = model.ParseRole(role)
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.StaffUser, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.StaffUser{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.StaffUser{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.StaffUser, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, strings.TrimSpace(username)))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.StaffUser{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.StaffUser{}, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.StaffUser, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.StaffUser, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Create(ctx context.Context, u model.StaffUser) (model.StaffUser, error) {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, first_name, last_name, role, faculty_code,
		                    can_manage_undergrad_level, can_manage_graduate_level, created_at, updated_at)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		u.Username, u.PasswordHash, u.FirstName, u.LastName, u.Role.String(), u.FacultyCode,
		u.Permissions.ManageUndergrad, u.Permissions.ManageGraduate, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if isUniqueViolation(err) {
		return model.StaffUser{}, fmt.Errorf("create user %q: %w", u.Username, model.ErrAlreadyExists)
	}
	if err != nil {
		return model.StaffUser{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u model.StaffUser) (model.StaffUser, error) {
	u.UpdatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET password_hash = NULLIF($2, ''), first_name = $3, last_name = $4, role = $5, faculty_code = $6,
		     can_manage_undergrad_level = $7, can_manage_graduate_level = $8, updated_at = $9
		 WHERE id = $1`,
		u.ID, u.PasswordHash, u.FirstName, u.LastName, u.Role.String(), u.FacultyCode,
		u.Permissions.ManageUndergrad, u.Permissions.ManageGraduate, u.UpdatedAt)
	if err != nil {
		return model.StaffUser{}, fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.StaffUser{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
