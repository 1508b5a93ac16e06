package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-ceremony-portal/internal/model"
)

type FacultyRepository struct {
	pool *pgxpool.Pool
}

func NewFacultyRepository(pool *pgxpool.Pool) *FacultyRepository {
	return &FacultyRepository{pool: pool}
}

func (r *FacultyRepository) FindByID(ctx context.Context, id int64) (model.Faculty, error) {
	var f model.Faculty
	err := r.pool.QueryRow(ctx,
		`SELECT id, faculty_code, faculty_name FROM faculties WHERE id = $1`, id).
		Scan(&f.ID, &f.FacultyCode, &f.FacultyName)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Faculty{}, model.ErrFacultyNotFound
	}
	if err != nil {
		return model.Faculty{}, fmt.Errorf("find faculty: %w", err)
	}
	return f, nil
}

func (r *FacultyRepository) List(ctx context.Context) ([]model.Faculty, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, faculty_code, faculty_name FROM faculties ORDER BY faculty_code`)
	if err != nil {
		return nil, fmt.Errorf("list faculties: %w", err)
	}
	defer rows.Close()

	faculties := make([]model.Faculty, 0)
	for rows.Next() {
		var f model.Faculty
		if err := rows.Scan(&f.ID, &f.FacultyCode, &f.FacultyName); err != nil {
			return nil, fmt.Errorf("scan faculty: %w", err)
		}
		faculties = append(faculties, f)
	}
	return faculties, rows.Err()
}

func (r *FacultyRepository) Create(ctx context.Context, f model.Faculty) (model.Faculty, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO faculties (faculty_code, faculty_name) VALUES ($1, $2) RETURNING id`,
		f.FacultyCode, f.FacultyName).Scan(&f.ID)
	if isUniqueViolation(err) {
		return model.Faculty{}, fmt.Errorf("create faculty %q: %w", f.FacultyCode, model.ErrAlreadyExists)
	}
	if err != nil {
		return model.Faculty{}, fmt.Errorf("create faculty: %w", err)
	}
	return f, nil
}

func (r *FacultyRepository) Update(ctx context.Context, f model.Faculty) (model.Faculty, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE faculties SET faculty_code = $2, faculty_name = $3 WHERE id = $1`,
		f.ID, f.FacultyCode, f.FacultyName)
	if isUniqueViolation(err) {
		return model.Faculty{}, fmt.Errorf("update faculty %q: %w", f.FacultyCode, model.ErrAlreadyExists)
	}
	if err != nil {
		return model.Faculty{}, fmt.Errorf("update faculty: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Faculty{}, model.ErrFacultyNotFound
	}
	return f, nil
}

func (r *FacultyRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM faculties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete faculty: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrFacultyNotFound
	}
	return nil
}
