package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-ceremony-portal/internal/model"
)

const graduateColumns = `id, student_id, citizen_id, passport_no, first_name, last_name, faculty_code`

type GraduateRepository struct {
	pool *pgxpool.Pool
}

func NewGraduateRepository(pool *pgxpool.Pool) *GraduateRepository {
	return &GraduateRepository{pool: pool}
}

func scanGraduate(row pgx.Row) (model.Graduate, error) {
	var g model.Graduate
	err := row.Scan(&g.ID, &g.StudentID, &g.CitizenID, &g.PassportNo, &g.FirstName, &g.LastName, &g.FacultyCode)
	return g, err
}

func (r *GraduateRepository) FindByID(ctx context.Context, id int64) (model.Graduate, error) {
	g, err := scanGraduate(r.pool.QueryRow(ctx, `SELECT `+graduateColumns+` FROM graduates WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Graduate{}, model.ErrGraduateNotFound
	}
	if err != nil {
		return model.Graduate{}, fmt.Errorf("find graduate by id: %w", err)
	}
	return g, nil
}

func (r *GraduateRepository) FindByStudentID(ctx context.Context, studentID string) (model.Graduate, error) {
	g, err := scanGraduate(r.pool.QueryRow(ctx,
		`SELECT `+graduateColumns+` FROM graduates WHERE student_id = $1`, strings.TrimSpace(studentID)))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Graduate{}, model.ErrGraduateNotFound
	}
	if err != nil {
		return model.Graduate{}, fmt.Errorf("find graduate by student id: %w", err)
	}
	return g, nil
}

func (r *GraduateRepository) List(ctx context.Context, filter model.GraduateFilter) ([]model.Graduate, error) {
	query := `SELECT ` + graduateColumns + ` FROM graduates`
	args := make([]any, 0, 1)
	if filter.FacultyCode != "" {
		query += ` WHERE faculty_code = $1`
		args = append(args, filter.FacultyCode)
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list graduates: %w", err)
	}
	defer rows.Close()

	graduates := make([]model.Graduate, 0)
	for rows.Next() {
		g, err := scanGraduate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan graduate: %w", err)
		}
		graduates = append(graduates, g)
	}
	return graduates, rows.Err()
}

func (r *GraduateRepository) Create(ctx context.Context, g model.Graduate) (model.Graduate, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO graduates (student_id, citizen_id, passport_no, first_name, last_name, faculty_code)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		g.StudentID, g.CitizenID, g.PassportNo, g.FirstName, g.LastName, g.FacultyCode).Scan(&g.ID)
	if isUniqueViolation(err) {
		return model.Graduate{}, fmt.Errorf("create graduate %q: %w", g.StudentID, model.ErrAlreadyExists)
	}
	if err != nil {
		return model.Graduate{}, fmt.Errorf("create graduate: %w", err)
	}
	return g, nil
}

func (r *GraduateRepository) Update(ctx context.Context, g model.Graduate) (model.Graduate, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE graduates SET citizen_id = $2, passport_no = $3, first_name = $4, last_name = $5, faculty_code = $6
		 WHERE id = $1`,
		g.ID, g.CitizenID, g.PassportNo, g.FirstName, g.LastName, g.FacultyCode)
	if err != nil {
		return model.Graduate{}, fmt.Errorf("update graduate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Graduate{}, model.ErrGraduateNotFound
	}
	return g, nil
}

func (r *GraduateRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM graduates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete graduate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrGraduateNotFound
	}
	return nil
}
