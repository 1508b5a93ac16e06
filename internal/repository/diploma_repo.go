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

const diplomaColumns = `id, student_id, graduate_id, faculty_code, degree_th, degree_en, major_th, major_en,
	honor, grad_year, order_no, first_attend, second_attend, extra_attend, eligible_receive`

type DiplomaRepository struct {
	pool *pgxpool.Pool
}

func NewDiplomaRepository(pool *pgxpool.Pool) *DiplomaRepository {
	return &DiplomaRepository{pool: pool}
}

func scanDiploma(row pgx.Row) (model.Diploma, error) {
	var d model.Diploma
	err := row.Scan(&d.ID, &d.StudentID, &d.GraduateID, &d.FacultyCode, &d.DegreeTH, &d.DegreeEN,
		&d.MajorTH, &d.MajorEN, &d.Honor, &d.GradYear, &d.OrderNo,
		&d.FirstAttend, &d.SecondAttend, &d.ExtraAttend, &d.EligibleReceive)
	return d, err
}

func (r *DiplomaRepository) FindByID(ctx context.Context, id int64) (model.Diploma, error) {
	d, err := scanDiploma(r.pool.QueryRow(ctx, `SELECT `+diplomaColumns+` FROM diplomas WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Diploma{}, model.ErrDiplomaNotFound
	}
	if err != nil {
		return model.Diploma{}, fmt.Errorf("find diploma by id: %w", err)
	}
	return d, nil
}

// List applies the filter as an AND of equality conditions; the faculty
// filter is how a scoped principal's partition reaches the query.
func (r *DiplomaRepository) List(ctx context.Context, filter model.DiplomaFilter) ([]model.Diploma, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if filter.FacultyCode != "" {
		args = append(args, filter.FacultyCode)
		where = append(where, fmt.Sprintf("faculty_code = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)))
	}

	query := `SELECT ` + diplomaColumns + ` FROM diplomas`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list diplomas: %w", err)
	}
	defer rows.Close()

	diplomas := make([]model.Diploma, 0)
	for rows.Next() {
		d, err := scanDiploma(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diploma: %w", err)
		}
		diplomas = append(diplomas, d)
	}
	return diplomas, rows.Err()
}

func (r *DiplomaRepository) Create(ctx context.Context, d model.Diploma) (model.Diploma, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO diplomas (student_id, graduate_id, faculty_code, degree_th, degree_en, major_th, major_en,
		                       honor, grad_year, order_no, first_attend, second_attend, extra_attend, eligible_receive)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		d.StudentID, d.GraduateID, d.FacultyCode, d.DegreeTH, d.DegreeEN, d.MajorTH, d.MajorEN,
		d.Honor, d.GradYear, d.OrderNo, d.FirstAttend, d.SecondAttend, d.ExtraAttend, d.EligibleReceive).Scan(&d.ID)
	if err != nil {
		return model.Diploma{}, fmt.Errorf("create diploma: %w", err)
	}
	return d, nil
}

func (r *DiplomaRepository) Update(ctx context.Context, d model.Diploma) (model.Diploma, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE diplomas
		 SET faculty_code = $2, degree_th = $3, degree_en = $4, major_th = $5, major_en = $6, honor = $7,
		     grad_year = $8, order_no = $9, first_attend = $10, second_attend = $11, extra_attend = $12,
		     eligible_receive = $13
		 WHERE id = $1`,
		d.ID, d.FacultyCode, d.DegreeTH, d.DegreeEN, d.MajorTH, d.MajorEN, d.Honor,
		d.GradYear, d.OrderNo, d.FirstAttend, d.SecondAttend, d.ExtraAttend, d.EligibleReceive)
	if err != nil {
		return model.Diploma{}, fmt.Errorf("update diploma: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Diploma{}, model.ErrDiplomaNotFound
	}
	return d, nil
}

func (r *DiplomaRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM diplomas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete diploma: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDiplomaNotFound
	}
	return nil
}
