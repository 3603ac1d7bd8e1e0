package pgrepos

import (
	"context"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/student"
)

type studentRow struct {
	ID            string      `db:"id"`
	StudentNumber string      `db:"student_number"`
	Name          string      `db:"name"`
	Email         null.String `db:"email"`
	GradeLevel    string      `db:"grade_level"`
	ClassID       string      `db:"class_id"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func toStudentRow(std student.Student) studentRow {
	return studentRow{
		ID:            std.ID,
		StudentNumber: std.StudentNumber,
		Name:          std.Name,
		Email:         null.NewString(std.Email, std.Email != ""),
		GradeLevel:    std.GradeLevel,
		ClassID:       std.ClassID,
		CreatedAt:     std.CreatedAt.UTC(),
		UpdatedAt:     std.UpdatedAt.UTC(),
	}
}

func (row studentRow) student() student.Student {
	return student.Student{
		ID:            row.ID,
		StudentNumber: row.StudentNumber,
		Name:          row.Name,
		Email:         row.Email.String,
		GradeLevel:    row.GradeLevel,
		ClassID:       row.ClassID,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

const studentColumns = `id, student_number, name, email, grade_level, class_id, created_at, updated_at`

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckNumberUniqueness(ctx context.Context, number, excludedID string) error {
	var found bool
	q := `SELECT EXISTS (SELECT 1 FROM student WHERE LOWER(student_number) = LOWER($1) AND id <> $2)`
	if err := repo.db.GetContext(ctx, &found, q, number, excludedID); err != nil {
		return errors.Wrap(err, "checking student number uniqueness")
	}
	if found {
		return student.ErrNumberExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	q := `INSERT INTO student (` + studentColumns + `) VALUES
		(:id, :student_number, :name, :email, :grade_level, :class_id, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toStudentRow(std)); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+studentColumns+` FROM student WHERE id = $1`, id); err != nil {
		return student.Student{}, trapNoRows(err, student.ErrNotFound, "selecting student")
	}
	return row.student(), nil
}

func (repo *studentRepository) QueryStudents(
	ctx context.Context,
	filter student.QueryFilter,
	ordering ...core.DBOrdering,
) ([]student.Student, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, "(name ILIKE "+p+" OR student_number ILIKE "+p+")")
	}
	if filter.GradeLevel != "" {
		conds = append(conds, "grade_level = "+arg(filter.GradeLevel))
	}
	if filter.ClassID != "" {
		conds = append(conds, "class_id = "+arg(filter.ClassID))
	}

	var rows []studentRow
	q := `SELECT ` + studentColumns + ` FROM student` + whereClause(conds) + orderBy(ordering, "created_at")
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}

	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	q := `UPDATE student SET student_number = :student_number, name = :name, email = :email,
		grade_level = :grade_level, class_id = :class_id, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toStudentRow(std))
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if err = checkAffected(res, student.ErrNotFound); err != nil {
		return student.Student{}, err
	}
	return std, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return checkAffected(res, student.ErrNotFound)
}
