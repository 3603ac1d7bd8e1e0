package pgrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/gradebook"
)

type assignmentRow struct {
	ID          string    `db:"id"`
	ClassID     string    `db:"class_id"`
	Name        string    `db:"name"`
	Category    string    `db:"category"`
	TotalPoints float64   `db:"total_points"`
	DueDate     time.Time `db:"due_date"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row assignmentRow) assignment() gradebook.Assignment {
	return gradebook.Assignment{
		ID:          row.ID,
		ClassID:     row.ClassID,
		Name:        row.Name,
		Category:    row.Category,
		TotalPoints: row.TotalPoints,
		DueDate:     row.DueDate.UTC(),
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

type gradeRow struct {
	StudentID    string    `db:"student_id"`
	AssignmentID string    `db:"assignment_id"`
	PointsEarned float64   `db:"points_earned"`
	MaxPoints    float64   `db:"max_points"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const assignmentColumns = `id, class_id, name, category, total_points, due_date, created_at, updated_at`

type gradebookRepository struct {
	db *sqlx.DB
}

var _ gradebook.Repository = (*gradebookRepository)(nil)

func NewGradebookRepository(db *sqlx.DB) gradebook.Repository {
	return &gradebookRepository{db: db}
}

func (repo *gradebookRepository) CreateAssignment(ctx context.Context, a gradebook.Assignment) (gradebook.Assignment, error) {
	q := `INSERT INTO assignment (` + assignmentColumns + `) VALUES
		(:id, :class_id, :name, :category, :total_points, :due_date, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, assignmentRow(a)); err != nil {
		return gradebook.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo *gradebookRepository) GetAssignment(ctx context.Context, id string) (gradebook.Assignment, error) {
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+assignmentColumns+` FROM assignment WHERE id = $1`, id); err != nil {
		return gradebook.Assignment{}, trapNoRows(err, gradebook.ErrNotFound, "selecting assignment")
	}
	return row.assignment(), nil
}

func (repo *gradebookRepository) QueryAssignments(ctx context.Context, classID string) ([]gradebook.Assignment, error) {
	var rows []assignmentRow
	q := `SELECT ` + assignmentColumns + ` FROM assignment WHERE class_id = $1 ORDER BY due_date, id`
	if err := repo.db.SelectContext(ctx, &rows, q, classID); err != nil {
		return nil, errors.Wrap(err, "selecting assignments")
	}

	assignments := make([]gradebook.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.assignment())
	}
	return assignments, nil
}

func (repo *gradebookRepository) UpdateAssignment(ctx context.Context, a gradebook.Assignment) (gradebook.Assignment, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `UPDATE assignment SET name = :name, category = :category, total_points = :total_points,
			due_date = :due_date, updated_at = :updated_at
			WHERE id = :id`
		res, err := tx.NamedExecContext(ctx, q, assignmentRow(a))
		if err != nil {
			return errors.Wrap(err, "updating assignment")
		}
		if err = checkAffected(res, gradebook.ErrNotFound); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE grade SET max_points = $1 WHERE assignment_id = $2`, a.TotalPoints, a.ID)
		return errors.Wrap(err, "updating grades max points")
	})
	if err != nil {
		return gradebook.Assignment{}, err
	}
	return a, nil
}

// DeleteAssignment relies on the grade foreign key cascading.
func (repo *gradebookRepository) DeleteAssignment(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM assignment WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return checkAffected(res, gradebook.ErrNotFound)
}

func (repo *gradebookRepository) SaveGrade(ctx context.Context, g gradebook.GradeRecord) (gradebook.GradeRecord, error) {
	q := `INSERT INTO grade (student_id, assignment_id, points_earned, max_points, updated_at)
		VALUES (:student_id, :assignment_id, :points_earned, :max_points, :updated_at)
		ON CONFLICT (student_id, assignment_id) DO UPDATE SET
			points_earned = EXCLUDED.points_earned, max_points = EXCLUDED.max_points, updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.NamedExecContext(ctx, q, gradeRow(g)); err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "foreign_key_violation" {
			return gradebook.GradeRecord{}, gradebook.ErrNotFound
		}
		return gradebook.GradeRecord{}, errors.Wrap(err, "saving grade")
	}
	return g, nil
}

func (repo *gradebookRepository) DeleteGrade(ctx context.Context, assignmentID, studentID string) error {
	q := `DELETE FROM grade WHERE assignment_id = $1 AND student_id = $2`
	res, err := repo.db.ExecContext(ctx, q, assignmentID, studentID)
	if err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return checkAffected(res, gradebook.ErrGradeNotFound)
}

func (repo *gradebookRepository) QueryGrades(ctx context.Context, assignmentIDs ...string) ([]gradebook.GradeRecord, error) {
	if len(assignmentIDs) == 0 {
		return []gradebook.GradeRecord{}, nil
	}

	q, args, err := sqlx.In(`SELECT student_id, assignment_id, points_earned, max_points, updated_at
		FROM grade WHERE assignment_id IN (?) ORDER BY assignment_id, student_id`, assignmentIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building grades query")
	}

	var rows []gradeRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting grades")
	}

	grades := make([]gradebook.GradeRecord, 0, len(rows))
	for _, row := range rows {
		g := gradebook.GradeRecord(row)
		g.UpdatedAt = g.UpdatedAt.UTC()
		grades = append(grades, g)
	}
	return grades, nil
}
