package pgrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/schedule"
)

type entryRow struct {
	ID           string      `db:"id"`
	TeacherID    string      `db:"teacher_id"`
	RoomID       string      `db:"room_id"`
	Day          string      `db:"day"`
	StartMinute  int         `db:"start_minute"`
	EndMinute    int         `db:"end_minute"`
	Subject      string      `db:"subject"`
	GradeLevel   string      `db:"grade_level"`
	StudentCount int         `db:"student_count"`
	HasConflict  bool        `db:"has_conflict"`
	Notes        null.String `db:"notes"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func toEntryRow(e schedule.Entry) entryRow {
	return entryRow{
		ID:           e.ID,
		TeacherID:    e.TeacherID,
		RoomID:       e.RoomID,
		Day:          e.Day,
		StartMinute:  int(e.Start),
		EndMinute:    int(e.End),
		Subject:      e.Subject,
		GradeLevel:   e.GradeLevel,
		StudentCount: e.StudentCount,
		HasConflict:  e.HasConflict,
		Notes:        null.NewString(e.Notes, e.Notes != ""),
		CreatedAt:    e.CreatedAt.UTC(),
		UpdatedAt:    e.UpdatedAt.UTC(),
	}
}

func (row entryRow) entry() schedule.Entry {
	return schedule.Entry{
		ID:           row.ID,
		TeacherID:    row.TeacherID,
		RoomID:       row.RoomID,
		Day:          row.Day,
		Start:        schedule.Clock(row.StartMinute),
		End:          schedule.Clock(row.EndMinute),
		Subject:      row.Subject,
		GradeLevel:   row.GradeLevel,
		StudentCount: row.StudentCount,
		HasConflict:  row.HasConflict,
		Notes:        row.Notes.String,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

const entryColumns = `id, teacher_id, room_id, day, start_minute, end_minute, subject, grade_level,
	student_count, has_conflict, notes, created_at, updated_at`

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *sqlx.DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateEntry(ctx context.Context, e schedule.Entry) (schedule.Entry, error) {
	q := `INSERT INTO schedule_entry (` + entryColumns + `) VALUES
		(:id, :teacher_id, :room_id, :day, :start_minute, :end_minute, :subject, :grade_level,
		:student_count, :has_conflict, :notes, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toEntryRow(e)); err != nil {
		return schedule.Entry{}, errors.Wrap(err, "inserting schedule entry")
	}
	return e, nil
}

func (repo *scheduleRepository) GetEntry(ctx context.Context, id string) (schedule.Entry, error) {
	var row entryRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+entryColumns+` FROM schedule_entry WHERE id = $1`, id); err != nil {
		return schedule.Entry{}, trapNoRows(err, schedule.ErrNotFound, "selecting schedule entry")
	}
	return row.entry(), nil
}

func (repo *scheduleRepository) QueryEntries(ctx context.Context) ([]schedule.Entry, error) {
	var rows []entryRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+entryColumns+` FROM schedule_entry ORDER BY created_at, id`); err != nil {
		return nil, errors.Wrap(err, "selecting schedule entries")
	}

	entries := make([]schedule.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}
	return entries, nil
}

func (repo *scheduleRepository) UpdateEntry(ctx context.Context, e schedule.Entry) (schedule.Entry, error) {
	q := `UPDATE schedule_entry SET teacher_id = :teacher_id, room_id = :room_id, day = :day,
		start_minute = :start_minute, end_minute = :end_minute, subject = :subject, grade_level = :grade_level,
		student_count = :student_count, has_conflict = :has_conflict, notes = :notes, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toEntryRow(e))
	if err != nil {
		return schedule.Entry{}, errors.Wrap(err, "updating schedule entry")
	}
	if err = checkAffected(res, schedule.ErrNotFound); err != nil {
		return schedule.Entry{}, err
	}
	return e, nil
}

func (repo *scheduleRepository) DeleteEntry(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM schedule_entry WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting schedule entry")
	}
	return checkAffected(res, schedule.ErrNotFound)
}

func (repo *scheduleRepository) SetConflictFlags(ctx context.Context, flags map[string]bool) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		for id, flag := range flags {
			q := `UPDATE schedule_entry SET has_conflict = $1 WHERE id = $2`
			if _, err := tx.ExecContext(ctx, q, flag, id); err != nil {
				return errors.Wrap(err, "flagging schedule conflicts")
			}
		}
		return nil
	})
}
