package pgrepos

import (
	"context"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/attendance"
)

type recordRow struct {
	StudentID string    `db:"student_id"`
	Date      time.Time `db:"date"`
	Status    string    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row recordRow) record() attendance.Record {
	return attendance.Record{
		StudentID: row.StudentID,
		Date:      attendance.Day(row.Date),
		Status:    row.Status,
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) SaveRecords(ctx context.Context, records ...attendance.Record) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO attendance (student_id, date, status, updated_at)
			VALUES (:student_id, :date, :status, :updated_at)
			ON CONFLICT (student_id, date) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
		stmt, err := tx.PrepareNamedContext(ctx, q)
		if err != nil {
			return errors.Wrap(err, "preparing attendance upsert")
		}
		defer func() { _ = stmt.Close() }()

		for _, rec := range records {
			row := recordRow(rec)
			row.Date = attendance.Day(row.Date)
			if _, err = stmt.ExecContext(ctx, row); err != nil {
				return errors.Wrapf(err, "saving attendance of student %s", rec.StudentID)
			}
		}
		return nil
	})
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.StudentIDs != nil {
		conds = append(conds, "student_id = ANY("+arg(pq.Array(append([]string{}, filter.StudentIDs...)))+")")
	}
	if !filter.From.IsZero() {
		conds = append(conds, "date >= "+arg(attendance.Day(filter.From)))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "date <= "+arg(attendance.Day(filter.To)))
	}

	var rows []recordRow
	q := `SELECT student_id, date, status, updated_at FROM attendance` + whereClause(conds) + ` ORDER BY date, student_id`
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting attendance")
	}

	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}

func (repo *attendanceRepository) LatestBefore(
	ctx context.Context,
	studentIDs []string,
	day time.Time,
) (map[string]attendance.Record, error) {
	var rows []recordRow
	q := `SELECT DISTINCT ON (student_id) student_id, date, status, updated_at
		FROM attendance WHERE student_id = ANY($1) AND date < $2
		ORDER BY student_id, date DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, pq.Array(append([]string{}, studentIDs...)), attendance.Day(day)); err != nil {
		return nil, errors.Wrap(err, "selecting previous attendance")
	}

	latest := make(map[string]attendance.Record, len(rows))
	for _, row := range rows {
		latest[row.StudentID] = row.record()
	}
	return latest, nil
}

func (repo *attendanceRepository) DeleteRecord(ctx context.Context, studentID string, day time.Time) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM attendance WHERE student_id = $1 AND date = $2`, studentID, attendance.Day(day))
	if err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	return checkAffected(res, attendance.ErrNotFound)
}
