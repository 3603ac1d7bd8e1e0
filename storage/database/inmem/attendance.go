package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/darasa/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) SaveRecords(_ context.Context, records ...attendance.Record) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, rec := range records {
		rec := rec
		rec.Date = attendance.Day(rec.Date)
		repo.db.table[attendanceKey{studentID: rec.StudentID, date: rec.Date}] = &rec
	}
	return nil
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var wanted map[string]bool
	if filter.StudentIDs != nil {
		wanted = make(map[string]bool, len(filter.StudentIDs))
		for _, id := range filter.StudentIDs {
			wanted[id] = true
		}
	}

	records := make([]attendance.Record, 0)
	for key, rec := range repo.db.table {
		if wanted != nil && !wanted[key.studentID] {
			continue
		}
		if !filter.From.IsZero() && key.date.Before(attendance.Day(filter.From)) {
			continue
		}
		if !filter.To.IsZero() && key.date.After(attendance.Day(filter.To)) {
			continue
		}
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].StudentID < records[j].StudentID
	})
	return records, nil
}

func (repo *attendanceRepository) LatestBefore(
	_ context.Context,
	studentIDs []string,
	day time.Time,
) (map[string]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	wanted := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		wanted[id] = true
	}

	day = attendance.Day(day)
	latest := make(map[string]attendance.Record)
	for key, rec := range repo.db.table {
		if !wanted[key.studentID] || !key.date.Before(day) {
			continue
		}
		if prev, ok := latest[key.studentID]; !ok || key.date.After(prev.Date) {
			latest[key.studentID] = *rec
		}
	}
	return latest, nil
}

func (repo *attendanceRepository) DeleteRecord(_ context.Context, studentID string, day time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := attendanceKey{studentID: studentID, date: attendance.Day(day)}
	if _, ok := repo.db.table[key]; !ok {
		return attendance.ErrNotFound
	}
	delete(repo.db.table, key)
	return nil
}
