package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core/schedule"
)

type scheduleRepository struct {
	db *scheduleTable
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db.schedule}
}

func (repo *scheduleRepository) CreateEntry(_ context.Context, e schedule.Entry) (schedule.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[e.ID] = &e
	return e, nil
}

func (repo *scheduleRepository) GetEntry(_ context.Context, id string) (schedule.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.table[id]; ok {
		return *e, nil
	}
	return schedule.Entry{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) QueryEntries(_ context.Context) ([]schedule.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make([]schedule.Entry, 0, len(repo.db.table))
	for _, e := range repo.db.table {
		entries = append(entries, *e)
	}
	sortBy(entries, nil, func(e schedule.Entry, field string) string {
		if field == "id" {
			return e.ID
		}
		return e.CreatedAt.Format(sortableTime)
	})
	return entries, nil
}

func (repo *scheduleRepository) UpdateEntry(_ context.Context, e schedule.Entry) (schedule.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[e.ID]; !ok {
		return schedule.Entry{}, schedule.ErrNotFound
	}
	repo.db.table[e.ID] = &e
	return e, nil
}

func (repo *scheduleRepository) DeleteEntry(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return schedule.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *scheduleRepository) SetConflictFlags(_ context.Context, flags map[string]bool) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for id, flag := range flags {
		if e, ok := repo.db.table[id]; ok {
			e.HasConflict = flag
		}
	}
	return nil
}
