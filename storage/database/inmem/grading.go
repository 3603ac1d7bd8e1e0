package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core/grading"
)

type scaleRepository struct {
	db *scaleTable
}

var _ grading.Repository = (*scaleRepository)(nil)

func NewScaleRepository(db *DB) grading.Repository {
	return &scaleRepository{db: db.scale}
}

func copyScale(s grading.Scale) grading.Scale {
	bands := make([]grading.Band, len(s.Bands))
	copy(bands, s.Bands)
	s.Bands = bands
	return s
}

func (repo *scaleRepository) QueryScales(_ context.Context) ([]grading.Scale, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	scales := make([]grading.Scale, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		scales = append(scales, copyScale(*s))
	}
	return scales, nil
}

func (repo *scaleRepository) GetScale(_ context.Context, id string) (grading.Scale, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return copyScale(*s), nil
	}
	return grading.Scale{}, grading.ErrNotFound
}

func (repo *scaleRepository) SaveScale(_ context.Context, scale grading.Scale) (grading.Scale, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s := copyScale(scale)
	repo.db.table[s.ID] = &s
	return copyScale(s), nil
}

func (repo *scaleRepository) GetClassScaleID(_ context.Context, classID string) (string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if id, ok := repo.db.classScales[classID]; ok {
		return id, nil
	}
	return "", grading.ErrClassScaleUnset
}

func (repo *scaleRepository) SetClassScaleID(_ context.Context, classID, scaleID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.classScales[classID] = scaleID
	return nil
}
