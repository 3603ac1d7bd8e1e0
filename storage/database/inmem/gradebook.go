package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core/gradebook"
)

type gradebookRepository struct {
	db *gradebookTable
}

var _ gradebook.Repository = (*gradebookRepository)(nil)

func NewGradebookRepository(db *DB) gradebook.Repository {
	return &gradebookRepository{db: db.gradebook}
}

func (repo *gradebookRepository) CreateAssignment(_ context.Context, a gradebook.Assignment) (gradebook.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *gradebookRepository) GetAssignment(_ context.Context, id string) (gradebook.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return *a, nil
	}
	return gradebook.Assignment{}, gradebook.ErrNotFound
}

func (repo *gradebookRepository) QueryAssignments(_ context.Context, classID string) ([]gradebook.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	assignments := make([]gradebook.Assignment, 0)
	for _, a := range repo.db.assignments {
		if a.ClassID == classID {
			assignments = append(assignments, *a)
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		ai, aj := assignments[i], assignments[j]
		if !ai.DueDate.Equal(aj.DueDate) {
			return ai.DueDate.Before(aj.DueDate)
		}
		return ai.ID < aj.ID
	})
	return assignments, nil
}

func (repo *gradebookRepository) UpdateAssignment(_ context.Context, a gradebook.Assignment) (gradebook.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.assignments[a.ID]; !ok {
		return gradebook.Assignment{}, gradebook.ErrNotFound
	}
	repo.db.assignments[a.ID] = &a
	for key, g := range repo.db.grades {
		if key.assignmentID == a.ID {
			g.MaxPoints = a.TotalPoints
		}
	}
	return a, nil
}

func (repo *gradebookRepository) DeleteAssignment(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.assignments[id]; !ok {
		return gradebook.ErrNotFound
	}
	delete(repo.db.assignments, id)
	for key := range repo.db.grades {
		if key.assignmentID == id {
			delete(repo.db.grades, key)
		}
	}
	return nil
}

func (repo *gradebookRepository) SaveGrade(_ context.Context, g gradebook.GradeRecord) (gradebook.GradeRecord, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.assignments[g.AssignmentID]; !ok {
		return gradebook.GradeRecord{}, gradebook.ErrNotFound
	}
	repo.db.grades[gradeKey{studentID: g.StudentID, assignmentID: g.AssignmentID}] = &g
	return g, nil
}

func (repo *gradebookRepository) DeleteGrade(_ context.Context, assignmentID, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := gradeKey{studentID: studentID, assignmentID: assignmentID}
	if _, ok := repo.db.grades[key]; !ok {
		return gradebook.ErrGradeNotFound
	}
	delete(repo.db.grades, key)
	return nil
}

func (repo *gradebookRepository) QueryGrades(_ context.Context, assignmentIDs ...string) ([]gradebook.GradeRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	wanted := make(map[string]bool, len(assignmentIDs))
	for _, id := range assignmentIDs {
		wanted[id] = true
	}

	grades := make([]gradebook.GradeRecord, 0)
	for key, g := range repo.db.grades {
		if wanted[key.assignmentID] {
			grades = append(grades, *g)
		}
	}
	sort.Slice(grades, func(i, j int) bool {
		if grades[i].AssignmentID != grades[j].AssignmentID {
			return grades[i].AssignmentID < grades[j].AssignmentID
		}
		return grades[i].StudentID < grades[j].StudentID
	})
	return grades, nil
}
