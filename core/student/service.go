package student

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("student")
	ErrNumberExists = errors.New("a student with this number already exists")
)

type (
	Repository interface {
		// CheckNumberUniqueness returns ErrNumberExists if another student than `excludedID` holds the number.
		CheckNumberUniqueness(ctx context.Context, number, excludedID string) error
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		QueryStudents(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(vala.IsNotNil(repo, "repo")).CheckAndPanic()
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(ctx context.Context, number, excludedID string) error {
	if err := svc.repo.CheckNumberUniqueness(ctx, number, excludedID); err != nil {
		if errors.Cause(err) == ErrNumberExists {
			return core.NewValidationError(err, core.FieldError{Field: "student_number", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create stores a validated NewStudent.
func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if err := svc.checkUniqueness(ctx, ns.StudentNumber, ""); err != nil {
		return Student{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateStudent(ctx, Student{
		ID:            uuid.New().String(),
		StudentNumber: ns.StudentNumber,
		Name:          ns.Name,
		Email:         ns.Email,
		GradeLevel:    ns.GradeLevel,
		ClassID:       ns.ClassID,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter, core.AllowedOrderings(ordering, OrderingFields)...)
}

// ClassStudents lists the students of a class, by name.
func (svc *Service) ClassStudents(ctx context.Context, classID string) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, QueryFilter{ClassID: classID}, core.DBOrdering{Field: "name", Ascending: true})
}

// Update replaces the student's details with a validated NewStudent.
func (svc *Service) Update(ctx context.Context, id string, ns NewStudent) (Student, error) {
	std, err := svc.repo.GetStudent(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err = svc.checkUniqueness(ctx, ns.StudentNumber, id); err != nil {
		return Student{}, err
	}
	std.StudentNumber = ns.StudentNumber
	std.Name = ns.Name
	std.Email = ns.Email
	std.GradeLevel = ns.GradeLevel
	std.ClassID = ns.ClassID
	std.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, std)
}

// Delete removes the student only; their grade and attendance records are kept.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}
