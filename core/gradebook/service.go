package gradebook

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/grading"
	"github.com/trezcool/darasa/core/student"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("assignment")
	ErrGradeNotFound     = core.NewNotFoundError("grade")
	ErrStudentNotInClass = errors.New("student is not enrolled in this class")
	ErrPointsAboveTotal  = errors.New("existing grades exceed the new total points")
	ErrAmbiguousName     = errors.New("several assignments of this class share this name")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		// QueryAssignments lists the class assignments by due date.
		QueryAssignments(ctx context.Context, classID string) ([]Assignment, error)
		// UpdateAssignment also sets MaxPoints of the assignment's grades to its TotalPoints.
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		// DeleteAssignment removes the assignment along with every GradeRecord referencing it.
		DeleteAssignment(ctx context.Context, id string) error

		// SaveGrade inserts or overwrites the (StudentID, AssignmentID) record.
		SaveGrade(ctx context.Context, g GradeRecord) (GradeRecord, error)
		DeleteGrade(ctx context.Context, assignmentID, studentID string) error
		QueryGrades(ctx context.Context, assignmentIDs ...string) ([]GradeRecord, error)
	}

	// Roster supplies the students of a class.
	Roster interface {
		ClassStudents(ctx context.Context, classID string) ([]student.Student, error)
	}

	// ScaleProvider supplies the grading scale selected by a class.
	ScaleProvider interface {
		ClassScale(ctx context.Context, classID string) (grading.Scale, error)
	}

	Service struct {
		repo   Repository
		roster Roster
		scales ScaleProvider
	}
)

func NewService(repo Repository, roster Roster, scales ScaleProvider) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(roster, "roster"),
		vala.IsNotNil(scales, "scales"),
	).CheckAndPanic()
	return &Service{repo: repo, roster: roster, scales: scales}
}

// CreateAssignment stores a validated NewAssignment.
func (svc *Service) CreateAssignment(ctx context.Context, na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	return svc.repo.CreateAssignment(ctx, Assignment{
		ID:          uuid.New().String(),
		ClassID:     na.ClassID,
		Name:        na.Name,
		Category:    na.Category,
		TotalPoints: na.TotalPoints,
		DueDate:     na.DueDate.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) Assignment(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

func (svc *Service) Assignments(ctx context.Context, classID string) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, classID)
}

// UpdateAssignment replaces the assignment details. Lowering TotalPoints below an existing score is rejected.
func (svc *Service) UpdateAssignment(ctx context.Context, id string, na NewAssignment) (Assignment, error) {
	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if na.TotalPoints < a.TotalPoints {
		grades, err := svc.repo.QueryGrades(ctx, id)
		if err != nil {
			return Assignment{}, errors.Wrap(err, "querying grades")
		}
		for _, g := range grades {
			if g.PointsEarned > na.TotalPoints {
				return Assignment{}, core.NewValidationError(
					ErrPointsAboveTotal,
					core.FieldError{Field: "total_points", Error: ErrPointsAboveTotal.Error()},
				)
			}
		}
	}

	a.Name = na.Name
	a.Category = na.Category
	a.TotalPoints = na.TotalPoints
	a.DueDate = na.DueDate.UTC()
	a.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, a)
}

// DeleteAssignment removes the assignment and its grades.
func (svc *Service) DeleteAssignment(ctx context.Context, id string) error {
	if _, err := svc.repo.GetAssignment(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteAssignment(ctx, id)
}

func (svc *Service) checkEnrolled(ctx context.Context, classID, studentID string) error {
	students, err := svc.roster.ClassStudents(ctx, classID)
	if err != nil {
		return errors.Wrap(err, "querying class students")
	}
	for _, std := range students {
		if std.ID == studentID {
			return nil
		}
	}
	return core.NewValidationError(ErrStudentNotInClass, core.FieldError{Field: "student", Error: ErrStudentNotInClass.Error()})
}

// EnterGrade records (or overwrites) a student's score on an assignment.
func (svc *Service) EnterGrade(
	ctx context.Context,
	assignmentID, studentID string,
	entry GradeEntry,
	validate *validator.Validate,
) (GradeRecord, error) {
	a, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return GradeRecord{}, err
	}
	if err = entry.Validate(validate, a); err != nil {
		return GradeRecord{}, err
	}
	if err = svc.checkEnrolled(ctx, a.ClassID, studentID); err != nil {
		return GradeRecord{}, err
	}
	return svc.repo.SaveGrade(ctx, GradeRecord{
		StudentID:    studentID,
		AssignmentID: a.ID,
		PointsEarned: *entry.PointsEarned,
		MaxPoints:    a.TotalPoints,
		UpdatedAt:    time.Now().UTC(),
	})
}

func (svc *Service) DeleteGrade(ctx context.Context, assignmentID, studentID string) error {
	return svc.repo.DeleteGrade(ctx, assignmentID, studentID)
}

// ClassGrades returns the class assignments along with all their grades.
func (svc *Service) ClassGrades(ctx context.Context, classID string) ([]Assignment, []GradeRecord, error) {
	assignments, err := svc.repo.QueryAssignments(ctx, classID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying assignments")
	}
	if len(assignments) == 0 {
		return assignments, []GradeRecord{}, nil
	}
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ID)
	}
	grades, err := svc.repo.QueryGrades(ctx, ids...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying grades")
	}
	return assignments, grades, nil
}

// ClassGradebook assembles the whole gradebook of a class under the class grading scale.
func (svc *Service) ClassGradebook(ctx context.Context, classID string) (Gradebook, error) {
	students, err := svc.roster.ClassStudents(ctx, classID)
	if err != nil {
		return Gradebook{}, errors.Wrap(err, "querying class students")
	}
	assignments, grades, err := svc.ClassGrades(ctx, classID)
	if err != nil {
		return Gradebook{}, err
	}
	scale, err := svc.scales.ClassScale(ctx, classID)
	if err != nil {
		return Gradebook{}, errors.Wrap(err, "getting class scale")
	}
	return BuildGradebook(classID, scale, students, assignments, grades), nil
}

// ImportGrades enters every row independently; one result is returned per row.
// Rows name the student by ID or student number, and the assignment by name; a name shared by several
// assignments of the class is rejected.
func (svc *Service) ImportGrades(ctx context.Context, classID string, rows []ImportRow) ([]ImportResult, error) {
	students, err := svc.roster.ClassStudents(ctx, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying class students")
	}
	assignments, err := svc.repo.QueryAssignments(ctx, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}

	studentIDs := make(map[string]string, 2*len(students))
	for _, std := range students {
		studentIDs[std.ID] = std.ID
		studentIDs[strings.ToLower(std.StudentNumber)] = std.ID
	}
	byName := make(map[string][]Assignment, len(assignments))
	for _, a := range assignments {
		key := strings.ToLower(a.Name)
		byName[key] = append(byName[key], a)
	}

	results := make([]ImportResult, 0, len(rows))
	for _, row := range rows {
		res := ImportResult{Row: row.Row, StudentID: row.StudentID}

		sid, ok := studentIDs[strings.ToLower(core.CleanString(row.StudentID))]
		if !ok {
			res.Error = ErrStudentNotInClass.Error()
			results = append(results, res)
			continue
		}
		res.StudentID = sid

		named := byName[strings.ToLower(core.CleanString(row.Assignment))]
		switch {
		case len(named) == 0:
			res.Error = ErrNotFound.Error()
		case len(named) > 1:
			res.Error = ErrAmbiguousName.Error()
		}
		if res.Error != "" {
			results = append(results, res)
			continue
		}
		a := named[0]
		if err := checkPoints(row.PointsEarned, a); err != nil {
			res.Error = err.Error()
			results = append(results, res)
			continue
		}

		_, err := svc.repo.SaveGrade(ctx, GradeRecord{
			StudentID:    sid,
			AssignmentID: a.ID,
			PointsEarned: row.PointsEarned,
			MaxPoints:    a.TotalPoints,
			UpdatedAt:    time.Now().UTC(),
		})
		if err != nil {
			res.Error = errors.Wrap(err, "saving grade").Error()
		} else {
			res.OK = true
		}
		results = append(results, res)
	}
	return results, nil
}
