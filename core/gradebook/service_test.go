package gradebook_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/gradebook"
	"github.com/trezcool/darasa/core/grading"
	"github.com/trezcool/darasa/core/student"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/tests"
)

type fixture struct {
	svc      *gradebook.Service
	repo     gradebook.Repository
	students student.Repository
	scales   *grading.Service
}

func setup(t *testing.T) fixture {
	db := inmemdb.NewDB()
	f := fixture{
		repo:     inmemdb.NewGradebookRepository(db),
		students: inmemdb.NewStudentRepository(db),
	}
	var err error
	f.scales, err = grading.NewService(inmemdb.NewScaleRepository(db), grading.ScaleStandard)
	require.NoError(t, err)
	f.svc = gradebook.NewService(f.repo, student.NewService(f.students), f.scales)
	return f
}

func points(p float64) *float64 { return &p }

func TestNewAssignment_Validate(t *testing.T) {
	validate, translator := core.NewValidator()
	gradebook.InitValidators(validate, translator)

	na := gradebook.NewAssignment{ClassID: "math-7a", Name: " Quiz ", Category: " Homework ", TotalPoints: 10, DueDate: time.Now()}
	require.NoError(t, na.Validate(validate))
	assert.Equal(t, "Quiz", na.Name)
	assert.Equal(t, gradebook.CategoryHomework, na.Category)

	na = gradebook.NewAssignment{ClassID: "math-7a", Name: "Quiz", Category: "exam", TotalPoints: -1, DueDate: time.Now()}
	err := na.Validate(validate)
	verrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, map[string]string{
		"category":     "must be one of: homework, quiz, test, project, participation",
		"total_points": "total_points must be greater than 0",
	}, core.TranslateErrors(verrs, translator))
}

func TestService_EnterGrade(t *testing.T) {
	f := setup(t)
	validate, translator := core.NewValidator()
	gradebook.InitValidators(validate, translator)
	ctx := context.Background()

	amani := testutil.CreateStudent(t, f.students, "S001", "Amani", "7", "math-7a")
	baraka := testutil.CreateStudent(t, f.students, "S002", "Baraka", "7", "math-7b")
	quiz := testutil.CreateAssignment(t, f.repo, "math-7a", "Quiz", gradebook.CategoryQuiz, 20, time.Now())

	tests := []struct {
		name      string
		assign    string
		student   string
		entry     gradebook.GradeEntry
		wantField string
		wantErr   error
	}{
		{name: "unknown assignment", assign: "lol", student: amani.ID, entry: gradebook.GradeEntry{PointsEarned: points(1)}, wantErr: gradebook.ErrNotFound},
		{name: "above total", assign: quiz.ID, student: amani.ID, entry: gradebook.GradeEntry{PointsEarned: points(20.5)}, wantField: "points_earned"},
		{name: "not enrolled", assign: quiz.ID, student: baraka.ID, entry: gradebook.GradeEntry{PointsEarned: points(1)}, wantField: "student"},
		{name: "full marks", assign: quiz.ID, student: amani.ID, entry: gradebook.GradeEntry{PointsEarned: points(20)}},
		{name: "zero", assign: quiz.ID, student: amani.ID, entry: gradebook.GradeEntry{PointsEarned: points(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := f.svc.EnterGrade(ctx, tt.assign, tt.student, tt.entry, validate)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantField != "":
				var verr *core.ValidationError
				require.True(t, errors.As(err, &verr), "got %v", err)
				assert.Equal(t, tt.wantField, verr.Fields[0].Field)
			default:
				require.NoError(t, err)
				assert.Equal(t, *tt.entry.PointsEarned, g.PointsEarned)
				assert.Equal(t, 20.0, g.MaxPoints)
			}
		})
	}

	grades, err := f.repo.QueryGrades(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, grades, 1, "a grade is overwritten, never duplicated")
	assert.Equal(t, 0.0, grades[0].PointsEarned)
}

func TestService_UpdateAssignment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	amani := testutil.CreateStudent(t, f.students, "S001", "Amani", "7", "math-7a")
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	quiz := testutil.CreateAssignment(t, f.repo, "math-7a", "Quiz", gradebook.CategoryQuiz, 20, due)
	testutil.CreateGrade(t, f.repo, quiz, amani.ID, 15)

	_, err := f.svc.UpdateAssignment(ctx, quiz.ID, gradebook.NewAssignment{Name: "Quiz", Category: gradebook.CategoryQuiz, TotalPoints: 10, DueDate: due})
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, gradebook.ErrPointsAboveTotal, verr.Err)

	a, err := f.svc.UpdateAssignment(ctx, quiz.ID, gradebook.NewAssignment{Name: "Quiz 1", Category: gradebook.CategoryQuiz, TotalPoints: 15, DueDate: due})
	require.NoError(t, err)
	assert.Equal(t, "Quiz 1", a.Name)
	assert.Equal(t, "math-7a", a.ClassID)

	grades, err := f.repo.QueryGrades(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 15.0, grades[0].MaxPoints)
	assert.Equal(t, 100.0, grades[0].Percentage())

	_, err = f.svc.UpdateAssignment(ctx, "lol", gradebook.NewAssignment{})
	assert.True(t, core.IsNotFound(err))
}

func TestService_ClassGradebook(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	amani := testutil.CreateStudent(t, f.students, "S001", "Amani", "7", "math-7a")
	baraka := testutil.CreateStudent(t, f.students, "S002", "Baraka", "7", "math-7a")
	transferred := testutil.CreateStudent(t, f.students, "S003", "Chausiku", "7", "math-7b")

	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	hw := testutil.CreateAssignment(t, f.repo, "math-7a", "Homework", gradebook.CategoryHomework, 10, due)
	test := testutil.CreateAssignment(t, f.repo, "math-7a", "Test", gradebook.CategoryTest, 50, due.AddDate(0, 0, 7))
	testutil.CreateGrade(t, f.repo, hw, amani.ID, 8)
	testutil.CreateGrade(t, f.repo, test, amani.ID, 45)
	testutil.CreateGrade(t, f.repo, hw, transferred.ID, 2)

	_, err := f.scales.SetClassScale(ctx, "math-7a", grading.ScalePassFail)
	require.NoError(t, err)

	gb, err := f.svc.ClassGradebook(ctx, "math-7a")
	require.NoError(t, err)
	assert.Equal(t, grading.ScalePassFail, gb.Scale.ID)
	assert.Len(t, gb.Grades, 2, "grades of students outside the class are ignored")
	require.Len(t, gb.Students, 2)

	assert.Equal(t, amani.ID, gb.Students[0].StudentID)
	assert.Equal(t, 85.0, gb.Students[0].Average.Percent)
	assert.Equal(t, "Pass", gb.Students[0].Grade.Label)

	assert.Equal(t, baraka.ID, gb.Students[1].StudentID)
	assert.False(t, gb.Students[1].Average.HasData())
	assert.Equal(t, grading.NotAvailable, gb.Students[1].Grade)
	assert.Equal(t, []string{hw.ID, test.ID}, gb.Students[1].Missing)
	assert.Equal(t, 50.0, gb.CompletionRate)
}

func TestService_ImportGrades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	amani := testutil.CreateStudent(t, f.students, "S001", "Amani", "7", "math-7a")
	quiz := testutil.CreateAssignment(t, f.repo, "math-7a", "Quiz 1", gradebook.CategoryQuiz, 10, time.Now())

	results, err := f.svc.ImportGrades(ctx, "math-7a", []gradebook.ImportRow{
		{Row: 2, StudentID: " s001 ", Assignment: " QUIZ 1 ", PointsEarned: 7},
		{Row: 3, StudentID: "S001", Assignment: "Quiz 2", PointsEarned: 7},
		{Row: 4, StudentID: amani.ID, Assignment: "Quiz 1", PointsEarned: -1},
	})
	require.NoError(t, err)
	assert.Equal(t, []gradebook.ImportResult{
		{Row: 2, StudentID: amani.ID, OK: true},
		{Row: 3, StudentID: amani.ID, Error: gradebook.ErrNotFound.Error()},
		{Row: 4, StudentID: amani.ID, Error: "points must be between 0 and 10"},
	}, results)

	grades, err := f.repo.QueryGrades(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, 7.0, grades[0].PointsEarned)

	t.Run("shared assignment name", func(t *testing.T) {
		retake := testutil.CreateAssignment(t, f.repo, "math-7a", "quiz 1", gradebook.CategoryQuiz, 20, time.Now())

		results, err := f.svc.ImportGrades(ctx, "math-7a", []gradebook.ImportRow{
			{Row: 2, StudentID: "S001", Assignment: "Quiz 1", PointsEarned: 9},
		})
		require.NoError(t, err)
		assert.Equal(t, []gradebook.ImportResult{
			{Row: 2, StudentID: amani.ID, Error: gradebook.ErrAmbiguousName.Error()},
		}, results)

		grades, err := f.repo.QueryGrades(ctx, quiz.ID, retake.ID)
		require.NoError(t, err)
		require.Len(t, grades, 1)
		assert.Equal(t, 7.0, grades[0].PointsEarned, "no grade is overwritten")
	})
}

func TestService_DeleteAssignment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	amani := testutil.CreateStudent(t, f.students, "S001", "Amani", "7", "math-7a")
	quiz := testutil.CreateAssignment(t, f.repo, "math-7a", "Quiz", gradebook.CategoryQuiz, 10, time.Now())
	testutil.CreateGrade(t, f.repo, quiz, amani.ID, 7)
	project := testutil.CreateAssignment(t, f.repo, "math-7a", "Project", gradebook.CategoryProject, 50, time.Now())
	testutil.CreateGrade(t, f.repo, project, amani.ID, 40)

	require.NoError(t, f.svc.DeleteAssignment(ctx, quiz.ID))
	grades, err := f.repo.QueryGrades(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Empty(t, grades)

	grades, err = f.repo.QueryGrades(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, amani.ID, grades[0].StudentID)
	assert.Equal(t, 40.0, grades[0].PointsEarned)

	assert.True(t, core.IsNotFound(f.svc.DeleteAssignment(ctx, quiz.ID)))
	assert.True(t, core.IsNotFound(f.svc.DeleteGrade(ctx, quiz.ID, amani.ID)))
}
