package gradebook

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Assignment categories
const (
	CategoryHomework      = "homework"
	CategoryQuiz          = "quiz"
	CategoryTest          = "test"
	CategoryProject       = "project"
	CategoryParticipation = "participation"
)

var Categories = []string{CategoryHomework, CategoryQuiz, CategoryTest, CategoryProject, CategoryParticipation}

type (
	Assignment struct {
		ID          string    `json:"id"`
		ClassID     string    `json:"class_id"`
		Name        string    `json:"name"`
		Category    string    `json:"category"`
		TotalPoints float64   `json:"total_points"`
		DueDate     time.Time `json:"due_date"`
		CreatedAt   time.Time `json:"created_at"` // UTC
		UpdatedAt   time.Time `json:"updated_at"` // UTC
	}

	// GradeRecord is the score of one student on one assignment; (StudentID, AssignmentID) is unique.
	GradeRecord struct {
		StudentID    string    `json:"student_id"`
		AssignmentID string    `json:"assignment_id"`
		PointsEarned float64   `json:"points_earned"`
		MaxPoints    float64   `json:"max_points"`
		UpdatedAt    time.Time `json:"updated_at"` // UTC
	}
)

// Percentage returns PointsEarned / MaxPoints * 100, or 0 when MaxPoints is not positive.
func (g GradeRecord) Percentage() float64 {
	if g.MaxPoints <= 0 {
		return 0
	}
	return g.PointsEarned * 100 / g.MaxPoints
}

// NewAssignment contains information needed to create (or fully replace) an Assignment.
type NewAssignment struct {
	ClassID     string    `json:"class_id" validate:"required,max=64"`
	Name        string    `json:"name" validate:"notblank,max=120"`
	Category    string    `json:"category" validate:"required,assignment_category"`
	TotalPoints float64   `json:"total_points" validate:"gt=0"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.ClassID = core.CleanString(na.ClassID)
	na.Name = core.CleanString(na.Name)
	na.Category = core.CleanString(na.Category, true /* lower */)
	return validate.Struct(na)
}

// GradeEntry is a score typed in by a teacher.
type GradeEntry struct {
	PointsEarned *float64 `json:"points_earned" validate:"required"`
}

// Validate rejects scores outside [0, assignment.TotalPoints].
func (ge *GradeEntry) Validate(validate *validator.Validate, assignment Assignment) error {
	if err := validate.Struct(ge); err != nil {
		return err
	}
	return checkPoints(*ge.PointsEarned, assignment)
}

// ImportRow is one score read from a spreadsheet; the assignment is designated by name.
type ImportRow struct {
	Row          int     `json:"row"`
	StudentID    string  `json:"student_id"`
	Assignment   string  `json:"assignment"`
	PointsEarned float64 `json:"points_earned"`
}

// ImportResult reports the outcome of one ImportRow.
type ImportResult struct {
	Row       int    `json:"row"`
	StudentID string `json:"student_id"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}
