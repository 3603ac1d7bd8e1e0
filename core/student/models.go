package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

type Student struct {
	ID            string    `json:"id"`
	StudentNumber string    `json:"student_number"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	GradeLevel    string    `json:"grade_level"`
	ClassID       string    `json:"class_id"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// NewStudent contains information needed to create, or fully replace, a Student.
type NewStudent struct {
	StudentNumber string `json:"student_number" validate:"notblank,max=32,alphanum_"`
	Name          string `json:"name" validate:"notblank,max=120"`
	Email         string `json:"email" validate:"omitempty,email"`
	GradeLevel    string `json:"grade_level" validate:"notblank,max=16"`
	ClassID       string `json:"class_id" validate:"notblank,max=64"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.StudentNumber = core.CleanString(ns.StudentNumber)
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.GradeLevel = core.CleanString(ns.GradeLevel)
	ns.ClassID = core.CleanString(ns.ClassID)
	return validate.Struct(ns)
}

type QueryFilter struct {
	// Search does a case-insensitive match on Student.Name or Student.StudentNumber.
	Search     string `query:"search"`
	GradeLevel string `query:"grade_level"`
	ClassID    string `query:"class"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.GradeLevel = core.CleanString(qf.GradeLevel)
	qf.ClassID = core.CleanString(qf.ClassID)
}

// OrderingFields maps the fields a student list may be ordered by to their column.
var OrderingFields = map[string]string{
	"name":           "name",
	"student_number": "student_number",
	"grade_level":    "grade_level",
	"created_at":     "created_at",
}
