// Package testutil provides fixtures shared by the package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/gradebook"
	"github.com/trezcool/darasa/core/grading"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/user"
)

// NewConfig returns the settings of an in-memory test run.
func NewConfig() *core.Config {
	conf := &core.Config{
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		AppName:   "Darasa",
		SecretKey: "test-secret-key",
	}
	conf.Log.Level = "error"
	conf.Server.Host = "localhost"
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	conf.Server.UserCacheTTL = time.Minute
	conf.Database.InMemory = true
	conf.Grading.DefaultScale = grading.ScaleStandard
	conf.Attendance.ChronicThreshold = attendance.DefaultChronicThreshold
	conf.Schedule.ConflictPolicy = schedule.PolicyWarn
	return conf
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, repo student.Repository, number, name, gradeLevel, classID string) student.Student {
	t.Helper()
	now := time.Now().UTC()
	std, err := repo.CreateStudent(context.Background(), student.Student{
		ID:            uuid.New().String(),
		StudentNumber: number,
		Name:          name,
		GradeLevel:    gradeLevel,
		ClassID:       classID,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateAssignment(
	t *testing.T,
	repo gradebook.Repository,
	classID, name, category string,
	totalPoints float64,
	dueDate time.Time,
) gradebook.Assignment {
	t.Helper()
	now := time.Now().UTC()
	a, err := repo.CreateAssignment(context.Background(), gradebook.Assignment{
		ID:          uuid.New().String(),
		ClassID:     classID,
		Name:        name,
		Category:    category,
		TotalPoints: totalPoints,
		DueDate:     dueDate.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return a
}

func CreateGrade(t *testing.T, repo gradebook.Repository, a gradebook.Assignment, studentID string, points float64) gradebook.GradeRecord {
	t.Helper()
	g, err := repo.SaveGrade(context.Background(), gradebook.GradeRecord{
		StudentID:    studentID,
		AssignmentID: a.ID,
		PointsEarned: points,
		MaxPoints:    a.TotalPoints,
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}
	return g
}

func MarkAttendance(t *testing.T, repo attendance.Repository, studentID string, day time.Time, status string) attendance.Record {
	t.Helper()
	rec := attendance.Record{
		StudentID: studentID,
		Date:      attendance.Day(day),
		Status:    status,
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.SaveRecords(context.Background(), rec); err != nil {
		t.Fatalf("MarkAttendance() failed: %v", err)
	}
	return rec
}

func CreateEntry(t *testing.T, repo schedule.Repository, e schedule.Entry) schedule.Entry {
	t.Helper()
	now := time.Now().UTC()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	e, err := repo.CreateEntry(context.Background(), e)
	if err != nil {
		t.Fatalf("CreateEntry() failed: %v", err)
	}
	return e
}

// Date returns the UTC midnight of the ISO date `s`.
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(attendance.DateLayout, s)
	if err != nil {
		t.Fatalf("Date(%q) failed: %v", s, err)
	}
	return d
}
