package inmemdb

import (
	"sync"
	"time"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/gradebook"
	"github.com/trezcool/darasa/core/grading"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/user"
)

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
	}

	scaleTable struct {
		mutex       sync.RWMutex
		table       map[string]*grading.Scale
		classScales map[string]string
	}

	gradebookTable struct {
		mutex       sync.RWMutex
		assignments map[string]*gradebook.Assignment
		grades      map[gradeKey]*gradebook.GradeRecord
	}

	attendanceTable struct {
		mutex sync.RWMutex
		table map[attendanceKey]*attendance.Record
	}

	scheduleTable struct {
		mutex sync.RWMutex
		table map[string]*schedule.Entry
	}

	gradeKey struct {
		studentID    string
		assignmentID string
	}

	attendanceKey struct {
		studentID string
		date      time.Time
	}

	// DB holds one table per repository; every table is safe for concurrent use.
	DB struct {
		user       *userTable
		student    *studentTable
		scale      *scaleTable
		gradebook  *gradebookTable
		attendance *attendanceTable
		schedule   *scheduleTable
	}
)

func NewDB() *DB {
	db := &DB{
		user:       new(userTable),
		student:    new(studentTable),
		scale:      new(scaleTable),
		gradebook:  new(gradebookTable),
		attendance: new(attendanceTable),
		schedule:   new(scheduleTable),
	}
	db.Reset()
	return db
}

// Reset empties every table in place; repositories built on db stay valid.
func (db *DB) Reset() {
	db.user.mutex.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.mutex.Unlock()

	db.student.mutex.Lock()
	db.student.table = make(map[string]*student.Student)
	db.student.mutex.Unlock()

	db.scale.mutex.Lock()
	db.scale.table = make(map[string]*grading.Scale)
	db.scale.classScales = make(map[string]string)
	db.scale.mutex.Unlock()

	db.gradebook.mutex.Lock()
	db.gradebook.assignments = make(map[string]*gradebook.Assignment)
	db.gradebook.grades = make(map[gradeKey]*gradebook.GradeRecord)
	db.gradebook.mutex.Unlock()

	db.attendance.mutex.Lock()
	db.attendance.table = make(map[attendanceKey]*attendance.Record)
	db.attendance.mutex.Unlock()

	db.schedule.mutex.Lock()
	db.schedule.table = make(map[string]*schedule.Entry)
	db.schedule.mutex.Unlock()
}
