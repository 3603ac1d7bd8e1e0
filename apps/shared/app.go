// Package shared wires the storage layer and domain services used by the api and admin binaries.
package shared

import (
	"context"
	"io"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/gradebook"
	"github.com/trezcool/darasa/core/grading"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/user"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/storage/database"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	pgrepos "github.com/trezcool/darasa/storage/database/postgres"
)

type (
	Repositories struct {
		Users      user.Repository
		Students   student.Repository
		Scales     grading.Repository
		Gradebook  gradebook.Repository
		Attendance attendance.Repository
		Schedule   schedule.Repository
	}

	Services struct {
		User       *user.Service
		Student    *student.Service
		Grading    *grading.Service
		Gradebook  *gradebook.Service
		Attendance *attendance.Service
		Schedule   *schedule.Service
	}
)

// NewLogger returns a Rollbar-backed logger writing locally to out (stderr when nil).
func NewLogger(out io.Writer, conf *core.Config, component string) *logsvc.RollbarLogger {
	if out == nil {
		out = os.Stderr
	}
	zl := logsvc.NewZerolog(out, conf).With().Str("component", component).Logger()
	return logsvc.NewRollbarLogger(zl, conf)
}

// NewValidator returns a validator with every domain validation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	gradebook.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	schedule.InitValidators(validate, translator)
	return validate, translator
}

func InMemoryRepositories(db *inmemdb.DB) Repositories {
	return Repositories{
		Users:      inmemdb.NewUserRepository(db),
		Students:   inmemdb.NewStudentRepository(db),
		Scales:     inmemdb.NewScaleRepository(db),
		Gradebook:  inmemdb.NewGradebookRepository(db),
		Attendance: inmemdb.NewAttendanceRepository(db),
		Schedule:   inmemdb.NewScheduleRepository(db),
	}
}

func PostgresRepositories(db *sqlx.DB) Repositories {
	return Repositories{
		Users:      pgrepos.NewUserRepository(db),
		Students:   pgrepos.NewStudentRepository(db),
		Scales:     pgrepos.NewScaleRepository(db),
		Gradebook:  pgrepos.NewGradebookRepository(db),
		Attendance: pgrepos.NewAttendanceRepository(db),
		Schedule:   pgrepos.NewScheduleRepository(db),
	}
}

// OpenRepositories sets up the configured storage. The returned closer must be called once done.
// Unless migrate is false, the postgres database is created and migrated first.
func OpenRepositories(ctx context.Context, conf *core.Config, migrate bool) (Repositories, func() error, error) {
	if conf.Database.InMemory {
		return InMemoryRepositories(inmemdb.NewDB()), func() error { return nil }, nil
	}

	if migrate {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return Repositories{}, nil, errors.Wrap(err, "creating database")
		}
	}
	db, err := database.Open(conf)
	if err != nil {
		return Repositories{}, nil, errors.Wrap(err, "opening database")
	}
	if err = database.Ping(ctx, db); err != nil {
		_ = db.Close()
		return Repositories{}, nil, err
	}
	if migrate {
		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return Repositories{}, nil, errors.Wrap(err, "migrating database")
		}
	}
	return PostgresRepositories(db), db.Close, nil
}

// NewServices builds the domain services on top of repos, following the grading, attendance and schedule settings.
func NewServices(conf *core.Config, repos Repositories) (Services, error) {
	var extra []grading.Scale
	if conf.Grading.ScalesFile != "" {
		scales, err := grading.LoadScalesFile(conf.Grading.ScalesFile)
		if err != nil {
			return Services{}, errors.Wrap(err, "loading grading scales")
		}
		extra = scales
	}
	gradingSvc, err := grading.NewService(repos.Scales, conf.Grading.DefaultScale, extra...)
	if err != nil {
		return Services{}, err
	}

	scheduleSvc, err := schedule.NewService(repos.Schedule, conf.Schedule.ConflictPolicy)
	if err != nil {
		return Services{}, err
	}

	studentSvc := student.NewService(repos.Students)
	return Services{
		User:       user.NewService(repos.Users),
		Student:    studentSvc,
		Grading:    gradingSvc,
		Gradebook:  gradebook.NewService(repos.Gradebook, studentSvc, gradingSvc),
		Attendance: attendance.NewService(repos.Attendance, studentSvc, attendance.Policy{ChronicThreshold: conf.Attendance.ChronicThreshold}),
		Schedule:   scheduleSvc,
	}, nil
}
