package attendance

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/student"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("attendance record")
	ErrUnknownStudent  = errors.New("unknown student")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrBulkNotApplied  = errors.New("not applied: another row failed")
	ErrInvalidInterval = errors.New("from must not be after to")
)

type (
	Repository interface {
		// SaveRecords upserts every record on (StudentID, Date): all are saved, or none.
		SaveRecords(ctx context.Context, records ...Record) error
		QueryRecords(ctx context.Context, filter RecordFilter) ([]Record, error)
		// LatestBefore returns, per student, the most recent record dated strictly before `day`.
		LatestBefore(ctx context.Context, studentIDs []string, day time.Time) (map[string]Record, error)
		DeleteRecord(ctx context.Context, studentID string, day time.Time) error
	}

	// Students is the student directory attendance is taken against.
	Students interface {
		GetByID(ctx context.Context, id string) (student.Student, error)
		Query(ctx context.Context, filter student.QueryFilter, ordering ...core.DBOrdering) ([]student.Student, error)
	}

	Service struct {
		repo     Repository
		students Students
		policy   Policy
		now      func() time.Time
	}

	// History is the attendance of one student over a period.
	History struct {
		StudentID string    `json:"student_id"`
		Records   []Record  `json:"records"`
		Summary   Summary   `json:"summary"`
		Band      string    `json:"band"`
		From      time.Time `json:"from,omitempty"`
		To        time.Time `json:"to,omitempty"`
	}
)

func NewService(repo Repository, students Students, policy Policy) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(students, "students"),
	).CheckAndPanic()
	return &Service{repo: repo, students: students, policy: policy, now: time.Now}
}

func (svc *Service) Policy() Policy {
	return svc.policy
}

// Mark records (or overwrites) the validated mark.
func (svc *Service) Mark(ctx context.Context, ma MarkAttendance) (Record, error) {
	if _, err := svc.students.GetByID(ctx, ma.StudentID); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Record{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return Record{}, errors.Wrap(err, "getting student")
	}
	r := Record{StudentID: ma.StudentID, Date: ma.day, Status: ma.Status, UpdatedAt: svc.now().UTC()}
	if err := svc.repo.SaveRecords(ctx, r); err != nil {
		return Record{}, errors.Wrap(err, "saving record")
	}
	return r, nil
}

func (svc *Service) Unmark(ctx context.Context, studentID string, day time.Time) error {
	return svc.repo.DeleteRecord(ctx, studentID, Day(day))
}

func (svc *Service) knownStudents(ctx context.Context) (map[string]bool, error) {
	students, err := svc.students.Query(ctx, student.QueryFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	known := make(map[string]bool, len(students))
	for _, std := range students {
		known[std.ID] = true
	}
	return known, nil
}

// BulkUpdate applies a validated BulkUpdate and reports one result per student.
// In atomic mode, a single invalid row leaves every row unapplied.
func (svc *Service) BulkUpdate(ctx context.Context, bu BulkUpdate) (BulkOutcome, error) {
	return svc.apply(ctx, bu.day, bu.rows(), bu.Mode)
}

// CopyPreviousDay marks the targets of a validated CopyPrevious with their latest earlier status.
func (svc *Service) CopyPreviousDay(ctx context.Context, cp CopyPrevious) (BulkOutcome, error) {
	targets := cp.StudentIDs
	if len(targets) == 0 {
		students, err := svc.students.Query(ctx, student.QueryFilter{ClassID: cp.ClassID})
		if err != nil {
			return BulkOutcome{}, errors.Wrap(err, "querying class students")
		}
		for _, std := range students {
			targets = append(targets, std.ID)
		}
	}

	latest, err := svc.repo.LatestBefore(ctx, targets, cp.day)
	if err != nil {
		return BulkOutcome{}, errors.Wrap(err, "querying previous records")
	}
	rows := make([]Override, 0, len(targets))
	for _, sid := range targets {
		status := StatusPresent
		if r, ok := latest[sid]; ok {
			status = r.Status
		}
		rows = append(rows, Override{StudentID: sid, Status: status})
	}
	return svc.apply(ctx, cp.day, rows, cp.Mode)
}

func (svc *Service) apply(ctx context.Context, day time.Time, rows []Override, mode string) (BulkOutcome, error) {
	if mode == "" {
		mode = ModeAtomic
	}
	known, err := svc.knownStudents(ctx)
	if err != nil {
		return BulkOutcome{}, err
	}

	now := svc.now().UTC()
	outcome := BulkOutcome{Mode: mode, Results: make([]BulkResult, 0, len(rows))}
	valid := make([]Record, 0, len(rows))
	for _, row := range rows {
		res := BulkResult{StudentID: row.StudentID, Status: row.Status}
		switch {
		case !known[row.StudentID]:
			res.Error = ErrUnknownStudent.Error()
		case !IsValidStatus(row.Status):
			res.Error = ErrInvalidStatus.Error()
		default:
			valid = append(valid, Record{StudentID: row.StudentID, Date: day, Status: row.Status, UpdatedAt: now})
		}
		outcome.Results = append(outcome.Results, res)
	}

	if mode == ModeAtomic {
		if len(valid) < len(rows) {
			for i := range outcome.Results {
				if outcome.Results[i].Error == "" {
					outcome.Results[i].Error = ErrBulkNotApplied.Error()
				}
			}
			outcome.Failed = len(rows)
			return outcome, nil
		}
		if err := svc.repo.SaveRecords(ctx, valid...); err != nil {
			return BulkOutcome{}, errors.Wrap(err, "saving records")
		}
		for i := range outcome.Results {
			outcome.Results[i].OK = true
		}
		outcome.Applied = len(rows)
		return outcome, nil
	}

	saved := make(map[string]bool, len(valid))
	for _, r := range valid {
		if err := svc.repo.SaveRecords(ctx, r); err != nil {
			for i := range outcome.Results {
				if outcome.Results[i].StudentID == r.StudentID {
					outcome.Results[i].Error = errors.Wrap(err, "saving record").Error()
				}
			}
			continue
		}
		saved[r.StudentID] = true
	}
	for i := range outcome.Results {
		if outcome.Results[i].Error == "" && saved[outcome.Results[i].StudentID] {
			outcome.Results[i].OK = true
			outcome.Applied++
		} else {
			outcome.Failed++
		}
	}
	return outcome, nil
}

// Roster builds the roster of the filter date (today by default).
func (svc *Service) Roster(ctx context.Context, filter RosterFilter) (Roster, error) {
	filter.Clean()
	day := Day(svc.now())
	if filter.Date != "" {
		d, err := ParseDate(filter.Date)
		if err != nil {
			return Roster{}, invalidDate("date")
		}
		day = d
	}

	students, err := svc.students.Query(
		ctx,
		student.QueryFilter{GradeLevel: filter.GradeLevel, ClassID: filter.ClassID},
		core.DBOrdering{Field: "name", Ascending: true},
	)
	if err != nil {
		return Roster{}, errors.Wrap(err, "querying students")
	}
	if len(students) == 0 {
		return svc.policy.BuildRoster(day, students, nil, filter), nil
	}

	ids := make([]string, 0, len(students))
	for _, std := range students {
		ids = append(ids, std.ID)
	}
	records, err := svc.repo.QueryRecords(ctx, RecordFilter{StudentIDs: ids, To: day})
	if err != nil {
		return Roster{}, errors.Wrap(err, "querying records")
	}
	return svc.policy.BuildRoster(day, students, records, filter), nil
}

// StudentHistory returns the student's records and summary over [from, to]; zero bounds are open.
func (svc *Service) StudentHistory(ctx context.Context, studentID string, from, to time.Time) (History, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return History{}, core.NewValidationError(ErrInvalidInterval, core.FieldError{Field: "from", Error: ErrInvalidInterval.Error()})
	}
	if _, err := svc.students.GetByID(ctx, studentID); err != nil {
		return History{}, err
	}
	records, err := svc.repo.QueryRecords(ctx, RecordFilter{StudentIDs: []string{studentID}, From: from, To: to})
	if err != nil {
		return History{}, errors.Wrap(err, "querying records")
	}
	summary := svc.policy.Summarize(records)
	return History{
		StudentID: studentID,
		Records:   records,
		Summary:   summary,
		Band:      svc.policy.Band(summary),
		From:      from,
		To:        to,
	}, nil
}
