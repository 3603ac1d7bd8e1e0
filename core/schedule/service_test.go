package schedule_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/schedule"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func newEntry(teacher, room, day, start, end string) schedule.NewEntry {
	return schedule.NewEntry{
		TeacherID:  teacher,
		RoomID:     room,
		Day:        day,
		Start:      start,
		End:        end,
		Subject:    "Math",
		GradeLevel: "7",
	}
}

func newService(t *testing.T, policy string) *schedule.Service {
	svc, err := schedule.NewService(inmemdb.NewScheduleRepository(inmemdb.NewDB()), policy)
	require.NoError(t, err)
	return svc
}

func TestNewService(t *testing.T) {
	_, err := schedule.NewService(inmemdb.NewScheduleRepository(inmemdb.NewDB()), "lol")
	assert.Error(t, err)

	svc := newService(t, " Block ")
	assert.Equal(t, schedule.PolicyBlock, svc.Policy())
}

func TestNewEntry_Validate(t *testing.T) {
	validate, translator := core.NewValidator()
	schedule.InitValidators(validate, translator)

	ne := newEntry(" t-juma ", "r-101", " MONDAY ", "8:00", "09:30")
	require.NoError(t, ne.Validate(validate))
	assert.Equal(t, "t-juma", ne.TeacherID)
	assert.Equal(t, "monday", ne.Day)

	ne = newEntry("t-juma", "r-101", "monday", "09:30", "09:30")
	var verr *core.ValidationError
	require.True(t, errors.As(ne.Validate(validate), &verr))
	assert.Equal(t, "end", verr.Fields[0].Field)

	ne = newEntry("t-juma", "r-101", "monday", "23:00", "24:00")
	assert.NoError(t, ne.Validate(validate))
}

func TestService_blockPolicy(t *testing.T) {
	svc := newService(t, schedule.PolicyBlock)
	ctx := context.Background()

	math, err := svc.Create(ctx, newEntry("t-juma", "r-101", "monday", "08:00", "09:00"))
	require.NoError(t, err)
	assert.False(t, math.HasConflict)

	_, err = svc.Create(ctx, newEntry("t-neema", "r-101", "monday", "08:30", "09:30"))
	var cerr *schedule.ConflictError
	require.True(t, errors.As(err, &cerr), "got %v", err)
	require.Len(t, cerr.Conflicts, 1)
	assert.Equal(t, schedule.DimensionRoom, cerr.Conflicts[0].Dimension)
	assert.Equal(t, "schedule conflict: room r-101 is already booked for Math on monday 08:00-09:00", cerr.Error())

	entries, err := svc.Query(ctx, schedule.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1, "a blocked entry is not saved")

	// back to back is fine
	next, err := svc.Create(ctx, newEntry("t-juma", "r-101", "monday", "09:00", "10:00"))
	require.NoError(t, err)

	_, err = svc.Move(ctx, next.ID, schedule.Move{Day: "monday", Start: "08:15"})
	assert.True(t, errors.As(err, &cerr))

	// an entry never conflicts with itself
	moved, err := svc.Move(ctx, math.ID, schedule.Move{Day: "monday", Start: "07:30"})
	require.NoError(t, err)
	assert.Equal(t, "07:30", moved.Start.String())
	assert.Equal(t, "08:30", moved.End.String())
}

func TestService_blockPolicy_concurrentWrites(t *testing.T) {
	svc := newService(t, schedule.PolicyBlock)
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, newEntry("t-juma", "r-101", "tuesday", "10:00", "11:00"))
		}(i)
	}
	wg.Wait()

	var saved, blocked int
	for _, err := range errs {
		var cerr *schedule.ConflictError
		switch {
		case err == nil:
			saved++
		case errors.As(err, &cerr):
			blocked++
		default:
			t.Fatalf("Create() unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, saved)
	assert.Equal(t, writers-1, blocked)

	entries, err := svc.Query(ctx, schedule.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].HasConflict)
}

func TestService_warnPolicy(t *testing.T) {
	svc := newService(t, schedule.PolicyWarn)
	ctx := context.Background()

	math, err := svc.Create(ctx, newEntry("t-juma", "r-101", "monday", "08:00", "09:00"))
	require.NoError(t, err)
	clash, err := svc.Create(ctx, newEntry("t-juma", "r-101", "monday", "08:30", "09:30"))
	require.NoError(t, err)
	assert.True(t, clash.HasConflict)

	conflicts, err := svc.CheckNew(ctx, newEntry("t-juma", "r-202", "monday", "08:45", "09:15"), "")
	require.NoError(t, err)
	require.Len(t, conflicts, 2)
	assert.Equal(t, schedule.DimensionTeacher, conflicts[0].Dimension)
	assert.Equal(t, math.ID, conflicts[0].Entry.ID)
	assert.Equal(t, clash.ID, conflicts[1].Entry.ID)

	stats, err := svc.Stats(ctx, schedule.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, schedule.Stats{TotalClasses: 2, ActiveTeachers: 1, RoomsInUse: 1, Conflicts: 2}, stats)

	_, err = svc.Update(ctx, clash.ID, newEntry("t-juma", "r-101", "tuesday", "08:30", "09:30"))
	require.NoError(t, err)
	stats, err = svc.Stats(ctx, schedule.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Conflicts)

	_, err = svc.Move(ctx, math.ID, schedule.Move{Day: "tuesday", Start: "23:30"})
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "start", verr.Fields[0].Field)

	require.NoError(t, svc.Delete(ctx, clash.ID))
	assert.True(t, core.IsNotFound(svc.Delete(ctx, clash.ID)))
	_, err = svc.Update(ctx, clash.ID, newEntry("t-juma", "r-101", "tuesday", "08:30", "09:30"))
	assert.True(t, core.IsNotFound(err))
}
