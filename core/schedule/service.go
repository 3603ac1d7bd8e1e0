package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("schedule entry")
	errPastMidnight = errors.New("the moved class would end after midnight")

	endOfDay = Clock(24 * 60)
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		GetEntry(ctx context.Context, id string) (Entry, error)
		// QueryEntries lists every entry by creation.
		QueryEntries(ctx context.Context) ([]Entry, error)
		UpdateEntry(ctx context.Context, e Entry) (Entry, error)
		DeleteEntry(ctx context.Context, id string) error
		// SetConflictFlags sets HasConflict of the entries keyed by ID.
		SetConflictFlags(ctx context.Context, flags map[string]bool) error
	}

	Service struct {
		repo   Repository
		policy string
		mu     sync.Mutex // serializes the conflict check with the write it admits
	}
)

// NewService returns a Service applying `policy` (PolicyWarn or PolicyBlock) to conflicting writes.
func NewService(repo Repository, policy string) (*Service, error) {
	if err := vala.BeginValidation().Validate(vala.IsNotNil(repo, "repo")).Check(); err != nil {
		return nil, err
	}
	p, err := ParsePolicy(policy)
	if err != nil {
		return nil, err
	}
	return &Service{repo: repo, policy: p}, nil
}

func (svc *Service) Policy() string {
	return svc.policy
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := dayIndex(entries[i].Day), dayIndex(entries[j].Day)
		if di != dj {
			return di < dj
		}
		if entries[i].Start != entries[j].Start {
			return entries[i].Start < entries[j].Start
		}
		return entries[i].ID < entries[j].ID
	})
}

// Query returns the entries matching the filter, by day then start time.
func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	entries, err := svc.repo.QueryEntries(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying entries")
	}
	filter.Clean()
	matched := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if filter.match(e) {
			matched = append(matched, e)
		}
	}
	sortEntries(matched)
	return matched, nil
}

func (svc *Service) Stats(ctx context.Context, filter QueryFilter) (Stats, error) {
	entries, err := svc.Query(ctx, filter)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(entries), nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntry(ctx, id)
}

// Check returns the conflicts `candidate` would have with the stored entries, without writing anything.
func (svc *Service) Check(ctx context.Context, candidate Entry) ([]Conflict, error) {
	existing, err := svc.repo.QueryEntries(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying entries")
	}
	return Describe(candidate, FindConflicts(candidate, existing)), nil
}

// CheckNew is Check for a validated NewEntry, optionally replacing the entry `excludedID`.
func (svc *Service) CheckNew(ctx context.Context, ne NewEntry, excludedID string) ([]Conflict, error) {
	candidate := ne.entry()
	candidate.ID = excludedID
	return svc.Check(ctx, candidate)
}

// admit applies the conflict policy to `candidate`: under PolicyBlock a conflict aborts the write,
// under PolicyWarn the candidate is flagged.
func (svc *Service) admit(ctx context.Context, candidate *Entry) error {
	conflicts, err := svc.Check(ctx, *candidate)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 && svc.policy == PolicyBlock {
		return &ConflictError{Conflicts: conflicts}
	}
	candidate.HasConflict = len(conflicts) > 0
	return nil
}

// refreshConflicts recomputes HasConflict on every stored entry and persists the flags that changed.
func (svc *Service) refreshConflicts(ctx context.Context) error {
	entries, err := svc.repo.QueryEntries(ctx)
	if err != nil {
		return errors.Wrap(err, "querying entries")
	}
	flags := make(map[string]bool)
	for i, marked := range MarkConflicts(entries) {
		if marked.HasConflict != entries[i].HasConflict {
			flags[marked.ID] = marked.HasConflict
		}
	}
	if len(flags) == 0 {
		return nil
	}
	return errors.Wrap(svc.repo.SetConflictFlags(ctx, flags), "setting conflict flags")
}

func (svc *Service) write(ctx context.Context, e Entry, create bool) (Entry, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if err := svc.admit(ctx, &e); err != nil {
		return Entry{}, err
	}

	var saved Entry
	var err error
	if create {
		saved, err = svc.repo.CreateEntry(ctx, e)
	} else {
		saved, err = svc.repo.UpdateEntry(ctx, e)
	}
	if err != nil {
		return Entry{}, err
	}
	if err = svc.refreshConflicts(ctx); err != nil {
		return Entry{}, err
	}
	return svc.repo.GetEntry(ctx, saved.ID)
}

// Create stores a validated NewEntry under the conflict policy.
func (svc *Service) Create(ctx context.Context, ne NewEntry) (Entry, error) {
	e := ne.entry()
	now := time.Now().UTC()
	e.ID = uuid.New().String()
	e.CreatedAt = now
	e.UpdatedAt = now
	return svc.write(ctx, e, true)
}

// Update replaces an entry with a validated NewEntry under the conflict policy.
func (svc *Service) Update(ctx context.Context, id string, ne NewEntry) (Entry, error) {
	orig, err := svc.repo.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	e := ne.entry()
	e.ID = orig.ID
	e.CreatedAt = orig.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	return svc.write(ctx, e, false)
}

// Move reschedules an entry to a validated Move, keeping its duration, under the conflict policy.
func (svc *Service) Move(ctx context.Context, id string, mv Move) (Entry, error) {
	e, err := svc.repo.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	start, _ := ParseClock(mv.Start)
	end := start + Clock(e.Duration())
	if end > endOfDay {
		return Entry{}, core.NewValidationError(errPastMidnight, core.FieldError{Field: "start", Error: errPastMidnight.Error()})
	}
	e.Day = mv.Day
	e.Start = start
	e.End = end
	e.UpdatedAt = time.Now().UTC()
	return svc.write(ctx, e, false)
}

// Delete removes an entry and clears the conflict flags it caused.
func (svc *Service) Delete(ctx context.Context, id string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if err := svc.repo.DeleteEntry(ctx, id); err != nil {
		return err
	}
	return svc.refreshConflicts(ctx)
}
