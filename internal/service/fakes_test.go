package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shift-availability/internal/domain"
	"github.com/spec-kit/shift-availability/internal/repository"
)

// store is an in-memory stand-in for the database shared by the fake
// repositories. It mirrors the unique indexes of the real schema.
type store struct {
	mu          sync.Mutex
	seq         int
	tokens      []*domain.Token
	submissions []*domain.Submission
	employees   []domain.Employee
	branches    []domain.Branch
	assignments map[string][]string
	shiftTypes  []domain.ShiftType
	scheduled   domain.ScheduledShiftSummary

	// rotateErrs are returned, in order, by the next Rotate calls.
	rotateErrs []error
	replaceErr error
}

func newStore() *store {
	return &store{assignments: map[string][]string{}}
}

func (s *store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *store) activeTokens(employeeID string, week domain.Week) []*domain.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Token
	for _, t := range s.tokens {
		if t.Active && t.EmployeeID != nil && *t.EmployeeID == employeeID && t.Week == week {
			out = append(out, t)
		}
	}
	return out
}

type fakeTokenRepo struct{ s *store }

func (r fakeTokenRepo) Rotate(_ context.Context, token *domain.Token) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(r.s.rotateErrs) > 0 {
		err := r.s.rotateErrs[0]
		r.s.rotateErrs = r.s.rotateErrs[1:]
		return err
	}
	for _, t := range r.s.tokens {
		if t.Secret == token.Secret {
			return repository.ErrSecretCollision
		}
	}
	if token.EmployeeID != nil {
		for _, t := range r.s.tokens {
			if !t.Active || t.EmployeeID == nil || *t.EmployeeID != *token.EmployeeID {
				continue
			}
			if t.IsPermanent() == token.IsPermanent() && t.Week == token.Week {
				t.Active = false
			}
		}
	}
	r.s.insertLocked(token)
	return nil
}

func (s *store) insertLocked(token *domain.Token) {
	token.ID = s.nextID("tok")
	token.Active = true
	token.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cp := *token
	s.tokens = append(s.tokens, &cp)
}

func (r fakeTokenRepo) GetBySecret(_ context.Context, secret string) (*domain.Token, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.Secret == secret {
			cp := *t
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r fakeTokenRepo) Revoke(_ context.Context, businessID, tokenID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.ID == tokenID && t.BusinessID == businessID {
			t.Active = false
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r fakeTokenRepo) ReplaceForWeek(_ context.Context, businessID string, week domain.Week, tokens []*domain.Token) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.replaceErr != nil {
		err := r.s.replaceErr
		r.s.replaceErr = nil
		return 0, err
	}
	var kept []*domain.Token
	var deleted int64
	for _, t := range r.s.tokens {
		if t.BusinessID == businessID && t.Week == week && !t.IsPermanent() {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	r.s.tokens = kept
	for _, t := range tokens {
		r.s.insertLocked(t)
	}
	return deleted, nil
}

func (r fakeTokenRepo) DeleteDuplicates(_ context.Context, businessID string, week domain.Week) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var kept []*domain.Token
	var deleted int64
	for _, t := range r.s.tokens {
		if t.BusinessID == businessID && t.Week == week && !t.Active && t.EmployeeID != nil {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	r.s.tokens = kept
	return deleted, nil
}

func (r fakeTokenRepo) ListActiveByEmployees(_ context.Context, businessID string, employeeIDs []string, now time.Time) (map[string]*domain.Token, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]*domain.Token{}
	for _, t := range r.s.tokens {
		if t.BusinessID != businessID || t.EmployeeID == nil || !slices.Contains(employeeIDs, *t.EmployeeID) {
			continue
		}
		if t.StateAt(now) == domain.TokenStateUsable {
			cp := *t
			out[*t.EmployeeID] = &cp
		}
	}
	return out, nil
}

type fakeSubmissionRepo struct{ s *store }

func (r fakeSubmissionRepo) Record(_ context.Context, sub *domain.Submission, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var token *domain.Token
	for _, t := range r.s.tokens {
		if t.ID == *sub.TokenID {
			token = t
		}
	}
	if token == nil || token.StateAt(now) != domain.TokenStateUsable {
		return repository.ErrTokenUnusable
	}
	token.UsageCount++
	token.LastUsedAt = &now

	sub.Status = domain.SubmissionStatusSubmitted
	sub.SubmittedAt = now
	for i, existing := range r.s.submissions {
		if existing.TokenID != nil && *existing.TokenID == *sub.TokenID && existing.Week.Start.Equal(sub.Week.Start) {
			sub.ID = existing.ID
			cp := *sub
			r.s.submissions[i] = &cp
			return nil
		}
	}
	sub.ID = r.s.nextID("sub")
	cp := *sub
	r.s.submissions = append(r.s.submissions, &cp)
	return nil
}

func (r fakeSubmissionRepo) GetLatestForEmployee(_ context.Context, employeeID string, week domain.Week) (*domain.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *domain.Submission
	for _, sub := range r.s.submissions {
		if sub.EmployeeID != nil && *sub.EmployeeID == employeeID && sub.Week == week {
			if latest == nil || sub.SubmittedAt.After(latest.SubmittedAt) {
				latest = sub
			}
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *latest
	return &cp, nil
}

func (r fakeSubmissionRepo) GetForToken(_ context.Context, tokenID string, week domain.Week) (*domain.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sub := range r.s.submissions {
		if sub.TokenID != nil && *sub.TokenID == tokenID && sub.Week.Start.Equal(week.Start) {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r fakeSubmissionRepo) CountForWeek(_ context.Context, businessID string, week domain.Week) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[string]struct{}{}
	for _, sub := range r.s.submissions {
		if sub.BusinessID == businessID && sub.EmployeeID != nil && sub.Week == week {
			seen[*sub.EmployeeID] = struct{}{}
		}
	}
	return len(seen), nil
}

func (r fakeSubmissionRepo) ListRecentSubmitters(_ context.Context, businessID string, since time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []string
	for _, sub := range r.s.submissions {
		if sub.BusinessID == businessID && sub.EmployeeID != nil && !sub.SubmittedAt.Before(since) && !slices.Contains(ids, *sub.EmployeeID) {
			ids = append(ids, *sub.EmployeeID)
		}
	}
	return ids, nil
}

type fakeDirectoryRepo struct{ s *store }

func (r fakeDirectoryRepo) GetEmployee(_ context.Context, id string) (*domain.Employee, error) {
	for _, e := range r.s.employees {
		if e.ID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r fakeDirectoryRepo) GetBranchAssignments(_ context.Context, employeeID string) ([]string, error) {
	return r.s.assignments[employeeID], nil
}

func (r fakeDirectoryRepo) ListActiveEmployees(_ context.Context, businessID string) ([]domain.Employee, error) {
	var out []domain.Employee
	for _, e := range r.s.employees {
		if e.BusinessID == businessID && e.Schedulable() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r fakeDirectoryRepo) ListBranchAssignments(_ context.Context, businessID string) (map[string][]string, error) {
	out := map[string][]string{}
	for _, e := range r.s.employees {
		if e.BusinessID == businessID {
			out[e.ID] = r.s.assignments[e.ID]
		}
	}
	return out, nil
}

func (r fakeDirectoryRepo) ListBranches(_ context.Context, businessID string) ([]domain.Branch, error) {
	var out []domain.Branch
	for _, b := range r.s.branches {
		if b.BusinessID == businessID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r fakeDirectoryRepo) GetActiveShiftTypes(_ context.Context, businessID string) ([]domain.ShiftType, error) {
	var out []domain.ShiftType
	for _, st := range r.s.shiftTypes {
		if st.BusinessID == businessID {
			out = append(out, st)
		}
	}
	return out, nil
}

type fakeScheduledShiftRepo struct{ s *store }

func (r fakeScheduledShiftRepo) SummarizeWeek(context.Context, string, domain.Week) (domain.ScheduledShiftSummary, error) {
	return r.s.scheduled, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// sequentialSecrets returns predictable secrets, optionally repeating some
// to provoke collisions.
func sequentialSecrets(values ...string) SecretGenerator {
	var mu sync.Mutex
	i := 0
	return func(int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		i++
		if i <= len(values) {
			return values[i-1], nil
		}
		return fmt.Sprintf("secret-%d", i), nil
	}
}
