package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/shift-availability/internal/config"
	"github.com/spec-kit/shift-availability/internal/domain"
	"github.com/spec-kit/shift-availability/internal/events"
	"github.com/spec-kit/shift-availability/internal/messaging"
	"github.com/spec-kit/shift-availability/internal/observability"
)

const (
	bizID      = "0b6f1c52-5d0a-4c1e-9a3e-000000000001"
	otherBizID = "0b6f1c52-5d0a-4c1e-9a3e-000000000002"
	emp1       = "5e0d2a8c-1111-4b7e-8c4d-000000000011"
	emp2       = "5e0d2a8c-1111-4b7e-8c4d-000000000012"
	emp3       = "5e0d2a8c-1111-4b7e-8c4d-000000000013"
	outsider   = "5e0d2a8c-1111-4b7e-8c4d-000000000099"
	branchX    = "9c3a7e10-2222-4f00-b000-0000000000aa"
	branchY    = "9c3a7e10-2222-4f00-b000-0000000000bb"
)

type sentMessage struct {
	phone, message string
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []sentMessage
	reject map[string]string
	fail   map[string]error
}

func (f *fakeSender) Send(_ context.Context, phone, message string) (messaging.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[phone]; err != nil {
		return messaging.Result{}, err
	}
	if reason, ok := f.reject[phone]; ok {
		return messaging.Result{OK: false, Error: reason}, nil
	}
	f.sent = append(f.sent, sentMessage{phone: phone, message: message})
	return messaging.Result{OK: true}, nil
}

type harness struct {
	store       *store
	clock       *fakeClock
	week        domain.Week
	dispatcher  events.Dispatcher
	sender      *fakeSender
	tokens      *TokenService
	eligibility *EligibilityService
	submissions *SubmissionService
	status      *StatusService
	reminders   *ReminderService
}

func strPtr(s string) *string { return &s }

func allWeekdays() []time.Weekday {
	return []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}
}

// newHarness seeds business B1 with three employees. emp1 works only at
// branch X, emp2 at X and Y, emp3 has no assignments.
func newHarness(t *testing.T) *harness {
	t.Helper()
	week, err := domain.ParseWeek("2025-01-20", "2025-01-26")
	require.NoError(t, err)

	st := newStore()
	st.employees = []domain.Employee{
		{ID: emp1, BusinessID: bizID, FirstName: "Ada", LastName: "Stone", Phone: "+15550011", EmployeeType: "cook", IsActive: true},
		{ID: emp2, BusinessID: bizID, FirstName: "Ben", LastName: "Cole", Phone: "+15550012", EmployeeType: "waiter", IsActive: true},
		{ID: emp3, BusinessID: bizID, FirstName: "Cy", LastName: "Park", Phone: "", EmployeeType: "cook", IsActive: true},
		{ID: outsider, BusinessID: otherBizID, FirstName: "Out", Phone: "+15550099", IsActive: true},
	}
	st.branches = []domain.Branch{
		{ID: branchX, BusinessID: bizID, Name: "Downtown", IsActive: true},
		{ID: branchY, BusinessID: bizID, Name: "Harbor", IsActive: true},
	}
	st.assignments[emp1] = []string{branchX}
	st.assignments[emp2] = []string{branchX, branchY}
	st.shiftTypes = []domain.ShiftType{
		{ID: "st-x-morning", BusinessID: bizID, Name: "X morning", BranchID: strPtr(branchX), StartTime: 8 * 60, EndTime: 16 * 60, Weekdays: allWeekdays()},
		{ID: "st-y-morning", BusinessID: bizID, Name: "Y morning", BranchID: strPtr(branchY), StartTime: 8 * 60, EndTime: 16 * 60, Weekdays: allWeekdays()},
		{ID: "st-x-kitchen", BusinessID: bizID, Name: "X kitchen", BranchID: strPtr(branchX), RequiredRole: strPtr("cook"), StartTime: 10 * 60, EndTime: 18 * 60, Weekdays: []time.Weekday{time.Tuesday}},
	}

	clock := &fakeClock{now: time.Date(2025, 1, 17, 10, 0, 0, 0, time.UTC)}
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	logger := zap.NewNop()
	tokenCfg := config.TokenConfig{SecretBytes: 32, MaxSecretAttempts: 3, WeekStartDay: time.Monday}
	sender := &fakeSender{reject: map[string]string{}, fail: map[string]error{}}

	tokenRepo := fakeTokenRepo{s: st}
	subRepo := fakeSubmissionRepo{s: st}
	dirRepo := fakeDirectoryRepo{s: st}

	h := &harness{store: st, clock: clock, week: week, dispatcher: dispatcher, sender: sender}
	h.tokens = NewTokenService(TokenDependencies{
		TokenRepo: tokenRepo, DirectoryRepo: dirRepo, Dispatcher: dispatcher, Metrics: metrics,
		Logger: logger, Config: tokenCfg, Now: clock.Now,
	})
	h.eligibility = NewEligibilityService(EligibilityDependencies{
		TokenRepo: tokenRepo, SubmissionRepo: subRepo, DirectoryRepo: dirRepo,
		Logger: logger, Config: tokenCfg, Now: clock.Now,
	})
	h.submissions = NewSubmissionService(SubmissionDependencies{
		TokenRepo: tokenRepo, SubmissionRepo: subRepo, DirectoryRepo: dirRepo, Dispatcher: dispatcher,
		Metrics: metrics, Logger: logger, TokenConfig: tokenCfg,
		Config: config.SubmissionConfig{MaxPreferences: 10, MaxNotesLength: 50}, Now: clock.Now,
	})
	h.status = NewStatusService(StatusDependencies{
		ScheduledShiftRepo: fakeScheduledShiftRepo{s: st}, SubmissionRepo: subRepo, Metrics: metrics, Logger: logger,
	})
	h.reminders = NewReminderService(ReminderDependencies{
		DirectoryRepo: dirRepo, SubmissionRepo: subRepo, TokenRepo: tokenRepo, Sender: sender,
		Dispatcher: dispatcher, Metrics: metrics, Logger: logger, Now: clock.Now,
		Config: config.ReminderConfig{
			WindowDays:      7,
			PublicBaseURL:   "https://shifts.example.com/a",
			MessageTemplate: "Hi {name}, submit here: {link}",
		},
	})
	return h
}

// issueFor issues a weekly token for one employee and returns its secret.
func (h *harness) issueFor(t *testing.T, employeeID string) *domain.Token {
	t.Helper()
	res, err := h.tokens.Issue(context.Background(), bizID, h.week, []string{employeeID})
	require.NoError(t, err)
	require.Len(t, res.Issued, 1)
	return res.Issued[0]
}

// recordEvents collects every published event of the given types.
func recordEvents(h *harness, types ...events.EventType) *[]events.Event {
	var recorded []events.Event
	for _, eventType := range types {
		h.dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			recorded = append(recorded, e)
			return nil
		})
	}
	return &recorded
}
