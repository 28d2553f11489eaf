package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shift-availability/internal/domain"
	apperrors "github.com/spec-kit/shift-availability/pkg/util/errorutil"
)

func TestSubmit_ResubmitOverwrites(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.issueFor(t, emp1)

	first, err := h.submissions.Submit(ctx, token.Secret, SubmissionInput{
		Preferences: []PreferenceInput{{Date: "2025-01-21", StartTime: "08:00", EndTime: "16:00", BranchPreference: branchX}},
		Notes:       "mornings only",
	})
	require.NoError(t, err)
	require.Empty(t, first.Warnings)

	second, err := h.submissions.Submit(ctx, token.Secret, SubmissionInput{})
	require.NoError(t, err)
	require.Equal(t, first.Submission.ID, second.Submission.ID)

	require.Len(t, h.store.submissions, 1)
	stored := h.store.submissions[0]
	require.Empty(t, stored.Preferences)
	require.Empty(t, stored.Notes)
	require.Equal(t, domain.SubmissionStatusSubmitted, stored.Status)

	usage := h.store.activeTokens(emp1, h.week)[0]
	require.Equal(t, 2, usage.UsageCount)
	require.NotNil(t, usage.LastUsedAt)
}

func TestSubmit_ValidationCollectsEveryField(t *testing.T) {
	h := newHarness(t)
	token := h.issueFor(t, emp1)

	_, err := h.submissions.Submit(context.Background(), token.Secret, SubmissionInput{
		Preferences: []PreferenceInput{
			{Date: "2025-01-27", StartTime: "08:00", EndTime: "16:00"},
			{Date: "2025-01-22", StartTime: "16:00", EndTime: "08:00"},
			{Date: "yesterday", StartTime: "8am", EndTime: "16:00"},
			{Date: "2025-01-23", StartTime: "08:00", EndTime: "16:00", CrossMidnight: true},
		},
		OptionalMorningAvailability: []bool{true},
	})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	details := apperrors.ToDomainError(err).Details
	require.Contains(t, details, "preferences[0].date")
	require.Contains(t, details, "preferences[1].end_time")
	require.Contains(t, details, "preferences[2].date")
	require.Contains(t, details, "preferences[2].start_time")
	require.Contains(t, details, "preferences[3].end_time")
	require.Contains(t, details, "optional_morning_availability")

	require.Empty(t, h.store.submissions)
	require.Zero(t, h.store.activeTokens(emp1, h.week)[0].UsageCount)
}

func TestSubmit_LimitsPayload(t *testing.T) {
	h := newHarness(t)
	token := h.issueFor(t, emp1)

	prefs := make([]PreferenceInput, 11)
	for i := range prefs {
		prefs[i] = PreferenceInput{Date: "2025-01-21", StartTime: "08:00", EndTime: "09:00"}
	}
	_, err := h.submissions.Submit(context.Background(), token.Secret, SubmissionInput{
		Preferences: prefs,
		Notes:       "this note is intentionally far longer than fifty characters allow",
	})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	details := apperrors.ToDomainError(err).Details
	require.Contains(t, details, "preferences")
	require.Contains(t, details, "notes")
}

func TestSubmit_CrossMidnightAccepted(t *testing.T) {
	h := newHarness(t)
	token := h.issueFor(t, emp1)

	res, err := h.submissions.Submit(context.Background(), token.Secret, SubmissionInput{
		Preferences: []PreferenceInput{{Date: "2025-01-26", StartTime: "22:00", EndTime: "06:00", CrossMidnight: true}},
	})
	require.NoError(t, err)
	require.True(t, res.Submission.Preferences[0].CrossMidnight)
}

func TestSubmit_UnknownValuesAreWarningsNotErrors(t *testing.T) {
	h := newHarness(t)
	token := h.issueFor(t, emp1)

	res, err := h.submissions.Submit(context.Background(), token.Secret, SubmissionInput{
		Preferences: []PreferenceInput{
			{Date: "2025-01-21", StartTime: "08:00", EndTime: "16:00", BranchPreference: "downtown", RolePreference: strPtr("Cook")},
			{Date: "2025-01-22", StartTime: "08:00", EndTime: "16:00", BranchPreference: "Moon base", RolePreference: strPtr("astronaut"), ShiftTypeID: strPtr("st-gone")},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 3)
	for _, w := range res.Warnings {
		require.Equal(t, 1, w.Index)
	}
	require.Len(t, h.store.submissions, 1)
	require.Equal(t, "Moon base", h.store.submissions[0].Preferences[1].BranchPreference)
}

// revokeBeforeRecord revokes the token after the service has resolved it
// and just before the submission write, like an admin acting mid-request.
type revokeBeforeRecord struct {
	fakeSubmissionRepo
	records int
}

func (r *revokeBeforeRecord) Record(ctx context.Context, sub *domain.Submission, now time.Time) error {
	r.records++
	if err := (fakeTokenRepo{s: r.s}).Revoke(ctx, sub.BusinessID, *sub.TokenID); err != nil {
		return err
	}
	return r.fakeSubmissionRepo.Record(ctx, sub, now)
}

func TestSubmit_TokenRevokedBeforeWrite(t *testing.T) {
	h := newHarness(t)
	token := h.issueFor(t, emp1)
	repo := &revokeBeforeRecord{fakeSubmissionRepo: fakeSubmissionRepo{s: h.store}}
	h.submissions.submissions = repo

	_, err := h.submissions.Submit(context.Background(), token.Secret, SubmissionInput{
		Preferences: []PreferenceInput{{Date: "2025-01-21", StartTime: "08:00", EndTime: "16:00"}},
	})
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)
	require.Equal(t, "revoked or expired during submission", apperrors.ToDomainError(err).Details["reason"])
	require.Equal(t, 1, repo.records)
	require.Empty(t, h.store.submissions)
	require.Empty(t, h.store.activeTokens(emp1, h.week))
}
