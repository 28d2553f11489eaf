package repository

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func TestDirectoryRepository_GetActiveShiftTypes(t *testing.T) {
	mock := newPool(t)
	defer mock.Close()
	repo := NewDirectoryRepository(mock)

	branch := "branch-x"
	mock.ExpectQuery(`FROM shift_types WHERE business_id = \$1 AND is_active`).
		WithArgs("biz-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "business_id", "name", "branch_id", "required_role", "start_time", "end_time", "week_days", "is_special"}).
			AddRow("st-1", "biz-1", "Morning", &branch, nil, "08:00", "16:00", []int32{0, 1, 9}, false).
			AddRow("st-2", "biz-1", "Gala", nil, nil, "18:00", "23:30", []int32{5}, true))

	shifts, err := repo.GetActiveShiftTypes(context.Background(), "biz-1")
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	require.Equal(t, []time.Weekday{time.Sunday, time.Monday}, shifts[0].Weekdays)
	require.Equal(t, "branch-x", *shifts[0].BranchID)
	require.Nil(t, shifts[1].BranchID)
	require.True(t, shifts[1].IsSpecial)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryRepository_GetActiveShiftTypes_BadClock(t *testing.T) {
	mock := newPool(t)
	defer mock.Close()
	repo := NewDirectoryRepository(mock)

	mock.ExpectQuery(`FROM shift_types`).
		WithArgs("biz-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "business_id", "name", "branch_id", "required_role", "start_time", "end_time", "week_days", "is_special"}).
			AddRow("st-1", "biz-1", "Broken", nil, nil, "8am", "16:00", []int32{1}, false))

	_, err := repo.GetActiveShiftTypes(context.Background(), "biz-1")
	require.Error(t, err)
}

func TestDirectoryRepository_ListBranchAssignments(t *testing.T) {
	mock := newPool(t)
	defer mock.Close()
	repo := NewDirectoryRepository(mock)

	mock.ExpectQuery(`FROM employee_branch_assignments a JOIN employees e`).
		WithArgs("biz-1").
		WillReturnRows(pgxmock.NewRows([]string{"employee_id", "branch_id"}).
			AddRow("emp-1", "branch-x").
			AddRow("emp-1", "branch-y").
			AddRow("emp-2", "branch-x"))

	assignments, err := repo.ListBranchAssignments(context.Background(), "biz-1")
	require.NoError(t, err)
	require.Equal(t, []string{"branch-x", "branch-y"}, assignments["emp-1"])
	require.Equal(t, []string{"branch-x"}, assignments["emp-2"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryRepository_GetEmployee(t *testing.T) {
	mock := newPool(t)
	defer mock.Close()
	repo := NewDirectoryRepository(mock)

	mock.ExpectQuery(`FROM employees WHERE id = \$1`).
		WithArgs("emp-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "business_id", "first_name", "last_name", "phone", "employee_type", "is_active", "is_archived"}).
			AddRow("emp-1", "biz-1", "Dana", "Levi", "+972500000000", "cook", true, false))

	e, err := repo.GetEmployee(context.Background(), "emp-1")
	require.NoError(t, err)
	require.Equal(t, "Dana Levi", e.FullName())
	require.True(t, e.Schedulable())
}

func TestScheduledShiftRepository_SummarizeWeek(t *testing.T) {
	mock := newPool(t)
	defer mock.Close()
	repo := NewScheduledShiftRepository(mock)

	week := testWeek(t)
	approvedAt := time.Date(2024, 1, 6, 18, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM scheduled_shifts WHERE business_id = \$1 AND shift_date BETWEEN \$2 AND \$3`).
		WithArgs("biz-1", week.Start, week.End).
		WillReturnRows(pgxmock.NewRows([]string{"count", "approved", "max"}).AddRow(10, 4, &approvedAt))

	summary, err := repo.SummarizeWeek(context.Background(), "biz-1", week)
	require.NoError(t, err)
	require.Equal(t, 10, summary.Total)
	require.Equal(t, 4, summary.Approved)
	require.Equal(t, approvedAt, *summary.LastApprovedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
