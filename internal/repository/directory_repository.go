package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/shift-availability/internal/domain"
)

// DirectoryRepository reads employees, branches and shift definitions owned
// by the employee management system. It never writes.
type DirectoryRepository interface {
	GetEmployee(ctx context.Context, id string) (*domain.Employee, error)
	GetBranchAssignments(ctx context.Context, employeeID string) ([]string, error)
	ListActiveEmployees(ctx context.Context, businessID string) ([]domain.Employee, error)
	// ListBranchAssignments maps employee id to active branch ids for a business.
	ListBranchAssignments(ctx context.Context, businessID string) (map[string][]string, error)
	ListBranches(ctx context.Context, businessID string) ([]domain.Branch, error)
	GetActiveShiftTypes(ctx context.Context, businessID string) ([]domain.ShiftType, error)
}

const employeeColumns = `id, business_id, first_name, last_name, phone, employee_type, is_active, is_archived`

type directoryRepository struct {
	pool Pool
}

// NewDirectoryRepository constructs the repository.
func NewDirectoryRepository(pool Pool) DirectoryRepository {
	return &directoryRepository{pool: pool}
}

func (r *directoryRepository) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	var e domain.Employee
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.BusinessID, &e.FirstName, &e.LastName, &e.Phone, &e.EmployeeType, &e.IsActive, &e.IsArchived,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *directoryRepository) GetBranchAssignments(ctx context.Context, employeeID string) ([]string, error) {
	const query = `
        SELECT branch_id FROM employee_branch_assignments
        WHERE employee_id = $1 AND is_active
        ORDER BY branch_id`
	rows, err := r.pool.Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *directoryRepository) ListActiveEmployees(ctx context.Context, businessID string) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees
        WHERE business_id = $1 AND is_active AND NOT is_archived
        ORDER BY last_name, first_name`
	rows, err := r.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []domain.Employee
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.BusinessID, &e.FirstName, &e.LastName, &e.Phone, &e.EmployeeType, &e.IsActive, &e.IsArchived); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *directoryRepository) ListBranchAssignments(ctx context.Context, businessID string) (map[string][]string, error) {
	const query = `
        SELECT a.employee_id, a.branch_id
        FROM employee_branch_assignments a
        JOIN employees e ON e.id = a.employee_id
        WHERE e.business_id = $1 AND a.is_active
        ORDER BY a.employee_id, a.branch_id`
	rows, err := r.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make(map[string][]string)
	for rows.Next() {
		var employeeID, branchID string
		if err := rows.Scan(&employeeID, &branchID); err != nil {
			return nil, err
		}
		assignments[employeeID] = append(assignments[employeeID], branchID)
	}
	return assignments, rows.Err()
}

func (r *directoryRepository) ListBranches(ctx context.Context, businessID string) ([]domain.Branch, error) {
	const query = `
        SELECT id, business_id, name, is_active FROM branches
        WHERE business_id = $1
        ORDER BY name`
	rows, err := r.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []domain.Branch
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(&b.ID, &b.BusinessID, &b.Name, &b.IsActive); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func (r *directoryRepository) GetActiveShiftTypes(ctx context.Context, businessID string) ([]domain.ShiftType, error) {
	const query = `
        SELECT id, business_id, name, branch_id, required_role, start_time, end_time, week_days, is_special
        FROM shift_types
        WHERE business_id = $1 AND is_active
        ORDER BY start_time, name`
	rows, err := r.pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []domain.ShiftType
	for rows.Next() {
		var (
			s          domain.ShiftType
			start, end string
			days       []int32
		)
		if err := rows.Scan(&s.ID, &s.BusinessID, &s.Name, &s.BranchID, &s.RequiredRole, &start, &end, &days, &s.IsSpecial); err != nil {
			return nil, err
		}
		if s.StartTime, err = domain.ParseClock(start); err != nil {
			return nil, fmt.Errorf("shift type %s start: %w", s.ID, err)
		}
		if s.EndTime, err = domain.ParseClock(end); err != nil {
			return nil, fmt.Errorf("shift type %s end: %w", s.ID, err)
		}
		for _, d := range days {
			if d >= 0 && d <= 6 {
				s.Weekdays = append(s.Weekdays, time.Weekday(d))
			}
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}
