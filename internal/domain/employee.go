package domain

import "strings"

// Employee is a directory record owned by the employee management system.
type Employee struct {
	ID           string
	BusinessID   string
	FirstName    string
	LastName     string
	Phone        string
	EmployeeType string
	IsActive     bool
	IsArchived   bool
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Schedulable reports whether the employee takes part in weekly scheduling.
func (e Employee) Schedulable() bool {
	return e.IsActive && !e.IsArchived
}

// Branch is a physical location of a business.
type Branch struct {
	ID         string
	BusinessID string
	Name       string
	IsActive   bool
}
