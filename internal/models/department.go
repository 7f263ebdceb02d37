package models

import (
	"fmt"
	"strings"
)

type Department string

const (
	DepartmentCustomerService Department = "customerService"
	DepartmentSourcing        Department = "sourcing"
	DepartmentShipping        Department = "shipping"
	DepartmentSales           Department = "sales"
)

// AllDepartments is ordered the way a lead travels.
var AllDepartments = []Department{
	DepartmentCustomerService,
	DepartmentSourcing,
	DepartmentShipping,
	DepartmentSales,
}

const GeneralLogLabel = "General"

// Label is the human name also used as a currentStatus value.
func (d Department) Label() string {
	switch d {
	case DepartmentCustomerService:
		return "Customer Service"
	case DepartmentSourcing:
		return "Sourcing"
	case DepartmentShipping:
		return "Shipping"
	case DepartmentSales:
		return "Sales"
	}
	return string(d)
}

// Field is the bson key of the department's sub-record on a lead.
func (d Department) Field() string {
	return string(d)
}

// Prefix is the two letter code that starts manager and employee ids.
func (d Department) Prefix() string {
	switch d {
	case DepartmentCustomerService:
		return "CS"
	case DepartmentSourcing:
		return "SO"
	case DepartmentShipping:
		return "SH"
	case DepartmentSales:
		return "SA"
	}
	return ""
}

func (d Department) IsValid() bool {
	switch d {
	case DepartmentCustomerService, DepartmentSourcing, DepartmentShipping, DepartmentSales:
		return true
	}
	return false
}

// ParseDepartment accepts the bson key, the label or the id prefix in any
// casing, with spaces, dashes and underscores ignored.
func ParseDepartment(raw string) (Department, error) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.TrimSpace(raw)))
	switch key {
	case "customerservice", "cs":
		return DepartmentCustomerService, nil
	case "sourcing", "so":
		return DepartmentSourcing, nil
	case "shipping", "sh":
		return DepartmentShipping, nil
	case "sales", "sa":
		return DepartmentSales, nil
	}
	return "", fmt.Errorf("%w: unknown department %q", ErrValidation, raw)
}

// DepartmentFromManagerID guesses the department from the first two
// characters of a structured employee code such as "SO-MGR-3".
func DepartmentFromManagerID(id string) (Department, bool) {
	id = strings.TrimSpace(id)
	if len(id) < 2 {
		return "", false
	}
	switch strings.ToUpper(id[:2]) {
	case "CS":
		return DepartmentCustomerService, true
	case "SO":
		return DepartmentSourcing, true
	case "SH":
		return DepartmentShipping, true
	case "SA":
		return DepartmentSales, true
	}
	return "", false
}
