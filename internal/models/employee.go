package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"lead-workflow/internal/utils/validator"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

func (r Role) code() string {
	switch r {
	case RoleAdmin:
		return "ADM"
	case RoleManager:
		return "MGR"
	}
	return "EMP"
}

type Employee struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	EmpID      string             `bson:"empId" json:"empId"`
	Name       string             `bson:"name" json:"name" validate:"required"`
	Phone      string             `bson:"phone" json:"phone" validate:"required,min=7"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Department Department         `bson:"department" json:"department" validate:"required"`
	Type       Role               `bson:"type" json:"type" validate:"required,oneof=admin manager employee"`
	ManagerID  string             `bson:"managerId,omitempty" json:"managerId,omitempty"`
	Password   string             `bson:"password" json:"-"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (e Employee) Validate() error {
	err := validator.GetValidator().Struct(e)
	if err != nil {
		errs := validator.ParseErrors(err)
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errs, " // "))
	}
	if !e.Department.IsValid() {
		return fmt.Errorf("%w: unknown department %q", ErrValidation, e.Department)
	}
	return nil
}

func (e *Employee) HashPassword(plain string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	e.Password = string(hashed)
	return nil
}

func (e *Employee) CheckPassword(plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(e.Password), []byte(plain))
}

// Assignee is how the employee appears on currentAssignedEmployee.
func (e *Employee) Assignee() AssignedEmployee {
	return AssignedEmployee{EmployeeID: e.EmpID, EmployeeName: e.Name}
}

// GenerateEmpID builds codes like "SO-MGR-0007".
func GenerateEmpID(d Department, r Role, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", d.Prefix(), r.code(), seq)
}

// ForwardCandidate is an employee a lead can be forwarded to, with the
// target string the forward endpoint expects.
type ForwardCandidate struct {
	EmpID      string     `json:"empId"`
	Name       string     `json:"name"`
	Department Department `json:"department"`
	Type       Role       `json:"type"`
	Target     string     `json:"target"`
}

func (e *Employee) ForwardCandidate() ForwardCandidate {
	kind := TargetEmployee
	if e.Type == RoleManager || e.Type == RoleAdmin {
		kind = TargetManager
	}
	status := e.Department.Label()
	return ForwardCandidate{
		EmpID:      e.EmpID,
		Name:       e.Name,
		Department: e.Department,
		Type:       e.Type,
		Target:     ForwardTarget{Kind: kind, ID: e.EmpID, Status: &status}.String(),
	}
}
