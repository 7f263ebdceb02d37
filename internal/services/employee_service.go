package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lead-workflow/internal/logger"
	"lead-workflow/internal/metrics"
	"lead-workflow/internal/models"
	"lead-workflow/internal/repository"
	"lead-workflow/internal/utils"
)

const minPasswordLength = 6

type EmployeeService interface {
	CreateEmployee(ctx context.Context, emp *models.Employee, password string) error
	ListEmployees(ctx context.Context, department string, role string) ([]models.Employee, error)
	ForwardCandidates(ctx context.Context, department string) ([]models.ForwardCandidate, error)
	RefreshForwardCandidates(ctx context.Context, dept models.Department) error
	Authenticate(ctx context.Context, empID, password string) (*models.Employee, error)
	EnsureAdmin(ctx context.Context, empID, phone, password string) error
}

type employeeService struct {
	repo     repository.EmployeeRepository
	cache    *utils.RedisClient
	metrics  *metrics.Metrics
	log      logger.Logger
	cacheTTL time.Duration
}

func NewEmployeeService(repo repository.EmployeeRepository, cache *utils.RedisClient, m *metrics.Metrics,
	log logger.Logger, cacheTTL time.Duration) EmployeeService {
	return &employeeService{
		repo:     repo,
		cache:    cache,
		metrics:  m,
		log:      log.With("component", "employees"),
		cacheTTL: cacheTTL,
	}
}

// CreateEmployee fills the department from the id prefix when it is missing
// and generates an id from a Redis sequence when none is given.
func (s *employeeService) CreateEmployee(ctx context.Context, emp *models.Employee, password string) error {
	emp.EmpID = strings.TrimSpace(emp.EmpID)
	if emp.Department == "" && emp.EmpID != "" {
		if guessed, ok := models.DepartmentFromManagerID(emp.EmpID); ok {
			emp.Department = guessed
		}
	} else if emp.Department != "" {
		dept, err := models.ParseDepartment(string(emp.Department))
		if err != nil {
			return err
		}
		emp.Department = dept
	}
	if emp.Type == "" {
		emp.Type = models.RoleEmployee
	}
	if err := emp.Validate(); err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password length must be greater than or equal to %d", models.ErrValidation, minPasswordLength)
	}

	if emp.EmpID == "" {
		seq, err := s.cache.Incr(ctx, employeeSeqPrefix+emp.Department.Prefix()+"-"+string(emp.Type))
		if err != nil {
			return fmt.Errorf("failed to allocate employee id: %w", err)
		}
		emp.EmpID = models.GenerateEmpID(emp.Department, emp.Type, seq)
	}

	if err := emp.HashPassword(password); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.Create(ctx, emp); err != nil {
		return err
	}

	invalidate(ctx, s.cache, s.log, forwardCandidatesCache)
	s.log.Info("employee created", "empId", emp.EmpID, "department", emp.Department, "type", emp.Type)
	return nil
}

func (s *employeeService) ListEmployees(ctx context.Context, department string, role string) ([]models.Employee, error) {
	var filter repository.EmployeeFilter
	if department != "" {
		dept, err := models.ParseDepartment(department)
		if err != nil {
			return nil, err
		}
		filter.Department = dept
	}
	if role != "" {
		r := models.Role(role)
		if !r.IsValid() {
			return nil, fmt.Errorf("%w: unknown type %q", models.ErrValidation, role)
		}
		filter.Types = []models.Role{r}
	}
	return s.repo.List(ctx, filter)
}

func (s *employeeService) ForwardCandidates(ctx context.Context, department string) ([]models.ForwardCandidate, error) {
	var dept models.Department
	if department != "" {
		var err error
		if dept, err = models.ParseDepartment(department); err != nil {
			return nil, err
		}
	}

	key := forwardCandidatesKey(string(dept))
	return readThrough(ctx, s.cache, s.metrics, s.log, forwardCandidatesCache, key, s.cacheTTL, func() ([]models.ForwardCandidate, error) {
		return s.loadForwardCandidates(ctx, dept)
	})
}

func (s *employeeService) loadForwardCandidates(ctx context.Context, dept models.Department) ([]models.ForwardCandidate, error) {
	employees, err := s.repo.List(ctx, repository.EmployeeFilter{
		Department: dept,
		Types:      []models.Role{models.RoleManager, models.RoleEmployee},
	})
	if err != nil {
		return nil, err
	}
	candidates := make([]models.ForwardCandidate, 0, len(employees))
	for i := range employees {
		candidates = append(candidates, employees[i].ForwardCandidate())
	}
	return candidates, nil
}

// RefreshForwardCandidates rewrites the cached list for dept; an empty dept
// is the cross-department list.
func (s *employeeService) RefreshForwardCandidates(ctx context.Context, dept models.Department) error {
	candidates, err := s.loadForwardCandidates(ctx, dept)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, forwardCandidatesKey(string(dept)), candidates, s.cacheTTL)
}

func (s *employeeService) Authenticate(ctx context.Context, empID, password string) (*models.Employee, error) {
	emp, err := s.repo.GetByEmpID(ctx, strings.TrimSpace(empID))
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if err := emp.CheckPassword(password); err != nil {
		return nil, models.ErrUnauthorized
	}
	return emp, nil
}

// EnsureAdmin creates the first admin account when it does not exist yet.
func (s *employeeService) EnsureAdmin(ctx context.Context, empID, phone, password string) error {
	_, err := s.repo.GetByEmpID(ctx, empID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return err
	}

	dept, ok := models.DepartmentFromManagerID(empID)
	if !ok {
		dept = models.DepartmentCustomerService
	}
	admin := &models.Employee{
		EmpID:      empID,
		Name:       "Administrator",
		Phone:      phone,
		Department: dept,
		Type:       models.RoleAdmin,
	}
	return s.CreateEmployee(ctx, admin, password)
}
