package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"lead-workflow/internal/models"
	"lead-workflow/internal/services"
	"lead-workflow/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type forwardCall struct {
	ids    []string
	target models.ForwardTarget
	actor  *models.AssignedEmployee
}

type fakeForwarder struct {
	calls []forwardCall
	err   error
}

func (f *fakeForwarder) Forward(_ context.Context, ids []string, target models.ForwardTarget, actor *models.AssignedEmployee) error {
	f.calls = append(f.calls, forwardCall{ids: ids, target: target, actor: actor})
	return f.err
}

type fakeLeadService struct {
	lead       *models.Lead
	leads      []models.Lead
	logs       []models.AuditEntry
	clients    []models.Client
	err        error
	lastQuery  [3]string
	lastCreate services.CreateLeadInput
	lastRecord models.SubRecord
	deleted    []string
}

func (f *fakeLeadService) CreateLead(_ context.Context, input services.CreateLeadInput, actor *utils.Session) (*models.Lead, error) {
	f.lastCreate = input
	if f.err != nil {
		return nil, f.err
	}
	return &models.Lead{LeadID: "LEAD-1", CurrentStatus: input.Flow.Label(), Logs: []models.LogEntry{{EmployeeID: actor.EmployeeID, Comment: "Lead created"}}}, nil
}

func (f *fakeLeadService) GetLead(context.Context, string) (*models.Lead, error) {
	return f.lead, f.err
}

func (f *fakeLeadService) LeadsForEmployee(_ context.Context, employeeID, department string, inQueue bool) ([]models.Lead, error) {
	q := "false"
	if inQueue {
		q = "true"
	}
	f.lastQuery = [3]string{employeeID, department, q}
	return f.leads, f.err
}

func (f *fakeLeadService) UpdateDepartment(_ context.Context, _ string, _ models.Department, rec models.SubRecord, _ *utils.Session) (*models.Lead, error) {
	f.lastRecord = rec
	return f.lead, f.err
}

func (f *fakeLeadService) DeleteLead(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeLeadService) AuditLog(context.Context, string) ([]models.AuditEntry, error) {
	return f.logs, f.err
}

func (f *fakeLeadService) Clients(context.Context) ([]models.Client, error) {
	return f.clients, f.err
}

type fakeEmployeeService struct {
	employee   *models.Employee
	candidates []models.ForwardCandidate
	err        error
	created    *models.Employee
}

func (f *fakeEmployeeService) CreateEmployee(_ context.Context, emp *models.Employee, _ string) error {
	if f.err != nil {
		return f.err
	}
	emp.EmpID = "SA-EMP-0001"
	f.created = emp
	return nil
}

func (f *fakeEmployeeService) ListEmployees(context.Context, string, string) ([]models.Employee, error) {
	if f.employee == nil {
		return []models.Employee{}, f.err
	}
	return []models.Employee{*f.employee}, f.err
}

func (f *fakeEmployeeService) ForwardCandidates(context.Context, string) ([]models.ForwardCandidate, error) {
	return f.candidates, f.err
}

func (f *fakeEmployeeService) RefreshForwardCandidates(context.Context, models.Department) error {
	return f.err
}

func (f *fakeEmployeeService) Authenticate(_ context.Context, empID, password string) (*models.Employee, error) {
	if f.employee == nil || f.employee.EmpID != empID || password != "secret123" {
		return nil, models.ErrUnauthorized
	}
	return f.employee, nil
}

func (f *fakeEmployeeService) EnsureAdmin(context.Context, string, string, string) error {
	return f.err
}

// failingStore fails every Put whose key contains "bad".
type failingStore struct{}

func (failingStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if strings.Contains(key, "bad") {
		return "", errors.New("bucket offline")
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return "http://media.test/lead-files/" + key, nil
}

func (failingStore) DeleteByURL(context.Context, string) error { return nil }

// withSession stands in for AuthMiddleware.
func withSession(s *utils.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.SetSession(c, s)
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	return w, decoded
}
