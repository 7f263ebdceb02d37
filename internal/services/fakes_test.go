package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"lead-workflow/internal/models"
	"lead-workflow/internal/repository"
	"lead-workflow/internal/utils"
)

// fakeLeadRepo keeps leads in memory and evaluates the real filter builders
// against them.
type fakeLeadRepo struct {
	mu         sync.Mutex
	leads      map[primitive.ObjectID]*models.Lead
	failOn     map[string]error // keyed by leadId, returned by ApplyForward
	getErr     error
	forwards   []string
	lastFilter bson.M
}

func newFakeLeadRepo(leads ...*models.Lead) *fakeLeadRepo {
	r := &fakeLeadRepo{leads: map[primitive.ObjectID]*models.Lead{}, failOn: map[string]error{}}
	for _, l := range leads {
		if l.ID.IsZero() {
			l.ID = primitive.NewObjectID()
		}
		if l.Logs == nil {
			l.Logs = []models.LogEntry{}
		}
		r.leads[l.ID] = l
	}
	return r
}

func (r *fakeLeadRepo) Create(_ context.Context, lead *models.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.LeadID == lead.LeadID {
			return models.ErrDuplicate
		}
	}
	lead.ID = primitive.NewObjectID()
	lead.CreatedAt = time.Now()
	lead.UpdatedAt = lead.CreatedAt
	r.leads[lead.ID] = lead
	return nil
}

func (r *fakeLeadRepo) GetByID(_ context.Context, id string) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	if models.IDCandidates(id) == nil {
		return nil, models.ErrInvalidID
	}
	filter := repository.LeadLookupFilter(id)
	for _, l := range r.leads {
		if matches(l, filter) {
			copied := *l
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeLeadRepo) Find(_ context.Context, filter bson.M) ([]models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	out := make([]models.Lead, 0)
	for _, l := range r.leads {
		if matches(l, filter) {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeLeadRepo) ApplyForward(_ context.Context, id primitive.ObjectID, update repository.ForwardUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[id]
	if !ok {
		return models.ErrNotFound
	}
	if err := r.failOn[lead.LeadID]; err != nil {
		return err
	}
	lead.CurrentAssignedEmployee = update.Assignee
	if update.Status != nil {
		lead.CurrentStatus = *update.Status
	}
	lead.Logs = append(lead.Logs, update.Log)
	lead.UpdatedAt = time.Now()
	r.forwards = append(r.forwards, lead.LeadID)
	return nil
}

func (r *fakeLeadRepo) UpdateDepartment(_ context.Context, id primitive.ObjectID, dept models.Department, rec models.SubRecord, entry models.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[id]
	if !ok {
		return models.ErrNotFound
	}
	var logs []models.LogEntry
	if existing := lead.SubRecord(dept); existing != nil {
		logs = existing.Envelope().Logs
	}
	rec.Envelope().Logs = append(append([]models.LogEntry{}, logs...), entry)
	return lead.SetSubRecord(dept, rec)
}

func (r *fakeLeadRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.leads, id)
	return nil
}

func (r *fakeLeadRepo) Clients(context.Context) ([]models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byMarka := map[string]*models.Client{}
	for _, l := range r.leads {
		if l.CustomerService == nil || l.CustomerService.Marka == "" {
			continue
		}
		c, ok := byMarka[l.CustomerService.Marka]
		if !ok {
			c = &models.Client{Marka: l.CustomerService.Marka, CustomerName: l.CustomerService.CustomerName, City: l.CustomerService.City}
			byMarka[c.Marka] = c
		}
		c.LeadCount++
		if l.CreatedAt.After(c.LastLeadAt) {
			c.LastLeadAt = l.CreatedAt
		}
	}
	out := make([]models.Client, 0, len(byMarka))
	for _, c := range byMarka {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeLeadRepo) EnsureIndexes(context.Context) error { return nil }

func (r *fakeLeadRepo) stored(id primitive.ObjectID) *models.Lead {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leads[id]
}

// matches evaluates the subset of the query language the filter builders emit.
func matches(lead *models.Lead, filter bson.M) bool {
	for key, cond := range filter {
		if key == "$or" {
			matched := false
			for _, sub := range cond.([]bson.M) {
				if matches(lead, sub) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
			continue
		}

		value, ok := fieldValue(lead, key)
		if !ok {
			return false
		}
		switch c := cond.(type) {
		case bson.M:
			in, _ := c["$in"].([]interface{})
			found := false
			for _, candidate := range in {
				if candidate == value {
					found = true
				}
			}
			if !found {
				return false
			}
		case primitive.Regex:
			s, _ := value.(string)
			if !regexp.MustCompile("(?" + c.Options + ")" + c.Pattern).MatchString(s) {
				return false
			}
		default:
			if cond != value {
				return false
			}
		}
	}
	return true
}

func fieldValue(lead *models.Lead, path string) (interface{}, bool) {
	switch path {
	case "_id":
		return lead.ID, true
	case "leadId":
		return lead.LeadID, true
	case "currentStatus":
		return lead.CurrentStatus, true
	case "currentAssignedEmployee.employeeId":
		if lead.CurrentAssignedEmployee == nil {
			return nil, false
		}
		return lead.CurrentAssignedEmployee.EmployeeID, true
	case "currentAssignedEmployee.employeeName":
		if lead.CurrentAssignedEmployee == nil {
			return nil, false
		}
		return lead.CurrentAssignedEmployee.EmployeeName, true
	}
	if dept, ok := strings.CutSuffix(path, ".employeeId"); ok {
		rec := lead.SubRecord(models.Department(dept))
		if rec == nil || rec.Envelope().EmployeeID == "" {
			return nil, false
		}
		return rec.Envelope().EmployeeID, true
	}
	panic(fmt.Sprintf("fieldValue: unsupported path %q", path))
}

type fakeEmployeeRepo struct {
	mu        sync.Mutex
	employees map[string]*models.Employee
}

func newFakeEmployeeRepo(emps ...*models.Employee) *fakeEmployeeRepo {
	r := &fakeEmployeeRepo{employees: map[string]*models.Employee{}}
	for _, e := range emps {
		r.employees[e.EmpID] = e
	}
	return r
}

func (r *fakeEmployeeRepo) Create(_ context.Context, emp *models.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.employees {
		if e.EmpID == emp.EmpID || e.Phone == emp.Phone {
			return fmt.Errorf("%w: E11000", models.ErrDuplicate)
		}
	}
	emp.ID = primitive.NewObjectID()
	copied := *emp
	r.employees[emp.EmpID] = &copied
	return nil
}

func (r *fakeEmployeeRepo) GetByEmpID(_ context.Context, empID string) (*models.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.employees[empID]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, models.ErrNotFound
}

func (r *fakeEmployeeRepo) List(_ context.Context, filter repository.EmployeeFilter) ([]models.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Employee, 0)
	for _, e := range r.employees {
		if filter.Department != "" && e.Department != filter.Department {
			continue
		}
		if len(filter.Types) > 0 {
			ok := false
			for _, t := range filter.Types {
				ok = ok || e.Type == t
			}
			if !ok {
				continue
			}
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmpID < out[j].EmpID })
	return out, nil
}

func (r *fakeEmployeeRepo) EnsureIndexes(context.Context) error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []utils.LeadEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e utils.LeadEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type chanNotifier struct {
	sent chan utils.NotificationRequest
}

func newChanNotifier() *chanNotifier {
	return &chanNotifier{sent: make(chan utils.NotificationRequest, 16)}
}

func (n *chanNotifier) Notify(_ context.Context, req utils.NotificationRequest) error {
	n.sent <- req
	return nil
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	failPut map[string]bool // by key suffix
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, failPut: map[string]bool{}}
}

func (s *memoryStore) Put(_ context.Context, key string, reader io.Reader, _ int64, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for suffix := range s.failPut {
		if strings.HasSuffix(key, suffix) {
			return "", errors.New("bucket unavailable")
		}
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.objects[key] = data
	return "http://media.test/lead-files/" + key, nil
}

func (s *memoryStore) DeleteByURL(_ context.Context, fileURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, fileURL)
	key := strings.TrimPrefix(fileURL, "http://media.test/lead-files/")
	if _, ok := s.objects[key]; !ok {
		return ErrForeignURL
	}
	delete(s.objects, key)
	return nil
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *utils.RedisClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, utils.WrapRedisClient(client)
}
