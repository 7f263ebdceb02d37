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
	"lead-workflow/internal/utils/validator"
)

const createRetries = 3

// CreateLeadInput is a new inquiry. Flow picks the department that opens the
// lead; customer service is the default.
type CreateLeadInput struct {
	Flow            models.Department
	CustomerService *models.CustomerServiceDetails
	Sourcing        *models.SourcingDetails
	ManagerID       string
}

type LeadService interface {
	CreateLead(ctx context.Context, input CreateLeadInput, actor *utils.Session) (*models.Lead, error)
	GetLead(ctx context.Context, id string) (*models.Lead, error)
	LeadsForEmployee(ctx context.Context, employeeID, department string, inQueue bool) ([]models.Lead, error)
	UpdateDepartment(ctx context.Context, id string, dept models.Department, rec models.SubRecord, actor *utils.Session) (*models.Lead, error)
	DeleteLead(ctx context.Context, id string) error
	AuditLog(ctx context.Context, id string) ([]models.AuditEntry, error)
	Clients(ctx context.Context) ([]models.Client, error)
}

type leadService struct {
	leads     repository.LeadRepository
	media     *MediaService
	cache     *utils.RedisClient
	publisher utils.EventPublisher
	metrics   *metrics.Metrics
	log       logger.Logger
	cacheTTL  time.Duration
	now       func() time.Time
}

func NewLeadService(leads repository.LeadRepository, media *MediaService, cache *utils.RedisClient,
	publisher utils.EventPublisher, m *metrics.Metrics, log logger.Logger, cacheTTL time.Duration) LeadService {
	return &leadService{
		leads:     leads,
		media:     media,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		log:       log.With("component", "leads"),
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

func (s *leadService) CreateLead(ctx context.Context, input CreateLeadInput, actor *utils.Session) (*models.Lead, error) {
	flow := input.Flow
	if flow == "" {
		flow = models.DepartmentCustomerService
	}

	now := s.now()
	lead := &models.Lead{
		CurrentStatus: flow.Label(),
		Logs: []models.LogEntry{{
			EmployeeID:   actor.EmployeeID,
			EmployeeName: actor.Name,
			Timestamp:    now,
			Comment:      "Lead created",
		}},
	}

	var rec models.SubRecord
	switch flow {
	case models.DepartmentCustomerService:
		if input.CustomerService == nil {
			return nil, fmt.Errorf("%w: customerService details are required", models.ErrValidation)
		}
		input.CustomerService.Marka = models.Marka(input.CustomerService.CustomerName, input.CustomerService.City)
		rec = input.CustomerService
	case models.DepartmentSourcing:
		if input.Sourcing == nil {
			return nil, fmt.Errorf("%w: sourcing details are required", models.ErrValidation)
		}
		rec = input.Sourcing
	default:
		return nil, fmt.Errorf("%w: leads can only be opened by customer service or sourcing", models.ErrValidation)
	}

	if err := validateSubRecord(rec); err != nil {
		return nil, err
	}
	env := rec.Envelope()
	env.EmployeeID = actor.EmployeeID
	env.ManagerID = input.ManagerID
	if env.ManagerID == "" && actor.Role == string(models.RoleManager) {
		env.ManagerID = actor.EmployeeID
	}
	env.Logs = []models.LogEntry{}
	normalizeLists(rec)
	if err := lead.SetSubRecord(flow, rec); err != nil {
		return nil, err
	}

	var err error
	for attempt := 0; attempt < createRetries; attempt++ {
		lead.LeadID = models.NewLeadID(now.Add(time.Duration(attempt) * time.Millisecond))
		err = s.leads.Create(ctx, lead)
		if !errors.Is(err, models.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.metrics.LeadCreated()
	invalidate(ctx, s.cache, s.log, leadsQueryCache, clientsCache)
	s.publish(ctx, utils.EventLeadCreated, lead, actor.EmployeeID)
	s.log.Info("lead created", "lead", lead.LeadID, "flow", flow, "by", actor.EmployeeID)
	return lead, nil
}

func (s *leadService) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	return s.leads.GetByID(ctx, id)
}

func (s *leadService) LeadsForEmployee(ctx context.Context, employeeID, department string, inQueue bool) ([]models.Lead, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, fmt.Errorf("%w: employeeId is required", models.ErrValidation)
	}

	var dept models.Department
	if strings.TrimSpace(department) != "" {
		var err error
		if dept, err = models.ParseDepartment(department); err != nil {
			return nil, err
		}
	}

	key := leadsQueryKey(employeeID, string(dept), inQueue)
	return readThrough(ctx, s.cache, s.metrics, s.log, leadsQueryCache, key, s.cacheTTL, func() ([]models.Lead, error) {
		return s.leads.Find(ctx, repository.EmployeeLeadsFilter(repository.LeadQuery{
			EmployeeID: employeeID,
			Department: dept,
			InQueue:    inQueue,
		}))
	})
}

func (s *leadService) UpdateDepartment(ctx context.Context, id string, dept models.Department, rec models.SubRecord, actor *utils.Session) (*models.Lead, error) {
	if err := validateSubRecord(rec); err != nil {
		return nil, err
	}
	if err := (&models.Lead{}).SetSubRecord(dept, rec); err != nil {
		return nil, err
	}

	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	env := rec.Envelope()
	if env.EmployeeID == "" {
		env.EmployeeID = actor.EmployeeID
	}
	if env.ManagerID == "" {
		if existing := lead.SubRecord(dept); existing != nil {
			env.ManagerID = existing.Envelope().ManagerID
		}
		if env.ManagerID == "" && actor.Role == string(models.RoleManager) {
			env.ManagerID = actor.EmployeeID
		}
	}
	normalizeLists(rec)
	if cs, ok := rec.(*models.CustomerServiceDetails); ok {
		cs.Marka = models.Marka(cs.CustomerName, cs.City)
	}

	entry := models.LogEntry{
		EmployeeID:   actor.EmployeeID,
		EmployeeName: actor.Name,
		Timestamp:    s.now(),
		Comment:      dept.Label() + " details updated",
	}
	if err := s.leads.UpdateDepartment(ctx, lead.ID, dept, rec, entry); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", dept, err)
	}

	invalidate(ctx, s.cache, s.log, leadsQueryCache, clientsCache)
	s.publish(ctx, utils.EventLeadUpdated, lead, actor.EmployeeID)
	return s.leads.GetByID(ctx, models.CanonicalID(lead.ID))
}

// DeleteLead removes the document first and then, best effort, every file
// it referenced.
func (s *leadService) DeleteLead(ctx context.Context, id string) error {
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.leads.Delete(ctx, lead.ID); err != nil {
		return err
	}

	for _, url := range lead.FileURLs() {
		if err := s.media.DeleteByURL(ctx, url); err != nil {
			s.log.Warn("failed to delete lead file", "lead", lead.LeadID, "url", url, "error", err)
		}
	}

	s.metrics.LeadDeleted()
	invalidate(ctx, s.cache, s.log, leadsQueryCache, clientsCache)
	s.publish(ctx, utils.EventLeadDeleted, lead, "")
	return nil
}

func (s *leadService) AuditLog(ctx context.Context, id string) ([]models.AuditEntry, error) {
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return AggregateLogs(lead), nil
}

func (s *leadService) Clients(ctx context.Context) ([]models.Client, error) {
	return readThrough(ctx, s.cache, s.metrics, s.log, clientsCache, clientsCache, s.cacheTTL, func() ([]models.Client, error) {
		return s.leads.Clients(ctx)
	})
}

func (s *leadService) publish(ctx context.Context, eventType string, lead *models.Lead, actorID string) {
	event := utils.LeadEvent{
		Type:      eventType,
		LeadID:    lead.LeadID,
		StorageID: models.CanonicalID(lead.ID),
		Status:    lead.CurrentStatus,
		ActorID:   actorID,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish lead event", "type", eventType, "lead", lead.LeadID, "error", err)
	}
}

func validateSubRecord(rec models.SubRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: details are required", models.ErrValidation)
	}
	if err := validator.GetValidator().Struct(rec); err != nil {
		return fmt.Errorf("%w: %s", models.ErrValidation, strings.Join(validator.ParseErrors(err), " // "))
	}
	return nil
}

// normalizeLists stores submitted file and product lists as given, with nil
// written as an empty list so a submit always replaces what was stored.
func normalizeLists(rec models.SubRecord) {
	switch r := rec.(type) {
	case *models.CustomerServiceDetails:
		r.Products = emptyIfNil(r.Products)
		r.UploadFiles = emptyIfNil(r.UploadFiles)
	case *models.SourcingDetails:
		r.Products = emptyIfNil(r.Products)
		r.UploadDocuments = emptyIfNil(r.UploadDocuments)
	case *models.ShippingDetails:
		r.UploadDocuments = emptyIfNil(r.UploadDocuments)
	case *models.SalesDetails:
		r.UploadDocuments = emptyIfNil(r.UploadDocuments)
	}
	rec.Envelope().Logs = emptyIfNil(rec.Envelope().Logs)
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
