package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lead-workflow/internal/logger"
	"lead-workflow/internal/metrics"
	"lead-workflow/internal/models"
	"lead-workflow/internal/repository"
	"lead-workflow/internal/utils"
)

const systemActor = "system"

type ForwardService interface {
	// Forward applies target to every lead in input order. Unknown ids are
	// skipped. Every lead is attempted; any failure is reported as one error.
	Forward(ctx context.Context, leadIDs []string, target models.ForwardTarget, actor *models.AssignedEmployee) error
}

type forwardService struct {
	leads     repository.LeadRepository
	cache     *utils.RedisClient
	publisher utils.EventPublisher
	notifier  utils.Notifier
	metrics   *metrics.Metrics
	log       logger.Logger
	now       func() time.Time
}

func NewForwardService(leads repository.LeadRepository, cache *utils.RedisClient, publisher utils.EventPublisher,
	notifier utils.Notifier, m *metrics.Metrics, log logger.Logger) ForwardService {
	return &forwardService{
		leads:     leads,
		cache:     cache,
		publisher: publisher,
		notifier:  notifier,
		metrics:   m,
		log:       log.With("component", "forward"),
		now:       time.Now,
	}
}

func (s *forwardService) Forward(ctx context.Context, leadIDs []string, target models.ForwardTarget, actor *models.AssignedEmployee) error {
	var failed int
	var forwarded int
	for _, id := range leadIDs {
		ok, err := s.forwardOne(ctx, id, target, actor)
		if err != nil {
			failed++
			s.log.Error("failed to forward lead", "lead", id, "target", target.String(), "error", err)
			continue
		}
		if ok {
			forwarded++
		}
	}

	if forwarded > 0 {
		invalidate(ctx, s.cache, s.log, leadsQueryCache)
	}
	if failed > 0 {
		return fmt.Errorf("failed to forward %d of %d leads", failed, len(leadIDs))
	}
	return nil
}

// forwardOne reports false without error when the lead does not exist.
func (s *forwardService) forwardOne(ctx context.Context, id string, target models.ForwardTarget, actor *models.AssignedEmployee) (bool, error) {
	lead, err := s.leads.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidID) {
		s.log.Debug("skipping unknown lead", "lead", id)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	update := buildForwardUpdate(lead, target, actor, s.now())
	if err := s.leads.ApplyForward(ctx, lead.ID, update); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// deleted between read and write
			return false, nil
		}
		return false, err
	}

	s.metrics.LeadForwarded(target.Kind.String())
	s.afterForward(ctx, lead, target, update)
	return true, nil
}

func buildForwardUpdate(lead *models.Lead, target models.ForwardTarget, actor *models.AssignedEmployee, now time.Time) repository.ForwardUpdate {
	var update repository.ForwardUpdate
	var comment string

	if target.IsUnassign() {
		comment = "Unassigned lead"
	} else {
		update.Assignee = &models.AssignedEmployee{EmployeeID: target.ID, EmployeeName: target.ID}
		comment = "Forwarded to " + update.Assignee.EmployeeName
	}

	if target.Status != nil {
		update.Status = target.Status
		comment += " (" + *target.Status + ")"
	}

	by := resolveActor(actor, update.Assignee)
	update.Log = models.LogEntry{
		EmployeeID:   by.EmployeeID,
		EmployeeName: by.EmployeeName,
		Timestamp:    now,
		Comment:      comment,
	}
	return update
}

// resolveActor prefers the caller, then the new assignee, then "system".
// A caller that sent only one of id and name has it used for both.
func resolveActor(actor, assignee *models.AssignedEmployee) models.AssignedEmployee {
	if actor != nil && (actor.EmployeeID != "" || actor.EmployeeName != "") {
		resolved := *actor
		if resolved.EmployeeID == "" {
			resolved.EmployeeID = resolved.EmployeeName
		}
		if resolved.EmployeeName == "" {
			resolved.EmployeeName = resolved.EmployeeID
		}
		return resolved
	}
	if assignee != nil {
		return *assignee
	}
	return models.AssignedEmployee{EmployeeID: systemActor, EmployeeName: systemActor}
}

func (s *forwardService) afterForward(ctx context.Context, lead *models.Lead, target models.ForwardTarget, update repository.ForwardUpdate) {
	status := lead.CurrentStatus
	if update.Status != nil {
		status = *update.Status
	}
	event := utils.LeadEvent{
		Type:      utils.EventLeadForwarded,
		LeadID:    lead.LeadID,
		StorageID: models.CanonicalID(lead.ID),
		Status:    status,
		ActorID:   update.Log.EmployeeID,
		Comment:   update.Log.Comment,
	}
	if update.Assignee != nil {
		event.AssigneeID = update.Assignee.EmployeeID
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish forward event", "lead", lead.LeadID, "error", err)
	}

	if update.Assignee == nil || s.notifier == nil {
		return
	}
	notification := utils.NotificationRequest{
		UserID:       update.Assignee.EmployeeID,
		Role:         target.Kind.String(),
		Title:        "Lead forwarded to you",
		Message:      fmt.Sprintf("%s was forwarded to you by %s", lead.LeadID, update.Log.EmployeeName),
		Type:         "lead_forwarded",
		DeliveryType: "push",
		Metadata:     map[string]string{"leadId": lead.LeadID, "status": status},
	}
	// own timeout: the request context ends with the handler
	go func() {
		innerCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.notifier.Notify(innerCtx, notification); err != nil {
			s.log.Warn("failed to notify assignee", "lead", notification.Metadata["leadId"], "assignee", notification.UserID, "error", err)
		}
	}()
}
