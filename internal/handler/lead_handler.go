package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"lead-workflow/internal/logger"
	"lead-workflow/internal/models"
	"lead-workflow/internal/services"
)

const leadNotFound = "Lead not found"

type LeadHandler struct {
	leads     services.LeadService
	forwarder services.ForwardService
	employees services.EmployeeService
	log       logger.Logger
}

func NewLeadHandler(leads services.LeadService, forwarder services.ForwardService,
	employees services.EmployeeService, log logger.Logger) *LeadHandler {
	return &LeadHandler{leads: leads, forwarder: forwarder, employees: employees, log: log.With("component", "lead_handler")}
}

type createLeadRequest struct {
	Flow            string                         `json:"flow"`
	ManagerID       string                         `json:"managerId"`
	CustomerService *models.CustomerServiceDetails `json:"customerService"`
	Sourcing        *models.SourcingDetails        `json:"sourcing"`
}

func (h *LeadHandler) CreateLead(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	input := services.CreateLeadInput{
		ManagerID:       strings.TrimSpace(req.ManagerID),
		CustomerService: req.CustomerService,
		Sourcing:        req.Sourcing,
	}
	if req.Flow != "" {
		flow, err := models.ParseDepartment(req.Flow)
		if err != nil {
			respondMessage(c, http.StatusBadRequest, false, err.Error())
			return
		}
		input.Flow = flow
	}

	lead, err := h.leads.CreateLead(c.Request.Context(), input, session)
	if err != nil {
		respondError(c, h.log, err, leadNotFound, "Failed to create lead")
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"message": "Lead created successfully", "lead": lead})
}

func (h *LeadHandler) GetLead(c *gin.Context) {
	lead, err := h.leads.GetLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, leadNotFound, "Failed to fetch lead")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"lead": lead})
}

// GetEmployeeLeads serves GET /api/leads/get?employeeId=&department=&inQueue=
func (h *LeadHandler) GetEmployeeLeads(c *gin.Context) {
	employeeID := c.Query("employeeId")
	if strings.TrimSpace(employeeID) == "" {
		respondMessage(c, http.StatusBadRequest, false, "employeeId is required")
		return
	}
	inQueue, _ := strconv.ParseBool(c.DefaultQuery("inQueue", "false"))

	leads, err := h.leads.LeadsForEmployee(c.Request.Context(), employeeID, c.Query("department"), inQueue)
	if err != nil {
		respondError(c, h.log, err, leadNotFound, "Failed to fetch leads")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"count": len(leads), "leads": leads})
}

func (h *LeadHandler) GetLeadLogs(c *gin.Context) {
	logs, err := h.leads.AuditLog(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, leadNotFound, "Failed to fetch lead logs")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"count": len(logs), "logs": logs})
}

// UpdateDepartment replaces one department section of a lead. The body is
// decoded straight into that department's record type.
func (h *LeadHandler) UpdateDepartment(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	dept, err := models.ParseDepartment(c.Param("department"))
	if err != nil {
		respondMessage(c, http.StatusBadRequest, false, err.Error())
		return
	}
	rec := models.NewSubRecord(dept)
	if err := c.ShouldBindJSON(rec); err != nil {
		respondMessage(c, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	lead, err := h.leads.UpdateDepartment(c.Request.Context(), c.Param("id"), dept, rec, session)
	if err != nil {
		respondError(c, h.log, err, leadNotFound, "Failed to update lead")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": dept.Label() + " details updated", "lead": lead})
}

func (h *LeadHandler) DeleteLead(c *gin.Context) {
	if err := h.leads.DeleteLead(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err, leadNotFound, "Failed to delete lead")
		return
	}
	respondMessage(c, http.StatusOK, true, "Lead deleted successfully")
}

func (h *LeadHandler) GetClients(c *gin.Context) {
	clients, err := h.leads.Clients(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, leadNotFound, "Failed to fetch clients")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"count": len(clients), "clients": clients})
}

func (h *LeadHandler) GetForwardCandidates(c *gin.Context) {
	candidates, err := h.employees.ForwardCandidates(c.Request.Context(), c.Query("department"))
	if err != nil {
		respondError(c, h.log, err, "Department not found", "Failed to fetch forward candidates")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"count": len(candidates), "candidates": candidates})
}

type forwardRequest struct {
	LeadIDs []string                 `json:"leadIds" binding:"required,min=1"`
	Target  string                   `json:"target" binding:"required"`
	Actor   *models.AssignedEmployee `json:"actor"`
}

// ForwardLeads reassigns a batch of leads. The target is parsed before any
// lead is read; storage failures are reported without per-lead detail.
func (h *LeadHandler) ForwardLeads(c *gin.Context) {
	var req forwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, false, "leadIds and target are required")
		return
	}
	target, err := models.ParseForwardTarget(req.Target)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, false, "Invalid target")
		return
	}

	if err := h.forwarder.Forward(c.Request.Context(), req.LeadIDs, target, req.Actor); err != nil {
		h.log.Error("forward failed", "target", req.Target, "leads", len(req.LeadIDs), "error", err)
		respondMessage(c, http.StatusInternalServerError, false, "Failed to forward leads")
		return
	}
	respondMessage(c, http.StatusOK, true, "Leads forwarded successfully")
}
