package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lead-workflow/internal/logger"
	"lead-workflow/internal/models"
	"lead-workflow/internal/services"
)

type EmployeeHandler struct {
	employees services.EmployeeService
	log       logger.Logger
}

func NewEmployeeHandler(employees services.EmployeeService, log logger.Logger) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, log: log.With("component", "employee_handler")}
}

type createEmployeeRequest struct {
	EmpID      string `json:"empId"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Type       string `json:"type"`
	ManagerID  string `json:"managerId"`
	Password   string `json:"password" binding:"required"`
}

func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	emp := &models.Employee{
		EmpID:      req.EmpID,
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Department: models.Department(req.Department),
		Type:       models.Role(req.Type),
		ManagerID:  req.ManagerID,
	}
	if err := h.employees.CreateEmployee(c.Request.Context(), emp, req.Password); err != nil {
		respondError(c, h.log, err, "Employee not found", "Failed to create employee")
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"message": "Employee created successfully", "employee": emp})
}

func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	employees, err := h.employees.ListEmployees(c.Request.Context(), c.Query("department"), c.Query("type"))
	if err != nil {
		respondError(c, h.log, err, "Employee not found", "Failed to fetch employees")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"count": len(employees), "employees": employees})
}
