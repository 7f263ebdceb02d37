package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lead-workflow/internal/logger"
	"lead-workflow/internal/services"
	"lead-workflow/internal/utils"
)

type AuthHandler struct {
	employees    services.EmployeeService
	jwt          *utils.JWTUtil
	redis        *utils.RedisClient
	cookieName   string
	cookieSecure bool
	log          logger.Logger
}

func NewAuthHandler(employees services.EmployeeService, jwtUtil *utils.JWTUtil, redis *utils.RedisClient,
	cookieName string, cookieSecure bool, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		employees:    employees,
		jwt:          jwtUtil,
		redis:        redis,
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
		log:          log.With("component", "auth_handler"),
	}
}

type loginRequest struct {
	EmpID    string `json:"empId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, false, "empId and password are required")
		return
	}

	emp, err := h.employees.Authenticate(c.Request.Context(), req.EmpID, req.Password)
	if err != nil {
		respondError(c, h.log, err, "Invalid credentials", "Login failed")
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(emp)
	if err != nil {
		h.log.Error("failed to sign token", "empId", emp.EmpID, "error", err)
		respondMessage(c, http.StatusInternalServerError, false, "Login failed")
		return
	}

	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, maxAge, "/", "", h.cookieSecure, true)
	respondOK(c, http.StatusOK, gin.H{"message": "Login successful", "token": token, "employee": emp})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	if err := h.jwt.Blacklist(c.Request.Context(), session, h.redis); err != nil {
		h.log.Error("failed to blacklist token", "employeeId", session.EmployeeID, "error", err)
		respondMessage(c, http.StatusInternalServerError, false, "Logout failed")
		return
	}
	c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
	respondMessage(c, http.StatusOK, true, "Logged out")
}

func (h *AuthHandler) Me(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, gin.H{"session": session})
}
