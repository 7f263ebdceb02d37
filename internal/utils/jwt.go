package utils

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"lead-workflow/internal/models"
)

const sessionKey = "session"

// Session is the authenticated actor of a request.
type Session struct {
	EmployeeID string    `json:"employeeId"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	TokenID    string    `json:"-"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

func (s *Session) Actor() models.AssignedEmployee {
	return models.AssignedEmployee{EmployeeID: s.EmployeeID, EmployeeName: s.Name}
}

type JWTUtil struct {
	secret string
	ttl    time.Duration
}

func NewJWTUtil(secret string, ttl time.Duration) *JWTUtil {
	return &JWTUtil{secret: secret, ttl: ttl}
}

func (j *JWTUtil) GenerateToken(emp *models.Employee) (string, time.Time, error) {
	now := time.Now()
	expirationTime := now.Add(j.ttl)
	claims := jwt.MapClaims{
		"employee_id": emp.EmpID,
		"name":        emp.Name,
		"role":        string(emp.Type),
		"department":  string(emp.Department),
		"exp":         expirationTime.Unix(),
		"iat":         now.Unix(),
		"jti":         uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secret))
	return signed, expirationTime, err
}

func (j *JWTUtil) ValidateToken(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, models.ErrUnauthorized
		}
		return []byte(j.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, models.ErrUnauthorized
	}

	session := &Session{
		EmployeeID: claimString(claims, "employee_id"),
		Name:       claimString(claims, "name"),
		Role:       claimString(claims, "role"),
		Department: claimString(claims, "department"),
		TokenID:    claimString(claims, "jti"),
	}
	if exp, ok := claims["exp"].(float64); ok {
		session.ExpiresAt = time.Unix(int64(exp), 0)
	}
	if session.EmployeeID == "" {
		return nil, models.ErrUnauthorized
	}
	return session, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}

func blacklistKey(tokenID string) string {
	return fmt.Sprintf("blacklist:%s", tokenID)
}

// Blacklist revokes the session's token until it would have expired anyway.
func (j *JWTUtil) Blacklist(ctx context.Context, session *Session, redis *RedisClient) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return redis.Set(ctx, blacklistKey(session.TokenID), true, ttl)
}

func (j *JWTUtil) IsTokenBlacklisted(ctx context.Context, session *Session, redis *RedisClient) bool {
	return redis.Exists(ctx, blacklistKey(session.TokenID))
}

// TokenFromRequest reads the auth cookie, falling back to a Bearer header.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func AuthMiddleware(jwtUtil *JWTUtil, redis *RedisClient, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Missing token"})
			return
		}

		session, err := jwtUtil.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
			return
		}
		if jwtUtil.IsTokenBlacklisted(c.Request.Context(), session, redis) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Token revoked"})
			return
		}

		c.Set(sessionKey, session)
		c.Set("employeeId", session.EmployeeID)
		c.Set("role", session.Role)
		c.Next()
	}
}

// RequireRoles lets the request through only for the listed roles.
func RequireRoles(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Role not found"})
			return
		}
		for _, allowed := range allowedRoles {
			if session.Role == string(allowed) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied"})
	}
}

func SessionFrom(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*Session)
	return session, ok && session != nil
}

// SetSession is used by tests and internal callers that authenticate
// outside AuthMiddleware.
func SetSession(c *gin.Context, session *Session) {
	c.Set(sessionKey, session)
}
