package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AgentIDKey is the context key for the authenticated agent.
const AgentIDKey = "agent_id"

var errMissingToken = errors.New("missing bearer token")

// Auth resolves the agent identity from an HS256 bearer token whose subject
// is the agent UUID and which carries an exp claim. Requests without a valid
// token are rejected with 401 before reaching any handler. Tokens are issued
// elsewhere.
func Auth(secret []byte) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(c *gin.Context) {
		agentID, err := agentFromRequest(parser, secret, c.GetHeader("Authorization"))
		if err != nil {
			if log := GetLogger(c); log != nil {
				log.Warn("Rejected unauthenticated request", map[string]interface{}{
					"path":   c.Request.URL.Path,
					"reason": err.Error(),
				})
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":       "UNAUTHORIZED",
					"message":    "A valid bearer token is required",
					"request_id": GetRequestID(c),
				},
			})
			return
		}

		c.Set(AgentIDKey, agentID)
		if log := GetLogger(c); log != nil {
			c.Set(loggerKey, log.WithAgent(agentID.String()))
		}

		c.Next()
	}
}

func agentFromRequest(parser *jwt.Parser, secret []byte, header string) (uuid.UUID, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return uuid.Nil, errMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}

	agentID, err := uuid.Parse(claims.Subject)
	if err != nil || agentID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	return agentID, nil
}

// GetAgentID retrieves the authenticated agent from the Gin context.
func GetAgentID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(AgentIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

// SignAgentToken issues a token accepted by Auth. Used by tests and local
// tooling; production tokens come from the identity provider.
func SignAgentToken(secret []byte, agentID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   agentID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
