package middleware

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/annix-labs/fieldflow/internal/infrastructure/auth"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
	"github.com/annix-labs/fieldflow/internal/shared/utils"
)

// ContextKeyUserID is where RequireAuth stores the authenticated rep's ID.
const ContextKeyUserID = "user_id"

type AuthMiddleware struct {
	jwtService *auth.JWTService
	logger     logger.Interface
}

func NewAuthMiddleware(jwtService *auth.JWTService, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		logger:     logger,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := m.jwtService.Verify(parts[1])
		if err != nil {
			authErr := classifyTokenError(err)
			if authErr.ShouldLog {
				m.logger.Warnw("failed to verify token", "error", err)
			}
			utils.ErrorResponse(c, authErr.Code, authErr.Message)
			c.Abort()
			return
		}

		if claims.TokenType != auth.TokenTypeAccess {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid token type")
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Next()
	}
}

// classifyTokenError keeps routine expirations out of the warn log while
// still flagging tampered or malformed tokens.
func classifyTokenError(err error) *errors.AuthError {
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		return errors.NewTokenExpiredError("access token")
	}
	return errors.NewTokenInvalidError("access token")
}

// AuthedUserID reads the authenticated rep's ID set by RequireAuth.
func AuthedUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
