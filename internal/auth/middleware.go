package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/veritix/veritix-api/internal/logger"
)

// Context keys set by the middleware for downstream handlers.
const (
	UserIDKey = "userID"
	RolesKey  = "roles"
)

// RoleOperator gates the reconciliation and administrative endpoints.
const RoleOperator = "operator"

// Claims is the token shape issued by the identity provider.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// Client validates bearer tokens against the identity provider's JWKS.
type Client struct {
	jwksURL  string
	issuer   string
	audience string
	jwks     *keyfunc.JWKS
}

// NewClient fetches the JWKS and keeps it refreshed in the background. A
// fetch failure is reported but not fatal; requests will be rejected until
// the key set loads.
func NewClient(jwksURL, issuer, audience string) *Client {
	client := &Client{
		jwksURL:  jwksURL,
		issuer:   issuer,
		audience: audience,
	}

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:  time.Hour,
		RefreshRateLimit: time.Minute,
		RefreshTimeout:   10 * time.Second,
		RefreshErrorHandler: func(err error) {
			logger.Log.Error("JWKS refresh error", zap.Error(err))
		},
	})
	if err != nil {
		logger.Log.Error("Failed to initialize JWKS", zap.String("jwks_url", jwksURL), zap.Error(err))
	} else {
		client.jwks = jwks
		logger.Log.Info("JWKS initialized", zap.String("jwks_url", jwksURL), zap.String("issuer", issuer))
	}
	return client
}

// EnsureValidToken rejects requests without a verifiable bearer token and
// sets the authenticated subject on the gin context.
func (ac *Client) EnsureValidToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authentication provided"})
			c.Abort()
			return
		}

		claims, err := ac.validateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			logger.Log.Debug("Token validation failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(RolesKey, claims.Roles)
		c.Next()
	}
}

// RequireRole rejects authenticated requests whose token lacks the role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, _ := c.Get(RolesKey)
		if list, ok := roles.([]string); ok {
			for _, r := range list {
				if r == role {
					c.Next()
					return
				}
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("%s role required", role)})
		c.Abort()
	}
}

func (ac *Client) validateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	if ac.jwks == nil {
		return nil, fmt.Errorf("JWKS not initialized")
	}

	options := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(time.Minute),
	}
	if ac.issuer != "" {
		options = append(options, jwt.WithIssuer(ac.issuer))
	}
	if ac.audience != "" {
		options = append(options, jwt.WithAudience(ac.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, ac.jwks.Keyfunc, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}
