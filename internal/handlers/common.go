package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/veritix/veritix-api/internal/auth"
	"github.com/veritix/veritix-api/internal/db"
	"github.com/veritix/veritix-api/internal/logger"
	"github.com/veritix/veritix-api/internal/schemas"
	"github.com/veritix/veritix-api/internal/services"
)

// CommonServices holds the dependencies shared across handlers.
type CommonServices struct {
	db        db.Querier
	schemas   *schemas.Registry
	requests  *services.RequestService
	admission *services.AdmissionService
	relayer   *services.RelayerService
	activity  *services.ActivityService
}

// NewCommonServices creates a new instance of CommonServices.
func NewCommonServices(
	queries db.Querier,
	registry *schemas.Registry,
	requests *services.RequestService,
	admission *services.AdmissionService,
	relayer *services.RelayerService,
	activity *services.ActivityService,
) *CommonServices {
	return &CommonServices{
		db:        queries,
		schemas:   registry,
		requests:  requests,
		admission: admission,
		relayer:   relayer,
		activity:  activity,
	}
}

// ErrorResponse represents a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standard success response.
type SuccessResponse struct {
	Message string `json:"message"`
}

// sendError logs the error and sends a JSON error response.
func sendError(c *gin.Context, statusCode int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, ErrorResponse{Error: message})
}

// handleDBError maps database errors onto HTTP status codes.
func handleDBError(c *gin.Context, err error, notFoundMsg string) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		sendError(c, http.StatusNotFound, notFoundMsg, err)
	default:
		sendError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

func sendList(c *gin.Context, items interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   items,
	})
}

// authenticatedUser returns the subject set by the auth middleware.
func authenticatedUser(c *gin.Context) (string, bool) {
	userID := c.GetString(auth.UserIDKey)
	if userID == "" {
		sendError(c, http.StatusUnauthorized, "No authenticated user", nil)
		return "", false
	}
	return userID, true
}
