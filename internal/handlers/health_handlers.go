package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

type HealthResponse struct {
	Status string `json:"status"`
}

// Health godoc
// @Summary      Health check
// @Description  Checks if the server is running
// @Tags         health
// @Accept       json
// @Produce      json
// @Success      200  {object}  HealthResponse   "Returns health status"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}

// SchemaHandler lists the registered attestation schemas.
type SchemaHandler struct {
	common *CommonServices
}

func NewSchemaHandler(common *CommonServices) *SchemaHandler {
	return &SchemaHandler{common: common}
}

// SchemaResponse is the API shape of a registered schema.
type SchemaResponse struct {
	UID          string `json:"uid"`
	Name         string `json:"name"`
	Layout       string `json:"layout"`
	Enabled      bool   `json:"enabled"`
	ExemptGlobal bool   `json:"exempt_global"`
	DailyLimit   *int32 `json:"daily_limit,omitempty"`
}

// ListSchemas godoc
// @Summary List registered attestation schemas
// @Tags schemas
// @Produce json
// @Success 200 {array} SchemaResponse
// @Security BearerAuth
// @Router /schemas [get]
func (h *SchemaHandler) ListSchemas(c *gin.Context) {
	items, err := h.common.db.ListAttestationSchemas(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to list schemas", err)
		return
	}

	responses := make([]SchemaResponse, 0, len(items))
	for _, item := range items {
		resp := SchemaResponse{
			UID:          item.UID,
			Name:         item.Name,
			Layout:       item.Layout,
			Enabled:      item.Enabled,
			ExemptGlobal: item.ExemptGlobal,
		}
		if item.DailyLimit.Valid {
			limit := item.DailyLimit.Int32
			resp.DailyLimit = &limit
		}
		responses = append(responses, resp)
	}
	sendList(c, responses)
}
