package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veritix/veritix-api/internal/db"
)

// ActivityHandler exposes the sponsorship audit log.
type ActivityHandler struct {
	common *CommonServices
}

func NewActivityHandler(common *CommonServices) *ActivityHandler {
	return &ActivityHandler{common: common}
}

// ActivityResponse is the API shape of one audit record.
type ActivityResponse struct {
	ID              string `json:"id"`
	RequestID       string `json:"request_id"`
	SchemaUID       string `json:"schema_uid"`
	ChainID         int64  `json:"chain_id"`
	ContextID       string `json:"context_id,omitempty"`
	GasUsed         int64  `json:"gas_used"`
	GasCostWei      string `json:"gas_cost_wei"`
	GasCostUsdCents int64  `json:"gas_cost_usd_cents"`
	TxHash          string `json:"tx_hash"`
	AttestationUID  string `json:"attestation_uid,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// ListActivity godoc
// @Summary List the caller's sponsored execution history
// @Tags activity
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {array} ActivityResponse
// @Security BearerAuth
// @Router /activity [get]
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	userID, ok := authenticatedUser(c)
	if !ok {
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 32)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 32)

	items, err := h.common.activity.ListByUser(c.Request.Context(), userID, int32(limit), int32(offset))
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to list activity", err)
		return
	}

	responses := make([]ActivityResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toActivityResponse(item))
	}
	sendList(c, responses)
}

// DailyUsageResponse reports usage recomputed from the audit log.
type DailyUsageResponse struct {
	Day       string `json:"day"`
	SchemaUID string `json:"schema_uid,omitempty"`
	Executed  int64  `json:"executed"`
}

// GetDailyUsage godoc
// @Summary Recompute a day's executed count from the audit log
// @Description Reconciliation view over the immutable audit records, independent of the live quota counters.
// @Tags activity
// @Produce json
// @Param day query string false "UTC day (YYYY-MM-DD), defaults to today"
// @Param schema_uid query string false "Restrict to one schema"
// @Success 200 {object} DailyUsageResponse
// @Security BearerAuth
// @Router /activity/usage [get]
func (h *ActivityHandler) GetDailyUsage(c *gin.Context) {
	userID, ok := authenticatedUser(c)
	if !ok {
		return
	}

	day := time.Now().UTC()
	if raw := c.Query("day"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			sendError(c, http.StatusBadRequest, "day must be YYYY-MM-DD", err)
			return
		}
		day = parsed
	}
	schemaUID := c.Query("schema_uid")

	executed, err := h.common.activity.DailyUsage(c.Request.Context(), userID, schemaUID, day)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to compute usage", err)
		return
	}

	sendSuccess(c, http.StatusOK, DailyUsageResponse{
		Day:       day.Format("2006-01-02"),
		SchemaUID: schemaUID,
		Executed:  executed,
	})
}

func toActivityResponse(item db.SponsoredActivity) ActivityResponse {
	resp := ActivityResponse{
		ID:              item.ID.String(),
		RequestID:       item.RequestID.String(),
		SchemaUID:       item.SchemaUID,
		ChainID:         item.ChainID,
		GasUsed:         item.GasUsed,
		GasCostWei:      item.GasCostWei,
		GasCostUsdCents: item.GasCostUsdCents,
		TxHash:          item.TxHash,
	}
	if item.ContextID.Valid {
		resp.ContextID = uuid.UUID(item.ContextID.Bytes).String()
	}
	if item.AttestationUID.Valid {
		resp.AttestationUID = item.AttestationUID.String
	}
	if item.CreatedAt.Valid {
		resp.CreatedAt = item.CreatedAt.Time.UTC().Format(time.RFC3339)
	}
	return resp
}
