package handlers

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veritix/veritix-api/internal/db"
	"github.com/veritix/veritix-api/internal/eip712"
	"github.com/veritix/veritix-api/internal/schemas"
	"github.com/veritix/veritix-api/internal/services"
)

// AttestationHandler exposes the delegated attestation pipeline over HTTP.
type AttestationHandler struct {
	common *CommonServices
}

func NewAttestationHandler(common *CommonServices) *AttestationHandler {
	return &AttestationHandler{common: common}
}

// CreateAttestationRequest is the intake body for a signed delegation.
type CreateAttestationRequest struct {
	SchemaUID string `json:"schema_uid" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
	Payload   string `json:"payload" binding:"required"`
	RefUID    string `json:"ref_uid,omitempty"`
	Deadline  int64  `json:"deadline" binding:"required"`
	Value     string `json:"value,omitempty"`
	ChainID   int64  `json:"chain_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
	ContextID string `json:"context_id,omitempty"`
	Signer    string `json:"signer" binding:"required"`
}

// AttestationResponse is the API shape of a stored delegation request.
type AttestationResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	SchemaUID      string `json:"schema_uid"`
	Recipient      string `json:"recipient"`
	Payload        string `json:"payload"`
	RefUID         string `json:"ref_uid,omitempty"`
	Deadline       int64  `json:"deadline"`
	Signer         string `json:"signer"`
	Value          string `json:"value"`
	ChainID        int64  `json:"chain_id"`
	ContextID      string `json:"context_id,omitempty"`
	TxHash         string `json:"tx_hash,omitempty"`
	AttestationUID string `json:"attestation_uid,omitempty"`
	FailureReason  string `json:"failure_reason,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// AllowanceResponse reports remaining daily quota without consuming any.
type AllowanceResponse struct {
	Allowed     bool   `json:"allowed"`
	Reason      string `json:"reason,omitempty"`
	Message     string `json:"message,omitempty"`
	GlobalUsed  int32  `json:"global_used"`
	GlobalLimit int32  `json:"global_limit"`
	SchemaUsed  int32  `json:"schema_used"`
	SchemaLimit int32  `json:"schema_limit"`
}

// CreateAttestation godoc
// @Summary Store a signed delegated attestation
// @Description Validates the EIP-712 signature and stores the delegation for sponsored submission. Re-posting identical content returns the existing request.
// @Tags attestations
// @Accept json
// @Produce json
// @Param request body CreateAttestationRequest true "Signed delegation"
// @Success 201 {object} AttestationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Security BearerAuth
// @Router /attestations [post]
func (h *AttestationHandler) CreateAttestation(c *gin.Context) {
	userID, ok := authenticatedUser(c)
	if !ok {
		return
	}

	var req CreateAttestationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if !common.IsHexAddress(req.Recipient) {
		sendError(c, http.StatusBadRequest, "Invalid recipient address", nil)
		return
	}
	if !common.IsHexAddress(req.Signer) {
		sendError(c, http.StatusBadRequest, "Invalid signer address", nil)
		return
	}

	payload, err := hexutil.Decode(req.Payload)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Payload must be 0x-prefixed hex", err)
		return
	}

	signature, err := eip712.ParseSignature(req.Signature)
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid signature encoding", err)
		return
	}

	value := big.NewInt(0)
	if req.Value != "" {
		parsed, ok := new(big.Int).SetString(req.Value, 10)
		if !ok || parsed.Sign() < 0 {
			sendError(c, http.StatusBadRequest, "Value must be a non-negative decimal wei amount", nil)
			return
		}
		value = parsed
	}

	var contextID *uuid.UUID
	if req.ContextID != "" {
		parsed, err := uuid.Parse(req.ContextID)
		if err != nil {
			sendError(c, http.StatusBadRequest, "Invalid context ID format", err)
			return
		}
		contextID = &parsed
	}

	var refUID common.Hash
	if req.RefUID != "" {
		refUID = common.HexToHash(req.RefUID)
	}

	stored, err := h.common.requests.Upsert(c.Request.Context(), services.StoreRequestParams{
		UserID:       userID,
		SchemaUID:    common.HexToHash(req.SchemaUID),
		Recipient:    common.HexToAddress(req.Recipient),
		Payload:      payload,
		DeadlineUnix: req.Deadline,
		Signer:       common.HexToAddress(req.Signer),
		Signature:    signature,
		ValueWei:     value,
		ChainID:      req.ChainID,
		RefUID:       refUID,
		ContextID:    contextID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrExpiredDeadline):
			sendError(c, http.StatusUnprocessableEntity, "Delegation deadline has already passed", err)
		case errors.Is(err, services.ErrInvalidSignature), errors.Is(err, eip712.ErrSignerMismatch):
			sendError(c, http.StatusBadRequest, "Signature does not verify against the declared signer", err)
		case errors.Is(err, schemas.ErrSchemaNotFound):
			sendError(c, http.StatusBadRequest, "Unknown attestation schema", err)
		case errors.Is(err, schemas.ErrPayloadLayout):
			sendError(c, http.StatusBadRequest, "Payload does not match the schema layout", err)
		default:
			sendError(c, http.StatusInternalServerError, "Failed to store attestation request", err)
		}
		return
	}

	sendSuccess(c, http.StatusCreated, toAttestationResponse(stored))
}

// GetAttestation godoc
// @Summary Get a stored attestation request
// @Tags attestations
// @Produce json
// @Param request_id path string true "Request ID"
// @Success 200 {object} AttestationResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /attestations/{request_id} [get]
func (h *AttestationHandler) GetAttestation(c *gin.Context) {
	userID, ok := authenticatedUser(c)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(c.Param("request_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request ID format", err)
		return
	}

	req, err := h.common.requests.Get(c.Request.Context(), requestID)
	if err != nil {
		handleDBError(c, err, "Attestation request not found")
		return
	}
	if req.UserID != userID {
		sendError(c, http.StatusNotFound, "Attestation request not found", nil)
		return
	}

	sendSuccess(c, http.StatusOK, toAttestationResponse(req))
}

// SubmitAttestation godoc
// @Summary Submit a stored attestation on-chain
// @Description Runs admission control and relays the delegation with the platform wallet. Quota is consumed on an allowed submission.
// @Tags attestations
// @Produce json
// @Param request_id path string true "Request ID"
// @Success 200 {object} AttestationResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Security BearerAuth
// @Router /attestations/{request_id}/submit [post]
func (h *AttestationHandler) SubmitAttestation(c *gin.Context) {
	userID, ok := authenticatedUser(c)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(c.Param("request_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request ID format", err)
		return
	}

	req, err := h.common.requests.Get(c.Request.Context(), requestID)
	if err != nil {
		handleDBError(c, err, "Attestation request not found")
		return
	}
	if req.UserID != userID {
		sendError(c, http.StatusNotFound, "Attestation request not found", nil)
		return
	}

	result, err := h.common.relayer.SubmitSingle(c.Request.Context(), requestID)
	if err != nil {
		h.submissionError(c, requestID, err)
		return
	}

	updated, err := h.common.requests.Get(c.Request.Context(), result.RequestID)
	if err != nil {
		handleDBError(c, err, "Attestation request not found")
		return
	}
	sendSuccess(c, http.StatusOK, toAttestationResponse(updated))
}

// BatchSubmitResponse is the per-item outcome of one context submission.
type BatchSubmitResponse struct {
	ContextID string              `json:"context_id"`
	TxHash    string              `json:"tx_hash,omitempty"`
	Items     []BatchItemResponse `json:"items"`
}

type BatchItemResponse struct {
	RequestID      string `json:"request_id"`
	Status         string `json:"status"`
	AttestationUID string `json:"attestation_uid,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// SubmitContext godoc
// @Summary Submit all pending attestations for a context as one batch
// @Description Assembles pending requests for the business context into a single multi-attest transaction. Items fail or succeed individually.
// @Tags attestations
// @Produce json
// @Param context_id path string true "Context ID"
// @Success 200 {object} BatchSubmitResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /attestations/contexts/{context_id}/submit [post]
func (h *AttestationHandler) SubmitContext(c *gin.Context) {
	if _, ok := authenticatedUser(c); !ok {
		return
	}

	contextID, err := uuid.Parse(c.Param("context_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid context ID format", err)
		return
	}

	result, err := h.common.relayer.SubmitBatch(c.Request.Context(), contextID)
	if err != nil && result == nil {
		switch {
		case errors.Is(err, services.ErrNoPendingRequests):
			sendError(c, http.StatusNotFound, "No pending attestations for this context", err)
		case errors.Is(err, services.ErrSubmissionReverted):
			sendError(c, http.StatusBadGateway, "Batch transaction would revert; requests remain pending", err)
		default:
			sendError(c, http.StatusInternalServerError, "Failed to submit batch", err)
		}
		return
	}

	status := http.StatusOK
	if err != nil {
		// Partial state: the batch is on-chain (or in flight) but not
		// terminally resolved. The caller gets what is known.
		status = http.StatusAccepted
	}
	sendSuccess(c, status, toBatchResponse(result))
}

// ReconcileAttestation godoc
// @Summary Reconcile a submitted attestation against the ledger
// @Description Queries the chain for the actual fate of a submitted transaction and settles the request state. Operator only.
// @Tags attestations
// @Produce json
// @Param request_id path string true "Request ID"
// @Success 200 {object} AttestationResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /attestations/{request_id}/reconcile [post]
func (h *AttestationHandler) ReconcileAttestation(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("request_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request ID format", err)
		return
	}

	if _, err := h.common.relayer.Reconcile(c.Request.Context(), requestID); err != nil {
		handleDBError(c, err, "Attestation request not found")
		return
	}

	updated, err := h.common.requests.Get(c.Request.Context(), requestID)
	if err != nil {
		handleDBError(c, err, "Attestation request not found")
		return
	}
	sendSuccess(c, http.StatusOK, toAttestationResponse(updated))
}

// GetAllowance godoc
// @Summary Check remaining daily sponsorship quota
// @Description Reports whether a submission would currently be admitted, without consuming quota.
// @Tags attestations
// @Produce json
// @Param schema_uid query string true "Schema UID"
// @Param chain_id query int true "Chain ID"
// @Success 200 {object} AllowanceResponse
// @Security BearerAuth
// @Router /attestations/allowance [get]
func (h *AttestationHandler) GetAllowance(c *gin.Context) {
	userID, ok := authenticatedUser(c)
	if !ok {
		return
	}

	schemaUID := c.Query("schema_uid")
	if schemaUID == "" {
		sendError(c, http.StatusBadRequest, "schema_uid query parameter is required", nil)
		return
	}
	chainID, err := strconv.ParseInt(c.Query("chain_id"), 10, 64)
	if err != nil {
		sendError(c, http.StatusBadRequest, "chain_id must be an integer", err)
		return
	}

	decision, err := h.common.admission.CheckAllowance(c.Request.Context(), userID, schemaUID, chainID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "Failed to check allowance", err)
		return
	}

	sendSuccess(c, http.StatusOK, AllowanceResponse{
		Allowed:     decision.Allowed,
		Reason:      string(decision.Reason),
		Message:     decision.Message,
		GlobalUsed:  decision.GlobalUsed,
		GlobalLimit: decision.GlobalLimit,
		SchemaUsed:  decision.SchemaUsed,
		SchemaLimit: decision.SchemaLimit,
	})
}

// submissionError maps engine errors onto HTTP responses.
func (h *AttestationHandler) submissionError(c *gin.Context, requestID uuid.UUID, err error) {
	var denied *services.AdmissionDeniedError
	switch {
	case errors.As(err, &denied):
		status := http.StatusForbidden
		if denied.Decision.Reason == services.DenialGlobalLimitReached ||
			denied.Decision.Reason == services.DenialSchemaLimitReached {
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{
			"error":   denied.Decision.Message,
			"reason":  denied.Decision.Reason,
			"allowed": false,
		})
	case errors.Is(err, services.ErrAlreadySubmitted):
		sendError(c, http.StatusConflict, "Request is already submitted; reconcile to settle it", err)
	case errors.Is(err, services.ErrInvalidTransition):
		sendError(c, http.StatusConflict, "Request is already in a terminal state", err)
	case errors.Is(err, services.ErrExpiredDeadline):
		sendError(c, http.StatusUnprocessableEntity, "Delegation deadline elapsed before submission", err)
	case errors.Is(err, services.ErrInvalidSignature):
		sendError(c, http.StatusUnprocessableEntity, "Stored signature no longer verifies", err)
	case errors.Is(err, services.ErrSubmissionReverted):
		sendError(c, http.StatusBadGateway, "Transaction reverted; request returned to pending", err)
	case errors.Is(err, services.ErrSubmissionTimedOut):
		sendError(c, http.StatusGatewayTimeout, "Transaction not yet confirmed; reconcile to settle it", err)
	default:
		sendError(c, http.StatusInternalServerError, "Failed to submit attestation", err)
	}
}

func toAttestationResponse(req db.DelegationRequest) AttestationResponse {
	resp := AttestationResponse{
		ID:        req.ID.String(),
		Status:    string(req.Status),
		SchemaUID: req.SchemaUID,
		Recipient: req.Recipient,
		Payload:   hexutil.Encode(req.Payload),
		Deadline:  req.DeadlineUnix,
		Signer:    req.Signer,
		Value:     req.ValueWei,
		ChainID:   req.ChainID,
	}
	if req.RefUID.Valid {
		resp.RefUID = req.RefUID.String
	}
	if req.ContextID.Valid {
		resp.ContextID = uuid.UUID(req.ContextID.Bytes).String()
	}
	if req.TxHash.Valid {
		resp.TxHash = req.TxHash.String
	}
	if req.AttestationUID.Valid {
		resp.AttestationUID = req.AttestationUID.String
	}
	if req.FailureReason.Valid {
		resp.FailureReason = req.FailureReason.String
	}
	if req.CreatedAt.Valid {
		resp.CreatedAt = req.CreatedAt.Time.UTC().Format(time.RFC3339)
	}
	if req.UpdatedAt.Valid {
		resp.UpdatedAt = req.UpdatedAt.Time.UTC().Format(time.RFC3339)
	}
	return resp
}

func toBatchResponse(result *services.BatchResult) BatchSubmitResponse {
	resp := BatchSubmitResponse{
		ContextID: result.ContextID.String(),
		TxHash:    result.TxHash,
		Items:     make([]BatchItemResponse, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		resp.Items = append(resp.Items, BatchItemResponse{
			RequestID:      item.RequestID.String(),
			Status:         item.Status,
			AttestationUID: item.AttestationUID,
			Reason:         item.Reason,
		})
	}
	return resp
}
