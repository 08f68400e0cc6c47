package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/veritix/veritix-api/internal/auth"
	"github.com/veritix/veritix-api/internal/db"
	"github.com/veritix/veritix-api/internal/eip712"
	"github.com/veritix/veritix-api/internal/handlers"
	"github.com/veritix/veritix-api/internal/logger"
	"github.com/veritix/veritix-api/internal/mocks"
	"github.com/veritix/veritix-api/internal/schemas"
	"github.com/veritix/veritix-api/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitLogger()
}

const (
	testUserID    = "user_2abc"
	testSchemaUID = "0x1111111111111111111111111111111111111111111111111111111111111111"
	testChainID   = int64(84532)
)

var testContract = common.HexToAddress("0x4200000000000000000000000000000000000021")

// newTestRouter wires the handler against mocked queries, with the auth
// middleware replaced by a fixed subject.
func newTestRouter(t *testing.T, mockQueries db.Querier, userID string) *gin.Engine {
	t.Helper()

	registry := schemas.NewRegistry(mockQueries)
	requests := services.NewRequestService(mockQueries, registry, testContract)
	admission := services.NewAdmissionService(mockQueries, registry)
	activity := services.NewActivityService(mockQueries, nil, nil, 0)

	common := handlers.NewCommonServices(mockQueries, registry, requests, admission, nil, activity)
	handler := handlers.NewAttestationHandler(common)
	activityHandler := handlers.NewActivityHandler(common)

	router := gin.New()
	if userID != "" {
		router.Use(func(c *gin.Context) {
			c.Set(auth.UserIDKey, userID)
			c.Next()
		})
	}
	router.POST("/attestations", handler.CreateAttestation)
	router.GET("/attestations/allowance", handler.GetAllowance)
	router.GET("/attestations/:request_id", handler.GetAttestation)
	router.GET("/activity", activityHandler.ListActivity)
	router.GET("/activity/usage", activityHandler.GetDailyUsage)
	return router
}

func performJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

// signedCreateBody builds an intake body whose signature verifies.
func signedCreateBody(t *testing.T) handlers.CreateAttestationRequest {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	args, err := schemas.CompileLayout("bytes32 eventId,uint64 seat")
	require.NoError(t, err)
	payload, err := args.Pack([32]byte{0xee}, uint64(7))
	require.NoError(t, err)

	body := handlers.CreateAttestationRequest{
		SchemaUID: testSchemaUID,
		Recipient: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Payload:   hexutil.Encode(payload),
		Deadline:  time.Now().Add(time.Hour).Unix(),
		ChainID:   testChainID,
		Signer:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}

	digest, err := eip712.HashDelegatedAttestation(eip712.DelegatedAttestation{
		SchemaUID:         common.HexToHash(body.SchemaUID),
		Recipient:         common.HexToAddress(body.Recipient),
		Payload:           payload,
		Deadline:          uint64(body.Deadline),
		Value:             nil,
		ChainID:           body.ChainID,
		VerifyingContract: testContract,
	})
	require.NoError(t, err)
	raw, err := crypto.Sign(digest.Bytes(), key)
	require.NoError(t, err)
	body.Signature = hexutil.Encode(raw)
	return body
}

func TestCreateAttestation(t *testing.T) {
	t.Run("stores a valid request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		mockQueries.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).
			Return(db.AttestationSchema{
				UID:     testSchemaUID,
				Name:    "ticket-issuance",
				Layout:  "bytes32 eventId,uint64 seat",
				Enabled: true,
			}, nil)
		mockQueries.EXPECT().CreateDelegationRequest(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, arg db.CreateDelegationRequestParams) (db.DelegationRequest, error) {
				return db.DelegationRequest{
					ID:        arg.ID,
					UserID:    arg.UserID,
					SchemaUID: arg.SchemaUID,
					Recipient: arg.Recipient,
					Payload:   arg.Payload,
					Status:    db.RequestStatusPending,
				}, nil
			})

		router := newTestRouter(t, mockQueries, testUserID)
		w := performJSON(router, http.MethodPost, "/attestations", signedCreateBody(t))

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp handlers.AttestationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "pending", resp.Status)
		assert.Equal(t, testSchemaUID, resp.SchemaUID)
	})

	t.Run("requires authentication", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		router := newTestRouter(t, mocks.NewMockQuerier(ctrl), "")
		w := performJSON(router, http.MethodPost, "/attestations", signedCreateBody(t))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		router := newTestRouter(t, mocks.NewMockQuerier(ctrl), testUserID)
		w := performJSON(router, http.MethodPost, "/attestations", gin.H{"schema_uid": testSchemaUID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a bad recipient address", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		router := newTestRouter(t, mocks.NewMockQuerier(ctrl), testUserID)

		body := signedCreateBody(t)
		body.Recipient = "not-an-address"
		w := performJSON(router, http.MethodPost, "/attestations", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects non-hex payload", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		router := newTestRouter(t, mocks.NewMockQuerier(ctrl), testUserID)

		body := signedCreateBody(t)
		body.Payload = "zzzz"
		w := performJSON(router, http.MethodPost, "/attestations", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a truncated signature", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		router := newTestRouter(t, mocks.NewMockQuerier(ctrl), testUserID)

		body := signedCreateBody(t)
		body.Signature = "0x1234"
		w := performJSON(router, http.MethodPost, "/attestations", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects a negative value", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		router := newTestRouter(t, mocks.NewMockQuerier(ctrl), testUserID)

		body := signedCreateBody(t)
		body.Value = "-5"
		w := performJSON(router, http.MethodPost, "/attestations", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("expired deadline is unprocessable", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		router := newTestRouter(t, mocks.NewMockQuerier(ctrl), testUserID)

		body := signedCreateBody(t)
		body.Deadline = time.Now().Add(-time.Hour).Unix()
		w := performJSON(router, http.MethodPost, "/attestations", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("unknown schema is a bad request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)
		mockQueries.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).
			Return(db.AttestationSchema{}, pgx.ErrNoRows)

		router := newTestRouter(t, mockQueries, testUserID)
		w := performJSON(router, http.MethodPost, "/attestations", signedCreateBody(t))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetAttestation(t *testing.T) {
	requestID := uuid.New()

	t.Run("returns the caller's request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)
		mockQueries.EXPECT().GetDelegationRequest(gomock.Any(), requestID).
			Return(db.DelegationRequest{
				ID:     requestID,
				UserID: testUserID,
				Status: db.RequestStatusConfirmed,
			}, nil)

		router := newTestRouter(t, mockQueries, testUserID)
		w := performJSON(router, http.MethodGet, "/attestations/"+requestID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp handlers.AttestationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "confirmed", resp.Status)
	})

	t.Run("another user's request reads as missing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)
		mockQueries.EXPECT().GetDelegationRequest(gomock.Any(), requestID).
			Return(db.DelegationRequest{ID: requestID, UserID: "someone_else"}, nil)

		router := newTestRouter(t, mockQueries, testUserID)
		w := performJSON(router, http.MethodGet, "/attestations/"+requestID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing row is 404", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)
		mockQueries.EXPECT().GetDelegationRequest(gomock.Any(), requestID).
			Return(db.DelegationRequest{}, pgx.ErrNoRows)

		router := newTestRouter(t, mockQueries, testUserID)
		w := performJSON(router, http.MethodGet, "/attestations/"+requestID.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id is a bad request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		router := newTestRouter(t, mocks.NewMockQuerier(ctrl), testUserID)
		w := performJSON(router, http.MethodGet, "/attestations/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetAllowance(t *testing.T) {
	t.Run("reports remaining quota", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		mockQueries.EXPECT().GetRelayerConfig(gomock.Any()).
			Return(db.RelayerConfig{Enabled: true, GlobalDailyLimit: 10}, nil)
		mockQueries.EXPECT().GetSupportedChain(gomock.Any(), testChainID).
			Return(db.SupportedChain{ChainID: testChainID, Name: "Base Sepolia", Enabled: true}, nil)
		mockQueries.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).
			Return(db.AttestationSchema{
				UID:     testSchemaUID,
				Layout:  "bytes32 eventId",
				Enabled: true,
			}, nil)
		mockQueries.EXPECT().GetQuotaCount(gomock.Any(), gomock.Any()).Return(int32(4), nil)

		router := newTestRouter(t, mockQueries, testUserID)
		w := performJSON(router, http.MethodGet,
			"/attestations/allowance?schema_uid="+testSchemaUID+"&chain_id=84532", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp handlers.AllowanceResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Allowed)
		assert.Equal(t, int32(4), resp.GlobalUsed)
		assert.Equal(t, int32(10), resp.GlobalLimit)
	})

	t.Run("missing schema_uid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		router := newTestRouter(t, mocks.NewMockQuerier(ctrl), testUserID)
		w := performJSON(router, http.MethodGet, "/attestations/allowance?chain_id=1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-numeric chain_id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		router := newTestRouter(t, mocks.NewMockQuerier(ctrl), testUserID)
		w := performJSON(router, http.MethodGet,
			"/attestations/allowance?schema_uid="+testSchemaUID+"&chain_id=abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListActivity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockQueries := mocks.NewMockQuerier(ctrl)

	mockQueries.EXPECT().ListSponsoredActivityByUser(gomock.Any(), db.ListSponsoredActivityByUserParams{
		UserID: testUserID,
		Limit:  50,
		Offset: 0,
	}).Return([]db.SponsoredActivity{
		{ID: uuid.New(), UserID: testUserID, SchemaUID: testSchemaUID, TxHash: "0xabc", GasUsed: 90_000},
	}, nil)

	router := newTestRouter(t, mockQueries, testUserID)
	w := performJSON(router, http.MethodGet, "/activity", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Object string                       `json:"object"`
		Data   []handlers.ActivityResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "list", resp.Object)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "0xabc", resp.Data[0].TxHash)
}

func TestGetDailyUsage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockQueries := mocks.NewMockQuerier(ctrl)

	mockQueries.EXPECT().CountSponsoredActivityForDay(gomock.Any(), gomock.Any()).
		Return(int64(3), nil)

	router := newTestRouter(t, mockQueries, testUserID)
	w := performJSON(router, http.MethodGet, "/activity/usage?day=2026-08-30&schema_uid="+testSchemaUID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.DailyUsageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Executed)
	assert.Equal(t, "2026-08-30", resp.Day)
}
