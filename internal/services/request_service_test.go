package services_test

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/veritix/veritix-api/internal/db"
	"github.com/veritix/veritix-api/internal/eip712"
	"github.com/veritix/veritix-api/internal/mocks"
	"github.com/veritix/veritix-api/internal/schemas"
	"github.com/veritix/veritix-api/internal/services"
)

var testContract = common.HexToAddress("0x4200000000000000000000000000000000000021")

// signedParams builds a valid, signed StoreRequestParams for the ticket schema.
func signedParams(t *testing.T, key *ecdsa.PrivateKey) services.StoreRequestParams {
	t.Helper()

	args, err := schemas.CompileLayout("bytes32 eventId,uint64 seat")
	require.NoError(t, err)
	payload, err := args.Pack([32]byte{0xee}, uint64(7))
	require.NoError(t, err)

	params := services.StoreRequestParams{
		UserID:       testUserID,
		SchemaUID:    common.HexToHash(testSchemaUID),
		Recipient:    common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		Payload:      payload,
		DeadlineUnix: time.Now().Add(time.Hour).Unix(),
		Signer:       crypto.PubkeyToAddress(key.PublicKey),
		ValueWei:     big.NewInt(0),
		ChainID:      testChainID,
	}

	digest, err := eip712.HashDelegatedAttestation(eip712.DelegatedAttestation{
		SchemaUID:         params.SchemaUID,
		Recipient:         params.Recipient,
		Payload:           params.Payload,
		Deadline:          uint64(params.DeadlineUnix),
		Value:             params.ValueWei,
		ChainID:           params.ChainID,
		VerifyingContract: testContract,
	})
	require.NoError(t, err)

	raw, err := crypto.Sign(digest.Bytes(), key)
	require.NoError(t, err)
	params.Signature, err = eip712.ParseSignature(hexutil.Encode(raw))
	require.NoError(t, err)

	return params
}

func expectTicketSchema(m *mocks.MockQuerier) {
	m.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).
		Return(db.AttestationSchema{
			UID:     testSchemaUID,
			Name:    "ticket-issuance",
			Layout:  "bytes32 eventId,uint64 seat",
			Enabled: true,
		}, nil)
}

func TestRequestService_Upsert(t *testing.T) {
	ctx := context.Background()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	t.Run("stores a valid signed request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)
		expectTicketSchema(mockQueries)

		params := signedParams(t, key)

		var got db.CreateDelegationRequestParams
		mockQueries.EXPECT().CreateDelegationRequest(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, arg db.CreateDelegationRequestParams) (db.DelegationRequest, error) {
				got = arg
				return db.DelegationRequest{
					ID:        arg.ID,
					SchemaUID: arg.SchemaUID,
					Signer:    arg.Signer,
					Status:    db.RequestStatusPending,
				}, nil
			})

		service := services.NewRequestService(mockQueries, schemas.NewRegistry(mockQueries), testContract)
		request, err := service.Upsert(ctx, params)
		require.NoError(t, err)

		assert.Equal(t, db.RequestStatusPending, request.Status)
		assert.Equal(t, params.Signer.Hex(), got.Signer)
		assert.Equal(t, params.SchemaUID.Hex(), got.SchemaUID)
		assert.Contains(t, []int16{27, 28}, got.SignatureV)
		assert.Equal(t, "0", got.ValueWei)
		assert.NotEmpty(t, got.ContentHash)
	})

	t.Run("identical resubmission returns the existing row", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)
		expectTicketSchema(mockQueries)

		params := signedParams(t, key)
		existing := db.DelegationRequest{ID: uuid.New(), Status: db.RequestStatusPending}

		mockQueries.EXPECT().CreateDelegationRequest(gomock.Any(), gomock.Any()).
			Return(db.DelegationRequest{}, pgx.ErrNoRows)
		mockQueries.EXPECT().GetDelegationRequestByContentHash(gomock.Any(), gomock.Any()).
			Return(existing, nil)

		service := services.NewRequestService(mockQueries, schemas.NewRegistry(mockQueries), testContract)
		request, err := service.Upsert(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, existing.ID, request.ID)
	})

	t.Run("expired deadline", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		params := signedParams(t, key)
		params.DeadlineUnix = time.Now().Add(-time.Minute).Unix()

		service := services.NewRequestService(mockQueries, schemas.NewRegistry(mockQueries), testContract)
		_, err := service.Upsert(ctx, params)
		assert.ErrorIs(t, err, services.ErrExpiredDeadline)
	})

	t.Run("payload not matching schema layout", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)
		expectTicketSchema(mockQueries)

		params := signedParams(t, key)
		params.Payload = []byte{0x01, 0x02, 0x03}

		service := services.NewRequestService(mockQueries, schemas.NewRegistry(mockQueries), testContract)
		_, err := service.Upsert(ctx, params)
		assert.ErrorIs(t, err, schemas.ErrPayloadLayout)
	})

	t.Run("signature by a different key", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)
		expectTicketSchema(mockQueries)

		otherKey, err := crypto.GenerateKey()
		require.NoError(t, err)

		params := signedParams(t, otherKey)
		params.Signer = crypto.PubkeyToAddress(key.PublicKey)

		service := services.NewRequestService(mockQueries, schemas.NewRegistry(mockQueries), testContract)
		_, err = service.Upsert(ctx, params)
		assert.ErrorIs(t, err, services.ErrInvalidSignature)
	})

	t.Run("tampered payload invalidates the signature", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)
		expectTicketSchema(mockQueries)

		params := signedParams(t, key)
		// Flip the seat number after signing; still decodes against the layout.
		params.Payload[63] ^= 0x01

		service := services.NewRequestService(mockQueries, schemas.NewRegistry(mockQueries), testContract)
		_, err := service.Upsert(ctx, params)
		assert.ErrorIs(t, err, services.ErrInvalidSignature)
	})
}

func TestRequestService_Transitions(t *testing.T) {
	ctx := context.Background()
	requestID := uuid.New()

	t.Run("mark submitted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		mockQueries.EXPECT().MarkDelegationRequestSubmitted(gomock.Any(), db.MarkDelegationRequestSubmittedParams{
			ID:     requestID,
			TxHash: pgtype.Text{String: "0xabc", Valid: true},
		}).Return(int64(1), nil)

		service := services.NewRequestService(mockQueries, schemas.NewRegistry(mockQueries), testContract)
		assert.NoError(t, service.MarkSubmitted(ctx, requestID, "0xabc"))
	})

	t.Run("guard rejects a terminal row", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		mockQueries.EXPECT().MarkDelegationRequestSubmitted(gomock.Any(), gomock.Any()).
			Return(int64(0), nil)
		mockQueries.EXPECT().GetDelegationRequest(gomock.Any(), requestID).
			Return(db.DelegationRequest{ID: requestID, Status: db.RequestStatusConfirmed}, nil)

		service := services.NewRequestService(mockQueries, schemas.NewRegistry(mockQueries), testContract)
		err := service.MarkSubmitted(ctx, requestID, "0xabc")
		assert.ErrorIs(t, err, services.ErrInvalidTransition)
		assert.Contains(t, err.Error(), "confirmed")
	})

	t.Run("confirm without an attestation uid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		mockQueries.EXPECT().MarkDelegationRequestConfirmed(gomock.Any(), db.MarkDelegationRequestConfirmedParams{
			ID: requestID,
		}).Return(int64(1), nil)

		service := services.NewRequestService(mockQueries, schemas.NewRegistry(mockQueries), testContract)
		assert.NoError(t, service.MarkConfirmed(ctx, requestID, ""))
	})

	t.Run("reset to pending after revert", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		mockQueries.EXPECT().ResetDelegationRequestToPending(gomock.Any(), requestID).
			Return(int64(1), nil)

		service := services.NewRequestService(mockQueries, schemas.NewRegistry(mockQueries), testContract)
		assert.NoError(t, service.ResetToPending(ctx, requestID))
	})
}

func TestContentHash(t *testing.T) {
	schemaUID := common.HexToHash(testSchemaUID)
	recipient := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	signer := common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	payload := []byte{0x01, 0x02}

	base := services.ContentHash(schemaUID, recipient, payload, 100, signer)
	assert.Equal(t, base, services.ContentHash(schemaUID, recipient, payload, 100, signer))

	assert.NotEqual(t, base, services.ContentHash(schemaUID, recipient, payload, 101, signer))
	assert.NotEqual(t, base, services.ContentHash(schemaUID, recipient, []byte{0x01, 0x03}, 100, signer))
	assert.NotEqual(t, base, services.ContentHash(schemaUID, recipient, payload, 100, recipient))
}
