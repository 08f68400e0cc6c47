package schemas_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/veritix/veritix-api/internal/db"
	"github.com/veritix/veritix-api/internal/logger"
	"github.com/veritix/veritix-api/internal/mocks"
	"github.com/veritix/veritix-api/internal/schemas"
)

func init() {
	logger.InitLogger()
}

const ticketSchemaUID = "0x1111111111111111111111111111111111111111111111111111111111111111"

func ticketSchemaRow() db.AttestationSchema {
	return db.AttestationSchema{
		UID:          ticketSchemaUID,
		Name:         "ticket-issuance",
		Layout:       "bytes32 eventId,uint64 seat,address holder",
		Enabled:      true,
		ExemptGlobal: false,
		DailyLimit:   pgtype.Int4{Int32: 100, Valid: true},
	}
}

func TestCompileLayout(t *testing.T) {
	tests := []struct {
		name    string
		layout  string
		wantErr bool
	}{
		{name: "single field", layout: "bytes32 eventId"},
		{name: "multiple fields", layout: "bytes32 eventId,uint64 seat,address holder"},
		{name: "whitespace tolerated", layout: " bytes32 eventId , uint64 seat "},
		{name: "dynamic types", layout: "string name,bytes data"},
		{name: "empty", layout: "", wantErr: true},
		{name: "blank", layout: "   ", wantErr: true},
		{name: "missing field name", layout: "bytes32", wantErr: true},
		{name: "extra tokens", layout: "bytes32 eventId extra", wantErr: true},
		{name: "unknown type", layout: "bytes33 eventId", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := schemas.CompileLayout(tt.layout)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, args)
		})
	}
}

func TestRegistry_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("compiles the layout", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		mockQueries.EXPECT().
			GetAttestationSchema(gomock.Any(), ticketSchemaUID).
			Return(ticketSchemaRow(), nil)

		registry := schemas.NewRegistry(mockQueries)

		schema, err := registry.Get(ctx, ticketSchemaUID)
		require.NoError(t, err)
		assert.Equal(t, "ticket-issuance", schema.Name)
		assert.True(t, schema.Enabled)
		require.NotNil(t, schema.DailyLimit)
		assert.Equal(t, int32(100), *schema.DailyLimit)
	})

	t.Run("rereads admission fields on every lookup", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		disabled := ticketSchemaRow()
		disabled.Enabled = false
		disabled.DailyLimit = pgtype.Int4{Int32: 5, Valid: true}
		gomock.InOrder(
			mockQueries.EXPECT().
				GetAttestationSchema(gomock.Any(), ticketSchemaUID).
				Return(ticketSchemaRow(), nil),
			mockQueries.EXPECT().
				GetAttestationSchema(gomock.Any(), ticketSchemaUID).
				Return(disabled, nil),
		)

		registry := schemas.NewRegistry(mockQueries)

		first, err := registry.Get(ctx, ticketSchemaUID)
		require.NoError(t, err)
		assert.True(t, first.Enabled)

		// An operator edit to the row must be visible on the next lookup.
		second, err := registry.Get(ctx, ticketSchemaUID)
		require.NoError(t, err)
		assert.False(t, second.Enabled)
		require.NotNil(t, second.DailyLimit)
		assert.Equal(t, int32(5), *second.DailyLimit)
	})

	t.Run("unknown uid", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		mockQueries.EXPECT().
			GetAttestationSchema(gomock.Any(), "0xdead").
			Return(db.AttestationSchema{}, pgx.ErrNoRows)

		registry := schemas.NewRegistry(mockQueries)
		_, err := registry.Get(ctx, "0xdead")
		assert.ErrorIs(t, err, schemas.ErrSchemaNotFound)
	})

	t.Run("bad layout row", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		row := ticketSchemaRow()
		row.Layout = "notatype eventId"
		mockQueries.EXPECT().
			GetAttestationSchema(gomock.Any(), ticketSchemaUID).
			Return(row, nil)

		registry := schemas.NewRegistry(mockQueries)
		_, err := registry.Get(ctx, ticketSchemaUID)
		assert.Error(t, err)
	})
}

func TestRegistry_Warm(t *testing.T) {
	ctx := context.Background()

	t.Run("precompiles all rows", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		second := ticketSchemaRow()
		second.UID = "0x2222222222222222222222222222222222222222222222222222222222222222"
		second.Name = "entry-scan"
		second.Layout = "bytes32 ticketId,uint64 scannedAt"
		second.DailyLimit = pgtype.Int4{}

		mockQueries.EXPECT().
			ListAttestationSchemas(gomock.Any()).
			Return([]db.AttestationSchema{ticketSchemaRow(), second}, nil)

		registry := schemas.NewRegistry(mockQueries)
		require.NoError(t, registry.Warm(ctx))

		// Warming never pins the row; lookups still read it fresh.
		mockQueries.EXPECT().
			GetAttestationSchema(gomock.Any(), second.UID).
			Return(second, nil)
		schema, err := registry.Get(ctx, second.UID)
		require.NoError(t, err)
		assert.Nil(t, schema.DailyLimit)
	})

	t.Run("fails fast on a bad row", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		bad := ticketSchemaRow()
		bad.Layout = "bytes32"
		mockQueries.EXPECT().
			ListAttestationSchemas(gomock.Any()).
			Return([]db.AttestationSchema{bad}, nil)

		registry := schemas.NewRegistry(mockQueries)
		assert.Error(t, registry.Warm(ctx))
	})
}

func TestSchema_ValidatePayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockQueries := mocks.NewMockQuerier(ctrl)
	mockQueries.EXPECT().
		GetAttestationSchema(gomock.Any(), ticketSchemaUID).
		Return(ticketSchemaRow(), nil)

	registry := schemas.NewRegistry(mockQueries)
	schema, err := registry.Get(context.Background(), ticketSchemaUID)
	require.NoError(t, err)

	eventID := [32]byte{0xaa}
	holder := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	valid, err := schema.EncodePayload(eventID, uint64(42), holder)
	require.NoError(t, err)

	t.Run("canonical payload", func(t *testing.T) {
		assert.NoError(t, schema.ValidatePayload(valid))
	})

	t.Run("decode returns layout-ordered values", func(t *testing.T) {
		values, err := schema.DecodePayload(valid)
		require.NoError(t, err)
		require.Len(t, values, 3)
		assert.Equal(t, eventID, values[0])
		assert.Equal(t, uint64(42), values[1])
		assert.Equal(t, holder, values[2])
	})

	t.Run("truncated payload", func(t *testing.T) {
		err := schema.ValidatePayload(valid[:len(valid)-1])
		assert.ErrorIs(t, err, schemas.ErrPayloadLayout)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		padded := append(append([]byte{}, valid...), make([]byte, 32)...)
		err := schema.ValidatePayload(padded)
		assert.ErrorIs(t, err, schemas.ErrPayloadLayout)
	})

	t.Run("non-canonical padding", func(t *testing.T) {
		// The seat word carries dirt above uint64 range.
		tampered := append([]byte{}, valid...)
		tampered[32] = 0xff
		err := schema.ValidatePayload(tampered)
		assert.ErrorIs(t, err, schemas.ErrPayloadLayout)
	})

	t.Run("empty payload", func(t *testing.T) {
		assert.ErrorIs(t, schema.ValidatePayload(nil), schemas.ErrPayloadLayout)
	})
}
