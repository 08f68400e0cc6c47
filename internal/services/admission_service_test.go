package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/veritix/veritix-api/internal/db"
	"github.com/veritix/veritix-api/internal/logger"
	"github.com/veritix/veritix-api/internal/mocks"
	"github.com/veritix/veritix-api/internal/schemas"
	"github.com/veritix/veritix-api/internal/services"
)

func init() {
	logger.InitLogger()
}

const (
	testUserID    = "user_2abc"
	testSchemaUID = "0x1111111111111111111111111111111111111111111111111111111111111111"
	testChainID   = int64(84532)
)

func enabledConfig() db.RelayerConfig {
	return db.RelayerConfig{Enabled: true, GlobalDailyLimit: 10}
}

func enabledChain() db.SupportedChain {
	return db.SupportedChain{ChainID: testChainID, Name: "Base Sepolia", Enabled: true}
}

func enabledSchema() db.AttestationSchema {
	return db.AttestationSchema{
		UID:        testSchemaUID,
		Name:       "ticket-issuance",
		Layout:     "bytes32 eventId,uint64 seat",
		Enabled:    true,
		DailyLimit: pgtype.Int4{Int32: 3, Valid: true},
	}
}

func TestAdmissionService_CheckAdmission_Denials(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		setupMock  func(m *mocks.MockQuerier)
		wantReason services.DenialReason
	}{
		{
			name: "kill switch engaged",
			setupMock: func(m *mocks.MockQuerier) {
				m.EXPECT().GetRelayerConfig(gomock.Any()).
					Return(db.RelayerConfig{Enabled: false, GlobalDailyLimit: 10}, nil)
			},
			wantReason: services.DenialSystemDisabled,
		},
		{
			name: "unknown chain",
			setupMock: func(m *mocks.MockQuerier) {
				m.EXPECT().GetRelayerConfig(gomock.Any()).Return(enabledConfig(), nil)
				m.EXPECT().GetSupportedChain(gomock.Any(), testChainID).
					Return(db.SupportedChain{}, pgx.ErrNoRows)
			},
			wantReason: services.DenialChainNotSupported,
		},
		{
			name: "chain disabled",
			setupMock: func(m *mocks.MockQuerier) {
				m.EXPECT().GetRelayerConfig(gomock.Any()).Return(enabledConfig(), nil)
				chain := enabledChain()
				chain.Enabled = false
				m.EXPECT().GetSupportedChain(gomock.Any(), testChainID).Return(chain, nil)
			},
			wantReason: services.DenialChainNotSupported,
		},
		{
			name: "schema not registered",
			setupMock: func(m *mocks.MockQuerier) {
				m.EXPECT().GetRelayerConfig(gomock.Any()).Return(enabledConfig(), nil)
				m.EXPECT().GetSupportedChain(gomock.Any(), testChainID).Return(enabledChain(), nil)
				m.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).
					Return(db.AttestationSchema{}, pgx.ErrNoRows)
			},
			wantReason: services.DenialSchemaNotSupported,
		},
		{
			name: "schema disabled",
			setupMock: func(m *mocks.MockQuerier) {
				m.EXPECT().GetRelayerConfig(gomock.Any()).Return(enabledConfig(), nil)
				m.EXPECT().GetSupportedChain(gomock.Any(), testChainID).Return(enabledChain(), nil)
				schema := enabledSchema()
				schema.Enabled = false
				m.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).Return(schema, nil)
			},
			wantReason: services.DenialSchemaNotSupported,
		},
		{
			name: "global limit reached",
			setupMock: func(m *mocks.MockQuerier) {
				m.EXPECT().GetRelayerConfig(gomock.Any()).Return(enabledConfig(), nil)
				m.EXPECT().GetSupportedChain(gomock.Any(), testChainID).Return(enabledChain(), nil)
				m.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).Return(enabledSchema(), nil)
				m.EXPECT().IncrementQuotaIfUnder(gomock.Any(), gomock.Any()).
					Return(int32(0), pgx.ErrNoRows)
			},
			wantReason: services.DenialGlobalLimitReached,
		},
		{
			name: "schema limit reached after global increment",
			setupMock: func(m *mocks.MockQuerier) {
				m.EXPECT().GetRelayerConfig(gomock.Any()).Return(enabledConfig(), nil)
				m.EXPECT().GetSupportedChain(gomock.Any(), testChainID).Return(enabledChain(), nil)
				m.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).Return(enabledSchema(), nil)
				gomock.InOrder(
					m.EXPECT().IncrementQuotaIfUnder(gomock.Any(), quotaFor("")).
						Return(int32(4), nil),
					m.EXPECT().IncrementQuotaIfUnder(gomock.Any(), quotaFor(testSchemaUID)).
						Return(int32(0), pgx.ErrNoRows),
				)
			},
			wantReason: services.DenialSchemaLimitReached,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			mockQueries := mocks.NewMockQuerier(ctrl)
			tt.setupMock(mockQueries)

			service := services.NewAdmissionService(mockQueries, schemas.NewRegistry(mockQueries))
			decision, err := service.CheckAdmission(ctx, testUserID, testSchemaUID, testChainID)
			require.NoError(t, err)
			assert.False(t, decision.Allowed)
			assert.Equal(t, tt.wantReason, decision.Reason)
			assert.NotEmpty(t, decision.Message)
		})
	}
}

// quotaFor matches an IncrementQuotaIfUnder call for one counter scope.
func quotaFor(schemaUID string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		params, ok := x.(db.IncrementQuotaIfUnderParams)
		return ok && params.SchemaUID == schemaUID
	})
}

func TestAdmissionService_CheckAdmission_Allow(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockQueries := mocks.NewMockQuerier(ctrl)

	mockQueries.EXPECT().GetRelayerConfig(gomock.Any()).Return(enabledConfig(), nil)
	mockQueries.EXPECT().GetSupportedChain(gomock.Any(), testChainID).Return(enabledChain(), nil)
	mockQueries.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).Return(enabledSchema(), nil)
	mockQueries.EXPECT().IncrementQuotaIfUnder(gomock.Any(), quotaFor("")).Return(int32(5), nil)
	mockQueries.EXPECT().IncrementQuotaIfUnder(gomock.Any(), quotaFor(testSchemaUID)).Return(int32(2), nil)

	service := services.NewAdmissionService(mockQueries, schemas.NewRegistry(mockQueries))
	decision, err := service.CheckAdmission(ctx, testUserID, testSchemaUID, testChainID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, int32(5), decision.GlobalUsed)
	assert.Equal(t, int32(10), decision.GlobalLimit)
	assert.Equal(t, int32(2), decision.SchemaUsed)
	assert.Equal(t, int32(3), decision.SchemaLimit)
}

func TestAdmissionService_SchemaDisableTakesEffect(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockQueries := mocks.NewMockQuerier(ctrl)

	disabled := enabledSchema()
	disabled.Enabled = false

	mockQueries.EXPECT().GetRelayerConfig(gomock.Any()).Return(enabledConfig(), nil).Times(2)
	mockQueries.EXPECT().GetSupportedChain(gomock.Any(), testChainID).Return(enabledChain(), nil).Times(2)
	gomock.InOrder(
		mockQueries.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).Return(enabledSchema(), nil),
		mockQueries.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).Return(disabled, nil),
	)
	mockQueries.EXPECT().IncrementQuotaIfUnder(gomock.Any(), quotaFor("")).Return(int32(1), nil)
	mockQueries.EXPECT().IncrementQuotaIfUnder(gomock.Any(), quotaFor(testSchemaUID)).Return(int32(1), nil)

	service := services.NewAdmissionService(mockQueries, schemas.NewRegistry(mockQueries))

	first, err := service.CheckAdmission(ctx, testUserID, testSchemaUID, testChainID)
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	// Disabling the schema row must deny the very next check, with no
	// restart and no further quota movement.
	second, err := service.CheckAdmission(ctx, testUserID, testSchemaUID, testChainID)
	require.NoError(t, err)
	assert.False(t, second.Allowed)
	assert.Equal(t, services.DenialSchemaNotSupported, second.Reason)
}

func TestAdmissionService_CheckAdmission_ExemptGlobal(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockQueries := mocks.NewMockQuerier(ctrl)

	schema := enabledSchema()
	schema.ExemptGlobal = true
	schema.DailyLimit = pgtype.Int4{Int32: 3, Valid: true}

	mockQueries.EXPECT().GetRelayerConfig(gomock.Any()).Return(enabledConfig(), nil)
	mockQueries.EXPECT().GetSupportedChain(gomock.Any(), testChainID).Return(enabledChain(), nil)
	mockQueries.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).Return(schema, nil)
	// Only the per-schema counter moves; the global counter is untouched.
	mockQueries.EXPECT().IncrementQuotaIfUnder(gomock.Any(), quotaFor(testSchemaUID)).Return(int32(1), nil)

	service := services.NewAdmissionService(mockQueries, schemas.NewRegistry(mockQueries))
	decision, err := service.CheckAdmission(ctx, testUserID, testSchemaUID, testChainID)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Zero(t, decision.GlobalUsed)
	assert.Equal(t, int32(1), decision.SchemaUsed)
}

func TestAdmissionService_WindowIsUTCCalendarDay(t *testing.T) {
	ctx := context.Background()

	// One minute before and after UTC midnight must land in different windows.
	beforeMidnight := time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)
	afterMidnight := time.Date(2026, 9, 1, 0, 1, 0, 0, time.UTC)

	for _, tc := range []struct {
		name    string
		clock   time.Time
		wantDay time.Time
	}{
		{"before midnight", beforeMidnight, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)},
		{"after midnight", afterMidnight, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			mockQueries := mocks.NewMockQuerier(ctrl)

			schema := enabledSchema()
			schema.DailyLimit = pgtype.Int4{}

			var gotDay pgtype.Date
			mockQueries.EXPECT().GetRelayerConfig(gomock.Any()).Return(enabledConfig(), nil)
			mockQueries.EXPECT().GetSupportedChain(gomock.Any(), testChainID).Return(enabledChain(), nil)
			mockQueries.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).Return(schema, nil)
			mockQueries.EXPECT().IncrementQuotaIfUnder(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, params db.IncrementQuotaIfUnderParams) (int32, error) {
					gotDay = params.Day
					return 1, nil
				})

			clock := func() time.Time { return tc.clock }
			service := services.NewAdmissionServiceWithClock(mockQueries, schemas.NewRegistry(mockQueries), clock)

			_, err := service.CheckAdmission(ctx, testUserID, testSchemaUID, testChainID)
			require.NoError(t, err)
			assert.True(t, gotDay.Valid)
			assert.Equal(t, tc.wantDay, gotDay.Time)
		})
	}
}

func TestAdmissionService_CheckAllowance(t *testing.T) {
	ctx := context.Background()

	t.Run("reports usage without incrementing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		mockQueries.EXPECT().GetRelayerConfig(gomock.Any()).Return(enabledConfig(), nil)
		mockQueries.EXPECT().GetSupportedChain(gomock.Any(), testChainID).Return(enabledChain(), nil)
		mockQueries.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).Return(enabledSchema(), nil)
		mockQueries.EXPECT().GetQuotaCount(gomock.Any(), gomock.Any()).Return(int32(4), nil)
		mockQueries.EXPECT().GetQuotaCount(gomock.Any(), gomock.Any()).Return(int32(1), nil)

		service := services.NewAdmissionService(mockQueries, schemas.NewRegistry(mockQueries))
		decision, err := service.CheckAllowance(ctx, testUserID, testSchemaUID, testChainID)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, int32(4), decision.GlobalUsed)
		assert.Equal(t, int32(1), decision.SchemaUsed)
	})

	t.Run("no counter row means zero usage", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		schema := enabledSchema()
		schema.DailyLimit = pgtype.Int4{}

		mockQueries.EXPECT().GetRelayerConfig(gomock.Any()).Return(enabledConfig(), nil)
		mockQueries.EXPECT().GetSupportedChain(gomock.Any(), testChainID).Return(enabledChain(), nil)
		mockQueries.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).Return(schema, nil)
		mockQueries.EXPECT().GetQuotaCount(gomock.Any(), gomock.Any()).Return(int32(0), pgx.ErrNoRows)

		service := services.NewAdmissionService(mockQueries, schemas.NewRegistry(mockQueries))
		decision, err := service.CheckAllowance(ctx, testUserID, testSchemaUID, testChainID)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Zero(t, decision.GlobalUsed)
	})

	t.Run("at the limit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockQueries := mocks.NewMockQuerier(ctrl)

		mockQueries.EXPECT().GetRelayerConfig(gomock.Any()).Return(enabledConfig(), nil)
		mockQueries.EXPECT().GetSupportedChain(gomock.Any(), testChainID).Return(enabledChain(), nil)
		mockQueries.EXPECT().GetAttestationSchema(gomock.Any(), testSchemaUID).Return(enabledSchema(), nil)
		mockQueries.EXPECT().GetQuotaCount(gomock.Any(), gomock.Any()).Return(int32(10), nil)

		service := services.NewAdmissionService(mockQueries, schemas.NewRegistry(mockQueries))
		decision, err := service.CheckAllowance(ctx, testUserID, testSchemaUID, testChainID)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, services.DenialGlobalLimitReached, decision.Reason)
		assert.Equal(t, int32(10), decision.GlobalUsed)
	})
}

// quotaStore is an in-memory Querier covering only what CheckAdmission touches,
// with the same compare-and-increment atomicity the SQL statement provides.
// Both statement arms are modeled: a counter only moves while below the
// limit, including the day's first increment.
type quotaStore struct {
	db.Querier

	mu          sync.Mutex
	counts      map[string]int32
	limit       int32
	schemaLimit pgtype.Int4
}

func (f *quotaStore) GetRelayerConfig(context.Context) (db.RelayerConfig, error) {
	return db.RelayerConfig{Enabled: true, GlobalDailyLimit: f.limit}, nil
}

func (f *quotaStore) GetSupportedChain(_ context.Context, chainID int64) (db.SupportedChain, error) {
	return db.SupportedChain{ChainID: chainID, Name: "test", Enabled: true}, nil
}

func (f *quotaStore) GetAttestationSchema(_ context.Context, uid string) (db.AttestationSchema, error) {
	return db.AttestationSchema{
		UID:        uid,
		Name:       "ticket-issuance",
		Layout:     "bytes32 eventId",
		Enabled:    true,
		DailyLimit: f.schemaLimit,
	}, nil
}

func (f *quotaStore) IncrementQuotaIfUnder(_ context.Context, params db.IncrementQuotaIfUnderParams) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := params.UserID + "|" + params.SchemaUID
	if f.counts[key] >= params.Limit {
		return 0, pgx.ErrNoRows
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *quotaStore) count(userID, schemaUID string) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[userID+"|"+schemaUID]
}

func TestAdmissionService_ZeroLimitAdmitsNothing(t *testing.T) {
	ctx := context.Background()

	t.Run("zero global limit denies the day's first request", func(t *testing.T) {
		store := &quotaStore{counts: map[string]int32{}, limit: 0}
		service := services.NewAdmissionService(store, schemas.NewRegistry(store))

		decision, err := service.CheckAdmission(ctx, testUserID, testSchemaUID, testChainID)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, services.DenialGlobalLimitReached, decision.Reason)
		assert.Zero(t, store.count(testUserID, ""), "no counter row may appear for a zero limit")
	})

	t.Run("zero schema limit denies after the global spend", func(t *testing.T) {
		store := &quotaStore{
			counts:      map[string]int32{},
			limit:       10,
			schemaLimit: pgtype.Int4{Int32: 0, Valid: true},
		}
		service := services.NewAdmissionService(store, schemas.NewRegistry(store))

		decision, err := service.CheckAdmission(ctx, testUserID, testSchemaUID, testChainID)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, services.DenialSchemaLimitReached, decision.Reason)
		assert.Zero(t, store.count(testUserID, testSchemaUID))
		assert.Equal(t, int32(1), store.count(testUserID, ""), "the global increment stands")
	})
}

func TestAdmissionService_ConcurrentLastSlot(t *testing.T) {
	store := &quotaStore{counts: map[string]int32{testUserID + "|": 9}, limit: 10}
	service := services.NewAdmissionService(store, schemas.NewRegistry(store))

	const racers = 16
	var wg sync.WaitGroup
	allowed := make(chan bool, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := service.CheckAdmission(context.Background(), testUserID, testSchemaUID, testChainID)
			if err == nil {
				allowed <- decision.Allowed
			}
		}()
	}
	wg.Wait()
	close(allowed)

	var wins int
	for ok := range allowed {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one racer may take the last quota slot")
}
