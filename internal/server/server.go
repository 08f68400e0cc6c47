package server

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/veritix/veritix-api/docs"
	"github.com/veritix/veritix-api/internal/auth"
	awsclient "github.com/veritix/veritix-api/internal/client/aws"
	"github.com/veritix/veritix-api/internal/config"
	"github.com/veritix/veritix-api/internal/db"
	"github.com/veritix/veritix-api/internal/handlers"
	"github.com/veritix/veritix-api/internal/logger"
	"github.com/veritix/veritix-api/internal/middleware"
	"github.com/veritix/veritix-api/internal/schemas"
	"github.com/veritix/veritix-api/internal/services"
)

var (
	attestationHandler *handlers.AttestationHandler
	activityHandler    *handlers.ActivityHandler
	schemaHandler      *handlers.SchemaHandler
	healthHandler      *handlers.HealthHandler
	authClient         *auth.Client

	dbQueries *db.Queries
)

// InitializeHandlers wires configuration, storage, the ledger client and the
// service layer. It fails fast: a deployment that cannot reach its database
// or load its signing key never starts serving.
func InitializeHandlers() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Unable to parse database connection string", zap.Error(err))
	}
	poolConfig.MaxConns = 20
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	connPool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Fatal("Unable to create connection pool", zap.Error(err))
	}
	dbQueries = db.New(connPool)

	if cfg.RPCURL == "" {
		logger.Fatal("RPC_URL environment variable is required")
	}
	ledger, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		logger.Fatal("Unable to connect to JSON-RPC endpoint", zap.Error(err))
	}

	if !common.IsHexAddress(cfg.ContractAddress) {
		logger.Fatal("ATTESTATION_CONTRACT_ADDRESS is not a valid address")
	}
	contract := common.HexToAddress(cfg.ContractAddress)

	relayerKeyHex := cfg.RelayerKeyHex
	if secrets, err := awsclient.NewSecretsManagerClient(context.Background()); err == nil {
		if key, err := secrets.GetSecretString(context.Background(), "RELAYER_KEY_SECRET_ARN", "RELAYER_PRIVATE_KEY"); err == nil {
			relayerKeyHex = key
		}
	} else {
		logger.Warn("Secrets Manager unavailable, using environment key", zap.Error(err))
	}
	if relayerKeyHex == "" {
		logger.Fatal("Relayer signing key is required (RELAYER_KEY_SECRET_ARN or RELAYER_PRIVATE_KEY)")
	}
	relayerKey, err := crypto.HexToECDSA(strings.TrimPrefix(relayerKeyHex, "0x"))
	if err != nil {
		logger.Fatal("Invalid relayer signing key", zap.Error(err))
	}

	executor, err := services.ResolveExecutor(cfg.EASArtifactPath)
	if err != nil {
		logger.Fatal("Unable to construct attestation executor", zap.Error(err))
	}

	registry := schemas.NewRegistry(dbQueries)
	if err := registry.Warm(context.Background()); err != nil {
		logger.Warn("Schema registry warm-up failed, compiling lazily", zap.Error(err))
	}

	var alertTo []string
	if cfg.AlertToEmail != "" {
		alertTo = strings.Split(cfg.AlertToEmail, ",")
		for i := range alertTo {
			alertTo[i] = strings.TrimSpace(alertTo[i])
		}
	}
	alerts := services.NewAlertService(cfg.ResendAPIKey, cfg.AlertFromEmail, alertTo)
	rates := services.NewExchangeRateService(cfg.ExchangeRateURL)
	activity := services.NewActivityService(dbQueries, rates, alerts, cfg.HighCostUsdCents)
	requests := services.NewRequestService(dbQueries, registry, contract)
	admission := services.NewAdmissionService(dbQueries, registry)
	relayer := services.NewRelayerService(services.RelayerServiceParams{
		Queries:     dbQueries,
		Requests:    requests,
		Admission:   admission,
		Activity:    activity,
		Alerts:      alerts,
		Executor:    executor,
		Ledger:      ledger,
		RelayerKey:  relayerKey,
		Contract:    contract,
		ChainID:     cfg.ChainID,
		LowBalance:  cfg.RelayerLowBalanceWei,
		Timeout:     cfg.SubmitTimeout,
		PollEvery:   cfg.ReceiptPollInterval,
		RPCRequests: cfg.RPCRequestsPerSecond,
	})

	commonServices := handlers.NewCommonServices(dbQueries, registry, requests, admission, relayer, activity)

	attestationHandler = handlers.NewAttestationHandler(commonServices)
	activityHandler = handlers.NewActivityHandler(commonServices)
	schemaHandler = handlers.NewSchemaHandler(commonServices)
	healthHandler = handlers.NewHealthHandler()
	authClient = auth.NewClient(cfg.JWKSEndpoint, cfg.JWTIssuer, cfg.JWTAudience)
}

// InitializeRoutes registers middleware and the API surface on the router.
func InitializeRoutes(router *gin.Engine) {
	logger.InitLogger()

	router.Use(configureCORS())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", healthHandler.Health)

	readLimiter := middleware.NewRateLimiter(100, 200)
	submitLimiter := middleware.NewRateLimiter(10, 20)

	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("/")
		protected.Use(authClient.EnsureValidToken())
		{
			attestations := protected.Group("/attestations")
			{
				attestations.POST("", submitLimiter.Middleware(), attestationHandler.CreateAttestation)
				attestations.GET("/allowance", readLimiter.Middleware(), attestationHandler.GetAllowance)
				attestations.GET("/:request_id", readLimiter.Middleware(), attestationHandler.GetAttestation)
				attestations.POST("/:request_id/submit", submitLimiter.Middleware(), attestationHandler.SubmitAttestation)
				attestations.POST("/contexts/:context_id/submit", submitLimiter.Middleware(), attestationHandler.SubmitContext)

				// Reconciliation settles stuck submissions; operators only.
				attestations.POST("/:request_id/reconcile",
					auth.RequireRole(auth.RoleOperator),
					attestationHandler.ReconcileAttestation,
				)
			}

			activity := protected.Group("/activity")
			activity.Use(readLimiter.Middleware())
			{
				activity.GET("", activityHandler.ListActivity)
				activity.GET("/usage", activityHandler.GetDailyUsage)
			}

			protected.GET("/schemas", readLimiter.Middleware(), schemaHandler.ListSchemas)
		}
	}
}

// configureCORS returns a configured CORS middleware.
func configureCORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		origins := strings.Split(originsEnv, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		corsConfig.AllowOrigins = origins
	}

	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = os.Getenv("CORS_ALLOW_CREDENTIALS") == "true"

	return cors.New(corsConfig)
}
