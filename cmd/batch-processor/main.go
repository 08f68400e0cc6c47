package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	awsclient "github.com/veritix/veritix-api/internal/client/aws"
	"github.com/veritix/veritix-api/internal/config"
	"github.com/veritix/veritix-api/internal/db"
	"github.com/veritix/veritix-api/internal/logger"
	"github.com/veritix/veritix-api/internal/schemas"
	"github.com/veritix/veritix-api/internal/services"
)

// Application holds the batch processor dependencies.
type Application struct {
	relayer *services.RelayerService
	logger  *zap.Logger
}

// BatchMessage is one queued unit of work: submit every pending attestation
// for a business context (an event's check-in window, a ticket drop).
type BatchMessage struct {
	ContextID string `json:"context_id"`
}

func main() {
	logger.InitLogger()
	defer logger.Sync()

	app, err := createApplication(context.Background())
	if err != nil {
		logger.Fatal("Failed to create application", zap.Error(err))
	}

	lambda.Start(app.handleSQSEvent)
}

func createApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database connection string: %w", err)
	}
	poolConfig.MaxConns = 5
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	queries := db.New(pool)

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC_URL environment variable is required")
	}
	ledger, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to JSON-RPC endpoint: %w", err)
	}

	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("ATTESTATION_CONTRACT_ADDRESS is not a valid address")
	}
	contract := common.HexToAddress(cfg.ContractAddress)

	relayerKeyHex := cfg.RelayerKeyHex
	if secrets, err := awsclient.NewSecretsManagerClient(ctx); err == nil {
		if key, err := secrets.GetSecretString(ctx, "RELAYER_KEY_SECRET_ARN", "RELAYER_PRIVATE_KEY"); err == nil {
			relayerKeyHex = key
		}
	}
	if relayerKeyHex == "" {
		return nil, fmt.Errorf("relayer signing key is required")
	}
	relayerKey, err := crypto.HexToECDSA(strings.TrimPrefix(relayerKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid relayer signing key: %w", err)
	}

	executor, err := services.ResolveExecutor(cfg.EASArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("unable to construct attestation executor: %w", err)
	}

	registry := schemas.NewRegistry(queries)

	var alertTo []string
	if cfg.AlertToEmail != "" {
		alertTo = strings.Split(cfg.AlertToEmail, ",")
		for i := range alertTo {
			alertTo[i] = strings.TrimSpace(alertTo[i])
		}
	}
	alerts := services.NewAlertService(cfg.ResendAPIKey, cfg.AlertFromEmail, alertTo)
	rates := services.NewExchangeRateService(cfg.ExchangeRateURL)
	activity := services.NewActivityService(queries, rates, alerts, cfg.HighCostUsdCents)
	requests := services.NewRequestService(queries, registry, contract)
	admission := services.NewAdmissionService(queries, registry)

	relayer := services.NewRelayerService(services.RelayerServiceParams{
		Queries:     queries,
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

	return &Application{relayer: relayer, logger: logger.Log}, nil
}

// handleSQSEvent processes queued batch submissions. A message that fails in
// a retryable way is reported as a batch item failure so SQS redelivers only
// that message.
func (app *Application) handleSQSEvent(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	var failures []events.SQSBatchItemFailure

	for _, record := range event.Records {
		if err := app.processRecord(ctx, record); err != nil {
			app.logger.Error("Batch message processing failed",
				zap.String("message_id", record.MessageId),
				zap.Error(err),
			)
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}

	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

func (app *Application) processRecord(ctx context.Context, record events.SQSMessage) error {
	var msg BatchMessage
	if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
		// Malformed messages would fail forever; drop them.
		app.logger.Error("Dropping malformed batch message",
			zap.String("message_id", record.MessageId),
			zap.String("body", record.Body),
			zap.Error(err),
		)
		return nil
	}

	contextID, err := uuid.Parse(msg.ContextID)
	if err != nil {
		app.logger.Error("Dropping batch message with invalid context id",
			zap.String("message_id", record.MessageId),
			zap.String("context_id", msg.ContextID),
		)
		return nil
	}

	start := time.Now()
	result, err := app.relayer.SubmitBatch(ctx, contextID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoPendingRequests):
			// Already drained by an earlier delivery or the HTTP path.
			app.logger.Info("No pending requests for context",
				zap.String("context_id", contextID.String()),
			)
			return nil
		case errors.Is(err, services.ErrSubmissionTimedOut):
			// The tx is in flight; redelivery must not resubmit it. The
			// items sit in submitted until reconciliation settles them.
			app.logger.Error("Batch confirmation timed out, leaving for reconciliation",
				zap.String("context_id", contextID.String()),
			)
			return nil
		default:
			return err
		}
	}

	confirmed, failed := 0, 0
	for _, item := range result.Items {
		switch item.Status {
		case "confirmed":
			confirmed++
		case "failed":
			failed++
		}
	}
	app.logger.Info("Processed attestation batch",
		zap.String("context_id", contextID.String()),
		zap.String("tx_hash", result.TxHash),
		zap.Int("confirmed", confirmed),
		zap.Int("failed", failed),
		zap.Int("total", len(result.Items)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
