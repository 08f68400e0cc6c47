package services

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/veritix/veritix-api/internal/db"
	"github.com/veritix/veritix-api/internal/eip712"
	"github.com/veritix/veritix-api/internal/logger"
)

// LedgerClient is the subset of the JSON-RPC client the engine needs.
// Satisfied by *ethclient.Client.
type LedgerClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// SubmissionResult is the outcome of one single-request submission.
type SubmissionResult struct {
	RequestID      uuid.UUID
	Status         db.RequestStatus
	TxHash         string
	AttestationUID string
}

// ItemOutcome is the per-item result of a batch submission, in assembly order.
type ItemOutcome struct {
	RequestID      uuid.UUID
	Status         string // confirmed, failed, rejected, submitted
	AttestationUID string
	Reason         string
}

// BatchResult is the explicit per-item outcome list of one batch call.
type BatchResult struct {
	ContextID uuid.UUID
	TxHash    string
	Items     []ItemOutcome
}

const (
	itemOutcomeConfirmed = "confirmed"
	itemOutcomeFailed    = "failed"
	itemOutcomeRejected  = "rejected"
	itemOutcomeSubmitted = "submitted"
)

// RelayerServiceParams bundles the engine's dependencies.
type RelayerServiceParams struct {
	Queries     db.Querier
	Requests    *RequestService
	Admission   *AdmissionService
	Activity    *ActivityService
	Alerts      *AlertService
	Executor    AttestationExecutor
	Ledger      LedgerClient
	RelayerKey  *ecdsa.PrivateKey
	Contract    common.Address
	ChainID     int64
	LowBalance  *big.Int
	Timeout     time.Duration
	PollEvery   time.Duration
	RPCRequests int
}

// RelayerService submits delegated attestations with the platform's relayer
// credential and reconciles their on-chain outcome. It is the sole writer of
// request state transitions past pending and of execution outcomes.
type RelayerService struct {
	queries    db.Querier
	requests   *RequestService
	admission  *AdmissionService
	activity   *ActivityService
	alerts     *AlertService
	executor   AttestationExecutor
	ledger     LedgerClient
	relayerKey *ecdsa.PrivateKey
	relayer    common.Address
	contract   common.Address
	chainID    *big.Int
	lowBalance *big.Int
	timeout    time.Duration
	pollEvery  time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger

	// The relayer credential requires sequential nonces: fetch-sign-send is
	// serialized, receipt waiting is not.
	nonceMu sync.Mutex
}

// NewRelayerService creates the execution engine.
func NewRelayerService(p RelayerServiceParams) *RelayerService {
	rps := p.RPCRequests
	if rps <= 0 {
		rps = 10
	}
	return &RelayerService{
		queries:    p.Queries,
		requests:   p.Requests,
		admission:  p.Admission,
		activity:   p.Activity,
		alerts:     p.Alerts,
		executor:   p.Executor,
		ledger:     p.Ledger,
		relayerKey: p.RelayerKey,
		relayer:    crypto.PubkeyToAddress(p.RelayerKey.PublicKey),
		contract:   p.Contract,
		chainID:    big.NewInt(p.ChainID),
		lowBalance: p.LowBalance,
		timeout:    p.Timeout,
		pollEvery:  p.PollEvery,
		limiter:    rate.NewLimiter(rate.Limit(rps), rps),
		logger:     logger.Log,
	}
}

// SubmitSingle executes one stored delegation end to end: preflight
// re-validation, admission, on-chain submission, receipt wait, event decode,
// outcome persistence.
func (s *RelayerService) SubmitSingle(ctx context.Context, requestID uuid.UUID) (*SubmissionResult, error) {
	req, err := s.queries.GetDelegationRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch req.Status {
	case db.RequestStatusPending:
	case db.RequestStatusSubmitted:
		return nil, ErrAlreadySubmitted
	default:
		return nil, fmt.Errorf("%w: request %s is %s", ErrInvalidTransition, requestID, req.Status)
	}

	if err := s.preflight(ctx, req); err != nil {
		return nil, err
	}

	decision, err := s.admission.CheckAdmission(ctx, req.UserID, req.SchemaUID, req.ChainID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		s.maybeAlertLimit(req.UserID, decision)
		return nil, &AdmissionDeniedError{Decision: decision}
	}

	args, value, err := toContractRequest(req)
	if err != nil {
		return nil, err
	}
	calldata, err := s.executor.AttestCalldata(args)
	if err != nil {
		return nil, err
	}

	tx, err := s.sendCalldata(ctx, calldata, value)
	if err != nil {
		return nil, err
	}
	txHash := tx.Hash().Hex()

	if err := s.requests.MarkSubmitted(ctx, req.ID, txHash); err != nil {
		return nil, err
	}
	s.logger.Info("Submitted delegated attestation",
		zap.String("request_id", req.ID.String()),
		zap.String("tx_hash", txHash),
		zap.String("executor", s.executor.Name()),
	)

	receipt, err := s.waitForReceipt(ctx, tx.Hash())
	if err != nil {
		if errors.Is(err, ErrSubmissionTimedOut) {
			// Ambiguous outcome: report loudly, leave the request submitted
			// for reconciliation. Never blind-retry an unconfirmed tx.
			s.logger.Error("Submission timed out awaiting receipt",
				zap.String("request_id", req.ID.String()),
				zap.String("tx_hash", txHash),
			)
		}
		return nil, err
	}

	if receipt.Status == types.ReceiptStatusFailed {
		if resetErr := s.requests.ResetToPending(ctx, req.ID); resetErr != nil {
			s.logger.Error("Failed to reset reverted request", zap.Error(resetErr))
		}
		return nil, fmt.Errorf("%w: tx %s", ErrSubmissionReverted, txHash)
	}

	uid := s.extractAttestationUID(receipt, req)
	if err := s.requests.MarkConfirmed(ctx, req.ID, uid); err != nil {
		return nil, err
	}
	s.recordOutcome(ctx, req, receipt, uid, receipt.GasUsed)
	s.checkRelayerBalance(ctx)

	return &SubmissionResult{
		RequestID:      req.ID,
		Status:         db.RequestStatusConfirmed,
		TxHash:         txHash,
		AttestationUID: uid,
	}, nil
}

// SubmitBatch assembles every pending request for one business context into a
// single multiAttestByDelegation call. Items are submitted and decoded in
// assembly order; one skipped item fails individually without corrupting its
// siblings.
func (s *RelayerService) SubmitBatch(ctx context.Context, contextID uuid.UUID) (*BatchResult, error) {
	items, err := s.requests.ListPendingForContext(ctx, contextID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoPendingRequests
	}

	result := &BatchResult{ContextID: contextID, Items: make([]ItemOutcome, len(items))}

	var (
		included []int
		args     []DelegatedAttestationRequest
		total    = big.NewInt(0)
	)
	for i, req := range items {
		result.Items[i] = ItemOutcome{RequestID: req.ID}

		if req.ChainID != s.chainID.Int64() {
			result.Items[i].Status = itemOutcomeRejected
			result.Items[i].Reason = fmt.Sprintf("request targets chain %d", req.ChainID)
			continue
		}
		if err := s.preflight(ctx, req); err != nil {
			if errors.Is(err, ErrExpiredDeadline) || errors.Is(err, ErrInvalidSignature) {
				result.Items[i].Status = itemOutcomeFailed
				result.Items[i].Reason = err.Error()
			} else {
				return nil, err
			}
			continue
		}

		decision, err := s.admission.CheckAdmission(ctx, req.UserID, req.SchemaUID, req.ChainID)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			// Rejected, not failed: the request stays pending and becomes
			// eligible again when the quota window resets.
			s.maybeAlertLimit(req.UserID, decision)
			result.Items[i].Status = itemOutcomeRejected
			result.Items[i].Reason = decision.Message
			continue
		}

		arg, value, err := toContractRequest(req)
		if err != nil {
			result.Items[i].Status = itemOutcomeFailed
			result.Items[i].Reason = err.Error()
			if markErr := s.requests.MarkFailed(ctx, req.ID, err.Error()); markErr != nil {
				s.logger.Error("Failed to mark malformed batch item", zap.Error(markErr))
			}
			continue
		}

		included = append(included, i)
		args = append(args, arg)
		total = total.Add(total, value)
	}

	if len(included) == 0 {
		return result, nil
	}

	calldata, err := s.executor.MultiAttestCalldata(args)
	if err != nil {
		return nil, err
	}

	tx, err := s.sendCalldata(ctx, calldata, total)
	if err != nil {
		// Nothing was sent; every included item is still pending and
		// eligible for resubmission, individually or in a smaller batch.
		return nil, err
	}
	result.TxHash = tx.Hash().Hex()

	for _, i := range included {
		if err := s.requests.MarkSubmitted(ctx, items[i].ID, result.TxHash); err != nil {
			s.logger.Error("Failed to mark batch item submitted", zap.Error(err))
		}
		result.Items[i].Status = itemOutcomeSubmitted
	}
	s.logger.Info("Submitted attestation batch",
		zap.String("context_id", contextID.String()),
		zap.String("tx_hash", result.TxHash),
		zap.Int("items", len(included)),
	)

	receipt, err := s.waitForReceipt(ctx, tx.Hash())
	if err != nil {
		if errors.Is(err, ErrSubmissionTimedOut) {
			s.logger.Error("Batch submission timed out awaiting receipt",
				zap.String("context_id", contextID.String()),
				zap.String("tx_hash", result.TxHash),
			)
		}
		return result, err
	}

	if receipt.Status == types.ReceiptStatusFailed {
		// Whole-call revert before execution: no sub-item succeeded; all
		// return to pending.
		for _, i := range included {
			if resetErr := s.requests.ResetToPending(ctx, items[i].ID); resetErr != nil {
				s.logger.Error("Failed to reset reverted batch item", zap.Error(resetErr))
			}
			result.Items[i].Status = itemOutcomeRejected
			result.Items[i].Reason = "batch reverted on-chain"
		}
		return result, fmt.Errorf("%w: tx %s", ErrSubmissionReverted, result.TxHash)
	}

	s.resolveBatchOutcomes(ctx, items, included, receipt, result)
	s.checkRelayerBalance(ctx)
	return result, nil
}

// resolveBatchOutcomes correlates emitted Attested events back onto the
// ordered request list. Events are consumed in log order; a request whose
// next-in-line event does not correlate (schema + recipient) was skipped by
// the contract and is failed individually. The (schema, recipient) match is
// not unique within a batch, so correlation relies on multiAttestByDelegation
// emitting one event per item in calldata order; items are sent in the same
// order they were assembled.
func (s *RelayerService) resolveBatchOutcomes(ctx context.Context, items []db.DelegationRequest, included []int, receipt *types.Receipt, result *BatchResult) {
	var events []*AttestedEvent
	for _, lg := range receipt.Logs {
		if lg.Address != s.contract || len(lg.Topics) == 0 || lg.Topics[0] != s.executor.AttestedTopic() {
			continue
		}
		ev, err := s.executor.DecodeAttested(*lg)
		if err != nil {
			s.logger.Warn("Failed to decode Attested emission",
				zap.String("tx_hash", result.TxHash),
				zap.Error(err),
			)
			continue
		}
		events = append(events, ev)
	}

	gasShare := receipt.GasUsed
	if len(included) > 0 {
		gasShare = receipt.GasUsed / uint64(len(included))
	}

	cursor := 0
	for _, i := range included {
		req := items[i]
		var uid string

		if cursor < len(events) &&
			events[cursor].SchemaUID == common.HexToHash(req.SchemaUID) &&
			events[cursor].Recipient == common.HexToAddress(req.Recipient) {
			uid = events[cursor].UID.Hex()
			cursor++
		}

		if uid != "" {
			if err := s.requests.MarkConfirmed(ctx, req.ID, uid); err != nil {
				s.logger.Error("Failed to confirm batch item", zap.Error(err))
			}
			result.Items[i].Status = itemOutcomeConfirmed
			result.Items[i].AttestationUID = uid
		} else {
			if err := s.requests.MarkFailed(ctx, req.ID, "skipped on-chain"); err != nil {
				s.logger.Error("Failed to fail skipped batch item", zap.Error(err))
			}
			result.Items[i].Status = itemOutcomeFailed
			result.Items[i].Reason = "skipped on-chain"
		}
		s.recordOutcome(ctx, req, receipt, uid, gasShare)
	}
}

// Reconcile queries the ledger for the actual fate of a submitted request.
// This is the only recovery path for stuck or timed-out submissions; it never
// resubmits anything itself.
func (s *RelayerService) Reconcile(ctx context.Context, requestID uuid.UUID) (*SubmissionResult, error) {
	req, err := s.queries.GetDelegationRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	result := &SubmissionResult{RequestID: req.ID, Status: req.Status}
	if req.TxHash.Valid {
		result.TxHash = req.TxHash.String
	}
	if req.AttestationUID.Valid {
		result.AttestationUID = req.AttestationUID.String
	}
	if req.Status != db.RequestStatusSubmitted {
		return result, nil
	}
	if !req.TxHash.Valid {
		return nil, fmt.Errorf("submitted request %s has no transaction hash", requestID)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	receipt, err := s.ledger.TransactionReceipt(ctx, common.HexToHash(req.TxHash.String))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			// Still in flight (or dropped); report as not yet confirmed.
			return result, nil
		}
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		if err := s.requests.ResetToPending(ctx, req.ID); err != nil {
			return nil, err
		}
		result.Status = db.RequestStatusPending
		return result, nil
	}

	uid := s.extractAttestationUID(receipt, req)
	if err := s.requests.MarkConfirmed(ctx, req.ID, uid); err != nil {
		return nil, err
	}
	s.recordOutcome(ctx, req, receipt, uid, receipt.GasUsed)

	result.Status = db.RequestStatusConfirmed
	result.AttestationUID = uid
	return result, nil
}

// preflight re-validates deadline and signature immediately before
// submission. Defense in depth: the store validated at intake, but content
// could have been corrupted since, and deadlines elapse.
func (s *RelayerService) preflight(ctx context.Context, req db.DelegationRequest) error {
	if req.DeadlineUnix <= time.Now().Unix() {
		if err := s.requests.MarkFailed(ctx, req.ID, "deadline elapsed before submission"); err != nil {
			s.logger.Error("Failed to mark expired request", zap.Error(err))
		}
		return ErrExpiredDeadline
	}

	value, ok := new(big.Int).SetString(req.ValueWei, 10)
	if !ok {
		return fmt.Errorf("request %s has malformed value %q", req.ID, req.ValueWei)
	}

	var refUID common.Hash
	if req.RefUID.Valid {
		refUID = common.HexToHash(req.RefUID.String)
	}
	digest, err := eip712.HashDelegatedAttestation(eip712.DelegatedAttestation{
		SchemaUID:         common.HexToHash(req.SchemaUID),
		Recipient:         common.HexToAddress(req.Recipient),
		Payload:           req.Payload,
		RefUID:            refUID,
		Deadline:          uint64(req.DeadlineUnix),
		Value:             value,
		ChainID:           req.ChainID,
		VerifyingContract: s.contract,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	sig := eip712.Signature{V: uint8(req.SignatureV)}
	copy(sig.R[:], common.HexToHash(req.SignatureR).Bytes())
	copy(sig.S[:], common.HexToHash(req.SignatureS).Bytes())

	if err := eip712.VerifySigner(digest, sig, common.HexToAddress(req.Signer)); err != nil {
		if markErr := s.requests.MarkFailed(ctx, req.ID, "signature verification failed"); markErr != nil {
			s.logger.Error("Failed to mark invalid-signature request", zap.Error(markErr))
		}
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

// sendCalldata serializes nonce assignment and dispatch for the single
// relayer credential. Receipt waiting happens outside the lock so the next
// submission can be prepared while earlier ones confirm.
func (s *RelayerService) sendCalldata(ctx context.Context, calldata []byte, value *big.Int) (*types.Transaction, error) {
	s.nonceMu.Lock()
	defer s.nonceMu.Unlock()

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	nonce, err := s.ledger.PendingNonceAt(ctx, s.relayer)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch relayer nonce: %w", err)
	}
	gasPrice, err := s.ledger.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %w", err)
	}
	gasLimit, err := s.ledger.EstimateGas(ctx, ethereum.CallMsg{
		From:  s.relayer,
		To:    &s.contract,
		Value: value,
		Data:  calldata,
	})
	if err != nil {
		// Estimation failure almost always means the call would revert.
		return nil, fmt.Errorf("%w: gas estimation failed: %v", ErrSubmissionReverted, err)
	}
	gasLimit = gasLimit * 120 / 100

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &s.contract,
		Value:    value,
		Data:     calldata,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.relayerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := s.ledger.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	return signed, nil
}

// waitForReceipt polls for a terminal receipt with exponential backoff,
// bounded by the operator-configured submit timeout.
func (s *RelayerService) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var receipt *types.Receipt
	operation := func() error {
		if err := s.limiter.Wait(waitCtx); err != nil {
			return backoff.Permanent(err)
		}
		r, err := s.ledger.TransactionReceipt(waitCtx, txHash)
		if err != nil {
			return fmt.Errorf("receipt not available: %w", err)
		}
		receipt = r
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.pollEvery
	eb.MaxInterval = 15 * time.Second
	eb.MaxElapsedTime = s.timeout

	if err := backoff.Retry(operation, backoff.WithContext(eb, waitCtx)); err != nil {
		if waitCtx.Err() != nil || errors.Is(err, ethereum.NotFound) {
			return nil, ErrSubmissionTimedOut
		}
		return nil, err
	}
	return receipt, nil
}

// extractAttestationUID pulls the resulting record id out of the receipt's
// Attested emission. Decode failure is reported, not fatal: the on-chain
// effect already happened.
func (s *RelayerService) extractAttestationUID(receipt *types.Receipt, req db.DelegationRequest) string {
	for _, lg := range receipt.Logs {
		if lg.Address != s.contract || len(lg.Topics) == 0 || lg.Topics[0] != s.executor.AttestedTopic() {
			continue
		}
		ev, err := s.executor.DecodeAttested(*lg)
		if err != nil {
			s.logger.Warn("Attested emission had unexpected shape, outcome recorded without uid",
				zap.String("request_id", req.ID.String()),
				zap.String("tx_hash", receipt.TxHash.Hex()),
				zap.Error(err),
			)
			return ""
		}
		return ev.UID.Hex()
	}

	s.logger.Warn("No Attested emission found in receipt, outcome recorded without uid",
		zap.String("request_id", req.ID.String()),
		zap.String("tx_hash", receipt.TxHash.Hex()),
	)
	return ""
}

func (s *RelayerService) recordOutcome(ctx context.Context, req db.DelegationRequest, receipt *types.Receipt, uid string, gasUsed uint64) {
	costWei := big.NewInt(0)
	if receipt.EffectiveGasPrice != nil {
		costWei = new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), receipt.EffectiveGasPrice)
	}
	if err := s.activity.RecordOutcome(ctx, RecordOutcomeParams{
		Request:        req,
		GasUsed:        gasUsed,
		GasCostWei:     costWei,
		TxHash:         receipt.TxHash.Hex(),
		AttestationUID: uid,
	}); err != nil {
		// The on-chain effect happened; losing the audit row is reported
		// loudly but cannot fail the submission.
		s.logger.Error("Failed to record execution outcome",
			zap.String("request_id", req.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *RelayerService) maybeAlertLimit(userID string, decision *AdmissionDecision) {
	if decision.Reason == DenialGlobalLimitReached || decision.Reason == DenialSchemaLimitReached {
		s.alerts.NotifyLimitReached(userID, decision.Message)
	}
}

func (s *RelayerService) checkRelayerBalance(ctx context.Context) {
	if s.lowBalance == nil {
		return
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}
	balance, err := s.ledger.BalanceAt(ctx, s.relayer, nil)
	if err != nil {
		s.logger.Warn("Failed to check relayer balance", zap.Error(err))
		return
	}
	if balance.Cmp(s.lowBalance) < 0 {
		s.logger.Warn("Relayer balance below threshold",
			zap.String("relayer", s.relayer.Hex()),
			zap.String("balance_wei", balance.String()),
			zap.String("threshold_wei", s.lowBalance.String()),
		)
		s.alerts.NotifyLowBalance(s.relayer.Hex(), balance, s.lowBalance)
	}
}

// toContractRequest maps a stored request onto the contract argument tuple.
func toContractRequest(req db.DelegationRequest) (DelegatedAttestationRequest, *big.Int, error) {
	value, ok := new(big.Int).SetString(req.ValueWei, 10)
	if !ok {
		return DelegatedAttestationRequest{}, nil, fmt.Errorf("request %s has malformed value %q", req.ID, req.ValueWei)
	}

	var refUID [32]byte
	if req.RefUID.Valid {
		copy(refUID[:], common.HexToHash(req.RefUID.String).Bytes())
	}

	arg := DelegatedAttestationRequest{
		Schema: common.HexToHash(req.SchemaUID),
		Data: AttestationData{
			Recipient:      common.HexToAddress(req.Recipient),
			ExpirationTime: 0,
			Revocable:      true,
			RefUID:         refUID,
			Data:           req.Payload,
			Value:          value,
		},
		Signature: SignatureTuple{
			V: uint8(req.SignatureV),
			R: common.HexToHash(req.SignatureR),
			S: common.HexToHash(req.SignatureS),
		},
		Attester: common.HexToAddress(req.Signer),
		Deadline: uint64(req.DeadlineUnix),
	}
	return arg, value, nil
}
