package services

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/veritix/veritix-api/internal/logger"
)

// AttestationData is the inner request tuple of a delegated attestation call.
// Field order and types mirror the contract ABI exactly.
type AttestationData struct {
	Recipient      common.Address
	ExpirationTime uint64
	Revocable      bool
	RefUID         [32]byte
	Data           []byte
	Value          *big.Int
}

// SignatureTuple is the contract-side (v, r, s) representation.
type SignatureTuple struct {
	V uint8
	R [32]byte
	S [32]byte
}

// DelegatedAttestationRequest is the full argument tuple for
// attestByDelegation / one element of multiAttestByDelegation.
type DelegatedAttestationRequest struct {
	Schema    [32]byte
	Data      AttestationData
	Signature SignatureTuple
	Attester  common.Address
	Deadline  uint64
}

// AttestedEvent is one decoded Attested emission.
type AttestedEvent struct {
	Recipient common.Address
	Attester  common.Address
	SchemaUID common.Hash
	UID       common.Hash
}

// AttestationExecutor builds calldata for the attestation contract and
// decodes its emissions. The preferred implementation is constructed from the
// full deployed artifact; the fallback from a minimal hand-declared interface.
// Both must produce identical calldata for identical requests.
type AttestationExecutor interface {
	Name() string
	AttestCalldata(req DelegatedAttestationRequest) ([]byte, error)
	MultiAttestCalldata(reqs []DelegatedAttestationRequest) ([]byte, error)
	AttestedTopic() common.Hash
	DecodeAttested(lg types.Log) (*AttestedEvent, error)
}

// minimalAttestationABI declares only the two entry points the engine needs
// plus the Attested emission shape. It exists for environments where the full
// contract artifact is unavailable; it is not a feature-reduced mode.
const minimalAttestationABI = `[
  {"type":"function","name":"attestByDelegation","stateMutability":"payable",
   "inputs":[{"name":"delegatedRequest","type":"tuple","components":[
     {"name":"schema","type":"bytes32"},
     {"name":"data","type":"tuple","components":[
       {"name":"recipient","type":"address"},
       {"name":"expirationTime","type":"uint64"},
       {"name":"revocable","type":"bool"},
       {"name":"refUID","type":"bytes32"},
       {"name":"data","type":"bytes"},
       {"name":"value","type":"uint256"}]},
     {"name":"signature","type":"tuple","components":[
       {"name":"v","type":"uint8"},
       {"name":"r","type":"bytes32"},
       {"name":"s","type":"bytes32"}]},
     {"name":"attester","type":"address"},
     {"name":"deadline","type":"uint64"}]}],
   "outputs":[{"name":"","type":"bytes32"}]},
  {"type":"function","name":"multiAttestByDelegation","stateMutability":"payable",
   "inputs":[{"name":"multiDelegatedRequests","type":"tuple[]","components":[
     {"name":"schema","type":"bytes32"},
     {"name":"data","type":"tuple","components":[
       {"name":"recipient","type":"address"},
       {"name":"expirationTime","type":"uint64"},
       {"name":"revocable","type":"bool"},
       {"name":"refUID","type":"bytes32"},
       {"name":"data","type":"bytes"},
       {"name":"value","type":"uint256"}]},
     {"name":"signature","type":"tuple","components":[
       {"name":"v","type":"uint8"},
       {"name":"r","type":"bytes32"},
       {"name":"s","type":"bytes32"}]},
     {"name":"attester","type":"address"},
     {"name":"deadline","type":"uint64"}]}],
   "outputs":[{"name":"","type":"bytes32[]"}]},
  {"type":"event","name":"Attested","inputs":[
    {"name":"recipient","type":"address","indexed":true},
    {"name":"attester","type":"address","indexed":true},
    {"name":"uid","type":"bytes32","indexed":false},
    {"name":"schemaUID","type":"bytes32","indexed":true}]}
]`

// contractExecutor is the shared implementation behind both executors; the
// only difference between them is where the ABI came from.
type contractExecutor struct {
	name string
	abi  abi.ABI
}

func (e *contractExecutor) Name() string { return e.name }

func (e *contractExecutor) AttestCalldata(req DelegatedAttestationRequest) ([]byte, error) {
	data, err := e.abi.Pack("attestByDelegation", req)
	if err != nil {
		return nil, fmt.Errorf("failed to pack attestByDelegation: %w", err)
	}
	return data, nil
}

func (e *contractExecutor) MultiAttestCalldata(reqs []DelegatedAttestationRequest) ([]byte, error) {
	data, err := e.abi.Pack("multiAttestByDelegation", reqs)
	if err != nil {
		return nil, fmt.Errorf("failed to pack multiAttestByDelegation: %w", err)
	}
	return data, nil
}

func (e *contractExecutor) AttestedTopic() common.Hash {
	return e.abi.Events["Attested"].ID
}

func (e *contractExecutor) DecodeAttested(lg types.Log) (*AttestedEvent, error) {
	if len(lg.Topics) != 4 || lg.Topics[0] != e.AttestedTopic() {
		return nil, fmt.Errorf("log is not an Attested emission")
	}

	values, err := e.abi.Unpack("Attested", lg.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack Attested data: %w", err)
	}
	uid, ok := values[0].([32]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected Attested uid type %T", values[0])
	}

	return &AttestedEvent{
		Recipient: common.BytesToAddress(lg.Topics[1].Bytes()),
		Attester:  common.BytesToAddress(lg.Topics[2].Bytes()),
		SchemaUID: lg.Topics[3],
		UID:       common.BytesToHash(uid[:]),
	}, nil
}

// ResolveExecutor selects the execution path once at startup. It prefers the
// full contract artifact; when that cannot be loaded it logs the condition
// and falls back to the minimal interface. Call sites never branch again.
func ResolveExecutor(artifactPath string) (AttestationExecutor, error) {
	preferred, err := newArtifactExecutor(artifactPath)
	if err == nil {
		logger.Info("Using contract artifact executor", zap.String("artifact", artifactPath))
		return preferred, nil
	}

	logger.Warn("Preferred executor unavailable, falling back to minimal interface",
		zap.String("artifact", artifactPath),
		zap.Error(fmt.Errorf("%w: %v", ErrExecutorUnavailable, err)),
	)

	fallback, fbErr := NewFallbackExecutor()
	if fbErr != nil {
		return nil, fmt.Errorf("%w, and fallback failed: %v", ErrExecutorUnavailable, fbErr)
	}
	return fallback, nil
}

// newArtifactExecutor parses the deployed contract's artifact JSON
// ({"abi": [...]}) and verifies it exposes the delegated entry points.
func newArtifactExecutor(artifactPath string) (AttestationExecutor, error) {
	if artifactPath == "" {
		return nil, fmt.Errorf("no artifact path configured")
	}

	raw, err := os.ReadFile(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var artifact struct {
		ABI json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse artifact: %w", err)
	}
	if len(artifact.ABI) == 0 {
		return nil, fmt.Errorf("artifact has no abi field")
	}

	parsed, err := abi.JSON(strings.NewReader(string(artifact.ABI)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse artifact ABI: %w", err)
	}

	for _, method := range []string{"attestByDelegation", "multiAttestByDelegation"} {
		if _, ok := parsed.Methods[method]; !ok {
			return nil, fmt.Errorf("artifact ABI missing %s", method)
		}
	}
	if _, ok := parsed.Events["Attested"]; !ok {
		return nil, fmt.Errorf("artifact ABI missing Attested event")
	}

	return &contractExecutor{name: "artifact", abi: parsed}, nil
}

// NewFallbackExecutor builds the minimal-interface executor.
func NewFallbackExecutor() (AttestationExecutor, error) {
	parsed, err := abi.JSON(strings.NewReader(minimalAttestationABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse minimal ABI: %w", err)
	}
	return &contractExecutor{name: "fallback", abi: parsed}, nil
}
