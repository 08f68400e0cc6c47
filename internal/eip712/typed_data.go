// Package eip712 builds and verifies the typed-data messages that authorize
// delegated attestations. It is a pure transform layer: no I/O, no persisted
// state. The type layout below must match the on-chain verifier bit for bit;
// changing a field name, order or width breaks every signature in flight.
package eip712

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	// DomainName and DomainVersion mirror the deployed verifier's EIP-712
	// domain. The verifier reconstructs the same separator on-chain.
	DomainName    = "Veritix Attestation Resolver"
	DomainVersion = "1"

	// PrimaryType is the struct name hashed by the verifier.
	PrimaryType = "Attest"
)

// DelegatedAttestation is the message a user signs off-chain to authorize a
// sponsored attestation.
type DelegatedAttestation struct {
	SchemaUID common.Hash
	Recipient common.Address
	Payload   []byte
	RefUID    common.Hash
	Deadline  uint64
	Value     *big.Int

	// Domain parameters.
	ChainID           int64
	VerifyingContract common.Address
}

// TypedData returns the full EIP-712 structure for the attestation. Exposed
// separately from the hash so clients and tests can inspect the exact layout.
func TypedData(att DelegatedAttestation) apitypes.TypedData {
	value := att.Value
	if value == nil {
		value = big.NewInt(0)
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			PrimaryType: []apitypes.Type{
				{Name: "schema", Type: "bytes32"},
				{Name: "recipient", Type: "address"},
				{Name: "data", Type: "bytes"},
				{Name: "refUID", Type: "bytes32"},
				{Name: "deadline", Type: "uint64"},
				{Name: "value", Type: "uint256"},
			},
		},
		PrimaryType: PrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              DomainName,
			Version:           DomainVersion,
			ChainId:           math.NewHexOrDecimal256(att.ChainID),
			VerifyingContract: att.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"schema":    att.SchemaUID.Hex(),
			"recipient": att.Recipient.Hex(),
			"data":      hexutil.Encode(att.Payload),
			"refUID":    att.RefUID.Hex(),
			"deadline":  fmt.Sprintf("%d", att.Deadline),
			"value":     value.String(),
		},
	}
}

// HashDelegatedAttestation computes the digest the user signed:
// keccak256("\x19\x01" || domainSeparator || hashStruct(message)).
func HashDelegatedAttestation(att DelegatedAttestation) (common.Hash, error) {
	td := TypedData(att)
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return common.BytesToHash(hash), nil
}
