package eip712

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrInvalidSignatureLength is returned when a combined signature is not
	// exactly 65 bytes after stripping the optional 0x prefix.
	ErrInvalidSignatureLength = errors.New("signature must be 65 bytes")
	// ErrInvalidRecoveryID is returned when v is outside {0, 1, 27, 28}.
	ErrInvalidRecoveryID = errors.New("invalid signature recovery id")
	// ErrSignerMismatch is returned when the recovered signer does not match
	// the declared one.
	ErrSignerMismatch = errors.New("recovered signer does not match declared signer")
)

// Signature is the canonical recoverable (v, r, s) tuple. V is always held in
// the Ethereum convention {27, 28}.
type Signature struct {
	V uint8
	R [32]byte
	S [32]byte
}

// ParseSignature decomposes a combined 65-byte hex signature (r ‖ s ‖ v) into
// its tuple form. A raw recovery id of 0 or 1 is promoted to 27/28.
func ParseSignature(combined string) (Signature, error) {
	raw, err := hexutil.Decode(ensureHexPrefix(combined))
	if err != nil {
		return Signature{}, fmt.Errorf("invalid signature hex: %w", err)
	}
	if len(raw) != crypto.SignatureLength {
		return Signature{}, fmt.Errorf("%w: got %d", ErrInvalidSignatureLength, len(raw))
	}

	sig := Signature{V: raw[64]}
	copy(sig.R[:], raw[0:32])
	copy(sig.S[:], raw[32:64])

	switch sig.V {
	case 0, 1:
		sig.V += 27
	case 27, 28:
	default:
		return Signature{}, fmt.Errorf("%w: %d", ErrInvalidRecoveryID, sig.V)
	}
	return sig, nil
}

// NewSignature builds a Signature from a pre-split (v, r, s) value, applying
// the same v normalization as ParseSignature.
func NewSignature(v uint8, r, s [32]byte) (Signature, error) {
	switch v {
	case 0, 1:
		v += 27
	case 27, 28:
	default:
		return Signature{}, fmt.Errorf("%w: %d", ErrInvalidRecoveryID, v)
	}
	return Signature{V: v, R: r, S: s}, nil
}

// Bytes reassembles the combined 65-byte form (r ‖ s ‖ v).
func (s Signature) Bytes() []byte {
	out := make([]byte, crypto.SignatureLength)
	copy(out[0:32], s.R[:])
	copy(out[32:64], s.S[:])
	out[64] = s.V
	return out
}

// Hex returns the 0x-prefixed combined form.
func (s Signature) Hex() string {
	return hexutil.Encode(s.Bytes())
}

// RecoverSigner recovers the address that signed the given typed-data digest.
// Pure function; safe to call both at intake and immediately before
// submission.
func RecoverSigner(digest common.Hash, sig Signature) (common.Address, error) {
	raw := sig.Bytes()
	raw[64] -= 27 // SigToPub expects the raw recovery id

	pub, err := crypto.SigToPub(digest.Bytes(), raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("signature recovery failed: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySigner recovers the signer of digest and compares it against the
// declared address, returning ErrSignerMismatch on disagreement.
func VerifySigner(digest common.Hash, sig Signature, declared common.Address) error {
	recovered, err := RecoverSigner(digest, sig)
	if err != nil {
		return err
	}
	if recovered != declared {
		return fmt.Errorf("%w: recovered %s, declared %s",
			ErrSignerMismatch, recovered.Hex(), declared.Hex())
	}
	return nil
}

func ensureHexPrefix(s string) string {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		return "0x" + s[2:]
	}
	return "0x" + s
}
