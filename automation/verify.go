package automation

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"strconv"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/ledgerfsorg/libledgerfs-go/crypt"
)

// ChainVerifier is a Verifier backed by ledger transaction inspection and
// a usage counter supplied by the catalog.
//
// Condition parameters per kind:
//
//	payment-based:   raw_tx (hex), address, min_satoshis
//	signature-based: public_key (hex, compressed), message, signature (hex DER)
//	usage-based:     file_id, threshold
//
// Payment verification checks that the raw transaction carries a P2PKH
// output of at least min_satoshis to the given address. It does NOT check
// input signatures or network acceptance; callers gate on those separately.
type ChainVerifier struct {
	// Counter reports how many times a file has been downloaded. Required
	// for usage-based conditions.
	Counter func(fileID string) int
}

// Compile-time interface check.
var _ Verifier = (*ChainVerifier)(nil)

// Verify evaluates one condition. A malformed parameter set is an error;
// a well-formed condition that simply does not hold returns false, nil.
func (v *ChainVerifier) Verify(ctx context.Context, kind ConditionKind, params map[string]string) (bool, error) {
	switch kind {
	case ConditionPayment:
		return v.verifyPayment(params)
	case ConditionSignature:
		return v.verifySignature(params)
	case ConditionUsage:
		return v.verifyUsage(params)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownConditionKind, kind)
	}
}

func (v *ChainVerifier) verifyPayment(params map[string]string) (bool, error) {
	rawHex, ok := params["raw_tx"]
	if !ok || rawHex == "" {
		return false, fmt.Errorf("%w: raw_tx", ErrMissingParam)
	}
	address, ok := params["address"]
	if !ok || address == "" {
		return false, fmt.Errorf("%w: address", ErrMissingParam)
	}
	minSats, err := strconv.ParseUint(params["min_satoshis"], 10, 64)
	if err != nil {
		return false, fmt.Errorf("%w: min_satoshis: %w", ErrInvalidParam, err)
	}

	rawTx, err := hex.DecodeString(rawHex)
	if err != nil {
		return false, fmt.Errorf("%w: raw_tx: %w", ErrInvalidParam, err)
	}
	tx, err := transaction.NewTransactionFromBytes(rawTx)
	if err != nil {
		return false, fmt.Errorf("%w: raw_tx: %w", ErrInvalidParam, err)
	}

	expectedAddr, err := script.NewAddressFromString(address)
	if err != nil {
		return false, fmt.Errorf("%w: address: %w", ErrInvalidParam, err)
	}
	expectedPKH := []byte(expectedAddr.PublicKeyHash)

	for _, output := range tx.Outputs {
		if output.LockingScript == nil || !output.LockingScript.IsP2PKH() {
			continue
		}
		pkh, err := output.LockingScript.PublicKeyHash()
		if err != nil {
			continue
		}
		if !bytes.Equal(pkh, expectedPKH) {
			continue
		}
		if output.Satoshis >= minSats {
			return true, nil
		}
	}
	return false, nil
}

func (v *ChainVerifier) verifySignature(params map[string]string) (bool, error) {
	pubHex, ok := params["public_key"]
	if !ok || pubHex == "" {
		return false, fmt.Errorf("%w: public_key", ErrMissingParam)
	}
	message, ok := params["message"]
	if !ok {
		return false, fmt.Errorf("%w: message", ErrMissingParam)
	}
	sigHex, ok := params["signature"]
	if !ok || sigHex == "" {
		return false, fmt.Errorf("%w: signature", ErrMissingParam)
	}

	pubBytes, err := hex.DecodeString(pubHex)
	if err != nil {
		return false, fmt.Errorf("%w: public_key: %w", ErrInvalidParam, err)
	}
	pubKey, err := ec.ParsePubKey(pubBytes)
	if err != nil {
		return false, fmt.Errorf("%w: public_key: %w", ErrInvalidParam, err)
	}

	sigBytes, err := hex.DecodeString(sigHex)
	if err != nil {
		return false, fmt.Errorf("%w: signature: %w", ErrInvalidParam, err)
	}
	sig, err := ec.ParseDERSignature(sigBytes)
	if err != nil {
		return false, fmt.Errorf("%w: signature: %w", ErrInvalidParam, err)
	}

	// The signed digest is the double-SHA256 of the message bytes, the
	// same digest class used for content hashing.
	return sig.Verify(crypt.Hash([]byte(message)), pubKey), nil
}

func (v *ChainVerifier) verifyUsage(params map[string]string) (bool, error) {
	fileID, ok := params["file_id"]
	if !ok || fileID == "" {
		return false, fmt.Errorf("%w: file_id", ErrMissingParam)
	}
	threshold, err := strconv.Atoi(params["threshold"])
	if err != nil {
		return false, fmt.Errorf("%w: threshold: %w", ErrInvalidParam, err)
	}
	if v.Counter == nil {
		return false, fmt.Errorf("%w: usage counter", ErrMissingParam)
	}
	return v.Counter(fileID) >= threshold, nil
}
