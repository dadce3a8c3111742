package mintflow

import (
	"errors"
	"fmt"

	"github.com/geoplet/backend/contract/geoplet"
	"github.com/geoplet/backend/pkg/blockchain/eth"
)

var (
	ErrArtifactTooLarge    = errors.New("artifact is too large")
	ErrTransactionRejected = errors.New("transaction rejected by wallet")
	ErrSignatureExpired    = errors.New("signature expired")
	ErrInsufficientBalance = errors.New("insufficient usdc balance")
	ErrAlreadyMinted       = errors.New("already minted")
	ErrSupplyExhausted     = errors.New("max supply reached")
	ErrRecipientMismatch   = errors.New("recipient mismatch")
	ErrEmptyArtifact       = errors.New("empty artifact")
	ErrInvalidSignature    = errors.New("invalid voucher signature")
	ErrNonceUsed           = errors.New("voucher nonce already used")
)

// RevertError is a reverted mint whose reason has no dedicated sentinel.
type RevertError struct {
	Reason string
	Revert *eth.Revert
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("transaction reverted: %s", e.Reason)
}

var revertErrors = map[string]error{
	geoplet.ErrFIDAlreadyMinted:  ErrAlreadyMinted,
	geoplet.ErrMaxSupplyReached:  ErrSupplyExhausted,
	geoplet.ErrImageTooLarge:     ErrArtifactTooLarge,
	geoplet.ErrRecipientMismatch: ErrRecipientMismatch,
	geoplet.ErrEmptyImage:        ErrEmptyArtifact,
	geoplet.ErrSignatureExpired:  ErrSignatureExpired,
	geoplet.ErrInvalidSignature:  ErrInvalidSignature,
	geoplet.ErrNonceAlreadyUsed:  ErrNonceUsed,
}

// revertError maps raw revert data of a mint call to a typed error.
func revertError(data []byte) error {
	parsed, err := geoplet.ABI()
	if err != nil {
		return &RevertError{Reason: err.Error()}
	}

	revert, err := eth.DecodeRevert(parsed, data)
	if err != nil {
		return &RevertError{Reason: "unknown"}
	}

	if sentinel, ok := revertErrors[revert.Name]; ok {
		return fmt.Errorf("%w: %s", sentinel, revert)
	}

	return &RevertError{Reason: revert.String(), Revert: &revert}
}
