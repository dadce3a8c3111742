package x402

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/geoplet/backend/pkg/blockchain/eth"
	"github.com/geoplet/backend/pkg/crypto"
)

const transferWithAuthorization = "TransferWithAuthorization"

var authorizationFields = []apitypes.Type{
	{Name: "from", Type: "address"},
	{Name: "to", Type: "address"},
	{Name: "value", Type: "uint256"},
	{Name: "validAfter", Type: "uint256"},
	{Name: "validBefore", Type: "uint256"},
	{Name: "nonce", Type: "bytes32"},
}

// Clock skew tolerated between the payer and the chain.
const validAfterSkew = 10 * time.Minute

var ErrUnsupportedRequirements = errors.New("no supported payment requirements")

// AuthorizationTypedData returns the EIP-712 message the asset contract
// checks in transferWithAuthorization.
func AuthorizationTypedData(req PaymentRequirements, chainID *big.Int, auth Authorization) apitypes.TypedData {
	domain := eth.Domain{
		Name:              req.Extra["name"],
		Version:           req.Extra["version"],
		ChainID:           chainID,
		VerifyingContract: common.HexToAddress(req.Asset),
	}

	return eth.NewTypedData(domain, transferWithAuthorization, authorizationFields, apitypes.TypedDataMessage{
		"from":        auth.From,
		"to":          auth.To,
		"value":       auth.Value,
		"validAfter":  auth.ValidAfter,
		"validBefore": auth.ValidBefore,
		"nonce":       auth.Nonce,
	})
}

// Payer signs x402 payments with a wallet.
type Payer struct {
	wallet  eth.Wallet
	chainID *big.Int
	network string
	now     func() time.Time
}

func NewPayer(wallet eth.Wallet, chainID *big.Int, network string) *Payer {
	return &Payer{wallet: wallet, chainID: chainID, network: network, now: time.Now}
}

func (p *Payer) WithClock(now func() time.Time) *Payer {
	p.now = now
	return p
}

func (p *Payer) Address() common.Address {
	return p.wallet.Address()
}

// Select returns the first requirement this payer can satisfy. The exact
// scheme signs under the EIP-712 domain of the asset, so its name and version
// must be given in extra.
func (p *Payer) Select(accepts []PaymentRequirements) (PaymentRequirements, error) {
	for _, req := range accepts {
		if req.Scheme != SchemeExact || !strings.EqualFold(req.Network, p.network) {
			continue
		}

		if req.Extra["name"] == "" || req.Extra["version"] == "" {
			continue
		}

		return req, nil
	}

	return PaymentRequirements{}, ErrUnsupportedRequirements
}

func (p *Payer) Pay(ctx context.Context, req PaymentRequirements) (*PaymentPayload, error) {
	nonce, err := crypto.RandomBytes32()
	if err != nil {
		return nil, err
	}

	now := p.now()
	auth := Authorization{
		From:        p.wallet.Address().Hex(),
		To:          common.HexToAddress(req.PayTo).Hex(),
		Value:       req.MaxAmountRequired,
		ValidAfter:  fmt.Sprint(now.Add(-validAfterSkew).Unix()),
		ValidBefore: fmt.Sprint(now.Add(time.Duration(req.MaxTimeoutSeconds) * time.Second).Unix()),
		Nonce:       hexutil.Encode(nonce[:]),
	}

	signature, err := p.wallet.SignTypedData(ctx, AuthorizationTypedData(req, p.chainID, auth))
	if err != nil {
		return nil, err
	}

	return &PaymentPayload{
		X402Version: Version,
		Scheme:      req.Scheme,
		Network:     req.Network,
		Payload: ExactEvmPayload{
			Signature:     hexutil.Encode(signature),
			Authorization: auth,
		},
	}, nil
}

// Match checks the payment against the requirements before asking the
// facilitator, so obviously wrong payments are rejected cheaply.
func Match(payload *PaymentPayload, req PaymentRequirements) error {
	if payload.X402Version != Version {
		return fmt.Errorf("unsupported x402 version %d", payload.X402Version)
	}

	if payload.Scheme != req.Scheme || !strings.EqualFold(payload.Network, req.Network) {
		return errors.New("payment scheme or network mismatch")
	}

	auth := payload.Payload.Authorization
	if !strings.EqualFold(auth.To, req.PayTo) {
		return errors.New("payment is not sent to the merchant")
	}

	value, ok := new(big.Int).SetString(auth.Value, 10)
	if !ok {
		return fmt.Errorf("invalid payment value %s", auth.Value)
	}

	price, ok := new(big.Int).SetString(req.MaxAmountRequired, 10)
	if !ok {
		return fmt.Errorf("invalid price %s", req.MaxAmountRequired)
	}

	if value.Cmp(price) < 0 {
		return fmt.Errorf("payment value %s is lower than price %s", value, price)
	}

	return nil
}
