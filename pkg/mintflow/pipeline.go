// Package mintflow drives a wallet through payment, voucher issuance and the
// on-chain mint of a Geoplet.
package mintflow

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/geoplet/backend/config"
	"github.com/geoplet/backend/contract/geoplet"
	"github.com/geoplet/backend/pkg/blockchain/eth"
	"github.com/geoplet/backend/pkg/xcontext"
)

const defaultReceiptInterval = 2 * time.Second

type Eligibility struct {
	AlreadyMinted     bool
	Owner             common.Address
	Balance           *big.Int
	Price             *big.Int
	SufficientBalance bool
	AcquireURL        string
}

type Result struct {
	State  State
	TxHash common.Hash
}

type Pipeline struct {
	client eth.EthClient
	wallet eth.Wallet
	issuer VoucherIssuer
	reader *eth.GeopletReader

	contract         common.Address
	usdc             common.Address
	price            *big.Int
	chainID          *big.Int
	useEip1559       bool
	fallbackGasLimit uint64
	maxArtifactBytes int
	acquireURL       string
	receiptTimeout   time.Duration
	receiptInterval  time.Duration

	now           func() time.Time
	onStateChange func(State)

	mu    sync.Mutex
	state State
}

func NewPipeline(
	cfg config.Configs, client eth.EthClient, wallet eth.Wallet, issuer VoucherIssuer,
) (*Pipeline, error) {
	if !common.IsHexAddress(cfg.Mint.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.Mint.ContractAddress)
	}

	if !common.IsHexAddress(cfg.Mint.UsdcAddress) {
		return nil, fmt.Errorf("invalid usdc address %q", cfg.Mint.UsdcAddress)
	}

	price, ok := new(big.Int).SetString(cfg.Mint.PriceUSDC, 10)
	if !ok {
		return nil, fmt.Errorf("invalid price %q", cfg.Mint.PriceUSDC)
	}

	contract := common.HexToAddress(cfg.Mint.ContractAddress)
	return &Pipeline{
		client:           client,
		wallet:           wallet,
		issuer:           issuer,
		reader:           eth.NewGeopletReader(client, contract),
		contract:         contract,
		usdc:             common.HexToAddress(cfg.Mint.UsdcAddress),
		price:            price,
		chainID:          big.NewInt(cfg.Eth.Chain.ChainID),
		useEip1559:       cfg.Eth.Chain.UseEip1559,
		fallbackGasLimit: cfg.Mint.FallbackGasLimit,
		maxArtifactBytes: cfg.Mint.MaxArtifactBytes,
		acquireURL:       cfg.Mint.AcquireURL,
		receiptTimeout:   cfg.Mint.ReceiptTimeout.Duration,
		receiptInterval:  defaultReceiptInterval,
		now:              time.Now,
		state:            StateIdle,
	}, nil
}

func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

func (p *Pipeline) WithReceiptInterval(interval time.Duration) *Pipeline {
	p.receiptInterval = interval
	return p
}

// OnStateChange registers the observer of state transitions. It is called
// synchronously and never after the context of the operation is done.
func (p *Pipeline) OnStateChange(fn func(State)) *Pipeline {
	p.onStateChange = fn
	return p
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) transition(ctx context.Context, state State) {
	if ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	p.state = state
	p.mu.Unlock()

	if p.onStateChange != nil {
		p.onStateChange(state)
	}
}

func (p *Pipeline) CheckEligibility(ctx context.Context, fid int64) (*Eligibility, error) {
	owner, found, err := p.reader.OwnerOf(ctx, big.NewInt(fid))
	if err != nil {
		return nil, err
	}

	if found {
		p.transition(ctx, StateAlreadyMinted)
		return &Eligibility{AlreadyMinted: true, Owner: owner, Price: p.price}, nil
	}

	balance, err := eth.BalanceOf(ctx, p.client, p.usdc, p.wallet.Address())
	if err != nil {
		return nil, err
	}

	result := &Eligibility{
		Balance:           balance,
		Price:             p.price,
		SufficientBalance: balance.Cmp(p.price) >= 0,
	}

	if !result.SufficientBalance {
		result.AcquireURL = p.acquireURL
		p.transition(ctx, StateInsufficientBalance)
		return result, nil
	}

	p.transition(ctx, StateIdle)
	return result, nil
}

// RequestVoucher pays for and fetches a voucher minting fid to the wallet.
func (p *Pipeline) RequestVoucher(ctx context.Context, fid int64, artifact string) (*SignedVoucher, error) {
	if len(artifact) > p.maxArtifactBytes {
		return nil, ErrArtifactTooLarge
	}

	p.transition(ctx, StatePaying)
	voucher, err := p.issuer.RequestVoucher(ctx, fid, p.wallet.Address(), artifact)
	if err != nil {
		if errors.Is(err, ErrAlreadyMinted) {
			p.transition(ctx, StateAlreadyMinted)
		} else {
			p.transition(ctx, StateIdle)
		}
		return nil, err
	}

	return voucher, nil
}

// SubmitMint sends mintGeoplet signed by the wallet and waits for its
// receipt. A mint that reverts because the fid is already minted ends in
// StateAlreadyMinted without error.
func (p *Pipeline) SubmitMint(ctx context.Context, voucher *SignedVoucher, artifact string) (*Result, error) {
	if len(artifact) > p.maxArtifactBytes {
		return nil, ErrArtifactTooLarge
	}

	if voucher.Expired(p.now().Unix()) {
		p.transition(ctx, StateIdle)
		return nil, ErrSignatureExpired
	}

	data, err := geoplet.PackMint(voucher.Voucher, artifact, voucher.Signature)
	if err != nil {
		return nil, err
	}

	p.transition(ctx, StateMinting)

	from := p.wallet.Address()
	msg := ethereum.CallMsg{From: from, To: &p.contract, Data: data}
	gas, err := p.client.EstimateGas(ctx, msg)
	if err != nil {
		if revert, ok := eth.RevertData(err); ok {
			return p.reverted(ctx, revert)
		}

		xcontext.Logger(ctx).Warnf("Cannot estimate gas of mint, use fallback limit %d: %v", p.fallbackGasLimit, err)
		gas = p.fallbackGasLimit
	}

	tx, err := eth.NewContractTx(ctx, p.client, from, p.contract, data, gas, p.useEip1559, p.chainID)
	if err != nil {
		p.transition(ctx, StateIdle)
		return nil, err
	}

	signed, err := p.wallet.SignTx(ctx, tx, p.chainID)
	if err != nil {
		p.transition(ctx, StateIdle)
		if errors.Is(err, eth.ErrUserRejected) {
			return nil, ErrTransactionRejected
		}
		return nil, err
	}

	if err := p.client.SendTransaction(ctx, signed); err != nil {
		if revert, ok := eth.RevertData(err); ok {
			return p.reverted(ctx, revert)
		}

		p.transition(ctx, StateIdle)
		return nil, err
	}

	waitCtx := ctx
	if p.receiptTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.receiptTimeout)
		defer cancel()
	}

	receipt, err := eth.WaitForReceipt(waitCtx, p.client, signed.Hash(), p.receiptInterval)
	if err != nil {
		p.transition(ctx, StateIdle)
		return nil, err
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if receipt.Status != 1 {
		// Receipts carry no revert data, replay the call at the same block.
		msg.Gas = gas
		_, err := p.client.CallContract(ctx, msg, receipt.BlockNumber)
		if revert, ok := eth.RevertData(err); ok {
			return p.reverted(ctx, revert)
		}

		p.transition(ctx, StateIdle)
		return nil, &RevertError{Reason: fmt.Sprintf("tx %s failed", signed.Hash().Hex())}
	}

	p.transition(ctx, StateSuccess)

	fid := voucher.Voucher.Fid.Int64()
	if err := p.issuer.ConfirmMint(ctx, fid, signed.Hash()); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot confirm mint of fid %d: %v", fid, err)
	}

	return &Result{State: StateSuccess, TxHash: signed.Hash()}, nil
}

func (p *Pipeline) reverted(ctx context.Context, data []byte) (*Result, error) {
	err := revertError(data)
	if errors.Is(err, ErrAlreadyMinted) {
		p.transition(ctx, StateAlreadyMinted)
		return &Result{State: StateAlreadyMinted}, nil
	}

	p.transition(ctx, StateIdle)
	return nil, err
}

// Mint runs the whole flow for fid. A still valid voucher issued earlier is
// reused instead of paying again.
func (p *Pipeline) Mint(ctx context.Context, fid int64, artifact string) (*Result, error) {
	if len(artifact) > p.maxArtifactBytes {
		return nil, ErrArtifactTooLarge
	}

	eligibility, err := p.CheckEligibility(ctx, fid)
	if err != nil {
		return nil, err
	}

	if eligibility.AlreadyMinted {
		return &Result{State: StateAlreadyMinted}, nil
	}

	if !eligibility.SufficientBalance {
		return nil, ErrInsufficientBalance
	}

	voucher, err := p.issuer.GetVoucher(ctx, fid)
	if err != nil || voucher.Expired(p.now().Unix()) || voucher.Voucher.To != p.wallet.Address() {
		if err != nil && !errors.Is(err, ErrVoucherNotFound) && !errors.Is(err, ErrSignatureExpired) {
			xcontext.Logger(ctx).Warnf("Cannot recover voucher of fid %d: %v", fid, err)
		}

		voucher, err = p.RequestVoucher(ctx, fid, artifact)
		if err != nil {
			if errors.Is(err, ErrAlreadyMinted) {
				return &Result{State: StateAlreadyMinted}, nil
			}
			return nil, err
		}
	}

	return p.SubmitMint(ctx, voucher, artifact)
}
