package domain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/geoplet/backend/contract/geoplet"
	"github.com/geoplet/backend/internal/common"
	"github.com/geoplet/backend/internal/entity"
	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/internal/repository"
	"github.com/geoplet/backend/pkg/api/neynar"
	"github.com/geoplet/backend/pkg/api/x402"
	"github.com/geoplet/backend/pkg/blockchain/eth"
	"github.com/geoplet/backend/pkg/crypto"
	"github.com/geoplet/backend/pkg/errorx"
	"github.com/geoplet/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type MintDomain interface {
	GetEligibility(context.Context, *model.GetEligibilityRequest) (*model.GetEligibilityResponse, error)
	RequestVoucher(context.Context, *model.RequestMintVoucherRequest) (*model.RequestMintVoucherResponse, error)
	GetVoucher(context.Context, *model.GetVoucherRequest) (*model.GetVoucherResponse, error)
	ConfirmMint(context.Context, *model.ConfirmMintRequest) (*model.ConfirmMintResponse, error)
}

type mintDomain struct {
	paymentRepo    repository.PaymentRepository
	unmintedRepo   repository.UnmintedRepository
	ethClient      eth.EthClient
	geopletReader  *eth.GeopletReader
	signer         *eth.VoucherSigner
	facilitator    x402.IFacilitator
	neynarEndpoint neynar.IEndpoint
	now            func() time.Time
}

func NewMintDomain(
	ctx context.Context,
	paymentRepo repository.PaymentRepository,
	unmintedRepo repository.UnmintedRepository,
	ethClient eth.EthClient,
	facilitator x402.IFacilitator,
	neynarEndpoint neynar.IEndpoint,
) (*mintDomain, error) {
	cfg := xcontext.Configs(ctx)
	contract := ethcommon.HexToAddress(cfg.Mint.ContractAddress)
	domain := eth.VoucherDomain(big.NewInt(cfg.Eth.Chain.ChainID), contract)

	signer, err := eth.NewVoucherSigner(cfg.Mint.SignerPrivateKey, domain)
	if err != nil {
		return nil, err
	}

	xcontext.Logger(ctx).Infof("Vouchers are signed by %s for contract %s", signer.Address().Hex(), contract.Hex())

	return &mintDomain{
		paymentRepo:    paymentRepo,
		unmintedRepo:   unmintedRepo,
		ethClient:      ethClient,
		geopletReader:  eth.NewGeopletReader(ethClient, contract),
		signer:         signer,
		facilitator:    facilitator,
		neynarEndpoint: neynarEndpoint,
		now:            time.Now,
	}, nil
}

func (d *mintDomain) GetEligibility(
	ctx context.Context, req *model.GetEligibilityRequest,
) (*model.GetEligibilityResponse, error) {
	if req.Fid <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Invalid fid")
	}

	cfg := xcontext.Configs(ctx).Mint
	resp := &model.GetEligibilityResponse{Price: cfg.PriceUSDC}

	owner, minted, err := d.geopletReader.OwnerOf(ctx, big.NewInt(req.Fid))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot read owner of fid %d: %v", req.Fid, err)
		return nil, errorx.New(errorx.Unavailable, "Cannot read the chain")
	}

	if minted {
		resp.AlreadyMinted = true
		resp.Owner = owner.Hex()
		return resp, nil
	}

	if req.Address == "" {
		return resp, nil
	}

	if !ethcommon.IsHexAddress(req.Address) {
		return nil, errorx.New(errorx.BadRequest, "Invalid address")
	}

	balance, err := eth.BalanceOf(ctx, d.ethClient,
		ethcommon.HexToAddress(cfg.UsdcAddress), ethcommon.HexToAddress(req.Address))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot read usdc balance of %s: %v", req.Address, err)
		return nil, errorx.New(errorx.Unavailable, "Cannot read the chain")
	}

	price, _ := new(big.Int).SetString(cfg.PriceUSDC, 10)
	resp.Balance = balance.String()
	resp.SufficientBalance = price == nil || balance.Cmp(price) >= 0
	if !resp.SufficientBalance {
		resp.AcquireURL = cfg.AcquireURL
	}

	return resp, nil
}

func (d *mintDomain) RequestVoucher(
	ctx context.Context, req *model.RequestMintVoucherRequest,
) (*model.RequestMintVoucherResponse, error) {
	cfg := xcontext.Configs(ctx)
	if req.Fid <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Invalid fid")
	}

	if !ethcommon.IsHexAddress(req.To) {
		return nil, errorx.New(errorx.BadRequest, "Invalid recipient address")
	}

	if req.Image == "" {
		return nil, errorx.New(errorx.BadRequest, "Empty image")
	}

	if len(req.Image) > cfg.Mint.MaxArtifactBytes {
		return nil, errorx.New(errorx.ArtifactTooLarge,
			"Image is %d bytes, the limit is %d bytes", len(req.Image), cfg.Mint.MaxArtifactBytes)
	}

	to := ethcommon.HexToAddress(req.To)

	// Never charge a user whose token already exists.
	_, minted, err := d.geopletReader.OwnerOf(ctx, big.NewInt(req.Fid))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot read owner of fid %d: %v", req.Fid, err)
		return nil, errorx.New(errorx.Unavailable, "Cannot read the chain")
	}

	if minted {
		common.IncCounter(common.VoucherIssuedTotal, "already_minted")
		return nil, errorx.New(errorx.AlreadyMinted, "This fid has already minted its Geoplet")
	}

	if err := d.verifyRecipient(ctx, req.Fid, to); err != nil {
		return nil, err
	}

	record, err := d.paymentRepo.GetByFID(ctx, req.Fid)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get payment of fid %d: %v", req.Fid, err)
		return nil, errorx.Unknown
	}

	if record != nil && strings.EqualFold(record.Recipient, to.Hex()) {
		// A voucher still valid is served again instead of charging twice.
		if resp, ok := d.storedVoucher(record); ok {
			return &model.RequestMintVoucherResponse{
				Voucher:          resp.Voucher,
				Signature:        resp.Signature,
				SettlementTxHash: record.SettlementTxHash,
			}, nil
		}

		// The previous payment was settled but no voucher could be issued.
		if record.Status == entity.PaymentSettled {
			return d.issue(ctx, record)
		}
	}

	record = &entity.MintPayment{
		FIDBase:   entity.FIDBase{FID: req.Fid},
		Recipient: to.Hex(),
		Amount:    cfg.Mint.PriceUSDC,
		Status:    entity.PaymentSettled,
	}

	if cfg.Payment.Enabled {
		settlement, err := d.settle(ctx)
		if err != nil {
			return nil, err
		}

		record.Payer = settlement.Payer
		record.SettlementTxHash = settlement.Transaction
	}

	if err := d.paymentRepo.Upsert(ctx, record); err != nil {
		// The payment is settled on chain already, keep going so the user
		// gets a voucher.
		xcontext.Logger(ctx).Errorf("Cannot save payment of fid %d (tx %s): %v",
			req.Fid, record.SettlementTxHash, err)
	}

	return d.issue(ctx, record)
}

func (d *mintDomain) GetVoucher(
	ctx context.Context, req *model.GetVoucherRequest,
) (*model.GetVoucherResponse, error) {
	if req.Fid <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Invalid fid")
	}

	record, err := d.paymentRepo.GetByFID(ctx, req.Fid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found voucher")
		}

		xcontext.Logger(ctx).Errorf("Cannot get payment of fid %d: %v", req.Fid, err)
		return nil, errorx.Unknown
	}

	switch {
	case record.Status == entity.PaymentMinted:
		return nil, errorx.New(errorx.AlreadyMinted, "This fid has already minted its Geoplet")
	case record.VoucherSignature == "":
		return nil, errorx.New(errorx.NotFound, "Not found voucher")
	}

	resp, ok := d.storedVoucher(record)
	if !ok {
		return nil, errorx.New(errorx.VoucherExpired, "Voucher expired, please pay again")
	}

	return resp, nil
}

func (d *mintDomain) ConfirmMint(
	ctx context.Context, req *model.ConfirmMintRequest,
) (*model.ConfirmMintResponse, error) {
	if req.Fid <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Invalid fid")
	}

	hash, err := hexutil.Decode(req.TxHash)
	if err != nil || len(hash) != ethcommon.HashLength {
		return nil, errorx.New(errorx.BadRequest, "Invalid transaction hash")
	}

	receipt, err := d.ethClient.TransactionReceipt(ctx, ethcommon.BytesToHash(hash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, errorx.New(errorx.NotFound, "Transaction is not mined yet")
		}

		xcontext.Logger(ctx).Errorf("Cannot get receipt of %s: %v", req.TxHash, err)
		return nil, errorx.New(errorx.Unavailable, "Cannot read the chain")
	}

	if receipt.Status != 1 {
		common.IncCounter(common.MintConfirmedTotal, "reverted")
		return nil, errorx.New(errorx.BadRequest, "Transaction was reverted")
	}

	// The chain is the source of truth, the receipt alone does not prove the
	// transaction minted this fid.
	_, minted, err := d.geopletReader.OwnerOf(ctx, big.NewInt(req.Fid))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot read owner of fid %d: %v", req.Fid, err)
		return nil, errorx.New(errorx.Unavailable, "Cannot read the chain")
	}

	if !minted {
		return nil, errorx.New(errorx.NotFound, "Token of fid %d does not exist", req.Fid)
	}

	// Both tables are informational, a failure here never fails the mint.
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := d.paymentRepo.MarkMinted(ctx, req.Fid, req.TxHash); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot mark payment of fid %d as minted: %v", req.Fid, err)
		return &model.ConfirmMintResponse{}, nil
	}

	if err := d.unmintedRepo.Delete(ctx, req.Fid); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete unminted generation of fid %d: %v", req.Fid, err)
		return &model.ConfirmMintResponse{}, nil
	}

	xcontext.WithCommitDBTransaction(ctx)
	common.IncCounter(common.MintConfirmedTotal, "success")
	return &model.ConfirmMintResponse{}, nil
}

func (d *mintDomain) verifyRecipient(ctx context.Context, fid int64, to ethcommon.Address) error {
	if !xcontext.Configs(ctx).Neynar.VerifyRecipient {
		return nil
	}

	users, err := d.neynarEndpoint.GetUsers(ctx, []int64{fid})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get farcaster user %d: %v", fid, err)
		return errorx.New(errorx.Unavailable, "Cannot verify the recipient")
	}

	for _, u := range users {
		if u.Fid == fid && u.OwnsAddress(to.Hex()) {
			return nil
		}
	}

	return errorx.New(errorx.RecipientMismatch, "Recipient is not an address of this fid")
}

func (d *mintDomain) requirements(ctx context.Context) x402.PaymentRequirements {
	cfg := xcontext.Configs(ctx)

	resource := cfg.Payment.Resource
	if resource == "" {
		if req := xcontext.HTTPRequest(ctx); req != nil {
			resource = req.URL.String()
		}
	}

	return x402.PaymentRequirements{
		Scheme:            x402.SchemeExact,
		Network:           cfg.Payment.Network,
		MaxAmountRequired: cfg.Mint.PriceUSDC,
		Resource:          resource,
		Description:       cfg.Payment.Description,
		MimeType:          "application/json",
		PayTo:             cfg.Payment.PayTo,
		MaxTimeoutSeconds: cfg.Payment.MaxTimeoutSeconds,
		Asset:             cfg.Mint.UsdcAddress,
		Extra:             map[string]string{"name": "USD Coin", "version": "2"},
	}
}

func (d *mintDomain) paymentRequired(ctx context.Context, reason string) error {
	return errorx.WithData(
		errorx.New(errorx.PaymentRequired, "Payment required"),
		x402.PaymentRequiredResponse{
			X402Version: x402.Version,
			Error:       reason,
			Accepts:     []x402.PaymentRequirements{d.requirements(ctx)},
		},
	)
}

// settle charges the payment attached to the request.
func (d *mintDomain) settle(ctx context.Context) (*x402.SettleResponse, error) {
	var header string
	if req := xcontext.HTTPRequest(ctx); req != nil {
		header = req.Header.Get(x402.PaymentHeader)
	}

	if header == "" {
		return nil, d.paymentRequired(ctx, "X-PAYMENT header is required")
	}

	payload, err := x402.DecodePayment(header)
	if err != nil {
		return nil, d.paymentRequired(ctx, "Invalid X-PAYMENT header")
	}

	requirements := d.requirements(ctx)
	if err := x402.Match(payload, requirements); err != nil {
		xcontext.Logger(ctx).Debugf("Payment does not match requirements: %v", err)
		common.IncCounter(common.VoucherIssuedTotal, "payment_not_verified")
		return nil, errorx.New(errorx.PaymentNotVerified, "Payment does not match the price")
	}

	verified, err := d.facilitator.Verify(ctx, payload, requirements)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot verify payment: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Cannot verify the payment")
	}

	if !verified.IsValid {
		common.IncCounter(common.VoucherIssuedTotal, "payment_not_verified")
		return nil, errorx.New(errorx.PaymentNotVerified, "Payment is invalid: %s", verified.InvalidReason)
	}

	settlement, err := d.facilitator.Settle(ctx, payload, requirements)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot settle payment: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Cannot settle the payment")
	}

	if !settlement.Success {
		common.IncCounter(common.VoucherIssuedTotal, "payment_not_verified")
		return nil, errorx.New(errorx.PaymentNotVerified, "Payment cannot be settled: %s", settlement.ErrorReason)
	}

	if settlement.Payer == "" {
		settlement.Payer = payload.Payload.Authorization.From
	}

	if encoded, err := x402.EncodeSettlement(settlement); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot encode settlement response: %v", err)
	} else {
		xcontext.ResponseHeader(ctx).Set(x402.PaymentResponseHeader, encoded)
	}

	xcontext.Logger(ctx).Infof("Settled payment %s from %s", settlement.Transaction, settlement.Payer)
	return settlement, nil
}

func (d *mintDomain) issue(ctx context.Context, record *entity.MintPayment) (*model.RequestMintVoucherResponse, error) {
	nonce, err := crypto.RandomUint256()
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate nonce: %v", err)
		return nil, errorx.Unknown
	}

	deadline := d.now().Add(xcontext.Configs(ctx).Mint.VoucherTTL.Duration)
	voucher := geoplet.Voucher{
		To:       ethcommon.HexToAddress(record.Recipient),
		Fid:      big.NewInt(record.FID),
		Nonce:    nonce,
		Deadline: big.NewInt(deadline.Unix()),
	}

	signature, err := d.signer.Sign(voucher)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot sign voucher of fid %d: %v", record.FID, err)
		return nil, errorx.Unknown
	}

	sig := hexutil.Encode(signature)
	if err := d.paymentRepo.SaveVoucher(ctx, record.FID, nonce.String(), deadline.Unix(), sig); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save voucher of fid %d: %v", record.FID, err)
	}

	common.IncCounter(common.VoucherIssuedTotal, "success")
	return &model.RequestMintVoucherResponse{
		Voucher:          convertVoucher(voucher),
		Signature:        sig,
		SettlementTxHash: record.SettlementTxHash,
	}, nil
}

func (d *mintDomain) storedVoucher(record *entity.MintPayment) (*model.GetVoucherResponse, bool) {
	if record.Status != entity.PaymentVoucherIssued || record.VoucherSignature == "" {
		return nil, false
	}

	if record.VoucherDeadline <= d.now().Unix() {
		return nil, false
	}

	nonce, ok := new(big.Int).SetString(record.VoucherNonce, 10)
	if !ok {
		return nil, false
	}

	return &model.GetVoucherResponse{
		Voucher: convertVoucher(geoplet.Voucher{
			To:       ethcommon.HexToAddress(record.Recipient),
			Fid:      big.NewInt(record.FID),
			Nonce:    nonce,
			Deadline: big.NewInt(record.VoucherDeadline),
		}),
		Signature: record.VoucherSignature,
	}, true
}
