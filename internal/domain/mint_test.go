package domain

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/geoplet/backend/config"
	"github.com/geoplet/backend/contract/erc20"
	"github.com/geoplet/backend/contract/geoplet"
	"github.com/geoplet/backend/internal/entity"
	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/internal/repository"
	"github.com/geoplet/backend/mocks"
	"github.com/geoplet/backend/pkg/api/neynar"
	"github.com/geoplet/backend/pkg/api/x402"
	"github.com/geoplet/backend/pkg/blockchain/eth"
	"github.com/geoplet/backend/pkg/errorx"
	"github.com/geoplet/backend/pkg/testutil"
	"github.com/geoplet/backend/pkg/xcontext"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	payerKey  = "8f2a55949038a9610f50fb23b5883af3b4ecb3c3bb792cbcefbd1542c692be63"
	recipient = "0x4444444444444444444444444444444444444444"
)

type revertErr struct{ data string }

func (e revertErr) Error() string          { return "execution reverted" }
func (e revertErr) ErrorCode() int         { return 3 }
func (e revertErr) ErrorData() interface{} { return e.data }

type fakeFacilitator struct {
	verified *x402.VerifyResponse
	settled  *x402.SettleResponse

	verifyCalls int
	settleCalls int
}

func (f *fakeFacilitator) Verify(
	ctx context.Context, payload *x402.PaymentPayload, req x402.PaymentRequirements,
) (*x402.VerifyResponse, error) {
	f.verifyCalls++
	return f.verified, nil
}

func (f *fakeFacilitator) Settle(
	ctx context.Context, payload *x402.PaymentPayload, req x402.PaymentRequirements,
) (*x402.SettleResponse, error) {
	f.settleCalls++
	return f.settled, nil
}

func newFakeFacilitator() *fakeFacilitator {
	return &fakeFacilitator{
		verified: &x402.VerifyResponse{IsValid: true},
		settled:  &x402.SettleResponse{Success: true, Transaction: "0xsettled", Network: "base"},
	}
}

type fakeNeynar struct {
	users []neynar.User
}

func (f *fakeNeynar) GetUsers(ctx context.Context, fids []int64) ([]neynar.User, error) {
	return f.users, nil
}

func (f *fakeNeynar) PublishCast(ctx context.Context, text string, embeds []string) (neynar.Cast, error) {
	return neynar.Cast{}, errors.New("not implemented")
}

func (f *fakeNeynar) TestAPIKey(ctx context.Context) error {
	return nil
}

func isCallTo(contract string) any {
	return mock.MatchedBy(func(msg ethereum.CallMsg) bool {
		return msg.To != nil && *msg.To == ethcommon.HexToAddress(contract)
	})
}

// mockOwner makes ownerOf revert, or return owner when it is not empty.
func mockOwner(t *testing.T, client *mocks.EthClient, owner string) {
	if owner == "" {
		client.On("CallContract", mock.Anything, isCallTo(testutil.ContractAddress), mock.Anything).
			Return(nil, revertErr{data: "0x7e273289"})
		return
	}

	parsed, err := geoplet.ABI()
	require.NoError(t, err)
	out, err := parsed.Methods[geoplet.MethodOwnerOf].Outputs.Pack(ethcommon.HexToAddress(owner))
	require.NoError(t, err)

	client.On("CallContract", mock.Anything, isCallTo(testutil.ContractAddress), mock.Anything).Return(out, nil)
}

func newTestMintDomain(
	t *testing.T, ctx context.Context, client *mocks.EthClient, facilitator x402.IFacilitator,
) *mintDomain {
	d, err := NewMintDomain(ctx,
		repository.NewPaymentRepository(),
		repository.NewUnmintedRepository(),
		client,
		facilitator,
		&fakeNeynar{},
	)
	require.NoError(t, err)
	return d
}

// withPayment attaches a signed X-PAYMENT header to the request in ctx.
func withPayment(t *testing.T, ctx context.Context, d *mintDomain) context.Context {
	wallet, err := eth.NewLocalWallet(payerKey)
	require.NoError(t, err)

	payer := x402.NewPayer(wallet, big.NewInt(config.BaseChainID), "base")
	payload, err := payer.Pay(ctx, d.requirements(ctx))
	require.NoError(t, err)

	header, err := x402.EncodePayment(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/requestMintVoucher", nil)
	req.Header.Set(x402.PaymentHeader, header)
	return xcontext.WithHTTPRequest(ctx, req)
}

func Test_mintDomain_GetEligibility_AlreadyMinted(t *testing.T) {
	ctx := testutil.MockContext()
	client := &mocks.EthClient{}
	mockOwner(t, client, recipient)

	d := newTestMintDomain(t, ctx, client, newFakeFacilitator())
	resp, err := d.GetEligibility(ctx, &model.GetEligibilityRequest{Fid: 12, Address: recipient})
	require.NoError(t, err)
	require.True(t, resp.AlreadyMinted)
	require.Equal(t, ethcommon.HexToAddress(recipient).Hex(), resp.Owner)
	client.AssertNumberOfCalls(t, "CallContract", 1)
}

func Test_mintDomain_GetEligibility_InsufficientBalance(t *testing.T) {
	ctx := testutil.MockContext()
	client := &mocks.EthClient{}
	mockOwner(t, client, "")

	parsed, err := erc20.ERC20MetaData.GetAbi()
	require.NoError(t, err)
	out, err := parsed.Methods["balanceOf"].Outputs.Pack(big.NewInt(1_500_000))
	require.NoError(t, err)
	client.On("CallContract", mock.Anything, isCallTo(config.BaseUSDCAddress), mock.Anything).Return(out, nil)

	d := newTestMintDomain(t, ctx, client, newFakeFacilitator())
	resp, err := d.GetEligibility(ctx, &model.GetEligibilityRequest{Fid: 12, Address: recipient})
	require.NoError(t, err)
	require.False(t, resp.AlreadyMinted)
	require.False(t, resp.SufficientBalance)
	require.Equal(t, "1500000", resp.Balance)
	require.Equal(t, "2000000", resp.Price)
	require.NotEmpty(t, resp.AcquireURL)
}

func Test_mintDomain_RequestVoucher_ArtifactTooLarge(t *testing.T) {
	ctx := testutil.MockContext()
	client := &mocks.EthClient{}
	facilitator := newFakeFacilitator()

	d := newTestMintDomain(t, ctx, client, facilitator)
	_, err := d.RequestVoucher(ctx, &model.RequestMintVoucherRequest{
		Fid:   12,
		To:    recipient,
		Image: string(bytes.Repeat([]byte{'a'}, 24*1024+1)),
	})
	require.ErrorIs(t, err, errorx.New(errorx.ArtifactTooLarge, ""))
	client.AssertNotCalled(t, "CallContract", mock.Anything, mock.Anything, mock.Anything)
	require.Zero(t, facilitator.verifyCalls)
}

func Test_mintDomain_RequestVoucher_AlreadyMinted(t *testing.T) {
	ctx := testutil.MockContext()
	client := &mocks.EthClient{}
	mockOwner(t, client, recipient)
	facilitator := newFakeFacilitator()

	d := newTestMintDomain(t, ctx, client, facilitator)
	ctx = withPayment(t, ctx, d)

	_, err := d.RequestVoucher(ctx, &model.RequestMintVoucherRequest{Fid: 12, To: recipient, Image: "aGk="})
	require.ErrorIs(t, err, errorx.New(errorx.AlreadyMinted, ""))
	require.Zero(t, facilitator.settleCalls)
}

func Test_mintDomain_RequestVoucher_PaymentRequired(t *testing.T) {
	ctx := testutil.MockContext()
	client := &mocks.EthClient{}
	mockOwner(t, client, "")

	d := newTestMintDomain(t, ctx, client, newFakeFacilitator())
	_, err := d.RequestVoucher(ctx, &model.RequestMintVoucherRequest{Fid: 12, To: recipient, Image: "aGk="})
	require.ErrorIs(t, err, errorx.New(errorx.PaymentRequired, ""))

	var detailed *errorx.DetailedError
	require.True(t, errors.As(err, &detailed))
	required, ok := detailed.Data.(x402.PaymentRequiredResponse)
	require.True(t, ok)
	require.Len(t, required.Accepts, 1)
	require.Equal(t, "2000000", required.Accepts[0].MaxAmountRequired)
	require.Equal(t, testutil.MockConfigs().Payment.PayTo, required.Accepts[0].PayTo)
}

func Test_mintDomain_RequestVoucher_PaymentRejected(t *testing.T) {
	ctx := testutil.MockContext()
	client := &mocks.EthClient{}
	mockOwner(t, client, "")
	facilitator := newFakeFacilitator()
	facilitator.verified = &x402.VerifyResponse{IsValid: false, InvalidReason: "insufficient_funds"}

	d := newTestMintDomain(t, ctx, client, facilitator)
	ctx = withPayment(t, ctx, d)

	_, err := d.RequestVoucher(ctx, &model.RequestMintVoucherRequest{Fid: 12, To: recipient, Image: "aGk="})
	require.ErrorIs(t, err, errorx.New(errorx.PaymentNotVerified, ""))
	require.Zero(t, facilitator.settleCalls)

	_, err = repository.NewPaymentRepository().GetByFID(ctx, 12)
	require.Error(t, err)
}

func Test_mintDomain_RequestVoucher(t *testing.T) {
	ctx := testutil.MockContext()
	client := &mocks.EthClient{}
	mockOwner(t, client, "")
	facilitator := newFakeFacilitator()

	d := newTestMintDomain(t, ctx, client, facilitator)
	now := time.Unix(1700000000, 0)
	d.now = func() time.Time { return now }
	ctx = withPayment(t, ctx, d)
	header := http.Header{}
	ctx = xcontext.WithResponseHeader(ctx, header)

	resp, err := d.RequestVoucher(ctx, &model.RequestMintVoucherRequest{Fid: 12, To: recipient, Image: "aGk="})
	require.NoError(t, err)
	require.NotEmpty(t, header.Get(x402.PaymentResponseHeader))
	require.Equal(t, "12", resp.Voucher.Fid)
	require.Equal(t, "1700000600", resp.Voucher.Deadline)
	require.Equal(t, "0xsettled", resp.SettlementTxHash)

	nonce, ok := new(big.Int).SetString(resp.Voucher.Nonce, 10)
	require.True(t, ok)
	signature, err := hexutil.Decode(resp.Signature)
	require.NoError(t, err)

	signer, err := eth.RecoverVoucherSigner(d.signer.Domain(), geoplet.Voucher{
		To:       ethcommon.HexToAddress(recipient),
		Fid:      big.NewInt(12),
		Nonce:    nonce,
		Deadline: big.NewInt(1700000600),
	}, signature)
	require.NoError(t, err)
	require.Equal(t, d.signer.Address(), signer)

	record, err := repository.NewPaymentRepository().GetByFID(ctx, 12)
	require.NoError(t, err)
	require.Equal(t, entity.PaymentVoucherIssued, record.Status)
	require.Equal(t, "0xsettled", record.SettlementTxHash)

	// The same voucher is served again without a second charge.
	again, err := d.RequestVoucher(ctx, &model.RequestMintVoucherRequest{Fid: 12, To: recipient, Image: "aGk="})
	require.NoError(t, err)
	require.Equal(t, resp.Signature, again.Signature)
	require.Equal(t, 1, facilitator.settleCalls)
}

func Test_mintDomain_GetVoucher_Expired(t *testing.T) {
	ctx := testutil.MockContext()
	client := &mocks.EthClient{}
	d := newTestMintDomain(t, ctx, client, newFakeFacilitator())

	now := time.Unix(1700000000, 0)
	d.now = func() time.Time { return now }

	testutil.SamplePayment(ctx, entity.MintPayment{
		FIDBase:          entity.FIDBase{FID: 12},
		Recipient:        recipient,
		Status:           entity.PaymentVoucherIssued,
		VoucherNonce:     "7",
		VoucherDeadline:  now.Add(time.Minute).Unix(),
		VoucherSignature: "0x01",
	})

	resp, err := d.GetVoucher(ctx, &model.GetVoucherRequest{Fid: 12})
	require.NoError(t, err)
	require.Equal(t, "7", resp.Voucher.Nonce)

	now = now.Add(2 * time.Minute)
	_, err = d.GetVoucher(ctx, &model.GetVoucherRequest{Fid: 12})
	require.ErrorIs(t, err, errorx.New(errorx.VoucherExpired, ""))

	_, err = d.GetVoucher(ctx, &model.GetVoucherRequest{Fid: 13})
	require.ErrorIs(t, err, errorx.New(errorx.NotFound, ""))
}

func Test_mintDomain_ConfirmMint(t *testing.T) {
	ctx := testutil.MockContext()
	client := &mocks.EthClient{}
	mockOwner(t, client, recipient)

	txHash := "0x" + string(bytes.Repeat([]byte{'a'}, 64))
	client.On("TransactionReceipt", mock.Anything, ethcommon.HexToHash(txHash)).
		Return(&ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful}, nil)

	testutil.SamplePayment(ctx, entity.MintPayment{
		FIDBase:   entity.FIDBase{FID: 12},
		Recipient: recipient,
		Status:    entity.PaymentVoucherIssued,
	})
	testutil.SampleUnminted(ctx, entity.UnmintedGeneration{FIDBase: entity.FIDBase{FID: 12}})

	d := newTestMintDomain(t, ctx, client, newFakeFacilitator())
	_, err := d.ConfirmMint(ctx, &model.ConfirmMintRequest{Fid: 12, TxHash: txHash})
	require.NoError(t, err)

	record, err := repository.NewPaymentRepository().GetByFID(ctx, 12)
	require.NoError(t, err)
	require.Equal(t, entity.PaymentMinted, record.Status)
	require.Equal(t, txHash, record.MintTxHash)

	_, err = repository.NewUnmintedRepository().GetByFID(ctx, 12)
	require.Error(t, err)
}
