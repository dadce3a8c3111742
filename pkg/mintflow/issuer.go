package mintflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/geoplet/backend/contract/geoplet"
	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/pkg/api"
	"github.com/geoplet/backend/pkg/api/x402"
	"github.com/geoplet/backend/pkg/errorx"
	"github.com/geoplet/backend/pkg/xcontext"
)

// SignedVoucher is a MintVoucher together with the signature of the
// backend signer.
type SignedVoucher struct {
	Voucher          geoplet.Voucher
	Signature        []byte
	SettlementTxHash string
}

// Expired reports whether the contract would reject the voucher at now.
func (v *SignedVoucher) Expired(now int64) bool {
	return v.Voucher.Deadline == nil || v.Voucher.Deadline.Cmp(big.NewInt(now)) <= 0
}

type VoucherIssuer interface {
	RequestVoucher(ctx context.Context, fid int64, to common.Address, artifact string) (*SignedVoucher, error)
	GetVoucher(ctx context.Context, fid int64) (*SignedVoucher, error)
	ConfirmMint(ctx context.Context, fid int64, txHash common.Hash) error
}

// PaymentSigner answers a 402 challenge. It is implemented by x402.Payer.
type PaymentSigner interface {
	Select(accepts []x402.PaymentRequirements) (x402.PaymentRequirements, error)
	Pay(ctx context.Context, req x402.PaymentRequirements) (*x402.PaymentPayload, error)
}

// IssuerError is a non successful answer of the backend.
type IssuerError struct {
	Status  int
	Code    errorx.Code
	Message string
}

func (e *IssuerError) Error() string {
	return fmt.Sprintf("issuer responded %d (code %d): %s", e.Status, e.Code, e.Message)
}

var ErrVoucherNotFound = errors.New("voucher not found")

type envelope struct {
	Code  errorx.Code     `json:"code"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

type httpIssuer struct {
	generator     api.Generator
	postGenerator api.Generator
	payer         PaymentSigner
}

func NewHTTPIssuer(serverURL string, payer PaymentSigner) *httpIssuer {
	return &httpIssuer{
		generator: api.NewGenerator(serverURL),

		// Never repeat a paid request on our own, the payment header is single
		// use.
		postGenerator: api.NewGenerator(serverURL).WithRetryPolicy(api.NoRetry),
		payer:         payer,
	}
}

func (i *httpIssuer) RequestVoucher(
	ctx context.Context, fid int64, to common.Address, artifact string,
) (*SignedVoucher, error) {
	req := model.RequestMintVoucherRequest{Fid: fid, To: to.Hex(), Image: artifact}

	resp, env, err := i.post(ctx, "/requestMintVoucher", req, "")
	if err != nil {
		return nil, err
	}

	if resp.Code == http.StatusPaymentRequired && env.Code == errorx.PaymentRequired {
		header, err := i.pay(ctx, env.Data)
		if err != nil {
			return nil, err
		}

		resp, env, err = i.post(ctx, "/requestMintVoucher", req, header)
		if err != nil {
			return nil, err
		}
	}

	if !resp.IsSuccess() {
		return nil, issuerError(resp.Code, env)
	}

	var data model.RequestMintVoucherResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}

	voucher, err := parseVoucher(data.Voucher, data.Signature)
	if err != nil {
		return nil, err
	}

	voucher.SettlementTxHash = data.SettlementTxHash
	return voucher, nil
}

func (i *httpIssuer) GetVoucher(ctx context.Context, fid int64) (*SignedVoucher, error) {
	resp, err := i.generator.New("/getVoucher").
		Query(api.Parameter{"fid": strconv.FormatInt(fid, 10)}).
		GET(ctx)
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, issuerError(resp.Code, env)
	}

	var data model.GetVoucherResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}

	return parseVoucher(data.Voucher, data.Signature)
}

func (i *httpIssuer) ConfirmMint(ctx context.Context, fid int64, txHash common.Hash) error {
	resp, env, err := i.post(ctx, "/confirmMint", model.ConfirmMintRequest{Fid: fid, TxHash: txHash.Hex()}, "")
	if err != nil {
		return err
	}

	if !resp.IsSuccess() {
		return issuerError(resp.Code, env)
	}

	return nil
}

func (i *httpIssuer) pay(ctx context.Context, data json.RawMessage) (string, error) {
	if i.payer == nil {
		return "", errors.New("payment is required but no payer is configured")
	}

	var challenge x402.PaymentRequiredResponse
	if err := json.Unmarshal(data, &challenge); err != nil {
		return "", fmt.Errorf("invalid payment challenge: %w", err)
	}

	req, err := i.payer.Select(challenge.Accepts)
	if err != nil {
		return "", err
	}

	payload, err := i.payer.Pay(ctx, req)
	if err != nil {
		return "", err
	}

	xcontext.Logger(ctx).Infof("Paying %s to %s on %s", req.MaxAmountRequired, req.PayTo, req.Network)
	return x402.EncodePayment(payload)
}

func (i *httpIssuer) post(
	ctx context.Context, path string, body any, payment string,
) (*api.Response, *envelope, error) {
	client := i.postGenerator.New(path).Body(api.Struct{V: body})
	if payment != "" {
		client = client.Header(x402.PaymentHeader, payment)
	}

	resp, err := client.POST(ctx)
	if err != nil {
		return nil, nil, err
	}

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, nil, err
	}

	return resp, env, nil
}

func decodeEnvelope(resp *api.Response) (*envelope, error) {
	env := &envelope{}
	if len(resp.RawBody) == 0 {
		return env, nil
	}

	if err := json.Unmarshal(resp.RawBody, env); err != nil {
		return nil, fmt.Errorf("invalid issuer response (status %d): %w", resp.Code, err)
	}

	return env, nil
}

func issuerError(status int, env *envelope) error {
	switch env.Code {
	case errorx.AlreadyMinted:
		return ErrAlreadyMinted
	case errorx.ArtifactTooLarge:
		return ErrArtifactTooLarge
	case errorx.VoucherExpired:
		return ErrSignatureExpired
	case errorx.NotFound:
		return ErrVoucherNotFound
	}

	return &IssuerError{Status: status, Code: env.Code, Message: env.Error}
}

func parseVoucher(v model.Voucher, signature string) (*SignedVoucher, error) {
	if !common.IsHexAddress(v.To) {
		return nil, fmt.Errorf("invalid voucher recipient %q", v.To)
	}

	values := make([]*big.Int, 3)
	for i, s := range []string{v.Fid, v.Nonce, v.Deadline} {
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid voucher number %q", s)
		}
		values[i] = n
	}

	sig, err := hexutil.Decode(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid voucher signature: %w", err)
	}

	return &SignedVoucher{
		Voucher: geoplet.Voucher{
			To:       common.HexToAddress(v.To),
			Fid:      values[0],
			Nonce:    values[1],
			Deadline: values[2],
		},
		Signature: sig,
	}, nil
}
