package mintflow

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/geoplet/backend/config"
	"github.com/geoplet/backend/internal/model"
	"github.com/geoplet/backend/pkg/api/x402"
	"github.com/geoplet/backend/pkg/blockchain/eth"
	"github.com/geoplet/backend/pkg/errorx"
	"github.com/geoplet/backend/pkg/router"
	"github.com/stretchr/testify/require"
)

const payerKey = "8f2a55949038a9610f50fb23b5883af3b4ecb3c3bb792cbcefbd1542c692be63"

type testEnvelope struct {
	Code  errorx.Code `json:"code"`
	Error string      `json:"error,omitempty"`
	Data  any         `json:"data,omitempty"`
}

var testVoucherResponse = model.RequestMintVoucherResponse{
	Voucher: model.Voucher{
		To:       walletAddress.Hex(),
		Fid:      "42",
		Nonce:    "7",
		Deadline: "1700000600",
	},
	Signature:        "0x0102",
	SettlementTxHash: "0xsettled",
}

func newTestPayer(t *testing.T) *x402.Payer {
	wallet, err := eth.NewLocalWallet(payerKey)
	require.NoError(t, err)
	return x402.NewPayer(wallet, big.NewInt(config.BaseChainID), "base")
}

func TestHTTPIssuer_RequestVoucher_PaysOn402(t *testing.T) {
	payer := newTestPayer(t)
	requirements := x402.PaymentRequirements{
		Scheme:            x402.SchemeExact,
		Network:           "base",
		MaxAmountRequired: "2000000",
		PayTo:             "0x1111111111111111111111111111111111111111",
		MaxTimeoutSeconds: 300,
		Asset:             config.BaseUSDCAddress,
		Extra:             map[string]string{"name": "USD Coin", "version": "2"},
	}

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/requestMintVoucher", r.URL.Path)

		var req model.RequestMintVoucherRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, int64(42), req.Fid)
		require.Equal(t, "aGVsbG8=", req.Image)

		header := r.Header.Get(x402.PaymentHeader)
		if header == "" {
			_ = router.WriteJson(w, http.StatusPaymentRequired, testEnvelope{
				Code:  errorx.PaymentRequired,
				Error: "Payment required",
				Data: x402.PaymentRequiredResponse{
					X402Version: x402.Version,
					Accepts:     []x402.PaymentRequirements{requirements},
				},
			})
			return
		}

		payload, err := x402.DecodePayment(header)
		require.NoError(t, err)
		require.NoError(t, x402.Match(payload, requirements))
		require.Equal(t, payer.Address().Hex(), payload.Payload.Authorization.From)

		_ = router.WriteJson(w, http.StatusOK, testEnvelope{Data: testVoucherResponse})
	}))
	defer server.Close()

	issuer := NewHTTPIssuer(server.URL, payer)
	voucher, err := issuer.RequestVoucher(testContext(), 42, walletAddress, "aGVsbG8=")
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, walletAddress, voucher.Voucher.To)
	require.Equal(t, "42", voucher.Voucher.Fid.String())
	require.Equal(t, "1700000600", voucher.Voucher.Deadline.String())
	require.Equal(t, []byte{1, 2}, voucher.Signature)
	require.Equal(t, "0xsettled", voucher.SettlementTxHash)
}

func TestHTTPIssuer_RequestVoucher_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		code    errorx.Code
		wantErr error
	}{
		{name: "already minted", status: http.StatusConflict, code: errorx.AlreadyMinted, wantErr: ErrAlreadyMinted},
		{name: "too large", status: http.StatusBadRequest, code: errorx.ArtifactTooLarge, wantErr: ErrArtifactTooLarge},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = router.WriteJson(w, tt.status, testEnvelope{Code: tt.code, Error: "failed"})
			}))
			defer server.Close()

			_, err := NewHTTPIssuer(server.URL, nil).RequestVoucher(testContext(), 42, walletAddress, "aGVsbG8=")
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPIssuer_RequestVoucher_PaymentRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(x402.PaymentHeader) == "" {
			_ = router.WriteJson(w, http.StatusPaymentRequired, testEnvelope{
				Code: errorx.PaymentRequired,
				Data: x402.PaymentRequiredResponse{
					X402Version: x402.Version,
					Accepts: []x402.PaymentRequirements{{
						Scheme:            x402.SchemeExact,
						Network:           "base",
						MaxAmountRequired: "2000000",
						PayTo:             "0x1111111111111111111111111111111111111111",
						Asset:             config.BaseUSDCAddress,
						Extra:             map[string]string{"name": "USD Coin", "version": "2"},
					}},
				},
			})
			return
		}

		_ = router.WriteJson(w, http.StatusPaymentRequired, testEnvelope{
			Code:  errorx.PaymentNotVerified,
			Error: "Payment was not accepted",
		})
	}))
	defer server.Close()

	_, err := NewHTTPIssuer(server.URL, newTestPayer(t)).RequestVoucher(testContext(), 42, walletAddress, "aGVsbG8=")
	var issuerErr *IssuerError
	require.ErrorAs(t, err, &issuerErr)
	require.Equal(t, errorx.PaymentNotVerified, issuerErr.Code)
	require.Equal(t, http.StatusPaymentRequired, issuerErr.Status)
}

func TestHTTPIssuer_RequestVoucher_UnsignableChallenge(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = router.WriteJson(w, http.StatusPaymentRequired, testEnvelope{
			Code: errorx.PaymentRequired,
			Data: x402.PaymentRequiredResponse{
				X402Version: x402.Version,
				Accepts: []x402.PaymentRequirements{{
					Scheme:            x402.SchemeExact,
					Network:           "base",
					MaxAmountRequired: "2000000",
					PayTo:             "0x1111111111111111111111111111111111111111",
					Asset:             config.BaseUSDCAddress,
				}},
			},
		})
	}))
	defer server.Close()

	_, err := NewHTTPIssuer(server.URL, newTestPayer(t)).RequestVoucher(testContext(), 42, walletAddress, "aGVsbG8=")
	require.ErrorIs(t, err, x402.ErrUnsupportedRequirements)
	require.Equal(t, 1, calls)
}

func TestHTTPIssuer_GetVoucher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("fid") {
		case "42":
			_ = router.WriteJson(w, http.StatusOK, testEnvelope{Data: model.GetVoucherResponse{
				Voucher:   testVoucherResponse.Voucher,
				Signature: testVoucherResponse.Signature,
			}})
		default:
			_ = router.WriteJson(w, http.StatusNotFound, testEnvelope{Code: errorx.NotFound, Error: "not found"})
		}
	}))
	defer server.Close()

	issuer := NewHTTPIssuer(server.URL, nil)

	voucher, err := issuer.GetVoucher(testContext(), 42)
	require.NoError(t, err)
	require.Equal(t, "7", voucher.Voucher.Nonce.String())

	_, err = issuer.GetVoucher(testContext(), 43)
	require.ErrorIs(t, err, ErrVoucherNotFound)
}

func TestHTTPIssuer_ConfirmMint(t *testing.T) {
	var got model.ConfirmMintRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/confirmMint", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = router.WriteJson(w, http.StatusOK, testEnvelope{Data: model.ConfirmMintResponse{}})
	}))
	defer server.Close()

	hash := common.HexToHash("0xabc")
	require.NoError(t, NewHTTPIssuer(server.URL, nil).ConfirmMint(testContext(), 42, hash))
	require.Equal(t, int64(42), got.Fid)
	require.Equal(t, hash.Hex(), got.TxHash)
}
