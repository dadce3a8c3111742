package x402

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/geoplet/backend/config"
	"github.com/geoplet/backend/pkg/api"
	"github.com/geoplet/backend/pkg/xcontext"
)

type IFacilitator interface {
	Verify(ctx context.Context, payload *PaymentPayload, req PaymentRequirements) (*VerifyResponse, error)
	Settle(ctx context.Context, payload *PaymentPayload, req PaymentRequirements) (*SettleResponse, error)
}

type Facilitator struct {
	apiGenerator    api.Generator
	settleGenerator api.Generator
}

func NewFacilitator(cfg config.PaymentConfigs) *Facilitator {
	return &Facilitator{
		apiGenerator: api.NewGenerator(cfg.FacilitatorURL),

		// The facilitator broadcasts the transfer on settle. A retry after a
		// timeout would fail on the consumed nonce anyway, so only try once.
		settleGenerator: api.NewGenerator(cfg.FacilitatorURL).WithRetryPolicy(api.RetryPolicy{
			Attempts: 1,
			Timeout:  api.NoRetry.Timeout,
		}),
	}
}

func (f *Facilitator) Verify(
	ctx context.Context, payload *PaymentPayload, req PaymentRequirements,
) (*VerifyResponse, error) {
	result := &VerifyResponse{}
	if err := f.call(ctx, f.apiGenerator, "/verify", payload, req, result); err != nil {
		return nil, err
	}

	return result, nil
}

func (f *Facilitator) Settle(
	ctx context.Context, payload *PaymentPayload, req PaymentRequirements,
) (*SettleResponse, error) {
	result := &SettleResponse{}
	if err := f.call(ctx, f.settleGenerator, "/settle", payload, req, result); err != nil {
		return nil, err
	}

	return result, nil
}

func (f *Facilitator) call(
	ctx context.Context,
	generator api.Generator,
	path string,
	payload *PaymentPayload,
	req PaymentRequirements,
	out any,
) error {
	resp, err := generator.New(path).
		Body(api.Struct{V: map[string]any{
			"x402Version":         Version,
			"paymentPayload":      payload,
			"paymentRequirements": req,
		}}).
		POST(ctx)
	if err != nil {
		return err
	}

	// Rejected payments are answered with 4xx and a readable reason.
	if resp.Code >= http.StatusInternalServerError {
		xcontext.Logger(ctx).Errorf("Facilitator %s failed: %d %s", path, resp.Code, resp.RawBody)
		return fmt.Errorf("facilitator %s returned status %d", path, resp.Code)
	}

	if err := json.Unmarshal(resp.RawBody, out); err != nil {
		if !resp.IsSuccess() {
			return fmt.Errorf("facilitator %s returned status %d", path, resp.Code)
		}

		return err
	}

	return nil
}
