package x402

import (
	"encoding/base64"
	"encoding/json"
)

const (
	Version = 1

	SchemeExact = "exact"

	// PaymentHeader carries the signed payment of the client.
	PaymentHeader = "X-PAYMENT"
	// PaymentResponseHeader carries the settlement result back to the client.
	PaymentResponseHeader = "X-PAYMENT-RESPONSE"
)

// PaymentRequirements describes what a resource costs and how to pay it.
type PaymentRequirements struct {
	Scheme            string            `json:"scheme"`
	Network           string            `json:"network"`
	MaxAmountRequired string            `json:"maxAmountRequired"`
	Resource          string            `json:"resource"`
	Description       string            `json:"description"`
	MimeType          string            `json:"mimeType"`
	PayTo             string            `json:"payTo"`
	MaxTimeoutSeconds int               `json:"maxTimeoutSeconds"`
	Asset             string            `json:"asset"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// PaymentRequiredResponse is the body of a 402 answer.
type PaymentRequiredResponse struct {
	X402Version int                   `json:"x402Version"`
	Error       string                `json:"error"`
	Accepts     []PaymentRequirements `json:"accepts"`
}

// Authorization is an EIP-3009 transferWithAuthorization message.
type Authorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

type ExactEvmPayload struct {
	Signature     string        `json:"signature"`
	Authorization Authorization `json:"authorization"`
}

type PaymentPayload struct {
	X402Version int             `json:"x402Version"`
	Scheme      string          `json:"scheme"`
	Network     string          `json:"network"`
	Payload     ExactEvmPayload `json:"payload"`
}

type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

type SettleResponse struct {
	Success     bool   `json:"success"`
	ErrorReason string `json:"errorReason,omitempty"`
	Transaction string `json:"transaction"`
	Network     string `json:"network"`
	Payer       string `json:"payer,omitempty"`
}

// DecodePayment parses the base64 json value of the X-PAYMENT header.
func DecodePayment(header string) (*PaymentPayload, error) {
	b, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, err
	}

	payload := &PaymentPayload{}
	if err := json.Unmarshal(b, payload); err != nil {
		return nil, err
	}

	return payload, nil
}

func EncodePayment(payload *PaymentPayload) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

func EncodeSettlement(resp *SettleResponse) (string, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(b), nil
}
