package entity

import "github.com/geoplet/backend/pkg/enum"

type PaymentStatus string

var (
	PaymentSettled       = enum.New(PaymentStatus("settled"))
	PaymentVoucherIssued = enum.New(PaymentStatus("voucher_issued"))
	PaymentMinted        = enum.New(PaymentStatus("minted"))
	PaymentFailed        = enum.New(PaymentStatus("failed"))
)

// MintPayment records a settled x402 payment and the voucher issued for it,
// so a user whose client lost the voucher can recover it without paying
// twice.
type MintPayment struct {
	FIDBase

	Recipient        string
	Payer            string
	Amount           string
	SettlementTxHash string
	Status           PaymentStatus `gorm:"index"`
	VoucherNonce     string
	VoucherDeadline  int64
	VoucherSignature string
	MintTxHash       string
}
