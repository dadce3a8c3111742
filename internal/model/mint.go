package model

type Voucher struct {
	To       string `json:"to"`
	Fid      string `json:"fid"`
	Nonce    string `json:"nonce"`
	Deadline string `json:"deadline"`
}

type GetEligibilityRequest struct {
	Fid     int64  `json:"fid"`
	Address string `json:"address"`
}

type GetEligibilityResponse struct {
	AlreadyMinted     bool   `json:"already_minted"`
	Owner             string `json:"owner,omitempty"`
	Price             string `json:"price"`
	Balance           string `json:"balance,omitempty"`
	SufficientBalance bool   `json:"sufficient_balance"`
	AcquireURL        string `json:"acquire_url,omitempty"`
}

type RequestMintVoucherRequest struct {
	Fid   int64  `json:"fid"`
	To    string `json:"to"`
	Image string `json:"image"`
}

type RequestMintVoucherResponse struct {
	Voucher          Voucher `json:"voucher"`
	Signature        string  `json:"signature"`
	SettlementTxHash string  `json:"settlement_tx_hash,omitempty"`
}

type GetVoucherRequest struct {
	Fid int64 `json:"fid"`
}

type GetVoucherResponse struct {
	Voucher   Voucher `json:"voucher"`
	Signature string  `json:"signature"`
}

type ConfirmMintRequest struct {
	Fid    int64  `json:"fid"`
	TxHash string `json:"tx_hash"`
}

type ConfirmMintResponse struct{}
